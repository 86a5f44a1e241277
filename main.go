package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okx/xlayer-toolkit/tools/multisend/config"
	"github.com/okx/xlayer-toolkit/tools/multisend/menu"
	"github.com/okx/xlayer-toolkit/tools/multisend/sender"
)

const (
	FlagConfigFile = "config-file"
	FlagRPC        = "rpc"
	FlagToken      = "token"
	FlagKeys       = "keys"
	FlagAddresses  = "addresses"
	FlagVerbosity  = "verbosity"

	FlagNative = "native"
	FlagCount  = "count"
	FlagDelay  = "delay"
	FlagAmount = "amount"
)

var (
	configPath string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "multisend",
		Short: "Multi-wallet native coin and ERC20 transfer tool",
		Long: `Read private keys and recipient addresses from text files, check wallet
balances and send native coin or ERC20 transfers from every wallet.

Run without a subcommand to open the interactive menu.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return bindConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			ctl := menu.NewController(os.Stdin, os.Stdout, a.header(), a, a.logger)
			return ctl.Run(cmd.Context())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, FlagConfigFile, "f", "", "Path to an optional JSON/YAML configuration file")
	flags.String(FlagRPC, "", "JSON-RPC endpoint (overrides RPC_URL)")
	flags.String(FlagToken, "", "ERC20 token contract address (overrides TOKEN_CONTRACT)")
	flags.String(FlagKeys, "", "Private keys file (overrides PRIVATE_KEYS_FILE)")
	flags.String(FlagAddresses, "", "Recipient addresses file (overrides ADDRESSES_FILE)")
	flags.Int(FlagVerbosity, 3, "Log verbosity 0-5 (overrides LOG_LEVEL)")

	rootCmd.AddCommand(
		balanceCmd(),
		sendCmd(),
	)
	return rootCmd
}

func bindConfig(cmd *cobra.Command) error {
	flags := cmd.Flags()
	bindings := map[string]string{
		FlagRPC:       config.RPCURLKey,
		FlagToken:     config.TokenContractKey,
		FlagKeys:      config.PrivateKeysFileKey,
		FlagAddresses: config.AddressesFileKey,
		FlagVerbosity: config.LogLevelKey,
	}
	for flag, key := range bindings {
		// Unset flags must not shadow file or env values
		if !flags.Changed(flag) {
			continue
		}
		if err := config.BindFlag(key, flags.Lookup(flag)); err != nil {
			return err
		}
	}
	return config.Load(configPath)
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Print native and token balances of every wallet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return a.CheckBalances(cmd.Context())
		},
	}
}

func sendCmd() *cobra.Command {
	var (
		native bool
		count  string
		delay  string
		amount string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send transfers from every wallet without the interactive menu",
		Long: `Send --count transfers from every wallet, rotating through the address list.

Example:
  multisend send --native --count 5 --delay 5 --amount 0.01`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			useNative := "n"
			if native {
				useNative = "y"
			}
			cfg, err := sender.ParseSendConfig(useNative, count, delay, amount)
			if err != nil {
				return fmt.Errorf("invalid send parameters: %w", err)
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Send(cmd.Context(), cfg)
		},
	}

	cmd.Flags().BoolVar(&native, FlagNative, false, "Send the native coin instead of the ERC20 token")
	cmd.Flags().StringVar(&count, FlagCount, "1", "Transactions per wallet")
	cmd.Flags().StringVar(&delay, FlagDelay, "5", "Seconds to wait after each successful transaction")
	cmd.Flags().StringVar(&amount, FlagAmount, "", "Amount per transaction, e.g. 0.01")
	_ = cmd.MarkFlagRequired(FlagAmount)

	return cmd
}
