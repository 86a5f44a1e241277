package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/fatih/color"

	"github.com/okx/xlayer-toolkit/tools/multisend/sender"
)

// Actions are the operations the menu can trigger
type Actions interface {
	CheckBalances(ctx context.Context) error
	Send(ctx context.Context, cfg sender.SendConfig) error
}

// Header is printed above the menu
type Header struct {
	Wallets       int
	Addresses     int
	TokenContract string
}

// Controller runs the interactive menu loop
type Controller struct {
	in      *bufio.Reader
	out     io.Writer
	header  Header
	actions Actions
	logger  log.Logger
}

func NewController(in io.Reader, out io.Writer, header Header, actions Actions, logger log.Logger) *Controller {
	return &Controller{
		in:      bufio.NewReader(in),
		out:     out,
		header:  header,
		actions: actions,
		logger:  logger,
	}
}

// Run shows the menu until the user exits or input ends. Errors from an
// action are logged and the menu is shown again.
func (c *Controller) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.printMenu()

		choice, err := c.ask("Choose an option (1-3): ")
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(c.out, "👋 Exiting...")
				return nil
			}
			return err
		}

		switch choice {
		case "1":
			c.run(ctx, "balance check", func() error {
				if err := c.actions.CheckBalances(ctx); err != nil {
					return err
				}
				fmt.Fprintln(c.out, "✅ Balance check completed.")
				return nil
			})
		case "2":
			cfg, err := c.collectSendConfig()
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(c.out, "👋 Exiting...")
				return nil
			}
			if err != nil {
				color.New(color.FgRed).Fprintf(c.out, "❌ Enter a valid number! (%v)\n", err)
				continue
			}
			fmt.Fprintf(c.out, "🚀 Sending %d transactions with %s %s per transaction and a delay of %d seconds using multiple wallets...\n",
				cfg.NumTransactions, cfg.Amount, cfg.AssetLabel(), cfg.DelaySeconds)
			c.run(ctx, "send", func() error {
				if err := c.actions.Send(ctx, cfg); err != nil {
					return err
				}
				fmt.Fprintln(c.out, "✅ Transactions completed. Return to Main Menu")
				return nil
			})
		case "3":
			fmt.Fprintln(c.out, "👋 Exiting...")
			return nil
		default:
			color.New(color.FgRed).Fprintln(c.out, "❌ Invalid choice! Please select a valid option.")
		}
	}
}

// run executes an action, logging errors and recovering from panics so the
// menu stays available.
func (c *Controller) run(ctx context.Context, name string, action func() error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("❌ Unexpected error", "action", name, "panic", r)
		}
	}()
	if err := action(); err != nil {
		if ctx.Err() != nil {
			c.logger.Warn("⚠️ Action interrupted", "action", name, "err", err)
			return
		}
		c.logger.Error("❌ Action failed", "action", name, "err", err)
	}
}

// collectSendConfig asks every send question up front and validates the
// answers together.
func (c *Controller) collectSendConfig() (sender.SendConfig, error) {
	questions := []string{
		"Do you want to use the native coin? (y/n): ",
		"How many transactions do you want to send? ",
		"How many seconds delay per Tx? (5 seconds is safe): ",
		"How many tokens do you want to send per transaction? ",
	}
	answers := make([]string, len(questions))
	for i, q := range questions {
		a, err := c.ask(q)
		if err != nil {
			return sender.SendConfig{}, err
		}
		answers[i] = a
	}
	return sender.ParseSendConfig(answers[0], answers[1], answers[2], answers[3])
}

func (c *Controller) ask(question string) (string, error) {
	fmt.Fprint(c.out, question)
	line, err := c.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (c *Controller) printMenu() {
	yellow := color.New(color.FgYellow, color.Bold)
	yellow.Fprintln(c.out, "=== Multisend ===")
	fmt.Fprintf(c.out, "📋 Total wallets: %d\n", c.header.Wallets)
	fmt.Fprintf(c.out, "📋 Total addresses: %d\n", c.header.Addresses)
	fmt.Fprintf(c.out, "📋 Detected contract address: %s\n", c.header.TokenContract)

	fmt.Fprintln(c.out, "\n=== Main Menu ===")
	fmt.Fprintln(c.out, "1. Check balances for all wallets")
	fmt.Fprintln(c.out, "2. Send tokens")
	fmt.Fprintln(c.out, "3. Exit")
}
