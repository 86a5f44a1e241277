package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	// RPCURLKey is the JSON-RPC endpoint of the target network
	RPCURLKey = "RPC_URL"
	// TokenContractKey is the address of the designated ERC-20 token
	TokenContractKey = "TOKEN_CONTRACT"
	// PrivateKeysFileKey is the newline-delimited list of sender secrets
	PrivateKeysFileKey = "PRIVATE_KEYS_FILE"
	// AddressesFileKey is the newline-delimited list of recipients
	AddressesFileKey = "ADDRESSES_FILE"
	// RPCRateLimitKey caps RPC requests per second, 0 disables the limit
	RPCRateLimitKey = "RPC_RATE_LIMIT"
	// RPCTimeoutKey is the HTTP timeout of a single RPC request
	RPCTimeoutKey = "RPC_TIMEOUT"
	// SaveTxHashesKey enables the tx hash journal
	SaveTxHashesKey = "SAVE_TX_HASHES"
	// TxHashesFileKey is where the journal is appended
	TxHashesFileKey = "TX_HASHES_FILE"
	// NonceFetchRetriesKey is how many times a failed nonce query is retried
	NonceFetchRetriesKey = "NONCE_FETCH_RETRIES"
	// LogLevelKey uses geth verbosity levels: 0=crit, 1=error, 2=warn, 3=info, 4=debug, 5=trace
	LogLevelKey = "LOG_LEVEL"

	DefaultRPCURL        = "https://tea-sepolia.g.alchemy.com/public"
	DefaultTokenContract = "0xaC6719bcF3E276410D3aE0F6860B90f4bE6cbb53"
)

var vip *viper.Viper

func init() {
	vip = newViper()
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("MULTISEND")
	v.AutomaticEnv()

	v.SetDefault(RPCURLKey, DefaultRPCURL)
	v.SetDefault(TokenContractKey, DefaultTokenContract)
	v.SetDefault(PrivateKeysFileKey, "private_keys.txt")
	v.SetDefault(AddressesFileKey, "address.txt")
	v.SetDefault(RPCRateLimitKey, 0)
	v.SetDefault(RPCTimeoutKey, 15*time.Second)
	v.SetDefault(SaveTxHashesKey, false)
	v.SetDefault(TxHashesFileKey, "txhashes.log")
	v.SetDefault(NonceFetchRetriesKey, 3)
	v.SetDefault(LogLevelKey, 3)
	return v
}

// Load reads an optional .env file and an optional config file, then
// validates the merged result. Environment variables override the file.
func Load(configPath string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	return validate()
}

// BindFlag lets a command line flag override key when it is set
func BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("flag for %s not found", key)
	}
	return vip.BindPFlag(key, flag)
}

// GetString ...
func GetString(key string) string {
	return vip.GetString(key)
}

// GetInt ...
func GetInt(key string) int {
	return vip.GetInt(key)
}

// GetFloat ...
func GetFloat(key string) float64 {
	return vip.GetFloat64(key)
}

// GetDuration ...
func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

// GetBool ...
func GetBool(key string) bool {
	return vip.GetBool(key)
}

// Set a value for the given key
func Set(key string, value interface{}) {
	vip.Set(key, value)
}

// GetTokenContract returns the designated token address
func GetTokenContract() common.Address {
	return common.HexToAddress(GetString(TokenContractKey))
}

func validate() error {
	if GetString(RPCURLKey) == "" {
		return fmt.Errorf("%s must not be empty", RPCURLKey)
	}
	if !common.IsHexAddress(GetString(TokenContractKey)) {
		return fmt.Errorf("%s %q is not a valid address", TokenContractKey, GetString(TokenContractKey))
	}
	if GetString(PrivateKeysFileKey) == "" || GetString(AddressesFileKey) == "" {
		return fmt.Errorf("%s and %s must not be empty", PrivateKeysFileKey, AddressesFileKey)
	}
	if GetFloat(RPCRateLimitKey) < 0 {
		return fmt.Errorf("%s must not be negative", RPCRateLimitKey)
	}
	if GetInt(NonceFetchRetriesKey) < 0 {
		return fmt.Errorf("%s must not be negative", NonceFetchRetriesKey)
	}
	if lvl := GetInt(LogLevelKey); lvl < 0 || lvl > 5 {
		return fmt.Errorf("%s must be between 0 and 5, got %d", LogLevelKey, lvl)
	}
	return nil
}

func reset() {
	vip = newViper()
}
