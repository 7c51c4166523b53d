package shared

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"gopkg.in/yaml.v3"
)

const (
	BackendEVM    = "evm"
	BackendHedera = "hedera"
)

const (
	DefaultMaxRangeSpan = 1000
	DefaultListenAddr   = ":8080"
	DefaultIPFSGateway  = "https://ipfs.io/ipfs/"
)

type MirrorConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// Config is the static configuration of a credential console deployment.
type Config struct {
	ContractAddress string       `yaml:"contract_address"`
	ABIPath         string       `yaml:"abi_path"`
	RPCURL          string       `yaml:"rpc_url"`
	Backend         string       `yaml:"backend"`
	ChainID         uint64       `yaml:"chain_id"`
	Chains          []Chain      `yaml:"chains"`
	MaxRangeSpan    uint64       `yaml:"max_range_span"`
	Listen          string       `yaml:"listen"`
	IPFSGateway     string       `yaml:"ipfs_gateway"`
	Mirror          MirrorConfig `yaml:"mirror"`
	LogLevel        string       `yaml:"log_level"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		ContractAddress: DefaultContractAddress,
		Backend:         BackendEVM,
		MaxRangeSpan:    DefaultMaxRangeSpan,
		Listen:          DefaultListenAddr,
		IPFSGateway:     DefaultIPFSGateway,
		LogLevel:        "info",
	}
}

// LoadConfig reads a YAML file over DefaultConfig. An empty path returns the
// defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if strings.TrimSpace(path) == "" {
		return config, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &config); err != nil {
		return Config{}, fmt.Errorf("failed to decode config %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// ApplyOperator overlays environment-provided values.
func (c *Config) ApplyOperator(operator OperatorConfig) {
	if operator.RPCURL != "" {
		c.RPCURL = operator.RPCURL
	}
	if operator.ContractAddress != "" {
		c.ContractAddress = operator.ContractAddress
	}
	if operator.ChainID != 0 {
		c.ChainID = operator.ChainID
	}
}

// Validate checks the configuration for values that cannot work.
func (c Config) Validate() error {
	if !common.IsHexAddress(strings.TrimSpace(c.ContractAddress)) {
		return fmt.Errorf("contract_address %q is not a valid address", c.ContractAddress)
	}

	switch strings.ToLower(strings.TrimSpace(c.Backend)) {
	case "", BackendEVM, BackendHedera:
	default:
		return fmt.Errorf("backend must be %s or %s", BackendEVM, BackendHedera)
	}

	for _, chain := range c.Chains {
		if chain.ID == 0 {
			return fmt.Errorf("chains entries require a non-zero id")
		}
		if chain.HederaNetwork != "" {
			if _, err := NormalizeNetwork(chain.HederaNetwork); err != nil {
				return err
			}
		}
	}

	return nil
}

// BackendName returns the normalized backend, defaulting to BackendEVM.
func (c Config) BackendName() string {
	backend := strings.ToLower(strings.TrimSpace(c.Backend))
	if backend == "" {
		return BackendEVM
	}
	return backend
}

// ChainRegistry returns the default chains extended with configured ones.
func (c Config) ChainRegistry() *ChainRegistry {
	registry := DefaultChains()
	for _, chain := range c.Chains {
		registry.Register(chain)
	}
	return registry
}
