package shared

import (
	"crypto/ecdsa"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/joho/godotenv"
)

// DefaultContractAddress is the deployed VerifychainNFT contract on Sepolia.
const DefaultContractAddress = "0xA55D3D557332d196D3C7E813b0f9D6ec355Fe230"

type OperatorConfig struct {
	RPCURL          string
	PrivateKey      string
	ContractAddress string
	ChainID         uint64

	HederaAccountID  string
	HederaPrivateKey string
	HederaNetwork    string
}

// HasHederaOperator reports whether a Hedera operator is configured.
func (c OperatorConfig) HasHederaOperator() bool {
	return c.HederaAccountID != "" && c.HederaPrivateKey != ""
}

var dotenvLoadOnce sync.Once

// OperatorConfigFromEnv reads operator settings from the environment. Values
// already present in the environment win over the .env file.
func OperatorConfigFromEnv() (OperatorConfig, error) {
	LoadDotEnv()

	config := OperatorConfig{
		RPCURL:          firstNonEmptyEnv("VERIFYCHAIN_RPC_URL", "RPC_URL"),
		PrivateKey:      firstNonEmptyEnv("VERIFYCHAIN_PRIVATE_KEY", "PRIVATE_KEY"),
		ContractAddress: firstNonEmptyEnv("VERIFYCHAIN_CONTRACT_ADDRESS", "CONTRACT_ADDRESS"),
	}
	if config.ContractAddress == "" {
		config.ContractAddress = DefaultContractAddress
	}

	if rawChainID := firstNonEmptyEnv("VERIFYCHAIN_CHAIN_ID", "CHAIN_ID"); rawChainID != "" {
		chainID, err := strconv.ParseUint(rawChainID, 0, 64)
		if err != nil {
			return OperatorConfig{}, fmt.Errorf("invalid VERIFYCHAIN_CHAIN_ID %q: %w", rawChainID, err)
		}
		config.ChainID = chainID
	}

	network := firstNonEmptyEnv("HEDERA_NETWORK")
	if network == "" {
		network = NetworkTestnet
	}
	normalized, err := NormalizeNetwork(network)
	if err != nil {
		return OperatorConfig{}, err
	}
	config.HederaNetwork = normalized
	config.HederaAccountID = firstNonEmptyEnv("HEDERA_ACCOUNT_ID", "HEDERA_OPERATOR_ID")
	config.HederaPrivateKey = firstNonEmptyEnv("HEDERA_PRIVATE_KEY", "HEDERA_OPERATOR_KEY")

	prefix := strings.ToUpper(normalized) + "_"
	if scopedAccount := firstNonEmptyEnv(
		prefix+"HEDERA_ACCOUNT_ID",
		prefix+"HEDERA_OPERATOR_ID",
	); scopedAccount != "" {
		config.HederaAccountID = scopedAccount
	}
	if scopedKey := firstNonEmptyEnv(
		prefix+"HEDERA_PRIVATE_KEY",
		prefix+"HEDERA_OPERATOR_KEY",
	); scopedKey != "" {
		config.HederaPrivateKey = scopedKey
	}

	return config, nil
}

// LoadDotEnv loads .env from the working directory once per process. Values
// already present in the environment are kept.
func LoadDotEnv() {
	dotenvLoadOnce.Do(func() {
		if _, err := os.Stat(".env"); err != nil {
			return
		}
		_ = godotenv.Load(".env")
	})
}

func firstNonEmptyEnv(keys ...string) string {
	for _, key := range keys {
		value := strings.TrimSpace(os.Getenv(key))
		if value != "" {
			return value
		}
	}
	return ""
}

// ParseECDSAKey parses a hex secp256k1 private key with or without 0x prefix.
func ParseECDSAKey(raw string) (*ecdsa.PrivateKey, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return nil, fmt.Errorf("private key cannot be empty")
	}
	candidate = strings.TrimPrefix(strings.TrimPrefix(candidate, "0x"), "0X")

	key, err := crypto.HexToECDSA(candidate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return key, nil
}

// ParsePrivateKey parses a Hedera operator key (ED25519 or ECDSA encodings).
func ParsePrivateKey(raw string) (hedera.PrivateKey, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return hedera.PrivateKey{}, fmt.Errorf("private key cannot be empty")
	}

	ed25519Key, edErr := hedera.PrivateKeyFromStringEd25519(candidate)
	if edErr == nil {
		return ed25519Key, nil
	}

	ecdsaKey, ecdsaErr := hedera.PrivateKeyFromStringECDSA(candidate)
	if ecdsaErr == nil {
		return ecdsaKey, nil
	}

	return hedera.PrivateKey{}, fmt.Errorf("failed to parse private key: ed25519=%v ecdsa=%v", edErr, ecdsaErr)
}
