// Package shared provides common utilities used across the Verifychain
// Credentials SDK for Go. It includes the chain registry (labels and block
// explorer links per chain id), operator environment variable loading, YAML
// configuration, Hedera client construction, and key parsing helpers.
//
// This package is typically used internally by other SDK packages but is
// also available for direct use when building custom integrations with the
// credential contract.
//
// # Environment Variables
//
// Operator settings are read from the process environment, after loading a
// .env file from the working directory when one is present:
//
//   - VERIFYCHAIN_RPC_URL: JSON-RPC endpoint of the target chain
//   - VERIFYCHAIN_PRIVATE_KEY: hex secp256k1 key of the issuing wallet
//   - VERIFYCHAIN_CONTRACT_ADDRESS: overrides the built-in contract address
//   - VERIFYCHAIN_CHAIN_ID: expected chain id (optional)
//   - HEDERA_ACCOUNT_ID / HEDERA_PRIVATE_KEY / HEDERA_NETWORK: Hedera operator
//     used by the native Hedera backend, with MAINNET_ and TESTNET_ scoped
//     overrides
package shared
