// Package console implements the credential console for the VerifychainNFT
// soulbound contract.
//
// A Console tracks the wallet session (connected account, chain and whether
// the account is the contract owner) and offers four operations:
//
//   - IssueOne mints a single credential.
//   - IssueBatch mints one credential per recipient in a single transaction.
//   - LookupOne reads the holder and metadata URI of a token.
//   - ListRange scans a contiguous range of token ids.
//
// All operations update a serializable State snapshot. Write operations are
// gated on the session owning the contract; the contract enforces the same
// rule on-chain.
package console
