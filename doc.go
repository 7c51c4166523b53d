// The Verifychain Credentials SDK for Go drives the VerifychainNFT contract,
// an ERC-721 whose tokens are soulbound credentials. The contract owner issues
// credentials to one or many recipients; anyone can look up who holds a
// credential and where its metadata lives.
//
// # Packages
//
//   - console: the credential console. Wallet session, owner check, issuing,
//     single lookup and range listing, with a serializable State snapshot.
//   - contract: contract bindings over EVM JSON-RPC and over Hedera
//     (ContractExecute writes, mirror node reads), revert decoding and
//     Transfer log parsing.
//   - wallet: the wallet provider contract and a key-holding implementation
//     that emits account and chain change events.
//   - mirror: Hedera mirror node client for contract calls and results.
//   - qrcode: QR renderings of metadata URIs.
//   - metadata: resolution of data:, ipfs:// and http(s) metadata URIs.
//   - shared: configuration, chain registry and operator settings.
//
// The credconsole command (cmd/credconsole) exposes the same operations on the
// command line and as an HTTP API.
//
// # Installation
//
//	go get github.com/verifychain/credentials-sdk-go@latest
package credentials_sdk_go
