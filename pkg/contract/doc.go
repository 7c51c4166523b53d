// Package contract binds the VerifychainNFT soulbound credential contract.
//
// It exposes the calls the credential console needs as two small interfaces,
// Caller for reads (owner, ownerOf, tokenURI) and Transactor for the owner-only
// issue calls, and ships two implementations:
//
//   - EVMClient talks JSON-RPC through go-ethereum's ethclient and works on
//     any EVM chain, including the Hedera JSON-RPC relay.
//   - HederaClient submits writes as Hedera ContractExecute transactions and
//     reads contract state and results from the Hedera mirror node.
//
// Write calls return a PendingTx whose Wait yields a Receipt with the ordered
// logs emitted by the transaction. MintedTokenIDs recovers the ids minted by
// a transaction from those logs.
//
// The interface description is embedded from abi/VerifychainNFT.json and can
// be replaced with LoadABI.
package contract
