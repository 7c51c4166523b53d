// Package mirror provides a Hedera Mirror Node client used by the Hedera
// contract backend of the Verifychain Credentials SDK. It performs read-only
// contract calls through the mirror node's EVM simulation endpoint and
// resolves the EVM hash and emitted logs of executed contract transactions.
//
// The mirror node provides a read-only view of the Hedera public ledger, so
// reads cost nothing and need no operator account.
//
// # Hedera Mirror Node
//
// Learn more about Hedera: https://docs.hedera.com
package mirror
