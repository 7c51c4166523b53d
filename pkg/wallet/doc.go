// Package wallet models the account provider the credential console talks to:
// account authorization, the active chain, transaction signing and the
// accountsChanged / chainChanged notifications.
//
// KeyedProvider is an in-process implementation backed by secp256k1 keys.
package wallet
