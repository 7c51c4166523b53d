// Package metadata resolves credential metadata URIs (data:, ipfs:// and
// http(s)://) into token metadata documents.
package metadata
