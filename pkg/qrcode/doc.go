// Package qrcode renders scannable codes of credential metadata URIs as PNG
// images, data URLs and terminal text.
package qrcode
