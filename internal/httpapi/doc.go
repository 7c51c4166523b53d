// Package httpapi exposes a credential console over HTTP with gin.
package httpapi
