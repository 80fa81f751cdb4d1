package utils

import (
	"crypto/rand"
	"encoding/base64"
)

func RandomString(bytes int) string {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		// crypto/rand does not fail on supported platforms.
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// SocketID names a control socket in logs.
func SocketID() string {
	return "ws_" + RandomString(6)
}
