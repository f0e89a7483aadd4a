package vault

import (
	"encoding/base64"
	"errors"
	"strings"
)

// obfuscationMarker prefixes every fallback-written value so readers can tell
// the entry is NOT encrypted, only encoded.
const obfuscationMarker = "obf1:"

// xorKey is a fixed rolling key. This is reversible encoding, not security;
// it exists so previously written fallback values stay readable.
var xorKey = []byte("fieldops")

// obfuscate applies a reversible XOR-plus-base64 transform.
func obfuscate(plaintext string) string {
	data := []byte(plaintext)
	for i := range data {
		data[i] ^= xorKey[i%len(xorKey)]
	}
	return obfuscationMarker + base64.StdEncoding.EncodeToString(data)
}

// deobfuscate reverses obfuscate.
func deobfuscate(encoded string) (string, error) {
	if !strings.HasPrefix(encoded, obfuscationMarker) {
		return "", errors.New("missing obfuscation marker")
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(encoded, obfuscationMarker))
	if err != nil {
		return "", err
	}
	for i := range data {
		data[i] ^= xorKey[i%len(xorKey)]
	}
	return string(data), nil
}
