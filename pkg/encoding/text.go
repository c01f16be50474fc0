// Package encoding provides text and fixed-size name helpers for POD asset formats.
package encoding

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DecodeName converts Windows-1252 encoded bytes to a UTF-8 string.
// Returns the original bytes as a string if conversion fails.
func DecodeName(data []byte) string {
	decoder := charmap.Windows1252.NewDecoder()
	result, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// EncodeName converts a UTF-8 string to Windows-1252 bytes.
// Returns the original bytes if the string has no Windows-1252 representation.
func EncodeName(s string) []byte {
	encoder := charmap.Windows1252.NewEncoder()
	result, _, err := transform.Bytes(encoder, []byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// JoinPath builds the flat archive name for a file inside a directory.
// Archive names use a single backslash separator and are matched byte for byte.
func JoinPath(dir, file string) string {
	if dir == "" {
		return file
	}
	return dir + `\` + file
}

// SplitPath splits a flat archive name into its directory and file parts.
func SplitPath(name string) (dir, file string) {
	i := strings.LastIndexByte(name, '\\')
	if i < 0 {
		return "", name
	}
	return name[:i], name[i+1:]
}
