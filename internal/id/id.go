// Package id generates short correlation IDs for log records.
package id

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// alphabet avoids characters that need quoting in logs or URLs.
const alphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// size gives roughly 62 bits of entropy.
const size = 12

// Generate creates a prefixed ID such as "upl-4f0c9k2m7q1z".
func Generate(prefix string) (string, error) {
	id, err := gonanoid.Generate(alphabet, size)
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}
