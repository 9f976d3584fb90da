// Package signature classifies save files by their leading magic bytes.
package signature

import (
	"bytes"
	"fmt"
)

// Size is the number of leading bytes inspected.
const Size = 4

// Format is the upload strategy selected for a file.
type Format int

const (
	// Unrecognized is any prefix without a known signature.
	Unrecognized Format = iota
	// Archive is a zip container, uploaded as-is.
	Archive
	// CompressedText is a plain-text save, compressed before upload.
	CompressedText
)

// String returns the string representation of the format.
func (f Format) String() string {
	switch f {
	case Archive:
		return "archive"
	case CompressedText:
		return "text"
	default:
		return "unrecognized"
	}
}

// magic pairs a signature with the format it selects.
type magic struct {
	Format Format
	Magic  [Size]byte
}

var signatures = []magic{
	{Format: Archive, Magic: [Size]byte{0x50, 0x4B, 0x03, 0x04}}, // zip local file header
	{Format: CompressedText, Magic: [Size]byte{'E', 'U', '4', 't'}},
}

// Classification is the result of inspecting a file prefix.
type Classification struct {
	Format Format
	// Signature holds the inspected bytes.
	Signature [Size]byte
}

// Recognized reports whether the prefix selected an upload strategy.
func (c Classification) Recognized() bool {
	return c.Format != Unrecognized
}

// Hex renders the inspected bytes as space-separated hex pairs.
func (c Classification) Hex() string {
	return fmt.Sprintf("% x", c.Signature[:])
}

// Classify maps a 4-byte prefix to a format. Nothing besides the prefix is
// considered.
func Classify(prefix [Size]byte) Classification {
	for _, sig := range signatures {
		if bytes.Equal(prefix[:], sig.Magic[:]) {
			return Classification{Format: sig.Format, Signature: prefix}
		}
	}
	return Classification{Format: Unrecognized, Signature: prefix}
}
