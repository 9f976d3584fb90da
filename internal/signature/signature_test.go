package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		prefix [Size]byte
		want   Format
	}{
		{"zip", [Size]byte{0x50, 0x4B, 0x03, 0x04}, Archive},
		{"text save", [Size]byte{'E', 'U', '4', 't'}, CompressedText},
		{"garbage", [Size]byte{0x00, 0x11, 0x22, 0x33}, Unrecognized},
		{"empty zip is not a save", [Size]byte{0x50, 0x4B, 0x05, 0x06}, Unrecognized},
		{"lowercase text header", [Size]byte{'e', 'u', '4', 't'}, Unrecognized},
		{"binary save", [Size]byte{'E', 'U', '4', 'b'}, Unrecognized},
		{"zero prefix", [Size]byte{}, Unrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.prefix)
			assert.Equal(t, tt.want, got.Format)
			assert.Equal(t, tt.prefix, got.Signature)
			assert.Equal(t, tt.want != Unrecognized, got.Recognized())
		})
	}
}

func TestClassification_Hex(t *testing.T) {
	c := Classify([Size]byte{0x00, 0x11, 0x22, 0x33})
	assert.Equal(t, "00 11 22 33", c.Hex())
}

func TestFormat_String(t *testing.T) {
	assert.Equal(t, "archive", Archive.String())
	assert.Equal(t, "text", CompressedText.String())
	assert.Equal(t, "unrecognized", Unrecognized.String())
}
