package setup

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rakaly/rakaly-uploader/internal/errors"
)

func TestPrompt(t *testing.T) {
	var out bytes.Buffer

	creds, err := Prompt(strings.NewReader("ruler\n  s3cret  \n"), &out)
	require.NoError(t, err)

	assert.Equal(t, Credentials{Username: "ruler", APIKey: "s3cret"}, creds)
	assert.Equal(t, "Steam username: ruler's API key: ", out.String())
}

func TestPrompt_NoTrailingNewline(t *testing.T) {
	creds, err := Prompt(strings.NewReader("ruler\ns3cret"), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", creds.APIKey)
}

func TestPrompt_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *errors.Error
	}{
		{"closed input", "", errors.ErrIO},
		{"empty username", "\ns3cret\n", errors.ErrValidation},
		{"empty key", "ruler\n\n", errors.ErrValidation},
		{"missing key", "ruler\n", errors.ErrIO},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Prompt(strings.NewReader(tt.input), io.Discard)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
