package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rakaly/rakaly-uploader/internal/errors"
	"github.com/rakaly/rakaly-uploader/internal/validation"
)

type testConfig struct {
	Username string `yaml:"username" validate:"required"`
	APIURL   string `yaml:"api_url" validate:"required,http_url"`
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`
	PerMin   int    `yaml:"uploads_per_minute" validate:"gte=0"`
	Addr     string `yaml:"status_addr,omitempty" validate:"omitempty,hostname_port"`
}

func valid() testConfig {
	return testConfig{
		Username: "ruler",
		APIURL:   "https://rakaly.com/api/upload",
		LogLevel: "info",
		Addr:     "127.0.0.1:8089",
	}
}

func TestValidator_ValidateSuccess(t *testing.T) {
	assert.NoError(t, validation.New().Validate(valid()))
}

func TestValidator_ValidateErrors(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*testConfig)
		wantField string
		wantMsg   string
	}{
		{"missing username", func(c *testConfig) { c.Username = "" }, "username", "is required"},
		{"bad url", func(c *testConfig) { c.APIURL = "rakaly.com" }, "api_url", "must be a valid http(s) URL"},
		{"bad level", func(c *testConfig) { c.LogLevel = "trace" }, "log_level", "must be one of: debug info warn error"},
		{"negative rate", func(c *testConfig) { c.PerMin = -1 }, "uploads_per_minute", "must be greater than or equal to 0"},
		{"bad addr", func(c *testConfig) { c.Addr = "nope" }, "status_addr", "must be a host:port address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)

			err := validation.New().Validate(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrValidation)
			assert.Contains(t, err.Error(), tt.wantField)

			var domainErr *errors.Error
			require.True(t, errors.As(err, &domainErr))
			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMsg, details[tt.wantField])
		})
	}
}
