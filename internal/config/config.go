// Package config loads the uploader configuration.
//
// Values are resolved with the precedence command-line flag > environment
// variable (RAKALY_*) > config file > default.
package config

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rakaly/rakaly-uploader/internal/errors"
	"github.com/rakaly/rakaly-uploader/internal/validation"
)

const (
	DefaultAPIURL        = "https://rakaly.com/api/upload"
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "pretty"
	DefaultLogFileName   = "uploader.log"
	DefaultUploadTimeout = 2 * time.Minute
	DefaultWatchBackend  = "auto"

	envPrefix = "RAKALY_"
)

// Config holds the resolved configuration.
type Config struct {
	Username         string        `yaml:"username" validate:"required"`
	APIKey           string        `yaml:"api_key" validate:"required"`
	WatchDirectory   string        `yaml:"watch_directory,omitempty" validate:"required"`
	APIURL           string        `yaml:"api_url,omitempty" validate:"required,http_url"`
	LogLevel         string        `yaml:"log_level,omitempty" validate:"oneof=debug info warn warning error"`
	LogFormat        string        `yaml:"log_format,omitempty" validate:"oneof=pretty json"`
	LogFile          string        `yaml:"log_file,omitempty"`
	UploadTimeout    time.Duration `yaml:"upload_timeout,omitempty" validate:"gte=0"`
	UploadsPerMinute int           `yaml:"uploads_per_minute,omitempty" validate:"gte=0"`
	StatusAddr       string        `yaml:"status_addr,omitempty" validate:"omitempty,hostname_port"`
	WatchBackend     string        `yaml:"watch_backend,omitempty" validate:"oneof=auto inotify fsnotify"`
	IgnoreHidden     bool          `yaml:"ignore_hidden,omitempty"`
	IgnorePatterns   []string      `yaml:"ignore_patterns,omitempty"`

	// Path is the file the configuration was read from.
	Path string `yaml:"-"`
}

// Overrides carries command-line values. Empty fields are unset.
type Overrides struct {
	WatchDirectory string
	APIURL         string
	LogLevel       string
}

// DefaultPath returns <user config dir>/rakaly/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, errors.CodeConfig, "unable to locate config directory")
	}
	return filepath.Join(dir, "rakaly", "config.yaml"), nil
}

// Load reads the config file at path and applies environment variables and
// overrides. A missing file yields an error matching fs.ErrNotExist.
func Load(path string, ov Overrides) (*Config, error) {
	file, err := readFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := resolve(file, ov)
	if err != nil {
		return nil, err
	}
	cfg.Path = path

	if err := validation.New().Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Preview resolves the configuration like Load but skips validation and
// treats a missing file as empty. The setup form uses it to pre-fill fields.
func Preview(path string, ov Overrides) (*Config, error) {
	file, err := readFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg, err := resolve(file, ov)
	if err != nil {
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

func readFile(path string) (Config, error) {
	var file Config

	//#nosec G304 -- Config file path from user input is expected
	data, err := os.ReadFile(path)
	if err != nil {
		return file, errors.Wrapf(err, errors.CodeConfig, "unable to read config: %s", path)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return file, errors.Wrapf(err, errors.CodeConfig, "unable to parse config: %s", path)
	}
	return file, nil
}

// Exists reports whether a config file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}

func resolve(file Config, ov Overrides) (*Config, error) {
	cfg := &Config{
		Username:       getConfigValue("", "USERNAME", file.Username, ""),
		APIKey:         getConfigValue("", "API_KEY", file.APIKey, ""),
		WatchDirectory: getConfigValue(ov.WatchDirectory, "WATCH_DIRECTORY", file.WatchDirectory, ""),
		APIURL:         getConfigValue(ov.APIURL, "API_URL", file.APIURL, DefaultAPIURL),
		LogLevel:       strings.ToLower(getConfigValue(ov.LogLevel, "LOG_LEVEL", file.LogLevel, DefaultLogLevel)),
		LogFormat:      getConfigValue("", "LOG_FORMAT", file.LogFormat, DefaultLogFormat),
		LogFile:        getConfigValue("", "LOG_FILE", file.LogFile, ""),
		StatusAddr:     getConfigValue("", "STATUS_ADDR", file.StatusAddr, ""),
		WatchBackend:   getConfigValue("", "WATCH_BACKEND", file.WatchBackend, DefaultWatchBackend),
	}

	timeout := file.UploadTimeout
	if timeout == 0 {
		timeout = DefaultUploadTimeout
	}
	if v := os.Getenv(envPrefix + "UPLOAD_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, errors.Wrapf(err, errors.CodeConfig, "invalid %sUPLOAD_TIMEOUT %q", envPrefix, v)
		}
		timeout = d
	}
	cfg.UploadTimeout = timeout

	cfg.IgnoreHidden = file.IgnoreHidden
	if v := os.Getenv(envPrefix + "IGNORE_HIDDEN"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, errors.Wrapf(err, errors.CodeConfig, "invalid %sIGNORE_HIDDEN %q", envPrefix, v)
		}
		cfg.IgnoreHidden = b
	}

	cfg.IgnorePatterns = file.IgnorePatterns
	for _, pattern := range cfg.IgnorePatterns {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return nil, errors.Wrapf(err, errors.CodeConfig, "invalid ignore pattern %q", pattern)
		}
	}

	cfg.UploadsPerMinute = file.UploadsPerMinute
	if v := os.Getenv(envPrefix + "UPLOADS_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Wrapf(err, errors.CodeConfig, "invalid %sUPLOADS_PER_MINUTE %q", envPrefix, v)
		}
		cfg.UploadsPerMinute = n
	}

	exeDir, err := executableDir()
	if err != nil {
		return nil, err
	}
	if cfg.WatchDirectory, err = expandPath(cfg.WatchDirectory, exeDir); err != nil {
		return nil, err
	}
	if cfg.LogFile, err = expandPath(cfg.LogFile, filepath.Join(exeDir, DefaultLogFileName)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WriteCredentials stores username and api_key in the config file at path,
// creating it (and its directory) when missing. Other keys and comments in
// an existing file are preserved.
func WriteCredentials(path, username, apiKey string) error {
	var doc yaml.Node

	//#nosec G304 -- Config file path from user input is expected
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return errors.Wrapf(err, errors.CodeConfig, "unable to parse config: %s", path)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return errors.Wrapf(err, errors.CodeConfig, "unable to read config: %s", path)
	}

	if doc.Kind == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return errors.Newf(errors.CodeConfig, "config %s: top level must be a mapping", path)
	}
	setScalar(root, "username", username)
	setScalar(root, "api_key", apiKey)

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return errors.Wrap(err, errors.CodeConfig, "unable to encode config")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrapf(err, errors.CodeConfig, "unable to create config directory for %s", path)
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return errors.Wrapf(err, errors.CodeConfig, "unable to write config: %s", path)
	}
	return nil
}

// setScalar sets key to a string value in a mapping node.
func setScalar(m *yaml.Node, key, value string) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
			return
		}
	}
	m.Content = append(m.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
	)
}

// expandPath expands ~ and makes the path absolute.
// Returns defaultPath (expanded) if path is empty.
func expandPath(path, defaultPath string) (string, error) {
	if path == "" {
		path = defaultPath
	}
	if path == "" {
		return "", nil
	}

	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(homeDir, path[1:])
	}

	if !filepath.IsAbs(path) {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to get absolute path: %w", err)
		}
		path = absPath
	}

	return filepath.Clean(path), nil
}

// executableDir returns the directory holding the running binary.
func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", errors.Wrap(err, errors.CodeConfig, "unable to locate executable")
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe), nil
}

// getConfigValue returns the first non-empty value from flag, RAKALY_<envKey>,
// file, or default.
func getConfigValue(flagValue, envKey, fileValue, defaultValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envValue := os.Getenv(envPrefix + envKey); envValue != "" {
		return envValue
	}
	if fileValue != "" {
		return fileValue
	}
	return defaultValue
}
