// Package config loads the CLI settings from a TOML file, a .env file and
// the environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/colthorp/ziskej-cli-go/internal/auth"
	"github.com/colthorp/ziskej-cli-go/internal/core"
)

// Config holds everything needed to reach the Ziskej API.
type Config struct {
	BaseURL        string
	Token          string
	PrivateKeyPath string
	Issuer         string
	App            string
	TokenTTL       time.Duration
	Timeout        time.Duration
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Issuer:   core.DefaultIssuer,
		App:      core.DefaultApp,
		TokenTTL: core.DefaultTokenTTL,
		Timeout:  core.DefaultTimeout,
	}
}

// Load reads path (the default location when empty), then .env from the
// working directory, then the environment. A missing config or .env file
// is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.mergeFile(resolved); err != nil {
		return Config{}, err
	}

	// .env never overrides variables that are already set.
	_ = godotenv.Load(".env")

	if err := cfg.mergeEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		BaseURL        string `toml:"base_url"`
		Token          string `toml:"token"`
		PrivateKeyPath string `toml:"private_key_path"`
		Issuer         string `toml:"issuer"`
		App            string `toml:"app"`
		TokenTTL       string `toml:"token_ttl"`
		Timeout        string `toml:"timeout"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	setString(&c.BaseURL, raw.BaseURL)
	setString(&c.Token, raw.Token)
	if p := strings.TrimSpace(raw.PrivateKeyPath); p != "" {
		c.PrivateKeyPath = mustExpand(p)
	}
	setString(&c.Issuer, raw.Issuer)
	setString(&c.App, raw.App)
	if err := setDuration(&c.TokenTTL, "token_ttl", raw.TokenTTL); err != nil {
		return err
	}
	return setDuration(&c.Timeout, "timeout", raw.Timeout)
}

func (c *Config) mergeEnv() error {
	setString(&c.BaseURL, os.Getenv(core.EnvLegacyAPIURL))
	setString(&c.BaseURL, os.Getenv(core.EnvAPIURL))
	setString(&c.Token, os.Getenv(core.EnvToken))
	if p := strings.TrimSpace(os.Getenv(core.EnvPrivateKey)); p != "" {
		c.PrivateKeyPath = mustExpand(p)
	}
	setString(&c.Issuer, os.Getenv(core.EnvIssuer))
	setString(&c.App, os.Getenv(core.EnvApp))
	if err := setDuration(&c.TokenTTL, core.EnvTokenTTL, os.Getenv(core.EnvTokenTTL)); err != nil {
		return err
	}
	return setDuration(&c.Timeout, core.EnvTimeout, os.Getenv(core.EnvTimeout))
}

// Validate checks that the settings can produce a working client.
func (c Config) Validate() error {
	if strings.TrimSpace(c.BaseURL) == "" {
		return fmt.Errorf("base URL is not set (use %s or base_url in the config file)", core.EnvAPIURL)
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("base URL %q must be an absolute http(s) URL", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.PrivateKeyPath != "" && c.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive, got %s", c.TokenTTL)
	}
	return nil
}

// Credentials returns the token source the settings describe: a static
// token when one is set, a JWT issuer when a private key is configured,
// and nil (anonymous) otherwise.
func (c Config) Credentials() (auth.CredentialProvider, error) {
	if c.Token != "" {
		return auth.StaticToken(c.Token), nil
	}
	if c.PrivateKeyPath == "" {
		return nil, nil
	}
	key, err := auth.LoadPrivateKey(c.PrivateKeyPath)
	if err != nil {
		return nil, err
	}
	return auth.NewJWTIssuer(key, c.Issuer, c.App, c.TokenTTL)
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name, v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	*dst = d
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return core.ConfigPath(), nil
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
