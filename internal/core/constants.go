// Package core provides shared constants and helpers for the Ziskej CLI.
package core

import (
	"os"
	"path/filepath"
	"time"
)

// Version is the current CLI version.
const Version = "0.1.0"

// Environment variables read by the configuration layer.
const (
	EnvAPIURL       = "ZISKEJ_API_URL"
	EnvLegacyAPIURL = "APP_API_URL"
	EnvToken        = "ZISKEJ_TOKEN"
	EnvPrivateKey   = "ZISKEJ_PRIVATE_KEY"
	EnvIssuer       = "ZISKEJ_ISSUER"
	EnvApp          = "ZISKEJ_APP"
	EnvTokenTTL     = "ZISKEJ_TOKEN_TTL"
	EnvTimeout      = "ZISKEJ_TIMEOUT"
	EnvEppn         = "ZISKEJ_EPPN"
)

// Token and transport defaults
const (
	DefaultIssuer   = "cpk"
	DefaultApp      = "cpk"
	DefaultTokenTTL = time.Hour
	DefaultTimeout  = 10 * time.Second
)

// Date formats
const (
	APIDateFmt      = "2006-01-02"
	DisplayTimeFmt  = "2006-01-02 15:04"
	LogBodyMaxBytes = 1000
)

// ConfigPath returns the default config file location.
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", "ziskej", "config.toml")
}
