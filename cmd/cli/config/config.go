package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const defaultAPIURL = "http://localhost:8000"

// APIURL returns the base URL for the IPO schedule API.
// It can be overridden with the IPO_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("IPO_API_URL"); v != "" {
		return strings.TrimRight(v, "/")
	}
	return defaultAPIURL
}

// JWTSecret returns the secret used to mint admin tokens locally.
func JWTSecret() (string, error) {
	v := os.Getenv("JWT_SECRET")
	if v == "" {
		return "", errors.New("JWT_SECRET is not set")
	}
	return v, nil
}

// SaveToken stores an admin token under the user's config directory.
func SaveToken(token string) error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token), 0o600)
}

// LoadToken returns IPO_API_TOKEN if set, otherwise the stored token.
func LoadToken() (string, error) {
	if v := os.Getenv("IPO_API_TOKEN"); v != "" {
		return v, nil
	}
	path, err := tokenPath()
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func tokenPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "ipoctl", "token"), nil
}
