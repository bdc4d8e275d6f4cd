// Package sshutil reads the parts of the user's OpenSSH client config that
// matter once a host alias has been rewritten to a tailnet address.
package sshutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	"github.com/kevinburke/ssh_config"
	"github.com/spf13/afero"
)

// HostEntry is the subset of an ssh_config Host block the helpers carry over.
type HostEntry struct {
	Alias string
	User  string
}

// Config is a parsed ssh_config file. The zero value and a nil *Config
// answer every lookup with nothing.
type Config struct {
	cfg *ssh_config.Config
}

// DefaultConfigPath returns ~/.ssh/config.
func DefaultConfigPath() string {
	return filepath.Join(homeDir(), ".ssh", "config")
}

// LoadConfig parses the ssh_config at path. A missing file is not an error
// and yields an empty Config.
func LoadConfig(fs afero.Fs, path string) (*Config, error) {
	content, err := readConfig(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg, err := ssh_config.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	return &Config{cfg: cfg}, nil
}

// Lookup returns the settings ssh would apply when connecting to alias.
func (c *Config) Lookup(alias string) HostEntry {
	entry := HostEntry{Alias: alias}
	if c == nil || c.cfg == nil {
		return entry
	}

	entry.User = c.get(alias, "User")
	return entry
}

// User returns the User configured for alias, or "".
func (c *Config) User(alias string) string {
	return c.Lookup(alias).User
}

func (c *Config) get(alias, key string) string {
	v, err := c.cfg.Get(alias, key)
	if err != nil {
		return ""
	}
	return v
}

// readConfig loads the file and cuts it at the first Match directive, which
// the parser doesn't understand. Host blocks before it still apply.
func readConfig(fs afero.Fs, path string) ([]byte, error) {
	content, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(content), "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "match ") {
			break
		}
		kept = append(kept, line)
	}
	return []byte(strings.Join(kept, "\n")), nil
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}
