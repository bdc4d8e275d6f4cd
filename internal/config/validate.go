package config

import (
	"fmt"
	"strings"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/errors"
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	switch cfg.Address {
	case AddressIPv4, AddressIPv6, AddressDNS:
	default:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("'%s' isn't a valid address mode", cfg.Address),
			"Use one of: ipv4, ipv6, dns")
	}

	if cfg.StatusTimeout <= 0 {
		return errors.New(errors.ErrConfig,
			"status_timeout must be positive",
			"Try something like 5s or 10s.")
	}

	if cfg.Cache.TTL < 0 {
		return errors.New(errors.ErrConfig,
			"cache.ttl can't be negative",
			"Use 0 to disable the disk cache, or something like 5s.")
	}

	if strings.TrimSpace(cfg.Tailscale) == "" {
		return errors.New(errors.ErrConfig,
			"tailscale binary name is empty",
			"Set 'tailscale' to the tailscale CLI, e.g. tailscale or /usr/bin/tailscale")
	}

	tools := map[string]string{
		"tools.ssh":         cfg.Tools.SSH,
		"tools.scp":         cfg.Tools.SCP,
		"tools.sftp":        cfg.Tools.SFTP,
		"tools.rsync":       cfg.Tools.Rsync,
		"tools.ssh_copy_id": cfg.Tools.SSHCopyID,
		"tools.mussh":       cfg.Tools.Mussh,
	}
	for key, bin := range tools {
		if strings.TrimSpace(bin) == "" {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("%s is empty", key),
				"Remove the key to use the default binary")
		}
	}

	return nil
}

// DiskCacheEnabled reports whether the on-disk status cache should be used.
func (c *Config) DiskCacheEnabled() bool {
	return c.Cache.Enabled && c.Cache.TTL > 0 && c.Cache.Dir != ""
}
