package config

import "time"

// Address modes select which of a device's identities replaces the host token.
const (
	AddressIPv4 = "ipv4"
	AddressIPv6 = "ipv6"
	AddressDNS  = "dns"
)

// Config holds the helper settings. Every field can be set in the config
// file or overridden with a TS_HELPERS_* environment variable.
type Config struct {
	// Tailscale is the tailscale CLI binary used to read the device list.
	Tailscale string `yaml:"tailscale" mapstructure:"tailscale"`

	// StatusTimeout bounds a single `tailscale status --json` call.
	StatusTimeout time.Duration `yaml:"status_timeout" mapstructure:"status_timeout"`

	// Address is one of "ipv4", "ipv6" or "dns" (MagicDNS name).
	Address string `yaml:"address" mapstructure:"address"`

	// Pick shows an interactive picker on ambiguous matches when stdin is a terminal.
	Pick bool `yaml:"pick" mapstructure:"pick"`

	// SSHConfig is consulted for a per-device User when none was typed.
	SSHConfig string `yaml:"ssh_config" mapstructure:"ssh_config"`

	Cache CacheConfig `yaml:"cache" mapstructure:"cache"`
	Tools ToolsConfig `yaml:"tools" mapstructure:"tools"`
}

// CacheConfig controls the on-disk status cache shared by rapid invocations.
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
	Dir     string        `yaml:"dir" mapstructure:"dir"`
}

// ToolsConfig names the underlying binaries each command forwards to.
type ToolsConfig struct {
	SSH       string `yaml:"ssh" mapstructure:"ssh"`
	SCP       string `yaml:"scp" mapstructure:"scp"`
	SFTP      string `yaml:"sftp" mapstructure:"sftp"`
	Rsync     string `yaml:"rsync" mapstructure:"rsync"`
	SSHCopyID string `yaml:"ssh_copy_id" mapstructure:"ssh_copy_id"`
	Mussh     string `yaml:"mussh" mapstructure:"mussh"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Tailscale:     "tailscale",
		StatusTimeout: 5 * time.Second,
		Address:       AddressIPv4,
		Pick:          false,
		SSHConfig:     "~/.ssh/config",
		Cache: CacheConfig{
			Enabled: true,
			TTL:     5 * time.Second,
			Dir:     defaultCacheDir(),
		},
		Tools: ToolsConfig{
			SSH:       "ssh",
			SCP:       "scp",
			SFTP:      "sftp",
			Rsync:     "rsync",
			SSHCopyID: "ssh-copy-id",
			Mussh:     "mussh",
		},
	}
}
