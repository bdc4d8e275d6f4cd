package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/DigitalCyberSoft/tailscale-cli-helpers/internal/errors"
	"github.com/spf13/viper"
)

const (
	// AppDir is the directory name used under the user's config and cache dirs.
	AppDir = "tailscale-cli-helpers"
	// ConfigFileName is the config file name inside AppDir.
	ConfigFileName = "config.yaml"
	// EnvPrefix prefixes every environment override, e.g. TS_HELPERS_CACHE_TTL.
	EnvPrefix = "TS_HELPERS"
	// ConfigEnv points at an explicit config file.
	ConfigEnv = "TS_HELPERS_CONFIG"
)

// Load reads config from the specified path, applying environment overrides.
// An empty path loads defaults plus environment only.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.WrapWithCode(err, errors.ErrConfig,
					"Config file not found: "+path,
					"Check the path in "+ConfigEnv+" or remove it to use defaults")
			}
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file",
				"Check the file exists and is valid YAML")
		}
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (argument or TS_HELPERS_CONFIG)
// 2. $XDG_CONFIG_HOME/tailscale-cli-helpers/config.yaml
// 3. ~/.config/tailscale-cli-helpers/config.yaml
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit == "" {
		explicit = os.Getenv(ConfigEnv)
	}
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	var candidates []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, AppDir, ConfigFileName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", AppDir, ConfigFileName))
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", nil
}

// LoadOrDefault loads config from the found path, or defaults plus
// environment overrides if there is no config file.
func LoadOrDefault() (*Config, error) {
	path, err := Find("")
	if err != nil {
		return nil, err
	}
	return Load(path)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults registers every key so AutomaticEnv can override keys that are
// absent from the file.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("tailscale", d.Tailscale)
	v.SetDefault("status_timeout", d.StatusTimeout.String())
	v.SetDefault("address", d.Address)
	v.SetDefault("pick", d.Pick)
	v.SetDefault("ssh_config", d.SSHConfig)
	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.ttl", d.Cache.TTL.String())
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("tools.ssh", d.Tools.SSH)
	v.SetDefault("tools.scp", d.Tools.SCP)
	v.SetDefault("tools.sftp", d.Tools.SFTP)
	v.SetDefault("tools.rsync", d.Tools.Rsync)
	v.SetDefault("tools.ssh_copy_id", d.Tools.SSHCopyID)
	v.SetDefault("tools.mussh", d.Tools.Mussh)
}

// parseConfig converts viper config to our Config struct.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		where := "environment overrides"
		if path != "" {
			where = path
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the values in "+where)
	}

	cfg.Cache.Dir = ExpandHome(cfg.Cache.Dir)
	cfg.SSHConfig = ExpandHome(cfg.SSHConfig)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, AppDir)
	}
	return filepath.Join(os.TempDir(), AppDir)
}
