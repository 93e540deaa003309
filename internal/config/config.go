// Package config loads susepkg settings through viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// MaxWorkers caps concurrent backend calls.
const MaxWorkers = 10

// Architectures supported by the backends.
var Architectures = []string{"aarch64", "ppc64le", "s390x", "x86_64"}

// Config holds endpoint and runtime settings.
type Config struct {
	SCCURL           string        `mapstructure:"scc_url"`
	DistributionsURL string        `mapstructure:"distributions_url"`
	MirrorURL        string        `mapstructure:"mirror_url"`
	Timeout          time.Duration `mapstructure:"timeout"`
	Workers          int           `mapstructure:"workers"`
	RateLimit        float64       `mapstructure:"rate_limit"` // requests per second, 0 = unlimited
	Arch             string        `mapstructure:"arch"`
	Debug            bool          `mapstructure:"debug"`
}

var defaultConfig = Config{
	SCCURL:           "https://scc.suse.com",
	DistributionsURL: "https://get.opensuse.org/api/v0/distributions.json",
	MirrorURL:        "https://mirrorcache.opensuse.org",
	Timeout:          180 * time.Second,
	Workers:          MaxWorkers,
	Arch:             HostArch(),
}

// Load reads defaults, an optional susepkg.yaml and SUSEPKG_* environment
// variables, in increasing precedence. DEBUG is honored as well.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("scc_url", defaultConfig.SCCURL)
	v.SetDefault("distributions_url", defaultConfig.DistributionsURL)
	v.SetDefault("mirror_url", defaultConfig.MirrorURL)
	v.SetDefault("timeout", defaultConfig.Timeout)
	v.SetDefault("workers", defaultConfig.Workers)
	v.SetDefault("rate_limit", defaultConfig.RateLimit)
	v.SetDefault("arch", defaultConfig.Arch)
	v.SetDefault("debug", defaultConfig.Debug)

	v.SetConfigName("susepkg")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	for _, dir := range configDirs() {
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix("SUSEPKG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("debug", "SUSEPKG_DEBUG", "DEBUG"); err != nil {
		return nil, fmt.Errorf("binding debug env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	cfg.SCCURL = strings.TrimSuffix(cfg.SCCURL, "/")
	cfg.MirrorURL = strings.TrimSuffix(cfg.MirrorURL, "/")
	if cfg.Workers < 1 || cfg.Workers > MaxWorkers {
		cfg.Workers = MaxWorkers
	}
	return &cfg, nil
}

func configDirs() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "susepkg"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "susepkg"))
	}
	return dirs
}

// HostArch maps GOARCH to the RPM architecture name.
func HostArch() string {
	switch runtime.GOARCH {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	default:
		return runtime.GOARCH
	}
}

// ValidArch reports whether arch is supported.
func ValidArch(arch string) bool {
	for _, a := range Architectures {
		if a == arch {
			return true
		}
	}
	return false
}
