// Package config resolves bstore's runtime configuration from the process
// environment.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config holds every environment-resolved setting the server and CLI need.
type Config struct {
	DataDir      string `koanf:"data_dir" validate:"required"`
	DataFile     string `koanf:"data_file" validate:"required"`
	Port         int    `koanf:"port" validate:"gte=0,lte=65535"`
	LogFilter    string `koanf:"log_filter"`
	MetricsAddr  string `koanf:"metrics_addr" validate:"omitempty,ip_port"`
	MetricsToken string `koanf:"metrics_token"`
}

// DefaultConfig mirrors the defaults named in the external interface: data
// stored alongside the binary's working directory, port 5000.
var DefaultConfig = Config{
	DataDir:  "./",
	DataFile: "bstore.db",
	Port:     5000,
}

// defaultLoader seeds k with DefaultConfig via the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DefaultConfig, "koanf"), nil)
}

// envLoader overrides defaults from BSTORE_*-prefixed environment variables,
// plus the bare RUST_LOG filter variable the original implementation reads.
var envLoader = func(k *koanf.Koanf) error {
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: "BSTORE_",
		TransformFunc: func(key, value string) (string, any) {
			value = strings.TrimSpace(value)
			if value == "" {
				// An empty variable is treated as unset, keeping the default.
				return "", nil
			}
			key = strings.ToLower(strings.TrimPrefix(key, "BSTORE_"))
			return key, value
		},
	}), nil); err != nil {
		return err
	}
	if v, ok := os.LookupEnv("RUST_LOG"); ok {
		k.Set("log_filter", strings.TrimSpace(v))
	}
	return nil
}

func validIPPort(fl validator.FieldLevel) bool {
	addr := fl.Field().String()
	ip, port, err := net.SplitHostPort(addr)
	if err != nil || port == "" {
		return false
	}
	if ip != "" && net.ParseIP(ip) == nil {
		return false
	}
	portNum, err := strconv.ParseUint(port, 10, 16)
	return err == nil && portNum > 0 && portNum < 65536
}

var registerValidators = func(v *validator.Validate) error {
	return v.RegisterValidation("ip_port", validIPPort)
}

// Load resolves Config from defaults overridden by the environment, then
// validates it. A BSTORE_PORT that is not a number in 0..65535 is not a
// validation failure: the external interface specifies it degrades to port
// 0, matching the original server's documented behavior for unparsable
// ports. An empty BSTORE_* variable is treated as unset.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := defaultLoader(k); err != nil {
		return nil, err
	}
	if err := envLoader(k); err != nil {
		return nil, err
	}
	if portStr, ok := os.LookupEnv("BSTORE_PORT"); ok && strings.TrimSpace(portStr) != "" {
		if _, err := strconv.ParseUint(strings.TrimSpace(portStr), 10, 16); err != nil {
			k.Set("port", 0)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			TagName:          "koanf",
			WeaklyTypedInput: true,
		},
	}); err != nil {
		return nil, err
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := registerValidators(validate); err != nil {
		return nil, err
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DatabasePath returns the full path to the persisted database file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, c.DataFile)
}

// ListenAddr returns the address the server should bind, in host:port form.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}
