package config

import (
	"github.com/derfian/httpkom/internal/infra/confloader"
)

// listKeys are the keys that may be given as comma separated environment
// values.
var listKeys = []string{
	"cors.allowed_origins",
	"cors.allow_methods",
	"cors.allow_headers",
	"cors.expose_headers",
}

// Load reads the optional YAML file at path and the HTTPKOM_ environment
// on top of Default. The result is not verified.
func Load(path string) (*ServerConfig, error) {
	cfg := Default()
	l := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithListKeys(listKeys...),
	)
	if err := l.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
