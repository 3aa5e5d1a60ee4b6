// Package config provides server configuration for httpkom.
//
//   - spec.go: ServerConfig struct definition
//   - default.go: Default configuration values
//   - verify.go: Validation (server list, timeouts, TLS pair, admin key hash)
//   - sanitize.go: Log sanitization (hide sensitive values)
//
// Configuration is loaded once at startup via internal/infra/confloader
// from a YAML file and HTTPKOM_-prefixed environment variables.
package config
