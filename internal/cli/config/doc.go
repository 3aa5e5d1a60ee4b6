// Package config holds httpkom-cli's saved state: named gateway
// connections and the session token obtained by the last login on each.
//
// The file lives at ~/.httpkom/cli.yaml and is written with mode 0600
// because it holds live session tokens.
package config
