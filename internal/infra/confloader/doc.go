// Package confloader loads configuration from a YAML file and environment
// variables using koanf.
//
// Priority (highest to lowest):
//
//  1. Environment variables
//  2. Configuration file
//  3. Values already present in the target struct (defaults)
//
// Environment variables are upper case with the prefix stripped; a double
// underscore separates nesting levels so that single underscores survive
// in key names:
//
//	HTTPKOM_SESSION__IDLE_TIMEOUT=30m  ->  session.idle_timeout
//	HTTPKOM_SERVER__HTTP__ADDR=:5001   ->  server.http.addr
package confloader
