// Package tlsroots manages TLS material for httpkom.
//
//   - roots.go: trust pools for the CLI's HTTPS client (system roots plus
//     an optional CA bundle)
//   - watcher.go: the server's certificate/key pair, reloaded via fsnotify
//     when either file changes
package tlsroots
