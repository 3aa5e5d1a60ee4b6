// Package main provides the entry point for httpkom-server.
//
// The server is an HTTP/JSON gateway in front of one or more LysKOM
// servers. Each login opens a dedicated Protocol A connection that lives
// until the client logs out, the session expires, or the server stops.
//
// Usage:
//
//	httpkom-server [flags]
//	httpkom-server --config /etc/httpkom/config.yaml
//
// Every setting can also be given in the environment, e.g.
// HTTPKOM_SERVER__HTTP__ADDR=0.0.0.0:5001.
package main
