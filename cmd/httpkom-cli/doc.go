// Package main provides the entry point for httpkom-cli.
//
// httpkom-cli is a command-line client for the httpkom gateway. It keeps
// named connection profiles and the session token of the last login in
// ~/.httpkom/cli.yaml.
//
// Usage:
//
//	httpkom-cli --url http://localhost:5001 --server-id lyslyskom login --pers-no 14506 --password-stdin
//	httpkom-cli conference get 6
//	httpkom-cli --admin-key $KEY admin sessions
package main
