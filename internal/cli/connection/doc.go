// Package connection talks HTTP to an httpkom server on behalf of
// httpkom-cli.
package connection
