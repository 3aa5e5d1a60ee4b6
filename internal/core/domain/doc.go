// Package domain defines the core domain models for httpkom.
//
// Domain models are plain values without IO dependencies. This package
// contains:
//
//   - Server: a configured LysKOM backend
//   - Person, Client, Conference: identities and objects read from a backend
//   - Token and session identifiers
//   - Errors: the closed error taxonomy shared by every layer, and the
//     Protocol A error codes reported by backends
package domain
