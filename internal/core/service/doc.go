// Package service implements the session gateway core.
//
// This package contains:
//
//   - Directory: the configured LysKOM servers, keyed by id
//   - Registry: live sessions keyed by token hash, each with its own lock
//   - SessionService: login, validation, serialized use, logout, expiry
//   - AdminAuthenticator and RateLimiterRegistry: admin key checks and
//     per-client login throttling
//
// The protocol itself is reached only through the ProtocolSession
// interface; internal/protocol/kom provides the production implementation.
package service
