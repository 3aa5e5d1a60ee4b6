// Package logger configures structured logging for httpkom.
//
//   - logger.go: log/slog handler construction and level control
//   - context.go: request-scoped loggers carrying the request id
//   - redact.go: masking of session tokens and secrets in log attributes
//
// Session tokens (hkst_ prefix) are partially masked wherever they appear
// as attribute values; attributes whose key suggests a secret (passwd,
// cookie, token, ...) are fully redacted.
package logger
