package logger

import (
	"log/slog"
	"strings"
)

// Value prefixes of secrets that may end up in log attributes.
var sensitiveValuePrefixes = []string{
	"hkst_", // session token
}

// Key fragments that mark an attribute as secret.
var sensitiveKeyPatterns = []string{
	"passw",
	"secret",
	"token",
	"cookie",
	"credential",
	"authorization",
	"admin_key",
}

const redactedValue = "***REDACTED***"

func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		s := a.Value.String()
		for _, prefix := range sensitiveValuePrefixes {
			if strings.HasPrefix(s, prefix) {
				return slog.String(a.Key, maskValue(s, prefix))
			}
		}
		if s != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}
	return a
}

// maskValue keeps the prefix and three characters from each end of the body.
func maskValue(value, prefix string) string {
	body := value[len(prefix):]
	if len(body) <= 6 {
		return prefix + "***"
	}
	return prefix + body[:3] + "..." + body[len(body)-3:]
}

// RedactString masks s if it is a session token.
func RedactString(s string) string {
	for _, prefix := range sensitiveValuePrefixes {
		if strings.HasPrefix(s, prefix) {
			return maskValue(s, prefix)
		}
	}
	return s
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	k := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(k, pattern) {
			return true
		}
	}
	return false
}

// RedactPath masks every session token segment of a URL path.
func RedactPath(path string) string {
	if !strings.Contains(path, sensitiveValuePrefixes[0]) {
		return path
	}
	segs := strings.Split(path, "/")
	for i, s := range segs {
		segs[i] = RedactString(s)
	}
	return strings.Join(segs, "/")
}
