// Package buildinfo exposes build-time version information.
//
// Values are injected via ldflags:
//
//	go build -ldflags "-X github.com/derfian/httpkom/internal/infra/buildinfo.Version=v1.0.0 \
//	  -X github.com/derfian/httpkom/internal/infra/buildinfo.Commit=abc123"
package buildinfo
