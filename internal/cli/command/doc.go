// Package command defines the httpkom-cli commands using urfave/cli/v2.
//
//   - root.go: the app, global flags and the per-invocation env
//   - connect.go: saved connection profiles
//   - session.go: servers, login, whoami, logout, working conference
//   - conference.go: conferences and memberships
//   - admin.go: the administrative API and admin key hashing
//
// Every command resolves a profile, applies flag overrides, calls the
// gateway and renders the result in the selected output format.
package command
