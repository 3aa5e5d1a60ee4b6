// Package httpserver provides the HTTP/HTTPS server for httpkom.
//
// The router mounts the handler package's routes on a net/http.ServeMux and
// wraps them in the middleware chain:
//
//	RequestID -> Audit -> Metrics -> Recover -> CORS -> CacheControl -> mux
//
// Login routes are additionally rate limited per client address and admin
// routes require the X-Admin-Key header. TLS is served from a certificate
// pair that is reloaded when it changes on disk.
package httpserver
