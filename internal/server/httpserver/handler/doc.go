// Package handler implements the httpkom HTTP API.
//
// Every route under /{server_id}/ resolves the server first; unknown ids
// are 404 before any session work. Guarded routes then resolve the session
// token from the Httpkom-Connection header or the session_id cookie and
// receive the live session as an explicit parameter. All failures pass
// through Translate, which maps the domain error taxonomy onto HTTP.
package handler
