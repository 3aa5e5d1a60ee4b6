// Package localserver serves the management API on a Unix domain socket.
//
// The socket carries the admin and probe routes of the gateway without
// requiring the admin key. Access is controlled by the file mode of the
// socket, which is created owner-only:
//
//	curl --unix-socket /run/httpkom/admin.sock http://local/admin/v1/sessions
//
// A stale socket file left by a previous process is removed on start.
package localserver
