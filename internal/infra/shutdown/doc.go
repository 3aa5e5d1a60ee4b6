// Package shutdown coordinates graceful termination of httpkom-server.
//
// Hooks are registered in start-up order and run in reverse once SIGINT,
// SIGTERM, or the parent context ends the wait, all under one deadline:
//
//	h := shutdown.NewHandler(30 * time.Second)
//	h.OnShutdown("http", srv.Shutdown)
//	h.OnShutdown("sessions", svc.Shutdown)
//	err := h.Wait(ctx)
package shutdown
