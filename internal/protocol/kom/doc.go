// Package kom is a minimal LysKOM Protocol A client.
//
// A Client owns one TCP connection to a LysKOM server and issues calls
// strictly one at a time: write a request, then read replies until the one
// with the matching reference number arrives. Asynchronous messages that
// arrive in between are skipped. Every call runs under a deadline derived
// from Config.CallTimeout and the caller's context.
//
// Only the calls the gateway needs are implemented:
//
//	logout (1), change-conference (2), sub-member (15), login (62),
//	set-client-version (69), lookup-z-name (76), get-uconf-stat (78),
//	accept-async (80), add-member (100)
//
// Error replies are returned as *domain.ProtocolError. Transport failures
// are wrapped in domain.ErrBackendUnavailable and leave the Client closed.
package kom
