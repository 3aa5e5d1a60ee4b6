package domain

import (
	"net"
	"strconv"
)

// Server describes one configured LysKOM backend. Servers are immutable
// once the gateway has started.
type Server struct {
	ID   string
	Name string
	Host string
	Port int
}

// Addr returns host:port for dialing.
func (s Server) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
