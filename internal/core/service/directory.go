package service

import (
	"fmt"

	"github.com/derfian/httpkom/internal/core/domain"
)

// Directory resolves server ids to configured LysKOM servers. It is
// immutable after construction.
type Directory struct {
	servers map[string]domain.Server
	order   []domain.Server
}

// NewDirectory builds a directory. Ids must be non-empty and unique.
func NewDirectory(servers []domain.Server) (*Directory, error) {
	d := &Directory{
		servers: make(map[string]domain.Server, len(servers)),
		order:   make([]domain.Server, 0, len(servers)),
	}
	for _, s := range servers {
		if s.ID == "" {
			return nil, fmt.Errorf("server directory: empty id for host %q", s.Host)
		}
		if _, dup := d.servers[s.ID]; dup {
			return nil, fmt.Errorf("server directory: duplicate id %q", s.ID)
		}
		d.servers[s.ID] = s
		d.order = append(d.order, s)
	}
	return d, nil
}

// Resolve returns the server with the given id, or ErrServerNotFound.
func (d *Directory) Resolve(id string) (domain.Server, error) {
	s, ok := d.servers[id]
	if !ok {
		return domain.Server{}, domain.ErrServerNotFound.WithDetails(id)
	}
	return s, nil
}

// List returns the servers in configuration order.
func (d *Directory) List() []domain.Server {
	return append([]domain.Server(nil), d.order...)
}
