package service

import (
	"context"
	"time"
)

// SweepEnabled reports whether idle or age expiry is configured.
func (s *SessionService) SweepEnabled() bool {
	return s.cfg.IdleTimeout > 0 || s.cfg.MaxAge > 0
}

// expiryReason returns why sess has expired at now, or "".
func (s *SessionService) expiryReason(sess *Session, now time.Time) string {
	if s.cfg.MaxAge > 0 && now.Sub(sess.CreatedAt) >= s.cfg.MaxAge {
		return ReasonMaxAge
	}
	if s.cfg.IdleTimeout > 0 && now.Sub(sess.LastAccess()) >= s.cfg.IdleTimeout {
		return ReasonIdle
	}
	return ""
}

// Sweep destroys expired sessions and returns how many it destroyed.
// A session touched between the scan and its removal survives.
func (s *SessionService) Sweep(ctx context.Context) int {
	if !s.SweepEnabled() {
		return 0
	}
	n := 0
	for _, sess := range s.reg.Snapshot() {
		reason := s.expiryReason(sess, s.clock.Now())
		if reason == "" {
			continue
		}
		removed := s.reg.RemoveSessionIf(sess, func(cur *Session) bool {
			return s.expiryReason(cur, s.clock.Now()) != ""
		})
		if !removed {
			continue
		}
		s.terminate(ctx, sess, reason)
		n++
	}
	if n > 0 {
		s.logger.Info("expired sessions swept", "count", n, "remaining", s.reg.Count())
	}
	return n
}

// Run sweeps every Config.SweepInterval until ctx is done. It returns
// immediately when expiry is disabled.
func (s *SessionService) Run(ctx context.Context) {
	if !s.SweepEnabled() {
		return
	}
	ticker := s.clock.Ticker(s.cfg.SweepInterval)
	defer ticker.Stop()

	s.logger.Info("session sweeper started",
		"interval", s.cfg.SweepInterval,
		"idle_timeout", s.cfg.IdleTimeout,
		"max_age", s.cfg.MaxAge,
	)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(context.WithoutCancel(ctx))
		}
	}
}
