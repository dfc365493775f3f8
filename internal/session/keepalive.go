package session

import "time"

// keepAlive runs the periodic probe and status tickers for one channel
// lifetime. Ticks are delivered through the session inbox so the loop
// goroutine stays the only writer of session state.
type keepAlive struct {
	stop chan struct{}
}

func (s *Session) startKeepAlive() {
	s.stopKeepAlive()
	ka := &keepAlive{stop: make(chan struct{})}
	s.ka = ka

	go func() {
		probe := time.NewTicker(s.cfg.ProbeInterval)
		status := time.NewTicker(s.cfg.StatusInterval)
		defer probe.Stop()
		defer status.Stop()
		for {
			var tick keepAliveTick
			select {
			case <-ka.stop:
				return
			case <-probe.C:
				tick = keepAliveTick{status: false}
			case <-status.C:
				tick = keepAliveTick{status: true}
			}
			select {
			case s.inbox <- tick:
			case <-ka.stop:
				return
			case <-s.done:
				return
			}
		}
	}()
}

// stopKeepAlive cancels the scheduler. Ticks already queued in the inbox
// are dropped by the loop because no channel remains active.
func (s *Session) stopKeepAlive() {
	if s.ka != nil {
		close(s.ka.stop)
		s.ka = nil
	}
}
