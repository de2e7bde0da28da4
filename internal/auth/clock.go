package auth

import "time"

// Clock creates the tickers driving the resend countdown.
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

type Ticker interface {
	Chan() <-chan time.Time
	Stop()
}

// SystemClock returns a Clock backed by time.NewTicker.
func SystemClock() Clock { return systemClock{} }

type systemClock struct{}

func (systemClock) NewTicker(d time.Duration) Ticker {
	return &systemTicker{t: time.NewTicker(d)}
}

type systemTicker struct{ t *time.Ticker }

func (s *systemTicker) Chan() <-chan time.Time { return s.t.C }
func (s *systemTicker) Stop()                  { s.t.Stop() }
