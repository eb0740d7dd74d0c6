package weather

import (
	"context"
	"time"
)

const (
	StubTemperature = 20.0
	StubDelay       = 10 * time.Millisecond
)

// StubProvider simulates a network lookup: it waits Delay and returns a
// constant temperature.
type StubProvider struct {
	Value float64
	Delay time.Duration
}

func NewStubProvider() *StubProvider {
	return &StubProvider{Value: StubTemperature, Delay: StubDelay}
}

func (s *StubProvider) Temperature(ctx context.Context) (float64, error) {
	if s.Delay <= 0 {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		return s.Value, nil
	}

	timer := time.NewTimer(s.Delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return s.Value, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}
