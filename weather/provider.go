// Package weather supplies the ambient temperature used by the water norm
// calculation. Implementations may block on I/O and must honour ctx.
package weather

import (
	"context"
	"errors"
)

// ErrServiceUnavailable is returned when a temperature source cannot answer.
var ErrServiceUnavailable = errors.New("weather service unavailable")

// TemperatureProvider returns the current ambient temperature in degrees Celsius.
type TemperatureProvider interface {
	Temperature(ctx context.Context) (float64, error)
}

// ProviderFunc adapts a plain function to TemperatureProvider.
type ProviderFunc func(ctx context.Context) (float64, error)

func (f ProviderFunc) Temperature(ctx context.Context) (float64, error) {
	return f(ctx)
}
