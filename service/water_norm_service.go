package service

import (
	"context"
	"errors"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nekihlep/water-norm/domain"
	"github.com/nekihlep/water-norm/weather"
)

// roundTo2Decimals rounds half away from zero to 2 decimal places.
func roundTo2Decimals(value float64) float64 {
	return math.Round(value*100) / 100
}

// defaultProvider builds the provider used when none is injected.
func defaultProvider() weather.TemperatureProvider {
	return weather.NewStubProvider()
}

type Option func(*WaterNormService)

func WithLogger(logger *zap.Logger) Option {
	return func(s *WaterNormService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(metrics *Metrics) Option {
	return func(s *WaterNormService) {
		s.metrics = metrics
	}
}

type WaterNormService struct {
	provider weather.TemperatureProvider
	logger   *zap.Logger
	metrics  *Metrics
}

// NewWaterNormService creates a calculator bound to provider. A nil provider
// is replaced with a fresh stub provider.
func NewWaterNormService(provider weather.TemperatureProvider, opts ...Option) *WaterNormService {
	if provider == nil {
		provider = defaultProvider()
	}
	s := &WaterNormService{
		provider: provider,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Calculate returns the daily water norm in milliliters.
//
// The temperature is fetched before the inputs are validated, so a slow or
// failing provider is observed even for invalid input. Provider errors are
// returned as-is.
func (s *WaterNormService) Calculate(
	ctx context.Context,
	weight domain.Number,
	activityMinutes domain.Number,
) (domain.WaterNormResult, error) {
	started := time.Now()
	temperature, err := s.provider.Temperature(ctx)
	s.metrics.observeLookup(time.Since(started).Seconds())
	if err != nil {
		s.metrics.countOutcome(outcomeProviderFailure, false)
		s.logger.Debug("temperature lookup failed", zap.Error(err))
		return domain.WaterNormResult{}, err
	}

	w, a, err := validate(weight, activityMinutes)
	if err != nil {
		outcome := outcomeRangeValidation
		if errors.Is(err, domain.ErrTypeValidation) {
			outcome = outcomeTypeValidation
		}
		s.metrics.countOutcome(outcome, false)
		s.logger.Debug("invalid water norm input", zap.Error(err))
		return domain.WaterNormResult{}, err
	}

	base := MillilitersPerKg * float64(w)
	activityExtra := (ActivityMlPerHour * float64(a)) / 60
	total := base + activityExtra

	uplift := temperature > HeatThresholdCelsius
	if uplift {
		total *= HeatUpliftFactor
	}

	result := domain.WaterNormResult{
		Milliliters:  roundTo2Decimals(total),
		TemperatureC: temperature,
		HeatUplift:   uplift,
	}

	s.metrics.countOutcome(outcomeOK, uplift)
	s.logger.Debug("water norm calculated",
		zap.Int64("weight_kg", w),
		zap.Int64("activity_minutes", a),
		zap.Float64("temperature_c", temperature),
		zap.Float64("milliliters", result.Milliliters),
	)

	return result, nil
}

func validate(weight, activityMinutes domain.Number) (int64, int64, error) {
	w, ok := weight.Int64()
	if !ok {
		return 0, 0, domain.NewTypeError(msgWeightType)
	}
	if w < MinWeightKg || w > MaxWeightKg {
		return 0, 0, domain.NewRangeError(msgWeightRange)
	}

	a, ok := activityMinutes.Int64()
	if !ok {
		return 0, 0, domain.NewTypeError(msgActivityType)
	}
	if a < MinActivityMinutes {
		return 0, 0, domain.NewRangeError(msgActivityNegRng)
	}
	if a > MaxActivityMinutes {
		return 0, 0, domain.NewRangeError(msgActivityHighRng)
	}

	return w, a, nil
}

// Outcome is the settled value of an asynchronous calculation.
type Outcome struct {
	Result domain.WaterNormResult
	Err    error
}

// CalculateAsync starts the calculation and returns a channel that receives
// exactly one Outcome. The channel is buffered, so abandoning it does not leak
// the goroutine; cancel ctx to stop the pending temperature lookup.
func (s *WaterNormService) CalculateAsync(
	ctx context.Context,
	weight domain.Number,
	activityMinutes domain.Number,
) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		result, err := s.Calculate(ctx, weight, activityMinutes)
		out <- Outcome{Result: result, Err: err}
	}()
	return out
}

// CalculateMany runs one calculation per input concurrently and joins them.
// Results are index-aligned with inputs. The first failure cancels the
// remaining lookups and is returned unchanged.
func (s *WaterNormService) CalculateMany(
	ctx context.Context,
	inputs []domain.WaterNormInput,
) ([]domain.WaterNormResult, error) {
	results := make([]domain.WaterNormResult, len(inputs))

	g, gctx := errgroup.WithContext(ctx)
	for i, in := range inputs {
		g.Go(func() error {
			r, err := s.Calculate(gctx, in.Weight, in.ActivityMinutes)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Calculate is a convenience wrapper; provider may be nil.
func Calculate(
	ctx context.Context,
	weight domain.Number,
	activityMinutes domain.Number,
	provider weather.TemperatureProvider,
) (domain.WaterNormResult, error) {
	return NewWaterNormService(provider).Calculate(ctx, weight, activityMinutes)
}

// CalculateSync blocks until the calculation finishes on its own background
// context. Errors are returned exactly as the calculator produced them.
func CalculateSync(
	weight domain.Number,
	activityMinutes domain.Number,
	provider weather.TemperatureProvider,
) (domain.WaterNormResult, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outcome := <-NewWaterNormService(provider).CalculateAsync(ctx, weight, activityMinutes)
	return outcome.Result, outcome.Err
}
