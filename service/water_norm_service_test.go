package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nekihlep/water-norm/domain"
	"github.com/nekihlep/water-norm/weather"
)

// MockProvider returns a fixed temperature and counts lookups.
type MockProvider struct {
	Temperature float64
	Err         error
	Calls       atomic.Int32
}

func (m *MockProvider) provider() weather.TemperatureProvider {
	return weather.ProviderFunc(func(ctx context.Context) (float64, error) {
		m.Calls.Add(1)
		if m.Err != nil {
			return 0, m.Err
		}
		return m.Temperature, nil
	})
}

func newTestService(temp float64) (*WaterNormService, *MockProvider) {
	mock := &MockProvider{Temperature: temp}
	return NewWaterNormService(mock.provider()), mock
}

func expectedNorm(weight, activity int, hot bool) float64 {
	total := 30*float64(weight) + (500*float64(activity))/60
	if hot {
		total *= 1.2
	}
	return roundTo2Decimals(total)
}

func TestCalculate_ReferenceValues(t *testing.T) {
	tests := []struct {
		name     string
		weight   int
		activity int
		temp     float64
		expected float64
	}{
		{"normal case", 70, 60, 20, 2600.0},
		{"normal case in heat", 70, 60, 40, 3120.0},
		{"min weight min activity", 5, 0, 20, 150.0},
		{"max weight max activity", 250, 720, 20, 13500.0},
		{"thirty minutes", 45, 30, 20, 1600.0},
		{"boundary weight min", 5, 60, 20, 650.0},
		{"boundary weight max", 250, 60, 20, 8000.0},
		{"boundary activity min", 70, 0, 20, 2100.0},
		{"boundary activity max", 70, 720, 20, 8100.0},
		{"fractional activity extra", 70, 1, 20, 2108.33},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(tt.temp)

			result, err := svc.Calculate(context.Background(), domain.Int(tt.weight), domain.Int(tt.activity))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Milliliters != tt.expected {
				t.Errorf("expected %.2f, got %.2f", tt.expected, result.Milliliters)
			}
		})
	}
}

func TestCalculate_FormulaAcrossRange(t *testing.T) {
	cold, _ := newTestService(30)
	hot, _ := newTestService(30.5)
	ctx := context.Background()

	for weight := MinWeightKg; weight <= MaxWeightKg; weight += 35 {
		for activity := MinActivityMinutes; activity <= MaxActivityMinutes; activity += 37 {
			got, err := cold.Calculate(ctx, domain.Int(weight), domain.Int(activity))
			if err != nil {
				t.Fatalf("unexpected error for %d/%d: %v", weight, activity, err)
			}
			if want := expectedNorm(weight, activity, false); got.Milliliters != want {
				t.Errorf("%d kg / %d min: expected %.2f, got %.2f", weight, activity, want, got.Milliliters)
			}

			got, err = hot.Calculate(ctx, domain.Int(weight), domain.Int(activity))
			if err != nil {
				t.Fatalf("unexpected error for %d/%d: %v", weight, activity, err)
			}
			if want := expectedNorm(weight, activity, true); got.Milliliters != want {
				t.Errorf("%d kg / %d min in heat: expected %.2f, got %.2f", weight, activity, want, got.Milliliters)
			}
		}
	}
}

func TestCalculate_HeatThreshold(t *testing.T) {
	tests := []struct {
		temp   float64
		uplift bool
	}{
		{29, false},
		{30, false},
		{30.01, true},
		{31, true},
		{-15, false},
	}

	for _, tt := range tests {
		svc, _ := newTestService(tt.temp)

		result, err := svc.Calculate(context.Background(), domain.Int(70), domain.Int(60))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.HeatUplift != tt.uplift {
			t.Errorf("temperature %v: expected uplift=%v", tt.temp, tt.uplift)
		}
		if want := expectedNorm(70, 60, tt.uplift); result.Milliliters != want {
			t.Errorf("temperature %v: expected %.2f, got %.2f", tt.temp, want, result.Milliliters)
		}
		if result.TemperatureC != tt.temp {
			t.Errorf("expected temperature %v in result, got %v", tt.temp, result.TemperatureC)
		}
	}
}

func TestCalculate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name     string
		weight   domain.Number
		activity domain.Number
		kind     error
		message  string
	}{
		{"weight too low", domain.Int(4), domain.Int(30), domain.ErrRangeValidation, "weight must be between 5 and 250 kg"},
		{"weight too high", domain.Int(251), domain.Int(30), domain.ErrRangeValidation, "weight must be between 5 and 250 kg"},
		{"zero weight", domain.Int(0), domain.Int(30), domain.ErrRangeValidation, "weight must be between 5 and 250 kg"},
		{"negative weight", domain.Int(-10), domain.Int(60), domain.ErrRangeValidation, "weight must be between 5 and 250 kg"},
		{"weight out of range with bad activity", domain.Int(4), domain.Int(9999), domain.ErrRangeValidation, "weight must be between 5 and 250 kg"},
		{"whole float weight", domain.Float(70), domain.Int(60), domain.ErrTypeValidation, "weight must be a number"},
		{"missing weight", domain.Number{}, domain.Int(60), domain.ErrTypeValidation, "weight must be a number"},
		{"negative activity", domain.Int(70), domain.Int(-10), domain.ErrRangeValidation, "activity time cannot be negative"},
		{"activity too high", domain.Int(70), domain.Int(721), domain.ErrRangeValidation, "activity time cannot exceed 720 minutes"},
		{"float activity", domain.Int(70), domain.Float(60), domain.ErrTypeValidation, "activity time must be a number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(20)

			_, err := svc.Calculate(context.Background(), tt.weight, tt.activity)
			if err == nil {
				t.Fatalf("expected error")
			}
			if !errors.Is(err, tt.kind) {
				t.Errorf("expected kind %v, got %v", tt.kind, err)
			}
			if err.Error() != tt.message {
				t.Errorf("expected message %q, got %q", tt.message, err.Error())
			}
		})
	}
}

// The provider is consulted before validation, even for invalid input.
func TestCalculate_ProviderCalledBeforeValidation(t *testing.T) {
	svc, mock := newTestService(20)

	_, err := svc.Calculate(context.Background(), domain.Int(4), domain.Int(30))
	if !errors.Is(err, domain.ErrRangeValidation) {
		t.Fatalf("expected range error, got %v", err)
	}
	if mock.Calls.Load() != 1 {
		t.Errorf("expected provider to be called once, got %d", mock.Calls.Load())
	}
}

func TestCalculate_ProviderFailurePropagates(t *testing.T) {
	providerErr := errors.New("weather service unavailable")
	mock := &MockProvider{Err: providerErr}
	svc := NewWaterNormService(mock.provider())

	// Invalid input too: the provider failure wins.
	for _, weight := range []int{70, 4} {
		_, err := svc.Calculate(context.Background(), domain.Int(weight), domain.Int(60))
		if err != providerErr {
			t.Errorf("weight %d: expected provider error unchanged, got %v", weight, err)
		}
		if err.Error() != "weather service unavailable" {
			t.Errorf("unexpected message %q", err.Error())
		}
	}
}

func TestCalculate_Idempotent(t *testing.T) {
	svc, _ := newTestService(35)

	first, err := svc.Calculate(context.Background(), domain.Int(82), domain.Int(45))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Calculate(context.Background(), domain.Int(82), domain.Int(45))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Errorf("expected identical results, got %+v and %+v", first, second)
	}
}

func TestCalculate_Concurrent(t *testing.T) {
	svc := NewWaterNormService(weather.NewStubProvider())
	ctx := context.Background()

	inputs := []struct{ weight, activity int }{
		{70, 60},
		{5, 0},
		{250, 720},
	}

	pending := make([]<-chan Outcome, len(inputs))
	for i, in := range inputs {
		pending[i] = svc.CalculateAsync(ctx, domain.Int(in.weight), domain.Int(in.activity))
	}

	for i, ch := range pending {
		outcome := <-ch
		if outcome.Err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, outcome.Err)
		}
		want := expectedNorm(inputs[i].weight, inputs[i].activity, false)
		if outcome.Result.Milliliters != want {
			t.Errorf("call %d: expected %.2f, got %.2f", i, want, outcome.Result.Milliliters)
		}
	}
}

func TestCalculate_Cancelled(t *testing.T) {
	svc := NewWaterNormService(&weather.StubProvider{Value: 20, Delay: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())

	ch := svc.CalculateAsync(ctx, domain.Int(70), domain.Int(60))
	cancel()

	select {
	case outcome := <-ch:
		if !errors.Is(outcome.Err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", outcome.Err)
		}
		if outcome.Result != (domain.WaterNormResult{}) {
			t.Errorf("expected no partial result, got %+v", outcome.Result)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled calculation did not return")
	}
}

func TestCalculateMany(t *testing.T) {
	svc, mock := newTestService(20)

	inputs := []domain.WaterNormInput{
		{Weight: domain.Int(70), ActivityMinutes: domain.Int(60)},
		{Weight: domain.Int(5), ActivityMinutes: domain.Int(0)},
		{Weight: domain.Int(250), ActivityMinutes: domain.Int(720)},
	}

	results, err := svc.CalculateMany(context.Background(), inputs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := []float64{2600, 150, 13500}
	for i, r := range results {
		if r.Milliliters != expected[i] {
			t.Errorf("result %d: expected %.2f, got %.2f", i, expected[i], r.Milliliters)
		}
	}
	if mock.Calls.Load() != 3 {
		t.Errorf("expected one lookup per calculation, got %d", mock.Calls.Load())
	}
}

func TestCalculateMany_FirstErrorReturned(t *testing.T) {
	svc, _ := newTestService(20)

	inputs := []domain.WaterNormInput{
		{Weight: domain.Int(70), ActivityMinutes: domain.Int(60)},
		{Weight: domain.Int(70), ActivityMinutes: domain.Int(721)},
	}

	results, err := svc.CalculateMany(context.Background(), inputs)
	if !errors.Is(err, domain.ErrRangeValidation) {
		t.Fatalf("expected range error, got %v", err)
	}
	if results != nil {
		t.Errorf("expected no partial results")
	}
}

func TestNewWaterNormService_DefaultProvider(t *testing.T) {
	result, err := Calculate(context.Background(), domain.Int(70), domain.Int(60), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.TemperatureC != weather.StubTemperature {
		t.Errorf("expected stub temperature, got %v", result.TemperatureC)
	}
	if result.Milliliters != 2600 {
		t.Errorf("expected 2600, got %.2f", result.Milliliters)
	}
}

func TestCalculateSync(t *testing.T) {
	mock := &MockProvider{Temperature: 40}

	result, err := CalculateSync(domain.Int(70), domain.Int(60), mock.provider())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Milliliters != 3120 {
		t.Errorf("expected 3120, got %.2f", result.Milliliters)
	}
}

func TestCalculateSync_ErrorUnchanged(t *testing.T) {
	providerErr := errors.New("weather service unavailable")
	mock := &MockProvider{Err: providerErr}

	if _, err := CalculateSync(domain.Int(70), domain.Int(60), mock.provider()); err != providerErr {
		t.Errorf("expected provider error unchanged, got %v", err)
	}

	_, err := CalculateSync(domain.Int(70), domain.Int(-10), nil)
	var ve *domain.ValidationError
	if !errors.As(err, &ve) || ve.Message != "activity time cannot be negative" {
		t.Errorf("expected validation error unchanged, got %v", err)
	}
}

func TestCalculate_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	mock := &MockProvider{Temperature: 35}
	svc := NewWaterNormService(mock.provider(), WithMetrics(metrics))
	ctx := context.Background()

	svc.Calculate(ctx, domain.Int(70), domain.Int(60))
	svc.Calculate(ctx, domain.Int(4), domain.Int(60))
	svc.Calculate(ctx, domain.Float(70), domain.Int(60))

	if got := testutil.ToFloat64(metrics.Calculations.WithLabelValues(outcomeOK)); got != 1 {
		t.Errorf("expected 1 ok calculation, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.Calculations.WithLabelValues(outcomeRangeValidation)); got != 1 {
		t.Errorf("expected 1 range failure, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.Calculations.WithLabelValues(outcomeTypeValidation)); got != 1 {
		t.Errorf("expected 1 type failure, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.HeatUplifts); got != 1 {
		t.Errorf("expected 1 heat uplift, got %v", got)
	}
}
