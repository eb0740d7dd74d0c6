package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nekihlep/water-norm/domain"
	"github.com/nekihlep/water-norm/service"
)

const maxBatchSize = 50

type waterNormResponse struct {
	Milliliters  float64 `json:"milliliters"`
	Liters       float64 `json:"liters"`
	TemperatureC float64 `json:"temperature_c"`
	HeatUplift   bool    `json:"heat_uplift"`
}

func toResponse(r domain.WaterNormResult) waterNormResponse {
	return waterNormResponse{
		Milliliters:  r.Milliliters,
		Liters:       r.Liters(),
		TemperatureC: r.TemperatureC,
		HeatUplift:   r.HeatUplift,
	}
}

type WaterNormHandler struct {
	service *service.WaterNormService
	timeout time.Duration
	logger  *zap.Logger
}

// NewWaterNormHandler builds the handler. timeout bounds each request's
// calculation; zero means no limit beyond the client's own.
func NewWaterNormHandler(
	service *service.WaterNormService,
	timeout time.Duration,
	logger *zap.Logger,
) *WaterNormHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WaterNormHandler{service: service, timeout: timeout, logger: logger}
}

func (h *WaterNormHandler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.timeout > 0 {
		return context.WithTimeout(r.Context(), h.timeout)
	}
	return context.WithCancel(r.Context())
}

func (h *WaterNormHandler) CalculateWaterNorm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var input domain.WaterNormInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	result, err := h.service.Calculate(ctx, input.Weight, input.ActivityMinutes)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.writeJSON(w, toResponse(result))
}

func (h *WaterNormHandler) CalculateBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var inputs []domain.WaterNormInput
	if err := json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(inputs) == 0 || len(inputs) > maxBatchSize {
		http.Error(w, "batch must contain between 1 and 50 items", http.StatusBadRequest)
		return
	}

	ctx, cancel := h.requestContext(r)
	defer cancel()

	results, err := h.service.CalculateMany(ctx, inputs)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := make([]waterNormResponse, len(results))
	for i, res := range results {
		resp[i] = toResponse(res)
	}
	h.writeJSON(w, resp)
}

func (h *WaterNormHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn("temperature lookup timed out", zap.Error(err))
		http.Error(w, "temperature lookup timed out", http.StatusGatewayTimeout)
	case errors.Is(err, context.Canceled):
		// Client went away; nobody is reading the response.
	default:
		h.logger.Error("temperature provider failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}

// Encode into a buffer first so a failed encode does not leave a 200 header.
func (h *WaterNormHandler) writeJSON(w http.ResponseWriter, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		h.logger.Error("error encoding response", zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("error writing response", zap.Error(err))
	}
}

// Health reports liveness. It does not consult the temperature provider.
func Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
