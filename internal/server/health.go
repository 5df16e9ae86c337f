package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/andrasnagy-data/authform/internal/shared/request"
)

const upstreamProbeTimeout = 2 * time.Second

type (
	pinger interface {
		Ping(ctx context.Context) bool
	}

	// HealthSrvc reports whether the login API can be reached
	HealthSrvc struct {
		upstream pinger
	}

	// HealthResponse represents the response structure for health check endpoint
	HealthResponse struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
		Upstream  bool      `json:"upstream"`
	}
)

func NewHealthHandler(srvc *HealthSrvc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		logger := hlog.FromRequest(r)

		response := srvc.check(ctx)

		w.Header().Set("Content-Type", "application/json")

		if response.Upstream {
			logger.Debug().Msg("Login API healthcheck ok")
			w.WriteHeader(http.StatusOK)
		} else {
			logger.Error().Msg("Login API healthcheck failed")
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		if err := json.NewEncoder(w).Encode(response); err != nil {
			logger.Error().Err(err).Msg("Failed to encode health check response")
			return
		}
	}
}

func NewHealthSrvc(client *request.Client) *HealthSrvc {
	return &HealthSrvc{upstream: client}
}

func (s *HealthSrvc) check(ctx context.Context) HealthResponse {
	ctx, cancel := context.WithTimeout(ctx, upstreamProbeTimeout)
	defer cancel()

	ok := s.upstream.Ping(ctx)
	now := time.Now().UTC()

	if ok {
		return HealthResponse{
			Status:    "serving",
			Timestamp: now,
			Upstream:  ok,
		}
	}
	return HealthResponse{
		Status:    "not serving",
		Timestamp: now,
		Upstream:  ok,
	}
}
