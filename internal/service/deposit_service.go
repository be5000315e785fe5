// Package service exposes the engine over HTTP: the deposit intake path
// and the authorized administrative command surface.
package service

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/stakebank/stakebank/internal/engine"
)

// DepositService handles incoming deposit notifications, the trigger that
// opens leases.
type DepositService struct {
	engine *engine.Engine
}

// NewDepositService creates a DepositService on top of the engine.
func NewDepositService(eng *engine.Engine) *DepositService {
	return &DepositService{engine: eng}
}

// Register mounts the deposit route on the mux.
func (s *DepositService) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/deposits", s.handleDeposit)
}

type depositRequest struct {
	Buyer  string `json:"buyer"`
	Amount int64  `json:"amount"`
	Memo   string `json:"memo"`
}

type depositResponse struct {
	LeaseID int64 `json:"lease_id"`
}

func (s *DepositService) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req depositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Buyer == "" {
		http.Error(w, "buyer required", http.StatusBadRequest)
		return
	}

	leaseID, err := s.engine.OpenLease(r.Context(), req.Buyer, req.Amount, req.Memo)
	if err != nil {
		slog.Error("OpenLease failed", "buyer", req.Buyer, "amount", req.Amount, "error", err)
		writeError(w, err)
		return
	}

	writeJSON(w, depositResponse{LeaseID: leaseID})
}

// writeError maps engine error categories onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, engine.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrUnauthorized):
		status = http.StatusForbidden
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
