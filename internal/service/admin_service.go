package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/stakebank/stakebank/internal/engine"
	"github.com/stakebank/stakebank/internal/middleware"
)

// AdminService exposes the administrative command surface. Commands are
// dispatched by name through a single table, and every one requires an
// authenticated operator.
type AdminService struct {
	engine   *engine.Engine
	commands map[string]commandFunc
}

// commandFunc decodes its own request body and runs one command.
type commandFunc func(ctx context.Context, body json.RawMessage) (any, error)

// NewAdminService creates an AdminService and builds its dispatch table.
func NewAdminService(eng *engine.Engine) *AdminService {
	s := &AdminService{engine: eng}
	s.commands = map[string]commandFunc{
		"setplan":      s.setPlan,
		"activateplan": s.activatePlan,
		"addcreditor":  s.addCreditor,
		"delcreditor":  s.delCreditor,
		"activate":     s.activateCreditor,
		"setproxy":     s.setProxy,
		"setdividend":  s.setDividend,
		"deldividend":  s.delDividend,
		"addblacklist": s.addBlacklist,
		"delblacklist": s.delBlacklist,
		"addwhitelist": s.addWhitelist,
		"delwhitelist": s.delWhitelist,
		"check":        s.check,
		"forcexpire":   s.forceExpire,
		"clearhistory": s.clearHistory,
	}
	return s
}

// Register mounts the command route on the mux. The surrounding middleware
// has already authenticated the operator.
func (s *AdminService) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/admin/commands/{name}", s.handleCommand)
}

func (s *AdminService) handleCommand(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	cmd, ok := s.commands[name]
	if !ok {
		http.Error(w, fmt.Sprintf("unknown command %q", name), http.StatusNotFound)
		return
	}

	operator := middleware.GetOperator(r.Context())
	if operator == "" {
		writeError(w, fmt.Errorf("%w: operator required", engine.ErrUnauthorized))
		return
	}

	var body json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		body = nil
	}

	result, err := cmd(r.Context(), body)
	if err != nil {
		slog.Error("Admin command failed", "command", name, "operator", operator, "error", err)
		writeError(w, err)
		return
	}
	if result == nil {
		result = map[string]string{"status": "ok"}
	}
	writeJSON(w, result)
}

func decode[T any](body json.RawMessage) (T, error) {
	var req T
	if body == nil {
		return req, fmt.Errorf("%w: request body required", engine.ErrValidation)
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, fmt.Errorf("%w: %v", engine.ErrValidation, err)
	}
	return req, nil
}

func (s *AdminService) setPlan(ctx context.Context, body json.RawMessage) (any, error) {
	req, err := decode[struct {
		Price    int64 `json:"price"`
		Cpu      int64 `json:"cpu"`
		Net      int64 `json:"net"`
		Duration int64 `json:"duration"`
		Free     bool  `json:"free"`
	}](body)
	if err != nil {
		return nil, err
	}
	return nil, s.engine.SetPlan(ctx, req.Price, req.Cpu, req.Net, req.Duration, req.Free)
}

func (s *AdminService) activatePlan(ctx context.Context, body json.RawMessage) (any, error) {
	req, err := decode[struct {
		Price  int64 `json:"price"`
		Active bool  `json:"active"`
	}](body)
	if err != nil {
		return nil, err
	}
	return nil, s.engine.ActivatePlan(ctx, req.Price, req.Active)
}

func (s *AdminService) addCreditor(ctx context.Context, body json.RawMessage) (any, error) {
	req, err := decode[struct {
		Account  string `json:"account"`
		Free     bool   `json:"free"`
		FreeMemo string `json:"free_memo"`
	}](body)
	if err != nil {
		return nil, err
	}
	return nil, s.engine.AddCreditor(ctx, req.Account, req.Free, req.FreeMemo)
}

func (s *AdminService) delCreditor(ctx context.Context, body json.RawMessage) (any, error) {
	req, err := decode[struct {
		Account string `json:"account"`
	}](body)
	if err != nil {
		return nil, err
	}
	return nil, s.engine.DeleteCreditor(ctx, req.Account)
}

func (s *AdminService) activateCreditor(ctx context.Context, body json.RawMessage) (any, error) {
	req, err := decode[struct {
		Account string `json:"account"`
	}](body)
	if err != nil {
		return nil, err
	}
	return nil, s.engine.ActivateCreditor(ctx, req.Account)
}

func (s *AdminService) setProxy(ctx context.Context, body json.RawMessage) (any, error) {
	req, err := decode[struct {
		Account   string `json:"account"`
		UsesProxy bool   `json:"uses_proxy"`
	}](body)
	if err != nil {
		return nil, err
	}
	return nil, s.engine.SetCreditorProxy(ctx, req.Account, req.UsesProxy)
}

func (s *AdminService) setDividend(ctx context.Context, body json.RawMessage) (any, error) {
	req, err := decode[struct {
		Account    string `json:"account"`
		Percentage int64  `json:"percentage"`
	}](body)
	if err != nil {
		return nil, err
	}
	return nil, s.engine.SetDividend(ctx, req.Account, req.Percentage)
}

func (s *AdminService) delDividend(ctx context.Context, body json.RawMessage) (any, error) {
	req, err := decode[struct {
		Account string `json:"account"`
	}](body)
	if err != nil {
		return nil, err
	}
	return nil, s.engine.DeleteDividend(ctx, req.Account)
}

func (s *AdminService) addBlacklist(ctx context.Context, body json.RawMessage) (any, error) {
	req, err := decode[struct {
		Account string `json:"account"`
	}](body)
	if err != nil {
		return nil, err
	}
	return nil, s.engine.AddBlacklist(ctx, req.Account)
}

func (s *AdminService) delBlacklist(ctx context.Context, body json.RawMessage) (any, error) {
	req, err := decode[struct {
		Account string `json:"account"`
	}](body)
	if err != nil {
		return nil, err
	}
	return nil, s.engine.RemoveBlacklist(ctx, req.Account)
}

func (s *AdminService) addWhitelist(ctx context.Context, body json.RawMessage) (any, error) {
	req, err := decode[struct {
		Account  string `json:"account"`
		Capacity int64  `json:"capacity"`
	}](body)
	if err != nil {
		return nil, err
	}
	return nil, s.engine.SetWhitelist(ctx, req.Account, req.Capacity)
}

func (s *AdminService) delWhitelist(ctx context.Context, body json.RawMessage) (any, error) {
	req, err := decode[struct {
		Account string `json:"account"`
	}](body)
	if err != nil {
		return nil, err
	}
	return nil, s.engine.RemoveWhitelist(ctx, req.Account)
}

func (s *AdminService) check(ctx context.Context, _ json.RawMessage) (any, error) {
	return nil, s.engine.Check(ctx)
}

func (s *AdminService) forceExpire(ctx context.Context, body json.RawMessage) (any, error) {
	req, err := decode[struct {
		LeaseIDs []int64 `json:"lease_ids"`
	}](body)
	if err != nil {
		return nil, err
	}
	return nil, s.engine.ForceExpire(ctx, req.LeaseIDs)
}

func (s *AdminService) clearHistory(ctx context.Context, body json.RawMessage) (any, error) {
	req, err := decode[struct {
		MaxDepth int `json:"max_depth"`
	}](body)
	if err != nil {
		return nil, err
	}
	removed, err := s.engine.PruneHistory(ctx, req.MaxDepth)
	if err != nil {
		return nil, err
	}
	return map[string]int{"removed": removed}, nil
}
