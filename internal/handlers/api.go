package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"revenue-dashboard/internal/db"
	"revenue-dashboard/internal/errors"
	"revenue-dashboard/internal/models"
	"revenue-dashboard/internal/observability"
	"revenue-dashboard/internal/services"
	"revenue-dashboard/internal/session"
)

// RevenueQuerier is the live-query dependency: the fixed aggregation for one
// branch. *db.Executor satisfies it.
type RevenueQuerier interface {
	MonthlyRevenue(ctx context.Context, branchID int) ([]map[string]any, error)
}

// ConnStatus reports whether the tunnel + session pair is currently open.
type ConnStatus interface {
	Live() bool
}

type APIHandlers struct {
	branches *services.BranchSet // nil when the reference master failed to load
	executor RevenueQuerier
	manager  ConnStatus
	guard    *session.Guard
	logger   *slog.Logger
}

func NewAPIHandlers(branches *services.BranchSet, executor RevenueQuerier, manager ConnStatus, guard *session.Guard, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		branches: branches,
		executor: executor,
		manager:  manager,
		guard:    guard,
		logger:   logger,
	}
}

type loginRequest struct {
	Password string `json:"password"`
}

type sessionResponse struct {
	Authenticated  bool   `json:"authenticated"`
	IdleTimeoutMin int    `json:"idle_timeout_min"`
	Message        string `json:"message,omitempty"`
}

// RevenueResponse is the JSON shape of one comparison run. On query failure
// the report is the all-zero matrix and QueryError carries the message; the
// two are never mutually exclusive by accident.
type RevenueResponse struct {
	Branch     models.BranchOption `json:"branch"`
	Report     models.YoYReport    `json:"report"`
	NoData     bool                `json:"no_data"`
	QueryError string              `json:"query_error,omitempty"`
}

func (h *APIHandlers) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, h.logger, errors.BadRequestWrap(err, "invalid login payload"), requestID)
		return
	}

	token, err := h.guard.Login(req.Password)
	if err != nil {
		switch err {
		case session.ErrNoSecret:
			errors.WriteError(w, h.logger, errors.Misconfigured("authentication secret is not configured"), requestID)
		default:
			errors.WriteError(w, h.logger, errors.Unauthorized("invalid password"), requestID)
		}
		return
	}

	session.WriteCookie(w, token)
	errors.WriteSuccess(w, sessionResponse{
		Authenticated:  true,
		IdleTimeoutMin: int(h.guard.IdleTimeout().Minutes()),
	})
}

func (h *APIHandlers) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.guard.Logout(session.TokenFromRequest(r))
	session.ClearCookie(w)
	errors.WriteSuccess(w, sessionResponse{Authenticated: false})
}

// HandleSession reports the auth state for the page shell. A valid token
// counts as a guarded access and refreshes the idle clock.
func (h *APIHandlers) HandleSession(w http.ResponseWriter, r *http.Request) {
	resp := sessionResponse{
		IdleTimeoutMin: int(h.guard.IdleTimeout().Minutes()),
	}

	switch err := h.guard.Check(session.TokenFromRequest(r)); err {
	case nil:
		resp.Authenticated = true
	case session.ErrExpired:
		session.ClearCookie(w)
		resp.Message = "session expired, please log in again"
	default:
	}

	errors.WriteSuccess(w, resp)
}

func (h *APIHandlers) HandleBranches(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	if h.branches == nil {
		errors.WriteError(w, h.logger,
			errors.ServiceUnavailable("branch reference data is unavailable, please provide the master CSV"),
			requestID)
		return
	}

	errors.WriteSuccess(w, h.branches.Options())
}

func (h *APIHandlers) HandleRevenue(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	branch, appErr := h.resolveBranch(r)
	if appErr != nil {
		errors.WriteError(w, h.logger, appErr, requestID)
		return
	}

	errors.WriteSuccess(w, h.runComparison(r, branch))
}

// resolveBranch validates the branch query parameter against the loaded
// reference master.
func (h *APIHandlers) resolveBranch(r *http.Request) (models.BranchOption, *errors.AppError) {
	if h.branches == nil {
		return models.BranchOption{}, errors.ServiceUnavailable("branch reference data is unavailable, please provide the master CSV")
	}

	raw := r.URL.Query().Get("branch")
	if raw == "" {
		return models.BranchOption{}, errors.BadRequest("branch parameter is required")
	}

	id, err := strconv.Atoi(raw)
	if err != nil {
		return models.BranchOption{}, errors.BadRequestWrap(err, "branch parameter must be an integer")
	}

	b, ok := h.branches.Lookup(id)
	if !ok {
		return models.BranchOption{}, errors.NotFound("unknown branch identifier")
	}

	label := b.Name
	if b.City != "" {
		label = b.Name + " — " + b.City
	}
	return models.BranchOption{ID: b.InternalID, Label: label}, nil
}

// runComparison executes the live query and builds the report. Query
// failures become an all-zero report plus the error text, never a crash.
func (h *APIHandlers) runComparison(r *http.Request, branch models.BranchOption) RevenueResponse {
	rows, err := h.executor.MonthlyRevenue(r.Context(), branch.ID)

	resp := RevenueResponse{
		Branch: branch,
		Report: services.BuildMatrix(rows, db.RevenueYearA, db.RevenueYearB),
		NoData: len(rows) == 0,
	}
	if err != nil {
		resp.QueryError = err.Error()
	}

	return resp
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := map[string]any{
		"active_sessions": h.guard.ActiveSessions(),
	}
	if h.manager != nil {
		stats["connection_live"] = h.manager.Live()
	}
	if h.branches != nil {
		stats["branches"] = h.branches.Stats()
	}

	errors.WriteSuccess(w, stats)
}
