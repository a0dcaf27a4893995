package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"revenue-dashboard/internal/db"
	"revenue-dashboard/internal/errors"
	"revenue-dashboard/internal/observability"
	"revenue-dashboard/internal/services"
	"revenue-dashboard/internal/session"
	"revenue-dashboard/internal/ui/templates"
)

const renderTimeout = 10 * time.Second

// PageHandlers serves the page shell and the classic form transitions
// (login, logout). Every transition redirects back to "/", which re-renders
// the whole shell for the new state.
type PageHandlers struct {
	branches *services.BranchSet
	guard    *session.Guard
	logger   *slog.Logger
}

func NewPageHandlers(branches *services.BranchSet, guard *session.Guard, logger *slog.Logger) *PageHandlers {
	return &PageHandlers{
		branches: branches,
		guard:    guard,
		logger:   logger,
	}
}

func (h *PageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), renderTimeout)
	defer cancel()

	data := templates.PageData{
		IdleTimeoutMin: int(h.guard.IdleTimeout().Minutes()),
		YearA:          db.RevenueYearA,
		YearB:          db.RevenueYearB,
		LoginError:     loginErrorMessage(r.URL.Query().Get("login_error")),
	}

	switch err := h.guard.Check(session.TokenFromRequest(r)); err {
	case nil:
		data.Authenticated = true
	case session.ErrExpired:
		session.ClearCookie(w)
		data.LoginError = "Session expired after inactivity, please log in again."
	case session.ErrNoSecret:
		requestID := observability.GetRequestID(r.Context())
		errors.WriteError(w, h.logger,
			errors.Misconfigured("authentication secret is not configured"), requestID)
		return
	}

	if h.branches != nil {
		data.BranchesLoaded = true
		data.Options = h.branches.Options()
	}

	w.Header().Set("Cache-Control", "no-store")
	if err := templates.Dashboard(data).Render(ctx, w); err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

// HandleLoginForm is the password submit from the page shell.
func (h *PageHandlers) HandleLoginForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Redirect(w, r, "/?login_error=invalid", http.StatusSeeOther)
		return
	}

	token, err := h.guard.Login(r.PostFormValue("password"))
	if err != nil {
		if err == session.ErrNoSecret {
			requestID := observability.GetRequestID(r.Context())
			errors.WriteError(w, h.logger,
				errors.Misconfigured("authentication secret is not configured"), requestID)
			return
		}
		// Wrong password: back to the login form with an inline error and
		// no lockout.
		http.Redirect(w, r, "/?login_error=invalid", http.StatusSeeOther)
		return
	}

	session.WriteCookie(w, token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *PageHandlers) HandleLogoutForm(w http.ResponseWriter, r *http.Request) {
	h.guard.Logout(session.TokenFromRequest(r))
	session.ClearCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func loginErrorMessage(code string) string {
	if code == "invalid" {
		return "Wrong password."
	}
	return ""
}
