package handlers

import (
	"net/http"
	"strings"
	"time"

	"webm-trimmer/internal/logging"
	"webm-trimmer/internal/metrics"
)

// SessionCookieName is the name of the session cookie
const SessionCookieName = "webm_trimmer_session"

// publicPaths never require a session.
var publicPaths = map[string]bool{
	"/login":   true,
	"/health":  true,
	"/healthz": true,
	"/livez":   true,
	"/readyz":  true,
	"/version": true,
}

type loginPage struct {
	Error string
}

func (h *Handlers) renderLogin(w http.ResponseWriter, statusCode int, page loginPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(statusCode)
	if err := h.templates.ExecuteTemplate(w, "login.html", page); err != nil {
		logging.Error("failed to render login page: %v", err)
	}
}

// LoginPage renders the login form, or sends the user to the form when no
// password is configured.
func (h *Handlers) LoginPage(w http.ResponseWriter, r *http.Request) {
	if !h.db.HasUsers(r.Context()) {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	h.renderLogin(w, http.StatusOK, loginPage{})
}

// Login checks the posted password and starts a session.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return
	}

	user, err := h.db.ValidatePassword(ctx, r.PostForm.Get("password"))
	if err != nil {
		logging.Warn("Failed login attempt from %s", r.RemoteAddr)
		metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
		h.renderLogin(w, http.StatusUnauthorized, loginPage{Error: "Invalid password"})
		return
	}
	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()

	session, err := h.db.CreateSession(ctx, user.ID)
	if err != nil {
		logging.Error("Failed to create session: %v", err)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})

	logging.Info("User logged in, session expires at %s", session.ExpiresAt.Format(time.RFC3339))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout ends the current session
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
		// Best-effort: the cookie is cleared either way.
		if err := h.db.DeleteSession(r.Context(), cookie.Value); err != nil {
			logging.Error("failed to delete session during logout: %v", err)
		}
	}

	clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// AuthMiddleware requires a valid session once a password has been set.
// Until then every route is open.
func (h *Handlers) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if publicPaths[r.URL.Path] || !h.db.HasUsers(ctx) {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(SessionCookieName)
		if err == nil && cookie.Value != "" {
			if _, err = h.db.ValidateSession(ctx, cookie.Value); err == nil {
				next.ServeHTTP(w, r)
				return
			}
			clearSessionCookie(w)
		}

		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeJSONError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		http.Redirect(w, r, "/login", http.StatusFound)
	})
}
