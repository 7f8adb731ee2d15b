package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/p-kaiser/logingate/internal/auth"
	"github.com/p-kaiser/logingate/internal/metrics"
)

const (
	userIDField   = "userid"
	passwordField = "password"

	// The login client always sends this content type. The match is a
	// case-sensitive prefix check, which is part of the contract with it.
	formContentType = "application/x-www-form-urlencoded"

	// Header on which the fronting nginx internally redirects after a
	// successful login.
	accelRedirectTarget = "/~successful-login"

	maxBodySize = 64 << 10
)

// LoginHandler answers credential submissions for a fronting reverse proxy.
// On success the authenticated identity is passed back in base64-encoded
// response headers and nginx is told to serve the successful-login resource.
type LoginHandler struct {
	userAuth *auth.Service
	metrics  *metrics.Metrics
	logger   *slog.Logger

	// out receives the one outcome line per request. The line format is
	// consumed by people and scripts watching the container output, so it
	// stays a plain stdout line rather than a structured log record.
	out io.Writer
}

func NewLoginHandler(logger *slog.Logger, userAuth *auth.Service, m *metrics.Metrics, out io.Writer) *LoginHandler {
	return &LoginHandler{
		userAuth: userAuth,
		metrics:  m,
		logger:   logger,
		out:      out,
	}
}

func (h *LoginHandler) Run(ctx context.Context, ln net.Listener) {
	mx := http.NewServeMux()
	// POST on any path is treated as a login request; the fronting nginx
	// decides which paths reach this process.
	mx.HandleFunc("POST /", h.login)
	mx.Handle("GET /metrics", h.metrics.Handler())

	// No access-log middleware here: request logging would write the
	// credentials a second time.
	srv := http.Server{
		Handler: mx,
	}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error(err.Error())
		}
	}()

	<-ctx.Done()

	timeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(timeout); err != nil {
		h.logger.Error(err.Error())
	}
}

func (h *LoginHandler) login(w http.ResponseWriter, r *http.Request) {
	h.metrics.HTTPRequests.Inc()

	if !strings.HasPrefix(r.Header.Get("Content-Type"), formContentType) {
		h.metrics.Logins.WithLabelValues(metrics.OutcomeMalformed).Inc()
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		h.metrics.Logins.WithLabelValues(metrics.OutcomeMalformed).Inc()
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// An undecodable body gets the same answer as a missing field.
	vars, err := url.ParseQuery(string(body))
	if err != nil {
		h.metrics.Logins.WithLabelValues(metrics.OutcomeMalformed).Inc()
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if len(vars[userIDField]) == 0 || len(vars[passwordField]) == 0 {
		h.metrics.Logins.WithLabelValues(metrics.OutcomeMalformed).Inc()
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	// First occurrence wins when a field repeats.
	userID := vars[userIDField][0]
	password := vars[passwordField][0]

	user, err := h.userAuth.Login(userID, password)
	if err != nil {
		fmt.Fprintf(h.out, "Incorrect login %s:%s\n", userID, password)
		h.metrics.Logins.WithLabelValues(metrics.OutcomeRejected).Inc()
		w.WriteHeader(http.StatusForbidden)
		return
	}

	fmt.Fprintf(h.out, "Successful login of %s (%s): %s\n", user.Name, user.DisplayName, user.Roles)
	h.metrics.Logins.WithLabelValues(metrics.OutcomeAccepted).Inc()

	// All identity data is base64-encoded so arbitrary display names
	// (including non-ASCII) survive the trip through HTTP headers.
	w.Header().Set("x-tobira-username", b64(user.Name))
	w.Header().Set("x-tobira-user-display-name", b64(user.DisplayName))
	w.Header().Set("x-tobira-user-roles", b64(user.Roles))
	w.Header().Set("x-accel-redirect", accelRedirectTarget)
	w.WriteHeader(http.StatusNoContent)
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}
