// Package proxy implements a small helper proxy for developing against a
// backend that expects auth headers from its fronting nginx. It forwards
// every request to the target and injects a fixed set of headers, so the
// backend sees an already-authenticated user without a real login flow.
package proxy

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/p-kaiser/logingate/internal/server/middleware"
	"github.com/p-kaiser/logingate/internal/userdb"
)

type Proxy struct {
	target  *url.URL
	headers http.Header
	logger  *slog.Logger
}

// New builds a proxy forwarding to target. templateUser, if non-empty, is
// looked up in the table and injected as the identity headers the backend
// expects from its auth proxy. extraHeaders are "name: value" strings that
// are set after the template, so they can override single values.
func New(logger *slog.Logger, target string, table userdb.Table, templateUser string, extraHeaders []string) (*Proxy, error) {
	targetURL, err := parseTarget(target)
	if err != nil {
		return nil, err
	}

	headers := http.Header{}
	if templateUser != "" {
		u, ok := table.Lookup(templateUser)
		if !ok {
			return nil, fmt.Errorf("unknown template user %q", templateUser)
		}
		headers.Set("x-tobira-username", b64(u.Name))
		headers.Set("x-tobira-user-display-name", b64(u.DisplayName))
		headers.Set("x-tobira-user-roles", b64(u.Roles))
	}
	for _, h := range extraHeaders {
		name, value, err := splitHeader(h)
		if err != nil {
			return nil, err
		}
		headers.Set(name, value)
	}

	return &Proxy{
		target:  targetURL,
		headers: headers,
		logger:  logger,
	}, nil
}

// Handler returns the forwarding handler with request logging attached.
func (p *Proxy) Handler() http.Handler {
	rp := &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(p.target)
			r.Out.Host = p.target.Host
			for name, values := range p.headers {
				r.Out.Header[name] = values
			}
		},
		ErrorHandler: p.targetUnreachable,
	}

	return middleware.Attach(rp, middleware.Logging(p.logger))
}

func (p *Proxy) Run(ctx context.Context, addr string) {
	srv := http.Server{
		Addr:    addr,
		Handler: p.Handler(),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			p.logger.Error(err.Error())
		}
	}()

	<-ctx.Done()

	timeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(timeout); err != nil {
		p.logger.Error(err.Error())
	}
}

func (p *Proxy) targetUnreachable(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusGatewayTimeout
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	fmt.Fprintf(w, "Error: could not reach proxy target at %s. Is the backend running?\n", p.target)
}

// parseTarget accepts "host:port" or a full http(s) URL. The scheme may be
// omitted for localhost and loopback addresses, defaulting to http. A path
// is not allowed on a target.
func parseTarget(target string) (*url.URL, error) {
	if target == "" {
		return nil, errors.New("empty proxy target")
	}
	if !strings.Contains(target, "://") {
		host := target
		if i := strings.IndexByte(host, ':'); i >= 0 {
			host = host[:i]
		}
		if host != "localhost" && host != "127.0.0.1" && host != "::1" {
			return nil, fmt.Errorf("proxy target %q has no scheme, which is only allowed for local targets", target)
		}
		target = "http://" + target
	}

	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy target: %w", err)
	}
	if u.Path != "" && u.Path != "/" {
		return nil, fmt.Errorf("proxy target %q must not have a path", target)
	}
	u.Path = ""

	return u, nil
}

func splitHeader(s string) (string, string, error) {
	name, value, ok := strings.Cut(s, ":")
	if !ok {
		return "", "", fmt.Errorf("invalid header %q: missing colon", s)
	}

	return strings.TrimSpace(name), strings.TrimSpace(value), nil
}

func b64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}
