package connauth

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/callgate/pkg/clientip"
	"github.com/dmitrymomot/callgate/pkg/cookie"
	"github.com/dmitrymomot/callgate/pkg/domain"
	"github.com/dmitrymomot/callgate/pkg/logger"
	"github.com/dmitrymomot/callgate/pkg/session"
)

// HTTP guarantees every request a live session: it reuses the id from a
// valid signed cookie or mints one, rewrites the cookie and refreshes the
// server-side expiry.
type HTTP struct {
	manager *session.Manager
	cookies *cookie.Manager
	opts    options
}

// NewHTTP creates the request-response session middleware.
func NewHTTP(manager *session.Manager, cookies *cookie.Manager, opts ...Option) *HTTP {
	o := options{logger: logger.Discard()}
	for _, opt := range opts {
		opt(&o)
	}
	return &HTTP{manager: manager, cookies: cookies, opts: o}
}

// Middleware attaches the session handle (see session.FromContext) and the
// request Info to the request context.
func (h *HTTP) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		cfg := h.manager.Config()

		cookieDomain := cfg.Domain
		if cookieDomain == "" {
			cookieDomain = domain.Resolve(r.Host)
		}

		jar := h.cookies.Parse(r)
		id, ok := jar.SignedString(cfg.Name)
		fresh := !ok || id == ""
		if fresh {
			id = h.manager.NewID()
		}

		cookieOpts := append([]cookie.Option{
			cookie.WithMaxAge(int(cfg.MaxAge.Seconds())),
			cookie.WithDomain(cookieDomain),
		}, h.opts.cookieOptions...)
		if err := h.cookies.SetSigned(w, cfg.Name, id, cookieOpts...); err != nil {
			h.fail(w, r, id, err)
			return
		}

		stored, _, err := h.manager.Save(ctx, id, session.Data{})
		if err != nil {
			h.fail(w, r, id, err)
			return
		}

		handle, err := h.manager.Handle(ctx, id, stored)
		if err != nil {
			h.fail(w, r, id, err)
			return
		}

		ctx = session.WithHandle(ctx, handle)
		ctx = WithInfo(ctx, Info{
			SessionID: id,
			Fresh:     fresh,
			Domain:    cookieDomain,
			UserAgent: r.UserAgent(),
			UserIP:    clientip.GetIP(r),
			Cookies:   jar,
		})

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *HTTP) fail(w http.ResponseWriter, r *http.Request, id string, err error) {
	h.opts.logger.ErrorContext(r.Context(), "failed to attach session",
		logger.SessionID(id),
		slog.String("path", r.URL.Path),
		logger.Error(err),
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
