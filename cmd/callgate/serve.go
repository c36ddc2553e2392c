package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dmitrymomot/callgate/pkg/channel"
	"github.com/dmitrymomot/callgate/pkg/connauth"
	"github.com/dmitrymomot/callgate/pkg/cookie"
	"github.com/dmitrymomot/callgate/pkg/httpserver"
	"github.com/dmitrymomot/callgate/pkg/logger"
	"github.com/dmitrymomot/callgate/pkg/metrics"
	"github.com/dmitrymomot/callgate/pkg/ratelimiter"
	"github.com/dmitrymomot/callgate/pkg/redis"
	"github.com/dmitrymomot/callgate/pkg/requestid"
	"github.com/dmitrymomot/callgate/pkg/rpc"
	"github.com/dmitrymomot/callgate/pkg/session"
)

func serveCmd() *cobra.Command {
	var envFiles []string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the call gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(envFiles...)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load before reading the environment")

	return cmd
}

func serve(ctx context.Context, cfg serverConfig) error {
	log, err := logger.NewFromConfig(cfg.Log, logger.WithContextExtractors(requestid.LoggerExtractor()))
	if err != nil {
		return err
	}
	logger.SetAsDefault(log)

	client, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer client.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	gw, err := newGateway(cfg, client, reg, log)
	if err != nil {
		return err
	}

	srv := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		httpserver.OnShutdown(func(context.Context) { gw.channel.Close() }),
	)
	return srv.Run(ctx, gw.router)
}

// gateway is the wired call stack behind the HTTP router.
type gateway struct {
	router  http.Handler
	rpc     *rpc.Server
	channel *channel.Server
}

func newGateway(cfg serverConfig, client goredis.UniversalClient, reg *prometheus.Registry, log *slog.Logger) (*gateway, error) {
	return buildGateway(cfg, stores{
		session: session.NewRedisStore(client, session.WithStoreLogger(log)),
		limits:  ratelimiter.NewRedisStore(client),
		check:   redis.Healthcheck(client),
	}, reg, log)
}

// stores are the backends of a gateway.
type stores struct {
	session session.Store
	limits  ratelimiter.Store
	check   httpserver.Check
}

func buildGateway(cfg serverConfig, st stores, reg *prometheus.Registry, log *slog.Logger) (*gateway, error) {
	manager := session.NewFromConfig(cfg.Session, st.session, session.WithLogger(log))

	cookies, err := cookie.NewFromConfig(cfg.Session.Secrets, cfg.Cookie)
	if err != nil {
		return nil, fmt.Errorf("cookie manager: %w", err)
	}

	collector := metrics.New(metrics.WithRegistry(reg))

	limiter, err := ratelimiter.NewBucket(st.limits, cfg.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	httpAuth := connauth.NewHTTP(manager, cookies, connauth.WithLogger(log))
	chanAuth := connauth.NewChannel(manager, cookies, connauth.WithLogger(log))

	srv, err := rpc.NewServer(
		rpc.WithLogger(log),
		rpc.WithHooks(collector.Hooks()),
		rpc.WithStages(rpc.InboundBefore,
			chanAuth.Stage(),
			ratelimiter.Stage(limiter, ratelimiter.WithStageLogger(log)),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("call server: %w", err)
	}

	srv.Load(modules()...)
	if err := srv.Registry().Validate(); err != nil {
		return nil, fmt.Errorf("call registry: %w", err)
	}
	log.Info("calls registered", slog.Any("calls", callNames(srv)))

	ws := channel.NewServer(srv, chanAuth,
		channel.WithConfig(cfg.Channel),
		channel.WithLogger(log),
		channel.WithConnectionHooks(collector.ConnOpened, collector.ConnClosed),
	)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestid.Middleware)

	r.Get("/healthz", httpserver.Liveness())
	r.Get("/readyz", httpserver.Readiness(log, cfg.HTTP.ProbeTimeout, map[string]httpserver.Check{
		"session_store": st.check,
	}))
	r.Handle(cfg.Routes.Metrics, promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	// The channel authenticates its own handshake from the signed cookie.
	r.Handle(cfg.Routes.Channel, ws)

	r.Group(func(r chi.Router) {
		r.Use(httpAuth.Middleware)
		r.Get("/session", sessionHandler)
	})

	return &gateway{
		router:  r,
		rpc:     srv,
		channel: ws,
	}, nil
}

// sessionHandler issues the session cookie to browsers before they open
// the channel and reports the session state.
func sessionHandler(w http.ResponseWriter, r *http.Request) {
	handle, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	data := handle.Data()
	info, _ := connauth.InfoFromContext(r.Context())

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"authed": data.Authed(),
		"fresh":  info.Fresh,
	})
}
