package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mediqcloud/mediq/handler"
	"github.com/mediqcloud/mediq/modules/appointments"
	"github.com/mediqcloud/mediq/modules/messaging"
	"github.com/mediqcloud/mediq/modules/patients"
	"github.com/mediqcloud/mediq/modules/settings"
	"github.com/mediqcloud/mediq/pkg/config"
	"github.com/mediqcloud/mediq/pkg/httpserver"
	"github.com/mediqcloud/mediq/pkg/logger"
	"github.com/mediqcloud/mediq/pkg/pg"
	"github.com/mediqcloud/mediq/pkg/ratelimiter"
	"github.com/mediqcloud/mediq/pkg/redis"
	"github.com/mediqcloud/mediq/pkg/requestid"
	"github.com/mediqcloud/mediq/pkg/rls"
	"github.com/mediqcloud/mediq/svc/identity"
	"github.com/mediqcloud/mediq/svc/tenant"
)

type appConfig struct {
	Env          string        `env:"APP_ENV" envDefault:"development"`
	AuthSecret   string        `env:"AUTH_TOKEN_SECRET,required"`
	GalleryPath  string        `env:"MESSAGE_TEMPLATES_PATH" envDefault:"./modules/messaging/templates.yaml"`
	RateLimit    int           `env:"RATE_LIMIT" envDefault:"120"`
	RateWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	RedisEnabled bool          `env:"REDIS_ENABLED" envDefault:"false"`
}

func main() {
	ctx := context.Background()

	var appCfg appConfig
	config.MustLoad(&appCfg)

	log := logger.New(
		logger.WithEnvironment(appCfg.Env, "mediq"),
		logger.WithContextExtractors(
			requestid.LoggerExtractor(),
			tenant.LoggerExtractor(),
		),
	)
	logger.SetAsDefault(log)

	if err := run(ctx, appCfg, log); err != nil {
		log.ErrorContext(ctx, "server exited with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, appCfg appConfig, log *slog.Logger) error {
	var pgCfg pg.Config
	config.MustLoad(&pgCfg)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	probes := []func(context.Context) error{pg.Healthcheck(pool)}

	// The limiter backend is Redis when available and shared across replicas;
	// a single-node deployment falls back to per-process counters.
	var store ratelimiter.Store = ratelimiter.NewMemoryStore()
	if appCfg.RedisEnabled {
		var redisCfg redis.Config
		config.MustLoad(&redisCfg)

		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		store = ratelimiter.NewRedisStore(client, "mediq:ratelimit")
		probes = append(probes, redis.Healthcheck(client))
	}

	limiter, err := ratelimiter.NewFixedWindow(store, ratelimiter.Config{
		Limit:  appCfg.RateLimit,
		Window: appCfg.RateWindow,
	})
	if err != nil {
		return err
	}

	provider, err := identity.NewTokenProvider(appCfg.AuthSecret)
	if err != nil {
		return err
	}

	gallery, err := messaging.LoadGalleryFile(appCfg.GalleryPath)
	if err != nil {
		return err
	}

	gateway := rls.New(pool)
	errHandler := handler.ErrorHandler(log)

	patientSvc := patients.NewService(patients.NewRepository(gateway))
	appointmentSvc := appointments.NewService(appointments.NewRepository(gateway))
	messagingSvc := messaging.NewService(messaging.NewRepository(gateway), gallery)
	settingsSvc := settings.NewService(settings.NewRepository(gateway))

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(middleware.RealIP)
	r.Use(ratelimiter.Middleware(limiter, ratelimiter.RemoteAddrKey, log))

	r.Get("/healthz", httpserver.HealthCheckHandler(ctx, log))
	r.Get("/readyz", httpserver.HealthCheckHandler(ctx, log, probes...))

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(identity.Middleware(provider, errHandler))
		api.Use(tenant.Bind(errHandler))

		api.Mount("/patients", patients.Router(patientSvc, log.With(logger.Component("patients"))))
		api.Mount("/appointments", appointments.Router(appointmentSvc, log.With(logger.Component("appointments"))))
		api.Mount("/messages", messaging.Router(messagingSvc, log.With(logger.Component("messaging"))))
		api.Mount("/settings", settings.Router(settingsSvc, log.With(logger.Component("settings"))))
	})

	var srvCfg httpserver.Config
	config.MustLoad(&srvCfg)

	return httpserver.New(srvCfg, log).Run(ctx, r)
}
