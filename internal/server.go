package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/multierr"

	"github.com/2beens/fittrack/internal/apierr"
	"github.com/2beens/fittrack/internal/auth"
	"github.com/2beens/fittrack/internal/config"
	"github.com/2beens/fittrack/internal/db"
	"github.com/2beens/fittrack/internal/goals"
	"github.com/2beens/fittrack/internal/health"
	"github.com/2beens/fittrack/internal/middleware"
	"github.com/2beens/fittrack/internal/profile"
	"github.com/2beens/fittrack/internal/telemetry/metrics"
	"github.com/2beens/fittrack/internal/telemetry/tracing"
	"github.com/2beens/fittrack/internal/workouts"
	"github.com/2beens/fittrack/pkg"
)

const shutdownTimeout = 15 * time.Second

type Server struct {
	httpServer  *http.Server
	config      *config.Config
	versionInfo string
	startedAt   time.Time

	dbPool      *pgxpool.Pool
	redisClient *redis.Client

	goalsRepo      goals.Repo
	workoutsRepo   workouts.Repo
	profileService *profile.Service
	tokenChecker   auth.Checker

	// telemetry
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
	sentryFlush    func()
}

type NewServerParams struct {
	Config      *config.Config
	Secrets     *config.Secrets
	VersionInfo string
	// SentryFlush is called last on shutdown, can be nil.
	SentryFlush func()
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (_ *Server, err error) {
	cfg := params.Config
	secrets := params.Secrets
	if secrets == nil {
		secrets = &config.Secrets{}
	}

	s := &Server{
		config:      cfg,
		versionInfo: params.VersionInfo,
		startedAt:   time.Now(),
		sentryFlush: params.SentryFlush,
	}
	defer func() {
		if err != nil {
			if closeErr := s.closeResources(); closeErr != nil {
				log.Errorf("release resources after failed start: %s", closeErr)
			}
		}
	}()

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(secrets.HoneycombEnabled, secrets.OtelServiceName)
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}
	s.otelShutdown = otelShutdown

	var pgxpoolCollector prometheus.Collector
	switch cfg.Storage {
	case config.StoragePostgres:
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBUser:         cfg.PostgresUser,
			DBPassword:     secrets.PostgresPassword,
			TracingEnabled: secrets.HoneycombEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("new db pool: %w", err)
		}
		s.dbPool = dbPool

		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}
		if cfg.RunMigrations {
			if err := db.Migrate(ctx, dbPool); err != nil {
				return nil, err
			}
		}

		pgxpoolCollector = pgxpoolprometheus.NewCollector(
			dbPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		)
		s.goalsRepo = goals.NewPsqlRepo(dbPool)
		s.workoutsRepo = workouts.NewPsqlRepo(dbPool)
		s.profileService = profile.NewService(profile.NewPsqlRepo(dbPool), cfg.ProfileCacheTTL.Duration)
	default:
		log.Infof("using in-memory storage, data is lost on restart")
		s.goalsRepo = goals.NewMemoryRepo()
		s.workoutsRepo = workouts.NewMemoryRepo()
		s.profileService = profile.NewService(profile.NewMemoryRepo(), cfg.ProfileCacheTTL.Duration)
	}

	s.promRegistry = metrics.SetupPrometheus(pgxpoolCollector)
	s.metricsManager = metrics.NewManager("fittrack", "api", s.promRegistry)
	s.metricsManager.GaugeLifeSignal.Set(0)

	if cfg.RedisEnabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
			Password: secrets.RedisPassword,
			DB:       0, // use default DB
		})
		rdb.AddHook(redisotel.NewTracingHook())

		rdbStatus := rdb.Ping(ctx)
		if err := rdbStatus.Err(); err != nil {
			log.Errorf("--> failed to ping redis: %s", err)
		} else {
			log.Debugf("redis ping: %s", rdbStatus.Val())
		}
		s.redisClient = rdb
	} else {
		log.Warnln("redis not configured, rate limiting and token revocation disabled")
	}

	s.tokenChecker, err = s.newTokenChecker(secrets.JWTSecret)
	if err != nil {
		return nil, err
	}

	for _, userID := range seedUserIDs(cfg) {
		if err = s.profileService.Seed(ctx, userID); err != nil {
			return nil, err
		}
		log.Debugf("seeded profile for [%s]", userID)
	}

	return s, nil
}

func (s *Server) newTokenChecker(jwtSecret string) (auth.Checker, error) {
	if jwtSecret != "" {
		var revoker auth.Revoker
		if s.redisClient != nil {
			revoker = auth.NewRedisRevoker(s.redisClient)
		}
		return auth.NewTokenVerifier(jwtSecret, s.config.Auth.Issuer, revoker), nil
	}
	if s.config.Auth.AllowQueryUserID {
		log.Warnln("FITTRACK_JWT_SECRET not set, bearer tokens will be rejected and identity taken from the userId query param")
		return &auth.StaticChecker{}, nil
	}
	return nil, errors.New("FITTRACK_JWT_SECRET not set and query user ids are not allowed")
}

func seedUserIDs(cfg *config.Config) []string {
	var ids []string
	for _, id := range []string{cfg.SeedUserID, cfg.Auth.DefaultUserID} {
		if id == "" || (len(ids) > 0 && ids[0] == id) {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("fittrack-router"))

	errWriter := apierr.Writer{Verbose: s.config.VerboseErrors}

	healthHandler := health.NewHandler(health.HandlerParams{
		Version:      s.versionInfo,
		Storage:      s.config.Storage,
		StartedAt:    s.startedAt,
		Dependencies: s.healthDependencies(),
	})
	r.HandleFunc("/health", healthHandler.HandleHealth).Methods("GET").Name("health")
	r.HandleFunc("/health/detailed", healthHandler.HandleDetailed).Methods("GET").Name("health-detailed")
	r.HandleFunc("/ready", healthHandler.HandleReady).Methods("GET").Name("ready")
	r.HandleFunc("/live", healthHandler.HandleLive).Methods("GET").Name("live")
	r.Handle("/metrics", promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{})).Methods("GET").Name("metrics")

	api := r.PathPrefix("/api").Subrouter()

	goalsHandler := goals.NewHandler(
		goals.NewService(s.goalsRepo, s.metricsManager),
		errWriter,
		s.metricsManager,
		s.config.ListLatency.Duration,
	)
	api.HandleFunc("/goals", goalsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-goals")
	api.HandleFunc("/goals", goalsHandler.HandleCreate).Methods("POST", "OPTIONS").Name("new-goal")
	api.HandleFunc("/goals/{id}", goalsHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-goal")
	api.HandleFunc("/goals/{id}", goalsHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-goal")
	api.HandleFunc("/goals/{id}/progress", goalsHandler.HandleUpdateProgress).Methods("PATCH", "OPTIONS").Name("update-goal-progress")
	api.HandleFunc("/goals/{id}", goalsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("remove-goal")

	workoutsHandler := workouts.NewHandler(
		workouts.NewService(s.workoutsRepo, s.metricsManager),
		errWriter,
		s.metricsManager,
		s.config.ListLatency.Duration,
	)
	api.HandleFunc("/workouts", workoutsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-workouts")
	api.HandleFunc("/workouts", workoutsHandler.HandleCreate).Methods("POST", "OPTIONS").Name("new-workout")
	api.HandleFunc("/workouts/{id}", workoutsHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-workout")
	api.HandleFunc("/workouts/{id}", workoutsHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-workout")
	api.HandleFunc("/workouts/{id}", workoutsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("remove-workout")

	profileHandler := profile.NewHandler(s.profileService, errWriter, s.metricsManager)
	api.HandleFunc("/profile/{userId}", profileHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-profile")
	api.HandleFunc("/profile/{userId}", profileHandler.HandleReplace).Methods("PUT", "OPTIONS").Name("replace-profile")
	api.HandleFunc("/profile/{userId}/preferences", profileHandler.HandleUpdatePreferences).Methods("PATCH", "OPTIONS").Name("update-preferences")
	api.HandleFunc("/profile/{userId}/stats", profileHandler.HandleUpdateStats).Methods("PATCH", "OPTIONS").Name("update-stats")

	if s.redisClient != nil && s.config.RateLimitPerMin > 0 {
		reqRateLimiter := redis_rate.NewLimiter(s.redisClient)
		api.Use(middleware.RateLimit(reqRateLimiter, "api", s.config.RateLimitPerMin, s.metricsManager))
	}

	// all the rest - unhandled paths and methods
	// mux skips the router middleware for these, so they set the security headers themselves
	r.NotFoundHandler = middleware.SecurityHeaders()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		pkg.WriteJSON(w, http.StatusNotFound, apierr.ErrorResponse{Error: "not found"})
	}))
	methodNotAllowed := middleware.SecurityHeaders()(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		pkg.WriteJSON(w, http.StatusMethodNotAllowed, apierr.ErrorResponse{Error: "method not allowed"})
	}))
	r.MethodNotAllowedHandler = methodNotAllowed
	api.MethodNotAllowedHandler = methodNotAllowed

	authMiddleware := middleware.NewAuthMiddlewareHandler(
		s.tokenChecker,
		middleware.AuthMiddlewareParams{
			AllowQueryUserID: s.config.Auth.AllowQueryUserID,
			DefaultUserID:    s.config.Auth.DefaultUserID,
			ErrWriter:        errWriter,
		},
	)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.Cors(s.config.CorsAllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest(s.config.MaxBodyBytes))

	return r
}

func (s *Server) healthDependencies() map[string]health.Pinger {
	deps := map[string]health.Pinger{}
	if s.dbPool != nil {
		deps["postgres"] = health.PoolPinger(s.dbPool)
	}
	if s.redisClient != nil {
		deps["redis"] = health.RedisPinger(s.redisClient)
	}
	return deps
}

// Serve starts the HTTP server in the background and returns.
func (s *Server) Serve(host string, port int) {
	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      s.routerSetup(),
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() error {
	log.Debug("graceful shutdown initiated ...")
	s.metricsManager.GaugeLifeSignal.Set(0)

	var err error
	if s.httpServer != nil {
		ctx, timeoutCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer timeoutCancel()
		if shutdownErr := s.httpServer.Shutdown(ctx); shutdownErr != nil {
			err = multierr.Append(err, fmt.Errorf("shutdown http server: %w", shutdownErr))
		} else {
			log.Warnln("server shut down")
		}
	}

	err = multierr.Append(err, s.closeResources())

	if s.sentryFlush != nil {
		s.sentryFlush()
	}

	return err
}

func (s *Server) closeResources() error {
	var err error
	if s.redisClient != nil {
		if closeErr := s.redisClient.Close(); closeErr != nil {
			err = multierr.Append(err, fmt.Errorf("close redis client: %w", closeErr))
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if s.otelShutdown != nil {
		s.otelShutdown()
		log.Trace("otel shut down ...")
	}

	return err
}
