package web

import (
	"errors"
	"strconv"
	"sync"

	"net/http"
	"net/http/pprof"
	rpprof "runtime/pprof"

	"phishcheck/features/dataset"
	"phishcheck/features/web/middlewares"
	"phishcheck/internal/collector"
	"phishcheck/internal/config"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
	"github.com/unrolled/secure"
	"github.com/ziflex/lecho/v3"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
)

var (
	ErrApplicationNotInitialized = errors.New("application not initialized")
	ErrServiceInitFailed         = errors.New("services initialization failed")
	ErrRoutesMapFailed           = errors.New("routes configuration failed")
	ErrMetricCollectorFailed     = errors.New("metric collector configuration failed")
)

var (
	onceApplication sync.Once
	application     *Application
)

// Application holds the echo instance and the services behind it.
type Application struct {
	Echo     *echo.Echo
	config   *config.Config
	logger   *lecho.Logger
	services *Services
}

func (app *Application) Services() *Services {
	return app.services
}

func GetApplication() (*Application, error) {
	if application == nil {
		return nil, ErrApplicationNotInitialized
	}
	return application, nil
}

// NewApplication builds the process-wide echo server. Prometheus
// collectors register globally, so it is created once per process.
func NewApplication(cfg *config.Config, store *dataset.Store) (*Application, error) {
	var initErr error
	onceApplication.Do(func() {
		e := echo.New()
		e.HideBanner = true
		e.Server.Addr = ":" + strconv.Itoa(cfg.Server.Port)
		e.Server.ReadTimeout = cfg.Server.ReadTimeout
		e.Server.WriteTimeout = cfg.Server.WriteTimeout
		log.Info().Str("address", e.Server.Addr).Msg("Server address")

		app := &Application{
			Echo:   e,
			config: cfg,
		}

		app.configureLogger()

		if err := app.configureMetricCollector(); err != nil {
			log.Err(err).Msg("Metric collector configuration error")
			initErr = errors.Join(ErrMetricCollectorFailed, err)
			return
		}

		svcs, err := NewServices(store)
		if err != nil {
			log.Err(err).Msg("Service initialization error")
			initErr = errors.Join(ErrServiceInitFailed, err)
			return
		}
		app.services = svcs

		app.configureMiddleware()

		if mapErr := ConfigureRoutes(e, svcs, cfg.Server); mapErr != nil {
			log.Err(mapErr).Msg("Routes configuration error")
			initErr = errors.Join(ErrRoutesMapFailed, mapErr)
			return
		}

		if cfg.Server.Pprof {
			app.ConfigurePprof()
		}

		application = app
	})

	return application, initErr
}

func (app *Application) configureMetricCollector() error {
	collector.NewMetricsCollector()

	mc, err := collector.GetMetricsCollector()
	if err != nil {
		log.Err(err).Msg("Failed to get metrics collector")
		return err
	}

	mc.ExposeWebMetrics(app.Echo)

	// Served from the default registry, which the otel prometheus
	// exporter also writes to.
	app.Echo.GET("/otel-metrics", echo.WrapHandler(promhttp.Handler()))
	log.Info().Msg("OpenTelemetry metrics endpoint configured at /otel-metrics")

	return nil
}

func (app *Application) configureMiddleware() {
	e := app.Echo

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string {
			return xid.New().String()
		},
	}))

	e.Use(otelecho.Middleware(app.config.Telemetry.ServiceName))

	e.Use(echoprometheus.NewMiddleware("echo"))

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		BrowserXssFilter:   true,
		ContentTypeNosniff: true,
		IsDevelopment:      config.IsDevMode(),
	})
	e.Use(echo.WrapMiddleware(secureMiddleware.Handler))

	e.Use(lecho.Middleware(lecho.Config{Logger: app.logger}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: app.config.Server.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderXRequestedWith,
		},
	}))

	e.Use(middlewares.RequestLogger())
	e.Pre(middleware.RemoveTrailingSlash())

	middlewares.ConfigureValidator(e)
}

func (app *Application) configureLogger() {
	lechoLogger := lecho.From(log.Logger, lecho.WithTimestamp())
	app.Echo.Logger = lechoLogger
	app.logger = lechoLogger
}

func (app *Application) ConfigurePprof() {
	pprofGroup := app.Echo.Group("/debug/pprof")

	pprofGroup.GET("", echo.WrapHandler(http.HandlerFunc(pprof.Index)))
	pprofGroup.GET("/", echo.WrapHandler(http.HandlerFunc(pprof.Index)))

	pprofGroup.GET("/cmdline", echo.WrapHandler(http.HandlerFunc(pprof.Cmdline)))
	pprofGroup.GET("/profile", echo.WrapHandler(http.HandlerFunc(pprof.Profile)))
	pprofGroup.GET("/symbol", echo.WrapHandler(http.HandlerFunc(pprof.Symbol)))
	pprofGroup.GET("/trace", echo.WrapHandler(http.HandlerFunc(pprof.Trace)))

	for _, profile := range rpprof.Profiles() {
		name := profile.Name()
		pprofGroup.GET("/"+name, echo.WrapHandler(pprof.Handler(name)))
	}
}
