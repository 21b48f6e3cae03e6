// Package http serves the account API over echo.
package http

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"rachel/config"
	"rachel/internal/delivery"
	httpmiddleware "rachel/internal/delivery/http/middleware"
	"rachel/internal/delivery/http/router"
	"rachel/internal/delivery/http/validator"
	"rachel/internal/delivery/middleware"
	"rachel/internal/domain/lifecycle"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	slogecho "github.com/samber/slog-echo"
	"go.uber.org/fx"
)

// ServerParams holds dependencies for HTTP server, injected by Fx.
type ServerParams struct {
	fx.In

	Lc              fx.Lifecycle
	Cfg             *config.Config
	Logger          *slog.Logger
	ErrorMiddleware *httpmiddleware.ErrorMiddleware
	RouterParams    router.RouterParams
}

type httpServer struct {
	cfg    *config.Config
	logger *slog.Logger
	server *echo.Echo
}

// NewServer builds the echo server and registers its shutdown hook.
func NewServer(params ServerParams) (delivery.Delivery, error) {
	echoServer, err := NewEcho(params.Cfg, params.Logger, params.ErrorMiddleware)
	if err != nil {
		return nil, err
	}

	router.NewRouter(params.RouterParams).RegisterRoutes(echoServer)

	srv := &httpServer{
		cfg:    params.Cfg,
		logger: params.Logger,
		server: echoServer,
	}

	params.Lc.Append(fx.Hook{
		OnStop: srv.stop,
	})

	return srv, nil
}

// NewEcho creates the echo instance with the middleware chain, without any routes.
func NewEcho(cfg *config.Config, logger *slog.Logger, errorMiddleware *httpmiddleware.ErrorMiddleware) (*echo.Echo, error) {
	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.Server.ReadTimeout = cfg.HTTP.Timeouts.ReadTimeout
	echoServer.Server.ReadHeaderTimeout = cfg.HTTP.Timeouts.ReadHeaderTimeout
	echoServer.Server.WriteTimeout = cfg.HTTP.Timeouts.WriteTimeout
	echoServer.Server.IdleTimeout = cfg.HTTP.Timeouts.IdleTimeout

	extractor, err := ipExtractor(cfg.HTTP.TrustedProxies)
	if err != nil {
		return nil, err
	}
	echoServer.IPExtractor = extractor

	// Order matters: the request ID and source address must be set before anything logs.
	echoServer.Use(echomiddleware.Recover())
	echoServer.Use(middleware.NewRequestIDMiddleware(logger).Process)
	echoServer.Use(middleware.NewSourceAddressMiddleware().Process)
	echoServer.Use(slogecho.NewWithConfig(logger, slogecho.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
		WithRequestID:    true,
		Filters:          []slogecho.Filter{slogecho.IgnorePath(cfg.Metrics.Path, router.HealthPath)},
	}))
	echoServer.Use(echomiddleware.CORS())
	echoServer.Use(echomiddleware.BodyLimit(cfg.HTTP.MaxRequestBodySize))

	echoServer.HTTPErrorHandler = errorMiddleware.HandleHTTPError
	echoServer.Validator = validator.New()

	return echoServer, nil
}

// ipExtractor trusts X-Forwarded-For only from the configured proxy ranges.
// Without trusted proxies the peer address is used as is.
func ipExtractor(trustedProxies []string) (echo.IPExtractor, error) {
	if len(trustedProxies) == 0 {
		return echo.ExtractIPDirect(), nil
	}

	options := []echo.TrustOption{
		echo.TrustLoopback(false),
		echo.TrustLinkLocal(false),
		echo.TrustPrivateNet(false),
	}
	for _, cidr := range trustedProxies {
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid trusted proxy range %q", cidr)
		}
		options = append(options, echo.TrustIPRange(ipNet))
	}

	return echo.ExtractIPFromXFFHeader(options...), nil
}

func (s *httpServer) Serve(_ context.Context) error {
	hostPort := net.JoinHostPort("0.0.0.0", strconv.Itoa(s.cfg.HTTP.Port))
	s.logger.Info("Starting HTTP server", slog.String("host_port", hostPort))
	if err := s.server.Start(hostPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "failed to serve http")
	}

	return nil
}

func (s *httpServer) stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()

	s.logger.Info("Shutting down HTTP server")

	return errors.WithStack(s.server.Shutdown(shutdownCtx))
}
