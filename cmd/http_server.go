package cmd

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"ledger/config"
)

type HTTPServer struct {
	srv    *http.Server
	logger *zap.Logger
}

func NewHTTPServer(router *gin.Engine, cfg *config.Config, logger *zap.Logger) *HTTPServer {
	return &HTTPServer{
		srv: &http.Server{
			Addr:    cfg.Server.HTTPAddr,
			Handler: router,
		},
		logger: logger,
	}
}

func RegisterHTTPLifecycle(lc fx.Lifecycle, s *HTTPServer) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				s.logger.Info("http server listening", zap.String("addr", s.srv.Addr))
				if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.logger.Error("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.logger.Info("stopping http server")
			return s.srv.Shutdown(ctx)
		},
	})
}
