package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"ledger/config"
	"ledger/internal/api"
	"ledger/internal/repo"
	"ledger/internal/service"
	"ledger/internal/utils"
	"ledger/pkg/interceptor"
)

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Start the ledger HTTP server",
		Run: func(cmd *cobra.Command, args []string) {
			app := fx.New(
				fx.Provide(
					config.LoadConfig,
					NewLogger,
					repo.NewPostgresDB,
					repo.NewPostgresAccountStore,
					repo.NewPostgresUserRepo,
					repo.NewRedisClient,
					repo.NewKafkaWriter,
					utils.NewTokenManager,
					service.NewTransferService,
					service.NewAuthService,
					service.NewUserService,
					interceptor.NewAuthInterceptor,
					api.NewHandler,
					api.NewRouter,
					NewHTTPServer,
				),
				fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
					return &fxevent.ZapLogger{Logger: logger}
				}),
				fx.Invoke(RegisterHTTPLifecycle),
			)
			app.Run()
		},
	}
}

func NewLogger() (*zap.Logger, error) {
	return zap.NewProduction()
}
