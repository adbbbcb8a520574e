package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"ledger/config"
	"ledger/internal/repo"
)

// NewConsumerCommand starts the bridge that drains committed transfer
// events from Kafka into Cloud Pub/Sub.
func NewConsumerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "consumer",
		Short: "Start the Kafka to Pub/Sub event bridge",
		Run: func(cmd *cobra.Command, args []string) {
			app := fx.New(
				fx.Provide(
					config.LoadConfig,
					NewLogger,
					repo.NewPubSubClient,
					repo.NewKafkaConsumer,
				),
				fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
					return &fxevent.ZapLogger{Logger: logger}
				}),
				fx.Invoke(RegisterConsumerLifecycle),
			)
			app.Run()
		},
	}
}

// NewPubSubConsumerCommand starts the downstream worker that pulls
// transfer events from the Pub/Sub subscription and acknowledges them.
func NewPubSubConsumerCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pubsub-consumer",
		Short: "Start the Pub/Sub transfer event consumer",
		Run: func(cmd *cobra.Command, args []string) {
			app := fx.New(
				fx.Provide(
					config.LoadConfig,
					NewLogger,
					repo.NewPubSubClient,
				),
				fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
					return &fxevent.ZapLogger{Logger: logger}
				}),
				fx.Invoke(RegisterPubSubConsumerLifecycle),
			)
			app.Run()
		},
	}
}

func RegisterPubSubConsumerLifecycle(lc fx.Lifecycle, ps repo.PubSubInterface, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := ps.Subscribe(ctx); err != nil && ctx.Err() == nil {
					logger.Error("pubsub consumer stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			logger.Info("stopping pubsub consumer")
			cancel()
			return nil
		},
	})
}

func RegisterConsumerLifecycle(lc fx.Lifecycle, c *repo.KafkaConsumer, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := c.Consume(ctx); err != nil && ctx.Err() == nil {
					logger.Error("consumer stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			logger.Info("stopping consumer")
			cancel()
			return c.Close()
		},
	})
}
