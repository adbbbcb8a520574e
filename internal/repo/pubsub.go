package repo

import (
	"context"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/apiv1"
	pubsubpb "cloud.google.com/go/pubsub/apiv1/pubsubpb"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"ledger/config"
)

type PubSubInterface interface {
	Subscribe(ctx context.Context) error
	Publish(data []byte) error
}

type PubSub struct {
	pubClient *pubsub.PublisherClient
	subClient *pubsub.SubscriberClient
	config    *config.Config
	logger    *zap.SugaredLogger
}

func NewPubSubClient(cfg *config.Config, logger *zap.Logger) (PubSubInterface, error) {
	ctx := context.Background()

	opts := []option.ClientOption{
		option.WithEndpoint(cfg.PubSub.Endpoint),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	}

	pubClient, err := pubsub.NewPublisherClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub publisher client: %w", err)
	}

	subClient, err := pubsub.NewSubscriberClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub subscriber client: %w", err)
	}

	return &PubSub{
		pubClient: pubClient,
		subClient: subClient,
		config:    cfg,
		logger:    logger.Sugar(),
	}, nil
}

func (p *PubSub) Publish(data []byte) error {
	topicPath := fmt.Sprintf("projects/%s/topics/%s",
		p.config.PubSub.ProjectID, p.config.PubSub.Topic)

	var lastErr error
	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		resp, err := p.pubClient.Publish(ctx, &pubsubpb.PublishRequest{
			Topic:    topicPath,
			Messages: []*pubsubpb.PubsubMessage{{Data: data}},
		})
		cancel()
		if err == nil {
			p.logger.Infow("published to pubsub", "message_ids", resp.MessageIds)
			return nil
		}
		lastErr = err
		p.logger.Warnw("pubsub publish attempt failed", "attempt", i+1, "error", err)
	}
	return fmt.Errorf("publish after retries: %w", lastErr)
}

func (p *PubSub) Subscribe(ctx context.Context) error {
	subPath := fmt.Sprintf("projects/%s/subscriptions/%s",
		p.config.PubSub.ProjectID, p.config.PubSub.Subscription)

	p.logger.Info("pubsub consumer started")
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, err := p.subClient.Pull(ctx, &pubsubpb.PullRequest{
			Subscription: subPath,
			MaxMessages:  10,
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Warnw("pubsub pull", "error", err)
			time.Sleep(time.Second)
			continue
		}
		if resp == nil || len(resp.ReceivedMessages) == 0 {
			continue
		}

		ackIDs := make([]string, 0, len(resp.ReceivedMessages))
		for _, m := range resp.ReceivedMessages {
			p.logger.Infow("pubsub message received", "data", string(m.Message.Data))
			ackIDs = append(ackIDs, m.AckId)
		}

		if err := p.subClient.Acknowledge(ctx, &pubsubpb.AcknowledgeRequest{
			Subscription: subPath,
			AckIds:       ackIDs,
		}); err != nil {
			p.logger.Errorw("pubsub ack", "error", err)
		}
	}
}
