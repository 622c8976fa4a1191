package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	appbilling "github.com/billing/backend/internal/application/billing"
	"github.com/billing/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const defaultLowStockChannel = "billing:low-stock"

// RedisLowStockNotifier publishes low-stock reports to a Redis Pub/Sub
// channel so that dashboards or alerting workers can react. Publishing runs
// after the billing commit; a failure here never fails the bill.
type RedisLowStockNotifier struct {
	client     *redis.Client
	ownsClient bool
	channel    string
	logger     *zap.Logger
}

// RedisLowStockNotifierOption is a functional option for configuring the notifier
type RedisLowStockNotifierOption func(*RedisLowStockNotifier)

// WithNotifierChannel sets the Pub/Sub channel name
func WithNotifierChannel(channel string) RedisLowStockNotifierOption {
	return func(n *RedisLowStockNotifier) {
		n.channel = channel
	}
}

// WithNotifierLogger sets the logger for the notifier
func WithNotifierLogger(logger *zap.Logger) RedisLowStockNotifierOption {
	return func(n *RedisLowStockNotifier) {
		n.logger = logger
	}
}

// NewRedisLowStockNotifier creates a notifier with its own Redis client
func NewRedisLowStockNotifier(cfg *config.RedisConfig, opts ...RedisLowStockNotifierOption) (*RedisLowStockNotifier, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	notifier := newNotifier(client, opts...)
	notifier.ownsClient = true
	return notifier, nil
}

// NewRedisLowStockNotifierFromClient creates a notifier sharing an existing client
func NewRedisLowStockNotifierFromClient(client *redis.Client, opts ...RedisLowStockNotifierOption) *RedisLowStockNotifier {
	return newNotifier(client, opts...)
}

func newNotifier(client *redis.Client, opts ...RedisLowStockNotifierOption) *RedisLowStockNotifier {
	notifier := &RedisLowStockNotifier{
		client:  client,
		channel: defaultLowStockChannel,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(notifier)
	}
	return notifier
}

// lowStockMessage is the wire format published on the channel
type lowStockMessage struct {
	Threshold  int                         `json:"threshold"`
	Products   []appbilling.LowStockProduct `json:"products"`
	OccurredAt time.Time                   `json:"occurred_at"`
}

// NotifyLowStock publishes the report as a JSON message
func (n *RedisLowStockNotifier) NotifyLowStock(ctx context.Context, report appbilling.LowStockReport) error {
	payload, err := json.Marshal(lowStockMessage{
		Threshold:  report.Threshold,
		Products:   report.Products,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal low-stock message: %w", err)
	}

	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish low-stock message: %w", err)
	}

	n.logger.Info("Low-stock report published",
		zap.String("channel", n.channel),
		zap.Int("products", len(report.Products)),
	)
	return nil
}

// Close releases the Redis client if this notifier owns it
func (n *RedisLowStockNotifier) Close() error {
	if n.ownsClient {
		return n.client.Close()
	}
	return nil
}

var _ appbilling.LowStockNotifier = (*RedisLowStockNotifier)(nil)
