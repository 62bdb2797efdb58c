// Package queue consumes email requests from an SQS queue.
//
// Delivery is at most once: a message is deleted from the queue before it is
// handled, and a message whose delete fails is left for a later receive
// instead of being handled now. Invalid, failed and duplicate messages are
// logged and dropped, never requeued.
package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"mailtemplate/internal/metrics"
)

// SQSAPI is the part of the SQS client the consumer needs.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Config tunes the consumer.
type Config struct {
	QueueURL          string
	MaxMessages       int
	WaitTime          time.Duration
	VisibilityTimeout time.Duration

	// Concurrency bounds the messages of one batch handled at once.
	Concurrency int

	// MessageTimeout bounds the handling of one message.
	MessageTimeout time.Duration

	// DedupTTL is how long a message ID is remembered. Zero disables
	// duplicate suppression.
	DedupTTL time.Duration

	// ErrorBackoff is the pause after a failed receive.
	ErrorBackoff time.Duration
}

// BatchResult counts the outcomes of one receive.
type BatchResult struct {
	Received   int
	Handled    int
	Invalid    int
	Failed     int
	Duplicates int
	Skipped    int
}

// Consumer long-polls the queue and hands messages to a MessageHandler.
type Consumer struct {
	client  SQSAPI
	handler MessageHandler
	config  Config
	seen    *cache.Cache
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*Consumer)

func WithLogger(l *zap.Logger) ConsumerOption {
	return func(c *Consumer) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) ConsumerOption {
	return func(c *Consumer) {
		c.metrics = m
	}
}

// NewConsumer creates a consumer. Zero config values get defaults.
func NewConsumer(client SQSAPI, handler MessageHandler, cfg Config, opts ...ConsumerOption) (*Consumer, error) {
	if cfg.QueueURL == "" {
		return nil, errors.New("queue: queue URL is required")
	}
	if cfg.MaxMessages <= 0 || cfg.MaxMessages > 10 {
		cfg.MaxMessages = 10
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.MessageTimeout <= 0 {
		cfg.MessageTimeout = 30 * time.Second
	}
	if cfg.ErrorBackoff <= 0 {
		cfg.ErrorBackoff = 5 * time.Second
	}

	c := &Consumer{
		client:  client,
		handler: handler,
		config:  cfg,
		logger:  zap.NewNop(),
	}
	if cfg.DedupTTL > 0 {
		c.seen = cache.New(cfg.DedupTTL, 2*cfg.DedupTTL)
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(zap.String("queue", cfg.QueueURL))
	return c, nil
}

// Run polls until ctx is canceled. Receive errors are logged and retried
// after a pause.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Info("consumer started",
		zap.Int("concurrency", c.config.Concurrency),
		zap.Int("max_messages", c.config.MaxMessages),
	)
	defer c.logger.Info("consumer stopped")

	for {
		if ctx.Err() != nil {
			return nil
		}

		res, err := c.ProcessBatch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("receive failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(c.config.ErrorBackoff):
			}
			continue
		}

		if res.Received > 0 {
			c.logger.Info("batch processed",
				zap.Int("received", res.Received),
				zap.Int("handled", res.Handled),
				zap.Int("failed", res.Failed),
				zap.Int("invalid", res.Invalid),
				zap.Int("duplicates", res.Duplicates),
				zap.Int("skipped", res.Skipped),
			)
		}
	}
}

// ProcessBatch receives one batch and processes its messages concurrently.
// Only a failed receive is returned as an error.
func (c *Consumer) ProcessBatch(ctx context.Context) (BatchResult, error) {
	input := &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.config.QueueURL),
		MaxNumberOfMessages: int32(c.config.MaxMessages),
		WaitTimeSeconds:     int32(c.config.WaitTime / time.Second),
	}
	if c.config.VisibilityTimeout > 0 {
		input.VisibilityTimeout = int32(c.config.VisibilityTimeout / time.Second)
	}

	out, err := c.client.ReceiveMessage(ctx, input)
	if err != nil {
		return BatchResult{}, err
	}

	var (
		mu  sync.Mutex
		res = BatchResult{Received: len(out.Messages)}
	)

	var g errgroup.Group
	g.SetLimit(c.config.Concurrency)
	for _, m := range out.Messages {
		g.Go(func() error {
			outcome := c.process(ctx, m)
			c.metrics.ObserveMessage(outcome)

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case metrics.ResultOK:
				res.Handled++
			case metrics.ResultInvalid:
				res.Invalid++
			case metrics.ResultDuplicate:
				res.Duplicates++
			case metrics.ResultSkipped:
				res.Skipped++
			default:
				res.Failed++
			}
			return nil
		})
	}
	_ = g.Wait()

	return res, nil
}

// process handles one message and reports its outcome as a metrics result.
func (c *Consumer) process(ctx context.Context, m types.Message) string {
	id := aws.ToString(m.MessageId)
	log := c.logger.With(zap.String("message_id", id))

	if _, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.config.QueueURL),
		ReceiptHandle: m.ReceiptHandle,
	}); err != nil {
		log.Warn("delete failed, message left on queue", zap.Error(err))
		return metrics.ResultSkipped
	}

	if c.seen != nil && id != "" {
		if err := c.seen.Add(id, struct{}{}, cache.DefaultExpiration); err != nil {
			log.Info("duplicate message dropped")
			return metrics.ResultDuplicate
		}
	}

	msg, err := ParseMessage([]byte(aws.ToString(m.Body)))
	if err != nil {
		log.Error("invalid message dropped", zap.Error(err))
		return metrics.ResultInvalid
	}

	msgCtx, cancel := context.WithTimeout(ctx, c.config.MessageTimeout)
	defer cancel()

	if err := c.handler.Handle(msgCtx, msg); err != nil {
		log.Error("message failed",
			zap.String("template", msg.TemplateName),
			zap.String("language", msg.Language),
			zap.String("recipient", msg.RecipientEmail),
			zap.Error(err),
		)
		return metrics.ResultError
	}
	return metrics.ResultOK
}
