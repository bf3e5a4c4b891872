package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/iho/partnerledger/internal/domain"
	"github.com/iho/partnerledger/internal/infrastructure/logger"
	"github.com/iho/partnerledger/internal/usecase"
)

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ConversionHandler credits a partner for a converted lead.
type ConversionHandler interface {
	HandleLeadConverted(ctx context.Context, event domain.LeadConverted) (*usecase.AppendResult, error)
}

// LeadConsumer reads lead conversion events and hands them to the ledger.
// Offsets are committed only after the credit is stored or the message is
// known to be unprocessable, so a crash redelivers at most the current message.
type LeadConsumer struct {
	reader  MessageReader
	handler ConversionHandler
	logger  zerolog.Logger
	backoff func() backoff.BackOff
}

// NewKafkaReader builds a consumer group reader for topic.
func NewKafkaReader(brokers []string, topic, groupID string, logger zerolog.Logger) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       1 << 20,
		MaxWait:        time.Second,
		CommitInterval: 0,
		Logger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Debug().Msgf(msg, args...)
		}),
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Error().Msgf(msg, args...)
		}),
	})
}

// NewLeadConsumer creates a new LeadConsumer.
func NewLeadConsumer(reader MessageReader, handler ConversionHandler, l zerolog.Logger) *LeadConsumer {
	return &LeadConsumer{
		reader:  reader,
		handler: handler,
		logger:  l.With().Str("component", "lead_consumer").Logger(),
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 30 * time.Second
			b.MaxElapsedTime = 0
			return b
		},
	}
}

// Run consumes until ctx is cancelled or the reader fails.
func (c *LeadConsumer) Run(ctx context.Context) error {
	c.logger.Info().Msg("lead consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info().Msg("lead consumer shutting down")
				return ctx.Err()
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		if err := c.handle(ctx, msg); err != nil {
			if ctx.Err() != nil {
				c.logger.Info().Msg("lead consumer shutting down")
				return ctx.Err()
			}
			return err
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("commit offset %d: %w", msg.Offset, err)
		}
	}
}

// Close closes the underlying reader.
func (c *LeadConsumer) Close() error {
	return c.reader.Close()
}

// handle returns an error only when the message must not be committed.
func (c *LeadConsumer) handle(ctx context.Context, msg kafka.Message) error {
	l := c.logger.With().
		Int("partition", msg.Partition).
		Int64("offset", msg.Offset).
		Logger()
	ctx = logger.WithContext(ctx, l)

	var event domain.LeadConverted
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		l.Error().Err(err).Msg("dropping undecodable conversion event")
		return nil
	}
	if event.LeadID == "" {
		event.LeadID = string(msg.Key)
	}

	var result *usecase.AppendResult
	err := backoff.RetryNotify(func() error {
		var err error
		result, err = c.handler.HandleLeadConverted(ctx, event)
		if err != nil && isPermanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(c.backoff(), ctx), func(err error, wait time.Duration) {
		l.Warn().Err(err).Dur("retry_in", wait).Str("lead_id", event.LeadID).Msg("conversion failed, retrying")
	})

	switch {
	case err == nil:
		l.Info().
			Str("lead_id", event.LeadID).
			Str("transaction_id", result.Transaction.ID).
			Bool("duplicate", result.Duplicate).
			Msg("conversion credited")
		return nil
	case isPermanent(err):
		l.Error().Err(err).Str("lead_id", event.LeadID).Msg("dropping rejected conversion event")
		return nil
	default:
		return err
	}
}

// isPermanent reports whether retrying err can never succeed.
func isPermanent(err error) bool {
	return domain.IsValidation(err) ||
		errors.Is(err, domain.ErrInvalidAmount) ||
		errors.Is(err, domain.ErrCurrencyMismatch)
}
