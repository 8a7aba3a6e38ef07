// Package reporting publishes one BatchReport per completed batch to NATS
// JetStream, adapted from internal/nats/publisher.go: same connect options,
// same create-or-update-stream call, retargeted from per-event publishing
// (one message per on-chain event, deduplicated by tx hash and log index)
// to one fire-and-forget message per finished batch.
package reporting

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"github.com/0xkanth/evmload/pkg/models"
)

const (
	streamName           = "EVMLOAD"
	streamSubjectPattern = "EVMLOAD.*"
	streamCreateTimeout  = 10 * time.Second
)

// Publisher publishes BatchReports to NATS JetStream.
type Publisher struct {
	js     jetstream.JetStream
	nc     *nats.Conn
	logger *zerolog.Logger
}

// NewPublisher connects to natsURL and ensures the EVMLOAD stream exists.
func NewPublisher(natsURL string, logger *zerolog.Logger) (*Publisher, error) {
	nc, err := nats.Connect(natsURL,
		nats.Name("evmload"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Error().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info().Msg("nats reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), streamCreateTimeout)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{streamSubjectPattern},
		MaxAge:    24 * time.Hour,
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	logger.Info().Str("stream", streamName).Msg("batch report publisher initialized")

	return &Publisher{js: js, nc: nc, logger: logger}, nil
}

// PublishReport sends one BatchReport to subject EVMLOAD.<mode>. The dedup
// ID is derived from the report's mode and FinishedAt, so publishing the
// same report twice lands only once.
func (p *Publisher) PublishReport(ctx context.Context, report models.BatchReport) error {
	subject := fmt.Sprintf("%s.%s", streamName, report.Mode)

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal batch report: %w", err)
	}

	msgID := fmt.Sprintf("%s-%d", report.Mode, report.FinishedAt.UnixNano())

	if _, err := p.js.Publish(ctx, subject, data, jetstream.WithMsgID(msgID)); err != nil {
		p.logger.Error().Err(err).Str("subject", subject).Msg("failed to publish batch report")
		return fmt.Errorf("failed to publish to NATS: %w", err)
	}

	p.logger.Debug().Str("subject", subject).Uint32("successes", report.Successes).Msg("batch report published")
	return nil
}

// Healthy reports whether the NATS connection is currently connected.
func (p *Publisher) Healthy() bool {
	return p.nc != nil && p.nc.IsConnected()
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Close()
		p.logger.Info().Msg("batch report publisher closed")
	}
}
