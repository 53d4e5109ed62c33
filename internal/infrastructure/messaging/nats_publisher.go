package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/boxmatch/boxmatch-hub/internal/domain/shared"
	"github.com/boxmatch/boxmatch-hub/pkg/logger"
)

// NATSConfig configures the NATS publisher.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
}

// DefaultNATSConfig returns sensible defaults.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		SubjectPrefix: "boxmatch.events",
		Name:          "boxmatch-hub",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// msgPublisher is the part of *nats.Conn the publisher needs.
type msgPublisher interface {
	PublishMsg(m *nats.Msg) error
	Close()
}

// NATSPublisher publishes events as JSON on "<prefix>.<event type>".
type NATSPublisher struct {
	conn   msgPublisher
	prefix string
	log    *logger.Logger
}

// NewNATSPublisher connects to NATS.
func NewNATSPublisher(cfg NATSConfig, log *logger.Logger) (*NATSPublisher, error) {
	if log == nil {
		log = logger.Default()
	}
	log = log.Named("nats")

	nc, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("NATS disconnected", logger.Err(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected", logger.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return newNATSPublisher(nc, cfg.SubjectPrefix, log), nil
}

func newNATSPublisher(conn msgPublisher, prefix string, log *logger.Logger) *NATSPublisher {
	return &NATSPublisher{conn: conn, prefix: prefix, log: log}
}

// Subject returns the subject an event type is published on.
func (p *NATSPublisher) Subject(t shared.EventType) string {
	if p.prefix == "" {
		return string(t)
	}
	return p.prefix + "." + string(t)
}

// Publish implements shared.EventPublisher.
func (p *NATSPublisher) Publish(ctx context.Context, event shared.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	msg := &nats.Msg{
		Subject: p.Subject(event.Type),
		Data:    data,
		Header: nats.Header{
			"Event-Type":   []string{string(event.Type)},
			"Aggregate-ID": []string{event.AggregateID},
		},
	}
	if event.CorrelationID != "" {
		msg.Header.Set("Correlation-ID", event.CorrelationID)
	}

	if err := p.conn.PublishMsg(msg); err != nil {
		if errors.Is(err, nats.ErrConnectionClosed) {
			return fmt.Errorf("publish to NATS: connection closed: %w", err)
		}
		return fmt.Errorf("publish to NATS: %w", err)
	}

	p.log.Debug("published event", logger.String("subject", msg.Subject), logger.String("aggregate_id", event.AggregateID))
	return nil
}

// Close closes the connection.
func (p *NATSPublisher) Close() error {
	p.conn.Close()
	return nil
}
