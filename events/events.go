// Package events announces article and project changes on NATS so that
// page renderers can revalidate their caches.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"portfolio-service/logger"
	"portfolio-service/metrics"
)

const (
	KindArticle = "article"
	KindProject = "project"

	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"

	source  = "portfolio-service"
	version = "1.0"
)

// ContentEvent is the structure sent to NATS
type ContentEvent struct {
	Kind      string    `json:"kind"`
	Action    string    `json:"action"`
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
}

type Publisher interface {
	Publish(ctx context.Context, ev ContentEvent) error
	Close()
}

// Subject builds "<prefix>.<kind>s.<action>", e.g. portfolio.articles.updated.
func Subject(prefix, kind, action string) string {
	return fmt.Sprintf("%s.%ss.%s", prefix, kind, action)
}

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	Publish(subj string, data []byte) error
	Close()
}

// NATSPublisher handles publishing content events to NATS
type NATSPublisher struct {
	conn   conn
	prefix string
	log    logger.Logger
	now    func() time.Time
}

func NewNATSPublisher(url, prefix string, log logger.Logger) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name(source),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	return newNATSPublisher(nc, prefix, log), nil
}

func newNATSPublisher(c conn, prefix string, log logger.Logger) *NATSPublisher {
	return &NATSPublisher{
		conn:   c,
		prefix: prefix,
		log:    log,
		now:    time.Now,
	}
}

func (p *NATSPublisher) Publish(_ context.Context, ev ContentEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = p.now().UTC()
	}
	ev.Source = source
	ev.Version = version

	subject := Subject(p.prefix, ev.Kind, ev.Action)

	data, err := json.Marshal(ev)
	if err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(subject, "error").Inc()
		return fmt.Errorf("failed to encode %s event: %w", subject, err)
	}

	if err := p.conn.Publish(subject, data); err != nil {
		metrics.EventsPublishedTotal.WithLabelValues(subject, "error").Inc()
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}

	metrics.EventsPublishedTotal.WithLabelValues(subject, "success").Inc()
	p.log.Debug("Published %s for %s", subject, ev.Slug)
	return nil
}

func (p *NATSPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}

// Nop is used when no NATS server is configured.
type Nop struct{}

func (Nop) Publish(context.Context, ContentEvent) error { return nil }

func (Nop) Close() {}
