// Metacat - Metadata Catalog Service
// Copyright 2026 Datalodge
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/datalodge/metacat

package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/datalodge/metacat/internal/config"
	"github.com/datalodge/metacat/internal/logging"
)

// Bus is the item change feed seen by the API layer.
type Bus interface {
	PublishItem(ctx context.Context, record *ItemRecord) error
	Healthy() bool
	Close() error
}

// Publisher sends item change records to NATS JetStream, guarded by a
// circuit breaker so a broken bus degrades publishing instead of the API.
type Publisher struct {
	publisher message.Publisher
	conn      *natsgo.Conn
	breaker   *gobreaker.CircuitBreaker[any]
	topic     string
	logger    watermill.LoggerAdapter

	mu     sync.RWMutex
	closed bool
}

// NewPublisher connects to NATS, provisions the stream when missing and
// returns a ready publisher.
func NewPublisher(cfg config.BusConfig, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = NewLoggerAdapter()
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	conn, err := natsgo.Connect(cfg.URL, natsOpts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}
	if err := ensureStream(conn, cfg.Stream, cfg.Topic); err != nil {
		conn.Close()
		return nil, err
	}

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false,
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker[any](gobreaker.Settings{
		Name:        "item-change-feed",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.Requests >= 5 &&
				float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("change feed circuit breaker state change")
		},
	})

	return &Publisher{
		publisher: pub,
		conn:      conn,
		breaker:   breaker,
		topic:     cfg.Topic,
		logger:    logger,
	}, nil
}

// ensureStream provisions the JetStream stream holding the change feed.
func ensureStream(conn *natsgo.Conn, stream, topic string) error {
	js, err := conn.JetStream()
	if err != nil {
		return fmt.Errorf("jetstream context: %w", err)
	}
	_, err = js.StreamInfo(stream)
	if err == nil {
		return nil
	}
	if err != natsgo.ErrStreamNotFound {
		return fmt.Errorf("stream info %s: %w", stream, err)
	}

	_, err = js.AddStream(&natsgo.StreamConfig{
		Name:      stream,
		Subjects:  []string{topic},
		Retention: natsgo.LimitsPolicy,
		Storage:   natsgo.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", stream, err)
	}
	logging.Info().Str("stream", stream).Str("topic", topic).Msg("created jetstream stream")
	return nil
}

// PublishItem encodes and sends one change record. The record ID doubles as
// the NATS message ID for deduplication.
func (p *Publisher) PublishItem(ctx context.Context, record *ItemRecord) error {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return fmt.Errorf("publisher is closed")
	}
	p.mu.RUnlock()

	data, err := record.Marshal()
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)
	msg.Metadata.Set("item_id", record.ID)
	msg.Metadata.Set("container_code", record.ContainerCode)
	if msg.Metadata.Get(natsgo.MsgIdHdr) == "" {
		msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
	}

	_, err = p.breaker.Execute(func() (any, error) {
		return nil, p.publisher.Publish(p.topic, msg)
	})
	if err != nil {
		return fmt.Errorf("publish item record %s: %w", record.ID, err)
	}
	return nil
}

// Healthy reports whether the bus connection is usable.
func (p *Publisher) Healthy() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return !p.closed && p.conn.IsConnected()
}

// Close shuts the publisher down.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	err := p.publisher.Close()
	p.conn.Close()
	return err
}

// NopBus satisfies Bus when the change feed is disabled.
type NopBus struct{}

func (NopBus) PublishItem(context.Context, *ItemRecord) error { return nil }
func (NopBus) Healthy() bool                                  { return true }
func (NopBus) Close() error                                   { return nil }
