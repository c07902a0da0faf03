package events

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/safar/marketplace-orders/internal/models"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes OrderPlaced events from a background loop so request
// goroutines never wait on the broker.
type Producer struct {
	w       messageWriter
	inbox   chan kafka.Message
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
	service string
	log     zerolog.Logger
}

func NewProducer(brokers []string, topic string, buf int, service string, logger zerolog.Logger) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return newProducer(w, buf, service, logger)
}

func newProducer(w messageWriter, buf int, service string, logger zerolog.Logger) *Producer {
	return &Producer{
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		done:    make(chan struct{}),
		service: service,
		log:     logger.With().Str("component", "events").Logger(),
	}
}

// Start drains the inbox until Close is called.
func (p *Producer) Start() {
	go func() {
		defer close(p.done)
		for m := range p.inbox {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := p.w.WriteMessages(ctx, m); err != nil {
				p.log.Error().Err(err).Str("key", string(m.Key)).Msg("publish event failed")
			}
			cancel()
		}
		if err := p.w.Close(); err != nil {
			p.log.Error().Err(err).Msg("close kafka writer")
		}
	}()
}

// OrderPlaced enqueues the event. A full inbox drops it with a warning.
func (p *Producer) OrderPlaced(ctx context.Context, order *models.Order) {
	env, err := NewOrderPlaced(p.service, order, time.Now())
	if err != nil {
		p.log.Error().Err(err).Str("order_id", order.ID).Msg("build event")
		return
	}
	value, err := json.Marshal(env)
	if err != nil {
		p.log.Error().Err(err).Str("order_id", order.ID).Msg("encode event")
		return
	}

	msg := kafka.Message{
		Key:   []byte(order.ID),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(env.EventType)},
			{Key: "x-event-version", Value: []byte(strconv.Itoa(env.EventVersion))},
		},
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.log.Warn().Str("order_id", order.ID).Msg("producer closed, dropping OrderPlaced")
		return
	}

	select {
	case p.inbox <- msg:
	default:
		p.log.Warn().Str("order_id", order.ID).Msg("event inbox full, dropping OrderPlaced")
	}
}

// Close flushes queued events and waits for the writer to close. Events
// offered after Close are dropped.
func (p *Producer) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
	p.mu.Unlock()
	<-p.done
}
