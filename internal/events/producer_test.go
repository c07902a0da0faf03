package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/safar/marketplace-orders/internal/models"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu      sync.Mutex
	msgs    []kafka.Message
	failN   int
	closed  bool
	blockCh chan struct{}
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.blockCh != nil {
		<-w.blockCh
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failN > 0 {
		w.failN--
		return errors.New("broker unavailable")
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func sampleOrder(id string) *models.Order {
	return &models.Order{
		ID:            id,
		ShopID:        "S1",
		UserID:        "U1",
		Total:         decimal.NewFromInt(300),
		Status:        models.OrderStatusPending,
		PaymentMethod: "cash",
		CreatedAt:     time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		Items: []models.OrderLineItem{
			{OrderID: id, ProductID: "P1", Quantity: 3, UnitPriceAtPurchase: decimal.NewFromInt(100)},
		},
	}
}

func TestProducerPublishesOrderPlaced(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, 8, "marketplace-orders", zerolog.Nop())
	p.Start()

	p.OrderPlaced(context.Background(), sampleOrder("O1"))
	p.Close()

	require.Len(t, w.msgs, 1)
	assert.True(t, w.closed)

	msg := w.msgs[0]
	assert.Equal(t, []byte("O1"), msg.Key)
	assert.Equal(t, []kafka.Header{
		{Key: "x-event-type", Value: []byte(EventOrderPlaced)},
		{Key: "x-event-version", Value: []byte("1")},
	}, msg.Headers)

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, EventOrderPlaced, env.EventType)
	assert.Equal(t, "O1", env.CorrelationID)
	assert.Equal(t, "marketplace-orders", env.Producer)
	assert.NotEmpty(t, env.EventID)

	var payload OrderPlacedPayload
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, "300.00", payload.Total)
	assert.Equal(t, "PENDING", payload.Status)
	require.Len(t, payload.Items, 1)
	assert.Equal(t, "100.00", payload.Items[0].UnitPriceAtPurchase)
	assert.Equal(t, 3, payload.Items[0].Quantity)
}

func TestProducerKeepsGoingAfterWriteError(t *testing.T) {
	w := &fakeWriter{failN: 1}
	p := newProducer(w, 8, "svc", zerolog.Nop())
	p.Start()

	p.OrderPlaced(context.Background(), sampleOrder("O1"))
	p.OrderPlaced(context.Background(), sampleOrder("O2"))
	p.Close()

	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("O2"), w.msgs[0].Key)
}

func TestProducerDropsWhenInboxFull(t *testing.T) {
	w := &fakeWriter{blockCh: make(chan struct{})}
	p := newProducer(w, 1, "svc", zerolog.Nop())

	// Not started: the single buffered slot fills and the rest are dropped
	// without blocking the caller.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			p.OrderPlaced(context.Background(), sampleOrder("O"))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("OrderPlaced blocked on a full inbox")
	}

	close(w.blockCh)
	p.Start()
	p.Close()
	assert.Len(t, w.msgs, 1)
}

func TestProducerDropsEventsAfterClose(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, 8, "svc", zerolog.Nop())
	p.Start()

	p.OrderPlaced(context.Background(), sampleOrder("O1"))
	p.Close()

	assert.NotPanics(t, func() {
		p.OrderPlaced(context.Background(), sampleOrder("O2"))
	})
	p.Close()

	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte("O1"), w.msgs[0].Key)
	assert.True(t, w.closed)
}
