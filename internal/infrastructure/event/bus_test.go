package event

import (
	"context"
	"errors"
	"testing"

	"github.com/courier/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type recordingHandler struct {
	types    []string
	received []shared.DomainEvent
	fail     bool
}

func (h *recordingHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	h.received = append(h.received, event)
	if h.fail {
		return errors.New("handler failure")
	}
	return nil
}

func (h *recordingHandler) EventTypes() []string {
	return h.types
}

func newTestEvent(eventType string) shared.DomainEvent {
	e := shared.NewBaseDomainEvent(eventType, "test", uuid.New())
	return &e
}

func TestInMemoryEventBus_PublishToSubscribedHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{types: []string{"GuideStatusChanged"}}
	bus.Subscribe(handler)

	err := bus.Publish(context.Background(), newTestEvent("GuideStatusChanged"))

	assert.NoError(t, err)
	assert.Len(t, handler.received, 1)
}

func TestInMemoryEventBus_TypeFiltering(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{types: []string{"GuideStatusChanged"}}
	bus.Subscribe(handler)

	bus.Publish(context.Background(), newTestEvent("GuideCreated"))

	assert.Empty(t, handler.received)
}

func TestInMemoryEventBus_WildcardHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{}
	bus.Subscribe(handler)

	bus.Publish(context.Background(), newTestEvent("GuideCreated"), newTestEvent("StockIncreased"))

	assert.Len(t, handler.received, 2)
}

func TestInMemoryEventBus_HandlerErrorDoesNotStopDelivery(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	failing := &recordingHandler{types: []string{"GuideCreated"}, fail: true}
	healthy := &recordingHandler{types: []string{"GuideCreated"}}
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	err := bus.Publish(context.Background(), newTestEvent("GuideCreated"))

	assert.NoError(t, err)
	assert.Len(t, healthy.received, 1)
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())
	handler := &recordingHandler{types: []string{"GuideCreated"}}
	bus.Subscribe(handler)
	bus.Unsubscribe(handler)

	bus.Publish(context.Background(), newTestEvent("GuideCreated"))

	assert.Empty(t, handler.received)
}
