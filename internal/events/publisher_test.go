package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"shareaplate_backend/internal/config"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, evt Event) error {
	return m.Called(ctx, evt).Error(0)
}

func TestNewPublisher_WithoutBrokersLogsOnly(t *testing.T) {
	p, cleanup := NewPublisher(&config.Config{}, zap.NewNop())
	defer cleanup()

	_, ok := p.(*LogPublisher)
	assert.True(t, ok)
	assert.NoError(t, p.Publish(context.Background(), Event{Type: TypeListingCreated, EntityID: "l1"}))
}

func TestPublishBestEffort_SwallowsErrors(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()

	assert.NotPanics(t, func() {
		PublishBestEffort(context.Background(), pub, zap.New(core), Event{Type: TypeClaimCreated, EntityID: "c1"})
	})
	assert.Equal(t, 1, logs.FilterMessage("Failed to publish event").Len())
	pub.AssertExpectations(t)
}

func TestPublishBestEffort_NilPublisher(t *testing.T) {
	assert.NotPanics(t, func() {
		PublishBestEffort(context.Background(), nil, zap.NewNop(), Event{Type: TypeListingDeleted})
	})
}
