package mocks

import (
	"context"

	"github.com/recipemap/recipemap/pkg/eventbus"
	"github.com/recipemap/recipemap/pkg/events"
	"github.com/stretchr/testify/mock"
)

// MockPublisher records the events services publish. Expectations match on the event value.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event events.Event) error {
	args := m.Called(ctx, event)

	return args.Error(0)
}

// Published returns every event passed to Publish, in call order.
func (m *MockPublisher) Published() []events.Event {
	published := make([]events.Event, 0, len(m.Calls))

	for _, call := range m.Calls {
		if call.Method == "Publish" {
			published = append(published, call.Arguments.Get(1).(events.Event))
		}
	}

	return published
}

var _ eventbus.Publisher = (*MockPublisher)(nil)
