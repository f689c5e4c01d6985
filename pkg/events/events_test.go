package events_test

import (
	"testing"

	"github.com/recipemap/recipemap/pkg/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	testCases := []struct {
		name      string
		eventType events.EventType
		payload   string
		wantKey   string
		wantErr   bool
	}{
		{
			name:      "template created",
			eventType: events.TemplateCreatedEvent,
			payload:   `{"map_template_id":"map-1","template_id":"t-1","identifier":"mill","version":1}`,
			wantKey:   "map-1",
		},
		{
			name:      "processes instantiated",
			eventType: events.RecipeProcessesInstantiatedEvent,
			payload:   `{"recipe_id":"recipe-1","process_ids":["p-1","p-2"],"edge_count":1}`,
			wantKey:   "recipe-1",
		},
		{
			name:      "unknown type",
			eventType: events.EventType("workflow.triggered"),
			payload:   `{}`,
			wantErr:   true,
		},
		{
			name:      "malformed payload",
			eventType: events.RecipeCreatedEvent,
			payload:   `{"recipe_id":`,
			wantErr:   true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			event, err := events.Decode(tc.eventType, []byte(tc.payload))
			if tc.wantErr {
				assert.Error(t, err)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.eventType, event.GetType())
			assert.Equal(t, tc.wantKey, event.PartitionKey())
		})
	}
}
