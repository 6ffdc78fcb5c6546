package dataflow

import (
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPluginEmitsStartRecord(t *testing.T) {
	var captured []cloudevents.Event
	records := NewCloudEventRecordLogger(func(e cloudevents.Event) {
		captured = append(captured, e)
	}, nil)

	guids := NewGUIDGenerator()
	registry := NewRegistry()

	p := NewPlugin("camera", guids, registry, nil, records)

	require.Len(t, captured, 1)
	assert.Equal(t, RecordTypePluginStart, captured[0].Type())
	assert.Equal(t, "camera", p.Name())
	assert.Equal(t, uint64(1), p.ID())
}

func TestPluginIDsAreUniquePerGenerator(t *testing.T) {
	guids := NewGUIDGenerator()
	registry := NewRegistry()

	p1 := NewPlugin("a", guids, registry, nil, nil)
	p2 := NewPlugin("b", guids, registry, nil, nil)

	assert.NotEqual(t, p1.ID(), p2.ID())
}

func TestPluginString(t *testing.T) {
	guids := NewGUIDGenerator()
	p := NewPlugin("renderer", guids, NewRegistry(), nil, nil)
	assert.Equal(t, "renderer#1", p.String())
}
