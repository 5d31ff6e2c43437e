package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope_JSONShape(t *testing.T) {
	env := NewEnvelope(TypeTemplateSubmitted, "server-1", "job-1", TemplateSubmitted{
		Name:     "order_update",
		Language: "en_US",
		Status:   "PENDING",
	})

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded map[string]map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	meta := decoded["meta"]
	assert.Equal(t, TypeTemplateSubmitted, meta["type"])
	assert.Equal(t, "server-1", meta["producer"])
	assert.Equal(t, "job-1", meta["correlation_id"])
	assert.NotEmpty(t, meta["id"])
	assert.Equal(t, "order_update", decoded["data"]["name"])
}

func TestNewEnvelope_OmitsEmptyOptionalMeta(t *testing.T) {
	env := NewEnvelope(TypeTemplateRejected, "", "", TemplateRejected{Reason: "bad"})
	assert.Nil(t, env.Meta.Producer)
	assert.Nil(t, env.Meta.CorrelationID)

	raw, err := json.Marshal(env.Meta)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "producer")
}

func TestNew_DisabledWithoutURL(t *testing.T) {
	p, err := New("", "wabastudio.events", slog.Default())
	require.NoError(t, err)
	assert.IsType(t, Nop{}, p)
	assert.NoError(t, p.Publish(context.Background(), TypeTemplateSubmitted, Envelope{}))
	assert.NoError(t, p.Close())
}
