package attrs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func TestSpanAttributes(t *testing.T) {
	got := SpanAttributes([]any{
		"discord_user_id", "100",
		"confidence", 0.5,
		42, "ignored",
		"link_id", "7c1e",
		"dangling",
	})
	assert.Equal(t, []attribute.KeyValue{
		attribute.String("discord_user_id", "100"),
		attribute.String("link_id", "7c1e"),
	}, got)

	assert.Empty(t, SpanAttributes(nil))
}
