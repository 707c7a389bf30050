// Package attrs bridges slog-style key/value lists to tracing attributes.
package attrs

import "go.opentelemetry.io/otel/attribute"

// SpanAttributes converts the string-valued pairs of a [key1, value1, ...]
// list into span attributes. Pairs with a non-string key or value are skipped,
// as is a trailing key without a value.
func SpanAttributes(kv []any) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		if v, ok := kv[i+1].(string); ok {
			out = append(out, attribute.String(k, v))
		}
	}
	return out
}
