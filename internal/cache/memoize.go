package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Memoize wraps an operation with the cache layer. The key is derived from a
// namespace prefix, the operation name and the JSON serialization of its
// parameters (json.Marshal emits map keys in sorted order, so equal parameter
// sets always produce the same key). Session or connection handles must not
// appear in params.
//
// A cached value that fails to unmarshal is treated as a miss. Only non-nil
// results are stored.
func Memoize[T any](ctx context.Context, s *Service, prefix, op string, params map[string]any, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	key, err := Key(prefix, op, params)
	if err != nil {
		// Unserializable params: skip caching rather than fail the operation.
		return fn(ctx)
	}

	if raw, ok := s.Get(ctx, key); ok {
		var cached T
		if err := json.Unmarshal(raw, &cached); err == nil {
			return cached, nil
		}
	}

	result, err := fn(ctx)
	if err != nil {
		return zero, err
	}

	if raw, err := json.Marshal(result); err == nil && string(raw) != "null" {
		s.Set(ctx, key, raw, ttl)
	}

	return result, nil
}

// Key builds the cache key for an operation and its parameters.
func Key(prefix, op string, params map[string]any) (string, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s:%s", prefix, op, raw), nil
}
