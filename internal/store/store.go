// Package store holds the two shared tables the pipeline loops read and the
// control loop writes: runtime state and runtime configuration.
package store

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/AymNine/vrc-osc-scripts/internal/errors"
	"github.com/AymNine/vrc-osc-scripts/internal/syncx"
)

// Store is a concurrency-safe key/value table with a default for every key.
// Writes are checked against the default's kind and coerced where the OSC wire
// types allow it.
type Store struct {
	defaults map[string]any
	values   *syncx.Map[string, any]
}

// New creates a store whose keys and initial values are taken from defaults.
// Supported default kinds are bool, int, float64 and string.
func New(defaults map[string]any) *Store {
	d := make(map[string]any, len(defaults))
	for k, v := range defaults {
		d[k] = v
	}
	return &Store{defaults: d, values: syncx.NewMap(d)}
}

// NewState creates the runtime state table.
func NewState() *Store {
	return New(StateDefaults())
}

// NewConfig creates the runtime config table seeded from DefaultConfig and
// overlaid with initial. Values in initial go through the same validation as
// Set.
func NewConfig(initial map[string]any) (*Store, error) {
	s := New(ConfigDefaults())
	for k, v := range initial {
		if err := s.Set(k, v); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Get returns the current value for key. Absent keys report false.
func (s *Store) Get(key string) (any, bool) {
	return s.values.Load(key)
}

// Set validates v against the key's default and stores the coerced value.
// The table is unchanged when an error is returned.
func (s *Store) Set(key string, v any) error {
	def, ok := s.defaults[key]
	if !ok {
		return apperrors.Newf(apperrors.CodeInvalidArgument, "unknown key %q", key)
	}
	coerced, err := coerce(def, v)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.CodeConfigInvalid, "invalid value for %s", key).
			WithMetadata("value", fmt.Sprintf("%v", v))
	}
	return s.values.Update(key, func(any, bool) (any, error) { return coerced, nil })
}

// Keys enumerates every key in sorted order.
func (s *Store) Keys() []string {
	return s.values.Keys()
}

// Snapshot returns a copy of every key's current value.
func (s *Store) Snapshot() map[string]any {
	return s.values.Snapshot()
}

// Bool returns key as a bool, falling back to its default.
func (s *Store) Bool(key string) bool {
	if v, ok := s.Get(key); ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	b, _ := s.defaults[key].(bool)
	return b
}

// String returns key as a string, falling back to its default.
func (s *Store) String(key string) string {
	if v, ok := s.Get(key); ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	str, _ := s.defaults[key].(string)
	return str
}

// Int returns key as an int, falling back to its default.
func (s *Store) Int(key string) int {
	if v, ok := s.Get(key); ok {
		if n, ok := v.(int); ok {
			return n
		}
	}
	n, _ := s.defaults[key].(int)
	return n
}

// Duration reads an integer millisecond key as a time.Duration.
func (s *Store) Duration(keyMs string) time.Duration {
	return time.Duration(s.Int(keyMs)) * time.Millisecond
}

func coerce(def, v any) (any, error) {
	switch def.(type) {
	case bool:
		return toBool(v)
	case int:
		return toInt(v)
	case float64:
		return toFloat(v)
	case string:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return nil, fmt.Errorf("want string, got %T", v)
	default:
		return nil, fmt.Errorf("unsupported default kind %T", def)
	}
}

func toBool(v any) (any, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case int32:
		return x != 0, nil
	case int64:
		return x != 0, nil
	case int:
		return x != 0, nil
	case float32:
		return x != 0, nil
	case float64:
		return x != 0, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return nil, fmt.Errorf("want bool, got %q", x)
		}
		return b, nil
	}
	return nil, fmt.Errorf("want bool, got %T", v)
}

func toInt(v any) (any, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int32:
		return int(x), nil
	case int64:
		return int(x), nil
	case float32:
		return integral(float64(x))
	case float64:
		return integral(x)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return nil, fmt.Errorf("want int, got %q", x)
		}
		return n, nil
	}
	return nil, fmt.Errorf("want int, got %T", v)
}

func integral(f float64) (any, error) {
	if f != math.Trunc(f) || math.IsInf(f, 0) || math.IsNaN(f) {
		return nil, fmt.Errorf("want int, got %v", f)
	}
	return int(f), nil
}

func toFloat(v any) (any, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	}
	return nil, fmt.Errorf("want float, got %T", v)
}
