package types

import (
	"iter"
	"reflect"

	json "github.com/goccy/go-json"
	"lukechampine.com/uint128"
)

// Pair represents a key/value pair for initialization
type Pair[V any] struct {
	Key   string
	Value V
}

func OP[V any](k string, v V) Pair[V] {
	return Pair[V]{Key: k, Value: v}
}

// OrderedMap keeps decoded field values in layout order.
type OrderedMap[V any] struct {
	pos   map[string]int
	items []Pair[V]
}

// NewOrderedMap creates a new OrderedMap, optionally initialized with pairs.
func NewOrderedMap[V any](pairs ...Pair[V]) *OrderedMap[V] {
	om := &OrderedMap[V]{pos: make(map[string]int, len(pairs))}
	for _, p := range pairs {
		om.Set(p.Key, p.Value)
	}
	return om
}

// OrderedValues holds field values of mixed unsigned types.
type OrderedValues = OrderedMap[any]

func (om *OrderedMap[V]) Len() int {
	return len(om.items)
}

// Set inserts or updates a key; updates keep the original position.
func (om *OrderedMap[V]) Set(key string, value V) {
	if i, ok := om.pos[key]; ok {
		om.items[i].Value = value
		return
	}
	om.pos[key] = len(om.items)
	om.items = append(om.items, Pair[V]{Key: key, Value: value})
}

func (om *OrderedMap[V]) Get(key string) (V, bool) {
	i, ok := om.pos[key]
	if !ok {
		var zero V
		return zero, false
	}
	return om.items[i].Value, true
}

// GetAs fetches key and asserts it to U, returning the zero value on mismatch.
func GetAs[U any](om *OrderedValues, key string) U {
	v, _ := om.Get(key)
	u, _ := v.(U)
	return u
}

// Keys returns keys in insertion order
func (om *OrderedMap[V]) Keys() []string {
	keys := make([]string, 0, len(om.items))
	for _, p := range om.items {
		keys = append(keys, p.Key)
	}
	return keys
}

// ItemsIter returns an iterator over key/value pairs
func (om *OrderedMap[V]) ItemsIter() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for _, p := range om.items {
			if !yield(p.Key, p.Value) {
				return
			}
		}
	}
}

func (om *OrderedMap[V]) Equal(other *OrderedMap[V]) bool {
	if om.Len() != other.Len() {
		return false
	}
	for i, p := range om.items {
		q := other.items[i]
		if p.Key != q.Key || !reflect.DeepEqual(p.Value, q.Value) {
			return false
		}
	}
	return true
}

// MarshalJSON encodes as JSON object in insertion order
func (om *OrderedMap[V]) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, p := range om.items {
		if i > 0 {
			buf = append(buf, ',')
		}
		keyBytes, err := json.Marshal(p.Key)
		if err != nil {
			return nil, err
		}
		valBytes, err := marshalValue(p.Value)
		if err != nil {
			return nil, err
		}
		buf = append(buf, keyBytes...)
		buf = append(buf, ':')
		buf = append(buf, valBytes...)
	}
	return append(buf, '}'), nil
}

// marshalValue writes 128-bit integers as decimal strings, the form layout
// documents use for values.
func marshalValue(v any) ([]byte, error) {
	switch u := v.(type) {
	case uint128.Uint128:
		return json.Marshal(u.String())
	case *uint128.Uint128:
		if u != nil {
			return json.Marshal(u.String())
		}
	}
	return json.Marshal(v)
}
