package recordgen

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"
)

// Object is the projection of an entity: printable field names mapped to
// their non-null values.
type Object map[string]any

// ToObject projects e through its field manifest. Null fields are omitted,
// timestamps are rendered as UTC TimeLayout strings, associated entities
// and collections of entities are projected recursively. An entity that is
// already being projected further up (a reference cycle) is omitted.
func ToObject(e Entity) Object {
	return project(e, make(map[Entity]bool))
}

func project(e Entity, seen map[Entity]bool) Object {
	seen[e] = true
	defer delete(seen, e)

	d := e.Descriptor()
	out := make(Object)
	for _, f := range e.PrintableFields().Fields() {
		a, ok := d.Accessors[f]
		if !ok || a.Get == nil {
			continue
		}
		v, ok := a.Get(e)
		if !ok || v == nil {
			continue
		}
		if pv, ok := projectValue(v, seen); ok {
			out[f] = pv
		}
	}
	return out
}

func projectValue(v any, seen map[Entity]bool) (any, bool) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC().Format(TimeLayout), true
	case *time.Time:
		if x == nil {
			return nil, false
		}
		return x.UTC().Format(TimeLayout), true
	case Entity:
		if seen[x] {
			return nil, false
		}
		return project(x, seen), true
	case []Entity:
		items := make([]any, 0, len(x))
		for _, item := range x {
			if pv, ok := projectValue(item, seen); ok {
				items = append(items, pv)
			}
		}
		return items, true
	case map[string]Entity:
		items := make(map[string]any, len(x))
		for k, item := range x {
			if pv, ok := projectValue(item, seen); ok {
				items[k] = pv
			}
		}
		return items, true
	default:
		return v, true
	}
}

// ToArray is like ToObject but returns plain maps and slices all the way
// down, with nested objects converted to map[string]any.
func ToArray(e Entity) map[string]any {
	return plain(ToObject(e)).(map[string]any)
}

func plain(v any) any {
	switch x := v.(type) {
	case Object:
		m := make(map[string]any, len(x))
		for k, item := range x {
			m[k] = plain(item)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, item := range x {
			m[k] = plain(item)
		}
		return m
	case []any:
		s := make([]any, len(x))
		for i, item := range x {
			s[i] = plain(item)
		}
		return s
	default:
		return v
	}
}

// ToJSON encodes the projection of e as JSON.
func ToJSON(e Entity) ([]byte, error) {
	b, err := json.Marshal(ToObject(e))
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s", e.Descriptor().Name)
	}
	return b, nil
}

// ToMsgpack encodes the projection of e as MessagePack with sorted keys.
func ToMsgpack(e Entity) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(ToArray(e)); err != nil {
		return nil, errors.Wrapf(err, "encode %s", e.Descriptor().Name)
	}
	return buf.Bytes(), nil
}
