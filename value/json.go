package value

import (
	"encoding/json"
	"fmt"
)

// ToJSON encodes v per spec.md §6's persisted-state layout: Text as
// string, Number as number, Tag as {"_tag": symbol}, Object as {fields},
// TaggedObject as {"_tag": tag, fields...}, Flushed as {"_flushed": true,
// "value": ...}. Field handles are resolved via resolveField, since a
// Field.Handle is an opaque *variable.Variable this package cannot read
// directly (see value.Field's doc comment on the import-cycle reason).
func ToJSON(v Value, resolveField func(handle any) (Value, error)) (json.RawMessage, error) {
	switch t := v.(type) {
	case Number:
		return json.Marshal(t.V)
	case Text:
		return json.Marshal(t.V)
	case Tag:
		return json.Marshal(map[string]string{"_tag": t.Symbol})
	case Object:
		obj := make(map[string]json.RawMessage, len(t.Fields))
		for _, f := range t.Fields {
			fv, err := resolveField(f.Handle)
			if err != nil {
				return nil, fmt.Errorf("value: resolve field %q: %w", f.Name, err)
			}
			raw, err := ToJSON(fv, resolveField)
			if err != nil {
				return nil, err
			}
			obj[f.Name] = raw
		}
		return marshalOrdered(t.Fields, obj, "")
	case TaggedObject:
		obj := make(map[string]json.RawMessage, len(t.Fields))
		for _, f := range t.Fields {
			fv, err := resolveField(f.Handle)
			if err != nil {
				return nil, fmt.Errorf("value: resolve field %q: %w", f.Name, err)
			}
			raw, err := ToJSON(fv, resolveField)
			if err != nil {
				return nil, err
			}
			obj[f.Name] = raw
		}
		return marshalOrdered(t.Fields, obj, t.Tag)
	case Flushed:
		inner, err := ToJSON(t.Inner, resolveField)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]json.RawMessage{
			"_flushed": json.RawMessage("true"),
			"value":    inner,
		})
	default:
		return nil, fmt.Errorf("value: ToJSON: unsupported value type %T", v)
	}
}

// marshalOrdered builds a JSON object preserving field declaration order
// (Go's map encoding sorts keys alphabetically). FromJSON does not restore
// this order: decoded fields come back in Go map iteration order.
func marshalOrdered(fields []Field, values map[string]json.RawMessage, tag string) (json.RawMessage, error) {
	buf := []byte{'{'}
	first := true
	writeEntry := func(key string, raw json.RawMessage) error {
		if !first {
			buf = append(buf, ',')
		}
		first = false
		keyJSON, err := json.Marshal(key)
		if err != nil {
			return err
		}
		buf = append(buf, keyJSON...)
		buf = append(buf, ':')
		buf = append(buf, raw...)
		return nil
	}
	if tag != "" {
		tagJSON, err := json.Marshal(tag)
		if err != nil {
			return nil, err
		}
		if err := writeEntry("_tag", tagJSON); err != nil {
			return nil, err
		}
	}
	for _, f := range fields {
		if err := writeEntry(f.Name, values[f.Name]); err != nil {
			return nil, err
		}
	}
	buf = append(buf, '}')
	return json.RawMessage(buf), nil
}

// FromJSON decodes raw per the same layout ToJSON produces. makeField
// constructs the opaque field handle (typically a freshly-constructed
// Variable wrapping the decoded child Value); it mirrors resolveField's
// role in ToJSON.
func FromJSON(raw json.RawMessage, makeField func(name string, v Value) (any, error)) (Value, error) {
	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("value: FromJSON: %w", err)
	}
	switch t := probe.(type) {
	case float64:
		return NewNumber(t), nil
	case string:
		return NewText(t), nil
	case map[string]any:
		if tagOnly, ok := t["_tag"]; ok && len(t) == 1 {
			sym, ok := tagOnly.(string)
			if !ok {
				return nil, fmt.Errorf("value: FromJSON: _tag must be a string")
			}
			return NewTag(sym), nil
		}
		if flushedMarker, ok := t["_flushed"]; ok {
			if b, ok := flushedMarker.(bool); ok && b {
				innerRaw, ok := t["value"]
				if !ok {
					return nil, fmt.Errorf("value: FromJSON: flushed object missing \"value\"")
				}
				innerJSON, err := json.Marshal(innerRaw)
				if err != nil {
					return nil, err
				}
				inner, err := FromJSON(innerJSON, makeField)
				if err != nil {
					return nil, err
				}
				return NewFlushed(inner), nil
			}
		}
		var fieldsRaw map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fieldsRaw); err != nil {
			return nil, err
		}
		tag := ""
		if tv, ok := t["_tag"]; ok {
			tag, _ = tv.(string)
			delete(fieldsRaw, "_tag")
		}
		fields := make([]Field, 0, len(fieldsRaw))
		for name, fieldRaw := range fieldsRaw {
			fv, err := FromJSON(fieldRaw, makeField)
			if err != nil {
				return nil, err
			}
			handle, err := makeField(name, fv)
			if err != nil {
				return nil, err
			}
			fields = append(fields, Field{Name: name, Handle: handle})
		}
		if tag != "" {
			return NewTaggedObject(tag, fields), nil
		}
		return NewObject(fields), nil
	case []any:
		return nil, fmt.Errorf("value: FromJSON: list decoding is handled by package list, not value")
	case nil:
		return nil, fmt.Errorf("value: FromJSON: null is not a representable Value")
	default:
		return nil, fmt.Errorf("value: FromJSON: unsupported JSON type %T", probe)
	}
}
