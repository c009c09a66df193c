package tinybits

import (
	"fmt"
	"reflect"
	"strings"
)

// TinybitsMarshaler lets a type take over its own encoding onto a Packer.
type TinybitsMarshaler interface {
	MarshalTinybits(p *Packer) error
}

// Marshal encodes v as a standalone tinybits buffer with string
// deduplication and float compression enabled.
//
// If v implements TinybitsMarshaler, its MarshalTinybits method is called
// directly. Otherwise maps, slices/arrays, and structs are encoded as
// tinybits Map/Array/Map values: a struct becomes a Map keyed by its
// field names (or the name given in a `tinybits:"name"` struct tag;
// `tinybits:"-"` skips a field). Struct fields are written in declared
// field order, which is deterministic; a Go map's keys are written in
// whatever order reflect.Value.MapKeys returns them, which is not —
// marshal a struct or a pre-sorted slice of pairs instead when
// deterministic output matters. This caveat is inherited directly from
// the struct-tag marshaler this is adapted from.
func Marshal(v interface{}) ([]byte, error) {
	p := NewPacker(64, FeatureStringDedupe|FeatureCompressFloats)
	if err := marshalValue(p, v); err != nil {
		return nil, err
	}
	return append([]byte(nil), p.Bytes()...), nil
}

// MarshalInto encodes v onto an existing Packer. Calling it repeatedly
// with the same Packer lets several values share one dedup table, which
// is the main way to get string sharing across values in one document.
func MarshalInto(p *Packer, v interface{}) error {
	return marshalValue(p, v)
}

func marshalValue(p *Packer, v interface{}) error {
	if tm, ok := v.(TinybitsMarshaler); ok {
		return tm.MarshalTinybits(p)
	}

	switch t := v.(type) {
	case nil:
		_, err := p.PackNull()
		return err
	case bool:
		var err error
		if t {
			_, err = p.PackTrue()
		} else {
			_, err = p.PackFalse()
		}
		return err
	case string:
		_, err := p.PackStr([]byte(t))
		return err
	case []byte:
		_, err := p.PackBlob(t)
		return err
	case int:
		_, err := p.PackInt(int64(t))
		return err
	case int8:
		_, err := p.PackInt(int64(t))
		return err
	case int16:
		_, err := p.PackInt(int64(t))
		return err
	case int32:
		_, err := p.PackInt(int64(t))
		return err
	case int64:
		_, err := p.PackInt(t)
		return err
	case uint:
		_, err := p.PackInt(int64(t))
		return err
	case uint8:
		_, err := p.PackInt(int64(t))
		return err
	case uint16:
		_, err := p.PackInt(int64(t))
		return err
	case uint32:
		_, err := p.PackInt(int64(t))
		return err
	case uint64:
		_, err := p.PackInt(int64(t))
		return err
	case float32:
		_, err := p.PackDouble(float64(t))
		return err
	case float64:
		_, err := p.PackDouble(t)
		return err
	case Datetime:
		_, err := p.PackDatetime(t.Unixtime, t.Offset)
		return err
	}

	val := reflect.ValueOf(v)
	if !val.IsValid() {
		_, err := p.PackNull()
		return err
	}

	switch val.Kind() {
	case reflect.Ptr:
		if val.IsNil() {
			_, err := p.PackNull()
			return err
		}
		return marshalValue(p, val.Elem().Interface())
	case reflect.Interface:
		if val.IsNil() {
			_, err := p.PackNull()
			return err
		}
		return marshalValue(p, val.Elem().Interface())
	case reflect.Slice, reflect.Array:
		return marshalSlice(p, val)
	case reflect.Map:
		return marshalMap(p, val)
	case reflect.Struct:
		return marshalStruct(p, val)
	}
	return fmt.Errorf("tinybits: type %T cannot be marshaled", v)
}

func marshalSlice(p *Packer, val reflect.Value) error {
	n := val.Len()
	if _, err := p.PackArr(n); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := marshalValue(p, val.Index(i).Interface()); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	return nil
}

func marshalMap(p *Packer, val reflect.Value) error {
	keys := val.MapKeys()
	if _, err := p.PackMap(len(keys)); err != nil {
		return err
	}
	for _, key := range keys {
		if err := marshalValue(p, key.Interface()); err != nil {
			return err
		}
		if err := marshalValue(p, val.MapIndex(key).Interface()); err != nil {
			return err
		}
	}
	return nil
}

func marshalStruct(p *Packer, val reflect.Value) error {
	fields := structFields(val.Type())
	if _, err := p.PackMap(len(fields)); err != nil {
		return err
	}
	for _, fi := range fields {
		if _, err := p.PackStr([]byte(fi.name)); err != nil {
			return err
		}
		if err := marshalValue(p, val.Field(fi.index).Interface()); err != nil {
			return fmt.Errorf("field %q: %w", fi.name, err)
		}
	}
	return nil
}

// fieldInfo describes one exported struct field selected for marshaling.
type fieldInfo struct {
	name  string
	index int
}

// structFields extracts the exported fields of t in declaration order,
// honoring a `tinybits:"name"` tag to rename a field or `tinybits:"-"` to
// skip it. Fields without a tag use their Go field name, matching
// encoding/json's convention, since tinybits structs describe whole
// records (map keys), not an opaque tag-number wire scheme.
func structFields(t reflect.Type) []fieldInfo {
	var fields []fieldInfo
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.PkgPath != "" {
			continue // unexported
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("tinybits"); ok {
			parts := strings.Split(tag, ",")
			if parts[0] == "-" {
				continue
			}
			if parts[0] != "" {
				name = parts[0]
			}
		}
		fields = append(fields, fieldInfo{name: name, index: i})
	}
	return fields
}
