package tinybits

import (
	"fmt"
	"math"
	"reflect"
)

// TinybitsUnmarshaler lets a type take over its own decoding from an
// Unpacker positioned at its value's first tag byte.
type TinybitsUnmarshaler interface {
	UnmarshalTinybits(u *Unpacker) error
}

// Unmarshal decodes the single top-level value encoded in data into v,
// which must be a non-nil pointer.
//
// If v implements TinybitsUnmarshaler, its UnmarshalTinybits method is
// called directly against a fresh Unpacker bound to data. Otherwise the
// value is decoded generically (see DecodeValue) and then assigned into
// v by reflection: a tinybits Map assigns into a matching struct's
// tagged/named fields, a Go map, or map[string]interface{}; a tinybits
// Array assigns into a slice or []interface{}.
func Unmarshal(data []byte, v interface{}) error {
	if tu, ok := v.(TinybitsUnmarshaler); ok {
		u := NewUnpacker()
		u.SetBuffer(data)
		return tu.UnmarshalTinybits(u)
	}

	u := NewUnpacker()
	u.SetBuffer(data)
	decoded, err := DecodeValue(u)
	if err != nil {
		return err
	}
	return assign(reflect.ValueOf(v), decoded)
}

// DecodeValue decodes one full value — recursively consuming any nested
// map/array contents — from u into a generic Go representation:
//
//	KindInt               -> int64
//	KindDouble             -> float64
//	KindNaN/KindInf/NegInf -> math.NaN() / +Inf / -Inf (float64)
//	KindStr                -> string
//	KindBlob                -> []byte (a copy, safe past the buffer's lifetime)
//	KindTrue/KindFalse      -> bool
//	KindNull                -> nil
//	KindDatetime             -> Datetime
//	KindArray                -> []interface{}
//	KindMap                  -> map[string]interface{} (non-string keys are
//	                            formatted with fmt.Sprintf("%v", key))
//
// KindSeparator and KindExt decode to nil; callers that need to observe
// them as stream framing should call Unpacker.UnpackValue directly
// instead of going through DecodeValue.
func DecodeValue(u *Unpacker) (interface{}, error) {
	var val Value
	kind := u.UnpackValue(&val)
	switch kind {
	case KindInt:
		return val.Int, nil
	case KindDouble:
		return val.Double, nil
	case KindNaN:
		return math.NaN(), nil
	case KindInf:
		return math.Inf(1), nil
	case KindNegInf:
		return math.Inf(-1), nil
	case KindStr:
		return string(val.Bytes), nil
	case KindBlob:
		return append([]byte(nil), val.Bytes...), nil
	case KindTrue:
		return true, nil
	case KindFalse:
		return false, nil
	case KindNull, KindExt, KindSeparator:
		return nil, nil
	case KindDatetime:
		return Datetime{Unixtime: val.Double, Offset: val.Offset}, nil
	case KindArray:
		out := make([]interface{}, val.Length)
		for i := range out {
			elem, err := DecodeValue(u)
			if err != nil {
				return nil, err
			}
			out[i] = elem
		}
		return out, nil
	case KindMap:
		out := make(map[string]interface{}, val.Length)
		for i := 0; i < val.Length; i++ {
			key, err := DecodeValue(u)
			if err != nil {
				return nil, err
			}
			value, err := DecodeValue(u)
			if err != nil {
				return nil, err
			}
			ks, ok := key.(string)
			if !ok {
				ks = fmt.Sprintf("%v", key)
			}
			out[ks] = value
		}
		return out, nil
	case KindFinished:
		return nil, fmt.Errorf("tinybits: no value to decode (buffer exhausted)")
	default: // KindError
		return nil, u.LastError()
	}
}

func assign(rv reflect.Value, decoded interface{}) error {
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("tinybits: Unmarshal target must be a non-nil pointer, got %T", rv.Interface())
	}
	return assignValue(rv.Elem(), decoded)
}

func assignValue(elem reflect.Value, decoded interface{}) error {
	if decoded == nil {
		elem.Set(reflect.Zero(elem.Type()))
		return nil
	}
	if elem.Kind() == reflect.Interface {
		elem.Set(reflect.ValueOf(decoded))
		return nil
	}
	if dv := reflect.ValueOf(decoded); dv.Type().AssignableTo(elem.Type()) {
		elem.Set(dv)
		return nil
	}

	switch elem.Kind() {
	case reflect.Struct:
		m, ok := decoded.(map[string]interface{})
		if !ok {
			return fmt.Errorf("tinybits: cannot decode %T into %s", decoded, elem.Type())
		}
		return assignStruct(elem, m)
	case reflect.Map:
		m, ok := decoded.(map[string]interface{})
		if !ok {
			return fmt.Errorf("tinybits: cannot decode %T into %s", decoded, elem.Type())
		}
		return assignMap(elem, m)
	case reflect.Slice:
		if elem.Type().Elem().Kind() == reflect.Uint8 {
			b, ok := decoded.([]byte)
			if !ok {
				return fmt.Errorf("tinybits: cannot decode %T into []byte", decoded)
			}
			elem.SetBytes(b)
			return nil
		}
		s, ok := decoded.([]interface{})
		if !ok {
			return fmt.Errorf("tinybits: cannot decode %T into %s", decoded, elem.Type())
		}
		return assignSlice(elem, s)
	case reflect.String:
		s, ok := decoded.(string)
		if !ok {
			return fmt.Errorf("tinybits: cannot decode %T into string", decoded)
		}
		elem.SetString(s)
		return nil
	case reflect.Bool:
		b, ok := decoded.(bool)
		if !ok {
			return fmt.Errorf("tinybits: cannot decode %T into bool", decoded)
		}
		elem.SetBool(b)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := decoded.(int64)
		if !ok {
			return fmt.Errorf("tinybits: cannot decode %T into %s", decoded, elem.Type())
		}
		elem.SetInt(i)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		i, ok := decoded.(int64)
		if !ok {
			return fmt.Errorf("tinybits: cannot decode %T into %s", decoded, elem.Type())
		}
		elem.SetUint(uint64(i))
		return nil
	case reflect.Float32, reflect.Float64:
		f, ok := decoded.(float64)
		if !ok {
			return fmt.Errorf("tinybits: cannot decode %T into %s", decoded, elem.Type())
		}
		elem.SetFloat(f)
		return nil
	case reflect.Ptr:
		if elem.IsNil() {
			elem.Set(reflect.New(elem.Type().Elem()))
		}
		return assignValue(elem.Elem(), decoded)
	}
	return fmt.Errorf("tinybits: cannot decode %T into %s", decoded, elem.Type())
}

func assignStruct(elem reflect.Value, m map[string]interface{}) error {
	for _, fi := range structFields(elem.Type()) {
		raw, ok := m[fi.name]
		if !ok {
			continue
		}
		if err := assignValue(elem.Field(fi.index), raw); err != nil {
			return fmt.Errorf("field %q: %w", fi.name, err)
		}
	}
	return nil
}

func assignMap(elem reflect.Value, m map[string]interface{}) error {
	if elem.IsNil() {
		elem.Set(reflect.MakeMapWithSize(elem.Type(), len(m)))
	}
	kt := elem.Type().Key()
	vt := elem.Type().Elem()
	if kt.Kind() != reflect.String {
		return fmt.Errorf("tinybits: unsupported map key type %s", kt)
	}
	for k, v := range m {
		kv := reflect.New(kt).Elem()
		kv.SetString(k)
		vv := reflect.New(vt).Elem()
		if err := assignValue(vv, v); err != nil {
			return err
		}
		elem.SetMapIndex(kv, vv)
	}
	return nil
}

func assignSlice(elem reflect.Value, s []interface{}) error {
	out := reflect.MakeSlice(elem.Type(), len(s), len(s))
	for i, v := range s {
		if err := assignValue(out.Index(i), v); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	elem.Set(out)
	return nil
}
