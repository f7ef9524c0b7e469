// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package reasoning

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindList
	KindMap
	KindTypeName
	// kindNull carries a JSON null through an import/export round
	// trip. Constructors never produce it.
	kindNull
)

// Value is one JSON-representable datum attached to a reasoning step.
//
// Values are built through the constructors below, in the style of
// otel attributes: String, Int, Float, Bool, List, Map. TypeNameOf
// stands in for anything unrepresentable and marshals as the bare Go
// type name, so a step can always say what an operation produced even
// when it cannot say what it contained.
type Value struct {
	kind Kind
	str  string
	i    int64
	f    float64
	b    bool
	list []Value
	obj  map[string]Value
}

// Payload is the named Value set attached to a step's inputs or
// outputs.
type Payload map[string]Value

// String returns a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Int returns an integer Value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating-point Value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// Bool returns a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// List returns a list Value of the given items.
func List(items ...Value) Value {
	if items == nil {
		items = make([]Value, 0)
	}
	return Value{kind: KindList, list: items}
}

// StringList returns a list Value with one string item per element.
func StringList(items []string) Value {
	list := make([]Value, 0, len(items))
	for _, item := range items {
		list = append(list, String(item))
	}
	return Value{kind: KindList, list: list}
}

// Map returns an object Value.
func Map(m map[string]Value) Value {
	if m == nil {
		m = make(map[string]Value)
	}
	return Value{kind: KindMap, obj: m}
}

// TypeNameOf returns a Value carrying only the dynamic type name of v.
func TypeNameOf(v any) Value {
	return Value{kind: KindTypeName, str: fmt.Sprintf("%T", v)}
}

// Kind reports which variant the Value holds.
func (v Value) Kind() Kind { return v.kind }

// MarshalJSON renders the underlying variant as plain JSON. Type names
// marshal as bare strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString, KindTypeName:
		return json.Marshal(v.str)
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	case KindBool:
		return json.Marshal(v.b)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	case KindMap:
		if v.obj == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(v.obj)
	}
	return []byte("null"), nil
}

// UnmarshalJSON decodes arbitrary JSON into the matching variant.
// Numbers without a fractional part become KindInt, everything else
// numeric becomes KindFloat. A type name is indistinguishable from a
// plain string on the wire and decodes as KindString.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty value")
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = String(s)
	case '{':
		var obj map[string]Value
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return err
		}
		if obj == nil {
			obj = make(map[string]Value)
		}
		*v = Value{kind: KindMap, obj: obj}
	case '[':
		var list []Value
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return err
		}
		if list == nil {
			list = make([]Value, 0)
		}
		*v = Value{kind: KindList, list: list}
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case 'n':
		if !bytes.Equal(trimmed, []byte("null")) {
			return fmt.Errorf("invalid value %q", trimmed)
		}
		*v = Value{kind: kindNull}
	default:
		var n json.Number
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return err
		}
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			*v = Int(i)
		} else {
			f, err := n.Float64()
			if err != nil {
				return fmt.Errorf("invalid number %q", n.String())
			}
			*v = Float(f)
		}
	}
	return nil
}

// text renders the Value for human-readable previews: strings come
// back verbatim, everything else as compact JSON.
func (v Value) text() string {
	switch v.kind {
	case KindString, KindTypeName:
		return v.str
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}

// valueOf converts the common Go result shapes into a Value. The
// second return is false for anything without a direct representation;
// no reflection beyond the type switch is attempted.
func valueOf(result any) (Value, bool) {
	switch t := result.(type) {
	case Value:
		return t, true
	case string:
		return String(t), true
	case bool:
		return Bool(t), true
	case int:
		return Int(int64(t)), true
	case int32:
		return Int(int64(t)), true
	case int64:
		return Int(t), true
	case float32:
		return Float(float64(t)), true
	case float64:
		return Float(t), true
	case []string:
		return StringList(t), true
	case []Value:
		return List(t...), true
	case map[string]Value:
		return Map(t), true
	case Payload:
		return Map(t), true
	}
	return Value{}, false
}

// clonePayload copies the key set so later caller mutations do not
// show up in the recorded step. A nil payload clones to an empty one.
func clonePayload(p Payload) Payload {
	out := make(Payload, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
