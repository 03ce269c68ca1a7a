// Copyright 2019 eBay Inc.
// Primary authors: Simon Fell, Diego Ongaro,
//                  Raymond Kroeker, and Sathish Kandasamy.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind identifies which field of a Value is set.
type ValueKind uint8

// The kinds of attribute values.
const (
	KNone ValueKind = iota
	KString
	KInt
	KFloat
	KBool
)

var kindNames = [...]string{
	KNone:   "none",
	KString: "string",
	KInt:    "long",
	KFloat:  "double",
	KBool:   "boolean",
}

func (k ValueKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("ValueKind(%d)", uint8(k))
}

// A Value is the value held by an attribute concept. Values are comparable
// with == and may be used as map keys.
type Value struct {
	Kind  ValueKind
	Str   string
	Int   int64
	Float float64
	Bool  bool
}

// AString returns a string Value.
func AString(s string) Value {
	return Value{Kind: KString, Str: s}
}

// AnInt returns an integer Value.
func AnInt(i int64) Value {
	return Value{Kind: KInt, Int: i}
}

// AFloat returns a floating point Value.
func AFloat(f float64) Value {
	return Value{Kind: KFloat, Float: f}
}

// ABool returns a boolean Value.
func ABool(b bool) Value {
	return Value{Kind: KBool, Bool: b}
}

// ValueOf converts a Go value as produced by a decoder (string, any integer,
// float, bool) into a Value.
func ValueOf(in interface{}) (Value, error) {
	switch v := in.(type) {
	case Value:
		return v, nil
	case string:
		return AString(v), nil
	case int:
		return AnInt(int64(v)), nil
	case int32:
		return AnInt(int64(v)), nil
	case int64:
		return AnInt(v), nil
	case uint64:
		return AnInt(int64(v)), nil
	case float32:
		return AFloat(float64(v)), nil
	case float64:
		return AFloat(v), nil
	case bool:
		return ABool(v), nil
	}
	return Value{}, fmt.Errorf("unsupported attribute value %v of type %T", in, in)
}

// IsSet returns true if the Value holds something.
func (v Value) IsSet() bool {
	return v.Kind != KNone
}

// Compare orders two values. Integers and floats compare numerically with
// each other; any other pair of different kinds is incomparable and returns
// ok=false.
func (v Value) Compare(other Value) (result int, ok bool) {
	if v.Kind != other.Kind {
		if v.isNumeric() && other.isNumeric() {
			return compareFloats(v.asFloat(), other.asFloat()), true
		}
		return 0, false
	}
	switch v.Kind {
	case KNone:
		return 0, true
	case KString:
		return strings.Compare(v.Str, other.Str), true
	case KInt:
		switch {
		case v.Int < other.Int:
			return -1, true
		case v.Int > other.Int:
			return 1, true
		}
		return 0, true
	case KFloat:
		return compareFloats(v.Float, other.Float), true
	case KBool:
		switch {
		case v.Bool == other.Bool:
			return 0, true
		case !v.Bool:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func (v Value) isNumeric() bool {
	return v.Kind == KInt || v.Kind == KFloat
}

func (v Value) asFloat() float64 {
	if v.Kind == KInt {
		return float64(v.Int)
	}
	return v.Float
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// String returns a human-readable representation, quoting strings.
func (v Value) String() string {
	switch v.Kind {
	case KString:
		return strconv.Quote(v.Str)
	case KInt:
		return strconv.FormatInt(v.Int, 10)
	case KFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KBool:
		return strconv.FormatBool(v.Bool)
	}
	return "<none>"
}

// Key implements cmp.Key. Values of different kinds never share a key.
func (v Value) Key(b *strings.Builder) {
	b.WriteString(v.Kind.String())
	b.WriteByte(':')
	b.WriteString(v.String())
}
