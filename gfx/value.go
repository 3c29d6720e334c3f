package gfx

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is the type of value stored in Value.
type Kind uint8

// Kinds of values.
const (
	KindEmpty Kind = iota
	KindBool
	KindFloat
	KindDouble
	KindInt
	KindInt64
)

var kindNames = map[Kind]string{
	KindEmpty:  "empty",
	KindBool:   "bool",
	KindFloat:  "float",
	KindDouble: "double",
	KindInt:    "int",
	KindInt64:  "int64",
}

func (k Kind) String() string {
	if name, exists := kindNames[k]; exists {
		return name
	}
	return fmt.Sprintf("kind(%d)", k)
}

// Value is the tagged value of render parameter.
type Value struct {
	kind Kind
	b    bool
	f    float32
	d    float64
	i    int32
	i64  int64
}

// Bool creates bool value.
func Bool(v bool) Value {
	return Value{kind: KindBool, b: v}
}

// Float creates float value.
func Float(v float32) Value {
	return Value{kind: KindFloat, f: v}
}

// Double creates double value.
func Double(v float64) Value {
	return Value{kind: KindDouble, d: v}
}

// Int creates int value.
func Int(v int32) Value {
	return Value{kind: KindInt, i: v}
}

// Int64 creates int64 value.
func Int64(v int64) Value {
	return Value{kind: KindInt64, i64: v}
}

// Kind returns kind of the value.
func (v Value) Kind() Kind {
	return v.kind
}

// Bool returns bool value.
func (v Value) Bool() bool {
	v.mustBe(KindBool)
	return v.b
}

// Float returns float value.
func (v Value) Float() float32 {
	v.mustBe(KindFloat)
	return v.f
}

// Double returns double value.
func (v Value) Double() float64 {
	v.mustBe(KindDouble)
	return v.d
}

// Int returns int value.
func (v Value) Int() int32 {
	v.mustBe(KindInt)
	return v.i
}

// Int64 returns int64 value.
func (v Value) Int64() int64 {
	v.mustBe(KindInt64)
	return v.i64
}

// Equal compares kinds first and then values.
func (v Value) Equal(other Value) bool {
	return v == other
}

func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindFloat:
		return fmt.Sprintf("%gf", v.f)
	case KindDouble:
		return fmt.Sprintf("%g", v.d)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindInt64:
		return fmt.Sprintf("%dl", v.i64)
	default:
		return "<empty>"
	}
}

func (v Value) mustBe(kind Kind) {
	if v.kind != kind {
		panic(errors.Errorf("value of kind %s read as %s", v.kind, kind))
	}
}
