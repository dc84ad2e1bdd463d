package mtlx

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	TypeFloat         = "float"
	TypeInteger       = "integer"
	TypeBoolean       = "boolean"
	TypeString        = "string"
	TypeFilename      = "filename"
	TypeColor3        = "color3"
	TypeColor4        = "color4"
	TypeVector2       = "vector2"
	TypeVector3       = "vector3"
	TypeVector4       = "vector4"
	TypeSurfaceShader = "surfaceshader"
	TypeMaterial      = "material"
	TypeMultiOutput   = "multioutput"
)

var errValueType = errors.New("mtlx: unsupported value type")

type Color3 [3]float32

type Color4 [4]float32

type Vector3 [3]float32

// Value is a typed literal held by an input. The zero Value has no type and
// means "no value".
type Value struct {
	typ  string
	nums []float32
	str  string
}

func FloatValue(f float32) Value {
	return Value{typ: TypeFloat, nums: []float32{f}}
}

func IntValue(i int) Value {
	return Value{typ: TypeInteger, nums: []float32{float32(i)}}
}

func BoolValue(b bool) Value {
	if b {
		return Value{typ: TypeBoolean, nums: []float32{1}}
	}
	return Value{typ: TypeBoolean, nums: []float32{0}}
}

func StringValue(s string) Value {
	return Value{typ: TypeString, str: s}
}

func FilenameValue(s string) Value {
	return Value{typ: TypeFilename, str: s}
}

func Color3Value(c Color3) Value {
	return Value{typ: TypeColor3, nums: []float32{c[0], c[1], c[2]}}
}

func Color4Value(c Color4) Value {
	return Value{typ: TypeColor4, nums: []float32{c[0], c[1], c[2], c[3]}}
}

func Vector3Value(v Vector3) Value {
	return Value{typ: TypeVector3, nums: []float32{v[0], v[1], v[2]}}
}

func (v Value) Type() string {
	return v.typ
}

func (v Value) IsZero() bool {
	return v.typ == ""
}

func (v Value) Float() (float32, bool) {
	if len(v.nums) != 1 || v.typ == TypeBoolean {
		return 0, false
	}
	return v.nums[0], true
}

func (v Value) Int() (int, bool) {
	if v.typ != TypeInteger {
		return 0, false
	}
	return int(v.nums[0]), true
}

func (v Value) Bool() (bool, bool) {
	if v.typ != TypeBoolean {
		return false, false
	}
	return v.nums[0] != 0, true
}

// Color3 accepts any value with at least three components.
func (v Value) Color3() (Color3, bool) {
	if len(v.nums) < 3 {
		return Color3{}, false
	}
	return Color3{v.nums[0], v.nums[1], v.nums[2]}, true
}

func (v Value) Color4() (Color4, bool) {
	if len(v.nums) != 4 {
		return Color4{}, false
	}
	return Color4{v.nums[0], v.nums[1], v.nums[2], v.nums[3]}, true
}

// Text returns the string payload of string and filename values.
func (v Value) Text() (string, bool) {
	if v.typ != TypeString && v.typ != TypeFilename {
		return "", false
	}
	return v.str, true
}

// String returns the value in document form, e.g. "0.5, 0.5, 1".
func (v Value) String() string {
	if len(v.nums) == 0 {
		return v.str
	}
	switch v.typ {
	case TypeBoolean:
		if v.nums[0] != 0 {
			return "true"
		}
		return "false"
	case TypeInteger:
		return strconv.Itoa(int(v.nums[0]))
	}
	parts := make([]string, len(v.nums))
	for i, f := range v.nums {
		parts[i] = strconv.FormatFloat(float64(f), 'g', -1, 32)
	}
	return strings.Join(parts, ", ")
}

func componentCount(typ string) int {
	switch typ {
	case TypeFloat:
		return 1
	case TypeVector2:
		return 2
	case TypeColor3, TypeVector3:
		return 3
	case TypeColor4, TypeVector4:
		return 4
	}
	return 0
}

// ParseValue parses the document form of a value of the given type.
func ParseValue(typ, s string) (Value, error) {
	s = strings.TrimSpace(s)
	switch typ {
	case TypeString:
		return StringValue(s), nil
	case TypeFilename:
		return FilenameValue(s), nil
	case TypeBoolean:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return Value{}, fmt.Errorf("mtlx: parse %s %q: %w", typ, s, err)
		}
		return BoolValue(b), nil
	case TypeInteger:
		i, err := strconv.Atoi(s)
		if err != nil {
			return Value{}, fmt.Errorf("mtlx: parse %s %q: %w", typ, s, err)
		}
		return IntValue(i), nil
	}
	n := componentCount(typ)
	if n == 0 {
		return Value{}, fmt.Errorf("%w: %s", errValueType, typ)
	}
	fields := strings.Split(s, ",")
	if len(fields) != n {
		return Value{}, fmt.Errorf("mtlx: parse %s %q: want %d components, got %d", typ, s, n, len(fields))
	}
	nums := make([]float32, n)
	for i, f := range fields {
		x, err := strconv.ParseFloat(strings.TrimSpace(f), 32)
		if err != nil {
			return Value{}, fmt.Errorf("mtlx: parse %s %q: %w", typ, s, err)
		}
		nums[i] = float32(x)
	}
	return Value{typ: typ, nums: nums}, nil
}
