package mtlxgltf

import (
	"fmt"
	"reflect"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// unpackFloats decodes an accessor into a flat float sequence of
// acc.Type.Components() values per element. Normalized integer components
// are mapped into [0,1] or [-1,1].
func unpackFloats(doc *gltf.Document, acc *gltf.Accessor) ([]float32, error) {
	data, err := modeler.ReadAccessor(doc, acc, nil)
	if err != nil {
		return nil, err
	}
	switch v := data.(type) {
	case []float32:
		return v, nil
	case [][2]float32:
		out := make([]float32, 0, len(v)*2)
		for _, e := range v {
			out = append(out, e[:]...)
		}
		return out, nil
	case [][3]float32:
		out := make([]float32, 0, len(v)*3)
		for _, e := range v {
			out = append(out, e[:]...)
		}
		return out, nil
	case [][4]float32:
		out := make([]float32, 0, len(v)*4)
		for _, e := range v {
			out = append(out, e[:]...)
		}
		return out, nil
	}
	return unpackIntegers(data, acc.Normalized)
}

func unpackIntegers(data any, normalized bool) ([]float32, error) {
	rv := reflect.ValueOf(data)
	if rv.Kind() != reflect.Slice {
		return nil, fmt.Errorf("mtlxgltf: unexpected accessor data %T", data)
	}
	var out []float32
	push := func(c reflect.Value) error {
		switch c.Kind() {
		case reflect.Float32, reflect.Float64:
			out = append(out, float32(c.Float()))
		case reflect.Uint8, reflect.Uint16, reflect.Uint32:
			f := float32(c.Uint())
			if normalized {
				f /= float32(uint64(1)<<(8*c.Type().Size()) - 1)
			}
			out = append(out, f)
		case reflect.Int8, reflect.Int16:
			f := float32(c.Int())
			if normalized {
				f /= float32(int64(1)<<(8*c.Type().Size()-1) - 1)
				if f < -1 {
					f = -1
				}
			}
			out = append(out, f)
		default:
			return fmt.Errorf("mtlxgltf: unexpected accessor component %s", c.Kind())
		}
		return nil
	}
	for i := 0; i < rv.Len(); i++ {
		e := rv.Index(i)
		if e.Kind() != reflect.Array {
			if err := push(e); err != nil {
				return nil, err
			}
			continue
		}
		for j := 0; j < e.Len(); j++ {
			if err := push(e.Index(j)); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

func readIndices(doc *gltf.Document, acc *gltf.Accessor) ([]uint32, error) {
	return modeler.ReadIndices(doc, acc, nil)
}
