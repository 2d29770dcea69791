// Public domain.

package reffile

import (
	"fmt"

	"github.com/soniakeys/unit"

	"refconv/transform"
)

// Transforms serialize as mappings with a "transform" kind key, so a
// reader can reconstruct the composed model without reference to the
// producing code.  Rotation angles are stored in degrees, the
// convention of the vendor files.

func encodeTree(tree map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(tree))
	for k, v := range tree {
		ev, err := encodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("tree key %s: %w", k, err)
		}
		out[k] = ev
	}
	return out, nil
}

func encodeValue(v any) (any, error) {
	switch v := v.(type) {
	case transform.Transform:
		return encodeTransform(v)
	case map[string]any:
		return encodeTree(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			ev, err := encodeValue(e)
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	case []transform.Transform:
		out := make([]any, len(v))
		for i, t := range v {
			et, err := encodeTransform(t)
			if err != nil {
				return nil, err
			}
			out[i] = et
		}
		return out, nil
	default:
		return v, nil
	}
}

func encodeTransform(t transform.Transform) (map[string]any, error) {
	m := make(map[string]any)
	named := func(kind, name string) {
		m["transform"] = kind
		if name != "" {
			m["name"] = name
		}
	}
	switch t := t.(type) {
	case transform.Shift:
		named("shift", t.Name)
		m["offset"] = t.Offset
	case transform.Scale:
		named("scale", t.Name)
		m["factor"] = t.Factor
	case transform.Identity:
		named("identity", t.Name)
		m["n"] = t.N
	case transform.Mapping:
		named("remap_axes", t.Name)
		m["mapping"] = t.Indices
		m["inputs"] = t.In
	case transform.Rotation2D:
		named("rotate2d", t.Name)
		m["angle"] = t.Angle.Deg()
	case transform.Affine2D:
		named("affine2d", t.Name)
		m["matrix"] = [][]float64{
			{t.Matrix[0][0], t.Matrix[0][1]},
			{t.Matrix[1][0], t.Matrix[1][1]},
		}
	case transform.Polynomial1D:
		named("polynomial1d", t.Name)
		m["coefficients"] = t.Coeffs
	case transform.Polynomial2D:
		named("polynomial2d", t.Name)
		m["degree"] = t.Degree
		m["coefficients"] = t.C
	case transform.Pair:
		named("pair", t.Name)
		fwd, err := encodeTransform(t.Fwd)
		if err != nil {
			return nil, err
		}
		bwd, err := encodeTransform(t.Bwd)
		if err != nil {
			return nil, err
		}
		m["forward"] = fwd
		m["backward"] = bwd
	case transform.Pipeline:
		named("compose", t.Name)
		steps := make([]any, len(t.Steps))
		for i, s := range t.Steps {
			es, err := encodeTransform(s)
			if err != nil {
				return nil, err
			}
			steps[i] = es
		}
		m["steps"] = steps
	case transform.Parallel:
		named("concatenate", t.Name)
		parts := make([]any, len(t.Parts))
		for i, p := range t.Parts {
			ep, err := encodeTransform(p)
			if err != nil {
				return nil, err
			}
			parts[i] = ep
		}
		m["parts"] = parts
	case transform.Sum:
		named("add", t.Name)
		a, err := encodeTransform(t.A)
		if err != nil {
			return nil, err
		}
		b, err := encodeTransform(t.B)
		if err != nil {
			return nil, err
		}
		m["a"], m["b"] = a, b
	case transform.Prod:
		named("multiply", t.Name)
		a, err := encodeTransform(t.A)
		if err != nil {
			return nil, err
		}
		b, err := encodeTransform(t.B)
		if err != nil {
			return nil, err
		}
		m["a"], m["b"] = a, b
	default:
		return nil, fmt.Errorf("cannot serialize transform type %T", t)
	}
	return m, nil
}

func decodeTree(tree map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(tree))
	for k, v := range tree {
		dv, err := decodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("tree key %s: %w", k, err)
		}
		out[k] = dv
	}
	return out, nil
}

func decodeValue(v any) (any, error) {
	switch v := v.(type) {
	case map[string]any:
		if _, ok := v["transform"]; ok {
			return decodeTransform(v)
		}
		return decodeTree(v)
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			de, err := decodeValue(e)
			if err != nil {
				return nil, err
			}
			out[i] = de
		}
		return out, nil
	default:
		return v, nil
	}
}

func decodeTransform(m map[string]any) (transform.Transform, error) {
	kind, _ := m["transform"].(string)
	name, _ := m["name"].(string)
	switch kind {
	case "shift":
		o, err := asFloat(m["offset"])
		if err != nil {
			return nil, err
		}
		return transform.Shift{Name: name, Offset: o}, nil
	case "scale":
		f, err := asFloat(m["factor"])
		if err != nil {
			return nil, err
		}
		return transform.Scale{Name: name, Factor: f}, nil
	case "identity":
		n, err := asInt(m["n"])
		if err != nil {
			return nil, err
		}
		return transform.Identity{Name: name, N: n}, nil
	case "remap_axes":
		ix, err := asInts(m["mapping"])
		if err != nil {
			return nil, err
		}
		in, err := asInt(m["inputs"])
		if err != nil {
			return nil, err
		}
		return transform.Mapping{Name: name, Indices: ix, In: in}, nil
	case "rotate2d":
		deg, err := asFloat(m["angle"])
		if err != nil {
			return nil, err
		}
		return transform.Rotation2D{Name: name, Angle: unit.AngleFromDeg(deg)}, nil
	case "affine2d":
		rows, err := asFloatRows(m["matrix"])
		if err != nil {
			return nil, err
		}
		if len(rows) != 2 || len(rows[0]) != 2 || len(rows[1]) != 2 {
			return nil, fmt.Errorf("affine2d matrix is not 2x2")
		}
		return transform.Affine2D{Name: name, Matrix: [2][2]float64{
			{rows[0][0], rows[0][1]},
			{rows[1][0], rows[1][1]},
		}}, nil
	case "polynomial1d":
		cs, err := asFloats(m["coefficients"])
		if err != nil {
			return nil, err
		}
		return transform.Polynomial1D{Name: name, Coeffs: cs}, nil
	case "polynomial2d":
		deg, err := asInt(m["degree"])
		if err != nil {
			return nil, err
		}
		rows, err := asFloatRows(m["coefficients"])
		if err != nil {
			return nil, err
		}
		return transform.Polynomial2D{Name: name, Degree: deg, C: rows}, nil
	case "pair":
		fwd, err := decodeSub(m["forward"])
		if err != nil {
			return nil, err
		}
		bwd, err := decodeSub(m["backward"])
		if err != nil {
			return nil, err
		}
		return transform.Pair{Name: name, Fwd: fwd, Bwd: bwd}, nil
	case "compose":
		steps, err := decodeSubList(m["steps"])
		if err != nil {
			return nil, err
		}
		return transform.Pipeline{Name: name, Steps: steps}, nil
	case "concatenate":
		parts, err := decodeSubList(m["parts"])
		if err != nil {
			return nil, err
		}
		return transform.Parallel{Name: name, Parts: parts}, nil
	case "add":
		a, err := decodeSub(m["a"])
		if err != nil {
			return nil, err
		}
		b, err := decodeSub(m["b"])
		if err != nil {
			return nil, err
		}
		return transform.Sum{Name: name, A: a, B: b}, nil
	case "multiply":
		a, err := decodeSub(m["a"])
		if err != nil {
			return nil, err
		}
		b, err := decodeSub(m["b"])
		if err != nil {
			return nil, err
		}
		return transform.Prod{Name: name, A: a, B: b}, nil
	}
	return nil, fmt.Errorf("unknown transform kind %q", kind)
}

func decodeSub(v any) (transform.Transform, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected transform mapping, got %T", v)
	}
	return decodeTransform(m)
}

func decodeSubList(v any) ([]transform.Transform, error) {
	l, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected transform list, got %T", v)
	}
	ts := make([]transform.Transform, len(l))
	for i, e := range l {
		t, err := decodeSub(e)
		if err != nil {
			return nil, err
		}
		ts[i] = t
	}
	return ts, nil
}

func asFloat(v any) (float64, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}

func asInt(v any) (int, error) {
	switch v := v.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	}
	return 0, fmt.Errorf("expected integer, got %T", v)
}

func asFloats(v any) ([]float64, error) {
	l, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected number list, got %T", v)
	}
	fs := make([]float64, len(l))
	for i, e := range l {
		f, err := asFloat(e)
		if err != nil {
			return nil, err
		}
		fs[i] = f
	}
	return fs, nil
}

func asInts(v any) ([]int, error) {
	l, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected integer list, got %T", v)
	}
	ns := make([]int, len(l))
	for i, e := range l {
		n, err := asInt(e)
		if err != nil {
			return nil, err
		}
		ns[i] = n
	}
	return ns, nil
}

func asFloatRows(v any) ([][]float64, error) {
	l, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected coefficient rows, got %T", v)
	}
	rows := make([][]float64, len(l))
	for i, e := range l {
		r, err := asFloats(e)
		if err != nil {
			return nil, err
		}
		rows[i] = r
	}
	return rows, nil
}
