// Public domain.

// Package transform models the invertible coordinate transforms that
// make up an instrument's optical path description: shifts, rotations,
// scalings, affine maps, polynomial distortions and coordinate
// remappings, composed serially or in parallel.
//
// Transforms evaluate forward with Eval.  Most primitives know their
// own inverse; polynomial surfaces do not, and the vendor-supplied
// backward fit is attached with Pair.  No numerical inversion is ever
// performed.
package transform

import (
	"errors"
	"fmt"

	"github.com/soniakeys/unit"
)

// ErrNoInverse is returned by Inverse for transforms with no defined
// or declared inverse.
var ErrNoInverse = errors.New("transform has no defined inverse")

// A Transform maps an input coordinate vector to an output vector.
type Transform interface {
	// NIn returns the number of input coordinates.
	NIn() int
	// NOut returns the number of output coordinates.
	NOut() int
	// Eval applies the transform.  The input length must equal NIn.
	Eval(in []float64) ([]float64, error)
	// Inverse returns the inverse transform, or ErrNoInverse.
	Inverse() (Transform, error)
}

func checkIn(t Transform, in []float64) error {
	if len(in) != t.NIn() {
		return fmt.Errorf("transform: got %d inputs, want %d", len(in), t.NIn())
	}
	return nil
}

// Shift translates a single coordinate by a fixed offset.
type Shift struct {
	Name   string
	Offset float64
}

func (s Shift) NIn() int  { return 1 }
func (s Shift) NOut() int { return 1 }

func (s Shift) Eval(in []float64) ([]float64, error) {
	if err := checkIn(s, in); err != nil {
		return nil, err
	}
	return []float64{in[0] + s.Offset}, nil
}

func (s Shift) Inverse() (Transform, error) {
	return Shift{Offset: -s.Offset}, nil
}

// Scale multiplies a single coordinate by a fixed factor.
type Scale struct {
	Name   string
	Factor float64
}

func (s Scale) NIn() int  { return 1 }
func (s Scale) NOut() int { return 1 }

func (s Scale) Eval(in []float64) ([]float64, error) {
	if err := checkIn(s, in); err != nil {
		return nil, err
	}
	return []float64{in[0] * s.Factor}, nil
}

func (s Scale) Inverse() (Transform, error) {
	if s.Factor == 0 {
		return nil, fmt.Errorf("scale by zero: %w", ErrNoInverse)
	}
	return Scale{Factor: 1 / s.Factor}, nil
}

// Identity passes n coordinates through unchanged.
type Identity struct {
	Name string
	N    int
}

func (id Identity) NIn() int  { return id.N }
func (id Identity) NOut() int { return id.N }

func (id Identity) Eval(in []float64) ([]float64, error) {
	if err := checkIn(id, in); err != nil {
		return nil, err
	}
	out := make([]float64, len(in))
	copy(out, in)
	return out, nil
}

func (id Identity) Inverse() (Transform, error) { return id, nil }

// Mapping reorders, selects or duplicates input coordinates.  Each
// output coordinate is the input at the corresponding index.  A
// mapping that drops or duplicates coordinates has no inverse of its
// own; declare one with Pair.
type Mapping struct {
	Name    string
	Indices []int
	In      int
}

func (m Mapping) NIn() int  { return m.In }
func (m Mapping) NOut() int { return len(m.Indices) }

func (m Mapping) Eval(in []float64) ([]float64, error) {
	if err := checkIn(m, in); err != nil {
		return nil, err
	}
	out := make([]float64, len(m.Indices))
	for i, ix := range m.Indices {
		if ix < 0 || ix >= len(in) {
			return nil, fmt.Errorf("mapping index %d out of range", ix)
		}
		out[i] = in[ix]
	}
	return out, nil
}

func (m Mapping) Inverse() (Transform, error) {
	return nil, fmt.Errorf("mapping: %w", ErrNoInverse)
}

// Rotation2D rotates (x, y) counterclockwise.
type Rotation2D struct {
	Name  string
	Angle unit.Angle
}

func (r Rotation2D) NIn() int  { return 2 }
func (r Rotation2D) NOut() int { return 2 }

func (r Rotation2D) Eval(in []float64) ([]float64, error) {
	if err := checkIn(r, in); err != nil {
		return nil, err
	}
	sin, cos := r.Angle.Sin(), r.Angle.Cos()
	return []float64{
		in[0]*cos - in[1]*sin,
		in[0]*sin + in[1]*cos,
	}, nil
}

func (r Rotation2D) Inverse() (Transform, error) {
	return Rotation2D{Angle: -r.Angle}, nil
}

// Affine2D applies a 2x2 matrix to (x, y).
type Affine2D struct {
	Name   string
	Matrix [2][2]float64
}

func (a Affine2D) NIn() int  { return 2 }
func (a Affine2D) NOut() int { return 2 }

func (a Affine2D) Eval(in []float64) ([]float64, error) {
	if err := checkIn(a, in); err != nil {
		return nil, err
	}
	m := a.Matrix
	return []float64{
		m[0][0]*in[0] + m[0][1]*in[1],
		m[1][0]*in[0] + m[1][1]*in[1],
	}, nil
}

func (a Affine2D) Inverse() (Transform, error) {
	m := a.Matrix
	det := m[0][0]*m[1][1] - m[0][1]*m[1][0]
	if det == 0 {
		return nil, fmt.Errorf("singular affine matrix: %w", ErrNoInverse)
	}
	return Affine2D{Matrix: [2][2]float64{
		{m[1][1] / det, -m[0][1] / det},
		{-m[1][0] / det, m[0][0] / det},
	}}, nil
}

// Pair binds a forward transform to an explicitly declared backward
// transform.  The two are trusted to be mutual inverses; no
// verification is performed.
type Pair struct {
	Name string
	Fwd  Transform
	Bwd  Transform
}

func (p Pair) NIn() int  { return p.Fwd.NIn() }
func (p Pair) NOut() int { return p.Fwd.NOut() }

func (p Pair) Eval(in []float64) ([]float64, error) { return p.Fwd.Eval(in) }

func (p Pair) Inverse() (Transform, error) {
	return Pair{Fwd: p.Bwd, Bwd: p.Fwd}, nil
}
