// Public domain.

package transform

import "fmt"

// Polynomial1D evaluates c0 + c1*x + c2*x^2 + ...  The vendor files
// deliver forward and backward fits separately; a polynomial on its
// own has no inverse.
type Polynomial1D struct {
	Name   string
	Coeffs []float64
}

func (p Polynomial1D) NIn() int  { return 1 }
func (p Polynomial1D) NOut() int { return 1 }

func (p Polynomial1D) Eval(in []float64) ([]float64, error) {
	if err := checkIn(p, in); err != nil {
		return nil, err
	}
	x := in[0]
	var y float64
	for i := len(p.Coeffs) - 1; i >= 0; i-- {
		y = y*x + p.Coeffs[i]
	}
	return []float64{y}, nil
}

func (p Polynomial1D) Inverse() (Transform, error) {
	return nil, fmt.Errorf("polynomial: %w", ErrNoInverse)
}

// Polynomial2D evaluates the triangular surface
//
//	sum of C[i][j] * x^i * y^j  for i+j <= Degree.
//
// Row i of C holds coefficients c_{i,0} .. c_{i,Degree-i}.
type Polynomial2D struct {
	Name   string
	Degree int
	C      [][]float64
}

// Poly2DFromList builds a Polynomial2D from a flat coefficient list in
// the delivery order of the vendor coefficient blocks: index pairs
// (i, j) enumerated with i outermost, keeping i+j <= degree.
func Poly2DFromList(degree int, flat []float64) (Polynomial2D, error) {
	want := (degree + 1) * (degree + 2) / 2
	if len(flat) != want {
		return Polynomial2D{}, fmt.Errorf(
			"polynomial degree %d wants %d coefficients, got %d",
			degree, want, len(flat))
	}
	c := make([][]float64, degree+1)
	k := 0
	for i := 0; i <= degree; i++ {
		c[i] = make([]float64, degree+1-i)
		for j := 0; j <= degree-i; j++ {
			c[i][j] = flat[k]
			k++
		}
	}
	return Polynomial2D{Degree: degree, C: c}, nil
}

func (p Polynomial2D) NIn() int  { return 2 }
func (p Polynomial2D) NOut() int { return 1 }

func (p Polynomial2D) Eval(in []float64) ([]float64, error) {
	if err := checkIn(p, in); err != nil {
		return nil, err
	}
	x, y := in[0], in[1]
	var sum float64
	xi := 1.
	for i := range p.C {
		yj := 1.
		for j := range p.C[i] {
			sum += p.C[i][j] * xi * yj
			yj *= y
		}
		xi *= x
	}
	return []float64{sum}, nil
}

func (p Polynomial2D) Inverse() (Transform, error) {
	return nil, fmt.Errorf("polynomial: %w", ErrNoInverse)
}

// Sum evaluates A + B on the same inputs.  Both operands must produce
// a single output.  Used for the chromatic distortion correction
// terms; a sum has no inverse of its own.
type Sum struct {
	Name string
	A, B Transform
}

func (s Sum) NIn() int  { return s.A.NIn() }
func (s Sum) NOut() int { return 1 }

func (s Sum) Eval(in []float64) ([]float64, error) {
	a, err := s.A.Eval(in)
	if err != nil {
		return nil, err
	}
	b, err := s.B.Eval(in)
	if err != nil {
		return nil, err
	}
	if len(a) != 1 || len(b) != 1 {
		return nil, fmt.Errorf("sum of transforms with %d and %d outputs", len(a), len(b))
	}
	return []float64{a[0] + b[0]}, nil
}

func (s Sum) Inverse() (Transform, error) {
	return nil, fmt.Errorf("sum: %w", ErrNoInverse)
}

// Prod evaluates A * B on the same inputs, as Sum does.
type Prod struct {
	Name string
	A, B Transform
}

func (p Prod) NIn() int  { return p.A.NIn() }
func (p Prod) NOut() int { return 1 }

func (p Prod) Eval(in []float64) ([]float64, error) {
	a, err := p.A.Eval(in)
	if err != nil {
		return nil, err
	}
	b, err := p.B.Eval(in)
	if err != nil {
		return nil, err
	}
	if len(a) != 1 || len(b) != 1 {
		return nil, fmt.Errorf("product of transforms with %d and %d outputs", len(a), len(b))
	}
	return []float64{a[0] * b[0]}, nil
}

func (p Prod) Inverse() (Transform, error) {
	return nil, fmt.Errorf("product: %w", ErrNoInverse)
}
