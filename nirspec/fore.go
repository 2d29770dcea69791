// Public domain.

package nirspec

import (
	"fmt"
	"path/filepath"

	"refconv/reffile"
	"refconv/transform"
)

// ConvertFore converts a filter FORE transform file.  FORE models are
// chromatic: each axis is a distortion polynomial in (x, y) plus a
// second polynomial scaled by the wavelength input, so the model takes
// (x, y, lam) and the delivered coefficient sections carry two
// 21-coefficient blocks back to back.
func ConvertFore(forePath, outPath string, meta reffile.Meta) error {
	v, err := readVendorFile(forePath)
	if err != nil {
		return err
	}
	deg, err := v.int(mFitOrder)
	if err != nil {
		return err
	}
	nc := (deg + 1) * (deg + 2) / 2

	modelX, err := chromaticAxis(v, mXBackward, mXForward, deg, nc, "fore_x")
	if err != nil {
		return err
	}
	modelY, err := chromaticAxis(v, mYBackward, mYForward, deg, nc, "fore_y")
	if err != nil {
		return err
	}
	ls, err := v.linear(mFactor, mInCenter, mOutCenter)
	if err != nil {
		return err
	}

	in := transform.Pair{
		Name: "input_mapping",
		Fwd:  transform.Mapping{Indices: []int{0, 1, 2, 0, 1, 2}, In: 3},
		Bwd:  transform.Identity{N: 2},
	}
	out := transform.Pair{
		Name: "output_mapping",
		Fwd:  transform.Identity{N: 2},
		Bwd:  transform.Mapping{Indices: []int{0, 1, 2, 0, 1, 2}, In: 3},
	}
	// The linear stage acts on (x, y) only; its backward direction
	// passes the wavelength through untouched.
	det2sky := ls.det2sky()
	inv, err := det2sky.Inverse()
	if err != nil {
		return err
	}
	linear := transform.Pair{
		Name: "fore_linear",
		Fwd:  det2sky,
		Bwd:  transform.Join(inv, transform.Identity{N: 1}),
	}

	model := transform.Compose(in, transform.Join(modelX, modelY), out, linear)

	f := reffile.New(meta)
	f.Tree["model"] = model
	f.AddHistory(fmt.Sprintf("Created from %s", filepath.Base(forePath)))
	return f.Write(outPath)
}

// chromaticAxis builds one axis of a FORE model from a coefficient
// section holding the base fit followed by the wavelength-scaled
// distortion fit.  fwdM is the section giving the pipeline-forward
// direction (the team's backward), bwdM the reverse.
func chromaticAxis(v *vendorFile, fwdM, bwdM string, deg, nc int, name string) (transform.Pair, error) {
	fwd, err := chromaticTerm(v, fwdM, deg, nc)
	if err != nil {
		return transform.Pair{}, err
	}
	bwd, err := chromaticTerm(v, bwdM, deg, nc)
	if err != nil {
		return transform.Pair{}, err
	}
	return transform.Pair{Name: name, Fwd: fwd, Bwd: bwd}, nil
}

// chromaticTerm assembles poly(x,y) + poly_distortion(x,y)*lam as a
// 3-input transform.
func chromaticTerm(v *vendorFile, m string, deg, nc int) (transform.Transform, error) {
	base, err := v.poly(m, 0, deg, "poly")
	if err != nil {
		return nil, err
	}
	// the distortion block directly follows the base block
	dist, err := v.poly(m, nc, deg, "poly_distortion")
	if err != nil {
		return nil, err
	}
	xy := transform.Mapping{Indices: []int{0, 1}, In: 3}
	lam := transform.Mapping{Indices: []int{2}, In: 3}
	return transform.Sum{
		A: transform.Compose(xy, base),
		B: transform.Prod{
			A: transform.Compose(xy, dist),
			B: transform.Compose(lam, transform.Identity{N: 1}),
		},
	}, nil
}
