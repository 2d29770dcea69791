// Public domain.

package nirspec

import (
	"fmt"
	"path/filepath"

	"refconv/reffile"
	"refconv/transform"
)

// ConvertPCF converts a paraxial coordinate transform file, the
// delivery format of the camera and collimator models, into a
// reference file.  The team's forward fit maps sky to detector, the
// reverse of the pipeline direction, so the backward coefficient
// blocks become the forward polynomials of the output model.
func ConvertPCF(pcfPath, outPath string, meta reffile.Meta) error {
	v, err := readVendorFile(pcfPath)
	if err != nil {
		return err
	}
	deg, err := v.int(mFitOrder)
	if err != nil {
		return err
	}
	xFwd, err := v.poly(mXBackward, 0, deg, "x_poly_forward")
	if err != nil {
		return err
	}
	yFwd, err := v.poly(mYBackward, 0, deg, "y_poly_forward")
	if err != nil {
		return err
	}
	xBwd, err := v.poly(mXForward, 0, deg, "x_poly_backward")
	if err != nil {
		return err
	}
	yBwd, err := v.poly(mYForward, 0, deg, "y_poly_backward")
	if err != nil {
		return err
	}
	ls, err := v.linear(mFactor, mInCenter, mOutCenter)
	if err != nil {
		return err
	}

	modelPoly := polyCore(xFwd, yFwd, xBwd, yBwd)
	model := transform.Compose(modelPoly, ls.det2sky())

	f := reffile.New(meta)
	f.Tree["model"] = model
	f.AddHistory(fmt.Sprintf("Created from %s", filepath.Base(pcfPath)))
	return f.Write(outPath)
}

// ConvertOTE converts the telescope optical distortion file.  Same
// model shape as ConvertPCF; the delivery differs only in its marker
// spellings and in packing each coefficient block on one line.
func ConvertOTE(otePath, outPath string, meta reffile.Meta) error {
	v, err := readVendorFile(otePath)
	if err != nil {
		return err
	}
	deg, err := v.int(mFitOrder)
	if err != nil {
		return err
	}
	xFwd, err := v.polyLine(mXBackward, deg, "x_poly_forward")
	if err != nil {
		return err
	}
	yFwd, err := v.polyLine(mYBackward, deg, "y_poly_forward")
	if err != nil {
		return err
	}
	xBwd, err := v.polyLine(mXForward, deg, "x_poly_backward")
	if err != nil {
		return err
	}
	yBwd, err := v.polyLine(mYForward, deg, "y_poly_backward")
	if err != nil {
		return err
	}
	ls, err := v.linear(mFactor1, mInCenter1, mOutCenter1)
	if err != nil {
		return err
	}

	modelPoly := polyCore(xFwd, yFwd, xBwd, yBwd)
	model := transform.Compose(modelPoly, ls.det2sky())

	f := reffile.New(meta)
	f.Tree["model"] = model
	f.AddHistory(fmt.Sprintf("Created from %s", filepath.Base(otePath)))
	return f.Write(outPath)
}

// polyCore pairs the forward and backward polynomial fits into a
// two-axis distortion core: inputs fan out to both axis polynomials,
// each declared invertible by its opposite-direction fit.
func polyCore(xFwd, yFwd, xBwd, yBwd transform.Polynomial2D) transform.Pipeline {
	in := transform.Pair{
		Name: "input_mapping",
		Fwd:  transform.Mapping{Indices: []int{0, 1, 0, 1}, In: 2},
		Bwd:  transform.Identity{N: 2},
	}
	out := transform.Pair{
		Name: "output_mapping",
		Fwd:  transform.Identity{N: 2},
		Bwd:  transform.Mapping{Indices: []int{0, 1, 0, 1}, In: 2},
	}
	xPoly := transform.Pair{Name: "x_poly", Fwd: xFwd, Bwd: xBwd}
	yPoly := transform.Pair{Name: "y_poly", Fwd: yFwd, Bwd: yBwd}
	return transform.Compose(in, transform.Join(xPoly, yPoly), out)
}
