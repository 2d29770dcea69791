// Public domain.

// Package nirspec converts the NIRSpec team's delivered calibration
// description files (.pcf coordinate transform fits, .dis disperser
// descriptions, .gtp tilt calibrations, .fpa detector geometry, FITS
// slit and slicer descriptions) into standardized reference files.
//
// The team files call "forward" the transform from sky to detector.
// In the downstream pipeline this is the backward transform; every
// converter here takes that into account when linking forward and
// backward polynomial fits.
package nirspec

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/soniakeys/unit"

	"refconv/transform"
)

// ErrMalformed reports a vendor file missing a required marker
// section or carrying an unparseable value.
var ErrMalformed = errors.New("malformed reference file")

// Marker lines announcing the fixed-size sections of a .pcf file.
const (
	mFitOrder   = "*FitOrder"
	mFactor     = "*Factor 2"
	mRotation   = "*Rotation"
	mInCenter   = "*InputRotationCentre 2"
	mOutCenter  = "*OutputRotationCentre 2"
	mXForward   = "*xForwardCoefficients 21 2"
	mYForward   = "*yForwardCoefficients 21 2"
	mXBackward  = "*xBackwardCoefficients 21 2"
	mYBackward  = "*yBackwardCoefficients 21 2"
	mFactor1    = "*Factor 2 1"
	mInCenter1  = "*InputRotationCentre 2 1"
	mOutCenter1 = "*OutputRotationCentre 2 1"
)

// vendorFile holds the trimmed lines of one delivered text file,
// read completely before any section is interpreted.
type vendorFile struct {
	name  string
	lines []string
}

func readVendorFile(path string) (*vendorFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	v := &vendorFile{name: filepath.Base(path)}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		v.lines = append(v.lines, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %v", v.name, err)
	}
	return v, nil
}

// marker locates an exact-match sentinel line.
func (v *vendorFile) marker(m string) (int, error) {
	for i, l := range v.lines {
		if l == m {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%s: missing section %q: %w", v.name, m, ErrMalformed)
}

// after returns the single line following a marker.
func (v *vendorFile) after(m string) (string, error) {
	i, err := v.marker(m)
	if err != nil {
		return "", err
	}
	if i+1 >= len(v.lines) {
		return "", fmt.Errorf("%s: section %q truncated: %w", v.name, m, ErrMalformed)
	}
	return v.lines[i+1], nil
}

// block returns n lines starting skip lines past the marker's
// following line.
func (v *vendorFile) block(m string, skip, n int) ([]string, error) {
	i, err := v.marker(m)
	if err != nil {
		return nil, err
	}
	lo := i + 1 + skip
	if lo+n > len(v.lines) {
		return nil, fmt.Errorf("%s: section %q truncated: %w", v.name, m, ErrMalformed)
	}
	return v.lines[lo : lo+n], nil
}

func (v *vendorFile) float(m string) (float64, error) {
	l, err := v.after(m)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(l, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: section %q: %v: %w", v.name, m, err, ErrMalformed)
	}
	return f, nil
}

func (v *vendorFile) int(m string) (int, error) {
	l, err := v.after(m)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(l)
	if err != nil {
		return 0, fmt.Errorf("%s: section %q: %v: %w", v.name, m, err, ErrMalformed)
	}
	return n, nil
}

// floats parses the whitespace-separated fields of the line following
// a marker.
func (v *vendorFile) floats(m string) ([]float64, error) {
	l, err := v.after(m)
	if err != nil {
		return nil, err
	}
	return v.parseFields(m, strings.Fields(l))
}

func (v *vendorFile) parseFields(m string, fields []string) ([]float64, error) {
	fs := make([]float64, len(fields))
	for i, fld := range fields {
		f, err := strconv.ParseFloat(fld, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: section %q: %v: %w", v.name, m, err, ErrMalformed)
		}
		fs[i] = f
	}
	return fs, nil
}

// pair extracts a two-element section such as a rotation center.
func (v *vendorFile) pair(m string) ([2]float64, error) {
	fs, err := v.floats(m)
	if err != nil {
		return [2]float64{}, err
	}
	if len(fs) != 2 {
		return [2]float64{}, fmt.Errorf("%s: section %q: want 2 values, got %d: %w",
			v.name, m, len(fs), ErrMalformed)
	}
	return [2]float64{fs[0], fs[1]}, nil
}

// poly reads a polynomial coefficient block: one coefficient per line,
// skip lines past the marker, in the delivery order of
// coeffs_from_pcf (i outermost, i+j <= degree).
func (v *vendorFile) poly(m string, skip, degree int, name string) (transform.Polynomial2D, error) {
	n := (degree + 1) * (degree + 2) / 2
	lines, err := v.block(m, skip, n)
	if err != nil {
		return transform.Polynomial2D{}, err
	}
	flat, err := v.parseFields(m, lines)
	if err != nil {
		return transform.Polynomial2D{}, err
	}
	p, err := transform.Poly2DFromList(degree, flat)
	if err != nil {
		return transform.Polynomial2D{}, fmt.Errorf("%s: section %q: %v: %w",
			v.name, m, err, ErrMalformed)
	}
	p.Name = name
	return p, nil
}

// polyLine reads a coefficient block delivered as a single
// tab-separated line, the OTE variant.
func (v *vendorFile) polyLine(m string, degree int, name string) (transform.Polynomial2D, error) {
	l, err := v.after(m)
	if err != nil {
		return transform.Polynomial2D{}, err
	}
	flat, err := v.parseFields(m, strings.Fields(l))
	if err != nil {
		return transform.Polynomial2D{}, err
	}
	p, err := transform.Poly2DFromList(degree, flat)
	if err != nil {
		return transform.Polynomial2D{}, fmt.Errorf("%s: section %q: %v: %w",
			v.name, m, err, ErrMalformed)
	}
	p.Name = name
	return p, nil
}

// homotheticSky2Det composes the shift, rotation and scale of a .pcf
// linear section in the sky-to-detector direction.
func homotheticSky2Det(inCenter [2]float64, angle unit.Angle, scale, outCenter [2]float64) transform.Pipeline {
	sin, cos := angle.Sin(), angle.Cos()
	mat := [2][2]float64{
		{scale[0] * cos, scale[0] * sin},
		{-scale[1] * sin, scale[1] * cos},
	}
	return transform.Compose(
		transform.Join(
			transform.Shift{Name: "x_shift", Offset: -inCenter[0]},
			transform.Shift{Name: "y_shift", Offset: -inCenter[1]},
		),
		transform.Affine2D{Name: "affine_sky2det", Matrix: mat},
		transform.Join(
			transform.Shift{Name: "x_shift", Offset: outCenter[0]},
			transform.Shift{Name: "y_shift", Offset: outCenter[1]},
		),
	)
}

// homotheticDet2Sky is the detector-to-sky direction of the same
// linear section.
func homotheticDet2Sky(inCenter [2]float64, angle unit.Angle, scale, outCenter [2]float64) transform.Pipeline {
	sin, cos := angle.Sin(), angle.Cos()
	mat := [2][2]float64{
		{cos / scale[0], -sin / scale[1]},
		{sin / scale[0], cos / scale[1]},
	}
	return transform.Compose(
		transform.Join(
			transform.Shift{Name: "x_shift", Offset: -outCenter[0]},
			transform.Shift{Name: "y_shift", Offset: -outCenter[1]},
		),
		transform.Affine2D{Name: "affine_det2sky", Matrix: mat},
		transform.Join(
			transform.Shift{Name: "x_shift", Offset: inCenter[0]},
			transform.Shift{Name: "y_shift", Offset: inCenter[1]},
		),
	)
}

// linearSection extracts scale factors, rotation angle and rotation
// centers from a .pcf file.  The alt markers are the single-column
// variants used by the OTE delivery.
type linearSection struct {
	scale     [2]float64
	angle     unit.Angle
	inCenter  [2]float64
	outCenter [2]float64
}

func (v *vendorFile) linear(factorM, inM, outM string) (linearSection, error) {
	var ls linearSection
	var err error
	if ls.scale, err = v.pair(factorM); err != nil {
		return ls, err
	}
	deg, err := v.float(mRotation)
	if err != nil {
		return ls, err
	}
	ls.angle = unit.AngleFromDeg(deg)
	if ls.inCenter, err = v.pair(inM); err != nil {
		return ls, err
	}
	ls.outCenter, err = v.pair(outM)
	return ls, err
}

func (ls linearSection) det2sky() transform.Pipeline {
	return homotheticDet2Sky(ls.inCenter, ls.angle, ls.scale, ls.outCenter)
}

func (ls linearSection) sky2det() transform.Pipeline {
	return homotheticSky2Det(ls.inCenter, ls.angle, ls.scale, ls.outCenter)
}
