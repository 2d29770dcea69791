// Public domain.

package nirspec

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"refconv/reffile"
	"refconv/transform"
)

// markerPrefix locates the first line starting with the given prefix
// and returns its index and the remainder of the marker line, for
// sections whose marker carries a count, such as "*COEFFORMULA 6".
func (v *vendorFile) markerPrefix(prefix string) (int, string, error) {
	for i, l := range v.lines {
		if strings.HasPrefix(l, prefix) {
			return i, strings.TrimSpace(l[len(prefix):]), nil
		}
	}
	return 0, "", fmt.Errorf("%s: missing section %q: %w", v.name, prefix, ErrMalformed)
}

// afterPrefix returns the line following a prefix marker.
func (v *vendorFile) afterPrefix(prefix string) (string, error) {
	i, _, err := v.markerPrefix(prefix)
	if err != nil {
		return "", err
	}
	if i+1 >= len(v.lines) {
		return "", fmt.Errorf("%s: section %q truncated: %w", v.name, prefix, ErrMalformed)
	}
	return v.lines[i+1], nil
}

func (v *vendorFile) floatAfterPrefix(prefix string) (float64, error) {
	l, err := v.afterPrefix(prefix)
	if err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(l, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: section %q: %v: %w", v.name, prefix, err, ErrMalformed)
	}
	return f, nil
}

// countedBlock reads a section whose marker line declares how many
// value lines follow it.
func (v *vendorFile) countedBlock(prefix string) ([]float64, error) {
	i, rest, err := v.markerPrefix(prefix)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%s: section %q: missing count: %w", v.name, prefix, ErrMalformed)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("%s: section %q: bad count: %w", v.name, prefix, ErrMalformed)
	}
	if i+1+n > len(v.lines) {
		return nil, fmt.Errorf("%s: section %q truncated: %w", v.name, prefix, ErrMalformed)
	}
	return v.parseFields(prefix, v.lines[i+1:i+1+n])
}

// ConvertDisperser converts a disperser description file plus its two
// tilt calibration files into a reference file.  Gratings carry a
// groove density; the prism instead carries its apex angle and the
// Sellmeier and thermal coefficients of its glass.
//
// The tilt files are delivered per team axis, which is swapped
// relative to the pipeline axes: the TiltY calibration drives the
// pipeline's gwa_tiltx model and vice versa.
func ConvertDisperser(disPath, tiltYPath, tiltXPath, outPath string, meta reffile.Meta) error {
	v, err := readVendorFile(disPath)
	if err != nil {
		return err
	}
	typ, err := v.afterPrefix("*TYPE")
	if err != nil {
		return err
	}
	typ = strings.ToLower(typ)
	grating := "PRISM"
	if g, err := v.afterPrefix("*GRATINGNAME"); err == nil {
		grating = g
	}

	tree := make(map[string]any)
	// boresight misalignment angles, delivered in arcsec
	for _, a := range []struct {
		marker, key string
	}{
		{"*THETAX", "theta_x"},
		{"*THETAY", "theta_y"},
		{"*THETAZ", "theta_z"},
	} {
		sec, err := v.floatAfterPrefix(a.marker)
		if err != nil {
			return err
		}
		tree[a.key] = sec / 3600
	}
	tilty, err := v.floatAfterPrefix("*TILTY")
	if err != nil {
		return err
	}
	tree["tilt_y"] = tilty
	if tx, err := v.floatAfterPrefix("*TILTX"); err == nil {
		tree["tilt_x"] = tx
	} else {
		tree["tilt_x"] = 0.0
	}

	switch typ {
	case "gratingdata":
		gd, err := v.floatAfterPrefix("*GROOVEDENSITY")
		if err != nil {
			return err
		}
		tree["groove_density"] = gd
	case "prismdata":
		angle, err := v.floatAfterPrefix("*ANGLE")
		if err != nil {
			return err
		}
		tree["angle"] = angle
		tref, err := v.floatAfterPrefix("*TREF")
		if err != nil {
			return err
		}
		tree["tref"] = tref
		pref, err := v.floatAfterPrefix("*PREF")
		if err != nil {
			return err
		}
		tree["pref"] = pref
		// Sellmeier coefficients interleave K and L values
		form, err := v.countedBlock("*COEFFORMULA")
		if err != nil {
			return err
		}
		var kcoef, lcoef []float64
		for i, c := range form {
			if i%2 == 0 {
				kcoef = append(kcoef, c)
			} else {
				lcoef = append(lcoef, c)
			}
		}
		tree["kcoef"] = kcoef
		tree["lcoef"] = lcoef
		tcoef, err := v.countedBlock("*THERMALCOEF")
		if err != nil {
			return err
		}
		tree["tcoef"] = tcoef
		wb, err := v.countedBlock("*WBOUND")
		if err != nil {
			return err
		}
		if len(wb) != 2 {
			return fmt.Errorf("%s: section *WBOUND: want 2 values, got %d: %w",
				v.name, len(wb), ErrMalformed)
		}
		tree["wbound"] = wb
	default:
		return fmt.Errorf("%s: unknown disperser type %q: %w", v.name, typ, ErrMalformed)
	}

	for _, p := range []string{tiltYPath, tiltXPath} {
		if !strings.Contains(filepath.Base(p), grating) {
			return fmt.Errorf("tilt file %s does not match grating %s: %w",
				filepath.Base(p), grating, ErrMalformed)
		}
	}
	tiltY, err := readTilt(tiltYPath)
	if err != nil {
		return err
	}
	tiltX, err := readTilt(tiltXPath)
	if err != nil {
		return err
	}
	tree["gwa_tiltx"] = tiltY.tree()
	tree["gwa_tilty"] = tiltX.tree()

	if meta.Instrument.Grating == "" {
		meta.Instrument.Grating = grating
	}
	f := reffile.New(meta)
	for k, val := range tree {
		f.Tree[k] = val
	}
	f.AddHistory(fmt.Sprintf("Created from %s", filepath.Base(disPath)))
	return f.Write(outPath)
}

// tiltCal is one grating tilt calibration: a polynomial in the tilt
// sensor reading, with the temperatures and sensor zero readings it
// was fit at.
type tiltCal struct {
	coeffs       []float64 // delivered highest order first
	temperatures []float64
	zeroReadings []float64
	unit         string
}

// readTilt parses a .gtp tilt calibration.  Sections begin with a '*'
// marker carrying a value count; only the first occurrence of each
// section is used.
func readTilt(path string) (*tiltCal, error) {
	v, err := readVendorFile(path)
	if err != nil {
		return nil, err
	}
	t := &tiltCal{}
	if t.coeffs, err = v.countedBlock("*CoeffsTemperature00"); err != nil {
		return nil, err
	}
	if t.temperatures, err = v.countedBlock("*Temperatures"); err != nil {
		return nil, err
	}
	if t.zeroReadings, err = v.countedBlock("*Zeroreadings"); err != nil {
		return nil, err
	}
	if t.unit, err = v.afterPrefix("*Unit"); err != nil {
		return nil, err
	}
	return t, nil
}

// tree serializes the calibration, reversing the delivered coefficient
// order into ascending powers.
func (t *tiltCal) tree() map[string]any {
	asc := make([]float64, len(t.coeffs))
	for i, c := range t.coeffs {
		asc[len(t.coeffs)-1-i] = c
	}
	return map[string]any{
		"tilt_model":   transform.Polynomial1D{Name: "tilt_model", Coeffs: asc},
		"temperatures": t.temperatures,
		"zeroreadings": t.zeroReadings,
		"unit":         t.unit,
	}
}
