// Public domain.

// Package niriss converts the NIRISS wide field slitless spectroscopy
// configuration files, plain text key-value dumps of grism trace and
// dispersion fits, into standardized reference files.
package niriss

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"refconv/keyval"
	"refconv/reffile"
	"refconv/transform"
)

// beamOrders translates the configuration files' alphabetic beam
// designations into spectral orders.
var beamOrders = map[string]int{
	"A": 1,
	"B": 0,
	"C": 2,
	"D": 3,
	"E": -1,
}

// CreateGrismConfig converts a grism trace configuration file into a
// dispersion reference file.  There is one configuration file per
// blocking filter; filter and pupil default to the first two
// dot-separated fields of the file name, the delivery convention
// (e.g. NIRISS_F090W.GR150R.conf).
//
// For each spectral order the output carries the trace displacement
// fits dispx and dispy, each a pair of 2D polynomials in the source
// position combined downstream as x_model + t*y_model, and the
// wavelength fit displ with its analytic inverse.  Wavelengths are
// delivered in Angstroms and stored in microns.
func CreateGrismConfig(confPath, filter, pupil, author, history, outPath string) error {
	base := filepath.Base(confPath)
	parts := strings.Split(base, ".")
	if filter == "" {
		filter = parts[0]
	}
	if pupil == "" {
		if len(parts) < 2 {
			return fmt.Errorf("%s: cannot determine pupil from file name", base)
		}
		pupil = parts[1]
	}
	if history == "" {
		history = fmt.Sprintf("Created from %s", base)
	}
	if author == "" {
		author = "STScI"
	}

	conf, err := keyval.ParseFile(confPath)
	if err != nil {
		return err
	}
	split, err := keyval.SplitOrders(conf)
	if err != nil {
		return err
	}
	orders := split.Tags()
	if len(orders) == 0 {
		return fmt.Errorf("%s: no spectral orders found", base)
	}

	var displ, invdispl []transform.Transform
	var dispx, dispy []any
	ordermap := make([]int, len(orders))
	for i, beam := range orders {
		order, ok := beamOrders[beam]
		if !ok {
			return fmt.Errorf("%s: unknown beam designation %q", base, beam)
		}
		ordermap[i] = order
		b := split.Beams[beam]

		l0, l1, ok := b["DISPL"].Bounds()
		if !ok {
			return fmt.Errorf("%s: beam %s: missing or malformed DISPL", base, beam)
		}
		// Angstrom to micron
		l0 /= 10000
		l1 /= 10000
		if l1 == 0 {
			return fmt.Errorf("%s: beam %s: DISPL is not invertible", base, beam)
		}
		displ = append(displ, transform.Polynomial1D{
			Name: "displ_" + beam, Coeffs: []float64{l0, l1}})
		invdispl = append(invdispl, transform.Polynomial1D{
			Name: "invdispl_" + beam, Coeffs: []float64{-l0 / l1, 1 / l1}})

		for _, d := range []struct {
			key  string
			dst  *[]any
		}{
			{"DISPX", &dispx},
			{"DISPY", &dispy},
		} {
			e0, e1, ok := b[d.key].PairLists()
			if !ok {
				return fmt.Errorf("%s: beam %s: missing or malformed %s", base, beam, d.key)
			}
			px, err := tracePoly(e0)
			if err != nil {
				return fmt.Errorf("%s: beam %s: %s: %v", base, beam, d.key, err)
			}
			py, err := tracePoly(e1)
			if err != nil {
				return fmt.Errorf("%s: beam %s: %s: %v", base, beam, d.key, err)
			}
			*d.dst = append(*d.dst, []any{px, py})
		}
	}

	fw, ok := split.Global["FWCPOS_REF"].Float()
	if !ok {
		return fmt.Errorf("%s: missing FWCPOS_REF", base)
	}

	meta := reffile.NewMeta("specwcs", "NIRISS Grism Parameters",
		fmt.Sprintf("%s dispersion model parameters", pupil),
		"NIS_WFSS", "2014-01-01T00:00:00", author, filepath.Base(outPath))
	meta.Instrument = reffile.Instrument{
		Name:     "NIRISS",
		Detector: "NIS",
		Filter:   filter,
		Pupil:    pupil,
	}
	meta.ModelType = "NIRISSGrismModel"
	meta.InputUnits = "micron"
	meta.OutputUnits = "micron"

	f := reffile.New(meta)
	f.Tree["dispx"] = dispx
	f.Tree["dispy"] = dispy
	f.Tree["displ"] = displ
	f.Tree["invdispl"] = invdispl
	f.Tree["fwcpos_ref"] = fw
	f.Tree["orders"] = ordermap
	f.AddHistory(history)
	return f.Write(outPath)
}

// tracePoly places the six delivered trace coefficients into a degree
// 2 polynomial in the direct image position.
func tracePoly(e []float64) (transform.Polynomial2D, error) {
	if len(e) != 6 {
		return transform.Polynomial2D{}, fmt.Errorf("want 6 coefficients, got %d", len(e))
	}
	return transform.Polynomial2D{
		Degree: 2,
		C: [][]float64{
			{e[0], e[2], e[3]},
			{e[1], e[5]},
			{e[4]},
		},
	}, nil
}

// sortedKeys is used by the waverange writer for stable selector
// order.
func sortedKeys[V any](m map[string]V) []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}
