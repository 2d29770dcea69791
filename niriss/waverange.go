// Public domain.

package niriss

import (
	"path/filepath"

	"refconv/reffile"
)

// defaultFilterRange holds the usable wavelength interval per blocking
// filter, in microns.  The ranges are valid for every spectral order.
var defaultFilterRange = map[string][]float64{
	"F090W": {0.79, 1.03},
	"F115W": {0.97, 1.32},
	"F140M": {1.29, 1.52},
	"F150W": {1.29, 1.71},
	"F158M": {1.41, 1.74},
	"F200W": {1.70, 2.28},
}

var defaultOrders = []int{-1, 0, 1, 2, 3}

// CreateGrismWaverange writes the wavelength range reference file for
// wide field slitless mode.  filterRange may be nil to use the
// default ranges.  The output format keys ranges by order, so the
// per-filter intervals are replicated for each order, which leaves
// room for future per-order updates.
func CreateGrismWaverange(outPath, author, history string, filterRange map[string][]float64) error {
	if history == "" {
		history = "NIRISS Grism wavelengthrange"
	}
	if author == "" {
		author = "STScI"
	}
	if filterRange == nil {
		filterRange = defaultFilterRange
	}
	selector := sortedKeys(filterRange)
	wrange := make([]any, len(defaultOrders))
	for i := range defaultOrders {
		o := make([]any, len(selector))
		for j, f := range selector {
			o[j] = filterRange[f]
		}
		wrange[i] = o
	}

	meta := reffile.NewMeta("wavelengthrange", "NIRISS WFSS waverange",
		"NIRISS WFSS Filter Wavelength Ranges",
		"NIS_WFSS", "2014-01-01T00:00:00", author, filepath.Base(outPath))
	meta.Instrument = reffile.Instrument{Name: "NIRISS", Detector: "NIS"}
	meta.ModelType = "WavelengthrangeModel"
	meta.InputUnits = "micron"
	meta.OutputUnits = "micron"

	f := reffile.New(meta)
	f.Tree["wrange_selector"] = selector
	f.Tree["wrange"] = wrange
	f.Tree["order"] = defaultOrders
	f.AddHistory(history)
	return f.Write(outPath)
}
