// Public domain.

package nirspec

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"refconv/reffile"
)

// SpectralRange is the usable wavelength interval of one filter and
// grating combination, in meters, with its spectral order.
type SpectralRange struct {
	Order int       `yaml:"order"`
	Range []float64 `yaml:"range"`
}

// lampRanges covers the internal calibration lamp configurations,
// which the spectral configurations table does not list.  Values from
// the instrument team.
var lampRanges = map[string]SpectralRange{
	"FLAT1_G140M": {-1, []float64{1e-6, 1.8e-6}},
	"LINE1_G140M": {-1, []float64{1e-6, 1.8e-6}},
	"FLAT1_G140H": {-1, []float64{1e-6, 1.8e-6}},
	"LINE1_G140H": {-1, []float64{1e-6, 1.8e-6}},
	"FLAT2_G235M": {-1, []float64{1.7e-6, 3.1e-6}},
	"LINE2_G235M": {-1, []float64{1.7e-6, 3.1e-6}},
	"FLAT2_G235H": {-1, []float64{1.7e-6, 3.1e-6}},
	"LINE2_G235H": {-1, []float64{1.7e-6, 3.1e-6}},
	"FLAT3_G395M": {-1, []float64{2.9e-6, 5.3e-6}},
	"LINE3_G395M": {-1, []float64{2.9e-6, 5.3e-6}},
	"FLAT3_G395H": {-1, []float64{2.9e-6, 5.3e-6}},
	"LINE3_G395H": {-1, []float64{2.9e-6, 5.3e-6}},
	"REF_G140M":   {-1, []float64{1.3e-6, 1.7e-6}},
	"REF_G140H":   {-1, []float64{1.3e-6, 1.7e-6}},
	"TEST_MIRROR": {-1, []float64{0.6e-6, 5.3e-6}},
}

// spectralConfHeader is the fixed preamble length of the spectral
// configurations table.
const spectralConfHeader = 13

// ConvertWavelengthRange converts the spectral configurations table.
// Each data row holds filter, grating, spectral order, and the
// wavelength interval; the lamp configurations are appended from
// lampRanges.
func ConvertWavelengthRange(confPath, outPath string, meta reffile.Meta) error {
	v, err := readVendorFile(confPath)
	if err != nil {
		return err
	}
	if len(v.lines) < spectralConfHeader {
		return fmt.Errorf("%s: truncated header: %w", v.name, ErrMalformed)
	}
	fg := make(map[string]SpectralRange)
	for i, l := range v.lines[spectralConfHeader:] {
		fields := strings.Fields(l)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 5 {
			return fmt.Errorf("%s: configuration line %d: want 5 fields, got %d: %w",
				v.name, spectralConfHeader+i+1, len(fields), ErrMalformed)
		}
		order, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("%s: configuration line %d: %v: %w",
				v.name, spectralConfHeader+i+1, err, ErrMalformed)
		}
		lo, err1 := strconv.ParseFloat(fields[3], 64)
		hi, err2 := strconv.ParseFloat(fields[4], 64)
		if err1 != nil || err2 != nil {
			return fmt.Errorf("%s: configuration line %d: bad wavelength bounds: %w",
				v.name, spectralConfHeader+i+1, ErrMalformed)
		}
		fg[fields[0]+"_"+fields[1]] = SpectralRange{Order: order, Range: []float64{lo, hi}}
	}
	for k, r := range lampRanges {
		fg[k] = r
	}

	f := reffile.New(meta)
	f.Tree["filter_grating"] = toTree(fg)
	f.AddHistory(fmt.Sprintf("Created from %s", filepath.Base(confPath)))
	return f.Write(outPath)
}

func toTree(fg map[string]SpectralRange) map[string]any {
	out := make(map[string]any, len(fg))
	for k, r := range fg {
		out[k] = map[string]any{"order": r.Order, "range": r.Range}
	}
	return out
}
