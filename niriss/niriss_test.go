// Public domain.

package niriss

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refconv/reffile"
	"refconv/transform"
)

// A minimal trace configuration with one spectral order.  DISPL is in
// Angstroms; the trace fits are chosen so the x polynomial evaluates
// to the constant 2 and the y polynomial to the source x coordinate.
const grismConf = `# trace fits
FWCPOS_REF 354.222
DISPL_A_0 20000.0
DISPL_A_1 10000.0
DISPX_A_0 2.0 0.0 0.0 0.0 0.0 0.0
DISPX_A_1 0.0 1.0 0.0 0.0 0.0 0.0
DISPY_A_0 0.0 0.0 0.0 0.0 0.0 0.0
DISPY_A_1 0.0 0.0 1.0 0.0 0.0 0.0
MMAG_EXTRACT_A 99.0
SENSITIVITY_A GR150R_1st.sensitivity.fits
`

func writeConf(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCreateGrismConfig(t *testing.T) {
	conf := writeConf(t, "F090W.GR150R.conf", grismConf)
	out := filepath.Join(t.TempDir(), "specwcs.yaml")
	require.NoError(t, CreateGrismConfig(conf, "", "", "test author", "", out))

	f, err := reffile.Read(out)
	require.NoError(t, err)
	// filter and pupil come from the file name
	assert.Equal(t, "F090W", f.Meta.Instrument.Filter)
	assert.Equal(t, "GR150R", f.Meta.Instrument.Pupil)
	assert.Equal(t, "specwcs", f.Meta.Reftype)
	assert.Equal(t, "micron", f.Meta.InputUnits)
	require.Len(t, f.History, 1)
	assert.Equal(t, "Created from F090W.GR150R.conf", f.History[0].Description)

	assert.Equal(t, []any{1}, f.Tree["orders"])
	assert.InDelta(t, 354.222, f.Tree["fwcpos_ref"], 1e-12)

	// displ converted to microns: 2 + 1*t
	displ, ok := f.Tree["displ"].([]any)
	require.True(t, ok)
	require.Len(t, displ, 1)
	p, ok := displ[0].(transform.Polynomial1D)
	require.True(t, ok)
	got, err := p.Eval([]float64{3})
	require.NoError(t, err)
	assert.InDelta(t, 5, got[0], 1e-12)

	// invdispl undoes displ
	inv, ok := f.Tree["invdispl"].([]any)
	require.True(t, ok)
	ip, ok := inv[0].(transform.Polynomial1D)
	require.True(t, ok)
	back, err := ip.Eval(got)
	require.NoError(t, err)
	assert.InDelta(t, 3, back[0], 1e-12)

	// dispx: pair of 2D trace polynomials per order
	dispx, ok := f.Tree["dispx"].([]any)
	require.True(t, ok)
	require.Len(t, dispx, 1)
	pair, ok := dispx[0].([]any)
	require.True(t, ok)
	require.Len(t, pair, 2)
	px, ok := pair[0].(transform.Polynomial2D)
	require.True(t, ok)
	got, err = px.Eval([]float64{100, 50})
	require.NoError(t, err)
	assert.InDelta(t, 2, got[0], 1e-12)
	py, ok := pair[1].(transform.Polynomial2D)
	require.True(t, ok)
	got, err = py.Eval([]float64{100, 50})
	require.NoError(t, err)
	assert.InDelta(t, 100, got[0], 1e-12)
}

func TestCreateGrismConfigUnknownBeam(t *testing.T) {
	conf := writeConf(t, "F090W.GR150R.conf", `FWCPOS_REF 354.222
DISPL_Z_0 20000.0
DISPL_Z_1 10000.0
`)
	err := CreateGrismConfig(conf, "", "", "test author", "",
		filepath.Join(t.TempDir(), "out.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown beam designation")
}

func TestCreateGrismConfigFlatWavelength(t *testing.T) {
	conf := writeConf(t, "F090W.GR150R.conf", `FWCPOS_REF 354.222
DISPL_A_0 20000.0
DISPL_A_1 0.0
DISPX_A_0 2.0 0.0 0.0 0.0 0.0 0.0
DISPX_A_1 0.0 1.0 0.0 0.0 0.0 0.0
DISPY_A_0 0.0 0.0 0.0 0.0 0.0 0.0
DISPY_A_1 0.0 0.0 1.0 0.0 0.0 0.0
`)
	err := CreateGrismConfig(conf, "", "", "test author", "",
		filepath.Join(t.TempDir(), "out.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not invertible")
}

func TestCreateGrismWaverange(t *testing.T) {
	out := filepath.Join(t.TempDir(), "waverange.yaml")
	require.NoError(t, CreateGrismWaverange(out, "", "", nil))

	f, err := reffile.Read(out)
	require.NoError(t, err)
	assert.Equal(t, "wavelengthrange", f.Meta.Reftype)
	assert.Equal(t, "STScI", f.Meta.Author)

	sel, ok := f.Tree["wrange_selector"].([]any)
	require.True(t, ok)
	require.Len(t, sel, 6)
	assert.Equal(t, "F090W", sel[0])

	orders, ok := f.Tree["order"].([]any)
	require.True(t, ok)
	assert.Equal(t, []any{-1, 0, 1, 2, 3}, orders)

	// ranges replicated per order, aligned with the selector
	wrange, ok := f.Tree["wrange"].([]any)
	require.True(t, ok)
	require.Len(t, wrange, 5)
	first, ok := wrange[0].([]any)
	require.True(t, ok)
	require.Len(t, first, 6)
	r0, ok := first[0].([]any)
	require.True(t, ok)
	assert.InDelta(t, 0.79, r0[0], 1e-12)
	assert.InDelta(t, 1.03, r0[1], 1e-12)
}

func TestCreateGrismWaverangeCustomRange(t *testing.T) {
	out := filepath.Join(t.TempDir(), "waverange.yaml")
	fr := map[string][]float64{"F999W": {1.0, 2.0}}
	require.NoError(t, CreateGrismWaverange(out, "someone", "custom", fr))

	f, err := reffile.Read(out)
	require.NoError(t, err)
	require.Len(t, f.History, 1)
	assert.Equal(t, "custom", f.History[0].Description)
	sel := f.Tree["wrange_selector"].([]any)
	assert.Equal(t, []any{"F999W"}, sel)
}
