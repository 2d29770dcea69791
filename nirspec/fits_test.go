// Public domain.

package nirspec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/astrogo/fitsio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refconv/reffile"
	"refconv/transform"
)

type shutterRow struct {
	No   int32   `fits:"NO"`
	XPos float64 `fits:"XPOS"`
	YPos float64 `fits:"YPOS"`
}

type geomExt struct {
	name  string
	cards []fitsio.Card
	rows  []shutterRow
}

// writeGeometryFITS builds a geometry description file: a bare primary
// HDU followed by one binary table extension per entry.
func writeGeometryFITS(t *testing.T, path string, exts []geomExt) {
	t.Helper()
	w, err := os.Create(path)
	require.NoError(t, err)
	defer w.Close()
	f, err := fitsio.Create(w)
	require.NoError(t, err)
	defer f.Close()

	phdu, err := fitsio.NewPrimaryHDU(nil)
	require.NoError(t, err)
	require.NoError(t, f.Write(phdu))

	for _, ext := range exts {
		tbl, err := fitsio.NewTable(ext.name, []fitsio.Column{
			{Name: "NO", Format: "J"},
			{Name: "XPOS", Format: "D"},
			{Name: "YPOS", Format: "D"},
		}, fitsio.BINARY_TBL)
		require.NoError(t, err)
		require.NoError(t, tbl.Header().Append(ext.cards...))
		for i := range ext.rows {
			require.NoError(t, tbl.Write(&ext.rows[i]))
		}
		require.NoError(t, f.Write(tbl))
		require.NoError(t, tbl.Close())
	}
}

func slicerExt(cards ...fitsio.Card) geomExt {
	return geomExt{
		name:  "SLICER",
		cards: cards,
		rows:  []shutterRow{{1, 0.8, 0}, {2, 1.6, 0}},
	}
}

func TestConvertIFUSlicer(t *testing.T) {
	dir := t.TempDir()
	sgd := filepath.Join(dir, "IFU_slicer.sgd")
	writeGeometryFITS(t, sgd, []geomExt{slicerExt(
		fitsio.Card{Name: "XREF", Value: 1.5},
		fitsio.Card{Name: "YREF", Value: -2.5},
		fitsio.Card{Name: "ROT", Value: 90.0},
	)})
	out := filepath.Join(dir, "ifuslicer.yaml")
	require.NoError(t, ConvertIFUSlicer(sgd, out, testMeta("ifuslicer")))

	// rotate into the slicer plane, then shift to its reference point
	model := readModel(t, out, "model")
	got, err := model.Eval([]float64{1, 0})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.5, -1.5}, got, 1e-12)

	f, err := reffile.Read(out)
	require.NoError(t, err)
	data, ok := f.Tree["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []any{"NO", "XPOS", "YPOS"}, data["columns"])
	rows, ok := data["rows"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 2)
	first, ok := rows[0].(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, first["NO"])
	assert.InDelta(t, 0.8, first["XPOS"], 1e-12)
}

func TestConvertIFUSlicerMissingKeyword(t *testing.T) {
	dir := t.TempDir()
	sgd := filepath.Join(dir, "IFU_slicer.sgd")
	writeGeometryFITS(t, sgd, []geomExt{slicerExt(
		fitsio.Card{Name: "XREF", Value: 1.5},
		fitsio.Card{Name: "YREF", Value: -2.5},
	)})
	out := filepath.Join(dir, "ifuslicer.yaml")
	err := ConvertIFUSlicer(sgd, out, testMeta("ifuslicer"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
	assert.Contains(t, err.Error(), "ROT")
	_, serr := os.Stat(out)
	assert.True(t, os.IsNotExist(serr), "no output on failure")
}

func msaExts() []geomExt {
	exts := make([]geomExt, 0, 5)
	for i := 1; i <= 4; i++ {
		exts = append(exts, geomExt{
			name: fmt.Sprintf("Q%d", i),
			cards: []fitsio.Card{
				{Name: "QUADXREF", Value: float64(i) * 10},
				{Name: "QUADYREF", Value: -float64(i)},
				{Name: "QUADROT", Value: 0.0},
			},
			rows: []shutterRow{{int32(i), 0.1, 0.2}},
		})
	}
	return append(exts, geomExt{
		name: "SLITS",
		cards: []fitsio.Card{
			{Name: "SLITXREF", Value: 5.0},
			{Name: "SLITYREF", Value: 6.0},
			{Name: "SLITROT", Value: 180.0},
		},
		rows: []shutterRow{{99, 1.5, -1.5}},
	})
}

func TestConvertMSA(t *testing.T) {
	dir := t.TempDir()
	msa := filepath.Join(dir, "MSA.msa")
	writeGeometryFITS(t, msa, msaExts())
	out := filepath.Join(dir, "msa.yaml")
	require.NoError(t, ConvertMSA(msa, out, testMeta("msa")))

	f, err := reffile.Read(out)
	require.NoError(t, err)
	for i := 1; i <= 4; i++ {
		q, ok := f.Tree[strconv.Itoa(i)].(map[string]any)
		require.True(t, ok, "missing quadrant %d", i)
		model, ok := q["model"].(transform.Transform)
		require.True(t, ok)
		got, err := model.Eval([]float64{1, 1})
		require.NoError(t, err)
		assert.InDeltaSlice(t, []float64{1 + float64(i)*10, 1 - float64(i)}, got, 1e-12)
	}

	// the fixed slit plane is rotated 180 degrees
	slits, ok := f.Tree["5"].(map[string]any)
	require.True(t, ok)
	model, ok := slits["model"].(transform.Transform)
	require.True(t, ok)
	got, err := model.Eval([]float64{1, 1})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{4, 5}, got, 1e-12)

	data, ok := slits["data"].(map[string]any)
	require.True(t, ok)
	rows, ok := data["rows"].([]any)
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.EqualValues(t, 99, rows[0].(map[string]any)["NO"])
}

func TestConvertMSAMissingExtensions(t *testing.T) {
	dir := t.TempDir()
	msa := filepath.Join(dir, "MSA.msa")
	writeGeometryFITS(t, msa, msaExts()[:2])
	out := filepath.Join(dir, "msa.yaml")
	err := ConvertMSA(msa, out, testMeta("msa"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformed))
	_, serr := os.Stat(out)
	assert.True(t, os.IsNotExist(serr), "no output on failure")
}
