// Public domain.

package reffile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/soniakeys/unit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"refconv/reffile"
	"refconv/transform"
)

func testMeta() reffile.Meta {
	m := reffile.NewMeta("camera", "Camera Model", "Camera transform.",
		"N/A", "2000-01-01T00:00:00", "test author", "camera.yaml")
	m.Instrument = reffile.Instrument{Name: "NIRSPEC", Detector: "NRS1"}
	return m
}

func testModel() transform.Transform {
	return transform.Compose(
		transform.Join(
			transform.Shift{Name: "x_shift", Offset: -1.2},
			transform.Shift{Name: "y_shift", Offset: 0.4},
		),
		transform.Rotation2D{Name: "rotation", Angle: unit.AngleFromDeg(33.25)},
		transform.Pair{
			Name: "distortion",
			Fwd: transform.Parallel{Parts: []transform.Transform{
				transform.Scale{Factor: 2},
				transform.Scale{Factor: 4},
			}},
			Bwd: transform.Parallel{Parts: []transform.Transform{
				transform.Scale{Factor: 0.5},
				transform.Scale{Factor: 0.25},
			}},
		},
	)
}

func TestWriteReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "camera.yaml")
	f := reffile.New(testMeta())
	f.Tree["model"] = testModel()
	f.AddHistory("test conversion")
	require.NoError(t, f.Write(path))

	got, err := reffile.Read(path)
	require.NoError(t, err)
	assert.Equal(t, f.Meta, got.Meta)
	require.Len(t, got.History, 1)
	assert.Equal(t, "test conversion", got.History[0].Description)
	require.NotNil(t, got.History[0].Software)
	assert.Equal(t, "refconv", got.History[0].Software.Name)

	model, ok := got.Tree["model"].(transform.Transform)
	require.True(t, ok, "model did not decode to a transform")

	// the reconstructed model must evaluate identically
	in := []float64{3.5, -7.25}
	want, err := testModel().Eval(in)
	require.NoError(t, err)
	out, err := model.Eval(in)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, out, 1e-12)

	// and stay invertible
	inv, err := model.Inverse()
	require.NoError(t, err)
	back, err := inv.Eval(out)
	require.NoError(t, err)
	assert.InDeltaSlice(t, in, back, 1e-12)
}

func TestWriteInvalidMetaCreatesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	f := reffile.New(reffile.Meta{}) // missing every required key
	f.Tree["model"] = testModel()
	require.Error(t, f.Write(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "output file should not exist")
}

func TestDeterministicCoefficients(t *testing.T) {
	// identical inputs produce identical serialized trees; only the
	// history timestamp differs between runs.
	dir := t.TempDir()
	write := func(name string) *reffile.File {
		f := reffile.New(testMeta())
		f.Tree["model"] = testModel()
		require.NoError(t, f.Write(filepath.Join(dir, name)))
		got, err := reffile.Read(filepath.Join(dir, name))
		require.NoError(t, err)
		return got
	}
	a := write("a.yaml")
	b := write("b.yaml")
	if diff := cmp.Diff(a.Tree, b.Tree); diff != "" {
		t.Errorf("trees differ between identical runs:\n%s", diff)
	}
}

func TestMetaValidate(t *testing.T) {
	m := testMeta()
	require.NoError(t, m.Validate())
	m.Reftype = ""
	err := m.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reftype")
}

func TestPolynomialTreeRoundTrip(t *testing.T) {
	p2, err := transform.Poly2DFromList(2, []float64{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "poly.yaml")
	f := reffile.New(testMeta())
	f.Tree["dispx"] = []any{
		transform.Pair{
			Fwd: p2,
			Bwd: transform.Polynomial1D{Coeffs: []float64{0, 1}},
		},
	}
	f.Tree["orders"] = []int{1, 0}
	require.NoError(t, f.Write(path))

	got, err := reffile.Read(path)
	require.NoError(t, err)
	list, ok := got.Tree["dispx"].([]any)
	require.True(t, ok)
	require.Len(t, list, 1)
	pair, ok := list[0].(transform.Pair)
	require.True(t, ok)
	out, err := pair.Eval([]float64{2, 3})
	require.NoError(t, err)
	assert.InDelta(t, 96, out[0], 1e-12)
}
