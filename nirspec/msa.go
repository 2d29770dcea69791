// Public domain.

package nirspec

import (
	"fmt"
	"strconv"

	"github.com/astrogo/fitsio"
	"github.com/soniakeys/unit"

	"refconv/reffile"
	"refconv/transform"
)

// planeModel builds the placement model of one aperture plane: rotate
// into the plane's orientation, then shift to its reference position.
func planeModel(rot unit.Angle, x, y float64) transform.Pipeline {
	return transform.Compose(
		transform.Rotation2D{Name: "rotation", Angle: rot},
		transform.Join(
			transform.Shift{Name: "x_shift", Offset: x},
			transform.Shift{Name: "y_shift", Offset: y},
		),
	)
}

// ConvertMSA converts the micro-shutter array description.  The file
// carries five extensions: one per shutter quadrant, each with its
// placement keywords and shutter table, and a fifth for the fixed
// slits.
func ConvertMSA(msaPath, outPath string, meta reffile.Meta) error {
	f := reffile.New(meta)
	err := withFITS(msaPath, func(name string, fits *fitsio.File) error {
		if len(fits.HDUs()) < 6 {
			return fmt.Errorf("%s: want 5 extensions, got %d: %w",
				name, len(fits.HDUs())-1, ErrMalformed)
		}
		for i := 1; i <= 5; i++ {
			hdu := fits.HDU(i)
			prefix := "QUAD"
			if i == 5 {
				prefix = "SLIT"
			}
			x, err := headerFloat(hdu, prefix+"XREF", name)
			if err != nil {
				return err
			}
			y, err := headerFloat(hdu, prefix+"YREF", name)
			if err != nil {
				return err
			}
			rot, err := headerFloat(hdu, prefix+"ROT", name)
			if err != nil {
				return err
			}
			data, err := tableRecords(hdu, name)
			if err != nil {
				return err
			}
			f.Tree[strconv.Itoa(i)] = map[string]any{
				"model": planeModel(unit.AngleFromDeg(rot), x, y),
				"data":  data,
			}
		}
		f.AddHistory(fmt.Sprintf("Created from %s", name))
		return nil
	})
	if err != nil {
		return err
	}
	return f.Write(outPath)
}

// ConvertIFUSlicer converts the IFU slicer geometry description: one
// extension with the slicer placement keywords and the slice table.
func ConvertIFUSlicer(sgdPath, outPath string, meta reffile.Meta) error {
	f := reffile.New(meta)
	err := withFITS(sgdPath, func(name string, fits *fitsio.File) error {
		if len(fits.HDUs()) < 2 {
			return fmt.Errorf("%s: missing slicer extension: %w", name, ErrMalformed)
		}
		hdu := fits.HDU(1)
		x, err := headerFloat(hdu, "XREF", name)
		if err != nil {
			return err
		}
		y, err := headerFloat(hdu, "YREF", name)
		if err != nil {
			return err
		}
		rot, err := headerFloat(hdu, "ROT", name)
		if err != nil {
			return err
		}
		data, err := tableRecords(hdu, name)
		if err != nil {
			return err
		}
		f.Tree["model"] = planeModel(unit.AngleFromDeg(rot), x, y)
		f.Tree["data"] = data
		f.AddHistory(fmt.Sprintf("Created from %s", name))
		return nil
	})
	if err != nil {
		return err
	}
	return f.Write(outPath)
}
