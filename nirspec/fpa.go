// Public domain.

package nirspec

import (
	"fmt"
	"path/filepath"

	"github.com/soniakeys/unit"

	"refconv/reffile"
	"refconv/transform"
)

// scaGeometry is the delivered placement of one sensor chip assembly:
// pixel pitches, rotation, and position of the chip origin.
type scaGeometry struct {
	pitchX, pitchY float64
	angle          unit.Angle
	posX, posY     float64
}

func (v *vendorFile) sca(prefix string) (scaGeometry, error) {
	var g scaGeometry
	var err error
	if g.pitchX, err = v.floatAfterPrefix(prefix + "_PitchX"); err != nil {
		return g, err
	}
	if g.pitchY, err = v.floatAfterPrefix(prefix + "_PitchY"); err != nil {
		return g, err
	}
	deg, err := v.floatAfterPrefix(prefix + "_RotAngle")
	if err != nil {
		return g, err
	}
	g.angle = unit.AngleFromDeg(deg)
	if g.posX, err = v.floatAfterPrefix(prefix + "_PosX"); err != nil {
		return g, err
	}
	g.posY, err = v.floatAfterPrefix(prefix + "_PosY")
	return g, err
}

// rotMat is the counterclockwise rotation matrix for a.
func rotMat(a unit.Angle) [2][2]float64 {
	sin, cos := a.Sin(), a.Cos()
	return [2][2]float64{{cos, -sin}, {sin, cos}}
}

func mulDiag(rot [2][2]float64, dx, dy float64) [2][2]float64 {
	return [2][2]float64{
		{rot[0][0] * dx, rot[0][1] * dy},
		{rot[1][0] * dx, rot[1][1] * dy},
	}
}

// ConvertFPA converts the focal plane assembly description into models
// for both detectors.  The two chips are mounted rotated 180 degrees
// from each other, which the delivery expresses through the sign
// conventions below rather than through the rotation angle, so each
// direction is built from its delivered convention and the pair is
// declared, not derived.
func ConvertFPA(fpaPath, outPath string, meta reffile.Meta) error {
	v, err := readVendorFile(fpaPath)
	if err != nil {
		return err
	}
	g1, err := v.sca("*SCA491")
	if err != nil {
		return err
	}
	g2, err := v.sca("*SCA492")
	if err != nil {
		return err
	}

	nrs1 := transform.Pair{
		Name: "fpa_nrs1",
		Fwd: transform.Compose(
			transform.Affine2D{Matrix: mulDiag(rotMat(-g1.angle), g1.pitchX, g1.pitchY)},
			transform.Join(
				transform.Shift{Name: "fpa_x_shift", Offset: g1.posX},
				transform.Shift{Name: "fpa_y_shift", Offset: g1.posY},
			),
		),
		Bwd: transform.Compose(
			transform.Join(
				transform.Shift{Name: "fpa_x_shift", Offset: -g1.posX},
				transform.Shift{Name: "fpa_y_shift", Offset: -g1.posY},
			),
			transform.Affine2D{Matrix: mulDiag(rotMat(-g1.angle), 1/g1.pitchX, 1/g1.pitchY)},
		),
	}
	nrs2 := transform.Pair{
		Name: "fpa_nrs2",
		Fwd: transform.Compose(
			transform.Affine2D{Matrix: mulDiag(rotMat(g2.angle), -g2.pitchX, -g2.pitchY)},
			transform.Join(
				transform.Shift{Name: "fpa_x_shift", Offset: g2.posX},
				transform.Shift{Name: "fpa_y_shift", Offset: g2.posY},
			),
		),
		Bwd: transform.Compose(
			transform.Join(
				transform.Shift{Name: "fpa_x_shift", Offset: -g2.posX},
				transform.Shift{Name: "fpa_y_shift", Offset: -g2.posY},
			),
			transform.Affine2D{Matrix: mulDiag(rotMat(-g2.angle), -1/g2.pitchX, -1/g2.pitchY)},
		),
	}

	f := reffile.New(meta)
	f.Tree["NRS1"] = nrs1
	f.Tree["NRS2"] = nrs2
	f.AddHistory(fmt.Sprintf("Created from %s", filepath.Base(fpaPath)))
	return f.Write(outPath)
}
