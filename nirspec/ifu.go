// Public domain.

package nirspec

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"refconv/reffile"
	"refconv/transform"
)

// ConvertIFUPost combines the per-slice IFU-POST transform files into
// a single reference file keyed by slice number.  The slice transforms
// run in the delivered direction, MSA plane to collimator, so here the
// team's forward fit is the model's forward fit.
func ConvertIFUPost(pcfPaths []string, outPath string, meta reffile.Meta) error {
	if len(pcfPaths) == 0 {
		return fmt.Errorf("no IFU-POST files given")
	}
	paths := append([]string(nil), pcfPaths...)
	sort.Strings(paths)

	f := reffile.New(meta)
	for _, p := range paths {
		n, err := sliceNumber(p)
		if err != nil {
			return err
		}
		v, err := readVendorFile(p)
		if err != nil {
			return err
		}
		deg, err := v.int(mFitOrder)
		if err != nil {
			return err
		}
		xFwd, err := v.poly(mXForward, 0, deg, "x_poly_forward")
		if err != nil {
			return err
		}
		yFwd, err := v.poly(mYForward, 0, deg, "y_poly_forward")
		if err != nil {
			return err
		}
		xBwd, err := v.poly(mXBackward, 0, deg, "x_poly_backward")
		if err != nil {
			return err
		}
		yBwd, err := v.poly(mYBackward, 0, deg, "y_poly_backward")
		if err != nil {
			return err
		}
		ls, err := v.linear(mFactor, mInCenter, mOutCenter)
		if err != nil {
			return err
		}
		model := transform.Compose(ls.sky2det(), polyCore(xFwd, yFwd, xBwd, yBwd))
		f.Tree[strconv.Itoa(n)] = map[string]any{"model": model}
	}
	f.AddHistory(fmt.Sprintf("Created from %d IFU-POST files", len(paths)))
	return f.Write(outPath)
}

// sliceNumber extracts the slice index from a file name of the form
// IFU-POST_27.pcf.
func sliceNumber(path string) (int, error) {
	base := filepath.Base(path)
	s := strings.TrimSuffix(strings.TrimPrefix(base, "IFU-POST_"), ".pcf")
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s: cannot determine slice number: %w", base, ErrMalformed)
	}
	return n, nil
}
