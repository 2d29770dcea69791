// Public domain.

package nirspec

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/astrogo/fitsio"
)

// withFITS opens a FITS file and runs fn over it.
func withFITS(path string, fn func(name string, f *fitsio.File) error) error {
	r, err := os.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()
	f, err := fitsio.Open(r)
	if err != nil {
		return fmt.Errorf("%s: %v", filepath.Base(path), err)
	}
	defer f.Close()
	return fn(filepath.Base(path), f)
}

// headerFloat extracts a required numeric header keyword.
func headerFloat(hdu fitsio.HDU, key, name string) (float64, error) {
	card := hdu.Header().Get(key)
	if card == nil {
		return 0, fmt.Errorf("%s: missing header keyword %s: %w", name, key, ErrMalformed)
	}
	switch v := card.Value.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return 0, fmt.Errorf("%s: header keyword %s is not numeric: %w", name, key, ErrMalformed)
}

// tableRecords copies a binary table extension into serializable
// column and row data.
func tableRecords(hdu fitsio.HDU, name string) (map[string]any, error) {
	tbl, ok := hdu.(*fitsio.Table)
	if !ok {
		return nil, fmt.Errorf("%s: HDU %s is not a binary table: %w",
			name, hdu.Name(), ErrMalformed)
	}
	cols := make([]string, len(tbl.Cols()))
	for i, c := range tbl.Cols() {
		cols[i] = c.Name
	}
	rows, err := tbl.Read(0, tbl.NumRows())
	if err != nil {
		return nil, fmt.Errorf("%s: reading table %s: %v", name, hdu.Name(), err)
	}
	defer rows.Close()
	var recs []map[string]any
	for rows.Next() {
		rec := make(map[string]any, len(cols))
		if err := rows.Scan(&rec); err != nil {
			return nil, fmt.Errorf("%s: scanning table %s: %v", name, hdu.Name(), err)
		}
		for k, v := range rec {
			rec[k] = plainValue(v)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: reading table %s: %v", name, hdu.Name(), err)
	}
	return map[string]any{"columns": cols, "rows": recs}, nil
}

// plainValue widens FITS cell types to types the YAML encoder handles
// directly.
func plainValue(v any) any {
	switch v := v.(type) {
	case nil, bool, string, int, int64, float64:
		return v
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int()
	case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float()
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = plainValue(rv.Index(i).Interface())
		}
		return out
	}
	return fmt.Sprint(v)
}
