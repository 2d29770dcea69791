// Public domain.

// Package keyval reads the generic key-value text format used in the
// instrument teams' grism configuration deliveries.
//
// A configuration file holds one field per line,
//
//	keyword value[ value...]
//
// where values are separated by whitespace or commas.  Lines that are
// blank or that do not start with a letter carry no data and are
// skipped.  Parsed fields are either a single number or an ordered
// list of numbers.
package keyval

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// A Value is one parsed field value: a single number, an ordered list
// of numbers, or a range pair merged from NAME_0/NAME_1 keys by
// SplitOrders.
type Value struct {
	// Nums holds the numbers of a scalar or list field.  A field whose
	// single token failed the numeric grammar has no numbers at all.
	Nums []float64

	// Scalar reports that the field carried exactly one numeric token.
	Scalar bool

	// Pair holds the two halves of a merged NAME_0/NAME_1 range key,
	// in suffix order.  Nums is empty when Pair is set.
	Pair []Value
}

// Float returns the field as a scalar.
func (v Value) Float() (float64, bool) {
	if !v.Scalar || len(v.Nums) != 1 {
		return 0, false
	}
	return v.Nums[0], true
}

// List returns the field's numbers, scalar or list.
func (v Value) List() []float64 { return v.Nums }

// Bounds returns a merged range pair of two scalars.
func (v Value) Bounds() (lo, hi float64, ok bool) {
	if len(v.Pair) != 2 {
		return 0, 0, false
	}
	lo, ok = v.Pair[0].Float()
	if !ok {
		return 0, 0, false
	}
	hi, ok = v.Pair[1].Float()
	if !ok {
		return 0, 0, false
	}
	return lo, hi, true
}

// PairLists returns a merged range pair of two coefficient lists.
func (v Value) PairLists() (a, b []float64, ok bool) {
	if len(v.Pair) != 2 {
		return nil, nil, false
	}
	return v.Pair[0].Nums, v.Pair[1].Nums, true
}

// Empty reports a field recorded with no numeric value.
func (v Value) Empty() bool { return len(v.Nums) == 0 && len(v.Pair) == 0 }

// numRx is the numeric grammar for value tokens: optional sign,
// optional integer part, optional decimal point and fraction, optional
// exponent.  A token must both match the grammar and parse as a float;
// anything else fails closed.
var numRx = regexp.MustCompile(`^[+-]?[0-9]*\.?[0-9]*([eE][+-]?[0-9]+)?$`)

func parseNum(tok string) (float64, bool) {
	if !numRx.MatchString(tok) {
		return 0, false
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// maxSplit caps the number of splits made on one line, as in the
// reference format description.
const maxSplit = 10

// ParseFile reads a key-value configuration file.  Field names
// containing FILTER or SENS reference sensitivity tables and are
// dropped.  Duplicate field names overwrite silently; the last
// occurrence wins.
func ParseFile(path string) (map[string]Value, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, filepath.Base(path))
}

// Parse reads key-value lines from r.  The name is used in error
// diagnostics only.
func Parse(r io.Reader, name string) (map[string]Value, error) {
	content := make(map[string]Value)
	sc := bufio.NewScanner(r)
	ln := 0
	for sc.Scan() {
		ln++
		line := strings.TrimSpace(sc.Text())
		if line == "" || !isLetter(line[0]) {
			continue
		}
		toks := tokenize(line, maxSplit)
		key := toks[0]
		if strings.Contains(key, "FILTER") || strings.Contains(key, "SENS") {
			continue
		}
		switch len(toks) {
		case 1:
			content[key] = Value{}
		case 2:
			// A lone token that is not numeric records the field with
			// no value; such fields are excluded downstream.
			if f, ok := parseNum(toks[1]); ok {
				content[key] = Value{Nums: []float64{f}, Scalar: true}
			} else {
				content[key] = Value{}
			}
		default:
			nums := make([]float64, len(toks)-1)
			for i, tok := range toks[1:] {
				f, ok := parseNum(tok)
				if !ok {
					return nil, fmt.Errorf(
						"%s line %d: field %s: unexpected value %q",
						name, ln, key, tok)
				}
				nums[i] = f
			}
			content[key] = Value{Nums: nums}
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %v", name, err)
	}
	return content, nil
}

func isLetter(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// tokenize splits a line on runs of whitespace and on commas not
// adjacent to a digit on either side, so decimal-comma values survive.
// At most maxSplit splits are made; any remainder stays in the final
// token.
func tokenize(line string, maxSplit int) []string {
	sep := func(i int) bool {
		switch c := line[i]; c {
		case ' ', '\t':
			return true
		case ',':
			if i > 0 && isDigit(line[i-1]) {
				return false
			}
			if i+1 < len(line) && isDigit(line[i+1]) {
				return false
			}
			return true
		}
		return false
	}
	var toks []string
	for i := 0; i < len(line); {
		for i < len(line) && sep(i) {
			i++
		}
		if i == len(line) {
			break
		}
		if len(toks) == maxSplit {
			toks = append(toks, line[i:])
			break
		}
		j := i
		for j < len(line) && !sep(j) {
			j++
		}
		toks = append(toks, line[i:j])
		i = j
	}
	return toks
}
