// Public domain.

package keyval

import (
	"fmt"
	"sort"
	"strings"
)

// A Beam is the sub-mapping of fields for one spectral order, keyed by
// field name with the beam tag removed.
type Beam map[string]Value

// OrderSplit is the result of regrouping a configuration by beam tag.
type OrderSplit struct {
	// Beams maps each single-letter order/beam tag, upper-cased, to
	// its fields.
	Beams map[string]Beam

	// Global holds the fields with no embedded beam tag, unchanged.
	Global map[string]Value
}

// Tags returns the beam tags in lexicographic order, the order used
// for serialization.
func (s *OrderSplit) Tags() []string {
	tags := make([]string, 0, len(s.Beams))
	for tag := range s.Beams {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// SplitOrders regroups a parsed configuration by the beam tag embedded
// in its field names.  A field such as DISPX_A files under beam A as
// DISPX; fields without a tag pass through at the top level.  Within
// each beam, NAME_0/NAME_1 key pairs merge into a single two-element
// range pair under NAME.
//
// Beam tags are single letters only.  A lone digit in that position
// cannot be told apart from the _0/_1 range suffixes, so a key such as
// DISPX_1_0 carries no tag and passes through at the top level.
//
// The input map is not modified; fresh maps are returned.
func SplitOrders(conf map[string]Value) (*OrderSplit, error) {
	s := &OrderSplit{
		Beams:  make(map[string]Beam),
		Global: make(map[string]Value),
	}
	for key, v := range conf {
		tag, name, ok := splitTag(key)
		if !ok {
			s.Global[key] = v
			continue
		}
		b := s.Beams[tag]
		if b == nil {
			b = make(Beam)
			s.Beams[tag] = b
		}
		b[name] = v
	}
	for tag, b := range s.Beams {
		if err := mergeRanges(tag, b); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// splitTag finds the beam tag in a field name.  The tag is the first
// underscore-separated segment that is a single letter; the preceding
// segment must be a plain word.  The returned name is the field name
// with the tag segment removed.
func splitTag(key string) (tag, name string, ok bool) {
	segs := strings.Split(key, "_")
	if len(segs) < 2 || !alphaWord(segs[0]) {
		return "", "", false
	}
	for i := 1; i < len(segs); i++ {
		if len(segs[i]) == 1 && isLetter(segs[i][0]) {
			rest := make([]string, 0, len(segs)-1)
			rest = append(rest, segs[:i]...)
			rest = append(rest, segs[i+1:]...)
			return strings.ToUpper(segs[i]), strings.Join(rest, "_"), true
		}
	}
	return "", "", false
}

func alphaWord(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isLetter(s[i]) {
			return false
		}
	}
	return true
}

// mergeRanges collapses NAME_0/NAME_1 pairs in one beam into a single
// range Value under NAME and removes the suffixed keys.  A suffix
// digit outside {0,1}, a missing partner key, a non-scalar-or-list
// half, or a collision with an existing bare NAME key is a fatal
// input error.
func mergeRanges(tag string, b Beam) error {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, still := b[key]; !still {
			continue // removed as the partner of an earlier key
		}
		base, digit, ok := rangeKey(key)
		if !ok {
			continue
		}
		if digit > 1 {
			return fmt.Errorf("beam %s: unexpected range variable %s", tag, key)
		}
		lo, ok0 := b[base+"_0"]
		hi, ok1 := b[base+"_1"]
		if !ok0 || !ok1 {
			return fmt.Errorf("beam %s: range key %s has no matching pair", tag, key)
		}
		if len(lo.Pair) != 0 || len(hi.Pair) != 0 {
			return fmt.Errorf("beam %s: nested range pair at %s", tag, base)
		}
		if _, exists := b[base]; exists {
			return fmt.Errorf("beam %s: range pair %s collides with existing key", tag, base)
		}
		b[base] = Value{Pair: []Value{lo, hi}}
		delete(b, base+"_0")
		delete(b, base+"_1")
	}
	return nil
}

// rangeKey matches field names of the form NAME_<digit>.
func rangeKey(key string) (base string, digit int, ok bool) {
	n := len(key)
	if n < 3 || key[n-2] != '_' || !isDigit(key[n-1]) {
		return "", 0, false
	}
	return key[:n-2], int(key[n-1] - '0'), true
}
