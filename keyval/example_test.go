// Public domain.

package keyval_test

import (
	"fmt"
	"strings"

	"refconv/keyval"
)

func ExampleSplitOrders() {
	conf, _ := keyval.Parse(strings.NewReader(`
FWCPOS_REF 354.222
DISPX_A 1.0 2.0
DISPL_A_0 20000.0
DISPL_A_1 10000.0
`), "example.conf")
	s, _ := keyval.SplitOrders(conf)
	fmt.Println(s.Tags())
	fmt.Println(s.Beams["A"]["DISPX"].List())
	lo, hi, _ := s.Beams["A"]["DISPL"].Bounds()
	fmt.Println(lo, hi)
	// Output:
	// [A]
	// [1 2]
	// 20000 10000
}
