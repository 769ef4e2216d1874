package plugins

import (
	"math"
	"testing"

	"github.com/dop251/goja"
)

func TestToInt(t *testing.T) {
	vm := goja.New()
	testCases := []struct {
		in   interface{}
		want int
		ok   bool
	}{
		{42, 42, true},
		{49.5, 50, true},
		{-3.4, -3, true},
		{"7", 7, true},
		{1e300, math.MaxInt32, true},
		{-1e300, math.MinInt32, true},
		{math.NaN(), 0, false},
		{math.Inf(1), 0, false},
	}
	for _, tc := range testCases {
		got, ok := toInt(vm.ToValue(tc.in))
		if got != tc.want || ok != tc.ok {
			t.Errorf("toInt(%v) = %d, %v; want %d, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
