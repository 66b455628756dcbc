package derive

import (
	"math"
	"strconv"
	"strings"
)

// RoundToDecimals rounds a derived value to the precision the filer
// declared on the inputs. An empty or INF declaration keeps the value
// exact. Negative declarations round to whole units rather than the
// filer's coarser power-of-ten grid.
func RoundToDecimals(value float64, decimals string) float64 {
	decimals = strings.TrimSpace(decimals)
	if decimals == "" || strings.EqualFold(decimals, "INF") {
		return value
	}
	n, err := strconv.Atoi(decimals)
	if err != nil {
		return value
	}
	if n <= 0 {
		return math.Round(value)
	}
	p := math.Pow(10, float64(n))
	return math.Round(value*p) / p
}
