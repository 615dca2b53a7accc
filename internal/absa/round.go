package absa

import "strconv"

// round rounds half to even on the exact binary value, so 0.125 becomes 0.12
// and 2.675 (stored just below) becomes 2.67.
func round(v float64, places int) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	if err != nil {
		return v
	}
	return r
}
