// Package stats computes the summary statistics shown on scoreboards.
package stats

import "math"

// MeanStdDev holds a mean and population standard deviation.
type MeanStdDev struct {
	Mean   float64
	StdDev float64
}

// MeanAndStdDev returns the mean and standard deviation of the non-nil
// values, or nil when there are none.
func MeanAndStdDev(data []*int) *MeanStdDev {
	var n, s, s2 int64
	for _, v := range data {
		if v == nil {
			continue
		}
		x := int64(*v)
		n++
		s += x
		s2 += x * x
	}
	if n == 0 {
		return nil
	}
	return &MeanStdDev{
		Mean:   float64(s) / float64(n),
		StdDev: math.Sqrt(float64(n*s2-s*s) / float64(n*n)),
	}
}

// Pair is one observation of two variables; nil marks a missing value.
type Pair struct {
	X *int
	Y *int
}

// CorrCoeff returns the correlation coefficient of the complete pairs, or
// nil when there are none or either variable is constant.
func CorrCoeff(data []Pair) *float64 {
	var n, sx, sx2, sy, sy2, sxy int64
	for _, p := range data {
		if p.X == nil || p.Y == nil {
			continue
		}
		x, y := int64(*p.X), int64(*p.Y)
		n++
		sx += x
		sx2 += x * x
		sy += y
		sy2 += y * y
		sxy += x * y
	}
	if n == 0 {
		return nil
	}
	num := n*sxy - sx*sy
	den2 := (n*sx2 - sx*sx) * (n*sy2 - sy*sy)
	if den2 == 0 {
		return nil
	}
	r := float64(num) / math.Sqrt(float64(den2))
	return &r
}
