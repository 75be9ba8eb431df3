package lsh

import (
	"fmt"
	"math"

	"github.com/cognicore/newsdedup/pkg/newsdedup/internalerr"
)

// Weights applied to the false-positive and false-negative mass when
// choosing band parameters.
const (
	FalsePositiveWeight = 0.5
	FalseNegativeWeight = 0.5
)

// simpsonIntervals is the (even) number of subintervals used to integrate
// the banding collision curve.
const simpsonIntervals = 512

// Params is a banding layout: Bands bands of Rows signature components each.
// Components past Bands*Rows are ignored.
type Params struct {
	Bands int
	Rows  int
}

// Width is the number of signature components the layout consumes.
func (p Params) Width() int {
	return p.Bands * p.Rows
}

// Validate checks that p fits inside a numPerm-wide signature.
func (p Params) Validate(numPerm int) error {
	if p.Bands < 1 || p.Rows < 1 {
		return &internalerr.ConfigError{Field: "lsh", Msg: fmt.Sprintf("bands and rows must be positive, got %d x %d", p.Bands, p.Rows)}
	}
	if p.Width() > numPerm {
		return &internalerr.ConfigError{Field: "lsh", Msg: fmt.Sprintf("%d bands x %d rows exceeds num_perm %d", p.Bands, p.Rows, numPerm)}
	}
	return nil
}

func (p Params) String() string {
	return fmt.Sprintf("%d bands x %d rows", p.Bands, p.Rows)
}

// CollisionProbability is the chance two sets with Jaccard similarity s share
// at least one band: 1 - (1 - s^r)^b.
func (p Params) CollisionProbability(s float64) float64 {
	return 1 - math.Pow(1-math.Pow(s, float64(p.Rows)), float64(p.Bands))
}

// FalsePositive is the area under the collision curve below threshold.
func (p Params) FalsePositive(threshold float64) float64 {
	return integrate(p.CollisionProbability, 0, threshold)
}

// FalseNegative is the area above the collision curve from threshold to 1.
func (p Params) FalseNegative(threshold float64) float64 {
	return integrate(func(s float64) float64 {
		return 1 - p.CollisionProbability(s)
	}, threshold, 1)
}

// OptimalParams picks the banding layout for a numPerm-wide signature that
// minimizes the weighted false-positive and false-negative mass around
// threshold. Ties keep the layout with fewer bands, then fewer rows.
func OptimalParams(threshold float64, numPerm int) (Params, error) {
	if threshold <= 0 || threshold > 1 {
		return Params{}, &internalerr.ConfigError{Field: "threshold", Msg: fmt.Sprintf("must be in (0, 1], got %g", threshold)}
	}
	if numPerm < 1 {
		return Params{}, &internalerr.ConfigError{Field: "num_perm", Msg: fmt.Sprintf("must be positive, got %d", numPerm)}
	}

	best := Params{}
	minErr := math.Inf(1)
	for b := 1; b <= numPerm; b++ {
		for r := 1; r <= numPerm/b; r++ {
			p := Params{Bands: b, Rows: r}
			e := FalsePositiveWeight*p.FalsePositive(threshold) +
				FalseNegativeWeight*p.FalseNegative(threshold)
			if e < minErr {
				minErr = e
				best = p
			}
		}
	}
	return best, nil
}

// integrate applies composite Simpson's rule to f over [lo, hi].
func integrate(f func(float64) float64, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	h := (hi - lo) / simpsonIntervals
	sum := f(lo) + f(hi)
	for i := 1; i < simpsonIntervals; i++ {
		x := lo + float64(i)*h
		if i%2 == 1 {
			sum += 4 * f(x)
		} else {
			sum += 2 * f(x)
		}
	}
	return sum * h / 3
}
