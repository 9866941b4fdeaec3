package compute

import (
	"math"
	"time"
)

const (
	DefaultGuardDigits = 50

	// reportsPerJob bounds the number of progress reports of a single job.
	reportsPerJob = 100
)

// machinTerms are the arctangent arguments (as 1/x) of Machin's formula and
// their coefficients.
var machinTerms = [2]struct {
	x    int64
	coef int64
}{
	{x: 5, coef: 16},
	{x: 239, coef: -4},
}

// Policy holds the tunable parameters of the computation.
type Policy struct {
	// GuardDigits is the minimum number of extra decimal digits carried by the
	// accumulator.
	GuardDigits int
	// MinSteps pads the first series with extra terms when the required step
	// count is smaller. The extra terms are below the working precision.
	MinSteps int
	// StepDelay throttles every step. Zero disables it.
	StepDelay time.Duration
}

func DefaultPolicy() Policy {
	return Policy{GuardDigits: DefaultGuardDigits}
}

// Plan is the resolved execution plan for one request.
type Plan struct {
	Digits int
	Guard  int
	// Terms is the number of steps spent on each series of machinTerms.
	Terms [2]int
	// Prec is the mantissa size, in bits, of the accumulator.
	Prec uint
	// ReportEvery is the number of steps between two progress reports.
	ReportEvery int
}

func (p Plan) Steps() int {
	return p.Terms[0] + p.Terms[1]
}

// Plan resolves the step count, guard digits and precision for digits decimal
// places.
func (p Policy) Plan(digits int) Plan {
	guard := p.GuardDigits
	if guard < 3 {
		guard = 3
	}

	var terms [2]int
	for {
		for i, t := range machinTerms {
			terms[i] = termsFor(t.x, digits+guard)
		}
		if total := terms[0] + terms[1]; total < p.MinSteps {
			terms[0] += p.MinSteps - total
		}
		needed := minGuard(terms[0] + terms[1])
		if needed <= guard {
			break
		}
		guard = needed
	}

	steps := terms[0] + terms[1]
	return Plan{
		Digits:      digits,
		Guard:       guard,
		Terms:       terms,
		Prec:        uint(math.Ceil(float64(digits+guard) * math.Log2(10))),
		ReportEvery: max(1, steps/reportsPerJob),
	}
}

// termsFor returns the number of terms of atan(1/x) needed so that the first
// omitted term 1/((2K+1) x^(2K+1)) is below 10^-decimals.
func termsFor(x int64, decimals int) int {
	lx := math.Log10(float64(x))
	k := 0
	for {
		n := float64(2*k + 1)
		if n*lx+math.Log10(n) > float64(decimals) {
			return k
		}
		k++
	}
}

// minGuard is the number of guard digits that keeps the rounding error
// accumulated over steps below one unit of the last requested digit.
func minGuard(steps int) int {
	return int(math.Ceil(math.Log10(float64(max(steps, 1))))) + 3
}
