package compute

import (
	"context"
	"fmt"
	"math/big"
	"runtime"
	"time"
)

// Reporter receives the completion fraction of a running computation. A
// non-nil error stops the computation at the checkpoint that reported.
type Reporter interface {
	Report(ctx context.Context, progress float64) error
}

type ReporterFunc func(ctx context.Context, progress float64) error

func (f ReporterFunc) Report(ctx context.Context, progress float64) error {
	return f(ctx, progress)
}

var NopReporter Reporter = ReporterFunc(func(context.Context, float64) error { return nil })

// Pi computes pi to a requested number of decimal places.
type Pi struct {
	policy Policy
}

func NewPi(policy Policy) *Pi {
	return &Pi{policy: policy}
}

// Compute returns pi rounded to digits decimal places. It reports progress
// through r and stops at the next checkpoint once ctx is done or r fails.
func (p *Pi) Compute(ctx context.Context, digits int, r Reporter) (string, error) {
	if digits < 0 {
		return "", fmt.Errorf("digits must be a non-negative integer, got %d", digits)
	}
	if r == nil {
		r = NopReporter
	}

	plan := p.policy.Plan(digits)
	run := &series{
		ctx:      ctx,
		plan:     plan,
		total:    plan.Steps(),
		reporter: r,
		delay:    p.policy.StepDelay,
	}

	sum := new(big.Float).SetPrec(plan.Prec)
	coef := new(big.Float).SetPrec(plan.Prec)
	for i, t := range machinTerms {
		atan, err := run.arctanInv(t.x, plan.Terms[i])
		if err != nil {
			return "", err
		}
		coef.SetInt64(t.coef)
		sum.Add(sum, atan.Mul(atan, coef))
	}

	return sum.Text('f', digits), nil
}

// series walks the steps of every arctangent series of one computation and
// owns the checkpoint logic.
type series struct {
	ctx      context.Context
	plan     Plan
	total    int
	step     int
	reporter Reporter
	delay    time.Duration
}

// arctanInv sums the first n terms of atan(1/x).
func (s *series) arctanInv(x int64, n int) (*big.Float, error) {
	prec := s.plan.Prec

	acc := new(big.Float).SetPrec(prec)
	term := new(big.Float).SetPrec(prec)
	den := new(big.Float).SetPrec(prec)
	x2 := new(big.Float).SetPrec(prec).SetInt64(x * x)
	// power is 1/x^(2k+1)
	power := new(big.Float).SetPrec(prec).SetInt64(1)
	power.Quo(power, new(big.Float).SetPrec(prec).SetInt64(x))

	for k := 0; k < n; k++ {
		if err := s.checkpoint(); err != nil {
			return nil, err
		}

		den.SetInt64(int64(2*k + 1))
		term.Quo(power, den)
		if k%2 == 0 {
			acc.Add(acc, term)
		} else {
			acc.Sub(acc, term)
		}
		power.Quo(power, x2)
		s.step++

		if err := s.throttle(); err != nil {
			return nil, err
		}
	}

	return acc, nil
}

func (s *series) checkpoint() error {
	if s.step%s.plan.ReportEvery != 0 {
		return nil
	}
	if err := s.ctx.Err(); err != nil {
		return fmt.Errorf("interrupted at step %d of %d: %w", s.step, s.total, err)
	}
	if err := s.reporter.Report(s.ctx, float64(s.step)/float64(s.total)); err != nil {
		return fmt.Errorf("stopped at step %d of %d: %w", s.step, s.total, err)
	}
	runtime.Gosched()
	return nil
}

func (s *series) throttle() error {
	if s.delay <= 0 {
		return nil
	}
	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-s.ctx.Done():
		return fmt.Errorf("interrupted at step %d of %d: %w", s.step, s.total, s.ctx.Err())
	case <-t.C:
		return nil
	}
}
