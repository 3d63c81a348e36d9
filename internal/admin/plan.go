package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// Step is one write of a multi-step admin flow
type Step struct {
	Name string
	Run  func(ctx context.Context) error
	// StopOnError aborts the remaining steps when this one fails and undoes
	// the steps that already succeeded
	StopOnError bool
	// Compensate undoes a successful Run. Optional.
	Compensate func(ctx context.Context) error
}

// StepResult is the outcome of one step
type StepResult struct {
	Name        string `json:"name"`
	OK          bool   `json:"ok"`
	Skipped     bool   `json:"skipped,omitempty"`
	Compensated bool   `json:"compensated,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Result is the outcome of a plan
type Result struct {
	Plan  string       `json:"plan"`
	Steps []StepResult `json:"steps"`

	errs []error
}

// OK reports whether every step ran and succeeded
func (r Result) OK() bool {
	return len(r.errs) == 0
}

// Err joins the errors of every failed step
func (r Result) Err() error {
	return errors.Join(r.errs...)
}

// Plan is an ordered list of steps. Plans are best-effort and not
// transactional: a failed step is recorded and later steps still run, unless
// the step is marked StopOnError.
type Plan struct {
	Name  string
	Steps []Step
}

// Execute runs the steps in order and reports each outcome
func (p Plan) Execute(ctx context.Context, log zerolog.Logger) Result {
	res := Result{Plan: p.Name, Steps: make([]StepResult, len(p.Steps))}
	for i, st := range p.Steps {
		res.Steps[i].Name = st.Name
	}

	for i, st := range p.Steps {
		err := st.Run(ctx)
		if err == nil {
			res.Steps[i].OK = true
			continue
		}

		res.Steps[i].Error = err.Error()
		res.errs = append(res.errs, fmt.Errorf("%s: %w", st.Name, err))
		log.Error().Err(err).Str("plan", p.Name).Str("step", st.Name).Msg("Admin step failed")

		if !st.StopOnError {
			continue
		}

		for j := i + 1; j < len(p.Steps); j++ {
			res.Steps[j].Skipped = true
		}
		p.compensate(ctx, i, &res, log)
		break
	}
	return res
}

// compensate undoes the successful steps before failed, newest first
func (p Plan) compensate(ctx context.Context, failed int, res *Result, log zerolog.Logger) {
	for j := failed - 1; j >= 0; j-- {
		st := p.Steps[j]
		if st.Compensate == nil || !res.Steps[j].OK {
			continue
		}
		if err := st.Compensate(ctx); err != nil {
			res.errs = append(res.errs, fmt.Errorf("undo %s: %w", st.Name, err))
			log.Error().Err(err).Str("plan", p.Name).Str("step", st.Name).Msg("Failed to undo admin step")
			continue
		}
		res.Steps[j].Compensated = true
	}
}
