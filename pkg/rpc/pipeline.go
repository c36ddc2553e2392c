package rpc

import (
	"context"
	"fmt"
	"slices"
)

// Phase selects one of the four stage chains.
type Phase int

const (
	InboundBefore Phase = iota
	InboundAfter
	OutboundBefore
	OutboundAfter
	phaseCount
)

func (p Phase) String() string {
	switch p {
	case InboundBefore:
		return "inbound_before"
	case InboundAfter:
		return "inbound_after"
	case OutboundBefore:
		return "outbound_before"
	case OutboundAfter:
		return "outbound_after"
	}
	return "unknown"
}

// StageFunc processes a call. Returning an error cancels the call.
type StageFunc func(ctx context.Context, call *Call) error

// Stage is a named step. Lower Order runs first; equal Order keeps
// insertion order.
type Stage struct {
	Name  string
	Order int
	Fn    StageFunc
}

// Well-known stage orders.
const (
	OrderConnAuth  = 50
	OrderAuthorize = 1992
)

// Pipeline holds ordered stage chains. It is not safe to modify while calls
// are running; build it fully before serving.
type Pipeline struct {
	chains [phaseCount][]Stage
}

// NewPipeline returns a pipeline with no stages.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Use appends stages to a phase. Stage names are unique per phase.
func (p *Pipeline) Use(phase Phase, stages ...Stage) error {
	if phase < 0 || phase >= phaseCount {
		return fmt.Errorf("%w: unknown phase %d", ErrInvalidStage, phase)
	}

	chain := slices.Clone(p.chains[phase])
	for _, st := range stages {
		if st.Name == "" || st.Fn == nil {
			return fmt.Errorf("%w: stage needs a name and a function", ErrInvalidStage)
		}
		if slices.ContainsFunc(chain, func(s Stage) bool { return s.Name == st.Name }) {
			return fmt.Errorf("%w: %s in %s", ErrDuplicateStage, st.Name, phase)
		}
		chain = append(chain, st)
	}

	slices.SortStableFunc(chain, func(a, b Stage) int { return a.Order - b.Order })
	p.chains[phase] = chain
	return nil
}

// Stages returns the names of a phase in execution order.
func (p *Pipeline) Stages(phase Phase) []string {
	if phase < 0 || phase >= phaseCount {
		return nil
	}
	names := make([]string, len(p.chains[phase]))
	for i, st := range p.chains[phase] {
		names[i] = st.Name
	}
	return names
}

// Run executes a phase sequentially. It stops at the first error or
// cancellation and returns that error.
func (p *Pipeline) Run(ctx context.Context, phase Phase, call *Call) error {
	if phase < 0 || phase >= phaseCount {
		return fmt.Errorf("%w: unknown phase %d", ErrInvalidStage, phase)
	}

	for _, st := range p.chains[phase] {
		if err := call.Err(); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := st.Fn(ctx, call); err != nil {
			call.Cancel(err)
			return err
		}
	}
	return call.Err()
}
