package fsm

import (
	"context"
	"errors"

	loopfsm "github.com/looplab/fsm"

	"github.com/tiendix/tiendix/internal/domain"
)

// Compile-time check: Validator implements domain.StatusValidator.
var _ domain.StatusValidator = (*Validator)(nil)

// events converts domain.OrderTransitions into looplab/fsm EventDesc format.
// Transitions are driven by the requested target status, so the event name
// is the destination and the sources are every status allowed to reach it.
var events = buildEvents()

// effects indexes the ledger effect of each cross-state transition.
var effects = buildEffects()

func buildEvents() []loopfsm.EventDesc {
	grouped := make(map[domain.OrderStatus][]string)
	order := make([]domain.OrderStatus, 0)

	for _, t := range domain.OrderTransitions {
		if _, exists := grouped[t.To]; !exists {
			order = append(order, t.To)
		}
		grouped[t.To] = append(grouped[t.To], string(t.From))
	}

	out := make([]loopfsm.EventDesc, 0, len(order))
	for _, dst := range order {
		out = append(out, loopfsm.EventDesc{
			Name: string(dst),
			Src:  grouped[dst],
			Dst:  string(dst),
		})
	}
	return out
}

func buildEffects() map[[2]domain.OrderStatus]domain.LedgerEffect {
	out := make(map[[2]domain.OrderStatus]domain.LedgerEffect, len(domain.OrderTransitions))
	for _, t := range domain.OrderTransitions {
		out[[2]domain.OrderStatus{t.From, t.To}] = t.Effect
	}
	return out
}

// Validator implements domain.StatusValidator using looplab/fsm.
// It creates a short-lived FSM instance per Apply call, initialized with
// the order's current status. This is necessary because looplab/fsm is
// stateful (it tracks the current state internally).
type Validator struct{}

// New creates a new FSM-backed status validator.
func New() *Validator {
	return &Validator{}
}

// Apply checks that the order may move from current to target and returns
// the transition's ledger effect. A same-state request is accepted with
// EffectNone. An unknown pairing surfaces as a validation failure carrying
// the offending status.
func (v *Validator) Apply(ctx context.Context, current, target domain.OrderStatus) (domain.LedgerEffect, error) {
	if current == target {
		return domain.EffectNone, nil
	}

	machine := loopfsm.NewFSM(string(current), events, nil)

	if err := machine.Event(ctx, string(target)); err != nil {
		var invalidEvent loopfsm.InvalidEventError
		var unknownEvent loopfsm.UnknownEventError
		if errors.As(err, &invalidEvent) || errors.As(err, &unknownEvent) {
			return domain.EffectNone, &domain.ValidationError{
				Field: "status",
				Value: string(target),
			}
		}
		return domain.EffectNone, err
	}

	return effects[[2]domain.OrderStatus{current, target}], nil
}
