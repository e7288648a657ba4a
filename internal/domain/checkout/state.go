// internal/domain/checkout/state.go
package checkout

import "fmt"

// State is a phase of the checkout flow
type State string

const (
	StateIdle             State = "idle"
	StateValidatingCoupon State = "validating_coupon"
	StatePricing          State = "pricing"
	StateGateCheck        State = "gate_check"
	StateSubmitting       State = "submitting"
	StateSuccess          State = "success"
	StateFailed           State = "failed"
)

// validTransitions maps each state to the states it may move to. Failed is
// recoverable: the shopper can fix the problem and run the flow again.
var validTransitions = map[State][]State{
	StateIdle:             {StateValidatingCoupon, StatePricing},
	StateValidatingCoupon: {StatePricing, StateFailed},
	StatePricing:          {StateGateCheck, StateFailed},
	StateGateCheck:        {StateSubmitting, StateFailed},
	StateSubmitting:       {StateSuccess, StateFailed},
	StateFailed:           {StateIdle, StateValidatingCoupon, StatePricing},
	StateSuccess:          {},
}

// Flow tracks checkout progress through its phases. Not safe for concurrent
// use; each checkout attempt owns one Flow.
type Flow struct {
	state   State
	lastErr error
}

// NewFlow starts a checkout flow in the idle state
func NewFlow() *Flow {
	return &Flow{state: StateIdle}
}

// State returns the current phase
func (f *Flow) State() State {
	return f.state
}

// Err returns the error that moved the flow to failed, if any
func (f *Flow) Err() error {
	return f.lastErr
}

// Transition moves the flow to the next phase, rejecting moves the flow does
// not allow.
func (f *Flow) Transition(next State) error {
	for _, allowed := range validTransitions[f.state] {
		if allowed == next {
			f.state = next
			if next != StateFailed {
				f.lastErr = nil
			}
			return nil
		}
	}
	return fmt.Errorf("invalid checkout transition from %s to %s", f.state, next)
}

// Fail moves the flow to failed and records the cause
func (f *Flow) Fail(err error) {
	f.state = StateFailed
	f.lastErr = err
}

// Terminal reports whether the flow has finished successfully
func (f *Flow) Terminal() bool {
	return f.state == StateSuccess
}
