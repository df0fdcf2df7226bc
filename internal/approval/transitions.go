package approval

import "fmt"

// transitionMap lists the statuses each action may leave from.
var transitionMap = map[Action][]Status{
	ActionApprove: {StatusPending},
	ActionReject:  {StatusPending},
}

// CanTransition reports whether action is allowed from the given status
func CanTransition(from Status, action Action) bool {
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == from {
			return true
		}
	}
	return false
}

// Transition returns the status reached by applying action to from.
// A terminal source yields ErrAlreadyResolved so replays stay observable.
func Transition(from Status, action Action) (Status, error) {
	if from.IsTerminal() {
		return from, fmt.Errorf("%w: request is %s", ErrAlreadyResolved, from)
	}
	if !CanTransition(from, action) {
		return from, fmt.Errorf("%w: cannot %s from %s", ErrInvalidTransition, action, from)
	}
	return action.Outcome(), nil
}
