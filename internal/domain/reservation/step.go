package reservation

import "fmt"

// Step is the position of a workflow in the booking process.
type Step int

const (
	StepCollectingGuestInfo Step = 1
	StepSelectingPayment    Step = 2
	StepConfirmed           Step = 3
)

// validSteps defines which steps may follow each step.
var validSteps = map[Step][]Step{
	StepCollectingGuestInfo: {StepSelectingPayment},
	StepSelectingPayment:    {StepCollectingGuestInfo, StepConfirmed},
	StepConfirmed:           {},
}

// IsValid returns true if the step is recognized.
func (s Step) IsValid() bool {
	_, ok := validSteps[s]
	return ok
}

// CanTransitionTo returns true if moving from s to target is allowed.
func (s Step) CanTransitionTo(target Step) bool {
	for _, t := range validSteps[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true once no further transition is possible.
func (s Step) IsTerminal() bool {
	return len(validSteps[s]) == 0
}

// String returns the step's name.
func (s Step) String() string {
	switch s {
	case StepCollectingGuestInfo:
		return "collecting_guest_info"
	case StepSelectingPayment:
		return "selecting_payment"
	case StepConfirmed:
		return "confirmed"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}
