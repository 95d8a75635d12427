package booking

import "fmt"

// Step is one screen of the booking wizard.
type Step int

const (
	StepBarber   Step = iota // choose a barber
	StepService              // choose a service
	StepSummary              // review the selection
	StepCalendar             // embedded scheduling calendar
	StepContact              // contact details and final confirmation
)

// TotalSteps is the number of wizard steps.
const TotalSteps = 5

// LastStep is the final wizard step.
const LastStep = StepContact

var stepNames = [TotalSteps]string{
	"Choose your barber",
	"Choose a service",
	"Summary",
	"Pick a time",
	"Contact",
}

// String returns the human-readable step title.
func (s Step) String() string {
	if !s.Valid() {
		return fmt.Sprintf("Step(%d)", int(s))
	}
	return stepNames[s]
}

// Valid reports whether s is inside [0, TotalSteps).
func (s Step) Valid() bool {
	return s >= 0 && s < TotalSteps
}
