// Package domain contains the checkout sub-forms, their field rules and the
// step sequence they are validated in.
package domain

import "fmt"

// Step is an index into the fixed checkout step sequence.
type Step int

const (
	StepBilling Step = iota
	StepDelivery
	StepPayment
)

// FirstStep and LastStep bound the sequence.
const (
	FirstStep = StepBilling
	LastStep  = StepPayment
)

// Steps returns the step sequence in order.
func Steps() []Step {
	return []Step{StepBilling, StepDelivery, StepPayment}
}

// Valid reports whether s is inside the sequence.
func (s Step) Valid() bool {
	return s >= FirstStep && s <= LastStep
}

// String returns the step name
func (s Step) String() string {
	switch s {
	case StepBilling:
		return "billing"
	case StepDelivery:
		return "delivery"
	case StepPayment:
		return "payment"
	default:
		return fmt.Sprintf("step(%d)", int(s))
	}
}

// Fields returns the fields owned by the step. Re-validating a step only
// touches error entries for these fields.
func (s Step) Fields() []Field {
	switch s {
	case StepBilling:
		return billingFields
	case StepDelivery:
		return deliveryFields
	case StepPayment:
		return paymentFields
	default:
		return nil
	}
}

// CompletedSteps returns the steps strictly before active.
func CompletedSteps(active Step) []Step {
	var done []Step
	for _, s := range Steps() {
		if s < active {
			done = append(done, s)
		}
	}
	return done
}
