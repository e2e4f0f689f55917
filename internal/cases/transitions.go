package cases

import "emergency-ops-backend/internal/model"

// transitions is the full state machine. TRIAGE and OBSERVATION may
// also move to ADMITTED, but only through Admit since that requires a
// bed; TransitionTo rejects ADMITTED as a target from TRIAGE.
var transitions = map[model.CaseStatus][]model.CaseStatus{
	model.CaseTriage: {
		model.CaseAdmitted,
		model.CaseDischarged,
	},
	model.CaseAdmitted: {
		model.CaseObservation,
		model.CaseDischarged,
		model.CaseTransferred,
	},
	model.CaseObservation: {
		model.CaseAdmitted,
		model.CaseDischarged,
		model.CaseTransferred,
	},
	// DISCHARGED and TRANSFERRED are terminal.
}

func canTransition(from, to model.CaseStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// releasesBed reports whether moving to the target state frees the
// case's bed.
func releasesBed(to model.CaseStatus) bool {
	return to.Terminal()
}
