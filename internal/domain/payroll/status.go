package payroll

import "github.com/cmlabs-hris/hris-payroll-go/internal/pkg/apperror"

var recordTransitions = map[RecordStatus][]RecordStatus{
	RecordStatusDraft:      {RecordStatusCalculated, RecordStatusCancelled},
	RecordStatusCalculated: {RecordStatusCalculated, RecordStatusApproved, RecordStatusCancelled},
	RecordStatusApproved:   {RecordStatusCalculated, RecordStatusProcessed, RecordStatusCancelled},
	RecordStatusCancelled:  {RecordStatusCalculated},
}

func (s RecordStatus) IsValid() bool {
	switch s {
	case RecordStatusDraft, RecordStatusCalculated, RecordStatusApproved, RecordStatusProcessed, RecordStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether s -> next is allowed. Processed records only move
// through a batch rollback or permission-gated recalculation, which bypass this table.
func (s RecordStatus) CanTransitionTo(next RecordStatus) bool {
	for _, allowed := range recordTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s RecordStatus) ValidateTransition(next RecordStatus) error {
	if !s.CanTransitionTo(next) {
		return &apperror.StateTransitionError{Entity: "payroll record", From: string(s), To: string(next)}
	}
	return nil
}
