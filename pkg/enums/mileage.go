package enums

import "fmt"

// MileageRequestState is the admin decision state of a charge request.
type MileageRequestState string

const (
	MileageRequestProcessing MileageRequestState = "PROCESSING"
	MileageRequestApproval   MileageRequestState = "APPROVAL"
	MileageRequestRefusal    MileageRequestState = "REFUSAL"
)

var validMileageRequestStates = []MileageRequestState{
	MileageRequestProcessing,
	MileageRequestApproval,
	MileageRequestRefusal,
}

func (s MileageRequestState) IsValid() bool {
	for _, candidate := range validMileageRequestStates {
		if candidate == s {
			return true
		}
	}
	return false
}

// MileageRequestFilter selects pending or already decided requests.
type MileageRequestFilter string

const (
	MileageRequestFilterProcessing MileageRequestFilter = "PROCESSING"
	MileageRequestFilterProcessed  MileageRequestFilter = "PROCESSED"
)

// States expands the filter into the concrete request states it covers.
func (f MileageRequestFilter) States() []MileageRequestState {
	switch f {
	case MileageRequestFilterProcessing:
		return []MileageRequestState{MileageRequestProcessing}
	case MileageRequestFilterProcessed:
		return []MileageRequestState{MileageRequestApproval, MileageRequestRefusal}
	default:
		return nil
	}
}

func ParseMileageRequestFilter(value string) (MileageRequestFilter, error) {
	switch MileageRequestFilter(value) {
	case MileageRequestFilterProcessing, MileageRequestFilterProcessed:
		return MileageRequestFilter(value), nil
	}
	return "", fmt.Errorf("invalid mileage request status %q", value)
}

// MileageReason tags each ledger entry.
type MileageReason string

const (
	MileageReasonCharge MileageReason = "CHARGE"
	MileageReasonRefund MileageReason = "REFUND"
	MileageReasonUse    MileageReason = "USE"
)

var validMileageReasons = []MileageReason{
	MileageReasonCharge,
	MileageReasonRefund,
	MileageReasonUse,
}

func (r MileageReason) IsValid() bool {
	for _, candidate := range validMileageReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// Credits reports whether entries with this reason must increase the balance.
func (r MileageReason) Credits() bool {
	return r == MileageReasonCharge || r == MileageReasonRefund
}

func ParseMileageReason(value string) (MileageReason, error) {
	for _, candidate := range validMileageReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid mileage reason %q", value)
}
