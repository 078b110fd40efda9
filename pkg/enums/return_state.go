package enums

import "fmt"

// ReturnState tracks a return through collection and refund.
type ReturnState string

const (
	ReturnStateReturnRequest   ReturnState = "RETURN_REQUEST"
	ReturnStateCollectIng      ReturnState = "COLLECT_ING"
	ReturnStateCollectComplete ReturnState = "COLLECT_COMPLETE"
	ReturnStateRefundComplete  ReturnState = "REFUND_COMPLETE"
)

var validReturnStates = []ReturnState{
	ReturnStateReturnRequest,
	ReturnStateCollectIng,
	ReturnStateCollectComplete,
	ReturnStateRefundComplete,
}

var returnStateLabels = map[ReturnState]string{
	ReturnStateReturnRequest:   "반품 요청",
	ReturnStateCollectIng:      "수거중",
	ReturnStateCollectComplete: "수거 완료",
	ReturnStateRefundComplete:  "환불 완료",
}

// ListableReturnStates are the states shown in the admin return queue.
var ListableReturnStates = []ReturnState{
	ReturnStateReturnRequest,
	ReturnStateCollectIng,
	ReturnStateCollectComplete,
}

func (s ReturnState) String() string {
	return string(s)
}

func (s ReturnState) Label() string {
	return returnStateLabels[s]
}

// Rank orders states along the return pipeline.
func (s ReturnState) Rank() int {
	for i, candidate := range validReturnStates {
		if candidate == s {
			return i
		}
	}
	return -1
}

func (s ReturnState) IsValid() bool {
	return s.Rank() >= 0
}

// ParseReturnState accepts either the display label or the state name.
func ParseReturnState(value string) (ReturnState, error) {
	for _, candidate := range validReturnStates {
		if returnStateLabels[candidate] == value || string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return state %q", value)
}
