package orders

import "github.com/gwon477/dmarket/pkg/enums"

// allowedTransitions lists the admin-settable targets per state. Delivery
// may skip forward; cancel is only possible before shipping.
var allowedTransitions = map[enums.OrderDetailState][]enums.OrderDetailState{
	enums.OrderDetailStateOrderComplete: {
		enums.OrderDetailStateDeliveryReady,
		enums.OrderDetailStateDeliveryIng,
		enums.OrderDetailStateDeliveryComplete,
		enums.OrderDetailStateOrderCancel,
	},
	enums.OrderDetailStateDeliveryReady: {
		enums.OrderDetailStateDeliveryIng,
		enums.OrderDetailStateDeliveryComplete,
		enums.OrderDetailStateOrderCancel,
	},
	enums.OrderDetailStateDeliveryIng: {
		enums.OrderDetailStateDeliveryComplete,
	},
	enums.OrderDetailStateDeliveryComplete: {
		enums.OrderDetailStateReturnRequest,
	},
	enums.OrderDetailStateReturnRequest: {
		enums.OrderDetailStateReturnComplete,
	},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to enums.OrderDetailState) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no admin transition leaves state.
func IsTerminal(state enums.OrderDetailState) bool {
	return len(allowedTransitions[state]) == 0
}
