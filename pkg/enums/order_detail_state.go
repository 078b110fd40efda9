package enums

import "fmt"

// OrderDetailState is the fulfillment state of a single purchased line item.
type OrderDetailState string

const (
	OrderDetailStateOrderComplete    OrderDetailState = "ORDER_COMPLETE"
	OrderDetailStateDeliveryReady    OrderDetailState = "DELIVERY_READY"
	OrderDetailStateDeliveryIng      OrderDetailState = "DELIVERY_ING"
	OrderDetailStateDeliveryComplete OrderDetailState = "DELIVERY_COMPLETE"
	OrderDetailStateOrderCancel      OrderDetailState = "ORDER_CANCEL"
	OrderDetailStateReturnRequest    OrderDetailState = "RETURN_REQUEST"
	OrderDetailStateReturnComplete   OrderDetailState = "RETURN_COMPLETE"
)

var validOrderDetailStates = []OrderDetailState{
	OrderDetailStateOrderComplete,
	OrderDetailStateDeliveryReady,
	OrderDetailStateDeliveryIng,
	OrderDetailStateDeliveryComplete,
	OrderDetailStateOrderCancel,
	OrderDetailStateReturnRequest,
	OrderDetailStateReturnComplete,
}

var orderDetailStateLabels = map[OrderDetailState]string{
	OrderDetailStateOrderComplete:    "결제 완료",
	OrderDetailStateDeliveryReady:    "배송 준비",
	OrderDetailStateDeliveryIng:      "배송중",
	OrderDetailStateDeliveryComplete: "배송 완료",
	OrderDetailStateOrderCancel:      "주문 취소",
	OrderDetailStateReturnRequest:    "환불/반품신청",
	OrderDetailStateReturnComplete:   "환불/반품완료",
}

// OrderDetailStates returns every state in fulfillment order.
func OrderDetailStates() []OrderDetailState {
	out := make([]OrderDetailState, len(validOrderDetailStates))
	copy(out, validOrderDetailStates)
	return out
}

func (s OrderDetailState) String() string {
	return string(s)
}

// Label is the admin-facing display text, also used in notifications.
func (s OrderDetailState) Label() string {
	return orderDetailStateLabels[s]
}

func (s OrderDetailState) IsValid() bool {
	_, ok := orderDetailStateLabels[s]
	return ok
}

// ParseOrderDetailState accepts either the display label or the state name.
func ParseOrderDetailState(value string) (OrderDetailState, error) {
	for _, candidate := range validOrderDetailStates {
		if orderDetailStateLabels[candidate] == value || string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order detail state %q", value)
}
