package enums

import "fmt"

// NotificationKind groups user-facing notifications by the workflow that raised them.
type NotificationKind string

const (
	NotificationKindDelivery NotificationKind = "delivery"
	NotificationKindReturn   NotificationKind = "return"
	NotificationKindMileage  NotificationKind = "mileage"
	NotificationKindInquiry  NotificationKind = "inquiry"
	NotificationKindQna      NotificationKind = "qna"
)

var validNotificationKinds = []NotificationKind{
	NotificationKindDelivery,
	NotificationKindReturn,
	NotificationKindMileage,
	NotificationKindInquiry,
	NotificationKindQna,
}

func (n NotificationKind) IsValid() bool {
	for _, candidate := range validNotificationKinds {
		if candidate == n {
			return true
		}
	}
	return false
}

func ParseNotificationKind(value string) (NotificationKind, error) {
	for _, candidate := range validNotificationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification kind %q", value)
}
