package notifications

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gwon477/dmarket/pkg/enums"
)

// Landing pages linked from each notification kind.
const (
	OrderInfoURL   = "/mydkt/orderInfo"
	MileageInfoURL = "/mydkt/mileageInfo"
	InquiryURL     = "/mydkt/inquiry"
	QnaURL         = "/mydkt/qna"
)

var amountPrinter = message.NewPrinter(language.Korean)

// Request is one notification waiting to be queued.
type Request struct {
	Kind       enums.NotificationKind
	ReceiverID uuid.UUID
	Content    string
	URL        string
}

func DeliveryStatus(receiver uuid.UUID, productName, stateLabel string) Request {
	return Request{
		Kind:       enums.NotificationKindDelivery,
		ReceiverID: receiver,
		Content:    stateContent(productName, stateLabel),
		URL:        OrderInfoURL,
	}
}

func ReturnStatus(receiver uuid.UUID, productName, stateLabel string) Request {
	return Request{
		Kind:       enums.NotificationKindReturn,
		ReceiverID: receiver,
		Content:    stateContent(productName, stateLabel),
		URL:        OrderInfoURL,
	}
}

// MileageApproved formats the amount with thousands separators.
func MileageApproved(receiver uuid.UUID, userName string, amount int64) Request {
	return Request{
		Kind:       enums.NotificationKindMileage,
		ReceiverID: receiver,
		Content:    fmt.Sprintf("%s님의 %s마일리지 충전 요청이 승인되었습니다.", userName, FormatAmount(amount)),
		URL:        MileageInfoURL,
	}
}

// MileageRefused keeps the raw amount.
func MileageRefused(receiver uuid.UUID, userName string, amount int64) Request {
	return Request{
		Kind:       enums.NotificationKindMileage,
		ReceiverID: receiver,
		Content:    fmt.Sprintf("%s님의 %s마일리지 충전 요청이 거부되었습니다.", userName, strconv.FormatInt(amount, 10)),
		URL:        MileageInfoURL,
	}
}

func InquiryAnswered(receiver uuid.UUID, title string) Request {
	return Request{
		Kind:       enums.NotificationKindInquiry,
		ReceiverID: receiver,
		Content:    answeredContent(title),
		URL:        InquiryURL,
	}
}

func QnaAnswered(receiver uuid.UUID, title string) Request {
	return Request{
		Kind:       enums.NotificationKindQna,
		ReceiverID: receiver,
		Content:    answeredContent(title),
		URL:        QnaURL,
	}
}

// FormatAmount renders 10000 as "10,000".
func FormatAmount(amount int64) string {
	return amountPrinter.Sprintf("%d", amount)
}

func stateContent(productName, stateLabel string) string {
	return fmt.Sprintf("%s(이)가 %s 상태입니다.", productName, stateLabel)
}

func answeredContent(title string) string {
	return fmt.Sprintf("[%s]에 대한 답변이 등록되었습니다", title)
}
