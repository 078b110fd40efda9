package models

// All lists every persisted model, used for sqlite bootstrapping in dev and tests.
func All() []any {
	return []any{
		&User{},
		&Product{},
		&Order{},
		&OrderDetail{},
		&Return{},
		&Refund{},
		&Mileage{},
		&MileageRequest{},
		&Notification{},
		&OutboxEvent{},
		&OutboxDLQ{},
		&Inquiry{},
		&InquiryReply{},
		&Qna{},
		&QnaReply{},
	}
}
