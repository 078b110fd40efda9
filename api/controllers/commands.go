package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/gwon477/dmarket/api/middleware"
	"github.com/gwon477/dmarket/internal/board"
	"github.com/gwon477/dmarket/internal/mileage"
	"github.com/gwon477/dmarket/internal/orders"
	"github.com/gwon477/dmarket/internal/returns"
	"github.com/gwon477/dmarket/pkg/db/models"
	pkgerrors "github.com/gwon477/dmarket/pkg/errors"
)

// The command interfaces below are satisfied by *workflow.Coordinator.

type OrderCommands interface {
	MarkOrderDetailState(ctx context.Context, detailID uuid.UUID, label string) (*orders.TransitionResult, error)
}

type ReturnCommands interface {
	MarkReturnState(ctx context.Context, returnID uuid.UUID, label string) (*returns.AdvanceResult, error)
	IssueRefund(ctx context.Context, returnID uuid.UUID, percent int) (*returns.RefundResult, error)
	RequestReturn(ctx context.Context, input returns.RequestInput) (*models.Return, error)
}

type MileageCommands interface {
	ResolveMileageRequest(ctx context.Context, requestID uuid.UUID, approve bool) (*mileage.ResolveResult, error)
}

type BoardCommands interface {
	ReplyInquiry(ctx context.Context, inquiryID uuid.UUID, contents string) (*board.ReplyResult, error)
	DeleteInquiryReply(ctx context.Context, replyID uuid.UUID) error
	DeleteInquiry(ctx context.Context, inquiryID uuid.UUID) error
	ReplyQna(ctx context.Context, qnaID uuid.UUID, contents string) (*board.ReplyResult, error)
	DeleteQnaReply(ctx context.Context, replyID uuid.UUID) error
}

func callerID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" unavailable")
}
