// Package workflow sequences the admin commands. Each command runs as one
// transaction that covers the state change, its ledger entry and the queued
// notification.
package workflow

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gwon477/dmarket/internal/board"
	"github.com/gwon477/dmarket/internal/mileage"
	"github.com/gwon477/dmarket/internal/notifications"
	"github.com/gwon477/dmarket/internal/orders"
	"github.com/gwon477/dmarket/internal/returns"
	dbpkg "github.com/gwon477/dmarket/pkg/db"
	"github.com/gwon477/dmarket/pkg/db/models"
	"github.com/gwon477/dmarket/pkg/enums"
	pkgerrors "github.com/gwon477/dmarket/pkg/errors"
	"github.com/gwon477/dmarket/pkg/logger"
	"github.com/gwon477/dmarket/pkg/metrics"
)

// Command names used in logs and metrics.
const (
	CommandSetOrderDetailState = "set_order_detail_state"
	CommandSetReturnState      = "set_return_state"
	CommandIssueRefund         = "issue_refund"
	CommandResolveMileage      = "resolve_mileage_request"
	CommandRequestReturn       = "request_return"
	CommandReplyInquiry        = "reply_inquiry"
	CommandDeleteInquiryReply  = "delete_inquiry_reply"
	CommandDeleteInquiry       = "delete_inquiry"
	CommandReplyQna            = "reply_qna"
	CommandDeleteQnaReply      = "delete_qna_reply"
)

// Deps wires the coordinator.
type Deps struct {
	Tx       dbpkg.TxRunner
	Orders   orders.Engine
	Returns  returns.Engine
	Mileage  mileage.Engine
	Board    board.Engine
	Notifier notifications.Scheduler
	Logger   *logger.Logger
	Metrics  *metrics.WorkflowMetrics
}

type Coordinator struct {
	tx       dbpkg.TxRunner
	orders   orders.Engine
	returns  returns.Engine
	mileage  mileage.Engine
	board    board.Engine
	notifier notifications.Scheduler
	logg     *logger.Logger
	metrics  *metrics.WorkflowMetrics
}

func NewCoordinator(d Deps) (*Coordinator, error) {
	switch {
	case d.Tx == nil:
		return nil, errors.New("transaction runner required")
	case d.Orders == nil:
		return nil, errors.New("orders engine required")
	case d.Returns == nil:
		return nil, errors.New("returns engine required")
	case d.Mileage == nil:
		return nil, errors.New("mileage engine required")
	case d.Board == nil:
		return nil, errors.New("board engine required")
	case d.Notifier == nil:
		return nil, errors.New("notification scheduler required")
	}
	logg := d.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Coordinator{
		tx:       d.Tx,
		orders:   d.Orders,
		returns:  d.Returns,
		mileage:  d.Mileage,
		board:    d.Board,
		notifier: d.Notifier,
		logg:     logg,
		metrics:  d.Metrics,
	}, nil
}

// MarkOrderDetailState moves a line item and tells the buyer about it.
func (c *Coordinator) MarkOrderDetailState(ctx context.Context, detailID uuid.UUID, label string) (*orders.TransitionResult, error) {
	var out *orders.TransitionResult
	err := c.run(ctx, CommandSetOrderDetailState, map[string]any{"order_detail_id": detailID.String(), "target": label},
		func(ctx context.Context, tx *gorm.DB) error {
			res, err := c.orders.Transition(ctx, tx, detailID, label)
			if err != nil {
				return err
			}
			c.notifier.Schedule(ctx, tx, notifications.DeliveryStatus(res.UserID, res.ProductName, res.To.Label()))
			out = res
			return nil
		})
	return out, err
}

// MarkReturnState advances a return. Reaching 수거 완료 opens the pending refund.
func (c *Coordinator) MarkReturnState(ctx context.Context, returnID uuid.UUID, label string) (*returns.AdvanceResult, error) {
	var out *returns.AdvanceResult
	err := c.run(ctx, CommandSetReturnState, map[string]any{"return_id": returnID.String(), "target": label},
		func(ctx context.Context, tx *gorm.DB) error {
			res, err := c.returns.Advance(ctx, tx, returnID, label)
			if err != nil {
				return err
			}
			c.notifier.Schedule(ctx, tx, notifications.ReturnStatus(res.UserID, res.ProductName, res.To.Label()))
			out = res
			return nil
		})
	return out, err
}

// IssueRefund settles a collected return, credits the buyer and reports the
// refund as 환불 완료.
func (c *Coordinator) IssueRefund(ctx context.Context, returnID uuid.UUID, percent int) (*returns.RefundResult, error) {
	var out *returns.RefundResult
	err := c.run(ctx, CommandIssueRefund, map[string]any{"return_id": returnID.String(), "percent": percent},
		func(ctx context.Context, tx *gorm.DB) error {
			res, err := c.returns.IssueRefund(ctx, tx, returnID, percent)
			if err != nil {
				return err
			}
			label := enums.ReturnStateRefundComplete.Label()
			c.notifier.Schedule(ctx, tx, notifications.ReturnStatus(res.UserID, res.ProductName, label))
			out = res
			return nil
		})
	return out, err
}

func (c *Coordinator) ResolveMileageRequest(ctx context.Context, requestID uuid.UUID, approve bool) (*mileage.ResolveResult, error) {
	var out *mileage.ResolveResult
	err := c.run(ctx, CommandResolveMileage, map[string]any{"mileage_request_id": requestID.String(), "approve": approve},
		func(ctx context.Context, tx *gorm.DB) error {
			res, err := c.mileage.Resolve(ctx, tx, requestID, approve)
			if err != nil {
				return err
			}
			req := notifications.MileageRefused(res.Request.UserID, res.UserName, res.Request.Amount)
			if res.Approved {
				req = notifications.MileageApproved(res.Request.UserID, res.UserName, res.Request.Amount)
			}
			c.notifier.Schedule(ctx, tx, req)
			out = res
			return nil
		})
	return out, err
}

// RequestReturn is the customer-side entry point of the return pipeline.
func (c *Coordinator) RequestReturn(ctx context.Context, input returns.RequestInput) (*models.Return, error) {
	var out *models.Return
	err := c.run(ctx, CommandRequestReturn, map[string]any{"order_detail_id": input.DetailID.String(), "user_id": input.UserID.String()},
		func(ctx context.Context, tx *gorm.DB) error {
			ret, err := c.returns.RequestReturn(ctx, tx, input)
			out = ret
			return err
		})
	return out, err
}

func (c *Coordinator) ReplyInquiry(ctx context.Context, inquiryID uuid.UUID, contents string) (*board.ReplyResult, error) {
	var out *board.ReplyResult
	err := c.run(ctx, CommandReplyInquiry, map[string]any{"inquiry_id": inquiryID.String()},
		func(ctx context.Context, tx *gorm.DB) error {
			res, err := c.board.ReplyInquiry(ctx, tx, inquiryID, contents)
			if err != nil {
				return err
			}
			c.notifier.Schedule(ctx, tx, notifications.InquiryAnswered(res.ReceiverID, res.Title))
			out = res
			return nil
		})
	return out, err
}

func (c *Coordinator) DeleteInquiryReply(ctx context.Context, replyID uuid.UUID) error {
	return c.run(ctx, CommandDeleteInquiryReply, map[string]any{"reply_id": replyID.String()},
		func(ctx context.Context, tx *gorm.DB) error {
			return c.board.DeleteInquiryReply(ctx, tx, replyID)
		})
}

func (c *Coordinator) DeleteInquiry(ctx context.Context, inquiryID uuid.UUID) error {
	return c.run(ctx, CommandDeleteInquiry, map[string]any{"inquiry_id": inquiryID.String()},
		func(ctx context.Context, tx *gorm.DB) error {
			return c.board.DeleteInquiry(ctx, tx, inquiryID)
		})
}

func (c *Coordinator) ReplyQna(ctx context.Context, qnaID uuid.UUID, contents string) (*board.ReplyResult, error) {
	var out *board.ReplyResult
	err := c.run(ctx, CommandReplyQna, map[string]any{"qna_id": qnaID.String()},
		func(ctx context.Context, tx *gorm.DB) error {
			res, err := c.board.ReplyQna(ctx, tx, qnaID, contents)
			if err != nil {
				return err
			}
			c.notifier.Schedule(ctx, tx, notifications.QnaAnswered(res.ReceiverID, res.Title))
			out = res
			return nil
		})
	return out, err
}

func (c *Coordinator) DeleteQnaReply(ctx context.Context, replyID uuid.UUID) error {
	return c.run(ctx, CommandDeleteQnaReply, map[string]any{"reply_id": replyID.String()},
		func(ctx context.Context, tx *gorm.DB) error {
			return c.board.DeleteQnaReply(ctx, tx, replyID)
		})
}

// run executes fn in one transaction, then records the outcome and logs a
// single line for the command.
func (c *Coordinator) run(ctx context.Context, command string, fields map[string]any, fn func(context.Context, *gorm.DB) error) error {
	start := time.Now()
	ctx = c.logg.WithFields(c.logg.WithCommand(ctx, command), fields)

	err := c.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return fn(ctx, tx)
	})

	outcome := outcomeOf(err)
	c.metrics.Observe(command, outcome, time.Since(start))
	ctx = c.logg.WithField(ctx, "outcome", outcome)
	switch outcome {
	case metrics.OutcomeSuccess:
		c.logg.Info(ctx, "workflow command applied")
	case metrics.OutcomeRejected, metrics.OutcomeConflict:
		c.logg.WarnErr(ctx, "workflow command rejected", err)
	default:
		c.logg.Error(ctx, "workflow command failed", err)
	}
	return err
}

func outcomeOf(err error) string {
	if err == nil {
		return metrics.OutcomeSuccess
	}
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeNotFound, pkgerrors.CodeValidation, pkgerrors.CodeStateConflict:
		return metrics.OutcomeRejected
	case pkgerrors.CodeConflict:
		return metrics.OutcomeConflict
	default:
		return metrics.OutcomeError
	}
}
