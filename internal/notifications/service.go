package notifications

import (
	"context"

	"github.com/google/uuid"

	"github.com/gwon477/dmarket/pkg/db/models"
	pkgerrors "github.com/gwon477/dmarket/pkg/errors"
	"github.com/gwon477/dmarket/pkg/pagination"
)

// Service defines notification list/read operations for the receiver.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, receiverID, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, receiverID uuid.UUID) (int64, error)
	CountUnread(ctx context.Context, receiverID uuid.UUID) (int64, error)
}

type service struct {
	repo Repository
}

type ListParams struct {
	ReceiverID uuid.UUID
	Limit      int
	Cursor     string
	UnreadOnly bool
}

type ListResult struct {
	Items  []models.Notification `json:"items"`
	Cursor string                `json:"cursor"`
}

func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.ReceiverID == uuid.Nil {
		return nil, pkgerrors.InvalidArgument("receiver id required")
	}

	query := listParams{
		ReceiverID: params.ReceiverID,
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	query.Cursor = cursor

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}
	if rows == nil {
		rows = []models.Notification{}
	}

	result := &ListResult{Items: rows}
	if next != nil {
		result.Cursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) MarkRead(ctx context.Context, receiverID, notificationID uuid.UUID) error {
	if receiverID == uuid.Nil {
		return pkgerrors.InvalidArgument("receiver id required")
	}
	if notificationID == uuid.Nil {
		return pkgerrors.InvalidArgument("notification id required")
	}

	result, err := s.repo.MarkRead(ctx, receiverID, notificationID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.NotFound("notification")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, receiverID uuid.UUID) (int64, error) {
	if receiverID == uuid.Nil {
		return 0, pkgerrors.InvalidArgument("receiver id required")
	}
	count, err := s.repo.MarkAllRead(ctx, receiverID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

func (s *service) CountUnread(ctx context.Context, receiverID uuid.UUID) (int64, error) {
	if receiverID == uuid.Nil {
		return 0, pkgerrors.InvalidArgument("receiver id required")
	}
	count, err := s.repo.CountUnread(ctx, receiverID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}
	return count, nil
}
