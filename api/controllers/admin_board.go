package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/gwon477/dmarket/api/responses"
	"github.com/gwon477/dmarket/api/validators"
	"github.com/gwon477/dmarket/internal/board"
	"github.com/gwon477/dmarket/pkg/logger"
)

type replyRequest struct {
	Contents string `json:"contents" validate:"required,max=4000"`
}

type replyResponse struct {
	ReplyID  string `json:"replyId"`
	ParentID string `json:"parentId"`
}

func AdminReplyInquiry(cmds BoardCommands, logg *logger.Logger) http.HandlerFunc {
	return replyHandler(cmds, "inquiryId", logg, func(h BoardCommands) replyFunc { return h.ReplyInquiry })
}

func AdminReplyQna(cmds BoardCommands, logg *logger.Logger) http.HandlerFunc {
	return replyHandler(cmds, "qnaId", logg, func(h BoardCommands) replyFunc { return h.ReplyQna })
}

func AdminDeleteInquiryReply(cmds BoardCommands, logg *logger.Logger) http.HandlerFunc {
	return deleteHandler(cmds, "replyId", logg, func(h BoardCommands) deleteFunc { return h.DeleteInquiryReply })
}

func AdminDeleteInquiry(cmds BoardCommands, logg *logger.Logger) http.HandlerFunc {
	return deleteHandler(cmds, "inquiryId", logg, func(h BoardCommands) deleteFunc { return h.DeleteInquiry })
}

func AdminDeleteQnaReply(cmds BoardCommands, logg *logger.Logger) http.HandlerFunc {
	return deleteHandler(cmds, "replyId", logg, func(h BoardCommands) deleteFunc { return h.DeleteQnaReply })
}

type (
	replyFunc  = func(ctx context.Context, id uuid.UUID, contents string) (*board.ReplyResult, error)
	deleteFunc = func(ctx context.Context, id uuid.UUID) error
)

func replyHandler(cmds BoardCommands, param string, logg *logger.Logger, pick func(BoardCommands) replyFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cmds == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("board commands"))
			return
		}
		id, err := validators.PathUUID(r, param)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body replyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := pick(cmds)(r.Context(), id, body.Contents)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, replyResponse{
			ReplyID:  result.ReplyID.String(),
			ParentID: result.ParentID.String(),
		})
	}
}

func deleteHandler(cmds BoardCommands, param string, logg *logger.Logger, pick func(BoardCommands) deleteFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cmds == nil {
			responses.WriteError(r.Context(), logg, w, unavailable("board commands"))
			return
		}
		id, err := validators.PathUUID(r, param)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := pick(cmds)(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}
