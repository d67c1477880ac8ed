package httpapi

import (
	"fmt"
	"net/http"

	sonic "github.com/bytedance/sonic"

	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/vote"
	"github.com/SashaDiz/directoryhunt-sub001/internal/usecase"
)

type applyVoteRequest struct {
	EntryID string `json:"entryId" validate:"required"`
	Action  string `json:"action" validate:"required,oneof=upvote remove"`
}

type applyVoteResponse struct {
	EntryID   string `json:"entryId"`
	Voted     bool   `json:"voted"`
	VoteCount int    `json:"voteCount"`
}

// ApplyVote records or removes the caller's vote for an entry. The action is
// directional and idempotent: a retried upvote stays a single vote and a
// retried remove stays removed.
func (h *Handler) ApplyVote(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ApplyVote")
	defer span.End()

	principal, ok := principalFromContext(ctx)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized))
		return
	}

	var req applyVoteRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	action, err := vote.ParseAction(req.Action)
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	result, err := h.voteService.Apply(ctx, principal, req.EntryID, action)
	if err != nil {
		h.logger.WarnContext(ctx, "apply vote failed",
			"voter_id", principal.UserID,
			"entry_id", req.EntryID,
			"action", req.Action,
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, applyVoteResponse{
		EntryID:   req.EntryID,
		Voted:     result.Voted,
		VoteCount: result.NewCount,
	})
}
