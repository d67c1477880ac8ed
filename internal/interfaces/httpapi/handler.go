package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/entry"
	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/window"
	"github.com/SashaDiz/directoryhunt-sub001/internal/usecase"
)

type Handler struct {
	windowService    *usecase.WindowService
	voteService      *usecase.VoteService
	lifecycleService *usecase.LifecycleService
	logger           *slog.Logger
	validator        *validator.Validate
}

func NewHandler(
	windowService *usecase.WindowService,
	voteService *usecase.VoteService,
	lifecycleService *usecase.LifecycleService,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		windowService:    windowService,
		voteService:      voteService,
		lifecycleService: lifecycleService,
		logger:           logger,
		validator:        validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetCurrentWindow(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCurrentWindow")
	defer span.End()

	item, err := h.windowService.Current(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "get current window failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, windowToDTO(ctx, item))
}

func (h *Handler) GetWindowByKey(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetWindowByKey")
	defer span.End()

	periodKey := strings.TrimSpace(r.PathValue("periodKey"))
	item, err := h.windowService.GetByKey(ctx, periodKey)
	if err != nil {
		h.logger.WarnContext(ctx, "get window failed", "period_key", periodKey, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, windowToDTO(ctx, item))
}

func (h *Handler) GetWindowLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetWindowLeaderboard")
	defer span.End()

	periodKey := strings.TrimSpace(r.PathValue("periodKey"))
	item, entries, err := h.windowService.Leaderboard(ctx, periodKey)
	if err != nil {
		h.logger.WarnContext(ctx, "get leaderboard failed", "period_key", periodKey, "error", err)
		writeError(ctx, w, err)
		return
	}

	rows := make([]leaderboardRowDTO, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, leaderboardRowToDTO(ctx, e, i+1))
	}

	writeSuccess(ctx, w, http.StatusOK, leaderboardDTO{
		Window:  windowToDTO(ctx, item),
		Entries: rows,
	})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

type windowDTO struct {
	PeriodKey         string   `json:"periodKey"`
	StartsAt          string   `json:"startsAt"`
	EndsAt            string   `json:"endsAt"`
	State             string   `json:"state"`
	TotalVotes        int      `json:"totalVotes"`
	TotalParticipants int      `json:"totalParticipants"`
	WinnerEntryIDs    []string `json:"winnerEntryIds,omitempty"`
}

type leaderboardDTO struct {
	Window  windowDTO           `json:"window"`
	Entries []leaderboardRowDTO `json:"entries"`
}

type leaderboardRowDTO struct {
	Position   int    `json:"position"`
	EntryID    string `json:"entryId"`
	Name       string `json:"name"`
	PlanTier   string `json:"planTier"`
	VoteCount  int    `json:"voteCount"`
	Featured   bool   `json:"featured"`
	WinnerRank *int   `json:"winnerRank,omitempty"`
}

func windowToDTO(ctx context.Context, v window.ContestWindow) windowDTO {
	ctx, span := startSpan(ctx, "httpapi.windowToDTO")
	defer span.End()

	return windowDTO{
		PeriodKey:         v.PeriodKey,
		StartsAt:          v.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:            v.EndsAt.UTC().Format(time.RFC3339),
		State:             string(v.State),
		TotalVotes:        v.TotalVotes,
		TotalParticipants: v.TotalParticipants,
		WinnerEntryIDs:    append([]string(nil), v.WinnerEntryIDs...),
	}
}

func leaderboardRowToDTO(ctx context.Context, v entry.Entry, position int) leaderboardRowDTO {
	ctx, span := startSpan(ctx, "httpapi.leaderboardRowToDTO")
	defer span.End()

	return leaderboardRowDTO{
		Position:   position,
		EntryID:    v.ID,
		Name:       v.Name,
		PlanTier:   string(v.PlanTier),
		VoteCount:  v.VoteCount,
		Featured:   v.Featured,
		WinnerRank: v.WinnerRank,
	}
}
