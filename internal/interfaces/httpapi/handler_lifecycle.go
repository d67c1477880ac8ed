package httpapi

import (
	"net/http"
)

// RunLifecycle executes one lifecycle pass: generate windows, activate due
// ones, complete expired ones. External schedulers hit this on a cron; the
// pass is idempotent so cadence and overlap do not matter.
func (h *Handler) RunLifecycle(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunLifecycle")
	defer span.End()

	result, err := h.lifecycleService.Run(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "lifecycle run failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	failed := 0
	for _, row := range result.Windows {
		if row.Error != "" {
			failed++
		}
	}
	h.logger.InfoContext(ctx, "lifecycle run finished",
		"run_id", result.RunID,
		"created", result.Created,
		"activated", result.Activated,
		"completed", result.Completed,
		"published", result.Published,
		"failed_windows", failed,
	)

	writeSuccess(ctx, w, http.StatusOK, result)
}
