package httpapi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"

	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/user"
	"github.com/SashaDiz/directoryhunt-sub001/internal/domain/window"
	"github.com/SashaDiz/directoryhunt-sub001/internal/infrastructure/repository/memory"
	"github.com/SashaDiz/directoryhunt-sub001/internal/usecase"
)

const testLifecycleToken = "lifecycle-secret"

type stubVerifier struct {
	tokens map[string]user.Principal
}

func (v *stubVerifier) VerifyAccessToken(_ context.Context, token string) (user.Principal, error) {
	if p, ok := v.tokens[token]; ok {
		return p, nil
	}
	return user.Principal{}, fmt.Errorf("%w: unknown token", usecase.ErrUnauthorized)
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	windowRepo := memory.NewWindowRepository(memory.SeedWindows())
	entryRepo := memory.NewEntryRepository(memory.SeedEntries())
	voteRepo := memory.NewVoteRepository(entryRepo)

	windowSvc := usecase.NewWindowService(windowRepo, entryRepo, window.DefaultSchedule(), nil)
	voteSvc := usecase.NewVoteService(voteRepo, entryRepo, windowRepo, nil)
	winnerSvc := usecase.NewWinnerService(entryRepo, window.MaxWinners, nil)
	lifecycleSvc := usecase.NewLifecycleService(
		windowRepo, entryRepo, voteRepo,
		windowSvc, winnerSvc,
		usecase.NewNoopNotifier(),
		usecase.LifecycleConfig{},
		nil,
	)

	verifier := &stubVerifier{tokens: map[string]user.Principal{
		"voter-token": {UserID: "usr-100", Email: "voter@example.com"},
	}}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(windowSvc, voteSvc, lifecycleSvc, logger)

	return NewRouter(handler, verifier, logger, []string{"*"}, testLifecycleToken)
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	return body
}

func TestGetWindowByKey_ReturnsSeededWindow(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/windows/"+memory.SeedWindowKey, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeEnvelope(t, rec)
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object in response")
	}
	if got, _ := data["periodKey"].(string); got != memory.SeedWindowKey {
		t.Fatalf("expected periodKey=%s, got %v", memory.SeedWindowKey, data["periodKey"])
	}
	if got, _ := data["state"].(string); got != string(window.StateActive) {
		t.Fatalf("expected state=active, got %v", data["state"])
	}
}

func TestGetWindowByKey_NotFound(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/windows/1999-W01", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}

	body := decodeEnvelope(t, rec)
	errorObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object in response")
	}
	if got, _ := errorObj["status"].(string); got != "NOT_FOUND" {
		t.Fatalf("expected error status NOT_FOUND, got %v", errorObj["status"])
	}
}

func TestGetWindowLeaderboard_PremiumBreaksVoteTies(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/windows/"+memory.SeedWindowKey+"/leaderboard", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeEnvelope(t, rec)
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object in response")
	}
	entries, ok := data["entries"].([]any)
	if !ok || len(entries) != 3 {
		t.Fatalf("expected 3 leaderboard rows, got %v", data["entries"])
	}

	// All seeds have zero votes, so the premium entry leads and the two
	// standard entries follow in submission order.
	wantOrder := []string{"ent-notesly", "ent-shipcheck", "ent-quantleaf"}
	for i, raw := range entries {
		row, ok := raw.(map[string]any)
		if !ok {
			t.Fatalf("expected row object at index %d", i)
		}
		if got, _ := row["entryId"].(string); got != wantOrder[i] {
			t.Fatalf("position %d: expected entry %s, got %v", i+1, wantOrder[i], row["entryId"])
		}
		if got, _ := row["position"].(float64); int(got) != i+1 {
			t.Fatalf("expected position %d, got %v", i+1, row["position"])
		}
	}
}

func TestApplyVote_UpvoteThenRemove(t *testing.T) {
	router := newTestRouter(t)

	doVote := func(action string) *httptest.ResponseRecorder {
		body := fmt.Sprintf(`{"entryId":"ent-shipcheck","action":%q}`, action)
		req := httptest.NewRequest(http.MethodPost, "/v1/votes", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer voter-token")
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	rec := doVote("upvote")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 on upvote, got %d: %s", rec.Code, rec.Body.String())
	}
	data, _ := decodeEnvelope(t, rec)["data"].(map[string]any)
	if voted, _ := data["voted"].(bool); !voted {
		t.Fatalf("expected voted=true after upvote")
	}
	if count, _ := data["voteCount"].(float64); int(count) != 1 {
		t.Fatalf("expected voteCount=1 after upvote, got %v", data["voteCount"])
	}

	// A retried upvote is a no-op, never a retraction.
	rec = doVote("upvote")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 on retried upvote, got %d: %s", rec.Code, rec.Body.String())
	}
	data, _ = decodeEnvelope(t, rec)["data"].(map[string]any)
	if voted, _ := data["voted"].(bool); !voted {
		t.Fatalf("expected voted=true after retried upvote")
	}
	if count, _ := data["voteCount"].(float64); int(count) != 1 {
		t.Fatalf("expected voteCount=1 after retried upvote, got %v", data["voteCount"])
	}

	rec = doVote("remove")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 on remove, got %d: %s", rec.Code, rec.Body.String())
	}
	data, _ = decodeEnvelope(t, rec)["data"].(map[string]any)
	if voted, _ := data["voted"].(bool); voted {
		t.Fatalf("expected voted=false after remove")
	}
	if count, _ := data["voteCount"].(float64); int(count) != 0 {
		t.Fatalf("expected voteCount=0 after remove, got %v", data["voteCount"])
	}

	// And a retried remove stays removed.
	rec = doVote("remove")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 on retried remove, got %d: %s", rec.Code, rec.Body.String())
	}
	data, _ = decodeEnvelope(t, rec)["data"].(map[string]any)
	if voted, _ := data["voted"].(bool); voted {
		t.Fatalf("expected voted=false after retried remove")
	}
	if count, _ := data["voteCount"].(float64); int(count) != 0 {
		t.Fatalf("expected voteCount=0 after retried remove, got %v", data["voteCount"])
	}
}

func TestApplyVote_InvalidActionRejected(t *testing.T) {
	router := newTestRouter(t)

	for _, body := range []string{
		`{"entryId":"ent-shipcheck","action":"toggle"}`,
		`{"entryId":"ent-shipcheck"}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/v1/votes", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer voter-token")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %s: expected status 400, got %d: %s", body, rec.Code, rec.Body.String())
		}
	}
}

func TestApplyVote_MissingAuth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/votes", strings.NewReader(`{"entryId":"ent-shipcheck","action":"upvote"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}

func TestApplyVote_ScheduledEntryRejected(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/votes", strings.NewReader(`{"entryId":"ent-pixelbay","action":"upvote"}`))
	req.Header.Set("Authorization", "Bearer voter-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeEnvelope(t, rec)
	errorObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object in response")
	}
	if got, _ := errorObj["status"].(string); got != "FAILED_PRECONDITION" {
		t.Fatalf("expected error status FAILED_PRECONDITION, got %v", errorObj["status"])
	}
	items, _ := errorObj["errors"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected one error item, got %v", errorObj["errors"])
	}
	item, _ := items[0].(map[string]any)
	if got, _ := item["reason"].(string); got != "ENTRY_NOT_LIVE" {
		t.Fatalf("expected reason ENTRY_NOT_LIVE, got %v", item["reason"])
	}
}

func TestRunLifecycle_RejectsBadToken(t *testing.T) {
	router := newTestRouter(t)

	for _, header := range []string{"", "Bearer wrong-token"} {
		req := httptest.NewRequest(http.MethodGet, "/lifecycle/run", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected status 401, got %d", header, rec.Code)
		}
	}
}

func TestRunLifecycle_RunsWithValidToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/lifecycle/run", nil)
	req.Header.Set("Authorization", "Bearer "+testLifecycleToken)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeEnvelope(t, rec)
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected data object in response")
	}
	if _, ok := data["windows"]; !ok {
		t.Fatalf("expected windows list in lifecycle result")
	}
}

func TestRequireLifecycleToken_UnconfiguredTokenRefusesAll(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireLifecycleToken("", next)

	req := httptest.NewRequest(http.MethodGet, "/lifecycle/run", nil)
	req.Header.Set("Authorization", "Bearer anything")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
}
