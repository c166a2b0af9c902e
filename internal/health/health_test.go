package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MrWong99/introscore/pkg/provider/sentiment"
	"github.com/MrWong99/introscore/pkg/provider/sentiment/mock"
	"github.com/MrWong99/introscore/pkg/provider/sentiment/vader"
)

func ok(context.Context) error { return nil }

func serve(t *testing.T, h *Handler, path string, ctx context.Context) (int, result) {
	t.Helper()
	mux := http.NewServeMux()
	h.Register(mux)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", path, nil).WithContext(ctx))

	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	var body result
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode JSON: %v", err)
	}
	return rec.Code, body
}

func TestHealthz_AlwaysReturns200(t *testing.T) {
	t.Parallel()

	h := New(Checker{Name: "broken", Check: func(context.Context) error { return errors.New("down") }})
	code, body := serve(t, h, "/healthz", context.Background())
	if code != http.StatusOK || body.Status != "ok" {
		t.Errorf("healthz = (%d, %q), want (200, ok)", code, body.Status)
	}
}

func TestReadyz(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		checkers   []Checker
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "no checkers",
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{},
		},
		{
			name:       "all pass",
			checkers:   []Checker{{Name: "sentiment", Check: ok}, {Name: "engine", Check: ok}},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"sentiment": "ok", "engine": "ok"},
		},
		{
			name: "one fails",
			checkers: []Checker{
				{Name: "sentiment", Check: func(context.Context) error { return errors.New("lexicon missing") }},
				{Name: "engine", Check: ok},
			},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"sentiment": "fail: lexicon missing", "engine": "ok"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			code, body := serve(t, New(tt.checkers...), "/readyz", context.Background())
			if code != tt.wantStatus {
				t.Errorf("status = %d, want %d", code, tt.wantStatus)
			}
			wantBody := "ok"
			if tt.wantStatus != http.StatusOK {
				wantBody = "fail"
			}
			if body.Status != wantBody {
				t.Errorf("body status = %q, want %q", body.Status, wantBody)
			}
			for name, want := range tt.wantChecks {
				if got := body.Checks[name]; got != want {
					t.Errorf("check %q = %q, want %q", name, got, want)
				}
			}
		})
	}
}

func TestReadyz_RespectsContextCancellation(t *testing.T) {
	t.Parallel()

	h := New(Checker{Name: "slow", Check: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	code, _ := serve(t, h, "/readyz", ctx)
	if code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", code, http.StatusServiceUnavailable)
	}
}

func TestAnalyzerCheck(t *testing.T) {
	t.Parallel()

	if err := AnalyzerCheck(vader.New()).Check(context.Background()); err != nil {
		t.Errorf("vader check: %v", err)
	}

	flat := &mock.Analyzer{Default: sentiment.Scores{Compound: 0}}
	err := AnalyzerCheck(flat).Check(context.Background())
	if err == nil || !strings.Contains(err.Error(), `"mock"`) {
		t.Errorf("flat analyzer check error = %v, want failure naming the analyzer", err)
	}

	if err := AnalyzerCheck(nil).Check(context.Background()); err == nil {
		t.Error("nil analyzer check error = nil, want error")
	}
}
