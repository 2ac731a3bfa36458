package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	dataagg "github.com/yungbote/neurobridge-completion/internal/data/aggregates"
	"github.com/yungbote/neurobridge-completion/internal/data/repos"
	"github.com/yungbote/neurobridge-completion/internal/data/repos/testutil"
	"github.com/yungbote/neurobridge-completion/internal/domain/completion"
	httpH "github.com/yungbote/neurobridge-completion/internal/http/handlers"
	"github.com/yungbote/neurobridge-completion/internal/platform/dbctx"
	"github.com/yungbote/neurobridge-completion/internal/platform/switches"
	"github.com/yungbote/neurobridge-completion/internal/services"
)

func newTestRouter(t *testing.T, static *switches.Static) (*gin.Engine, repos.BlockCompletionRepo, repos.CourseEnrollmentRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)
	completions := repos.NewBlockCompletionRepo(db, log)
	enrollments := repos.NewCourseEnrollmentRepo(db, log)
	svc := services.NewCompletionService(services.CompletionServiceDeps{
		Log:         log,
		Gate:        switches.NewGate(completion.TrackingSwitch, static, false, log),
		Completions: completions,
		Enrollments: enrollments,
		Batches: dataagg.NewBlockCompletionAggregate(dataagg.BlockCompletionAggregateDeps{
			Base:        dataagg.BaseDeps{DB: db, Log: log},
			Completions: completions,
		}),
	})
	r := NewRouter(RouterConfig{
		Log:               log,
		CompletionHandler: httpH.NewCompletionHandler(svc),
		HealthHandler:     httpH.NewHealthHandler(db),
	})
	return r, completions, enrollments
}

func post(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRouter_CompletionFlow(t *testing.T) {
	static := switches.NewStatic(map[string]bool{completion.TrackingSwitch: true})
	r, completions, enrollments := newTestRouter(t, static)
	userID := uuid.New()
	course := testutil.TestCourse.String()
	block := testutil.Block(testutil.TestCourse, "intro").String()
	single := `{"user_id":"` + userID.String() + `","course_key":"` + course + `","block_key":"` + block + `","completion":1.0}`
	batch := `{"user_id":"` + userID.String() + `","course_key":"` + course + `","blocks":{"` + block + `":0.5}}`

	if rec := post(r, "/api/completion/v1/submit", single); rec.Code != http.StatusOK {
		t.Fatalf("submit: got=%d body=%s", rec.Code, rec.Body.String())
	}

	if rec := post(r, "/api/completion/v1/batch", batch); rec.Code != http.StatusForbidden {
		t.Fatalf("batch without enrollment: got=%d body=%s", rec.Code, rec.Body.String())
	}
	if _, err := enrollments.Enroll(dbctx.Context{Ctx: t.Context()}, userID, testutil.TestCourse, ""); err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	if rec := post(r, "/api/completion/v1/batch", batch); rec.Code != http.StatusOK {
		t.Fatalf("batch: got=%d body=%s", rec.Code, rec.Body.String())
	}

	static.Set(completion.TrackingSwitch, false)
	if rec := post(r, "/api/completion/v1/submit", single); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("disabled submit: got=%d body=%s", rec.Code, rec.Body.String())
	}

	byBlock, err := completions.CourseCompletions(dbctx.Context{Ctx: t.Context()}, userID, testutil.TestCourse)
	if err != nil {
		t.Fatalf("CourseCompletions: %v", err)
	}
	if len(byBlock) != 1 || byBlock[testutil.Block(testutil.TestCourse, "intro")] != 0.5 {
		t.Fatalf("stored: %+v", byBlock)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/completion/v1/users/"+userID.String()+"/courses/"+course, nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), block) {
		t.Fatalf("read: got=%d body=%s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestRouter_Healthz(t *testing.T) {
	r, _, _ := newTestRouter(t, switches.NewStatic(nil))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: got=%d", rec.Code)
	}
}
