package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietanh2810/attendance-api/internal/api/middleware"
	"github.com/vietanh2810/attendance-api/internal/domain"
	"github.com/vietanh2810/attendance-api/internal/pkg/jwthelper"
)

const signingKey = "handler-test-key"

type fakeLifecycle struct {
	LifecycleService

	created   domain.EventInput
	creator   string
	filter    domain.EventFilter
	events    []domain.Event
	toggledTo *bool
	err       error
}

func (f *fakeLifecycle) CreateEvent(_ context.Context, in domain.EventInput, creatorID string) (domain.Event, error) {
	f.created, f.creator = in, creatorID
	if f.err != nil {
		return domain.Event{}, f.err
	}
	return domain.Event{ID: uuid.New(), Name: in.Name, CreatedBy: creatorID, Status: domain.EventUpcoming}, nil
}

func (f *fakeLifecycle) GetEvent(context.Context, uuid.UUID) (domain.Event, error) {
	if f.err != nil {
		return domain.Event{}, f.err
	}
	return f.events[0], nil
}

func (f *fakeLifecycle) ListEvents(_ context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	f.filter = filter
	return f.events, f.err
}

func (f *fakeLifecycle) GenerateAttendanceCode(context.Context, uuid.UUID) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "123456", nil
}

func (f *fakeLifecycle) ToggleAttendanceCode(_ context.Context, _ uuid.UUID, active bool) error {
	f.toggledTo = &active
	return f.err
}

func (f *fakeLifecycle) DeleteEvent(context.Context, uuid.UUID) error { return f.err }

type fakeAttendance struct {
	result domain.AttendanceResult
	err    error
	userID string
}

func (f *fakeAttendance) SubmitAttendance(_ context.Context, userID, _ string) (domain.AttendanceResult, error) {
	f.userID = userID
	return f.result, f.err
}

func (f *fakeAttendance) AddAttendee(_ context.Context, eventID uuid.UUID, userID, adminID string) (domain.LedgerEntry, error) {
	if f.err != nil {
		return domain.LedgerEntry{}, f.err
	}
	return domain.LedgerEntry{UserID: userID, AdjustedBy: adminID, EventID: &eventID, Points: 10, Source: domain.LedgerAttendance}, nil
}

func (f *fakeAttendance) ListAttendees(context.Context, uuid.UUID) ([]string, error) {
	return []string{"u-1", "u-2"}, f.err
}

type fakePoints struct {
	adjusted int
	err      error
}

func (f *fakePoints) AddPoints(_ context.Context, _ string, delta int, _, _ string) (int, error) {
	f.adjusted += delta
	return f.adjusted, f.err
}

func (f *fakePoints) GetAccount(_ context.Context, userID string) (domain.User, error) {
	if f.err != nil {
		return domain.User{}, f.err
	}
	return domain.User{ID: userID, Points: f.adjusted}, nil
}

func (f *fakePoints) GetLedger(_ context.Context, userID string) (domain.LedgerStatement, error) {
	return domain.LedgerStatement{UserID: userID, InSync: true}, f.err
}

func (f *fakePoints) EnsureAccount(_ context.Context, userID, name string) (domain.User, error) {
	return domain.User{ID: userID, Name: name}, f.err
}

type fakeSweeper struct {
	runs int
}

func (f *fakeSweeper) Run(context.Context) (domain.SweepResult, error) {
	f.runs++
	return domain.SweepResult{CompletedCount: 2, CleanedUpCount: 1}, nil
}

type fixture struct {
	router     *gin.Engine
	lifecycle  *fakeLifecycle
	attendance *fakeAttendance
	points     *fakePoints
	sweeper    *fakeSweeper
}

func newFixture() *fixture {
	gin.SetMode(gin.TestMode)

	f := &fixture{
		router:     gin.New(),
		lifecycle:  &fakeLifecycle{},
		attendance: &fakeAttendance{},
		points:     &fakePoints{},
		sweeper:    &fakeSweeper{},
	}

	events := NewEventHandler(f.lifecycle)
	attendance := NewAttendanceHandler(f.attendance)
	users := NewUserHandler(f.points)
	admin := NewAdminHandler(f.sweeper)

	authed := f.router.Group("/api/v1", middleware.NewAuthenticator(signingKey).VerifyJWT())
	authed.GET("/events", events.HandleListEvents)
	authed.GET("/events/:eventID", events.HandleGetEvent)
	authed.POST("/attendance", attendance.HandleSubmitAttendance)
	authed.GET("/users/me", users.HandleGetMe)
	authed.POST("/users/me", users.HandleEnsureMe)
	authed.GET("/users/:userID/ledger", users.HandleGetLedger)

	organizers := authed.Group("", middleware.RequireOrganizer())
	organizers.POST("/events", events.HandleCreateEvent)
	organizers.POST("/events/:eventID/code", events.HandleGenerateCode)
	organizers.PUT("/events/:eventID/code", events.HandleToggleCode)
	organizers.GET("/events/:eventID/attendees", attendance.HandleListAttendees)

	admins := authed.Group("", middleware.RequireAdmin())
	admins.DELETE("/events/:eventID", events.HandleDeleteEvent)
	admins.POST("/events/:eventID/attendees", attendance.HandleAddAttendee)
	admins.POST("/users/:userID/points", users.HandleAddPoints)
	admins.POST("/admin/sweep", admin.HandleSweep)

	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any, sub string, roles ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	tok, err := jwthelper.GenerateToken(signingKey, sub, "Tester", roles, time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+tok)

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestCreateEvent(t *testing.T) {
	f := newFixture()
	body := map[string]any{"name": "Meetup", "start_time": "2030-01-01T10:00:00Z", "points_value": 5}

	w := f.do(t, http.MethodPost, "/api/v1/events", body, "u-1")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/events", body, "org-1", domain.RoleOrganizer)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "org-1", f.lifecycle.creator)
	assert.Equal(t, 5, f.lifecycle.created.PointsValue)
	assert.Equal(t, "Meetup", decode[domain.Event](t, w).Name)
}

func TestCreateEventValidationError(t *testing.T) {
	f := newFixture()
	f.lifecycle.err = fmt.Errorf("s.validate -> %w", domain.NewValidationError(errors.New("points_value: must be no less than 0")))

	w := f.do(t, http.MethodPost, "/api/v1/events", map[string]any{"points_value": -1}, "org-1", domain.RoleOrganizer)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "points_value")
}

func TestListEventsFilter(t *testing.T) {
	f := newFixture()

	w := f.do(t, http.MethodGet, "/api/v1/events?status=upcoming,active&status=completed&include_cleaned_up=true", nil, "u-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []domain.EventStatus{domain.EventUpcoming, domain.EventActive, domain.EventCompleted}, f.lifecycle.filter.Statuses)
	assert.False(t, f.lifecycle.filter.IncludeCleanedUp, "only admins see cleaned up events")

	w = f.do(t, http.MethodGet, "/api/v1/events?include_cleaned_up=true", nil, "a-1", domain.RoleAdmin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, f.lifecycle.filter.IncludeCleanedUp)

	w = f.do(t, http.MethodGet, "/api/v1/events?include_cleaned_up=maybe", nil, "a-1", domain.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetEventErrors(t *testing.T) {
	f := newFixture()

	w := f.do(t, http.MethodGet, "/api/v1/events/not-a-uuid", nil, "u-1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	f.lifecycle.err = fmt.Errorf("s.repo.FindByID -> %w", domain.ErrEventNotFound)
	w = f.do(t, http.MethodGet, "/api/v1/events/"+uuid.NewString(), nil, "u-1")
	assert.Equal(t, http.StatusNotFound, w.Code)

	f.lifecycle.err = &domain.StorageError{Op: "find", Err: errors.New("connection refused")}
	w = f.do(t, http.MethodGet, "/api/v1/events/"+uuid.NewString(), nil, "u-1")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestGenerateCode(t *testing.T) {
	f := newFixture()
	id := uuid.New()

	w := f.do(t, http.MethodPost, "/api/v1/events/"+id.String()+"/code", nil, "org-1", domain.RoleOrganizer)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"event_id":%q,"code":"123456"}`, id), w.Body.String())

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "not started", err: domain.ErrNotStarted, want: http.StatusConflict},
		{name: "completed", err: domain.ErrAlreadyCompleted, want: http.StatusConflict},
		{name: "exhausted", err: domain.ErrCodeGenerationExhausted, want: http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f.lifecycle.err = fmt.Errorf("s.repo.AssignCode -> %w", tt.err)
			w := f.do(t, http.MethodPost, "/api/v1/events/"+id.String()+"/code", nil, "org-1", domain.RoleOrganizer)
			assert.Equal(t, tt.want, w.Code)
			assert.Contains(t, w.Body.String(), tt.err.Error())
		})
	}
}

func TestToggleCode(t *testing.T) {
	f := newFixture()
	path := "/api/v1/events/" + uuid.NewString() + "/code"

	w := f.do(t, http.MethodPut, path, map[string]any{}, "org-1", domain.RoleOrganizer)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, f.lifecycle.toggledTo)

	w = f.do(t, http.MethodPut, path, map[string]any{"active": false}, "org-1", domain.RoleOrganizer)
	assert.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, f.lifecycle.toggledTo)
	assert.False(t, *f.lifecycle.toggledTo)

	f.lifecycle.err = domain.ErrNoCode
	w = f.do(t, http.MethodPut, path, map[string]any{"active": true}, "org-1", domain.RoleOrganizer)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestDeleteEventAdminOnly(t *testing.T) {
	f := newFixture()
	path := "/api/v1/events/" + uuid.NewString()

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodDelete, path, nil, "org-1", domain.RoleOrganizer).Code)
	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, path, nil, "a-1", domain.RoleAdmin).Code)
}

func TestSubmitAttendance(t *testing.T) {
	f := newFixture()

	f.attendance.result = domain.RejectedAttendance(domain.MsgInvalidCodeFormat)
	w := f.do(t, http.MethodPost, "/api/v1/attendance", map[string]any{"code": "12ab"}, "u-7")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-7", f.attendance.userID)
	assert.Equal(t, domain.RejectedAttendance(domain.MsgInvalidCodeFormat), decode[domain.AttendanceResult](t, w))

	f.attendance.result = domain.AttendanceResult{Success: true, Message: domain.MsgAttendanceRecorded, PointsEarned: 10, EventName: "Meetup"}
	w = f.do(t, http.MethodPost, "/api/v1/attendance", map[string]any{"code": "123456"}, "u-7")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[domain.AttendanceResult](t, w).Success)

	f.attendance.err = fmt.Errorf("s.ledger.Attend -> %w", domain.ErrUserNotFound)
	w = f.do(t, http.MethodPost, "/api/v1/attendance", map[string]any{"code": "123456"}, "u-7")
	assert.Equal(t, http.StatusNotFound, w.Code)

	f.attendance.err = &domain.StorageError{Op: "attend", Err: errors.New("deadlock")}
	w = f.do(t, http.MethodPost, "/api/v1/attendance", map[string]any{"code": "123456"}, "u-7")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAddAndListAttendees(t *testing.T) {
	f := newFixture()
	id := uuid.NewString()

	w := f.do(t, http.MethodPost, "/api/v1/events/"+id+"/attendees", map[string]any{"user_id": "u-3"}, "org-1", domain.RoleOrganizer)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/events/"+id+"/attendees", map[string]any{}, "a-1", domain.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/events/"+id+"/attendees", map[string]any{"user_id": "u-3"}, "a-1", domain.RoleAdmin)
	require.Equal(t, http.StatusCreated, w.Code)
	entry := decode[domain.LedgerEntry](t, w)
	assert.Equal(t, "u-3", entry.UserID)
	assert.Equal(t, "a-1", entry.AdjustedBy)

	w = f.do(t, http.MethodGet, "/api/v1/events/"+id+"/attendees", nil, "org-1", domain.RoleOrganizer)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"event_id":%q,"user_ids":["u-1","u-2"]}`, id), w.Body.String())

	f.attendance.err = domain.ErrAlreadyAttended
	w = f.do(t, http.MethodPost, "/api/v1/events/"+id+"/attendees", map[string]any{"user_id": "u-3"}, "a-1", domain.RoleAdmin)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAddPoints(t *testing.T) {
	f := newFixture()

	w := f.do(t, http.MethodPost, "/api/v1/users/u-5/points", map[string]any{"points": 5}, "a-1", domain.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, w.Code, "reason is required")

	w = f.do(t, http.MethodPost, "/api/v1/users/u-5/points", map[string]any{"points": 5, "reason": "helped"}, "a-1", domain.RoleAdmin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"u-5","points":5,"total_points":5}`, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/v1/users/u-5/points", map[string]any{"points": -8, "reason": "typo"}, "a-1", domain.RoleAdmin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"u-5","points":-8,"total_points":-3}`, w.Body.String())

	f.points.err = domain.ErrUserNotFound
	w = f.do(t, http.MethodPost, "/api/v1/users/ghost/points", map[string]any{"points": 1, "reason": "x"}, "a-1", domain.RoleAdmin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAccountAccess(t *testing.T) {
	f := newFixture()

	w := f.do(t, http.MethodGet, "/api/v1/users/me", nil, "u-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u-1", decode[domain.User](t, w).ID)

	w = f.do(t, http.MethodPost, "/api/v1/users/me", map[string]any{"name": "Ann"}, "u-1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Ann", decode[domain.User](t, w).Name)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/users/u-1/ledger", nil, "u-1").Code)
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, "/api/v1/users/u-2/ledger", nil, "u-1").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/v1/users/u-2/ledger", nil, "a-1", domain.RoleAdmin).Code)

	f.points.err = domain.ErrUserNotFound
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/v1/users/me", nil, "u-9").Code)
}

func TestSweep(t *testing.T) {
	f := newFixture()

	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodPost, "/api/v1/admin/sweep", nil, "u-1").Code)

	w := f.do(t, http.MethodPost, "/api/v1/admin/sweep", nil, "a-1", domain.RoleAdmin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"completed_count":2,"cleaned_up_count":1}`, w.Body.String())
	assert.Equal(t, 1, f.sweeper.runs)
}
