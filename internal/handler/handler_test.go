package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/prohmpiriya/event-planner/internal/domain"
	"github.com/prohmpiriya/event-planner/internal/repository"
	"github.com/prohmpiriya/event-planner/internal/service"
	"github.com/prohmpiriya/event-planner/pkg/logger"
	"github.com/prohmpiriya/event-planner/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// MockEventService is a mock implementation of service.EventService
type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) ListEvents(ctx context.Context) ([]*domain.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Event), args.Error(1)
}

func (m *MockEventService) GetEvent(ctx context.Context, id string) (*domain.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

func (m *MockEventService) CreateEvent(ctx context.Context, event *domain.Event, actor domain.Actor) (*domain.Event, error) {
	args := m.Called(ctx, event, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

func (m *MockEventService) UpdateEvent(ctx context.Context, id string, patch *domain.EventPatch, actor domain.Actor) (*domain.Event, error) {
	args := m.Called(ctx, id, patch, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

func (m *MockEventService) DeleteEvent(ctx context.Context, id string, actor domain.Actor) error {
	args := m.Called(ctx, id, actor)
	return args.Error(0)
}

func (m *MockEventService) DuplicateEvent(ctx context.Context, id string, actor domain.Actor) (*domain.Event, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Event), args.Error(1)
}

func (m *MockEventService) CreateRecurrences(ctx context.Context, id string, actor domain.Actor) ([]*domain.Event, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Event), args.Error(1)
}

func (m *MockEventService) ChangeLog(ctx context.Context, id string) ([]domain.ChangeLogEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ChangeLogEntry), args.Error(1)
}

type testServer struct {
	router *gin.Engine
	events *repository.MemoryEventRepository
}

func newTestServer(t *testing.T, maxUpload int64) *testServer {
	t.Helper()
	events := repository.NewMemoryEventRepository()
	changelogs := repository.NewMemoryChangeLogRepository()
	log := logger.NewNop()

	eventSvc := service.NewEventService(events, changelogs, nil, log)
	contractSvc := service.NewContractService(events, changelogs, nil, t.TempDir(), log)

	router := gin.New()
	Register(router, &Handlers{
		Health:   NewHealthHandler(nil),
		Event:    NewEventHandler(eventSvc),
		Contract: NewContractHandler(contractSvc, maxUpload),
	})
	return &testServer{router: router, events: events}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func validEventBody() map[string]any {
	return map[string]any{
		"name":  "Summer Fest",
		"type":  "festival",
		"date":  "2025-07-10",
		"venue": "Parque Central",
		"salesProjection": map[string]any{
			"estimatedTickets":   1000,
			"averageTicketPrice": 5,
			"costs": map[string]any{
				"ticketing":     400,
				"accommodation": 600,
				"fuel":          200,
				"accessControl": 200,
			},
		},
	}
}

func (s *testServer) createEvent(t *testing.T) *domain.Event {
	t.Helper()
	w := s.do(t, http.MethodPost, "/events", validEventBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	event := decode[domain.Event](t, w)
	return &event
}

func TestEventHandler_CreateAndGet(t *testing.T) {
	s := newTestServer(t, 0)

	created := s.createEvent(t)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.EventStatusDraft, created.Status)
	assert.Equal(t, 3600.0, created.SalesProjection.ProjectedProfit)

	w := s.do(t, http.MethodGet, "/events/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[domain.Event](t, w)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "Summer Fest", got.Name)

	w = s.do(t, http.MethodGet, "/events", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]domain.Event](t, w), 1)
}

func TestEventHandler_Create_BadRequests(t *testing.T) {
	s := newTestServer(t, 0)

	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", decode[response.ErrorBody](t, w).Error)

	body := validEventBody()
	delete(body, "venue")
	w = s.do(t, http.MethodPost, "/events", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, response.CodeBadRequest, decode[response.ErrorBody](t, w).Code)
}

func TestEventHandler_Get_NotFound(t *testing.T) {
	s := newTestServer(t, 0)

	w := s.do(t, http.MethodGet, "/events/missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	errBody := decode[response.ErrorBody](t, w)
	assert.Equal(t, "Event not found", errBody.Error)
	assert.Equal(t, response.CodeNotFound, errBody.Code)
}

func TestEventHandler_Update(t *testing.T) {
	s := newTestServer(t, 0)
	created := s.createEvent(t)

	for _, method := range []string{http.MethodPatch, http.MethodPut} {
		t.Run(method, func(t *testing.T) {
			w := s.do(t, method, "/events/"+created.ID, map[string]any{
				"salesProjection": map[string]any{"estimatedTickets": 2000},
			}, HeaderUserID, "u-7", HeaderUserName, "Luis")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			updated := decode[domain.Event](t, w)
			assert.Equal(t, 2000, updated.SalesProjection.EstimatedTickets)
			assert.Equal(t, 5.0, updated.SalesProjection.AverageTicketPrice)
			assert.Equal(t, 10000.0, updated.SalesProjection.TotalRevenue)
		})
	}

	w := s.do(t, http.MethodGet, "/events/"+created.ID+"/changelog", nil)
	require.Equal(t, http.StatusOK, w.Code)
	entries := decode[[]domain.ChangeLogEntry](t, w)
	require.NotEmpty(t, entries)
	last := entries[len(entries)-1]
	assert.Equal(t, domain.ChangeLogUpdate, last.Action)
	assert.Equal(t, "u-7", last.UserID)
	assert.Equal(t, "Luis", last.UserName)
}

func TestEventHandler_Update_Errors(t *testing.T) {
	s := newTestServer(t, 0)
	created := s.createEvent(t)

	w := s.do(t, http.MethodPatch, "/events/missing", map[string]any{"name": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPatch, "/events/"+created.ID, map[string]any{"type": "gala"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventHandler_Delete(t *testing.T) {
	s := newTestServer(t, 0)
	created := s.createEvent(t)

	w := s.do(t, http.MethodDelete, "/events/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"success": true}, decode[map[string]any](t, w))

	w = s.do(t, http.MethodGet, "/events/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodDelete, "/events/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEventHandler_Duplicate(t *testing.T) {
	s := newTestServer(t, 0)
	created := s.createEvent(t)

	w := s.do(t, http.MethodPost, "/events/"+created.ID+"/duplicate", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	dup := decode[domain.Event](t, w)
	assert.NotEqual(t, created.ID, dup.ID)
	assert.Equal(t, created.ID, dup.OriginalEventID)

	w = s.do(t, http.MethodPost, "/events/missing/duplicate", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEventHandler_CreateRecurrences(t *testing.T) {
	s := newTestServer(t, 0)
	created := s.createEvent(t)

	w := s.do(t, http.MethodPost, "/events/"+created.ID+"/recurrences", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPatch, "/events/"+created.ID, map[string]any{
		"isRecurring": true,
		"recurringConfig": map[string]any{
			"frequency": "weekly",
			"interval":  1,
			"endDate":   "2025-07-31",
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/events/"+created.ID+"/recurrences", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	occurrences := decode[[]domain.Event](t, w)
	require.Len(t, occurrences, 4)
	assert.Equal(t, "2025-07-10", occurrences[0].Date)
	assert.Equal(t, "2025-07-31", occurrences[3].Date)
}

func TestEventHandler_InternalError(t *testing.T) {
	svc := new(MockEventService)
	svc.On("ListEvents", mock.Anything).Return(nil, errors.New("connection reset"))

	router := gin.New()
	router.GET("/events", NewEventHandler(svc).List)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/events", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	errBody := decode[response.ErrorBody](t, w)
	assert.Equal(t, response.CodeInternal, errBody.Code)
	assert.NotContains(t, errBody.Error, "connection reset")
	svc.AssertExpectations(t)
}

func TestActorFrom(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    domain.Actor
	}{
		{"no headers", nil, domain.SystemActor},
		{"id only", map[string]string{HeaderUserID: "u-1"}, domain.Actor{UserID: "u-1", UserName: "u-1"}},
		{"id and name", map[string]string{HeaderUserID: "u-1", HeaderUserName: "Ana"}, domain.Actor{UserID: "u-1", UserName: "Ana"}},
		{"name only", map[string]string{HeaderUserName: "Ana"}, domain.SystemActor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, actorFrom(c))
		})
	}
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "nothing attached"))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (s *testServer) upload(t *testing.T, eventID, field, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, field, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/events/"+eventID+"/contract", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestContractHandler_UploadAndGet(t *testing.T) {
	s := newTestServer(t, 1<<20)
	created := s.createEvent(t)

	w := s.do(t, http.MethodGet, "/events/"+created.ID+"/contract", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Document not found", decode[response.ErrorBody](t, w).Error)

	w = s.upload(t, created.ID, contractFormField, "contract.pdf", []byte("%PDF-1.4"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	uploaded := decode[uploadResponse](t, w)
	assert.Equal(t, "File uploaded successfully", uploaded.Message)
	assert.Equal(t, "contract.pdf", uploaded.DocumentName)
	assert.Contains(t, uploaded.DocumentURL, service.ContractURLPrefix+created.ID+"-")

	w = s.do(t, http.MethodGet, "/events/"+created.ID+"/contract", nil)
	require.Equal(t, http.StatusOK, w.Code)
	doc := decode[domain.ContractDocument](t, w)
	assert.Equal(t, uploaded.DocumentURL, doc.DocumentURL)

	stored, err := s.events.GetByID(context.Background(), created.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Contract)
	assert.Equal(t, "contract.pdf", stored.Contract.DocumentName)
}

func TestContractHandler_Upload_Errors(t *testing.T) {
	s := newTestServer(t, 1024)
	created := s.createEvent(t)

	t.Run("no file", func(t *testing.T) {
		w := s.upload(t, created.ID, "", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "No file provided", decode[response.ErrorBody](t, w).Error)
	})

	t.Run("unknown event", func(t *testing.T) {
		w := s.upload(t, "missing", contractFormField, "contract.pdf", []byte("x"))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("too large", func(t *testing.T) {
		w := s.upload(t, created.ID, contractFormField, "big.pdf", bytes.Repeat([]byte("a"), 4096))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, response.CodeTooLarge, decode[response.ErrorBody](t, w).Code)
	})
}

func TestHealthHandler_Health(t *testing.T) {
	handler := NewHealthHandler(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	handler.Health(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[HealthResponse](t, w).Status)
}

func TestHealthHandler_Ready(t *testing.T) {
	healthy := HealthCheckFunc(func(context.Context) error { return nil })
	broken := HealthCheckFunc(func(context.Context) error { return errors.New("dial tcp: refused") })

	tests := []struct {
		name       string
		checks     map[string]HealthChecker
		wantStatus int
		wantBody   string
	}{
		{"no components", nil, http.StatusOK, "ready"},
		{"all healthy", map[string]HealthChecker{"redis": healthy, "mongodb": healthy}, http.StatusOK, "ready"},
		{"one unhealthy", map[string]HealthChecker{"redis": healthy, "postgres": broken}, http.StatusServiceUnavailable, "not ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

			NewHealthHandler(tt.checks).Ready(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decode[ReadyResponse](t, w)
			assert.Equal(t, tt.wantBody, resp.Status)
			assert.Len(t, resp.Components, len(tt.checks))
			for name, state := range resp.Components {
				if name == "postgres" {
					assert.Contains(t, state, "unhealthy")
				} else {
					assert.Equal(t, "healthy", state)
				}
			}
		})
	}
}

func TestRegister_PostMiddleware(t *testing.T) {
	events := repository.NewMemoryEventRepository()
	changelogs := repository.NewMemoryChangeLogRepository()
	eventSvc := service.NewEventService(events, changelogs, nil, logger.NewNop())

	var seen []string
	tag := func(c *gin.Context) {
		seen = append(seen, c.Request.Method+" "+c.FullPath())
		c.Next()
	}

	router := gin.New()
	Register(router, &Handlers{
		Health:   NewHealthHandler(nil),
		Event:    NewEventHandler(eventSvc),
		Contract: NewContractHandler(nil, 0),
	}, tag)
	s := &testServer{router: router, events: events}

	created := s.createEvent(t)
	s.do(t, http.MethodGet, "/events/"+created.ID, nil)
	s.do(t, http.MethodPost, "/events/"+created.ID+"/duplicate", nil)
	s.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, []string{"POST /events", "POST /events/:id/duplicate"}, seen)
}
