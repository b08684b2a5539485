package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"eventmanager/internal/delivery/http/helpers"
	"eventmanager/internal/delivery/http/middleware"
	"eventmanager/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	testUserID  = "11111111-1111-1111-1111-111111111111"
	testEventID = "22222222-2222-2222-2222-222222222222"
)

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	err error

	listResult []*domain.Event
	listTotal  int
	lastFilter domain.EventFilter

	getResult *domain.Event

	lastCreateEvent   *domain.Event
	lastCreateInvited []string

	updateResult     *domain.Event
	lastUpdateID     string
	lastUpdateCaller string
	lastUpdate       domain.EventUpdate

	lastDeleteID     string
	lastDeleteCaller string
}

func (f *fakeEventService) ListEvents(_ context.Context, filter domain.EventFilter) ([]*domain.Event, int, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.listResult, f.listTotal, nil
}

func (f *fakeEventService) GetEvent(_ context.Context, eventID string) (*domain.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.getResult, nil
}

func (f *fakeEventService) CreateEvent(_ context.Context, event *domain.Event, invitedUserIDs []string) error {
	f.lastCreateEvent = event
	f.lastCreateInvited = invitedUserIDs
	if f.err != nil {
		return f.err
	}
	event.ID = "ev-created"
	return nil
}

func (f *fakeEventService) UpdateEvent(_ context.Context, eventID, callerID string, update domain.EventUpdate) (*domain.Event, error) {
	f.lastUpdateID = eventID
	f.lastUpdateCaller = callerID
	f.lastUpdate = update
	if f.err != nil {
		return nil, f.err
	}
	return f.updateResult, nil
}

func (f *fakeEventService) DeleteEvent(_ context.Context, eventID, callerID string) error {
	f.lastDeleteID = eventID
	f.lastDeleteCaller = callerID
	return f.err
}

func withUser(req *http.Request) *http.Request {
	return req.WithContext(middleware.SetUserID(req.Context(), testUserID))
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) (json.RawMessage, *helpers.APIError, json.RawMessage) {
	t.Helper()
	var env struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
		Meta  json.RawMessage   `json:"meta"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	return env.Data, env.Error, env.Meta
}

func TestEventController_ListEvents(t *testing.T) {
	date := time.Date(2031, 5, 1, 10, 0, 0, 0, time.UTC)
	events := []*domain.Event{{ID: testEventID, Title: "GopherCon", Date: date}}

	tests := []struct {
		name          string
		query         string
		noUserContext bool
		fakeErr       error
		wantStatus    int
		wantCode      string
		wantFields    map[string]string
		wantMeta      bool
		checkFilter   func(t *testing.T, f domain.EventFilter)
	}{
		{
			name:       "no filters returns everything",
			wantStatus: http.StatusOK,
			checkFilter: func(t *testing.T, f domain.EventFilter) {
				assert.Equal(t, domain.EventFilter{}, f)
			},
		},
		{
			name:       "all filters",
			query:      "?title=go&location=berlin&organizer=" + testUserID + "&date=2031-05",
			wantStatus: http.StatusOK,
			checkFilter: func(t *testing.T, f domain.EventFilter) {
				assert.Equal(t, "go", f.Title)
				assert.Equal(t, "berlin", f.Location)
				assert.Equal(t, testUserID, f.OrganizerID)
				require.NotNil(t, f.Date)
				assert.Equal(t, time.Date(2031, 5, 1, 0, 0, 0, 0, time.UTC), f.Date.From)
				assert.Equal(t, time.Date(2031, 6, 1, 0, 0, 0, 0, time.UTC), f.Date.To)
				assert.Nil(t, f.Pagination)
			},
		},
		{
			name:       "paginated",
			query:      "?page=2&page_size=1",
			wantStatus: http.StatusOK,
			wantMeta:   true,
			checkFilter: func(t *testing.T, f domain.EventFilter) {
				require.NotNil(t, f.Pagination)
				assert.Equal(t, domain.PaginationParams{Page: 2, PageSize: 1}, *f.Pagination)
			},
		},
		{
			name:       "huge page is capped",
			query:      "?page=9223372036854775807",
			wantStatus: http.StatusOK,
			wantMeta:   true,
			checkFilter: func(t *testing.T, f domain.EventFilter) {
				require.NotNil(t, f.Pagination)
				assert.Equal(t, helpers.MaxPage, f.Pagination.Page)
				assert.GreaterOrEqual(t, f.Pagination.Offset(), 0)
			},
		},
		{
			name:       "malformed date",
			query:      "?date=2031-5",
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeValidation,
			wantFields: map[string]string{"date": "must be YYYY, YYYY-MM or YYYY-MM-DD"},
		},
		{
			name:       "organizer rejected by service",
			query:      "?organizer=nope",
			fakeErr:    domain.NewValidationError("organizer", "must be a valid user id"),
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeValidation,
			wantFields: map[string]string{"organizer": "must be a valid user id"},
		},
		{
			name:          "no user in context",
			noUserContext: true,
			wantStatus:    http.StatusUnauthorized,
			wantCode:      helpers.ErrCodeUnauthorized,
		},
		{
			name:       "service error",
			fakeErr:    errors.New("db error"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   helpers.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEventService{err: tt.fakeErr, listResult: events, listTotal: 3}
			ctrl := NewEventController(testLogger, fake)
			req := httptest.NewRequest(http.MethodGet, "/events"+tt.query, nil)
			if !tt.noUserContext {
				req = withUser(req)
			}
			rr := httptest.NewRecorder()

			ctrl.ListEvents(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			data, apiErr, meta := decodeEnvelope(t, rr)
			if tt.wantCode != "" {
				require.NotNil(t, apiErr)
				assert.Equal(t, tt.wantCode, apiErr.Code)
				if tt.wantFields != nil {
					assert.Equal(t, tt.wantFields, apiErr.Fields)
				}
				return
			}
			require.Nil(t, apiErr)
			var got []domain.Event
			require.NoError(t, json.Unmarshal(data, &got))
			require.Len(t, got, 1)
			assert.Equal(t, "GopherCon", got[0].Title)
			if tt.wantMeta {
				assert.JSONEq(t, `{"page":2,"page_size":1,"total":3,"total_pages":3}`, string(meta))
			} else {
				assert.Empty(t, meta)
			}
			if tt.checkFilter != nil {
				tt.checkFilter(t, fake.lastFilter)
			}
		})
	}
}

func TestEventController_ListEvents_EmptyIsArray(t *testing.T) {
	ctrl := NewEventController(testLogger, &fakeEventService{})
	rr := httptest.NewRecorder()
	ctrl.ListEvents(rr, withUser(httptest.NewRequest(http.MethodGet, "/events", nil)))

	require.Equal(t, http.StatusOK, rr.Code)
	data, _, _ := decodeEnvelope(t, rr)
	assert.JSONEq(t, `[]`, string(data))
}

func TestEventController_GetEvent(t *testing.T) {
	tests := []struct {
		name       string
		eventID    string
		fakeErr    error
		wantStatus int
	}{
		{name: "success", eventID: testEventID, wantStatus: http.StatusOK},
		{name: "missing eventID", eventID: "", wantStatus: http.StatusBadRequest},
		{name: "not found", eventID: testEventID, fakeErr: domain.ErrNotFound, wantStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEventService{err: tt.fakeErr, getResult: &domain.Event{ID: testEventID, Title: "GopherCon"}}
			ctrl := NewEventController(testLogger, fake)
			req := withUser(httptest.NewRequest(http.MethodGet, "/events/"+tt.eventID, nil))
			req.SetPathValue("eventID", tt.eventID)
			rr := httptest.NewRecorder()

			ctrl.GetEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				data, _, _ := decodeEnvelope(t, rr)
				var got domain.Event
				require.NoError(t, json.Unmarshal(data, &got))
				assert.Equal(t, testEventID, got.ID)
			}
		})
	}
}

func TestEventController_CreateEvent(t *testing.T) {
	tests := []struct {
		name          string
		body          string
		fakeErr       error
		noUserContext bool
		wantStatus    int
		wantCode      string
		wantFields    map[string]string
		checkCall     func(t *testing.T, fake *fakeEventService)
	}{
		{
			name:       "success",
			body:       `{"title":"GopherCon","description":"Talks","date":"2031-05-01T10:00:00Z","location":"Berlin","invited_users":["a","b"]}`,
			wantStatus: http.StatusCreated,
			checkCall: func(t *testing.T, fake *fakeEventService) {
				require.NotNil(t, fake.lastCreateEvent)
				assert.Equal(t, "GopherCon", fake.lastCreateEvent.Title)
				assert.Equal(t, "Talks", fake.lastCreateEvent.Description)
				assert.Equal(t, "Berlin", fake.lastCreateEvent.Location)
				assert.Equal(t, testUserID, fake.lastCreateEvent.OrganizerID)
				assert.True(t, fake.lastCreateEvent.Date.Equal(time.Date(2031, 5, 1, 10, 0, 0, 0, time.UTC)))
				assert.Equal(t, []string{"a", "b"}, fake.lastCreateInvited)
			},
		},
		{
			name:       "missing fields",
			body:       `{"title":"GopherCon"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeValidation,
			wantFields: map[string]string{
				"description": "this field is required",
				"date":        "this field is required",
				"location":    "this field is required",
			},
		},
		{
			name:       "bad date format",
			body:       `{"title":"GopherCon","description":"Talks","date":"tomorrow","location":"Berlin"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field rejected",
			body:       `{"title":"GopherCon","description":"Talks","date":"2031-05-01T10:00:00Z","location":"Berlin","organizer":"x"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
		{
			name:       "date in the past",
			body:       `{"title":"GopherCon","description":"Talks","date":"2001-05-01T10:00:00Z","location":"Berlin"}`,
			fakeErr:    domain.NewValidationError("date", "must be in the future"),
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeValidation,
			wantFields: map[string]string{"date": "must be in the future"},
		},
		{
			name:          "no user in context",
			body:          `{"title":"GopherCon","description":"Talks","date":"2031-05-01T10:00:00Z","location":"Berlin"}`,
			noUserContext: true,
			wantStatus:    http.StatusUnauthorized,
			wantCode:      helpers.ErrCodeUnauthorized,
		},
		{
			name:       "service error",
			body:       `{"title":"GopherCon","description":"Talks","date":"2031-05-01T10:00:00Z","location":"Berlin"}`,
			fakeErr:    errors.New("db error"),
			wantStatus: http.StatusInternalServerError,
			wantCode:   helpers.ErrCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEventService{err: tt.fakeErr}
			ctrl := NewEventController(testLogger, fake)
			req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			if !tt.noUserContext {
				req = withUser(req)
			}
			rr := httptest.NewRecorder()

			ctrl.CreateEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			data, apiErr, _ := decodeEnvelope(t, rr)
			if tt.wantStatus != http.StatusCreated {
				require.NotNil(t, apiErr)
				if tt.wantCode != "" {
					assert.Equal(t, tt.wantCode, apiErr.Code)
				}
				if tt.wantFields != nil {
					assert.Equal(t, tt.wantFields, apiErr.Fields)
				}
				return
			}
			var got domain.Event
			require.NoError(t, json.Unmarshal(data, &got))
			assert.Equal(t, "ev-created", got.ID)
			if tt.checkCall != nil {
				tt.checkCall(t, fake)
			}
		})
	}
}

func TestEventController_ReplaceEvent(t *testing.T) {
	full := `{"title":"New","description":"D","date":"2032-01-01T09:30:00Z","location":"Paris"}`
	tests := []struct {
		name       string
		body       string
		fakeErr    error
		wantStatus int
		wantFields map[string]string
	}{
		{name: "success", body: full, wantStatus: http.StatusOK},
		{
			name:       "partial body rejected",
			body:       `{"title":"New"}`,
			wantStatus: http.StatusBadRequest,
			wantFields: map[string]string{
				"description": "this field is required",
				"date":        "this field is required",
				"location":    "this field is required",
			},
		},
		{name: "not organizer", body: full, fakeErr: domain.ErrForbidden, wantStatus: http.StatusForbidden},
		{name: "not found", body: full, fakeErr: domain.ErrNotFound, wantStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEventService{err: tt.fakeErr, updateResult: &domain.Event{ID: testEventID, Title: "New"}}
			ctrl := NewEventController(testLogger, fake)
			req := withUser(httptest.NewRequest(http.MethodPut, "/events/"+testEventID, bytes.NewBufferString(tt.body)))
			req.SetPathValue("eventID", testEventID)
			rr := httptest.NewRecorder()

			ctrl.ReplaceEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantFields != nil {
				_, apiErr, _ := decodeEnvelope(t, rr)
				require.NotNil(t, apiErr)
				assert.Equal(t, tt.wantFields, apiErr.Fields)
				return
			}
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, testEventID, fake.lastUpdateID)
				assert.Equal(t, testUserID, fake.lastUpdateCaller)
				require.NotNil(t, fake.lastUpdate.Title)
				require.NotNil(t, fake.lastUpdate.Description)
				require.NotNil(t, fake.lastUpdate.Date)
				require.NotNil(t, fake.lastUpdate.Location)
				assert.Equal(t, "Paris", *fake.lastUpdate.Location)
			}
		})
	}
}

func TestEventController_PatchEvent(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		checkCall  func(t *testing.T, u domain.EventUpdate)
	}{
		{
			name:       "only date",
			body:       `{"date":"2032-01-01T09:30:00Z"}`,
			wantStatus: http.StatusOK,
			checkCall: func(t *testing.T, u domain.EventUpdate) {
				require.NotNil(t, u.Date)
				assert.Nil(t, u.Title)
				assert.Nil(t, u.Description)
				assert.Nil(t, u.Location)
			},
		},
		{
			name:       "empty object changes nothing",
			body:       `{}`,
			wantStatus: http.StatusOK,
			checkCall: func(t *testing.T, u domain.EventUpdate) {
				assert.True(t, u.IsEmpty())
			},
		},
		{name: "blank title rejected", body: `{"title":""}`, wantStatus: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEventService{updateResult: &domain.Event{ID: testEventID}}
			ctrl := NewEventController(testLogger, fake)
			req := withUser(httptest.NewRequest(http.MethodPatch, "/events/"+testEventID, bytes.NewBufferString(tt.body)))
			req.SetPathValue("eventID", testEventID)
			rr := httptest.NewRecorder()

			ctrl.PatchEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.checkCall != nil {
				tt.checkCall(t, fake.lastUpdate)
			}
		})
	}
}

func TestEventController_DeleteEvent(t *testing.T) {
	tests := []struct {
		name          string
		eventID       string
		noUserContext bool
		fakeErr       error
		wantStatus    int
	}{
		{name: "success", eventID: testEventID, wantStatus: http.StatusNoContent},
		{name: "missing eventID", eventID: "", wantStatus: http.StatusBadRequest},
		{name: "no user in context", eventID: testEventID, noUserContext: true, wantStatus: http.StatusUnauthorized},
		{name: "not organizer", eventID: testEventID, fakeErr: domain.ErrForbidden, wantStatus: http.StatusForbidden},
		{name: "not found", eventID: testEventID, fakeErr: domain.ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "service error", eventID: testEventID, fakeErr: errors.New("db error"), wantStatus: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeEventService{err: tt.fakeErr}
			ctrl := NewEventController(testLogger, fake)
			req := httptest.NewRequest(http.MethodDelete, "/events/"+tt.eventID, nil)
			req.SetPathValue("eventID", tt.eventID)
			if !tt.noUserContext {
				req = withUser(req)
			}
			rr := httptest.NewRecorder()

			ctrl.DeleteEvent(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusNoContent {
				assert.Empty(t, rr.Body.String())
				assert.Equal(t, testEventID, fake.lastDeleteID)
				assert.Equal(t, testUserID, fake.lastDeleteCaller)
			}
		})
	}
}
