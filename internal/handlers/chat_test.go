package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/mock/gomock"

	"swiftly/internal/llm"
	"swiftly/internal/service"
	"swiftly/internal/service/mocks"
	"swiftly/internal/storage"
)

// newRequest builds a request carrying chi URL parameters, the way the
// router would deliver it to the handler.
func newRequest(t *testing.T, method, target string, body any, params map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	routeCtx := chi.NewRouteContext()
	for key, value := range params {
		routeCtx.URLParams.Add(key, value)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestChatHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name          string
		body          any
		mockSetup     func(*mocks.MockNoteService)
		wantStatus    int
		checkResponse func(*httptest.ResponseRecorder) bool
	}{
		{
			name: "successful question",
			body: ChatRequest{Query: "Where am I traveling?"},
			mockSetup: func(m *mocks.MockNoteService) {
				m.EXPECT().
					Answer(gomock.Any(), "alice", "Where am I traveling?").
					Return("You planned a trip to Lisbon.", nil)
			},
			wantStatus: http.StatusOK,
			checkResponse: func(w *httptest.ResponseRecorder) bool {
				var resp ChatResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					return false
				}
				return resp.Answer == "You planned a trip to Lisbon."
			},
		},
		{
			name:       "invalid JSON body",
			body:       "not json",
			mockSetup:  func(m *mocks.MockNoteService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "empty query",
			body: ChatRequest{Query: ""},
			mockSetup: func(m *mocks.MockNoteService) {
				m.EXPECT().
					Answer(gomock.Any(), "alice", "").
					Return("", &service.ValidationError{Field: "query", Message: "cannot be empty"})
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown user",
			body: ChatRequest{Query: "anything"},
			mockSetup: func(m *mocks.MockNoteService) {
				m.EXPECT().
					Answer(gomock.Any(), "alice", "anything").
					Return("", storage.ErrUserNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "embedding provider down",
			body: ChatRequest{Query: "anything"},
			mockSetup: func(m *mocks.MockNoteService) {
				m.EXPECT().
					Answer(gomock.Any(), "alice", "anything").
					Return("", llm.ErrEmbeddingUnavailable)
			},
			wantStatus: http.StatusBadGateway,
			checkResponse: func(w *httptest.ResponseRecorder) bool {
				var resp ErrorResponse
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					return false
				}
				// The provider error must not leak into the response.
				return resp.Error == "could not complete request"
			},
		},
		{
			name: "generation provider down",
			body: ChatRequest{Query: "anything"},
			mockSetup: func(m *mocks.MockNoteService) {
				m.EXPECT().
					Answer(gomock.Any(), "alice", "anything").
					Return("", llm.ErrGenerationUnavailable)
			},
			wantStatus: http.StatusBadGateway,
		},
		{
			name: "unexpected error",
			body: ChatRequest{Query: "anything"},
			mockSetup: func(m *mocks.MockNoteService) {
				m.EXPECT().
					Answer(gomock.Any(), "alice", "anything").
					Return("", errors.New("boom"))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockService := mocks.NewMockNoteService(ctrl)
			tt.mockSetup(mockService)

			handler := NewChatHandler(mockService)

			req := newRequest(t, http.MethodPost, "/api/users/alice/chat", tt.body, map[string]string{"user": "alice"})
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.checkResponse != nil && !tt.checkResponse(w) {
				t.Errorf("unexpected response body: %s", w.Body.String())
			}
		})
	}
}
