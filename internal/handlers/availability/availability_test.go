package availability

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"

	"github.com/bookstay/bookstay/internal/domain"
	"github.com/bookstay/bookstay/internal/dto"
	bookingservice "github.com/bookstay/bookstay/internal/service/bookingservice"
	"github.com/bookstay/bookstay/pkg/auth"
)

func NewMock(t *testing.T) (*AvailabilityHandler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	handler := New(service)
	return handler, service
}

var partnerPrincipal = domain.Principal{ID: 7, Kind: domain.KindPartner}

// decodeData unwraps the response envelope and decodes its data payload.
func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	var envelope struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&envelope))
	assert.True(t, envelope.Success)
	assert.NoError(t, json.Unmarshal(envelope.Data, out))
}

func authedRequest(method, target, body string, p domain.Principal) *http.Request {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, bytes.NewBufferString(body))
	}
	return r.WithContext(context.WithValue(r.Context(), auth.PrincipalKey, p))
}

func TestBlockHandler(t *testing.T) {
	validBody := `{"propertyId":17,"roomTypeId":42,"startDate":"2026-10-12","endDate":"2026-10-14","units":1,"source":"walk_in"}`

	tests := []struct {
		name         string
		body         string
		prepareMock  func(service *MockService)
		expectedCode int
	}{
		{
			name: "Hold created",
			body: validBody,
			prepareMock: func(service *MockService) {
				service.EXPECT().
					Block(gomock.Any(), partnerPrincipal, gomock.Any()).
					DoAndReturn(func(_ context.Context, _ domain.Principal, params bookingservice.BlockParams) (*domain.LedgerEntry, error) {
						assert.Equal(t, domain.SourceWalkIn, params.Source)
						assert.Equal(t, 1, params.Units)
						return &domain.LedgerEntry{
							ID:          91,
							ReferenceID: "BLK-8C1D92AF",
							Source:      domain.SourceWalkIn,
							StartDate:   params.StartDate,
							EndDate:     params.EndDate,
							Units:       params.Units,
						}, nil
					})
			},
			expectedCode: http.StatusCreated,
		},
		{
			name:         "Unknown source rejected by validation",
			body:         `{"propertyId":17,"roomTypeId":42,"startDate":"2026-10-12","endDate":"2026-10-14","units":1,"source":"osmosis"}`,
			prepareMock:  func(service *MockService) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "No rooms left",
			body: validBody,
			prepareMock: func(service *MockService) {
				service.EXPECT().
					Block(gomock.Any(), partnerPrincipal, gomock.Any()).
					Return(nil, bookingservice.ErrInsufficientCapacity)
			},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "Someone else's property",
			body: validBody,
			prepareMock: func(service *MockService) {
				service.EXPECT().
					Block(gomock.Any(), partnerPrincipal, gomock.Any()).
					Return(nil, bookingservice.ErrNotAuthorized)
			},
			expectedCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			r := authedRequest(http.MethodPost, "/api/availability/block", tt.body, partnerPrincipal)
			w := httptest.NewRecorder()
			handler.Block(w, r)
			assert.Equal(t, tt.expectedCode, w.Code)

			if tt.expectedCode == http.StatusCreated {
				var body dto.BlockResponseDTO
				decodeData(t, w, &body)
				assert.Equal(t, "BLK-8C1D92AF", body.ReferenceID)
			}
		})
	}
}

func TestUnblockHandler(t *testing.T) {
	tests := []struct {
		name         string
		id           string
		prepareMock  func(service *MockService)
		expectedCode int
	}{
		{
			name: "Hold removed",
			id:   "91",
			prepareMock: func(service *MockService) {
				service.EXPECT().
					Unblock(gomock.Any(), partnerPrincipal, int64(91)).
					Return(nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:         "Invalid id",
			id:           "ninety-one",
			prepareMock:  func(service *MockService) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name: "Unknown entry",
			id:   "91",
			prepareMock: func(service *MockService) {
				service.EXPECT().
					Unblock(gomock.Any(), partnerPrincipal, int64(91)).
					Return(bookingservice.ErrLedgerEntryNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name: "Live booking hold is protected",
			id:   "91",
			prepareMock: func(service *MockService) {
				service.EXPECT().
					Unblock(gomock.Any(), partnerPrincipal, int64(91)).
					Return(bookingservice.ErrProtectedEntry)
			},
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			r := authedRequest(http.MethodDelete, "/api/availability/block/"+tt.id, "", partnerPrincipal)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()
			handler.Unblock(w, r)
			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestAvailabilityHandler(t *testing.T) {
	tests := []struct {
		name          string
		query         string
		prepareMock   func(service *MockService)
		expectedCode  int
		expectedUnits int
	}{
		{
			name:  "Remaining units reported",
			query: "?roomTypeId=42&startDate=2026-10-12&endDate=2026-10-14",
			prepareMock: func(service *MockService) {
				start := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
				end := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
				service.EXPECT().
					Availability(gomock.Any(), int64(42), start, end).
					Return(3, nil)
			},
			expectedCode:  http.StatusOK,
			expectedUnits: 3,
		},
		{
			name:         "Missing room type",
			query:        "?startDate=2026-10-12&endDate=2026-10-14",
			prepareMock:  func(service *MockService) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "Garbled date",
			query:        "?roomTypeId=42&startDate=tomorrow&endDate=2026-10-14",
			prepareMock:  func(service *MockService) {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:  "Unknown room type",
			query: "?roomTypeId=42&startDate=2026-10-12&endDate=2026-10-14",
			prepareMock: func(service *MockService) {
				service.EXPECT().
					Availability(gomock.Any(), int64(42), gomock.Any(), gomock.Any()).
					Return(0, bookingservice.ErrRoomTypeNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := NewMock(t)
			tt.prepareMock(service)

			r := httptest.NewRequest(http.MethodGet, "/api/availability"+tt.query, nil)
			w := httptest.NewRecorder()
			handler.Availability(w, r)
			assert.Equal(t, tt.expectedCode, w.Code)

			if tt.expectedCode == http.StatusOK {
				var body dto.AvailabilityResponseDTO
				decodeData(t, w, &body)
				assert.Equal(t, tt.expectedUnits, body.AvailableUnits)
			}
		})
	}
}
