package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/BnBPlug/service-reservation/internal/application"
	"github.com/BnBPlug/service-reservation/internal/catalog"
	"github.com/BnBPlug/service-reservation/internal/domain/reservation"
	"github.com/BnBPlug/service-reservation/internal/handler"
	"github.com/BnBPlug/service-reservation/internal/platform/apperr"
	"github.com/BnBPlug/service-reservation/internal/platform/auth"
	"github.com/BnBPlug/service-reservation/internal/platform/kafka"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testCatalog = `<properties>
  <property id="prop-001">
    <title>Ocean View Villa</title>
    <price>5000</price>
    <guests>6</guests>
  </property>
</properties>`

// ---------- Fakes ----------

type memoryRepo struct {
	mu      sync.Mutex
	records []*reservation.Record
	failing bool
}

func (m *memoryRepo) Save(_ context.Context, r *reservation.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failing {
		return assert.AnError
	}
	for _, existing := range m.records {
		if existing.BookingID() == r.BookingID() {
			return reservation.ErrDuplicateID
		}
	}
	m.records = append(m.records, r)
	return nil
}

func (m *memoryRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]*reservation.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*reservation.Record
	for i := len(m.records) - 1; i >= 0; i-- {
		if m.records[i].IsOwnedBy(userID) {
			out = append(out, m.records[i])
		}
	}
	return out, nil
}

func (m *memoryRepo) FindByBookingID(_ context.Context, bookingID string) (*reservation.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.BookingID() == bookingID {
			return r, nil
		}
	}
	return nil, apperr.NewNotFoundError("Reservation", bookingID)
}

func (m *memoryRepo) UpdateStatus(ctx context.Context, bookingID string, _, _ reservation.RecordStatus) error {
	_, err := m.FindByBookingID(ctx, bookingID)
	return err
}

type nopPublisher struct{}

func (nopPublisher) PublishEventWithKey(context.Context, string, string, kafka.CloudEvent) error {
	return nil
}

// ---------- Harness ----------

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields"`
}

type harness struct {
	router *gin.Engine
	jwt    *auth.JWTManager
	repo   *memoryRepo
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	properties, err := catalog.LoadXML(strings.NewReader(testCatalog))
	require.NoError(t, err)

	repo := &memoryRepo{}
	svc := application.NewReservationService(
		application.NewDraftStore(time.Hour),
		properties,
		auth.NewContextIdentity(),
		reservation.Dependencies{
			Calculator: reservation.NewFixedFeeCalculator(reservation.DefaultFeeSchedule()),
			Validator:  reservation.NewValidator(),
			IDs:        reservation.NewRandomIDGenerator(),
			Repository: repo,
		},
		nopPublisher{},
		zap.NewNop(),
	)

	jwtManager := auth.NewJWTManager("test-secret", time.Hour, time.Hour)
	router := gin.New()
	handler.NewReservationHandler(svc).RegisterRoutes(&router.RouterGroup, jwtManager)

	return &harness{router: router, jwt: jwtManager, repo: repo}
}

func (h *harness) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	tok, err := h.jwt.GenerateAccessToken(userID, "amina@example.com", auth.RoleGuest)
	require.NoError(t, err)
	return tok
}

func (h *harness) do(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w.Code, env
}

func (h *harness) startDraft(t *testing.T, token string) reservation.Draft {
	t.Helper()
	code, env := h.do(t, http.MethodPost, "/api/v1/reservations/drafts", token, map[string]interface{}{
		"property_id": "prop-001",
		"check_in":    "2024-06-01",
		"check_out":   "2024-06-04",
		"guests":      2,
	})
	require.Equal(t, http.StatusCreated, code, env.Error)

	var draft reservation.Draft
	require.NoError(t, json.Unmarshal(env.Data, &draft))
	return draft
}

var guestBody = map[string]string{
	"first_name": "Amina",
	"last_name":  "Otieno",
	"email":      "amina@example.com",
	"phone":      "+254712345678",
}

// ---------- Tests ----------

func TestReservationHandler_FullFlow(t *testing.T) {
	h := newHarness(t)
	userID := uuid.New()
	tok := h.token(t, userID)

	draft := h.startDraft(t, tok)
	assert.Equal(t, int64(17500), draft.Quote.Total)
	base := "/api/v1/reservations/drafts/" + draft.ID.String()

	code, env := h.do(t, http.MethodPost, base+"/guest", tok, guestBody)
	require.Equal(t, http.StatusOK, code, env.Error)

	code, _ = h.do(t, http.MethodPut, base+"/payment", tok, map[string]string{"method": "card"})
	require.Equal(t, http.StatusOK, code)

	code, env = h.do(t, http.MethodPost, base+"/confirm", tok, map[string]string{"method": "card"})
	require.Equal(t, http.StatusCreated, code, env.Error)

	var confirmed application.ReservationDTO
	require.NoError(t, json.Unmarshal(env.Data, &confirmed))
	assert.Equal(t, "confirmed", confirmed.Status)

	code, _ = h.do(t, http.MethodPost, base+"/confirm", tok, map[string]string{"method": "card"})
	assert.Equal(t, http.StatusConflict, code)

	code, env = h.do(t, http.MethodGet, "/api/v1/reservations", tok, nil)
	require.Equal(t, http.StatusOK, code)
	var history []application.ReservationDTO
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 1)
	assert.Equal(t, confirmed.BookingID, history[0].BookingID)

	code, env = h.do(t, http.MethodPost, "/api/v1/reservations/"+confirmed.BookingID+"/cancel", tok, map[string]string{"reason": "plans changed"})
	require.Equal(t, http.StatusOK, code, env.Error)

	code, env = h.do(t, http.MethodGet, "/api/v1/reservations/summary", tok, nil)
	require.Equal(t, http.StatusOK, code)
	var summary application.UserSummaryDTO
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 1, summary.CancelledCount)
	assert.Zero(t, summary.TotalSpent)
}

func TestReservationHandler_GuestValidationFailures(t *testing.T) {
	h := newHarness(t)
	draft := h.startDraft(t, "")

	code, env := h.do(t, http.MethodPost, "/api/v1/reservations/drafts/"+draft.ID.String()+"/guest", "",
		map[string]string{"last_name": "Otieno", "email": "bad", "phone": "+254712345678"})

	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, map[string]string{"first_name": "required", "email": "invalid_email"}, env.Fields)
}

func TestReservationHandler_InvalidDateRange(t *testing.T) {
	h := newHarness(t)

	code, env := h.do(t, http.MethodPost, "/api/v1/reservations/drafts", "", map[string]interface{}{
		"property_id": "prop-001",
		"check_in":    "2024-06-04",
		"check_out":   "2024-06-04",
		"guests":      1,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "invalid_range", env.Fields["check_out"])
}

func TestReservationHandler_PersistenceFailureHidesDetail(t *testing.T) {
	h := newHarness(t)
	h.repo.failing = true
	draft := h.startDraft(t, "")
	base := "/api/v1/reservations/drafts/" + draft.ID.String()

	code, _ := h.do(t, http.MethodPost, base+"/guest", "", guestBody)
	require.Equal(t, http.StatusOK, code)

	code, env := h.do(t, http.MethodPost, base+"/confirm", "", map[string]string{"method": "mobile_money", "account_number": "0712345678"})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.NotContains(t, env.Error, assert.AnError.Error())

	code, env = h.do(t, http.MethodGet, base, "", nil)
	require.Equal(t, http.StatusOK, code)
	var current reservation.Draft
	require.NoError(t, json.Unmarshal(env.Data, &current))
	assert.Equal(t, reservation.StepSelectingPayment, current.Step)
}

func TestReservationHandler_BadRequests(t *testing.T) {
	h := newHarness(t)

	code, _ := h.do(t, http.MethodGet, "/api/v1/reservations/drafts/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(t, http.MethodPost, "/api/v1/reservations/drafts", "", map[string]string{"property_id": "prop-001"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = h.do(t, http.MethodGet, "/api/v1/reservations/drafts/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestReservationHandler_HistoryRequiresToken(t *testing.T) {
	h := newHarness(t)

	code, _ := h.do(t, http.MethodGet, "/api/v1/reservations", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = h.do(t, http.MethodGet, "/api/v1/reservations", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestReservationHandler_AbandonDraft(t *testing.T) {
	h := newHarness(t)
	draft := h.startDraft(t, "")
	path := "/api/v1/reservations/drafts/" + draft.ID.String()

	code, _ := h.do(t, http.MethodDelete, path, "", nil)
	assert.Equal(t, http.StatusNoContent, code)

	code, _ = h.do(t, http.MethodGet, path, "", nil)
	assert.Equal(t, http.StatusNotFound, code)
}
