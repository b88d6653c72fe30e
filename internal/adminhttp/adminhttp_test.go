package adminhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kstepanov/bombardier/internal/controller"
	"github.com/kstepanov/bombardier/internal/models"
	"github.com/kstepanov/bombardier/internal/serviceapi"
)

// stubAPI answers just enough to let a started flow tick without ever
// reaching a terminal order status; the tests here only exercise the
// admin surface, not a full pipeline run.
type stubAPI struct{}

func (stubAPI) CreateUser(ctx context.Context, name string, accountAmount int) (models.User, error) {
	return models.User{ID: uuid.New(), Name: name, AccountAmount: accountAmount}, nil
}
func (stubAPI) GetUser(ctx context.Context, id uuid.UUID) (models.User, error) {
	return models.User{ID: id}, nil
}
func (stubAPI) GetFinancialHistory(ctx context.Context, userID, orderID uuid.UUID) ([]models.FinancialLogRecord, error) {
	return nil, nil
}
func (stubAPI) CreateOrder(ctx context.Context, userID uuid.UUID) (models.Order, error) {
	return models.Order{ID: uuid.New(), Status: models.Collecting(), ItemsMap: map[uuid.UUID]int{}}, nil
}
func (stubAPI) GetOrder(ctx context.Context, userID, orderID uuid.UUID) (models.Order, error) {
	return models.Order{ID: orderID, Status: models.Collecting()}, nil
}
func (stubAPI) GetAvailableItems(ctx context.Context, userID uuid.UUID) ([]models.Item, error) {
	return []models.Item{{ID: uuid.New(), Title: "widget", Price: 1, Amount: 10}}, nil
}
func (stubAPI) PutItemToOrder(ctx context.Context, userID, orderID, itemID uuid.UUID, amount int) (bool, error) {
	return true, nil
}
func (stubAPI) FinalizeOrder(ctx context.Context, orderID uuid.UUID) (models.BookingDto, error) {
	return models.BookingDto{BookingID: uuid.New()}, nil
}
func (stubAPI) GetDeliverySlots(ctx context.Context, orderID uuid.UUID) ([]int, error) {
	return []int{60}, nil
}
func (stubAPI) SetDeliveryTime(ctx context.Context, orderID uuid.UUID, timeSeconds int64) error {
	return nil
}
func (stubAPI) PayOrder(ctx context.Context, userID, orderID uuid.UUID) (models.Order, error) {
	return models.Order{ID: orderID, Status: models.Payed(time.Now())}, nil
}
func (stubAPI) SimulateDelivery(ctx context.Context, orderID uuid.UUID) error { return nil }
func (stubAPI) DeliveryLog(ctx context.Context, orderID uuid.UUID) (models.DeliveryLogEntry, error) {
	return models.DeliveryLogEntry{Outcome: models.DeliverySuccess}, nil
}
func (stubAPI) AbandonedCartHistory(ctx context.Context, orderID uuid.UUID) ([]models.BucketLogRecord, error) {
	return nil, nil
}
func (stubAPI) GetBookingHistory(ctx context.Context, bookingID uuid.UUID) ([]models.BookingLogRecord, error) {
	return nil, nil
}

var _ serviceapi.ExternalServiceAPI = stubAPI{}

type fixedResolver struct{ api serviceapi.ExternalServiceAPI }

func (r fixedResolver) Resolve(string) (serviceapi.ExternalServiceAPI, error) { return r.api, nil }

func newTestRouter() http.Handler {
	c := controller.New(fixedResolver{api: stubAPI{}})
	return NewRouter(c)
}

func TestStartTestingForService_BadRequest(t *testing.T) {
	r := newTestRouter()
	req := httptest.NewRequest(http.MethodPost, "/services/svc/start", bytes.NewBufferString("{}"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStartThenGetThenStop(t *testing.T) {
	r := newTestRouter()

	body, err := json.Marshal(models.StartParams{
		NumberOfUsers: 2, NumberOfTests: 1, RatePerSecond: 10,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/services/svc/start", bytes.NewBuffer(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusAccepted, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/services/svc/start", bytes.NewBuffer(body))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/services/svc", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var status models.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "svc", status.ServiceName)

	req = httptest.NewRequest(http.MethodPost, "/services/svc/stop", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusAccepted, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/services/svc", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetTestingFlowForService_NotFound(t *testing.T) {
	r := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/services/missing", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStopTestByServiceName_NotFound(t *testing.T) {
	r := newTestRouter()
	req := httptest.NewRequest(http.MethodPost, "/services/missing/stop", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStopAllTests_AlwaysAccepted(t *testing.T) {
	r := newTestRouter()
	req := httptest.NewRequest(http.MethodPost, "/services/stop-all", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusAccepted, w.Code)
}
