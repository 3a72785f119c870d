package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"golang.org/x/crypto/bcrypt"

	"restaurant-admin/controllers"
	"restaurant-admin/database"
	"restaurant-admin/logger"
	"restaurant-admin/metrics"
	"restaurant-admin/services"
)

type testServer struct {
	app    *services.App
	store  *database.MemoryStore
	hub    *controllers.Hub
	router *gin.Engine
}

func newTestServer(t *testing.T, opts ...database.MemoryOption) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := database.NewMemoryStore(opts...)
	hash, err := bcrypt.GenerateFromPassword([]byte("pass123"), bcrypt.MinCost)
	require.NoError(t, err)
	store.Seed(database.StaffCollection, map[string]bson.M{
		"owner":  {"email": "owner@pablos.ph", "password": string(hash), "firstName": "Pablo", "lastName": "Reyes", "role": "Owner"},
		"driver": {"email": "driver@pablos.ph", "password": string(hash), "firstName": "Dan", "lastName": "Lim", "role": "Driver"},
	})

	app := services.NewApp(store, logger.Discard(), metrics.NewRegistry(), services.Options{
		ReadyTimeout:  200 * time.Millisecond,
		OpTimeout:     time.Second,
		SessionSecret: "test-secret",
	})
	hub := controllers.NewHub(logger.Discard())
	detach := hub.Attach(app.Orders)
	t.Cleanup(func() {
		detach()
		hub.Close()
		app.Orders.Stop()
	})
	return &testServer{app: app, store: store, hub: hub, router: NewRouter(app, hub, RouterConfig{})}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("token", token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	out := map[string]interface{}{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w.Code, out
}

func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	code, body := s.do(t, http.MethodPost, "/users/login", "", map[string]string{"email": email, "password": "pass123"})
	require.Equal(t, http.StatusOK, code, body)
	data := body["data"].(map[string]interface{})
	return data["token"].(string)
}

func TestLoginAndSession(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodPost, "/users/login", "", map[string]string{"email": "owner@pablos.ph", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "UNAUTHORIZED", body["kind"])

	code, _ = s.do(t, http.MethodPost, "/users/login", "", map[string]string{"email": "not-an-email", "password": "x"})
	assert.Equal(t, http.StatusBadRequest, code)

	token := s.login(t, "owner@pablos.ph")
	code, body = s.do(t, http.MethodGet, "/users/me", token, nil)
	require.Equal(t, http.StatusOK, code)
	session := body["data"].(map[string]interface{})
	assert.Equal(t, "Owner", session["role"])
	assert.Equal(t, "Pablo Reyes", session["name"])

	code, _ = s.do(t, http.MethodGet, "/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
	code, _ = s.do(t, http.MethodGet, "/users/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestSessionIsRecheckedAgainstStaffRecord(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "owner@pablos.ph")

	s.store.Delete(database.StaffCollection, "owner")
	code, _ := s.do(t, http.MethodGet, "/ingredients", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestInventoryAndMenuFlow(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "owner@pablos.ph")

	code, body := s.do(t, http.MethodPost, "/ingredients", token, map[string]interface{}{
		"name": "Garlic", "measurement_kind": "weight", "initial_amount": 0.5, "unit": "kg",
	})
	require.Equal(t, http.StatusCreated, code, body)

	code, body = s.do(t, http.MethodPost, "/ingredients", token, map[string]interface{}{"name": "garlic", "initial_amount": 1})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "CONFLICT", body["kind"])

	code, _ = s.do(t, http.MethodPost, "/ingredients", token, map[string]interface{}{"name": "Pepper", "initial_amount": -1})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = s.do(t, http.MethodPost, "/ingredients/restock", token, map[string]interface{}{"name": "Garlic", "amount": 250, "unit": "g"})
	require.Equal(t, http.StatusOK, code, body)
	code, body = s.do(t, http.MethodPost, "/ingredients/restock", token, map[string]interface{}{"name": "Garlic", "amount": 0.25, "unit": "kg"})
	require.Equal(t, http.StatusOK, code, body)

	data := body["data"].(map[string]interface{})
	rows := data["ingredients"].([]interface{})
	require.Len(t, rows, 1)
	garlic := rows[0].(map[string]interface{})
	assert.Equal(t, "garlic", garlic["id"])
	assert.Equal(t, 1000.0, garlic["quantity"])
	assert.Equal(t, "LowStock", garlic["status"])
	assert.Equal(t, "1.00 kg (1,000 g)", garlic["display"])

	code, _ = s.do(t, http.MethodPost, "/ingredients/restock", token, map[string]interface{}{"name": "Saffron", "amount": 5})
	assert.Equal(t, http.StatusNotFound, code)

	code, body = s.do(t, http.MethodPost, "/dishes", token, map[string]interface{}{
		"name": "Garlic Rice", "price": 45,
		"ingredients": []map[string]interface{}{{"ingredient": "garlic", "amount": 20, "unit": "g"}},
	})
	require.Equal(t, http.StatusCreated, code, body)

	code, _ = s.do(t, http.MethodPost, "/dishes", token, map[string]interface{}{
		"name": "Ghost Soup", "price": 45,
		"ingredients": []map[string]interface{}{{"ingredient": "ectoplasm", "amount": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/dishes", token, map[string]interface{}{"name": "Air", "price": 0})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = s.do(t, http.MethodGet, "/dishes", token, nil)
	require.Equal(t, http.StatusOK, code)
	dishes := body["data"].(map[string]interface{})["dishes"].([]interface{})
	require.Len(t, dishes, 1)
	assert.Equal(t, "Active", dishes[0].(map[string]interface{})["status"])

	code, body = s.do(t, http.MethodGet, "/alerts", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["data"])
}

func TestDriverRestrictions(t *testing.T) {
	s := newTestServer(t)
	driver := s.login(t, "driver@pablos.ph")
	owner := s.login(t, "owner@pablos.ph")

	for _, path := range []string{"/ingredients", "/dishes", "/alerts", "/overview", "/users"} {
		code, _ := s.do(t, http.MethodGet, path, driver, nil)
		assert.Equal(t, http.StatusForbidden, code, path)
	}
	code, _ := s.do(t, http.MethodGet, "/orders", driver, nil)
	assert.Equal(t, http.StatusOK, code)

	code, body := s.do(t, http.MethodGet, "/users", owner, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["data"], 2)
	assert.NotContains(t, body["data"].([]interface{})[0], "password")
}

func TestOrdersEndpointAndDriverFilter(t *testing.T) {
	s := newTestServer(t)
	s.store.Seed(database.OrderCollection, map[string]bson.M{
		"order-000001": {"driverId": "driver", "status": "ready", "createdAt": "2024-05-01T10:00:00Z"},
		"order-000002": {"driverId": "someone", "status": "pending", "createdAt": "2024-05-01T11:00:00Z"},
	})
	require.NoError(t, s.app.Orders.Start(testContext(t)))
	require.Eventually(t, func() bool { return len(s.app.Orders.Snapshot()) == 2 }, time.Second, 5*time.Millisecond)

	owner := s.login(t, "owner@pablos.ph")
	code, body := s.do(t, http.MethodGet, "/orders", owner, nil)
	require.Equal(t, http.StatusOK, code)
	orders := body["data"].(map[string]interface{})["orders"].([]interface{})
	require.Len(t, orders, 2)
	assert.Equal(t, "order-000002", orders[0].(map[string]interface{})["id"])

	code, body = s.do(t, http.MethodGet, "/orders?status=READY", owner, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["data"].(map[string]interface{})["orders"], 1)

	driver := s.login(t, "driver@pablos.ph")
	code, body = s.do(t, http.MethodGet, "/orders", driver, nil)
	require.Equal(t, http.StatusOK, code)
	orders = body["data"].(map[string]interface{})["orders"].([]interface{})
	require.Len(t, orders, 1)
	assert.Equal(t, "#000001", orders[0].(map[string]interface{})["tracking_label"])

	code, _ = s.do(t, http.MethodGet, "/orders/order-000002", driver, nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = s.do(t, http.MethodGet, "/orders/order-000002", owner, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestWebSocketReceivesSnapshots(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.app.Orders.Start(testContext(t)))
	token := s.login(t, "owner@pablos.ph")

	server := httptest.NewServer(s.router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var first controllers.Message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, controllers.EventOrdersSnapshot, first.Event)

	require.Eventually(t, func() bool { return s.hub.Clients() == 1 }, time.Second, 5*time.Millisecond)
	s.store.Seed(database.OrderCollection, map[string]bson.M{"abc": {"status": "pending"}})

	for {
		var msg struct {
			Event   string                   `json:"event"`
			Payload []map[string]interface{} `json:"payload"`
		}
		require.NoError(t, conn.ReadJSON(&msg))
		if len(msg.Payload) == 1 {
			assert.Equal(t, "ordersSnapshot", msg.Event)
			assert.Equal(t, "abc", msg.Payload[0]["id"])
			return
		}
	}
}

func TestStoreNotReady(t *testing.T) {
	s := newTestServer(t, database.WithReadiness(database.NewReadiness()))

	code, body := s.do(t, http.MethodPost, "/users/login", "", map[string]string{"email": "owner@pablos.ph", "password": "pass123"})
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", body["kind"])

	code, _ = s.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestMetricsAndNoRoute(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "orders_in_snapshot")

	code, body := s.do(t, http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Page not found", body["message"])
}

func TestOrderItemsAndInvoices(t *testing.T) {
	s := newTestServer(t)
	s.store.Seed(database.OrderCollection, map[string]bson.M{
		"o-1": {"items": bson.A{bson.M{"name": "Adobo", "quantity": 2}, "Rice"}, "total": 310.5, "paymentMode": "Cash", "createdAt": "2024-05-01T10:00:00"},
		"o-2": {"total": 99.25, "paymentMode": "GCash", "createdAt": "2024-05-02T10:00:00"},
		"o-3": {"total": 50, "paymentMode": "Cash", "status": "cancelled", "createdAt": "2024-05-02T12:00:00"},
		"o-4": {"total": 1000, "paymentMode": "Cash", "createdAt": "2024-06-01T12:00:00"},
	})
	require.NoError(t, s.app.Orders.Start(testContext(t)))
	require.Eventually(t, func() bool { return len(s.app.Orders.Snapshot()) == 4 }, time.Second, 5*time.Millisecond)
	owner := s.login(t, "owner@pablos.ph")

	code, body := s.do(t, http.MethodGet, "/orders/o-1/items", owner, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []interface{}{"2x Adobo", "Rice"}, body["data"].(map[string]interface{})["labels"])

	code, body = s.do(t, http.MethodGet, "/orders/o-1/invoice", owner, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "310.50", body["data"].(map[string]interface{})["total_display"])

	code, body = s.do(t, http.MethodGet, "/invoicesByDates/2024-05-01/2024-05-02", owner, nil)
	require.Equal(t, http.StatusOK, code)
	data := body["data"].(map[string]interface{})
	assert.Len(t, data["invoices"], 3)
	assert.Equal(t, 409.75, data["grand_total"])
	byPayment := data["by_payment"].([]interface{})
	require.Len(t, byPayment, 2)
	assert.Equal(t, "Cash", byPayment[0].(map[string]interface{})["payment_method"])
	assert.Equal(t, 310.5, byPayment[0].(map[string]interface{})["total"])

	code, _ = s.do(t, http.MethodGet, "/invoicesByDates/2024-05-02/2024-05-01", owner, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(t, http.MethodGet, "/invoicesByDates/may/june", owner, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

// testContext mirrors testing.T.Context (Go 1.24+): a context cancelled when the test finishes.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
