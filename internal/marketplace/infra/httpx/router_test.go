package httpx

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/adapters/memory"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/app"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/auth"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/coordinator"
	"github.com/jcmexdev/homechef-marketplace/internal/marketplace/domain"
	"github.com/jcmexdev/homechef-marketplace/internal/pkg/cache"
)

type testAPI struct {
	t      *testing.T
	srv    http.Handler
	store  *memory.Store
	tokens map[string]string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store := memory.NewStore()
	store.PutItem(domain.CatalogItem{ID: "A", ChefID: "C1", Name: "Biryani", Price: decimal.NewFromInt(100), Available: true})
	store.PutItem(domain.CatalogItem{ID: "B", ChefID: "C1", Name: "Raita", Price: decimal.NewFromInt(50), Available: true})
	store.PutItem(domain.CatalogItem{ID: "X", ChefID: "C2", Name: "Tacos", Price: decimal.NewFromInt(70), Available: true})
	store.PutProfile(domain.Profile{ID: "U1", Name: "Ravi", Role: domain.RoleCustomer})
	store.PutProfile(domain.Profile{ID: "C1", Name: "Meera", Role: domain.RoleChef})
	store.PutProfile(domain.Profile{ID: "C2", Name: "Luis", Role: domain.RoleChef})

	mr := miniredis.RunT(t)
	idem := cache.NewRedisCacheFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), "marketplace")

	verifier := auth.NewVerifier("test-secret")
	handler := NewHandler(
		app.NewCartService(store.Carts(), store),
		app.NewCheckoutService(store.Carts(), store.Orders(), store, store, nil, coordinator.DefaultRetryPolicy()),
		app.NewLifecycleService(store.Orders(), nil),
		app.NewQueryService(store.Orders(), store, store, nil),
	)

	api := &testAPI{
		t:      t,
		srv:    NewRouter(handler, RouterConfig{Tokens: verifier, Idempotency: idem, IdempotencyTTL: time.Hour}),
		store:  store,
		tokens: map[string]string{},
	}
	for name, actor := range map[string]domain.Actor{
		"customer": {ID: "U1", Role: domain.RoleCustomer},
		"chef1":    {ID: "C1", Role: domain.RoleChef},
		"chef2":    {ID: "C2", Role: domain.RoleChef},
		"admin":    {ID: "ADM", Role: domain.RoleAdmin},
	} {
		tok, err := verifier.Sign(actor, time.Hour)
		require.NoError(t, err)
		api.tokens[name] = tok
	}
	return api
}

func (a *testAPI) do(method, path, who string, body any, headers ...string) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if who != "" {
		req.Header.Set("Authorization", "Bearer "+a.tokens[who])
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	a.srv.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type orderJSON struct {
	ID          string `json:"id"`
	ChefID      string `json:"chefId"`
	Status      string `json:"status"`
	TotalAmount string `json:"totalAmount"`
}

type cartJSON struct {
	Items []struct {
		ItemID   string `json:"itemId"`
		Quantity int    `json:"quantity"`
	} `json:"items"`
	Total string `json:"total"`
}

var deliveryBody = map[string]any{
	"deliveryType":    "delivery",
	"deliveryAddress": map[string]string{"street": "12 MG Road", "city": "Bengaluru"},
	"contactNumber":   "9999999999",
}

func TestAPI_CheckoutHappyPath(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/v1/cart/add", "customer", map[string]any{"itemId": "A", "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = api.do(http.MethodPost, "/api/v1/cart/add", "customer", map[string]any{"itemId": "B"})
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decodeBody[cartJSON](t, rec)
	assert.Equal(t, "250", cart.Total)

	rec = api.do(http.MethodPost, "/api/v1/order/create", "customer", deliveryBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	order := decodeBody[orderJSON](t, rec)
	assert.Equal(t, "250", order.TotalAmount)
	assert.Equal(t, "pending", order.Status)
	assert.Equal(t, "C1", order.ChefID)

	rec = api.do(http.MethodGet, "/api/v1/cart", "customer", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[cartJSON](t, rec).Items)

	rec = api.do(http.MethodGet, "/api/v1/order/myorders", "customer", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]orderJSON](t, rec), 1)
}

func TestAPI_MultiChefCheckoutFails(t *testing.T) {
	api := newTestAPI(t)
	api.do(http.MethodPost, "/api/v1/cart/add", "customer", map[string]any{"itemId": "A"})
	api.do(http.MethodPost, "/api/v1/cart/add", "customer", map[string]any{"itemId": "X"})

	rec := api.do(http.MethodPost, "/api/v1/order/create", "customer", deliveryBody)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "multi_chef_order", decodeBody[ErrorResponse](t, rec).Error)

	rec = api.do(http.MethodGet, "/api/v1/order/myorders", "customer", nil)
	assert.Empty(t, decodeBody[[]orderJSON](t, rec))

	rec = api.do(http.MethodGet, "/api/v1/cart", "customer", nil)
	assert.Len(t, decodeBody[cartJSON](t, rec).Items, 2)
}

func TestAPI_EmptyCartAndValidation(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/api/v1/order/create", "customer", deliveryBody)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "empty_cart", decodeBody[ErrorResponse](t, rec).Error)

	api.do(http.MethodPost, "/api/v1/cart/add", "customer", map[string]any{"itemId": "A"})
	rec = api.do(http.MethodPost, "/api/v1/order/create", "customer", map[string]any{"deliveryType": "delivery", "contactNumber": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decodeBody[ErrorResponse](t, rec).Error)

	rec = api.do(http.MethodPost, "/api/v1/cart/add", "customer", map[string]any{"itemId": "A", "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_ChefLifecycle(t *testing.T) {
	api := newTestAPI(t)
	api.do(http.MethodPost, "/api/v1/cart/add", "customer", map[string]any{"itemId": "A"})
	order := decodeBody[orderJSON](t, api.do(http.MethodPost, "/api/v1/order/create", "customer", deliveryBody))

	path := "/api/v1/order/chef/status/" + order.ID
	for _, st := range []string{"confirmed", "preparing", "ready", "out_for_delivery", "delivered"} {
		rec := api.do(http.MethodPut, path, "chef1", map[string]string{"status": st})
		require.Equal(t, http.StatusOK, rec.Code, "%s: %s", st, rec.Body.String())
		assert.Equal(t, st, decodeBody[orderJSON](t, rec).Status)
	}

	rec := api.do(http.MethodPut, path, "chef1", map[string]string{"status": "preparing"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_state_transition", decodeBody[ErrorResponse](t, rec).Error)

	rec = api.do(http.MethodPut, path, "chef2", map[string]string{"status": "cancelled"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_CustomerCancelAndVisibility(t *testing.T) {
	api := newTestAPI(t)
	api.do(http.MethodPost, "/api/v1/cart/add", "customer", map[string]any{"itemId": "A"})
	order := decodeBody[orderJSON](t, api.do(http.MethodPost, "/api/v1/order/create", "customer", deliveryBody))

	rec := api.do(http.MethodGet, "/api/v1/order/"+order.ID, "customer", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/order/missing", "customer", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodPut, "/api/v1/order/cancel/"+order.ID, "customer", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "cancelled", decodeBody[orderJSON](t, rec).Status)

	rec = api.do(http.MethodPut, "/api/v1/order/cancel/"+order.ID, "customer", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_AdminSurface(t *testing.T) {
	api := newTestAPI(t)
	api.do(http.MethodPost, "/api/v1/cart/add", "customer", map[string]any{"itemId": "A"})
	order := decodeBody[orderJSON](t, api.do(http.MethodPost, "/api/v1/order/create", "customer", deliveryBody))

	rec := api.do(http.MethodPut, "/api/v1/admin/orders/"+order.ID+"/status", "admin", map[string]string{"status": "delivered"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = api.do(http.MethodGet, "/api/v1/admin/orders?status=delivered", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]orderJSON](t, rec), 1)

	rec = api.do(http.MethodGet, "/api/v1/admin/orders?status=bogus", "admin", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(http.MethodGet, "/api/v1/admin/dashboard", "admin", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decodeBody[struct {
		TotalOrders     int64  `json:"totalOrders"`
		CompletedOrders int64  `json:"completedOrders"`
		TotalRevenue    string `json:"totalRevenue"`
		TotalUsers      int64  `json:"totalUsers"`
		TotalChefs      int64  `json:"totalChefs"`
		TotalMenuItems  int64  `json:"totalMenuItems"`
	}](t, rec)
	assert.Equal(t, int64(1), dash.TotalOrders)
	assert.Equal(t, int64(1), dash.TotalUsers)
	assert.Equal(t, int64(2), dash.TotalChefs)
	assert.Equal(t, int64(3), dash.TotalMenuItems)
	assert.Equal(t, int64(1), dash.CompletedOrders)
	assert.Equal(t, "100", dash.TotalRevenue)

	rec = api.do(http.MethodGet, "/api/v1/admin/orders/"+order.ID+"/history", "admin", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_AuthAndRoles(t *testing.T) {
	api := newTestAPI(t)

	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodGet, "/api/v1/cart", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/v1/cart", "chef1", nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/v1/admin/orders", "customer", nil).Code)
	assert.Equal(t, http.StatusForbidden, api.do(http.MethodGet, "/api/v1/order/chef/orders", "customer", nil).Code)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/healthz", "", nil).Code)
}

func TestAPI_IdempotentAddToCart(t *testing.T) {
	api := newTestAPI(t)

	for i := 0; i < 3; i++ {
		rec := api.do(http.MethodPost, "/api/v1/cart/add", "customer", map[string]any{"itemId": "A", "quantity": 2},
			"X-Idempotency-Key", "add-A-once")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	cart := decodeBody[cartJSON](t, api.do(http.MethodGet, "/api/v1/cart", "customer", nil))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestAPI_MalformedJSON(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/add", bytes.NewBufferString("{"))
	req.Header.Set("Authorization", "Bearer "+api.tokens["customer"])
	rec := httptest.NewRecorder()
	api.srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_error", decodeBody[ErrorResponse](t, rec).Error)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(domain.KindInvalidStateTransition))
	assert.Equal(t, http.StatusConflict, StatusFor(domain.KindConflict))
	assert.Equal(t, http.StatusInternalServerError, StatusFor("unknown"))
}
