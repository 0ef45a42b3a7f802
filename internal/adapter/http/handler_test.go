package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"github.com/tiendix/tiendix/internal/adapter/auth"
	"github.com/tiendix/tiendix/internal/adapter/fsm"
	adapter "github.com/tiendix/tiendix/internal/adapter/http"
	"github.com/tiendix/tiendix/internal/adapter/sqlite"
	"github.com/tiendix/tiendix/internal/app"
	"github.com/tiendix/tiendix/internal/domain"
)

const (
	tokenAna   = "tok-ana"   // owner of the first store in most tests
	tokenBob   = "tok-bob"   // owner of a rival store
	tokenAdmin = "tok-admin" // platform admin
)

// noopPublisher is a no-op ReceiptPublisher for tests.
type noopPublisher struct{}

func (p *noopPublisher) Publish(_ context.Context, _ domain.Order) error {
	return nil
}

// newTestServer creates a full-stack httptest.Server with SQLite in-memory.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tenants := sqlite.NewTenantRepository(db)
	variants := sqlite.NewVariantRepository(db)
	orders := sqlite.NewOrderRepository(db)
	plans := sqlite.NewPlanRepository(db)
	subs := sqlite.NewSubscriptionRepository(db)

	guard := app.NewPermissionGuard()
	svc := adapter.Services{
		Stores:        app.NewStoreService(tenants),
		Catalog:       app.NewCatalogService(variants, subs, plans, guard),
		Orders:        app.NewOrderService(orders, variants, fsm.New(), guard, &noopPublisher{}),
		Subscriptions: app.NewSubscriptionService(subs, plans),
	}

	verifier := auth.NewStaticVerifier(auth.ParseTokenTable(
		tokenAna + ":owner:acct-1:ana@example.com," +
			tokenBob + ":owner:acct-2:bob@example.com," +
			tokenAdmin + ":admin:acct-9:admin@example.com",
	))

	router := chi.NewMux()
	router.Use(adapter.Authenticator(verifier))
	router.Use(adapter.TenantScope(app.NewTenantResolver(tenants)))
	api := humachi.New(router, huma.DefaultConfig("tiendix", "0.1.0"))
	adapter.Register(api, svc)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return srv
}

// doRequest performs an HTTP request, optionally authenticated.
func doRequest(t *testing.T, method, url, token, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, reader)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, url, err)
	}

	return resp
}

func decodeInto(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
}

// mustCreateStore creates a store via the API and returns its response.
func mustCreateStore(t *testing.T, srv *httptest.Server, token, name, slug string) adapter.StoreResponse {
	t.Helper()

	body := fmt.Sprintf(`{"name":%q,"slug":%q}`, name, slug)
	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/tiendas", token, body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create store: status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var store adapter.StoreResponse
	decodeInto(t, resp, &store)
	return store
}

// mustSubscribe starts a subscription for the token's store.
func mustSubscribe(t *testing.T, srv *httptest.Server, token, planID string) {
	t.Helper()

	body := fmt.Sprintf(`{"plan_id":%q}`, planID)
	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/mi/subscription", token, body)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create subscription: status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

// mustAddVariant adds a variant to the token's store.
func mustAddVariant(t *testing.T, srv *httptest.Server, token, sku string, priceCents int64, stock int) {
	t.Helper()

	body := fmt.Sprintf(`{"product_id":"p-1","sku":%q,"price_cents":%d,"stock":%d}`, sku, priceCents, stock)
	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/mi/variants", token, body)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add variant %s: status = %d, want %d", sku, resp.StatusCode, http.StatusOK)
	}
}

// mustCreateOrder places an order on a store and returns its response.
func mustCreateOrder(t *testing.T, srv *httptest.Server, slug, sku string, qty int) adapter.OrderResponse {
	t.Helper()

	body := fmt.Sprintf(`{"buyer_name":"Ana","lines":[{"sku":%q,"quantity":%d}]}`, sku, qty)
	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/tiendas/"+slug+"/orders", "", body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create order: status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	var order adapter.OrderResponse
	decodeInto(t, resp, &order)
	return order
}

// sellingStore provisions a subscribed store with one in-stock variant.
func sellingStore(t *testing.T, srv *httptest.Server) adapter.StoreResponse {
	t.Helper()
	store := mustCreateStore(t, srv, tokenAna, "Acme", "acme")
	mustSubscribe(t, srv, tokenAna, "pro")
	mustAddVariant(t, srv, tokenAna, "MUG", 1500, 5)
	return store
}

// --- Stores ---

func TestCreateStore(t *testing.T) {
	srv := newTestServer(t)
	store := mustCreateStore(t, srv, tokenAna, "Acme Corp", "acme-corp")

	if store.ID == "" {
		t.Error("ID should not be empty")
	}
	if store.Slug != "acme-corp" {
		t.Errorf("Slug = %q, want acme-corp", store.Slug)
	}
	if !store.Active {
		t.Error("new store should be active")
	}
}

func TestCreateStore_Unauthenticated(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/tiendas", "", `{"name":"Acme","slug":"acme"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestCreateStore_SlugConflict(t *testing.T) {
	srv := newTestServer(t)
	mustCreateStore(t, srv, tokenAna, "Acme", "acme")

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/tiendas", tokenBob, `{"name":"Fake Acme","slug":"acme"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestGetStore(t *testing.T) {
	srv := newTestServer(t)
	mustCreateStore(t, srv, tokenAna, "Acme", "acme")

	// Public read, no token required.
	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/tiendas/acme", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var store adapter.StoreResponse
	decodeInto(t, resp, &store)
	if store.Name != "Acme" {
		t.Errorf("Name = %q, want Acme", store.Name)
	}
}

func TestGetStore_UnknownSlug(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/tiendas/ghost", "", "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestCloseStore(t *testing.T) {
	srv := newTestServer(t)
	mustCreateStore(t, srv, tokenAna, "Acme", "acme")

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/mi/tienda/close", tokenAna, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var store adapter.StoreResponse
	decodeInto(t, resp, &store)
	if store.Active {
		t.Error("store should be inactive after close")
	}

	// The public storefront stops resolving the slug once closed.
	resp = doRequest(t, http.MethodGet, srv.URL+"/api/v1/tiendas/acme", "", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("closed store by slug: status = %d, want 404", resp.StatusCode)
	}
}

// --- Orders ---

func TestOrderLifecycle(t *testing.T) {
	srv := newTestServer(t)
	sellingStore(t, srv)

	order := mustCreateOrder(t, srv, "acme", "MUG", 2)
	if order.Status != "PENDING" {
		t.Errorf("Status = %q, want PENDING", order.Status)
	}
	if order.TotalCents != 3000 {
		t.Errorf("TotalCents = %d, want 3000", order.TotalCents)
	}

	resp := doRequest(t, http.MethodPut, srv.URL+"/api/v1/tiendas/acme/orders/"+order.ID+"/status", tokenAna, `{"status":"FULFILLED"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("fulfil: status = %d, want 200", resp.StatusCode)
	}
	var fulfilled adapter.OrderResponse
	decodeInto(t, resp, &fulfilled)
	if fulfilled.Status != "FULFILLED" {
		t.Errorf("Status = %q, want FULFILLED", fulfilled.Status)
	}

	resp = doRequest(t, http.MethodGet, srv.URL+"/api/v1/tiendas/acme/orders/"+order.ID, "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get: status = %d, want 200", resp.StatusCode)
	}
	var got adapter.OrderResponse
	decodeInto(t, resp, &got)
	if got.Status != "FULFILLED" {
		t.Errorf("Status = %q, want FULFILLED", got.Status)
	}
}

func TestOrderTransition_UnknownStatus(t *testing.T) {
	srv := newTestServer(t)
	sellingStore(t, srv)
	order := mustCreateOrder(t, srv, "acme", "MUG", 1)

	resp := doRequest(t, http.MethodPut, srv.URL+"/api/v1/tiendas/acme/orders/"+order.ID+"/status", tokenAna, `{"status":"SHIPPED"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	// The rejection echoes the offending value.
	if !strings.Contains(string(body), "SHIPPED") {
		t.Errorf("body = %s, want the rejected status echoed", body)
	}
}

func TestOrderTransition_InsufficientStock(t *testing.T) {
	srv := newTestServer(t)
	sellingStore(t, srv)
	order := mustCreateOrder(t, srv, "acme", "MUG", 5)
	rival := mustCreateOrder(t, srv, "acme", "MUG", 5)

	resp := doRequest(t, http.MethodPut, srv.URL+"/api/v1/tiendas/acme/orders/"+order.ID+"/status", tokenAna, `{"status":"FULFILLED"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("first fulfil: status = %d, want 200", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodPut, srv.URL+"/api/v1/tiendas/acme/orders/"+rival.ID+"/status", tokenAna, `{"status":"FULFILLED"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second fulfil: status = %d, want 409", resp.StatusCode)
	}
}

func TestOrderTransition_ForeignOwnerForbidden(t *testing.T) {
	srv := newTestServer(t)
	sellingStore(t, srv)
	mustCreateStore(t, srv, tokenBob, "Globex", "globex")
	order := mustCreateOrder(t, srv, "acme", "MUG", 1)

	resp := doRequest(t, http.MethodPut, srv.URL+"/api/v1/tiendas/acme/orders/"+order.ID+"/status", tokenBob, `{"status":"FULFILLED"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want 403", resp.StatusCode)
	}
}

func TestOrderTransition_AdminAllowed(t *testing.T) {
	srv := newTestServer(t)
	sellingStore(t, srv)
	order := mustCreateOrder(t, srv, "acme", "MUG", 1)

	resp := doRequest(t, http.MethodPut, srv.URL+"/api/v1/tiendas/acme/orders/"+order.ID+"/status", tokenAdmin, `{"status":"CANCELLED"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestOrder_NotVisibleFromOtherStore(t *testing.T) {
	srv := newTestServer(t)
	sellingStore(t, srv)
	mustCreateStore(t, srv, tokenBob, "Globex", "globex")
	order := mustCreateOrder(t, srv, "acme", "MUG", 1)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/tiendas/globex/orders/"+order.ID, "", "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

// --- Variants ---

func TestAddVariant_RequiresSubscription(t *testing.T) {
	srv := newTestServer(t)
	mustCreateStore(t, srv, tokenAna, "Acme", "acme")

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/mi/variants", tokenAna, `{"product_id":"p-1","sku":"MUG","price_cents":1500,"stock":5}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestAddVariant_NoStore(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/mi/variants", tokenAna, `{"product_id":"p-1","sku":"MUG","price_cents":1500,"stock":5}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

// --- Subscriptions ---

func TestListPlans(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/planes", "", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var plans []adapter.PlanResponse
	decodeInto(t, resp, &plans)
	if len(plans) != 3 {
		t.Fatalf("plans = %d, want 3", len(plans))
	}
	if plans[0].ID != "gratis" {
		t.Errorf("plans[0] = %q, want gratis", plans[0].ID)
	}
}

func TestSubscriptionLifecycle(t *testing.T) {
	srv := newTestServer(t)
	mustCreateStore(t, srv, tokenAna, "Acme", "acme")

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/mi/subscription", tokenAna, `{"plan_id":"emprendedor"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("create: status = %d, want 200", resp.StatusCode)
	}
	var sub adapter.SubscriptionResponse
	decodeInto(t, resp, &sub)
	if sub.Status != "trial" {
		t.Errorf("Status = %q, want trial", sub.Status)
	}
	if sub.TrialEndsAt == nil {
		t.Error("TrialEndsAt should be set for a trial plan")
	}
	// The trial period runs 14 days; the projection rounds down, so the
	// instant of rendering may already shave one off.
	if sub.DaysRemaining < 13 || sub.DaysRemaining > 14 {
		t.Errorf("DaysRemaining = %d, want 13 or 14", sub.DaysRemaining)
	}

	// A second vigente subscription is rejected.
	resp = doRequest(t, http.MethodPost, srv.URL+"/api/v1/mi/subscription", tokenAna, `{"plan_id":"pro"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("duplicate create: status = %d, want 400", resp.StatusCode)
	}

	resp = doRequest(t, http.MethodPost, srv.URL+"/api/v1/mi/subscription/plan", tokenAna, `{"plan_id":"pro","provider_ref":"prov-1"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("change plan: status = %d, want 200", resp.StatusCode)
	}
	decodeInto(t, resp, &sub)
	if sub.Status != "active" {
		t.Errorf("Status = %q, want active", sub.Status)
	}
	if sub.PlanID != "pro" {
		t.Errorf("PlanID = %q, want pro", sub.PlanID)
	}

	resp = doRequest(t, http.MethodPost, srv.URL+"/api/v1/mi/subscription/cancel", tokenAna, `{"reason":"too expensive"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cancel: status = %d, want 200", resp.StatusCode)
	}
	decodeInto(t, resp, &sub)
	if !sub.CancelAtPeriodEnd {
		t.Error("CancelAtPeriodEnd = false, want true")
	}
	if sub.Status != "active" {
		t.Errorf("Status = %q, want active until the period ends", sub.Status)
	}
}

func TestSubscriptionCancelImmediate(t *testing.T) {
	srv := newTestServer(t)
	mustCreateStore(t, srv, tokenAna, "Acme", "acme")
	mustSubscribe(t, srv, tokenAna, "gratis")

	resp := doRequest(t, http.MethodPost, srv.URL+"/api/v1/mi/subscription/cancel-immediate", tokenAna, `{"reason":"closing"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var sub adapter.SubscriptionResponse
	decodeInto(t, resp, &sub)
	if sub.Status != "cancelled" {
		t.Errorf("Status = %q, want cancelled", sub.Status)
	}

	// The caller no longer has a current subscription.
	resp = doRequest(t, http.MethodGet, srv.URL+"/api/v1/mi/subscription", tokenAna, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("current: status = %d, want 200", resp.StatusCode)
	}
	var current struct {
		Subscription *adapter.SubscriptionResponse `json:"subscription"`
	}
	decodeInto(t, resp, &current)
	if current.Subscription != nil {
		t.Errorf("Subscription = %+v, want null", current.Subscription)
	}
}

func TestCurrentSubscription_Unauthenticated(t *testing.T) {
	srv := newTestServer(t)

	resp := doRequest(t, http.MethodGet, srv.URL+"/api/v1/mi/subscription", "", "")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}
