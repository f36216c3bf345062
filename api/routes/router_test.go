package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"

	"github.com/cheikhbeye/oleashop-backend/internal/catalog"
	"github.com/cheikhbeye/oleashop-backend/internal/importer"
	"github.com/cheikhbeye/oleashop-backend/internal/orders"
	"github.com/cheikhbeye/oleashop-backend/internal/pricing"
	promo "github.com/cheikhbeye/oleashop-backend/internal/promos"
	"github.com/cheikhbeye/oleashop-backend/internal/shipping"
	pkgauth "github.com/cheikhbeye/oleashop-backend/pkg/auth"
	"github.com/cheikhbeye/oleashop-backend/pkg/config"
	"github.com/cheikhbeye/oleashop-backend/pkg/db/models"
	"github.com/cheikhbeye/oleashop-backend/pkg/enums"
	pkgerrors "github.com/cheikhbeye/oleashop-backend/pkg/errors"
	"github.com/cheikhbeye/oleashop-backend/pkg/logger"
	"github.com/cheikhbeye/oleashop-backend/pkg/pagination"
	"github.com/cheikhbeye/oleashop-backend/pkg/payment"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubIdempotencyStore struct {
	records map[string]string
}

func (s *stubIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	if v, ok := s.records[key]; ok {
		return v, nil
	}
	return "", goredis.Nil
}

func (s *stubIdempotencyStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if s.records == nil {
		s.records = map[string]string{}
	}
	s.records[key] = value.(string)
	return true, nil
}

func (s *stubIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (s *stubIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.records, key)
	}
	return nil
}

type stubCatalogService struct{}

func (stubCatalogService) CreateProduct(ctx context.Context, input catalog.ProductInput) (*catalog.ProductDTO, error) {
	panic("unimplemented")
}

func (stubCatalogService) UpdateProduct(ctx context.Context, productID uuid.UUID, input catalog.ProductInput) (*catalog.ProductDTO, error) {
	panic("unimplemented")
}

func (stubCatalogService) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	panic("unimplemented")
}

func (stubCatalogService) GetProductBySlug(ctx context.Context, productSlug string) (*catalog.ProductDTO, error) {
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
}

func (stubCatalogService) ListProducts(ctx context.Context, filter catalog.ListFilter) (*catalog.ProductListResult, error) {
	return &catalog.ProductListResult{Products: []catalog.ProductDTO{}}, nil
}

func (stubCatalogService) ListCategories(ctx context.Context) ([]catalog.CategoryDTO, error) {
	return []catalog.CategoryDTO{}, nil
}

func (stubCatalogService) CreateCategory(ctx context.Context, input catalog.CategoryInput) (*catalog.CategoryDTO, error) {
	panic("unimplemented")
}

func (stubCatalogService) UpdateCategory(ctx context.Context, categoryID uuid.UUID, input catalog.CategoryInput) (*catalog.CategoryDTO, error) {
	panic("unimplemented")
}

func (stubCatalogService) DeleteCategory(ctx context.Context, categoryID uuid.UUID) error {
	panic("unimplemented")
}

type stubImportService struct{}

func (stubImportService) Analyze(ctx context.Context, raw string) (*importer.SessionDTO, error) {
	panic("unimplemented")
}

func (stubImportService) GetSession(ctx context.Context, sessionID uuid.UUID) (*importer.SessionDTO, error) {
	panic("unimplemented")
}

func (stubImportService) SetMapping(ctx context.Context, sessionID uuid.UUID, mappings []importer.ColumnMapping) (*importer.SessionDTO, error) {
	panic("unimplemented")
}

func (stubImportService) Commit(ctx context.Context, sessionID uuid.UUID) (*importer.Result, error) {
	panic("unimplemented")
}

type stubPromoService struct{}

func (stubPromoService) Create(ctx context.Context, input promo.PromoInput) (*promo.PromoDTO, error) {
	panic("unimplemented")
}

func (stubPromoService) Update(ctx context.Context, promoID uuid.UUID, input promo.PromoInput) (*promo.PromoDTO, error) {
	panic("unimplemented")
}

func (stubPromoService) Delete(ctx context.Context, promoID uuid.UUID) error {
	panic("unimplemented")
}

func (stubPromoService) List(ctx context.Context) ([]promo.PromoDTO, error) {
	return []promo.PromoDTO{}, nil
}

func (stubPromoService) GetByCode(ctx context.Context, code string) (*models.PromoCode, error) {
	return nil, nil
}

func (stubPromoService) Redeem(ctx context.Context, promoID uuid.UUID) error {
	return nil
}

type stubShippingService struct{}

func (stubShippingService) CreateZone(ctx context.Context, input shipping.ZoneInput) (*shipping.ZoneDTO, error) {
	panic("unimplemented")
}

func (stubShippingService) UpdateZone(ctx context.Context, zoneID uuid.UUID, input shipping.ZoneInput) (*shipping.ZoneDTO, error) {
	panic("unimplemented")
}

func (stubShippingService) DeleteZone(ctx context.Context, zoneID uuid.UUID) error {
	panic("unimplemented")
}

func (stubShippingService) ListZones(ctx context.Context) ([]shipping.ZoneDTO, error) {
	return []shipping.ZoneDTO{}, nil
}

func (stubShippingService) SetRate(ctx context.Context, zoneID uuid.UUID, input shipping.RateInput) (*shipping.RateDTO, error) {
	panic("unimplemented")
}

func (stubShippingService) DeleteRate(ctx context.Context, rateID uuid.UUID) error {
	panic("unimplemented")
}

func (stubShippingService) ResolveRate(ctx context.Context, city, country string, method enums.DeliveryMethod) (*models.ShippingRate, error) {
	return nil, nil
}

type stubOrdersService struct {
	checkout func(ctx context.Context, input orders.CheckoutInput) (*orders.CheckoutResult, error)
	byRef    func(ctx context.Context, reference string) (*orders.OrderDTO, error)
}

func (s stubOrdersService) Quote(ctx context.Context, input orders.QuoteInput) (*pricing.Quote, error) {
	panic("unimplemented")
}

func (s stubOrdersService) Checkout(ctx context.Context, input orders.CheckoutInput) (*orders.CheckoutResult, error) {
	if s.checkout != nil {
		return s.checkout(ctx, input)
	}
	panic("unimplemented")
}

func (s stubOrdersService) ConfirmPayment(ctx context.Context, reference, paymentRef string) error {
	return nil
}

func (s stubOrdersService) GetOrder(ctx context.Context, orderID uuid.UUID) (*orders.OrderDTO, error) {
	panic("unimplemented")
}

func (s stubOrdersService) GetOrderByReference(ctx context.Context, reference string) (*orders.OrderDTO, error) {
	if s.byRef != nil {
		return s.byRef(ctx, reference)
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s stubOrdersService) ListOrders(ctx context.Context, params pagination.Params) (*orders.OrderListResult, error) {
	return &orders.OrderListResult{Orders: []orders.OrderDTO{}}, nil
}

func (s stubOrdersService) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus) error {
	return nil
}

type stubVerifier struct {
	accept bool
}

func (s stubVerifier) VerifyCallback(payment.Callback) bool {
	return s.accept
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config, overrides ...func(*Deps)) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	deps := Deps{
		Config:      cfg,
		Logger:      logg,
		DB:          stubPinger{},
		Redis:       stubPinger{},
		Idempotency: &stubIdempotencyStore{},
		Catalog:     stubCatalogService{},
		Imports:     stubImportService{},
		Promos:      stubPromoService{},
		Shipping:    stubShippingService{},
		Orders:      stubOrdersService{},
		Payments:    stubVerifier{accept: true},
	}
	for _, override := range overrides {
		override(&deps)
	}
	return NewRouter(deps)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.ActorRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		ActorID: uuid.New(),
		Role:    role,
		JTI:     uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestStorefrontCatalogIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	for _, path := range []string{"/api/v1/products", "/api/v1/categories"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200 for %s got %d", path, resp.Code)
		}
	}
}

func TestAdminGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	staff := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	staff.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleStaff))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, staff)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestCheckoutRequiresIdempotencyKey(t *testing.T) {
	router := newTestRouter(testConfig())
	body := `{"customer_name":"Awa","customer_phone":"+221770000000","delivery_method":"standard","items":[{"product_id":"` + uuid.NewString() + `","quantity":1}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without Idempotency-Key got %d", resp.Code)
	}
}

func TestCheckoutReplayServesStoredResponse(t *testing.T) {
	calls := 0
	router := newTestRouter(testConfig(), func(deps *Deps) {
		deps.Orders = stubOrdersService{
			checkout: func(ctx context.Context, input orders.CheckoutInput) (*orders.CheckoutResult, error) {
				calls++
				return &orders.CheckoutResult{Reference: "OLEA-20260830-ABCDEF1234"}, nil
			},
		}
	})

	body := `{"customer_name":"Awa","customer_phone":"+221770000000","city":"Dakar","country":"Sénégal","delivery_method":"standard","items":[{"product_id":"` + uuid.NewString() + `","quantity":1}]}`
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Idempotency-Key", "order-1")
		resp := httptest.NewRecorder()
		router.ServeHTTP(resp, req)
		return resp
	}

	first := send()
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 for checkout got %d", first.Code)
	}
	second := send()
	if second.Code != http.StatusCreated {
		t.Fatalf("expected 201 for replay got %d", second.Code)
	}
	if calls != 1 {
		t.Fatalf("expected checkout to run once got %d", calls)
	}
	if first.Body.String() != second.Body.String() {
		t.Fatalf("expected identical replay body")
	}
}

func TestPaymentCallbackRejectsBadSignature(t *testing.T) {
	router := newTestRouter(testConfig(), func(deps *Deps) {
		deps.Payments = stubVerifier{accept: false}
	})

	form := "type_event=sale_complete&ref_command=OLEA-1&token=tok&api_key_sha256=bad&api_secret_sha256=bad"
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for bad signature got %d", resp.Code)
	}
}

func TestOrderLookupByReference(t *testing.T) {
	router := newTestRouter(testConfig(), func(deps *Deps) {
		deps.Orders = stubOrdersService{
			byRef: func(ctx context.Context, reference string) (*orders.OrderDTO, error) {
				if reference != "OLEA-20260830-ABCDEF1234" {
					return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
				}
				return &orders.OrderDTO{Reference: reference}, nil
			},
		}
	})

	found := httptest.NewRequest(http.MethodGet, "/api/v1/orders/OLEA-20260830-ABCDEF1234", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, found)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for known reference got %d", resp.Code)
	}

	missing := httptest.NewRequest(http.MethodGet, "/api/v1/orders/OLEA-NOPE", nil)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, missing)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown reference got %d", resp.Code)
	}
}

func TestMetricsEndpointExposed(t *testing.T) {
	registry := prometheus.NewRegistry()
	router := newTestRouter(testConfig(), func(deps *Deps) {
		deps.MetricsRegistry = registry
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for metrics got %d", resp.Code)
	}
}
