package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"farmmarket/internal/handlers"
	"farmmarket/internal/middleware"
	"farmmarket/internal/models"
	"farmmarket/internal/repositories"
	"farmmarket/internal/services"
)

const testJWTSecret = "integration_test_secret"

// setupApp wires the full HTTP surface against a fresh in-memory sqlite
// database, without RabbitMQ or SMTP.
func setupApp(t *testing.T, name string) (*fiber.App, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "failed to open in-memory sqlite")
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
		&models.IdempotencyKey{},
		&models.Message{},
		&models.Review{},
		&models.Notification{},
		&models.Subscription{},
		&models.Dispute{},
	))

	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)
	idempotencyRepo := repositories.NewGORMIdempotencyRepository(db)
	messageRepo := repositories.NewGORMMessageRepository(db)
	reviewRepo := repositories.NewGORMReviewRepository(db)
	notificationRepo := repositories.NewGORMNotificationRepository(db)
	subscriptionRepo := repositories.NewGORMSubscriptionRepository(db)
	disputeRepo := repositories.NewGORMDisputeRepository(db)

	authService := services.NewAuthService(userRepo, testJWTSecret)
	userService := services.NewUserService(userRepo)
	productService := services.NewProductService(productRepo)
	cartService := services.NewCartService(cartRepo, productRepo)
	checkoutService := services.NewCheckoutService(cartRepo, productRepo, orderRepo, idempotencyRepo, nil)
	orderService := services.NewOrderService(orderRepo, productRepo, userRepo, notificationRepo, nil, nil)
	messageService := services.NewMessageService(messageRepo, userRepo)
	reviewService := services.NewReviewService(reviewRepo, productRepo, orderRepo)
	analyticsService := services.NewAnalyticsService(orderRepo)
	subscriptionService := services.NewSubscriptionService(subscriptionRepo, productRepo, notificationRepo)
	notificationService := services.NewNotificationService(notificationRepo)
	disputeService := services.NewDisputeService(disputeRepo, orderRepo, notificationRepo)

	authHandler := handlers.NewAuthHandler(authService)
	productHandler := handlers.NewProductHandler(productService, reviewService)
	cartHandler := handlers.NewCartHandler(cartService)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService)
	orderHandler := handlers.NewOrderHandler(orderService)
	messageHandler := handlers.NewMessageHandler(messageService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	adminHandler := handlers.NewAdminHandler(analyticsService, disputeService, userService)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1)

	buyerPublic := apiV1.Group("/buyer")
	productHandler.RegisterPublicRoutes(buyerPublic)

	authRequired := middleware.AuthRequired(authService)

	buyer := apiV1.Group("/buyer", authRequired, middleware.RequireRole(models.RoleBuyer))
	cartHandler.RegisterRoutes(buyer)
	checkoutHandler.RegisterRoutes(buyer)
	orderHandler.RegisterBuyerRoutes(buyer)
	messageHandler.RegisterRoutes(buyer)
	reviewHandler.RegisterRoutes(buyer)
	subscriptionHandler.RegisterRoutes(buyer)
	notificationHandler.RegisterRoutes(buyer)
	adminHandler.RegisterDisputeRoutes(buyer)

	farmer := apiV1.Group("/farmer", authRequired, middleware.RequireRole(models.RoleFarmer))
	productHandler.RegisterFarmerRoutes(farmer)
	orderHandler.RegisterFarmerRoutes(farmer)
	messageHandler.RegisterRoutes(farmer)
	notificationHandler.RegisterRoutes(farmer)
	adminHandler.RegisterDisputeRoutes(farmer)

	admin := apiV1.Group("/admin", authRequired, middleware.RequireRole(models.RoleAdmin))
	orderHandler.RegisterAdminRoutes(admin)
	adminHandler.RegisterRoutes(admin)

	return app, db
}

// doJSON performs one request against the app and decodes the envelope.
func doJSON(t *testing.T, app *fiber.App, method, path, token string, body interface{}, headers map[string]string) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var envelope map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &envelope), "body: %s", string(raw))
	}
	return resp.StatusCode, envelope
}

func dataOf(t *testing.T, envelope map[string]interface{}) map[string]interface{} {
	t.Helper()
	data, ok := envelope["data"].(map[string]interface{})
	require.True(t, ok, "envelope has no data object: %v", envelope)
	return data
}

func registerAndLogin(t *testing.T, app *fiber.App, username, role string) string {
	t.Helper()
	status, _ := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
		"role":     role,
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	status, envelope := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
		"username": username,
		"password": "password123",
	}, nil)
	require.Equal(t, http.StatusOK, status)
	token, ok := dataOf(t, envelope)["token"].(string)
	require.True(t, ok)
	return token
}

// seedAdmin inserts an admin directly; admin accounts are never
// self-registered.
func seedAdmin(t *testing.T, app *fiber.App, db *gorm.DB) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.User{
		ID:       "admin-1",
		Username: "marketadmin",
		Email:    "admin@example.com",
		Password: string(hash),
		Role:     models.RoleAdmin,
	}).Error)

	status, envelope := doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
		"username": "marketadmin",
		"password": "password123",
	}, nil)
	require.Equal(t, http.StatusOK, status)
	token, _ := dataOf(t, envelope)["token"].(string)
	return token
}

func createProduct(t *testing.T, app *fiber.App, farmerToken, name, price string, stock int) string {
	t.Helper()
	status, envelope := doJSON(t, app, http.MethodPost, "/api/v1/farmer/products", farmerToken, map[string]interface{}{
		"name":     name,
		"category": "vegetables",
		"price":    price,
		"stock":    stock,
		"unit":     "kg",
	}, nil)
	require.Equal(t, http.StatusCreated, status)
	id, ok := dataOf(t, envelope)["id"].(string)
	require.True(t, ok)
	return id
}

func TestAuthFlow(t *testing.T) {
	app, _ := setupApp(t, "authflow")

	status, envelope := doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"username": "gardenlover",
		"email":    "gardenlover@example.com",
		"password": "password123",
		"role":     "buyer",
	}, nil)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, true, envelope["success"])
	data := dataOf(t, envelope)
	assert.Equal(t, "gardenlover", data["username"])
	assert.NotContains(t, data, "password", "password hash must never be serialized")

	// Duplicate username conflicts
	status, envelope = doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"username": "gardenlover",
		"email":    "other@example.com",
		"password": "password123",
		"role":     "buyer",
	}, nil)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, false, envelope["success"])

	// Admin role is not accepted at registration
	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/auth/register", "", map[string]interface{}{
		"username": "wannabeadmin",
		"email":    "wannabe@example.com",
		"password": "password123",
		"role":     "admin",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	// Wrong password fails with 401
	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/auth/login", "", map[string]interface{}{
		"username": "gardenlover",
		"password": "wrongpassword",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRoleGating(t *testing.T) {
	app, _ := setupApp(t, "rolegating")
	buyerToken := registerAndLogin(t, app, "gatedbuyer", "buyer")

	// No token: 401
	status, _ := doJSON(t, app, http.MethodGet, "/api/v1/buyer/cart", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// Garbage token: 401
	status, _ = doJSON(t, app, http.MethodGet, "/api/v1/buyer/cart", "not.a.token", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// Buyer token on a farmer route: 403
	status, _ = doJSON(t, app, http.MethodGet, "/api/v1/farmer/orders", buyerToken, nil, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// Buyer token on an admin route: 403
	status, _ = doJSON(t, app, http.MethodGet, "/api/v1/admin/analytics", buyerToken, nil, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// Public catalog needs no token
	status, envelope := doJSON(t, app, http.MethodGet, "/api/v1/buyer/products", "", nil, nil)
	assert.Equal(t, http.StatusOK, status)
	page := dataOf(t, envelope)
	assert.Contains(t, page, "items")
	assert.Contains(t, page, "totalPages")
}

func TestMarketplaceFlow(t *testing.T) {
	app, _ := setupApp(t, "marketflow")
	farmerToken := registerAndLogin(t, app, "greenacres", "farmer")
	buyerToken := registerAndLogin(t, app, "gardenlover", "buyer")

	productID := createProduct(t, app, farmerToken, "Heirloom Tomatoes", "4.99", 10)

	// Buyer adds the product to the cart twice; quantities merge
	status, _ := doJSON(t, app, http.MethodPost, "/api/v1/buyer/cart", buyerToken, map[string]interface{}{
		"product_id": productID,
		"quantity":   1,
	}, nil)
	require.Equal(t, http.StatusCreated, status)
	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/buyer/cart", buyerToken, map[string]interface{}{
		"product_id": productID,
		"quantity":   1,
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	status, envelope := doJSON(t, app, http.MethodGet, "/api/v1/buyer/cart", buyerToken, nil, nil)
	require.Equal(t, http.StatusOK, status)
	cart := dataOf(t, envelope)
	lines := cart["lines"].([]interface{})
	require.Len(t, lines, 1)
	line := lines[0].(map[string]interface{})
	assert.Equal(t, float64(2), line["item"].(map[string]interface{})["quantity"])
	assert.Equal(t, "9.98", cart["subtotal"])

	// Checkout with an idempotency key
	status, envelope = doJSON(t, app, http.MethodPost, "/api/v1/buyer/checkout", buyerToken, map[string]interface{}{
		"delivery_address": "12 Orchard Lane",
	}, map[string]string{"Idempotency-Key": "flow-key-1"})
	require.Equal(t, http.StatusCreated, status)
	orders := dataOf(t, envelope)["orders"].([]interface{})
	require.Len(t, orders, 1)
	order := orders[0].(map[string]interface{})
	orderID := order["id"].(string)
	assert.Equal(t, "9.98", order["total"])
	assert.Equal(t, "0.7", order["commission"])
	assert.Equal(t, "pending", order["status"])

	// Replaying the same key returns the same order, without a second fan-out
	status, envelope = doJSON(t, app, http.MethodPost, "/api/v1/buyer/checkout", buyerToken, map[string]interface{}{
		"delivery_address": "12 Orchard Lane",
	}, map[string]string{"Idempotency-Key": "flow-key-1"})
	require.Equal(t, http.StatusCreated, status)
	replayed := dataOf(t, envelope)["orders"].([]interface{})
	require.Len(t, replayed, 1)
	assert.Equal(t, orderID, replayed[0].(map[string]interface{})["id"])

	// Stock is down to 8
	status, envelope = doJSON(t, app, http.MethodGet, "/api/v1/buyer/products/"+productID, "", nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(8), dataOf(t, envelope)["stock"])

	// Buyer pays
	status, envelope = doJSON(t, app, http.MethodPost, "/api/v1/buyer/orders/"+orderID+"/pay", buyerToken, nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "paid", dataOf(t, envelope)["payment_status"])

	// Farmer walks the order through the state machine
	for _, step := range []map[string]interface{}{
		{"status": "confirmed"},
		{"status": "shipped", "tracking_number": "TRK-42"},
		{"status": "delivered"},
	} {
		status, envelope = doJSON(t, app, http.MethodPatch, "/api/v1/farmer/orders/"+orderID+"/status", farmerToken, step, nil)
		require.Equal(t, http.StatusOK, status, "transition %v", step)
	}
	assert.Equal(t, "delivered", dataOf(t, envelope)["status"])

	// An illegal transition is rejected
	status, _ = doJSON(t, app, http.MethodPatch, "/api/v1/farmer/orders/"+orderID+"/status", farmerToken, map[string]interface{}{
		"status": "cancelled",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	// The delivered order backs a verified review
	status, envelope = doJSON(t, app, http.MethodPost, "/api/v1/buyer/reviews", buyerToken, map[string]interface{}{
		"product_id": productID,
		"order_id":   orderID,
		"rating":     5,
		"comment":    "Best tomatoes all summer.",
	}, nil)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, true, dataOf(t, envelope)["verified"])

	// Reviewing the same product again conflicts
	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/buyer/reviews", buyerToken, map[string]interface{}{
		"product_id": productID,
		"rating":     4,
	}, nil)
	assert.Equal(t, http.StatusConflict, status)

	// The public review endpoint aggregates on read
	status, envelope = doJSON(t, app, http.MethodGet, "/api/v1/buyer/products/"+productID+"/reviews", "", nil, nil)
	require.Equal(t, http.StatusOK, status)
	rating := dataOf(t, envelope)["rating"].(map[string]interface{})
	assert.Equal(t, "5.00", rating["average"])
	assert.Equal(t, float64(1), rating["review_count"])

	// The buyer got status notifications along the way
	status, envelope = doJSON(t, app, http.MethodGet, "/api/v1/buyer/notifications", buyerToken, nil, nil)
	require.Equal(t, http.StatusOK, status)
	notifications := dataOf(t, envelope)["items"].([]interface{})
	assert.NotEmpty(t, notifications)
}

func TestCartBuyAgainAfterCheckout(t *testing.T) {
	app, _ := setupApp(t, "buyagain")
	farmerToken := registerAndLogin(t, app, "greenacres", "farmer")
	buyerToken := registerAndLogin(t, app, "gardenlover", "buyer")

	productID := createProduct(t, app, farmerToken, "Heirloom Tomatoes", "4.99", 10)

	addToCart := func() (int, map[string]interface{}) {
		return doJSON(t, app, http.MethodPost, "/api/v1/buyer/cart", buyerToken, map[string]interface{}{
			"product_id": productID,
			"quantity":   2,
		}, nil)
	}

	status, _ := addToCart()
	require.Equal(t, http.StatusCreated, status)
	status, _ = doJSON(t, app, http.MethodPost, "/api/v1/buyer/checkout", buyerToken, map[string]interface{}{
		"delivery_address": "12 Orchard Lane",
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	// Checkout cleared the line; the buyer can put the same product straight
	// back into the cart
	status, _ = addToCart()
	require.Equal(t, http.StatusCreated, status)

	status, envelope := doJSON(t, app, http.MethodGet, "/api/v1/buyer/cart", buyerToken, nil, nil)
	require.Equal(t, http.StatusOK, status)
	lines := dataOf(t, envelope)["lines"].([]interface{})
	require.Len(t, lines, 1)
	item := lines[0].(map[string]interface{})["item"].(map[string]interface{})
	assert.Equal(t, float64(2), item["quantity"])

	// Same story after an explicit removal
	status, _ = doJSON(t, app, http.MethodDelete, "/api/v1/buyer/cart/"+productID, buyerToken, nil, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = addToCart()
	require.Equal(t, http.StatusCreated, status)

	status, envelope = doJSON(t, app, http.MethodGet, "/api/v1/buyer/cart", buyerToken, nil, nil)
	require.Equal(t, http.StatusOK, status)
	lines = dataOf(t, envelope)["lines"].([]interface{})
	require.Len(t, lines, 1)
}

func TestCheckoutInsufficientStockOverHTTP(t *testing.T) {
	app, _ := setupApp(t, "stockflow")
	farmerToken := registerAndLogin(t, app, "greenacres", "farmer")
	buyerToken := registerAndLogin(t, app, "gardenlover", "buyer")

	productID := createProduct(t, app, farmerToken, "Raw Honey", "5.99", 1)

	status, _ := doJSON(t, app, http.MethodPost, "/api/v1/buyer/cart", buyerToken, map[string]interface{}{
		"product_id": productID,
		"quantity":   1,
	}, nil)
	require.Equal(t, http.StatusCreated, status)

	// The farmer sells out before checkout
	status, _ = doJSON(t, app, http.MethodPut, "/api/v1/farmer/products/"+productID, farmerToken, map[string]interface{}{
		"name":     "Raw Honey",
		"category": "vegetables",
		"price":    "5.99",
		"stock":    0,
	}, nil)
	require.Equal(t, http.StatusOK, status)

	status, envelope := doJSON(t, app, http.MethodPost, "/api/v1/buyer/checkout", buyerToken, map[string]interface{}{
		"delivery_address": "12 Orchard Lane",
	}, nil)
	assert.Equal(t, http.StatusMultiStatus, status)
	assert.Equal(t, false, envelope["success"])
	failed := dataOf(t, envelope)["failed"].([]interface{})
	require.Len(t, failed, 1)

	// The cart still holds the failed line
	status, envelope = doJSON(t, app, http.MethodGet, "/api/v1/buyer/cart", buyerToken, nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, dataOf(t, envelope)["lines"].([]interface{}), 1)
}

func TestEmptyCartCheckout(t *testing.T) {
	app, _ := setupApp(t, "emptycart")
	buyerToken := registerAndLogin(t, app, "gardenlover", "buyer")

	status, envelope := doJSON(t, app, http.MethodPost, "/api/v1/buyer/checkout", buyerToken, map[string]interface{}{
		"delivery_address": "12 Orchard Lane",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, envelope["error"], "cart is empty")
}

func TestAdminSurface(t *testing.T) {
	app, db := setupApp(t, "adminflow")
	farmerToken := registerAndLogin(t, app, "greenacres", "farmer")
	buyerToken := registerAndLogin(t, app, "gardenlover", "buyer")
	adminToken := seedAdmin(t, app, db)

	productID := createProduct(t, app, farmerToken, "Heirloom Tomatoes", "4.99", 10)
	status, _ := doJSON(t, app, http.MethodPost, "/api/v1/buyer/cart", buyerToken, map[string]interface{}{
		"product_id": productID,
		"quantity":   2,
	}, nil)
	require.Equal(t, http.StatusCreated, status)
	status, envelope := doJSON(t, app, http.MethodPost, "/api/v1/buyer/checkout", buyerToken, map[string]interface{}{
		"delivery_address": "12 Orchard Lane",
	}, nil)
	require.Equal(t, http.StatusCreated, status)
	orderID := dataOf(t, envelope)["orders"].([]interface{})[0].(map[string]interface{})["id"].(string)

	// Analytics over the order just placed
	status, envelope = doJSON(t, app, http.MethodGet, "/api/v1/admin/analytics?period=week&type=revenue", adminToken, nil, nil)
	require.Equal(t, http.StatusOK, status)
	report := dataOf(t, envelope)
	assert.Equal(t, float64(1), report["total_orders"])
	assert.Equal(t, "9.98", report["total_revenue"])
	assert.Len(t, report["buckets"].([]interface{}), 7)

	// Admin can list every order and user
	status, envelope = doJSON(t, app, http.MethodGet, "/api/v1/admin/orders", adminToken, nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), dataOf(t, envelope)["total"])

	status, envelope = doJSON(t, app, http.MethodGet, "/api/v1/admin/users", adminToken, nil, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(3), dataOf(t, envelope)["total"])

	// Buyer raises a dispute; admin resolves it
	status, envelope = doJSON(t, app, http.MethodPost, "/api/v1/buyer/disputes", buyerToken, map[string]interface{}{
		"order_id": orderID,
		"reason":   "Half the crate arrived bruised",
	}, nil)
	require.Equal(t, http.StatusCreated, status)
	disputeID := dataOf(t, envelope)["id"].(string)

	status, envelope = doJSON(t, app, http.MethodPatch, "/api/v1/admin/disputes/"+disputeID, adminToken, map[string]interface{}{
		"status":     "resolved",
		"resolution": "Refund issued for the damaged items",
	}, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "resolved", dataOf(t, envelope)["status"])

	// An admin can also drive the order state machine
	status, _ = doJSON(t, app, http.MethodPatch, "/api/v1/admin/orders/"+orderID+"/status", adminToken, map[string]interface{}{
		"status": "confirmed",
	}, nil)
	assert.Equal(t, http.StatusOK, status)
}
