package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront/internal/handlers"
	"storefront/internal/middleware"
	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	app   *fiber.App
	db    *gorm.DB
	users repositories.UserRepository
	creds *services.CredentialStore
}

// setupApp wires the full stack against a fresh in-memory SQLite database.
func setupApp() (*testEnv, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to in-memory database: %w", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to auto-migrate database: %w", err)
	}

	userRepo := repositories.NewGORMUserRepository(db)
	productRepo := repositories.NewGORMProductRepository(db)
	cartRepo := repositories.NewGORMCartRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	log := zap.NewNop()
	creds := services.NewCredentialStore(bcrypt.MinCost)
	tokens := services.NewTokenService("test_jwt_secret", 30*time.Minute)
	authService := services.NewAuthService(userRepo, creds, tokens, log)
	productService := services.NewProductService(productRepo)
	cartService := services.NewCartService(cartRepo, productRepo)
	orderService := services.NewOrderService(orderRepo, productRepo, userRepo, nil, log)

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")

	authHandler.RegisterRoutes(apiV1)
	productHandler.RegisterPublicRoutes(apiV1)

	protected := apiV1.Group("", middleware.AuthRequired(authService))
	productHandler.RegisterProtectedRoutes(protected)
	userHandler.RegisterRoutes(protected)
	cartHandler.RegisterRoutes(protected)
	orderHandler.RegisterRoutes(protected)

	return &testEnv{app: app, db: db, users: userRepo, creds: creds}, nil
}

// doJSON performs a request with an optional bearer token and JSON body.
func (e *testEnv) doJSON(t *testing.T, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		assert.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	assert.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	resp.Body.Close()
}

// registerAndLogin creates a user through the API and returns its id and token.
func (e *testEnv) registerAndLogin(t *testing.T, username string) (string, string) {
	t.Helper()
	resp := e.doJSON(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username":   username,
		"first_name": "Test",
		"last_name":  "User",
		"email":      username + "@example.com",
		"password":   "password123",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var registerResp struct {
		User models.User `json:"user"`
	}
	decodeBody(t, resp, &registerResp)

	resp = e.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var loginResp map[string]string
	decodeBody(t, resp, &loginResp)
	assert.NotEmpty(t, loginResp["access_token"])
	assert.Equal(t, "bearer", loginResp["token_type"])

	return registerResp.User.ID, loginResp["access_token"]
}

// seedAdmin inserts an admin directly; registration never grants the flag.
func (e *testEnv) seedAdmin(t *testing.T, username string) string {
	t.Helper()
	digest, err := e.creds.Hash("adminpass")
	assert.NoError(t, err)
	admin := &models.User{
		Username:     username,
		FirstName:    "Admin",
		LastName:     "User",
		Email:        username + "@example.com",
		PasswordHash: digest,
		IsAdmin:      true,
	}
	assert.NoError(t, e.users.Create(admin))

	resp := e.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": username,
		"password": "adminpass",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var loginResp map[string]string
	decodeBody(t, resp, &loginResp)
	return loginResp["access_token"]
}

func (e *testEnv) seedProduct(t *testing.T, name string, price float64) models.Product {
	t.Helper()
	product := models.Product{
		Name:        name,
		Description: "seeded for testing",
		Price:       decimal.NewFromFloat(price),
		InStock:     true,
	}
	repo := repositories.NewGORMProductRepository(e.db)
	assert.NoError(t, repo.Create(&product))
	return product
}

func TestAuthRegisterAndLogin(t *testing.T) {
	env, err := setupApp()
	assert.NoError(t, err)

	userBody := map[string]string{
		"username":   "testuser",
		"first_name": "Test",
		"last_name":  "User",
		"email":      "test@example.com",
		"password":   "password123",
	}
	resp := env.doJSON(t, http.MethodPost, "/api/v1/auth/register", "", userBody)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var registerResp struct {
		Message string      `json:"message"`
		User    models.User `json:"user"`
	}
	decodeBody(t, resp, &registerResp)
	assert.Equal(t, "User registered successfully", registerResp.Message)
	assert.NotEmpty(t, registerResp.User.ID)
	assert.False(t, registerResp.User.IsAdmin)

	// Registering the same username again conflicts.
	resp = env.doJSON(t, http.MethodPost, "/api/v1/auth/register", "", userBody)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// A caller can never register themselves as admin.
	adminAttempt := map[string]interface{}{
		"username":   "wannabe",
		"first_name": "Wannabe",
		"last_name":  "Admin",
		"email":      "wannabe@example.com",
		"password":   "password123",
		"is_admin":   true,
	}
	resp = env.doJSON(t, http.MethodPost, "/api/v1/auth/register", "", adminAttempt)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	decodeBody(t, resp, &registerResp)
	assert.False(t, registerResp.User.IsAdmin)

	resp = env.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "testuser",
		"password": "password123",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var loginResp map[string]string
	decodeBody(t, resp, &loginResp)
	assert.NotEmpty(t, loginResp["access_token"])
	assert.Equal(t, "bearer", loginResp["token_type"])

	// Wrong password and unknown user fail with the same status and body.
	resp = env.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "testuser",
		"password": "wrongpassword",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var wrongPass map[string]string
	decodeBody(t, resp, &wrongPass)

	resp = env.doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"username": "nosuchuser",
		"password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var unknownUser map[string]string
	decodeBody(t, resp, &unknownUser)
	assert.Equal(t, wrongPass["message"], unknownUser["message"])
}

func TestCartOwnershipAndConsistency(t *testing.T) {
	env, err := setupApp()
	assert.NoError(t, err)

	product1 := env.seedProduct(t, "Keyboard", 49.99)
	product2 := env.seedProduct(t, "Mouse", 19.99)
	product3 := env.seedProduct(t, "Monitor", 199.99)

	aliceID, aliceToken := env.registerAndLogin(t, "alice")
	_, bobToken := env.registerAndLogin(t, "bob")

	// A cart referencing a nonexistent product is rejected outright and
	// nothing is persisted, not even the valid items.
	resp := env.doJSON(t, http.MethodPost, "/api/v1/carts", aliceToken, map[string]interface{}{
		"user_id": aliceID,
		"items": []map[string]interface{}{
			{"product_id": product1.ID, "quantity": 1},
			{"product_id": uuid.New().String(), "quantity": 2},
		},
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	var cartCount, itemCount int64
	env.db.Model(&models.Cart{}).Count(&cartCount)
	env.db.Model(&models.CartItem{}).Count(&itemCount)
	assert.Equal(t, int64(0), cartCount)
	assert.Equal(t, int64(0), itemCount)

	// Valid creation with two items.
	resp = env.doJSON(t, http.MethodPost, "/api/v1/carts", aliceToken, map[string]interface{}{
		"user_id": aliceID,
		"items": []map[string]interface{}{
			{"product_id": product1.ID, "quantity": 1},
			{"product_id": product2.ID, "quantity": 2},
		},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var cart models.Cart
	decodeBody(t, resp, &cart)
	assert.Equal(t, aliceID, cart.UserID)
	assert.Len(t, cart.Items, 2)

	// A second cart for the same user conflicts.
	resp = env.doJSON(t, http.MethodPost, "/api/v1/carts", aliceToken, map[string]interface{}{
		"user_id": aliceID,
		"items": []map[string]interface{}{
			{"product_id": product1.ID, "quantity": 1},
		},
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// The owner reads the cart; another user reading it gets not-found,
	// indistinguishable from the cart not existing.
	resp = env.doJSON(t, http.MethodGet, "/api/v1/carts", aliceToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.doJSON(t, http.MethodGet, "/api/v1/carts?user_id="+aliceID, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Same masking on item mutations from a non-owner.
	resp = env.doJSON(t, http.MethodPut, "/api/v1/carts/"+cart.ID+"/items/"+cart.Items[0].ID, bobToken, map[string]interface{}{
		"quantity": 99,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = env.doJSON(t, http.MethodDelete, "/api/v1/carts/"+cart.ID, bobToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// The owner appends a third item, updates a quantity, removes one.
	resp = env.doJSON(t, http.MethodPost, "/api/v1/carts/"+cart.ID+"/items", aliceToken, map[string]interface{}{
		"product_id": product3.ID,
		"quantity":   1,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = env.doJSON(t, http.MethodPut, "/api/v1/carts/"+cart.ID+"/items/"+cart.Items[0].ID, aliceToken, map[string]interface{}{
		"quantity": 5,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var updated models.Cart
	decodeBody(t, resp, &updated)
	assert.Len(t, updated.Items, 3)

	// Zero quantity is rejected, not treated as removal.
	resp = env.doJSON(t, http.MethodPut, "/api/v1/carts/"+cart.ID+"/items/"+cart.Items[0].ID, aliceToken, map[string]interface{}{
		"quantity": 0,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = env.doJSON(t, http.MethodDelete, "/api/v1/carts/"+cart.ID+"/items/"+cart.Items[1].ID, aliceToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Deleting the cart removes every remaining item in the same sweep.
	resp = env.doJSON(t, http.MethodDelete, "/api/v1/carts/"+cart.ID, aliceToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	env.db.Model(&models.Cart{}).Count(&cartCount)
	env.db.Model(&models.CartItem{}).Count(&itemCount)
	assert.Equal(t, int64(0), cartCount)
	assert.Equal(t, int64(0), itemCount)
}

func TestOrderWorkflow(t *testing.T) {
	env, err := setupApp()
	assert.NoError(t, err)

	product := env.seedProduct(t, "Laptop", 999.99)
	aliceID, aliceToken := env.registerAndLogin(t, "alice")
	_, bobToken := env.registerAndLogin(t, "bob")
	adminToken := env.seedAdmin(t, "root")

	// An order referencing a nonexistent product never persists.
	resp := env.doJSON(t, http.MethodPost, "/api/v1/orders", aliceToken, map[string]interface{}{
		"user_id":     aliceID,
		"total_price": 999.99,
		"items": []map[string]interface{}{
			{"product_id": uuid.New().String(), "quantity": 1},
		},
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	var orderCount int64
	env.db.Model(&models.Order{}).Count(&orderCount)
	assert.Equal(t, int64(0), orderCount)

	// Valid creation defaults to pending.
	resp = env.doJSON(t, http.MethodPost, "/api/v1/orders", aliceToken, map[string]interface{}{
		"user_id":     aliceID,
		"total_price": 1999.98,
		"items": []map[string]interface{}{
			{"product_id": product.ID, "quantity": 2},
		},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var order models.Order
	decodeBody(t, resp, &order)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.True(t, order.TotalPrice.Equal(decimal.NewFromFloat(1999.98)))

	// The owner and an admin can read it; a third user gets an explicit 403.
	resp = env.doJSON(t, http.MethodGet, "/api/v1/orders/"+order.ID, aliceToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.doJSON(t, http.MethodGet, "/api/v1/orders/"+order.ID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = env.doJSON(t, http.MethodGet, "/api/v1/orders/"+order.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Listing is admin only.
	resp = env.doJSON(t, http.MethodGet, "/api/v1/orders", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = env.doJSON(t, http.MethodGet, "/api/v1/orders", adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var orders []models.Order
	decodeBody(t, resp, &orders)
	assert.Len(t, orders, 1)

	// Only the owner may cancel, and only once.
	resp = env.doJSON(t, http.MethodPost, "/api/v1/orders/"+order.ID+"/cancel", bobToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = env.doJSON(t, http.MethodPost, "/api/v1/orders/"+order.ID+"/cancel", aliceToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var cancelled models.Order
	decodeBody(t, resp, &cancelled)
	assert.Equal(t, models.OrderStatusCancelled, cancelled.Status)

	resp = env.doJSON(t, http.MethodPost, "/api/v1/orders/"+order.ID+"/cancel", aliceToken, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	// Admin partial update touches only the provided field.
	resp = env.doJSON(t, http.MethodPut, "/api/v1/orders/"+order.ID, aliceToken, map[string]interface{}{
		"status": models.OrderStatusFulfilled,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = env.doJSON(t, http.MethodPut, "/api/v1/orders/"+order.ID, adminToken, map[string]interface{}{
		"status": models.OrderStatusFulfilled,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var fulfilled models.Order
	decodeBody(t, resp, &fulfilled)
	assert.Equal(t, models.OrderStatusFulfilled, fulfilled.Status)
	assert.True(t, fulfilled.TotalPrice.Equal(decimal.NewFromFloat(1999.98)))

	// Deletion is admin only and removes the item rows too.
	resp = env.doJSON(t, http.MethodDelete, "/api/v1/orders/"+order.ID, aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = env.doJSON(t, http.MethodDelete, "/api/v1/orders/"+order.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	var orderItemCount int64
	env.db.Model(&models.Order{}).Count(&orderCount)
	env.db.Model(&models.OrderItem{}).Count(&orderItemCount)
	assert.Equal(t, int64(0), orderCount)
	assert.Equal(t, int64(0), orderItemCount)
}

func TestUserAdministration(t *testing.T) {
	env, err := setupApp()
	assert.NoError(t, err)

	aliceID, aliceToken := env.registerAndLogin(t, "alice")
	bobID, bobToken := env.registerAndLogin(t, "bob")
	adminToken := env.seedAdmin(t, "root")

	// Listing users is admin only.
	resp := env.doJSON(t, http.MethodGet, "/api/v1/users", aliceToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = env.doJSON(t, http.MethodGet, "/api/v1/users", adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var users []models.User
	decodeBody(t, resp, &users)
	assert.Len(t, users, 3)

	// A user may edit their own profile but not someone else's.
	resp = env.doJSON(t, http.MethodPatch, "/api/v1/users/"+aliceID, aliceToken, map[string]string{
		"first_name": "Alicia",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var updatedUser models.User
	decodeBody(t, resp, &updatedUser)
	assert.Equal(t, "Alicia", updatedUser.FirstName)
	assert.Equal(t, "User", updatedUser.LastName)

	resp = env.doJSON(t, http.MethodPatch, "/api/v1/users/"+bobID, aliceToken, map[string]string{
		"first_name": "Hijacked",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// Only an admin may grant the admin flag.
	resp = env.doJSON(t, http.MethodPatch, "/api/v1/users/"+bobID+"/admin", bobToken, map[string]bool{
		"is_admin": true,
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	resp = env.doJSON(t, http.MethodPatch, "/api/v1/users/"+bobID+"/admin", adminToken, map[string]bool{
		"is_admin": true,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	decodeBody(t, resp, &updatedUser)
	assert.True(t, updatedUser.IsAdmin)
}

func TestProductVisibility(t *testing.T) {
	env, err := setupApp()
	assert.NoError(t, err)

	seeded := env.seedProduct(t, "Webcam", 59.99)
	_, token := env.registerAndLogin(t, "alice")

	// Product reads are public.
	resp := env.doJSON(t, http.MethodGet, "/api/v1/products", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var products []models.Product
	decodeBody(t, resp, &products)
	assert.Len(t, products, 1)

	resp = env.doJSON(t, http.MethodGet, "/api/v1/products/"+seeded.ID, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.doJSON(t, http.MethodGet, "/api/v1/products/"+uuid.New().String(), "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	// Mutations require a token.
	newProduct := map[string]interface{}{
		"name":        "Headset",
		"description": "Noise cancelling",
		"price":       89.99,
		"in_stock":    true,
	}
	resp = env.doJSON(t, http.MethodPost, "/api/v1/products", "", newProduct)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	resp = env.doJSON(t, http.MethodPost, "/api/v1/products", token, newProduct)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	var created models.Product
	decodeBody(t, resp, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Headset", created.Name)

	resp = env.doJSON(t, http.MethodDelete, "/api/v1/products/"+created.ID, token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.doJSON(t, http.MethodGet, "/api/v1/products/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestProtectedRoutesRejectBadTokens(t *testing.T) {
	env, err := setupApp()
	assert.NoError(t, err)

	// No token at all.
	resp := env.doJSON(t, http.MethodGet, "/api/v1/carts", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Garbage token.
	resp = env.doJSON(t, http.MethodGet, "/api/v1/carts", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	// Token signed with the wrong secret.
	otherTokens := services.NewTokenService("another_secret", 30*time.Minute)
	forged, err := otherTokens.Issue("alice")
	assert.NoError(t, err)
	resp = env.doJSON(t, http.MethodGet, "/api/v1/carts", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()
}
