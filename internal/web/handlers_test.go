package web_test

import (
	"context"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalogo/db"
	"catalogo/internal/catalog"
	"catalogo/internal/users"
	"catalogo/internal/web"
	"catalogo/tests/testutils"
)

type testApp struct {
	*testutils.TestServer
	catalogService *catalog.CatalogService
	userService    *users.UserService
}

func newTestApp(t *testing.T) *testApp {
	catalogService, userService, cleanup := testutils.SetupTestServices(t)
	t.Cleanup(cleanup)

	require.NoError(t, userService.EnsureAdmin(context.Background(), "admin", "admin123"))

	handler := web.NewWebHandler(catalogService, userService, "../../templates", "test-session-secret")
	server := testutils.NewTestServer(t, handler.SetupRoutes())

	return &testApp{
		TestServer:     server,
		catalogService: catalogService,
		userService:    userService,
	}
}

func TestAnonymousCallerIsRedirectedAndResumes(t *testing.T) {
	app := newTestApp(t)

	// Anonymous request for a protected page lands on the login form with
	// the original target preserved
	resp := app.GETNoRedirect("/stats")
	testutils.ReadBody(t, resp)
	require.Equal(t, 303, resp.StatusCode)
	assert.Equal(t, "/login?next=%2Fstats", resp.Header.Get("Location"))

	// Signing in through that form resumes at /stats, not the index
	resp = app.PostForm("/login?next=%2Fstats", url.Values{
		"username": {"admin"},
		"password": {"admin123"},
	})
	body := testutils.ReadBody(t, resp)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, body, "Catalog statistics")
}

func TestLoginRejectsInvalidCredentials(t *testing.T) {
	app := newTestApp(t)

	tests := []url.Values{
		{"username": {"admin"}, "password": {"wrong"}},
		{"username": {"nobody"}, "password": {"admin123"}},
	}

	for _, form := range tests {
		resp := app.PostForm("/login", form)
		body := testutils.ReadBody(t, resp)
		// Same message either way; nothing discloses which field was wrong
		assert.Contains(t, body, "Invalid credentials")
		assert.NotContains(t, body, "Product catalog")
	}
}

func TestLogoutClearsSession(t *testing.T) {
	app := newTestApp(t)
	app.Login("admin", "admin123")

	resp := app.GET("/logout")
	body := testutils.ReadBody(t, resp)
	assert.Contains(t, body, "Sign in")

	resp = app.GETNoRedirect("/index")
	testutils.ReadBody(t, resp)
	assert.Equal(t, 303, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "/login")
}

func TestIndexOrdering(t *testing.T) {
	app := newTestApp(t)
	app.Login("admin", "admin123")

	testutils.CreateTestProduct(t, app.catalogService, "Zebra", 10, "")
	testutils.CreateTestProduct(t, app.catalogService, "Apple", 30, "")
	testutils.CreateTestProduct(t, app.catalogService, "Mango", 20, "")

	assertOrder := func(body string, names ...string) {
		t.Helper()
		last := -1
		for _, name := range names {
			pos := strings.Index(body, name)
			require.GreaterOrEqual(t, pos, 0, "missing %q", name)
			assert.Greater(t, pos, last, "%q out of order", name)
			last = pos
		}
	}

	body := testutils.ReadBody(t, app.GET("/index"))
	assertOrder(body, "Zebra", "Apple", "Mango")

	body = testutils.ReadBody(t, app.GET("/index?order_by=name"))
	assertOrder(body, "Apple", "Mango", "Zebra")

	body = testutils.ReadBody(t, app.GET("/index?order_by=price"))
	assertOrder(body, "Zebra", "Mango", "Apple")

	// Unrecognized order keys fall back to id without an error
	resp := app.GET("/index?order_by=bogus")
	body = testutils.ReadBody(t, resp)
	assert.Equal(t, 200, resp.StatusCode)
	assertOrder(body, "Zebra", "Apple", "Mango")
}

func TestProductLifecycleOverHTTP(t *testing.T) {
	app := newTestApp(t)
	app.Login("admin", "admin123")

	// Create
	resp := app.PostForm("/add", url.Values{
		"name":        {"Widget"},
		"price":       {"9.99"},
		"description": {"x"},
	})
	body := testutils.ReadBody(t, resp)
	assert.Contains(t, body, "Product added successfully!")
	assert.Contains(t, body, "Widget")

	// The fresh store assigned id 1
	body = testutils.ReadBody(t, app.GET("/view/1"))
	assert.Contains(t, body, "Widget")
	assert.Contains(t, body, "9.99")
	assert.Contains(t, body, ">x</dd>")

	// Edit replaces all fields, id is unchanged
	resp = app.PostForm("/edit/1", url.Values{
		"name":        {"Widget2"},
		"price":       {"19.99"},
		"description": {""},
	})
	body = testutils.ReadBody(t, resp)
	assert.Contains(t, body, "Product updated successfully!")

	body = testutils.ReadBody(t, app.GET("/view/1"))
	assert.Contains(t, body, "Widget2")
	assert.Contains(t, body, "19.99")

	// Delete, then view reports not found instead of crashing
	body = testutils.ReadBody(t, app.GET("/delete/1"))
	assert.Contains(t, body, "Product deleted successfully!")

	body = testutils.ReadBody(t, app.GET("/view/1"))
	assert.Contains(t, body, "Product not found.")
}

func TestDeleteOverHTTPIsIdempotent(t *testing.T) {
	app := newTestApp(t)
	app.Login("admin", "admin123")

	for i := 0; i < 2; i++ {
		resp := app.GET("/delete/123")
		body := testutils.ReadBody(t, resp)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Contains(t, body, "Product catalog")
	}
}

func TestAddProductValidation(t *testing.T) {
	app := newTestApp(t)
	app.Login("admin", "admin123")

	tests := []struct {
		form    url.Values
		message string
	}{
		{url.Values{"name": {""}, "price": {"10"}}, "Product name must not be empty."},
		{url.Values{"name": {"Widget"}, "price": {"abc"}}, "Price must be a number."},
		{url.Values{"name": {"Widget"}, "price": {"-5"}}, "Price must be greater than zero."},
		{url.Values{"name": {"Widget"}, "price": {"0"}}, "Price must be greater than zero."},
	}

	for _, tc := range tests {
		resp := app.PostForm("/add", tc.form)
		body := testutils.ReadBody(t, resp)
		assert.Contains(t, body, tc.message)
	}

	products, err := app.catalogService.List(context.Background(), "id")
	require.NoError(t, err)
	assert.Empty(t, products, "rejected submissions must not be committed")
}

func TestSearchOverHTTP(t *testing.T) {
	app := newTestApp(t)
	app.Login("admin", "admin123")

	testutils.CreateTestProduct(t, app.catalogService, "Widget small", 5, "")
	testutils.CreateTestProduct(t, app.catalogService, "Widget large", 25, "")
	testutils.CreateTestProduct(t, app.catalogService, "Gadget", 15, "")

	resp := app.PostForm("/search", url.Values{
		"query":     {"Widget"},
		"min_price": {"10"},
	})
	body := testutils.ReadBody(t, resp)
	assert.Contains(t, body, "Widget large")
	assert.NotContains(t, body, "Widget small")
	assert.NotContains(t, body, "Gadget")

	// An empty result is a notice, not an error
	resp = app.PostForm("/search", url.Values{"query": {"Nothing"}})
	body = testutils.ReadBody(t, resp)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Contains(t, body, "No products found matching your criteria.")

	// Non-numeric bounds are rejected at the boundary
	resp = app.PostForm("/search", url.Values{"min_price": {"cheap"}})
	body = testutils.ReadBody(t, resp)
	assert.Contains(t, body, "Price bounds must be numeric.")
}

func TestStatsPage(t *testing.T) {
	app := newTestApp(t)
	app.Login("admin", "admin123")

	body := testutils.ReadBody(t, app.GET("/stats"))
	assert.Contains(t, body, "The catalog is empty.")

	testutils.CreateTestProduct(t, app.catalogService, "Low", 100, "")
	testutils.CreateTestProduct(t, app.catalogService, "Mid", 200, "")
	testutils.CreateTestProduct(t, app.catalogService, "High", 300, "")

	body = testutils.ReadBody(t, app.GET("/stats"))
	assert.Contains(t, body, ">3</dd>")
	assert.Contains(t, body, "200.00")
	assert.Contains(t, body, "High (300.00)")
	assert.Contains(t, body, "Low (100.00)")
}

func TestAdminGate(t *testing.T) {
	app := newTestApp(t)

	_, err := app.userService.Create(context.Background(), "bob", "bobpass")
	require.NoError(t, err)

	// A non-admin posting the form ends up back at the catalog with a
	// warning and no row is created
	app.Login("bob", "bobpass")
	resp := app.PostForm("/admin/add_user", url.Values{
		"username": {"eve"},
		"password": {"evepass"},
	})
	body := testutils.ReadBody(t, resp)
	assert.Contains(t, body, "Access denied.")
	assert.Contains(t, body, "Product catalog")

	_, err = app.userService.FindByUsername(context.Background(), "eve")
	assert.ErrorIs(t, err, db.ErrNotFound)

	// The admin posting the same request creates exactly one hashed row
	app.GET("/logout")
	app.Login("admin", "admin123")
	resp = app.PostForm("/admin/add_user", url.Values{
		"username": {"eve"},
		"password": {"evepass"},
	})
	body = testutils.ReadBody(t, resp)
	assert.Contains(t, body, "User added successfully.")

	eve, err := app.userService.FindByUsername(context.Background(), "eve")
	require.NoError(t, err)
	assert.NotEqual(t, "evepass", eve.PasswordHash)
	assert.True(t, strings.HasPrefix(eve.PasswordHash, "pbkdf2:sha256:"))

	// The new account can sign in
	app.GET("/logout")
	resp = app.Login("eve", "evepass")
	body = testutils.ReadBody(t, resp)
	assert.Contains(t, body, "Product catalog")
}
