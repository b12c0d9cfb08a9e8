package web

import (
	"encoding/gob"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"

	"catalogo/db"
	"catalogo/internal/catalog"
	"catalogo/internal/users"
	"catalogo/models"
)

const sessionName = "catalogo-session"

type contextKey string

const userIDKey contextKey = "user_id"

// Flash is a transient notice carried across one redirect
type Flash struct {
	Category string
	Message  string
}

func init() {
	gob.Register(Flash{})
}

type WebHandler struct {
	catalogService *catalog.CatalogService
	userService    *users.UserService
	templates      *template.Template
	sessionStore   *sessions.CookieStore
}

// PageData is the template payload shared by every page
type PageData struct {
	Page     string
	User     *models.User
	Flashes  []Flash
	Products []*models.Product
	Product  *models.Product
	Results  []*models.Product
	Stats    *models.CatalogStats
	OrderBy  string
	Form     map[string]string
}

func NewWebHandler(
	catalogService *catalog.CatalogService,
	userService *users.UserService,
	templatesDir string,
	sessionSecret string,
) *WebHandler {
	funcMap := template.FuncMap{
		"formatPrice": func(price float64) string {
			return fmt.Sprintf("%.2f", price)
		},
	}

	tmpl, err := template.New("").Funcs(funcMap).ParseGlob(filepath.Join(templatesDir, "*.html"))
	if err != nil {
		panic(fmt.Sprintf("Failed to parse templates: %v", err))
	}

	store := sessions.NewCookieStore([]byte(sessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30, // 30 days
		HttpOnly: true,
		Secure:   false, // Set to false for HTTP (localhost development)
		SameSite: http.SameSiteStrictMode,
	}

	return &WebHandler{
		catalogService: catalogService,
		userService:    userService,
		templates:      tmpl,
		sessionStore:   store,
	}
}

// Page Handlers

// Home routes to the catalog when signed in, the login form otherwise
func (h *WebHandler) Home(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionStore.Get(r, sessionName)
	if _, ok := sessionUserID(session); ok {
		http.Redirect(w, r, "/index", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *WebHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render(w, r, "login.html", PageData{Page: "login"})
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")

	user, err := h.userService.Authenticate(r.Context(), username, password)
	if err != nil {
		log.Printf("Login: authentication error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if user == nil {
		// Never disclose which of the two fields was wrong
		h.flash(w, r, "danger", "Invalid credentials. Please try again.")
		h.render(w, r, "login.html", PageData{Page: "login", Form: map[string]string{"username": username}})
		return
	}

	session, _ := h.sessionStore.Get(r, sessionName)
	session.Values["user_id"] = user.ID
	session.Save(r, w)

	// Resume at the originally requested target, if any
	if next := r.URL.Query().Get("next"); isLocalPath(next) {
		http.Redirect(w, r, next, http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/index", http.StatusSeeOther)
}

func (h *WebHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, _ := h.sessionStore.Get(r, sessionName)
	session.Values = make(map[interface{}]interface{})
	session.Save(r, w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *WebHandler) Index(w http.ResponseWriter, r *http.Request) {
	orderBy := r.URL.Query().Get("order_by")
	if orderBy == "" {
		orderBy = "id"
	}

	products, err := h.catalogService.List(r.Context(), orderBy)
	if err != nil {
		log.Printf("Index: error listing products: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "index.html", PageData{
		Page:     "index",
		User:     h.currentUser(r),
		Products: products,
		OrderBy:  orderBy,
	})
}

func (h *WebHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render(w, r, "add_product.html", PageData{Page: "add", User: h.currentUser(r)})
		return
	}

	name, price, description, ok := h.productForm(w, r, "add_product.html", "add")
	if !ok {
		return
	}

	if _, err := h.catalogService.Create(r.Context(), name, price, description); err != nil {
		log.Printf("AddProduct: error creating product: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.flash(w, r, "success", "Product added successfully!")
	http.Redirect(w, r, "/index", http.StatusSeeOther)
}

func (h *WebHandler) EditProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if r.Method == http.MethodGet {
		product, err := h.catalogService.Get(r.Context(), id)
		if err != nil {
			h.productError(w, r, err, "EditProduct")
			return
		}
		h.render(w, r, "edit_product.html", PageData{Page: "edit", User: h.currentUser(r), Product: product})
		return
	}

	name, price, description, ok := h.productForm(w, r, "edit_product.html", "edit")
	if !ok {
		return
	}

	if _, err := h.catalogService.Update(r.Context(), id, name, price, description); err != nil {
		h.productError(w, r, err, "EditProduct")
		return
	}

	h.flash(w, r, "success", "Product updated successfully!")
	http.Redirect(w, r, "/index", http.StatusSeeOther)
}

// DeleteProduct is idempotent: deleting a nonexistent id is a silent no-op
func (h *WebHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	if err := h.catalogService.Delete(r.Context(), id); err != nil {
		log.Printf("DeleteProduct: error deleting product %d: %v", id, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.flash(w, r, "success", "Product deleted successfully!")
	http.Redirect(w, r, "/index", http.StatusSeeOther)
}

func (h *WebHandler) ViewProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	product, err := h.catalogService.Get(r.Context(), id)
	if err != nil {
		h.productError(w, r, err, "ViewProduct")
		return
	}

	h.render(w, r, "view_product.html", PageData{Page: "view", User: h.currentUser(r), Product: product})
}

func (h *WebHandler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	data := PageData{Page: "search", User: h.currentUser(r)}

	if r.Method == http.MethodGet {
		h.render(w, r, "search_product.html", data)
		return
	}

	filter := db.ProductFilter{}
	form := map[string]string{
		"query":     strings.TrimSpace(r.FormValue("query")),
		"min_price": strings.TrimSpace(r.FormValue("min_price")),
		"max_price": strings.TrimSpace(r.FormValue("max_price")),
	}
	data.Form = form

	if form["query"] != "" {
		q := form["query"]
		filter.NameContains = &q
	}
	for field, dest := range map[string]**float64{
		"min_price": &filter.MinPrice,
		"max_price": &filter.MaxPrice,
	} {
		if form[field] == "" {
			continue
		}
		value, err := strconv.ParseFloat(form[field], 64)
		if err != nil {
			h.flash(w, r, "danger", "Price bounds must be numeric.")
			h.render(w, r, "search_product.html", data)
			return
		}
		*dest = &value
	}

	results, err := h.catalogService.Search(r.Context(), filter)
	if err != nil {
		log.Printf("SearchProducts: error searching products: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if len(results) == 0 {
		// A valid outcome, surfaced as a notice rather than an error
		h.flash(w, r, "warning", "No products found matching your criteria.")
	}

	data.Results = results
	h.render(w, r, "search_product.html", data)
}

// AddUser provisions a new account; the router only routes admins here
func (h *WebHandler) AddUser(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.render(w, r, "add_user.html", PageData{Page: "add_user", User: h.currentUser(r)})
		return
	}

	username := r.FormValue("username")
	password := r.FormValue("password")
	if username == "" || password == "" {
		h.flash(w, r, "danger", "Username and password are required.")
		h.render(w, r, "add_user.html", PageData{Page: "add_user", User: h.currentUser(r)})
		return
	}

	if _, err := h.userService.Create(r.Context(), username, password); err != nil {
		// Duplicate usernames violate the store's UNIQUE constraint;
		// surface a generic failure without internal detail
		log.Printf("AddUser: error creating user: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.flash(w, r, "success", "User added successfully.")
	http.Redirect(w, r, "/index", http.StatusSeeOther)
}

func (h *WebHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.catalogService.Stats(r.Context())
	if err != nil {
		log.Printf("Stats: error computing catalog stats: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	h.render(w, r, "stats.html", PageData{Page: "stats", User: h.currentUser(r), Stats: stats})
}

// Helper methods

// productForm parses and validates the shared add/edit form. On invalid
// input it flashes, re-renders the form and returns ok=false.
func (h *WebHandler) productForm(w http.ResponseWriter, r *http.Request, tmplName, page string) (name string, price float64, description *string, ok bool) {
	name = strings.TrimSpace(r.FormValue("name"))
	priceRaw := strings.TrimSpace(r.FormValue("price"))

	data := PageData{
		Page: page,
		User: h.currentUser(r),
		Form: map[string]string{
			"name":        name,
			"price":       priceRaw,
			"description": r.FormValue("description"),
		},
	}

	if name == "" {
		h.flash(w, r, "danger", "Product name must not be empty.")
		h.render(w, r, tmplName, data)
		return "", 0, nil, false
	}

	price, err := strconv.ParseFloat(priceRaw, 64)
	if err != nil {
		h.flash(w, r, "danger", "Price must be a number.")
		h.render(w, r, tmplName, data)
		return "", 0, nil, false
	}
	if price <= 0 {
		h.flash(w, r, "danger", "Price must be greater than zero.")
		h.render(w, r, tmplName, data)
		return "", 0, nil, false
	}

	if d := r.FormValue("description"); d != "" {
		description = &d
	}
	return name, price, description, true
}

// productError maps db.ErrNotFound to a visible not-found notice and
// everything else to a generic failure
func (h *WebHandler) productError(w http.ResponseWriter, r *http.Request, err error, where string) {
	if err == db.ErrNotFound {
		h.flash(w, r, "warning", "Product not found.")
		http.Redirect(w, r, "/index", http.StatusSeeOther)
		return
	}
	log.Printf("%s: %v", where, err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func (h *WebHandler) render(w http.ResponseWriter, r *http.Request, name string, data PageData) {
	session, _ := h.sessionStore.Get(r, sessionName)
	for _, raw := range session.Flashes() {
		if f, ok := raw.(Flash); ok {
			data.Flashes = append(data.Flashes, f)
		}
	}
	session.Save(r, w)

	if err := h.templates.ExecuteTemplate(w, name, data); err != nil {
		log.Printf("Template execution error for %s: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *WebHandler) flash(w http.ResponseWriter, r *http.Request, category, message string) {
	session, _ := h.sessionStore.Get(r, sessionName)
	session.AddFlash(Flash{Category: category, Message: message})
	session.Save(r, w)
}

// currentUser lazily resolves the session identity to a full User record
func (h *WebHandler) currentUser(r *http.Request) *models.User {
	id, ok := r.Context().Value(userIDKey).(int64)
	if !ok {
		return nil
	}
	user, err := h.userService.FindByID(r.Context(), id)
	if err != nil {
		return nil
	}
	return user
}

func sessionUserID(session *sessions.Session) (int64, bool) {
	id, ok := session.Values["user_id"].(int64)
	return id, ok
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
}

// isLocalPath accepts only same-site redirect targets
func isLocalPath(target string) bool {
	return strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//")
}
