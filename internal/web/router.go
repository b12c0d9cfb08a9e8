package web

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gorilla/mux"
)

// SetupRoutes registers the HTTP surface. Authentication and the admin
// gate are explicit middleware composed per route at registration time,
// each with a single responsibility.
func (h *WebHandler) SetupRoutes() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", h.Home).Methods("GET")
	r.HandleFunc("/login", h.Login).Methods("GET", "POST")
	r.HandleFunc("/logout", h.requireAuth(h.Logout)).Methods("GET")

	r.HandleFunc("/index", h.requireAuth(h.Index)).Methods("GET")
	r.HandleFunc("/add", h.requireAuth(h.AddProduct)).Methods("GET", "POST")
	r.HandleFunc("/edit/{id:[0-9]+}", h.requireAuth(h.EditProduct)).Methods("GET", "POST")
	r.HandleFunc("/delete/{id:[0-9]+}", h.requireAuth(h.DeleteProduct)).Methods("GET", "POST")
	r.HandleFunc("/view/{id:[0-9]+}", h.requireAuth(h.ViewProduct)).Methods("GET")
	r.HandleFunc("/search", h.requireAuth(h.SearchProducts)).Methods("GET", "POST")
	r.HandleFunc("/stats", h.requireAuth(h.Stats)).Methods("GET")

	r.HandleFunc("/admin/add_user", h.requireAuth(h.requireAdmin(h.AddUser))).Methods("GET", "POST")

	r.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	return r
}

// requireAuth rejects anonymous callers, sending them to the login form
// with the originally requested target preserved so they resume where
// they left off after signing in.
func (h *WebHandler) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		session, _ := h.sessionStore.Get(r, sessionName)
		userID, ok := sessionUserID(session)
		if !ok {
			http.Redirect(w, r, "/login?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusSeeOther)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// requireAdmin resolves the session identity to its account and lets only
// the "admin" username through; everyone else is sent back to the catalog
// with a warning, not an error page.
func (h *WebHandler) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := h.currentUser(r)
		if user == nil || !user.IsAdmin() {
			h.flash(w, r, "danger", "Access denied.")
			http.Redirect(w, r, "/index", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	}
}
