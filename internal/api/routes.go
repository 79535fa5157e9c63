package api

import (
	"net/http"

	"github.com/dpup/bookstore/auth"
	"github.com/dpup/bookstore/authz"
	"github.com/dpup/bookstore/errors"
	"github.com/dpup/bookstore/store/catalog"
	"github.com/dpup/bookstore/store/orders"
	"github.com/dpup/bookstore/store/principals"
	"github.com/dpup/bookstore/store/reviews"
)

// Handlers bundles the guarded services behind HTTP routes.
type Handlers struct {
	Principals *principals.Service
	Catalog    *catalog.Service
	Orders     *orders.Service
	Reviews    *reviews.Service
}

// Register installs all routes on the mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/me", wrapJSONHandler(h.me))
	mux.HandleFunc("PATCH /api/me", wrapJSONHandler(h.updateMe))
	mux.HandleFunc("GET /api/principals", wrapJSONHandler(h.listPrincipals))
	mux.HandleFunc("GET /api/principals/{subject}", wrapJSONHandler(h.getPrincipal))
	mux.HandleFunc("PUT /api/principals/{subject}/role", wrapJSONHandler(h.setRole))
	mux.HandleFunc("PUT /api/principals/{subject}/blocked", wrapJSONHandler(h.setBlocked))

	mux.HandleFunc("GET /api/categories", wrapJSONHandler(h.listCategories))
	mux.HandleFunc("POST /api/categories", wrapJSONHandler(h.createCategory))
	mux.HandleFunc("GET /api/categories/{id}", wrapJSONHandler(h.getCategory))
	mux.HandleFunc("PUT /api/categories/{id}", wrapJSONHandler(h.updateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", wrapJSONHandler(h.deleteCategory))

	mux.HandleFunc("GET /api/books", wrapJSONHandler(h.listBooks))
	mux.HandleFunc("POST /api/books", wrapJSONHandler(h.createBook))
	mux.HandleFunc("GET /api/books/{id}", wrapJSONHandler(h.getBook))
	mux.HandleFunc("PUT /api/books/{id}", wrapJSONHandler(h.updateBook))
	mux.HandleFunc("DELETE /api/books/{id}", wrapJSONHandler(h.deleteBook))

	mux.HandleFunc("GET /api/books/{id}/reviews", wrapJSONHandler(h.listReviews))
	mux.HandleFunc("POST /api/books/{id}/reviews", wrapJSONHandler(h.createReview))
	mux.HandleFunc("PUT /api/books/{id}/reviews", wrapJSONHandler(h.updateReview))
	mux.HandleFunc("DELETE /api/books/{id}/reviews", wrapJSONHandler(h.deleteReview))

	mux.HandleFunc("POST /api/orders", wrapJSONHandler(h.createOrder))
	mux.HandleFunc("GET /api/orders", wrapJSONHandler(h.listOrders))
	mux.HandleFunc("GET /api/orders/{id}", wrapJSONHandler(h.getOrder))
	mux.HandleFunc("GET /api/orders/{id}/items", wrapJSONHandler(h.orderItems))
	mux.HandleFunc("PUT /api/orders/{id}/status", wrapJSONHandler(h.setOrderStatus))
}

func (h *Handlers) me(r *http.Request) (any, error) {
	identity, err := auth.IdentityFromContext(r.Context())
	if err != nil {
		return nil, errors.Mark(authz.ErrUnauthenticated, 0)
	}
	return h.Principals.Get(r.Context(), identity.Subject)
}

func (h *Handlers) updateMe(r *http.Request) (any, error) {
	identity, err := auth.IdentityFromContext(r.Context())
	if err != nil {
		return nil, errors.Mark(authz.ErrUnauthenticated, 0)
	}
	details, err := decodeBody[principals.ContactDetails](r)
	if err != nil {
		return nil, err
	}
	return h.Principals.UpdateContact(r.Context(), identity.Subject, details)
}

func (h *Handlers) listPrincipals(r *http.Request) (any, error) {
	return h.Principals.List(r.Context())
}

func (h *Handlers) getPrincipal(r *http.Request) (any, error) {
	return h.Principals.Get(r.Context(), r.PathValue("subject"))
}

func (h *Handlers) setRole(r *http.Request) (any, error) {
	body, err := decodeBody[struct {
		Role principals.Role `json:"role"`
	}](r)
	if err != nil {
		return nil, err
	}
	return h.Principals.SetRole(r.Context(), r.PathValue("subject"), body.Role)
}

func (h *Handlers) setBlocked(r *http.Request) (any, error) {
	body, err := decodeBody[struct {
		Blocked bool `json:"blocked"`
	}](r)
	if err != nil {
		return nil, err
	}
	return h.Principals.SetBlocked(r.Context(), r.PathValue("subject"), body.Blocked)
}

func (h *Handlers) listCategories(r *http.Request) (any, error) {
	return h.Catalog.ListCategories(r.Context())
}

func (h *Handlers) createCategory(r *http.Request) (any, error) {
	body, err := decodeBody[struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}](r)
	if err != nil {
		return nil, err
	}
	return h.Catalog.CreateCategory(r.Context(), body.Name, body.Description)
}

func (h *Handlers) getCategory(r *http.Request) (any, error) {
	return h.Catalog.GetCategory(r.Context(), r.PathValue("id"))
}

func (h *Handlers) updateCategory(r *http.Request) (any, error) {
	body, err := decodeBody[struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}](r)
	if err != nil {
		return nil, err
	}
	return h.Catalog.UpdateCategory(r.Context(), r.PathValue("id"), body.Name, body.Description)
}

func (h *Handlers) deleteCategory(r *http.Request) (any, error) {
	return nil, h.Catalog.DeleteCategory(r.Context(), r.PathValue("id"))
}

func (h *Handlers) listBooks(r *http.Request) (any, error) {
	filter := catalog.Book{
		CategoryID: r.URL.Query().Get("category"),
		Featured:   r.URL.Query().Get("featured") == "true",
	}
	return h.Catalog.ListBooks(r.Context(), filter)
}

func (h *Handlers) createBook(r *http.Request) (any, error) {
	details, err := decodeBody[catalog.BookDetails](r)
	if err != nil {
		return nil, err
	}
	return h.Catalog.CreateBook(r.Context(), details)
}

func (h *Handlers) getBook(r *http.Request) (any, error) {
	return h.Catalog.GetBook(r.Context(), r.PathValue("id"))
}

func (h *Handlers) updateBook(r *http.Request) (any, error) {
	details, err := decodeBody[catalog.BookDetails](r)
	if err != nil {
		return nil, err
	}
	return h.Catalog.UpdateBook(r.Context(), r.PathValue("id"), details)
}

func (h *Handlers) deleteBook(r *http.Request) (any, error) {
	return nil, h.Catalog.DeleteBook(r.Context(), r.PathValue("id"))
}

func (h *Handlers) listReviews(r *http.Request) (any, error) {
	return h.Reviews.ListForBook(r.Context(), r.PathValue("id"))
}

type reviewBody struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *Handlers) createReview(r *http.Request) (any, error) {
	body, err := decodeBody[reviewBody](r)
	if err != nil {
		return nil, err
	}
	return h.Reviews.Create(r.Context(), r.PathValue("id"), body.Rating, body.Comment)
}

func (h *Handlers) updateReview(r *http.Request) (any, error) {
	body, err := decodeBody[reviewBody](r)
	if err != nil {
		return nil, err
	}
	return h.Reviews.Update(r.Context(), r.PathValue("id"), body.Rating, body.Comment)
}

func (h *Handlers) deleteReview(r *http.Request) (any, error) {
	return nil, h.Reviews.Delete(r.Context(), r.PathValue("id"))
}

func (h *Handlers) createOrder(r *http.Request) (any, error) {
	params, err := decodeBody[orders.CreateParams](r)
	if err != nil {
		return nil, err
	}
	return h.Orders.Create(r.Context(), params)
}

// listOrders returns the caller's own orders, or every order when ?all=true
// is passed by an admin.
func (h *Handlers) listOrders(r *http.Request) (any, error) {
	if r.URL.Query().Get("all") == "true" {
		return h.Orders.ListAll(r.Context())
	}
	return h.Orders.ListMine(r.Context())
}

func (h *Handlers) getOrder(r *http.Request) (any, error) {
	return h.Orders.Get(r.Context(), r.PathValue("id"))
}

func (h *Handlers) orderItems(r *http.Request) (any, error) {
	return h.Orders.Items(r.Context(), r.PathValue("id"))
}

func (h *Handlers) setOrderStatus(r *http.Request) (any, error) {
	body, err := decodeBody[struct {
		Status orders.Status `json:"status"`
	}](r)
	if err != nil {
		return nil, err
	}
	return h.Orders.UpdateStatus(r.Context(), r.PathValue("id"), body.Status)
}
