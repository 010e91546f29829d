package customers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/salesadmin/internal/shared"
	"github.com/odyssey-erp/salesadmin/internal/view"
)

const perPage = 20

type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Post("/{id}/delete", h.Delete)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, CustomerForm{}, nil, http.StatusOK)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := CustomerForm{
		Name:  r.PostFormValue("name"),
		Phone: r.PostFormValue("phone"),
	}
	customer, err := h.service.Create(r.Context(), form)
	if err != nil {
		var fieldErrs shared.FieldErrors
		if errors.As(err, &fieldErrs) {
			h.renderList(w, r, form, fieldErrs, http.StatusUnprocessableEntity)
			return
		}
		h.logger.Error("create customer failed", "error", err)
		h.renderList(w, r, form, shared.FieldErrors{"general": "Gagal menginput data: " + shared.UserSafeMessage(err)}, http.StatusBadGateway)
		return
	}
	h.redirectWithFlash(w, r, "/customers", shared.FlashSuccess, "Data berhasil ditambahkan: "+customer.Name)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid customer ID", http.StatusBadRequest)
		return
	}
	name := r.PostFormValue("name")
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete customer failed", "error", err, "id", id)
		h.redirectWithFlash(w, r, "/customers", shared.FlashError, "Gagal menghapus data: "+shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/customers", shared.FlashSuccess, fmt.Sprintf("Customer %s berhasil dihapus", name))
}

func (h *Handler) renderList(w http.ResponseWriter, r *http.Request, form CustomerForm, errs shared.FieldErrors, status int) {
	query := r.URL.Query().Get("query")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	data := map[string]any{
		"Query":  query,
		"Form":   form,
		"Errors": errs,
	}
	customers, err := h.service.List(r.Context(), query)
	if err != nil {
		h.logger.Error("list customers failed", "error", err)
		data["Error"] = shared.UserSafeMessage(err)
	}
	pagination := shared.NewPagination(page, perPage, len(customers))
	data["Customers"] = shared.Paginate(customers, pagination)
	data["Pagination"] = pagination

	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Customers",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.Render(w, status, "customers.html", viewData); err != nil {
		h.logger.Error("template render failed", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, url, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
