package catalog

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

// Handler serves the item pages.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

// MountRoutes registers item routes under /items.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Post("/{id}/delete", h.delete)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, ItemForm{}, nil, http.StatusOK)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	form := ItemForm{
		Code:  r.PostFormValue("code"),
		Name:  r.PostFormValue("name"),
		Price: r.PostFormValue("price"),
	}
	item, err := h.service.Create(r.Context(), form)
	if err != nil {
		var fieldErrs shared.FieldErrors
		if errors.As(err, &fieldErrs) {
			h.renderList(w, r, form, fieldErrs, http.StatusUnprocessableEntity)
			return
		}
		h.logger.Error("create item failed", slog.Any("error", err))
		h.renderList(w, r, form, shared.FieldErrors{"general": "Gagal menginput data: " + shared.UserSafeMessage(err)}, http.StatusBadGateway)
		return
	}
	h.redirectWithFlash(w, r, "/items", shared.FlashSuccess, fmt.Sprintf("Item %s berhasil disimpan", item.Name))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid item ID", http.StatusBadRequest)
		return
	}
	name := r.PostFormValue("name")
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.logger.Error("delete item failed", slog.Any("error", err), slog.Int64("id", id))
		h.redirectWithFlash(w, r, "/items", shared.FlashError, "Gagal menghapus data: "+shared.UserSafeMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/items", shared.FlashSuccess, fmt.Sprintf("Item %s berhasil dihapus", name))
}

func (h *Handler) renderList(w http.ResponseWriter, r *http.Request, form ItemForm, errs shared.FieldErrors, status int) {
	query := r.URL.Query().Get("query")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	data := map[string]any{
		"Query":  query,
		"Form":   form,
		"Errors": errs,
	}
	items, err := h.service.List(r.Context(), query)
	if err != nil {
		h.logger.Error("list items failed", slog.Any("error", err))
		data["Error"] = shared.UserSafeMessage(err)
	}
	pagination := shared.NewPagination(page, perPage, len(items))
	data["Items"] = shared.Paginate(items, pagination)
	data["Pagination"] = pagination
	h.render(w, r, "items.html", data, status)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(sess)

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}

	viewData := view.TemplateData{
		Title:       "Items",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.Render(w, status, tmpl, viewData); err != nil {
		h.logger.Error("template render failed", slog.Any("error", err), slog.String("template", tmpl))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, url, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
