package transactions

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/salesadmin/internal/backend"
	"github.com/odyssey-erp/salesadmin/internal/platform/httpx"
	"github.com/odyssey-erp/salesadmin/internal/shared"
	"github.com/odyssey-erp/salesadmin/internal/view"
)

const formPath = "/sales/new"

// Handler serves the transaction pages, lookups and the draft JSON API.
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

// MountRoutes registers the HTML routes under /sales.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listTransactions)
	r.Get("/lookup/items", h.lookupItems)
	r.Get("/lookup/customers", h.lookupCustomers)

	r.Route("/new", func(r chi.Router) {
		r.Get("/", h.showForm)
		r.Post("/date", h.setDate)
		r.Post("/customer", h.selectCustomer)
		r.Post("/lines", h.addLine)
		r.Post("/lines/{itemID}", h.updateLine)
		r.Post("/lines/{itemID}/delete", h.removeLine)
		r.Post("/costs", h.setCosts)
		r.Post("/submit", h.submit)
		r.Post("/cancel", h.cancel)
	})
}

// MountAPI registers the JSON draft API under /api/drafts.
func (h *Handler) MountAPI(r chi.Router) {
	r.Get("/current", h.apiDraft)
	r.Delete("/current", h.apiDiscard)
	r.Put("/current/date", h.apiSetDate)
	r.Put("/current/customer", h.apiSelectCustomer)
	r.Post("/current/lines", h.apiAddLine)
	r.Patch("/current/lines/{itemID}", h.apiUpdateLine)
	r.Delete("/current/lines/{itemID}", h.apiRemoveLine)
	r.Put("/current/costs/{field}", h.apiSetCost)
	r.Post("/current/submit", h.apiSubmit)
}

// ============================================================================
// HTML HANDLERS
// ============================================================================

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	sales, err := h.service.ListTransactions(r.Context(), query)
	if err != nil {
		h.logger.Error("list transactions failed", slog.Any("error", err))
		h.render(w, r, "sales_list.html", "Transaksi", map[string]any{
			"Query": query,
			"Error": shared.UserSafeMessage(err),
		}, http.StatusBadGateway)
		return
	}
	h.render(w, r, "sales_list.html", "Transaksi", map[string]any{
		"Query":      query,
		"Sales":      sales,
		"GrandTotal": backend.SumTotalPayment(sales),
	}, http.StatusOK)
}

func (h *Handler) showForm(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	d, err := h.service.Draft(r.Context(), owner)
	if err != nil {
		h.logger.Error("load draft failed", slog.Any("error", err))
		http.Error(w, "Gagal memuat transaksi", http.StatusInternalServerError)
		return
	}

	data := map[string]any{
		"View":          NewDraftView(d),
		"Today":         time.Now().Format(time.DateOnly),
		"ItemQuery":     r.URL.Query().Get("item_query"),
		"CustomerQuery": r.URL.Query().Get("customer_query"),
	}
	if q, ok := r.URL.Query()["customer_query"]; ok {
		customers, err := h.service.SearchCustomers(r.Context(), q[0])
		if err != nil {
			h.logger.Warn("customer lookup failed", slog.Any("error", err))
			data["LookupError"] = shared.UserSafeMessage(err)
		}
		data["Customers"] = customers
	}
	if q, ok := r.URL.Query()["item_query"]; ok {
		items, err := h.service.SearchItems(r.Context(), q[0])
		if err != nil {
			h.logger.Warn("item lookup failed", slog.Any("error", err))
			data["LookupError"] = shared.UserSafeMessage(err)
		}
		data["Items"] = items
	}
	h.render(w, r, "sales_form.html", "Tambah Transaksi", data, http.StatusOK)
}

func (h *Handler) setDate(w http.ResponseWriter, r *http.Request) {
	h.formAction(w, r, func(owner string) error {
		_, err := h.service.SetDate(r.Context(), owner, r.PostFormValue("date"))
		return err
	})
}

func (h *Handler) selectCustomer(w http.ResponseWriter, r *http.Request) {
	h.formAction(w, r, func(owner string) error {
		id, err := parseID(r.PostFormValue("customer_id"))
		if err != nil {
			return err
		}
		_, err = h.service.SelectCustomer(r.Context(), owner, id, r.PostFormValue("customer_query"))
		return err
	})
}

func (h *Handler) addLine(w http.ResponseWriter, r *http.Request) {
	h.formAction(w, r, func(owner string) error {
		id, err := parseID(r.PostFormValue("item_id"))
		if err != nil {
			return err
		}
		_, err = h.service.AddItem(r.Context(), owner, id, r.PostFormValue("item_query"),
			r.PostFormValue("quantity"), r.PostFormValue("discount_percentage"))
		return err
	})
}

func (h *Handler) updateLine(w http.ResponseWriter, r *http.Request) {
	h.formAction(w, r, func(owner string) error {
		id, err := parseID(chi.URLParam(r, "itemID"))
		if err != nil {
			return err
		}
		_, err = h.service.UpdateLine(r.Context(), owner, id,
			r.PostFormValue("quantity"), r.PostFormValue("discount_percentage"))
		return err
	})
}

func (h *Handler) removeLine(w http.ResponseWriter, r *http.Request) {
	h.formAction(w, r, func(owner string) error {
		id, err := parseID(chi.URLParam(r, "itemID"))
		if err != nil {
			return err
		}
		_, err = h.service.RemoveLine(r.Context(), owner, id)
		return err
	})
}

func (h *Handler) setCosts(w http.ResponseWriter, r *http.Request) {
	h.formAction(w, r, func(owner string) error {
		var firstErr error
		for _, field := range []struct{ key, form string }{
			{FieldDiscount, "discount"},
			{FieldShippingCost, "shipping_cost"},
		} {
			if _, ok := r.PostForm[field.form]; !ok {
				continue
			}
			if _, err := h.service.SetCostOption(r.Context(), owner, field.key, r.PostFormValue(field.form)); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	})
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	d, _, err := h.service.Submit(r.Context(), owner)
	if err != nil {
		h.redirectWithFlash(w, r, formPath, shared.FlashError, flashMessage(err))
		return
	}
	h.redirectWithFlash(w, r, "/sales", shared.FlashSuccess, fmt.Sprintf("Transaksi %s berhasil disimpan", d.Code))
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	if err := h.service.Discard(r.Context(), owner); err != nil {
		h.logger.Warn("discard draft", slog.Any("error", err))
		h.redirectWithFlash(w, r, formPath, shared.FlashError, flashMessage(err))
		return
	}
	http.Redirect(w, r, "/sales", http.StatusSeeOther)
}

func (h *Handler) lookupItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.SearchItems(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, items)
}

func (h *Handler) lookupCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.SearchCustomers(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, customers)
}

// formAction runs a draft edit and returns to the form (post/redirect/get).
// Rejected input is reported as a flash message; the field error itself is
// kept on the draft.
func (h *Handler) formAction(w http.ResponseWriter, r *http.Request, fn func(owner string) error) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		h.redirectWithFlash(w, r, formPath, shared.FlashError, "Form tidak valid")
		return
	}
	if err := fn(owner); err != nil {
		h.logger.Debug("draft edit rejected", slog.Any("error", err))
		h.redirectWithFlash(w, r, formPath, shared.FlashError, flashMessage(err))
		return
	}
	http.Redirect(w, r, formPath, http.StatusSeeOther)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl, title string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(sess)

	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}

	viewData := view.TemplateData{
		Title:       title,
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

func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.ID == "" {
		http.Error(w, "Sesi tidak ditemukan", http.StatusUnauthorized)
		return "", false
	}
	return sess.ID, true
}

// ============================================================================
// JSON API
// ============================================================================

// numericText accepts operator input either as a JSON string or number so
// that it passes through the same numeric guard as form text.
type numericText string

func (n *numericText) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*n = numericText(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("expected number or string: %w", err)
	}
	*n = numericText(num.String())
	return nil
}

type dateRequest struct {
	Date string `json:"date"`
}

type customerRequest struct {
	CustomerID int64  `json:"customerId"`
	Query      string `json:"query"`
}

type lineRequest struct {
	ItemID             int64       `json:"itemId"`
	Query              string      `json:"query"`
	Quantity           numericText `json:"quantity"`
	DiscountPercentage numericText `json:"discountPercentage"`
}

type costRequest struct {
	Value numericText `json:"value"`
}

type submitResponse struct {
	Draft OrderDraft    `json:"draft"`
	Sale  *backend.Sale `json:"sale"`
}

func (h *Handler) apiDraft(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	d, err := h.service.Draft(r.Context(), owner)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if token, err := h.csrf.EnsureToken(shared.SessionFromContext(r.Context())); err == nil {
		w.Header().Set(shared.CSRFHeader, token)
	}
	httpx.JSON(w, http.StatusOK, NewDraftView(d))
}

func (h *Handler) apiDiscard(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	if err := h.service.Discard(r.Context(), owner); err != nil {
		h.respondDraftError(w, OrderDraft{}, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) apiSetDate(w http.ResponseWriter, r *http.Request) {
	var req dateRequest
	h.apiAction(w, r, &req, func(owner string) (OrderDraft, error) {
		return h.service.SetDate(r.Context(), owner, req.Date)
	})
}

func (h *Handler) apiSelectCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	h.apiAction(w, r, &req, func(owner string) (OrderDraft, error) {
		return h.service.SelectCustomer(r.Context(), owner, req.CustomerID, req.Query)
	})
}

func (h *Handler) apiAddLine(w http.ResponseWriter, r *http.Request) {
	var req lineRequest
	h.apiAction(w, r, &req, func(owner string) (OrderDraft, error) {
		return h.service.AddItem(r.Context(), owner, req.ItemID, req.Query,
			string(req.Quantity), string(req.DiscountPercentage))
	})
}

func (h *Handler) apiUpdateLine(w http.ResponseWriter, r *http.Request) {
	var req lineRequest
	h.apiAction(w, r, &req, func(owner string) (OrderDraft, error) {
		id, err := parseID(chi.URLParam(r, "itemID"))
		if err != nil {
			return OrderDraft{}, err
		}
		return h.service.UpdateLine(r.Context(), owner, id,
			string(req.Quantity), string(req.DiscountPercentage))
	})
}

func (h *Handler) apiRemoveLine(w http.ResponseWriter, r *http.Request) {
	h.apiAction(w, r, nil, func(owner string) (OrderDraft, error) {
		id, err := parseID(chi.URLParam(r, "itemID"))
		if err != nil {
			return OrderDraft{}, err
		}
		return h.service.RemoveLine(r.Context(), owner, id)
	})
}

func (h *Handler) apiSetCost(w http.ResponseWriter, r *http.Request) {
	var req costRequest
	h.apiAction(w, r, &req, func(owner string) (OrderDraft, error) {
		return h.service.SetCostOption(r.Context(), owner, chi.URLParam(r, "field"), string(req.Value))
	})
}

func (h *Handler) apiSubmit(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	d, sale, err := h.service.Submit(r.Context(), owner)
	if err != nil {
		h.respondDraftError(w, d, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, submitResponse{Draft: d, Sale: sale})
}

// apiAction decodes body into req (when non-nil), runs fn and answers with
// the resulting draft view.
func (h *Handler) apiAction(w http.ResponseWriter, r *http.Request, req any, fn func(owner string) (OrderDraft, error)) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	if req != nil {
		if err := httpx.DecodeJSON(r, req); err != nil {
			httpx.RespondError(w, err)
			return
		}
	}
	d, err := fn(owner)
	if err != nil {
		h.respondDraftError(w, d, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewDraftView(d))
}

func (h *Handler) respondDraftError(w http.ResponseWriter, d OrderDraft, err error) {
	var (
		inputErr  *InputError
		formErr   *FormError
		submitErr *SubmitError
	)
	var data any
	if d.ID != "" {
		data = NewDraftView(d)
	}
	switch {
	case errors.As(err, &inputErr):
		httpx.WriteProblem(w, httpx.ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusUnprocessableEntity,
			Detail: msgNotNumeric,
			Errors: map[string]string{inputErr.Field: msgNotNumeric},
			Data:   data,
		})
	case errors.As(err, &formErr):
		httpx.WriteProblem(w, httpx.ProblemDetail{
			Title:  "Validation Failed",
			Status: http.StatusUnprocessableEntity,
			Detail: MsgFormHasErrors,
			Errors: formErr.Validation.Errors,
			Data:   data,
		})
	case errors.As(err, &submitErr):
		httpx.WriteProblem(w, httpx.ProblemDetail{
			Title:  "Submission Failed",
			Status: http.StatusBadGateway,
			Detail: submitErr.Error(),
			Data:   data,
		})
	case errors.Is(err, ErrSubmissionInProgress), errors.Is(err, ErrAlreadySubmitted):
		httpx.Problem(w, http.StatusConflict, "Conflict", flashMessage(err))
	case errors.Is(err, ErrCustomerNotFound), errors.Is(err, ErrItemNotFound), errors.Is(err, ErrLineNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, ErrUnknownCostField):
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", err.Error())
	default:
		h.logger.Error("draft api failed", slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}

// flashMessage turns draft errors into operator-facing text.
func flashMessage(err error) string {
	var (
		inputErr  *InputError
		formErr   *FormError
		submitErr *SubmitError
	)
	switch {
	case errors.As(err, &inputErr):
		return msgNotNumeric
	case errors.As(err, &formErr):
		return MsgFormHasErrors
	case errors.As(err, &submitErr):
		return submitErr.Error()
	case errors.Is(err, ErrSubmissionInProgress):
		return "Transaksi sedang dikirim"
	case errors.Is(err, ErrAlreadySubmitted):
		return "Transaksi sudah tersimpan"
	case errors.Is(err, ErrCustomerNotFound):
		return "Customer tidak ditemukan"
	case errors.Is(err, ErrItemNotFound):
		return "Item tidak ditemukan"
	case errors.Is(err, ErrLineNotFound):
		return "Item tidak ada di transaksi"
	case errors.Is(err, httpx.ErrBadRequest):
		return "Form tidak valid"
	default:
		return shared.UserSafeMessage(err)
	}
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", httpx.ErrBadRequest, raw)
	}
	return id, nil
}
