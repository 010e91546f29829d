package dashboard

import (
	"log/slog"
	"net/http"

	"github.com/odyssey-erp/salesadmin/internal/shared"
	"github.com/odyssey-erp/salesadmin/internal/view"
)

// Handler renders the home page.
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

// Show renders the dashboard. Backend failures still render the page with a
// notice instead of the figures.
func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{}
	status := http.StatusOK
	summary, err := h.service.Summary(r.Context())
	if err != nil {
		h.logger.Error("load dashboard failed", slog.Any("error", err))
		data["Error"] = shared.UserSafeMessage(err)
		status = http.StatusBadGateway
	} else {
		data["Summary"] = summary
	}

	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	viewData := view.TemplateData{
		Title:       "Dashboard",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Data:        data,
	}
	if err := h.templates.Render(w, status, "dashboard.html", viewData); err != nil {
		h.logger.Error("render dashboard", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
