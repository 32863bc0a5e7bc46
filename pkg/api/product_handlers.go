package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/oakmont-labs/memberhub/pkg/httputil"
	"github.com/oakmont-labs/memberhub/pkg/middleware"
	"github.com/oakmont-labs/memberhub/pkg/webhooks"
)

// ProductHandlers accepts product submissions and hands them to the
// workflow engine. The portal stores nothing itself; the submission is
// forwarded as a product.created event.
type ProductHandlers struct {
	notifier *webhooks.Notifier
}

// NewProductHandlers creates the product handlers.
func NewProductHandlers(notifier *webhooks.Notifier) *ProductHandlers {
	return &ProductHandlers{notifier: notifier}
}

// form handles GET /products. Nothing is stored locally; the page
// only needs to know whether the workflow endpoint is live.
func (h *ProductHandlers) form(w http.ResponseWriter, r *http.Request) {
	enabled := h.notifier != nil && h.notifier.Enabled()
	httputil.WriteSuccess(w, "product submission", map[string]interface{}{
		"workflow_enabled": enabled,
	})
}

type productRequest struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description"`
}

// add handles POST /products/add, gated on the add_products permission.
func (h *ProductHandlers) add(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := httputil.ParseBody(r, &req); err != nil {
		httputil.WriteValidationError(w, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		httputil.WriteValidationError(w, "product name is required")
		return
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(req.Price), 64)
	if err != nil || price < 0 {
		httputil.WriteValidationError(w, "price must be a non-negative number")
		return
	}

	data := map[string]interface{}{
		"name":        req.Name,
		"price":       price,
		"description": req.Description,
	}
	if sess := middleware.SessionFromRequest(r); sess != nil {
		data["submitted_by"] = sess.Username
	}
	if h.notifier != nil {
		h.notifier.NotifyAsync(r.Context(), webhooks.NewEvent(webhooks.EventProductCreated, data))
	}

	httputil.WriteSuccess(w, "product submitted", map[string]interface{}{
		"name":  req.Name,
		"price": price,
	})
}
