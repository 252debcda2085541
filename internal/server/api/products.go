// Package api provides the read-only HTTP API for the kiosk product catalog.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayusman/kiosk/internal/catalog"
)

// ProductHandler serves catalog products.
type ProductHandler struct {
	catalog *catalog.Catalog
}

// NewProductHandler creates a new ProductHandler over the given catalog.
func NewProductHandler(c *catalog.Catalog) *ProductHandler {
	return &ProductHandler{catalog: c}
}

// ServeHTTP routes /api/products and /api/products/{class_id}.
func (h *ProductHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/products")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		h.list(w, r)
		return
	}
	h.get(w, r, path)
}

type listProductsResponse struct {
	Products []catalog.Item `json:"products"`
	Count    int            `json:"count"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// list handles GET /api/products, ordered by class id.
func (h *ProductHandler) list(w http.ResponseWriter, r *http.Request) {
	items := h.catalog.Items()
	writeJSON(w, http.StatusOK, listProductsResponse{Products: items, Count: len(items)})
}

// get handles GET /api/products/{class_id}.
func (h *ProductHandler) get(w http.ResponseWriter, r *http.Request, raw string) {
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		writeError(w, http.StatusBadRequest, "Invalid product id")
		return
	}

	item, ok := h.catalog.Lookup(id)
	if !ok {
		writeError(w, http.StatusNotFound, "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, item)
}
