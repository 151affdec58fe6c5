package handlers

import (
	"net/http"

	"github.com/diewo77/literie-pos/httpx"
	"github.com/diewo77/literie-pos/internal/models"
	"github.com/diewo77/literie-pos/internal/services"
)

type ProductHandler struct {
	products *services.ProductService
	vatRate  float64
}

func NewProductHandler(products *services.ProductService, vatRate float64) *ProductHandler {
	return &ProductHandler{products: products, vatRate: vatRate}
}

type productView struct {
	models.Product
	PriceHT float64 `json:"price_ht"`
}

// List serves the catalog: ?q= searches name and code, ?category= filters, ?all=1 includes inactive products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products, err := h.products.List(r.Context(), services.ProductFilter{
		Query:           q.Get("q"),
		Category:        q.Get("category"),
		IncludeInactive: q.Get("all") == "1",
	})
	if err != nil {
		writeError(w, err)
		return
	}
	items := make([]productView, 0, len(products))
	for _, p := range products {
		items = append(items, productView{Product: p, PriceHT: p.PriceHT(h.vatRate)})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByCode(r.Context(), r.PathValue("code"))
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, productView{Product: *p, PriceHT: p.PriceHT(h.vatRate)})
}
