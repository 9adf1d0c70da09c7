package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/klioshop/klio/app/helpers"
	"github.com/klioshop/klio/app/services"
	"github.com/unrolled/render"
)

// CatalogHandler serves /api/v1/products and /api/v1/sale.
type CatalogHandler struct {
	render  *render.Render
	catalog *services.CatalogService
}

func NewCatalogHandler(r *render.Render, catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{render: r, catalog: catalog}
}

func (h *CatalogHandler) ok(w http.ResponseWriter, r *http.Request, body interface{}, err error) {
	if err != nil {
		WriteError(h.render, w, r, err)
		return
	}
	h.render.JSON(w, http.StatusOK, body)
}

func (h *CatalogHandler) listParams(r *http.Request) services.ListParams {
	return services.ParseListParams(r.URL.Query(), helpers.ParsePage(r))
}

func (h *CatalogHandler) page(w http.ResponseWriter, r *http.Request, params services.ListParams, page *services.ProductPage, err error) {
	if err != nil {
		WriteError(h.render, w, r, err)
		return
	}
	h.render.JSON(w, http.StatusOK, helpers.Paginated(r, params.Page, page.Count, page.Products))
}

func (h *CatalogHandler) Brands(w http.ResponseWriter, r *http.Request) {
	brands, err := h.catalog.Brands(r.Context())
	h.ok(w, r, brands, err)
}

func (h *CatalogHandler) Brand(w http.ResponseWriter, r *http.Request) {
	brand, err := h.catalog.Brand(r.Context(), mux.Vars(r)["slug"])
	h.ok(w, r, brand, err)
}

func (h *CatalogHandler) BrandFilters(w http.ResponseWriter, r *http.Request) {
	filters, err := h.catalog.BrandFilters(r.Context(), mux.Vars(r)["slug"])
	h.ok(w, r, filters, err)
}

func (h *CatalogHandler) BrandProducts(w http.ResponseWriter, r *http.Request) {
	params := h.listParams(r)
	page, err := h.catalog.BrandProducts(r.Context(), mux.Vars(r)["slug"], params)
	h.page(w, r, params, page, err)
}

func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	tree, err := h.catalog.CategoryTree(r.Context())
	h.ok(w, r, tree, err)
}

func (h *CatalogHandler) MainPageCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.MainPageCategories(r.Context())
	h.ok(w, r, categories, err)
}

func (h *CatalogHandler) Category(w http.ResponseWriter, r *http.Request) {
	category, err := h.catalog.CategoryDetail(r.Context(), mux.Vars(r)["slug"])
	h.ok(w, r, category, err)
}

func (h *CatalogHandler) CategoryFilters(w http.ResponseWriter, r *http.Request) {
	filters, err := h.catalog.CategoryFilters(r.Context(), mux.Vars(r)["slug"])
	h.ok(w, r, filters, err)
}

func (h *CatalogHandler) CategoryProducts(w http.ResponseWriter, r *http.Request) {
	params := h.listParams(r)
	page, err := h.catalog.CategoryProducts(r.Context(), mux.Vars(r)["slug"], params)
	h.page(w, r, params, page, err)
}

func (h *CatalogHandler) Product(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	product, err := h.catalog.ProductDetail(r.Context(), vars["category_slug"], vars["slug"])
	h.ok(w, r, product, err)
}

func (h *CatalogHandler) MainNew(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.MainNew(r.Context())
	h.ok(w, r, products, err)
}

func (h *CatalogHandler) MainSpecial(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.MainSpecial(r.Context())
	h.ok(w, r, products, err)
}

func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := services.SearchParams{
		ListParams: h.listParams(r),
		Text:       strings.TrimSpace(q.Get("text")),
		Article:    strings.TrimSpace(q.Get("article")),
		Tags:       services.SplitTags(q.Get("tags")),
	}
	page, err := h.catalog.SearchProducts(r.Context(), params)
	h.page(w, r, params.ListParams, page, err)
}

func (h *CatalogHandler) Favorites(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.Favorites(r.Context(), userIDOf(r))
	h.ok(w, r, products, err)
}

func (h *CatalogHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	err := h.catalog.AddFavorite(r.Context(), userIDOf(r), mux.Vars(r)["id"])
	h.ok(w, r, detail("Product added to favorites."), err)
}

func (h *CatalogHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	err := h.catalog.RemoveFavorite(r.Context(), userIDOf(r), mux.Vars(r)["id"])
	h.ok(w, r, detail("Product removed from favorites."), err)
}

func (h *CatalogHandler) Specials(w http.ResponseWriter, r *http.Request) {
	specials, err := h.catalog.Specials(r.Context())
	h.ok(w, r, specials, err)
}

func (h *CatalogHandler) Special(w http.ResponseWriter, r *http.Request) {
	special, err := h.catalog.Special(r.Context(), mux.Vars(r)["slug"])
	h.ok(w, r, special, err)
}

func (h *CatalogHandler) SpecialProducts(w http.ResponseWriter, r *http.Request) {
	params := h.listParams(r)
	page, err := h.catalog.SpecialProducts(r.Context(), mux.Vars(r)["slug"], params)
	h.page(w, r, params, page, err)
}
