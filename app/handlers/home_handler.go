package handlers

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/klioshop/klio/app/services"
	"github.com/unrolled/render"
)

// ContentHandler serves the CMS endpoints under /api/v1/general together
// with tags, contacts and the global search.
type ContentHandler struct {
	render    *render.Render
	content   *services.ContentService
	search    *services.SearchService
	validator *validator.Validate
}

func NewContentHandler(r *render.Render, content *services.ContentService, search *services.SearchService, validator *validator.Validate) *ContentHandler {
	return &ContentHandler{render: r, content: content, search: search, validator: validator}
}

func (h *ContentHandler) ok(w http.ResponseWriter, r *http.Request, body interface{}, err error) {
	if err != nil {
		WriteError(h.render, w, r, err)
		return
	}
	h.render.JSON(w, http.StatusOK, body)
}

func (h *ContentHandler) Articles(w http.ResponseWriter, r *http.Request) {
	items, err := h.content.Articles(r.Context())
	h.ok(w, r, items, err)
}

func (h *ContentHandler) Article(w http.ResponseWriter, r *http.Request) {
	article, err := h.content.Article(r.Context(), mux.Vars(r)["slug"])
	h.ok(w, r, article, err)
}

func (h *ContentHandler) News(w http.ResponseWriter, r *http.Request) {
	items, err := h.content.News(r.Context())
	h.ok(w, r, items, err)
}

func (h *ContentHandler) NewsEntry(w http.ResponseWriter, r *http.Request) {
	entry, err := h.content.NewsEntry(r.Context(), mux.Vars(r)["slug"])
	h.ok(w, r, entry, err)
}

func (h *ContentHandler) Banners(w http.ResponseWriter, r *http.Request) {
	banners, err := h.content.Banners(r.Context())
	h.ok(w, r, banners, err)
}

func (h *ContentHandler) Banner(w http.ResponseWriter, r *http.Request) {
	banner, err := h.content.Banner(r.Context(), mux.Vars(r)["id"])
	h.ok(w, r, banner, err)
}

func (h *ContentHandler) Cities(w http.ResponseWriter, r *http.Request) {
	cities, err := h.content.Cities(r.Context())
	h.ok(w, r, cities, err)
}

func (h *ContentHandler) Menus(w http.ResponseWriter, r *http.Request) {
	menus, err := h.content.Menus(r.Context())
	h.ok(w, r, menus, err)
}

func (h *ContentHandler) Page(w http.ResponseWriter, r *http.Request) {
	page, err := h.content.Page(r.Context(), mux.Vars(r)["slug"])
	h.ok(w, r, page, err)
}

func (h *ContentHandler) Settings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.content.Settings(r.Context())
	h.ok(w, r, settings, err)
}

func (h *ContentHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var in services.SubscribeInput
	if !DecodeAndValidate(h.render, h.validator, w, r, &in) {
		return
	}
	err := h.content.Subscribe(r.Context(), userIDOf(r), in)
	h.ok(w, r, map[string]interface{}{"email": strings.TrimSpace(in.Email)}, err)
}

func (h *ContentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var in services.CallbackInput
	if !DecodeAndValidate(h.render, h.validator, w, r, &in) {
		return
	}
	cb, err := h.content.Callback(r.Context(), userIDOf(r), in)
	h.ok(w, r, cb, err)
}

func (h *ContentHandler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.content.Tags(r.Context())
	h.ok(w, r, tags, err)
}

func (h *ContentHandler) Tag(w http.ResponseWriter, r *http.Request) {
	tag, err := h.content.Tag(r.Context(), mux.Vars(r)["id"])
	h.ok(w, r, tag, err)
}

func (h *ContentHandler) Contacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := h.content.Contacts(r.Context())
	h.ok(w, r, contacts, err)
}

func (h *ContentHandler) Contact(w http.ResponseWriter, r *http.Request) {
	contact, err := h.content.Contact(r.Context(), mux.Vars(r)["id"])
	h.ok(w, r, contact, err)
}

func (h *ContentHandler) Socials(w http.ResponseWriter, r *http.Request) {
	socials, err := h.content.Socials(r.Context())
	h.ok(w, r, socials, err)
}

func (h *ContentHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.search.Search(r.Context(), services.SearchQuery{
		Text:      q.Get("text"),
		Tags:      services.SplitTags(q.Get("tags")),
		Type:      q.Get("type"),
		SortBy:    q.Get("sortby"),
		Direction: q.Get("direction"),
	})
	h.ok(w, r, result, err)
}
