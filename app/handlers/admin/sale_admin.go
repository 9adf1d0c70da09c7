package admin

import (
	"context"
	"fmt"
	"net/http"

	"github.com/klioshop/klio/app/helpers"
	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/repositories"
	"gorm.io/gorm"
)

// rowsByID loads the rows with the given ids. An id with no row is reported
// against field.
func rowsByID[T any](ctx context.Context, db *gorm.DB, field string, ids []string) ([]T, error) {
	rows := []T{}
	if len(ids) == 0 {
		return rows, nil
	}
	if err := db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load %s: %w", field, err)
	}
	found := make(map[string]bool, len(rows))
	for i := range rows {
		found[idOf(&rows[i])] = true
	}
	for _, id := range ids {
		if !found[id] {
			return nil, models.FieldErrors{field: fmt.Sprintf("Invalid pk \"%s\" - object does not exist.", id)}
		}
	}
	return rows, nil
}

// bindSpecial reads categories and tags as id lists; the public JSON shape of
// a special does not carry them.
func (h *AdminHandler) bindSpecial(r *http.Request, s *models.Special) error {
	form := struct {
		*models.Special
		CategoryIDs *[]string `json:"categories"`
		TagIDs      *[]string `json:"tags"`
	}{Special: s}
	if err := helpers.DecodeJSON(r, &form); err != nil {
		return err
	}
	var err error
	if form.CategoryIDs != nil {
		if s.Categories, err = rowsByID[models.Category](r.Context(), h.db, "categories", *form.CategoryIDs); err != nil {
			return err
		}
	}
	if form.TagIDs != nil {
		if s.Tags, err = rowsByID[models.Tag](r.Context(), h.db, "tags", *form.TagIDs); err != nil {
			return err
		}
	}
	return nil
}

func (h *AdminHandler) bindPromoCode(r *http.Request, p *models.PromoCode) error {
	form := struct {
		*models.PromoCode
		CategoryIDs *[]string `json:"categories"`
		ProductIDs  *[]string `json:"products"`
		TagIDs      *[]string `json:"tags"`
	}{PromoCode: p}
	if err := helpers.DecodeJSON(r, &form); err != nil {
		return err
	}
	var err error
	if form.CategoryIDs != nil {
		if p.Categories, err = rowsByID[models.Category](r.Context(), h.db, "categories", *form.CategoryIDs); err != nil {
			return err
		}
	}
	if form.ProductIDs != nil {
		if p.Products, err = rowsByID[models.Product](r.Context(), h.db, "products", *form.ProductIDs); err != nil {
			return err
		}
	}
	if form.TagIDs != nil {
		if p.Tags, err = rowsByID[models.Tag](r.Context(), h.db, "tags", *form.TagIDs); err != nil {
			return err
		}
	}
	return nil
}

// SaleResources are specials, the products bound to them and promo codes.
func (h *AdminHandler) SaleResources() map[string]Mounter {
	specials := NewResource(h.render, "special", repositories.NewCrudRepository[models.Special](h.db, repositories.CrudOptions{
		Order:      "date DESC",
		Preloads:   []string{"Categories", "Tags"},
		ManyToMany: []string{"Categories", "Tags"},
		Cascade:    true,
	}))
	specials.Bind = h.bindSpecial
	specials.Prepare = func(ctx context.Context, s *models.Special) error {
		fillSlug(&s.Slug, s.Name)
		s.Products = nil
		return nil
	}

	specialProducts := NewResource(h.render, "special product", repositories.NewCrudRepository[models.SpecialProduct](h.db, repositories.CrudOptions{Order: "special_id"}))
	specialProducts.Prepare = func(ctx context.Context, p *models.SpecialProduct) error {
		p.Special, p.Product = nil, nil
		errs := models.FieldErrors{}
		if p.SpecialID == "" {
			errs.Add("special", "This field is required.")
		}
		if p.ProductID == "" {
			errs.Add("product", "This field is required.")
		}
		return errs.Err()
	}

	promoCodes := NewResource(h.render, "promo code", repositories.NewCrudRepository[models.PromoCode](h.db, repositories.CrudOptions{
		Order:      "deadline DESC",
		Preloads:   []string{"Categories", "Products", "Tags"},
		ManyToMany: []string{"Categories", "Products", "Tags"},
	}))
	promoCodes.Bind = h.bindPromoCode

	return map[string]Mounter{
		"/specials":         specials,
		"/special-products": specialProducts,
		"/promocodes":       promoCodes,
	}
}
