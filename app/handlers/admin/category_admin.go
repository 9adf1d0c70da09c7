package admin

import (
	"context"
	"net/http"

	"github.com/klioshop/klio/app/helpers"
	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/repositories"
)

func fillSlug(slug *string, from string) {
	if *slug == "" {
		*slug = helpers.GenerateSlug(from)
	}
}

// CatalogResources are the reference tables of the catalog: the category
// tree, brands, tags, units and the product type schema.
func (h *AdminHandler) CatalogResources() map[string]Mounter {
	categories := NewResource(h.render, "category", repositories.NewCrudRepository[models.Category](h.db, repositories.CrudOptions{
		Order:    "sort_order, name",
		Preloads: []string{"Parent"},
	}))
	categories.Prepare = func(ctx context.Context, c *models.Category) error {
		fillSlug(&c.Slug, c.Name)
		c.Parent, c.Children = nil, nil
		return nil
	}

	brands := NewResource(h.render, "brand", repositories.NewCrudRepository[models.Brand](h.db, repositories.CrudOptions{Order: "sort_order, name"}))
	brands.Prepare = func(ctx context.Context, b *models.Brand) error {
		fillSlug(&b.Slug, b.Name)
		return nil
	}

	productTypes := NewResource(h.render, "product type", repositories.NewCrudRepository[models.ProductType](h.db, repositories.CrudOptions{
		Order:      "name",
		Preloads:   []string{"Properties"},
		ManyToMany: []string{"Properties"},
	}))
	productTypes.Prepare = func(ctx context.Context, t *models.ProductType) error {
		fillSlug(&t.Slug, t.Name)
		return nil
	}

	properties := NewResource(h.render, "product property", repositories.NewCrudRepository[models.ProductProperty](h.db, repositories.CrudOptions{Order: "name"}))
	properties.Prepare = func(ctx context.Context, p *models.ProductProperty) error {
		if p.Slug == "" {
			p.Slug = helpers.GenerateSlug(p.Name)
		}
		p.Unit = nil
		return p.Validate().Err()
	}

	images := NewResource(h.render, "product image", repositories.NewCrudRepository[models.ProductImage](h.db, repositories.CrudOptions{Order: "product_id, sort_order"}))
	images.Bind = func(r *http.Request, img *models.ProductImage) error {
		form := struct {
			*models.ProductImage
			ProductID *string `json:"product"`
			SortOrder *int    `json:"order"`
			Activity  *bool   `json:"activity"`
		}{ProductImage: img}
		if err := helpers.DecodeJSON(r, &form); err != nil {
			return err
		}
		if form.ProductID != nil {
			img.ProductID = *form.ProductID
		}
		if form.SortOrder != nil {
			img.SortOrder = *form.SortOrder
		}
		if form.Activity != nil {
			img.Activity = *form.Activity
		}
		return nil
	}

	return map[string]Mounter{
		"/categories":     categories,
		"/brands":         brands,
		"/tags":           NewResource(h.render, "tag", repositories.NewCrudRepository[models.Tag](h.db, repositories.CrudOptions{Order: "name"})),
		"/units":          NewResource(h.render, "unit", repositories.NewCrudRepository[models.Unit](h.db, repositories.CrudOptions{Order: "name"})),
		"/product-types":  productTypes,
		"/properties":     properties,
		"/product-images": images,
	}
}
