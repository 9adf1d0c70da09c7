package admin

import (
	"context"
	"net/http"

	"github.com/klioshop/klio/app/helpers"
	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/repositories"
)

// ContentResources covers the CMS: publications, pages, banners, menus,
// site settings, contacts and the inbound subscriber and callback lists.
func (h *AdminHandler) ContentResources() map[string]Mounter {
	articles := NewResource(h.render, "article", repositories.NewCrudRepository[models.Article](h.db, repositories.CrudOptions{
		Order:      "date DESC",
		Preloads:   []string{"Tags"},
		ManyToMany: []string{"Tags"},
	}))
	articles.Prepare = func(ctx context.Context, a *models.Article) error {
		fillSlug(&a.Slug, a.Title)
		return nil
	}

	news := NewResource(h.render, "news", repositories.NewCrudRepository[models.News](h.db, repositories.CrudOptions{
		Order:      "date DESC",
		Preloads:   []string{"Tags"},
		ManyToMany: []string{"Tags"},
	}))
	news.Prepare = func(ctx context.Context, n *models.News) error {
		fillSlug(&n.Slug, n.Title)
		return nil
	}

	pages := NewResource(h.render, "page", repositories.NewCrudRepository[models.Page](h.db, repositories.CrudOptions{Order: "name"}))
	pages.Prepare = func(ctx context.Context, p *models.Page) error {
		fillSlug(&p.Slug, p.Name)
		return nil
	}

	menus := NewResource(h.render, "menu", repositories.NewCrudRepository[models.Menu](h.db, repositories.CrudOptions{
		Order:   "position, name",
		Cascade: true,
	}))
	menuItems := NewResource(h.render, "menu item", repositories.NewCrudRepository[models.MenuItem](h.db, repositories.CrudOptions{Order: "menu_id, sort_order"}))
	menuItems.Prepare = func(ctx context.Context, i *models.MenuItem) error {
		i.Children = nil
		if i.ParentID != nil && *i.ParentID == "" {
			i.ParentID = nil
		}
		if i.ParentID != nil && *i.ParentID == i.ID && i.ID != "" {
			return models.FieldErrors{"parent": "Menu item can not be its own parent."}
		}
		if i.MenuID == "" {
			return models.FieldErrors{"menu": "This field is required."}
		}
		return nil
	}

	contacts := NewResource(h.render, "contact", repositories.NewCrudRepository[models.Contact](h.db, repositories.CrudOptions{
		Order:   "name",
		Cascade: true,
	}))
	contacts.Bind = bindContact
	contacts.Prepare = func(ctx context.Context, c *models.Contact) error {
		fillSlug(&c.Slug, c.Name)
		c.Country, c.City, c.Phones, c.Hours = nil, nil, nil, nil
		return nil
	}

	contactPhones := NewResource(h.render, "contact phone", repositories.NewCrudRepository[models.ContactPhone](h.db, repositories.CrudOptions{
		Order:    "contact_id, sort_order",
		Preloads: []string{"Phone"},
	}))
	contactPhones.Bind = func(r *http.Request, p *models.ContactPhone) error {
		form := struct {
			*models.ContactPhone
			ContactID *string `json:"contact"`
			PhoneID   *string `json:"phone"`
		}{ContactPhone: p}
		if err := helpers.DecodeJSON(r, &form); err != nil {
			return err
		}
		if form.ContactID != nil {
			p.ContactID = *form.ContactID
		}
		if form.PhoneID != nil {
			p.PhoneID = *form.PhoneID
		}
		p.Phone = models.Phone{}
		return nil
	}

	hours := NewResource(h.render, "working hours", repositories.NewCrudRepository[models.WorkingHours](h.db, repositories.CrudOptions{Order: "contact_id"}))
	hours.Bind = func(r *http.Request, wh *models.WorkingHours) error {
		form := struct {
			*models.WorkingHours
			ContactID *string `json:"contact"`
		}{WorkingHours: wh}
		if err := helpers.DecodeJSON(r, &form); err != nil {
			return err
		}
		if form.ContactID != nil {
			wh.ContactID = *form.ContactID
		}
		return nil
	}

	return map[string]Mounter{
		"/articles":       articles,
		"/news":           news,
		"/pages":          pages,
		"/banners":        NewResource(h.render, "banner", repositories.NewCrudRepository[models.Banner](h.db, repositories.CrudOptions{Order: "sort_order"})),
		"/menus":          menus,
		"/menu-items":     menuItems,
		"/settings":       NewResource(h.render, "site settings", repositories.NewCrudRepository[models.SiteSettings](h.db, repositories.CrudOptions{})),
		"/subscribers":    NewResource(h.render, "subscriber", repositories.NewCrudRepository[models.SubscriberInfo](h.db, repositories.CrudOptions{Order: "created_at DESC"})),
		"/callbacks":      NewResource(h.render, "callback", repositories.NewCrudRepository[models.CallbackInfo](h.db, repositories.CrudOptions{Order: "created_at DESC"})),
		"/countries":      NewResource(h.render, "country", repositories.NewCrudRepository[models.Country](h.db, repositories.CrudOptions{Order: "name"})),
		"/cities":         NewResource(h.render, "city", repositories.NewCrudRepository[models.City](h.db, repositories.CrudOptions{Order: "name"})),
		"/contacts":       contacts,
		"/phones":         NewResource(h.render, "phone", repositories.NewCrudRepository[models.Phone](h.db, repositories.CrudOptions{})),
		"/contact-phones": contactPhones,
		"/working-hours":  hours,
		"/socials":        NewResource(h.render, "social network", repositories.NewCrudRepository[models.SocialNet](h.db, repositories.CrudOptions{Order: "name"})),
	}
}

func bindContact(r *http.Request, c *models.Contact) error {
	form := struct {
		*models.Contact
		CountryID *string `json:"country"`
		CityID    *string `json:"city"`
	}{Contact: c}
	if err := helpers.DecodeJSON(r, &form); err != nil {
		return err
	}
	if form.CountryID != nil {
		c.CountryID = emptyToNil(*form.CountryID)
	}
	if form.CityID != nil {
		c.CityID = emptyToNil(*form.CityID)
	}
	return nil
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
