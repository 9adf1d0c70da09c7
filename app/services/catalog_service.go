package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/klioshop/klio/app/helpers"
	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/repositories"
	"go.uber.org/zap"
)

const (
	mainPageCategories = 2
	mainPageProducts   = 20
	textFilterSep      = "|;|"
)

var (
	listedKinds = []string{models.ProductUnique, models.ProductParent}
	sellKinds   = []string{models.ProductUnique, models.ProductChild}
)

// ListParams are the query options shared by the product listings.
type ListParams struct {
	InStock    bool
	SortBy     string
	Direction  string
	Properties []repositories.PropertyFilter
	Page       helpers.Page
}

// ParseListParams splits a listing query into the fixed options and the
// dynamic property filters. Property keys are "{slug}_{b|t|d}"; anything
// else is ignored.
func ParseListParams(q url.Values, page helpers.Page) ListParams {
	params := ListParams{
		SortBy:    q.Get("sortby"),
		Direction: q.Get("direction"),
		Page:      page,
	}
	if v := q.Get("in_stock"); v != "" && v != "false" && v != "0" {
		params.InStock = true
	}

	for key, values := range q {
		switch key {
		case "sortby", "direction", "size", "page", "in_stock":
			continue
		}
		i := strings.LastIndex(key, "_")
		if i <= 0 || len(values) == 0 {
			continue
		}
		f := repositories.PropertyFilter{Slug: key[:i], Kind: key[i+1:]}
		raw := values[0]

		switch f.Kind {
		case repositories.PropertyFilterBoolean:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				continue
			}
			f.Bool = b
		case repositories.PropertyFilterText:
			for _, v := range strings.Split(raw, textFilterSep) {
				if v = strings.TrimSpace(v); v != "" {
					f.Values = append(f.Values, v)
				}
			}
			if len(f.Values) == 0 {
				continue
			}
		case repositories.PropertyFilterDigit:
			bounds := strings.SplitN(raw, ",", 2)
			if len(bounds) != 2 {
				continue
			}
			min, errMin := strconv.ParseFloat(strings.TrimSpace(bounds[0]), 64)
			max, errMax := strconv.ParseFloat(strings.TrimSpace(bounds[1]), 64)
			if errMin != nil || errMax != nil {
				continue
			}
			f.Min, f.Max = min, max
		default:
			continue
		}
		params.Properties = append(params.Properties, f)
	}
	return params
}

func (p ListParams) query() repositories.ProductQuery {
	return repositories.ProductQuery{
		InStock:    p.InStock,
		SortBy:     p.SortBy,
		Direction:  p.Direction,
		Properties: p.Properties,
		Offset:     p.Page.Offset(),
		Limit:      p.Page.Size,
	}
}

// ProductPage is one page of a product listing plus the total match count.
type ProductPage struct {
	Count    int64
	Products []ProductItem
}

type CatalogService struct {
	categories repositories.CategoryRepositoryImpl
	brands     repositories.BrandRepositoryImpl
	products   repositories.ProductRepositoryImpl
	specials   repositories.SpecialRepository
	users      repositories.UserRepositoryImpl
	pricer     *Pricer
	now        func() time.Time
}

func NewCatalogService(
	categories repositories.CategoryRepositoryImpl,
	brands repositories.BrandRepositoryImpl,
	products repositories.ProductRepositoryImpl,
	specials repositories.SpecialRepository,
	users repositories.UserRepositoryImpl,
	pricer *Pricer,
) *CatalogService {
	return &CatalogService{
		categories: categories,
		brands:     brands,
		products:   products,
		specials:   specials,
		users:      users,
		pricer:     pricer,
		now:        time.Now,
	}
}

func (s *CatalogService) items(ctx context.Context, products []models.Product) ([]ProductItem, error) {
	index, err := s.pricer.Index(ctx)
	if err != nil {
		return nil, err
	}
	return NewProductItems(products, index, s.now()), nil
}

func (s *CatalogService) page(ctx context.Context, q repositories.ProductQuery) (*ProductPage, error) {
	products, count, err := s.products.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	items, err := s.items(ctx, products)
	if err != nil {
		return nil, err
	}
	return &ProductPage{Count: count, Products: items}, nil
}

// subtree collects the ids of root and its active descendants, breadth-first.
func subtree(root string, active []models.Category) []string {
	children := map[string][]string{}
	for _, c := range active {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], c.ID)
		}
	}

	ids := []string{root}
	seen := map[string]bool{root: true}
	level := []string{root}
	for len(level) > 0 {
		var next []string
		for _, id := range level {
			for _, child := range children[id] {
				if !seen[child] {
					seen[child] = true
					next = append(next, child)
				}
			}
		}
		ids = append(ids, next...)
		level = next
	}
	return ids
}

func buildTree(parentID *string, categories []models.Category) []CategoryNode {
	nodes := []CategoryNode{}
	for _, c := range categories {
		if (parentID == nil) != (c.ParentID == nil) {
			continue
		}
		if parentID != nil && *c.ParentID != *parentID {
			continue
		}
		id := c.ID
		node := categoryNode(&c)
		node.Children = buildTree(&id, categories)
		nodes = append(nodes, node)
	}
	return nodes
}

func categoryNode(c *models.Category) CategoryNode {
	return CategoryNode{
		ID:          c.ID,
		Name:        c.Name,
		Slug:        c.Slug,
		Img:         c.Img,
		Description: c.Description,
		Order:       c.SortOrder,
		Children:    []CategoryNode{},
	}
}

// CategoryTree returns active root categories with their active children
// nested. A category under an inactive parent is not reachable.
func (s *CatalogService) CategoryTree(ctx context.Context) ([]CategoryNode, error) {
	categories, err := s.categories.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return buildTree(nil, categories), nil
}

func (s *CatalogService) MainPageCategories(ctx context.Context) ([]CategoryNode, error) {
	categories, err := s.categories.MainPage(ctx, mainPageCategories)
	if err != nil {
		return nil, fmt.Errorf("main page categories: %w", err)
	}
	nodes := make([]CategoryNode, 0, len(categories))
	for i := range categories {
		nodes = append(nodes, categoryNode(&categories[i]))
	}
	return nodes, nil
}

func (s *CatalogService) activeCategory(ctx context.Context, slug string) (*models.Category, []models.Category, error) {
	category, err := s.categories.FindBySlug(ctx, slug)
	if err != nil {
		return nil, nil, fmt.Errorf("find category: %w", err)
	}
	if category == nil {
		return nil, nil, ErrCategoryNotFound
	}
	active, err := s.categories.ListActive(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list categories: %w", err)
	}
	return category, active, nil
}

func (s *CatalogService) CategoryDetail(ctx context.Context, slug string) (*CategoryDetail, error) {
	category, active, err := s.activeCategory(ctx, slug)
	if err != nil {
		return nil, err
	}
	chain, err := s.categories.Ancestors(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("category ancestors: %w", err)
	}

	node := categoryNode(category)
	id := category.ID
	node.Children = buildTree(&id, active)

	parents := make([]Ref, 0, len(chain))
	for _, c := range chain[:len(chain)-1] {
		parents = append(parents, Ref{ID: c.ID, Name: c.Name, Slug: c.Slug})
	}
	return &CategoryDetail{
		Meta:         category.Meta,
		CategoryNode: node,
		FullName:     models.CategoryPath(chain),
		Parents:      parents,
	}, nil
}

func (s *CatalogService) CategoryProducts(ctx context.Context, slug string, params ListParams) (*ProductPage, error) {
	category, active, err := s.activeCategory(ctx, slug)
	if err != nil {
		return nil, err
	}
	q := params.query()
	q.Kinds = listedKinds
	q.CategoryIDs = subtree(category.ID, active)
	return s.page(ctx, q)
}

func (s *CatalogService) CategoryFilters(ctx context.Context, slug string) ([]FilterView, error) {
	category, active, err := s.activeCategory(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.filters(ctx, repositories.ProductQuery{
		Kinds:       sellKinds,
		CategoryIDs: subtree(category.ID, active),
	})
}

func (s *CatalogService) Brands(ctx context.Context) ([]models.Brand, error) {
	brands, err := s.brands.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	return brands, nil
}

func (s *CatalogService) Brand(ctx context.Context, slug string) (*models.Brand, error) {
	brand, err := s.brands.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("find brand: %w", err)
	}
	if brand == nil {
		return nil, ErrNotFound
	}
	return brand, nil
}

func (s *CatalogService) BrandProducts(ctx context.Context, slug string, params ListParams) (*ProductPage, error) {
	brand, err := s.Brand(ctx, slug)
	if err != nil {
		return nil, err
	}
	q := params.query()
	q.Kinds = listedKinds
	q.BrandID = brand.ID
	return s.page(ctx, q)
}

func (s *CatalogService) BrandFilters(ctx context.Context, slug string) ([]FilterView, error) {
	brand, err := s.Brand(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.filters(ctx, repositories.ProductQuery{Kinds: sellKinds, BrandID: brand.ID})
}

// filters describes every active property used by the products q selects.
// Digit properties carry their value range, text ones their options.
func (s *CatalogService) filters(ctx context.Context, q repositories.ProductQuery) ([]FilterView, error) {
	ids, err := s.products.IDs(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("filter product ids: %w", err)
	}
	props, err := s.products.PropertiesFor(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("filter properties: %w", err)
	}

	views := make([]FilterView, 0, len(props))
	for _, prop := range props {
		view := FilterView{
			Name:     prop.Name,
			Slug:     prop.Slug,
			Type:     prop.Type,
			Interval: prop.Interval,
			Options:  []string{},
		}
		if prop.Unit != nil {
			view.Units = prop.Unit.Name
		}

		switch {
		case prop.IsDigit():
			view.Type = "digit"
			min, max, err := s.products.DigitRange(ctx, prop, ids)
			if err != nil {
				return nil, fmt.Errorf("range of %s: %w", prop.Slug, err)
			}
			view.Min, view.Max = min, max
			view.Value = []*float64{min, max}
		case prop.Type == models.PropertyText:
			options, err := s.products.TextOptions(ctx, prop.ID, ids)
			if err != nil {
				return nil, fmt.Errorf("options of %s: %w", prop.Slug, err)
			}
			view.Options = options
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *CatalogService) ProductDetail(ctx context.Context, categorySlug, slug string) (*ProductDetail, error) {
	category, err := s.categories.FindBySlug(ctx, categorySlug)
	if err != nil {
		return nil, fmt.Errorf("find category: %w", err)
	}
	if category == nil {
		return nil, ErrProductNotFound
	}
	product, err := s.products.FindInCategory(ctx, category.ID, slug)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	if product == nil || product.Kind == models.ProductParent {
		return nil, ErrProductNotFound
	}

	index, err := s.pricer.Index(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()

	detail := &ProductDetail{
		Meta:        product.Meta,
		ProductItem: NewProductItem(product, index, now),
		Description: product.Description,
		Categories:  []Ref{},
		Properties:  productProperties(product),
	}

	if c := product.EffectiveCategory(); c != nil {
		chain, err := s.categories.Ancestors(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("product category chain: %w", err)
		}
		for _, link := range chain {
			detail.Categories = append(detail.Categories, Ref{ID: link.ID, Name: link.Name, Slug: link.Slug})
		}
	}

	recommended, err := s.products.Recommended(ctx, product.ID)
	if err != nil {
		return nil, fmt.Errorf("recommended products: %w", err)
	}
	detail.Recommended = NewProductItems(recommended, index, now)
	return detail, nil
}

// productProperties lists the product's active property values. A child
// with an empty value shows its parent's value for the same property.
func productProperties(p *models.Product) []PropertyView {
	inherited := map[string]models.ProductPropertyValue{}
	if p.IsChild() && p.Parent != nil {
		for _, v := range p.Parent.PropertyValues {
			inherited[v.PropertyID] = v
		}
	}

	views := []PropertyView{}
	for _, v := range p.PropertyValues {
		prop := v.Property
		if prop == nil || !prop.Activity {
			continue
		}
		value := v.Value(prop.Type)
		if value == nil {
			if pv, ok := inherited[v.PropertyID]; ok {
				value = pv.Value(prop.Type)
			}
		}
		view := PropertyView{ID: prop.ID, Name: prop.Name, Value: value}
		if prop.Unit != nil {
			view.Units = prop.Unit.Name
		}
		views = append(views, view)
	}
	return views
}

func (s *CatalogService) MainNew(ctx context.Context) ([]ProductItem, error) {
	since := s.now().Add(-models.NewProductPeriod)
	products, _, err := s.products.List(ctx, repositories.ProductQuery{
		Kinds:      sellKinds,
		ActiveTree: true,
		NewSince:   &since,
		Limit:      mainPageProducts,
	})
	if err != nil {
		return nil, fmt.Errorf("main new products: %w", err)
	}
	return s.items(ctx, products)
}

func (s *CatalogService) MainSpecial(ctx context.Context) ([]ProductItem, error) {
	products, _, err := s.products.List(ctx, repositories.ProductQuery{
		Kinds:         sellKinds,
		ActiveTree:    true,
		OnMainSpecial: true,
		Limit:         mainPageProducts,
	})
	if err != nil {
		return nil, fmt.Errorf("main special products: %w", err)
	}
	return s.items(ctx, products)
}

// SearchParams are the product search options on top of a listing.
type SearchParams struct {
	ListParams
	Text    string
	Article string
	Tags    []string
}

func SplitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func (s *CatalogService) SearchProducts(ctx context.Context, params SearchParams) (*ProductPage, error) {
	q := params.query()
	q.Kinds = sellKinds
	q.ActiveTree = true
	q.Text = params.Text
	q.Article = params.Article
	q.Tags = params.Tags
	return s.page(ctx, q)
}

func (s *CatalogService) Specials(ctx context.Context) ([]models.Special, error) {
	index, err := s.pricer.Index(ctx)
	if err != nil {
		return nil, err
	}
	return index.Running(), nil
}

func (s *CatalogService) runningSpecial(ctx context.Context, slug string) (*models.Special, error) {
	special, err := s.specials.FindBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("find special: %w", err)
	}
	if special == nil || !special.IsRunning(s.now()) {
		return nil, ErrSpecialNotFound
	}
	return special, nil
}

func (s *CatalogService) Special(ctx context.Context, slug string) (*models.Special, error) {
	return s.runningSpecial(ctx, slug)
}

// SpecialProducts lists what a running special reaches: its own products,
// products in its active categories, and products carrying its tags.
func (s *CatalogService) SpecialProducts(ctx context.Context, slug string, params ListParams) (*ProductPage, error) {
	special, err := s.runningSpecial(ctx, slug)
	if err != nil {
		return nil, err
	}

	scope := &repositories.SpecialScope{}
	for _, rel := range special.Products {
		scope.ProductIDs = append(scope.ProductIDs, rel.ProductID)
	}
	for _, c := range special.Categories {
		if c.Activity {
			scope.CategoryIDs = append(scope.CategoryIDs, c.ID)
		}
	}
	for _, t := range special.Tags {
		scope.TagIDs = append(scope.TagIDs, t.ID)
	}

	q := params.query()
	q.Kinds = sellKinds
	q.Special = scope
	return s.page(ctx, q)
}

func (s *CatalogService) Favorites(ctx context.Context, userID string) ([]ProductItem, error) {
	products, err := s.users.Favorites(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	kept := products[:0]
	for _, p := range products {
		if p.Kind != models.ProductParent {
			kept = append(kept, p)
		}
	}
	return s.items(ctx, kept)
}

func (s *CatalogService) AddFavorite(ctx context.Context, userID, productID string) error {
	product, err := s.products.FindActiveByID(ctx, productID)
	if err != nil {
		return fmt.Errorf("find product: %w", err)
	}
	if product == nil || product.Kind == models.ProductParent {
		return ErrProductNotFound
	}
	if err := s.users.AddFavorite(ctx, userID, productID); err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	zap.L().Debug("CatalogService.AddFavorite: added", zap.String("user_id", userID), zap.String("product_id", productID))
	return nil
}

func (s *CatalogService) RemoveFavorite(ctx context.Context, userID, productID string) error {
	removed, err := s.users.RemoveFavorite(ctx, userID, productID)
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	if !removed {
		return ErrProductNotFound
	}
	return nil
}
