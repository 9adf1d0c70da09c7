package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/repositories"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProductForm is the back-office shape of a product: the product columns
// plus its relations by id and its property values by property slug.
type ProductForm struct {
	models.Product
	TagIDs         []string          `json:"tags"`
	RecommendedIDs []string          `json:"recommended"`
	Values         map[string]string `json:"values"`
}

type ProductAdminService struct {
	db       *gorm.DB
	products repositories.ProductRepositoryImpl
}

func NewProductAdminService(db *gorm.DB, products repositories.ProductRepositoryImpl) *ProductAdminService {
	return &ProductAdminService{db: db, products: products}
}

func (s *ProductAdminService) Get(ctx context.Context, id string) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// List returns every product, active or not.
func (s *ProductAdminService) List(ctx context.Context) ([]models.Product, error) {
	products, err := s.products.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Form returns the product in the shape Create and Update accept.
func (s *ProductAdminService) Form(ctx context.Context, id string) (*ProductForm, error) {
	form, err := s.form(ctx, id)
	if err != nil {
		return nil, err
	}
	values, err := s.products.Values(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load values: %w", err)
	}
	form.Values = map[string]string{}
	for i := range values {
		if prop := values[i].Property; prop != nil {
			form.Values[prop.Slug] = values[i].String(prop.Type)
		}
	}
	return form, nil
}

func (s *ProductAdminService) form(ctx context.Context, id string) (*ProductForm, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	form := &ProductForm{Product: *existing, TagIDs: []string{}, RecommendedIDs: []string{}}
	for _, t := range existing.Tags {
		form.TagIDs = append(form.TagIDs, t.ID)
	}
	recommended, err := s.products.Recommended(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("recommended products: %w", err)
	}
	for _, p := range recommended {
		form.RecommendedIDs = append(form.RecommendedIDs, p.ID)
	}
	return form, nil
}

func (s *ProductAdminService) Create(ctx context.Context, form *ProductForm) (*models.Product, error) {
	form.ID = ""
	if err := s.save(ctx, form, true); err != nil {
		return nil, err
	}
	zap.L().Info("ProductAdminService.Create: product created", zap.String("product_id", form.ID))
	return s.Get(ctx, form.ID)
}

// Update loads the product into a form, lets apply overwrite it and saves
// the result.
func (s *ProductAdminService) Update(ctx context.Context, id string, apply func(*ProductForm) error) (*models.Product, error) {
	form, err := s.form(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := apply(form); err != nil {
		return nil, err
	}
	form.ID = id
	if err := s.save(ctx, form, false); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *ProductAdminService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

func (s *ProductAdminService) save(ctx context.Context, form *ProductForm, create bool) error {
	product := &form.Product
	product.Parent, product.Category, product.Brand, product.Unit, product.ProductType = nil, nil, nil, nil, nil
	product.Images, product.PropertyValues = nil, nil

	var parent *models.Product
	if product.ParentID != nil && *product.ParentID != "" {
		found, err := s.products.FindByID(ctx, *product.ParentID)
		if err != nil {
			return fmt.Errorf("find parent: %w", err)
		}
		if found != nil && found.Kind == models.ProductParent {
			parent = found
		}
	}
	if errs := product.Validate(parent); len(errs) > 0 {
		return errs
	}

	if err := s.db.WithContext(ctx).Where("id IN ?", nonEmptyIDs(form.TagIDs)).Find(&product.Tags).Error; err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	recommended, err := s.products.FindByIDs(ctx, form.RecommendedIDs)
	if err != nil {
		return fmt.Errorf("load recommended: %w", err)
	}
	product.Recommended = recommended

	product.Parent = parent
	values, err := s.prepareValues(ctx, product, form.Values)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if create {
			if err := s.products.Create(ctx, tx, product); err != nil {
				return fmt.Errorf("create product: %w", err)
			}
		} else if err := s.products.Update(ctx, tx, product); err != nil {
			return fmt.Errorf("update product: %w", err)
		}
		for i := range values {
			values[i].ProductID = product.ID
			if err := s.products.SaveValue(ctx, tx, &values[i]); err != nil {
				return fmt.Errorf("save property value: %w", err)
			}
		}
		return nil
	})
}

// prepareValues builds a value row for every property of the product's
// effective type. A new row on a child starts as a copy of the parent's
// value. Required properties must end up set unless the product is a child.
func (s *ProductAdminService) prepareValues(ctx context.Context, product *models.Product, raw map[string]string) ([]models.ProductPropertyValue, error) {
	typeID := product.EffectiveProductTypeID()
	if typeID == nil {
		return nil, nil
	}
	props, err := s.products.Properties(ctx, *typeID)
	if err != nil {
		return nil, fmt.Errorf("load properties: %w", err)
	}

	byProperty := map[string]models.ProductPropertyValue{}
	if product.ID != "" {
		existing, err := s.products.Values(ctx, product.ID)
		if err != nil {
			return nil, fmt.Errorf("load values: %w", err)
		}
		for _, v := range existing {
			v.Property = nil
			byProperty[v.PropertyID] = v
		}
	}
	inherited := map[string]models.ProductPropertyValue{}
	if product.IsChild() && product.Parent != nil {
		for _, v := range product.Parent.PropertyValues {
			inherited[v.PropertyID] = v
		}
	}

	errs := models.FieldErrors{}
	values := make([]models.ProductPropertyValue, 0, len(props))
	for _, prop := range props {
		value, found := byProperty[prop.ID]
		if !found {
			value = models.ProductPropertyValue{PropertyID: prop.ID}
			if pv, ok := inherited[prop.ID]; ok {
				value.CopyFrom(pv)
			}
		}
		if v, ok := raw[prop.Slug]; ok {
			if err := value.SetValue(prop.Type, v); err != nil {
				var fe models.FieldErrors
				if errors.As(err, &fe) {
					errs.Add(prop.Slug, fe["value"])
					continue
				}
				return nil, err
			}
		}
		if prop.Required && !product.IsChild() && value.IsEmpty(prop.Type) {
			errs.Add(prop.Slug, "Value "+prop.Name+" is required")
			continue
		}
		values = append(values, value)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

func nonEmptyIDs(ids []string) []string {
	if len(ids) == 0 {
		return []string{""}
	}
	return ids
}
