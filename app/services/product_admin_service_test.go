package services

import (
	"context"
	"testing"

	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newProductAdmin(t *testing.T) (*gorm.DB, catalog, *ProductAdminService, models.ProductProperty) {
	t.Helper()
	db := newTestDB(t)
	cat := seedCatalog(t, db)
	color := models.ProductProperty{Name: "Color", Slug: "color", Type: models.PropertyText, Required: true, Activity: true}
	require.NoError(t, db.Create(&color).Error)
	require.NoError(t, db.Model(&cat.Type).Association("Properties").Append(&color))
	return db, cat, NewProductAdminService(db, repositories.NewProductRepository(db)), color
}

func TestProductAdminService_CreateValidates(t *testing.T) {
	_, _, admin, _ := newProductAdmin(t)

	_, err := admin.Create(context.Background(), &ProductForm{Product: models.Product{Name: "Bare", Slug: "bare", Kind: models.ProductUnique}})
	var fe models.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Unique product should contain a category", fe["category"])
	assert.Contains(t, fe, "art")
	assert.Contains(t, fe, "price")
}

func TestProductAdminService_RequiredProperty(t *testing.T) {
	db, cat, admin, color := newProductAdmin(t)
	ctx := context.Background()

	form := func() *ProductForm {
		return &ProductForm{Product: models.Product{
			Name: "Drill", Slug: "drill-1", Kind: models.ProductUnique,
			CategoryID: &cat.Leaf.ID, ProductTypeID: &cat.Type.ID,
			Art: ptr(int64(77)), Price: nullDec("100"), BaseAmount: nullDec("1"), Activity: true,
		}}
	}

	_, err := admin.Create(ctx, form())
	var fe models.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Value Color is required", fe["color"])

	f := form()
	f.Values = map[string]string{"color": "red"}
	created, err := admin.Create(ctx, f)
	require.NoError(t, err)

	var value models.ProductPropertyValue
	require.NoError(t, db.First(&value, "product_id = ? AND property_id = ?", created.ID, color.ID).Error)
	require.NotNil(t, value.ValueText)
	assert.Equal(t, "red", *value.ValueText)

	updated, err := admin.Update(ctx, created.ID, func(f *ProductForm) error {
		f.Price = nullDec("120")
		f.Values = map[string]string{"color": "blue"}
		return nil
	})
	require.NoError(t, err)
	assertDecimal(t, "120", updated.Price.Decimal)

	var count int64
	require.NoError(t, db.Model(&models.ProductPropertyValue{}).Where("product_id = ?", created.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	require.NoError(t, db.First(&value, "product_id = ?", created.ID).Error)
	assert.Equal(t, "blue", *value.ValueText)
}

func TestProductAdminService_ChildCopiesParentValues(t *testing.T) {
	db, cat, admin, color := newProductAdmin(t)
	ctx := context.Background()

	parent, err := admin.Create(ctx, &ProductForm{
		Product: models.Product{
			Name: "Drill family", Slug: "drill-family", Kind: models.ProductParent,
			CategoryID: &cat.Leaf.ID, ProductTypeID: &cat.Type.ID, BaseAmount: nullDec("1"), Activity: true,
		},
		Values: map[string]string{"color": "green"},
	})
	require.NoError(t, err)

	_, err = admin.Create(ctx, &ProductForm{Product: models.Product{
		Name: "Orphan", Slug: "orphan", Kind: models.ProductChild, Art: ptr(int64(5)), Price: nullDec("10"),
	}})
	var fe models.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Child product must have a parent", fe["parent"])

	child, err := admin.Create(ctx, &ProductForm{Product: models.Product{
		Name: "Drill family 18V", Slug: "drill-family-18v", Kind: models.ProductChild,
		ParentID: &parent.ID, Art: ptr(int64(6)), Price: nullDec("150"), Activity: true,
	}})
	require.NoError(t, err)

	var value models.ProductPropertyValue
	require.NoError(t, db.First(&value, "product_id = ? AND property_id = ?", child.ID, color.ID).Error)
	require.NotNil(t, value.ValueText)
	assert.Equal(t, "green", *value.ValueText)

	require.NoError(t, admin.Delete(ctx, child.ID))
	_, err = admin.Get(ctx, child.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}
