package fakers

import (
	"math"
	"math/rand"

	"github.com/go-faker/faker/v4"
	"github.com/gosimple/slug"
	"github.com/klioshop/klio/app/models"
	"github.com/shopspring/decimal"
)

func CategoryFaker(parent *models.Category) *models.Category {
	name := faker.Word() + " " + faker.Word()
	category := &models.Category{
		Name:        name,
		Slug:        slug.Make(name + "-" + faker.UUIDDigit()[:6]),
		Description: faker.Sentence(),
		Activity:    true,
	}
	if parent != nil {
		category.ParentID = &parent.ID
	} else {
		category.OnMain = rand.Intn(2) == 0
	}
	return category
}

func BrandFaker() *models.Brand {
	name := faker.LastName()
	return &models.Brand{
		Name:        name,
		Slug:        slug.Make(name + "-" + faker.UUIDDigit()[:6]),
		Description: faker.Paragraph(),
		Activity:    true,
	}
}

// ProductFaker builds an active unique product; art is the catalog number
// and must be unique across the seed run.
func ProductFaker(category *models.Category, brand *models.Brand, unit *models.Unit, art int64) *models.Product {
	name := faker.Word() + " " + faker.Word()
	product := &models.Product{
		Name:        name,
		Slug:        slug.Make(name + "-" + decimal.NewFromInt(art).String()),
		Description: faker.Paragraph(),
		Kind:        models.ProductUnique,
		CategoryID:  &category.ID,
		Art:         &art,
		InStock:     decimal.NewFromInt(int64(rand.Intn(50))),
		Price:       decimal.NewNullDecimal(decimal.NewFromFloat(fakePrice())),
		BaseAmount:  decimal.NewNullDecimal(decimal.NewFromInt(1)),
		IsNew:       models.IsNewCalculated,
		Activity:    true,
	}
	if brand != nil {
		product.BrandID = &brand.ID
	}
	if unit != nil {
		product.UnitID = &unit.ID
	}
	return product
}

func fakePrice() float64 {
	return precision(100+rand.Float64()*math.Pow10(rand.Intn(5)), 2)
}

func precision(val float64, pre int) float64 {
	a := math.Pow10(pre)
	return float64(int(val*a)) / a
}
