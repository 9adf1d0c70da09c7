package services

import (
	"context"
	"fmt"
	"time"

	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/repositories"
	"github.com/klioshop/klio/app/utils/calc"
	"github.com/shopspring/decimal"
)

// SpecialPrice is the part of a running special that applies to one product.
type SpecialPrice struct {
	Slug      string          `json:"slug"`
	Threshold int             `json:"threshold"`
	NewPrice  decimal.Decimal `json:"new_price"`
}

// SpecialIndex answers "which special applies to this product" for a fixed
// set of running specials.
type SpecialIndex struct {
	specials []models.Special
}

func NewSpecialIndex(specials []models.Special, now time.Time) *SpecialIndex {
	running := make([]models.Special, 0, len(specials))
	for _, s := range specials {
		if s.IsRunning(now) {
			running = append(running, s)
		}
	}
	return &SpecialIndex{specials: running}
}

func (i *SpecialIndex) Running() []models.Special {
	return i.specials
}

// Resolve picks the product's own special first, then one covering its
// category, then one covering any of its active tags.
func (i *SpecialIndex) Resolve(p *models.Product) *SpecialPrice {
	if i == nil || !p.Price.Valid {
		return nil
	}

	for si := range i.specials {
		s := &i.specials[si]
		for _, rel := range s.Products {
			if rel.ProductID != p.ID {
				continue
			}
			if rel.DiscountAmount.Valid {
				return specialPrice(s, calc.ApplyDiscount(p.Price.Decimal, calc.Fixed, rel.DiscountAmount.Decimal))
			}
			return specialPrice(s, discounted(s, p.Price.Decimal))
		}
	}

	if categoryID := p.EffectiveCategoryID(); categoryID != nil {
		for si := range i.specials {
			s := &i.specials[si]
			for _, c := range s.Categories {
				if c.ID == *categoryID {
					return specialPrice(s, discounted(s, p.Price.Decimal))
				}
			}
		}
	}

	for _, tag := range p.EffectiveTags() {
		if !tag.Activity {
			continue
		}
		for si := range i.specials {
			s := &i.specials[si]
			for _, t := range s.Tags {
				if t.ID == tag.ID {
					return specialPrice(s, discounted(s, p.Price.Decimal))
				}
			}
		}
	}
	return nil
}

func discounted(s *models.Special, price decimal.Decimal) decimal.Decimal {
	if !s.DiscountAmount.Valid {
		return price.Round(2)
	}
	return calc.ApplyDiscount(price, s.DiscountType, s.DiscountAmount.Decimal)
}

func specialPrice(s *models.Special, price decimal.Decimal) *SpecialPrice {
	return &SpecialPrice{Slug: s.Slug, Threshold: s.ThresholdValue(), NewPrice: price}
}

// EffectivePrice is what one unit costs when qty units sit in a basket.
func EffectivePrice(p *models.Product, special *SpecialPrice, qty int) decimal.Decimal {
	price := p.Price.Decimal
	if special != nil {
		price = special.NewPrice
	}
	if p.WholesaleThreshold.Valid && p.WholesalePrice.Valid &&
		decimal.NewFromInt(int64(qty)).GreaterThanOrEqual(p.WholesaleThreshold.Decimal) {
		price = p.WholesalePrice.Decimal
	}
	return price
}

// Pricer builds special indexes from the database.
type Pricer struct {
	specials repositories.SpecialRepository
	now      func() time.Time
}

func NewPricer(specials repositories.SpecialRepository) *Pricer {
	return &Pricer{specials: specials, now: time.Now}
}

func (p *Pricer) Index(ctx context.Context) (*SpecialIndex, error) {
	specials, err := p.specials.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load specials: %w", err)
	}
	return NewSpecialIndex(specials, p.now()), nil
}
