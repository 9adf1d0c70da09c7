package seeders

import (
	"fmt"

	"github.com/klioshop/klio/app/db/fakers"
	"github.com/klioshop/klio/app/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Options struct {
	Users           int
	RootCategories  int
	ChildCategories int
	Brands          int
	ProductsPerLeaf int
	StaffEmail      string
	StaffPassword   string
	FirstArt        int64
}

func DefaultOptions() Options {
	return Options{
		Users:           5,
		RootCategories:  3,
		ChildCategories: 3,
		Brands:          4,
		ProductsPerLeaf: 8,
		FirstArt:        100000,
	}
}

// DBSeed fills an empty database with a browsable demo catalog in one
// transaction.
func DBSeed(db *gorm.DB, opts Options) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if opts.StaffEmail != "" {
			staff, err := fakers.StaffFaker(opts.StaffEmail, opts.StaffPassword)
			if err != nil {
				return err
			}
			if err := tx.Where("email = ?", staff.Email).FirstOrCreate(staff).Error; err != nil {
				return fmt.Errorf("seed staff: %w", err)
			}
		}
		for i := 0; i < opts.Users; i++ {
			user, err := fakers.UserFaker()
			if err != nil {
				return err
			}
			if err := tx.Create(user).Error; err != nil {
				return fmt.Errorf("seed user: %w", err)
			}
		}

		unit := &models.Unit{Name: "шт"}
		if err := tx.Where("name = ?", unit.Name).FirstOrCreate(unit).Error; err != nil {
			return fmt.Errorf("seed unit: %w", err)
		}

		brands := make([]*models.Brand, 0, opts.Brands)
		for i := 0; i < opts.Brands; i++ {
			brand := fakers.BrandFaker()
			if err := tx.Create(brand).Error; err != nil {
				return fmt.Errorf("seed brand: %w", err)
			}
			brands = append(brands, brand)
		}

		menu := &models.Menu{Name: "Каталог", Position: models.MenuHeader, Activity: true}
		if err := tx.Create(menu).Error; err != nil {
			return fmt.Errorf("seed menu: %w", err)
		}

		art := opts.FirstArt
		products := 0
		for i := 0; i < opts.RootCategories; i++ {
			root := fakers.CategoryFaker(nil)
			if err := tx.Create(root).Error; err != nil {
				return fmt.Errorf("seed category: %w", err)
			}
			item := &models.MenuItem{
				Name:        root.Name,
				Slug:        root.Slug,
				MenuID:      menu.ID,
				SortOrder:   i,
				RelatedType: models.MenuRelatedCategory,
				Activity:    true,
			}
			if err := tx.Create(item).Error; err != nil {
				return fmt.Errorf("seed menu item: %w", err)
			}

			for j := 0; j < opts.ChildCategories; j++ {
				leaf := fakers.CategoryFaker(root)
				if err := tx.Create(leaf).Error; err != nil {
					return fmt.Errorf("seed category: %w", err)
				}
				for k := 0; k < opts.ProductsPerLeaf; k++ {
					var brand *models.Brand
					if len(brands) > 0 {
						brand = brands[(j+k)%len(brands)]
					}
					art++
					if err := tx.Create(fakers.ProductFaker(leaf, brand, unit, art)).Error; err != nil {
						return fmt.Errorf("seed product: %w", err)
					}
					products++
				}
			}
		}

		if err := tx.Create(&models.SiteSettings{Description: "klio", Activity: true}).Error; err != nil {
			return fmt.Errorf("seed settings: %w", err)
		}

		zap.L().Info("DBSeed: seeded demo data", zap.Int("users", opts.Users), zap.Int("products", products))
		return nil
	})
}
