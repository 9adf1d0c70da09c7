package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/klioshop/klio/app/configs"
	"github.com/klioshop/klio/app/db/seeders"
	"github.com/klioshop/klio/app/models/migrations"
	"github.com/klioshop/klio/app/repositories"
	"github.com/klioshop/klio/app/services"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func exchangeService(db *gorm.DB) *services.ExchangeService {
	products := repositories.NewProductRepository(db)
	return services.NewExchangeService(
		repositories.NewOrderRepository(db),
		products,
		repositories.NewCategoryRepository(db),
		repositories.NewBrandRepository(db),
		services.NewProductAdminService(db, products),
	)
}

// withDB opens the database for commands that need it.
func withDB(action func(ctx context.Context, c *cli.Command, db *gorm.DB) error) cli.ActionFunc {
	return func(ctx context.Context, c *cli.Command) error {
		db, err := configs.OpenConnection()
		if err != nil {
			return err
		}
		return action(ctx, c, db)
	}
}

func importProducts(ctx context.Context, c *cli.Command, db *gorm.DB) error {
	path := c.String("file")
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	exchange := exchangeService(db)
	var report *services.ImportReport
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		report, err = exchange.ImportProductsXLSX(ctx, data)
	case ".csv":
		report, err = exchange.ImportProductCategoriesCSV(ctx, bytes.NewReader(data))
	default:
		return fmt.Errorf("unsupported file type %q, want .xlsx or .csv", filepath.Ext(path))
	}
	if err != nil {
		return err
	}
	for row, msg := range report.Errors {
		zap.L().Warn("import-products: row skipped", zap.String("row", row), zap.String("error", msg))
	}
	zap.L().Info("import-products: done",
		zap.Int("created", report.Created), zap.Int("updated", report.Updated), zap.Int("skipped", report.Skipped))
	return nil
}

func exportProducts(ctx context.Context, c *cli.Command, db *gorm.DB) error {
	path := c.String("file")
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	exchange := exchangeService(db)
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		err = exchange.WriteProductCategoriesCSV(ctx, file)
	} else {
		err = exchange.WriteProductsXLSX(ctx, file)
	}
	if err != nil {
		return err
	}
	zap.L().Info("export-products: written", zap.String("file", path))
	return nil
}

func exportOrders(ctx context.Context, c *cli.Command, db *gorm.DB) error {
	path := c.String("file")
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	filter := repositories.OrderFilter{Status: c.String("status")}
	if err := exchangeService(db).WriteOrdersCSV(ctx, file, filter); err != nil {
		return err
	}
	zap.L().Info("export-orders: written", zap.String("file", path))
	return nil
}

func RunCli() {
	fileFlag := func(usage string) *cli.StringFlag {
		return &cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: usage, Required: true}
	}

	cmd := &cli.Command{
		Name:  "klio",
		Usage: "klio storefront maintenance commands",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Run database migration",
				Action: withDB(func(ctx context.Context, c *cli.Command, db *gorm.DB) error {
					if err := migrations.EnableTrigram(db); err != nil {
						return fmt.Errorf("enable pg_trgm: %w", err)
					}
					if err := migrations.AutoMigrate(db); err != nil {
						return err
					}
					zap.L().Info("Migration complete")
					return nil
				}),
			},
			{
				Name:  "generate-keys",
				Usage: "Generate new session authentication and encryption keys for .env",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Value: "session_keys.env", Usage: "where to write the keys"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					if _, err := configs.GenerateSessionKeys(c.String("file")); err != nil {
						return err
					}
					zap.L().Info("Key generation complete, copy the keys to your .env file", zap.String("file", c.String("file")))
					return nil
				},
			},
			{
				Name:  "seed",
				Usage: "Fill the database with a demo catalog",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "staff-email", Usage: "create a staff account with this email"},
					&cli.StringFlag{Name: "staff-password", Value: "admin", Usage: "password of the staff account"},
					&cli.IntFlag{Name: "products", Value: 8, Usage: "products per leaf category"},
				},
				Action: withDB(func(ctx context.Context, c *cli.Command, db *gorm.DB) error {
					opts := seeders.DefaultOptions()
					opts.StaffEmail = c.String("staff-email")
					opts.StaffPassword = c.String("staff-password")
					opts.ProductsPerLeaf = int(c.Int("products"))
					return seeders.DBSeed(db.WithContext(ctx), opts)
				}),
			},
			{
				Name:   "import-products",
				Usage:  "Upsert products from an .xlsx sheet or re-assign categories from a .csv",
				Flags:  []cli.Flag{fileFlag("input file")},
				Action: withDB(importProducts),
			},
			{
				Name:   "export-products",
				Usage:  "Write products to an .xlsx sheet, or art/category pairs to a .csv",
				Flags:  []cli.Flag{fileFlag("output file")},
				Action: withDB(exportProducts),
			},
			{
				Name:  "export-orders",
				Usage: "Write orders to a CSV file",
				Flags: []cli.Flag{
					fileFlag("output file"),
					&cli.StringFlag{Name: "status", Usage: "only orders with this status"},
				},
				Action: withDB(exportOrders),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		zap.L().Fatal("command failed", zap.Error(err))
	}
}
