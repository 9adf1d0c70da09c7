package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"
	"testing"

	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

func newExchange(db *gorm.DB) *ExchangeService {
	products := repositories.NewProductRepository(db)
	return NewExchangeService(
		repositories.NewOrderRepository(db),
		products,
		repositories.NewCategoryRepository(db),
		repositories.NewBrandRepository(db),
		NewProductAdminService(db, products),
	)
}

func readCSV(t *testing.T, raw string) [][]string {
	t.Helper()
	require.True(t, strings.HasPrefix(raw, utf8BOM))
	records, err := csv.NewReader(strings.NewReader(strings.TrimPrefix(raw, utf8BOM))).ReadAll()
	require.NoError(t, err)
	return records
}

func TestExchangeService_WriteOrdersCSV(t *testing.T) {
	s := newShop(t)
	order := pendingOrder(t, s)

	var buf bytes.Buffer
	require.NoError(t, newExchange(s.db).WriteOrdersCSV(context.Background(), &buf, repositories.OrderFilter{IDs: []string{order.ID}}))

	records := readCSV(t, buf.String())
	require.Len(t, records, 2)
	assert.Equal(t, orderCSVHeader, records[0])

	row := records[1]
	assert.Equal(t, "Заказ #"+order.ID, row[0])
	assert.Equal(t, "Заказ в обработке", row[4])
	assert.Equal(t, "Курьер", row[5])
	assert.Equal(t, "300.00", row[6])
	assert.Equal(t, "Нет", row[7])
	assert.Equal(t, "251.00", row[8])
	assert.Contains(t, row[12], "Drill, цена: 125.50, кол-во: 2, сумма: 251.00;")
}

func TestExchangeService_ProductCategoriesCSV(t *testing.T) {
	db := newTestDB(t)
	cat := seedCatalog(t, db)
	first := seedProduct(t, db, cat, "First", "10")
	second := seedProduct(t, db, cat, "Second", "10")
	ex := newExchange(db)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, ex.WriteProductCategoriesCSV(ctx, &buf))
	records := readCSV(t, buf.String())
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Артикул", "Категория"}, records[0])
	assert.Equal(t, []string{fmt.Sprint(*first.Art), cat.Leaf.ID}, records[1])

	input := strings.Join([]string{
		utf8BOM + "art,category",
		fmt.Sprintf("%d,%s", *first.Art, cat.Root.ID),
		fmt.Sprintf("%d,Tools", *second.Art),
		"999999,Tools",
		fmt.Sprintf("%d,Nope", *second.Art),
		"abc,Tools",
	}, "\n")
	report, err := ex.ImportProductCategoriesCSV(ctx, strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 2, report.Updated)
	assert.Equal(t, 3, report.Skipped)
	assert.Contains(t, report.Errors["4"], "no product")
	assert.Contains(t, report.Errors["5"], "unknown category")
	assert.Contains(t, report.Errors["6"], "bad art")

	var moved models.Product
	require.NoError(t, db.First(&moved, "id = ?", second.ID).Error)
	assert.Equal(t, cat.Root.ID, *moved.CategoryID)
}

func TestExchangeService_ProductsXLSX(t *testing.T) {
	db := newTestDB(t)
	cat := seedCatalog(t, db)
	existing := seedProduct(t, db, cat, "Drill", "100")
	ex := newExchange(db)
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, ex.WriteProductsXLSX(ctx, &buf))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	sheet := file.Sheets[0]
	require.Len(t, sheet.Rows, 2)
	row := sheet.Rows[1].Cells
	row[2].SetValue("Drill renamed")
	row[8].SetValue("110,5")

	added := sheet.AddRow()
	for _, v := range []string{"", "5555", "New saw", "unique", "", "Drills", "drill", "bosch", "99", "1", "3", "", "", "да"} {
		added.AddCell().SetValue(v)
	}
	broken := sheet.AddRow()
	for _, v := range []string{"", "5556", "Ghost", "unique", "", "Nowhere", "drill", "bosch", "1", "1", "0", "", "", "1"} {
		broken.AddCell().SetValue(v)
	}

	var edited bytes.Buffer
	require.NoError(t, file.Write(&edited))
	report, err := ex.ImportProductsXLSX(ctx, edited.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Created)
	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 1, report.Skipped)
	assert.Contains(t, report.Errors["4"], "unknown category")

	var renamed models.Product
	require.NoError(t, db.First(&renamed, "id = ?", existing.ID).Error)
	assert.Equal(t, "Drill renamed", renamed.Name)
	assertDecimal(t, "110.5", renamed.Price.Decimal)

	var saw models.Product
	require.NoError(t, db.First(&saw, "art = ?", 5555).Error)
	assert.Equal(t, "New saw", saw.Name)
	assert.True(t, saw.Activity)
	assert.Equal(t, "new-saw-5555", saw.Slug)
	assertDecimal(t, "3", saw.InStock)
}
