package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/klioshop/klio/app/helpers"
	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/repositories"
	"github.com/klioshop/klio/app/utils/format"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"go.uber.org/zap"
)

const utf8BOM = "\ufeff"

var orderCSVHeader = []string{
	"Заказ",
	"Получено",
	"Покупатель",
	"Email покупателя",
	"Статус",
	"Доставка",
	"Стоимость доставки",
	"Оплачено",
	"Цена",
	"Промо",
	"Промокод",
	"Город",
	"Товары",
}

var orderStatusLabels = map[string]string{
	models.OrderStatusActive:    "Заказ активен",
	models.OrderStatusPending:   "Заказ в обработке",
	models.OrderStatusDelivery:  "Заказ доставляется",
	models.OrderStatusCompleted: "Заказ выполнен",
	models.OrderStatusDenied:    "Заказ отклонен",
}

var deliveryTypeLabels = map[string]string{
	models.DeliveryPickup:  "Самовывоз",
	models.DeliveryCourier: "Курьер",
	models.DeliveryCompany: "Транспортная компания",
}

var paymentTypeLabels = map[string]string{
	models.PaymentCard:     "Банковской картой",
	models.PaymentCash:     "Наличными",
	models.PaymentTransfer: "Безналичный расчёт",
}

var productSheetHeader = []string{
	"ID",
	"Артикул",
	"Название",
	"Вид",
	"Родитель",
	"Категория",
	"Тип",
	"Бренд",
	"Цена",
	"Базовое количество",
	"В наличии",
	"Оптовый порог",
	"Оптовая цена",
	"Активность",
}

// ImportReport counts what an import did. Errors are per-row messages
// keyed by the 1-based row number.
type ImportReport struct {
	Created int               `json:"created"`
	Updated int               `json:"updated"`
	Skipped int               `json:"skipped"`
	Errors  map[string]string `json:"errors"`
}

func newImportReport() *ImportReport {
	return &ImportReport{Errors: map[string]string{}}
}

func (r *ImportReport) fail(row int, err error) {
	r.Skipped++
	r.Errors[strconv.Itoa(row)] = err.Error()
}

type ExchangeService struct {
	orders     repositories.OrderRepository
	products   repositories.ProductRepositoryImpl
	categories repositories.CategoryRepositoryImpl
	brands     repositories.BrandRepositoryImpl
	admin      *ProductAdminService
}

func NewExchangeService(
	orders repositories.OrderRepository,
	products repositories.ProductRepositoryImpl,
	categories repositories.CategoryRepositoryImpl,
	brands repositories.BrandRepositoryImpl,
	admin *ProductAdminService,
) *ExchangeService {
	return &ExchangeService{
		orders:     orders,
		products:   products,
		categories: categories,
		brands:     brands,
		admin:      admin,
	}
}

func yesNo(b bool) string {
	if b {
		return "Да"
	}
	return "Нет"
}

func orderLines(order *models.Order) string {
	if order.Basket == nil {
		return ""
	}
	var b strings.Builder
	for _, line := range order.Basket.Products {
		art := ""
		if line.Product.Art != nil {
			art = strconv.FormatInt(*line.Product.Art, 10)
		}
		price := line.UnitPrice()
		fmt.Fprintf(&b, "%s %s, цена: %s, кол-во: %d, сумма: %s;",
			art, line.Product.Name, format.Plain(price), line.Quantity, format.Plain(line.Total()))
	}
	return b.String()
}

func orderCSVRow(order *models.Order) []string {
	received := "-"
	if order.Received != nil {
		received = order.Received.Format("2006-01-02 15:04")
	}

	customer, email := "-", "-"
	switch {
	case order.User != nil:
		customer, email = order.User.DisplayName(), order.User.Email
	case order.PrivateInfo != nil:
		customer = fmt.Sprintf("%s %s (без регистрации)", order.PrivateInfo.LastName, order.PrivateInfo.FirstName)
		email = order.PrivateInfo.Email
	}

	delivery, deliveryPrice, city := "-", "-", "-"
	if d := order.DeliveryInfo; d != nil {
		delivery = deliveryTypeLabels[d.Type]
		deliveryPrice = format.Plain(d.Price)
		if d.ToCity != nil {
			city = d.ToCity.Name
		}
	}

	price := "-"
	if order.Price.Valid {
		price = format.Plain(order.Price.Decimal)
	}

	return []string{
		"Заказ #" + order.ID,
		received,
		customer,
		email,
		orderStatusLabels[order.Status],
		delivery,
		deliveryPrice,
		yesNo(order.IsPaid),
		price,
		yesNo(order.Promo),
		order.PromoCode,
		city,
		orderLines(order),
	}
}

// WriteOrdersCSV writes the orders matching filter as an Excel-friendly
// UTF-8 CSV.
func (s *ExchangeService) WriteOrdersCSV(ctx context.Context, w io.Writer, filter repositories.OrderFilter) error {
	orders, err := s.orders.List(ctx, filter)
	if err != nil {
		return fmt.Errorf("list orders: %w", err)
	}

	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write(orderCSVHeader); err != nil {
		return err
	}
	for i := range orders {
		if err := writer.Write(orderCSVRow(&orders[i])); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteProductCategoriesCSV writes one "art, category id" row per product
// that has both.
func (s *ExchangeService) WriteProductCategoriesCSV(ctx context.Context, w io.Writer) error {
	products, err := s.products.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}

	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Артикул", "Категория"}); err != nil {
		return err
	}
	for _, p := range products {
		if p.Art == nil || p.CategoryID == nil {
			continue
		}
		if err := writer.Write([]string{strconv.FormatInt(*p.Art, 10), *p.CategoryID}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func (s *ExchangeService) findCategory(ctx context.Context, ref string) (*models.Category, error) {
	category, err := s.categories.FindByID(ctx, ref)
	if err != nil || category != nil {
		return category, err
	}
	return s.categories.FindByName(ctx, ref)
}

// ImportProductCategoriesCSV re-assigns product categories by art. The
// category column takes an id or an exact name.
func (s *ExchangeService) ImportProductCategoriesCSV(ctx context.Context, r io.Reader) (*ImportReport, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	report := newImportReport()
	for i, record := range records {
		if i == 0 {
			continue
		}
		row := i + 1
		if len(record) < 2 {
			report.fail(row, errors.New("expected art and category"))
			continue
		}
		art, err := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(record[0], utf8BOM)), 10, 64)
		if err != nil {
			report.fail(row, fmt.Errorf("bad art %q", record[0]))
			continue
		}
		category, err := s.findCategory(ctx, strings.TrimSpace(record[1]))
		if err != nil {
			return nil, fmt.Errorf("find category: %w", err)
		}
		if category == nil {
			report.fail(row, fmt.Errorf("unknown category %q", record[1]))
			continue
		}
		updated, err := s.products.UpdateCategory(ctx, art, category.ID)
		if err != nil {
			return nil, fmt.Errorf("update category of %d: %w", art, err)
		}
		if !updated {
			report.fail(row, fmt.Errorf("no product with art %d", art))
			continue
		}
		report.Updated++
	}
	zap.L().Info("ExchangeService.ImportProductCategoriesCSV: done", zap.Int("updated", report.Updated), zap.Int("skipped", report.Skipped))
	return report, nil
}

func nullDecimalCell(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

// WriteProductsXLSX writes every product as one sheet row.
func (s *ExchangeService) WriteProductsXLSX(ctx context.Context, w io.Writer) error {
	products, err := s.products.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	header := sheet.AddRow()
	for _, h := range productSheetHeader {
		header.AddCell().SetValue(h)
	}

	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID)
		if p.Art != nil {
			row.AddCell().SetInt64(*p.Art)
		} else {
			row.AddCell().SetValue("")
		}
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(p.Kind)
		parent := ""
		if p.ParentID != nil {
			parent = *p.ParentID
		}
		row.AddCell().SetValue(parent)
		category, productType, brand := "", "", ""
		if p.Category != nil {
			category = p.Category.Name
		}
		if p.ProductType != nil {
			productType = p.ProductType.Slug
		}
		if p.Brand != nil {
			brand = p.Brand.Slug
		}
		row.AddCell().SetValue(category)
		row.AddCell().SetValue(productType)
		row.AddCell().SetValue(brand)
		row.AddCell().SetValue(nullDecimalCell(p.Price))
		row.AddCell().SetValue(nullDecimalCell(p.BaseAmount))
		row.AddCell().SetValue(p.InStock.String())
		row.AddCell().SetValue(nullDecimalCell(p.WholesaleThreshold))
		row.AddCell().SetValue(nullDecimalCell(p.WholesalePrice))
		row.AddCell().SetBool(p.Activity)
	}

	return file.Write(w)
}

type sheetRow []*xlsx.Cell

func (r sheetRow) text(i int) string {
	if i >= len(r) || r[i] == nil {
		return ""
	}
	return strings.TrimSpace(r[i].String())
}

func parseNullDecimal(raw string) (decimal.NullDecimal, error) {
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("bad number %q", raw)
	}
	return decimal.NewNullDecimal(d), nil
}

func parseActivity(raw string) bool {
	switch strings.ToLower(raw) {
	case "1", "true", "да", "yes":
		return true
	}
	return false
}

// ImportProductsXLSX upserts products from the first sheet. Rows are matched
// by art, then by id; anything else is created. Each row goes through the
// same validation as the back-office form.
func (s *ExchangeService) ImportProductsXLSX(ctx context.Context, data []byte) (*ImportReport, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	if len(file.Sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	report := newImportReport()
	for i, r := range file.Sheets[0].Rows {
		if i == 0 || r == nil {
			continue
		}
		row := sheetRow(r.Cells)
		if row.text(2) == "" {
			continue
		}
		created, err := s.importProductRow(ctx, row)
		if err != nil {
			var fe models.FieldErrors
			if errors.As(err, &fe) || errors.Is(err, errBadRow) {
				report.fail(i+1, err)
				continue
			}
			return nil, err
		}
		if created {
			report.Created++
		} else {
			report.Updated++
		}
	}
	zap.L().Info("ExchangeService.ImportProductsXLSX: done",
		zap.Int("created", report.Created), zap.Int("updated", report.Updated), zap.Int("skipped", report.Skipped))
	return report, nil
}

var errBadRow = errors.New("bad row")

func (s *ExchangeService) importProductRow(ctx context.Context, row sheetRow) (bool, error) {
	var existing *models.Product
	var err error

	var art *int64
	if raw := row.text(1); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return false, fmt.Errorf("%w: art %q", errBadRow, raw)
		}
		art = &n
		if existing, err = s.products.FindByArt(ctx, n); err != nil {
			return false, err
		}
	}
	if existing == nil && row.text(0) != "" {
		if existing, err = s.products.FindByID(ctx, row.text(0)); err != nil {
			return false, err
		}
	}

	fill := func(form *ProductForm) error {
		p := &form.Product
		p.Art = art
		p.Name = row.text(2)
		if kind := row.text(3); kind != "" {
			p.Kind = kind
		}
		p.ParentID = optionalID(row.text(4))
		p.CategoryID, p.ProductTypeID, p.BrandID = nil, nil, nil

		if name := row.text(5); name != "" {
			category, err := s.findCategory(ctx, name)
			if err != nil {
				return err
			}
			if category == nil {
				return fmt.Errorf("%w: unknown category %q", errBadRow, name)
			}
			p.CategoryID = &category.ID
		}
		if slug := row.text(6); slug != "" {
			productType, err := s.products.FindProductType(ctx, slug)
			if err != nil {
				return err
			}
			if productType == nil {
				return fmt.Errorf("%w: unknown product type %q", errBadRow, slug)
			}
			p.ProductTypeID = &productType.ID
		}
		if slug := row.text(7); slug != "" {
			brand, err := s.brands.FindBySlug(ctx, slug)
			if err != nil {
				return err
			}
			if brand == nil {
				return fmt.Errorf("%w: unknown brand %q", errBadRow, slug)
			}
			p.BrandID = &brand.ID
		}

		var perr error
		if p.Price, perr = parseNullDecimal(row.text(8)); perr != nil {
			return fmt.Errorf("%w: %v", errBadRow, perr)
		}
		if p.BaseAmount, perr = parseNullDecimal(row.text(9)); perr != nil {
			return fmt.Errorf("%w: %v", errBadRow, perr)
		}
		stock, perr := parseNullDecimal(row.text(10))
		if perr != nil {
			return fmt.Errorf("%w: %v", errBadRow, perr)
		}
		p.InStock = stock.Decimal
		if p.WholesaleThreshold, perr = parseNullDecimal(row.text(11)); perr != nil {
			return fmt.Errorf("%w: %v", errBadRow, perr)
		}
		if p.WholesalePrice, perr = parseNullDecimal(row.text(12)); perr != nil {
			return fmt.Errorf("%w: %v", errBadRow, perr)
		}
		p.Activity = parseActivity(row.text(13))
		if p.Slug == "" {
			p.Slug = uniqueSlug(p.Name, art)
		}
		return nil
	}

	if existing != nil {
		_, err := s.admin.Update(ctx, existing.ID, fill)
		return false, err
	}
	form := &ProductForm{}
	if err := fill(form); err != nil {
		return false, err
	}
	_, err = s.admin.Create(ctx, form)
	return true, err
}

func uniqueSlug(name string, art *int64) string {
	slug := helpers.GenerateSlug(name)
	if art != nil {
		slug += "-" + strconv.FormatInt(*art, 10)
	}
	return slug
}
