package services

import (
	"time"

	"github.com/klioshop/klio/app/models"
	"github.com/shopspring/decimal"
)

type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug,omitempty"`
}

type ImageView struct {
	URL   string `json:"url"`
	Label string `json:"label"`
}

// ProductItem is the list representation of a product. Inherited
// attributes are already resolved for children.
type ProductItem struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"`
	Slug               string              `json:"slug"`
	Kind               string              `json:"kind"`
	Parent             *string             `json:"parent"`
	Art                *int64              `json:"art"`
	Category           *Ref                `json:"category"`
	Brand              *Ref                `json:"brand"`
	Units              string              `json:"units"`
	InStock            decimal.Decimal     `json:"in_stock"`
	Price              decimal.NullDecimal `json:"price"`
	BaseAmount         decimal.NullDecimal `json:"base_amount"`
	WholesaleThreshold decimal.NullDecimal `json:"wholesale_threshold"`
	WholesalePrice     decimal.NullDecimal `json:"wholesale_price"`
	Images             []ImageView         `json:"images"`
	Tags               []Ref               `json:"tags"`
	IsNew              *bool               `json:"is_new"`
	Special            *SpecialPrice       `json:"special"`
}

func NewProductItem(p *models.Product, index *SpecialIndex, now time.Time) ProductItem {
	item := ProductItem{
		ID:                 p.ID,
		Name:               p.Name,
		Slug:               p.Slug,
		Kind:               p.Kind,
		Parent:             p.ParentID,
		Art:                p.Art,
		InStock:            p.InStock,
		Price:              p.Price,
		BaseAmount:         p.EffectiveBaseAmount(),
		WholesaleThreshold: p.WholesaleThreshold,
		WholesalePrice:     p.WholesalePrice,
		Images:             []ImageView{},
		Tags:               []Ref{},
		IsNew:              p.NewFlag(now),
		Special:            index.Resolve(p),
	}
	if c := p.EffectiveCategory(); c != nil {
		item.Category = &Ref{ID: c.ID, Name: c.Name, Slug: c.Slug}
	}
	if b := p.EffectiveBrand(); b != nil {
		item.Brand = &Ref{ID: b.ID, Name: b.Name, Slug: b.Slug}
	}
	if u := p.EffectiveUnit(); u != nil {
		item.Units = u.Name
	}

	images := p.Images
	if len(images) == 0 && p.Parent != nil {
		images = p.Parent.Images
	}
	for _, img := range images {
		if img.Activity {
			item.Images = append(item.Images, ImageView{URL: img.Img, Label: img.Label})
		}
	}
	for _, t := range p.EffectiveTags() {
		if t.Activity {
			item.Tags = append(item.Tags, Ref{ID: t.ID, Name: t.Name})
		}
	}
	return item
}

func NewProductItems(products []models.Product, index *SpecialIndex, now time.Time) []ProductItem {
	items := make([]ProductItem, 0, len(products))
	for i := range products {
		items = append(items, NewProductItem(&products[i], index, now))
	}
	return items
}

type BasketLine struct {
	ProductItem
	Quantity     int                 `json:"quantity"`
	CurrentPrice decimal.Decimal     `json:"current_price"`
	PromoPrice   decimal.NullDecimal `json:"promo_price"`
}

type BasketView struct {
	ID       string       `json:"id"`
	Created  time.Time    `json:"created"`
	Modified time.Time    `json:"modified"`
	Products []BasketLine `json:"products"`
}

func NewBasketView(b *models.Basket, index *SpecialIndex, now time.Time) *BasketView {
	view := &BasketView{ID: b.ID, Created: b.CreatedAt, Modified: b.UpdatedAt, Products: []BasketLine{}}
	for i := range b.Products {
		line := &b.Products[i]
		p := &line.Product
		if !p.Activity || p.Kind == models.ProductParent {
			continue
		}
		view.Products = append(view.Products, BasketLine{
			ProductItem:  NewProductItem(p, index, now),
			Quantity:     line.Quantity,
			CurrentPrice: line.Price,
			PromoPrice:   line.PromoPrice,
		})
	}
	return view
}

type CategoryNode struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Img         string         `json:"img"`
	Description string         `json:"description"`
	Order       int            `json:"order"`
	Children    []CategoryNode `json:"children"`
}

type CategoryDetail struct {
	models.Meta
	CategoryNode
	FullName string `json:"full_name"`
	Parents  []Ref  `json:"parents"`
}

type PropertyView struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Units string      `json:"units"`
	Value interface{} `json:"value"`
}

type ProductDetail struct {
	models.Meta
	ProductItem
	Description string         `json:"description"`
	Categories  []Ref          `json:"categories"`
	Properties  []PropertyView `json:"properties"`
	Recommended []ProductItem  `json:"recommended"`
}

type FilterView struct {
	Name     string              `json:"name"`
	Slug     string              `json:"slug"`
	Type     string              `json:"type"`
	Units    string              `json:"units"`
	Value    interface{}         `json:"value"`
	Options  []string            `json:"options"`
	Min      *float64            `json:"min"`
	Max      *float64            `json:"max"`
	Interval decimal.NullDecimal `json:"interval"`
}

type OrderLine struct {
	ProductID  string              `json:"product"`
	Art        *int64              `json:"art"`
	Name       string              `json:"name"`
	Quantity   int                 `json:"quantity"`
	Price      decimal.Decimal     `json:"price"`
	PromoPrice decimal.NullDecimal `json:"promo_price"`
	Total      decimal.Decimal     `json:"total"`
}

// OrderView is an order with its basket lines inlined and the amount due,
// which includes delivery.
type OrderView struct {
	*models.Order
	Products []OrderLine     `json:"products"`
	Total    decimal.Decimal `json:"total"`
}

func NewOrderView(order *models.Order) *OrderView {
	view := &OrderView{Order: order, Products: []OrderLine{}, Total: order.Total()}
	if order.Basket == nil {
		return view
	}
	for i := range order.Basket.Products {
		line := &order.Basket.Products[i]
		view.Products = append(view.Products, OrderLine{
			ProductID:  line.ProductID,
			Art:        line.Product.Art,
			Name:       line.Product.Name,
			Quantity:   line.Quantity,
			Price:      line.Price,
			PromoPrice: line.PromoPrice,
			Total:      line.Total(),
		})
	}
	return view
}

func NewOrderViews(orders []models.Order) []*OrderView {
	views := make([]*OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, NewOrderView(&orders[i]))
	}
	return views
}

// OrderPrint is what the printable order sheet renders.
type OrderPrint struct {
	*OrderView
	StatusLabel   string
	DeliveryLabel string
	PaymentLabel  string
}

func NewOrderPrint(order *models.Order) *OrderPrint {
	view := &OrderPrint{
		OrderView:     NewOrderView(order),
		StatusLabel:   orderStatusLabels[order.Status],
		DeliveryLabel: "-",
		PaymentLabel:  "-",
	}
	if order.DeliveryInfo != nil {
		view.DeliveryLabel = deliveryTypeLabels[order.DeliveryInfo.Type]
	}
	if order.PaymentInfo != nil {
		view.PaymentLabel = paymentTypeLabels[order.PaymentInfo.Type]
	}
	return view
}
