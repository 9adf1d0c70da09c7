package models

import (
	"unicode"

	"gorm.io/gorm"
)

const (
	MenuHeader    = "header"
	MenuSubheader = "subheader"
	MenuFooter    = "footer"
	MenuLeftbar   = "leftbar"
)

type Menu struct {
	ID       string     `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	Name     string     `gorm:"size:64;not null;uniqueIndex:idx_menu_name_position" json:"name"`
	Position string     `gorm:"size:16;not null;uniqueIndex:idx_menu_name_position" json:"position"`
	Items    []MenuItem `gorm:"foreignKey:MenuID" json:"-"`
	Activity bool       `gorm:"default:false" json:"activity"`
}

func (m *Menu) BeforeSave(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = newID()
	}
	switch m.Position {
	case MenuHeader, MenuSubheader, MenuFooter, MenuLeftbar:
	default:
		return FieldErrors{"position": "Unknown menu position."}
	}
	if !m.Activity {
		return nil
	}

	var count int64
	err = tx.Session(&gorm.Session{NewDB: true}).
		Model(&Menu{}).
		Where("position = ? AND activity = ? AND id <> ?", m.Position, true, m.ID).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return FieldErrors{NonFieldErrors: "Active menu for selected position is already exists. Please, deactivate it first."}
	}
	return nil
}

const (
	MenuRelatedRoot     = "root"
	MenuRelatedCategory = "category"
	MenuRelatedProducts = "products"
	MenuRelatedPage     = "page"
	MenuRelatedArticle  = "article"
	MenuRelatedNews     = "news"
	MenuRelatedSpecial  = "special"
	MenuRelatedExternal = "external"
)

type MenuItem struct {
	ID          string     `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	Name        string     `gorm:"size:64;not null" json:"name"`
	Slug        string     `gorm:"size:128" json:"slug"`
	ParentID    *string    `gorm:"size:36;index" json:"parent"`
	Children    []MenuItem `gorm:"foreignKey:ParentID" json:"-"`
	Icon        string     `gorm:"size:255" json:"icon"`
	SortOrder   int        `gorm:"default:0" json:"order"`
	MenuID      string     `gorm:"size:36;not null;index" json:"menu"`
	RelatedType string     `gorm:"size:16;default:'root'" json:"related_type"`
	Link        string     `gorm:"size:255" json:"link"`
	Activity    bool       `gorm:"default:false" json:"activity"`
}

func (i *MenuItem) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == "" {
		i.ID = newID()
	}
	return
}

// Path is the storefront route the item points at.
func (i *MenuItem) Path() string {
	switch i.RelatedType {
	case MenuRelatedCategory:
		return "/catalog/categories/" + i.Slug
	case MenuRelatedProducts:
		return "/catalog/categories/" + i.Slug + "/products"
	case MenuRelatedPage:
		return "/info/" + i.Slug
	case MenuRelatedArticle:
		return "/articles/" + i.Slug
	case MenuRelatedNews:
		return "/news/" + i.Slug
	case MenuRelatedSpecial:
		return "/specials/" + i.Slug
	case MenuRelatedExternal:
		return i.Link
	default:
		return i.Slug
	}
}

// RootLetters assigns the alphabet index letter to root items in order: the
// first letter of the name, once per letter, skipping digits.
func RootLetters(items []MenuItem) map[string]string {
	seen := map[rune]bool{}
	letters := make(map[string]string, len(items))
	for _, item := range items {
		runes := []rune(item.Name)
		if len(runes) == 0 {
			continue
		}
		first := unicode.ToUpper(runes[0])
		if unicode.IsDigit(first) || seen[first] {
			continue
		}
		seen[first] = true
		letters[item.ID] = string(first)
	}
	return letters
}
