package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Category struct {
	ID string `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	Meta
	Name        string     `gorm:"size:128;not null" json:"name"`
	Slug        string     `gorm:"size:128;not null;uniqueIndex" json:"slug"`
	ParentID    *string    `gorm:"size:36;index" json:"parent"`
	Parent      *Category  `gorm:"foreignKey:ParentID" json:"-"`
	Children    []Category `gorm:"foreignKey:ParentID" json:"-"`
	GroupID     *string    `gorm:"size:36;index" json:"group"`
	Img         string     `gorm:"size:255" json:"img"`
	Description string     `gorm:"type:text" json:"description"`
	SortOrder   int        `gorm:"default:0" json:"order"`
	OnMain      bool       `gorm:"default:false" json:"on_main"`
	Activity    bool       `gorm:"default:false" json:"activity"`
	CreatedAt   time.Time  `json:"-"`
	UpdatedAt   time.Time  `json:"-"`
}

// BeforeSave fills meta from the name and keeps the group rollup: a root is
// its own group, a child inherits the group of its parent.
func (c *Category) BeforeSave(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = newID()
	}
	c.FillMeta(c.Name)

	if c.ParentID == nil || *c.ParentID == "" {
		c.ParentID = nil
		id := c.ID
		c.GroupID = &id
		return nil
	}

	if *c.ParentID == c.ID {
		return FieldErrors{"parent": "Category can not be a parent of itself."}
	}

	var parent Category
	if err := tx.Session(&gorm.Session{NewDB: true}).Select("id", "group_id").First(&parent, "id = ?", *c.ParentID).Error; err != nil {
		return FieldErrors{"parent": "Parent category does not exist."}
	}
	if parent.GroupID != nil {
		group := *parent.GroupID
		c.GroupID = &group
	} else {
		group := parent.ID
		c.GroupID = &group
	}
	return nil
}

const (
	categoryPathLimit    = 15
	categoryPathTruncate = 12
)

// CategoryPath renders the chain root..leaf as "Root / ... / Leaf". Ancestor
// names longer than 15 characters are cut to 12 and suffixed with "...".
func CategoryPath(chain []Category) string {
	parts := make([]string, 0, len(chain))
	for i, c := range chain {
		name := c.Name
		if i < len(chain)-1 {
			runes := []rune(name)
			if len(runes) > categoryPathLimit {
				name = string(runes[:categoryPathTruncate]) + "..."
			}
		}
		parts = append(parts, name)
	}
	return strings.Join(parts, " / ")
}

type Brand struct {
	ID          string    `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	Name        string    `gorm:"size:128;not null" json:"name"`
	Slug        string    `gorm:"size:128;not null;uniqueIndex" json:"slug"`
	Logo        string    `gorm:"size:255" json:"logo"`
	Description string    `gorm:"type:text" json:"description"`
	SortOrder   int       `gorm:"default:0" json:"order"`
	Activity    bool      `gorm:"default:false" json:"activity"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

func (b *Brand) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == "" {
		b.ID = newID()
	}
	return
}

type Unit struct {
	ID   string `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	Name string `gorm:"size:32;not null;uniqueIndex" json:"name"`
}

func (u *Unit) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = newID()
	}
	return
}

type Tag struct {
	ID       string `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	Name     string `gorm:"size:64;not null;uniqueIndex" json:"name"`
	Activity bool   `gorm:"default:false" json:"activity"`
}

func (t *Tag) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == "" {
		t.ID = newID()
	}
	return
}
