package models

import "gorm.io/gorm"

type Contact struct {
	ID        string         `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	Name      string         `gorm:"size:128;not null" json:"name"`
	Slug      string         `gorm:"size:128;index" json:"slug"`
	CountryID *string        `gorm:"size:36" json:"-"`
	Country   *Country       `gorm:"foreignKey:CountryID" json:"-"`
	CityID    *string        `gorm:"size:36" json:"-"`
	City      *City          `gorm:"foreignKey:CityID" json:"-"`
	Address   string         `gorm:"size:512" json:"address"`
	Email     string         `gorm:"size:254" json:"email"`
	Map       string         `gorm:"type:text" json:"map"`
	Content   string         `gorm:"type:text" json:"content"`
	Phones    []ContactPhone `gorm:"foreignKey:ContactID" json:"-"`
	Hours     []WorkingHours `gorm:"foreignKey:ContactID" json:"-"`
	Activity  bool           `gorm:"default:false" json:"activity"`
}

func (c *Contact) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = newID()
	}
	return
}

type Phone struct {
	ID       string `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	Phone    string `gorm:"size:64;not null" json:"phone"`
	Label    string `gorm:"size:64" json:"label"`
	Activity bool   `gorm:"default:false" json:"activity"`
}

func (p *Phone) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = newID()
	}
	return
}

type ContactPhone struct {
	ID        string `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	ContactID string `gorm:"size:36;not null;index" json:"-"`
	PhoneID   string `gorm:"size:36;not null" json:"-"`
	Phone     Phone  `gorm:"foreignKey:PhoneID" json:"-"`
	Main      bool   `gorm:"default:false" json:"main"`
	SortOrder int    `gorm:"default:0" json:"order"`
	Activity  bool   `gorm:"default:false" json:"activity"`
}

func (p *ContactPhone) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = newID()
	}
	return
}

type WorkingHours struct {
	ID        string `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	ContactID string `gorm:"size:36;not null;index" json:"-"`
	Label     string `gorm:"size:64" json:"label"`
	Time      string `gorm:"size:64" json:"time"`
}

func (h *WorkingHours) BeforeCreate(tx *gorm.DB) (err error) {
	if h.ID == "" {
		h.ID = newID()
	}
	return
}

type SocialNet struct {
	ID       string `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	Name     string `gorm:"size:64;not null" json:"name"`
	Img      string `gorm:"size:255" json:"img"`
	URL      string `gorm:"size:255" json:"url"`
	Activity bool   `gorm:"default:false" json:"activity"`
}

func (s *SocialNet) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = newID()
	}
	return
}
