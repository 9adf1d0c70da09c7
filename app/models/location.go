package models

import "gorm.io/gorm"

type Country struct {
	ID       string `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	Name     string `gorm:"size:128;not null;uniqueIndex" json:"name"`
	Activity bool   `gorm:"default:false" json:"activity"`
}

func (c *Country) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = newID()
	}
	return
}

type City struct {
	ID        string   `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	Name      string   `gorm:"size:128;not null" json:"name"`
	CountryID *string  `gorm:"size:36;index" json:"country"`
	Country   *Country `gorm:"foreignKey:CountryID" json:"-"`
	Activity  bool     `gorm:"default:false" json:"activity"`
}

func (c *City) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = newID()
	}
	return
}
