package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID           string      `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	Email        string      `gorm:"size:254;not null;uniqueIndex" json:"email"`
	Username     string      `gorm:"size:150;not null;uniqueIndex" json:"username"`
	FirstName    string      `gorm:"size:64" json:"first_name"`
	LastName     string      `gorm:"size:64" json:"last_name"`
	MiddleName   string      `gorm:"size:128" json:"middle_name"`
	Birthday     *time.Time  `gorm:"type:date" json:"birthday"`
	Phones       []UserPhone `gorm:"foreignKey:UserID" json:"phones"`
	CountryID    *string     `gorm:"size:36" json:"country"`
	CityID       *string     `gorm:"size:36" json:"city"`
	Address      string      `gorm:"size:512" json:"address"`
	Avatar       string      `gorm:"size:255" json:"avatar"`
	PersonalData bool        `gorm:"default:false" json:"personal_data"`
	IsActive     bool        `gorm:"default:false" json:"is_active"`
	IsStaff      bool        `gorm:"default:false" json:"-"`
	Password     string      `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time   `json:"registered"`
	UpdatedAt    time.Time   `json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = newID()
	}
	return
}

// DisplayName renders the user the way staff see them in order lists.
func (u *User) DisplayName() string {
	switch {
	case u.LastName != "" && u.FirstName != "" && u.MiddleName != "":
		return strings.Join([]string{u.LastName, u.FirstName, u.MiddleName}, " ")
	case u.LastName != "" && u.FirstName != "":
		return u.LastName + " " + u.FirstName
	case u.Username != "":
		return u.Username
	default:
		return u.FirstName
	}
}

type UserPhone struct {
	ID        string `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	UserID    string `gorm:"size:36;index;not null" json:"-"`
	Phone     string `gorm:"size:64;not null" json:"phone"`
	Main      bool   `gorm:"default:false" json:"main"`
	SortOrder int    `gorm:"default:0" json:"order"`
	Activity  bool   `gorm:"default:false" json:"activity"`
}

func (p *UserPhone) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = newID()
	}
	return
}

// UserProduct is a favorite product of a user.
type UserProduct struct {
	ID        string    `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_user_product" json:"-"`
	ProductID string    `gorm:"size:36;not null;uniqueIndex:idx_user_product" json:"-"`
	Product   Product   `gorm:"foreignKey:ProductID" json:"product"`
	CreatedAt time.Time `json:"added"`
}

func (p *UserProduct) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = newID()
	}
	return
}
