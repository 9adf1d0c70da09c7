package models

import (
	"time"

	"gorm.io/gorm"
)

// Publication holds the fields shared by articles and news.
type Publication struct {
	Meta
	Date      time.Time  `json:"date"`
	StartDate *time.Time `json:"start_date"`
	Deadline  *time.Time `json:"deadline"`
	Title     string     `gorm:"size:256;not null" json:"title"`
	Slug      string     `gorm:"size:256;not null;uniqueIndex" json:"slug"`
	Author    string     `gorm:"size:128" json:"author"`
	Img       string     `gorm:"size:255" json:"img"`
	Abstract  string     `gorm:"size:256" json:"abstract"`
	Content   string     `gorm:"type:text" json:"content"`
	Activity  bool       `gorm:"default:false;index" json:"activity"`
}

func (p *Publication) prepare() error {
	if p.Date.IsZero() {
		p.Date = time.Now()
	}
	p.FillMeta(p.Title)

	errs := FieldErrors{}
	if len([]rune(p.Abstract)) > 256 {
		errs.Add("abstract", "Ensure this field has no more than 256 characters.")
	}
	validateWindow(p.StartDate, p.Deadline, errs)
	return errs.Err()
}

func (p *Publication) IsVisible(now time.Time) bool {
	return p.Activity && InWindow(p.StartDate, p.Deadline, now)
}

type Article struct {
	ID string `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	Publication
	Tags []Tag `gorm:"many2many:article_tags" json:"tags"`
}

func (a *Article) BeforeSave(tx *gorm.DB) (err error) {
	if a.ID == "" {
		a.ID = newID()
	}
	return a.prepare()
}

type News struct {
	ID string `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	Publication
	Tags []Tag `gorm:"many2many:news_tags" json:"tags"`
}

func (News) TableName() string {
	return "news"
}

func (n *News) BeforeSave(tx *gorm.DB) (err error) {
	if n.ID == "" {
		n.ID = newID()
	}
	return n.prepare()
}

var BannerColors = []string{"yellow", "red", "white", "black"}

type Banner struct {
	ID        string     `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	Name      string     `gorm:"size:128;not null" json:"name"`
	Img       string     `gorm:"size:255" json:"img"`
	Content   string     `gorm:"type:text" json:"content"`
	SortOrder int        `gorm:"default:0" json:"order"`
	Link      string     `gorm:"size:255" json:"link"`
	Btn       bool       `gorm:"default:false" json:"btn"`
	BtnText   string     `gorm:"size:64" json:"btn_text"`
	BtnColor  string     `gorm:"size:16;default:'yellow'" json:"btn_color"`
	StartDate *time.Time `json:"start_date"`
	Deadline  *time.Time `json:"deadline"`
	Activity  bool       `gorm:"default:false" json:"activity"`
}

func (b *Banner) BeforeSave(tx *gorm.DB) (err error) {
	if b.ID == "" {
		b.ID = newID()
	}
	errs := FieldErrors{}
	validColor := false
	for _, c := range BannerColors {
		if b.BtnColor == c {
			validColor = true
		}
	}
	if !validColor {
		errs.Add("btn_color", "Unknown button color.")
	}
	validateWindow(b.StartDate, b.Deadline, errs)
	return errs.Err()
}

type Page struct {
	ID string `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	Meta
	Name     string `gorm:"size:128;not null" json:"name"`
	Slug     string `gorm:"size:128;not null;uniqueIndex" json:"slug"`
	Content  string `gorm:"type:text" json:"content"`
	Activity bool   `gorm:"default:false" json:"activity"`
}

func (p *Page) BeforeSave(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = newID()
	}
	p.FillMeta(p.Name)
	return nil
}

// SiteSettings has at most one active row.
type SiteSettings struct {
	ID          string `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	Description string `gorm:"type:text" json:"description"`
	Activity    bool   `gorm:"default:false" json:"activity"`
}

func (s *SiteSettings) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = newID()
	}
	return
}

func (s *SiteSettings) AfterSave(tx *gorm.DB) (err error) {
	if !s.Activity {
		return nil
	}
	return tx.Session(&gorm.Session{NewDB: true}).
		Model(&SiteSettings{}).
		Where("id <> ? AND activity = ?", s.ID, true).
		UpdateColumn("activity", false).Error
}

type SubscriberInfo struct {
	ID        string    `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	UserID    *string   `gorm:"size:36" json:"-"`
	Email     string    `gorm:"size:254;not null;uniqueIndex" json:"email"`
	CreatedAt time.Time `json:"date"`
}

func (s *SubscriberInfo) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == "" {
		s.ID = newID()
	}
	return
}

type CallbackInfo struct {
	ID        string    `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	UserID    *string   `gorm:"size:36" json:"-"`
	Name      string    `gorm:"size:128;not null" json:"name"`
	Phone     string    `gorm:"size:64;not null" json:"phone"`
	Comment   string    `gorm:"type:text" json:"comment"`
	CreatedAt time.Time `json:"date"`
}

func (c *CallbackInfo) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == "" {
		c.ID = newID()
	}
	return
}
