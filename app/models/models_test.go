package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&Unit{}, &Category{}, &Menu{}, &MenuItem{}, &SiteSettings{}, &ProductProperty{}))
	return db
}

func TestCategoryGroupRollupAndMeta(t *testing.T) {
	db := newTestDB(t)

	root := &Category{Name: "Power tools", Slug: "power-tools"}
	require.NoError(t, db.Create(root).Error)
	require.NotNil(t, root.GroupID)
	assert.Equal(t, root.ID, *root.GroupID)
	assert.Equal(t, "Power tools", root.MetaTitle)
	assert.Equal(t, "Power tools", root.MetaDescription)
	assert.Equal(t, "Power, tools", root.MetaKeywords)

	child := &Category{Name: "Drills", Slug: "drills", ParentID: &root.ID, Meta: Meta{MetaTitle: "Buy drills"}}
	require.NoError(t, db.Create(child).Error)
	assert.Equal(t, root.ID, *child.GroupID)
	assert.Equal(t, "Buy drills", child.MetaTitle)
	assert.Equal(t, "Drills", child.MetaDescription)

	leaf := &Category{Name: "Hammer drills", Slug: "hammer-drills", ParentID: &child.ID}
	require.NoError(t, db.Create(leaf).Error)
	assert.Equal(t, root.ID, *leaf.GroupID)

	child.ParentID = nil
	require.NoError(t, db.Save(child).Error)
	var stored Category
	require.NoError(t, db.First(&stored, "id = ?", child.ID).Error)
	assert.Nil(t, stored.ParentID)
	assert.Equal(t, child.ID, *stored.GroupID)

	tests := []struct {
		name   string
		parent string
		id     string
		msg    string
	}{
		{"missing parent", "no-such-category", "", "Parent category does not exist."},
		{"self parent", "self", "self", "Category can not be a parent of itself."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := tt.parent
			err := db.Create(&Category{ID: tt.id, Name: tt.name, Slug: uuid.NewString(), ParentID: &parent}).Error
			var fe FieldErrors
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.msg, fe["parent"])
		})
	}
}

func TestMenuSingleActivePerPosition(t *testing.T) {
	db := newTestDB(t)

	header := &Menu{Name: "Main", Position: MenuHeader, Activity: true}
	require.NoError(t, db.Create(header).Error)

	spare := &Menu{Name: "Spare", Position: MenuHeader}
	require.NoError(t, db.Create(spare).Error)
	require.NoError(t, db.Create(&Menu{Name: "Main", Position: MenuFooter, Activity: true}).Error)

	tests := []struct {
		name  string
		menu  *Menu
		field string
	}{
		{"second active header", &Menu{Name: "Promo", Position: MenuHeader, Activity: true}, NonFieldErrors},
		{"activating a spare", &Menu{ID: spare.ID, Name: "Spare", Position: MenuHeader, Activity: true}, NonFieldErrors},
		{"unknown position", &Menu{Name: "Side", Position: "sidebar"}, "position"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.Save(tt.menu).Error
			var fe FieldErrors
			require.ErrorAs(t, err, &fe)
			assert.Contains(t, fe, tt.field)
		})
	}

	header.Activity = false
	require.NoError(t, db.Save(header).Error)
	spare.Activity = true
	require.NoError(t, db.Save(spare).Error)

	var active int64
	require.NoError(t, db.Model(&Menu{}).Where("position = ? AND activity = ?", MenuHeader, true).Count(&active).Error)
	assert.Equal(t, int64(1), active)
}

func TestSiteSettingsKeepOneActive(t *testing.T) {
	db := newTestDB(t)

	first := &SiteSettings{Description: "first", Activity: true}
	require.NoError(t, db.Create(first).Error)
	second := &SiteSettings{Description: "second", Activity: true}
	require.NoError(t, db.Create(second).Error)
	require.NoError(t, db.Create(&SiteSettings{Description: "draft"}).Error)

	var active []SiteSettings
	require.NoError(t, db.Where("activity = ?", true).Find(&active).Error)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	first.Activity = true
	require.NoError(t, db.Save(first).Error)
	active = nil
	require.NoError(t, db.Where("activity = ?", true).Find(&active).Error)
	require.Len(t, active, 1)
	assert.Equal(t, first.ID, active[0].ID)
}

func TestProductPropertyValidate(t *testing.T) {
	step := decimal.NewNullDecimal(decimal.NewFromInt(5))

	tests := []struct {
		name   string
		prop   ProductProperty
		fields []string
	}{
		{"text", ProductProperty{Slug: "color", Type: PropertyText}, nil},
		{"boolean", ProductProperty{Slug: "cordless", Type: PropertyBoolean}, nil},
		{"float with interval", ProductProperty{Slug: "weight", Type: PropertyFloat, Interval: step}, nil},
		{"integer without interval", ProductProperty{Slug: "power", Type: PropertyInteger}, []string{"interval"}},
		{"float without interval", ProductProperty{Slug: "length", Type: PropertyFloat}, []string{"interval"}},
		{"unknown type", ProductProperty{Slug: "size", Type: "date"}, []string{"type"}},
		{"underscore slug", ProductProperty{Slug: "max_rpm", Type: PropertyText}, []string{"slug"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := tt.prop.Validate()
			assert.Len(t, errs, len(tt.fields))
			for _, f := range tt.fields {
				assert.Contains(t, errs, f)
			}
		})
	}

	db := newTestDB(t)
	err := db.Create(&ProductProperty{Name: "Power", Slug: "power", Type: PropertyInteger}).Error
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "Integer and float properties should have interval.", fe["interval"])
	require.NoError(t, db.Create(&ProductProperty{Name: "Power", Slug: "power", Type: PropertyInteger, Interval: step}).Error)
}

func TestProductNewFlag(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	recent := now.Add(-24 * time.Hour)
	old := now.Add(-NewProductPeriod - time.Hour)

	tests := []struct {
		name    string
		isNew   string
		created time.Time
		want    bool
	}{
		{"forced new", IsNewNew, old, true},
		{"forced not new", IsNewNotNew, recent, false},
		{"calculated recent", IsNewCalculated, recent, true},
		{"calculated old", IsNewCalculated, old, false},
		{"calculated inside window edge", IsNewCalculated, now.Add(-NewProductPeriod + time.Minute), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Product{IsNew: tt.isNew, CreatedAt: tt.created}
			flag := p.NewFlag(now)
			if !tt.want {
				assert.Nil(t, flag)
				return
			}
			require.NotNil(t, flag)
			assert.True(t, *flag)
		})
	}
}

func TestCategoryPath(t *testing.T) {
	chain := func(names ...string) []Category {
		out := make([]Category, 0, len(names))
		for _, n := range names {
			out = append(out, Category{Name: n})
		}
		return out
	}

	tests := []struct {
		name  string
		chain []Category
		want  string
	}{
		{"empty", nil, ""},
		{"leaf is never cut", chain("Electric screwdrivers"), "Electric screwdrivers"},
		{"fifteen characters kept", chain("Garden supplies", "Hoses"), "Garden supplies / Hoses"},
		{"sixteen characters cut", chain("Garden equipment", "Hoses"), "Garden equip... / Hoses"},
		{"runes not bytes", chain("Электроинструмент", "Дрели", "Ударные дрели"), "Электроинстр... / Дрели / Ударные дрели"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategoryPath(tt.chain))
		})
	}
}
