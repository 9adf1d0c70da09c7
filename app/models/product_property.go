package models

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	PropertyText    = "text"
	PropertyInteger = "integer"
	PropertyFloat   = "float"
	PropertyBoolean = "boolean"
)

type ProductProperty struct {
	ID       string              `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	Name     string              `gorm:"size:128;not null;uniqueIndex" json:"name"`
	Slug     string              `gorm:"size:128;not null;uniqueIndex" json:"slug"`
	Type     string              `gorm:"size:16;not null;default:'text'" json:"type"`
	UnitID   *string             `gorm:"size:36" json:"units"`
	Unit     *Unit               `gorm:"foreignKey:UnitID" json:"-"`
	Interval decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"interval"`
	Required bool                `gorm:"default:false" json:"required"`
	Activity bool                `gorm:"default:false" json:"activity"`
}

func (p *ProductProperty) BeforeSave(tx *gorm.DB) (err error) {
	if p.ID == "" {
		p.ID = newID()
	}
	return p.Validate().Err()
}

func (p *ProductProperty) IsDigit() bool {
	return p.Type == PropertyInteger || p.Type == PropertyFloat
}

func (p *ProductProperty) Validate() FieldErrors {
	errs := FieldErrors{}
	switch p.Type {
	case PropertyText, PropertyInteger, PropertyFloat, PropertyBoolean:
	default:
		errs.Add("type", "Unknown property type.")
	}
	if p.IsDigit() && !p.Interval.Valid {
		errs.Add("interval", "Integer and float properties should have interval.")
	}
	if strings.Contains(p.Slug, "_") {
		errs.Add("slug", "Slug can not contain _ symbol.")
	}
	return errs
}

type ProductType struct {
	ID         string            `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	Name       string            `gorm:"size:128;not null" json:"name"`
	Slug       string            `gorm:"size:128;not null;uniqueIndex" json:"slug"`
	Properties []ProductProperty `gorm:"many2many:product_type_properties" json:"properties"`
}

func (t *ProductType) BeforeCreate(tx *gorm.DB) (err error) {
	if t.ID == "" {
		t.ID = newID()
	}
	return
}

// ProductPropertyValue stores a typed value in the column matching the
// property type; the other value columns stay NULL.
type ProductPropertyValue struct {
	ID           string           `gorm:"size:36;not null;uniqueIndex;primary_key" json:"id"`
	PropertyID   string           `gorm:"size:36;not null;uniqueIndex:idx_property_product" json:"-"`
	Property     *ProductProperty `gorm:"foreignKey:PropertyID" json:"-"`
	ProductID    string           `gorm:"size:36;not null;uniqueIndex:idx_property_product;index" json:"-"`
	ValueText    *string          `gorm:"type:text" json:"-"`
	ValueInteger *int64           `gorm:"index" json:"-"`
	ValueBoolean *bool            `gorm:"index" json:"-"`
	ValueFloat   *float64         `gorm:"index" json:"-"`
}

func (v *ProductPropertyValue) BeforeCreate(tx *gorm.DB) (err error) {
	if v.ID == "" {
		v.ID = newID()
	}
	return
}

// Value returns the value stored for propType, or nil when it is empty.
func (v *ProductPropertyValue) Value(propType string) interface{} {
	switch propType {
	case PropertyText:
		if v.ValueText != nil {
			return *v.ValueText
		}
	case PropertyInteger:
		if v.ValueInteger != nil {
			return *v.ValueInteger
		}
	case PropertyFloat:
		if v.ValueFloat != nil {
			return *v.ValueFloat
		}
	case PropertyBoolean:
		if v.ValueBoolean != nil {
			return *v.ValueBoolean
		}
	}
	return nil
}

func (v *ProductPropertyValue) IsEmpty(propType string) bool {
	return v.Value(propType) == nil
}

// CopyFrom takes over every value column of other.
func (v *ProductPropertyValue) CopyFrom(other ProductPropertyValue) {
	v.ValueText = other.ValueText
	v.ValueInteger = other.ValueInteger
	v.ValueBoolean = other.ValueBoolean
	v.ValueFloat = other.ValueFloat
}

// SetValue parses raw according to propType. An empty raw clears the value.
func (v *ProductPropertyValue) SetValue(propType, raw string) error {
	v.ValueText, v.ValueInteger, v.ValueBoolean, v.ValueFloat = nil, nil, nil, nil
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	switch propType {
	case PropertyText:
		v.ValueText = &raw
	case PropertyInteger:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return FieldErrors{"value": "Must be an integer"}
		}
		v.ValueInteger = &n
	case PropertyFloat:
		f, err := strconv.ParseFloat(strings.Replace(raw, ",", ".", 1), 64)
		if err != nil {
			return FieldErrors{"value": "Must be a float"}
		}
		v.ValueFloat = &f
	case PropertyBoolean:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return FieldErrors{"value": "Must be a boolean"}
		}
		v.ValueBoolean = &b
	default:
		return FieldErrors{"value": "Must be str"}
	}
	return nil
}

// String renders the value for exports; booleans become "true"/"false".
func (v *ProductPropertyValue) String(propType string) string {
	switch val := v.Value(propType).(type) {
	case string:
		return val
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	}
	return ""
}
