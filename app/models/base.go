package models

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const NonFieldErrors = "non_field_errors"

const (
	DiscountPercent = "percent"
	DiscountFixed   = "fixed"
)

// FieldErrors maps a field name to a user-facing validation message. It is
// returned from model hooks and services and rendered as a 400 body.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return strings.Join(parts, "; ")
}

func (e FieldErrors) Add(field, msg string) {
	if _, exists := e[field]; !exists {
		e[field] = msg
	}
}

func (e FieldErrors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// Meta carries the SEO fields shared by catalog and content entities.
type Meta struct {
	MetaTitle       string `gorm:"size:256" json:"meta_title"`
	MetaDescription string `gorm:"size:1024" json:"meta_description"`
	MetaKeywords    string `gorm:"size:512" json:"meta_keywords"`
}

func (m *Meta) FillMeta(name string) {
	if m.MetaTitle == "" {
		m.MetaTitle = name
	}
	if m.MetaDescription == "" {
		m.MetaDescription = name
	}
	if m.MetaKeywords == "" {
		m.MetaKeywords = strings.Join(strings.Fields(name), ", ")
	}
}

func newID() string {
	return uuid.New().String()
}

// InWindow reports whether now falls between start and deadline. A nil bound
// is open.
func InWindow(start, deadline *time.Time, now time.Time) bool {
	if start != nil && start.After(now) {
		return false
	}
	if deadline != nil && deadline.Before(now) {
		return false
	}
	return true
}

func validateWindow(start, deadline *time.Time, errs FieldErrors) {
	if start != nil && deadline != nil && !start.Before(*deadline) {
		errs.Add(NonFieldErrors, "Deadline must be more than start date")
	}
}
