package repositories

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/klioshop/klio/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CrudRepository is the plain back-office persistence used by admin screens
// that need nothing beyond list/get/create/update/delete.
type CrudRepository[T any] interface {
	List(ctx context.Context) ([]T, error)
	FindByID(ctx context.Context, id string) (*T, error)
	Create(ctx context.Context, item *T) error
	Update(ctx context.Context, item *T) error
	Delete(ctx context.Context, id string) (bool, error)
}

type CrudOptions struct {
	Order    string
	Preloads []string
	// ManyToMany names the many2many fields replaced wholesale on save.
	ManyToMany []string
	// Cascade deletes has-one and has-many rows along with the item.
	Cascade bool
}

type gormCrudRepository[T any] struct {
	db   *gorm.DB
	opts CrudOptions
}

func NewCrudRepository[T any](db *gorm.DB, opts CrudOptions) CrudRepository[T] {
	return &gormCrudRepository[T]{db: db, opts: opts}
}

func (r *gormCrudRepository[T]) preloaded(ctx context.Context) *gorm.DB {
	db := r.db.WithContext(ctx)
	for _, p := range r.opts.Preloads {
		db = db.Preload(p)
	}
	return db
}

func (r *gormCrudRepository[T]) List(ctx context.Context) ([]T, error) {
	db := r.preloaded(ctx)
	if r.opts.Order != "" {
		db = db.Order(r.opts.Order)
	}
	var items []T
	err := db.Find(&items).Error
	return items, err
}

func (r *gormCrudRepository[T]) FindByID(ctx context.Context, id string) (*T, error) {
	var item T
	if err := r.preloaded(ctx).First(&item, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *gormCrudRepository[T]) Create(ctx context.Context, item *T) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(item).Error; err != nil {
			return err
		}
		return r.replaceAssociations(tx, item)
	})
}

func (r *gormCrudRepository[T]) Update(ctx context.Context, item *T) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(item).Error; err != nil {
			return err
		}
		return r.replaceAssociations(tx, item)
	})
}

func (r *gormCrudRepository[T]) replaceAssociations(tx *gorm.DB, item *T) error {
	value := reflect.ValueOf(item).Elem()
	for _, name := range r.opts.ManyToMany {
		field := value.FieldByName(name)
		if !field.IsValid() {
			return fmt.Errorf("unknown association %s", name)
		}
		if err := checkAssociated(tx, value.Type(), name, field); err != nil {
			return err
		}
		if err := tx.Model(item).Association(name).Replace(field.Interface()); err != nil {
			return fmt.Errorf("replace %s: %w", name, err)
		}
	}
	return nil
}

// checkAssociated rejects association rows that are not stored yet. Replace
// would otherwise insert them as blank rows.
func checkAssociated(tx *gorm.DB, owner reflect.Type, name string, field reflect.Value) error {
	var ids []string
	seen := map[string]bool{}
	for i := 0; i < field.Len(); i++ {
		id := reflect.Indirect(field.Index(i)).FieldByName("ID")
		if !id.IsValid() || id.Kind() != reflect.String {
			return nil
		}
		if !seen[id.String()] {
			seen[id.String()] = true
			ids = append(ids, id.String())
		}
	}
	if len(ids) == 0 {
		return nil
	}

	var stored []string
	related := reflect.New(field.Type().Elem()).Interface()
	if err := tx.Model(related).Where("id IN ?", ids).Pluck("id", &stored).Error; err != nil {
		return fmt.Errorf("check %s: %w", name, err)
	}
	if len(stored) == len(ids) {
		return nil
	}
	known := make(map[string]bool, len(stored))
	for _, id := range stored {
		known[id] = true
	}
	key := strings.ToLower(name)
	if sf, ok := owner.FieldByName(name); ok {
		if tag := strings.Split(sf.Tag.Get("json"), ",")[0]; tag != "" && tag != "-" {
			key = tag
		}
	}
	for _, id := range ids {
		if !known[id] {
			return models.FieldErrors{key: fmt.Sprintf("Invalid pk \"%s\" - object does not exist.", id)}
		}
	}
	return nil
}

// Delete removes the row and its join rows. The bool is false
// when nothing matched id.
func (r *gormCrudRepository[T]) Delete(ctx context.Context, id string) (bool, error) {
	item, err := r.FindByID(ctx, id)
	if err != nil || item == nil {
		return false, err
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range r.opts.ManyToMany {
			if err := tx.Model(item).Association(name).Clear(); err != nil {
				return err
			}
		}
		if r.opts.Cascade {
			tx = tx.Select(clause.Associations)
		}
		return tx.Delete(item).Error
	})
	if err != nil {
		return false, err
	}
	return true, nil
}
