package admin

import (
	"context"
	"net/http"
	"reflect"

	"github.com/gorilla/mux"
	"github.com/klioshop/klio/app/handlers"
	"github.com/klioshop/klio/app/helpers"
	"github.com/klioshop/klio/app/repositories"
	"github.com/klioshop/klio/app/services"
	"github.com/unrolled/render"
	"go.uber.org/zap"
)

// Resource is a JSON list/get/create/update/delete endpoint set over one
// model. Bind decodes a request body onto an item; Prepare runs before
// every save.
type Resource[T any] struct {
	Name    string
	render  *render.Render
	repo    repositories.CrudRepository[T]
	Bind    func(r *http.Request, item *T) error
	Prepare func(ctx context.Context, item *T) error
}

func NewResource[T any](rd *render.Render, name string, repo repositories.CrudRepository[T]) *Resource[T] {
	return &Resource[T]{
		Name:   name,
		render: rd,
		repo:   repo,
		Bind: func(r *http.Request, item *T) error {
			return helpers.DecodeJSON(r, item)
		},
	}
}

// Mount registers the resource under prefix on router.
func (res *Resource[T]) Mount(router *mux.Router, prefix string) {
	router.HandleFunc(prefix, res.List).Methods(http.MethodGet)
	router.HandleFunc(prefix, res.Create).Methods(http.MethodPost)
	router.HandleFunc(prefix+"/{id}", res.Get).Methods(http.MethodGet)
	router.HandleFunc(prefix+"/{id}", res.Update).Methods(http.MethodPut, http.MethodPatch)
	router.HandleFunc(prefix+"/{id}", res.Delete).Methods(http.MethodDelete)
}

func (res *Resource[T]) List(w http.ResponseWriter, r *http.Request) {
	items, err := res.repo.List(r.Context())
	if err != nil {
		handlers.WriteError(res.render, w, r, err)
		return
	}
	if items == nil {
		items = []T{}
	}
	res.render.JSON(w, http.StatusOK, items)
}

func (res *Resource[T]) find(w http.ResponseWriter, r *http.Request) *T {
	item, err := res.repo.FindByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		handlers.WriteError(res.render, w, r, err)
		return nil
	}
	if item == nil {
		handlers.WriteError(res.render, w, r, services.ErrNotFound)
		return nil
	}
	return item
}

func (res *Resource[T]) Get(w http.ResponseWriter, r *http.Request) {
	if item := res.find(w, r); item != nil {
		res.render.JSON(w, http.StatusOK, item)
	}
}

func (res *Resource[T]) save(w http.ResponseWriter, r *http.Request, item *T, create bool) {
	ctx := r.Context()
	if res.Prepare != nil {
		if err := res.Prepare(ctx, item); err != nil {
			handlers.WriteError(res.render, w, r, err)
			return
		}
	}

	var err error
	status := http.StatusOK
	if create {
		err = res.repo.Create(ctx, item)
		status = http.StatusCreated
	} else {
		err = res.repo.Update(ctx, item)
	}
	if err != nil {
		handlers.WriteError(res.render, w, r, err)
		return
	}

	id := idOf(item)
	zap.L().Info("Resource.save: "+res.Name+" saved", zap.String("id", id), zap.Bool("created", create))
	saved, err := res.repo.FindByID(ctx, id)
	if err != nil || saved == nil {
		saved = item
	}
	res.render.JSON(w, status, saved)
}

func (res *Resource[T]) Create(w http.ResponseWriter, r *http.Request) {
	item := new(T)
	if err := res.Bind(r, item); err != nil {
		handlers.WriteError(res.render, w, r, err)
		return
	}
	setID(item, "")
	res.save(w, r, item, true)
}

// Update decodes the body over the stored item, so fields missing from the
// request keep their values.
func (res *Resource[T]) Update(w http.ResponseWriter, r *http.Request) {
	item := res.find(w, r)
	if item == nil {
		return
	}
	id := idOf(item)
	if err := res.Bind(r, item); err != nil {
		handlers.WriteError(res.render, w, r, err)
		return
	}
	setID(item, id)
	res.save(w, r, item, false)
}

func (res *Resource[T]) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	deleted, err := res.repo.Delete(r.Context(), id)
	if err != nil {
		handlers.WriteError(res.render, w, r, err)
		return
	}
	if !deleted {
		handlers.WriteError(res.render, w, r, services.ErrNotFound)
		return
	}
	zap.L().Info("Resource.Delete: "+res.Name+" deleted", zap.String("id", id))
	w.WriteHeader(http.StatusNoContent)
}

func idField(item interface{}) reflect.Value {
	return reflect.ValueOf(item).Elem().FieldByName("ID")
}

func idOf(item interface{}) string {
	if f := idField(item); f.IsValid() && f.Kind() == reflect.String {
		return f.String()
	}
	return ""
}

func setID(item interface{}, id string) {
	if f := idField(item); f.IsValid() && f.Kind() == reflect.String && f.CanSet() {
		f.SetString(id)
	}
}
