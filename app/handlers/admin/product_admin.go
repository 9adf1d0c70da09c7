package admin

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/klioshop/klio/app/handlers"
	"github.com/klioshop/klio/app/helpers"
	"github.com/klioshop/klio/app/models"
	"github.com/klioshop/klio/app/services"
	"go.uber.org/zap"
)

const maxUploadSize = 32 << 20

func (h *AdminHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		handlers.WriteError(h.render, w, r, err)
		return
	}
	h.render.JSON(w, http.StatusOK, products)
}

func (h *AdminHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	form, err := h.products.Form(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		handlers.WriteError(h.render, w, r, err)
		return
	}
	h.render.JSON(w, http.StatusOK, form)
}

func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var form services.ProductForm
	if err := helpers.DecodeJSON(r, &form); err != nil {
		handlers.WriteError(h.render, w, r, err)
		return
	}
	product, err := h.products.Create(r.Context(), &form)
	if err != nil {
		handlers.WriteError(h.render, w, r, err)
		return
	}
	h.render.JSON(w, http.StatusCreated, product)
}

// UpdateProduct decodes the body over the stored form; omitted fields keep
// their values.
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.Update(r.Context(), mux.Vars(r)["id"], func(form *services.ProductForm) error {
		return helpers.DecodeJSON(r, form)
	})
	if err != nil {
		handlers.WriteError(h.render, w, r, err)
		return
	}
	h.render.JSON(w, http.StatusOK, product)
}

func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.products.Delete(r.Context(), id); err != nil {
		handlers.WriteError(h.render, w, r, err)
		return
	}
	zap.L().Info("AdminHandler.DeleteProduct: product deleted", zap.String("product_id", id))
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ExportProductCategoriesCSV(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="product_categories.csv"`)
	if err := h.exchange.WriteProductCategoriesCSV(r.Context(), w); err != nil {
		zap.L().Error("AdminHandler.ExportProductCategoriesCSV: export failed", zap.Error(err))
		http.Error(w, "export failed", http.StatusInternalServerError)
	}
}

func (h *AdminHandler) ExportProductsXLSX(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="products.xlsx"`)
	if err := h.exchange.WriteProductsXLSX(r.Context(), w); err != nil {
		zap.L().Error("AdminHandler.ExportProductsXLSX: export failed", zap.Error(err))
		http.Error(w, "export failed", http.StatusInternalServerError)
	}
}

func uploadedFile(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, models.FieldErrors{"file": "Upload a valid file."}
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, models.FieldErrors{"file": "No file was submitted."}
		}
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func (h *AdminHandler) ImportProductCategoriesCSV(w http.ResponseWriter, r *http.Request) {
	data, err := uploadedFile(r)
	if err != nil {
		handlers.WriteError(h.render, w, r, err)
		return
	}
	report, err := h.exchange.ImportProductCategoriesCSV(r.Context(), bytes.NewReader(data))
	if err != nil {
		handlers.WriteError(h.render, w, r, err)
		return
	}
	h.render.JSON(w, http.StatusOK, report)
}

func (h *AdminHandler) ImportProductsXLSX(w http.ResponseWriter, r *http.Request) {
	data, err := uploadedFile(r)
	if err != nil {
		handlers.WriteError(h.render, w, r, err)
		return
	}
	report, err := h.exchange.ImportProductsXLSX(r.Context(), data)
	if err != nil {
		handlers.WriteError(h.render, w, r, err)
		return
	}
	h.render.JSON(w, http.StatusOK, report)
}
