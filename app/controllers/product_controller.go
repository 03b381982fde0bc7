package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/dulceria/app/models"
	"github.com/shashiranjanraj/dulceria/app/repositories"
	"github.com/shashiranjanraj/dulceria/pkg/logger"
	"github.com/shashiranjanraj/dulceria/pkg/response"
	"github.com/shashiranjanraj/dulceria/pkg/storage"
	"github.com/shashiranjanraj/dulceria/pkg/validate"
)

const maxImageSize = 5 << 20 // 5 MiB

type ProductController struct {
	products *repositories.ProductRepository
}

func NewProductController(products *repositories.ProductRepository) *ProductController {
	return &ProductController{products: products}
}

type productRequest struct {
	Code             string `json:"code"              validate:"required|alpha_dash|max:32"`
	Name             string `json:"name"              validate:"required|min:3|max:120"`
	Description      string `json:"description"       validate:"nullable|max:500"`
	Price            string `json:"price"             validate:"required|decimal"`
	Category         string `json:"category"          validate:"required|max:60"`
	Portions         string `json:"portions"          validate:"nullable|max:60"`
	Shape            string `json:"shape"             validate:"nullable|max:60"`
	PreparationHours int    `json:"preparation_hours" validate:"nullable|gte:0|lte:240"`
	Available        *bool  `json:"available"`
}

func (req productRequest) apply(p *models.Product) {
	p.Code = req.Code
	p.Name = req.Name
	p.Description = req.Description
	p.Price, _ = decimal.NewFromString(req.Price) // validated upstream
	p.Category = req.Category
	p.Portions = req.Portions
	p.Shape = req.Shape
	if req.PreparationHours > 0 {
		p.PreparationHours = req.PreparationHours
	}
	if req.Available != nil {
		p.Available = *req.Available
	}
}

// Index returns the full catalogue, unavailable products included.
func (c *ProductController) Index(w http.ResponseWriter, r *http.Request) {
	products, err := c.products.All(r.Context())
	if err != nil {
		logger.WithCtx(r.Context()).Error("products: index failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "could not list products")
		return
	}
	response.Success(w, products)
}

// Show returns one product.
func (c *ProductController) Show(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := c.products.GetByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, r, err, "could not load product")
		return
	}
	response.Success(w, product)
}

// Store creates a product.
func (c *ProductController) Store(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if errs := validate.Struct(req); validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	product := models.Product{Available: true, PreparationHours: 48}
	req.apply(&product)

	if err := c.products.Create(r.Context(), &product); err != nil {
		logger.WithCtx(r.Context()).Error("products: create failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "could not create product")
		return
	}
	response.Created(w, product)
}

// Update replaces the editable fields of a product.
func (c *ProductController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if errs := validate.Struct(req); validate.HasErrors(errs) {
		response.ValidationError(w, errs)
		return
	}

	product, err := c.products.GetByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, r, err, "could not load product")
		return
	}

	req.apply(&product)
	if err := c.products.Update(r.Context(), &product); err != nil {
		logger.WithCtx(r.Context()).Error("products: update failed", "id", id, "error", err)
		response.Error(w, http.StatusInternalServerError, "could not update product")
		return
	}
	response.Success(w, product)
}

// Destroy deletes a product. Past order items keep their snapshot.
func (c *ProductController) Destroy(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := c.products.Delete(r.Context(), id); err != nil {
		writeRepoError(w, r, err, "could not delete product")
		return
	}
	response.Success(w, map[string]uint{"deleted": id})
}

// UploadImage stores a product photo on the configured disk and records
// its path on the product.
func (c *ProductController) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := c.products.GetByID(r.Context(), id)
	if err != nil {
		writeRepoError(w, r, err, "could not load product")
		return
	}

	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		response.Error(w, http.StatusBadRequest, "image too large or malformed form")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		response.ValidationError(w, map[string]string{"image": "image file is required"})
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		response.ValidationError(w, map[string]string{"image": "unsupported image type"})
		return
	}

	path := fmt.Sprintf("products/%d%s", product.ID, ext)
	if err := storage.PutStream(path, io.LimitReader(file, maxImageSize)); err != nil {
		logger.WithCtx(r.Context()).Error("products: image upload failed", "id", id, "error", err)
		response.Error(w, http.StatusInternalServerError, "could not store image")
		return
	}

	product.ImagePath = path
	if err := c.products.Update(r.Context(), &product); err != nil {
		response.Error(w, http.StatusInternalServerError, "could not update product")
		return
	}

	response.Success(w, map[string]string{
		"path": path,
		"url":  storage.URL(path),
	})
}

// ------------------- Shared helpers -------------------

func pathID(r *http.Request) (uint, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 32)
	return uint(id), err
}

// writeRepoError maps repository errors to HTTP: missing rows become 404,
// everything else is a logged 500.
func writeRepoError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	var nf *repositories.NotFoundError
	if errors.As(err, &nf) {
		response.NotFound(w)
		return
	}
	logger.WithCtx(r.Context()).Error(msg, "error", err)
	response.Error(w, http.StatusInternalServerError, msg)
}
