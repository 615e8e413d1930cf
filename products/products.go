package products

import (
	"context"
	"net/http"
	"strings"
	"time"

	"freshcart/errs"
	"freshcart/models"
	"freshcart/utils"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
)

// Store is the catalog persistence behind the product and category routes.
type Store interface {
	FindProductByID(ctx context.Context, id string) (*models.Product, error)
	ListProducts(ctx context.Context, category string, limit, skip int64) ([]models.Product, error)
	InsertProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, id string, fields bson.M) (*models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	InsertCategory(ctx context.Context, cat *models.Category) error
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// ListProducts supports ?category=&page=&limit=.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	opts := utils.ParseQueryOptions(r)
	products, err := h.store.ListProducts(ctx, opts.Category, int64(opts.Limit), int64(opts.Skip()))
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Products fetched successfully", products)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p, err := h.store.FindProductByID(ctx, ps.ByName("id"))
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	if p == nil {
		utils.RespondWithError(w, errs.E(errs.NotFound, "Product not found"))
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Product fetched successfully", p)
}

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var p models.Product
	if err := utils.DecodeJSON(r, &p); err != nil {
		utils.RespondWithError(w, err)
		return
	}
	if p.CurrentPrice > p.OriginalPrice {
		utils.RespondWithError(w, errs.E(errs.ValidationError, "currentPrice cannot exceed originalPrice"))
		return
	}
	p.Name = strings.TrimSpace(p.Name)
	if err := h.store.InsertProduct(ctx, &p); err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondSuccess(w, http.StatusCreated, "Product created successfully", p)
}

type productUpdate struct {
	Name          *string   `json:"name" validate:"omitempty,min=1"`
	Description   *string   `json:"description"`
	OriginalPrice *float64  `json:"originalPrice" validate:"omitempty,gt=0"`
	CurrentPrice  *float64  `json:"currentPrice" validate:"omitempty,gt=0"`
	Category      *string   `json:"category" validate:"omitempty,min=1"`
	MainImage     *string   `json:"mainImage"`
	Images        *[]string `json:"images"`
	Stock         *int      `json:"stock" validate:"omitempty,gte=0"`
	BestSeller    *bool     `json:"bestSeller"`
	IsFeatured    *bool     `json:"isFeatured"`
	IsTrending    *bool     `json:"isTrending"`
	Brand         *string   `json:"brand"`
}

// fields lists the provided values keyed by their document field name.
func (u productUpdate) fields() bson.M {
	set := bson.M{}
	if u.Name != nil {
		set["name"] = *u.Name
	}
	if u.Description != nil {
		set["description"] = *u.Description
	}
	if u.OriginalPrice != nil {
		set["originalPrice"] = *u.OriginalPrice
	}
	if u.CurrentPrice != nil {
		set["currentPrice"] = *u.CurrentPrice
	}
	if u.Category != nil {
		set["category"] = *u.Category
	}
	if u.MainImage != nil {
		set["mainImage"] = *u.MainImage
	}
	if u.Images != nil {
		set["images"] = *u.Images
	}
	if u.Stock != nil {
		set["stock"] = *u.Stock
	}
	if u.BestSeller != nil {
		set["bestSeller"] = *u.BestSeller
	}
	if u.IsFeatured != nil {
		set["isFeatured"] = *u.IsFeatured
	}
	if u.IsTrending != nil {
		set["isTrending"] = *u.IsTrending
	}
	if u.Brand != nil {
		set["brand"] = *u.Brand
	}
	return set
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var req productUpdate
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithError(w, err)
		return
	}
	fields := req.fields()
	if len(fields) == 0 {
		utils.RespondWithError(w, errs.E(errs.ValidationError, "No fields to update"))
		return
	}
	p, err := h.store.UpdateProduct(ctx, ps.ByName("id"), fields)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	if p == nil {
		utils.RespondWithError(w, errs.E(errs.NotFound, "Product not found"))
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Product updated successfully", p)
}

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cats, err := h.store.ListCategories(ctx)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondSuccess(w, http.StatusOK, "Categories fetched successfully", cats)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var cat models.Category
	if err := utils.DecodeJSON(r, &cat); err != nil {
		utils.RespondWithError(w, err)
		return
	}
	cat.Name = strings.TrimSpace(cat.Name)
	if err := h.store.InsertCategory(ctx, &cat); err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondSuccess(w, http.StatusCreated, "Category created successfully", cat)
}
