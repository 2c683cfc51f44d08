package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SKANDA-SR/e-commerse-website/internal/product/models"
	"github.com/SKANDA-SR/e-commerse-website/internal/product/services"
)

// Catalog is the product service as seen by the HTTP layer.
type Catalog interface {
	ListProducts(ctx context.Context, q models.ProductQuery) (*models.ProductPage, error)
	GetProduct(ctx context.Context, id string) (*models.Product, error)
	FeaturedProducts(ctx context.Context) ([]models.Product, error)
	Categories(ctx context.Context) ([]string, error)
	CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, in models.ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	PresignImageUpload(ctx context.Context, id, filename, contentType string) (*services.ImageUploadResult, error)
}

type ProductController struct {
	catalog   Catalog
	validator *RequestValidator
}

func NewProductController(catalog Catalog) *ProductController {
	return &ProductController{catalog: catalog, validator: NewRequestValidator()}
}

// GetProducts handles GET /api/products
func (pc *ProductController) GetProducts(c *gin.Context) {
	q := pc.validator.ParseQuery(c)
	page, err := pc.catalog.ListProducts(c.Request.Context(), q)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GetProduct handles GET /api/products/:id
func (pc *ProductController) GetProduct(c *gin.Context) {
	product, err := pc.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// GetFeatured handles GET /api/products/featured
func (pc *ProductController) GetFeatured(c *gin.Context) {
	products, err := pc.catalog.FeaturedProducts(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// GetCategories handles GET /api/products/categories
func (pc *ProductController) GetCategories(c *gin.Context) {
	categories, err := pc.catalog.Categories(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

// CreateProduct handles POST /api/products (admin)
func (pc *ProductController) CreateProduct(c *gin.Context) {
	in, err := pc.validator.BindProductInput(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	product, err := pc.catalog.CreateProduct(c.Request.Context(), in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

// UpdateProduct handles PUT /api/products/:id (admin)
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	in, err := pc.validator.BindProductInput(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	product, err := pc.catalog.UpdateProduct(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/products/:id (admin)
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	if err := pc.catalog.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product removed"})
}

// CreateImageUploadURL handles POST /api/products/:id/image-upload-url (admin)
func (pc *ProductController) CreateImageUploadURL(c *gin.Context) {
	req, err := pc.validator.BindImageUpload(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	result, err := pc.catalog.PresignImageUpload(c.Request.Context(), c.Param("id"), req.Filename, req.ContentType)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}
