package controllers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/SKANDA-SR/e-commerse-website/internal/common/errors"
	"github.com/SKANDA-SR/e-commerse-website/internal/product/models"
)

// RequestValidator parses and validates catalog requests.
type RequestValidator struct {
	validate *validator.Validate
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{validate: validator.New()}
}

// ParseQuery reads the listing query string. Bad values fall back to
// defaults instead of failing the request.
func (rv *RequestValidator) ParseQuery(c *gin.Context) models.ProductQuery {
	return models.ParseProductQuery(
		c.Query("search"),
		c.Query("category"),
		c.Query("minPrice"),
		c.Query("maxPrice"),
		c.Query("sortBy"),
		c.Query("page"),
		c.Query("limit"),
	)
}

// BindProductInput decodes and validates an admin product payload.
func (rv *RequestValidator) BindProductInput(c *gin.Context) (models.ProductInput, error) {
	var in models.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		return in, apperrors.Validation("Invalid product payload")
	}
	if err := rv.validate.Struct(&in); err != nil {
		return in, apperrors.Validation(describe(err))
	}
	return in, nil
}

// ImageUploadRequest asks for a presigned image upload URL.
type ImageUploadRequest struct {
	Filename    string `json:"filename" validate:"required,max=200"`
	ContentType string `json:"contentType" validate:"required"`
}

func (rv *RequestValidator) BindImageUpload(c *gin.Context) (ImageUploadRequest, error) {
	var req ImageUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return req, apperrors.Validation("Invalid upload request")
	}
	if err := rv.validate.Struct(&req); err != nil {
		return req, apperrors.Validation(describe(err))
	}
	return req, nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid input"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", strings.ToLower(fe.Field())))
		case "gte":
			parts = append(parts, fmt.Sprintf("%s must be at least %s", strings.ToLower(fe.Field()), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field())))
		}
	}
	return strings.Join(parts, "; ")
}
