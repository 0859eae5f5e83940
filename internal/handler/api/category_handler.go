package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"furnistore/internal/models"
	"furnistore/internal/pkg/utils"
	"furnistore/internal/repository"
	"furnistore/internal/storage"
)

const categoriesFolder = "category"

// CategoryHandler serves product categories.
type CategoryHandler struct {
	categories *repository.CategoryRepository
	storage    storage.ObjectStorage
	logger     *zap.Logger
}

func NewCategoryHandler(categories *repository.CategoryRepository, store storage.ObjectStorage, logger *zap.Logger) *CategoryHandler {
	return &CategoryHandler{categories: categories, storage: store, logger: logger}
}

// List handles GET /api/categories.
func (h *CategoryHandler) List(c echo.Context) error {
	categories, err := h.categories.FindAll()
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to fetch categories")
	}
	return successResponse(c, http.StatusOK, "", categories)
}

// Create handles POST /api/admin/categories (JSON or multipart with "image").
func (h *CategoryHandler) Create(c echo.Context) error {
	var req models.CategoryRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	if ok, err := h.checkName(c, req.Name, 0); !ok {
		return err
	}

	image, uploaded, err := h.image(c, req, "")
	if err != nil {
		return h.imageError(c, err)
	}

	name := utils.SanitizeText(req.Name)
	category := &models.Category{
		Name:  name,
		Slug:  utils.Slugify(name),
		Icon:  utils.SanitizeText(req.Icon),
		Image: image,
	}
	if err := h.categories.Create(category); err != nil {
		h.discard(c, uploaded)
		h.logger.Error("Failed to create category", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to create category")
	}
	return successResponse(c, http.StatusCreated, "Category created successfully", category)
}

// Update handles PUT and POST /api/admin/categories/:id.
func (h *CategoryHandler) Update(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return errorResponse(c, http.StatusNotFound, "Category not found")
	}
	category, err := h.categories.FindByID(id)
	if err != nil {
		return h.lookupError(c, err)
	}

	var req models.CategoryRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	if ok, err := h.checkName(c, req.Name, id); !ok {
		return err
	}

	image, uploaded, err := h.image(c, req, category.Image)
	if err != nil {
		return h.imageError(c, err)
	}

	category.Name = utils.SanitizeText(req.Name)
	category.Slug = utils.Slugify(category.Name)
	category.Icon = utils.SanitizeText(req.Icon)
	category.Image = image
	if err := h.categories.Save(category); err != nil {
		h.discard(c, uploaded)
		h.logger.Error("Failed to update category", zap.Uint("category_id", id), zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to update category")
	}
	return successResponse(c, http.StatusOK, "Category updated successfully", category)
}

// Delete handles DELETE /api/admin/categories/:id.
func (h *CategoryHandler) Delete(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return errorResponse(c, http.StatusNotFound, "Category not found")
	}
	if err := h.categories.Delete(id); err != nil {
		return h.lookupError(c, err)
	}
	return successResponse(c, http.StatusOK, "Category deleted", nil)
}

func (h *CategoryHandler) checkName(c echo.Context, name string, excludeID uint) (bool, error) {
	taken, err := h.categories.NameTaken(name, excludeID)
	if err != nil {
		h.logger.Error("Failed to check category name", zap.Error(err))
		return false, errorResponse(c, http.StatusInternalServerError, "Failed to save category")
	}
	if taken {
		return false, validationResponse(c, map[string]string{"name": "The name has already been taken"})
	}
	return true, nil
}

// image prefers an uploaded file, then image_url, then current. The second
// result is the storage key of a newly uploaded file.
func (h *CategoryHandler) image(c echo.Context, req models.CategoryRequest, current string) (string, string, error) {
	if fh, err := c.FormFile("image"); err == nil {
		key, url, err := storeImage(c, h.storage, categoriesFolder, fh)
		return url, key, err
	}
	if url := strings.TrimSpace(req.ImageURL); url != "" {
		return url, "", nil
	}
	return current, "", nil
}

// discard removes an upload whose category row was never saved.
func (h *CategoryHandler) discard(c echo.Context, key string) {
	if key == "" {
		return
	}
	if err := h.storage.Delete(c.Request().Context(), key); err != nil {
		h.logger.Warn("Failed to remove orphaned category image", zap.String("key", key), zap.Error(err))
	}
}

func (h *CategoryHandler) imageError(c echo.Context, err error) error {
	var invalid imageError
	if errors.As(err, &invalid) {
		return validationResponse(c, map[string]string{"image": invalid.Error()})
	}
	h.logger.Error("Failed to store category image", zap.Error(err))
	return errorResponse(c, http.StatusInternalServerError, "Failed to upload image")
}

func (h *CategoryHandler) lookupError(c echo.Context, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorResponse(c, http.StatusNotFound, "Category not found")
	}
	h.logger.Error("Failed to load category", zap.Error(err))
	return errorResponse(c, http.StatusInternalServerError, "Failed to fetch category")
}
