package api

import (
	"errors"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"furnistore/internal/models"
	"furnistore/internal/pkg/utils"
	"furnistore/internal/repository"
	"furnistore/internal/storage"
)

const (
	featuredLimit  = 8
	maxImageBytes  = 2 << 20
	productsFolder = "products"
)

var imageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ProductHandler serves the catalogue and its admin operations.
type ProductHandler struct {
	products *repository.ProductRepository
	storage  storage.ObjectStorage
	logger   *zap.Logger
}

func NewProductHandler(products *repository.ProductRepository, store storage.ObjectStorage, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{products: products, storage: store, logger: logger}
}

// List handles GET /api/products.
func (h *ProductHandler) List(c echo.Context) error {
	var q models.ProductListQuery
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &q); err != nil {
		return validationResponse(c, map[string]string{"query": "Invalid query parameters"})
	}

	f := repository.ProductFilter{
		Category:  q.Category,
		Search:    strings.TrimSpace(q.Search),
		OrderBy:   q.OrderBy,
		Direction: q.Direction,
		Page:      q.Page,
		PerPage:   q.PerPage,
	}
	errs := map[string]string{}
	if q.MinPrice != "" {
		d, err := decimal.NewFromString(q.MinPrice)
		if err != nil {
			errs["min_price"] = "Must be numeric"
		}
		f.MinPrice = &d
	}
	if q.MaxPrice != "" {
		d, err := decimal.NewFromString(q.MaxPrice)
		if err != nil {
			errs["max_price"] = "Must be numeric"
		}
		f.MaxPrice = &d
	}
	if len(errs) > 0 {
		return validationResponse(c, errs)
	}

	products, total, err := h.products.FindAll(f)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to fetch products")
	}
	page, perPage := models.Page(q.Page, q.PerPage)
	return paginatedResponse(c, products, total, page, perPage)
}

// Show handles GET /api/products/:id. Inactive products are not found.
func (h *ProductHandler) Show(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return errorResponse(c, http.StatusNotFound, "Product not found")
	}
	product, err := h.products.FindActiveByID(id)
	if err != nil {
		return h.lookupError(c, err)
	}
	return successResponse(c, http.StatusOK, "", product)
}

// ByCategory handles GET /api/products/category/:category.
func (h *ProductHandler) ByCategory(c echo.Context) error {
	products, err := h.products.FindByCategory(c.Param("category"))
	if err != nil {
		h.logger.Error("Failed to list products by category", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to fetch products by category")
	}
	return successResponse(c, http.StatusOK, "", products)
}

// Featured handles GET /api/products/featured/list.
func (h *ProductHandler) Featured(c echo.Context) error {
	products, err := h.products.Featured(featuredLimit)
	if err != nil {
		h.logger.Error("Failed to list featured products", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to fetch featured products")
	}
	return successResponse(c, http.StatusOK, "", products)
}

// Create handles POST /api/admin/products.
func (h *ProductHandler) Create(c echo.Context) error {
	var req models.CreateProductRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	product := &models.Product{
		Name:        utils.SanitizeText(req.Name),
		Category:    utils.SanitizeText(req.Category),
		Material:    utils.SanitizeText(req.Material),
		Size:        utils.SanitizeText(req.Size),
		Price:       req.Price.Round(2),
		Stock:       *req.Stock,
		IsActive:    true,
		Description: utils.SanitizeText(req.Description),
		ImageURL:    strings.TrimSpace(req.ImageURL),
	}
	if err := h.products.Create(product); err != nil {
		h.logger.Error("Failed to create product", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to create product")
	}
	h.logger.Info("Product created", zap.Uint("product_id", product.ID), zap.String("name", product.Name))
	return successResponse(c, http.StatusCreated, "Product created successfully", product)
}

// Update handles PUT and POST /api/admin/products/:id.
func (h *ProductHandler) Update(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return errorResponse(c, http.StatusNotFound, "Product not found")
	}
	if _, err := h.products.FindByID(id); err != nil {
		return h.lookupError(c, err)
	}

	var req models.UpdateProductRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}

	updates := map[string]interface{}{}
	setText := func(column string, v *string) {
		if v != nil {
			updates[column] = utils.SanitizeText(*v)
		}
	}
	setText("name", req.Name)
	setText("category", req.Category)
	setText("material", req.Material)
	setText("size", req.Size)
	setText("description", req.Description)
	if req.ImageURL != nil {
		updates["image_url"] = strings.TrimSpace(*req.ImageURL)
	}
	if req.Price != nil {
		updates["price"] = req.Price.Round(2)
	}
	if req.Stock != nil {
		updates["stock"] = *req.Stock
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	if len(updates) > 0 {
		if err := h.products.Update(id, updates); err != nil {
			h.logger.Error("Failed to update product", zap.Uint("product_id", id), zap.Error(err))
			return errorResponse(c, http.StatusInternalServerError, "Failed to update product")
		}
	}
	product, err := h.products.FindByID(id)
	if err != nil {
		return h.lookupError(c, err)
	}
	return successResponse(c, http.StatusOK, "Product updated successfully", product)
}

// Delete handles DELETE /api/admin/products/:id. Products are only deactivated.
func (h *ProductHandler) Delete(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return errorResponse(c, http.StatusNotFound, "Product not found")
	}
	if _, err := h.products.FindByID(id); err != nil {
		return h.lookupError(c, err)
	}
	if err := h.products.Update(id, map[string]interface{}{"is_active": false}); err != nil {
		h.logger.Error("Failed to delete product", zap.Uint("product_id", id), zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to delete product")
	}
	return successResponse(c, http.StatusOK, "Product deleted successfully", nil)
}

// UpdateStock handles PUT /api/admin/products/:id/stock.
func (h *ProductHandler) UpdateStock(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return errorResponse(c, http.StatusNotFound, "Product not found")
	}
	if _, err := h.products.FindByID(id); err != nil {
		return h.lookupError(c, err)
	}

	var req models.UpdateStockRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	if err := h.products.Update(id, map[string]interface{}{"stock": *req.Stock}); err != nil {
		h.logger.Error("Failed to update stock", zap.Uint("product_id", id), zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to update stock")
	}
	product, err := h.products.FindByID(id)
	if err != nil {
		return h.lookupError(c, err)
	}
	return successResponse(c, http.StatusOK, "Stock updated successfully", product)
}

// Upload handles POST /api/admin/uploads with a multipart "image" field.
func (h *ProductHandler) Upload(c echo.Context) error {
	file, err := c.FormFile("image")
	if err != nil {
		return validationResponse(c, map[string]string{"image": "This field is required"})
	}
	_, url, err := storeImage(c, h.storage, productsFolder, file)
	if err != nil {
		return h.uploadError(c, err)
	}
	return successResponse(c, http.StatusCreated, "Image uploaded successfully", map[string]string{"url": url})
}

func (h *ProductHandler) lookupError(c echo.Context, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorResponse(c, http.StatusNotFound, "Product not found")
	}
	h.logger.Error("Failed to load product", zap.Error(err))
	return errorResponse(c, http.StatusInternalServerError, "Failed to fetch product")
}

func (h *ProductHandler) uploadError(c echo.Context, err error) error {
	var invalid imageError
	if errors.As(err, &invalid) {
		return validationResponse(c, map[string]string{"image": invalid.Error()})
	}
	h.logger.Error("Failed to store image", zap.Error(err))
	return errorResponse(c, http.StatusInternalServerError, "Failed to upload image")
}

type imageError string

func (e imageError) Error() string { return string(e) }

// storeImage checks an uploaded image and writes it to object storage.
// It returns the object key and its public URL.
func storeImage(c echo.Context, store storage.ObjectStorage, folder string, fh *multipart.FileHeader) (string, string, error) {
	if fh.Size > maxImageBytes {
		return "", "", imageError("The image may not be greater than 2048 kilobytes")
	}
	src, err := fh.Open()
	if err != nil {
		return "", "", err
	}
	defer src.Close()

	head := make([]byte, 512)
	n, _ := src.Read(head)
	contentType := http.DetectContentType(head[:n])
	if !imageTypes[contentType] {
		return "", "", imageError("The image must be a file of type: jpeg, png, gif, webp")
	}
	if _, err := src.Seek(0, 0); err != nil {
		return "", "", err
	}

	key := storage.ObjectKey(folder, fh.Filename, time.Now())
	url, err := store.Put(c.Request().Context(), key, src, fh.Size, contentType)
	if err != nil {
		return "", "", err
	}
	return key, url, nil
}
