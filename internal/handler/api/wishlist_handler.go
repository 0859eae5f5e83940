package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"furnistore/internal/middleware"
	"furnistore/internal/models"
	"furnistore/internal/repository"
)

// WishlistHandler serves the signed-in customer's wishlist.
type WishlistHandler struct {
	wishlist *repository.WishlistRepository
	products *repository.ProductRepository
	logger   *zap.Logger
}

func NewWishlistHandler(wishlist *repository.WishlistRepository, products *repository.ProductRepository, logger *zap.Logger) *WishlistHandler {
	return &WishlistHandler{wishlist: wishlist, products: products, logger: logger}
}

type wishlistProduct struct {
	ID       uint            `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	ImageURL string          `json:"image_url"`
	Stock    int             `json:"stock"`
	InStock  bool            `json:"inStock"`
}

type wishlistItem struct {
	ID        uint             `json:"id"`
	ProductID uint             `json:"product_id"`
	Product   *wishlistProduct `json:"product"`
	CreatedAt time.Time        `json:"created_at"`
}

func toWishlistItem(w models.Wishlist) wishlistItem {
	item := wishlistItem{ID: w.ID, ProductID: w.ProductID, CreatedAt: w.CreatedAt}
	if p := w.Product; p != nil {
		item.Product = &wishlistProduct{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.Price,
			ImageURL: p.ImageURL,
			Stock:    p.Stock,
			InStock:  p.InStock(),
		}
	}
	return item
}

// List handles GET /api/user/wishlist.
func (h *WishlistHandler) List(c echo.Context) error {
	items, err := h.wishlist.FindByUser(middleware.CurrentUser(c).ID)
	if err != nil {
		h.logger.Error("Failed to fetch wishlist", zap.Error(err))
		return errorResponse(c, http.StatusInternalServerError, "Failed to fetch wishlist")
	}
	out := make([]wishlistItem, 0, len(items))
	for _, w := range items {
		out = append(out, toWishlistItem(w))
	}
	return successResponse(c, http.StatusOK, "", out)
}

// Add handles POST /api/user/wishlist.
func (h *WishlistHandler) Add(c echo.Context) error {
	var req models.WishlistRequest
	if ok, err := bindAndValidate(c, &req); !ok {
		return err
	}
	user := middleware.CurrentUser(c)

	product, err := h.products.FindByID(req.ProductID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errorResponse(c, http.StatusNotFound, "Product not found")
	}
	if err != nil {
		return h.fail(c, "Failed to add to wishlist", err)
	}

	exists, err := h.wishlist.Exists(user.ID, product.ID)
	if err != nil {
		return h.fail(c, "Failed to add to wishlist", err)
	}
	if exists {
		return errorResponse(c, http.StatusConflict, "Product already in wishlist")
	}

	entry := &models.Wishlist{UserID: user.ID, ProductID: product.ID}
	if err := h.wishlist.Create(entry); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errorResponse(c, http.StatusConflict, "Product already in wishlist")
		}
		return h.fail(c, "Failed to add to wishlist", err)
	}
	entry.Product = product
	return successResponse(c, http.StatusCreated, "Product added to wishlist", toWishlistItem(*entry))
}

// Remove handles DELETE /api/user/wishlist/:id.
func (h *WishlistHandler) Remove(c echo.Context) error {
	id, ok := idParam(c, "id")
	if !ok {
		return errorResponse(c, http.StatusNotFound, "Wishlist item not found")
	}
	if err := h.wishlist.Delete(middleware.CurrentUser(c).ID, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, "Wishlist item not found")
		}
		return h.fail(c, "Failed to remove from wishlist", err)
	}
	return successResponse(c, http.StatusOK, "Product removed from wishlist", nil)
}

// RemoveByProduct handles DELETE /api/user/wishlist/product/:productId.
func (h *WishlistHandler) RemoveByProduct(c echo.Context) error {
	productID, ok := idParam(c, "productId")
	if !ok {
		return errorResponse(c, http.StatusNotFound, "Product not in wishlist")
	}
	if err := h.wishlist.DeleteByProduct(middleware.CurrentUser(c).ID, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errorResponse(c, http.StatusNotFound, "Product not in wishlist")
		}
		return h.fail(c, "Failed to remove from wishlist", err)
	}
	return successResponse(c, http.StatusOK, "Product removed from wishlist", nil)
}

// Check handles GET /api/user/wishlist/check/:productId.
func (h *WishlistHandler) Check(c echo.Context) error {
	productID, ok := idParam(c, "productId")
	if !ok {
		return successResponse(c, http.StatusOK, "", map[string]bool{"inWishlist": false})
	}
	exists, err := h.wishlist.Exists(middleware.CurrentUser(c).ID, productID)
	if err != nil {
		return h.fail(c, "Failed to check wishlist", err)
	}
	return successResponse(c, http.StatusOK, "", map[string]bool{"inWishlist": exists})
}

func (h *WishlistHandler) fail(c echo.Context, msg string, err error) error {
	h.logger.Error(msg, zap.Error(err))
	return errorResponse(c, http.StatusInternalServerError, msg)
}
