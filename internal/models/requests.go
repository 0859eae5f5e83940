package models

import "github.com/shopspring/decimal"

// --- Auth ---

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone" validate:"omitempty,max=20"`
	Address  string `json:"address" validate:"omitempty,max=1000"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=255"`
	Phone   *string `json:"phone" validate:"omitempty,max=20"`
	Address *string `json:"address" validate:"omitempty,max=1000"`
}

type ChangePasswordRequest struct {
	CurrentPassword         string `json:"current_password" validate:"required"`
	NewPassword             string `json:"new_password" validate:"required,min=6"`
	NewPasswordConfirmation string `json:"new_password_confirmation" validate:"required,eqfield=NewPassword"`
}

// --- Orders ---

type OrderItemRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
	Quantity  int  `json:"quantity" validate:"required,min=1"`
}

type CreateOrderRequest struct {
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
	PaymentMethod   PaymentMethod      `json:"payment_method" validate:"required,oneof=cod online"`
	ShippingAddress string             `json:"shipping_address" validate:"omitempty,max=1000"`
	CustomerName    string             `json:"customer_name" validate:"omitempty,max=255"`
	CustomerPhone   string             `json:"customer_phone" validate:"omitempty,max=20"`
	Notes           string             `json:"notes" validate:"omitempty,max=1000"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus PaymentStatus `json:"payment_status" validate:"required,oneof=unpaid paid refunded failed cancelled"`
}

type OrderListQuery struct {
	Status    string `query:"status"`
	Search    string `query:"search"`
	SortBy    string `query:"sort_by"`
	SortOrder string `query:"sort_order"`
	Page      int    `query:"page"`
	PerPage   int    `query:"per_page"`
}

// --- Payments ---

type InitiatePaymentRequest struct {
	OrderID uint `json:"order_id" validate:"required"`
}

// --- Catalog ---

type CreateProductRequest struct {
	Name        string           `json:"name" validate:"required,max=255"`
	Category    string           `json:"category" validate:"required,max=255"`
	Material    string           `json:"material" validate:"omitempty,max=255"`
	Size        string           `json:"size" validate:"omitempty,max=255"`
	Price       *decimal.Decimal `json:"price" validate:"required,gte=0"`
	Stock       *int             `json:"stock" validate:"required,gte=0"`
	Description string           `json:"description" validate:"omitempty,max=1000"`
	ImageURL    string           `json:"image_url" validate:"omitempty,max=2048"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name" validate:"omitempty,min=1,max=255"`
	Category    *string          `json:"category" validate:"omitempty,min=1,max=255"`
	Material    *string          `json:"material" validate:"omitempty,max=255"`
	Size        *string          `json:"size" validate:"omitempty,max=255"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,gte=0"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	Description *string          `json:"description" validate:"omitempty,max=1000"`
	ImageURL    *string          `json:"image_url" validate:"omitempty,max=2048"`
	IsActive    *bool            `json:"is_active"`
}

type UpdateStockRequest struct {
	Stock *int `json:"stock" validate:"required,gte=0"`
}

type ProductListQuery struct {
	Category  string `query:"category"`
	Search    string `query:"search"`
	MinPrice  string `query:"min_price"`
	MaxPrice  string `query:"max_price"`
	OrderBy   string `query:"order_by"`
	Direction string `query:"order_direction"`
	Page      int    `query:"page"`
	PerPage   int    `query:"per_page"`
}

type CategoryRequest struct {
	Name     string `json:"name" form:"name" validate:"required,max=255"`
	Icon     string `json:"icon" form:"icon" validate:"omitempty,max=255"`
	ImageURL string `json:"image_url" form:"image_url" validate:"omitempty,max=2048"`
}

// --- Wishlist ---

type WishlistRequest struct {
	ProductID uint `json:"product_id" validate:"required"`
}
