package handlers

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"farmmarket/internal/middleware"
	"farmmarket/internal/models"
	"farmmarket/internal/repositories"
	"farmmarket/internal/services"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	productService *services.ProductService
	reviewService  *services.ReviewService
	validate       *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService *services.ProductService, reviewService *services.ReviewService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		reviewService:  reviewService,
		validate:       validator.New(),
	}
}

// RegisterPublicRoutes registers the unauthenticated catalog reads.
func (h *ProductHandler) RegisterPublicRoutes(router fiber.Router) {
	router.Get("/products", h.HandleListProducts)
	router.Get("/products/:id", h.HandleGetProduct)
	router.Get("/products/:id/reviews", h.HandleGetProductReviews)
}

// RegisterFarmerRoutes registers the farmer catalog CRUD.
func (h *ProductHandler) RegisterFarmerRoutes(router fiber.Router) {
	router.Get("/products", h.HandleListOwnProducts)
	router.Post("/products", h.HandleCreateProduct)
	router.Put("/products/:id", h.HandleUpdateProduct)
	router.Delete("/products/:id", h.HandleDeleteProduct)
}

// HandleListProducts lists active products with filters and pagination.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	filter := repositories.ProductFilter{
		Category:   c.Query("category"),
		Search:     c.Query("search"),
		InStock:    c.QueryBool("inStock"),
		ActiveOnly: true,
	}
	if raw := c.Query("minPrice"); raw != "" {
		if price, err := decimal.NewFromString(raw); err == nil {
			filter.MinPrice = &price
		}
	}
	if raw := c.Query("maxPrice"); raw != "" {
		if price, err := decimal.NewFromString(raw); err == nil {
			filter.MaxPrice = &price
		}
	}

	page, limit, offset := pageParams(c)
	products, total, err := h.productService.ListProducts(filter, offset, limit)
	if err != nil {
		return respondError(c, "Could not list products", err)
	}
	return respondOK(c, "Products retrieved", newPage(products, page, limit, total))
}

// HandleGetProduct retrieves one product.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.productService.GetProductByID(c.Params("id"))
	if err != nil {
		return respondError(c, "Could not retrieve product", err)
	}
	return respondOK(c, "Product retrieved", product)
}

// HandleGetProductReviews returns a product's reviews and rating aggregate.
func (h *ProductHandler) HandleGetProductReviews(c *fiber.Ctx) error {
	reviews, rating, err := h.reviewService.GetProductReviews(c.Params("id"))
	if err != nil {
		return respondError(c, "Could not retrieve reviews", err)
	}
	return respondOK(c, "Reviews retrieved", fiber.Map{
		"reviews": reviews,
		"rating":  rating,
	})
}

// HandleListOwnProducts lists the authenticated farmer's products.
func (h *ProductHandler) HandleListOwnProducts(c *fiber.Ctx) error {
	filter := repositories.ProductFilter{FarmerID: middleware.UserID(c)}
	page, limit, offset := pageParams(c)
	products, total, err := h.productService.ListProducts(filter, offset, limit)
	if err != nil {
		return respondError(c, "Could not list products", err)
	}
	return respondOK(c, "Products retrieved", newPage(products, page, limit, total))
}

// ProductRequest represents the request body for creating or updating a product.
type ProductRequest struct {
	Name        string `json:"name" validate:"required,min=3,max=100"`
	Description string `json:"description" validate:"omitempty,max=500"`
	Category    string `json:"category" validate:"required,max=50"`
	Price       string `json:"price" validate:"required"`
	Stock       int    `json:"stock" validate:"gte=0"`
	Unit        string `json:"unit" validate:"omitempty,max=20"`
	Active      *bool  `json:"active"`
}

func (h *ProductHandler) parseProduct(c *fiber.Ctx) (*models.Product, error) {
	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, respondBadBody(c, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return nil, respondValidation(c, err)
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return nil, c.Status(fiber.StatusBadRequest).JSON(Envelope{
			Success: false, Message: "Validation failed",
			Error: "price must be a decimal string", Field: "price",
		})
	}

	product := &models.Product{
		FarmerID:    middleware.UserID(c),
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       price,
		Stock:       req.Stock,
		Unit:        req.Unit,
		Active:      true,
	}
	if req.Active != nil {
		product.Active = *req.Active
	}
	return product, nil
}

// HandleCreateProduct creates a catalog product owned by the farmer.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	product, done := h.parseProduct(c)
	if product == nil {
		return done
	}
	if err := h.productService.CreateProduct(product); err != nil {
		return respondError(c, "Could not create product", err)
	}
	return respondCreated(c, "Product created successfully", product)
}

// HandleUpdateProduct updates one of the farmer's products.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	product, done := h.parseProduct(c)
	if product == nil {
		return done
	}
	product.ID = c.Params("id")
	if err := h.productService.UpdateProduct(product, middleware.UserID(c)); err != nil {
		return respondError(c, "Could not update product", err)
	}
	return respondOK(c, "Product updated successfully", product)
}

// HandleDeleteProduct deletes one of the farmer's products.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.productService.DeleteProduct(c.Params("id"), middleware.UserID(c)); err != nil {
		return respondError(c, "Could not delete product", err)
	}
	return respondOK(c, "Product deleted successfully", nil)
}
