package services

import (
	"github.com/shopspring/decimal"

	"farmmarket/internal/apperrors"
	"farmmarket/internal/models"
	"farmmarket/internal/repositories"
)

// CartService handles business logic for the buyer's cart.
type CartService struct {
	cartRepo    repositories.CartRepository
	productRepo repositories.ProductRepository
}

// NewCartService creates a new CartService.
func NewCartService(cartRepo repositories.CartRepository, productRepo repositories.ProductRepository) *CartService {
	return &CartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
	}
}

// CartLine is a cart item joined with its current product snapshot.
type CartLine struct {
	Item     models.CartItem `json:"item"`
	Product  models.Product  `json:"product"`
	LineCost decimal.Decimal `json:"line_cost"`
}

// CartView is the buyer's cart with the current catalog prices applied.
// These are quotes only; the price is captured at checkout.
type CartView struct {
	Lines    []CartLine      `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// GetCart returns the buyer's cart resolved against the current catalog.
// Lines whose product has been delisted are dropped from the view.
func (s *CartService) GetCart(buyerID string) (*CartView, error) {
	items, err := s.cartRepo.GetByBuyer(buyerID)
	if err != nil {
		return nil, err
	}

	view := &CartView{Lines: []CartLine{}, Subtotal: decimal.Zero}
	for _, item := range items {
		product, err := s.productRepo.GetByID(item.ProductID)
		if err != nil {
			if apperrors.Is(err, apperrors.KindNotFound) {
				continue
			}
			return nil, err
		}
		lineCost := product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		view.Lines = append(view.Lines, CartLine{Item: item, Product: *product, LineCost: lineCost})
		view.Subtotal = view.Subtotal.Add(lineCost)
	}
	return view, nil
}

// AddItem puts a product in the buyer's cart, merging quantity with any
// existing line for the same product.
func (s *CartService) AddItem(buyerID, productID string, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, apperrors.Validation("quantity", "quantity must be at least 1")
	}
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, err
	}
	if !product.Active {
		return nil, apperrors.Validation("product_id", "product is not available")
	}
	if product.Stock < quantity {
		return nil, apperrors.New(apperrors.KindInsufficientStock, "not enough stock available")
	}

	item := &models.CartItem{BuyerID: buyerID, ProductID: productID, Quantity: quantity}
	if err := s.cartRepo.Upsert(item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateQuantity replaces the quantity of an existing cart line.
func (s *CartService) UpdateQuantity(buyerID, productID string, quantity int) error {
	if quantity < 1 {
		return apperrors.Validation("quantity", "quantity must be at least 1")
	}
	return s.cartRepo.UpdateQuantity(buyerID, productID, quantity)
}

// RemoveItem deletes one line from the buyer's cart.
func (s *CartService) RemoveItem(buyerID, productID string) error {
	return s.cartRepo.RemoveItem(buyerID, productID)
}

// ClearCart removes everything from the buyer's cart.
func (s *CartService) ClearCart(buyerID string) error {
	return s.cartRepo.Clear(buyerID)
}
