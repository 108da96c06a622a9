package services_test

import (
	"sync"
	"testing"
	"time"

	"farmmarket/internal/apperrors"
	"farmmarket/internal/models"
	"farmmarket/internal/repositories"
	"farmmarket/internal/services"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type checkoutFixture struct {
	cartRepo    *repositories.MockCartRepository
	productRepo *repositories.MockProductRepository
	orderRepo   *repositories.MockOrderRepository
	idemRepo    *repositories.MockIdempotencyRepository
	service     *services.CheckoutService
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		cartRepo:    repositories.NewMockCartRepository(),
		productRepo: repositories.NewMockProductRepository(),
		orderRepo:   repositories.NewMockOrderRepository(),
		idemRepo:    repositories.NewMockIdempotencyRepository(),
	}
	f.service = services.NewCheckoutService(f.cartRepo, f.productRepo, f.orderRepo, f.idemRepo, nil)
	return f
}

func (f *checkoutFixture) seedProduct(t *testing.T, id, farmerID, name, price string, stock int) {
	t.Helper()
	err := f.productRepo.Create(&models.Product{
		ID:       id,
		FarmerID: farmerID,
		Name:     name,
		Category: "vegetables",
		Price:    decimal.RequireFromString(price),
		Stock:    stock,
		Unit:     "kg",
		Active:   true,
	})
	require.NoError(t, err)
}

func (f *checkoutFixture) seedCartLine(t *testing.T, buyerID, productID string, qty int) {
	t.Helper()
	err := f.cartRepo.Upsert(&models.CartItem{BuyerID: buyerID, ProductID: productID, Quantity: qty})
	require.NoError(t, err)
}

func (f *checkoutFixture) stockOf(t *testing.T, productID string) int {
	t.Helper()
	product, err := f.productRepo.GetByID(productID)
	require.NoError(t, err)
	return product.Stock
}

func futureDate() *time.Time {
	d := time.Now().Add(72 * time.Hour)
	return &d
}

func orderForFarmer(t *testing.T, orders []models.Order, farmerID string) models.Order {
	t.Helper()
	for _, order := range orders {
		if order.FarmerID == farmerID {
			return order
		}
	}
	t.Fatalf("no order for farmer %s", farmerID)
	return models.Order{}
}

// A cart spanning two farmers fans out into one order per farmer, with
// per-order totals, commission at 7% rounded to cents, decremented stock
// and an emptied cart.
func TestCheckoutService_FanOut(t *testing.T) {
	f := newCheckoutFixture()
	f.seedProduct(t, "prod-a", "farmer-1", "Heirloom Tomatoes", "4.99", 10)
	f.seedProduct(t, "prod-b", "farmer-1", "Fresh Basil", "3.49", 5)
	f.seedProduct(t, "prod-c", "farmer-2", "Raw Honey", "5.99", 3)
	f.seedCartLine(t, "buyer-1", "prod-a", 2)
	f.seedCartLine(t, "buyer-1", "prod-b", 1)
	f.seedCartLine(t, "buyer-1", "prod-c", 1)

	result, err := f.service.Checkout(services.CheckoutRequest{
		BuyerID:         "buyer-1",
		DeliveryAddress: "12 Orchard Lane",
		DeliveryDate:    futureDate(),
	})
	require.NoError(t, err)
	require.True(t, result.FullSuccess())
	require.Len(t, result.Orders, 2)

	order1 := orderForFarmer(t, result.Orders, "farmer-1")
	assert.Equal(t, "13.47", order1.Total.StringFixed(2))
	assert.Equal(t, "0.94", order1.Commission.StringFixed(2))
	assert.Len(t, order1.Items, 2)
	assert.Equal(t, models.OrderStatusPending, order1.Status)
	assert.Equal(t, models.PaymentStatusPending, order1.PaymentStatus)
	assert.Equal(t, "buyer-1", order1.BuyerID)

	order2 := orderForFarmer(t, result.Orders, "farmer-2")
	assert.Equal(t, "5.99", order2.Total.StringFixed(2))
	assert.Equal(t, "0.42", order2.Commission.StringFixed(2))
	assert.Len(t, order2.Items, 1)

	// Item lines carry price snapshots
	item := order2.Items[0]
	assert.Equal(t, "Raw Honey", item.ProductName)
	assert.Equal(t, "5.99", item.UnitPrice.StringFixed(2))
	assert.Equal(t, "5.99", item.LineTotal.StringFixed(2))

	// Stock was decremented and the cart fully cleared
	assert.Equal(t, 8, f.stockOf(t, "prod-a"))
	assert.Equal(t, 4, f.stockOf(t, "prod-b"))
	assert.Equal(t, 2, f.stockOf(t, "prod-c"))
	remaining, err := f.cartRepo.GetByBuyer("buyer-1")
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

// Later catalog price edits must not change what an existing order quotes.
func TestCheckoutService_PriceSnapshotIsImmutable(t *testing.T) {
	f := newCheckoutFixture()
	f.seedProduct(t, "prod-a", "farmer-1", "Heirloom Tomatoes", "4.99", 10)
	f.seedCartLine(t, "buyer-1", "prod-a", 1)

	result, err := f.service.Checkout(services.CheckoutRequest{
		BuyerID:         "buyer-1",
		DeliveryAddress: "12 Orchard Lane",
	})
	require.NoError(t, err)
	require.Len(t, result.Orders, 1)

	product, err := f.productRepo.GetByID("prod-a")
	require.NoError(t, err)
	product.Price = decimal.RequireFromString("9.99")
	require.NoError(t, f.productRepo.Update(product))

	stored, err := f.orderRepo.GetByID(result.Orders[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "4.99", stored.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "4.99", stored.Total.StringFixed(2))
}

func TestCheckoutService_EmptyCart(t *testing.T) {
	f := newCheckoutFixture()

	_, err := f.service.Checkout(services.CheckoutRequest{
		BuyerID:         "buyer-1",
		DeliveryAddress: "12 Orchard Lane",
	})
	assert.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindEmptyCart))
}

func TestCheckoutService_Validation(t *testing.T) {
	f := newCheckoutFixture()

	_, err := f.service.Checkout(services.CheckoutRequest{BuyerID: "buyer-1"})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	assert.Equal(t, "delivery_address", apperrors.FieldOf(err))

	past := time.Now().Add(-24 * time.Hour)
	_, err = f.service.Checkout(services.CheckoutRequest{
		BuyerID:         "buyer-1",
		DeliveryAddress: "12 Orchard Lane",
		DeliveryDate:    &past,
	})
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
	assert.Equal(t, "delivery_date", apperrors.FieldOf(err))
}

// One farmer group failing stock validation must not take down the others:
// the healthy group's order stands and only the failed group's items stay
// in the cart.
func TestCheckoutService_PartialFailureKeepsFailedGroupInCart(t *testing.T) {
	f := newCheckoutFixture()
	f.seedProduct(t, "prod-a", "farmer-1", "Heirloom Tomatoes", "4.99", 10)
	f.seedProduct(t, "prod-c", "farmer-2", "Raw Honey", "5.99", 1)
	f.seedCartLine(t, "buyer-1", "prod-a", 2)
	f.seedCartLine(t, "buyer-1", "prod-c", 5) // more than farmer-2 has

	result, err := f.service.Checkout(services.CheckoutRequest{
		BuyerID:         "buyer-1",
		DeliveryAddress: "12 Orchard Lane",
	})
	require.NoError(t, err)
	assert.False(t, result.FullSuccess())
	require.Len(t, result.Orders, 1)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "farmer-1", result.Orders[0].FarmerID)
	assert.Equal(t, "farmer-2", result.Failed[0].FarmerID)
	assert.Equal(t, []string{"prod-c"}, result.Failed[0].ProductIDs)

	// Failed group untouched, healthy group committed
	assert.Equal(t, 8, f.stockOf(t, "prod-a"))
	assert.Equal(t, 1, f.stockOf(t, "prod-c"))

	remaining, err := f.cartRepo.GetByBuyer("buyer-1")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "prod-c", remaining[0].ProductID)
	assert.Equal(t, 5, remaining[0].Quantity)
}

// A group fails as a whole: if its second product lacks stock, the first
// product's already-applied decrement is compensated.
func TestCheckoutService_GroupFailureRestocksEarlierDecrements(t *testing.T) {
	f := newCheckoutFixture()
	f.seedProduct(t, "prod-a", "farmer-1", "Heirloom Tomatoes", "4.99", 10)
	f.seedProduct(t, "prod-b", "farmer-1", "Fresh Basil", "3.49", 0)
	f.seedCartLine(t, "buyer-1", "prod-a", 2)
	f.seedCartLine(t, "buyer-1", "prod-b", 1)

	result, err := f.service.Checkout(services.CheckoutRequest{
		BuyerID:         "buyer-1",
		DeliveryAddress: "12 Orchard Lane",
	})
	require.NoError(t, err)
	assert.Empty(t, result.Orders)
	require.Len(t, result.Failed, 1)

	assert.Equal(t, 10, f.stockOf(t, "prod-a"))
	assert.Equal(t, 0, f.stockOf(t, "prod-b"))

	remaining, err := f.cartRepo.GetByBuyer("buyer-1")
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}

// Retrying a checkout with the same Idempotency-Key replays the original
// orders instead of charging the buyer twice.
func TestCheckoutService_IdempotentRetry(t *testing.T) {
	f := newCheckoutFixture()
	f.seedProduct(t, "prod-a", "farmer-1", "Heirloom Tomatoes", "4.99", 10)
	f.seedCartLine(t, "buyer-1", "prod-a", 2)

	req := services.CheckoutRequest{
		BuyerID:         "buyer-1",
		DeliveryAddress: "12 Orchard Lane",
		IdempotencyKey:  "retry-key-1",
	}
	first, err := f.service.Checkout(req)
	require.NoError(t, err)
	require.Len(t, first.Orders, 1)

	second, err := f.service.Checkout(req)
	require.NoError(t, err)
	require.Len(t, second.Orders, 1)
	assert.Equal(t, first.Orders[0].ID, second.Orders[0].ID)

	// No second fan-out ran: stock decremented exactly once
	assert.Equal(t, 8, f.stockOf(t, "prod-a"))
	_, total, err := f.orderRepo.ListByBuyer("buyer-1", 0, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

// Concurrent checkouts racing for the same product never drive stock
// negative; exactly as many orders succeed as there is stock to cover.
func TestCheckoutService_ConcurrentCheckoutsNeverOversell(t *testing.T) {
	f := newCheckoutFixture()
	f.seedProduct(t, "prod-a", "farmer-1", "Heirloom Tomatoes", "4.99", 3)

	buyers := []string{"buyer-1", "buyer-2", "buyer-3", "buyer-4", "buyer-5"}
	for _, buyer := range buyers {
		f.seedCartLine(t, buyer, "prod-a", 1)
	}

	var wg sync.WaitGroup
	results := make([]*services.CheckoutResult, len(buyers))
	for i, buyer := range buyers {
		wg.Add(1)
		go func(i int, buyer string) {
			defer wg.Done()
			result, err := f.service.Checkout(services.CheckoutRequest{
				BuyerID:         buyer,
				DeliveryAddress: "12 Orchard Lane",
			})
			if err == nil {
				results[i] = result
			}
		}(i, buyer)
	}
	wg.Wait()

	succeeded := 0
	for _, result := range results {
		if result != nil && len(result.Orders) > 0 {
			succeeded++
		}
	}
	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 0, f.stockOf(t, "prod-a"))
}

// A product delisted after it entered a cart is dropped from checkout
// instead of failing the whole request.
func TestCheckoutService_StaleCartLineIsDropped(t *testing.T) {
	f := newCheckoutFixture()
	f.seedProduct(t, "prod-a", "farmer-1", "Heirloom Tomatoes", "4.99", 10)
	f.seedCartLine(t, "buyer-1", "prod-a", 1)
	f.seedCartLine(t, "buyer-1", "prod-gone", 2)

	result, err := f.service.Checkout(services.CheckoutRequest{
		BuyerID:         "buyer-1",
		DeliveryAddress: "12 Orchard Lane",
	})
	require.NoError(t, err)
	require.Len(t, result.Orders, 1)
	assert.Equal(t, "4.99", result.Orders[0].Total.StringFixed(2))

	remaining, err := f.cartRepo.GetByBuyer("buyer-1")
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
