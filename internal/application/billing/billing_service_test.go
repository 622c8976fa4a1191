package billing

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/billing/backend/internal/domain/billing"
	"github.com/billing/backend/internal/domain/catalog"
	"github.com/billing/backend/internal/domain/inventory"
	"github.com/billing/backend/internal/domain/partner"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/billing/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newBillingService(state *memState, notifier LowStockNotifier) *BillingService {
	validator := NewCouponValidator(&memCoupons{state}, &memBills{state})
	return NewBillingService(
		&memProducts{state},
		&memCustomers{state},
		&memOrders{state},
		&memBills{state},
		&memCounters{state},
		validator,
		&memScope{state},
		notifier,
		zap.NewNop(),
	)
}

func addCementBag(t *testing.T, state *memState, stock int) *catalog.Product {
	t.Helper()
	product, err := catalog.NewProduct("Cement Bag", decimal.NewFromInt(100), decimal.NewFromInt(18), stock)
	require.NoError(t, err)
	require.NoError(t, product.SetBulkTier(5, decimal.NewFromInt(10)))
	state.addProduct(product)
	return product
}

func walkInRequest(product *catalog.Product, quantity int) CreateBillRequest {
	return CreateBillRequest{
		CustomerName:  "Asha Traders",
		CustomerPhone: "9876543210",
		Items: []BillingItemRequest{
			{ProductID: product.ID, Quantity: quantity},
		},
		PaymentType: "cash",
	}
}

func TestCreateBill(t *testing.T) {
	ctx := context.Background()

	t.Run("commits a bulk-priced bill end to end", func(t *testing.T) {
		state := newMemState()
		product := addCementBag(t, state, 5)
		service := newBillingService(state, nil)

		response, err := service.CreateBill(ctx, walkInRequest(product, 5), "")
		require.NoError(t, err)

		// price 100, bulk reduction 10 at threshold 5, GST 18%
		assert.True(t, response.Subtotal.Equal(decimal.NewFromInt(450)), "subtotal %s", response.Subtotal)
		assert.True(t, response.GSTTotal.Equal(decimal.NewFromInt(81)))
		assert.True(t, response.GrandTotal.Equal(decimal.NewFromInt(531)))
		assert.True(t, response.Payable.Equal(decimal.NewFromInt(531)))
		assert.Equal(t, "INV-"+response.CreatedAt.Format("20060102")+"-0001", response.InvoiceNumber)

		assert.Equal(t, 0, state.products[product.ID].Stock)

		txns, err := (&memStockTxns{state}).FindByReference(ctx, inventory.ReferenceTypeBill, response.InvoiceNumber)
		require.NoError(t, err)
		require.Len(t, txns, 1)
		assert.Equal(t, inventory.TransactionTypeSold, txns[0].Type)
		assert.Equal(t, 5, txns[0].Before)
		assert.Equal(t, 0, txns[0].After)

		customer := state.customers[response.CustomerID]
		require.NotNil(t, customer)
		assert.Equal(t, 1, customer.BillCount)

		var direct *trade.Order
		for _, order := range state.orders {
			direct = order
		}
		require.NotNil(t, direct, "direct bill order should be recorded")
		assert.Equal(t, trade.OrderStatusFulfilled, direct.Status)
		require.NotNil(t, direct.BillID)
		assert.Equal(t, response.ID, *direct.BillID)
	})

	t.Run("fails when quantity exceeds stock and leaves stock unchanged", func(t *testing.T) {
		state := newMemState()
		product := addCementBag(t, state, 5)
		service := newBillingService(state, nil)

		_, err := service.CreateBill(ctx, walkInRequest(product, 6), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Insufficient stock")
		assert.Equal(t, 5, state.products[product.ID].Stock)
		assert.Empty(t, state.stockTxns)
		assert.Empty(t, state.bills)
	})

	t.Run("exactly one of two simultaneous bills wins the last stock", func(t *testing.T) {
		state := newMemState()
		product := addCementBag(t, state, 5)
		service := newBillingService(state, nil)

		var wg sync.WaitGroup
		errs := make([]error, 2)
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				req := walkInRequest(product, 3)
				req.CustomerPhone = fmt.Sprintf("900000000%d", i)
				_, errs[i] = service.CreateBill(ctx, req, "")
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
			} else {
				assert.Contains(t, err.Error(), "Insufficient stock")
			}
		}
		assert.Equal(t, 1, succeeded)
		assert.Equal(t, 2, state.products[product.ID].Stock)
	})

	t.Run("never oversells under concurrent load", func(t *testing.T) {
		state := newMemState()
		product, err := catalog.NewProduct("Cement Bag", decimal.NewFromInt(100), decimal.NewFromInt(18), 10)
		require.NoError(t, err)
		state.addProduct(product)
		service := newBillingService(state, nil)

		const workers = 25
		var wg sync.WaitGroup
		results := make([]error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				req := walkInRequest(product, 1)
				req.CustomerPhone = fmt.Sprintf("90000%05d", i)
				_, results[i] = service.CreateBill(ctx, req, "")
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range results {
			if err == nil {
				succeeded++
			}
		}
		assert.Equal(t, 10, succeeded, "exactly the available stock may be sold")
		assert.Equal(t, 0, state.products[product.ID].Stock)
	})

	t.Run("issues duplicate-free invoice numbers under concurrency", func(t *testing.T) {
		state := newMemState()
		product, err := catalog.NewProduct("Cement Bag", decimal.NewFromInt(100), decimal.NewFromInt(18), 1000)
		require.NoError(t, err)
		state.addProduct(product)
		service := newBillingService(state, nil)

		const workers = 30
		var wg sync.WaitGroup
		numbers := make([]string, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				req := walkInRequest(product, 1)
				req.CustomerPhone = fmt.Sprintf("91000%05d", i)
				response, err := service.CreateBill(ctx, req, "")
				if err == nil {
					numbers[i] = response.InvoiceNumber
				}
			}(i)
		}
		wg.Wait()

		seen := make(map[string]bool, workers)
		for _, number := range numbers {
			require.NotEmpty(t, number)
			assert.False(t, seen[number], "duplicate invoice number %s", number)
			seen[number] = true
		}
		assert.Len(t, seen, workers)
	})

	t.Run("aborts the whole commit when the bill write fails", func(t *testing.T) {
		state := newMemState()
		product := addCementBag(t, state, 5)
		state.failBillSave = assert.AnError
		service := newBillingService(state, nil)

		_, err := service.CreateBill(ctx, walkInRequest(product, 3), "")
		require.Error(t, err)

		assert.Equal(t, 5, state.products[product.ID].Stock, "stock decrement must roll back")
		assert.Empty(t, state.stockTxns, "audit rows must roll back")
		assert.Empty(t, state.bills)
		assert.Empty(t, state.orders)
	})

	t.Run("fails with unknown explicit customer id", func(t *testing.T) {
		state := newMemState()
		product := addCementBag(t, state, 5)
		service := newBillingService(state, nil)

		missing := uuid.New()
		req := walkInRequest(product, 1)
		req.CustomerID = &missing
		_, err := service.CreateBill(ctx, req, "")
		assert.ErrorIs(t, err, shared.ErrCustomerNotFound)
	})

	t.Run("reuses an existing customer matched by phone", func(t *testing.T) {
		state := newMemState()
		product := addCementBag(t, state, 50)
		existing, err := partner.NewCustomer("Asha Traders", "9876543210", "", "")
		require.NoError(t, err)
		state.addCustomer(existing)
		service := newBillingService(state, nil)

		response, err := service.CreateBill(ctx, walkInRequest(product, 1), "")
		require.NoError(t, err)
		assert.Equal(t, existing.ID, response.CustomerID)
		assert.Len(t, state.customers, 1)
	})

	t.Run("fulfills an originating order", func(t *testing.T) {
		state := newMemState()
		product := addCementBag(t, state, 50)
		order := &trade.Order{
			BaseEntity:    shared.NewBaseEntity(),
			Type:          trade.OrderTypeEnquiry,
			CustomerName:  "Asha Traders",
			CustomerPhone: "9876543210",
			Status:        trade.OrderStatusConfirmed,
		}
		state.orders[order.ID] = order
		service := newBillingService(state, nil)

		req := walkInRequest(product, 1)
		req.OrderID = &order.ID
		response, err := service.CreateBill(ctx, req, "")
		require.NoError(t, err)

		updated := state.orders[order.ID]
		assert.Equal(t, trade.OrderStatusFulfilled, updated.Status)
		require.NotNil(t, updated.BillID)
		assert.Equal(t, response.ID, *updated.BillID)
		assert.Len(t, state.orders, 1, "no synthetic order for an order-backed bill")
	})

	t.Run("decrements variant stock independently of product stock", func(t *testing.T) {
		state := newMemState()
		product, err := catalog.NewProduct("Paint", decimal.NewFromInt(100), decimal.NewFromInt(18), 50)
		require.NoError(t, err)
		variant, err := catalog.NewProductVariant(product.ID, "5L", decimal.NewFromInt(450), 10)
		require.NoError(t, err)
		product.Variants = append(product.Variants, *variant)
		state.addProduct(product)
		service := newBillingService(state, nil)

		req := CreateBillRequest{
			CustomerName:  "Asha Traders",
			CustomerPhone: "9876543210",
			Items: []BillingItemRequest{
				{ProductID: product.ID, VariantID: &variant.ID, Quantity: 4},
			},
		}
		response, err := service.CreateBill(ctx, req, "")
		require.NoError(t, err)
		assert.True(t, response.Subtotal.Equal(decimal.NewFromInt(1800)))

		stored := state.products[product.ID]
		assert.Equal(t, 50, stored.Stock)
		assert.Equal(t, 6, stored.Variants[0].Stock)
	})

	t.Run("rejects invalid requests before any mutation", func(t *testing.T) {
		state := newMemState()
		product := addCementBag(t, state, 5)
		service := newBillingService(state, nil)

		_, err := service.CreateBill(ctx, CreateBillRequest{CustomerName: "A", CustomerPhone: "9"}, "")
		require.Error(t, err)

		req := walkInRequest(product, 0)
		_, err = service.CreateBill(ctx, req, "")
		assert.ErrorIs(t, err, shared.ErrInvalidQuantity)

		req = walkInRequest(product, 1)
		req.CustomerName = ""
		req.CustomerPhone = ""
		_, err = service.CreateBill(ctx, req, "")
		require.Error(t, err)

		assert.Empty(t, state.bills)
		assert.Equal(t, 5, state.products[product.ID].Stock)
	})
}

func TestCreateBillWithCoupon(t *testing.T) {
	ctx := context.Background()

	t.Run("applies a percent coupon", func(t *testing.T) {
		state := newMemState()
		product := addCementBag(t, state, 50)
		coupon, err := billing.NewCoupon("SAVE10", billing.DiscountTypePercent, decimal.NewFromInt(10))
		require.NoError(t, err)
		state.addCoupon(coupon)
		service := newBillingService(state, nil)

		req := walkInRequest(product, 2)
		req.CouponCode = "save10"
		response, err := service.CreateBill(ctx, req, "")
		require.NoError(t, err)

		// total 236, 10% off
		assert.True(t, response.Discount.Equal(decimal.NewFromFloat(23.60)), "discount %s", response.Discount)
		assert.True(t, response.Payable.Equal(decimal.NewFromFloat(212.40)))
		assert.Equal(t, "SAVE10", response.CouponCode)
		assert.Equal(t, 1, state.coupons[coupon.ID].UsedCount)
	})

	t.Run("usage limit of three allows exactly three bills", func(t *testing.T) {
		state := newMemState()
		product := addCementBag(t, state, 100)
		coupon, err := billing.NewCoupon("LIMIT3", billing.DiscountTypePercent, decimal.NewFromInt(10))
		require.NoError(t, err)
		coupon.UsageLimit = 3
		state.addCoupon(coupon)
		service := newBillingService(state, nil)

		for i := 0; i < 3; i++ {
			req := walkInRequest(product, 1)
			req.CustomerPhone = fmt.Sprintf("920000000%d", i)
			req.CouponCode = "LIMIT3"
			_, err := service.CreateBill(ctx, req, "")
			require.NoError(t, err, "use %d", i+1)
		}

		req := walkInRequest(product, 1)
		req.CustomerPhone = "9200000009"
		req.CouponCode = "LIMIT3"
		_, err = service.CreateBill(ctx, req, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), billing.RejectLimitReached)
		assert.Equal(t, 3, state.coupons[coupon.ID].UsedCount)
	})

	t.Run("aggregate sales cap rejects the overflowing bill", func(t *testing.T) {
		state := newMemState()
		product, err := catalog.NewProduct("Door Frame", decimal.NewFromInt(620), decimal.Zero, 50)
		require.NoError(t, err)
		state.addProduct(product)
		coupon, err := billing.NewCoupon("CAP1000", billing.DiscountTypeFlat, decimal.NewFromInt(20))
		require.NoError(t, err)
		coupon.MaxTotalSales = decimal.NewFromInt(1000)
		state.addCoupon(coupon)
		service := newBillingService(state, nil)

		first := walkInRequest(product, 1)
		first.CouponCode = "CAP1000"
		response, err := service.CreateBill(ctx, first, "")
		require.NoError(t, err)
		assert.True(t, response.Payable.Equal(decimal.NewFromInt(600)))

		second := walkInRequest(product, 1)
		second.CustomerPhone = "9300000001"
		second.CouponCode = "CAP1000"
		_, err = service.CreateBill(ctx, second, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), billing.RejectSalesCapExceeded)

		assert.True(t, state.coupons[coupon.ID].TotalSales.Equal(decimal.NewFromInt(600)),
			"aggregate sales must be unchanged by the rejected bill")
		assert.Equal(t, 1, state.coupons[coupon.ID].UsedCount)
	})

	t.Run("unknown coupon code rejects the bill", func(t *testing.T) {
		state := newMemState()
		product := addCementBag(t, state, 50)
		service := newBillingService(state, nil)

		req := walkInRequest(product, 1)
		req.CouponCode = "NOPE"
		_, err := service.CreateBill(ctx, req, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), billing.RejectUnknownCode)
	})
}

func TestCreateBillNotifications(t *testing.T) {
	ctx := context.Background()

	t.Run("reports products at or below the threshold after commit", func(t *testing.T) {
		state := newMemState()
		product := addCementBag(t, state, 7)
		notifier := &recordingNotifier{}
		service := newBillingService(state, notifier)

		_, err := service.CreateBill(ctx, walkInRequest(product, 3), "")
		require.NoError(t, err)

		require.Len(t, notifier.reports, 1)
		report := notifier.reports[0]
		assert.Equal(t, DefaultLowStockThreshold, report.Threshold)
		require.Len(t, report.Products, 1)
		assert.Equal(t, product.ID, report.Products[0].ProductID)
		assert.Equal(t, 4, report.Products[0].Stock)
	})

	t.Run("stays silent while stock is above the threshold", func(t *testing.T) {
		state := newMemState()
		product := addCementBag(t, state, 50)
		notifier := &recordingNotifier{}
		service := newBillingService(state, notifier)

		_, err := service.CreateBill(ctx, walkInRequest(product, 3), "")
		require.NoError(t, err)
		assert.Empty(t, notifier.reports)
	})

	t.Run("notifier failure does not fail the committed bill", func(t *testing.T) {
		state := newMemState()
		product := addCementBag(t, state, 5)
		notifier := &failingNotifier{}
		service := newBillingService(state, notifier)

		response, err := service.CreateBill(ctx, walkInRequest(product, 3), "")
		require.NoError(t, err)
		require.NotNil(t, response)
		assert.Equal(t, 1, notifier.calls)
		assert.Len(t, state.bills, 1)
	})
}

func TestCreateBillIdempotency(t *testing.T) {
	ctx := context.Background()

	t.Run("replays the committed bill for a repeated key", func(t *testing.T) {
		state := newMemState()
		product := addCementBag(t, state, 50)
		service := newBillingService(state, nil)
		store := newMemIdempotencyStore()
		service.SetIdempotencyStore(store, shared.DefaultIdempotencyConfig())

		first, err := service.CreateBill(ctx, walkInRequest(product, 2), "retry-key-1")
		require.NoError(t, err)

		second, err := service.CreateBill(ctx, walkInRequest(product, 2), "retry-key-1")
		require.NoError(t, err)

		assert.Equal(t, first.InvoiceNumber, second.InvoiceNumber)
		assert.Len(t, state.bills, 1, "the retry must not bill twice")
		assert.Equal(t, 48, state.products[product.ID].Stock)
	})

	t.Run("different keys bill independently", func(t *testing.T) {
		state := newMemState()
		product := addCementBag(t, state, 50)
		service := newBillingService(state, nil)
		store := newMemIdempotencyStore()
		service.SetIdempotencyStore(store, shared.DefaultIdempotencyConfig())

		first, err := service.CreateBill(ctx, walkInRequest(product, 2), "key-a")
		require.NoError(t, err)
		second, err := service.CreateBill(ctx, walkInRequest(product, 2), "key-b")
		require.NoError(t, err)

		assert.NotEqual(t, first.InvoiceNumber, second.InvoiceNumber)
		assert.Len(t, state.bills, 2)
	})
}
