package billing

import (
	"github.com/billing/backend/internal/domain/catalog"
	"github.com/billing/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineRequest is one requested purchase line
type LineRequest struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Quantity  int
}

// PricingResult is the computed financial shape of a bill before discounts
type PricingResult struct {
	Items        []BillItem
	Subtotal     decimal.Decimal
	GSTTotal     decimal.Decimal
	Total        decimal.Decimal
	GSTBreakdown GSTBreakdown
}

// PriceLines computes line items and totals for the requested lines against
// already-resolved products. It is a pure function: identical inputs always
// yield identical output, and nothing is read or written outside its arguments.
//
// Per line: the effective unit price is the variant price when a variant is
// selected, otherwise the product price after any bulk-tier reduction.
// lineSubtotal = price * quantity, lineGst = round2(lineSubtotal * gstRate/100),
// lineTotal = lineSubtotal + lineGst. The breakdown groups GST by rate.
func PriceLines(products map[uuid.UUID]*catalog.Product, lines []LineRequest) (*PricingResult, error) {
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_BILL", "Bill must contain at least one item")
	}

	result := &PricingResult{
		Items:        make([]BillItem, 0, len(lines)),
		Subtotal:     decimal.Zero,
		GSTTotal:     decimal.Zero,
		Total:        decimal.Zero,
		GSTBreakdown: GSTBreakdown{},
	}

	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, shared.ErrInvalidQuantity
		}
		product, ok := products[line.ProductID]
		if !ok || product == nil {
			return nil, shared.ErrProductNotFound
		}

		item := BillItem{
			ProductID: product.ID,
			Name:      product.Name,
			Category:  product.Category,
			HSNCode:   product.HSNCode,
			ImageURL:  product.ImageURL,
			GSTRate:   product.GSTRate,
			Quantity:  line.Quantity,
		}

		if line.VariantID != nil {
			variant := product.Variant(line.VariantID.String())
			if variant == nil {
				return nil, shared.ErrProductNotFound
			}
			item.VariantID = line.VariantID
			item.VariantLabel = variant.Label
			item.ImageURL = variant.ImageOrDefault(product.ImageURL)
			item.UnitPrice = variant.Price
		} else {
			item.UnitPrice = product.EffectiveUnitPrice(line.Quantity)
		}

		quantity := decimal.NewFromInt(int64(line.Quantity))
		item.LineSubtotal = item.UnitPrice.Mul(quantity)
		item.LineGST = item.LineSubtotal.Mul(item.GSTRate).Div(decimal.NewFromInt(100)).Round(2)
		item.LineTotal = item.LineSubtotal.Add(item.LineGST)

		rate := item.GSTRate.String()
		result.GSTBreakdown[rate] = result.GSTBreakdown[rate].Add(item.LineGST)

		result.Subtotal = result.Subtotal.Add(item.LineSubtotal)
		result.GSTTotal = result.GSTTotal.Add(item.LineGST)
		result.Items = append(result.Items, item)
	}

	result.Total = result.Subtotal.Add(result.GSTTotal)
	return result, nil
}
