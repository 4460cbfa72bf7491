package commerce

import (
	"context"

	slogctx "github.com/veqryn/slog-context"
)

type ProductsFetcher interface {
	GetProducts(ctx context.Context, ids []string, params ProductParams) (ProductResult, error)
}

// ProductsByItemID maps basket item ids to the details of their products.
// It is best effort: an empty basket or a failed lookup yields nil.
func ProductsByItemID(ctx context.Context, products ProductsFetcher, basket Basket) map[string]Product {
	ids := make([]string, 0, len(basket.ProductItems))
	seen := map[string]struct{}{}
	for _, item := range basket.ProductItems {
		if item.ProductID == "" {
			continue
		}
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	if len(ids) == 0 {
		return nil
	}

	result, err := products.GetProducts(ctx, ids, ProductParams{AllImages: true, PerPricebook: true})
	if err != nil {
		slogctx.Warn(ctx, "Failed to fetch product details", "basketId", basket.BasketID, "error", err)
		return nil
	}
	if len(result.Data) == 0 {
		return nil
	}

	byID := make(map[string]Product, len(result.Data))
	for _, p := range result.Data {
		byID[p.ID] = p
	}

	byItemID := make(map[string]Product, len(basket.ProductItems))
	for _, item := range basket.ProductItems {
		if item.ItemID == "" {
			continue
		}
		if p, ok := byID[item.ProductID]; ok {
			byItemID[item.ItemID] = p
		}
	}

	return byItemID
}
