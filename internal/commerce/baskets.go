package commerce

import (
	"context"
	"net/http"
	"net/url"
)

type BasketsClient struct {
	resource
}

func (c *BasketsClient) CreateBasket(ctx context.Context) (Basket, error) {
	var basket Basket
	err := c.do(ctx, "createBasket", http.MethodPost, "/baskets", nil, struct{}{}, &basket)

	return basket, err
}

func (c *BasketsClient) GetBasket(ctx context.Context, basketID string) (Basket, error) {
	var basket Basket
	err := c.do(ctx, "getBasket", http.MethodGet, basketPath(basketID), nil, nil, &basket)

	return basket, err
}

func (c *BasketsClient) AddItemToBasket(ctx context.Context, basketID string, items []ItemInput) (Basket, error) {
	var basket Basket
	err := c.do(ctx, "addItemToBasket", http.MethodPost, basketPath(basketID)+"/items", nil, items, &basket)

	return basket, err
}

func (c *BasketsClient) UpdateItemInBasket(ctx context.Context, basketID, itemID string, item ItemInput) (Basket, error) {
	var basket Basket
	err := c.do(ctx, "updateItemInBasket", http.MethodPatch, itemPath(basketID, itemID), nil, item, &basket)

	return basket, err
}

func (c *BasketsClient) RemoveItemFromBasket(ctx context.Context, basketID, itemID string) (Basket, error) {
	var basket Basket
	err := c.do(ctx, "removeItemFromBasket", http.MethodDelete, itemPath(basketID, itemID), nil, nil, &basket)

	return basket, err
}

func basketPath(basketID string) string {
	return "/baskets/" + url.PathEscape(basketID)
}

func itemPath(basketID, itemID string) string {
	return basketPath(basketID) + "/items/" + url.PathEscape(itemID)
}
