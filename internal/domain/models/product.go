package models

import "time"

type Product struct {
	ID          int              `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Tags        []string         `json:"tags"`
	Hidden      bool             `json:"isHidden"`
	Variants    []ProductVariant `json:"variants"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

type ProductVariant struct {
	ID              int    `json:"id"`
	ProductID       int    `json:"productId"`
	VariantName     string `json:"variantName"`
	QuantityPerUnit int    `json:"quantityPerUnit"`
	UnitType        string `json:"unitType"`
	Sku             Sku    `json:"sku"`
}

type Sku struct {
	ID            int     `json:"id"`
	VariantID     int     `json:"variantId"`
	Price         float64 `json:"price"`
	StockQuantity int     `json:"stockQuantity"`
}
