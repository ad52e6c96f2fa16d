package request

import "commerce/internal/domain/models"

type ProductRequest struct {
	Name        string           `json:"name" validate:"required"`
	Description string           `json:"description"`
	Tags        []string         `json:"tags"`
	Hidden      bool             `json:"isHidden"`
	Variants    []VariantRequest `json:"variants" validate:"dive"`
}

type VariantRequest struct {
	// ID is zero for variants to be created and set for variants to keep.
	ID              int        `json:"id"`
	VariantName     string     `json:"variantName" validate:"required"`
	QuantityPerUnit int        `json:"quantityPerUnit" validate:"gte=0"`
	UnitType        string     `json:"unitType"`
	Sku             SkuRequest `json:"sku"`
}

type SkuRequest struct {
	Price         float64 `json:"price" validate:"gte=0"`
	StockQuantity int     `json:"stockQuantity" validate:"gte=0"`
}

func (r ProductRequest) ToModel(id int) models.Product {
	product := models.Product{
		ID:          id,
		Name:        r.Name,
		Description: r.Description,
		Tags:        r.Tags,
		Hidden:      r.Hidden,
	}

	for _, v := range r.Variants {
		product.Variants = append(product.Variants, models.ProductVariant{
			ID:              v.ID,
			VariantName:     v.VariantName,
			QuantityPerUnit: v.QuantityPerUnit,
			UnitType:        v.UnitType,
			Sku: models.Sku{
				Price:         v.Sku.Price,
				StockQuantity: v.Sku.StockQuantity,
			},
		})
	}

	return product
}
