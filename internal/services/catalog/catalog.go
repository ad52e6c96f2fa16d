// Package catalog owns the product tree (product, its variants and their
// skus) and the listing cache in front of it.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"commerce/internal/domain/apperr"
	"commerce/internal/domain/models"
	"commerce/internal/lib/logger/sl"
	"commerce/internal/storage"
)

type ProductStore interface {
	SaveProduct(ctx context.Context, product models.Product) (models.Product, error)
	UpdateProduct(ctx context.Context, product models.Product) (models.Product, error)
	DeleteProduct(ctx context.Context, id int) error
	ProductByID(ctx context.Context, id int) (models.Product, error)
	ListProducts(ctx context.Context, query string, tags []string) ([]models.Product, error)
}

type Catalog struct {
	log   *slog.Logger
	store ProductStore
	cache *ListCache
}

// New builds the catalog service. cache may be nil, in which case every
// listing goes to the store.
func New(log *slog.Logger, store ProductStore, cache *ListCache) *Catalog {
	return &Catalog{log: log, store: store, cache: cache}
}

func (c *Catalog) CreateProduct(ctx context.Context, product models.Product) (models.Product, error) {
	const op = "catalog.CreateProduct"

	saved, err := c.store.SaveProduct(ctx, product)
	if err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	c.invalidate(ctx, op)
	c.log.Info("product created", slog.String("op", op), slog.Int("product_id", saved.ID))

	return saved, nil
}

func (c *Catalog) UpdateProduct(ctx context.Context, product models.Product) (models.Product, error) {
	const op = "catalog.UpdateProduct"

	updated, err := c.store.UpdateProduct(ctx, product)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return models.Product{}, fmt.Errorf("%s: %w", op, c.notFound(product.ID))
		}
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	c.invalidate(ctx, op)

	return updated, nil
}

func (c *Catalog) DeleteProduct(ctx context.Context, id int) error {
	const op = "catalog.DeleteProduct"

	if err := c.store.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return fmt.Errorf("%s: %w", op, c.notFound(id))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	c.invalidate(ctx, op)
	c.log.Info("product deleted", slog.String("op", op), slog.Int("product_id", id))

	return nil
}

func (c *Catalog) Product(ctx context.Context, id int) (models.Product, error) {
	const op = "catalog.Product"

	product, err := c.store.ProductByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrProductNotFound) {
			return models.Product{}, fmt.Errorf("%s: %w", op, c.notFound(id))
		}
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	return product, nil
}

// Products lists the catalog, serving from the cache when it can. Hidden
// products are stripped unless includeHidden is set (admin listings).
func (c *Catalog) Products(ctx context.Context, query string, tags []string, includeHidden bool) ([]models.Product, error) {
	const op = "catalog.Products"

	if c.cache != nil {
		cached, err := c.cache.Get(ctx, query, tags)
		if err == nil {
			return c.filterHidden(cached, includeHidden), nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			c.log.Warn("cache read failed", slog.String("op", op), sl.Err(err))
		}
	}

	products, err := c.store.ListProducts(ctx, query, tags)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, query, tags, products); err != nil {
			c.log.Warn("cache write failed", slog.String("op", op), sl.Err(err))
		}
	}

	return c.filterHidden(products, includeHidden), nil
}

func (c *Catalog) filterHidden(products []models.Product, includeHidden bool) []models.Product {
	if includeHidden {
		return products
	}

	visible := make([]models.Product, 0, len(products))
	for _, p := range products {
		if !p.Hidden {
			visible = append(visible, p)
		}
	}

	return visible
}

func (c *Catalog) invalidate(ctx context.Context, op string) {
	if c.cache == nil {
		return
	}
	if err := c.cache.Invalidate(ctx); err != nil {
		c.log.Warn("cache invalidation failed", slog.String("op", op), sl.Err(err))
	}
}

func (c *Catalog) notFound(id int) error {
	return apperr.ErrProductNotFound.With(map[string]string{"id": strconv.Itoa(id)})
}
