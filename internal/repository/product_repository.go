package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"commerce/internal/domain/models"
	"commerce/internal/storage"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/lib/pq"
)

type ProductRepo struct {
	db *pgxpool.Pool
	sb sq.StatementBuilderType
}

func NewProductRepository(db *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{
		db: db,
		sb: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *ProductRepo) SaveProduct(ctx context.Context, product models.Product) (models.Product, error) {
	const op = "repository.product_repository.SaveProduct"

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	query, args, err := r.sb.Insert("product").
		Columns("name", "description", "tags", "is_hidden", "created_at", "updated_at").
		Values(product.Name, product.Description, pq.Array(product.Tags), product.Hidden, time.Now().UTC(), time.Now().UTC()).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return models.Product{}, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&product.ID); err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	for i := range product.Variants {
		variant, err := r.insertVariant(ctx, tx, product.ID, product.Variants[i])
		if err != nil {
			return models.Product{}, fmt.Errorf("%s: %w", op, err)
		}
		product.Variants[i] = variant
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	return product, nil
}

// UpdateProduct reconciles the stored variant tree with the submitted one:
// variants absent from the request are removed, variants with a matching id
// are updated in place together with their sku, and id-less variants are
// inserted as new.
func (r *ProductRepo) UpdateProduct(ctx context.Context, product models.Product) (models.Product, error) {
	const op = "repository.product_repository.UpdateProduct"

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	defer tx.Rollback(ctx)

	query, args, err := r.sb.Update("product").
		Set("name", product.Name).
		Set("description", product.Description).
		Set("tags", pq.Array(product.Tags)).
		Set("is_hidden", product.Hidden).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"id": product.ID}).
		ToSql()
	if err != nil {
		return models.Product{}, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	tag, err := tx.Exec(ctx, query, args...)
	if err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return models.Product{}, fmt.Errorf("%s: %w", op, storage.ErrProductNotFound)
	}

	keptIDs := make([]int, 0, len(product.Variants))
	for _, v := range product.Variants {
		if v.ID != 0 {
			keptIDs = append(keptIDs, v.ID)
		}
	}

	del := r.sb.Delete("product_variant").Where(sq.Eq{"product_id": product.ID})
	if len(keptIDs) > 0 {
		del = del.Where(sq.NotEq{"id": keptIDs})
	}
	query, args, err = del.ToSql()
	if err != nil {
		return models.Product{}, fmt.Errorf("%s: can't build sql: %w", op, err)
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	for i, variant := range product.Variants {
		if variant.ID == 0 {
			inserted, err := r.insertVariant(ctx, tx, product.ID, variant)
			if err != nil {
				return models.Product{}, fmt.Errorf("%s: %w", op, err)
			}
			product.Variants[i] = inserted
			continue
		}

		query, args, err = r.sb.Update("product_variant").
			Set("variant_name", variant.VariantName).
			Set("quantity_per_unit", variant.QuantityPerUnit).
			Set("unit_type", variant.UnitType).
			Where(sq.Eq{"id": variant.ID, "product_id": product.ID}).
			ToSql()
		if err != nil {
			return models.Product{}, fmt.Errorf("%s: can't build sql: %w", op, err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return models.Product{}, fmt.Errorf("%s: %w", op, err)
		}

		query, args, err = r.sb.Update("sku").
			Set("price", variant.Sku.Price).
			Set("stock_quantity", variant.Sku.StockQuantity).
			Where(sq.Eq{"variant_id": variant.ID}).
			ToSql()
		if err != nil {
			return models.Product{}, fmt.Errorf("%s: can't build sql: %w", op, err)
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return models.Product{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	return r.ProductByID(ctx, product.ID)
}

func (r *ProductRepo) insertVariant(ctx context.Context, tx pgx.Tx, productID int, variant models.ProductVariant) (models.ProductVariant, error) {
	query, args, err := r.sb.Insert("product_variant").
		Columns("product_id", "variant_name", "quantity_per_unit", "unit_type").
		Values(productID, variant.VariantName, variant.QuantityPerUnit, variant.UnitType).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return models.ProductVariant{}, fmt.Errorf("can't build sql: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&variant.ID); err != nil {
		return models.ProductVariant{}, err
	}
	variant.ProductID = productID

	query, args, err = r.sb.Insert("sku").
		Columns("variant_id", "price", "stock_quantity").
		Values(variant.ID, variant.Sku.Price, variant.Sku.StockQuantity).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return models.ProductVariant{}, fmt.Errorf("can't build sql: %w", err)
	}

	if err := tx.QueryRow(ctx, query, args...).Scan(&variant.Sku.ID); err != nil {
		return models.ProductVariant{}, err
	}
	variant.Sku.VariantID = variant.ID

	return variant, nil
}

func (r *ProductRepo) DeleteProduct(ctx context.Context, id int) error {
	const op = "repository.product_repository.DeleteProduct"

	query, args, err := r.sb.Delete("product").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrProductNotFound)
	}

	return nil
}

func (r *ProductRepo) ProductByID(ctx context.Context, id int) (models.Product, error) {
	const op = "repository.product_repository.ProductByID"

	query, args, err := r.sb.
		Select("id", "name", "description", "tags", "is_hidden", "created_at", "updated_at").
		From("product").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return models.Product{}, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	var product models.Product
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&product.ID,
		&product.Name,
		&product.Description,
		pq.Array(&product.Tags),
		&product.Hidden,
		&product.CreatedAt,
		&product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Product{}, fmt.Errorf("%s: %w", op, storage.ErrProductNotFound)
		}
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	variants, err := r.variantsByProducts(ctx, []int{product.ID})
	if err != nil {
		return models.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	product.Variants = variants[product.ID]

	return product, nil
}

func (r *ProductRepo) ListProducts(ctx context.Context, queryStr string, tags []string) ([]models.Product, error) {
	const op = "repository.product_repository.ListProducts"

	builder := r.sb.
		Select("id", "name", "description", "tags", "is_hidden", "created_at", "updated_at").
		From("product").
		OrderBy("id")

	if queryStr != "" {
		pattern := "%" + queryStr + "%"
		builder = builder.Where(sq.Or{
			sq.ILike{"name": pattern},
			sq.ILike{"description": pattern},
		})
	}
	if len(tags) > 0 {
		builder = builder.Where("tags @> ?", pq.Array(tags))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: can't build sql: %w", op, err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var products []models.Product
	var ids []int

	for rows.Next() {
		var product models.Product
		err = rows.Scan(
			&product.ID,
			&product.Name,
			&product.Description,
			pq.Array(&product.Tags),
			&product.Hidden,
			&product.CreatedAt,
			&product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		products = append(products, product)
		ids = append(ids, product.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(ids) == 0 {
		return products, nil
	}

	variants, err := r.variantsByProducts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for i := range products {
		products[i].Variants = variants[products[i].ID]
	}

	return products, nil
}

func (r *ProductRepo) variantsByProducts(ctx context.Context, productIDs []int) (map[int][]models.ProductVariant, error) {
	query, args, err := r.sb.
		Select(
			"v.id", "v.product_id", "v.variant_name", "v.quantity_per_unit", "v.unit_type",
			"s.id", "s.price", "s.stock_quantity",
		).
		From("product_variant v").
		Join("sku s ON s.variant_id = v.id").
		Where(sq.Eq{"v.product_id": productIDs}).
		OrderBy("v.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("can't build sql: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int][]models.ProductVariant, len(productIDs))

	for rows.Next() {
		var v models.ProductVariant
		err = rows.Scan(
			&v.ID,
			&v.ProductID,
			&v.VariantName,
			&v.QuantityPerUnit,
			&v.UnitType,
			&v.Sku.ID,
			&v.Sku.Price,
			&v.Sku.StockQuantity,
		)
		if err != nil {
			return nil, err
		}
		v.Sku.VariantID = v.ID
		result[v.ProductID] = append(result[v.ProductID], v)
	}

	return result, rows.Err()
}
