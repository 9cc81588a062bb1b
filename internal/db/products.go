package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

const productColumns = `id, name_en, name_hi, tagline_en, tagline_hi, description_en, description_hi,
	category, image_url, featured, created_at`

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(
		&p.ID, &p.NameEN, &p.NameHI, &p.TaglineEN, &p.TaglineHI, &p.DescriptionEN, &p.DescriptionHI,
		&p.Category, &p.ImageURL, &p.Featured, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	return p, err
}

// ListProducts returns the full catalog with variants attached.
func (s *Store) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.Pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	variants, err := s.listAllVariants(ctx)
	if err != nil {
		return nil, err
	}
	byProduct := make(map[string][]Variant, len(products))
	for _, v := range variants {
		byProduct[v.ProductID] = append(byProduct[v.ProductID], v)
	}
	for i := range products {
		products[i].Variants = byProduct[products[i].ID]
	}
	return products, nil
}

// GetProduct fetches a single product with its variants.
func (s *Store) GetProduct(ctx context.Context, id string) (Product, error) {
	p, err := scanProduct(s.Pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return Product{}, err
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT id, product_id, size, mrp_paise, stock
		FROM variants WHERE product_id = $1 ORDER BY mrp_paise`, id)
	if err != nil {
		return Product{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Size, &v.MRPPaise, &v.Stock); err != nil {
			return Product{}, err
		}
		p.Variants = append(p.Variants, v)
	}
	return p, rows.Err()
}

// UpsertProduct creates or replaces a product and its variant set.
func (s *Store) UpsertProduct(ctx context.Context, p Product) error {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO products (id, name_en, name_hi, tagline_en, tagline_hi,
			description_en, description_hi, category, image_url, featured)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET
			name_en = EXCLUDED.name_en, name_hi = EXCLUDED.name_hi,
			tagline_en = EXCLUDED.tagline_en, tagline_hi = EXCLUDED.tagline_hi,
			description_en = EXCLUDED.description_en, description_hi = EXCLUDED.description_hi,
			category = EXCLUDED.category, image_url = EXCLUDED.image_url,
			featured = EXCLUDED.featured`,
		p.ID, p.NameEN, p.NameHI, p.TaglineEN, p.TaglineHI,
		p.DescriptionEN, p.DescriptionHI, p.Category, p.ImageURL, p.Featured,
	)
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	if _, err = tx.Exec(ctx, `DELETE FROM variants WHERE product_id = $1`, p.ID); err != nil {
		return fmt.Errorf("clear variants: %w", err)
	}
	for _, v := range p.Variants {
		_, err = tx.Exec(ctx, `
			INSERT INTO variants (product_id, size, mrp_paise, stock)
			VALUES ($1,$2,$3,$4)`,
			p.ID, v.Size, v.MRPPaise, v.Stock)
		if err != nil {
			return fmt.Errorf("insert variant: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// DeleteProduct removes a product and its variants.
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DecrementStock reduces variant stock if enough remains. Returns false when the
// variant is missing or understocked.
func (s *Store) DecrementStock(ctx context.Context, productID, size string, qty int) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE variants SET stock = stock - $3
		WHERE product_id = $1 AND size = $2 AND stock >= $3`,
		productID, size, qty)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) listAllVariants(ctx context.Context) ([]Variant, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, product_id, size, mrp_paise, stock FROM variants ORDER BY product_id, mrp_paise`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variants []Variant
	for rows.Next() {
		var v Variant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Size, &v.MRPPaise, &v.Stock); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}
