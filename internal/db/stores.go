package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// ListStoreLocations returns all retail locations.
func (s *Store) ListStoreLocations(ctx context.Context) ([]StoreLocation, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, address, phone, latitude, longitude, hours, maps_url
		FROM store_locations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []StoreLocation
	for rows.Next() {
		var loc StoreLocation
		if err := rows.Scan(&loc.ID, &loc.Name, &loc.Address, &loc.Phone,
			&loc.Latitude, &loc.Longitude, &loc.Hours, &loc.MapsURL); err != nil {
			return nil, err
		}
		out = append(out, loc)
	}
	return out, rows.Err()
}

// GetStoreLocation fetches a single location by id.
func (s *Store) GetStoreLocation(ctx context.Context, id string) (StoreLocation, error) {
	var loc StoreLocation
	err := s.Pool.QueryRow(ctx, `
		SELECT id, name, address, phone, latitude, longitude, hours, maps_url
		FROM store_locations WHERE id = $1`, id).
		Scan(&loc.ID, &loc.Name, &loc.Address, &loc.Phone,
			&loc.Latitude, &loc.Longitude, &loc.Hours, &loc.MapsURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return StoreLocation{}, ErrNotFound
	}
	return loc, err
}

// UpsertStoreLocation creates or replaces a retail location.
func (s *Store) UpsertStoreLocation(ctx context.Context, loc StoreLocation) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO store_locations (id, name, address, phone, latitude, longitude, hours, maps_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, address = EXCLUDED.address, phone = EXCLUDED.phone,
			latitude = EXCLUDED.latitude, longitude = EXCLUDED.longitude,
			hours = EXCLUDED.hours, maps_url = EXCLUDED.maps_url`,
		loc.ID, loc.Name, loc.Address, loc.Phone, loc.Latitude, loc.Longitude, loc.Hours, loc.MapsURL)
	return err
}

// DeleteStoreLocation removes a retail location.
func (s *Store) DeleteStoreLocation(ctx context.Context, id string) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM store_locations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
