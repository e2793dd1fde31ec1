package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/belgrade-mama-market/internal/model"
)

type PhotoRepo struct{ DB *sql.DB }

func NewPhotoRepo(db *sql.DB) *PhotoRepo { return &PhotoRepo{DB: db} }

// Create records a stored photo for a listing.
func (r *PhotoRepo) Create(ctx context.Context, listingID, url string) (model.Photo, error) {
	p := model.Photo{ID: uuid.NewString(), URL: url, ListingID: listingID, CreatedAt: now()}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO photos (id, url, listing_id, created_at) VALUES (?,?,?,?)",
		p.ID, p.URL, p.ListingID, p.CreatedAt)
	if err != nil {
		return model.Photo{}, err
	}
	return p, nil
}

// CountByListing returns how many photos a listing already has.
func (r *PhotoRepo) CountByListing(ctx context.Context, listingID string) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM photos WHERE listing_id=?", listingID).Scan(&n)
	return n, err
}

// ListByListingIDs loads the photos of several listings in one query,
// grouped by listing and ordered by creation.
func (r *PhotoRepo) ListByListingIDs(ctx context.Context, ids []string) (map[string][]model.Photo, error) {
	out := make(map[string][]model.Photo, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	q := "SELECT id, url, listing_id, created_at FROM photos WHERE listing_id IN (" +
		strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",") +
		") ORDER BY created_at ASC, id ASC"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p model.Photo
		if err := rows.Scan(&p.ID, &p.URL, &p.ListingID, &p.CreatedAt); err != nil {
			return nil, err
		}
		out[p.ListingID] = append(out[p.ListingID], p)
	}
	return out, rows.Err()
}
