package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/iliyamo/belgrade-mama-market/internal/model"
)

// ListingRepo reads and writes listings together with their photos.
type ListingRepo struct {
	db     *sql.DB
	photos *PhotoRepo
}

func NewListingRepo(db *sql.DB) *ListingRepo {
	return &ListingRepo{db: db, photos: NewPhotoRepo(db)}
}

const listingColumns = "l.id, l.title, l.description, l.price, l.age, l.size, l.district, l.user_id, l.created_at, l.updated_at"

// Create inserts l, assigning its id and timestamps.  The price is rounded
// to cents so l matches the stored row.  The new listing has no photos.
func (r *ListingRepo) Create(ctx context.Context, l *model.Listing) error {
	l.ID = uuid.NewString()
	l.Price = l.Price.Round(2)
	l.CreatedAt = now()
	l.UpdatedAt = l.CreatedAt
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO listings (id, title, description, price, age, size, district, user_id, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		l.ID, l.Title, l.Description, l.Price.StringFixed(2), l.Age, l.Size, l.District, l.UserID, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return err
	}
	l.Photos = []model.Photo{}
	return nil
}

// GetByID returns the listing with its photos and the owner's contact
// details.
func (r *ListingRepo) GetByID(ctx context.Context, id string) (model.Listing, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+listingColumns+", u.id, u.name, u.email, u.phone FROM listings l JOIN users u ON u.id = l.user_id WHERE l.id=? LIMIT 1", id)
	var (
		l     model.Listing
		owner model.UserSummary
		phone sql.NullString
	)
	if err := scanListing(row, &l, &owner.ID, &owner.Name, &owner.Email, &phone); err != nil {
		return model.Listing{}, notFound(err)
	}
	owner.Phone = strPtr(phone)
	l.User = &owner

	photos, err := r.photos.ListByListingIDs(ctx, []string{l.ID})
	if err != nil {
		return model.Listing{}, err
	}
	l.Photos = nonNil(photos[l.ID])
	return l, nil
}

// List returns the public feed, newest first, with photos and the owner's
// name.
func (r *ListingRepo) List(ctx context.Context, f model.ListingFilter) ([]model.Listing, error) {
	cond, args := listingWhere(f)
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+listingColumns+", u.id, u.name FROM listings l JOIN users u ON u.id = l.user_id WHERE "+cond+
			" ORDER BY l.created_at DESC, l.id DESC", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Listing{}
	for rows.Next() {
		var (
			l     model.Listing
			owner model.UserSummary
		)
		if err := scanListing(rows, &l, &owner.ID, &owner.Name); err != nil {
			return nil, err
		}
		l.User = &owner
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, r.attachPhotos(ctx, out)
}

// ListByUser returns the listings owned by userID, newest first.
func (r *ListingRepo) ListByUser(ctx context.Context, userID string) ([]model.Listing, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+listingColumns+" FROM listings l WHERE l.user_id=? ORDER BY l.created_at DESC, l.id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Listing{}
	for rows.Next() {
		var l model.Listing
		if err := scanListing(rows, &l); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, r.attachPhotos(ctx, out)
}

func (r *ListingRepo) attachPhotos(ctx context.Context, ls []model.Listing) error {
	ids := make([]string, len(ls))
	for i := range ls {
		ids[i] = ls[i].ID
	}
	photos, err := r.photos.ListByListingIDs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range ls {
		ls[i].Photos = nonNil(photos[ls[i].ID])
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanListing reads listingColumns followed by any extra destinations.
func scanListing(s scanner, l *model.Listing, extra ...any) error {
	var desc, age, size sql.NullString
	dest := append([]any{&l.ID, &l.Title, &desc, &l.Price, &age, &size, &l.District, &l.UserID, &l.CreatedAt, &l.UpdatedAt}, extra...)
	if err := s.Scan(dest...); err != nil {
		return err
	}
	l.Description, l.Age, l.Size = strPtr(desc), strPtr(age), strPtr(size)
	return nil
}

func nonNil(p []model.Photo) []model.Photo {
	if p == nil {
		return []model.Photo{}
	}
	return p
}
