package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/belgrade-mama-market/internal/model"
)

type ISORepo struct{ DB *sql.DB }

func NewISORepo(db *sql.DB) *ISORepo { return &ISORepo{DB: db} }

const isoColumns = "i.id, i.title, i.description, i.budget, i.age, i.size, i.district, i.user_id, i.expires_at, i.created_at"

// Create inserts iso.  CreatedAt and ExpiresAt must be set by the caller.
func (r *ISORepo) Create(ctx context.Context, iso *model.ISO) error {
	iso.ID = uuid.NewString()
	var budget decimal.NullDecimal
	if iso.Budget != nil {
		b := iso.Budget.Round(2)
		iso.Budget = &b
		budget = decimal.NewNullDecimal(b)
	}
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO isos (id, title, description, budget, age, size, district, user_id, expires_at, created_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		iso.ID, iso.Title, iso.Description, budget, iso.Age, iso.Size, iso.District, iso.UserID,
		iso.ExpiresAt.UTC(), iso.CreatedAt.UTC())
	return err
}

// ListActive returns requests with expires_at > at, newest first, with the
// owner's name.  DaysLeft is left to the caller.
func (r *ISORepo) ListActive(ctx context.Context, at time.Time) ([]model.ISO, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+isoColumns+", u.id, u.name FROM isos i JOIN users u ON u.id = i.user_id WHERE i.expires_at > ? ORDER BY i.created_at DESC, i.id DESC",
		at.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ISO{}
	for rows.Next() {
		var (
			iso   model.ISO
			owner model.UserSummary
		)
		if err := scanISO(rows, &iso, &owner.ID, &owner.Name); err != nil {
			return nil, err
		}
		iso.User = &owner
		out = append(out, iso)
	}
	return out, rows.Err()
}

// ListByUser returns every request of userID, expired ones included.
func (r *ISORepo) ListByUser(ctx context.Context, userID string) ([]model.ISO, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+isoColumns+" FROM isos i WHERE i.user_id=? ORDER BY i.created_at DESC, i.id DESC", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.ISO{}
	for rows.Next() {
		var iso model.ISO
		if err := scanISO(rows, &iso); err != nil {
			return nil, err
		}
		out = append(out, iso)
	}
	return out, rows.Err()
}

func scanISO(s scanner, iso *model.ISO, extra ...any) error {
	var (
		desc, age, size, district sql.NullString
		budget                    decimal.NullDecimal
	)
	dest := append([]any{&iso.ID, &iso.Title, &desc, &budget, &age, &size, &district, &iso.UserID, &iso.ExpiresAt, &iso.CreatedAt}, extra...)
	if err := s.Scan(dest...); err != nil {
		return err
	}
	iso.Description, iso.Age, iso.Size, iso.District = strPtr(desc), strPtr(age), strPtr(size), strPtr(district)
	if budget.Valid {
		b := budget.Decimal
		iso.Budget = &b
	}
	return nil
}
