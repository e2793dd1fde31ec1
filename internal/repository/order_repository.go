package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/iliyamo/belgrade-mama-market/internal/model"
)

// OrderRepo persists orders and their single payment.  Status changes
// are compare-and-swap updates on the version column.
type OrderRepo struct {
	db     *sql.DB
	photos *PhotoRepo
}

func NewOrderRepo(db *sql.DB) *OrderRepo {
	return &OrderRepo{db: db, photos: NewPhotoRepo(db)}
}

const orderSelect = `SELECT
		o.id, o.total_amount, o.buyer_id, o.seller_id, o.listing_id,
		o.buyer_name, o.buyer_phone, o.buyer_email, o.delivery_address, o.delivery_district, o.notes,
		o.status, o.version, o.completed_at, o.created_at, o.updated_at,
		p.id, p.amount, p.method, p.card_number, p.card_last_four, p.status,
		p.transaction_id, p.paid_at, p.version, p.created_at, p.updated_at,
		l.id, l.title, l.description, l.price, l.age, l.size, l.district, l.user_id, l.created_at, l.updated_at,
		b.id, b.name, b.email, b.phone,
		s.id, s.name, s.email, s.phone
	FROM orders o
	JOIN payments p ON p.order_id = o.id
	JOIN listings l ON l.id = o.listing_id
	JOIN users b    ON b.id = o.buyer_id
	JOIN users s    ON s.id = o.seller_id`

// Create inserts o and o.Payment in one transaction.  Ids, versions and
// timestamps are assigned on success.
func (r *OrderRepo) Create(ctx context.Context, o *model.Order) error {
	ts := now()
	o.ID = uuid.NewString()
	o.Version = 1
	o.CreatedAt, o.UpdatedAt = ts, ts
	p := o.Payment
	p.ID = uuid.NewString()
	p.OrderID = o.ID
	p.Version = 1
	p.CreatedAt, p.UpdatedAt = ts, ts

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO orders (id, total_amount, buyer_id, seller_id, listing_id, buyer_name, buyer_phone,
			buyer_email, delivery_address, delivery_district, notes, status, version, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		o.ID, o.TotalAmount.StringFixed(2), o.BuyerID, o.SellerID, o.ListingID, o.BuyerName, o.BuyerPhone,
		o.BuyerEmail, o.DeliveryAddress, o.DeliveryDistrict, o.Notes, string(o.Status), o.Version, ts, ts); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO payments (id, order_id, amount, method, card_number, card_last_four, status, version, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?,?,?)`,
		p.ID, p.OrderID, p.Amount.StringFixed(2), string(p.Method), p.CardNumber, p.CardLastFour, string(p.Status), p.Version, ts, ts); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID returns the order joined with its payment, listing (with
// photos), buyer and seller.
func (r *OrderRepo) GetByID(ctx context.Context, id string) (model.Order, error) {
	o, err := scanOrder(r.db.QueryRowContext(ctx, orderSelect+" WHERE o.id=? LIMIT 1", id))
	if err != nil {
		return model.Order{}, notFound(err)
	}
	one := []model.Order{o}
	if err := r.attachPhotos(ctx, one); err != nil {
		return model.Order{}, err
	}
	return one[0], nil
}

// ListByBuyer returns the orders placed by buyerID, newest first.
func (r *OrderRepo) ListByBuyer(ctx context.Context, buyerID string) ([]model.Order, error) {
	return r.list(ctx, orderSelect+" WHERE o.buyer_id=? ORDER BY o.created_at DESC, o.id DESC", buyerID)
}

// ListBySeller returns the orders received by sellerID, newest first.
func (r *OrderRepo) ListBySeller(ctx context.Context, sellerID string) ([]model.Order, error) {
	return r.list(ctx, orderSelect+" WHERE o.seller_id=? ORDER BY o.created_at DESC, o.id DESC", sellerID)
}

func (r *OrderRepo) list(ctx context.Context, q string, args ...any) ([]model.Order, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, r.attachPhotos(ctx, out)
}

// UpdateStatus persists o.Status and o.CompletedAt if the stored version
// still equals o.Version, then bumps o.Version.  A lost race yields
// ErrConflict.
func (r *OrderRepo) UpdateStatus(ctx context.Context, o *model.Order) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE orders SET status=?, completed_at=?, version=version+1, updated_at=? WHERE id=? AND version=?",
		string(o.Status), o.CompletedAt, o.UpdatedAt, o.ID, o.Version)
	if err != nil {
		return err
	}
	if err := casResult(res); err != nil {
		return err
	}
	o.Version++
	return nil
}

// UpdatePayment persists status, transaction id and paidAt of p under the
// same compare-and-swap rule as UpdateStatus.
func (r *OrderRepo) UpdatePayment(ctx context.Context, p *model.Payment) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE payments SET status=?, transaction_id=?, paid_at=?, version=version+1, updated_at=? WHERE id=? AND version=?",
		string(p.Status), p.TransactionID, p.PaidAt, p.UpdatedAt, p.ID, p.Version)
	if err != nil {
		return err
	}
	if err := casResult(res); err != nil {
		return err
	}
	p.Version++
	return nil
}

func casResult(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

func (r *OrderRepo) attachPhotos(ctx context.Context, orders []model.Order) error {
	ids := make([]string, 0, len(orders))
	for i := range orders {
		ids = append(ids, orders[i].ListingID)
	}
	photos, err := r.photos.ListByListingIDs(ctx, ids)
	if err != nil {
		return err
	}
	for i := range orders {
		orders[i].Listing.Photos = nonNil(photos[orders[i].ListingID])
	}
	return nil
}

func scanOrder(s scanner) (model.Order, error) {
	var (
		o                        model.Order
		p                        model.Payment
		l                        model.Listing
		buyer, seller            model.UserSummary
		buyerEmail, addr, dist   sql.NullString
		notes, card, last4, txID sql.NullString
		lDesc, lAge, lSize       sql.NullString
		buyerPhone, sellerPhone  sql.NullString
		completedAt, paidAt      sql.NullTime
	)
	err := s.Scan(
		&o.ID, &o.TotalAmount, &o.BuyerID, &o.SellerID, &o.ListingID,
		&o.BuyerName, &o.BuyerPhone, &buyerEmail, &addr, &dist, &notes,
		&o.Status, &o.Version, &completedAt, &o.CreatedAt, &o.UpdatedAt,
		&p.ID, &p.Amount, &p.Method, &card, &last4, &p.Status,
		&txID, &paidAt, &p.Version, &p.CreatedAt, &p.UpdatedAt,
		&l.ID, &l.Title, &lDesc, &l.Price, &lAge, &lSize, &l.District, &l.UserID, &l.CreatedAt, &l.UpdatedAt,
		&buyer.ID, &buyer.Name, &buyer.Email, &buyerPhone,
		&seller.ID, &seller.Name, &seller.Email, &sellerPhone,
	)
	if err != nil {
		return model.Order{}, err
	}
	o.BuyerEmail, o.DeliveryAddress, o.DeliveryDistrict, o.Notes = strPtr(buyerEmail), strPtr(addr), strPtr(dist), strPtr(notes)
	o.CompletedAt = timePtr(completedAt)
	p.OrderID = o.ID
	p.CardNumber, p.CardLastFour, p.TransactionID = strPtr(card), strPtr(last4), strPtr(txID)
	p.PaidAt = timePtr(paidAt)
	l.Description, l.Age, l.Size = strPtr(lDesc), strPtr(lAge), strPtr(lSize)
	buyer.Phone, seller.Phone = strPtr(buyerPhone), strPtr(sellerPhone)

	o.Payment, o.Listing, o.Buyer, o.Seller = &p, &l, &buyer, &seller
	return o, nil
}
