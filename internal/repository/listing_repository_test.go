package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/belgrade-mama-market/internal/model"
)

var listingCols = []string{"id", "title", "description", "price", "age", "size", "district", "user_id", "created_at", "updated_at"}

func TestListingRepo_ListAttachesPhotos(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("FROM listings l JOIN users u ON u.id = l.user_id WHERE LOWER\\(l.district\\) LIKE \\?").
		WithArgs("%zemun%").
		WillReturnRows(sqlmock.NewRows(append(listingCols, "uid", "uname")).
			AddRow("l1", "Stroller", nil, "120.00", nil, nil, "Zemun", "u1", ts, ts, "u1", "Ana").
			AddRow("l2", "Crib", "wood", "80.00", "0-3", nil, "Zemun", "u2", ts, ts, "u2", "Mila"))
	mock.ExpectQuery("FROM photos WHERE listing_id IN \\(\\?,\\?\\)").
		WithArgs("l1", "l2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "url", "listing_id", "created_at"}).
			AddRow("p1", "http://x/a.jpg", "l2", ts))

	out, err := NewListingRepo(db).List(context.Background(), model.ListingFilter{District: "Zemun"})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Empty(t, out[0].Photos)
	assert.NotNil(t, out[0].Photos)
	assert.Len(t, out[1].Photos, 1)
	assert.Equal(t, "Ana", out[0].User.Name)
	assert.True(t, out[1].Price.Equal(decimal.NewFromInt(80)))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepo_GetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM listings l JOIN users u").
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(append(listingCols, "uid", "uname", "uemail", "uphone")))

	_, err = NewListingRepo(db).GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListingRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO listings").
		WithArgs(sqlmock.AnyArg(), "Stroller", nil, "120.00", nil, nil, "Zemun", "u1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	l := &model.Listing{Title: "Stroller", Price: decimal.NewFromInt(120), District: "Zemun", UserID: "u1"}
	require.NoError(t, NewListingRepo(db).Create(context.Background(), l))
	assert.NotEmpty(t, l.ID)
	assert.NotNil(t, l.Photos)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListingRepo_CreateRoundsPriceToCents(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO listings").
		WithArgs(sqlmock.AnyArg(), "Crib", nil, "11.00", nil, nil, "Zemun", "u1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	l := &model.Listing{Title: "Crib", Price: decimal.RequireFromString("10.999"), District: "Zemun", UserID: "u1"}
	require.NoError(t, NewListingRepo(db).Create(context.Background(), l))
	assert.Equal(t, "11.00", l.Price.StringFixed(2))
	assert.True(t, l.Price.Equal(decimal.NewFromInt(11)))
	assert.NoError(t, mock.ExpectationsWereMet())
}
