package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/belgrade-mama-market/internal/model"
	"github.com/iliyamo/belgrade-mama-market/internal/repository"
	"github.com/iliyamo/belgrade-mama-market/internal/validation"
)

// ListingStore is the listing persistence used by ListingHandler.
type ListingStore interface {
	Create(ctx context.Context, l *model.Listing) error
	GetByID(ctx context.Context, id string) (model.Listing, error)
	List(ctx context.Context, f model.ListingFilter) ([]model.Listing, error)
	ListByUser(ctx context.Context, userID string) ([]model.Listing, error)
}

type ListingHandler struct {
	Listings ListingStore
}

func NewListingHandler(l ListingStore) *ListingHandler {
	return &ListingHandler{Listings: l}
}

type createListingReq struct {
	Title       string           `json:"title" validate:"required,min=2,max=255"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price" validate:"required,gte=0,lte=9999999999.99"`
	Age         *string          `json:"age" validate:"omitempty,max=64"`
	Size        *string          `json:"size" validate:"omitempty,max=64"`
	District    string           `json:"district" validate:"required,min=2,max=128"`
}

// List serves the public feed, newest first.
func (h *ListingHandler) List(c echo.Context) error {
	f, err := parseListingFilter(c)
	if err != nil {
		return respond(c, err)
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	ls, err := h.Listings.List(ctx, f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ls)
}

// Get returns one listing with photos and the owner's contact details.
func (h *ListingHandler) Get(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	l, err := h.Listings.GetByID(ctx, c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Listing not found"})
		}
		return err
	}
	return c.JSON(http.StatusOK, l)
}

// Mine lists the caller's own listings.
func (h *ListingHandler) Mine(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	ls, err := h.Listings.ListByUser(ctx, userID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ls)
}

func (h *ListingHandler) Create(c echo.Context) error {
	var req createListingReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	l := model.Listing{
		Title:       strings.TrimSpace(req.Title),
		Description: trimmed(req.Description),
		Price:       *req.Price,
		Age:         trimmed(req.Age),
		Size:        trimmed(req.Size),
		District:    strings.TrimSpace(req.District),
		UserID:      userID(c),
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Listings.Create(ctx, &l); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, l)
}

// parseListingFilter reads the feed's query parameters.  Empty values are
// ignored; a price that is not a number is a validation error.
func parseListingFilter(c echo.Context) (model.ListingFilter, error) {
	q := func(name string) string { return strings.TrimSpace(c.QueryParam(name)) }
	f := model.ListingFilter{
		Search:   q("search"),
		District: q("district"),
		Age:      q("age"),
		Size:     q("size"),
	}
	bad := map[string]string{}
	for _, p := range []struct {
		name string
		dst  **decimal.Decimal
	}{{"minPrice", &f.MinPrice}, {"maxPrice", &f.MaxPrice}} {
		raw := q(p.name)
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			bad[p.name] = "must be a number"
			continue
		}
		*p.dst = &d
	}
	if len(bad) > 0 {
		return model.ListingFilter{}, &validation.Error{Fields: bad}
	}
	return f, nil
}
