package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/belgrade-mama-market/internal/model"
)

// ISOStore is the ISO persistence used by ISOHandler.
type ISOStore interface {
	Create(ctx context.Context, iso *model.ISO) error
	ListActive(ctx context.Context, at time.Time) ([]model.ISO, error)
	ListByUser(ctx context.Context, userID string) ([]model.ISO, error)
}

type ISOHandler struct {
	ISOs ISOStore
	now  func() time.Time
}

func NewISOHandler(s ISOStore) *ISOHandler {
	return &ISOHandler{ISOs: s, now: func() time.Time { return time.Now().UTC() }}
}

type createISOReq struct {
	Title       string           `json:"title" validate:"required,min=2,max=255"`
	Description *string          `json:"description"`
	Budget      *decimal.Decimal `json:"budget" validate:"omitempty,gte=0,lte=9999999999.99"`
	Age         *string          `json:"age" validate:"omitempty,max=64"`
	Size        *string          `json:"size" validate:"omitempty,max=64"`
	District    *string          `json:"district" validate:"omitempty,max=128"`
	DaysValid   *int             `json:"daysValid" validate:"omitempty,min=1,max=30"`
}

// Feed lists requests that have not expired yet.
func (h *ISOHandler) Feed(c echo.Context) error {
	now := h.now()
	ctx, cancel := reqCtx(c)
	defer cancel()

	isos, err := h.ISOs.ListActive(ctx, now)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, withDaysLeft(isos, now))
}

// Mine lists all of the caller's requests, expired ones included.
func (h *ISOHandler) Mine(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	isos, err := h.ISOs.ListByUser(ctx, userID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, withDaysLeft(isos, h.now()))
}

func (h *ISOHandler) Create(c echo.Context) error {
	var req createISOReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	days := model.DefaultISODays
	if req.DaysValid != nil {
		days = *req.DaysValid
	}
	now := h.now().Truncate(time.Millisecond)
	iso := model.ISO{
		Title:       strings.TrimSpace(req.Title),
		Description: trimmed(req.Description),
		Budget:      req.Budget,
		Age:         trimmed(req.Age),
		Size:        trimmed(req.Size),
		District:    trimmed(req.District),
		UserID:      userID(c),
		CreatedAt:   now,
		ExpiresAt:   model.ISOExpiry(now, days),
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.ISOs.Create(ctx, &iso); err != nil {
		return err
	}
	iso.WithDaysLeft(now)
	return c.JSON(http.StatusCreated, iso)
}

func withDaysLeft(isos []model.ISO, now time.Time) []model.ISO {
	if isos == nil {
		return []model.ISO{}
	}
	for i := range isos {
		isos[i].WithDaysLeft(now)
	}
	return isos
}
