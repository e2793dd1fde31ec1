package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/belgrade-mama-market/internal/config"
	"github.com/iliyamo/belgrade-mama-market/internal/model"
	"github.com/iliyamo/belgrade-mama-market/internal/repository"
	"github.com/iliyamo/belgrade-mama-market/internal/storage"
)

const msgBadType = "Invalid file type. Only JPEG, PNG, GIF and WebP are allowed."

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// ListingReader loads a listing to check photo ownership.
type ListingReader interface {
	GetByID(ctx context.Context, id string) (model.Listing, error)
}

// PhotoStore records stored listing photos.
type PhotoStore interface {
	Create(ctx context.Context, listingID, url string) (model.Photo, error)
	CountByListing(ctx context.Context, listingID string) (int, error)
}

type UploadHandler struct {
	Files    storage.FileStore
	Listings ListingReader
	Photos   PhotoStore
	Limits   config.StorageConfig
	log      *zap.Logger
}

func NewUploadHandler(files storage.FileStore, l ListingReader, p PhotoStore, limits config.StorageConfig, log *zap.Logger) *UploadHandler {
	return &UploadHandler{Files: files, Listings: l, Photos: p, Limits: limits, log: log.Named("upload")}
}

type uploadResp struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Mimetype string `json:"mimetype"`
	Size     int64  `json:"size"`
}

// image is a validated upload held in memory until it is stored.
type image struct {
	contentType string
	data        []byte
}

// Single stores the multipart field "image".
func (h *UploadHandler) Single(c echo.Context) error {
	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "No file uploaded"})
		}
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid multipart body"})
	}
	img, msg := h.check(fh)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()
	key := storage.NewKey("images", img.contentType)
	url, err := h.Files.Save(ctx, key, bytes.NewReader(img.data), int64(len(img.data)), img.contentType)
	if err != nil {
		return fmt.Errorf("store upload: %w", err)
	}
	return c.JSON(http.StatusCreated, uploadResp{
		URL:      url,
		Filename: key[strings.LastIndexByte(key, '/')+1:],
		Mimetype: img.contentType,
		Size:     int64(len(img.data)),
	})
}

// ListingPhotos stores the multipart field "photos" as photos of the
// listing.  Every file is checked before the first one is stored; a storage
// failure halfway keeps the photos already recorded.
func (h *UploadHandler) ListingPhotos(c echo.Context) error {
	form, err := c.MultipartForm()
	var files []*multipart.FileHeader
	if err == nil {
		files = form.File["photos"]
	}
	if len(files) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "No files uploaded"})
	}
	if n := h.Limits.MaxFilesPerRequest; n > 0 && len(files) > n {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("Too many files. At most %d photos per upload.", n)})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	listingID := c.Param("listingId")
	l, err := h.Listings.GetByID(ctx, listingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Listing not found"})
		}
		return err
	}
	if l.UserID != userID(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Not authorized to upload photos for this listing"})
	}
	if capacity := h.Limits.MaxPhotosPerListing; capacity > 0 {
		n, err := h.Photos.CountByListing(ctx, l.ID)
		if err != nil {
			return err
		}
		if n+len(files) > capacity {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": fmt.Sprintf("A listing can have at most %d photos (%d already uploaded).", capacity, n)})
		}
	}

	imgs := make([]image, 0, len(files))
	for _, fh := range files {
		img, msg := h.check(fh)
		if msg != "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
		}
		imgs = append(imgs, img)
	}

	photos := make([]model.Photo, 0, len(imgs))
	for _, img := range imgs {
		key := storage.NewKey("listings/"+l.ID, img.contentType)
		url, err := h.Files.Save(ctx, key, bytes.NewReader(img.data), int64(len(img.data)), img.contentType)
		if err != nil {
			h.log.Error("photo upload interrupted",
				zap.String("listing_id", l.ID),
				zap.Int("stored", len(photos)),
				zap.Int("total", len(imgs)),
				zap.Error(err))
			return fmt.Errorf("store photo: %w", err)
		}
		p, err := h.Photos.Create(ctx, l.ID, url)
		if err != nil {
			return err
		}
		photos = append(photos, p)
	}
	return c.JSON(http.StatusCreated, photos)
}

// check enforces the size limit and the type whitelist on both the declared
// and the sniffed content type.  A non-empty message means rejection.
func (h *UploadHandler) check(fh *multipart.FileHeader) (image, string) {
	maxBytes := h.Limits.MaxFileBytes
	if maxBytes > 0 && fh.Size > maxBytes {
		return image{}, tooLarge(maxBytes)
	}
	declared := normalizeType(fh.Header.Get(echo.HeaderContentType))
	if !allowedImageTypes[declared] {
		return image{}, msgBadType
	}

	f, err := fh.Open()
	if err != nil {
		return image{}, "Could not read uploaded file"
	}
	defer f.Close()
	limit := fh.Size
	if maxBytes > 0 {
		limit = maxBytes
	}
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return image{}, "Could not read uploaded file"
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return image{}, tooLarge(maxBytes)
	}
	if sniffed := normalizeType(http.DetectContentType(data)); sniffed != declared {
		return image{}, msgBadType
	}
	return image{contentType: declared, data: data}, ""
}

func tooLarge(maxBytes int64) string {
	return fmt.Sprintf("File too large. Maximum size is %d MB.", maxBytes>>20)
}

// normalizeType strips parameters and folds image/jpg into image/jpeg.
func normalizeType(ct string) string {
	ct = strings.ToLower(strings.TrimSpace(ct))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "image/jpg" {
		return "image/jpeg"
	}
	return ct
}
