package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/h2non/filetype"
	"github.com/labstack/echo/v4"

	"github.com/fatora-app/fatora-server/internal/config"
	"github.com/fatora-app/fatora-server/internal/model"
	"github.com/fatora-app/fatora-server/internal/queue"
	"github.com/fatora-app/fatora-server/internal/repository"
)

// acceptedImageTypes maps the extensions detected by content sniffing to
// whether they may be stored.  filetype reports "jpg" for both jpeg and
// jpg payloads.
var acceptedImageTypes = map[string]bool{
	"jpg": true,
	"png": true,
	"gif": true,
}

// ProductStore is the slice of the product repository the catalog
// endpoints need.
type ProductStore interface {
	Create(ctx context.Context, p *model.Product) error
	GetByBarcode(ctx context.Context, barcode string) (*model.Product, error)
	ListByUser(ctx context.Context, userID uint64) ([]*model.Product, error)
}

// ProductHandler bundles dependencies for catalog endpoints.  Publish is
// optional; when set it is invoked best-effort after a successful create
// and its error never fails the request.
type ProductHandler struct {
	Cfg      config.Config
	Products ProductStore
	Publish  func(ctx context.Context, ev queue.ProductCreatedEvent) error
}

func NewProductHandler(cfg config.Config, p ProductStore) *ProductHandler {
	return &ProductHandler{Cfg: cfg, Products: p}
}

// productDraft carries the parsed create payload before validation.
// LastPrice stays a pointer so "missing" and "zero" are distinguishable.
type productDraft struct {
	Barcode   string   `json:"barcode"`
	Name      string   `json:"name"`
	Brand     string   `json:"brand"`
	LastPrice *float64 `json:"last_price"`
}

// Lookup handles GET /products/:barcode.  It is a public read: scanners
// resolve barcodes before the user ever logs in.  An unknown barcode is
// a 404, which the client treats as the normal hand-off into product
// creation rather than an error.
func (h *ProductHandler) Lookup(c echo.Context) error {
	barcode := strings.TrimSpace(c.Param("barcode"))
	if barcode == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "barcode is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	p, err := h.Products.GetByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "product not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"product": p})
}

// Create handles POST /products (bearer-protected).  The body is either
// JSON or multipart form data; only multipart can carry an image.  All
// field rules run before any store call, but barcode uniqueness is left
// to the database index: two concurrent creates with the same barcode
// both reach the INSERT and exactly one wins.
func (h *ProductHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	draft, file, fieldErrs, err := h.parseDraft(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid request body"})
	}

	errs := checkFields([]fieldRule{
		{field: "barcode", value: draft.Barcode, required: true},
		{field: "name", value: draft.Name, required: true, maxLen: 50},
		{field: "brand", value: draft.Brand, required: true, maxLen: 50},
	})
	for field, msgs := range fieldErrs {
		errs[field] = append(errs[field], msgs...)
	}
	if len(fieldErrs["last_price"]) == 0 {
		if draft.LastPrice == nil {
			errs["last_price"] = append(errs["last_price"], "the last_price field is required")
		} else if *draft.LastPrice <= 0 {
			errs["last_price"] = append(errs["last_price"], "the last_price must be greater than zero")
		}
	}

	var imageData []byte
	var imageExt string
	if file != nil {
		imageData, imageExt, err = h.readImage(file)
		if err != nil {
			errs["image"] = append(errs["image"], err.Error())
		}
	}
	if len(errs) > 0 {
		return validationFailed(c, errs)
	}

	// Store the asset before linking it so a product row never points at
	// a missing file.
	var imagePath *string
	if imageData != nil {
		p, err := h.saveImage(imageData, imageExt)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "store image failed"})
		}
		imagePath = &p
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	product := &model.Product{
		Barcode:   strings.TrimSpace(draft.Barcode),
		Name:      strings.TrimSpace(draft.Name),
		Brand:     strings.TrimSpace(draft.Brand),
		LastPrice: *draft.LastPrice,
		Image:     imagePath,
		UserID:    userID,
	}
	if err := h.Products.Create(ctx, product); err != nil {
		if errors.Is(err, repository.ErrBarcodeExists) {
			return validationFailed(c, map[string][]string{
				"barcode": {"the barcode has already been taken"},
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "could not create product"})
	}

	if h.Publish != nil {
		ev := queue.ProductCreatedEvent{
			ProductID: product.ID,
			Barcode:   product.Barcode,
			Name:      product.Name,
			Brand:     product.Brand,
			LastPrice: product.LastPrice,
			UserID:    product.UserID,
			CreatedAt: product.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := h.Publish(c.Request().Context(), ev); err != nil {
			log.Printf("product.created publish failed: %v", err)
		}
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"message": "product added successfully",
		"product": product,
	})
}

// ListMine handles GET /products/mine and returns the products created
// by the authenticated user, newest last.
func (h *ProductHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Products.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"products": items})
}

// parseDraft extracts the product fields from either a JSON or a
// multipart body.  The returned file header is nil when no image was
// attached.  Recoverable per-field problems, such as a non-numeric
// last_price in a form post, come back in the field-error map so they
// join the validation response instead of aborting the request.
func (h *ProductHandler) parseDraft(c echo.Context) (*productDraft, *multipart.FileHeader, map[string][]string, error) {
	ct := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		fieldErrs := map[string][]string{}
		draft := &productDraft{
			Barcode: c.FormValue("barcode"),
			Name:    c.FormValue("name"),
			Brand:   c.FormValue("brand"),
		}
		if raw := strings.TrimSpace(c.FormValue("last_price")); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				fieldErrs["last_price"] = append(fieldErrs["last_price"], "the last_price must be a number")
			} else {
				draft.LastPrice = &v
			}
		}
		file, err := c.FormFile("image")
		if err != nil {
			// A missing file part just means no image was uploaded.
			file = nil
		}
		return draft, file, fieldErrs, nil
	}

	var draft productDraft
	if err := c.Bind(&draft); err != nil {
		return nil, nil, nil, err
	}
	return &draft, nil, nil, nil
}

// readImage loads an uploaded file, enforcing the size ceiling and
// sniffing the content type rather than trusting the file extension.
// The returned error messages are user-facing field errors.
func (h *ProductHandler) readImage(fh *multipart.FileHeader) ([]byte, string, error) {
	maxBytes := h.Cfg.MaxImageBytes
	if maxBytes <= 0 {
		maxBytes = 2 << 20
	}
	if fh.Size > maxBytes {
		return nil, "", fmt.Errorf("the image may not be greater than %d bytes", maxBytes)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, "", errors.New("the image could not be read")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return nil, "", errors.New("the image could not be read")
	}
	if int64(len(data)) > maxBytes {
		return nil, "", fmt.Errorf("the image may not be greater than %d bytes", maxBytes)
	}

	kind, err := filetype.Match(data)
	if err != nil || !acceptedImageTypes[kind.Extension] {
		return nil, "", errors.New("the image must be a file of type: jpeg, png, jpg, gif")
	}
	return data, kind.Extension, nil
}

// saveImage writes the asset into the upload directory under a generated
// name and returns the public path stored on the product row.
func (h *ProductHandler) saveImage(data []byte, ext string) (string, error) {
	dir := h.Cfg.UploadDir
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%d.%s", time.Now().UnixNano(), ext)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return "", err
	}
	return "/uploads/" + name, nil
}
