package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // Register GIF decoder
	"image/jpeg"
	_ "image/png" // Register PNG decoder
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"

	"paddock/internal/middleware"
	"paddock/internal/models"
	"paddock/internal/storage"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	PhotoMaxSize     = 1080
	PhotoJPEGQuality = 82
	PhotoWebPQuality = 70
	// PhotoMaxPixels bounds width*height of an upload before it is decoded.
	PhotoMaxPixels = 40_000_000
	photoKeyPrefix   = "photos"
)

const errInvalidImage = "Upload a valid image. The file you uploaded was either not an image or a corrupted image."

// PhotoUpload is a photo file received with a post form.
type PhotoUpload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// PhotoService validates, downsizes and stores post photos.
type PhotoService struct {
	store              storage.PhotoStore
	maxUploadSizeBytes int64
}

func NewPhotoService(store storage.PhotoStore, maxUploadMB int) *PhotoService {
	if maxUploadMB <= 0 {
		maxUploadMB = 10
	}
	return &PhotoService{
		store:              store,
		maxUploadSizeBytes: int64(maxUploadMB) * 1024 * 1024,
	}
}

// Save stores a JPEG master and a WebP variant and returns the master key.
func (s *PhotoService) Save(ctx context.Context, in PhotoUpload) (string, error) {
	if len(in.Content) == 0 {
		return "", models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return "", models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	detected := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detected) {
		return "", models.NewValidationError(errInvalidImage)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(in.Content))
	if err != nil || cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > PhotoMaxPixels {
		return "", models.NewValidationError(errInvalidImage)
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil || decodedFormatToMime(format) == "" {
		return "", models.NewValidationError(errInvalidImage)
	}

	master := resizeToFit(decoded, PhotoMaxSize, PhotoMaxSize)
	jpgBytes, err := encodeJPEG(master, PhotoJPEGQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	webpBytes, err := encodeWebP(master, PhotoWebPQuality)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	id := uuid.NewString()
	jpgKey := path.Join(photoKeyPrefix, id+".jpg")
	if err := s.store.Put(ctx, jpgKey, jpgBytes, "image/jpeg"); err != nil {
		return "", models.NewInternalError(err)
	}
	if err := s.store.Put(ctx, WebPKey(jpgKey), webpBytes, "image/webp"); err != nil {
		_ = s.store.Delete(ctx, jpgKey)
		return "", models.NewInternalError(err)
	}

	middleware.Logger.InfoContext(ctx, "photo stored",
		slog.String("key", jpgKey),
		slog.String("source_format", format),
		slog.Int("width", master.Bounds().Dx()),
		slog.Int("height", master.Bounds().Dy()),
	)
	return jpgKey, nil
}

// Delete removes both renditions of key. Failures are logged only.
func (s *PhotoService) Delete(ctx context.Context, key string) {
	if key == "" {
		return
	}
	for _, k := range []string{key, WebPKey(key)} {
		if err := s.store.Delete(ctx, k); err != nil {
			middleware.Logger.WarnContext(ctx, "photo delete failed", slog.String("key", k), slog.String("error", err.Error()))
		}
	}
}

// URL returns the public URL of the JPEG master.
func (s *PhotoService) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.store.URL(key)
}

// WebPKey maps a master key to its WebP rendition.
func WebPKey(key string) string {
	return strings.TrimSuffix(key, path.Ext(key)) + ".webp"
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}
