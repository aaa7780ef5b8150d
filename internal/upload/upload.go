// Package upload stores user-supplied images. Every accepted file is decoded,
// bounded to MaxDimension and re-encoded as WebP under a content hash.
package upload

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"huddle/internal/config"
	"huddle/internal/middleware"
	"huddle/internal/models"
	"huddle/internal/observability"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultDir       = "uploads"
	DefaultBaseURL   = "/uploads"
	DefaultMaxSizeMB = 10
	MaxDimension     = 2048
	WebPQuality      = 70

	// MaxPixels bounds the decoded size of an upload, checked from the
	// image header before any pixel data is read.
	MaxPixels = 40_000_000
)

// PostsFolder holds post images.
const PostsFolder = "posts"

var folderPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Uploader persists files and returns their public URLs in input order.
type Uploader interface {
	Upload(ctx context.Context, files []*multipart.FileHeader, folder string) ([]string, error)
}

// DiskUploader writes images below a local directory served as static files.
type DiskUploader struct {
	dir          string
	baseURL      string
	maxSizeBytes int64
}

// NewDiskUploader builds an uploader from the upload settings in cfg.
func NewDiskUploader(cfg *config.Config) *DiskUploader {
	dir := DefaultDir
	baseURL := DefaultBaseURL
	maxSizeMB := DefaultMaxSizeMB
	if cfg != nil {
		if cfg.UploadDir != "" {
			dir = cfg.UploadDir
		}
		if cfg.UploadBaseURL != "" {
			baseURL = cfg.UploadBaseURL
		}
		if cfg.UploadMaxSizeMB > 0 {
			maxSizeMB = cfg.UploadMaxSizeMB
		}
	}
	return &DiskUploader{
		dir:          dir,
		baseURL:      baseURL,
		maxSizeBytes: int64(maxSizeMB) * 1024 * 1024,
	}
}

// Dir returns the directory files are written to.
func (u *DiskUploader) Dir() string { return u.dir }

// Upload validates and stores every file. Nothing is written unless all
// files are valid images.
func (u *DiskUploader) Upload(ctx context.Context, files []*multipart.FileHeader, folder string) ([]string, error) {
	if !folderPattern.MatchString(folder) {
		return nil, models.NewValidationError("Invalid upload folder")
	}

	encoded := make([][]byte, 0, len(files))
	for _, fh := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := u.process(fh)
		if err != nil {
			observability.Uploads.WithLabelValues("rejected").Inc()
			return nil, err
		}
		encoded = append(encoded, data)
	}

	urls := make([]string, 0, len(encoded))
	for _, data := range encoded {
		name := contentHash(data) + ".webp"
		if err := writeBytesToFile(filepath.Join(u.dir, folder, name), data); err != nil {
			observability.Uploads.WithLabelValues("failed").Inc()
			middleware.Logger.ErrorContext(ctx, "failed to write upload",
				slog.String("folder", folder), slog.String("error", err.Error()))
			return nil, models.NewInternalError(err)
		}
		observability.Uploads.WithLabelValues("stored").Inc()
		urls = append(urls, fmt.Sprintf("%s/%s/%s", u.baseURL, folder, name))
	}
	return urls, nil
}

func (u *DiskUploader) process(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > u.maxSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", u.maxSizeBytes/(1024*1024)))
	}
	f, err := fh.Open()
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(io.LimitReader(f, u.maxSizeBytes+1))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if len(content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(content)) > u.maxSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", u.maxSizeBytes/(1024*1024)))
	}

	if !isAllowedImageMIME(http.DetectContentType(content)) {
		return nil, models.NewValidationError("Invalid image type")
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, models.NewValidationError("Image dimensions too large")
	}
	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}

	out, err := encodeWebP(resizeToFit(decoded, MaxDimension, MaxDimension), WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 || (w <= maxWidth && h <= maxHeight) {
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

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func contentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func writeBytesToFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
