// Package storage uploads profile pictures to Cloudinary.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"healthcare-booking-server/internal/config"
)

// Folder is the Cloudinary folder that holds uploads.
const Folder = "health-app"

// ErrNotConfigured is returned by New when credentials are missing.
var ErrNotConfigured = errors.New("cloudinary is not configured")

var allowedFormats = map[string]bool{".jpeg": true, ".jpg": true, ".png": true, ".gif": true, ".webp": true}

// uploadAPI is the part of the Cloudinary uploader used here.
type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, params uploader.UploadParams) (*uploader.UploadResult, error)
	Destroy(ctx context.Context, params uploader.DestroyParams) (*uploader.DestroyResult, error)
}

// Cloudinary stores files in a Cloudinary account.
type Cloudinary struct {
	api uploadAPI
}

// New creates a Cloudinary store from cfg.
func New(cfg config.CloudinaryConfig) (*Cloudinary, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, ErrNotConfigured
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("create cloudinary client: %w", err)
	}
	return &Cloudinary{api: &cld.Upload}, nil
}

// Upload stores an image and returns its secure URL.
func (c *Cloudinary) Upload(ctx context.Context, file io.Reader, filename string) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	if !allowedFormats[ext] {
		return "", fmt.Errorf("unsupported image format %q", ext)
	}
	res, err := c.api.Upload(ctx, file, uploader.UploadParams{
		Folder:         Folder,
		ResourceType:   "image",
		Transformation: "c_limit,w_1000,h_1000,q_auto,f_auto",
	})
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("upload image: %s", res.Error.Message)
	}
	return res.SecureURL, nil
}

// Delete removes a previously uploaded image. URLs that do not point at a
// Cloudinary upload are ignored.
func (c *Cloudinary) Delete(ctx context.Context, url string) error {
	publicID, ok := PublicID(url)
	if !ok {
		return nil
	}
	res, err := c.api.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("delete image %s: %w", publicID, err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("delete image %s: %s", publicID, res.Error.Message)
	}
	return nil
}

var versionSegment = regexp.MustCompile(`^v\d+/`)

// PublicID extracts the Cloudinary public id from a delivery URL of the
// form .../upload/[v<version>/]<public_id>.<ext>.
func PublicID(url string) (string, bool) {
	const marker = "/upload/"
	i := strings.Index(url, marker)
	if url == "" || i < 0 {
		return "", false
	}
	id := versionSegment.ReplaceAllString(url[i+len(marker):], "")
	id = strings.TrimSuffix(id, path.Ext(id))
	if id == "" {
		return "", false
	}
	return id, true
}
