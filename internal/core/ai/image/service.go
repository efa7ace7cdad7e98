// Package image normalizes uploaded photos into JPEG data URIs for vision prompts.
package image

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"strings"
	"time"

	_ "image/gif"
	_ "image/png"

	"bekal-bangsa/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	_ "golang.org/x/image/webp"
)

// Service decodes, size-checks and re-encodes images.
type Service struct {
	maxSizeBytes int64
	quality      int
	httpClient   *resty.Client
}

// NewService creates an image service. quality is the JPEG re-encode quality.
func NewService(maxSizeBytes int64, quality int) *Service {
	if quality <= 0 || quality > 100 {
		quality = 85
	}
	return &Service{
		maxSizeBytes: maxSizeBytes,
		quality:      quality,
		httpClient:   resty.New().SetTimeout(30 * time.Second),
	}
}

// ProcessBytes re-encodes raw image bytes as a JPEG data URI.
func (s *Service) ProcessBytes(data []byte) (string, error) {
	if len(data) == 0 {
		return "", common.Wrap(common.ErrInvalidImageFormat, fmt.Errorf("empty image"))
	}
	if s.maxSizeBytes > 0 && int64(len(data)) > s.maxSizeBytes {
		return "", common.Wrap(common.ErrInvalidImageSize,
			fmt.Errorf("image size %d exceeds maximum limit of %d bytes", len(data), s.maxSizeBytes))
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", common.Wrap(common.ErrInvalidImageFormat, fmt.Errorf("failed to decode image: %w", err))
	}
	if !isSupportedFormat(format) {
		return "", common.Wrap(common.ErrInvalidImageFormat, fmt.Errorf("unsupported image format: %s", format))
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.quality}); err != nil {
		return "", fmt.Errorf("failed to encode image as JPEG: %w", err)
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ProcessImage accepts an http(s) URL or a data:image/ URI.
func (s *Service) ProcessImage(imageData string) (string, error) {
	if strings.HasPrefix(imageData, "http://") || strings.HasPrefix(imageData, "https://") {
		resp, err := s.httpClient.R().Get(imageData)
		if err != nil {
			return "", fmt.Errorf("failed to download image: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return "", fmt.Errorf("failed to download image: status code %d", resp.StatusCode())
		}
		return s.ProcessBytes(resp.Body())
	}

	if !strings.HasPrefix(imageData, "data:image/") {
		return "", common.Wrap(common.ErrInvalidImageFormat, fmt.Errorf("invalid image data format"))
	}

	parts := strings.SplitN(imageData, ",", 2)
	if len(parts) != 2 {
		return "", common.Wrap(common.ErrInvalidImageFormat, fmt.Errorf("invalid base64 data format"))
	}

	decoded, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", common.Wrap(common.ErrInvalidImageFormat, fmt.Errorf("failed to decode base64 data: %w", err))
	}

	return s.ProcessBytes(decoded)
}

func isSupportedFormat(format string) bool {
	switch format {
	case "jpeg", "jpg", "png", "gif", "webp":
		return true
	}
	return false
}
