package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/storyloom-backend/internal/logger"
	"github.com/yungbote/storyloom-backend/internal/utils"
)

const maxUploadBytes = 8 << 20 // 8 MiB

var allowedImageExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// MediaService stores uploaded story images and generated avatars on local
// disk and rewrites stored paths into absolute URLs under the public base.
type MediaService interface {
	SaveUpload(ctx context.Context, file *multipart.FileHeader) (string, error)
	SaveBytes(ctx context.Context, data []byte, ext string) (string, error)
	AbsoluteURL(path string) string
	Dir() string
}

type mediaService struct {
	log     *logger.Logger
	dir     string
	baseURL string
}

func NewMediaService(log *logger.Logger) (MediaService, error) {
	serviceLog := log.With("service", "MediaService")

	dir := utils.GetEnv("MEDIA_DIR", "./media", log)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir %q: %w", dir, err)
	}
	baseURL := strings.TrimRight(utils.GetEnv("PUBLIC_BASE_URL", "http://localhost:8080", log), "/")

	return &mediaService{log: serviceLog, dir: dir, baseURL: baseURL}, nil
}

func (ms *mediaService) SaveUpload(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if file == nil {
		return "", nil
	}
	if file.Size > maxUploadBytes {
		return "", fmt.Errorf("image exceeds maximum size of %d bytes", maxUploadBytes)
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExts[ext] {
		return "", fmt.Errorf("unsupported image type %q", ext)
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, maxUploadBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) > maxUploadBytes {
		return "", fmt.Errorf("image exceeds maximum size of %d bytes", maxUploadBytes)
	}
	return ms.SaveBytes(ctx, data, ext)
}

func (ms *mediaService) SaveBytes(_ context.Context, data []byte, ext string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("no image data")
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	name := uuid.New().String() + strings.ToLower(ext)
	fullPath := filepath.Join(ms.dir, name)
	if err := os.WriteFile(fullPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	ms.log.Debug("Stored media file", "name", name, "bytes", len(data))
	return "/media/" + name, nil
}

// AbsoluteURL preserves emptiness: an absent image stays absent.
func (ms *mediaService) AbsoluteURL(path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return ms.baseURL + path
}

func (ms *mediaService) Dir() string {
	return ms.dir
}
