package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/redis/go-redis/v9"

	"jobBoard/internal/api/middleware"
	"jobBoard/internal/repository"
	"jobBoard/internal/storage"
)

const (
	defaultLogoMaxBytes  = 2 * 1024 * 1024
	defaultUploadsPerDay = 20
	logoURLTTL           = 7 * 24 * time.Hour
)

var logoExtensions = []string{".png", ".jpg", ".jpeg", ".webp"}

var logoMIMEExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// ObjectStore 是上传所需的对象存储能力，便于测试替换。
type ObjectStore interface {
	UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (*minio.UploadInfo, error)
	GeneratePresignedURL(ctx context.Context, objectKey string, duration time.Duration) (string, error)
	DeleteObject(ctx context.Context, objectKey string) error
}

// AssetHandler 负责公司 logo 上传与访问。
type AssetHandler struct {
	storage       ObjectStore
	scanner       storage.Scanner
	companies     *repository.CompanyRepository
	redis         redis.UniversalClient
	logger        *slog.Logger
	maxBytes      int64
	uploadsPerDay int64
}

// NewAssetHandler 返回 AssetHandler 实例。scanner 为 nil 时跳过扫描。
func NewAssetHandler(store ObjectStore, scanner storage.Scanner, companies *repository.CompanyRepository, redisClient redis.UniversalClient, logger *slog.Logger) *AssetHandler {
	return &AssetHandler{
		storage:       store,
		scanner:       scanner,
		companies:     companies,
		redis:         redisClient,
		logger:        logger,
		maxBytes:      defaultLogoMaxBytes,
		uploadsPerDay: defaultUploadsPerDay,
	}
}

// UploadLogo 校验、扫描并上传 logo，随后写回雇主的公司资料（如已创建）。
func (h *AssetHandler) UploadLogo(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	ctx := c.Request.Context()
	logger := requestLogger(c, h.logger).With(slog.Uint64("user_id", uint64(userID)))

	file, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "missing file")
		return
	}
	if file.Size <= 0 || file.Size > h.maxBytes {
		Error(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("logo must be at most %d bytes", h.maxBytes))
		return
	}

	if h.redis != nil {
		key := windowKey(logoUploadPrefix, fmt.Sprint(userID), 24*time.Hour, time.Now())
		count, err := countInWindow(ctx, h.redis, key, 24*time.Hour)
		if err == nil && count > h.uploadsPerDay {
			Forbidden(c, "daily upload limit reached")
			return
		}
	}

	src, err := file.Open()
	if err != nil {
		Internal(c, "failed to open file")
		return
	}
	content, err := io.ReadAll(io.LimitReader(src, h.maxBytes+1))
	src.Close()
	if err != nil {
		Internal(c, "failed to read file")
		return
	}

	contentType := http.DetectContentType(content)
	ext, allowed := logoMIMEExtensions[contentType]
	if !allowed {
		Error(c, http.StatusUnsupportedMediaType, "logo must be png, jpeg or webp")
		return
	}

	if h.scanner != nil {
		if err := h.scanner.Scan(bytes.NewReader(content)); err != nil {
			if errors.Is(err, storage.ErrInfected) {
				logger.Warn("infected logo upload rejected", slog.Any("error", err))
				BadRequest(c, "malicious file detected")
				return
			}
			logger.Error("scan file", slog.Any("error", err))
			Internal(c, "failed to scan file")
			return
		}
	}

	objectKey := logoObjectPrefix(userID) + uuid.NewString() + ext
	if _, err := h.storage.UploadFile(ctx, objectKey, bytes.NewReader(content), int64(len(content)), contentType); err != nil {
		logger.Error("upload file", slog.Any("error", err))
		Internal(c, "failed to upload file")
		return
	}

	url, err := h.storage.GeneratePresignedURL(ctx, objectKey, logoURLTTL)
	if err != nil {
		logger.Error("generate presigned url", slog.Any("error", err))
		Internal(c, "failed to generate url")
		return
	}

	if h.companies != nil {
		if err := h.companies.SetLogo(ctx, userID, url); err != nil && !errors.Is(err, repository.ErrNotFound) {
			logger.Warn("attach logo to company failed", slog.Any("error", err))
		}
	}

	c.JSON(http.StatusCreated, gin.H{"object_key": objectKey, "url": url})
}

// GetLogoURL 为雇主自己的 logo 重新签发链接。
func (h *AssetHandler) GetLogoURL(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	objectKey := c.Query("key")
	if objectKey == "" {
		BadRequest(c, "missing key")
		return
	}
	if !isValidLogoObjectKey(userID, objectKey) {
		Forbidden(c, "access denied")
		return
	}

	url, err := h.storage.GeneratePresignedURL(c.Request.Context(), objectKey, logoURLTTL)
	if err != nil {
		requestLogger(c, h.logger).Error("generate presigned url", slog.Any("error", err))
		Internal(c, "failed to generate url")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// DeleteLogo 删除雇主自己的 logo 对象。
func (h *AssetHandler) DeleteLogo(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		AbortUnauthorized(c)
		return
	}
	objectKey := c.Query("key")
	if !isValidLogoObjectKey(userID, objectKey) {
		Forbidden(c, "access denied")
		return
	}
	if err := h.storage.DeleteObject(c.Request.Context(), objectKey); err != nil {
		requestLogger(c, h.logger).Error("delete logo", slog.Any("error", err))
		Internal(c, "failed to delete logo")
		return
	}
	c.Status(http.StatusNoContent)
}
