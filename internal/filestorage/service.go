package filestorage

import (
	"context"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"shareaplate_backend/internal/config"
)

// MaxImageBytes caps listing photo uploads.
const MaxImageBytes = 5 << 20

// ErrStorageDisabled is returned when no bucket is configured.
var ErrStorageDisabled = fmt.Errorf("file storage is not configured")

// ObjectStore is the subset of the S3 client used here.
type ObjectStore interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// FileStorageService stores listing photos in an S3 bucket.
type FileStorageService struct {
	store   ObjectStore
	bucket  string
	baseURL string
	logger  *zap.Logger
}

// NewFileStorageService creates a new FileStorageService. A nil store leaves
// the service in a disabled state where every upload returns ErrStorageDisabled.
func NewFileStorageService(store ObjectStore, cfg *config.Config, logger *zap.Logger) *FileStorageService {
	baseURL := strings.TrimRight(cfg.S3PublicBaseURL, "/")
	if baseURL == "" && cfg.S3ImageBucket != "" {
		baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.S3ImageBucket, cfg.AWSRegion)
	}
	return &FileStorageService{
		store:   store,
		bucket:  cfg.S3ImageBucket,
		baseURL: baseURL,
		logger:  logger.Named("filestorage"),
	}
}

// Enabled reports whether uploads can be served.
func (s *FileStorageService) Enabled() bool {
	return s.store != nil && s.bucket != ""
}

// SaveUploadedFile uploads a multipart image under prefix (e.g. "listings/<id>")
// using a generated name, and returns the object key and its public URL.
func (s *FileStorageService) SaveUploadedFile(ctx context.Context, fileHeader *multipart.FileHeader, prefix string) (key, url string, err error) {
	if !s.Enabled() {
		return "", "", ErrStorageDisabled
	}
	if fileHeader == nil {
		return "", "", fmt.Errorf("fileHeader cannot be nil")
	}
	if fileHeader.Size > MaxImageBytes {
		return "", "", fmt.Errorf("file exceeds %d bytes", MaxImageBytes)
	}

	contentType := fileHeader.Header.Get("Content-Type")
	extension, err := imageExtension(fileHeader.Filename, contentType)
	if err != nil {
		return "", "", err
	}

	cleanPrefix := strings.Trim(filepath.ToSlash(filepath.Clean(prefix)), "/")
	if strings.Contains(cleanPrefix, "..") {
		return "", "", fmt.Errorf("invalid key prefix")
	}
	key = cleanPrefix + "/" + uuid.New().String() + extension

	src, err := fileHeader.Open()
	if err != nil {
		return "", "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err = s.store.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          src,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(fileHeader.Size),
		ACL:           types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		s.logger.Error("Failed to upload file to S3", zap.String("key", key), zap.Error(err))
		return "", "", fmt.Errorf("failed to upload file: %w", err)
	}

	s.logger.Info("File uploaded", zap.String("bucket", s.bucket), zap.String("key", key))
	return key, s.baseURL + "/" + key, nil
}

// DeleteFile removes an object by key. Missing keys are not an error on S3.
func (s *FileStorageService) DeleteFile(ctx context.Context, key string) error {
	if !s.Enabled() {
		return ErrStorageDisabled
	}
	if key == "" || strings.Contains(key, "..") {
		return fmt.Errorf("invalid file key for deletion")
	}
	if _, err := s.store.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		s.logger.Error("Failed to delete file", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to delete file %s: %w", key, err)
	}
	return nil
}

// KeyFromURL recovers an object key from a URL produced by SaveUploadedFile.
func (s *FileStorageService) KeyFromURL(url string) (string, bool) {
	prefix := s.baseURL + "/"
	if s.baseURL == "" || !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

func imageExtension(filename, contentType string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return ext, nil
	case "":
	default:
		return "", fmt.Errorf("unsupported file extension: %s", ext)
	}
	switch {
	case strings.HasPrefix(contentType, "image/jpeg"):
		return ".jpg", nil
	case strings.HasPrefix(contentType, "image/png"):
		return ".png", nil
	case strings.HasPrefix(contentType, "image/gif"):
		return ".gif", nil
	case strings.HasPrefix(contentType, "image/webp"):
		return ".webp", nil
	}
	return "", fmt.Errorf("unsupported file type or missing extension: %s", contentType)
}

// ProvideObjectStore adapts an optional S3 client to ObjectStore, keeping a
// nil client as a nil interface.
func ProvideObjectStore(client *s3.Client) ObjectStore {
	if client == nil {
		return nil
	}
	return client
}
