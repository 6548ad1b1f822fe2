package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pageza/foodgram/backend/config"
)

const maxImageBytes = 10 << 20

var imageTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// ImageStore persists recipe images and returns the URL clients should load them from.
type ImageStore interface {
	Save(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, url string) error
}

// DecodedImage is the payload of a data:image/...;base64 URI
type DecodedImage struct {
	Data        []byte
	ContentType string
	Ext         string
}

// DecodeDataURI parses a data:image/<type>;base64,<payload> string.
func DecodeDataURI(raw string) (*DecodedImage, error) {
	header, payload, ok := strings.Cut(strings.TrimSpace(raw), ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, invalid("image", "expected a base64 data URI")
	}
	contentType := strings.ToLower(strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64"))
	ext, known := imageTypes[contentType]
	if !known {
		return nil, invalid("image", "unsupported image type %q", contentType)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, invalid("image", "invalid base64 payload")
	}
	if len(data) == 0 {
		return nil, invalid("image", "image is empty")
	}
	if len(data) > maxImageBytes {
		return nil, invalid("image", "image exceeds %d bytes", maxImageBytes)
	}
	return &DecodedImage{Data: data, ContentType: contentType, Ext: ext}, nil
}

// ImageService decodes uploaded images and hands them to the configured store
type ImageService struct {
	store ImageStore
	log   *zap.Logger
}

func NewImageService(store ImageStore, log *zap.Logger) *ImageService {
	return &ImageService{store: store, log: log.Named("images")}
}

// SaveDataURI stores an uploaded recipe image under a fresh key and returns its URL.
func (s *ImageService) SaveDataURI(ctx context.Context, raw string) (string, error) {
	img, err := DecodeDataURI(raw)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("recipes/%s.%s", uuid.NewString(), img.Ext)
	url, err := s.store.Save(ctx, key, img.Data, img.ContentType)
	if err != nil {
		return "", fmt.Errorf("store image: %w", err)
	}
	return url, nil
}

// Discard removes an image and only logs failures; a stale file must not fail the request.
func (s *ImageService) Discard(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.store.Delete(ctx, url); err != nil {
		s.log.Warn("failed to delete image", zap.String("url", url), zap.Error(err))
	}
}

// LocalImageStore writes images below root and serves them under baseURL
type LocalImageStore struct {
	root    string
	baseURL string
}

func NewLocalImageStore(root, baseURL string) *LocalImageStore {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &LocalImageStore{root: root, baseURL: baseURL}
}

func (s *LocalImageStore) Save(_ context.Context, key string, data []byte, _ string) (string, error) {
	target := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return "", err
	}
	return s.baseURL + key, nil
}

func (s *LocalImageStore) Delete(_ context.Context, url string) error {
	key, ok := strings.CutPrefix(url, s.baseURL)
	if !ok || strings.Contains(key, "..") {
		return fmt.Errorf("image %q is not managed by this store", url)
	}
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(path.Clean(key))))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// S3ImageStore uploads images to a bucket
type S3ImageStore struct {
	s3Config *config.S3Config
}

func NewS3ImageStore(s3Config *config.S3Config) *S3ImageStore {
	return &S3ImageStore{s3Config: s3Config}
}

// Save uploads image data to S3 and returns the public URL
func (s *S3ImageStore) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return s.s3Config.ObjectURL(key), nil
}

func (s *S3ImageStore) Delete(ctx context.Context, url string) error {
	prefix := strings.TrimRight(s.s3Config.PublicURL, "/") + "/"
	key, ok := strings.CutPrefix(url, prefix)
	if !ok {
		return fmt.Errorf("image %q is not in bucket %s", url, s.s3Config.BucketName)
	}
	_, err := s.s3Config.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.s3Config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}
