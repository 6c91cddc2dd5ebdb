package r2

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/benline/priority-gateway/internal/config"
)

// Store wraps an S3 client pointed at a Cloudflare R2 bucket. One bucket,
// no retries; every failure surfaces as a single wrapped error.
type Store struct {
	client     *s3.Client
	presigner  *s3.PresignClient
	bucket     string
	publicBase string
	presignTTL time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// Upload is the outcome of a direct or presigned upload.
type Upload struct {
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl,omitempty"`
	PublicURL string `json:"publicUrl,omitempty"`
}

// Object is a fetched blob ready for proxying.
type Object struct {
	Body        io.ReadCloser
	ContentType string
	Length      int64
}

func NewStore(ctx context.Context, cfg config.R2, logger *zap.Logger) (*Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("r2 config: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &Store{
		client:     client,
		presigner:  s3.NewPresignClient(client),
		bucket:     cfg.Bucket,
		publicBase: cfg.PublicBaseURL,
		presignTTL: cfg.PresignTTL,
		logger:     logger,
		now:        time.Now,
	}, nil
}

// PresignUpload issues a time-limited PUT URL for a direct client upload.
// The key carries a millisecond timestamp prefix on the filename so repeat
// uploads of the same file never collide.
func (s *Store) PresignUpload(ctx context.Context, folder, orderID, filename, contentType string) (*Upload, error) {
	key := s.objectKey(folder, orderID, filename)

	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		s.logger.Error("presign failed", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("r2 presign: %w", err)
	}

	return &Upload{
		Key:       key,
		UploadURL: req.URL,
		PublicURL: s.publicURL(key),
	}, nil
}

// Put uploads a base64 data URL ("data:<type>;base64,<payload>") server-side.
func (s *Store) Put(ctx context.Context, folder, orderID, filename, dataURL string) (*Upload, error) {
	contentType, payload, err := decodeDataURL(dataURL)
	if err != nil {
		return nil, fmt.Errorf("r2 upload: %w", err)
	}

	key := s.objectKey(folder, orderID, filename)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.logger.Error("upload failed", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("r2 upload: %w", err)
	}

	s.logger.Info("object uploaded", zap.String("key", key), zap.Int("bytes", len(payload)))
	return &Upload{Key: key, PublicURL: s.publicURL(key)}, nil
}

// PutBytes writes raw bytes under an exact key. Used for the order
// snapshot, which must land at a stable key rather than a derived one.
func (s *Store) PutBytes(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.logger.Error("upload failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("r2 upload: %w", err)
	}
	return nil
}

// GetBytes reads a whole object into memory.
func (s *Store) GetBytes(ctx context.Context, key string) ([]byte, error) {
	obj, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer obj.Body.Close()
	return io.ReadAll(obj.Body)
}

// Delete removes an object by key, or by its public URL.
func (s *Store) Delete(ctx context.Context, keyOrURL string) error {
	key := s.keyFrom(keyOrURL)
	if key == "" {
		return fmt.Errorf("r2 delete: empty key")
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.logger.Error("delete failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("r2 delete: %w", err)
	}

	s.logger.Info("object deleted", zap.String("key", key))
	return nil
}

// Get streams an object back for proxying.
func (s *Store) Get(ctx context.Context, key string) (*Object, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		s.logger.Error("get failed", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("r2 get: %w", err)
	}

	obj := &Object{Body: out.Body, ContentType: aws.ToString(out.ContentType)}
	if out.ContentLength != nil {
		obj.Length = *out.ContentLength
	}
	return obj, nil
}

func (s *Store) objectKey(folder, orderID, filename string) string {
	name := fmt.Sprintf("%d-%s", s.now().UnixMilli(), sanitizeFilename(filename))
	parts := []string{}
	if folder != "" {
		parts = append(parts, strings.Trim(folder, "/"))
	}
	if orderID != "" {
		parts = append(parts, orderID)
	}
	parts = append(parts, name)
	return strings.Join(parts, "/")
}

func (s *Store) publicURL(key string) string {
	if s.publicBase == "" {
		return ""
	}
	return s.publicBase + "/" + key
}

// keyFrom accepts either a bare object key or the object's public URL.
func (s *Store) keyFrom(keyOrURL string) string {
	v := strings.TrimSpace(keyOrURL)
	if s.publicBase != "" && strings.HasPrefix(v, s.publicBase) {
		return strings.TrimPrefix(strings.TrimPrefix(v, s.publicBase), "/")
	}
	if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
		if u, err := url.Parse(v); err == nil {
			return strings.TrimPrefix(u.Path, "/")
		}
	}
	return v
}

func sanitizeFilename(name string) string {
	if name == "" {
		return "file"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

func decodeDataURL(dataURL string) (contentType string, payload []byte, err error) {
	const marker = ";base64,"

	if !strings.HasPrefix(dataURL, "data:") {
		return "", nil, fmt.Errorf("not a data URL")
	}
	idx := strings.Index(dataURL, marker)
	if idx < 0 {
		return "", nil, fmt.Errorf("data URL is not base64 encoded")
	}

	contentType = dataURL[len("data:"):idx]
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	payload, err = base64.StdEncoding.DecodeString(dataURL[idx+len(marker):])
	if err != nil {
		return "", nil, fmt.Errorf("decode payload: %w", err)
	}
	return contentType, payload, nil
}
