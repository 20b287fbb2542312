// Package imagestore uploads meal photos to S3.
package imagestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/platewise/platewise-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// Uploader stores a meal photo and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, userID uint64, data []byte, contentType string) (string, error)
}

// ObjectPutter is the subset of *s3.Client used by S3Store.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads photos under prefix/userID/uuid.ext.
type S3Store struct {
	client        ObjectPutter
	bucket        string
	region        string
	prefix        string
	publicBaseURL string
	newID         func() string
}

var _ Uploader = (*S3Store)(nil)

// NewS3Store loads AWS credentials from the default chain and builds an S3Store.
func NewS3Store(ctx context.Context, cfg config.ImageStoreConfig) (*S3Store, error) {
	if !cfg.Enabled() {
		return nil, errors.New("imagestore: bucket is not configured")
	}
	var opts []func(*awsconfig.LoadOptions) error
	if region := strings.TrimSpace(cfg.Region); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, errLoad := awsconfig.LoadDefaultConfig(ctx, opts...)
	if errLoad != nil {
		return nil, fmt.Errorf("imagestore: load aws config: %w", errLoad)
	}
	if cfg.Region == "" {
		cfg.Region = awsCfg.Region
	}
	return NewS3StoreWithClient(s3.NewFromConfig(awsCfg), cfg), nil
}

// NewS3StoreWithClient builds an S3Store around an existing client.
func NewS3StoreWithClient(client ObjectPutter, cfg config.ImageStoreConfig) *S3Store {
	return &S3Store{
		client:        client,
		bucket:        strings.TrimSpace(cfg.Bucket),
		region:        strings.TrimSpace(cfg.Region),
		prefix:        strings.Trim(strings.TrimSpace(cfg.Prefix), "/"),
		publicBaseURL: strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/"),
		newID:         uuid.NewString,
	}
}

// Upload puts the photo with a public-read ACL and returns the URL clients should load.
func (s *S3Store) Upload(ctx context.Context, userID uint64, data []byte, contentType string) (string, error) {
	if s == nil || s.client == nil {
		return "", errors.New("imagestore: not initialized")
	}
	if len(data) == 0 {
		return "", errors.New("imagestore: empty image")
	}
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		contentType = "image/jpeg"
	}

	key := s.objectKey(userID, contentType)
	_, errPut := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		ACL:         s3types.ObjectCannedACLPublicRead,
	})
	if errPut != nil {
		return "", fmt.Errorf("imagestore: put object: %w", errPut)
	}
	log.WithFields(log.Fields{"user_id": userID, "key": key, "bytes": len(data)}).Debug("imagestore: photo uploaded")
	return s.publicURL(key), nil
}

func (s *S3Store) objectKey(userID uint64, contentType string) string {
	name := fmt.Sprintf("%d/%s%s", userID, s.newID(), extensionFor(contentType))
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

func (s *S3Store) publicURL(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	if s.region == "" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

func extensionFor(contentType string) string {
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	switch mediaType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/heic":
		return ".heic"
	}
	if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
		return exts[0]
	}
	if parts := strings.SplitN(mediaType, "/", 2); len(parts) == 2 && parts[1] != "" {
		return "." + parts[1]
	}
	return ""
}
