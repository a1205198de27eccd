package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

var ErrUnsupportedType = errors.New("unsupported file type")

// Storage persists uploaded route maps and returns the URL clients should load them from.
type Storage interface {
	SaveFile(ctx context.Context, filename string, src io.ReadSeeker) (string, error)
}

type LocalStorage struct {
	uploadDir string
	urlPrefix string
	now       func() time.Time
}

type SpacesStorage struct {
	client s3iface.S3API
	bucket string
	cdnURL string
	now    func() time.Time
}

// NewLocalStorage writes files under uploadDir; the server exposes that directory at /uploads.
func NewLocalStorage(uploadDir string) *LocalStorage {
	return &LocalStorage{uploadDir: uploadDir, urlPrefix: "/uploads", now: time.Now}
}

func NewSpacesStorage(endpoint, region, bucket, cdnURL, accessKey, secretKey string) (*SpacesStorage, error) {
	config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(false),
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &SpacesStorage{
		client: s3.New(sess),
		bucket: bucket,
		cdnURL: cdnURL,
		now:    time.Now,
	}, nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// normalizeFilename strips everything but [a-zA-Z0-9_-] from the base name and appends a
// timestamp so repeated uploads never collide.
func normalizeFilename(originalFilename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	baseName := strings.TrimSuffix(filepath.Base(originalFilename), filepath.Ext(originalFilename))
	baseName = strings.ReplaceAll(baseName, " ", "_")
	baseName = unsafeChars.ReplaceAllString(baseName, "")
	if baseName == "" {
		baseName = "file"
	}
	return fmt.Sprintf("%s_%s%s", baseName, now.Format("20060102_150405"), ext)
}

func (ls *LocalStorage) SaveFile(_ context.Context, filename string, src io.ReadSeeker) (string, error) {
	if _, err := imageContentType(filename, src); err != nil {
		return "", err
	}
	normalizedFilename := normalizeFilename(filename, ls.now())
	log.Debug().Str("original", filename).Str("normalized", normalizedFilename).Msg("File upload normalized")

	if err := os.MkdirAll(ls.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.Create(filepath.Join(ls.uploadDir, normalizedFilename))
	if err != nil {
		return "", fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return ls.urlPrefix + "/" + normalizedFilename, nil
}

func (ss *SpacesStorage) SaveFile(ctx context.Context, filename string, src io.ReadSeeker) (string, error) {
	contentType, err := imageContentType(filename, src)
	if err != nil {
		return "", err
	}
	normalizedFilename := normalizeFilename(filename, ss.now())
	log.Debug().Str("original", filename).Str("normalized", normalizedFilename).Msg("File upload normalized")

	key := fmt.Sprintf("route-maps/%s", normalizedFilename)
	_, err = ss.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(ss.bucket),
		Key:         aws.String(key),
		Body:        src,
		ContentType: aws.String(contentType),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to upload file to Spaces")
		return "", fmt.Errorf("failed to upload to Spaces: %w", err)
	}

	return fmt.Sprintf("%s/%s", strings.TrimSuffix(ss.cdnURL, "/"), key), nil
}

// route maps are raster images only. The extension picks the type and the leading bytes
// must agree with it; src is rewound afterwards.
func imageContentType(filename string, src io.ReadSeeker) (string, error) {
	var want string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		want = "image/jpeg"
	case ".png":
		want = "image/png"
	case ".gif":
		want = "image/gif"
	case ".webp":
		want = "image/webp"
	default:
		return "", ErrUnsupportedType
	}

	detected, err := mimetype.DetectReader(src)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to rewind upload: %w", err)
	}
	if !detected.Is(want) {
		log.Debug().Str("filename", filename).Str("detected", detected.String()).Msg("upload content does not match its extension")
		return "", ErrUnsupportedType
	}
	return want, nil
}
