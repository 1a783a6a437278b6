// Package assets fetches and decodes the images referenced by a
// customization: environment skies and face images. References may be local
// paths, file://, http(s)://, s3://bucket/key or data: URLs.
package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	_ "golang.org/x/image/webp"
)

var (
	ErrUnsupportedScheme = errors.New("unsupported asset scheme")
	ErrNoObjectStore     = errors.New("no object store configured")
)

// DefaultMaxBytes caps a single asset download.
const DefaultMaxBytes = 64 << 20

// ObjectStore is the part of the S3 client the loader needs.
type ObjectStore interface {
	GetObjectWithContext(ctx aws.Context, input *s3.GetObjectInput, opts ...request.Option) (*s3.GetObjectOutput, error)
}

type Options struct {
	HTTPClient *http.Client
	// Store serves s3:// references. Nil makes them fail with ErrNoObjectStore.
	Store ObjectStore
	// BaseDir resolves relative paths.
	BaseDir  string
	MaxBytes int64
	Logger   *slog.Logger
}

type Loader struct {
	http     *http.Client
	store    ObjectStore
	baseDir  string
	maxBytes int64
	logger   *slog.Logger
}

func NewLoader(opts Options) *Loader {
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Loader{
		http:     opts.HTTPClient,
		store:    opts.Store,
		baseDir:  opts.BaseDir,
		maxBytes: opts.MaxBytes,
		logger:   opts.Logger,
	}
}

// S3Config holds the object storage connection settings.
type S3Config struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// NewS3Client builds an S3 client. Empty keys fall back to the default AWS
// credential chain; a custom endpoint switches to path-style addressing.
func NewS3Client(cfg S3Config) (*s3.S3, error) {
	awsCfg := &aws.Config{Region: aws.String(cfg.Region)}
	if cfg.AccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKey, cfg.SecretKey, "")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("s3 session: %w", err)
	}
	return s3.New(sess), nil
}

// Load fetches and decodes the image at ref.
func (l *Loader) Load(ctx context.Context, ref string) (image.Image, error) {
	data, err := l.Fetch(ctx, ref)
	if err != nil {
		return nil, err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", redact(ref), err)
	}
	l.logger.Debug("asset loaded", "ref", redact(ref), "format", format,
		"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	return img, nil
}

// Fetch returns the raw bytes at ref.
func (l *Loader) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if strings.HasPrefix(ref, "data:") {
		data, err := decodeDataURL(ref)
		if err != nil {
			return nil, err
		}
		return l.readLimited(bytes.NewReader(data))
	}
	u, err := url.Parse(ref)
	if err != nil {
		return nil, fmt.Errorf("parse asset ref: %w", err)
	}
	switch u.Scheme {
	case "", "file":
		return l.readFile(u.Path)
	case "http", "https":
		return l.fetchHTTP(ctx, u.String())
	case "s3":
		return l.fetchS3(ctx, u.Host, strings.TrimPrefix(u.Path, "/"))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}

func (l *Loader) readFile(path string) ([]byte, error) {
	if !filepath.IsAbs(path) && l.baseDir != "" {
		path = filepath.Join(l.baseDir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open asset: %w", err)
	}
	defer f.Close()
	return l.readLimited(f)
}

func (l *Loader) fetchHTTP(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := l.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch asset: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch asset: %s", resp.Status)
	}
	return l.readLimited(resp.Body)
}

func (l *Loader) fetchS3(ctx context.Context, bucket, key string) ([]byte, error) {
	if l.store == nil {
		return nil, ErrNoObjectStore
	}
	out, err := l.store.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()
	return l.readLimited(out.Body)
}

func (l *Loader) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read asset: %w", err)
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("asset larger than %d bytes", l.maxBytes)
	}
	return data, nil
}

// decodeDataURL handles base64 data URLs, the form generated images arrive in.
func decodeDataURL(ref string) ([]byte, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, errors.New("malformed data url")
	}
	if !strings.HasSuffix(meta, ";base64") {
		return []byte(payload), nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("data url: %w", err)
	}
	return data, nil
}

// redact keeps data URLs out of logs.
func redact(ref string) string {
	if strings.HasPrefix(ref, "data:") {
		meta, _, _ := strings.Cut(ref, ",")
		return meta + ",…"
	}
	return ref
}
