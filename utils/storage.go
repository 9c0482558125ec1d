package utils

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/polgen/storebackend/config"
)

var ErrStorageNotConfigured = errors.New("object storage is not configured")

// ImageStore keeps product images and hands back their public URLs.
type ImageStore interface {
	Upload(ctx context.Context, prefix string, files []*multipart.FileHeader) ([]string, error)
	Delete(ctx context.Context, urls []string) error
}

type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// R2Client stores objects in a Cloudflare R2 (S3-compatible) bucket.
type R2Client struct {
	s3           s3API
	bucket       string
	publicDomain string
}

func NewR2Client(ctx context.Context, cfg config.StorageConfig) (*R2Client, error) {
	if !cfg.Enabled() {
		return nil, ErrStorageNotConfigured
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("r2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true // required for R2
	})
	return &R2Client{s3: client, bucket: cfg.Bucket, publicDomain: cfg.PublicDomain}, nil
}

// Upload stores files under products/<prefix>/. If any upload fails, the
// objects already written are removed before the error is returned.
func (r *R2Client) Upload(ctx context.Context, prefix string, files []*multipart.FileHeader) ([]string, error) {
	urls := make([]string, 0, len(files))

	for _, fh := range files {
		url, err := r.put(ctx, prefix, fh)
		if err != nil {
			_ = r.Delete(ctx, urls)
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}

func (r *R2Client) put(ctx context.Context, prefix string, fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if ext == "" {
		ext = ".bin"
	}
	objectName := fmt.Sprintf("products/%s/%d-%s%s", prefix, time.Now().UTC().Unix(), uuid.NewString(), ext)

	ct := mime.TypeByExtension(ext)
	if ct == "" {
		ct = fh.Header.Get("Content-Type")
	}
	if ct == "" {
		ct = "application/octet-stream"
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	_, err = r.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(r.bucket),
		Key:           aws.String(objectName),
		Body:          f,
		ContentType:   aws.String(ct),
		ContentLength: aws.Int64(fh.Size),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", fh.Filename, err)
	}
	return r.publicURL(objectName), nil
}

// Delete removes the objects behind urls, skipping URLs this bucket does
// not serve. The first failure is returned after all deletes are tried.
func (r *R2Client) Delete(ctx context.Context, urls []string) error {
	var firstErr error
	for _, u := range urls {
		obj, err := r.objectName(u)
		if err != nil {
			continue
		}
		_, err = r.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(r.bucket),
			Key:    aws.String(obj),
		})
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("delete %s: %w", obj, err)
		}
	}
	return firstErr
}

func (r *R2Client) publicURL(objectName string) string {
	return fmt.Sprintf("%s/%s/%s", r.publicDomain, r.bucket, objectName)
}

func (r *R2Client) objectName(url string) (string, error) {
	prefix := r.publicDomain + "/" + r.bucket + "/"
	if !strings.HasPrefix(url, prefix) || len(url) == len(prefix) {
		return "", fmt.Errorf("not an object url of bucket %s", r.bucket)
	}
	return strings.TrimPrefix(url, prefix), nil
}
