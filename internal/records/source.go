package records

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Source is a readable tabular source.
type Source interface {
	// Open returns a reader over the raw CSV bytes.
	Open(ctx context.Context) (io.ReadCloser, error)
	// Name identifies the source in errors and logs.
	Name() string
}

// S3Options configures access to S3-backed sources.
type S3Options struct {
	Region       string
	AWSAccessKey string
	AWSSecretKey string
}

// NewSource resolves a location into a Source. Locations of the form
// s3://bucket/key are read from S3, anything else is a local file path.
func NewSource(ctx context.Context, location string, opts S3Options) (Source, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, fmt.Errorf("source location is empty")
	}

	if !strings.HasPrefix(location, "s3://") {
		return FileSource{Path: location}, nil
	}

	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("invalid S3 location %q: %w", location, err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return nil, fmt.Errorf("invalid S3 location %q: bucket and key are required", location)
	}

	client, err := newS3Client(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &S3Source{client: client, Bucket: u.Host, Key: key}, nil
}

// FileSource reads a CSV file from the local filesystem.
type FileSource struct {
	Path string
}

// Open opens the file.
func (s FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	return os.Open(s.Path)
}

// Name returns the file path.
func (s FileSource) Name() string {
	return s.Path
}

// S3Source reads a CSV object from S3.
type S3Source struct {
	client *s3.Client
	Bucket string
	Key    string
}

// Open downloads the object body.
func (s *S3Source) Open(ctx context.Context) (io.ReadCloser, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}
	return result.Body, nil
}

// Name returns the s3:// location.
func (s *S3Source) Name() string {
	return "s3://" + s.Bucket + "/" + s.Key
}

func newS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if opts.AWSAccessKey != "" && opts.AWSSecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AWSAccessKey, opts.AWSSecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

// StaticSource serves CSV content held in memory.
type StaticSource struct {
	Label   string
	Content string
}

// Open returns a reader over the content.
func (s StaticSource) Open(_ context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(s.Content)), nil
}

// Name returns the label.
func (s StaticSource) Name() string {
	return s.Label
}
