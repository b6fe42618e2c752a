package records

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSource_LocalPath(t *testing.T) {
	src, err := NewSource(context.Background(), " data/nurses.csv ", S3Options{})
	require.NoError(t, err)

	fs, ok := src.(FileSource)
	require.True(t, ok)
	assert.Equal(t, "data/nurses.csv", fs.Path)
	assert.Equal(t, "data/nurses.csv", src.Name())
}

func TestNewSource_Empty(t *testing.T) {
	_, err := NewSource(context.Background(), "   ", S3Options{})
	assert.Error(t, err)
}

func TestNewSource_S3MissingKey(t *testing.T) {
	_, err := NewSource(context.Background(), "s3://bucket-only", S3Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket and key are required")
}

func TestNewSource_S3(t *testing.T) {
	src, err := NewSource(context.Background(), "s3://roster-bucket/exports/nurses.csv", S3Options{
		Region:       "us-west-2",
		AWSAccessKey: "AKIDEXAMPLE",
		AWSSecretKey: "secret",
	})
	require.NoError(t, err)

	s3src, ok := src.(*S3Source)
	require.True(t, ok)
	assert.Equal(t, "roster-bucket", s3src.Bucket)
	assert.Equal(t, "exports/nurses.csv", s3src.Key)
	assert.Equal(t, "s3://roster-bucket/exports/nurses.csv", src.Name())
}

func TestStaticSource(t *testing.T) {
	src := StaticSource{Label: "inline", Content: "a,b\n"}
	rc, err := src.Open(context.Background())
	require.NoError(t, err)
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))
	assert.Equal(t, "inline", src.Name())
}
