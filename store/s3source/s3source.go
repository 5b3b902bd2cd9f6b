/*
Package s3source reads fiscal calendar rows from CSV or JSON objects in S3.

SOURCE IDS:
  A source id is an object key relative to the configured prefix, e.g.
  "retail/fy2025.csv" under prefix "calendars/". The file extension picks
  the parser (see factory.ParseFile).

DISCOVERY:
  Objects are discoverable when their user metadata "description" holds
  the marker:

    aws s3 cp fy2025.csv s3://bucket/calendars/retail/fy2025.csv \
      --metadata description="Retail calendar [FISCAL_CALENDAR_SOURCE]"

  The first directory below the prefix is reported as the collection.
*/
package s3source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/warp/fiscal-calendar/factory"
	"github.com/warp/fiscal-calendar/fiscal"
	"github.com/warp/fiscal-calendar/source"
)

// MetadataDescription is the user metadata key searched for the marker.
const MetadataDescription = "description"

// API is the subset of the S3 client used here.
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Config locates the bucket.
type Config struct {
	Profile string
	Region  string
	Bucket  string
	Prefix  string
}

var _ source.Backend = (*Source)(nil)

// Source implements source.Backend over a bucket.
type Source struct {
	client  API
	bucket  string
	prefix  string
	factory *factory.RowFactory
}

// New creates a source over an existing client.
func New(client API, bucket, prefix string) *Source {
	return &Source{client: client, bucket: bucket, prefix: prefix, factory: factory.NewRowFactory()}
}

// NewFromConfig loads AWS configuration and creates an S3-backed source.
func NewFromConfig(ctx context.Context, cfg Config) (*Source, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 source: bucket is required")
	}
	opts := []func(*config.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	if cfg.Profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(cfg.Profile))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for S3 client: %w", err)
	}
	return New(s3.NewFromConfig(awsCfg), cfg.Bucket, cfg.Prefix), nil
}

// FetchRows downloads and parses the object for sourceID.
func (s *Source) FetchRows(ctx context.Context, sourceID string) ([]fiscal.Row, error) {
	key := s.prefix + sourceID
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: s3://%s/%s", source.ErrSourceNotFound, s.bucket, key)
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", s.bucket, key, err)
	}
	return s.factory.ParseFile(key, data)
}

// SearchSources lists CSV and JSON objects under the prefix whose
// description metadata contains marker, case-insensitively.
func (s *Source) SearchSources(ctx context.Context, marker string) ([]source.SourceInfo, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	needle := strings.ToLower(marker)
	var found []source.SourceInfo
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", s.bucket, s.prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !isRowFile(key) {
				continue
			}
			head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
				Bucket: aws.String(s.bucket),
				Key:    aws.String(key),
			})
			if err != nil {
				if isNotFound(err) {
					continue
				}
				return nil, fmt.Errorf("head s3://%s/%s: %w", s.bucket, key, err)
			}
			description := head.Metadata[MetadataDescription]
			if !strings.Contains(strings.ToLower(description), needle) {
				continue
			}

			id := strings.TrimPrefix(key, s.prefix)
			info := source.SourceInfo{
				ID:          id,
				Name:        path.Base(id),
				Description: description,
				Collection:  collectionOf(id),
			}
			if obj.LastModified != nil {
				info.CreatedAt = *obj.LastModified
			}
			found = append(found, info)
		}
	}
	return found, nil
}

func isRowFile(key string) bool {
	switch strings.ToLower(path.Ext(key)) {
	case ".csv", ".json":
		return true
	}
	return false
}

func collectionOf(id string) string {
	if i := strings.Index(id, "/"); i > 0 {
		return id[:i]
	}
	return ""
}

func isNotFound(err error) bool {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noKey) || errors.As(err, &notFound)
}
