package resource

import (
	"context"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the part of the S3 client used for listing and ranged reads.
type S3API interface {
	s3.ListObjectsV2APIClient
	s3.HeadObjectAPIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Options configures the S3 client.
type S3Options struct {
	Region         string
	Endpoint       string
	ForcePathStyle bool
}

// NewS3Client builds an S3 client from the default AWS credential chain.
func NewS3Client(ctx context.Context, opts S3Options) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		if opts.ForcePathStyle {
			o.UsePathStyle = true
		}
	}), nil
}

// S3Directory lists the objects directly under a prefix. Deeper keys show
// up as non-file entries, the same way sub-directories do locally.
type S3Directory struct {
	client S3API
	bucket string
	prefix string
	logger *slog.Logger
}

func NewS3Directory(client S3API, bucket, prefix string, logger *slog.Logger) (*S3Directory, error) {
	if bucket == "" {
		return nil, fmt.Errorf("bucket name cannot be empty")
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &S3Directory{client: client, bucket: bucket, prefix: prefix, logger: logger}, nil
}

func (d *S3Directory) Name() string {
	if d.prefix == "" {
		return "s3://" + d.bucket
	}
	return "s3://" + d.bucket + "/" + strings.TrimSuffix(d.prefix, "/")
}

func (d *S3Directory) Entries(ctx context.Context) iter.Seq2[Entry, error] {
	return func(yield func(Entry, error) bool) {
		input := &s3.ListObjectsV2Input{
			Bucket:    aws.String(d.bucket),
			Delimiter: aws.String("/"),
		}
		if d.prefix != "" {
			input.Prefix = aws.String(d.prefix)
		}

		p := s3.NewListObjectsV2Paginator(d.client, input)
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				yield(nil, fmt.Errorf("failed to list s3://%s/%s: %w", d.bucket, d.prefix, err))
				return
			}
			d.logger.Debug("listed S3 page",
				"bucket", d.bucket,
				"prefix", d.prefix,
				"objects", len(page.Contents),
				"prefixes", len(page.CommonPrefixes))
			for _, cp := range page.CommonPrefixes {
				if !yield(&s3Entry{dir: d, key: aws.ToString(cp.Prefix)}, nil) {
					return
				}
			}
			for _, obj := range page.Contents {
				key := aws.ToString(obj.Key)
				if key == d.prefix || strings.HasSuffix(key, "/") {
					continue
				}
				if !yield(&s3Entry{dir: d, key: key, file: true}, nil) {
					return
				}
			}
		}
	}
}

type s3Entry struct {
	dir  *S3Directory
	key  string
	file bool
}

func (e *s3Entry) Name() string {
	return path.Base(e.key)
}

func (e *s3Entry) IsFile() bool {
	return e.file
}

func (e *s3Entry) Open(ctx context.Context) (Resource, error) {
	head, err := e.dir.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(e.dir.bucket),
		Key:    aws.String(e.key),
	})
	if err != nil {
		return nil, fmt.Errorf("HeadObject %s: %w", e.key, err)
	}
	return &s3Object{
		client:      e.dir.client,
		bucket:      e.dir.bucket,
		key:         e.key,
		size:        aws.ToInt64(head.ContentLength),
		contentType: aws.ToString(head.ContentType),
	}, nil
}

type s3Object struct {
	client      S3API
	bucket      string
	key         string
	size        int64
	contentType string
}

func (o *s3Object) Name() string        { return path.Base(o.key) }
func (o *s3Object) Size() int64         { return o.size }
func (o *s3Object) ContentType() string { return o.contentType }
func (o *s3Object) Close() error        { return nil }

func (o *s3Object) ReadRange(ctx context.Context, start, end int64) ([]byte, error) {
	start, end = clamp(start, end, o.size)
	if start == end {
		// S3 rejects an empty range
		return []byte{}, nil
	}

	result, err := o.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(o.bucket),
		Key:    aws.String(o.key),
		Range:  aws.String(fmt.Sprintf("bytes=%d-%d", start, end-1)),
	})
	if err != nil {
		return nil, fmt.Errorf("GetObject %s: %w", o.key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return data, nil
}
