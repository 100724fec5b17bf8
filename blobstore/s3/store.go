package s3

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hupe1980/bitdex/blobstore"
)

// Client is the subset of the S3 API used by Store. *s3.Client satisfies it.
type Client interface {
	manager.UploadAPIClient
	s3.ListObjectsV2APIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Store implements blobstore.BlobStore for S3.
type Store struct {
	client   Client
	uploader *manager.Uploader
	bucket   string
	root     string
	cfg      UploadConfig
}

// Option configures a Store created by New.
type Option func(*storeOptions)

type storeOptions struct {
	prefix string
	region string
	upload UploadConfig
}

// WithPrefix sets the key prefix under which all blobs are stored.
func WithPrefix(prefix string) Option {
	return func(o *storeOptions) {
		o.prefix = prefix
	}
}

// WithRegion overrides the region from the default AWS configuration.
func WithRegion(region string) Option {
	return func(o *storeOptions) {
		o.region = region
	}
}

// WithUploadConfig overrides the default upload settings.
func WithUploadConfig(cfg UploadConfig) Option {
	return func(o *storeOptions) {
		o.upload = cfg
	}
}

// New creates a Store using the default AWS credential chain.
func New(ctx context.Context, bucket string, opts ...Option) (*Store, error) {
	o := storeOptions{upload: DefaultUploadConfig()}
	for _, opt := range opts {
		opt(&o)
	}

	var loadOpts []func(*config.LoadOptions) error
	if o.region != "" {
		loadOpts = append(loadOpts, config.WithRegion(o.region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	return NewStoreWithConfig(s3.NewFromConfig(awsCfg), bucket, o.prefix, o.upload), nil
}

// NewStore creates a new S3 blob store with the default upload settings.
// rootPrefix is prepended to all keys (e.g. "indexes/").
func NewStore(client Client, bucket, rootPrefix string) *Store {
	return NewStoreWithConfig(client, bucket, rootPrefix, DefaultUploadConfig())
}

// NewStoreWithConfig creates a new S3 blob store.
func NewStoreWithConfig(client Client, bucket, rootPrefix string, cfg UploadConfig) *Store {
	root := strings.Trim(rootPrefix, "/")
	if root != "" {
		root += "/"
	}
	return &Store{
		client:   client,
		uploader: newUploader(client, cfg),
		bucket:   bucket,
		root:     root,
		cfg:      cfg,
	}
}

func (s *Store) key(name string) (string, error) {
	if err := blobstore.ValidateName(name); err != nil {
		return "", err
	}
	return s.root + name, nil
}

// Open issues a HEAD request and returns a blob reading byte ranges.
func (s *Store) Open(ctx context.Context, name string) (blobstore.Blob, error) {
	key, err := s.key(name)
	if err != nil {
		return nil, err
	}

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, translateError(err)
	}

	return &s3Blob{
		client: s.client,
		bucket: s.bucket,
		key:    key,
		size:   aws.ToInt64(head.ContentLength),
	}, nil
}

// Put uploads a blob. Blobs up to the part size go through a single
// PutObject with a precomputed CRC32-C; larger ones use a multipart upload.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	key, err := s.key(name)
	if err != nil {
		return err
	}

	if int64(len(data)) <= s.cfg.PartSize {
		return putWithChecksum(ctx, s.client, s.bucket, key, data, s.cfg.EnableChecksum)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if s.cfg.EnableChecksum {
		input.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
	}
	_, err = s.uploader.Upload(ctx, input)
	return err
}

func (s *Store) Delete(ctx context.Context, name string) error {
	key, err := s.key(name)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !errors.Is(translateError(err), blobstore.ErrNotFound) {
		return err
	}
	return nil
}

// List pages through ListObjectsV2 and strips the root prefix.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.root + prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			name, ok := strings.CutPrefix(aws.ToString(obj.Key), s.root)
			if !ok || name == "" {
				continue
			}
			keys = append(keys, name)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

func translateError(err error) error {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return blobstore.ErrNotFound
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return blobstore.ErrNotFound
	}
	return err
}
