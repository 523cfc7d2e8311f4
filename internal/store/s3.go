package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"timecapsule/internal/capsule"
	"timecapsule/internal/config"
)

// S3Store persists envelopes as JSON objects in an S3 bucket, one object per
// record under a configured key prefix. Explicit locations are raw object
// keys and bypass the prefix.
type S3Store struct {
	client     *s3.Client
	uploader   *manager.Uploader
	downloader *manager.Downloader
	bucket     string
	prefix     string
	idgen      capsule.IDGenerator
	logger     capsule.Logger
}

var _ capsule.Store = (*S3Store)(nil)

// NewS3Store creates a store backed by the configured bucket. Static
// credentials and a custom endpoint (e.g. MinIO) are optional; without them
// the SDK's default chain is used.
func NewS3Store(cfg config.StorageConfig, idgen capsule.IDGenerator, logger capsule.Logger) (*S3Store, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 store requires s3_bucket to be set")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	prefix := cfg.S3Prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	return &S3Store{
		client:     client,
		uploader:   manager.NewUploader(client),
		downloader: manager.NewDownloader(client),
		bucket:     cfg.S3Bucket,
		prefix:     prefix,
		idgen:      idgen,
		logger:     logger,
	}, nil
}

func (s *S3Store) Save(env *capsule.Envelope) (capsule.ID, error) {
	id, err := capsule.ParseID(s.idgen.New())
	if err != nil {
		return "", fmt.Errorf("minting identifier: %w", err)
	}
	key := s.recordKey(id)

	// Refuse to clobber an existing record for a colliding identifier.
	_, err = s.client.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return "", fmt.Errorf("record already exists for identifier %s", id)
	}
	var notFound *types.NotFound
	if !errors.As(err, &notFound) {
		return "", fmt.Errorf("checking for existing record %s: %w", key, err)
	}

	if err := s.putRecord(env, key); err != nil {
		return "", err
	}
	return id, nil
}

func (s *S3Store) SaveTo(env *capsule.Envelope, location string) error {
	if location == "" {
		return fmt.Errorf("empty location")
	}
	return s.putRecord(env, location)
}

func (s *S3Store) Load(id capsule.ID) (*capsule.Envelope, error) {
	return s.getRecord(s.recordKey(id))
}

func (s *S3Store) LoadFrom(location string) (*capsule.Envelope, error) {
	return s.getRecord(location)
}

// List enumerates all record objects under the prefix. Objects that fail to
// download or parse are skipped with a warning.
func (s *S3Store) List() (map[capsule.ID]*capsule.Envelope, error) {
	out := make(map[capsule.ID]*capsule.Envelope)

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(context.Background())
		if err != nil {
			return nil, fmt.Errorf("listing bucket %s: %w", s.bucket, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			name := strings.TrimPrefix(key, s.prefix)
			if !strings.HasSuffix(name, recordExt) {
				continue
			}
			id, err := capsule.ParseID(strings.TrimSuffix(name, recordExt))
			if err != nil {
				s.logger.Warn("skipping object with invalid record name", "key", key, "error", err)
				continue
			}
			env, err := s.getRecord(key)
			if err != nil {
				s.logger.Warn("skipping unreadable record", "id", id, "error", err)
				continue
			}
			out[id] = env
		}
	}
	return out, nil
}

func (s *S3Store) recordKey(id capsule.ID) string {
	return s.prefix + id.String() + recordExt
}

func (s *S3Store) putRecord(env *capsule.Envelope, key string) error {
	data, err := marshalEnvelope(env)
	if err != nil {
		return err
	}
	_, err = s.uploader.Upload(context.Background(), &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("uploading record %s: %w", key, err)
	}
	return nil
}

func (s *S3Store) getRecord(key string) (*capsule.Envelope, error) {
	buf := manager.NewWriteAtBuffer(nil)
	_, err := s.downloader.Download(context.Background(), buf, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%s: %w", key, capsule.ErrNotFound)
		}
		return nil, fmt.Errorf("downloading record %s: %w", key, err)
	}
	return unmarshalEnvelope(buf.Bytes(), key)
}
