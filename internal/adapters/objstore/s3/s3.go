// Package s3 implements objstore.Store on aws-sdk-go-v2
package s3

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"

	"nhldata/internal/adapters/objstore"
	perr "nhldata/internal/platform/errors"
	"nhldata/internal/platform/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	smithyhttp "github.com/aws/smithy-go/transport/http"
)

// API is the slice of *s3.Client the store calls
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Config selects the bucket and endpoint
// credentials always come from the default provider chain
type Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	PathStyle bool
}

// Store writes objects into one bucket
type Store struct {
	api    API
	bucket string
	log    logger.Logger
}

// New builds an S3 client with the SDK retryer disabled
// retries belong to the caller so one policy governs every write
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, perr.InvalidArgf("s3: bucket required")
	}
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRetryer(func() aws.Retryer { return aws.NopRetryer{} }),
	}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "s3: load aws config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			// S3 compatible servers often reject streamed checksum trailers
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
			o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
		}
	})
	return NewWithAPI(client, cfg.Bucket), nil
}

// NewWithAPI wraps an existing client
func NewWithAPI(api API, bucket string) *Store {
	return &Store{api: api, bucket: bucket, log: *logger.Named("s3")}
}

// Bucket returns the target bucket
func (s *Store) Bucket() string { return s.bucket }

// Put writes body at key; IfAbsent sends If-None-Match: *
func (s *Store) Put(ctx context.Context, key string, body []byte, o objstore.PutOptions) error {
	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(o.ContentTypeOr()),
	}
	if o.IfAbsent {
		in.IfNoneMatch = aws.String("*")
	}
	if _, err := s.api.PutObject(ctx, in); err != nil {
		e := &objstore.Error{Kind: classify(err), Key: key, Op: "put", Err: err}
		s.log.Debug().Str("bucket", s.bucket).Str("key", key).Str("kind", e.Kind.String()).Err(err).Msg("put failed")
		return e
	}
	return nil
}

// Probe checks the bucket exists and the credentials can reach it
func (s *Store) Probe(ctx context.Context) error {
	if _, err := s.api.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return &objstore.Error{Kind: classify(err), Key: s.bucket, Op: "head_bucket", Err: err}
	}
	return nil
}

var authCodes = map[string]bool{
	"AccessDenied": true, "InvalidAccessKeyId": true, "SignatureDoesNotMatch": true,
	"ExpiredToken": true, "InvalidToken": true, "AuthorizationHeaderMalformed": true,
	"Forbidden": true,
}

var transientCodes = map[string]bool{
	"SlowDown": true, "RequestTimeout": true, "InternalError": true,
	"ServiceUnavailable": true, "Throttling": true, "ThrottlingException": true,
}

var missingCodes = map[string]bool{"NoSuchBucket": true, "NotFound": true}

var conflictCodes = map[string]bool{"PreconditionFailed": true, "ConditionalRequestConflict": true}

// classify maps SDK errors onto objstore kinds
// api error codes win over bare status codes
func classify(err error) objstore.Kind {
	if errors.Is(err, context.Canceled) {
		return objstore.Unknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return objstore.Transient
	}

	var api smithy.APIError
	if errors.As(err, &api) {
		code := api.ErrorCode()
		switch {
		case authCodes[code]:
			return objstore.AuthFailure
		case missingCodes[code]:
			return objstore.BucketNotFound
		case conflictCodes[code]:
			return objstore.Conflict
		case transientCodes[code]:
			return objstore.Transient
		}
	}

	var status interface{ HTTPStatusCode() int }
	if errors.As(err, &status) {
		switch sc := status.HTTPStatusCode(); {
		case sc == 401 || sc == 403:
			return objstore.AuthFailure
		case sc == 404:
			return objstore.BucketNotFound
		case sc == 409 || sc == 412:
			return objstore.Conflict
		case sc == 408 || sc == 429 || sc >= 500:
			return objstore.Transient
		case sc > 0:
			return objstore.Unknown
		}
	}

	var send *smithyhttp.RequestSendError
	if errors.As(err, &send) {
		return objstore.Transient
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return objstore.Transient
	}
	if strings.Contains(strings.ToLower(err.Error()), "connection reset") {
		return objstore.Transient
	}
	return objstore.Unknown
}
