package network

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/assetcrawler/import-services/constants"
	"github.com/assetcrawler/import-services/models/common"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// S3Provider lists an import directory stored under a prefix in an
// S3-compatible bucket.
type S3Provider struct {
	Bucket    string
	Host      string
	KeyID     string
	Region    string
	SecretKey string
	UseSSL    bool
}

func NewS3Provider(host, keyID, secretKey, bucket string, useSSL bool) *S3Provider {
	return &S3Provider{
		Bucket:    bucket,
		Host:      host,
		KeyID:     keyID,
		SecretKey: secretKey,
		UseSSL:    useSSL,
	}
}

func (p *S3Provider) Name() string {
	return constants.ListingProviderS3
}

// Connect creates a client and checks that the bucket is reachable
// with the configured credentials.
func (p *S3Provider) Connect(ctx context.Context) (StorageSession, error) {
	client, err := minio.New(
		p.Host,
		&minio.Options{
			Creds:  credentials.NewStaticV4(p.KeyID, p.SecretKey, ""),
			Region: p.Region,
			Secure: p.UseSSL,
		})
	if err != nil {
		return nil, common.NewListingError(p.Name(), p.Bucket, common.ListingErrorUnknown, err)
	}
	exists, err := client.BucketExists(ctx, p.Bucket)
	if err != nil {
		return nil, common.NewListingError(p.Name(), p.Bucket, ClassifyS3Error(err), err)
	}
	if !exists {
		return nil, common.NewListingError(p.Name(), p.Bucket, common.ListingErrorNotFound,
			fmt.Errorf("bucket %s does not exist", p.Bucket))
	}
	return &s3Session{client: client, bucket: p.Bucket}, nil
}

type s3Session struct {
	client *minio.Client
	bucket string
}

// List returns the names of the objects directly under dir. Keys that
// look like subdirectories are left out.
func (s *s3Session) List(ctx context.Context, dir string) ([]string, error) {
	prefix := strings.Trim(dir, "/")
	if prefix != "" {
		prefix = prefix + "/"
	}
	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	objectCh := s.client.ListObjects(
		listCtx,
		s.bucket,
		minio.ListObjectsOptions{
			Prefix:    prefix,
			Recursive: false,
		})
	names := make([]string, 0)
	for obj := range objectCh {
		if obj.Err != nil {
			return nil, common.NewListingError(constants.ListingProviderS3,
				s.bucket+"/"+prefix, ClassifyS3Error(obj.Err), obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, prefix)
		if name == "" || strings.HasSuffix(name, "/") {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func (s *s3Session) Close() error {
	return nil
}

// ClassifyS3Error maps an S3 error response onto a listing error kind.
func ClassifyS3Error(err error) common.ListingErrorKind {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return common.ListingErrorNetwork
	}
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken", "InvalidToken":
		return common.ListingErrorAuth
	case "NoSuchBucket", "NoSuchKey":
		return common.ListingErrorNotFound
	case "SlowDown", "RequestLimitExceeded", "TooManyRequests":
		return common.ListingErrorRateLimit
	case "QuotaExceeded", "XMinioAdminBucketQuotaExceeded", "ServiceQuotaExceeded":
		return common.ListingErrorQuota
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return common.ListingErrorAuth
	case http.StatusNotFound:
		return common.ListingErrorNotFound
	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		return common.ListingErrorRateLimit
	}
	return common.ListingErrorUnknown
}
