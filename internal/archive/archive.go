// Package archive writes finished profiles to S3-compatible object storage.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/oklog/ulid/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/profile-cli/internal/config"
	"github.com/sells-group/profile-cli/internal/model"
)

// Archiver stores a copy of a finished profile and returns its object key.
type Archiver interface {
	Archive(ctx context.Context, runID string, p *model.CompanyProfile) (string, error)
}

// Putter is the subset of *s3.Client the archive uses.
type Putter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Document is the archived object body.
type Document struct {
	RunID      string                `json:"run_id"`
	URL        string                `json:"url"`
	ArchivedAt time.Time             `json:"archived_at"`
	Profile    *model.CompanyProfile `json:"profile"`
}

// S3Archive writes profiles as JSON objects under profiles/<host>/<ulid>.json.
type S3Archive struct {
	client Putter
	bucket string
	now    func() time.Time
}

// NewS3Archive creates an S3Archive over an existing client.
func NewS3Archive(client Putter, bucket string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket, now: time.Now}
}

// New returns nil, nil when no bucket is configured.
func New(ctx context.Context, cfg config.ArchiveConfig) (*S3Archive, error) {
	if cfg.Bucket == "" {
		return nil, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(regionOrDefault(cfg.Region))}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "archive: load aws config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	zap.L().Info("archive: s3 enabled",
		zap.String("bucket", cfg.Bucket),
		zap.String("endpoint", cfg.Endpoint),
	)
	return NewS3Archive(client, cfg.Bucket), nil
}

// Archive uploads p and returns the object key.
func (a *S3Archive) Archive(ctx context.Context, runID string, p *model.CompanyProfile) (string, error) {
	if p == nil {
		return "", eris.New("archive: nil profile")
	}
	now := a.now().UTC()
	key := Key(p.WebsiteLink, ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()))

	body, err := json.Marshal(Document{RunID: runID, URL: p.WebsiteLink, ArchivedAt: now, Profile: p})
	if err != nil {
		return "", eris.Wrap(err, "archive: marshal profile")
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata:    map[string]string{"run-id": runID},
	})
	if err != nil {
		return "", eris.Wrapf(err, "archive: put %s", key)
	}
	return key, nil
}

// Key returns the object key for a profile of websiteURL.
func Key(websiteURL string, id ulid.ULID) string {
	return "profiles/" + hostOf(websiteURL) + "/" + id.String() + ".json"
}

func hostOf(websiteURL string) string {
	raw := strings.TrimSpace(websiteURL)
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}

func regionOrDefault(r string) string {
	if r == "" {
		return "us-east-1"
	}
	return r
}
