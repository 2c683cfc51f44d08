package aws

import (
	"context"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// PresignedUpload is what a client needs to PUT an object directly to S3.
type PresignedUpload struct {
	URL       string            `json:"url"`
	Method    string            `json:"method"`
	Headers   map[string]string `json:"headers"`
	ObjectURL string            `json:"objectUrl"`
	ExpiresAt time.Time         `json:"expiresAt"`
}

// S3Presigner issues presigned PUT URLs for a single bucket.
type S3Presigner struct {
	presigner *s3.PresignClient
	bucket    string
	region    string
}

func NewS3Presigner(cfg sdkaws.Config, bucket string) *S3Presigner {
	return &S3Presigner{
		presigner: s3.NewPresignClient(s3.NewFromConfig(cfg)),
		bucket:    bucket,
		region:    cfg.Region,
	}
}

// PresignPut returns a URL valid for expiry that accepts a PUT of key with
// the given content type.
func (p *S3Presigner) PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (*PresignedUpload, error) {
	input := &s3.PutObjectInput{
		Bucket: sdkaws.String(p.bucket),
		Key:    sdkaws.String(key),
	}
	if contentType != "" {
		input.ContentType = sdkaws.String(contentType)
	}

	presigned, err := p.presigner.PresignPutObject(ctx, input, func(o *s3.PresignOptions) {
		o.Expires = expiry
	})
	if err != nil {
		return nil, fmt.Errorf("failed to presign put object: %w", err)
	}

	headers := make(map[string]string)
	for k, v := range presigned.SignedHeader {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	return &PresignedUpload{
		URL:       presigned.URL,
		Method:    presigned.Method,
		Headers:   headers,
		ObjectURL: fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.bucket, p.region, key),
		ExpiresAt: time.Now().Add(expiry),
	}, nil
}
