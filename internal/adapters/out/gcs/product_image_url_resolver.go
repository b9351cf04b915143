// internal/adapters/out/gcs/product_image_url_resolver.go
package gcs

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	iamcredentials "google.golang.org/api/iamcredentials/v1"

	gcscommon "brihaspati/internal/adapters/out/gcs/common"
)

// DefaultSignedURLExpiry is how long a signed product image URL stays valid.
const DefaultSignedURLExpiry = 15 * time.Minute

// signBlobFunc signs payload as the service account accessID.
type signBlobFunc func(ctx context.Context, accessID string, payload []byte) ([]byte, error)

// ProductImageURLResolver implements product.ImageURLResolver.
//
// ref can be:
//   - http(s)://... outside GCS (returned as-is)
//   - gs://bucket/object or https://storage.googleapis.com/... (parsed)
//   - objectPath (object in Bucket; returned as-is when Bucket is empty,
//     which is how site-relative asset paths pass through)
//
// With a signer configured the URL is a V4 signed GET URL; otherwise, or
// when signing fails, it is the public URL.
type ProductImageURLResolver struct {
	Bucket      string
	SignerEmail string
	Expiry      time.Duration

	sign signBlobFunc
	now  func() time.Time
	log  *zap.Logger
}

// NewProductImageURLResolver builds a resolver. Signing is enabled when
// signerEmail is set and the IAM credentials client can be created.
func NewProductImageURLResolver(ctx context.Context, bucket, signerEmail string, log *zap.Logger) *ProductImageURLResolver {
	if log == nil {
		log = zap.NewNop()
	}
	r := &ProductImageURLResolver{
		Bucket:      strings.TrimSpace(bucket),
		SignerEmail: strings.TrimSpace(signerEmail),
		Expiry:      DefaultSignedURLExpiry,
		now:         time.Now,
		log:         log.Named("product_image"),
	}
	if r.SignerEmail == "" {
		return r
	}

	svc, err := iamcredentials.NewService(ctx)
	if err != nil {
		r.log.Warn("iamcredentials init failed; serving public image URLs", zap.Error(err))
		return r
	}
	r.sign = func(ctx context.Context, accessID string, payload []byte) ([]byte, error) {
		name := fmt.Sprintf("projects/-/serviceAccounts/%s", accessID)
		resp, err := svc.Projects.ServiceAccounts.SignBlob(name, &iamcredentials.SignBlobRequest{
			Payload: base64.StdEncoding.EncodeToString(payload),
		}).Context(ctx).Do()
		if err != nil {
			return nil, err
		}
		return base64.StdEncoding.DecodeString(resp.SignedBlob)
	}
	return r
}

func (r *ProductImageURLResolver) Resolve(ctx context.Context, ref string) string {
	p := strings.TrimSpace(ref)
	if p == "" || r == nil {
		return p
	}

	bucket, obj, ok := gcscommon.ParseGCSURL(p)
	if !ok {
		if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
			return p
		}
		if r.Bucket == "" {
			return p
		}
		bucket, obj = r.Bucket, strings.TrimLeft(p, "/")
	}

	if r.sign != nil {
		u, err := r.signedURL(ctx, bucket, obj)
		if err == nil {
			return u
		}
		r.log.Warn("failed to sign image URL; using public URL",
			zap.String("bucket", bucket), zap.String("object", obj), zap.Error(err))
	}
	return gcscommon.GCSPublicURL(bucket, obj, r.Bucket)
}

func (r *ProductImageURLResolver) signedURL(ctx context.Context, bucket, obj string) (string, error) {
	expiry := r.Expiry
	if expiry <= 0 {
		expiry = DefaultSignedURLExpiry
	}
	if expiry > time.Hour {
		expiry = time.Hour
	}
	return storage.SignedURL(bucket, obj, &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		GoogleAccessID: r.SignerEmail,
		SignBytes: func(b []byte) ([]byte, error) {
			return r.sign(ctx, r.SignerEmail, b)
		},
		Expires: r.now().UTC().Add(expiry),
	})
}
