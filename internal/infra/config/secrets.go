// internal/infra/config/secrets.go
package config

import (
	"context"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// SecretPrefix marks a value to be read from Secret Manager.
const SecretPrefix = "sm://"

// SecretResolver returns the payload of a secret.
type SecretResolver interface {
	Access(ctx context.Context, ref string) (string, error)
}

// ResolveSecrets replaces every sm:// value of the secret-bearing fields.
// Values without the prefix are left alone.
func (c *Config) ResolveSecrets(ctx context.Context, r SecretResolver) error {
	fields := []*string{
		&c.FirebaseAPIKey,
		&c.OAuthClientSecret,
		&c.SendGridAPIKey,
		&c.DatabaseURL,
	}
	for _, f := range fields {
		ref, ok := strings.CutPrefix(strings.TrimSpace(*f), SecretPrefix)
		if !ok {
			continue
		}
		if r == nil {
			return fmt.Errorf("config: %s%s needs Secret Manager", SecretPrefix, ref)
		}
		v, err := r.Access(ctx, ref)
		if err != nil {
			return fmt.Errorf("config: resolve %s%s: %w", SecretPrefix, ref, err)
		}
		*f = strings.TrimSpace(v)
	}
	return nil
}

// HasSecretRefs reports whether any field still needs ResolveSecrets.
func (c *Config) HasSecretRefs() bool {
	for _, v := range []string{c.FirebaseAPIKey, c.OAuthClientSecret, c.SendGridAPIKey, c.DatabaseURL} {
		if strings.HasPrefix(strings.TrimSpace(v), SecretPrefix) {
			return true
		}
	}
	return false
}

// SecretManagerResolver reads secrets of ProjectID. A ref is either a secret
// id (latest version) or a full "projects/.../versions/..." name.
type SecretManagerResolver struct {
	Client    *secretmanager.Client
	ProjectID string
}

func (r *SecretManagerResolver) Access(ctx context.Context, ref string) (string, error) {
	if r == nil || r.Client == nil {
		return "", fmt.Errorf("config: secretmanager client is nil")
	}
	res, err := r.Client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: r.versionName(ref),
	})
	if err != nil {
		return "", err
	}
	return string(res.GetPayload().GetData()), nil
}

func (r *SecretManagerResolver) versionName(ref string) string {
	ref = strings.Trim(strings.TrimSpace(ref), "/")
	if strings.HasPrefix(ref, "projects/") {
		if !strings.Contains(ref, "/versions/") {
			return ref + "/versions/latest"
		}
		return ref
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", r.ProjectID, ref)
}
