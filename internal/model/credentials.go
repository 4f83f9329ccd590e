package model

import (
	"fmt"
	"strings"
)

// DefaultBucket is the R2 bucket used when none is configured.
const DefaultBucket = "moltbot-data"

// Credentials holds the R2 access credentials needed to mount the bucket.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
	AccountID       string
	Bucket          string
}

// Complete returns true if all three required fields are set.
func (c Credentials) Complete() bool {
	return c.AccessKeyID != "" && c.SecretAccessKey != "" && c.AccountID != ""
}

// Missing returns the names of the required fields that are empty.
func (c Credentials) Missing() []string {
	var missing []string
	if c.AccessKeyID == "" {
		missing = append(missing, "access key id")
	}
	if c.SecretAccessKey == "" {
		missing = append(missing, "secret access key")
	}
	if c.AccountID == "" {
		missing = append(missing, "account id")
	}
	return missing
}

// BucketName returns the configured bucket or DefaultBucket.
func (c Credentials) BucketName() string {
	if c.Bucket == "" {
		return DefaultBucket
	}
	return c.Bucket
}

// Endpoint returns the R2 S3-compatible endpoint host for the account.
func (c Credentials) Endpoint() string {
	return c.AccountID + ".r2.cloudflarestorage.com"
}

// String masks the secret so credentials can be printed safely.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{AccessKeyID: %s, SecretAccessKey: %s, AccountID: %s, Bucket: %s}",
		c.AccessKeyID, Mask(c.SecretAccessKey), c.AccountID, c.BucketName())
}

// Mask hides all but the last four characters of a secret.
func Mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-4) + s[len(s)-4:]
}
