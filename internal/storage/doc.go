// Package storage connects the sandbox to the R2 bucket that holds backups.
//
// Mounter is the capability the sync engine receives for making the bucket
// available at the mount path. S3FSMounter implements it with s3fs inside
// the sandbox. Bucket talks to the same bucket directly over the S3 API with
// minio-go, for credential preflight checks and for reading the sync marker
// without a mount.
package storage
