// Package media abstracts the external media host that stores avatar and
// cover images. The service layer sees only the Storage interface; the S3
// implementation (s3.go) talks to any S3-compatible endpoint, MinIO
// included.
package media

import "context"

// Storage is the media-host contract.
//
// Upload reads a staged local file and stores it remotely, returning the
// public URL to persist on the account. Delete removes a previously
// uploaded object given its public URL; deleting an unknown URL is not an
// error. Neither call touches the local file's lifecycle; the caller owns
// staging and cleanup.
type Storage interface {
	Upload(ctx context.Context, localPath string) (url string, err error)
	Delete(ctx context.Context, url string) error
}
