package port

import "context"

// ObjectStorage abstracts the object store holding uploaded document bytes.
// Uploads are handled by the external upload service; this core only reads.
type ObjectStorage interface {
	Download(ctx context.Context, bucket, key string) ([]byte, error)
}
