package domain

import "context"

// StoredFile is a blob held by a FileStore together with its content type.
type StoredFile struct {
	Key         string
	ContentType string
	Data        []byte
}

// FileStore abstracts write-once object storage addressed by path-like keys.
// The SQLite implementation stores BLOBs; an S3 or bucket backend can
// replace it without touching the services.
type FileStore interface {
	Save(ctx context.Context, file StoredFile) error
	Get(ctx context.Context, key string) (*StoredFile, error)
	Delete(ctx context.Context, key string) error
}
