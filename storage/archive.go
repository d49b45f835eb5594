package storage

import (
	"context"
	"io"
	"time"
)

type PutResult struct {
	Key      string `json:"key"`
	Location string `json:"location,omitempty"`
	ETag     string `json:"etag,omitempty"`
}

type ObjectInfo struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
	Location     string    `json:"location,omitempty"`
}

// Archive - объектное хранилище для выгрузок турнира.
type Archive interface {
	Put(ctx context.Context, key string, contentType string, reader io.Reader) (*PutResult, error)

	List(ctx context.Context, prefix string) ([]ObjectInfo, error)

	PublicURL(key string) string
}
