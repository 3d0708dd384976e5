package out

import "context"

// DocumentStorePort abstracts blob storage for CV documents.
type DocumentStorePort interface {
	// Upload stores data under key and returns nothing; the key doubles
	// as the storage path recorded on the document row.
	Upload(ctx context.Context, key string, data []byte, contentType string) error
}
