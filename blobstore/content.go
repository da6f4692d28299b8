package blobstore

import "path"

// Content types attached to uploaded artifacts.
const (
	ContentTypeJSON   = "application/json"
	ContentTypeText   = "text/plain; charset=utf-8"
	ContentTypeBinary = "application/octet-stream"
)

// ContentType picks the media type for an artifact from its extension.
// Index blobs and npy arrays are opaque binary.
func ContentType(name string) string {
	switch path.Ext(name) {
	case ".json":
		return ContentTypeJSON
	case ".txt", ".yaml", ".yml":
		return ContentTypeText
	default:
		return ContentTypeBinary
	}
}

// JoinKey joins an object-store prefix and a blob name.
// An empty prefix leaves the name unchanged.
func JoinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}
