package domain

import (
	"path/filepath"
	"strings"
)

// ContentType is the upload content type accepted by the objects API.
type ContentType string

const (
	ContentTypeUnspecified ContentType = "unspecified"
	ContentTypeText        ContentType = "text"
	ContentTypeBinary      ContentType = "binary"
	ContentTypeGzip        ContentType = "gzip"
	ContentTypeTar         ContentType = "tar"
	ContentTypeTgz         ContentType = "tgz"
)

// textExtensions are the single-suffix extensions classified as text.
var textExtensions = map[string]bool{
	".txt":  true,
	".html": true,
	".css":  true,
	".js":   true,
	".yaml": true,
	".csv":  true,
	".md":   true,
	".json": true,
	".xml":  true,
}

// ClassifyForUpload maps a local filename to an upload content type.
// Multi-part suffixes are checked before single suffixes so that
// gzip-compressed tarballs never classify as plain gzip. Unknown
// extensions (including .zip and .zst) resolve to unspecified.
func ClassifyForUpload(path string) ContentType {
	name := strings.ToLower(filepath.Base(path))

	// .tar.gz and .tgz before .gz
	if strings.HasSuffix(name, ".tar.gz") || strings.HasSuffix(name, ".tgz") {
		return ContentTypeTgz
	}
	if strings.HasSuffix(name, ".gz") {
		return ContentTypeGzip
	}
	if strings.HasSuffix(name, ".tar") {
		return ContentTypeTar
	}
	if textExtensions[filepath.Ext(name)] {
		return ContentTypeText
	}
	return ContentTypeUnspecified
}

// ParseContentType normalizes a user-supplied content type override.
// Values outside the accepted set normalize to unspecified rather
// than being rejected.
func ParseContentType(s string) ContentType {
	switch ContentType(strings.ToLower(strings.TrimSpace(s))) {
	case ContentTypeText:
		return ContentTypeText
	case ContentTypeBinary:
		return ContentTypeBinary
	case ContentTypeGzip:
		return ContentTypeGzip
	case ContentTypeTar:
		return ContentTypeTar
	case ContentTypeTgz:
		return ContentTypeTgz
	case ContentTypeUnspecified:
		return ContentTypeUnspecified
	default:
		return ContentTypeUnspecified
	}
}

// PreferredExtension returns the extension to use when naming a
// downloaded temp file whose object name lacks a usable one. It
// accepts both enum values and the legacy MIME-type forms still
// returned for older objects. Unknown types return "".
func PreferredExtension(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "text", "text/plain":
		return ".txt"
	case "gzip", "application/gzip", "application/x-gzip":
		return ".gz"
	case "tar", "application/x-tar":
		return ".tar"
	case "tgz", "application/x-gtar", "application/tar+gzip":
		return ".tar.gz"
	case "application/zip":
		return ".zip"
	default:
		return ""
	}
}
