package domain

import "time"

// ObjectState is the remote lifecycle state of an object. Transitions
// are forward-only: UPLOADING -> READ_ONLY -> DELETED.
type ObjectState string

const (
	ObjectStateUploading ObjectState = "UPLOADING"
	ObjectStateReadOnly  ObjectState = "READ_ONLY"
	ObjectStateDeleted   ObjectState = "DELETED"
)

// Object is a content-addressed file artifact stored by the platform.
// The CLI never caches object state across invocations; this struct
// only mirrors a single API response.
type Object struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	ContentType string      `json:"content_type,omitempty"`
	State       ObjectState `json:"state,omitempty"`
	SizeBytes   int64       `json:"size_bytes,omitempty"`
	Public      bool        `json:"is_public,omitempty"`
	CreatedAt   time.Time   `json:"created_at,omitempty"`

	// UploadURL is the presigned PUT URL, present only on create
	UploadURL string `json:"upload_url,omitempty"`
}

// ObjectList is a page of objects from the list endpoint
type ObjectList struct {
	Objects        []Object `json:"objects"`
	HasMore        bool     `json:"has_more"`
	TotalCount     int      `json:"total_count"`
	RemainingCount int      `json:"remaining_count"`
}

// ObjectDownloadURL carries a presigned GET URL for an object
type ObjectDownloadURL struct {
	DownloadURL string `json:"download_url"`
}
