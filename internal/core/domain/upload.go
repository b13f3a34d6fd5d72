package domain

// UploadType is chosen by the service when a direct upload is initiated.
type UploadType string

const (
	UploadTypeSingle    UploadType = "single"
	UploadTypeMultipart UploadType = "multipart"
)

// UploadPart is a presigned target for one 1-based part of the payload.
type UploadPart struct {
	PartNumber int    `json:"partNumber"`
	URL        string `json:"url"`
}

// UploadedPart is a part accepted by storage, identified by its ETag.
type UploadedPart struct {
	PartNumber int    `json:"partNumber"`
	ETag       string `json:"etag"`
}

// UploadSession is the service's answer to an initiate-upload call.
type UploadSession struct {
	JobID      string       `json:"jobId"`
	UploadType UploadType   `json:"uploadType"`
	Parts      []UploadPart `json:"parts"`
}

// ValidationResult is produced before any network activity.
type ValidationResult struct {
	Valid bool
	Error string
}
