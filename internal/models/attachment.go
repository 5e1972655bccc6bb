package models

// FileKind identifies the format of an uploaded file.
type FileKind string

const (
	FileKindUnknown FileKind = ""
	FileKindPDF     FileKind = "pdf"
	FileKindDoc     FileKind = "doc"
	FileKindDocx    FileKind = "docx"
	FileKindHTML    FileKind = "html"
)

// Supported reports whether text can be extracted from this kind.
func (k FileKind) Supported() bool {
	switch k {
	case FileKindPDF, FileKindDoc, FileKindDocx, FileKindHTML:
		return true
	}
	return false
}

// Attachment references an uploaded file. Content is filled lazily by the
// platform adapter when it is not delivered inline.
type Attachment struct {
	FileID   string   `json:"file_id,omitempty"`
	Name     string   `json:"name"`
	MimeType string   `json:"mime_type,omitempty"`
	Kind     FileKind `json:"kind"`
	Size     int64    `json:"size,omitempty"`
	Content  []byte   `json:"-"`
}
