package domain

import "io"

// ProgressFailed marks an upload that did not complete.
const ProgressFailed = -1

type Attachment struct {
	FileName    string
	SizeBytes   int64
	MimeType    string
	URL         string // local preview URL until the upload is confirmed
	Progress    int
	ImageWidth  *int
	ImageHeight *int
}

func (a Attachment) Clone() Attachment {
	if a.ImageWidth != nil {
		w := *a.ImageWidth
		a.ImageWidth = &w
	}
	if a.ImageHeight != nil {
		h := *a.ImageHeight
		a.ImageHeight = &h
	}
	return a
}

type FileCommonMetadata struct {
	Filename    string
	SizeBytes   int64
	MimeType    string
	ImageWidth  *int
	ImageHeight *int
}

// PendingFile is a file chosen by the user that has not been uploaded yet.
type PendingFile struct {
	FileCommonMetadata
	Data io.Reader
}
