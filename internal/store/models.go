// Package store persists the project/image-descriptor catalog with gorm,
// backed by SQLite.
package store

import "time"

// ProjectStatus is a project's lifecycle stage: created on upload, advancing
// monotonically except that Error is terminal.
type ProjectStatus string

const (
	StatusUploaded   ProjectStatus = "uploaded"
	StatusExtracting ProjectStatus = "extracting"
	StatusExtracted  ProjectStatus = "extracted"
	StatusProcessing ProjectStatus = "processing"
	StatusDone       ProjectStatus = "done"
	StatusError      ProjectStatus = "error"
)

// ImageStatus tracks one descriptor's progress through alt-text generation.
type ImageStatus string

const (
	ImagePending    ImageStatus = "pending"
	ImageProcessing ImageStatus = "processing"
	ImageDone       ImageStatus = "done"
	ImageError      ImageStatus = "error"
)

// Konfidenz is the model's self-reported confidence, or the parser's default.
type Konfidenz string

const (
	KonfidenzHoch     Konfidenz = "hoch"
	KonfidenzMittel   Konfidenz = "mittel"
	KonfidenzNiedrig  Konfidenz = "niedrig"
)

// Project is one uploaded PDF and its processing state.
type Project struct {
	ID             uint   `gorm:"primaryKey"`
	OwnerID        string `gorm:"index;not null"`
	SourceFilename string `gorm:"not null"`
	SourcePath     string `gorm:"not null"`
	Status         ProjectStatus `gorm:"not null;default:uploaded"`
	TotalImages    int
	ProcessedImages int
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ImageDescriptor is one discovered image, raster or vector-synthesized.
// Xref is the identity key used by the tagged writer: a real PDF
// cross-reference for raster images, or an opaque counter >= 900000 for
// vector clusters that have no backing PDF object.
type ImageDescriptor struct {
	ID             uint `gorm:"primaryKey"`
	ProjectID      uint `gorm:"index;not null"`
	PageNumber     int  `gorm:"not null"`
	ImageIndex     int  `gorm:"not null"`
	ImagePath      string `gorm:"not null"`
	Ext            string
	Width          int
	Height         int
	Xref           int `gorm:"index;not null"`
	ContextText    string
	ImageType      string
	AltText        string
	AltTextEdited  *string
	Konfidenz      Konfidenz
	Status         ImageStatus `gorm:"not null;default:pending"`
	RawResponse    string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FinalAltText returns the alt-text that should be exported: the edited
// override wins when present, and the "dekorativ" sentinel exports as empty.
func (d ImageDescriptor) FinalAltText() string {
	text := d.AltText
	if d.AltTextEdited != nil {
		text = *d.AltTextEdited
	}
	if text == "dekorativ" {
		return ""
	}
	return text
}
