package classify

import (
	"fmt"
	"strings"
)

type FileType string

const (
	MedicalReport FileType = "Medical_Report"
	WorkAdmin     FileType = "Work_Admin"
	WorkPTO       FileType = "Work_PTO"
	CPA           FileType = "CPA"
	Other         FileType = "Other"
)

// FileTypes lists every classification label in display order.
func FileTypes() []FileType {
	return []FileType{MedicalReport, WorkAdmin, WorkPTO, CPA, Other}
}

// IsValidFileType reports whether s is exactly one of the known labels.
func IsValidFileType(s string) bool {
	for _, ft := range FileTypes() {
		if string(ft) == s {
			return true
		}
	}
	return false
}

type FileClassification struct {
	FileName   string   `json:"file_name"`
	FileType   FileType `json:"file_type"`
	Confidence float64  `json:"confidence"`
	Keywords   []string `json:"keywords"`
	Summary    string   `json:"summary"`
}

// Validate checks every field; the first problem is returned wrapped in
// ErrInvalidClassification.
func (c FileClassification) Validate() error {
	switch {
	case strings.TrimSpace(c.FileName) == "":
		return fmt.Errorf("%w: file name must not be empty", ErrInvalidClassification)
	case !IsValidFileType(string(c.FileType)):
		return fmt.Errorf("%w: unknown file type %q", ErrInvalidClassification, c.FileType)
	case c.Confidence < 0 || c.Confidence > 1:
		return fmt.Errorf("%w: confidence %v outside [0, 1]", ErrInvalidClassification, c.Confidence)
	case len(c.Keywords) == 0:
		return fmt.Errorf("%w: keywords list must not be empty", ErrInvalidClassification)
	case strings.TrimSpace(c.Summary) == "":
		return fmt.Errorf("%w: summary must not be empty", ErrInvalidClassification)
	}
	return nil
}
