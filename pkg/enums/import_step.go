package enums

import (
	"fmt"
	"strings"
)

// ImportStep tracks where an import session sits in its lifecycle.
type ImportStep string

const (
	ImportStepUpload    ImportStep = "upload"
	ImportStepMapping   ImportStep = "mapping"
	ImportStepPreview   ImportStep = "preview"
	ImportStepImporting ImportStep = "importing"
	ImportStepDone      ImportStep = "done"
)

var validImportSteps = []ImportStep{
	ImportStepUpload,
	ImportStepMapping,
	ImportStepPreview,
	ImportStepImporting,
	ImportStepDone,
}

// String implements fmt.Stringer.
func (s ImportStep) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s ImportStep) IsValid() bool {
	for _, candidate := range validImportSteps {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseImportStep converts raw input into an ImportStep.
func ParseImportStep(value string) (ImportStep, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validImportSteps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid import step %q", value)
}
