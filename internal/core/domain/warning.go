package domain

import "fmt"

// WarningCode classifies a non-fatal condition.
type WarningCode string

// Warning codes.
const (
	WarnSchemaMismatch WarningCode = "schema_mismatch"
	WarnRegionNotFound WarningCode = "region_not_found"
	WarnBlockDropped   WarningCode = "block_dropped"
	WarnImageUnmatched WarningCode = "image_unmatched"
)

// Warning is a structured non-fatal condition attached to a stage run.
type Warning struct {
	Code      WarningCode `json:"code"`
	Stage     string      `json:"stage"`
	Message   string      `json:"message"`
	ElementID int         `json:"element_id"`
}

// NewWarning builds a warning with no element reference.
func NewWarning(code WarningCode, stage, format string, args ...any) Warning {
	return Warning{
		Code:      code,
		Stage:     stage,
		Message:   fmt.Sprintf(format, args...),
		ElementID: -1,
	}
}

func (w Warning) String() string {
	return fmt.Sprintf("[%s] %s", w.Code, w.Message)
}
