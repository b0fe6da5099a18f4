package utils

import (
	"errors"
	"os"
	"strings"
)

// --- Sentinel Errors for Categorization ---
var (
	ErrFrontmatterParse = errors.New("frontmatter parse error")        // Wraps YAML errors from the frontmatter block
	ErrFrontmatterShape = errors.New("frontmatter missing or unclosed") // Document has no parseable frontmatter block
	ErrPostValidation   = errors.New("post validation failed")          // Post rejected by the frontmatter validator
	ErrDuplicateSlug    = errors.New("duplicate post slug")
	ErrDanglingRelated  = errors.New("related post slug does not exist")
	ErrParsing          = errors.New("parsing error")    // Wraps markdown/HTML/YAML parsing errors outside frontmatter
	ErrFilesystem       = errors.New("filesystem error") // Wraps os errors
	ErrDatabase         = errors.New("database error")   // Wraps badger errors
	ErrHTMLImport       = errors.New("HTML import failed")
	ErrConfigValidation = errors.New("configuration validation error")
)

// CategorizeError maps an error to a predefined category string for logging
// and for the error_type field of state database entries.
func CategorizeError(err error) string {
	if err == nil {
		return "None"
	}

	switch {
	case errors.Is(err, ErrFrontmatterParse):
		return "Frontmatter_Parse"
	case errors.Is(err, ErrFrontmatterShape):
		return "Frontmatter_Shape"
	case errors.Is(err, ErrPostValidation):
		return "Validation_Rejected"
	case errors.Is(err, ErrDuplicateSlug):
		return "Validation_DuplicateSlug"
	case errors.Is(err, ErrDanglingRelated):
		return "Validation_DanglingRelated"
	case errors.Is(err, ErrParsing):
		errMsg := err.Error()
		if strings.Contains(errMsg, "HTML") {
			return "Content_ParsingHTML"
		}
		if strings.Contains(errMsg, "YAML") {
			return "Content_ParsingYAML"
		}
		return "Content_ParsingOther"
	case errors.Is(err, ErrHTMLImport):
		return "Import_HTML"
	case errors.Is(err, ErrFilesystem):
		if errors.Is(err, os.ErrPermission) {
			return "Filesystem_Permission"
		}
		if errors.Is(err, os.ErrNotExist) {
			return "Filesystem_NotExist"
		}
		if errors.Is(err, os.ErrExist) {
			return "Filesystem_Exist"
		}
		return "Filesystem_Other"
	case errors.Is(err, ErrDatabase):
		return "Database_Other"
	case errors.Is(err, ErrConfigValidation):
		return "Config_Validation"
	}

	return "Unknown"
}
