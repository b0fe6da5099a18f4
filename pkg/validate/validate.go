// Package validate checks post frontmatter against the configured schema.
//
// Validation failure is ordinary data, not an error: Validate always returns
// a ValidationResult carrying every violation found in one pass, and the
// caller decides whether to reject the document.
package validate

import (
	"fmt"
	"strings"
	"time"

	"kotoba-press/pkg/config"
	"kotoba-press/pkg/models"
)

const dateLayout = "2006-01-02"

// Validator checks raw frontmatter records against a ValidationConfig.
// It holds no mutable state; a single Validator is safe for concurrent use.
type Validator struct {
	rules config.ValidationConfig
}

// New creates a Validator for the given schema rules.
func New(rules config.ValidationConfig) *Validator {
	return &Validator{rules: rules}
}

// Validate runs every check against the frontmatter record and collects all
// violations. Order is stable: required-field checks in configured order,
// then enum-domain checks, then shape checks. It never short-circuits.
func (v *Validator) Validate(fm map[string]any) models.ValidationResult {
	var errs []string

	// Required fields, in declaration order.
	for _, field := range v.rules.RequiredFields {
		if isEmpty(fm[field]) {
			errs = append(errs, fmt.Sprintf("missing required field: %s", field))
		}
	}

	// Closed enumerations. A field already reported as missing is not
	// re-reported here.
	errs = appendEnumError(errs, fm, "category", v.rules.AllowedCategories)
	errs = appendEnumError(errs, fm, "difficulty", v.rules.AllowedDifficulties)
	errs = appendEnumError(errs, fm, "locale", v.rules.AllowedLocales)

	// Shape checks.
	if !isEmpty(fm["tags"]) {
		errs = append(errs, checkTags(fm["tags"])...)
	}
	if val, ok := fm["readingTime"]; ok && !isEmpty(val) {
		if n, isInt := asInt(val); !isInt || n <= 0 {
			errs = append(errs, fmt.Sprintf("readingTime must be a positive integer, got %v", val))
		}
	}
	errs = appendDateError(errs, fm, "publishedAt")
	errs = appendDateError(errs, fm, "updatedAt")

	return models.ValidationResult{
		IsValid: len(errs) == 0,
		Errors:  errs,
	}
}

// appendEnumError checks a closed-enumeration field when it is present.
func appendEnumError(errs []string, fm map[string]any, field string, allowed []string) []string {
	val := fm[field]
	if isEmpty(val) {
		return errs
	}

	s, ok := val.(string)
	if !ok {
		return append(errs, fmt.Sprintf("%s must be a string, got %v", field, val))
	}
	for _, a := range allowed {
		if s == a {
			return errs
		}
	}
	return append(errs, fmt.Sprintf("invalid %s %q (allowed: %s)", field, s, strings.Join(allowed, ", ")))
}

// appendDateError checks a YYYY-MM-DD date field when it is present.
func appendDateError(errs []string, fm map[string]any, field string) []string {
	val := fm[field]
	if isEmpty(val) {
		return errs
	}

	s, ok := val.(string)
	if !ok {
		return append(errs, fmt.Sprintf("%s must be a YYYY-MM-DD date string, got %v", field, val))
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return append(errs, fmt.Sprintf("%s must be a valid YYYY-MM-DD date, got %q", field, s))
	}
	return errs
}

// checkTags validates that tags is a sequence of non-empty strings.
// Emptiness of the whole sequence is handled by the required-field check.
func checkTags(val any) []string {
	items, ok := asSlice(val)
	if !ok {
		return []string{fmt.Sprintf("tags must be a list of strings, got %v", val)}
	}

	for i, item := range items {
		s, isStr := item.(string)
		if !isStr {
			return []string{fmt.Sprintf("tags[%d] must be a string, got %v", i, item)}
		}
		if strings.TrimSpace(s) == "" {
			return []string{fmt.Sprintf("tags[%d] must not be empty", i)}
		}
	}
	return nil
}

// isEmpty reports whether a frontmatter value counts as absent: nil, a
// blank string, or an empty sequence. Numeric zero is NOT empty; the shape
// checks own numeric range reporting so each field yields one error.
func isEmpty(val any) bool {
	switch v := val.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	}
	return false
}

// asInt normalizes the integer types yaml.v3 may produce.
func asInt(val any) (int, bool) {
	switch n := val.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	}
	return 0, false
}

// asSlice normalizes sequence types: yaml.v3 decodes into []any, but
// callers constructing records in Go tend to pass []string.
func asSlice(val any) ([]any, bool) {
	switch s := val.(type) {
	case []any:
		return s, true
	case []string:
		items := make([]any, len(s))
		for i, v := range s {
			items[i] = v
		}
		return items, true
	}
	return nil, false
}
