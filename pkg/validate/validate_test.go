package validate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kotoba-press/pkg/config"
)

func testRules() config.ValidationConfig {
	return config.ValidationConfig{
		RequiredFields:      config.DefaultRequiredFields(),
		AllowedCategories:   []string{"hiragana", "katakana", "kanji", "vocabulary", "grammar", "culture"},
		AllowedDifficulties: []string{"beginner", "intermediate", "advanced"},
		AllowedLocales:      []string{"en", "ja"},
	}
}

func validFrontmatter() map[string]any {
	return map[string]any{
		"title":       "A",
		"description": "B",
		"slug":        "a",
		"publishedAt": "2024-01-05",
		"author":      "C",
		"category":    "kanji",
		"tags":        []any{"x"},
		"readingTime": 5,
		"locale":      "en",
	}
}

func TestValidate_ValidPost(t *testing.T) {
	v := New(testRules())

	result := v.Validate(validFrontmatter())

	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}

func TestValidate_MissingFieldReportedOnce(t *testing.T) {
	v := New(testRules())

	for _, field := range config.DefaultRequiredFields() {
		t.Run(field, func(t *testing.T) {
			fm := validFrontmatter()
			delete(fm, field)

			result := v.Validate(fm)
			require.False(t, result.IsValid)

			mentions := 0
			for _, e := range result.Errors {
				if strings.Contains(e, field) {
					mentions++
				}
			}
			assert.Equal(t, 1, mentions, "field %s should be reported exactly once, errors: %v", field, result.Errors)
		})
	}
}

func TestValidate_EmptyStringCountsAsMissing(t *testing.T) {
	v := New(testRules())
	fm := validFrontmatter()
	fm["title"] = "   "

	result := v.Validate(fm)

	assert.False(t, result.IsValid)
	assert.Contains(t, result.Errors, "missing required field: title")
}

func TestValidate_InvalidCategory(t *testing.T) {
	v := New(testRules())
	fm := validFrontmatter()
	fm["category"] = "alchemy"

	result := v.Validate(fm)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "category")
	assert.Contains(t, result.Errors[0], "alchemy")
}

func TestValidate_InvalidLocale(t *testing.T) {
	v := New(testRules())
	fm := validFrontmatter()
	fm["locale"] = "de"

	result := v.Validate(fm)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "locale")
	assert.Contains(t, result.Errors[0], "de")
}

func TestValidate_DifficultyOptionalButChecked(t *testing.T) {
	v := New(testRules())

	fm := validFrontmatter()
	result := v.Validate(fm)
	assert.True(t, result.IsValid, "absent difficulty is fine")

	fm["difficulty"] = "intermediate"
	result = v.Validate(fm)
	assert.True(t, result.IsValid, "allowed difficulty is fine")

	fm["difficulty"] = "impossible"
	result = v.Validate(fm)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "difficulty")
	assert.Contains(t, result.Errors[0], "impossible")
}

func TestValidate_TagsShape(t *testing.T) {
	v := New(testRules())

	tests := []struct {
		name    string
		tags    any
		wantErr string
	}{
		{"empty list is missing", []any{}, "missing required field: tags"},
		{"non-list", "writing", "tags must be a list"},
		{"non-string element", []any{"x", 7}, "tags[1] must be a string"},
		{"blank element", []any{"x", "  "}, "tags[1] must not be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm := validFrontmatter()
			fm["tags"] = tt.tags

			result := v.Validate(fm)
			require.Len(t, result.Errors, 1)
			assert.Contains(t, result.Errors[0], tt.wantErr)
		})
	}
}

func TestValidate_TagsAsStringSlice(t *testing.T) {
	v := New(testRules())
	fm := validFrontmatter()
	fm["tags"] = []string{"writing", "basics"}

	result := v.Validate(fm)
	assert.True(t, result.IsValid)
}

func TestValidate_ReadingTime(t *testing.T) {
	v := New(testRules())

	tests := []struct {
		name  string
		value any
		valid bool
	}{
		{"positive int", 5, true},
		{"int64", int64(12), true},
		{"zero", 0, false},
		{"negative", -3, false},
		{"float", 2.5, false},
		{"string", "5", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm := validFrontmatter()
			fm["readingTime"] = tt.value

			result := v.Validate(fm)
			if tt.valid {
				assert.True(t, result.IsValid, "errors: %v", result.Errors)
			} else {
				require.Len(t, result.Errors, 1)
				assert.Contains(t, result.Errors[0], "readingTime")
			}
		})
	}
}

func TestValidate_Dates(t *testing.T) {
	v := New(testRules())

	tests := []struct {
		name  string
		value string
		valid bool
	}{
		{"well-formed", "2024-01-05", true},
		{"leap day", "2024-02-29", true},
		{"impossible day", "2023-02-29", false},
		{"wrong format", "05/01/2024", false},
		{"not a date", "yesterday", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm := validFrontmatter()
			fm["publishedAt"] = tt.value

			result := v.Validate(fm)
			assert.Equal(t, tt.valid, result.IsValid, "errors: %v", result.Errors)
		})
	}
}

func TestValidate_UpdatedAtOptionalButChecked(t *testing.T) {
	v := New(testRules())
	fm := validFrontmatter()

	assert.True(t, v.Validate(fm).IsValid)

	fm["updatedAt"] = "2024-06-01"
	assert.True(t, v.Validate(fm).IsValid)

	fm["updatedAt"] = "June 1st"
	result := v.Validate(fm)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "updatedAt")
}

func TestValidate_AllViolationsCollected(t *testing.T) {
	v := New(testRules())

	result := v.Validate(map[string]any{
		"category":    "alchemy",
		"locale":      "en",
		"tags":        []any{"x", 9},
		"readingTime": -1,
		"publishedAt": "not-a-date",
	})

	assert.False(t, result.IsValid)
	// Missing: title, description, slug, author. Invalid: category enum,
	// tags element, readingTime, publishedAt.
	assert.Len(t, result.Errors, 8)

	// Required-field errors come first, in declaration order.
	assert.Equal(t, "missing required field: title", result.Errors[0])
	assert.Equal(t, "missing required field: description", result.Errors[1])
	assert.Equal(t, "missing required field: slug", result.Errors[2])
	assert.Equal(t, "missing required field: author", result.Errors[3])
}

func TestValidate_SyntheticRules(t *testing.T) {
	v := New(config.ValidationConfig{
		RequiredFields:    []string{"title", "category"},
		AllowedCategories: []string{"one", "two"},
		AllowedLocales:    []string{"xx"},
	})

	result := v.Validate(map[string]any{"title": "T", "category": "two"})
	assert.True(t, result.IsValid)

	result = v.Validate(map[string]any{"title": "T", "category": "three"})
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], `invalid category "three"`)
}

func TestValidate_EmptyRecord(t *testing.T) {
	v := New(testRules())

	result := v.Validate(map[string]any{})

	assert.False(t, result.IsValid)
	assert.Len(t, result.Errors, len(config.DefaultRequiredFields()))
}
