package models

// PostStatus represents the build status of a post in the state database
type PostStatus string

const (
	PostStatusUnset    PostStatus = ""          // Zero value = unset/unknown
	PostStatusSuccess  PostStatus = "success"   // Post validated and processed successfully
	PostStatusFailure  PostStatus = "failure"   // Post rejected or processing failed
	PostStatusNotFound PostStatus = "not_found" // Post not in database
	PostStatusDBError  PostStatus = "db_error"  // Database error occurred
)

// String implements fmt.Stringer for logging
func (s PostStatus) String() string {
	if s == "" {
		return "unset"
	}
	return string(s)
}

// IsValid returns true if the status is a known operational value
func (s PostStatus) IsValid() bool {
	switch s {
	case PostStatusSuccess, PostStatusFailure:
		return true
	}
	return false
}
