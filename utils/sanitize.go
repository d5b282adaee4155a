package utils

import "github.com/microcosm-cc/bluemonday"

var sanitizer = bluemonday.UGCPolicy()

// Sanitize cleans HTML in building descriptions to prevent XSS on the map popups.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
