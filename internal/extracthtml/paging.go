package extracthtml

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// PagePlaceholder is the substitution token page templates must contain,
// e.g. "https://shop.example/list?resultsPerPage=200&page={page}".
const PagePlaceholder = "{page}"

var reDigitGroups = regexp.MustCompile(`\d+`)

// ExpandPageURL substitutes page into a listing URL template.
func ExpandPageURL(template string, page int) string {
	return strings.ReplaceAll(template, PagePlaceholder, strconv.Itoa(page))
}

// ValidatePageTemplate rejects templates without the page placeholder. This
// is a configuration error: without the placeholder every page fetch would
// hit the same URL.
func ValidatePageTemplate(template string) error {
	if !strings.Contains(template, PagePlaceholder) {
		return fmt.Errorf("base url %q does not contain %s", template, PagePlaceholder)
	}
	return nil
}

// ParseCount extracts an integer count from text such as "(1 096 results)"
// by joining digit groups into "1096". It returns ok=false when the text
// contains no digits.
func ParseCount(s string) (count int, ok bool, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}

	parts := reDigitGroups.FindAllString(s, -1)
	if len(parts) == 0 {
		return 0, false, nil
	}

	n, convErr := strconv.Atoi(strings.Join(parts, ""))
	if convErr != nil {
		return 0, false, convErr
	}
	return n, true, nil
}

// TotalPages converts a result count into a page count, rounding up.
// Non-positive inputs yield zero pages.
func TotalPages(count, perPage int) int {
	if count <= 0 || perPage <= 0 {
		return 0
	}
	return (count + perPage - 1) / perPage
}
