package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

const (
	minBodyLength  = 20
	maxBodyLength  = 50000
	minTitleLength = 10
	maxTitleLength = 150
)

var policy = bluemonday.UGCPolicy()

// sanitizeBody strips unsafe markup from a rich-text body and checks its
// length after sanitising.
func sanitizeBody(raw string) (string, error) {
	clean := strings.TrimSpace(policy.Sanitize(raw))
	if n := utf8.RuneCountInString(clean); n < minBodyLength || n > maxBodyLength {
		return "", fmt.Errorf("%w: body must be %d to %d characters", ErrInvalidContent, minBodyLength, maxBodyLength)
	}
	return clean, nil
}

func sanitizeTitle(raw string) (string, error) {
	clean := strings.TrimSpace(bluemonday.StrictPolicy().Sanitize(raw))
	if n := utf8.RuneCountInString(clean); n < minTitleLength || n > maxTitleLength {
		return "", fmt.Errorf("%w: title must be %d to %d characters", ErrInvalidContent, minTitleLength, maxTitleLength)
	}
	return clean, nil
}
