package bot

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// MaxTitleLength is the longest title a user may track, in characters.
const MaxTitleLength = 200

var (
	errEmptyTitle   = errors.New("title cannot be empty")
	errLongTitle    = errors.New("title is too long")
	errCommandTitle = errors.New("title cannot start with /")
)

// ParseTitle validates a title typed by the user and trims surrounding
// whitespace. Case and inner spacing are kept so deletion can match the
// stored title exactly.
func ParseTitle(text string) (string, error) {
	title := strings.TrimSpace(text)
	switch {
	case title == "":
		return "", errEmptyTitle
	case strings.HasPrefix(title, "/"):
		return "", errCommandTitle
	case utf8.RuneCountInString(title) > MaxTitleLength:
		return "", errLongTitle
	}
	return title, nil
}
