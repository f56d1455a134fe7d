package shortcut

import (
	"strings"
)

// Normalize collapses the inline and block forms of a shortcut invocation into a single query.
// A non-blank block wins and is used verbatim, otherwise the trimmed inline text is used.
func Normalize(inline string, block string) (string, error) {
	if strings.TrimSpace(block) != "" {
		return block, nil
	}

	query := strings.TrimSpace(inline)
	if query == "" {
		return "", ErrEmptyQuery
	}

	return query, nil
}
