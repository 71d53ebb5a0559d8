package id

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatLocator returns a source reference like "jan.pdf:p3:l12".
// A zero page or line is omitted.
func FormatLocator(document string, page, line int) string {
	var b strings.Builder
	b.WriteString(document)
	if page > 0 {
		fmt.Fprintf(&b, ":p%d", page)
	}
	if line > 0 {
		fmt.Fprintf(&b, ":l%d", line)
	}
	return b.String()
}

// ParseLocator parses "jan.pdf:p3:l12" into its parts.
// Colons inside the document name are preserved.
func ParseLocator(loc string) (document string, page, line int, err error) {
	if loc == "" {
		return "", 0, 0, fmt.Errorf("empty locator")
	}
	document = loc
	for range 2 {
		i := strings.LastIndex(document, ":")
		if i < 0 {
			break
		}
		suffix := document[i+1:]
		if len(suffix) < 2 {
			break
		}
		n, convErr := strconv.Atoi(suffix[1:])
		if convErr != nil {
			break
		}
		switch suffix[0] {
		case 'l':
			if line != 0 || page != 0 {
				return "", 0, 0, fmt.Errorf("invalid locator %q", loc)
			}
			line = n
		case 'p':
			if page != 0 {
				return "", 0, 0, fmt.Errorf("invalid locator %q", loc)
			}
			page = n
		default:
			return document, page, line, nil
		}
		document = document[:i]
	}
	if document == "" {
		return "", 0, 0, fmt.Errorf("invalid locator %q: missing document", loc)
	}
	return document, page, line, nil
}

// TransactionID returns the stable identity of a statement line.
func TransactionID(document string, page, line int) string {
	return FormatLocator(document, page, line)
}
