package shell

import (
	"strings"

	"github.com/shrimpsizemoose/gradebook/internal/apperr"
)

// Split breaks a command line into words. Double quotes group words and
// may be escaped inside a quoted word as \".
func Split(line string) ([]string, error) {
	var (
		args    []string
		current strings.Builder
		inQuote bool
		started bool
	)

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case inQuote && r == '\\' && i+1 < len(runes) && runes[i+1] == '"':
			current.WriteRune('"')
			i++
		case r == '"':
			inQuote = !inQuote
			started = true
		case !inQuote && (r == ' ' || r == '\t'):
			if started {
				args = append(args, current.String())
				current.Reset()
				started = false
			}
		default:
			current.WriteRune(r)
			started = true
		}
	}

	if inQuote {
		return nil, apperr.New(apperr.KindInvalidFormat, "unterminated quote in %q", line)
	}
	if started {
		args = append(args, current.String())
	}
	return args, nil
}
