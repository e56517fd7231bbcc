// Package perror renders sxs errors with source context for humans:
// a file:line:column header, the offending source line, and a caret
// under the exact column the lexer or parser had reached.
package perror

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sxslang/sxs/internal/parser"
)

// Located is satisfied by any error that can report a 1-indexed line
// and column, letting Format render source context for it regardless
// of concrete type (parser.ParseError today; future checker or
// kernel-manifest errors can satisfy it the same way).
type Located interface {
	error
	Position() (line, column int)
}

// Format renders err with source context when it (or something it
// wraps) implements Located; otherwise it falls back to err.Error().
// file is used only for the header and may be empty.
func Format(err error, source, file string) string {
	loc, ok := AsLocated(err)
	if !ok {
		return err.Error()
	}

	line, column := loc.Position()

	var sb strings.Builder
	if file != "" {
		sb.WriteString(fmt.Sprintf("%s:%d:%d: ", file, line, column))
	} else {
		sb.WriteString(fmt.Sprintf("%d:%d: ", line, column))
	}
	sb.WriteString(loc.Error())
	sb.WriteString("\n")

	if src := sourceLine(source, line); src != "" {
		lineNumStr := fmt.Sprintf("%4d | ", line)
		sb.WriteString(lineNumStr)
		sb.WriteString(src)
		sb.WriteString("\n")
		if column > 0 {
			sb.WriteString(strings.Repeat(" ", len(lineNumStr)+column-1))
			sb.WriteString("^\n")
		}
	}

	return sb.String()
}

func sourceLine(source string, line int) string {
	if source == "" || line < 1 {
		return ""
	}
	lines := strings.Split(source, "\n")
	if line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// parseErrorLocated adapts parser.ParseError to Located.
type parseErrorLocated struct{ *parser.ParseError }

func (p parseErrorLocated) Position() (int, int) { return p.Line, p.Column }

// AsLocated finds a Located error in err's chain. A *parser.ParseError,
// which carries Line/Column fields but no Position method, is adapted
// to Located.
func AsLocated(err error) (Located, bool) {
	var l Located
	if errors.As(err, &l) {
		return l, true
	}
	var pe *parser.ParseError
	if errors.As(err, &pe) {
		return parseErrorLocated{pe}, true
	}
	return nil, false
}
