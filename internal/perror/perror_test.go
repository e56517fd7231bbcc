package perror

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sxslang/sxs/internal/parser"
)

func TestFormatRendersSourceContextForParseError(t *testing.T) {
	src := "(+ 1 2"
	p := parser.NewFromString(src)
	_, err := p.ParseAll()
	require.Error(t, err)

	out := Format(err, src, "script.sxs")

	assert.True(t, strings.Contains(out, "script.sxs:1:"), out)
	assert.True(t, strings.Contains(out, src), out)
	assert.True(t, strings.Contains(out, "^"), out)
}

func TestFormatWithoutFileOmitsFileName(t *testing.T) {
	src := "(+ 1 2"
	p := parser.NewFromString(src)
	_, err := p.ParseAll()
	require.Error(t, err)

	out := Format(err, src, "")
	assert.False(t, strings.Contains(out, "script.sxs"), out)
	assert.True(t, strings.Contains(out, "1:"), out)
}

func TestFormatFallsBackToPlainErrorWhenUnlocated(t *testing.T) {
	err := errors.New("some opaque failure")
	out := Format(err, "irrelevant source", "file.sxs")
	assert.Equal(t, "some opaque failure", out)
}

func TestAsLocatedUnwrapsWrappedParseError(t *testing.T) {
	src := "(+ 1 2"
	p := parser.NewFromString(src)
	_, parseErr := p.ParseAll()
	require.Error(t, parseErr)

	loc, ok := AsLocated(fmt.Errorf("sxs: parse error: %w", parseErr))
	require.True(t, ok)
	line, col := loc.Position()
	assert.Equal(t, 1, line)
	assert.True(t, col > 0)
}
