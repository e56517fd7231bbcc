package importer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sxslang/sxs/internal/check"
	"github.com/sxslang/sxs/internal/eval"
	"github.com/sxslang/sxs/internal/value"
)

func testFactory(ctx *check.Context, b *value.Builder) *eval.Evaluator {
	return eval.New(ctx, b)
}

func TestImportExportsBindings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mathutil.sxs")
	require.NoError(t, os.WriteFile(path, []byte(`(export answer 42)`), 0o644))

	b := value.NewBuilder()
	ctx := check.NewContext()
	m := NewManager(ctx, b, testFactory, dir)

	exports, err := m.Import("mathutil.sxs")
	require.NoError(t, err)
	require.Contains(t, exports, "answer")
	i, ok := exports["answer"].AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(42), i)
}

func TestImportIsCachedAfterFirstLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "once.sxs")
	require.NoError(t, os.WriteFile(path, []byte(`(export v 1)`), 0o644))

	b := value.NewBuilder()
	ctx := check.NewContext()
	m := NewManager(ctx, b, testFactory, dir)

	first, err := m.Import("once.sxs")
	require.NoError(t, err)
	second, err := m.Import("once.sxs")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestImportUnresolvedPathFails(t *testing.T) {
	b := value.NewBuilder()
	ctx := check.NewContext()
	m := NewManager(ctx, b, testFactory, t.TempDir())

	_, err := m.Import("nope.sxs")
	require.Error(t, err)
}
