package abi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sxslang/sxs/internal/value"
)

func TestTableConstructorsShareStore(t *testing.T) {
	b := value.NewBuilder()
	tbl := NewTable(b, func(v value.Value) (value.Value, error) { return v, nil }, SystemInfo{WorkingDirectory: "/tmp"})

	n := tbl.CreateInt(7)
	i, ok := tbl.AsInt(n)
	require.True(t, ok)
	assert.Equal(t, int64(7), i)

	lst := tbl.CreateParenList(tbl.CreateInt(1), tbl.CreateInt(2))
	assert.Equal(t, 2, tbl.ListSize(lst))
	item, ok := tbl.ListAt(lst, 1)
	require.True(t, ok)
	v, _ := tbl.AsInt(item)
	assert.Equal(t, int64(2), v)
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	b := value.NewBuilder()
	tbl := NewTable(b, nil, SystemInfo{})
	err := tbl.RegisterFunction("add", func(args []value.Value) (value.Value, error) {
		a, _ := args[0].AsInt()
		bb, _ := args[1].AsInt()
		return b.Int(a + bb), nil
	}, value.TagInteger, false)
	require.NoError(t, err)

	reg, ok := tbl.Registry.Lookup("add")
	require.True(t, ok)
	result, err := reg.Fn([]value.Value{b.Int(2), b.Int(3)})
	require.NoError(t, err)
	sum, _ := result.AsInt()
	assert.Equal(t, int64(5), sum)
}

func TestGetSystemInfo(t *testing.T) {
	b := value.NewBuilder()
	tbl := NewTable(b, nil, SystemInfo{WorkingDirectory: "/srv"})
	assert.Equal(t, "/srv", tbl.GetSystemInfo().WorkingDirectory)
}
