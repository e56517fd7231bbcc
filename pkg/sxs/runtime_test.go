package sxs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sxslang/sxs/internal/bus"
	"github.com/sxslang/sxs/internal/session"
)

func TestEvalLiteralIntegerRoundTrips(t *testing.T) {
	rt, err := New()
	require.NoError(t, err)
	defer rt.Close()

	out, err := rt.Eval("42")
	require.NoError(t, err)
	assert.Equal(t, "42", out)
}

func TestEvalDefPersistsAcrossCalls(t *testing.T) {
	rt, err := New()
	require.NoError(t, err)
	defer rt.Close()

	_, err = rt.Eval("(def x 7)")
	require.NoError(t, err)

	out, err := rt.Eval("x")
	require.NoError(t, err)
	assert.Equal(t, "7", out)
}

func TestEvalEmptySourceReturnsEmptyString(t *testing.T) {
	rt, err := New()
	require.NoError(t, err)
	defer rt.Close()

	out, err := rt.Eval("")
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestNewSessionGatesPublishByDefaultPermissions(t *testing.T) {
	rt, err := New()
	require.NoError(t, err)
	defer rt.Close()

	s, err := rt.NewSession("sess1", "user1")
	require.NoError(t, err)

	result := s.PublishEvent(bus.RuntimeExecutionRequest, 1, rt.builder.Int(1))
	assert.Equal(t, session.PermissionDenied, result)
}

func TestCloseIsIdempotentSafe(t *testing.T) {
	rt, err := New()
	require.NoError(t, err)
	require.NoError(t, rt.Close())
	require.NoError(t, rt.Close())
}
