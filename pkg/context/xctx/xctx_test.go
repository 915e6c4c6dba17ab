package xctx_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xpoolsrv/pkg/context/xctx"
)

func TestWith_NilContext(t *testing.T) {
	//nolint:staticcheck // 故意传入 nil context
	var nilCtx context.Context

	_, err := xctx.WithRequestID(nilCtx, "r")
	assert.ErrorIs(t, err, xctx.ErrNilContext)
	_, err = xctx.WithConnID(nilCtx, 1)
	assert.ErrorIs(t, err, xctx.ErrNilContext)
	_, err = xctx.WithRemoteAddr(nilCtx, "127.0.0.1:1")
	assert.ErrorIs(t, err, xctx.ErrNilContext)
	_, _, err = xctx.EnsureRequestID(nilCtx)
	assert.ErrorIs(t, err, xctx.ErrNilContext)

	assert.Empty(t, xctx.RequestID(nilCtx))
	assert.Empty(t, xctx.RemoteAddr(nilCtx))
	_, ok := xctx.ConnID(nilCtx)
	assert.False(t, ok)
	assert.Nil(t, xctx.AppendAttrs(nil, nilCtx))
}

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	_, err := xctx.MustRequestID(ctx)
	assert.ErrorIs(t, err, xctx.ErrMissingRequestID)

	ctx, err = xctx.WithRequestID(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, "req-1", xctx.RequestID(ctx))

	got, err := xctx.MustRequestID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "req-1", got)
}

func TestEnsureRequestID(t *testing.T) {
	ctx, id, err := xctx.EnsureRequestID(context.Background())
	require.NoError(t, err)
	_, perr := uuid.Parse(id)
	assert.NoError(t, perr, "generated id must be a UUID")
	assert.Equal(t, id, xctx.RequestID(ctx))

	// 已存在时保持不变
	ctx2, id2, err := xctx.EnsureRequestID(ctx)
	require.NoError(t, err)
	assert.Equal(t, id, id2)
	assert.Equal(t, ctx, ctx2)
}

func TestConnIDAndRemoteAddr(t *testing.T) {
	ctx, err := xctx.WithConnID(context.Background(), 42)
	require.NoError(t, err)
	ctx, err = xctx.WithRemoteAddr(ctx, "10.0.0.1:5555")
	require.NoError(t, err)

	id, ok := xctx.ConnID(ctx)
	assert.True(t, ok)
	assert.Equal(t, uint64(42), id)
	assert.Equal(t, "10.0.0.1:5555", xctx.RemoteAddr(ctx))
}

func TestAttrs(t *testing.T) {
	assert.Nil(t, xctx.Attrs(context.Background()))

	ctx, _ := xctx.WithRequestID(context.Background(), "r")
	ctx, _ = xctx.WithConnID(ctx, 7)
	ctx, _ = xctx.WithRemoteAddr(ctx, "a")

	attrs := xctx.Attrs(ctx)
	require.Len(t, attrs, 3)
	assert.True(t, attrs[0].Equal(slog.String(xctx.KeyRequestID, "r")))
	assert.True(t, attrs[1].Equal(slog.Uint64(xctx.KeyConnID, 7)))
	assert.True(t, attrs[2].Equal(slog.String(xctx.KeyRemoteAddr, "a")))
}

func BenchmarkAppendAttrs(b *testing.B) {
	ctx, _ := xctx.WithRequestID(context.Background(), "r")
	ctx, _ = xctx.WithConnID(ctx, 7)
	var buf [3]slog.Attr
	b.ReportAllocs()
	for b.Loop() {
		_ = xctx.AppendAttrs(buf[:0], ctx)
	}
}
