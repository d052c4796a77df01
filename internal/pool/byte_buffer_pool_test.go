package pool

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewByteBuffer(t *testing.T) {
	bb := NewByteBuffer(1024)

	require.NotNil(t, bb)
	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, 1024, bb.Cap())
	assert.Equal(t, 1024, bb.Available())
}

func TestByteBuffer_Appenders(t *testing.T) {
	bb := NewByteBuffer(64)

	_, _ = bb.WriteString("n=")
	bb.AppendInt(-42)
	_ = bb.WriteByte(' ')
	bb.AppendFloat(0.1, 8)
	_ = bb.WriteByte(' ')
	bb.AppendFloat(123456789, 8)
	_, _ = bb.Write([]byte("!"))

	assert.Equal(t, "n=-42 0.1 1.2345679e+08!", string(bb.Bytes()))
}

func TestByteBuffer_AppendFloatNonFinite(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{math.NaN(), "nan"},
		{math.Copysign(math.NaN(), -1), "-nan"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
		{-0.5, "-0.5"},
	}

	for _, tt := range tests {
		bb := NewByteBuffer(16)
		bb.AppendFloat(tt.v, 10)
		assert.Equal(t, tt.want, string(bb.Bytes()))
	}
}

func TestByteBuffer_PadTo(t *testing.T) {
	bb := NewByteBuffer(64)

	mark := bb.Len()
	bb.AppendInt(7)
	bb.PadTo(mark, 10)
	assert.Equal(t, "7         ", string(bb.Bytes()))

	mark = bb.Len()
	_, _ = bb.WriteString("12345678901")
	bb.PadTo(mark, 10)
	assert.Equal(t, 21, bb.Len(), "PadTo never truncates")
}

func TestByteBuffer_ResetAndWriteTo(t *testing.T) {
	bb := NewByteBuffer(16)
	_, _ = bb.WriteString("hello")

	var out bytes.Buffer
	n, err := bb.WriteTo(&out)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
	assert.Equal(t, "hello", out.String())

	capBefore := bb.Cap()
	bb.Reset()
	assert.Equal(t, 0, bb.Len())
	assert.Equal(t, capBefore, bb.Cap())
}

func TestByteBufferPool(t *testing.T) {
	t.Run("reuses reset buffers", func(t *testing.T) {
		p := NewByteBufferPool(32, 128)
		bb := p.Get()
		require.NotNil(t, bb)
		_, _ = bb.WriteString("data")
		p.Put(bb)

		again := p.Get()
		require.NotNil(t, again)
		assert.Equal(t, 0, again.Len())
	})

	t.Run("put nil is a no-op", func(t *testing.T) {
		p := NewByteBufferPool(32, 128)
		assert.NotPanics(t, func() { p.Put(nil) })
	})

	t.Run("default text pool", func(t *testing.T) {
		bb := GetTextBuffer()
		require.NotNil(t, bb)
		assert.GreaterOrEqual(t, bb.Cap(), TextBufferDefaultSize)
		PutTextBuffer(bb)
	})
}
