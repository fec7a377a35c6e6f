package ring

import (
	"bytes"
	"io"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWritePeekDiscard(t *testing.T) {
	rb := New(8)
	assert.True(t, rb.IsEmpty())
	assert.Equal(t, 8, rb.Cap())
	assert.Equal(t, 8, rb.Available())

	n, err := rb.Write([]byte("abcdef"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, 6, rb.Buffered())

	head, tail := rb.Peek(3)
	assert.Equal(t, []byte("abc"), head)
	assert.Empty(t, tail)

	assert.Equal(t, 4, rb.Discard(4))
	// 写入跨越环形边界。
	_, err = rb.Write([]byte("ghij"))
	require.NoError(t, err)
	head, tail = rb.Peek(0)
	assert.Equal(t, "efghij", string(head)+string(tail))
	assert.NotEmpty(t, tail)

	rb.Compact()
	head, tail = rb.Peek(0)
	assert.Equal(t, []byte("efghij"), head)
	assert.Empty(t, tail)

	assert.Equal(t, 6, rb.Discard(100))
	assert.True(t, rb.IsEmpty())
	assert.Zero(t, rb.Discard(1))
}

func TestWriteGrows(t *testing.T) {
	rb := New(0)
	data := bytes.Repeat([]byte("0123456789"), 500)
	_, err := rb.Write(data)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, rb.Cap(), len(data))
	head, tail := rb.Peek(0)
	assert.Equal(t, data, append(head, tail...))
}

func TestFill(t *testing.T) {
	data := bytes.Repeat([]byte("x"), 3000)
	rb := New(16)

	n, err := rb.Fill(bytes.NewReader(data), 100)
	require.NoError(t, err)
	// 每次至少尝试读取 MinRead 字节。
	assert.Equal(t, MinRead, n)
	assert.Equal(t, MinRead, rb.Buffered())

	rb.Discard(500)
	r := iotest.OneByteReader(bytes.NewReader([]byte("yz")))
	n, err = rb.Fill(r, MinRead)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	head, tail := rb.Peek(0)
	assert.Empty(t, tail)
	assert.Equal(t, "xxxxxxxxxxxxy", string(head))

	_, err = rb.Fill(r, MinRead)
	require.NoError(t, err)
	_, err = rb.Fill(r, MinRead)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 14, rb.Buffered())
}

func TestReset(t *testing.T) {
	rb := New(4)
	_, _ = rb.Write([]byte("abcd"))
	assert.Zero(t, rb.Available())
	rb.Reset()
	assert.True(t, rb.IsEmpty())
	assert.Equal(t, 4, rb.Available())
	assert.Equal(t, 4, rb.Len())
}

func TestCeilToPowerOfTwo(t *testing.T) {
	assert.Equal(t, 0, ceilToPowerOfTwo(0))
	assert.Equal(t, 1, ceilToPowerOfTwo(1))
	assert.Equal(t, 8, ceilToPowerOfTwo(5))
	assert.Equal(t, 1024, ceilToPowerOfTwo(1024))
}
