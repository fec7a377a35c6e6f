// Copyright (c) 2019 The Gnet Authors. All rights reserved.
// Copyright (c) 2019 Chao yuepan, Allen Xu
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE


// Package ring 实现了一个内存高效的环形缓冲区，流式反序列化用它暂存尚未消费的输入。
package ring

import (
	"io"
	"math/bits"
)

const (
	// MinRead 是 Fill 每次至少尝试读取的字节数。
	MinRead = 512
	// DefaultBufferSize 是环形缓冲区的默认初始大小。
	DefaultBufferSize   = 1024     // 1KB
	bufferGrowThreshold = 4 * 1024 // 4KB
)

// Buffer 是一个环形缓冲区。
type Buffer struct {
	buf []byte
	r   int // 读位置
	n   int // 已缓存字节数
}

// New 创建一个给定初始容量的 Buffer，size 会被向上取整为 2 的幂。
func New(size int) *Buffer {
	return &Buffer{buf: make([]byte, ceilToPowerOfTwo(size))}
}

func (rb *Buffer) writePos() int {
	if len(rb.buf) == 0 {
		return 0
	}
	return (rb.r + rb.n) % len(rb.buf)
}

// Peek 返回接下来至多 n 个字节但不前进读指针，n <= 0 时返回全部可读数据。
// 读指针跨越环形边界时数据被拆为 head/tail 两段。
func (rb *Buffer) Peek(n int) (head []byte, tail []byte) {
	if n <= 0 || n > rb.n {
		n = rb.n
	}
	if n == 0 {
		return nil, nil
	}
	if end := rb.r + n; end <= len(rb.buf) {
		return rb.buf[rb.r:end], nil
	}
	head = rb.buf[rb.r:]
	return head, rb.buf[:n-len(head)]
}

// Discard 丢弃接下来 n 个字节，返回实际丢弃的字节数。
func (rb *Buffer) Discard(n int) int {
	if n <= 0 {
		return 0
	}
	if n >= rb.n {
		n = rb.n
		rb.Reset()
		return n
	}
	rb.r = (rb.r + n) % len(rb.buf)
	rb.n -= n
	return n
}

// Write 实现 io.Writer，空间不足时自动扩容。
func (rb *Buffer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if len(p) > rb.Available() {
		rb.grow(rb.n + len(p))
	}
	w := rb.writePos()
	if c := copy(rb.buf[w:], p); c < len(p) {
		copy(rb.buf, p[c:])
	}
	rb.n += len(p)
	return len(p), nil
}

// Fill 从 r 读取一次数据追加到缓冲区，至多读取 limit 个字节。
// 调用前会整理缓冲区，保证可读数据和可写区间都是连续的。
func (rb *Buffer) Fill(r io.Reader, limit int) (int, error) {
	limit = max(limit, MinRead)
	if rb.Available() < limit {
		rb.grow(rb.n + limit)
	}
	rb.Compact()
	end := min(rb.n+limit, len(rb.buf))
	n, err := r.Read(rb.buf[rb.n:end])
	if n > 0 {
		rb.n += n
	}
	return n, err
}

// Compact 把可读数据移动到缓冲区起始位置，之后 Peek(0) 只返回 head 一段。
func (rb *Buffer) Compact() {
	switch {
	case rb.n == 0:
		rb.r = 0
	case rb.r+rb.n <= len(rb.buf):
		copy(rb.buf, rb.buf[rb.r:rb.r+rb.n])
		rb.r = 0
	default:
		linear := make([]byte, len(rb.buf))
		rb.copyTo(linear)
		rb.buf, rb.r = linear, 0
	}
}

func (rb *Buffer) copyTo(dst []byte) int {
	head, tail := rb.Peek(0)
	n := copy(dst, head)
	return n + copy(dst[n:], tail)
}

// Buffered 返回可读数据的字节数。
func (rb *Buffer) Buffered() int { return rb.n }

// Len 返回底层缓冲区的长度。
func (rb *Buffer) Len() int { return len(rb.buf) }

// Cap 返回底层缓冲区的容量。
func (rb *Buffer) Cap() int { return len(rb.buf) }

// Available 返回可写入的剩余字节数。
func (rb *Buffer) Available() int { return len(rb.buf) - rb.n }

// IsEmpty 返回缓冲区是否为空。
func (rb *Buffer) IsEmpty() bool { return rb.n == 0 }

// Reset 清空缓冲区，保留底层内存。
func (rb *Buffer) Reset() {
	rb.r, rb.n = 0, 0
}

// grow 把容量扩到至少 want。小缓冲区翻倍，大缓冲区每次增加 1/4。
func (rb *Buffer) grow(want int) {
	size := len(rb.buf)
	switch {
	case size == 0:
		size = ceilToPowerOfTwo(max(want, DefaultBufferSize))
	case size < bufferGrowThreshold:
		size = max(size*2, want)
	default:
		for size < want {
			size += size / 4
		}
	}
	grown := make([]byte, size)
	rb.copyTo(grown)
	rb.buf, rb.r = grown, 0
}

// ceilToPowerOfTwo 将 n 向上取整为最接近的 2 的幂。
func ceilToPowerOfTwo(n int) int {
	if n <= 0 {
		return 0
	}
	if n&(n-1) == 0 {
		return n
	}
	return 1 << bits.Len(uint(n))
}
