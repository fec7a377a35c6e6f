// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cursor

import (
	"encoding/binary"
	"math"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// Writer 是写游标，向调用方提供的定长区间写入数据。
// 空间不足时不写入任何字节，返回缺少的字节数。
type Writer struct {
	buf []byte
	n   int
}

// NewWriter 创建一个写入 buf 的游标。
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf}
}

// Reset 切换到新的输出区间，已写长度归零。
func (w *Writer) Reset(buf []byte) {
	w.buf = buf
	w.n = 0
}

// Len 返回已写入的字节数。
func (w *Writer) Len() int { return w.n }

// Available 返回剩余可写空间。
func (w *Writer) Available() int { return len(w.buf) - w.n }

// Bytes 返回已写入的数据。
func (w *Writer) Bytes() []byte { return w.buf[:w.n] }

func (w *Writer) Mark() int { return w.n }

func (w *Writer) Rollback(mark int) { w.n = mark }

func (w *Writer) need(n int) int {
	if avail := len(w.buf) - w.n; avail < n {
		return n - avail
	}
	return 0
}

func (w *Writer) WriteUint8(v uint8) int {
	if need := w.need(1); need > 0 {
		return need
	}
	w.buf[w.n] = v
	w.n++
	return 0
}

func (w *Writer) WriteUint16(v uint16) int {
	if need := w.need(2); need > 0 {
		return need
	}
	binary.LittleEndian.PutUint16(w.buf[w.n:], v)
	w.n += 2
	return 0
}

func (w *Writer) WriteUint32(v uint32) int {
	if need := w.need(4); need > 0 {
		return need
	}
	binary.LittleEndian.PutUint32(w.buf[w.n:], v)
	w.n += 4
	return 0
}

func (w *Writer) WriteUint64(v uint64) int {
	if need := w.need(8); need > 0 {
		return need
	}
	binary.LittleEndian.PutUint64(w.buf[w.n:], v)
	w.n += 8
	return 0
}

func (w *Writer) WriteFloat32(v float32) int {
	return w.WriteUint32(math.Float32bits(v))
}

func (w *Writer) WriteFloat64(v float64) int {
	return w.WriteUint64(math.Float64bits(v))
}

func (w *Writer) WriteBool(v bool) int {
	if v {
		return w.WriteUint8(1)
	}
	return w.WriteUint8(0)
}

// WriteInt 按 T 的宽度写入一个小端整数。
func WriteInt[T constraints.Integer](w *Writer, v T) int {
	size := int(unsafe.Sizeof(v))
	if need := w.need(size); need > 0 {
		return need
	}
	u := uint64(v)
	for i := 0; i < size; i++ {
		w.buf[w.n+i] = byte(u)
		u >>= 8
	}
	w.n += size
	return 0
}

// WriteBytes 整体写入 p，空间不足时不写入。
func (w *Writer) WriteBytes(p []byte) int {
	if need := w.need(len(p)); need > 0 {
		return need
	}
	w.n += copy(w.buf[w.n:], p)
	return 0
}

// WriteString 整体写入 s，空间不足时不写入。
func (w *Writer) WriteString(s string) int {
	if need := w.need(len(s)); need > 0 {
		return need
	}
	w.n += copy(w.buf[w.n:], s)
	return 0
}

// WritePartial 尽可能多地写入 p，返回写入的字节数。
func (w *Writer) WritePartial(p []byte) int {
	n := copy(w.buf[w.n:], p)
	w.n += n
	return n
}

// WriteStringPartial 尽可能多地写入 s，返回写入的字节数。
func (w *Writer) WriteStringPartial(s string) int {
	n := copy(w.buf[w.n:], s)
	w.n += n
	return n
}

// WriteLength 写入宽度为 width（1、2 或 4）的无符号长度前缀。
func (w *Writer) WriteLength(width int, n uint32) int {
	switch width {
	case 1:
		return w.WriteUint8(uint8(n))
	case 2:
		return w.WriteUint16(uint16(n))
	default:
		return w.WriteUint32(n)
	}
}
