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

// Package cursor 提供在有界字节区间上读写定长小端数值的游标。
//
// 所有读写操作在数据（或空间）不足时都不会报错，而是返回还需要多少字节，
// 且此时游标位置保持不变。调用方据此挂起，待补充数据后重试同一步骤。
package cursor

import (
	"encoding/binary"
	"math"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// Reader 是只读游标，持有一段输入数据和当前读取位置。
type Reader struct {
	buf []byte
	pos int
}

// NewReader 创建一个读取 buf 的游标。
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Reset 切换到新的输入数据，位置归零。
func (r *Reader) Reset(buf []byte) {
	r.buf = buf
	r.pos = 0
}

// Pos 返回已消费的字节数。
func (r *Reader) Pos() int { return r.pos }

// Remaining 返回尚未消费的字节数。
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Mark 记录当前位置，配合 Rollback 实现多字段的原子读取。
func (r *Reader) Mark() int { return r.pos }

// Rollback 回到 Mark 记录的位置。
func (r *Reader) Rollback(mark int) { r.pos = mark }

func (r *Reader) need(n int) int {
	if rem := len(r.buf) - r.pos; rem < n {
		return n - rem
	}
	return 0
}

func (r *Reader) ReadUint8() (uint8, int) {
	if need := r.need(1); need > 0 {
		return 0, need
	}
	v := r.buf[r.pos]
	r.pos++
	return v, 0
}

func (r *Reader) ReadUint16() (uint16, int) {
	if need := r.need(2); need > 0 {
		return 0, need
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, 0
}

func (r *Reader) ReadUint32() (uint32, int) {
	if need := r.need(4); need > 0 {
		return 0, need
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, 0
}

func (r *Reader) ReadUint64() (uint64, int) {
	if need := r.need(8); need > 0 {
		return 0, need
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, 0
}

func (r *Reader) ReadFloat32() (float32, int) {
	v, need := r.ReadUint32()
	return math.Float32frombits(v), need
}

func (r *Reader) ReadFloat64() (float64, int) {
	v, need := r.ReadUint64()
	return math.Float64frombits(v), need
}

func (r *Reader) ReadBool() (bool, int) {
	v, need := r.ReadUint8()
	return v != 0, need
}

// ReadInt 按 T 的宽度读取一个小端整数，有符号类型通过截断还原。
func ReadInt[T constraints.Integer](r *Reader) (T, int) {
	var zero T
	size := int(unsafe.Sizeof(zero))
	if need := r.need(size); need > 0 {
		return zero, need
	}
	var u uint64
	for i := size - 1; i >= 0; i-- {
		u = u<<8 | uint64(r.buf[r.pos+i])
	}
	r.pos += size
	return T(u), 0
}

// ReadBytes 读取恰好 n 个字节，返回的切片与输入数据共享底层内存。
func (r *Reader) ReadBytes(n int) ([]byte, int) {
	if need := r.need(n); need > 0 {
		return nil, need
	}
	p := r.buf[r.pos : r.pos+n]
	r.pos += n
	return p, 0
}

// ReadPartial 读取至多 n 个字节，有多少返回多少。
func (r *Reader) ReadPartial(n int) []byte {
	if rem := r.Remaining(); n > rem {
		n = rem
	}
	p := r.buf[r.pos : r.pos+n]
	r.pos += n
	return p
}

// Skip 跳过恰好 n 个字节。
func (r *Reader) Skip(n int) int {
	if need := r.need(n); need > 0 {
		return need
	}
	r.pos += n
	return 0
}

// SkipPartial 跳过至多 n 个字节，返回实际跳过的字节数。
func (r *Reader) SkipPartial(n int64) int64 {
	if rem := int64(r.Remaining()); n > rem {
		n = rem
	}
	r.pos += int(n)
	return n
}

// ReadLength 读取宽度为 width（1、2 或 4）的无符号长度前缀。
func (r *Reader) ReadLength(width int) (uint32, int) {
	switch width {
	case 1:
		v, need := r.ReadUint8()
		return uint32(v), need
	case 2:
		v, need := r.ReadUint16()
		return uint32(v), need
	default:
		return r.ReadUint32()
	}
}
