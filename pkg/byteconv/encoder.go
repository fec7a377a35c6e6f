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

package byteconv

import (
	"reflect"
	"time"

	"github.com/lk2023060901/byteconv-go/pkg/metrics"
	"github.com/lk2023060901/byteconv-go/pkg/util/merr"
)

// Encoder 把一个值序列化到调用方提供的一系列输出区间中。
//
// 每次 Encode 尽量填满 dst，空间不足时记录进度并返回 done=false，
// 调用方输出已写入的字节后用新的区间再次调用，直到 done=true。
// Encoder 不是并发安全的。
type Encoder struct {
	opts  *Options
	root  converter
	value reflect.Value
	state *encodeState

	started bool
	done    bool
	written int64
}

// NewEncoder 为 v 创建 Encoder。v 为指针时 nil 编码为空值。
func NewEncoder(v any, opts ...Option) (*Encoder, error) {
	if v == nil {
		return nil, merr.WrapErrParameterInvalid("non-nil value", "nil", "new encoder")
	}
	return newEncoder(reflect.ValueOf(v), opts)
}

func newEncoder(v reflect.Value, opts []Option) (*Encoder, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	value := rootValue(v)
	root, err := prepare(converterKey{t: value.Type(), slot: slotRoot}, o)
	if err != nil {
		return nil, err
	}
	return &Encoder{
		opts:  o,
		root:  root,
		value: value,
		state: newEncodeState(o),
	}, nil
}

// rootValue 把根值统一为指针，非指针的值与其指针编码相同。
func rootValue(v reflect.Value) reflect.Value {
	if v.Kind() == reflect.Pointer {
		return v
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p
}

// rootType 返回 t 作为根时使用的指针类型。
func rootType(t reflect.Type) reflect.Type {
	if t.Kind() == reflect.Pointer {
		return t
	}
	return reflect.PointerTo(t)
}

// Encode 向 dst 写入尽可能多的数据，返回写入的字节数以及是否已写完。
// dst 至少需要 MinBufferSize 字节。写完后再调用返回 (0, true, nil)。
func (e *Encoder) Encode(dst []byte) (n int, done bool, err error) {
	if e.done {
		return 0, true, nil
	}
	if len(dst) < MinBufferSize {
		return 0, false, merr.WrapErrBufferTooSmall(len(dst), MinBufferSize)
	}
	return e.encode(dst)
}

// EncodeAll 按 Size 预先计算的长度一次性编码出完整的字节，
// 只能在尚未调用 Encode 的 Encoder 上使用。
func (e *Encoder) EncodeAll() ([]byte, error) {
	size, err := e.Size()
	if err != nil {
		return nil, err
	}
	buf := make([]byte, max(size, MinBufferSize))
	n, done, err := e.Encode(buf)
	if err != nil {
		return nil, err
	}
	if !done {
		return nil, merr.WrapErrBufferTooSmall(len(buf), size)
	}
	return buf[:n], nil
}

// encode 不检查 dst 的长度，dst 需能放下最长的原子写入，否则不会有进展。
func (e *Encoder) encode(dst []byte) (n int, done bool, err error) {
	start := time.Now()
	s := e.state
	s.w.Reset(dst)
	s.suspends = 0
	if !e.started {
		s.w.WriteUint8(e.opts.header())
		e.started = true
	}

	done, err = e.root.write(s, 0, e.value)
	n = s.w.Len()
	e.written += int64(n)
	observe(metrics.EncodeLabel, n, s.suspends, start, err)
	if err != nil {
		s.stack.clear()
		return n, false, err
	}
	e.done = done
	return n, done, nil
}

// Written 返回累计写出的字节数。
func (e *Encoder) Written() int64 {
	return e.written
}

// Done 返回是否已写完。
func (e *Encoder) Done() bool {
	return e.done
}

// Size 计算完整编码的字节数（包括头部），不影响写入进度。
func (e *Encoder) Size() (int, error) {
	n, err := e.root.size(sizer{opts: e.opts}, 0, e.value)
	if err != nil {
		return 0, err
	}
	return n + 1, nil
}

func observe(direction string, n int, suspends int, start time.Time, err error) {
	metrics.CodecBytes.WithLabelValues(direction).Add(float64(n))
	metrics.CodecCallBytes.WithLabelValues(direction).Observe(float64(n))
	metrics.CodecLatency.WithLabelValues(direction).Observe(float64(time.Since(start).Microseconds()) / 1000)
	if suspends > 0 {
		metrics.CodecSuspensions.WithLabelValues(direction).Add(float64(suspends))
	}
	if err != nil {
		metrics.CodecErrors.WithLabelValues(direction, merr.GetErrorType(err).String()).Inc()
	}
}
