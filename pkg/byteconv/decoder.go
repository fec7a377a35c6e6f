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

// Decoder 从一系列输入区间中反序列化一个值。
//
// 每次 Decode 尽量消费 src，返回消费的字节数。数据不足时记录进度并返回 done=false，
// 调用方应保留未消费的字节，在其后追加新数据再次调用。
// Decoder 不是并发安全的。
type Decoder struct {
	opts *Options
	root converter
	typ  reflect.Type
	// holder 保存根指针，类型为 rootType(typ)。
	holder reflect.Value
	state  *decodeState

	started bool
	done    bool
	// consumed 是已经消费的字节总数，也是下一次输入首字节的偏移。
	consumed int64
}

// NewDecoder 为类型 t 创建 Decoder。
func NewDecoder(t reflect.Type, opts ...Option) (*Decoder, error) {
	if t == nil {
		return nil, merr.WrapErrParameterInvalid("type", "nil", "new decoder")
	}
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	rt := rootType(t)
	root, err := prepare(converterKey{t: rt, slot: slotRoot}, o)
	if err != nil {
		return nil, err
	}
	return &Decoder{
		opts:   o,
		root:   root,
		typ:    t,
		holder: reflect.New(rt).Elem(),
		state:  newDecodeState(o),
	}, nil
}

// Decode 消费 src 中尽可能多的字节，返回消费的字节数以及值是否已完整读出。
// 已完成后再调用返回 (0, true, nil)。
func (d *Decoder) Decode(src []byte) (consumed int, done bool, err error) {
	if d.done {
		return 0, true, nil
	}

	start := time.Now()
	s := d.state
	s.r.Reset(src)
	s.base = d.consumed
	s.need = 0
	s.suspends = 0

	if !d.started {
		b, need := s.r.ReadUint8()
		if need > 0 {
			s.need = need
			return 0, false, nil
		}
		if err := d.opts.checkHeader(b); err != nil {
			observe(metrics.DecodeLabel, 0, 0, start, err)
			return 0, false, err
		}
		d.started = true
	}

	done, err = d.root.read(s, 0, d.holder)
	consumed = s.r.Pos()
	d.consumed += int64(consumed)
	observe(metrics.DecodeLabel, consumed, s.suspends, start, err)
	if err != nil {
		s.stack.clear()
		return consumed, false, err
	}
	d.done = done
	if done {
		s.need = 0
	}
	return consumed, done, nil
}

// DecodeAll 把 data 当作一个完整的值解码。
// 数据不完整返回 ErrUnexpectedEOF，值之后还有剩余字节返回 ErrTrailingData。
func (d *Decoder) DecodeAll(data []byte) (reflect.Value, error) {
	n, done, err := d.Decode(data)
	if err != nil {
		return reflect.Value{}, err
	}
	if !done {
		return reflect.Value{}, merr.WrapErrUnexpectedEOF(d.Needed())
	}
	if n < len(data) {
		return reflect.Value{}, merr.WrapErrTrailingData(len(data) - n)
	}
	return d.Value(), nil
}

// Needed 返回继续解码至少还需要的字节数，已完成时返回 0。
func (d *Decoder) Needed() int {
	if d.done {
		return 0
	}
	if d.state.need == 0 {
		return 1
	}
	return d.state.need
}

// Consumed 返回累计消费的字节数。
func (d *Decoder) Consumed() int64 {
	return d.consumed
}

// Done 返回值是否已完整读出。
func (d *Decoder) Done() bool {
	return d.done
}

// Value 返回读出的值，类型为 NewDecoder 传入的类型。
// 根为非指针类型且线上为空值时返回零值。
func (d *Decoder) Value() reflect.Value {
	if d.typ.Kind() == reflect.Pointer {
		return d.holder
	}
	if d.holder.IsNil() {
		return reflect.Zero(d.typ)
	}
	return d.holder.Elem()
}
