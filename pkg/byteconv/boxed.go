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

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/byteconv-go/pkg/byteconv/typeinfo"
	"github.com/lk2023060901/byteconv-go/pkg/util/merr"
)

// boxedConverter 编解码接口类型的值：uint16 长度的类型名，随后是具体类型的编码。
// 空名字表示 nil。具体类型在运行时才能确定，其转换器按需准备。
type boxedConverter struct {
	detail *typeinfo.TypeDetail
}

func (c *boxedConverter) prepare(opts *Options) ([]converter, error) {
	if !opts.UseBoxedTypeInfo {
		return nil, merr.WrapErrAmbiguousType(c.detail.Type.String())
	}
	return nil, nil
}

func (c *boxedConverter) concrete(t reflect.Type, opts *Options) (converter, error) {
	return prepare(converterKey{t: t, slot: slotBoxed}, opts)
}

func (c *boxedConverter) read(s *decodeState, depth int, dst reflect.Value) (bool, error) {
	if !s.opts.UseBoxedTypeInfo {
		return false, merr.WrapErrAmbiguousType(c.detail.Type.String())
	}
	f, err := s.frame(depth)
	if err != nil {
		return false, err
	}
	if f.state == stateNotStarted {
		mark := s.r.Mark()
		n, need := s.r.ReadUint16()
		if need > 0 {
			return s.short(need)
		}
		if n == 0 {
			dst.SetZero()
			return true, nil
		}
		name, need := s.r.ReadBytes(int(n))
		if need > 0 {
			s.r.Rollback(mark)
			return s.short(need)
		}
		t, ok := typeinfo.TypeByName(string(name))
		if !ok {
			return false, merr.WrapErrUnknownTypeName(string(name))
		}
		if !t.AssignableTo(dst.Type()) {
			return false, errors.Wrapf(merr.WrapErrUnknownTypeName(string(name)),
				"%s does not implement %s", t, dst.Type())
		}
		f.concrete = t
		f.tmp = reflect.New(t).Elem()
		f.state = stateAwaitingValue
	}

	inner, err := c.concrete(f.concrete, s.opts)
	if err != nil {
		return false, err
	}
	done, err := inner.read(s, depth+1, f.tmp)
	if err != nil || !done {
		return false, err
	}
	dst.Set(f.tmp)
	f.reset()
	return true, nil
}

func (c *boxedConverter) write(s *encodeState, depth int, src reflect.Value) (bool, error) {
	if !s.opts.UseBoxedTypeInfo {
		return false, merr.WrapErrAmbiguousType(c.detail.Type.String())
	}
	f, err := s.frame(depth)
	if err != nil {
		return false, err
	}
	if f.state == stateNotStarted {
		if src.IsNil() {
			if need := s.w.WriteUint16(0); need > 0 {
				return s.short(need)
			}
			return true, nil
		}
		t := src.Elem().Type()
		name, ok := typeinfo.NameOf(t)
		if !ok {
			return false, merr.WrapErrUnknownTypeName(t.String())
		}
		if need := 2 + len(name) - s.w.Available(); need > 0 {
			return s.short(need)
		}
		s.w.WriteUint16(uint16(len(name)))
		s.w.WriteString(name)
		f.state = stateAwaitingValue
	}

	inner, err := c.concrete(src.Elem().Type(), s.opts)
	if err != nil {
		return false, err
	}
	done, err := inner.write(s, depth+1, src.Elem())
	if err != nil || !done {
		return false, err
	}
	f.reset()
	return true, nil
}

func (c *boxedConverter) size(z sizer, depth int, src reflect.Value) (int, error) {
	if !z.opts.UseBoxedTypeInfo {
		return 0, merr.WrapErrAmbiguousType(c.detail.Type.String())
	}
	if src.IsNil() {
		return 2, nil
	}
	t := src.Elem().Type()
	name, ok := typeinfo.NameOf(t)
	if !ok {
		return 0, merr.WrapErrUnknownTypeName(t.String())
	}
	if err := z.check(depth + 1); err != nil {
		return 0, err
	}
	inner, err := c.concrete(t, z.opts)
	if err != nil {
		return 0, err
	}
	n, err := inner.size(z, depth+1, src.Elem())
	if err != nil {
		return 0, err
	}
	return 2 + len(name) + n, nil
}
