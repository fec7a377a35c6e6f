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
	"cmp"
	"reflect"
	"slices"

	"github.com/lk2023060901/byteconv-go/pkg/byteconv/typeinfo"
	"github.com/lk2023060901/byteconv-go/pkg/util/merr"
)

// sequenceConverter 编解码切片和定长数组：uint32 元素个数，随后逐个编码元素。
// 切片的 nil 写作 0xFFFFFFFF。
type sequenceConverter struct {
	detail *typeinfo.TypeDetail
	elem   *lazyConverter
}

func (c *sequenceConverter) prepare(opts *Options) ([]converter, error) {
	return resolveChildren(c.detail.Type, c.elem)
}

func (c *sequenceConverter) read(s *decodeState, depth int, dst reflect.Value) (bool, error) {
	f, err := s.frame(depth)
	if err != nil {
		return false, err
	}
	if f.state == stateNotStarted {
		n, need := s.r.ReadUint32()
		if need > 0 {
			return s.short(need)
		}
		switch {
		case n == nullLength && !c.detail.IsArray():
			dst.SetZero()
			return true, nil
		case c.detail.IsArray() && int64(n) != int64(c.detail.Len):
			return false, merr.WrapErrMalformedLength("array", int64(n), int64(c.detail.Len))
		}
		if err := s.checkLength("collection", int64(n)); err != nil {
			return false, err
		}
		if !c.detail.IsArray() {
			dst.Set(reflect.MakeSlice(dst.Type(), int(n), int(n)))
		}
		f.count = int(n)
		f.state = stateEnumerating
	}

	elem, err := c.elem.get()
	if err != nil {
		return false, err
	}
	for f.index < f.count {
		done, err := elem.read(s, depth+1, dst.Index(f.index))
		if err != nil || !done {
			return false, err
		}
		f.index++
	}
	f.reset()
	return true, nil
}

func (c *sequenceConverter) write(s *encodeState, depth int, src reflect.Value) (bool, error) {
	f, err := s.frame(depth)
	if err != nil {
		return false, err
	}
	if f.state == stateNotStarted {
		if !c.detail.IsArray() && src.IsNil() {
			if need := s.w.WriteUint32(nullLength); need > 0 {
				return s.short(need)
			}
			return true, nil
		}
		if uint64(src.Len()) >= nullLength {
			return false, merr.WrapErrValueOutOfRange("collection length", src.Len())
		}
		if need := s.w.WriteUint32(uint32(src.Len())); need > 0 {
			return s.short(need)
		}
		f.count = src.Len()
		f.state = stateEnumerating
	}

	elem, err := c.elem.get()
	if err != nil {
		return false, err
	}
	for f.index < f.count {
		done, err := elem.write(s, depth+1, src.Index(f.index))
		if err != nil || !done {
			return false, err
		}
		f.index++
	}
	f.reset()
	return true, nil
}

func (c *sequenceConverter) size(z sizer, depth int, src reflect.Value) (int, error) {
	if !c.detail.IsArray() && src.IsNil() {
		return 4, nil
	}
	if err := z.check(depth + 1); err != nil {
		return 0, err
	}
	elem, err := c.elem.get()
	if err != nil {
		return 0, err
	}
	total := 4
	for i := 0; i < src.Len(); i++ {
		n, err := elem.size(z, depth+1, src.Index(i))
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

const (
	phaseKey uint8 = iota
	phaseValue
)

// mapConverter 编解码 map：uint32 条目个数，随后交替编码 key 和 value。
// value 为空结构体的 map 视为集合，只编码 key。
type mapConverter struct {
	detail *typeinfo.TypeDetail
	key    *lazyConverter
	value  *lazyConverter
}

func (c *mapConverter) prepare(opts *Options) ([]converter, error) {
	if c.detail.IsSet {
		return resolveChildren(c.detail.Type, c.key)
	}
	return resolveChildren(c.detail.Type, c.key, c.value)
}

func (c *mapConverter) read(s *decodeState, depth int, dst reflect.Value) (bool, error) {
	f, err := s.frame(depth)
	if err != nil {
		return false, err
	}
	if f.state == stateNotStarted {
		n, need := s.r.ReadUint32()
		if need > 0 {
			return s.short(need)
		}
		if n == nullLength {
			dst.SetZero()
			return true, nil
		}
		if err := s.checkLength("map", int64(n)); err != nil {
			return false, err
		}
		dst.Set(reflect.MakeMapWithSize(dst.Type(), int(n)))
		f.count = int(n)
		f.phase = phaseKey
		f.state = stateEnumerating
	}

	key, err := c.key.get()
	if err != nil {
		return false, err
	}
	for f.index < f.count {
		if f.phase == phaseKey {
			if !f.key.IsValid() {
				f.key = reflect.New(c.detail.Key).Elem()
			}
			done, err := key.read(s, depth+1, f.key)
			if err != nil || !done {
				return false, err
			}
			f.phase = phaseValue
		}
		if c.detail.IsSet {
			dst.SetMapIndex(f.key, reflect.Zero(c.detail.Elem))
		} else {
			value, err := c.value.get()
			if err != nil {
				return false, err
			}
			if !f.tmp.IsValid() {
				f.tmp = reflect.New(c.detail.Elem).Elem()
			}
			done, err := value.read(s, depth+1, f.tmp)
			if err != nil || !done {
				return false, err
			}
			dst.SetMapIndex(f.key, f.tmp)
		}
		f.key, f.tmp = reflect.Value{}, reflect.Value{}
		f.phase = phaseKey
		f.index++
	}
	f.reset()
	return true, nil
}

func (c *mapConverter) write(s *encodeState, depth int, src reflect.Value) (bool, error) {
	f, err := s.frame(depth)
	if err != nil {
		return false, err
	}
	if f.state == stateNotStarted {
		if src.IsNil() {
			if need := s.w.WriteUint32(nullLength); need > 0 {
				return s.short(need)
			}
			return true, nil
		}
		if uint64(src.Len()) >= nullLength {
			return false, merr.WrapErrValueOutOfRange("map length", src.Len())
		}
		if need := s.w.WriteUint32(uint32(src.Len())); need > 0 {
			return s.short(need)
		}
		// 快照 key，挂起前后按同一顺序遍历。
		f.keys = sortedKeys(src)
		f.phase = phaseKey
		f.state = stateEnumerating
	}

	key, err := c.key.get()
	if err != nil {
		return false, err
	}
	for f.index < len(f.keys) {
		k := f.keys[f.index]
		if f.phase == phaseKey {
			done, err := key.write(s, depth+1, k)
			if err != nil || !done {
				return false, err
			}
			f.phase = phaseValue
		}
		if !c.detail.IsSet {
			value, err := c.value.get()
			if err != nil {
				return false, err
			}
			done, err := value.write(s, depth+1, src.MapIndex(k))
			if err != nil || !done {
				return false, err
			}
		}
		f.phase = phaseKey
		f.index++
	}
	f.reset()
	return true, nil
}

func (c *mapConverter) size(z sizer, depth int, src reflect.Value) (int, error) {
	if src.IsNil() {
		return 4, nil
	}
	if err := z.check(depth + 1); err != nil {
		return 0, err
	}
	key, err := c.key.get()
	if err != nil {
		return 0, err
	}
	var value converter
	if !c.detail.IsSet {
		if value, err = c.value.get(); err != nil {
			return 0, err
		}
	}
	total := 4
	iter := src.MapRange()
	for iter.Next() {
		n, err := key.size(z, depth+1, iter.Key())
		if err != nil {
			return 0, err
		}
		total += n
		if value == nil {
			continue
		}
		if n, err = value.size(z, depth+1, iter.Value()); err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

// sortedKeys 返回 map 的 key。数值、字符串和字节数组类型的 key 按升序排列，使输出确定。
func sortedKeys(m reflect.Value) []reflect.Value {
	keys := m.MapKeys()
	if len(keys) < 2 {
		return keys
	}
	switch keys[0].Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		slices.SortFunc(keys, func(a, b reflect.Value) int { return cmp.Compare(a.Int(), b.Int()) })
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		slices.SortFunc(keys, func(a, b reflect.Value) int { return cmp.Compare(a.Uint(), b.Uint()) })
	case reflect.Float32, reflect.Float64:
		slices.SortFunc(keys, func(a, b reflect.Value) int { return cmp.Compare(a.Float(), b.Float()) })
	case reflect.String:
		slices.SortFunc(keys, func(a, b reflect.Value) int { return cmp.Compare(a.String(), b.String()) })
	case reflect.Array:
		if keys[0].Type().Elem().Kind() == reflect.Uint8 {
			slices.SortFunc(keys, compareByteArrays)
		}
	}
	return keys
}

// compareByteArrays 按字典序比较两个等长的字节数组，例如 uuid.UUID。
func compareByteArrays(a, b reflect.Value) int {
	for i := 0; i < a.Len(); i++ {
		if c := cmp.Compare(a.Index(i).Uint(), b.Index(i).Uint()); c != 0 {
			return c
		}
	}
	return 0
}
