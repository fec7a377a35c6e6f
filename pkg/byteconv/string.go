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

	"github.com/lk2023060901/byteconv-go/pkg/byteconv/typeinfo"
	"github.com/lk2023060901/byteconv-go/pkg/util/merr"
)

// stringConverter 编解码 uint32 长度前缀的 UTF-8 字符串，内容可以跨多次调用分段传输。
type stringConverter struct {
	// 占位，避免零大小对象共享地址。
	_ byte
}

func (c *stringConverter) read(s *decodeState, depth int, dst reflect.Value) (bool, error) {
	f, err := s.frame(depth)
	if err != nil {
		return false, err
	}
	if f.state == stateNotStarted {
		n, need := s.r.ReadUint32()
		if need > 0 {
			return s.short(need)
		}
		if err := s.checkLength("string", int64(n)); err != nil {
			return false, err
		}
		if p, need := s.r.ReadBytes(int(n)); need == 0 {
			dst.SetString(string(p))
			return true, nil
		}
		f.count = int(n)
		f.buf = make([]byte, 0, n)
		f.state = stateAwaitingValue
	}

	f.buf = append(f.buf, s.r.ReadPartial(f.count-len(f.buf))...)
	if len(f.buf) < f.count {
		return s.short(f.count - len(f.buf))
	}
	dst.SetString(string(f.buf))
	f.reset()
	return true, nil
}

func (c *stringConverter) write(s *encodeState, depth int, src reflect.Value) (bool, error) {
	f, err := s.frame(depth)
	if err != nil {
		return false, err
	}
	str := src.String()
	if f.state == stateNotStarted {
		if uint64(len(str)) >= nullLength {
			return false, merr.WrapErrValueOutOfRange("string length", len(str))
		}
		if need := s.w.WriteUint32(uint32(len(str))); need > 0 {
			return s.short(need)
		}
		f.state = stateAwaitingValue
	}

	f.off += s.w.WriteStringPartial(str[f.off:])
	if f.off < len(str) {
		return s.short(len(str) - f.off)
	}
	f.reset()
	return true, nil
}

func (c *stringConverter) size(z sizer, depth int, src reflect.Value) (int, error) {
	return 4 + src.Len(), nil
}

// bytesConverter 编解码元素类型恰为 byte 的切片和数组，整体作为一段字节传输。
// 切片的 nil 写作长度 0xFFFFFFFF，数组的长度必须与类型一致。
type bytesConverter struct {
	detail *typeinfo.TypeDetail
}

func (c *bytesConverter) read(s *decodeState, depth int, dst reflect.Value) (bool, error) {
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
			if c.detail.IsArray() {
				return false, merr.WrapErrMalformedLength("byte array", int64(n), int64(c.detail.Len))
			}
			dst.SetZero()
			return true, nil
		}
		if c.detail.IsArray() && int(n) != c.detail.Len {
			return false, merr.WrapErrMalformedLength("byte array", int64(n), int64(c.detail.Len))
		}
		if err := s.checkLength("bytes", int64(n)); err != nil {
			return false, err
		}
		f.count = int(n)
		f.buf = make([]byte, n)
		f.state = stateAwaitingValue
	}

	f.off += copy(f.buf[f.off:], s.r.ReadPartial(f.count-f.off))
	if f.off < f.count {
		return s.short(f.count - f.off)
	}
	if c.detail.IsArray() {
		reflect.Copy(dst, reflect.ValueOf(f.buf))
	} else {
		dst.SetBytes(f.buf)
	}
	f.reset()
	return true, nil
}

func (c *bytesConverter) write(s *encodeState, depth int, src reflect.Value) (bool, error) {
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
			return false, merr.WrapErrValueOutOfRange("bytes length", src.Len())
		}
		if need := s.w.WriteUint32(uint32(src.Len())); need > 0 {
			return s.short(need)
		}
		if c.detail.IsArray() {
			// 数组可能不可寻址，拷贝一份快照以便分段写入。
			f.buf = make([]byte, c.detail.Len)
			reflect.Copy(reflect.ValueOf(f.buf), src)
		}
		f.state = stateAwaitingValue
	}

	data := f.buf
	if !c.detail.IsArray() {
		data = src.Bytes()
	}
	f.off += s.w.WritePartial(data[f.off:])
	if f.off < len(data) {
		return s.short(len(data) - f.off)
	}
	f.reset()
	return true, nil
}

func (c *bytesConverter) size(z sizer, depth int, src reflect.Value) (int, error) {
	if !c.detail.IsArray() && src.IsNil() {
		return 4, nil
	}
	return 4 + src.Len(), nil
}
