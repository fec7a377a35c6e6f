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

const (
	nullFlag    byte = 0
	presentFlag byte = 1
)

// pointerConverter 编解码可空值。
// flagged 时先写一个字节的空标记；成员位置上的空值直接省略整个成员，因此不需要标记。
type pointerConverter struct {
	detail  *typeinfo.TypeDetail
	flagged bool
	inner   *lazyConverter
}

func (c *pointerConverter) prepare(opts *Options) ([]converter, error) {
	return resolveChildren(c.detail.Type, c.inner)
}

func (c *pointerConverter) read(s *decodeState, depth int, dst reflect.Value) (bool, error) {
	f, err := s.frame(depth)
	if err != nil {
		return false, err
	}
	if f.state == stateNotStarted {
		if c.flagged {
			b, need := s.r.ReadUint8()
			if need > 0 {
				return s.short(need)
			}
			switch b {
			case nullFlag:
				dst.SetZero()
				return true, nil
			case presentFlag:
			default:
				return false, merr.WrapErrValueOutOfRange("null flag", b)
			}
		}
		dst.Set(reflect.New(c.detail.Elem))
		f.state = stateAwaitingValue
	}

	inner, err := c.inner.get()
	if err != nil {
		return false, err
	}
	done, err := inner.read(s, depth+1, dst.Elem())
	if err != nil || !done {
		return false, err
	}
	f.reset()
	return true, nil
}

func (c *pointerConverter) write(s *encodeState, depth int, src reflect.Value) (bool, error) {
	f, err := s.frame(depth)
	if err != nil {
		return false, err
	}
	if f.state == stateNotStarted {
		if src.IsNil() {
			if !c.flagged {
				return true, nil
			}
			if need := s.w.WriteUint8(nullFlag); need > 0 {
				return s.short(need)
			}
			return true, nil
		}
		if c.flagged {
			if need := s.w.WriteUint8(presentFlag); need > 0 {
				return s.short(need)
			}
		}
		f.state = stateAwaitingValue
	}

	inner, err := c.inner.get()
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

func (c *pointerConverter) size(z sizer, depth int, src reflect.Value) (int, error) {
	n := 0
	if c.flagged {
		n = 1
	}
	if src.IsNil() {
		return n, nil
	}
	if err := z.check(depth + 1); err != nil {
		return 0, err
	}
	inner, err := c.inner.get()
	if err != nil {
		return 0, err
	}
	m, err := inner.size(z, depth+1, src.Elem())
	if err != nil {
		return 0, err
	}
	return n + m, nil
}
