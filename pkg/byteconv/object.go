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
	"math"
	"reflect"
	"strconv"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/byteconv-go/pkg/byteconv/typeinfo"
	"github.com/lk2023060901/byteconv-go/pkg/log"
	"github.com/lk2023060901/byteconv-go/pkg/metrics"
	"github.com/lk2023060901/byteconv-go/pkg/util/merr"
)

// memberConverter 是对象的一个成员及其值的转换器。
type memberConverter struct {
	member *typeinfo.Member
	child  *lazyConverter
}

// objectConverter 编解码结构体。
//
// 每个非空成员编码为 key、uint32 值长度、值；key 按寻址方式为索引或名字。
// 对象以全 1 索引（按索引寻址）或长度为 0 的名字（按名寻址）结束。
// 读取时不认识的成员按长度整体跳过。
type objectConverter struct {
	detail *typeinfo.TypeDetail
	// 声明顺序，下标即忽略 index 覆盖时的线上索引。
	members []*memberConverter
	byIndex []*memberConverter
	// 考虑 index 覆盖时线上索引到成员的映射。
	byWireIndex map[int]*memberConverter
	byName      map[string]*memberConverter
}

func newObjectConverter(d *typeinfo.TypeDetail) *objectConverter {
	c := &objectConverter{
		detail:      d,
		members:     make([]*memberConverter, 0, len(d.Members)),
		byIndex:     make([]*memberConverter, 0, len(d.ByIndex)),
		byWireIndex: make(map[int]*memberConverter, len(d.Members)),
		byName:      make(map[string]*memberConverter, len(d.Members)),
	}
	convs := make(map[*typeinfo.Member]*memberConverter, len(d.Members))
	for _, m := range d.Members {
		mc := &memberConverter{
			member: m,
			child: newLazyConverter(converterKey{
				t:      m.Type,
				slot:   slotMember,
				owner:  d.Type,
				member: m.Ordinal,
			}),
		}
		convs[m] = mc
		c.members = append(c.members, mc)
		c.byWireIndex[m.Index] = mc
		c.byName[m.Name] = mc
	}
	for _, m := range d.ByIndex {
		c.byIndex = append(c.byIndex, convs[m])
	}
	return c
}

func (c *objectConverter) prepare(opts *Options) ([]converter, error) {
	if !opts.UsePropertyNames {
		if maxIndex := c.detail.MaxIndex(opts.IgnoreIndexOverrides); maxIndex >= opts.IndexWidth.sentinel() {
			return nil, merr.WrapErrTooManyMembers(c.detail.Type.String(), maxIndex, opts.IndexWidth.sentinel()-1)
		}
	}
	children := make([]converter, 0, len(c.members))
	for _, mc := range c.members {
		child, err := mc.child.get()
		if err != nil {
			return nil, errors.Wrapf(err, "member %s.%s", c.detail.Type, mc.member.Name)
		}
		children = append(children, child)
	}
	return children, nil
}

// order 返回写入顺序：所选索引表的线上索引升序。
func (c *objectConverter) order(opts *Options) []*memberConverter {
	if opts.IgnoreIndexOverrides {
		return c.members
	}
	return c.byIndex
}

func (c *objectConverter) lookup(opts *Options, index int) *memberConverter {
	if opts.IgnoreIndexOverrides {
		if index < len(c.members) {
			return c.members[index]
		}
		return nil
	}
	return c.byWireIndex[index]
}

func (c *objectConverter) keySize(opts *Options, mc *memberConverter) int {
	if opts.UsePropertyNames {
		return opts.width() + len(mc.member.Name)
	}
	return opts.width()
}

func (c *objectConverter) read(s *decodeState, depth int, dst reflect.Value) (bool, error) {
	f, err := s.frame(depth)
	if err != nil {
		return false, err
	}
	if f.state == stateNotStarted {
		switch {
		case c.detail.Collect():
			f.collected = acquireCollected()
		case c.detail.Creator != nil:
			v, err := c.detail.Creator.Call(nil)
			if err != nil {
				return false, merr.WrapErrConstructorFailed(c.detail.Type.String(), err)
			}
			dst.Set(v)
		default:
			dst.SetZero()
		}
		f.state = stateAwaitingKey
	}

	for {
		switch f.state {
		case stateAwaitingKey:
			mc, key, length, end, need, err := c.readKey(s)
			if err != nil {
				return false, err
			}
			if need > 0 {
				return s.short(need)
			}
			if end {
				if err := c.finish(f, dst); err != nil {
					return false, err
				}
				f.reset()
				return true, nil
			}
			memberEnd := s.pos() + int64(length)
			if s.bound >= 0 && memberEnd > s.bound {
				return false, merr.WrapErrMalformedLength("member", int64(length), s.bound-s.pos())
			}
			if mc == nil {
				s.drained++
				metrics.UnknownMembers.Inc()
				log.RatedWarn(1, "skip unknown member",
					log.FieldType(c.detail.Type),
					log.FieldMember(key),
					zap.Uint32("length", length))
				f.drain = int64(length)
				f.state = stateDraining
				continue
			}
			f.member = mc
			f.memberEnd = memberEnd
			if c.detail.Collect() {
				f.tmp = reflect.New(mc.member.Type).Elem()
			}
			f.state = stateAwaitingMemberValue

		case stateDraining:
			f.drain -= s.r.SkipPartial(f.drain)
			if f.drain > 0 {
				return s.short(int(min(f.drain, math.MaxInt32)))
			}
			f.state = stateAwaitingKey

		case stateAwaitingMemberValue:
			mc := f.member
			target := f.tmp
			if !c.detail.Collect() {
				target = mc.member.Value(dst)
			}
			child, err := mc.child.get()
			if err != nil {
				return false, err
			}
			saved := s.bound
			s.bound = f.memberEnd
			done, err := child.read(s, depth+1, target)
			s.bound = saved
			if err != nil || !done {
				return false, err
			}
			if pos := s.pos(); pos != f.memberEnd {
				return false, merr.WrapErrMalformedLength("member "+mc.member.Name+" end offset", pos, f.memberEnd)
			}
			if c.detail.Collect() {
				f.collected[mc.member.Name] = f.tmp
				f.tmp = reflect.Value{}
			}
			f.member = nil
			f.state = stateAwaitingKey

		default:
			return false, merr.WrapErrParameterInvalid("object frame state", "unexpected", c.detail.Type.String())
		}
	}
}

// readKey 原子地读取成员 key 和值长度；数据不足时回退到 key 之前。
// 成员未知时 key 为线上的名字或索引。
func (c *objectConverter) readKey(s *decodeState) (mc *memberConverter, key string, length uint32, end bool, need int, err error) {
	mark := s.r.Mark()
	width := s.opts.width()
	if s.opts.UsePropertyNames {
		n, need := s.r.ReadLength(width)
		if need > 0 {
			return nil, "", 0, false, need, nil
		}
		if n == 0 {
			return nil, "", 0, true, 0, nil
		}
		name, need := s.r.ReadBytes(int(n))
		if need > 0 {
			s.r.Rollback(mark)
			return nil, "", 0, false, need + 4, nil
		}
		length, need = s.r.ReadUint32()
		if need > 0 {
			s.r.Rollback(mark)
			return nil, "", 0, false, need, nil
		}
		if mc = c.byName[string(name)]; mc == nil {
			key = string(name)
		}
		return mc, key, length, false, 0, nil
	}

	index, need := s.r.ReadLength(width)
	if need > 0 {
		return nil, "", 0, false, need, nil
	}
	if int(index) == s.opts.IndexWidth.sentinel() {
		return nil, "", 0, true, 0, nil
	}
	length, need = s.r.ReadUint32()
	if need > 0 {
		s.r.Rollback(mark)
		return nil, "", 0, false, need, nil
	}
	if mc = c.lookup(s.opts, int(index)); mc == nil {
		key = strconv.FormatUint(uint64(index), 10)
	}
	return mc, key, length, false, 0, nil
}

// finish 在读到结束标记后完成对象：收集模式下调用构造函数，
// 再把没有作为参数传入的成员值赋给结果。
func (c *objectConverter) finish(f *frame, dst reflect.Value) error {
	if !c.detail.Collect() {
		return nil
	}
	creator := c.detail.Creator
	v, err := creator.Call(creator.Args(f.collected))
	if err != nil {
		return merr.WrapErrConstructorFailed(c.detail.Type.String(), err)
	}
	dst.Set(v)
	for name, val := range f.collected {
		m := c.byName[name].member
		if !creator.Binds(m) {
			m.Value(dst).Set(val)
		}
	}
	return nil
}

func (c *objectConverter) write(s *encodeState, depth int, src reflect.Value) (bool, error) {
	f, err := s.frame(depth)
	if err != nil {
		return false, err
	}
	if f.state == stateNotStarted {
		f.state = stateAwaitingKey
	}

	order := c.order(s.opts)
	for f.index < len(order) {
		mc := order[f.index]
		v := mc.member.Value(src)
		child, err := mc.child.get()
		if err != nil {
			return false, err
		}
		if f.state == stateAwaitingKey {
			if isNil(v) {
				f.index++
				continue
			}
			length, err := child.size(sizer{opts: s.opts}, depth+1, v)
			if err != nil {
				return false, err
			}
			if uint64(length) > math.MaxUint32 {
				return false, merr.WrapErrValueOutOfRange("member length", length)
			}
			if need := c.keySize(s.opts, mc) + 4 - s.w.Available(); need > 0 {
				return s.short(need)
			}
			if s.opts.UsePropertyNames {
				s.w.WriteLength(s.opts.width(), uint32(len(mc.member.Name)))
				s.w.WriteString(mc.member.Name)
			} else {
				s.w.WriteLength(s.opts.width(), uint32(mc.member.WireIndex(s.opts.IgnoreIndexOverrides)))
			}
			s.w.WriteUint32(uint32(length))
			f.state = stateAwaitingMemberValue
		}
		done, err := child.write(s, depth+1, v)
		if err != nil || !done {
			return false, err
		}
		f.state = stateAwaitingKey
		f.index++
	}

	terminator := uint32(0)
	if !s.opts.UsePropertyNames {
		terminator = uint32(s.opts.IndexWidth.sentinel())
	}
	if need := s.w.WriteLength(s.opts.width(), terminator); need > 0 {
		return s.short(need)
	}
	f.reset()
	return true, nil
}

func (c *objectConverter) size(z sizer, depth int, src reflect.Value) (int, error) {
	if err := z.check(depth + 1); err != nil {
		return 0, err
	}
	total := z.opts.width()
	for _, mc := range c.order(z.opts) {
		v := mc.member.Value(src)
		if isNil(v) {
			continue
		}
		child, err := mc.child.get()
		if err != nil {
			return 0, err
		}
		n, err := child.size(z, depth+1, v)
		if err != nil {
			return 0, err
		}
		total += c.keySize(z.opts, mc) + 4 + n
	}
	return total, nil
}
