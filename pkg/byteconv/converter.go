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
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/lk2023060901/byteconv-go/pkg/byteconv/typeinfo"
	"github.com/lk2023060901/byteconv-go/pkg/log"
	"github.com/lk2023060901/byteconv-go/pkg/metrics"
	"github.com/lk2023060901/byteconv-go/pkg/util/merr"
	"github.com/lk2023060901/byteconv-go/pkg/util/typeutil"
)

// converter 负责一种类型在某个位置上的编解码。
//
// read/write 返回 false 且 err 为 nil 表示数据（或空间）不足而挂起，
// 调用方补充数据后应从根重新进入，converter 依据 depth 上的 frame 恢复进度。
// converter 本身不可变，可在多个并发的编解码之间共享。
type converter interface {
	read(s *decodeState, depth int, dst reflect.Value) (bool, error)
	write(s *encodeState, depth int, src reflect.Value) (bool, error)
	// size 返回 src 的编码长度，对象成员的长度前缀依赖它。
	size(z sizer, depth int, src reflect.Value) (int, error)
}

// preparer 由含有子转换器的 converter 实现，返回校验后的子转换器。
type preparer interface {
	prepare(opts *Options) ([]converter, error)
}

// slot 是类型在父级中所处的位置，同一类型在不同位置上的编码可能不同，
// 例如成员位置的指针不写空标记。
type slot uint8

const (
	slotRoot slot = iota
	slotElement
	slotKey
	slotValue
	slotMember
	slotBoxed
)

type converterKey struct {
	t    reflect.Type
	slot slot
	// 成员位置的转换器按所属类型和成员区分。
	owner  reflect.Type
	member int
}

var converters = typeutil.NewConcurrentMap[converterKey, converter]()

// converterFor 返回 key 对应的转换器，首次访问时创建。
func converterFor(key converterKey) (converter, error) {
	if c, ok := converters.Get(key); ok {
		return c, nil
	}
	c, err := newConverter(key)
	if err != nil {
		return nil, err
	}
	c, _ = converters.GetOrInsert(key, c)
	return c, nil
}

func newConverter(key converterKey) (converter, error) {
	d, err := typeinfo.Get(key.t)
	if err != nil {
		return nil, err
	}
	switch d.Category {
	case typeinfo.CategoryScalar, typeinfo.CategoryEnum:
		if d.Scalar == typeinfo.KindString {
			return &stringConverter{}, nil
		}
		return &scalarConverter{detail: d}, nil
	case typeinfo.CategoryByteArray:
		return &bytesConverter{detail: d}, nil
	case typeinfo.CategoryNullable:
		return &pointerConverter{
			detail:  d,
			flagged: key.slot != slotMember,
			inner:   newLazyConverter(converterKey{t: d.Elem, slot: slotElement}),
		}, nil
	case typeinfo.CategoryCollection:
		return &sequenceConverter{
			detail: d,
			elem:   newLazyConverter(converterKey{t: d.Elem, slot: slotElement}),
		}, nil
	case typeinfo.CategoryMap:
		return &mapConverter{
			detail: d,
			key:    newLazyConverter(converterKey{t: d.Key, slot: slotKey}),
			value:  newLazyConverter(converterKey{t: d.Elem, slot: slotValue}),
		}, nil
	case typeinfo.CategoryObject:
		return newObjectConverter(d), nil
	case typeinfo.CategoryInterface:
		return &boxedConverter{detail: d}, nil
	}
	return nil, merr.WrapErrUnsupportedType(key.t.String(), "", d.Category.String())
}

type converterRef struct {
	c converter
}

// lazyConverter 延迟解析子转换器，自引用类型因此不会在创建时无限递归。
type lazyConverter struct {
	key converterKey
	ref atomic.Pointer[converterRef]
}

func newLazyConverter(key converterKey) *lazyConverter {
	return &lazyConverter{key: key}
}

func (l *lazyConverter) get() (converter, error) {
	if r := l.ref.Load(); r != nil {
		return r.c, nil
	}
	c, err := converterFor(l.key)
	if err != nil {
		return nil, err
	}
	l.ref.CompareAndSwap(nil, &converterRef{c: c})
	return l.ref.Load().c, nil
}

type preparedKey struct {
	t     reflect.Type
	slot  slot
	shape byte
}

var prepared = typeutil.NewConcurrentSet[preparedKey]()

// prepare 返回 key 对应的转换器，并在首次以某组选项使用时遍历整个转换器图，
// 提前暴露不支持的类型、缺失的构造函数、成员过多等配置错误。
func prepare(key converterKey, opts *Options) (converter, error) {
	c, err := converterFor(key)
	if err != nil {
		metrics.CodecErrors.WithLabelValues(metrics.PrepareLabel, merr.GetErrorType(err).String()).Inc()
		return nil, err
	}
	pk := preparedKey{t: key.t, slot: key.slot, shape: opts.shapeKey()}
	if prepared.Contain(pk) {
		return c, nil
	}
	if err := walk(c, opts, typeutil.NewSet[converter]()); err != nil {
		metrics.CodecErrors.WithLabelValues(metrics.PrepareLabel, merr.GetErrorType(err).String()).Inc()
		log.Warn("prepare converter failed", log.FieldType(key.t), zap.Error(err))
		return nil, err
	}
	prepared.Insert(pk)
	return c, nil
}

func walk(c converter, opts *Options, visited typeutil.Set[converter]) error {
	if visited.Contain(c) {
		return nil
	}
	visited.Insert(c)
	p, ok := c.(preparer)
	if !ok {
		return nil
	}
	children, err := p.prepare(opts)
	if err != nil {
		return err
	}
	for _, child := range children {
		if err := walk(child, opts, visited); err != nil {
			return err
		}
	}
	return nil
}

// resolveChildren 解析一组延迟子转换器。
func resolveChildren(owner reflect.Type, lazies ...*lazyConverter) ([]converter, error) {
	ret := make([]converter, 0, len(lazies))
	for _, l := range lazies {
		c, err := l.get()
		if err != nil {
			return nil, errors.Wrapf(err, "resolve %s of %s", l.key.t, owner)
		}
		ret = append(ret, c)
	}
	return ret, nil
}

// isNil 判断成员值是否为空，空成员写入时直接跳过。
func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// nullLength 是集合、字节数组长度位置上的空值标记。
const nullLength = 0xFFFFFFFF
