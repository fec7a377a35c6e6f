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

package typeinfo

import (
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/lk2023060901/byteconv-go/pkg/util/merr"
	"github.com/lk2023060901/byteconv-go/pkg/util/typeutil"
)

const (
	// TagName 是成员标签的键，例如 `bin:"id,index=3"`，`bin:"-"` 表示忽略该字段。
	TagName = "bin"
	// MaxNameLength 是成员名和类型名的最大字节数。
	MaxNameLength = 255
)

// Member 描述对象的一个可序列化成员（导出字段）。
type Member struct {
	// Name 是字段名或标签中的覆盖名。
	Name string
	// FieldIndex 是字段在结构体中的位置。
	FieldIndex int
	Type       reflect.Type
	// Ordinal 是成员在可序列化成员中的声明顺序，忽略 index 覆盖时即为线上索引。
	Ordinal int
	// Override 是标签中显式指定的索引，-1 表示未指定。
	Override int
	// Index 是考虑 index 覆盖后的线上索引。
	Index int
}

// WireIndex 返回成员在所选索引表中的线上索引。
func (m *Member) WireIndex(ignoreOverrides bool) int {
	if ignoreOverrides {
		return m.Ordinal
	}
	return m.Index
}

// Value 返回 owner 中该成员对应的字段。
func (m *Member) Value(owner reflect.Value) reflect.Value {
	return owner.Field(m.FieldIndex)
}

func resolveMembers(t reflect.Type) ([]*Member, error) {
	members := make([]*Member, 0, t.NumField())
	names := typeutil.NewSet[string]()

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name, override, skip, err := parseTag(t, field)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}
		if len(name) > MaxNameLength {
			return nil, merr.WrapErrMemberNameTooLong(t.String(), name, MaxNameLength)
		}
		if names.Contain(name) {
			return nil, merr.WrapErrDuplicateMember(t.String(), name, "member name")
		}
		names.Insert(name)
		members = append(members, &Member{
			Name:       name,
			FieldIndex: i,
			Type:       field.Type,
			Ordinal:    len(members),
			Override:   override,
		})
	}

	if err := assignIndexes(t, members); err != nil {
		return nil, err
	}
	return members, nil
}

// parseTag 解析 `bin:"name,index=N"`。
func parseTag(owner reflect.Type, field reflect.StructField) (name string, override int, skip bool, err error) {
	override = -1
	tag, ok := field.Tag.Lookup(TagName)
	if !ok {
		return field.Name, override, false, nil
	}
	if tag == "-" {
		return "", override, true, nil
	}

	parts := strings.Split(tag, ",")
	name = strings.TrimSpace(parts[0])
	if name == "" {
		name = field.Name
	}
	for _, opt := range parts[1:] {
		opt = strings.TrimSpace(opt)
		key, value, _ := strings.Cut(opt, "=")
		switch key {
		case "index":
			n, convErr := strconv.Atoi(value)
			if convErr != nil || n < 0 {
				return "", -1, false, merr.WrapErrInvalidOption(owner.String()+"."+field.Name+".index", value)
			}
			override = n
		case "":
		default:
			return "", -1, false, merr.WrapErrInvalidOption(owner.String()+"."+field.Name+"."+key, value)
		}
	}
	return name, override, false, nil
}

// assignIndexes 为成员分配线上索引：显式覆盖的成员占据指定位置，
// 其余成员按声明顺序依次填入最小的空闲位置。
func assignIndexes(t reflect.Type, members []*Member) error {
	used := typeutil.NewSet[int]()
	for _, m := range members {
		if m.Override < 0 {
			continue
		}
		if used.Contain(m.Override) {
			return merr.WrapErrDuplicateMember(t.String(), m.Name, "index="+strconv.Itoa(m.Override))
		}
		used.Insert(m.Override)
		m.Index = m.Override
	}

	next := 0
	for _, m := range members {
		if m.Override >= 0 {
			continue
		}
		for used.Contain(next) {
			next++
		}
		m.Index = next
		used.Insert(next)
	}
	return nil
}

func sortByIndex(members []*Member) []*Member {
	ret := slices.Clone(members)
	slices.SortFunc(ret, func(a, b *Member) int {
		return a.Index - b.Index
	})
	return ret
}
