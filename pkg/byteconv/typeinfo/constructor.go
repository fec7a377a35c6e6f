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
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// Param 是构造函数的一个参数，Member 为匹配到的成员（未匹配时为 nil）。
type Param struct {
	Name   string
	Type   reflect.Type
	Member *Member
}

// Constructor 是为某个结构体注册的构造函数。
// 支持的签名：func(...) T、func(...) *T、func(...) (T, error)、func(...) (*T, error)。
type Constructor struct {
	Params []Param

	fn       reflect.Value
	ptr      bool
	fallible bool
	order    int
}

// Matched 返回匹配到成员的参数个数。
func (c *Constructor) Matched() int {
	return lo.CountBy(c.Params, func(p Param) bool { return p.Member != nil })
}

// FullyMatched 判断是否每个参数都匹配到了成员。
func (c *Constructor) FullyMatched() bool {
	return c.Matched() == len(c.Params)
}

// Binds 判断成员是否作为参数传给了构造函数。
func (c *Constructor) Binds(m *Member) bool {
	return lo.ContainsBy(c.Params, func(p Param) bool { return p.Member == m })
}

// Call 调用构造函数并返回结构体值（指针返回值会被解引用）。
func (c *Constructor) Call(args []reflect.Value) (reflect.Value, error) {
	out := c.fn.Call(args)
	if c.fallible && !out[1].IsNil() {
		return reflect.Value{}, out[1].Interface().(error)
	}
	v := out[0]
	if c.ptr {
		if v.IsNil() {
			return reflect.Value{}, errors.New("constructor returned nil pointer")
		}
		v = v.Elem()
	}
	return v, nil
}

// Args 根据收集到的成员值构造实参，未匹配或缺失的参数使用零值。
func (c *Constructor) Args(collected map[string]reflect.Value) []reflect.Value {
	args := make([]reflect.Value, len(c.Params))
	for i, p := range c.Params {
		if p.Member != nil {
			if v, ok := collected[p.Member.Name]; ok {
				args[i] = v
				continue
			}
		}
		args[i] = reflect.Zero(p.Type)
	}
	return args
}

type ctorDef struct {
	fn    reflect.Value
	names []string
}

func validateConstructor(t reflect.Type, fn any, names []string) (ctorDef, error) {
	v := reflect.ValueOf(fn)
	if !v.IsValid() || v.Kind() != reflect.Func {
		return ctorDef{}, errors.Newf("constructor for %s is not a function", t)
	}
	ft := v.Type()
	if ft.IsVariadic() {
		return ctorDef{}, errors.Newf("variadic constructor for %s", t)
	}
	if ft.NumIn() != len(names) {
		return ctorDef{}, errors.Newf("constructor for %s takes %d parameters but %d names were given", t, ft.NumIn(), len(names))
	}
	switch ft.NumOut() {
	case 2:
		if ft.Out(1) != errorType {
			return ctorDef{}, errors.Newf("second result of constructor for %s must be error", t)
		}
		fallthrough
	case 1:
		if out := ft.Out(0); out != t && out != reflect.PointerTo(t) {
			return ctorDef{}, errors.Newf("constructor for %s returns %s", t, out)
		}
	default:
		return ctorDef{}, errors.Newf("constructor for %s must return one or two values", t)
	}
	return ctorDef{fn: v, names: names}, nil
}

func bindConstructors(defs []ctorDef, members []*Member) []*Constructor {
	ctors := make([]*Constructor, 0, len(defs))
	for i, def := range defs {
		ft := def.fn.Type()
		c := &Constructor{
			fn:       def.fn,
			ptr:      ft.Out(0).Kind() == reflect.Pointer,
			fallible: ft.NumOut() == 2,
			order:    i,
		}
		for j, name := range def.names {
			p := Param{Name: name, Type: ft.In(j)}
			p.Member, _ = lo.Find(members, func(m *Member) bool {
				return strings.EqualFold(m.Name, name) && m.Type.AssignableTo(p.Type)
			})
			c.Params = append(c.Params, p)
		}
		ctors = append(ctors, c)
	}
	return ctors
}

// selectCreator 选出读取时使用的构造函数：
// 注册了无参构造函数时直接使用它（先注册的优先），对象按成员逐个赋值；
// 否则优先选择所有参数都能匹配成员的构造函数中参数最多的，
// 没有完全匹配的，选择匹配参数最多的。同等条件下取先注册的。
func selectCreator(ctors []*Constructor) *Constructor {
	if c, ok := lo.Find(ctors, func(c *Constructor) bool { return len(c.Params) == 0 }); ok {
		return c
	}
	var best *Constructor
	for _, c := range ctors {
		if c.FullyMatched() && (best == nil || len(c.Params) > len(best.Params)) {
			best = c
		}
	}
	if best != nil {
		return best
	}
	for _, c := range ctors {
		if best == nil || c.Matched() > best.Matched() {
			best = c
		}
	}
	return best
}
