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
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/byteconv-go/pkg/util/merr"
)

type color int8

type indexed struct {
	A int
	B int `bin:",index=0"`
	C string
	D int `bin:"dee,index=5"`
	E int `bin:"-"`
	f int
}

type emptyObject struct{}

func typeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func TestClassify(t *testing.T) {
	cases := []struct {
		typ      reflect.Type
		category Category
		scalar   ScalarKind
		length   int
	}{
		{typeOf[int](), CategoryScalar, KindInt, -1},
		{typeOf[rune](), CategoryScalar, KindInt32, -1},
		{typeOf[float32](), CategoryScalar, KindFloat32, -1},
		{typeOf[string](), CategoryScalar, KindString, -1},
		{typeOf[color](), CategoryEnum, KindInt8, -1},
		{typeOf[time.Duration](), CategoryScalar, KindDuration, -1},
		{typeOf[time.Time](), CategoryScalar, KindTime, -1},
		{typeOf[uuid.UUID](), CategoryScalar, KindUUID, -1},
		{typeOf[decimal.Decimal](), CategoryScalar, KindDecimal, -1},
		{typeOf[*int](), CategoryNullable, KindInvalid, -1},
		{typeOf[[]byte](), CategoryByteArray, KindInvalid, -1},
		{typeOf[[4]byte](), CategoryByteArray, KindInvalid, 4},
		{typeOf[[]int](), CategoryCollection, KindInvalid, -1},
		{typeOf[[3]int](), CategoryCollection, KindInvalid, 3},
		{typeOf[map[string]int](), CategoryMap, KindInvalid, -1},
		{typeOf[emptyObject](), CategoryObject, KindInvalid, -1},
		{typeOf[fmt.Stringer](), CategoryInterface, KindInvalid, -1},
	}
	for _, c := range cases {
		t.Run(c.typ.String(), func(t *testing.T) {
			d, err := Get(c.typ)
			require.NoError(t, err)
			assert.Equal(t, c.category, d.Category)
			assert.Equal(t, c.scalar, d.Scalar)
			assert.Equal(t, c.length, d.Len)
		})
	}
}

func TestClassifyIsCached(t *testing.T) {
	d1, err := Get(typeOf[indexed]())
	require.NoError(t, err)
	d2, err := Get(typeOf[indexed]())
	require.NoError(t, err)
	assert.Same(t, d1, d2)
	assert.True(t, IsResolved(typeOf[indexed]()))
}

func TestSetShapedMap(t *testing.T) {
	d, err := Get(typeOf[map[int]struct{}]())
	require.NoError(t, err)
	assert.True(t, d.IsSet)
	assert.Equal(t, typeOf[int](), d.Key)

	d, err = Get(typeOf[map[int]bool]())
	require.NoError(t, err)
	assert.False(t, d.IsSet)
}

func TestUnsupportedKinds(t *testing.T) {
	for _, typ := range []reflect.Type{typeOf[chan int](), typeOf[func() error]()} {
		_, err := Get(typ)
		assert.ErrorIs(t, err, merr.ErrUnsupportedType)
		assert.True(t, merr.IsSetupError(err))
		assert.False(t, IsResolved(typ))
	}
}

func TestMemberIndexes(t *testing.T) {
	d, err := Get(typeOf[indexed]())
	require.NoError(t, err)
	require.Len(t, d.Members, 4)

	names := func(members []*Member) []string {
		ret := make([]string, 0, len(members))
		for _, m := range members {
			ret = append(ret, m.Name)
		}
		return ret
	}
	assert.Equal(t, []string{"A", "B", "C", "dee"}, names(d.Members))
	assert.Equal(t, []string{"B", "A", "C", "dee"}, names(d.ByIndex))

	assert.Equal(t, 1, d.ByName["A"].Index)
	assert.Equal(t, 0, d.ByName["B"].Index)
	assert.Equal(t, 2, d.ByName["C"].Index)
	assert.Equal(t, 5, d.ByName["dee"].Index)
	assert.Equal(t, 3, d.ByName["dee"].WireIndex(true))
	assert.Equal(t, 5, d.MaxIndex(false))
	assert.Equal(t, 3, d.MaxIndex(true))

	v := reflect.ValueOf(indexed{D: 9})
	assert.Equal(t, 9, int(d.ByName["dee"].Value(v).Int()))
}

func TestMemberErrors(t *testing.T) {
	type dupName struct {
		A int
		B int `bin:"A"`
	}
	type dupIndex struct {
		A int `bin:",index=1"`
		B int `bin:",index=1"`
	}
	type badOption struct {
		A int `bin:",size=1"`
	}
	type badIndex struct {
		A int `bin:",index=-2"`
	}

	_, err := Get(typeOf[dupName]())
	assert.ErrorIs(t, err, merr.ErrDuplicateMember)
	_, err = Get(typeOf[dupIndex]())
	assert.ErrorIs(t, err, merr.ErrDuplicateMember)
	_, err = Get(typeOf[badOption]())
	assert.ErrorIs(t, err, merr.ErrInvalidOption)
	_, err = Get(typeOf[badIndex]())
	assert.ErrorIs(t, err, merr.ErrInvalidOption)

	longName := strings.Repeat("n", MaxNameLength+1)
	longType := reflect.StructOf([]reflect.StructField{{
		Name: "Field",
		Type: typeOf[int](),
		Tag:  reflect.StructTag(`bin:"` + longName + `"`),
	}})
	_, err = Get(longType)
	assert.ErrorIs(t, err, merr.ErrMemberNameTooLong)
}

type point struct {
	X     int
	Y     int
	Label string
}

type pair struct {
	Left  int
	Right int
}

type partial struct {
	A int
	B string
}

type withDefault struct {
	A   int
	via string
}

type noZero struct {
	A int
}

type lateRegistered struct {
	A int
}

func TestConstructorSelection(t *testing.T) {
	require.NoError(t, RegisterType[point](
		WithConstructor(func(x, y int) point { return point{X: x, Y: y} }, "x", "y"),
		WithConstructor(func(x, y int, label string) (*point, error) {
			return &point{X: x, Y: y, Label: label}, nil
		}, "X", "Y", "label"),
	))

	d, err := Get(typeOf[point]())
	require.NoError(t, err)
	require.Len(t, d.Constructors, 2)
	assert.False(t, d.ZeroValue)
	assert.True(t, d.Collect())
	require.Same(t, d.Constructors[1], d.Creator)
	assert.True(t, d.Creator.Binds(d.ByName["Label"]))

	v, err := d.Creator.Call(d.Creator.Args(map[string]reflect.Value{
		"X":     reflect.ValueOf(1),
		"Label": reflect.ValueOf("p"),
	}))
	require.NoError(t, err)
	assert.Equal(t, point{X: 1, Label: "p"}, v.Interface())
}

func TestConstructorTieBreak(t *testing.T) {
	first := func(l, r int) pair { return pair{Left: l, Right: r} }
	second := func(r, l int) pair { return pair{Left: l, Right: r} }
	require.NoError(t, RegisterType[pair](
		WithConstructor(first, "left", "right"),
		WithConstructor(second, "right", "left"),
	))
	d, err := Get(typeOf[pair]())
	require.NoError(t, err)
	assert.Same(t, d.Constructors[0], d.Creator)
}

func TestConstructorPartialMatch(t *testing.T) {
	require.NoError(t, RegisterType[partial](
		WithConstructor(func(q int) partial { return partial{} }, "q"),
		WithConstructor(func(a int, z string) partial { return partial{A: a, B: z} }, "a", "zz"),
	))
	d, err := Get(typeOf[partial]())
	require.NoError(t, err)
	require.Same(t, d.Constructors[1], d.Creator)
	assert.Equal(t, 1, d.Creator.Matched())
	assert.False(t, d.Creator.FullyMatched())
}

func TestConstructorPrefersParameterless(t *testing.T) {
	require.NoError(t, RegisterType[withDefault](
		WithConstructor(func(a int) withDefault { return withDefault{A: a, via: "args"} }, "a"),
		WithConstructor(func() withDefault { return withDefault{via: "default"} }),
	))
	d, err := Get(typeOf[withDefault]())
	require.NoError(t, err)
	require.Len(t, d.Constructors, 2)
	require.Same(t, d.Constructors[1], d.Creator)
	assert.False(t, d.Collect())

	v, err := d.Creator.Call(nil)
	require.NoError(t, err)
	assert.Equal(t, "default", v.Interface().(withDefault).via)
}

func TestConstructorFailure(t *testing.T) {
	type failing struct{ A int }
	require.NoError(t, RegisterType[failing](
		WithConstructor(func(a int) (failing, error) { return failing{}, errors.New("boom") }, "a"),
	))
	d, err := Get(typeOf[failing]())
	require.NoError(t, err)
	_, err = d.Creator.Call([]reflect.Value{reflect.ValueOf(1)})
	assert.EqualError(t, err, "boom")
}

func TestInvalidConstructors(t *testing.T) {
	type target struct{ A int }
	cases := map[string]Option{
		"not a func":   WithConstructor(42),
		"wrong result": WithConstructor(func() int { return 0 }),
		"names":        WithConstructor(func(a int) target { return target{} }),
		"error result": WithConstructor(func() (target, int) { return target{}, 0 }),
	}
	for name, opt := range cases {
		t.Run(name, func(t *testing.T) {
			err := RegisterType[target](opt)
			assert.ErrorIs(t, err, merr.ErrInvalidConstructor)
		})
	}

	type level int16
	require.NoError(t, RegisterType[level](WithConstructor(func() level { return 0 })))
	_, err := Get(typeOf[level]())
	assert.ErrorIs(t, err, merr.ErrInvalidConstructor)
}

func TestMissingConstructor(t *testing.T) {
	require.NoError(t, RegisterType[noZero](WithoutZeroValue()))
	_, err := Get(typeOf[noZero]())
	assert.ErrorIs(t, err, merr.ErrMissingConstructor)
	assert.True(t, merr.IsSetupError(err))
}

func TestRegisterAfterResolve(t *testing.T) {
	_, err := Get(typeOf[lateRegistered]())
	require.NoError(t, err)
	err = RegisterType[lateRegistered](WithoutZeroValue())
	assert.ErrorIs(t, err, merr.ErrTypeAlreadyResolved)
}

func TestTypeNames(t *testing.T) {
	type named struct{ A int }
	type other struct{ A int }

	name, ok := NameOf(typeOf[time.Time]())
	require.True(t, ok)
	assert.Equal(t, "time.Time", name)

	require.NoError(t, RegisterType[named](WithName("typeinfo.named")))
	name, ok = NameOf(typeOf[named]())
	require.True(t, ok)
	assert.Equal(t, "typeinfo.named", name)

	typ, ok := TypeByName("typeinfo.named")
	require.True(t, ok)
	assert.Equal(t, typeOf[named](), typ)

	assert.NoError(t, RegisterTypeName("typeinfo.named", typeOf[named]()))
	assert.ErrorIs(t, RegisterName("typeinfo.named", other{}), merr.ErrDuplicateMember)
	assert.ErrorIs(t, RegisterName("typeinfo.other", named{}), merr.ErrDuplicateMember)
	assert.ErrorIs(t, RegisterName("", other{}), merr.ErrMemberNameTooLong)

	_, ok = TypeByName("typeinfo.missing")
	assert.False(t, ok)
}
