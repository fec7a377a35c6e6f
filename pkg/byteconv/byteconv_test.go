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
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/byteconv-go/pkg/util/merr"
)

type level int16

const (
	levelDebug level = iota
	levelInfo
)

type (
	flag8  uint8
	flag32 int32
	flag64 uint64
)

type address struct {
	Street string
	Zip    *int32
}

type emptyObject struct{}

type sample struct {
	B    bool
	I8   int8
	I16  int16
	I32  int32
	I64  int64
	I    int
	U8   uint8
	U16  uint16
	U32  uint32
	U64  uint64
	U    uint
	F32  float32
	F64  float64
	C64  complex64
	C128 complex128
	R    rune
	S    string

	Lvl level
	E8  flag8
	E32 flag32 `bin:"e32"`
	E64 flag64
	Dur time.Duration
	At  time.Time
	ID  uuid.UUID

	Raw   []byte
	Fixed [4]byte
	Ints  []int
	Grid  [2][2]int16
	Tags  map[string]int
	Set   map[int]struct{}
	Opt   *float64
	OptI8 *int8

	Home  *address
	Homes []*address
	Empty emptyObject

	Skip int `bin:"-"`
}

func ptr[T any](v T) *T {
	return &v
}

func newSample() sample {
	return sample{
		B:    true,
		I8:   math.MinInt8,
		I16:  math.MaxInt16,
		I32:  math.MinInt32,
		I64:  math.MaxInt64,
		I:    math.MinInt64,
		U8:   math.MaxUint8,
		U16:  math.MaxUint16,
		U32:  math.MaxUint32,
		U64:  math.MaxUint64,
		U:    0,
		F32:  -math.MaxFloat32,
		F64:  math.SmallestNonzeroFloat64,
		C64:  complex(1.5, -2.25),
		C128: complex(math.MaxFloat64, math.Inf(-1)),
		R:    '中',
		S:    "hello, 世界",
		Lvl:  level(999),
		E8:   flag8(200),
		E32:  flag32(-7),
		E64:  flag64(math.MaxUint64),
		Dur:  -3 * time.Second,
		At:   time.Date(2024, 2, 29, 23, 59, 59, 999999999, time.UTC),
		ID:   uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),

		Raw:   []byte{0, 1, 2, 0xFF},
		Fixed: [4]byte{9, 8, 7, 6},
		Ints:  []int{},
		Grid:  [2][2]int16{{1, -1}, {math.MinInt16, math.MaxInt16}},
		Tags:  map[string]int{"b": 2, "a": 1, "": 0},
		Set:   map[int]struct{}{3: {}, 1: {}},
		Opt:   ptr(0.5),
		Home:  &address{Street: "Main", Zip: ptr(int32(12345))},
		Homes: []*address{
			{Street: "First"},
			nil,
			{Street: "", Zip: ptr(int32(0))},
		},

		Skip: 42,
	}
}

// roundTrip 完整编解码一次，再校验分块编码和任意位置切分解码的结果与之一致。
func roundTrip[T any](t *testing.T, v T, opts ...Option) T {
	t.Helper()
	data, err := Serialize(v, opts...)
	require.NoError(t, err)

	enc, err := newEncoder(reflect.ValueOf(&v).Elem(), opts)
	require.NoError(t, err)
	size, err := enc.Size()
	require.NoError(t, err)
	assert.Equal(t, len(data), size)

	assert.Equal(t, data, encodeInChunks(t, v, 64, opts...))

	got, err := Deserialize[T](data, opts...)
	require.NoError(t, err)
	for at := 0; at <= len(data); at++ {
		split := decodeSplit[T](t, data, at, opts...)
		require.Equal(t, got, split, "split at %d", at)
	}
	return got
}

// encodeInChunks 用长度为 chunk 的输出区间反复编码。
func encodeInChunks[T any](t *testing.T, v T, chunk int, opts ...Option) []byte {
	t.Helper()
	enc, err := newEncoder(reflect.ValueOf(&v).Elem(), opts)
	require.NoError(t, err)
	var out []byte
	buf := make([]byte, chunk)
	for i := 0; ; i++ {
		require.Less(t, i, 1<<20, "encoder makes no progress")
		n, done, err := enc.encode(buf)
		require.NoError(t, err)
		out = append(out, buf[:n]...)
		if done {
			break
		}
	}
	assert.Equal(t, int64(len(out)), enc.Written())
	return out
}

// decodeSplit 把 data 在 at 处切成两段依次喂给 Decoder，未消费的字节留给下一次调用。
func decodeSplit[T any](t *testing.T, data []byte, at int, opts ...Option) T {
	t.Helper()
	var ret T
	dec, err := NewDecoder(reflect.TypeOf(&ret).Elem(), opts...)
	require.NoError(t, err)

	pending := append([]byte(nil), data[:at]...)
	n, done, err := dec.Decode(pending)
	require.NoError(t, err)
	if !done {
		assert.Positive(t, dec.Needed())
		pending = append(pending[n:], data[at:]...)
		n, done, err = dec.Decode(pending)
		require.NoError(t, err)
		require.True(t, done, "split at %d", at)
	}
	require.Equal(t, len(pending), n)
	require.Equal(t, int64(len(data)), dec.Consumed())
	require.Zero(t, dec.Needed())

	reflect.ValueOf(&ret).Elem().Set(dec.Value())
	return ret
}

// decodeBytewise 每次只追加一个字节。
func decodeBytewise[T any](t *testing.T, data []byte, opts ...Option) T {
	t.Helper()
	var ret T
	dec, err := NewDecoder(reflect.TypeOf(&ret).Elem(), opts...)
	require.NoError(t, err)

	var pending []byte
	for i := 0; i < len(data); i++ {
		require.False(t, dec.Done())
		pending = append(pending, data[i])
		n, _, err := dec.Decode(pending)
		require.NoError(t, err)
		pending = pending[n:]
	}
	require.True(t, dec.Done())
	require.Empty(t, pending)
	reflect.ValueOf(&ret).Elem().Set(dec.Value())
	return ret
}

func TestRoundTripSample(t *testing.T) {
	want := newSample()
	for _, opts := range [][]Option{
		nil,
		{UsePropertyNames()},
		{WithIndexWidth(IndexWidthUint16)},
		{UsePropertyNames(), WithIndexWidth(IndexWidthUint16)},
		{IgnoreIndexOverrides()},
	} {
		got := roundTrip(t, want, opts...)
		assert.Zero(t, got.Skip)
		got.Skip = want.Skip
		assert.Equal(t, want, got)
	}
}

func TestRoundTripScalars(t *testing.T) {
	t.Run("integers", func(t *testing.T) {
		for _, v := range []int64{math.MinInt64, -1, 0, 1, math.MaxInt64} {
			assert.Equal(t, v, roundTrip(t, v))
		}
		for _, v := range []uint16{0, 1, math.MaxUint16} {
			assert.Equal(t, v, roundTrip(t, v))
		}
		assert.Equal(t, int8(math.MinInt8), roundTrip(t, int8(math.MinInt8)))
		assert.Equal(t, uint32(math.MaxUint32), roundTrip(t, uint32(math.MaxUint32)))
	})

	t.Run("floats", func(t *testing.T) {
		for _, v := range []float64{0, math.Copysign(0, -1), 0.1, -math.MaxFloat64, math.SmallestNonzeroFloat64, math.Inf(1)} {
			got := roundTrip(t, v)
			assert.Equal(t, math.Float64bits(v), math.Float64bits(got))
		}
		assert.Equal(t, float32(math.MaxFloat32), roundTrip(t, float32(math.MaxFloat32)))

		// NaN 不等于自身，只比较位模式。
		for _, bits := range []uint32{0x7FC00001, 0x7F800001, 0xFF800123} {
			nan := math.Float32frombits(bits)
			got, err := Deserialize[float32](mustSerialize(t, nan))
			require.NoError(t, err)
			assert.Equal(t, bits, math.Float32bits(got), "%#x", bits)
		}

		signaling := math.Float32frombits(0x7F800001)
		c, err := Deserialize[complex64](mustSerialize(t, complex(signaling, float32(-1.5))))
		require.NoError(t, err)
		assert.Equal(t, uint32(0x7F800001), math.Float32bits(real(c)))
		assert.Equal(t, float32(-1.5), imag(c))

		// map 的值不可寻址。
		m, err := Deserialize[map[string]float32](mustSerialize(t, map[string]float32{"nan": signaling}))
		require.NoError(t, err)
		assert.Equal(t, uint32(0x7F800001), math.Float32bits(m["nan"]))
	})

	t.Run("decimal", func(t *testing.T) {
		for _, s := range []string{"0", "-1.5", "3.14159265358979323846", "-170141183460469231731687303715884105727", "1e-300"} {
			want := decimal.RequireFromString(s)
			got := roundTrip(t, want)
			assert.True(t, want.Equal(got), "%s != %s", want, got)
		}
	})

	t.Run("decimal overflow", func(t *testing.T) {
		for _, s := range []string{
			"170141183460469231731687303715884105728",
			"-170141183460469231731687303715884105729",
		} {
			_, err := Serialize(decimal.RequireFromString(s))
			assert.ErrorIs(t, err, merr.ErrValueOutOfRange, s)
		}

		// 16 字节补码能表示的最小值。
		lowest := decimal.RequireFromString("-170141183460469231731687303715884105728")
		got := roundTrip(t, lowest)
		assert.True(t, lowest.Equal(got), "%s != %s", lowest, got)
	})

	t.Run("time", func(t *testing.T) {
		utc := time.Date(1969, 12, 31, 23, 59, 59, 1, time.UTC)
		assert.Equal(t, utc, roundTrip(t, utc))

		zone := time.FixedZone("CST", 8*3600)
		local := time.Date(2020, 1, 1, 8, 0, 0, 0, zone)
		got := roundTrip(t, local)
		assert.True(t, local.Equal(got))
		_, offset := got.Zone()
		assert.Equal(t, 8*3600, offset)

		// 不足一分钟的偏移原样保留。
		odd := time.Date(1900, 1, 1, 0, 0, 0, 0, time.FixedZone("LMT", 330))
		got = roundTrip(t, odd)
		assert.True(t, odd.Equal(got))
		_, offset = got.Zone()
		assert.Equal(t, 330, offset)

		zero := time.Date(2020, 1, 1, 0, 0, 0, 0, time.FixedZone("", 0))
		got = roundTrip(t, zero)
		assert.NotSame(t, time.UTC, got.Location())
		assert.Equal(t, "", got.Location().String())
	})

	t.Run("enum", func(t *testing.T) {
		assert.Equal(t, levelInfo, roundTrip(t, levelInfo))
		assert.Equal(t, level(math.MinInt16), roundTrip(t, level(math.MinInt16)))
		assert.Equal(t, flag64(math.MaxUint64), roundTrip(t, flag64(math.MaxUint64)))
	})

	t.Run("string", func(t *testing.T) {
		long := strings.Repeat("码", 2000)
		assert.Equal(t, long, roundTrip(t, long))
		assert.Equal(t, "", roundTrip(t, ""))
	})

	t.Run("nullable", func(t *testing.T) {
		assert.Nil(t, roundTrip[*int16](t, nil))
		assert.Equal(t, ptr(int16(-2)), roundTrip(t, ptr(int16(-2))))
		assert.Equal(t, ptr(ptr(levelDebug)), roundTrip(t, ptr(ptr(levelDebug))))
		assert.Equal(t, []*uuid.UUID{nil, ptr(uuid.Nil)}, roundTrip(t, []*uuid.UUID{nil, ptr(uuid.Nil)}))
	})
}

func TestNullAndEmpty(t *testing.T) {
	t.Run("null root", func(t *testing.T) {
		data, err := Serialize[*address](nil)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x00, nullFlag}, data)

		got, err := Deserialize[*address](data)
		require.NoError(t, err)
		assert.Nil(t, got)

		// 非指针类型读到空值时得到零值。
		value, err := Deserialize[address](data)
		require.NoError(t, err)
		assert.Equal(t, address{}, value)
	})

	t.Run("empty object", func(t *testing.T) {
		data, err := Serialize(emptyObject{})
		require.NoError(t, err)
		assert.Equal(t, []byte{0x00, presentFlag, 0xFF}, data)

		got, err := Deserialize[*emptyObject](data)
		require.NoError(t, err)
		assert.NotNil(t, got)
	})

	t.Run("null slots", func(t *testing.T) {
		want := []*emptyObject{nil, {}, nil, {}}
		got := roundTrip(t, want)
		require.Len(t, got, 4)
		assert.Nil(t, got[0])
		assert.NotNil(t, got[1])
		assert.Nil(t, got[2])
		assert.NotNil(t, got[3])
	})

	t.Run("nil versus empty", func(t *testing.T) {
		type holder struct {
			Nil   []int
			Empty []int
			M     map[string]string
			B     []byte
		}
		got := roundTrip(t, holder{Empty: []int{}, M: map[string]string{}, B: []byte{}})
		assert.Nil(t, got.Nil)
		assert.NotNil(t, got.Empty)
		assert.NotNil(t, got.M)
		assert.NotNil(t, got.B)

		assert.Nil(t, roundTrip[[]string](t, nil))
		assert.Nil(t, roundTrip[map[int]bool](t, nil))
		assert.Equal(t, [][]int{nil, {}}, roundTrip(t, [][]int{nil, {}}))
	})
}

type tracked struct {
	Id     uuid.UUID
	Values []int32
	Nested *tracked
}

func TestGuidValuesNested(t *testing.T) {
	want := tracked{Id: uuid.New(), Values: []int32{1, 2, 3}}
	data, err := Serialize(want)
	require.NoError(t, err)

	got, err := Deserialize[tracked](data)
	require.NoError(t, err)
	assert.Nil(t, got.Nested)
	assert.Equal(t, []int32{1, 2, 3}, got.Values)
	assert.Equal(t, want.Id, got.Id)

	deep := tracked{Id: uuid.New(), Nested: &tracked{Id: uuid.New(), Nested: &want}}
	assert.Equal(t, deep, decodeBytewise[tracked](t, mustSerialize(t, deep)))
}

func mustSerialize[T any](t *testing.T, v T, opts ...Option) []byte {
	t.Helper()
	data, err := Serialize(v, opts...)
	require.NoError(t, err)
	return data
}

func TestAddressingModes(t *testing.T) {
	want := newSample()
	byIndex := mustSerialize(t, want)
	byName := mustSerialize(t, want, UsePropertyNames())
	assert.NotEqual(t, byIndex, byName)

	fromIndex, err := Deserialize[sample](byIndex)
	require.NoError(t, err)
	fromName, err := Deserialize[sample](byName, UsePropertyNames())
	require.NoError(t, err)
	assert.Equal(t, fromIndex, fromName)
}

func TestHeaderMismatch(t *testing.T) {
	wide := mustSerialize(t, address{Street: "x"}, WithIndexWidth(IndexWidthUint16))
	_, err := Deserialize[address](wide)
	assert.ErrorIs(t, err, merr.ErrIndexWidthMismatch)
	assert.True(t, merr.IsProtocolError(err))

	narrow := mustSerialize(t, address{Street: "x"})
	_, err = Deserialize[address](narrow, WithIndexWidth(IndexWidthUint16))
	assert.ErrorIs(t, err, merr.ErrIndexWidthMismatch)

	_, err = Deserialize[address](narrow, UsePropertyNames())
	assert.ErrorIs(t, err, merr.ErrAddressingMismatch)

	bad := append([]byte(nil), narrow...)
	bad[0] |= 0x80
	_, err = Deserialize[address](bad)
	assert.ErrorIs(t, err, merr.ErrValueOutOfRange)
}

type recordV2 struct {
	A     int32
	Extra string
	More  []tracked
	B     string `bin:",index=3"`
}

type recordV1 struct {
	A int32
	B string `bin:",index=3"`
}

func TestEncodeAllDecodeAll(t *testing.T) {
	want := newSample()
	enc, err := NewEncoder(&want, UsePropertyNames())
	require.NoError(t, err)
	data, err := enc.EncodeAll()
	require.NoError(t, err)
	assert.Equal(t, mustSerialize(t, want, UsePropertyNames()), data)

	dec, err := NewDecoder(reflect.TypeOf(&sample{}), UsePropertyNames())
	require.NoError(t, err)
	v, err := dec.DecodeAll(data)
	require.NoError(t, err)
	want.Skip = 0
	assert.Equal(t, &want, v.Interface())

	dec, _ = NewDecoder(reflect.TypeOf(sample{}), UsePropertyNames())
	_, err = dec.DecodeAll(data[:len(data)-1])
	assert.ErrorIs(t, err, merr.ErrUnexpectedEOF)

	dec, _ = NewDecoder(reflect.TypeOf(sample{}), UsePropertyNames())
	_, err = dec.DecodeAll(append(data, 0))
	assert.ErrorIs(t, err, merr.ErrTrailingData)
}

func TestUnknownMembersAreDrained(t *testing.T) {
	newer := []recordV2{
		{A: 1, Extra: strings.Repeat("x", 300), More: []tracked{{Values: []int32{7}}}, B: "first"},
		{A: 2, Extra: "y", More: []tracked{}, B: "second"},
	}
	want := []recordV1{{A: 1, B: "first"}, {A: 2, B: "second"}}

	for _, opts := range [][]Option{nil, {UsePropertyNames()}} {
		data := mustSerialize(t, newer, opts...)

		var older []recordV1
		dec, err := NewDecoder(reflect.TypeOf(older), opts...)
		require.NoError(t, err)
		n, done, err := dec.Decode(data)
		require.NoError(t, err)
		require.True(t, done)
		assert.Equal(t, len(data), n)
		assert.Equal(t, want, dec.Value().Interface())
		// 每条记录有两个未知成员。
		assert.Equal(t, 4, dec.state.drained)

		for at := 0; at <= len(data); at++ {
			require.Equal(t, want, decodeSplit[[]recordV1](t, data, at, opts...))
		}
	}
}

type overridden struct {
	A int `bin:",index=2"`
	B int
	C int
}

func TestIndexOverrides(t *testing.T) {
	want := overridden{A: 1, B: 2, C: 3}
	data := mustSerialize(t, want)
	// B 占据索引 0，C 为 1，A 为 2，按索引升序写入。
	assert.Equal(t, byte(0), data[2])

	got, err := Deserialize[overridden](data)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	// 忽略覆盖时按声明顺序重新解释同一份数据。
	got, err = Deserialize[overridden](data, IgnoreIndexOverrides())
	require.NoError(t, err)
	assert.Equal(t, overridden{A: 2, B: 3, C: 1}, got)

	assert.Equal(t, want, roundTrip(t, want, IgnoreIndexOverrides()))
}

type crowded struct {
	A int
	Z int `bin:",index=255"`
}

func TestTooManyMembers(t *testing.T) {
	_, err := Serialize(crowded{})
	assert.ErrorIs(t, err, merr.ErrTooManyMembers)
	assert.True(t, merr.IsSetupError(err))

	_, err = NewDecoder(reflect.TypeOf(crowded{}))
	assert.ErrorIs(t, err, merr.ErrTooManyMembers)

	// 更宽的索引或按名寻址都能容纳。
	assert.Equal(t, crowded{A: 1, Z: 2}, roundTrip(t, crowded{A: 1, Z: 2}, WithIndexWidth(IndexWidthUint16)))
	assert.Equal(t, crowded{A: 1, Z: 2}, roundTrip(t, crowded{A: 1, Z: 2}, UsePropertyNames()))
}

func TestUnsupportedMember(t *testing.T) {
	type withChan struct {
		Name   string
		Events chan int
	}
	_, err := Serialize(withChan{})
	assert.ErrorIs(t, err, merr.ErrUnsupportedType)
	assert.Contains(t, err.Error(), "Events")
}

func TestByteArrayAndCollection(t *testing.T) {
	raw := []byte{1, 2, 3}
	ints := []int32{1, 2, 3}
	rawData := mustSerialize(t, raw)
	intData := mustSerialize(t, ints)
	assert.NotEqual(t, rawData, intData)
	assert.Len(t, rawData, 1+1+4+3)
	assert.Len(t, intData, 1+1+4+3*4)

	assert.Equal(t, raw, roundTrip(t, raw))
	assert.Equal(t, ints, roundTrip(t, ints))

	large := make([]byte, 3*DefaultChunkSize+17)
	for i := range large {
		large[i] = byte(i * 31)
	}
	data := mustSerialize(t, large)
	assert.Equal(t, large, decodeBytewise[[]byte](t, data))
	assert.Equal(t, data, encodeInChunks(t, large, 40))

	arr := [3]uint16{1, 2, math.MaxUint16}
	assert.Equal(t, arr, roundTrip(t, arr))
}

func TestArrayLengthMismatch(t *testing.T) {
	data := mustSerialize(t, [3]int8{1, 2, 3})
	_, err := Deserialize[[2]int8](data)
	assert.ErrorIs(t, err, merr.ErrMalformedLength)

	data = mustSerialize(t, [3]byte{1, 2, 3})
	_, err = Deserialize[[4]byte](data)
	assert.ErrorIs(t, err, merr.ErrMalformedLength)
}

func TestMaps(t *testing.T) {
	want := map[uuid.UUID][]string{
		uuid.MustParse("00000000-0000-0000-0000-000000000001"): {"a"},
		uuid.MustParse("00000000-0000-0000-0000-000000000002"): nil,
	}
	assert.Equal(t, want, roundTrip(t, want))

	nested := map[string]map[int8]*address{"x": {1: {Street: "s"}, 2: nil}}
	assert.Equal(t, nested, roundTrip(t, nested))

	set := map[string]struct{}{"a": {}, "b": {}}
	assert.Equal(t, set, roundTrip(t, set))

	// key 排序后编码结果与 map 的遍历顺序无关。
	m := map[int]int{}
	for i := 0; i < 64; i++ {
		m[i] = i * i
	}
	first := mustSerialize(t, m)
	for i := 0; i < 8; i++ {
		assert.Equal(t, first, mustSerialize(t, m))
	}
}

func TestDecodeErrors(t *testing.T) {
	type single struct {
		A int32
	}
	data := mustSerialize(t, single{A: 7})
	assert.Equal(t, []byte{0, 1, 0, 4, 0, 0, 0, 7, 0, 0, 0, 0xFF}, data)

	t.Run("trailing data", func(t *testing.T) {
		_, err := Deserialize[single](append(append([]byte(nil), data...), 0))
		assert.ErrorIs(t, err, merr.ErrTrailingData)
	})

	t.Run("unexpected eof", func(t *testing.T) {
		for i := 0; i < len(data); i++ {
			_, err := Deserialize[single](data[:i])
			assert.ErrorIs(t, err, merr.ErrUnexpectedEOF, "truncated at %d", i)
		}
	})

	t.Run("member length", func(t *testing.T) {
		short := append([]byte(nil), data...)
		short[3] = 2
		_, err := Deserialize[single](short)
		assert.ErrorIs(t, err, merr.ErrMalformedLength)

		long := append([]byte(nil), data...)
		long[3] = 5
		_, err = Deserialize[single](long)
		assert.ErrorIs(t, err, merr.ErrMalformedLength)
	})

	t.Run("string beyond member", func(t *testing.T) {
		str := mustSerialize(t, address{Street: "abc"})
		// 字符串长度前缀位于 header、空标记、索引、成员长度之后。
		str[7] = 9
		_, err := Deserialize[address](str)
		assert.ErrorIs(t, err, merr.ErrMalformedLength)
	})

	t.Run("null flag", func(t *testing.T) {
		bad := append([]byte(nil), data...)
		bad[1] = 2
		_, err := Deserialize[single](bad)
		assert.ErrorIs(t, err, merr.ErrValueOutOfRange)
	})

	t.Run("time nanoseconds", func(t *testing.T) {
		tm := mustSerialize(t, time.Unix(0, 0).UTC())
		tm[2+8+3] = 0x7F
		_, err := Deserialize[time.Time](tm)
		assert.ErrorIs(t, err, merr.ErrValueOutOfRange)
	})
}

type chain struct {
	V    int
	Next *chain
}

func TestLimits(t *testing.T) {
	var head *chain
	for i := 0; i < 10; i++ {
		head = &chain{V: i, Next: head}
	}

	_, err := Serialize(head, WithMaxDepth(5))
	assert.ErrorIs(t, err, merr.ErrMaxDepthExceeded)

	data := mustSerialize(t, head)
	_, err = Deserialize[*chain](data, WithMaxDepth(5))
	assert.ErrorIs(t, err, merr.ErrMaxDepthExceeded)
	got, err := Deserialize[*chain](data)
	require.NoError(t, err)
	assert.Equal(t, head, got)

	list := mustSerialize(t, make([]int, 10))
	_, err = Deserialize[[]int](list, WithMaxCollectionLength(5))
	assert.ErrorIs(t, err, merr.ErrMalformedLength)
	_, err = Deserialize[string](mustSerialize(t, "0123456789"), WithMaxCollectionLength(5))
	assert.ErrorIs(t, err, merr.ErrMalformedLength)
}

func TestEncoder(t *testing.T) {
	_, err := NewEncoder(nil)
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)

	enc, err := NewEncoder(newSample())
	require.NoError(t, err)
	_, _, err = enc.Encode(make([]byte, MinBufferSize-1))
	assert.ErrorIs(t, err, merr.ErrBufferTooSmall)

	size, err := enc.Size()
	require.NoError(t, err)
	var out []byte
	buf := make([]byte, MinBufferSize)
	for !enc.Done() {
		n, _, err := enc.Encode(buf)
		require.NoError(t, err)
		out = append(out, buf[:n]...)
	}
	assert.Len(t, out, size)
	assert.Equal(t, mustSerialize(t, newSample()), out)

	n, done, err := enc.Encode(buf)
	assert.NoError(t, err)
	assert.True(t, done)
	assert.Zero(t, n)

	_, err = newOptions(WithIndexWidth(3))
	assert.ErrorIs(t, err, merr.ErrInvalidOption)
}

func TestDecoderNeeded(t *testing.T) {
	data := mustSerialize(t, uint64(math.MaxUint64))
	dec, err := NewDecoder(reflect.TypeOf(uint64(0)))
	require.NoError(t, err)

	n, done, err := dec.Decode(nil)
	require.NoError(t, err)
	assert.False(t, done)
	assert.Zero(t, n)
	assert.Equal(t, 1, dec.Needed())

	n, done, err = dec.Decode(data[:3])
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 2, n)
	assert.Equal(t, 7, dec.Needed())

	n, done, err = dec.Decode(data[2:])
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 8, n)
	assert.Equal(t, uint64(math.MaxUint64), dec.Value().Interface())

	_, err = NewDecoder(nil)
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
}

func TestConcurrentUse(t *testing.T) {
	want := newSample()
	want.Skip = 0
	data := mustSerialize(t, want)

	errs := make(chan error, 16)
	for i := 0; i < cap(errs); i++ {
		go func() {
			for j := 0; j < 20; j++ {
				got, err := Deserialize[sample](mustSerializeNoT(want))
				if err == nil && !reflect.DeepEqual(got, want) {
					err = merr.WrapErrParameterInvalid("equal sample", "different sample")
				}
				if err != nil {
					errs <- err
					return
				}
			}
			errs <- nil
		}()
	}
	for i := 0; i < cap(errs); i++ {
		assert.NoError(t, <-errs)
	}
	assert.Equal(t, data, mustSerialize(t, want))
}

func mustSerializeNoT[T any](v T) []byte {
	data, err := Serialize(v)
	if err != nil {
		panic(err)
	}
	return data
}
