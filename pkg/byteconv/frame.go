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

	"github.com/lk2023060901/byteconv-go/pkg/byteconv/cursor"
	"github.com/lk2023060901/byteconv-go/pkg/util/merr"
	"github.com/lk2023060901/byteconv-go/pkg/util/typeutil"
)

// frameState 是一个转换器调用的进度。
type frameState uint8

const (
	stateNotStarted frameState = iota
	stateAwaitingKey
	stateAwaitingMemberValue
	stateDraining
	stateEnumerating
	// stateAwaitingValue 表示头部（空标记、长度、类型名）已处理，正在处理值本身。
	stateAwaitingValue
)

// frame 记录某一嵌套深度上正在进行的转换器调用。
// 转换器本身不保存任何数据进度，挂起后再次进入时从 frame 恢复。
type frame struct {
	state frameState
	// phase 是转换器内部的子状态（例如 map 的 key/value 阶段）。
	phase uint8

	// 当前成员在写入顺序中的位置，或当前元素下标。
	index int
	// 集合的元素个数。
	count int

	// 读取方：当前成员值结束处的绝对偏移。
	memberEnd int64
	// 读取方：尚需丢弃的未知成员字节数。
	drain  int64
	member *memberConverter

	// 字符串/字节数组的分段进度。
	off int
	buf []byte

	// tmp/key 是成员或元素的临时值。
	tmp reflect.Value
	key reflect.Value
	// 写入方：map key 的快照，保证挂起前后的遍历顺序一致。
	keys []reflect.Value

	// 装箱值的具体类型。
	concrete reflect.Type

	collected map[string]reflect.Value
}

func (f *frame) reset() {
	if f.collected != nil {
		releaseCollected(f.collected)
	}
	*f = frame{}
}

// 收集模式下的成员值表在进程内复用。
var collectedPool = typeutil.NewConcurrentStack[map[string]reflect.Value]()

func acquireCollected() map[string]reflect.Value {
	if m, ok := collectedPool.Pop(); ok {
		return m
	}
	return make(map[string]reflect.Value)
}

func releaseCollected(m map[string]reflect.Value) {
	clear(m)
	collectedPool.Push(m)
}

// frameStack 是按深度索引的显式栈，跨多次调用复用。
// 元素是指针，栈增长时已取得的 frame 地址保持不变。
type frameStack struct {
	frames   []*frame
	maxDepth int
}

func (s *frameStack) at(depth int) (*frame, error) {
	if depth > s.maxDepth {
		return nil, merr.WrapErrMaxDepthExceeded(depth)
	}
	for len(s.frames) <= depth {
		s.frames = append(s.frames, &frame{})
	}
	return s.frames[depth], nil
}

func (s *frameStack) clear() {
	for i := range s.frames {
		s.frames[i].reset()
	}
}

// decodeState 是一次反序列化的全部可变状态。
type decodeState struct {
	opts *Options
	r    cursor.Reader
	// base 是当前输入区间首字节在整个数据流中的偏移。
	base int64
	// bound 是当前成员值结束处的绝对偏移，-1 表示不受限。
	bound int64
	stack frameStack
	// need 是最近一次挂起时至少还需要的字节数。
	need     int
	suspends int
	drained  int
}

func newDecodeState(opts *Options) *decodeState {
	return &decodeState{
		opts:  opts,
		bound: -1,
		stack: frameStack{maxDepth: opts.MaxDepth},
	}
}

func (s *decodeState) frame(depth int) (*frame, error) {
	return s.stack.at(depth)
}

// short 记录挂起并返回未完成。
func (s *decodeState) short(need int) (bool, error) {
	if need < 1 {
		need = 1
	}
	s.need = need
	s.suspends++
	return false, nil
}

// pos 返回当前读取位置在数据流中的绝对偏移。
func (s *decodeState) pos() int64 {
	return s.base + int64(s.r.Pos())
}

// checkLength 校验一个即将读取的长度没有越过当前成员的边界。
func (s *decodeState) checkLength(what string, n int64) error {
	if n > int64(s.opts.MaxCollectionLength) {
		return merr.WrapErrMalformedLength(what, n, int64(s.opts.MaxCollectionLength))
	}
	if s.bound >= 0 {
		if limit := s.bound - s.pos(); n > limit {
			return merr.WrapErrMalformedLength(what, n, limit)
		}
	}
	return nil
}

// encodeState 是一次序列化的全部可变状态。
type encodeState struct {
	opts     *Options
	w        cursor.Writer
	stack    frameStack
	need     int
	suspends int
}

func newEncodeState(opts *Options) *encodeState {
	return &encodeState{
		opts:  opts,
		stack: frameStack{maxDepth: opts.MaxDepth},
	}
}

func (s *encodeState) frame(depth int) (*frame, error) {
	return s.stack.at(depth)
}

func (s *encodeState) short(need int) (bool, error) {
	if need < 1 {
		need = 1
	}
	s.need = need
	s.suspends++
	return false, nil
}

// sizer 只计算编码长度，不写入数据。
type sizer struct {
	opts *Options
}

func (z sizer) check(depth int) error {
	if depth > z.opts.MaxDepth {
		return merr.WrapErrMaxDepthExceeded(depth)
	}
	return nil
}
