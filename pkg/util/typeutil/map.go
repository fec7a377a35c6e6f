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

package typeutil

import (
	"sync"

	"go.uber.org/atomic"
)

// ConcurrentMap 是 sync.Map 的泛型封装，适合写一次、读多次的缓存场景。
type ConcurrentMap[K comparable, V any] struct {
	inner sync.Map
	len   atomic.Int64
}

func NewConcurrentMap[K comparable, V any]() *ConcurrentMap[K, V] {
	return &ConcurrentMap[K, V]{}
}

// Len 返回元素个数。
func (m *ConcurrentMap[K, V]) Len() int {
	return int(m.len.Load())
}

// Insert 写入或覆盖 key 对应的值。
func (m *ConcurrentMap[K, V]) Insert(key K, value V) {
	_, loaded := m.inner.Swap(key, value)
	if !loaded {
		m.len.Inc()
	}
}

func (m *ConcurrentMap[K, V]) Get(key K) (V, bool) {
	var zero V
	value, ok := m.inner.Load(key)
	if !ok {
		return zero, ok
	}
	return value.(V), true
}

// GetOrInsert 返回 key 已有的值；不存在时写入 value 并返回它。
// 第二个返回值表示是否命中了已有的值。
func (m *ConcurrentMap[K, V]) GetOrInsert(key K, value V) (V, bool) {
	actual, loaded := m.inner.LoadOrStore(key, value)
	if !loaded {
		m.len.Inc()
	}
	return actual.(V), loaded
}

// Remove 删除 key，返回被删除的值。
func (m *ConcurrentMap[K, V]) Remove(key K) (V, bool) {
	var zero V
	value, loaded := m.inner.LoadAndDelete(key)
	if !loaded {
		return zero, false
	}
	m.len.Dec()
	return value.(V), true
}

// Range 遍历所有元素，回调返回 false 时提前终止。
func (m *ConcurrentMap[K, V]) Range(fn func(key K, value V) bool) {
	m.inner.Range(func(key, value any) bool {
		return fn(key.(K), value.(V))
	})
}

// Keys 返回所有 key 的快照。
func (m *ConcurrentMap[K, V]) Keys() []K {
	ret := make([]K, 0, m.Len())
	m.inner.Range(func(key, value any) bool {
		ret = append(ret, key.(K))
		return true
	})
	return ret
}
