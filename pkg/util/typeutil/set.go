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
	"iter"
	"sync"
)

// Set 是基于 map[T]struct{} 的集合类型，非并发安全。
type Set[T comparable] map[T]struct{}

func NewSet[T comparable](elements ...T) Set[T] {
	set := make(Set[T], len(elements))
	set.Insert(elements...)
	return set
}

// Insert 将元素插入集合，已存在的元素被忽略。
func (set Set[T]) Insert(elements ...T) {
	for _, e := range elements {
		set[e] = struct{}{}
	}
}

// Contain 判断给定元素是否都在集合中。
func (set Set[T]) Contain(elements ...T) bool {
	for _, e := range elements {
		if _, ok := set[e]; !ok {
			return false
		}
	}
	return true
}

// Remove 从集合中移除元素，不存在的元素被忽略。
func (set Set[T]) Remove(elements ...T) {
	for _, e := range elements {
		delete(set, e)
	}
}

func (set Set[T]) Len() int {
	return len(set)
}

// All 以无序方式遍历集合。
func (set Set[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		for e := range set {
			if !yield(e) {
				return
			}
		}
	}
}

// ConcurrentSet 是基于 sync.Map 的并发安全集合，适合写少读多的缓存标记。
type ConcurrentSet[T comparable] struct {
	inner sync.Map
}

func NewConcurrentSet[T comparable]() *ConcurrentSet[T] {
	return &ConcurrentSet[T]{}
}

// Insert 插入元素，返回元素此前是否不存在。
func (set *ConcurrentSet[T]) Insert(element T) bool {
	_, exist := set.inner.LoadOrStore(element, struct{}{})
	return !exist
}

// Contain 判断给定元素是否都在集合中。
func (set *ConcurrentSet[T]) Contain(elements ...T) bool {
	for _, e := range elements {
		if _, ok := set.inner.Load(e); !ok {
			return false
		}
	}
	return true
}

// TryRemove 移除单个元素，元素不存在时返回 false。
func (set *ConcurrentSet[T]) TryRemove(element T) bool {
	_, exist := set.inner.LoadAndDelete(element)
	return exist
}

// All 遍历集合，遍历期间的并发修改是否可见不确定。
func (set *ConcurrentSet[T]) All() iter.Seq[T] {
	return func(yield func(T) bool) {
		set.inner.Range(func(key, _ any) bool {
			return yield(key.(T))
		})
	}
}
