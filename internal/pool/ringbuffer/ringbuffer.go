// Copyright (c) 2019 The Gnet Authors. All rights reserved.
// Copyright (c) 2016 Aliaksandr Valialkin, VertaMedia
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Use of this source code is governed by a MIT license that can be found
// at https://github.com/valyala/bytebufferpool/blob/master/LICENSE

// Package ringbuffer 为流式解码提供环形缓冲区对象池。
//
// 池按归还时的容量分档计数，每累计 calibrateThreshold 次归还重新校准：
// 最常见的容量作为新缓冲区的初始容量，覆盖 95% 归还次数的最大容量作为
// 回收上限，超过上限的缓冲区直接丢弃，避免个别大值长期占用内存。
package ringbuffer

import (
	"math/bits"
	"slices"
	"sync"

	"go.uber.org/atomic"

	"github.com/lk2023060901/byteconv-go/pkg/buffer/ring"
)

const (
	minBitSize = 6 // 64 字节
	steps      = 20

	minSize = 1 << minBitSize

	calibrateThreshold = 42000
	retainPercentile   = 0.95
)

// RingBuffer 是 ring.Buffer 的别名。
type RingBuffer = ring.Buffer

// Pool 是自校准的环形缓冲区对象池，零值可用。
type Pool struct {
	calls       [steps]atomic.Uint64
	calibrating atomic.Bool

	defaultSize atomic.Uint64
	maxSize     atomic.Uint64

	pool sync.Pool
}

var builtinPool Pool

// Get 从默认池中获取一个空的环形缓冲区，用完后通过 Put 归还。
func Get() *RingBuffer { return builtinPool.Get() }

// Put 将缓冲区归还到默认池，归还后不能再访问。
func Put(b *RingBuffer) { builtinPool.Put(b) }

// Get 返回一个空的环形缓冲区。
func (p *Pool) Get() *RingBuffer {
	if v := p.pool.Get(); v != nil {
		return v.(*RingBuffer)
	}
	return ring.New(int(p.defaultSize.Load()))
}

// Put 清空 b 并归还，容量超过当前回收上限时丢弃。
func (p *Pool) Put(b *RingBuffer) {
	if b == nil {
		return
	}
	if p.calls[index(b.Cap())].Inc() > calibrateThreshold {
		p.calibrate()
	}
	if limit := p.maxSize.Load(); limit == 0 || uint64(b.Cap()) <= limit {
		b.Reset()
		p.pool.Put(b)
	}
}

// DefaultSize 返回新建缓冲区的初始容量，尚未校准时为 0。
func (p *Pool) DefaultSize() int {
	return int(p.defaultSize.Load())
}

// MaxSize 返回可回收的最大容量，尚未校准时为 0（不限）。
func (p *Pool) MaxSize() int {
	return int(p.maxSize.Load())
}

type bucket struct {
	calls uint64
	size  uint64
}

func (p *Pool) calibrate() {
	if !p.calibrating.CompareAndSwap(false, true) {
		return
	}
	defer p.calibrating.Store(false)

	buckets := make([]bucket, steps)
	var total uint64
	for i := range buckets {
		n := p.calls[i].Swap(0)
		total += n
		buckets[i] = bucket{calls: n, size: minSize << i}
	}
	slices.SortStableFunc(buckets, func(a, b bucket) int {
		switch {
		case a.calls > b.calls:
			return -1
		case a.calls < b.calls:
			return 1
		}
		return 0
	})

	defaultSize := buckets[0].size
	maxSize := defaultSize
	limit := uint64(float64(total) * retainPercentile)
	var covered uint64
	for _, b := range buckets {
		if covered > limit {
			break
		}
		covered += b.calls
		maxSize = max(maxSize, b.size)
	}

	p.defaultSize.Store(defaultSize)
	p.maxSize.Store(maxSize)
}

// index 返回容量 n 所在的档位，第 i 档覆盖 (minSize<<(i-1), minSize<<i]。
func index(n int) int {
	n--
	n >>= minBitSize
	idx := 0
	if n > 0 {
		idx = bits.Len(uint(n))
	}
	return min(idx, steps-1)
}
