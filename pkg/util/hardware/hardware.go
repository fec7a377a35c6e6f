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

package hardware

import (
	"runtime"
	"sync"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"

	"github.com/lk2023060901/byteconv-go/pkg/log"
)

var (
	cpuOnce sync.Once
	cpuNum  int
)

// GetCPUNum 返回可用的逻辑 CPU 数，不会超过 GOMAXPROCS。
func GetCPUNum() int {
	cpuOnce.Do(func() {
		cpuNum = runtime.GOMAXPROCS(0)
		counts, err := cpu.Counts(true)
		if err != nil {
			log.Warn("failed to get cpu counts", zap.Error(err))
			return
		}
		if counts > 0 && counts < cpuNum {
			cpuNum = counts
		}
	})
	return cpuNum
}

// GetMemoryCount 返回物理内存总量（字节），获取失败时返回 0。
func GetMemoryCount() uint64 {
	stats, err := mem.VirtualMemory()
	if err != nil {
		log.Warn("failed to get memory stats", zap.Error(err))
		return 0
	}
	return stats.Total
}

// GetFreeMemoryCount 返回可用内存（字节），获取失败时返回 0。
func GetFreeMemoryCount() uint64 {
	stats, err := mem.VirtualMemory()
	if err != nil {
		log.Warn("failed to get memory stats", zap.Error(err))
		return 0
	}
	return stats.Available
}
