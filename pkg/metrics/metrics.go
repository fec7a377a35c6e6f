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

package metrics

import (
	// #nosec
	_ "net/http/pprof"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// byteconvNamespace 是当前项目所有 Prometheus 指标使用的命名空间。
	byteconvNamespace = "byteconv"

	codecSubsystem = "codec"

	directionLabelName = "direction"
	errorTypeLabelName = "error_type"

	EncodeLabel  = "encode"
	DecodeLabel  = "decode"
	PrepareLabel = "prepare"
)

var (
	// buckets 为调用耗时直方图的桶划分，单位为毫秒。
	// 实际桶分布为：
	// [0.01 0.02 0.04 ... 163.84]
	buckets = prometheus.ExponentialBuckets(0.01, 2, 15)

	// sizeBuckets 为单次输出/输入大小的桶划分，单位为字节。
	sizeBuckets = prometheus.ExponentialBuckets(64, 4, 10)

	CodecBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: byteconvNamespace,
			Subsystem: codecSubsystem,
			Name:      "bytes_total",
			Help:      "编解码处理的字节总数",
		}, []string{directionLabelName})

	CodecCallBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: byteconvNamespace,
			Subsystem: codecSubsystem,
			Name:      "call_bytes",
			Help:      "单次 Encode/Decode 调用处理的字节数",
			Buckets:   sizeBuckets,
		}, []string{directionLabelName})

	CodecLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: byteconvNamespace,
			Subsystem: codecSubsystem,
			Name:      "call_latency",
			Help:      "单次 Encode/Decode 调用的耗时（毫秒）",
			Buckets:   buckets,
		}, []string{directionLabelName})

	CodecSuspensions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: byteconvNamespace,
			Subsystem: codecSubsystem,
			Name:      "suspensions_total",
			Help:      "因数据或空间不足而挂起的次数",
		}, []string{directionLabelName})

	CodecErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: byteconvNamespace,
			Subsystem: codecSubsystem,
			Name:      "errors_total",
			Help:      "编解码错误次数，按阶段和错误类别区分",
		}, []string{directionLabelName, errorTypeLabelName})

	UnknownMembers = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: byteconvNamespace,
			Subsystem: codecSubsystem,
			Name:      "unknown_members_total",
			Help:      "读取时跳过的未知成员个数",
		})

	BatchTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: byteconvNamespace,
			Subsystem: codecSubsystem,
			Name:      "batch_tasks_total",
			Help:      "批量序列化提交到协程池的任务数",
		}, []string{directionLabelName})

	metricRegisterer prometheus.Registerer
	registerOnce     sync.Once
)

// GetRegisterer 返回全局 Prometheus Registerer。
// 如果尚未通过 Register 显式设置，则返回 prometheus.DefaultRegisterer。
func GetRegisterer() prometheus.Registerer {
	if metricRegisterer == nil {
		return prometheus.DefaultRegisterer
	}
	return metricRegisterer
}

// Register 注册当前定义的所有指标，重复调用只生效一次。
func Register(r prometheus.Registerer) {
	registerOnce.Do(func() {
		r.MustRegister(CodecBytes)
		r.MustRegister(CodecCallBytes)
		r.MustRegister(CodecLatency)
		r.MustRegister(CodecSuspensions)
		r.MustRegister(CodecErrors)
		r.MustRegister(UnknownMembers)
		r.MustRegister(BatchTasks)
		metricRegisterer = r
	})
}
