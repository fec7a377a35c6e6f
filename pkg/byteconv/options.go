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
	"strings"

	"github.com/lk2023060901/byteconv-go/pkg/util/merr"
	"github.com/lk2023060901/byteconv-go/pkg/util/viper"
)

// IndexWidth 是按索引寻址时成员索引（以及按名寻址时名字长度前缀）的宽度。
type IndexWidth uint8

const (
	IndexWidthByte   IndexWidth = 1
	IndexWidthUint16 IndexWidth = 2
)

// sentinel 返回对象结束标记，即该宽度下的全 1 值。
func (w IndexWidth) sentinel() int {
	if w == IndexWidthUint16 {
		return 0xFFFF
	}
	return 0xFF
}

func (w IndexWidth) String() string {
	if w == IndexWidthUint16 {
		return "uint16"
	}
	return "byte"
}

const (
	DefaultMaxDepth            = 256
	DefaultMaxCollectionLength = 1 << 26
	DefaultChunkSize           = 4096
	// MinBufferSize 是 Encoder.Encode 接受的最小输出区间，
	// 保证最长的原子写入（成员名 + 长度前缀、装箱类型名）总能放下。
	MinBufferSize = 512
)

// 头部标志位。
const (
	flagByName    byte = 1 << 0
	flagWideIndex byte = 1 << 1
	flagBoxed     byte = 1 << 2
	flagMask           = flagByName | flagWideIndex | flagBoxed
)

// Options 是一次序列化/反序列化调用的配置，写入方与读取方需保持一致。
type Options struct {
	// UsePropertyNames 为 true 时按成员名寻址，否则按索引寻址。
	UsePropertyNames bool
	// UseBoxedTypeInfo 为 true 时接口类型的值携带具体类型名。
	UseBoxedTypeInfo bool
	// IgnoreIndexOverrides 为 true 时忽略标签中的 index，按声明顺序编号。
	IgnoreIndexOverrides bool
	IndexWidth           IndexWidth
	MaxDepth             int
	MaxCollectionLength  int
	// ChunkSize 是流式接口每次读写的块大小。
	ChunkSize int
}

// Option 修改 Options。
type Option func(*Options)

func UsePropertyNames() Option {
	return func(o *Options) { o.UsePropertyNames = true }
}

func UseBoxedTypeInfo() Option {
	return func(o *Options) { o.UseBoxedTypeInfo = true }
}

func IgnoreIndexOverrides() Option {
	return func(o *Options) { o.IgnoreIndexOverrides = true }
}

func WithIndexWidth(w IndexWidth) Option {
	return func(o *Options) { o.IndexWidth = w }
}

func WithMaxDepth(n int) Option {
	return func(o *Options) { o.MaxDepth = n }
}

func WithMaxCollectionLength(n int) Option {
	return func(o *Options) { o.MaxCollectionLength = n }
}

func WithChunkSize(n int) Option {
	return func(o *Options) { o.ChunkSize = n }
}

// WithConfig 用配置文件中的值覆盖当前选项。
func WithConfig(cfg *Config) Option {
	return func(o *Options) {
		if cfg == nil {
			return
		}
		o.UsePropertyNames = cfg.UsePropertyNames
		o.UseBoxedTypeInfo = cfg.UseBoxedTypeInfo
		o.IgnoreIndexOverrides = cfg.IgnoreIndexOverrides
		switch strings.ToLower(cfg.IndexWidth) {
		case "uint16", "2":
			o.IndexWidth = IndexWidthUint16
		case "byte", "1":
			o.IndexWidth = IndexWidthByte
		case "":
		default:
			o.IndexWidth = 0
		}
		if cfg.MaxDepth > 0 {
			o.MaxDepth = cfg.MaxDepth
		}
		if cfg.MaxCollectionLength > 0 {
			o.MaxCollectionLength = cfg.MaxCollectionLength
		}
		if cfg.ChunkSize > 0 {
			o.ChunkSize = cfg.ChunkSize
		}
	}
}

func defaultOptions() Options {
	return Options{
		IndexWidth:          IndexWidthByte,
		MaxDepth:            DefaultMaxDepth,
		MaxCollectionLength: DefaultMaxCollectionLength,
		ChunkSize:           DefaultChunkSize,
	}
}

func newOptions(opts ...Option) (*Options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}
	return &o, nil
}

func (o *Options) validate() error {
	if o.IndexWidth != IndexWidthByte && o.IndexWidth != IndexWidthUint16 {
		return merr.WrapErrInvalidOption("IndexWidth", o.IndexWidth)
	}
	if o.MaxDepth <= 0 {
		return merr.WrapErrInvalidOption("MaxDepth", o.MaxDepth)
	}
	if o.MaxCollectionLength <= 0 {
		return merr.WrapErrInvalidOption("MaxCollectionLength", o.MaxCollectionLength)
	}
	if o.ChunkSize < MinBufferSize {
		return merr.WrapErrInvalidOption("ChunkSize", o.ChunkSize)
	}
	return nil
}

func (o *Options) width() int {
	return int(o.IndexWidth)
}

func (o *Options) header() byte {
	var b byte
	if o.UsePropertyNames {
		b |= flagByName
	}
	if o.IndexWidth == IndexWidthUint16 {
		b |= flagWideIndex
	}
	if o.UseBoxedTypeInfo {
		b |= flagBoxed
	}
	return b
}

// checkHeader 比对写入方记录的头部与读取方配置。
func (o *Options) checkHeader(b byte) error {
	if b&^flagMask != 0 {
		return merr.WrapErrValueOutOfRange("header", b)
	}
	written := IndexWidthByte
	if b&flagWideIndex != 0 {
		written = IndexWidthUint16
	}
	if written != o.IndexWidth {
		return merr.WrapErrIndexWidthMismatch(int(written), int(o.IndexWidth))
	}
	if byName := b&flagByName != 0; byName != o.UsePropertyNames {
		return merr.WrapErrAddressingMismatch(byName, o.UsePropertyNames)
	}
	return nil
}

// shapeKey 区分会影响转换器图校验结果的选项组合。
func (o *Options) shapeKey() byte {
	b := o.header()
	if o.IgnoreIndexOverrides {
		b |= 1 << 3
	}
	return b
}

// Config 是可以从 YAML/JSON 文件加载的编解码配置。
type Config struct {
	UsePropertyNames     bool   `mapstructure:"usePropertyNames"`
	UseBoxedTypeInfo     bool   `mapstructure:"useBoxedTypeInfo"`
	IgnoreIndexOverrides bool   `mapstructure:"ignoreIndexOverrides"`
	IndexWidth           string `mapstructure:"indexWidth"`
	MaxDepth             int    `mapstructure:"maxDepth"`
	MaxCollectionLength  int    `mapstructure:"maxCollectionLength"`
	ChunkSize            int    `mapstructure:"chunkSize"`
}

// ConfigKey 是配置文件中编解码配置所在的键。
const ConfigKey = "byteconv"

// LoadConfig 从配置文件的 byteconv 节加载配置。
// 形如 BYTECONV_MAXDEPTH 的环境变量覆盖文件中的同名配置。
func LoadConfig(path string) (*Config, error) {
	v := viper.New(viper.WithEnvPrefix(""))
	if err := v.LoadFile(path); err != nil {
		return nil, merr.WrapErrIoFailed(err, "load byteconv config "+path)
	}
	return ConfigFromViper(v)
}

// ConfigFromViper 从已加载的配置中读取 byteconv 节。
func ConfigFromViper(v *viper.Config) (*Config, error) {
	cfg := &Config{}
	if err := v.UnmarshalKey(ConfigKey, cfg); err != nil {
		return nil, merr.WrapErrParameterInvalid("byteconv config", err.Error())
	}
	if _, err := newOptions(WithConfig(cfg)); err != nil {
		return nil, err
	}
	return cfg, nil
}
