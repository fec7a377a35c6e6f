package viper

import (
	"path/filepath"
	"strings"

	spfviper "github.com/spf13/viper"
)

// Config 封装 spf13/viper 实例，对外提供精简的 YAML/JSON 配置加载接口。
// 配置了环境变量前缀时，环境变量覆盖文件中的同名配置。
type Config struct {
	v *spfviper.Viper
}

// Option 定制 Config。
type Option func(*spfviper.Viper)

// WithEnvPrefix 让形如 PREFIX_SECTION_KEY 的环境变量覆盖 section.key，
// prefix 为空时使用 SECTION_KEY。只对文件中出现过或经 BindEnv 登记的键生效。
func WithEnvPrefix(prefix string) Option {
	return func(v *spfviper.Viper) {
		if prefix != "" {
			v.SetEnvPrefix(prefix)
		}
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
	}
}

// WithDefault 为 key 设置缺省值。
func WithDefault(key string, value any) Option {
	return func(v *spfviper.Viper) {
		v.SetDefault(key, value)
	}
}

// New 创建一个空的 Config。
func New(opts ...Option) *Config {
	v := spfviper.New()
	for _, opt := range opts {
		opt(v)
	}
	return &Config{v: v}
}

// LoadFile 将 YAML 或 JSON 配置文件加载到 Config 中。
// 文件类型通过扩展名（.yaml/.yml/.json）推断，其它扩展名交由 viper 判断。
func (c *Config) LoadFile(path string) error {
	c.v.SetConfigFile(path)
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		c.v.SetConfigType("yaml")
	case ".json":
		c.v.SetConfigType("json")
	}
	return c.v.ReadInConfig()
}

// BindEnv 登记文件中可能缺失、但允许由环境变量提供的键。
func (c *Config) BindEnv(keys ...string) error {
	for _, key := range keys {
		if err := c.v.BindEnv(key); err != nil {
			return err
		}
	}
	return nil
}

// IsSet 返回 key 是否在文件、环境变量或缺省值中出现。
func (c *Config) IsSet(key string) bool {
	return c.v.IsSet(key)
}

// GetString 返回 key 对应的字符串值。
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// UnmarshalKey 将顶层 key 对应的子配置反序列化到 dst。
// dst 应为结构体或 map 的指针；key 不存在时 dst 保持不变。
func (c *Config) UnmarshalKey(key string, dst any) error {
	// viper 取整节时不会应用环境变量，这里经 AllSettings 逐键取值后再解码。
	section, ok := c.v.AllSettings()[strings.ToLower(key)].(map[string]any)
	if !ok {
		return c.v.UnmarshalKey(key, dst)
	}
	sub := spfviper.New()
	if err := sub.MergeConfigMap(section); err != nil {
		return err
	}
	return sub.Unmarshal(dst)
}
