package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Self     SelfConfig     `mapstructure:"self"`
	Peers    []PeerConfig   `mapstructure:"peers"`
	PeerPool PeerPoolConfig `mapstructure:"peer_pool"`
	Lock     LockConfig     `mapstructure:"lock"`
	Dispatch DispatchConfig `mapstructure:"dispatch"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type AppConfig struct {
	Name     string `mapstructure:"name"`
	LogLevel string `mapstructure:"log_level"`
}

// SelfConfig 本节点信息，Name 即写入 user_ip:{uid} 的节点名
type SelfConfig struct {
	Name       string `mapstructure:"name"`
	RPCAddr    string `mapstructure:"rpc_addr"`
	HealthAddr string `mapstructure:"health_addr"`
}

// PeerConfig 对端节点（启动时静态配置，运行期不变）
type PeerConfig struct {
	Name string `mapstructure:"name"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr 返回 host:port
func (p PeerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}

type PeerPoolConfig struct {
	Size            int           `mapstructure:"size"`
	CheckoutTimeout time.Duration `mapstructure:"checkout_timeout"`
	CallTimeout     time.Duration `mapstructure:"call_timeout"`
}

// LockConfig 登录分布式锁参数
type LockConfig struct {
	Lease          time.Duration `mapstructure:"lease"`
	AcquireTimeout time.Duration `mapstructure:"acquire_timeout"`
	RetryInterval  time.Duration `mapstructure:"retry_interval"`
}

type DispatchConfig struct {
	HandleTimeout time.Duration `mapstructure:"handle_timeout"`
}

type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Name            string        `mapstructure:"name"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// setDefaults 默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "chat-logic")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("self.rpc_addr", ":50055")
	v.SetDefault("self.health_addr", ":8081")
	v.SetDefault("peer_pool.size", 5)
	v.SetDefault("peer_pool.checkout_timeout", 2*time.Second)
	v.SetDefault("peer_pool.call_timeout", 3*time.Second)
	v.SetDefault("lock.lease", 5*time.Second)
	v.SetDefault("lock.acquire_timeout", time.Second)
	v.SetDefault("lock.retry_interval", 10*time.Millisecond)
	v.SetDefault("dispatch.handle_timeout", 5*time.Second)
	v.SetDefault("nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("nats.max_reconnects", -1)
	v.SetDefault("nats.reconnect_wait", 2*time.Second)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 20)
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
}

// Load 从指定路径加载配置，环境变量 CHAT_* 可覆盖（如 CHAT_SELF_NAME）
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate 校验节点与对端配置
func (c *Config) Validate() error {
	if c.Self.Name == "" {
		return errors.New("config: self.name is required")
	}

	seen := make(map[string]struct{}, len(c.Peers))
	for _, p := range c.Peers {
		if p.Name == "" {
			return errors.New("config: peer name is required")
		}
		if p.Name == c.Self.Name {
			return fmt.Errorf("config: peer %q has the same name as self", p.Name)
		}
		if _, ok := seen[p.Name]; ok {
			return fmt.Errorf("config: duplicate peer %q", p.Name)
		}
		seen[p.Name] = struct{}{}
	}
	return nil
}
