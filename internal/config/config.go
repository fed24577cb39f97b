package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper" // 导入 Viper
)

// Config 结构体包含所有应用的配置
type Config struct {
	Server        ServerConfig        `mapstructure:"server"` // `mapstructure` 标签用于Viper绑定结构体
	MySQL         MySQLConfig         `mapstructure:"mysql"`
	Redis         RedisConfig         `mapstructure:"redis"`
	RabbitMQ      RabbitMQConfig      `mapstructure:"rabbitmq"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	GitHub        GitHubConfig        `mapstructure:"github"`
	Share         ShareConfig         `mapstructure:"share"`
	Crypto        CryptoConfig        `mapstructure:"crypto"`
	Log           LogConfig           `mapstructure:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"` // development / production
}

// MySQLConfig 数据库配置
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RabbitMQConfig RabbitMQ配置
type RabbitMQConfig struct {
	URL string `mapstructure:"url"`
}

// ElasticsearchConfig 定义 Elasticsearch 连接配置
type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	Index     string   `mapstructure:"index"` // 访问审计事件索引名
}

// JWTConfig JWT配置
type JWTConfig struct {
	SecretKey string        `mapstructure:"secret_key"`
	ExpiresIn time.Duration `mapstructure:"expires_in"` // 使用 time.Duration 更清晰
	Issuer    string        `mapstructure:"issuer"`
}

// GitHubConfig 上游内容提供方配置
type GitHubConfig struct {
	APIBaseURL string        `mapstructure:"api_base_url"` // 默认 https://api.github.com
	Timeout    time.Duration `mapstructure:"timeout"`      // 单次上游请求超时，默认 10s
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`    // 树/文件内容的缓存时长
}

// ShareConfig 分享链接策略配置
type ShareConfig struct {
	MaxFileSize int64 `mapstructure:"max_file_size"` // 在线展示的文件大小上限（字节）
}

// CryptoConfig 凭证加密配置
type CryptoConfig struct {
	CredentialKey string `mapstructure:"credential_key"` // 32字节密钥的 hex 编码
}

// zap日志配置
type LogConfig struct {
	OutputPath string `mapstructure:"output_path"`
	ErrorPath  string `mapstructure:"error_path"`
	Level      string `mapstructure:"level"`
}

var AppConfig *Config // 全局应用配置实例

// LoadConfig 加载配置
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")           // 配置文件名 (不带扩展名)
	viper.SetConfigType("yaml")             // 配置文件类型
	viper.AddConfigPath(".")                // 在当前目录查找配置文件
	viper.AddConfigPath("./configs")        // 也可以添加其他路径，例如 ./configs/
	viper.AddConfigPath("/etc/privolio/")   // 生产环境常见路径

	// 读取环境变量，例如 SERVER.PORT 对应环境变量 PRIVOLIO_SERVER_PORT
	viper.SetEnvPrefix("PRIVOLIO")
	viper.AutomaticEnv()
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	// 默认值，配置文件和环境变量都缺失时生效
	viper.SetDefault("server.port", "3000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("github.api_base_url", "https://api.github.com")
	viper.SetDefault("github.timeout", 10*time.Second)
	viper.SetDefault("github.cache_ttl", 5*time.Minute)
	viper.SetDefault("share.max_file_size", int64(1<<20)) // 1MB
	viper.SetDefault("elasticsearch.index", "privolio-access-events")
	viper.SetDefault("jwt.expires_in", 60*time.Minute)
	viper.SetDefault("jwt.issuer", "privolio")
	viper.SetDefault("log.level", "info")

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// 配置文件未找到不是致命错误，可以依赖环境变量和默认值
			log.Println("Warning: config file not found, using environment variables or default values.")
		} else {
			log.Fatalf("Fatal error reading config file: %s \n", err)
			return nil, err
		}
	}

	// 将读取到的配置绑定到结构体
	AppConfig = &Config{}
	if err := viper.Unmarshal(AppConfig); err != nil {
		log.Fatalf("Fatal error unmarshaling config: %s \n", err)
		return nil, err
	}

	log.Println("Configuration loaded successfully with Viper.")
	return AppConfig, nil
}
