// Package config 负责加载和管理应用程序的配置。
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// 全局配置变量，存储从配置文件加载的所有设置。
var Conf Config

// Config 是整个应用程序的配置结构体，与 config.yaml 文件结构对应。
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Session       SessionConfig       `mapstructure:"session"`
	Log           LogConfig           `mapstructure:"log"`
	Artifacts     ArtifactsConfig     `mapstructure:"artifacts"`
	Dialogue      DialogueConfig      `mapstructure:"dialogue"`
	Gallery       GalleryConfig       `mapstructure:"gallery"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	MinIO         MinIOConfig         `mapstructure:"minio"`
}

// ServerConfig 存储服务器相关的配置。
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// DatabaseConfig 存储所有数据库连接的配置。
type DatabaseConfig struct {
	MySQL MySQLConfig `mapstructure:"mysql"`
	Redis RedisConfig `mapstructure:"redis"`
}

// MySQLConfig 存储 MySQL 数据库的配置。DSN 为空时不启用对话分析落库。
type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig 存储 Redis 的配置。Addr 为空时会话保存在进程内存中。
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SessionConfig 存储会话 cookie、签名密钥及会话存储相关的配置。
type SessionConfig struct {
	Secret         string `mapstructure:"secret"`
	CookieName     string `mapstructure:"cookie_name"`
	TTLHours       int    `mapstructure:"ttl_hours"`
	MaxHistory     int    `mapstructure:"max_history"`
	LockTimeoutMs  int    `mapstructure:"lock_timeout_ms"`
	LockTTLSeconds int    `mapstructure:"lock_ttl_seconds"`
	SecureCookie   bool   `mapstructure:"secure_cookie"`
}

// LogConfig 存储日志相关的配置。
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// ArtifactsConfig 描述训练产物（模型 + 词表）与意图目录的位置。
// Source 为 "minio" 时从 MinIO 存储桶读取，否则读取本地文件。
type ArtifactsConfig struct {
	Source      string `mapstructure:"source"`
	ModelPath   string `mapstructure:"model_path"`
	IntentsPath string `mapstructure:"intents_path"`
	Bucket      string `mapstructure:"bucket"`
}

// DialogueConfig 存储置信度分层策略相关的配置。
type DialogueConfig struct {
	ResolvedThreshold float64             `mapstructure:"resolved_threshold"`
	ClarifyThreshold  float64             `mapstructure:"clarify_threshold"`
	EscalationAfter   int                 `mapstructure:"escalation_after"`
	RandomSeed        int64               `mapstructure:"random_seed"`
	DirectionsURL     string              `mapstructure:"directions_url"`
	EscalationMessage string              `mapstructure:"escalation_message"`
	QuickReplies      map[string][]string `mapstructure:"quick_replies"`
	DefaultReplies    []string            `mapstructure:"default_replies"`
	FallbackReplies   []string            `mapstructure:"fallback_replies"`
}

// GalleryConfig 存储图库类别、触发关键词以及意图到类别的映射。
// Categories 的顺序即关键词匹配时的遍历顺序。
type GalleryConfig struct {
	Categories       []GalleryCategoryConfig `mapstructure:"categories"`
	IntentCategories map[string]string       `mapstructure:"intent_categories"`
	ImageDir         string                  `mapstructure:"image_dir"`
	Bucket           string                  `mapstructure:"bucket"`
	SampleSize       int                     `mapstructure:"sample_size"`
}

// GalleryCategoryConfig 描述单个图库类别。
type GalleryCategoryConfig struct {
	Name        string   `mapstructure:"name"`
	DisplayName string   `mapstructure:"display_name"`
	Keywords    []string `mapstructure:"keywords"`
	Images      []string `mapstructure:"images"`
}

// KafkaConfig 存储 Kafka 相关的配置。Brokers 为空时对话事件直接同步落库。
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

// ElasticsearchConfig 存储 Elasticsearch 相关的配置。Addresses 为空时不索引未识别语句。
type ElasticsearchConfig struct {
	Addresses string `mapstructure:"addresses"`
	Username  string `mapstructure:"username"`
	Password  string `mapstructure:"password"`
	IndexName string `mapstructure:"index_name"`
}

// MinIOConfig 存储 MinIO 对象存储的配置。
type MinIOConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "5000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("session.cookie_name", "chat_session")
	v.SetDefault("session.ttl_hours", 24*7)
	v.SetDefault("session.lock_timeout_ms", 3000)
	v.SetDefault("session.lock_ttl_seconds", 10)
	v.SetDefault("artifacts.source", "file")
	v.SetDefault("artifacts.model_path", "./artifacts/model.json")
	v.SetDefault("artifacts.intents_path", "./artifacts/intents.json")
	v.SetDefault("dialogue.resolved_threshold", 0.75)
	v.SetDefault("dialogue.clarify_threshold", 0.50)
	v.SetDefault("dialogue.escalation_after", 3)
	v.SetDefault("gallery.sample_size", 3)
	v.SetDefault("gallery.image_dir", "./images")
	v.SetDefault("kafka.group_id", "chatbot-turn-events")
	v.SetDefault("elasticsearch.index_name", "unresolved_utterances")
}

// Init 初始化配置加载，从指定的路径读取 YAML 文件并解析到 Conf 变量中。
func Init(configPath string) {
	cfg, err := Load(configPath)
	if err != nil {
		panic(err)
	}
	Conf = *cfg
}

// Load 读取配置文件并返回解析后的配置，不修改全局变量。
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("CHATBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("无法将配置解析到结构体中: %w", err)
	}
	return &cfg, nil
}
