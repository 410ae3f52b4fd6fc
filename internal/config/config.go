package config

import (
	"errors"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Server      struct {
		Port            string `env:"PORT" envDefault:"3000"`
		ReadTimeout     int    `env:"READ_TIMEOUT" envDefault:"10"`
		WriteTimeout    int    `env:"WRITE_TIMEOUT" envDefault:"60"` // 排班生成可能耗时较长，写超时需要放宽
		IdleTimeout     int    `env:"IDLE_TIMEOUT" envDefault:"60"`
		ShutdownTimeout int    `env:"SHUTDOWN_TIMEOUT" envDefault:"10"`
	} `envPrefix:"SERVER_"`
	Database struct {
		DSN                string `env:"DSN,required"`
		ConnectTimeout     int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
		QueryTimeout       int    `env:"QUERY_TIMEOUT" envDefault:"10"`
		TransactionTimeout int    `env:"TRANSACTION_TIMEOUT" envDefault:"20"`
		MaxOpenConns       int    `env:"MAX_OPEN_CONNS" envDefault:"10"`
		MaxIdleConns       int    `env:"MAX_IDLE_CONNS" envDefault:"10"`
		MaxIdleTime        int    `env:"MAX_IDLE_TIME" envDefault:"60"`
	} `envPrefix:"DATABASE_"`
	Scheduler struct {
		TimeBudget        int     `env:"TIME_BUDGET" envDefault:"30"` // 秒
		DependentMaxDays  float64 `env:"DEPENDENT_MAX_DAYS" envDefault:"10"`
		CoverageWeight    float64 `env:"COVERAGE_WEIGHT" envDefault:"100"`
		RequestWeight     float64 `env:"REQUEST_WEIGHT" envDefault:"10"`
		FairnessWeight    float64 `env:"FAIRNESS_WEIGHT" envDefault:"5"`
		BalanceWeight     float64 `env:"BALANCE_WEIGHT" envDefault:"1"`
		PriorityWeight    float64 `env:"PRIORITY_WEIGHT" envDefault:"2"`
		GenerationLockTTL int     `env:"GENERATION_LOCK_TTL" envDefault:"60"` // 秒
	} `envPrefix:"SCHEDULER_"`
	Modification struct {
		DefaultAmount int `env:"DEFAULT_AMOUNT" envDefault:"2"` // 指令未给出数量时的默认增减量
	} `envPrefix:"MODIFICATION_"`
	NLP struct {
		BaseURL   string `env:"BASE_URL" envDefault:"https://api.anthropic.com"`
		APIKey    string `env:"API_KEY,required"`
		Model     string `env:"MODEL" envDefault:"claude-sonnet-4-20250514"`
		MaxTokens int    `env:"MAX_TOKENS" envDefault:"1024"`
		Timeout   int    `env:"TIMEOUT" envDefault:"30"`
	} `envPrefix:"NLP_"`
	Export struct {
		PDFFontPath string `env:"PDF_FONT_PATH"` // CJK 需要 UTF-8 TTF 字体
	} `envPrefix:"EXPORT_"`
	Email struct {
		From       string `env:"FROM,required"`
		UserDomain string `env:"USER_DOMAIN" envDefault:"example.com"` // 种子数据生成邮箱时使用
		SMTP struct {
			Username    string `env:"USERNAME,required"`
			Password    string `env:"PASSWORD,required"`
			Host        string `env:"HOST,required"`
			Port        int    `env:"PORT" envDefault:"465"`
			DialTimeout int    `env:"DIAL_TIMEOUT" envDefault:"10"`
		} `envPrefix:"SMTP_"`
	} `envPrefix:"EMAIL_"`
	RabbitMQ struct {
		DSN            string `env:"DSN,required"`
		PublishTimeout int    `env:"PUBLISH_TIMEOUT" envDefault:"10"`
	} `envPrefix:"RABBITMQ_"`
	Redis struct {
		Host           string `env:"HOST" envDefault:"localhost"`
		Port           int    `env:"PORT" envDefault:"6379"`
		Password       string `env:"PASSWORD,required"`
		ConnectTimeout int    `env:"CONNECT_TIMEOUT" envDefault:"10"`
	} `envPrefix:"REDIS_"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		aggErr := env.AggregateError{}
		if ok := errors.As(err, &aggErr); ok {
			// 只返回第一个错误使得日志更清晰
			return nil, aggErr.Errors[0]
		}
	}

	return cfg, nil
}
