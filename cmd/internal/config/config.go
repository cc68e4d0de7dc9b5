package config

import (
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/partner-m/assist-go/cmd/pkg/logging"
)

// LLMConfig описывает подключение к LLM-провайдеру.
// Провайдер "disabled" превращает все LLM-этапы пайплайна в no-op
// с причиной "llm_disabled" — поиск при этом остается детерминированным.
type LLMConfig struct {
	Enabled        bool   `yaml:"enabled" env:"LLM_ENABLED" env-default:"false"`
	Provider       string `yaml:"provider" env:"LLM_PROVIDER" env-default:"disabled"` // disabled, ollama, gigachat
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"LLM_TIMEOUT_SECONDS" env-default:"30"`
}

type OllamaConfig struct {
	BaseURL    string `yaml:"base_url" env:"OLLAMA_BASE_URL" env-default:"http://ollama:11434"`
	Model      string `yaml:"model" env:"OLLAMA_MODEL" env-default:"qwen2.5:1.5b-instruct"`
	NumPredict int    `yaml:"num_predict" env:"OLLAMA_NUM_PREDICT" env-default:"96"`
	NumCtx     int    `yaml:"num_ctx" env:"OLLAMA_NUM_CTX" env-default:"1024"`
	KeepAlive  string `yaml:"keep_alive" env:"OLLAMA_KEEP_ALIVE" env-default:"10m"`
}

type GigaChatConfig struct {
	OAuthURL         string `yaml:"oauth_url" env:"GIGACHAT_OAUTH_URL" env-default:"https://ngw.devices.sberbank.ru:9443/api/v2/oauth"`
	BasicAuthKey     string `yaml:"basic_auth_key" env:"GIGACHAT_BASIC_AUTH_KEY"`
	Scope            string `yaml:"scope" env:"GIGACHAT_SCOPE" env-default:"GIGACHAT_API_PERS"`
	APIBaseURL       string `yaml:"api_base_url" env:"GIGACHAT_API_BASE_URL" env-default:"https://gigachat.devices.sberbank.ru/api/v1"`
	Model            string `yaml:"model" env:"GIGACHAT_MODEL" env-default:"GigaChat"`
	TimeoutSeconds   int    `yaml:"timeout_seconds" env:"GIGACHAT_TIMEOUT_SECONDS" env-default:"20"`
	TokenCachePrefix string `yaml:"token_cache_prefix" env:"GIGACHAT_TOKEN_CACHE_PREFIX" env-default:"gigachat:token"`
	VerifySSL        bool   `yaml:"verify_ssl" env:"GIGACHAT_VERIFY_SSL" env-default:"true"`
}

// OneCConfig — параметры синхронизации каталога из 1С и токен вебхуков.
type OneCConfig struct {
	Enabled             bool   `yaml:"enabled" env:"ONE_C_ENABLED" env-default:"false"`
	BaseURL             string `yaml:"base_url" env:"ONE_C_BASE_URL"`
	Username            string `yaml:"username" env:"ONE_C_USERNAME"`
	Password            string `yaml:"password" env:"ONE_C_PASSWORD"`
	SyncIntervalMinutes int    `yaml:"sync_interval_minutes" env:"ONE_C_SYNC_INTERVAL_MINUTES" env-default:"10"`
	WebhookToken        string `yaml:"webhook_token" env:"ONE_C_WEBHOOK_TOKEN"`
}

type Config struct {
	IsDebug *bool `yaml:"is_debug" env:"IS_DEBUG" env-default:"false"`
	Listen  struct {
		Type   string `yaml:"type" env-default:"port"`
		BindIP string `yaml:"bind_ip" env-default:"127.0.0.1"`
		Port   string `yaml:"port" env-default:"8080"`
	} `yaml:"listen"`

	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL" env-default:"postgres://bot:bot@db:5432/bot?sslmode=disable"`
	// Пустой redis_url отключает кэширование: все чтения идут напрямую в БД.
	RedisURL string `yaml:"redis_url" env:"REDIS_URL"`

	LLM      LLMConfig      `yaml:"llm"`
	Ollama   OllamaConfig   `yaml:"ollama"`
	GigaChat GigaChatConfig `yaml:"gigachat"`
	OneC     OneCConfig     `yaml:"one_c"`

	// Подсказки авторизации для диалогового слоя (вне ядра поиска).
	AdminPhone   string `yaml:"admin_phone" env:"ADMIN_PHONE"`
	AdminTgID    int64  `yaml:"admin_tg_id" env:"ADMIN_TG_ID"`
	ManagerPhone string `yaml:"manager_phone" env:"MANAGER_PHONE"`
}

var instance *Config
var once sync.Once

func GetConfig() *Config {
	once.Do(func() {
		logger := logging.GetLogger()
		logger.Info("read application configuration")
		instance = &Config{}
		if err := cleanenv.ReadConfig("./cmd/config/config.yml", instance); err != nil {
			// Конфиг-файл опционален: в контейнере все приходит из окружения.
			if envErr := cleanenv.ReadEnv(instance); envErr != nil {
				help, _ := cleanenv.GetDescription(instance, nil)
				logger.Info(help)
				logger.Fatal(envErr)
			}
		}
	})

	return instance
}

// LLMAvailable сообщает, можно ли вообще звать LLM: флаг включен,
// провайдер выбран и для gigachat есть ключ авторизации.
func (c *Config) LLMAvailable() bool {
	if !c.LLM.Enabled || c.LLM.Provider == "" || c.LLM.Provider == "disabled" {
		return false
	}
	if c.LLM.Provider == "gigachat" && c.GigaChat.BasicAuthKey == "" {
		return false
	}
	return true
}
