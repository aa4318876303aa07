package config

import (
	"flag"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	DebugMode bool `env:"DEBUG_MODE"` //Режим дебага

	// Параметры приложения в AugmentOS (должны совпадать с dev console)
	PackageName  string `env:"PACKAGE_NAME"`            // Идентификатор пакета приложения
	APIKey       string `env:"AUGMENTOS_API_KEY"`       // Ключ приложения, отправляется в tpa_connection_init
	WebsocketURL string `env:"AUGMENTOS_WEBSOCKET_URL"` // Endpoint облака AugmentOS для сессий

	// Webhook-сервер
	BindHost    string `env:"BIND_HOST"`    // Адрес слушателя без порта
	Port        int    `env:"PORT"`         // Порт, на который AugmentOS шлёт webhook
	WebhookPath string `env:"WEBHOOK_PATH"` // HTTP‑путь для session_request/stop_request

	// Картинки
	AssetsDir   string `env:"ASSETS_DIR"`   // Папка с bmp
	ActiveImage string `env:"ACTIVE_IMAGE"` // Картинка, показываемая в режиме lock-in
	EmptyImage  string `env:"EMPTY_IMAGE"`  // Пустая картинка для очистки дисплея

	WelcomeText      string        `env:"WELCOME_TEXT"`      // Текст при старте сессии; пусто — не показывать
	HandshakeTimeout time.Duration `env:"HANDSHAKE_TIMEOUT"` // Таймаут websocket-рукопожатия и ожидания ack
}

// Defaults возвращает конфигурацию с предустановленными значениями по умолчанию.
// Эти значения перекрываются .env, переменными окружения и флагами CLI.
func Defaults() *Config {
	return &Config{
		DebugMode:        false,
		PackageName:      "org.kese.lockin",
		WebsocketURL:     "wss://dev.augmentos.org/tpa-ws",
		BindHost:         "0.0.0.0",
		Port:             3000,
		WebhookPath:      "/webhook",
		AssetsDir:        "assets",
		ActiveImage:      "test.bmp",
		EmptyImage:       "empty.bmp",
		WelcomeText:      "Lock-in app ready!",
		HandshakeTimeout: 15 * time.Second,
	}
}

// NewConfig загружает конфигурацию приложения.
func NewConfig() *Config {
	return Parse(flag.CommandLine, nil)
}

// Parse собирает конфигурацию: дефолты → .env → окружение → флаги из args.
// args == nil означает os.Args[1:].
func Parse(fs *flag.FlagSet, args []string) *Config {
	_ = godotenv.Load()

	cfg := Defaults()
	_ = env.Parse(cfg)

	fs.BoolVar(&cfg.DebugMode, "debug-mode", cfg.DebugMode, "включить режим дебага (подробные логи)")
	fs.StringVar(&cfg.PackageName, "package-name", cfg.PackageName, "идентификатор пакета приложения AugmentOS")
	fs.StringVar(&cfg.APIKey, "api-key", cfg.APIKey, "API ключ приложения AugmentOS (перекрывает ENV)")
	fs.StringVar(&cfg.WebsocketURL, "websocket-url", cfg.WebsocketURL, "websocket endpoint облака AugmentOS")
	fs.StringVar(&cfg.BindHost, "bind-host", cfg.BindHost, "адрес для прослушивания webhook-сервера")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "порт webhook-сервера")
	fs.StringVar(&cfg.WebhookPath, "webhook-path", cfg.WebhookPath, "HTTP путь webhook (напр. /webhook)")
	fs.StringVar(&cfg.AssetsDir, "assets-dir", cfg.AssetsDir, "папка с картинками")
	fs.StringVar(&cfg.ActiveImage, "active-image", cfg.ActiveImage, "имя bmp, показываемого в режиме lock-in")
	fs.StringVar(&cfg.EmptyImage, "empty-image", cfg.EmptyImage, "имя пустого bmp для очистки")
	fs.StringVar(&cfg.WelcomeText, "welcome-text", cfg.WelcomeText, "приветствие при старте сессии; пусто — без приветствия")
	fs.DurationVar(&cfg.HandshakeTimeout, "handshake-timeout", cfg.HandshakeTimeout, "таймаут подключения к AugmentOS, напр. 15s")
	if args == nil {
		_ = fs.Parse(os.Args[1:])
	} else {
		_ = fs.Parse(args)
	}

	cfg.normalize()
	return cfg
}

// normalize подчищает значения после всех источников.
func (c *Config) normalize() {
	c.PackageName = strings.TrimSpace(c.PackageName)
	c.WebsocketURL = strings.TrimSpace(c.WebsocketURL)
	if c.WebhookPath == "" {
		c.WebhookPath = "/webhook"
	}
	if !strings.HasPrefix(c.WebhookPath, "/") {
		c.WebhookPath = "/" + c.WebhookPath
	}
	if c.Port <= 0 {
		c.Port = 3000
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 15 * time.Second
	}
}

// Addr возвращает адрес слушателя webhook-сервера host:port.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.BindHost, strconv.Itoa(c.Port))
}
