// Package config loads the service settings from an optional YAML file, a .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/matst80/jobboard/pkg/common"
	"github.com/matst80/jobboard/pkg/types"
	"gopkg.in/yaml.v3"
)

type Api struct {
	Url   string `yaml:"url"`
	Token string `yaml:"token"`
}

type Redis struct {
	Url      string `yaml:"url"`
	Password string `yaml:"password"`
	Db       int    `yaml:"db"`
}

type Rabbit struct {
	Url     string `yaml:"url"`
	Context string `yaml:"context"`
}

type Auth struct {
	TokenKey   string `yaml:"token_key"`
	TokenTtlMs int    `yaml:"token_ttl_ms"`
}

type Server struct {
	ListenAddress string `yaml:"listen_address"`
	DebugAddress  string `yaml:"debug_address"`
	// Timeouts in seconds, as the server helpers expect.
	ReadHeaderTimeout int `yaml:"read_header_timeout"`
	ReadTimeout       int `yaml:"read_timeout"`
	WriteTimeout      int `yaml:"write_timeout"`
	IdleTimeout       int `yaml:"idle_timeout"`
	ShutdownTimeout   int `yaml:"shutdown_timeout"`
	HookTimeout       int `yaml:"hook_timeout"`
}

type Board struct {
	DebounceMs    int     `yaml:"debounce_ms"`
	PageSize      int     `yaml:"page_size"`
	SalaryMin     float64 `yaml:"salary_min"`
	SalaryMax     float64 `yaml:"salary_max"`
	OptionsTtlMs  int     `yaml:"options_ttl_ms"`
	SessionIdleMs int     `yaml:"session_idle_ms"`
	HoverOpenMs   int     `yaml:"hover_open_ms"`
	HoverCloseMs  int     `yaml:"hover_close_ms"`
	PopupPadding  float64 `yaml:"popup_padding"`
	PopupGap      float64 `yaml:"popup_gap"`
}

type Config struct {
	Api    Api    `yaml:"api"`
	Redis  Redis  `yaml:"redis"`
	Rabbit Rabbit `yaml:"rabbit"`
	Auth   Auth   `yaml:"auth"`
	Server Server `yaml:"server"`
	Board  Board  `yaml:"board"`
}

func Default() Config {
	return Config{
		Api:    Api{Url: "http://localhost:3000/api"},
		Rabbit: Rabbit{Context: "web"},
		Auth:   Auth{TokenTtlMs: int((24 * time.Hour).Milliseconds())},
		Server: Server{
			ListenAddress:     ":8080",
			DebugAddress:      ":8081",
			ReadHeaderTimeout: 5,
			ReadTimeout:       15,
			WriteTimeout:      15,
			IdleTimeout:       60,
			ShutdownTimeout:   15,
			HookTimeout:       5,
		},
		Board: Board{
			DebounceMs:    300,
			PageSize:      10,
			SalaryMin:     0,
			SalaryMax:     100_000_000,
			OptionsTtlMs:  int((10 * time.Minute).Milliseconds()),
			SessionIdleMs: int((30 * time.Minute).Milliseconds()),
			HoverOpenMs:   300,
			HoverCloseMs:  300,
			PopupPadding:  16,
			PopupGap:      12,
		},
	}
}

// Load reads the .env files, then the YAML file at path (skipped when empty) and finally the
// environment, each layer overriding the previous one.
func Load(path string, envFiles ...string) (Config, error) {
	loadEnvFiles(envFiles...)
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

func loadEnvFiles(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				log.Printf("failed to load %s: %v", f, err)
			}
		}
	}
}

func applyEnv(cfg *Config) {
	str := func(curr *string, env string) {
		if v, ok := os.LookupEnv(env); ok {
			*curr = v
		}
	}
	num := func(curr *int, env string) {
		if v := os.Getenv(env); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				*curr = n
			}
		}
	}
	str(&cfg.Api.Url, "API_URL")
	str(&cfg.Api.Token, "API_TOKEN")
	str(&cfg.Redis.Url, "REDIS_URL")
	str(&cfg.Redis.Password, "REDIS_PASSWORD")
	str(&cfg.Rabbit.Url, "RABBIT_URL")
	str(&cfg.Auth.TokenKey, "TOKEN_KEY")
	str(&cfg.Server.ListenAddress, "LISTEN_ADDRESS")
	str(&cfg.Server.DebugAddress, "DEBUG_ADDRESS")
	num(&cfg.Board.DebounceMs, "DEBOUNCE_MS")
	num(&cfg.Board.PageSize, "PAGE_SIZE")
	num(&cfg.Server.ReadHeaderTimeout, "READ_HEADER_TIMEOUT")
	num(&cfg.Server.ReadTimeout, "READ_TIMEOUT")
	num(&cfg.Server.WriteTimeout, "WRITE_TIMEOUT")
	num(&cfg.Server.IdleTimeout, "IDLE_TIMEOUT")
	num(&cfg.Server.ShutdownTimeout, "SHUTDOWN_TIMEOUT")
	num(&cfg.Server.HookTimeout, "HOOK_TIMEOUT")
}

var (
	ErrMissingApiUrl = errors.New("api url is required")
	ErrSalaryBounds  = errors.New("salary_min is greater than salary_max")
)

func (c Config) Validate() error {
	if c.Api.Url == "" {
		return ErrMissingApiUrl
	}
	if !c.SalaryBounds().Valid() {
		return ErrSalaryBounds
	}
	return nil
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func (c Config) SalaryBounds() types.SalaryRange {
	return types.SalaryRange{Min: c.Board.SalaryMin, Max: c.Board.SalaryMax}
}

func (b Board) Debounce() time.Duration { return ms(b.DebounceMs) }
func (b Board) OptionsTtl() time.Duration { return ms(b.OptionsTtlMs) }
func (b Board) SessionIdle() time.Duration { return ms(b.SessionIdleMs) }
func (b Board) HoverOpen() time.Duration { return ms(b.HoverOpenMs) }
func (b Board) HoverClose() time.Duration { return ms(b.HoverCloseMs) }
func (a Auth) TokenTtl() time.Duration { return ms(a.TokenTtlMs) }

func (s Server) Timeouts() common.TimeoutConfig {
	sec := func(n int) time.Duration { return time.Duration(n) * time.Second }
	return common.TimeoutConfig{
		ReadHeader: sec(s.ReadHeaderTimeout),
		Read:       sec(s.ReadTimeout),
		Write:      sec(s.WriteTimeout),
		Idle:       sec(s.IdleTimeout),
		Shutdown:   sec(s.ShutdownTimeout),
		Hook:       sec(s.HookTimeout),
	}
}
