package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	kstrings "kiosk/pkg/platform/strings"
)

// Config is the full kiosk runtime configuration.
type Config struct {
	Server     Server
	Log        Log
	KioskID    string
	Submission Submission
	Capture    Capture
	Detector   Detector
	Audit      Audit
	Redis      RedisConfig

	// Purposes overrides the default visit purposes offered on the form.
	Purposes []string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

type Log struct {
	Level  string
	Format string // "json" | "text"
}

// Submission configures the outbound enrollment request.
type Submission struct {
	Endpoint        string
	Timeout         time.Duration
	NavigationDelay time.Duration
	TokenSecret     string
	TokenIssuer     string
	TokenTTL        time.Duration
	LockTTL         time.Duration
}

// Capture tunes the live detection loop.
type Capture struct {
	FPS                 int `yaml:"fps"`
	MaxDetectionRetries int `yaml:"max_detection_retries"`
}

// Detector points at the landmark inference service and the model it loads.
type Detector struct {
	InferenceURL string        `yaml:"inference_url"`
	Timeout      time.Duration `yaml:"timeout"`
	ModelURL     string        `yaml:"model_url"`
	RuntimeURL   string        `yaml:"runtime_url"`
	Delegate     string        `yaml:"delegate"`
	NumFaces     int           `yaml:"num_faces"`
}

// Audit selects the audit store: "memory", "sqlite" or "postgres".
type Audit struct {
	Store       string
	SQLitePath  string
	PostgresDSN string
	Buffer      int
}

// RedisConfig enables the cross-kiosk submit lock when URL is set.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// overlay is the YAML file shape. Only tuning knobs live here; secrets and
// endpoints stay in the environment.
type overlay struct {
	Purposes []string  `yaml:"purposes"`
	Capture  *Capture  `yaml:"capture"`
	Detector *Detector `yaml:"detector"`
}

// Load reads an optional .env file, builds the config from the environment
// and applies the YAML overlay named by KIOSK_CONFIG_FILE.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	cfg := FromEnv()
	if path := os.Getenv("KIOSK_CONFIG_FILE"); path != "" {
		if err := cfg.ApplyFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	auditStore := strings.ToLower(getenvDefault("KIOSK_AUDIT_STORE", "memory"))

	return Config{
		Server: Server{
			Addr:            getenvDefault("KIOSK_HTTP_ADDR", ":8080"),
			ShutdownTimeout: getenvDuration("KIOSK_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Log: Log{
			Level:  getenvDefault("KIOSK_LOG_LEVEL", "info"),
			Format: strings.ToLower(getenvDefault("KIOSK_LOG_FORMAT", "json")),
		},
		KioskID: getenvDefault("KIOSK_ID", hostnameOr("kiosk")),
		Submission: Submission{
			Endpoint:        getenvDefault("KIOSK_SUBMIT_URL", "http://localhost:3000/api/visitors"),
			Timeout:         getenvDuration("KIOSK_SUBMIT_TIMEOUT", 15*time.Second),
			NavigationDelay: getenvDuration("KIOSK_NAVIGATION_DELAY", 2*time.Second),
			// Use a default for development - should be overridden in production
			TokenSecret: getenvDefault("KIOSK_SUBMIT_TOKEN_SECRET", "dev-secret-key-change-in-production"),
			TokenIssuer: getenvDefault("KIOSK_SUBMIT_TOKEN_ISSUER", "kiosk"),
			TokenTTL:    getenvDuration("KIOSK_SUBMIT_TOKEN_TTL", time.Minute),
			LockTTL:     getenvDuration("KIOSK_SUBMIT_LOCK_TTL", 30*time.Second),
		},
		Capture: Capture{
			FPS:                 getenvInt("KIOSK_CAPTURE_FPS", 15),
			MaxDetectionRetries: getenvInt("KIOSK_MAX_DETECTION_RETRIES", 5),
		},
		Detector: Detector{
			InferenceURL: getenvDefault("KIOSK_INFERENCE_URL", "http://localhost:8500"),
			Timeout:      getenvDuration("KIOSK_INFERENCE_TIMEOUT", 5*time.Second),
			ModelURL:     os.Getenv("KIOSK_MODEL_URL"),
			RuntimeURL:   os.Getenv("KIOSK_MODEL_RUNTIME_URL"),
			Delegate:     os.Getenv("KIOSK_MODEL_DELEGATE"),
			NumFaces:     getenvInt("KIOSK_MODEL_NUM_FACES", 1),
		},
		Audit: Audit{
			Store:       auditStore,
			SQLitePath:  getenvDefault("KIOSK_AUDIT_SQLITE_PATH", "./data/kiosk-audit.db"),
			PostgresDSN: os.Getenv("KIOSK_AUDIT_POSTGRES_DSN"),
			Buffer:      getenvInt("KIOSK_AUDIT_BUFFER", 256),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("KIOSK_REDIS_URL"),
			PoolSize:     getenvInt("KIOSK_REDIS_POOL_SIZE", 10),
			MinIdleConns: getenvInt("KIOSK_REDIS_MIN_IDLE_CONNS", 1),
			DialTimeout:  getenvDuration("KIOSK_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getenvDuration("KIOSK_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getenvDuration("KIOSK_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Purposes: kstrings.SplitList(os.Getenv("KIOSK_PURPOSES")),
	}
}

// ApplyFile overlays the YAML file at path. Zero values in the file leave
// the environment's values in place.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var o overlay
	if err := yaml.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if purposes := kstrings.DedupeAndTrim(o.Purposes); len(purposes) > 0 {
		c.Purposes = purposes
	}
	if o.Capture != nil {
		if o.Capture.FPS > 0 {
			c.Capture.FPS = o.Capture.FPS
		}
		if o.Capture.MaxDetectionRetries > 0 {
			c.Capture.MaxDetectionRetries = o.Capture.MaxDetectionRetries
		}
	}
	if d := o.Detector; d != nil {
		if d.InferenceURL != "" {
			c.Detector.InferenceURL = d.InferenceURL
		}
		if d.Timeout > 0 {
			c.Detector.Timeout = d.Timeout
		}
		if d.ModelURL != "" {
			c.Detector.ModelURL = d.ModelURL
		}
		if d.RuntimeURL != "" {
			c.Detector.RuntimeURL = d.RuntimeURL
		}
		if d.Delegate != "" {
			c.Detector.Delegate = d.Delegate
		}
		if d.NumFaces > 0 {
			c.Detector.NumFaces = d.NumFaces
		}
	}
	return nil
}

// Validate rejects configurations main cannot start with.
func (c Config) Validate() error {
	switch c.Audit.Store {
	case "memory", "sqlite":
	case "postgres":
		if c.Audit.PostgresDSN == "" {
			return fmt.Errorf("KIOSK_AUDIT_POSTGRES_DSN is required for the postgres audit store")
		}
	default:
		return fmt.Errorf("unknown audit store %q", c.Audit.Store)
	}
	if c.Submission.Endpoint == "" {
		return fmt.Errorf("KIOSK_SUBMIT_URL is required")
	}
	if c.Capture.FPS <= 0 {
		return fmt.Errorf("capture fps must be positive")
	}
	return nil
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		return def
	}
	return d
}

func hostnameOr(def string) string {
	h, err := os.Hostname()
	if err != nil || h == "" {
		return def
	}
	return h
}
