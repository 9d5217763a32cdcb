package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Mode string

const (
	ModeLocal  Mode = "local"  // mock backend, no credentials
	ModeGemini Mode = "gemini" // Gemini API with an API key
	ModeVertex Mode = "vertex" // Vertex AI with a GCP project
)

// AudioDevice selects where speech is played and the microphone recorded.
type AudioDevice string

const (
	AudioBrowser AudioDevice = "browser"
	AudioFile    AudioDevice = "file"
)

type Config struct {
	Mode Mode   `yaml:"mode"`
	Port string `yaml:"port"`

	APIKey       string `yaml:"api_key"`
	GCPProjectID string `yaml:"gcp_project"`
	GCPLocation  string `yaml:"gcp_location"`

	TextModel   string `yaml:"text_model"`
	ImageModel  string `yaml:"image_model"`
	SpeechModel string `yaml:"speech_model"`
	Voice       string `yaml:"voice"`

	// GeminiBaseURL overrides the API endpoint, e.g. for a proxy.
	GeminiBaseURL string `yaml:"gemini_base_url"`

	RequestTimeout  time.Duration `yaml:"request_timeout"`
	QuizSize        int           `yaml:"quiz_size"`
	SpeechCharLimit int           `yaml:"speech_char_limit"`

	AudioDevice    AudioDevice   `yaml:"audio_device"`
	AudioDir       string        `yaml:"audio_dir"`
	MicrophoneFile string        `yaml:"microphone_file"`
	MicTimeout     time.Duration `yaml:"mic_timeout"`

	// SessionIdleTimeout ends sessions with no browser attached and no
	// activity for this long. Zero keeps them until deleted.
	SessionIdleTimeout time.Duration `yaml:"session_idle_timeout"`

	UseMockLLM     bool     `yaml:"use_mock_llm"` // true = use mock even with credentials
	AllowedOrigins []string `yaml:"allowed_origins"`
	LogLevel       string   `yaml:"log_level"`
}

const envPrefix = "SMART_TUTOR_"

func defaults() *Config {
	return &Config{
		Mode:               ModeLocal,
		Port:               "8080",
		GCPLocation:        "us-central1",
		TextModel:          "gemini-2.5-flash",
		ImageModel:         "gemini-2.5-flash-image",
		SpeechModel:        "gemini-2.5-flash-preview-tts",
		Voice:              "Kore",
		RequestTimeout:     60 * time.Second,
		QuizSize:           3,
		SpeechCharLimit:    2000,
		AudioDevice:        AudioBrowser,
		AudioDir:           "audio-out",
		MicTimeout:         30 * time.Second,
		SessionIdleTimeout: 30 * time.Minute,
		AllowedOrigins:     []string{"*"},
		LogLevel:           "info",
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(envPrefix + key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getIntEnv(key string, def int) (int, error) {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	return n, nil
}

func getDurationEnv(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(envPrefix + key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", envPrefix, key, err)
	}
	return d, nil
}

// Load builds the config from defaults, then the YAML file named by
// SMART_TUTOR_CONFIG if set, then individual environment variables.
func Load() (*Config, error) {
	cfg := defaults()

	if path := getEnv("CONFIG", ""); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.Mode = Mode(strings.ToLower(getEnv("MODE", string(c.Mode))))
	c.Port = getEnv("PORT", c.Port)
	if port := os.Getenv("PORT"); port != "" && os.Getenv(envPrefix+"PORT") == "" {
		// Cloud platforms inject PORT.
		c.Port = port
	}

	c.APIKey = getEnv("API_KEY", c.APIKey)
	if c.APIKey == "" {
		c.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	c.GCPProjectID = getEnv("GCP_PROJECT", c.GCPProjectID)
	c.GCPLocation = getEnv("GCP_LOCATION", c.GCPLocation)

	c.TextModel = getEnv("TEXT_MODEL", c.TextModel)
	c.ImageModel = getEnv("IMAGE_MODEL", c.ImageModel)
	c.SpeechModel = getEnv("SPEECH_MODEL", c.SpeechModel)
	c.Voice = getEnv("VOICE", c.Voice)
	c.GeminiBaseURL = getEnv("GEMINI_BASE_URL", c.GeminiBaseURL)

	var err error
	if c.RequestTimeout, err = getDurationEnv("REQUEST_TIMEOUT", c.RequestTimeout); err != nil {
		return err
	}
	if c.MicTimeout, err = getDurationEnv("MIC_TIMEOUT", c.MicTimeout); err != nil {
		return err
	}
	if c.SessionIdleTimeout, err = getDurationEnv("SESSION_IDLE_TIMEOUT", c.SessionIdleTimeout); err != nil {
		return err
	}
	if c.QuizSize, err = getIntEnv("QUIZ_SIZE", c.QuizSize); err != nil {
		return err
	}
	if c.SpeechCharLimit, err = getIntEnv("SPEECH_CHAR_LIMIT", c.SpeechCharLimit); err != nil {
		return err
	}

	c.AudioDevice = AudioDevice(strings.ToLower(getEnv("AUDIO_DEVICE", string(c.AudioDevice))))
	c.AudioDir = getEnv("AUDIO_DIR", c.AudioDir)
	c.MicrophoneFile = getEnv("MICROPHONE_FILE", c.MicrophoneFile)

	c.UseMockLLM = getBoolEnv("USE_MOCK_LLM", c.UseMockLLM || c.Mode == ModeLocal)
	if origins := getEnv("ALLOWED_ORIGINS", ""); origins != "" {
		c.AllowedOrigins = splitList(origins)
	}
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Mode {
	case ModeLocal:
	case ModeGemini:
		if c.APIKey == "" && !c.UseMockLLM {
			errs = append(errs, fmt.Errorf("%sAPI_KEY must be set in gemini mode", envPrefix))
		}
	case ModeVertex:
		if c.GCPProjectID == "" && !c.UseMockLLM {
			errs = append(errs, fmt.Errorf("%sGCP_PROJECT must be set in vertex mode", envPrefix))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown mode %q", c.Mode))
	}

	switch c.AudioDevice {
	case AudioBrowser, AudioFile:
	default:
		errs = append(errs, fmt.Errorf("unknown audio device %q", c.AudioDevice))
	}

	if c.Port == "" {
		errs = append(errs, errors.New("port must be set"))
	}
	if c.QuizSize <= 0 {
		errs = append(errs, fmt.Errorf("quiz size must be positive, got %d", c.QuizSize))
	}
	if c.SpeechCharLimit <= 0 {
		errs = append(errs, fmt.Errorf("speech char limit must be positive, got %d", c.SpeechCharLimit))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("request timeout must not be negative"))
	}
	if c.SessionIdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("session idle timeout must not be negative"))
	}

	return errors.Join(errs...)
}
