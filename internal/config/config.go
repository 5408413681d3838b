package config

import (
	"os"
	"path/filepath"
)

type Config struct {
	Server    ServerConfig
	Ollama    OllamaConfig
	Storage   StorageConfig
	Retrieval RetrievalConfig
	Extract   ExtractConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port int
	// APIToken protects the HTTP API with bearer auth when non-empty.
	// Empty means the API is open (the server only binds to localhost).
	APIToken string
}

type OllamaConfig struct {
	BaseURL     string
	ChatModel   string
	EmbedModel  string
	MaxTokens   int
	Temperature float64
}

type StorageConfig struct {
	DataDir string
}

type RetrievalConfig struct {
	TopK int
}

type ExtractConfig struct {
	// DPI used when rasterizing pages for OCR.
	DPI int
	// OCRLanguages is a comma-separated list of Tesseract language codes.
	OCRLanguages string
	// PdftoppmPath locates the poppler rasterizer binary.
	PdftoppmPath string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4600,
		},
		Ollama: OllamaConfig{
			BaseURL:     "http://localhost:11434",
			ChatModel:   "llama3.2:latest",
			EmbedModel:  "nomic-embed-text",
			MaxTokens:   250,
			Temperature: 0.5,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Retrieval: RetrievalConfig{
			TopK: 5,
		},
		Extract: ExtractConfig{
			DPI:          300,
			OCRLanguages: "eng",
			PdftoppmPath: "pdftoppm",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from the JSON file backend at
// $XDG_CONFIG_HOME/pdfchat/config.json, then applies PDFCHAT_*
// environment variable overrides.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b Backend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	return cfg, nil
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "pdfchat-data"
		}
	}
	return filepath.Join(dir, "pdfchat")
}

func configFilePath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "pdfchat", "config.json")
}
