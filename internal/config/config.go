package config

import (
	"os"
	"strconv"
)

// Source kinds accepted in the SOURCE env var.
const (
	SourceSynthetic = "synthetic"
	SourceV4L2      = "v4l2"
)

type Config struct {
	Source       string
	Device       string
	Width        int
	Height       int
	PixelFormat  string
	PoolSize     int
	InternalAddr string
	SynthFPS     int
	ConsumeHz    int
}

func Load() *Config {
	return &Config{
		Source:       getEnv("SOURCE", SourceSynthetic),
		Device:       getEnv("DEVICE", "/dev/video0"),
		Width:        getEnvInt("WIDTH", 1280),
		Height:       getEnvInt("HEIGHT", 720),
		PixelFormat:  getEnv("PIXEL_FORMAT", "rgb24"),
		PoolSize:     getEnvInt("POOL_SIZE", 128),
		InternalAddr: getEnv("INTERNAL_ADDR", ":9091"),
		SynthFPS:     getEnvInt("SYNTH_FPS", 30),
		ConsumeHz:    getEnvInt("CONSUME_HZ", 60),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
