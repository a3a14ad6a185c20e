package generatematches

import "time"

type Config struct {
	Timeout      time.Duration
	DefaultLimit int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      10 * time.Second,
		DefaultLimit: 10,
	}
}
