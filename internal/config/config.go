package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DatabaseURL     string
	JWTSecret       string
	TokenTTL        time.Duration
	AllowOrigins    []string
	LogstashTCPAddr string

	SMTPHost     string
	SMTPPort     string
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	PasswordResetTTL        time.Duration
	PasswordResetCodeLength int
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	codeLen := 6
	if v, err := strconv.Atoi(getenv("PASSWORD_RESET_CODE_LENGTH", "6")); err == nil && v > 0 {
		codeLen = v
	}

	return Config{
		Port:            getenv("PORT", "8080"),
		DatabaseURL:     must("DATABASE_URL"),
		JWTSecret:       must("JWT_SECRET"),
		TokenTTL:        duration("TOKEN_TTL", time.Hour),
		AllowOrigins:    splitAndTrim(getenv("ALLOW_ORIGINS", "*")),
		LogstashTCPAddr: getenv("LOGSTASH_TCP_ADDR", ""),

		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPPort:     getenv("SMTP_PORT", ""),
		SMTPUsername: getenv("SMTP_USERNAME", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SMTPFrom:     getenv("SMTP_FROM", ""),

		PasswordResetTTL:        duration("PASSWORD_RESET_TTL", 15*time.Minute),
		PasswordResetCodeLength: codeLen,
	}
}

func duration(k string, d time.Duration) time.Duration {
	if v, err := time.ParseDuration(getenv(k, "")); err == nil && v > 0 {
		return v
	}
	return d
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
