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
	Port              string
	MongoURI          string
	MongoDB           string
	MongoTransactions bool
	RedisAddr         string
	RedisPassword     string
	JWTSecret         string
	TokenTTL          time.Duration
	OTPTTL            time.Duration
	RazorpayKeyID     string
	RazorpayKeySecret string
	RazorpayBaseURL   string
	GatewayTimeout    time.Duration
	CORSOrigins       []string
	RateLimitPerMin   int
	RateLimitBurst    int
	IdempotencyTTL    time.Duration
}

func Default() Config {
	return Config{
		Port:              ":5000",
		MongoURI:          "mongodb://localhost:27017",
		MongoDB:           "freshcart",
		MongoTransactions: false,
		RedisAddr:         "localhost:6379",
		TokenTTL:          7 * 24 * time.Hour,
		OTPTTL:            5 * time.Minute,
		RazorpayBaseURL:   "https://api.razorpay.com",
		GatewayTimeout:    30 * time.Second,
		CORSOrigins:       []string{"http://localhost:5173"},
		RateLimitPerMin:   30,
		RateLimitBurst:    10,
		IdempotencyTTL:    24 * time.Hour,
	}
}

// Load reads .env if present and overlays the environment on Default.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found; using system environment")
	}
	return FromEnv(Default())
}

func FromEnv(c Config) Config {
	if v := os.Getenv("PORT"); v != "" {
		if v[0] != ':' {
			v = ":" + v
		}
		c.Port = v
	}
	if v := os.Getenv("MONGO_URI"); v != "" {
		c.MongoURI = v
	}
	if v := os.Getenv("MONGO_DB"); v != "" {
		c.MongoDB = v
	}
	if v := os.Getenv("MONGO_TRANSACTIONS"); v != "" {
		c.MongoTransactions = parseBool(v, c.MongoTransactions)
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		c.TokenTTL = parseDuration(v, c.TokenTTL)
	}
	if v := os.Getenv("OTP_TTL"); v != "" {
		c.OTPTTL = parseDuration(v, c.OTPTTL)
	}
	if v := os.Getenv("RAZORPAY_KEY_ID"); v != "" {
		c.RazorpayKeyID = v
	}
	if v := os.Getenv("RAZORPAY_KEY_SECRET"); v != "" {
		c.RazorpayKeySecret = v
	}
	if v := os.Getenv("RAZORPAY_BASE_URL"); v != "" {
		c.RazorpayBaseURL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("GATEWAY_TIMEOUT"); v != "" {
		c.GatewayTimeout = parseDuration(v, c.GatewayTimeout)
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			c.CORSOrigins = origins
		}
	}
	if v := os.Getenv("RATE_LIMIT_PER_MINUTE"); v != "" {
		c.RateLimitPerMin = parseInt(v, c.RateLimitPerMin)
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		c.RateLimitBurst = parseInt(v, c.RateLimitBurst)
	}
	if v := os.Getenv("IDEMPOTENCY_TTL"); v != "" {
		c.IdempotencyTTL = parseDuration(v, c.IdempotencyTTL)
	}
	return c
}

func parseInt(v string, def int) int {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("config: ignoring bad number %q", v)
		return def
	}
	return n
}

func parseBool(v string, def bool) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("config: ignoring bad boolean %q", v)
		return def
	}
	return b
}

// parseDuration accepts Go durations ("90s") or plain seconds ("90").
func parseDuration(v string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	log.Printf("config: ignoring bad duration %q", v)
	return def
}
