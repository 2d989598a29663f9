package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Drivers de armazenamento suportados.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config armazena todas as configurações do aplicativo GoGarantia.
type Config struct {
	// Geral
	Port        string
	Environment string
	LogLevel    string
	StoreDriver string

	// Banco de Dados (PostgreSQL)
	DatabaseURL string
	DBTimeout   time.Duration

	// Cache (Redis)
	RedisAddr    string
	CacheTimeout time.Duration
	CacheTTL     time.Duration

	// Segurança (JWT)
	JWTSecretKey string
	TokenExpiry  time.Duration

	// Rate Limiting
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration

	// CORS
	AllowedOrigins []string

	// E-mail (SMTP)
	EmailHost     string
	EmailPort     int
	EmailSecure   bool
	EmailUser     string
	EmailPassword string
	EmailFrom     string
	EmailTimeout  time.Duration
	EmailLogoURL  string
	EmailLocation *time.Location

	// Administrador inicial
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// LoadConfig carrega as configurações a partir das variáveis de ambiente.
func LoadConfig() *Config {
	driver := getEnv("STORE_DRIVER", StoreDriverPostgres)

	cfg := &Config{
		// 1. Geral
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		StoreDriver: driver,

		// 2. Banco de Dados (PostgreSQL)
		DBTimeout: getDurationEnv("DB_TIMEOUT_SEC", 5) * time.Second,

		// 3. Cache (Redis)
		RedisAddr:    getEnv("REDIS_ADDR", ""),
		CacheTimeout: getDurationEnv("CACHE_TIMEOUT_SEC", 10) * time.Second,
		CacheTTL:     getDurationEnv("CACHE_TTL_SEC", 300) * time.Second,

		// 4. Segurança (JWT)
		JWTSecretKey: mustGetEnv("JWT_SECRET_KEY"),
		TokenExpiry:  getDurationEnv("JWT_EXPIRY_MIN", 60*24) * time.Minute,

		// 5. Rate Limiting
		RateLimitMaxRequests: getIntEnv("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitPeriod:      getDurationEnv("RATE_LIMIT_PERIOD_MIN", 1) * time.Minute,

		// 6. CORS
		AllowedOrigins: getListEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		// 7. E-mail
		EmailHost:     getEnv("EMAIL_HOST", "localhost"),
		EmailPort:     getIntEnv("EMAIL_PORT", 587),
		EmailSecure:   getEnv("EMAIL_SECURE", "false") == "true",
		EmailUser:     getEnv("EMAIL_USER", ""),
		EmailPassword: getEnv("EMAIL_PASS", ""),
		EmailFrom:     getEnv("EMAIL_FROM", "Etherna Joias <contato@ethernajoias.com.br>"),
		EmailTimeout:  getDurationEnv("EMAIL_TIMEOUT_SEC", 15) * time.Second,
		EmailLogoURL:  getEnv("EMAIL_LOGO_URL", ""),
		EmailLocation: getLocationEnv("EMAIL_TIMEZONE"),

		// 8. Administrador inicial
		AdminName:     getEnv("ADMIN_NAME", "Administrador"),
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}

	// Credenciais de DB só são exigidas no driver postgres
	if driver == StoreDriverPostgres {
		cfg.DatabaseURL = mustGetEnv("DATABASE_URL")
	}

	return cfg
}

// Funções Helpers (Auxiliares)

// getEnv lê a variável de ambiente ou retorna um valor padrão.
func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// mustGetEnv lê a variável de ambiente, fatal se não estiver presente.
func mustGetEnv(key string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Fatalf("❌ Erro de Configuração: A variável de ambiente %s deve ser definida.", key)
	return ""
}

// getDurationEnv lê uma variável de ambiente numérica e retorna-a como time.Duration.
// O chamador multiplica pela unidade.
func getDurationEnv(key string, defaultValue int) time.Duration {
	return time.Duration(getIntEnv(key, defaultValue))
}

// getIntEnv lê uma variável de ambiente numérica e retorna-a como int.
func getIntEnv(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("⚠️ Aviso: Valor de %s ('%s') não é um número inteiro válido. Usando padrão (%d).", key, valueStr, defaultValue)
		return defaultValue
	}
	return value
}

// getListEnv lê uma lista separada por vírgulas.
func getListEnv(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// getLocationEnv carrega o fuso informado (ex.: America/Sao_Paulo). Vazio ou inválido usa o fuso local.
func getLocationEnv(key string) *time.Location {
	name := os.Getenv(key)
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Printf("⚠️ Aviso: Fuso horário de %s ('%s') inválido. Usando o fuso local.", key, name)
		return time.Local
	}
	return loc
}
