package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite3"
	StoreDriverMemory   = "memory"
)

type Config struct {
	Env        string
	Port       int
	APIPrefix  string
	Timezone   string
	EnableDocs bool

	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Sheets   SheetsConfig
	Roster   RosterConfig
	Accounts AccountsConfig
	Leave    LeaveConfig
	Classes  ClassesConfig
	Print    PrintConfig
}

// StoreConfig selects the durable store backend.
type StoreConfig struct {
	Driver     string
	SQLitePath string
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret         string
	Expiration     time.Duration
	SessionIdleTTL time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SheetsConfig names the logical tables inside the store.
type SheetsConfig struct {
	Inspections string
	Leaves      string
	Discipline  string
	Roster      string
	Accounts    string
}

// RosterConfig tunes the student roster cache.
type RosterConfig struct {
	CacheTTL        time.Duration
	StudentIDLength int
}

// AccountsConfig governs staff login and first-run bootstrap.
type AccountsConfig struct {
	CacheTTL          time.Duration
	BootstrapAccount  string
	BootstrapPassword string
	BootstrapName     string
	AllowSelfDeclared bool
}

// LeaveConfig holds leave workflow constraints.
type LeaveConfig struct {
	LateReturnCutoff string
}

// ClassesConfig describes the class label grid (department × grade × section).
type ClassesConfig struct {
	Departments []string
	Grades      []string
	Sections    []string
}

// PrintConfig configures rendered print sheets.
type PrintConfig struct {
	FontPath   string
	FontFamily string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.Timezone = v.GetString("TIMEZONE")
	cfg.EnableDocs = v.GetBool("ENABLE_DOCS")

	cfg.Store = StoreConfig{
		Driver:     strings.ToLower(v.GetString("STORE_DRIVER")),
		SQLitePath: v.GetString("SQLITE_PATH"),
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:         v.GetString("JWT_SECRET"),
		Expiration:     parseDuration(v.GetString("JWT_EXPIRATION"), 12*time.Hour),
		SessionIdleTTL: parseDuration(v.GetString("SESSION_IDLE_TTL"), 2*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Sheets = SheetsConfig{
		Inspections: v.GetString("SHEET_INSPECTIONS"),
		Leaves:      v.GetString("SHEET_LEAVES"),
		Discipline:  v.GetString("SHEET_DISCIPLINE"),
		Roster:      v.GetString("SHEET_ROSTER"),
		Accounts:    v.GetString("SHEET_ACCOUNTS"),
	}

	idLength := v.GetInt("STUDENT_ID_LENGTH")
	if idLength <= 0 {
		idLength = 6
	}
	cfg.Roster = RosterConfig{
		CacheTTL:        parseDuration(v.GetString("ROSTER_CACHE_TTL"), 10*time.Minute),
		StudentIDLength: idLength,
	}

	cfg.Accounts = AccountsConfig{
		CacheTTL:          parseDuration(v.GetString("ACCOUNTS_CACHE_TTL"), 5*time.Minute),
		BootstrapAccount:  v.GetString("BOOTSTRAP_ADMIN_ACCOUNT"),
		BootstrapPassword: v.GetString("BOOTSTRAP_ADMIN_PASSWORD"),
		BootstrapName:     v.GetString("BOOTSTRAP_ADMIN_NAME"),
		AllowSelfDeclared: v.GetBool("AUTH_ALLOW_SELF_DECLARED"),
	}

	cfg.Leave = LeaveConfig{
		LateReturnCutoff: v.GetString("LEAVE_LATE_RETURN_CUTOFF"),
	}

	cfg.Classes = ClassesConfig{
		Departments: splitAndTrim(v.GetString("CLASS_DEPARTMENTS")),
		Grades:      splitAndTrim(v.GetString("CLASS_GRADES")),
		Sections:    splitAndTrim(v.GetString("CLASS_SECTIONS")),
	}

	cfg.Print = PrintConfig{
		FontPath:   v.GetString("PRINT_FONT_PATH"),
		FontFamily: v.GetString("PRINT_FONT_FAMILY"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("TIMEZONE", "Asia/Taipei")
	v.SetDefault("ENABLE_DOCS", true)

	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("SQLITE_PATH", "./data/logbook.db")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "patrol_logbook")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "12h")
	v.SetDefault("SESSION_IDLE_TTL", "2h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SHEET_INSPECTIONS", "inspections")
	v.SetDefault("SHEET_LEAVES", "leave_requests")
	v.SetDefault("SHEET_DISCIPLINE", "discipline_recommendations")
	v.SetDefault("SHEET_ROSTER", "roster")
	v.SetDefault("SHEET_ACCOUNTS", "accounts")

	v.SetDefault("ROSTER_CACHE_TTL", "10m")
	v.SetDefault("STUDENT_ID_LENGTH", 6)

	v.SetDefault("ACCOUNTS_CACHE_TTL", "5m")
	v.SetDefault("BOOTSTRAP_ADMIN_ACCOUNT", "admin")
	v.SetDefault("BOOTSTRAP_ADMIN_PASSWORD", "")
	v.SetDefault("BOOTSTRAP_ADMIN_NAME", "系統管理員")
	v.SetDefault("AUTH_ALLOW_SELF_DECLARED", false)

	v.SetDefault("LEAVE_LATE_RETURN_CUTOFF", "22:30")

	v.SetDefault("CLASS_DEPARTMENTS", "餐,觀,資訊,資處,幼,美,商,電,影")
	v.SetDefault("CLASS_GRADES", "一,二,三")
	v.SetDefault("CLASS_SECTIONS", "忠,孝,仁,愛,信,義,和,平")

	v.SetDefault("PRINT_FONT_PATH", "")
	v.SetDefault("PRINT_FONT_FAMILY", "NotoSansTC")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
