package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Settings holds every environment driven option of the registry.
type Settings struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	GinMode     string `envconfig:"GIN_MODE"`
	ServerPort  string `envconfig:"SERVER_PORT" default:"8080"`

	// Comma separated; "*" allows any origin.
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`

	DBDriver   string `envconfig:"DB_DRIVER" default:"mysql"`
	DBHost     string `envconfig:"DB_HOST" default:"127.0.0.1"`
	DBPort     int    `envconfig:"DB_PORT" default:"3306"`
	DBDatabase string `envconfig:"DB_DATABASE" default:"research_registry"`
	DBUsername string `envconfig:"DB_USERNAME" default:"root"`
	DBPassword string `envconfig:"DB_PASSWORD"`
	DebugSQL   bool   `envconfig:"DEBUG_SQL" default:"false"`

	LogFile string `envconfig:"LOG_FILE" default:"logs/registry-api.log"`

	JWTSecret             string `envconfig:"JWT_SECRET"`
	JWTExpireHours        int    `envconfig:"JWT_EXPIRE_HOURS" default:"24"`
	JWTRefreshExpireHours int    `envconfig:"JWT_REFRESH_EXPIRE_HOURS" default:"168"`

	SMTPHost          string `envconfig:"SMTP_HOST"`
	SMTPPort          int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUser          string `envconfig:"SMTP_USER"`
	SMTPPass          string `envconfig:"SMTP_PASS"`
	SMTPFrom          string `envconfig:"SMTP_FROM"`
	SMTPSkipTLSVerify bool   `envconfig:"SMTP_SKIP_TLS_VERIFY" default:"false"`

	// Comma separated; empty disables the import report mail.
	ImportReportRecipients string `envconfig:"IMPORT_REPORT_RECIPIENTS"`
	// Empty disables the scheduled re-import in the API process.
	ImportCronSchedule string `envconfig:"IMPORT_CRON_SCHEDULE"`
	ImportFacultyPath  string `envconfig:"IMPORT_FACULTY_PATH"`
	ImportPapersPath   string `envconfig:"IMPORT_PAPERS_PATH"`

	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3Region    string `envconfig:"S3_REGION" default:"eu-central-1"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET"`
	S3PublicURL string `envconfig:"S3_PUBLIC_URL"`
}

// Current is the process wide settings instance populated by Load.
var Current = &Settings{}

// Load reads .env (when present) and the process environment into Current.
func Load() (*Settings, error) {
	_ = godotenv.Load()
	var s Settings
	if err := envconfig.Process("", &s); err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	s.DBDriver = strings.ToLower(strings.TrimSpace(s.DBDriver))
	Current = &s
	return &s, nil
}

// IsProduction reports whether ENVIRONMENT=production.
func (s *Settings) IsProduction() bool {
	return strings.EqualFold(s.Environment, "production")
}

// AllowedOrigins splits CORS_ALLOWED_ORIGINS.
func (s *Settings) AllowedOrigins() []string {
	return splitList(s.CORSAllowedOrigins)
}

// ReportRecipients splits IMPORT_REPORT_RECIPIENTS into trimmed addresses.
func (s *Settings) ReportRecipients() []string {
	return splitList(s.ImportReportRecipients)
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// S3Enabled reports whether photo storage is configured.
func (s *Settings) S3Enabled() bool {
	return s.S3Bucket != "" && s.S3AccessKey != "" && s.S3SecretKey != ""
}
