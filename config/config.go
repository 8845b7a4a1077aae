package config

import (
	"errors"
	"flag"
	"net"
	"os"
	"regexp"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Addr          string
	DBUrl         string
	TokenSecret   string
	TokenTTL      time.Duration
	AdminUser     string
	AdminPassword string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string
	MailFrom      string
	Debug         bool
}

// ParseFlags reads configuration from command line flags, with defaults
// taken from the environment (a .env file is honored when present).
func ParseFlags() (cfg Config, err error) {
	godotenv.Load()

	var host string
	flag.StringVar(&host, "host", envOr("PARASURVEY_HOST", "0.0.0.0"), "listen host name")
	var port uint
	flag.UintVar(&port, "port", envOrUint("PARASURVEY_PORT", 80), "listen port number")
	flag.StringVar(&cfg.DBUrl, "db-url", envOr("PARASURVEY_DB", "parasurvey.sqlite"), "path to SQLite3 DB file")
	flag.StringVar(&cfg.TokenSecret, "token-secret", os.Getenv("PARASURVEY_TOKEN_SECRET"), "secret key for token encryption and decryption")
	var ttl uint
	flag.UintVar(&ttl, "token-ttl", envOrUint("PARASURVEY_TOKEN_TTL", 120), "token TTL in seconds")
	flag.StringVar(&cfg.AdminUser, "admin-user", os.Getenv("PARASURVEY_ADMIN_USER"), "bootstrap admin username")
	flag.StringVar(&cfg.AdminPassword, "admin-password", os.Getenv("PARASURVEY_ADMIN_PASSWORD"), "bootstrap admin password")
	flag.StringVar(&cfg.SMTPHost, "smtp-host", os.Getenv("PARASURVEY_SMTP_HOST"), "SMTP host for respondent copy mail (empty disables mailing)")
	var smtpPort uint
	flag.UintVar(&smtpPort, "smtp-port", envOrUint("PARASURVEY_SMTP_PORT", 587), "SMTP port")
	flag.StringVar(&cfg.SMTPUser, "smtp-user", os.Getenv("PARASURVEY_SMTP_USER"), "SMTP username")
	flag.StringVar(&cfg.SMTPPassword, "smtp-password", os.Getenv("PARASURVEY_SMTP_PASSWORD"), "SMTP password")
	flag.StringVar(&cfg.MailFrom, "mail-from", os.Getenv("PARASURVEY_MAIL_FROM"), "From address for respondent copy mail")
	flag.BoolVar(&cfg.Debug, "debug", false, "log at DEBUG level")
	flag.Parse()

	cfg.Addr = net.JoinHostPort(host, strconv.Itoa(int(port)))
	cfg.TokenTTL = time.Duration(ttl) * time.Second
	cfg.SMTPPort = int(smtpPort)

	if cfg.TokenSecret == "" {
		err = errors.New("missing parameter -token-secret")
	}
	if cfg.AdminUser != "" && cfg.AdminPassword == "" {
		err = errors.New("missing parameter -admin-password")
	}
	if cfg.SMTPHost != "" && cfg.MailFrom == "" {
		err = errors.New("missing parameter -mail-from")
	}

	return
}

func (cfg Config) Url() (url string) {
	url = cfg.Addr
	url = regexp.MustCompile(`^0.0.0.0`).ReplaceAllString(url, "localhost")
	url = "http://" + url
	return
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrUint(key string, fallback uint) uint {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			return uint(n)
		}
	}
	return fallback
}
