package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Priority struct {
	BaseURL  string
	Company  string
	Username string
	Password string
	AppID    string
	AppKey   string
	Timeout  time.Duration
}

type Graph struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	Sender       string
	TokenTTL     time.Duration
	Timeout      time.Duration
}

type WhatsApp struct {
	Token         string
	PhoneNumberID string
	APIVersion    string
}

type R2 struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	PublicBaseURL   string
	PresignTTL      time.Duration
}

type Config struct {
	HTTPAddr     string
	CacheCap     int
	SnapshotPath string

	// FetchStatuses is the status set GET /run-python pulls from the ERP.
	// ApprovalStatus is the status that triggers the customer notification.
	FetchStatuses  []string
	ApprovalStatus string

	Priority Priority
	Graph    Graph
	WhatsApp WhatsApp
	R2       R2
}

const (
	defaultFetchStatus    = "3אצל הגרפיקא"
	defaultApprovalStatus = "4לאשור גרפיק"
)

// Load keeps the original API and fatals on error for simplicity in main().
func Load() Config {
	cfg, err := load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	return cfg
}

func load() (Config, error) {
	_ = godotenv.Load("env/.env")

	cfg := Config{
		HTTPAddr:     envDefault("HTTP_ADDR", ":8080"),
		CacheCap:     envInt("CACHE_CAP", 500),
		SnapshotPath: envDefault("SNAPSHOT_PATH", "data.json"),

		FetchStatuses:  splitCSV(envDefault("FETCH_STATUSES", defaultFetchStatus)),
		ApprovalStatus: envDefault("APPROVAL_STATUS", defaultApprovalStatus),

		Priority: Priority{
			BaseURL:  strings.TrimRight(strings.TrimSpace(os.Getenv("PRIORITY_BASE_URL")), "/"),
			Company:  strings.TrimSpace(envDefault("PRIORITY_COMPANY", "beline")),
			Username: strings.TrimSpace(envDefault("PRIORITY_USERNAME", "API")),
			Password: strings.TrimSpace(os.Getenv("PRIORITY_PASSWORD")),
			AppID:    strings.TrimSpace(os.Getenv("PRIORITY_APP_ID")),
			AppKey:   strings.TrimSpace(os.Getenv("PRIORITY_APP_KEY")),
			Timeout:  envDurationMS("PRIORITY_TIMEOUT", 30*time.Second),
		},

		Graph: Graph{
			TenantID:     strings.TrimSpace(os.Getenv("GRAPH_TENANT_ID")),
			ClientID:     strings.TrimSpace(os.Getenv("GRAPH_CLIENT_ID")),
			ClientSecret: strings.TrimSpace(os.Getenv("GRAPH_CLIENT_SECRET")),
			Sender:       strings.TrimSpace(os.Getenv("GRAPH_SENDER")),
			TokenTTL:     envDurationMS("GRAPH_TOKEN_TTL", 3000*time.Second),
			Timeout:      envDurationMS("GRAPH_TIMEOUT", 30*time.Second),
		},

		WhatsApp: WhatsApp{
			Token:         strings.TrimSpace(os.Getenv("WHATSAPP_TOKEN")),
			PhoneNumberID: strings.TrimSpace(os.Getenv("WHATSAPP_PHONE_NUMBER_ID")),
			APIVersion:    envDefault("WHATSAPP_API_VERSION", "v20.0"),
		},

		R2: R2{
			AccountID:       strings.TrimSpace(os.Getenv("R2_ACCOUNT_ID")),
			AccessKeyID:     strings.TrimSpace(os.Getenv("R2_ACCESS_KEY_ID")),
			SecretAccessKey: strings.TrimSpace(os.Getenv("R2_SECRET_ACCESS_KEY")),
			Bucket:          strings.TrimSpace(os.Getenv("R2_BUCKET")),
			PublicBaseURL:   strings.TrimRight(strings.TrimSpace(os.Getenv("R2_PUBLIC_BASE_URL")), "/"),
			PresignTTL:      envDurationMS("R2_PRESIGN_TTL", 15*time.Minute),
		},
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validate requires the ERP settings; Graph, WhatsApp and R2 are optional
// groups — when absent the matching features answer as unavailable instead
// of blocking startup.
func (c Config) validate() error {
	var missing []string
	req := map[string]string{
		"PRIORITY_BASE_URL": c.Priority.BaseURL,
		"PRIORITY_PASSWORD": c.Priority.Password,
		"PRIORITY_APP_ID":   c.Priority.AppID,
		"PRIORITY_APP_KEY":  c.Priority.AppKey,
	}
	for k, v := range req {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return &missingEnvError{Keys: missing}
	}

	if c.CacheCap <= 0 {
		log.Printf("CACHE_CAP is %d, adjusting to 1", c.CacheCap)
	}
	if len(c.FetchStatuses) == 0 {
		return &missingEnvError{Keys: []string{"FETCH_STATUSES"}}
	}
	return nil
}

// GraphConfigured reports whether the mail integration can run at all.
func (c Config) GraphConfigured() bool {
	return c.Graph.TenantID != "" && c.Graph.ClientID != "" &&
		c.Graph.ClientSecret != "" && c.Graph.Sender != ""
}

// WhatsAppConfigured reports whether the WhatsApp sender can run.
func (c Config) WhatsAppConfigured() bool {
	return c.WhatsApp.Token != "" && c.WhatsApp.PhoneNumberID != ""
}

// R2Configured reports whether the object store client can be built.
func (c Config) R2Configured() bool {
	return c.R2.AccountID != "" && c.R2.AccessKeyID != "" &&
		c.R2.SecretAccessKey != "" && c.R2.Bucket != ""
}

type missingEnvError struct{ Keys []string }

func (e *missingEnvError) Error() string {
	return "missing required envs: " + strings.Join(e.Keys, ", ")
}

func envDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d: %v", k, v, def, err)
		return def
	}
	return n
}

// envDurationMS supports either plain integer milliseconds ("1500") or
// Go duration strings ("1.5s", "250ms", "2m").
func envDurationMS(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if strings.IndexFunc(v, func(r rune) bool { return r < '0' || r > '9' }) != -1 {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("invalid %s=%q, using default %v: %v", k, v, def, err)
			return def
		}
		return d
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %v: %v", k, v, def, err)
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
