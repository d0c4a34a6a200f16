package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/straye-as/gallery/internal/secrets"
	"github.com/straye-as/gallery/internal/storage"
	"go.uber.org/zap"
)

// StorageAccountName is the Azure Storage account holding the image container.
// Set at build time with -ldflags "-X github.com/straye-as/gallery/internal/config.StorageAccountName=..."
var StorageAccountName = "jackblack"

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Search    SearchConfig
	Secrets   SecretsConfig
	Logging   LoggingConfig
	Server    ServerConfig
	CORS      CORSConfig
	Security  SecurityConfig
	RateLimit RateLimitConfig
	Jobs      JobsConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Port        int
}

// StorageConfig describes the blob container images are served from
type StorageConfig struct {
	AccountName   string `validate:"required" env:"STORAGE_ACCOUNTNAME"`
	ContainerName string `validate:"required" env:"CONTAINER_NAME"`
	// SASToken is the shared access signature appended to every blob URL
	SASToken string `validate:"required" env:"SAS_TOKEN"`
	// ProbeEnabled lists the container during readiness checks (needs list permission)
	ProbeEnabled bool
}

// DatabaseConfig holds the catalog database connection settings
type DatabaseConfig struct {
	// Driver is "sqlserver" (Azure SQL) or "postgres"
	Driver           string `validate:"oneof=sqlserver postgres" env:"DATABASE_DRIVER"`
	ConnectionString string `validate:"required" env:"AZURE_SQL_CONNECTION_STRING"`
	Table            string `validate:"required" env:"DATABASE_TABLE"`
	MaxOpenConns     int
	MaxIdleConns     int
	ConnMaxLifetime  int
	// QueryTimeout bounds the catalog query (seconds)
	QueryTimeout int
	// ConnectRetries is the number of startup connection attempts
	ConnectRetries int
}

// SearchConfig holds the Azure Cognitive Search settings
type SearchConfig struct {
	ServiceName string `validate:"required" env:"AZURE_SEARCH_SERVICE_NAME"`
	IndexName   string `validate:"required" env:"AZURE_SEARCH_INDEX_NAME"`
	APIKey      string `validate:"required" env:"AZURE_SEARCH_API_KEY"`
	APIVersion  string `validate:"required" env:"SEARCH_APIVERSION"`
	// Endpoint overrides https://{serviceName}.search.windows.net when set
	Endpoint string
	// Timeout bounds a single search request (seconds)
	Timeout int
}

type SecretsConfig struct {
	// Source determines where secrets are loaded from: "environment", "vault", or "auto"
	Source       string `validate:"omitempty,oneof=environment vault auto" env:"SECRETS_SOURCE"`
	KeyVaultName string
	CacheEnabled bool
	CacheTTL     int // seconds
}

type LoggingConfig struct {
	Level  string
	Format string
}

type ServerConfig struct {
	ReadTimeout  int
	WriteTimeout int
	// ExposeErrorDetails shows internal error text to the user instead of a generic message
	ExposeErrorDetails bool
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int
}

// SecurityConfig holds security header configuration
type SecurityConfig struct {
	EnableHSTS            bool
	HSTSMaxAge            int
	HSTSIncludeSubdomains bool
	HSTSPreload           bool
	ContentSecurityPolicy string
	FrameOptions          string
	ContentTypeNosniff    bool
	XSSProtection         string
	ReferrerPolicy        string
	PermissionsPolicy     string
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	WhitelistIPs      []string
	WhitelistPaths    []string
}

// JobsConfig holds background job configuration
type JobsConfig struct {
	SASExpiryEnabled bool
	// SASExpiryCron uses the 6-field format with seconds
	SASExpiryCron string
	// SASExpiryWarning is how long before expiry warnings start (hours)
	SASExpiryWarning int
}

// BaseURL returns the container URL blob names are appended to
func (s *StorageConfig) BaseURL() string {
	return storage.BaseURL(s.AccountName, s.ContainerName)
}

// ServiceURL returns the blob service URL of the storage account
func (s *StorageConfig) ServiceURL() string {
	return fmt.Sprintf("https://%s.blob.core.windows.net", s.AccountName)
}

// BaseURL returns the search service URL without the index path
func (s *SearchConfig) BaseURL() string {
	if s.Endpoint != "" {
		return strings.TrimSuffix(s.Endpoint, "/")
	}
	return fmt.Sprintf("https://%s.search.windows.net", s.ServiceName)
}

// TimeoutDuration returns the search timeout as duration
func (s *SearchConfig) TimeoutDuration() time.Duration {
	return time.Duration(s.Timeout) * time.Second
}

// ReadTimeoutDuration returns read timeout as duration
func (s *ServerConfig) ReadTimeoutDuration() time.Duration {
	return time.Duration(s.ReadTimeout) * time.Second
}

// WriteTimeoutDuration returns write timeout as duration
func (s *ServerConfig) WriteTimeoutDuration() time.Duration {
	return time.Duration(s.WriteTimeout) * time.Second
}

// ConnMaxLifetimeDuration returns connection max lifetime as duration
func (d *DatabaseConfig) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(d.ConnMaxLifetime) * time.Second
}

// QueryTimeoutDuration returns query timeout as duration
func (d *DatabaseConfig) QueryTimeoutDuration() time.Duration {
	return time.Duration(d.QueryTimeout) * time.Second
}

// SASExpiryWarningDuration returns the expiry warning window as duration
func (j *JobsConfig) SASExpiryWarningDuration() time.Duration {
	return time.Duration(j.SASExpiryWarning) * time.Hour
}

// Load loads configuration from file and environment variables
// This is a basic load that doesn't fetch secrets from vault
// Use LoadWithSecrets for full secret resolution
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override config file
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := bindDeploymentEnv(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Load Azure Key Vault name from environment if not in config
	if cfg.Secrets.KeyVaultName == "" {
		cfg.Secrets.KeyVaultName = v.GetString("AZURE_KEY_VAULT_NAME")
	}

	// Show error details in development unless explicitly configured
	if v.IsSet("server.exposeErrorDetails") {
		cfg.Server.ExposeErrorDetails = v.GetBool("server.exposeErrorDetails")
	} else {
		cfg.Server.ExposeErrorDetails = cfg.App.Environment == "development"
	}

	return &cfg, nil
}

// bindDeploymentEnv maps the deployment secrets to the variable names used by
// the existing deployments.
func bindDeploymentEnv(v *viper.Viper) error {
	bindings := map[string]string{
		"storage.sasToken":          "SAS_TOKEN",
		"storage.containerName":     "CONTAINER_NAME",
		"database.connectionString": "AZURE_SQL_CONNECTION_STRING",
		"search.serviceName":        "AZURE_SEARCH_SERVICE_NAME",
		"search.indexName":          "AZURE_SEARCH_INDEX_NAME",
		"search.apiKey":             "AZURE_SEARCH_API_KEY",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

// LoadWithSecrets loads configuration and resolves secrets from the configured source
// In development (or when secrets.source = "environment"), secrets come from env vars
// In staging/production with USE_AZURE_KEY_VAULT=true, the SAS token, SQL connection
// string and search API key come from Azure Key Vault
func LoadWithSecrets(ctx context.Context, logger *zap.Logger) (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}

	useKeyVault := strings.ToLower(os.Getenv("USE_AZURE_KEY_VAULT")) == "true"
	isValidEnv := cfg.App.Environment == "staging" || cfg.App.Environment == "production"

	if !useKeyVault {
		logger.Info("USE_AZURE_KEY_VAULT not enabled, using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	if !isValidEnv {
		logger.Warn("USE_AZURE_KEY_VAULT is enabled but environment is not staging or production, using environment variables for secrets",
			zap.String("environment", cfg.App.Environment),
		)
		return cfg, nil
	}

	providerCfg := secretsProviderConfig(cfg)
	if providerCfg.Source != secrets.SourceEnvironment && providerCfg.VaultName == "" {
		return nil, fmt.Errorf("AZURE_KEY_VAULT_NAME is required when USE_AZURE_KEY_VAULT=true")
	}

	logger.Info("Resolving secrets",
		zap.String("environment", cfg.App.Environment),
		zap.String("source", string(providerCfg.Source)),
		zap.String("key_vault_name", cfg.Secrets.KeyVaultName),
	)

	provider, err := secrets.NewProvider(providerCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize secrets provider (USE_AZURE_KEY_VAULT=true requires valid vault): %w", err)
	}

	if err := applySecrets(ctx, cfg, provider); err != nil {
		return nil, err
	}

	logger.Info("Secrets loaded successfully", zap.String("source", string(provider.Source())))
	return cfg, nil
}

// secretsProviderConfig builds the provider settings from secrets.source.
// An empty source behaves like "auto".
func secretsProviderConfig(cfg *Config) *secrets.ProviderConfig {
	source := secrets.SecretSource(cfg.Secrets.Source)
	if source == "" {
		source = secrets.SourceAuto
	}
	source = secrets.ResolveSource(source, cfg.App.Environment)

	return &secrets.ProviderConfig{
		Source:       source,
		VaultName:    cfg.Secrets.KeyVaultName,
		Environment:  cfg.App.Environment,
		CacheEnabled: cfg.Secrets.CacheEnabled,
		CacheTTL:     time.Duration(cfg.Secrets.CacheTTL) * time.Second,
	}
}

// SecretSource resolves a named secret, falling back to an environment variable
type SecretSource interface {
	GetSecretOrEnv(ctx context.Context, secretName, envName string) (string, error)
}

// applySecrets overwrites the deployment secrets with values from source.
// A secret that cannot be resolved keeps its current value; Validate reports it if empty.
func applySecrets(ctx context.Context, cfg *Config, source SecretSource) error {
	targets := []struct {
		secret string
		env    string
		dst    *string
	}{
		{secret: "gallery-sas-token", env: "SAS_TOKEN", dst: &cfg.Storage.SASToken},
		{secret: "gallery-sql-connection-string", env: "AZURE_SQL_CONNECTION_STRING", dst: &cfg.Database.ConnectionString},
		{secret: "gallery-search-api-key", env: "AZURE_SEARCH_API_KEY", dst: &cfg.Search.APIKey},
	}

	for _, t := range targets {
		value, err := source.GetSecretOrEnv(ctx, t.secret, t.env)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("loading secret %s: %w", t.secret, ctx.Err())
			}
			continue
		}
		if value != "" {
			*t.dst = value
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "Straye Image Gallery")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.port", 8080)

	// Storage defaults
	v.SetDefault("storage.accountName", StorageAccountName)
	v.SetDefault("storage.probeEnabled", false)

	// Database defaults (Azure SQL)
	v.SetDefault("database.driver", "sqlserver")
	v.SetDefault("database.table", "images")
	v.SetDefault("database.maxOpenConns", 10)
	v.SetDefault("database.maxIdleConns", 2)
	v.SetDefault("database.connMaxLifetime", 300)
	v.SetDefault("database.queryTimeout", 30)
	v.SetDefault("database.connectRetries", 3)

	// Search defaults
	v.SetDefault("search.apiVersion", "2021-04-30-Preview")
	v.SetDefault("search.timeout", 10)

	// Secrets defaults
	v.SetDefault("secrets.source", "auto")
	v.SetDefault("secrets.cacheEnabled", true)
	v.SetDefault("secrets.cacheTTL", 300)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	// Server defaults
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)

	// CORS defaults - restrictive by default
	v.SetDefault("cors.allowedOrigins", []string{})
	v.SetDefault("cors.allowedMethods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowedHeaders", []string{"Accept", "Content-Type", "X-Request-ID"})
	v.SetDefault("cors.exposedHeaders", []string{"X-Request-ID"})
	v.SetDefault("cors.allowCredentials", false)
	v.SetDefault("cors.maxAge", 300)

	// Security header defaults; images are loaded straight from blob storage
	v.SetDefault("security.enableHSTS", false)
	v.SetDefault("security.hstsMaxAge", 31536000)
	v.SetDefault("security.hstsIncludeSubdomains", true)
	v.SetDefault("security.hstsPreload", false)
	v.SetDefault("security.contentSecurityPolicy", "default-src 'self'; img-src 'self' https://*.blob.core.windows.net; style-src 'self' 'unsafe-inline'")
	v.SetDefault("security.frameOptions", "DENY")
	v.SetDefault("security.contentTypeNosniff", true)
	v.SetDefault("security.xssProtection", "1; mode=block")
	v.SetDefault("security.referrerPolicy", "strict-origin-when-cross-origin")
	v.SetDefault("security.permissionsPolicy", "geolocation=(), microphone=(), camera=()")

	// Rate limiting defaults
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerMinute", 120)
	v.SetDefault("rateLimit.whitelistIPs", []string{"127.0.0.1", "::1"})
	v.SetDefault("rateLimit.whitelistPaths", []string{"/health", "/health/ready", "/metrics"})

	// Job defaults
	v.SetDefault("jobs.sasExpiryEnabled", true)
	v.SetDefault("jobs.sasExpiryCron", "0 0 * * * *")
	v.SetDefault("jobs.sasExpiryWarning", 72)
}
