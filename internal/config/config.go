package config

import (
	"errors"
	"fmt"
	"strings"

	"pet-registry/internal/domain/cats"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

// EnvPrefix: cada flag se puede setear como PETREG_<FLAG> (guiones => "_").
const EnvPrefix = "PETREG"

const (
	KeyHTTPAddr        = "http-addr"
	KeyStore           = "store"
	KeyPostgresDSN     = "postgres-dsn"
	KeyMongoURI        = "mongo-uri"
	KeyMongoDatabase   = "mongo-database"
	KeyAuthMode        = "auth-mode"
	KeyJWTSecret       = "jwt-secret"
	KeyJWTIssuer       = "jwt-issuer"
	KeyAuthURL         = "auth-url"
	KeyAuthAPIKey      = "auth-api-key"
	KeyUploadDir       = "upload-dir"
	KeyDefaultLocation = "default-location"
	KeyLogLevel        = "log-level"
	KeyLogFormat       = "log-format"
	KeyOTLPEndpoint    = "otlp-endpoint"
	KeyEnvironment     = "environment"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreMongo    = "mongo"

	AuthDev    = "dev"
	AuthJWT    = "jwt"
	AuthRemote = "remote"
)

type Config struct {
	HTTPAddr string

	Store         string
	PostgresDSN   string
	MongoURI      string
	MongoDatabase string

	AuthMode   string
	JWTSecret  string
	JWTIssuer  string
	AuthURL    string
	AuthAPIKey string

	UploadDir string
	// Ubicación usada cuando el alta de un gato no trae coordenadas.
	DefaultLon float64
	DefaultLat float64

	LogLevel     string
	LogFormat    string
	OTLPEndpoint string
	Environment  string
}

// RegisterFlags declara los flags con sus defaults.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String(KeyHTTPAddr, ":8080", "dirección HTTP")
	fs.String(KeyStore, StoreMemory, "store: memory|postgres|mongo")
	fs.String(KeyPostgresDSN, "", "DSN de Postgres (store=postgres)")
	fs.String(KeyMongoURI, "mongodb://localhost:27017", "URI de Mongo (store=mongo)")
	fs.String(KeyMongoDatabase, "petregistry", "base de Mongo (store=mongo)")
	fs.String(KeyAuthMode, AuthDev, "auth: dev|jwt|remote")
	fs.String(KeyJWTSecret, "", "secreto HS256 (auth-mode=jwt)")
	fs.String(KeyJWTIssuer, "", "issuer esperado (auth-mode=jwt, opcional)")
	fs.String(KeyAuthURL, "", "URL del servicio de identidad (auth-mode=remote)")
	fs.String(KeyAuthAPIKey, "", "API key del servicio de identidad (auth-mode=remote)")
	fs.String(KeyUploadDir, "uploads", "directorio de fotos subidas")
	fs.String(KeyDefaultLocation, "24.94,60.17", "ubicación por defecto longitud,latitud")
	fs.String(KeyLogLevel, "info", "debug|info|warn|error")
	fs.String(KeyLogFormat, "json", "json|text")
	fs.String(KeyOTLPEndpoint, "", "endpoint OTLP HTTP (vacío = sin tracing)")
	fs.String(KeyEnvironment, "dev", "nombre del entorno")
}

// NewViper liga los flags a viper con override por env.
func NewViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, err
	}
	return v, nil
}

// Load lee y valida. Los errores de validación vienen todos juntos.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		HTTPAddr:      strings.TrimSpace(v.GetString(KeyHTTPAddr)),
		Store:         strings.ToLower(strings.TrimSpace(v.GetString(KeyStore))),
		PostgresDSN:   strings.TrimSpace(v.GetString(KeyPostgresDSN)),
		MongoURI:      strings.TrimSpace(v.GetString(KeyMongoURI)),
		MongoDatabase: strings.TrimSpace(v.GetString(KeyMongoDatabase)),
		AuthMode:      strings.ToLower(strings.TrimSpace(v.GetString(KeyAuthMode))),
		JWTSecret:     v.GetString(KeyJWTSecret),
		JWTIssuer:     strings.TrimSpace(v.GetString(KeyJWTIssuer)),
		AuthURL:       strings.TrimSpace(v.GetString(KeyAuthURL)),
		AuthAPIKey:    strings.TrimSpace(v.GetString(KeyAuthAPIKey)),
		UploadDir:     strings.TrimSpace(v.GetString(KeyUploadDir)),
		LogLevel:      v.GetString(KeyLogLevel),
		LogFormat:     v.GetString(KeyLogFormat),
		OTLPEndpoint:  strings.TrimSpace(v.GetString(KeyOTLPEndpoint)),
		Environment:   strings.TrimSpace(v.GetString(KeyEnvironment)),
	}

	var errs error
	if cfg.HTTPAddr == "" {
		errs = multierr.Append(errs, errors.New("http-addr is required"))
	}

	switch cfg.Store {
	case StoreMemory:
	case StorePostgres:
		if cfg.PostgresDSN == "" {
			errs = multierr.Append(errs, errors.New("postgres-dsn is required when store=postgres"))
		}
	case StoreMongo:
		if cfg.MongoURI == "" || cfg.MongoDatabase == "" {
			errs = multierr.Append(errs, errors.New("mongo-uri and mongo-database are required when store=mongo"))
		}
	default:
		errs = multierr.Append(errs, fmt.Errorf("unknown store %q", cfg.Store))
	}

	switch cfg.AuthMode {
	case AuthDev:
	case AuthJWT:
		if strings.TrimSpace(cfg.JWTSecret) == "" {
			errs = multierr.Append(errs, errors.New("jwt-secret is required when auth-mode=jwt"))
		}
	case AuthRemote:
		if cfg.AuthURL == "" || cfg.AuthAPIKey == "" {
			errs = multierr.Append(errs, errors.New("auth-url and auth-api-key are required when auth-mode=remote"))
		}
	default:
		errs = multierr.Append(errs, fmt.Errorf("unknown auth-mode %q", cfg.AuthMode))
	}

	if cfg.UploadDir == "" {
		errs = multierr.Append(errs, errors.New("upload-dir is required"))
	}

	loc, err := cats.ParsePoint(KeyDefaultLocation, v.GetString(KeyDefaultLocation))
	if err != nil {
		errs = multierr.Append(errs, err)
	}
	cfg.DefaultLon, cfg.DefaultLat = loc.Lon(), loc.Lat()

	if errs != nil {
		return Config{}, fmt.Errorf("invalid config: %w", errs)
	}
	return cfg, nil
}
