package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAPIURL     = "https://api.cityconnect.app"
	defaultUploadURL  = "https://api.cloudinary.com/v1_1/cityconnect/image/upload"
	defaultPreset     = "cityconnect_unsigned"
	defaultGeocodeURL = "https://nominatim.openstreetmap.org"
	defaultDBFile     = "cityconnect.db"
	appDirName        = "CityConnect"
)

type UploadBackend string

const (
	UploadUnsigned UploadBackend = "unsigned"
	UploadS3       UploadBackend = "s3"
)

type S3 struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	PublicURL string
}

type Config struct {
	APIBaseURL    string
	DataDir       string
	DBFile        string
	UploadBackend UploadBackend
	UploadURL     string
	UploadPreset  string
	S3            S3
	GeocodeURL    string
	LogLevel      string
	// HTTPTimeout of zero leaves the platform default in place.
	HTTPTimeout time.Duration
	// Location is the "lat,lon" stand-in for the device position; empty
	// means the position is unavailable.
	Location string
	Locale   string
}

// Load reads an optional .env file then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := os.Getenv("CITYCONNECT_DATA_DIR")
	if dataDir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config dir: %w", err)
		}
		dataDir = filepath.Join(configDir, appDirName)
	}

	dbFile := getEnv("CITYCONNECT_DB_FILE", defaultDBFile)
	if !filepath.IsAbs(dbFile) {
		dbFile = filepath.Join(dataDir, dbFile)
	}

	backend := UploadBackend(strings.ToLower(getEnv("CITYCONNECT_UPLOAD_BACKEND", string(UploadUnsigned))))
	if backend != UploadUnsigned && backend != UploadS3 {
		return nil, fmt.Errorf("unknown upload backend %q", backend)
	}

	var timeout time.Duration
	if raw := os.Getenv("CITYCONNECT_HTTP_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid CITYCONNECT_HTTP_TIMEOUT: %w", err)
		}
		timeout = d
	}

	return &Config{
		APIBaseURL:    strings.TrimRight(getEnv("CITYCONNECT_API_URL", defaultAPIURL), "/"),
		DataDir:       dataDir,
		DBFile:        dbFile,
		UploadBackend: backend,
		UploadURL:     getEnv("CITYCONNECT_UPLOAD_URL", defaultUploadURL),
		UploadPreset:  getEnv("CITYCONNECT_UPLOAD_PRESET", defaultPreset),
		S3: S3{
			Endpoint:  getEnv("S3_ENDPOINT", "http://localhost:9000"),
			AccessKey: getEnv("S3_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("S3_SECRET_KEY", "minioadmin"),
			Bucket:    getEnv("S3_BUCKET", "activity-photos"),
			Region:    getEnv("S3_REGION", "us-east-1"),
			PublicURL: os.Getenv("S3_PUBLIC_URL"),
		},
		GeocodeURL:  strings.TrimRight(getEnv("CITYCONNECT_GEOCODE_URL", defaultGeocodeURL), "/"),
		LogLevel:    getEnv("CITYCONNECT_LOG_LEVEL", "info"),
		HTTPTimeout: timeout,
		Location:    os.Getenv("CITYCONNECT_LOCATION"),
		Locale:      deviceLocale(),
	}, nil
}

// deviceLocale follows POSIX precedence: LC_ALL, then LC_MESSAGES, then LANG.
func deviceLocale() string {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}
