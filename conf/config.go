package conf

// App-specific configuration structs & data.
// Must live in a package of its own so other packages within the app can depend on it without
// causing a circular dependency.

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"chimbori.dev/squeeze/core"
	"chimbori.dev/squeeze/imgcompress"
	"gopkg.in/yaml.v3"
)

var AppName = "Squeeze"

var BuildTimestamp string

var Config AppConfig

type AppConfig struct {
	DataDir  string // The directory containing `squeeze.yml`.
	Database struct {
		Url string `yaml:"url"`
	} `yaml:"database"`
	Web struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"web"`
	Dashboard struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"` // bcrypt hash; generate with `--bcrypt`.
	} `yaml:"dashboard"`
	Compression struct {
		MaxUploadSize  int           `yaml:"max-upload-size"`
		MaxRequestSize int64         `yaml:"max-request-size"`
		MaxPixels      int64         `yaml:"max-pixels"`
		Timeout        time.Duration `yaml:"timeout"`
		Workers        int           `yaml:"workers"`
		Parallelism    int           `yaml:"parallelism"`
		DefaultQuality int           `yaml:"default-quality"`
		PNG            struct {
			DefaultPreset int `yaml:"default-preset"`
		} `yaml:"png"`
		JPEG struct {
			Encoder    string `yaml:"encoder"`
			AutoOrient *bool  `yaml:"auto-orient"`
		} `yaml:"jpeg"`
		WebP struct {
			Encoder string `yaml:"encoder"`
		} `yaml:"webp"`
	} `yaml:"compression"`
	Cache struct {
		Enabled      *bool         `yaml:"enabled"`
		TTL          time.Duration `yaml:"ttl"`
		MaxSizeBytes int64         `yaml:"max-size-bytes"`
	} `yaml:"cache"`
	History struct {
		Enabled   *bool         `yaml:"enabled"`
		Retention time.Duration `yaml:"retention"`
	} `yaml:"history"`
	Logs struct {
		Retention  time.Duration `yaml:"retention"`
		Pagination struct {
			Limit int `yaml:"limit"`
		} `yaml:"pagination"`
	} `yaml:"logs"`
	Debug bool `yaml:"debug"`
}

// CompressorOptions maps the compression section onto [imgcompress.Options].
func (c AppConfig) CompressorOptions() imgcompress.Options {
	return imgcompress.Options{
		Ceiling:        c.Compression.MaxUploadSize,
		DefaultPreset:  c.Compression.PNG.DefaultPreset,
		Parallelism:    c.Compression.Parallelism,
		JPEGEncoder:    c.Compression.JPEG.Encoder,
		WebPEncoder:    c.Compression.WebP.Encoder,
		Decode: imgcompress.DecodeOptions{
			AutoOrient: c.Compression.JPEG.AutoOrient != nil && *c.Compression.JPEG.AutoOrient,
			MaxPixels:  c.Compression.MaxPixels,
		},
	}
}

var configYmlPath string

func ReadConfig(configYmlFile string) (AppConfig, error) {
	if BuildTimestamp == "" {
		BuildTimestamp = time.Now().Local().Format("2006-01-02 15:04:05")
	}

	c := &AppConfig{}
	var err error
	configYmlPath, err = filepath.Abs(configYmlFile)
	if err != nil {
		setDefaultsAndPrint(c)
		return *c, fmt.Errorf("Failed to get path to config file: %w", err)
	}

	buf, err := os.ReadFile(configYmlPath)
	if err != nil {
		setDefaultsAndPrint(c)
		return *c, fmt.Errorf("Failed to read config file: %w", err)
	}

	err = yaml.Unmarshal(buf, c)
	if err != nil {
		setDefaultsAndPrint(c)
		return *c, fmt.Errorf("Failed to parse config: %w", err)
	}

	if err := validate(c); err != nil {
		setDefaultsAndPrint(c)
		return *c, err
	}

	setDefaultsAndPrint(c)
	return *c, nil
}

// validate rejects values that defaults cannot sensibly replace.
func validate(c *AppConfig) error {
	switch c.Compression.JPEG.Encoder {
	case "", imgcompress.JPEGEncoderStd, imgcompress.JPEGEncoderJpegli:
	default:
		return fmt.Errorf("Unknown compression.jpeg.encoder: %q", c.Compression.JPEG.Encoder)
	}
	switch c.Compression.WebP.Encoder {
	case "", imgcompress.WebPEncoderLibwebp, imgcompress.WebPEncoderNative:
	default:
		return fmt.Errorf("Unknown compression.webp.encoder: %q", c.Compression.WebP.Encoder)
	}
	if q := c.Compression.DefaultQuality; q != 0 && (q < imgcompress.MinQuality || q > imgcompress.MaxQuality) {
		return fmt.Errorf("compression.default-quality must be within [%d, %d], got %d", imgcompress.MinQuality, imgcompress.MaxQuality, q)
	}
	if p := c.Compression.PNG.DefaultPreset; p != 0 && (p < imgcompress.MinPreset || p > imgcompress.MaxPreset) {
		return fmt.Errorf("compression.png.default-preset must be within [%d, %d], got %d", imgcompress.MinPreset, imgcompress.MaxPreset, p)
	}
	return nil
}

func setDefaultsAndPrint(c *AppConfig) {
	c.DataDir = filepath.Dir(configYmlPath)
	if c.Web.Host == "" {
		// Don’t replace this by string(…); the net.IP --> string conversion will fail.
		c.Web.Host = fmt.Sprintf("%s", core.GetOutboundIP())
	}
	if c.Web.Port == 0 {
		c.Web.Port = 9999
	}

	if c.Compression.MaxUploadSize == 0 {
		c.Compression.MaxUploadSize = imgcompress.MaxUploadSize
	}
	if c.Compression.MaxRequestSize == 0 {
		c.Compression.MaxRequestSize = 64 * 1024 * 1024
	}
	if c.Compression.MaxPixels == 0 {
		c.Compression.MaxPixels = 100_000_000
	}
	if c.Compression.Timeout == 0 {
		c.Compression.Timeout = 30 * time.Second
	}
	if c.Compression.Workers == 0 {
		c.Compression.Workers = runtime.NumCPU()
	}
	if c.Compression.DefaultQuality == 0 {
		c.Compression.DefaultQuality = imgcompress.DefaultQuality
	}
	if c.Compression.PNG.DefaultPreset == 0 {
		c.Compression.PNG.DefaultPreset = imgcompress.DefaultPreset
	}
	if c.Compression.Parallelism == 0 {
		c.Compression.Parallelism = 2
	}
	if c.Compression.JPEG.Encoder == "" {
		c.Compression.JPEG.Encoder = imgcompress.JPEGEncoderStd
	}
	// Re-encoding drops EXIF, so orientation is applied to the pixels unless explicitly disabled.
	if c.Compression.JPEG.AutoOrient == nil {
		c.Compression.JPEG.AutoOrient = core.Ptr(true)
	}
	if c.Compression.WebP.Encoder == "" {
		c.Compression.WebP.Encoder = imgcompress.WebPEncoderLibwebp
	}

	// Repeat uploads of the same bytes with the same knobs are served from disk.
	if c.Cache.Enabled == nil {
		c.Cache.Enabled = core.Ptr(true)
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 24 * time.Hour
	}
	if c.Cache.MaxSizeBytes == 0 {
		c.Cache.MaxSizeBytes = 1 * 1024 * 1024 * 1024 // 1GB
	}

	// History is recorded by default whenever a database is configured.
	if c.History.Enabled == nil {
		c.History.Enabled = core.Ptr(true)
	}
	if c.History.Retention == 0 {
		c.History.Retention = 30 * 24 * time.Hour
	}
	if c.Logs.Retention == 0 {
		c.Logs.Retention = 30 * 24 * time.Hour
	}
	if c.Logs.Pagination.Limit == 0 {
		c.Logs.Pagination.Limit = 50
	}

	// Print warnings for unsafe settings, just as FYI.
	json, _ := json.MarshalIndent(redacted(*c), "", "\t")
	fmt.Println(string(json))
	if c.Debug {
		slog.Warn("Debug mode is enabled")
	}
	if c.Database.Url == "" {
		slog.Warn("No database configured; history & dashboard are disabled")
	}
	if c.Compression.MaxUploadSize > imgcompress.MaxUploadSize {
		slog.Warn("Upload ceiling is above the 8 MiB platform limit", "max-upload-size", c.Compression.MaxUploadSize)
	}
}

// redacted hides credentials before the config is printed.
func redacted(c AppConfig) AppConfig {
	if c.Database.Url != "" {
		c.Database.Url = "********"
	}
	if c.Dashboard.Password != "" {
		c.Dashboard.Password = "********"
	}
	return c
}
