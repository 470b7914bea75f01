package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sosodev/duration"
)

const (
	DefaultIncomingFolder = "camera/[[id]]"
	DefaultFolder         = "camera/[[id]]"
	DefaultFileRegex      = `[[camera_id]].*\.(?i:jpe?g)`
)

const (
	defaultBase64EncodeBelow = 32000
	defaultMaxAge            = "PT1H"
	defaultCacheCurrent      = 3
	defaultScanBatchSize     = 10
)

type Config struct {
	// database path
	DatabasePath string

	// storage roots; incoming and published may be identical
	IncomingRoot  string // where cameras drop raw imagery
	PublishedRoot string // where processed, servable imagery resides

	// folder/pattern templates; [[token]] placeholders are expanded per camera
	IncomingFolder string
	Folder         string
	FileRegex      string

	// behavior when several cameras match the same incoming file
	PickFirstMatch bool

	// image payloads below this size are inlined as base64 data URLs; 0 disables
	Base64EncodeBelow int64

	// a camera with no image newer than this is considered stale; 0 disables
	MaxAge time.Duration

	// TTL for the per-camera current-image cache; 0 disables caching
	CacheCurrent time.Duration

	// fallback scan interval when the watch loop can't cover a camera; 0 disables
	PollInterval time.Duration

	// upper bound on files picked up per camera per scan
	ScanBatchSize int

	// ordered list of built-in pipeline stage names
	PipelineStages []string

	// per-camera processor assignments, camera_id -> stage name
	CustomStages map[string]string
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val < 0 {
		log.Printf("Warning: Invalid %s '%s'. Using default %d. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

func getEnvBoolOrDefault(envVar string, defaultVal bool) bool {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(valStr)
	if err != nil {
		log.Printf("Warning: Invalid %s '%s'. Using default %v. Error: %v", envVar, valStr, defaultVal, err)
		return defaultVal
	}
	return val
}

// getEnvISODurationOrDefault reads an ISO-8601 duration (e.g. PT1H) from the
// environment. An explicitly empty or zero value disables the feature.
func getEnvISODurationOrDefault(envVar, defaultVal string) (time.Duration, error) {
	valStr, isSet := os.LookupEnv(envVar)
	if !isSet {
		valStr = defaultVal
	}
	if valStr == "" || valStr == "0" {
		return 0, nil
	}
	d, err := duration.Parse(valStr)
	if err != nil {
		return 0, fmt.Errorf("invalid ISO-8601 duration in %s '%s': %w", envVar, valStr, err)
	}
	return d.ToTimeDuration(), nil
}

func LoadConfig() (Config, error) {
	incomingRoot := getEnvOrDefault("CAMERA_INCOMING_ROOT", filepath.Join(".", "camera_incoming"))
	absIncomingRoot, err := filepath.Abs(incomingRoot)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for incoming root '%s': %w", incomingRoot, err)
	}

	publishedRoot := getEnvOrDefault("CAMERA_PUBLISHED_ROOT", incomingRoot)
	absPublishedRoot, err := filepath.Abs(publishedRoot)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for published root '%s': %w", publishedRoot, err)
	}

	maxAge, err := getEnvISODurationOrDefault("CAMERA_MAX_AGE", defaultMaxAge)
	if err != nil {
		return Config{}, err
	}

	var stages []string
	for _, name := range strings.Split(getEnvOrDefault("CAMERA_PIPELINE_STAGES", ""), ",") {
		if name = strings.TrimSpace(name); name != "" {
			stages = append(stages, name)
		}
	}

	customStages := make(map[string]string)
	for _, pair := range strings.Split(getEnvOrDefault("CAMERA_CUSTOM_STAGES", ""), ",") {
		if pair = strings.TrimSpace(pair); pair == "" {
			continue
		}
		cameraID, stageName, ok := strings.Cut(pair, ":")
		cameraID, stageName = strings.TrimSpace(cameraID), strings.TrimSpace(stageName)
		if !ok || cameraID == "" || stageName == "" {
			return Config{}, fmt.Errorf("invalid CAMERA_CUSTOM_STAGES entry '%s', want camera_id:stage", pair)
		}
		customStages[cameraID] = stageName
	}

	cfg := Config{
		DatabasePath:      getEnvOrDefault("DATABASE_PATH", "cameras.db"),
		IncomingRoot:      absIncomingRoot,
		PublishedRoot:     absPublishedRoot,
		IncomingFolder:    getEnvOrDefault("CAMERA_INCOMING_FOLDER", DefaultIncomingFolder),
		Folder:            getEnvOrDefault("CAMERA_FOLDER", DefaultFolder),
		FileRegex:         getEnvOrDefault("CAMERA_FILE_REGEX", DefaultFileRegex),
		PickFirstMatch:    getEnvBoolOrDefault("CAMERA_PICK_FIRST_MATCH", false),
		Base64EncodeBelow: int64(getEnvIntOrDefault("CAMERA_BASE64_ENCODE_BELOW", defaultBase64EncodeBelow)),
		MaxAge:            maxAge,
		CacheCurrent:      time.Duration(getEnvIntOrDefault("CAMERA_CACHE_CURRENT", defaultCacheCurrent)) * time.Second,
		PollInterval:      time.Duration(getEnvIntOrDefault("CAMERA_POLL_INTERVAL", 0)) * time.Minute,
		ScanBatchSize:     getEnvIntOrDefault("CAMERA_SCAN_BATCH_SIZE", defaultScanBatchSize),
		PipelineStages:    stages,
		CustomStages:      customStages,
	}

	return cfg, nil
}
