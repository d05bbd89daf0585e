package config

import (
	json "encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/evalphobia/logrus_sentry"
	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	DEVELOPMENT = "development"
	STAGING     = "staging"
	PRODUCTION  = "production"

	StorageDisk = "disk"
	StorageGCS  = "gcs"
	StorageS3   = "s3"

	envPrefix = "efim"
)

var (
	ErrInvalidMinUtil     = errors.New("min_util must be a positive integer")
	ErrEmptySeparator     = errors.New("separator must not be empty")
	ErrInvalidRoutines    = errors.New("num_routines must be at least 1")
	ErrInvalidMergeSize   = errors.New("max_merge_size must not be negative")
	ErrUnknownEnv         = errors.New("unknown env")
	ErrUnknownStorageType = errors.New("unknown storage type")
	ErrMissingBucket      = errors.New("bucket name is required for cloud storage")
	ErrMissingRegion      = errors.New("s3 region is required")
)

type Configuration struct {
	Env                   string `json:"env" envconfig:"env"`
	AppName               string `json:"app_name" envconfig:"app_name"`
	MinUtil               int64  `json:"min_util" envconfig:"min_util"`
	Separator             string `json:"separator" envconfig:"separator"`
	InputFile             string `json:"input_file" envconfig:"input_file"`
	OutputDir             string `json:"output_dir" envconfig:"output_dir"`
	StorageType           string `json:"storage_type" envconfig:"storage_type"`
	BucketName            string `json:"bucket_name" envconfig:"bucket_name"`
	S3Region              string `json:"s3_region" envconfig:"s3_region"`
	NumRoutines           int    `json:"num_routines" envconfig:"num_routines"`
	MaxMergeSize          int    `json:"max_merge_size" envconfig:"max_merge_size"`
	DisableMerging        bool   `json:"disable_merging" envconfig:"disable_merging"`
	DisableSubtreePruning bool   `json:"disable_subtree_pruning" envconfig:"disable_subtree_pruning"`
	SentryDSN             string `json:"sentry_dsn" envconfig:"sentry_dsn"`
	GCPProjectID          string `json:"gcp_project_id" envconfig:"gcp_project_id"`
	GCPProjectLocation    string `json:"gcp_project_location" envconfig:"gcp_project_location"`
	// 0 runs without a deadline.
	TimeoutSeconds int `json:"timeout_seconds" envconfig:"timeout_seconds"`
}

var configuration *Configuration = nil

// NewConfiguration returns the defaults every other source overrides.
func NewConfiguration() *Configuration {
	return &Configuration{
		Env:         DEVELOPMENT,
		AppName:     "efim",
		Separator:   " ",
		OutputDir:   "/tmp/efim",
		StorageType: StorageDisk,
		NumRoutines: 1,
	}
}

func (c *Configuration) LoadFromFile(path string) error {
	configFileAbsPath, _ := filepath.Abs(path)

	logCtx := log.WithFields(log.Fields{
		"file": configFileAbsPath,
	})

	raw, err := ioutil.ReadFile(configFileAbsPath)
	if err != nil {
		logCtx.WithError(err).Error("Failed to load config")
		return err
	}

	if err := json.Unmarshal(raw, c); err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal json")
		return err
	}
	logCtx.WithField("config", c.String()).Info("Config File Loaded")
	return nil
}

// LoadFromEnv overrides fields set as EFIM_<NAME> environment variables.
func (c *Configuration) LoadFromEnv() error {
	return errors.Wrap(envconfig.Process(envPrefix, c), "loading environment")
}

// Validate checks the settings shared by every main. The threshold is checked by
// ValidateMining.
func (c *Configuration) Validate() error {
	if c.Separator == "" {
		return ErrEmptySeparator
	}
	if c.NumRoutines < 1 {
		return ErrInvalidRoutines
	}
	if c.MaxMergeSize < 0 {
		return ErrInvalidMergeSize
	}
	switch c.Env {
	case DEVELOPMENT, STAGING, PRODUCTION:
	default:
		return errors.Wrap(ErrUnknownEnv, c.Env)
	}
	switch c.StorageType {
	case StorageDisk:
	case StorageGCS, StorageS3:
		if c.BucketName == "" {
			return ErrMissingBucket
		}
		if c.StorageType == StorageS3 && c.S3Region == "" {
			return ErrMissingRegion
		}
	default:
		return errors.Wrap(ErrUnknownStorageType, c.StorageType)
	}
	return nil
}

// ValidateMining checks the settings a single mining run needs on top of Validate.
func (c *Configuration) ValidateMining() error {
	if c.MinUtil <= 0 {
		return ErrInvalidMinUtil
	}
	return nil
}

func (c *Configuration) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ParseMinUtil reads a threshold given as text.
func ParseMinUtil(s string) (int64, error) {
	minUtil, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || minUtil <= 0 {
		return 0, errors.Wrapf(ErrInvalidMinUtil, "got %q", s)
	}
	return minUtil, nil
}

// Load parses args with fs and builds the configuration. Lowest to highest
// precedence: defaults, the JSON file named by -config_filepath, environment, flags.
// Callers may register their own flags on fs before calling Load.
func Load(fs *flag.FlagSet, args []string) (*Configuration, error) {
	flagged := &Configuration{}
	configFilePath := fs.String("config_filepath", "", "JSON configuration file.")
	minUtilFlag := fs.String("min_util", "", "Minimum utility threshold, a positive integer.")
	fs.StringVar(&flagged.Env, "env", "", "development, staging or production.")
	fs.StringVar(&flagged.AppName, "app_name", "", "Name used for metrics.")
	fs.StringVar(&flagged.Separator, "separator", "", "Separator of items and utilities in the input.")
	fs.StringVar(&flagged.InputFile, "input_file", "", "Dataset to mine.")
	fs.StringVar(&flagged.OutputDir, "output_dir", "", "Base directory of the disk store.")
	fs.StringVar(&flagged.StorageType, "storage_type", "", "disk, gcs or s3.")
	fs.StringVar(&flagged.BucketName, "bucket_name", "", "Bucket of the gcs or s3 store.")
	fs.StringVar(&flagged.S3Region, "s3_region", "", "Region of the s3 bucket.")
	fs.IntVar(&flagged.NumRoutines, "num_routines", 0, "Top level branches explored concurrently.")
	fs.IntVar(&flagged.MaxMergeSize, "max_merge_size", 0, "Longest projection considered for merging.")
	fs.BoolVar(&flagged.DisableMerging, "disable_merging", false, "Never merge projected transactions.")
	fs.BoolVar(&flagged.DisableSubtreePruning, "disable_subtree_pruning", false, "Pick extensions on local utility only.")
	fs.StringVar(&flagged.SentryDSN, "sentry_dsn", "", "Sentry DSN for error reporting.")
	fs.StringVar(&flagged.GCPProjectID, "gcp_project_id", "", "Project of the metrics exporter.")
	fs.StringVar(&flagged.GCPProjectLocation, "gcp_project_location", "", "Location of the metrics exporter.")
	fs.IntVar(&flagged.TimeoutSeconds, "timeout_seconds", 0, "Abort mining after this many seconds.")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	conf := NewConfiguration()
	if *configFilePath != "" {
		if err := conf.LoadFromFile(*configFilePath); err != nil {
			return nil, err
		}
	}
	if err := conf.LoadFromEnv(); err != nil {
		return nil, err
	}

	var flagErr error
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "min_util" {
			minUtil, err := ParseMinUtil(*minUtilFlag)
			if err != nil {
				flagErr = err
				return
			}
			conf.MinUtil = minUtil
			return
		}
		conf.applyFlag(f.Name, flagged)
	})
	if flagErr != nil {
		return nil, flagErr
	}
	return conf, conf.Validate()
}

func (c *Configuration) applyFlag(name string, flagged *Configuration) {
	switch name {
	case "env":
		c.Env = flagged.Env
	case "app_name":
		c.AppName = flagged.AppName
	case "separator":
		c.Separator = flagged.Separator
	case "input_file":
		c.InputFile = flagged.InputFile
	case "output_dir":
		c.OutputDir = flagged.OutputDir
	case "storage_type":
		c.StorageType = flagged.StorageType
	case "bucket_name":
		c.BucketName = flagged.BucketName
	case "s3_region":
		c.S3Region = flagged.S3Region
	case "num_routines":
		c.NumRoutines = flagged.NumRoutines
	case "max_merge_size":
		c.MaxMergeSize = flagged.MaxMergeSize
	case "disable_merging":
		c.DisableMerging = flagged.DisableMerging
	case "disable_subtree_pruning":
		c.DisableSubtreePruning = flagged.DisableSubtreePruning
	case "sentry_dsn":
		c.SentryDSN = flagged.SentryDSN
	case "gcp_project_id":
		c.GCPProjectID = flagged.GCPProjectID
	case "gcp_project_location":
		c.GCPProjectLocation = flagged.GCPProjectLocation
	case "timeout_seconds":
		c.TimeoutSeconds = flagged.TimeoutSeconds
	}
}

func (c *Configuration) String() string {
	return fmt.Sprintf("Configuration(env=%s, min_util=%d, storage=%s, input=%s, routines=%d)",
		c.Env, c.MinUtil, c.StorageType, c.InputFile, c.NumRoutines)
}

func initLogging() {
	// Log as JSON instead of the default ASCII formatter.
	log.SetFormatter(&log.JSONFormatter{})

	if IsDevelopment() {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

// InitSentryLogging ships Error and above to sentry. No-op without a DSN.
func InitSentryLogging(sentryDSN, appName string) {
	if sentryDSN == "" {
		return
	}
	hook, err := logrus_sentry.NewSentryHook(sentryDSN, []log.Level{
		log.PanicLevel,
		log.FatalLevel,
		log.ErrorLevel,
	})
	if err != nil {
		log.WithError(err).Error("Failed to initialize sentry hook")
		return
	}
	hook.Timeout = 5 * time.Second
	hook.StacktraceConfiguration.Enable = true
	log.AddHook(hook)
	log.WithField("app_name", appName).Info("Sentry logging initialized.")
}

func InitConf(c *Configuration) {
	configuration = c
	initLogging()
	InitSentryLogging(c.SentryDSN, c.AppName)
}

func GetConfig() *Configuration {
	return configuration
}

func IsDevelopment() bool {
	return configuration == nil || strings.Compare(configuration.Env, DEVELOPMENT) == 0
}
