package common

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/assetcrawler/import-services/constants"
	"github.com/assetcrawler/import-services/util"
	"github.com/op/go-logging"
	"github.com/spf13/viper"
)

type Config struct {
	AWSAccessKeyID  string
	AWSSecretKey    string
	ConfigName      string
	DatabaseURL     string
	DispatchWorkers int
	DropboxToken    string
	HTTPAddr        string
	HTTPTimeout     time.Duration
	ImportDir       string
	ListingProvider string
	LogDir          string
	LogLevel        logging.Level
	NsqTCPAddr      string
	NsqTopic        string
	PidFile         string
	QueueRegion     string
	QueueTransport  string
	QueueURL        string
	RedisDefaultDB  int
	RedisPassword   string
	RedisURL        string
	RunHistorySize  int
	S3Bucket        string
	S3Host          string
	S3Key           string
	S3Region        string
	S3Secret        string
	S3UseSSL        bool
	SQSEndpoint     string
}

var logLevels = map[string]logging.Level{
	"CRITICAL": logging.CRITICAL,
	"ERROR":    logging.ERROR,
	"WARNING":  logging.WARNING,
	"NOTICE":   logging.NOTICE,
	"INFO":     logging.INFO,
	"DEBUG":    logging.DEBUG,
}

// NewConfig returns a new config based on the env vars
// IMPORTER_CONFIG_DIR and IMPORTER_ENV. It panics if the config cannot
// be loaded, because no service can start without one.
func NewConfig() *Config {
	configDir, envName := getEnvVars()
	config, err := LoadConfig(configDir, envName)
	if err != nil {
		panic(err)
	}
	return config
}

// LoadConfig reads .env.<envName> from configDir. Settings in the
// process environment override settings in the file.
func LoadConfig(configDir, envName string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(configDir)
	v.SetConfigName(".env." + envName)
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, NewError(fmt.Sprintf("Cannot read config file .env.%s in %s", envName, configDir), err, true)
	}
	config := fromViper(v, envName)
	if err := config.expandPaths(); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := config.makeDirs(); err != nil {
		return nil, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("DISPATCH_WORKERS", 1)
	v.SetDefault("HTTP_ADDR", ":3000")
	v.SetDefault("HTTP_TIMEOUT", "5m")
	v.SetDefault("LISTING_PROVIDER", constants.ListingProviderDropbox)
	v.SetDefault("LOG_LEVEL", "INFO")
	v.SetDefault("NSQ_TOPIC", "asset_import")
	v.SetDefault("QUEUE_TRANSPORT", constants.QueueTransportSQS)
	v.SetDefault("RUN_HISTORY_SIZE", 50)
	v.SetDefault("S3_USE_SSL", true)
}

func fromViper(v *viper.Viper, envName string) *Config {
	level, ok := logLevels[strings.ToUpper(v.GetString("LOG_LEVEL"))]
	if !ok {
		level = logging.INFO
	}
	return &Config{
		AWSAccessKeyID:  v.GetString("AWS_ACCESS_KEY_ID"),
		AWSSecretKey:    v.GetString("AWS_SECRET_KEY"),
		ConfigName:      envName,
		DatabaseURL:     v.GetString("DATABASE_URL"),
		DispatchWorkers: v.GetInt("DISPATCH_WORKERS"),
		DropboxToken:    v.GetString("DROPBOX_API_TOKEN"),
		HTTPAddr:        v.GetString("HTTP_ADDR"),
		HTTPTimeout:     v.GetDuration("HTTP_TIMEOUT"),
		ImportDir:       v.GetString("IMPORT_DIR"),
		ListingProvider: strings.ToLower(v.GetString("LISTING_PROVIDER")),
		LogDir:          v.GetString("LOG_DIR"),
		LogLevel:        level,
		NsqTCPAddr:      v.GetString("NSQ_TCP_ADDR"),
		NsqTopic:        v.GetString("NSQ_TOPIC"),
		PidFile:         v.GetString("PID_FILE"),
		QueueRegion:     v.GetString("AWS_CRAWLER_QUEUE_REGION"),
		QueueTransport:  strings.ToLower(v.GetString("QUEUE_TRANSPORT")),
		QueueURL:        v.GetString("AWS_CRAWLER_QUEUE_URL"),
		RedisDefaultDB:  v.GetInt("REDIS_DEFAULT_DB"),
		RedisPassword:   v.GetString("REDIS_PASSWORD"),
		RedisURL:        v.GetString("REDIS_URL"),
		RunHistorySize:  v.GetInt("RUN_HISTORY_SIZE"),
		S3Bucket:        v.GetString("S3_BUCKET"),
		S3Host:          v.GetString("S3_HOST"),
		S3Key:           v.GetString("S3_KEY"),
		S3Region:        v.GetString("S3_REGION"),
		S3Secret:        v.GetString("S3_SECRET"),
		S3UseSSL:        v.GetBool("S3_USE_SSL"),
		SQSEndpoint:     v.GetString("SQS_ENDPOINT"),
	}
}

func getEnvVars() (string, string) {
	configDir := getRequiredEnvVar("IMPORTER_CONFIG_DIR")
	envName := getRequiredEnvVar("IMPORTER_ENV")
	return configDir, envName
}

func getRequiredEnvVar(varName string) string {
	value := os.Getenv(varName)
	if value == "" {
		panic(fmt.Sprintf("Required env var %s not set", varName))
	}
	return value
}

// Expand ~ to home dir in path settings.
func (c *Config) expandPaths() error {
	var err error
	if c.LogDir, err = util.ExpandTilde(c.LogDir); err != nil {
		return err
	}
	if c.PidFile, err = util.ExpandTilde(c.PidFile); err != nil {
		return err
	}
	if c.ListingProvider == constants.ListingProviderLocal {
		c.ImportDir, err = util.ExpandTilde(c.ImportDir)
	}
	return err
}

// Validate checks that the listing provider and queue transport are
// known and that each has the settings it needs.
func (c *Config) Validate() error {
	if !util.StringListContains(constants.ListingProviders, c.ListingProvider) {
		return NewError(fmt.Sprintf("Unknown LISTING_PROVIDER '%s'. Valid options: %s",
			c.ListingProvider, strings.Join(constants.ListingProviders, ", ")), nil, true)
	}
	if !util.StringListContains(constants.QueueTransports, c.QueueTransport) {
		return NewError(fmt.Sprintf("Unknown QUEUE_TRANSPORT '%s'. Valid options: %s",
			c.QueueTransport, strings.Join(constants.QueueTransports, ", ")), nil, true)
	}
	missing := make([]string, 0)
	require := func(value, name string) {
		if value == "" {
			missing = append(missing, name)
		}
	}
	require(c.ImportDir, "IMPORT_DIR")
	switch c.ListingProvider {
	case constants.ListingProviderS3:
		require(c.S3Host, "S3_HOST")
		require(c.S3Bucket, "S3_BUCKET")
	case constants.ListingProviderDropbox:
		require(c.DropboxToken, "DROPBOX_API_TOKEN")
	}
	switch c.QueueTransport {
	case constants.QueueTransportSQS:
		require(c.QueueRegion, "AWS_CRAWLER_QUEUE_REGION")
		require(c.QueueURL, "AWS_CRAWLER_QUEUE_URL")
	case constants.QueueTransportNSQ:
		require(c.NsqTCPAddr, "NSQ_TCP_ADDR")
		require(c.NsqTopic, "NSQ_TOPIC")
	}
	if len(missing) > 0 {
		return NewError(fmt.Sprintf("Missing required settings: %s", strings.Join(missing, ", ")), nil, true)
	}
	if c.DispatchWorkers < 1 {
		c.DispatchWorkers = 1
	}
	return nil
}

func (c *Config) makeDirs() error {
	if c.LogDir == "" {
		return nil
	}
	return os.MkdirAll(c.LogDir, 0755)
}

// QueueTarget identifies the queue that import messages go to.
// For SQS, URL is the queue URL. For NSQ, URL is the topic name.
type QueueTarget struct {
	Region string
	URL    string
}

// QueueTarget returns the configured target for dispatched messages.
func (c *Config) QueueTarget() QueueTarget {
	if c.QueueTransport == constants.QueueTransportNSQ {
		return QueueTarget{URL: c.NsqTopic}
	}
	return QueueTarget{Region: c.QueueRegion, URL: c.QueueURL}
}

// ToJSON returns the config as JSON with credentials redacted,
// suitable for logging at startup.
func (c *Config) ToJSON() string {
	redacted := *c
	redacted.AWSSecretKey = util.RedactSecret(c.AWSSecretKey)
	redacted.DropboxToken = util.RedactSecret(c.DropboxToken)
	redacted.RedisPassword = util.RedactSecret(c.RedisPassword)
	redacted.S3Secret = util.RedactSecret(c.S3Secret)
	if c.DatabaseURL != "" {
		redacted.DatabaseURL = "[redacted]"
	}
	data, err := json.MarshalIndent(redacted, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": "%s"}`, err.Error())
	}
	return string(data)
}
