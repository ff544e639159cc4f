package infra

import (
	"encoding/json"
	"fmt"
	"log"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix env prefix for viper
const EnvPrefix = "COURSEVIEWER"

// environment names
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// AppConfig App option object
type AppConfig struct {
	AppID          string        `mapstructure:"app_id" json:"app_id" yaml:"app_id" validate:"required"`            // Application ID
	Host           string        `mapstructure:"host" json:"host" yaml:"host"`                                      // bind host address
	Port           int           `mapstructure:"port" json:"port" yaml:"port"`                                      // bind listen port
	Env            string        `mapstructure:"env" json:"env" yaml:"env" validate:"oneof=development production"` // runtime environment
	RequestTimeout time.Duration `mapstructure:"request_timeout" json:"request_timeout" yaml:"request_timeout"`     // per request deadline
	Database       struct {
		Driver    string `mapstructure:"driver" json:"driver" yaml:"driver" validate:"required"`                      // driver name
		Host      string `mapstructure:"host" json:"host" yaml:"host" validate:"required"`                            // server host
		MaxConn   int32  `mapstructure:"maxconn" json:"maxconn" yaml:"maxconn" validate:"min=10"`                     // maximum opening connections number
		Password  string `mapstructure:"password" json:"password" yaml:"password" validate:"required"`                // db password
		Port      int    `mapstructure:"port" json:"port" yaml:"port"`                                                // server port
		Protocol  string `mapstructure:"protocol" json:"protocol" yaml:"protocol" validate:"omitempty,oneof=tcp udp"` // connection protocol, eg.tcp
		Query     string `mapstructure:"query" json:"query" yaml:"query"`                                             // DSN query parameter
		Schema    string `mapstructure:"schema" json:"schema" yaml:"schema" validate:"required"`                      // use schema
		User      string `mapstructure:"username" json:"username" yaml:"username" validate:"required"`                // db username
		Bootstrap bool   `mapstructure:"bootstrap" json:"bootstrap" yaml:"bootstrap"`                                 // create tables at startup if missing
	} `mapstructure:"database" json:"database" yaml:"database"`
	Logging struct {
		FilePath string `mapstructure:"file_path" json:"file_path" yaml:"file_path"`                            // log file path
		Level    string `mapstructure:"level" json:"level" yaml:"level" validate:"oneof=debug info warn error"` // global logging level
	} `mapstructure:"logging" json:"logging" yaml:"logging"`
	KVStore struct {
		Host     string `mapstructure:"host" json:"host" yaml:"host"`             // kv host address
		Port     int    `mapstructure:"port" json:"port" yaml:"port"`             // kv listen port
		Password string `mapstructure:"password" json:"password" yaml:"password"` // kv password
		InMemory bool   `mapstructure:"in_memory" json:"in_memory" yaml:"in_memory"`
	} `mapstructure:"kv" json:"kv" yaml:"kv"`
	Client struct {
		APIBaseURL    string        `mapstructure:"api_base_url" json:"api_base_url" yaml:"api_base_url"` // persistence service root, eg.http://localhost:8081/api
		CourseID      string        `mapstructure:"course_id" json:"course_id" yaml:"course_id"`          // cache namespace
		CourseDataURL string        `mapstructure:"course_data_url" json:"course_data_url" yaml:"course_data_url"`
		Timeout       time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout"` // remote call deadline
	} `mapstructure:"client" json:"client" yaml:"client"`
	Playback struct {
		NoteDebounce     time.Duration `mapstructure:"note_debounce" json:"note_debounce" yaml:"note_debounce"`             // quiet period before a note write
		SaveInterval     time.Duration `mapstructure:"save_interval" json:"save_interval" yaml:"save_interval"`             // position save period while playing
		AutoAdvance      bool          `mapstructure:"auto_advance" json:"auto_advance" yaml:"auto_advance"`                // play next lesson when one ends
		AutoAdvanceDelay time.Duration `mapstructure:"auto_advance_delay" json:"auto_advance_delay" yaml:"auto_advance_delay"`
	} `mapstructure:"playback" json:"playback" yaml:"playback"`
	Security struct {
		IDLength int `mapstructure:"id_length" json:"id_length" yaml:"id_length"` // length of generated ID for entities
	} `mapstructure:"security" json:"security" yaml:"security"`
	DevOP struct {
		APM bool `mapstructure:"apm" json:"apm" yaml:"apm"`
	} `mapstructure:"devop" json:"devop" yaml:"devop"`
}

// InitConfig init app config using viper
func InitConfig() (*AppConfig, error) {
	// app
	pflag.String("host", "", "binding address")
	pflag.String("app_id", "", "application identifier (required)")
	pflag.String("env", "development", "runtime environment, can be 'development' or 'production'")
	pflag.Int("port", 8081, "listening port")
	pflag.Duration("request_timeout", 30*time.Second, "per request deadline(m, s and h units are supported), eg.30s")

	// database
	pflag.String("database.driver", "postgres", "database driver to use")
	pflag.String("database.host", "127.0.0.1", "database host")
	pflag.Int("database.port", 5432, "database server port")
	pflag.String("database.protocol", "", "connection protocol(if mysql is used, this flag must be set), eg.tcp")
	pflag.String("database.username", "", "database username (required)")
	pflag.String("database.password", "", "database password (required)")
	pflag.String("database.schema", "", "database schema (required)")
	pflag.String("database.query", "", `additional DSN query parameters('?' is auto prefixed)`)
	pflag.Int32("database.maxconn", 20, "max connection count")
	pflag.Bool("database.bootstrap", false, "create the progress and notes tables at startup if missing")

	// logging
	pflag.String("logging.level", "info", "logging level")
	pflag.String("logging.file_path", "", "log to file")

	// kv storage
	pflag.String("kv.host", "127.0.0.1", "kv host")
	pflag.Int("kv.port", 6379, "kv server port")
	pflag.String("kv.password", "", "kv server password")
	pflag.Bool("kv.in_memory", false, "use an in-process kv store instead of redis")

	// client
	pflag.String("client.api_base_url", "http://localhost:8081/api", "persistence service base URL")
	pflag.String("client.course_id", "", "course identifier used to namespace cached state")
	pflag.String("client.course_data_url", "", "course manifest URL")
	pflag.Duration("client.timeout", 10*time.Second, "remote call deadline")

	// playback
	pflag.Duration("playback.note_debounce", 1000*time.Millisecond, "quiet period before a note is written remotely")
	pflag.Duration("playback.save_interval", 15*time.Second, "position save period while playing")
	pflag.Bool("playback.auto_advance", true, "play the next lesson when one ends")
	pflag.Duration("playback.auto_advance_delay", 1500*time.Millisecond, "delay before auto-advancing")

	// security
	pflag.Int("security.id_length", 24, "set length of generated ID for entities")

	// DevOp
	pflag.Bool("devop.apm", false, "enable apm metrics")

	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)
	viper.AutomaticEnv()
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var config = new(AppConfig)
	if err := viper.Unmarshal(config); err != nil {
		return nil, err
	}
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	if config.Logging.Level == "debug" {
		if configJSON, err := json.MarshalIndent(config, "", "  "); err == nil {
			log.Printf("App config: %s\n", string(configJSON))
		}
	}
	return config, nil
}

func validateConfig(config *AppConfig) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "-" || name == "" {
			name = fld.Tag.Get("yaml")
			if name == "-" || name == "" {
				return ""
			}
		}
		return name
	})
	err := validate.Struct(config)
	if _, ok := err.(*validator.InvalidValidationError); ok {
		log.Fatalf("Failed to validate config: %s", err)
	}
	if err == nil {
		return nil
	}

	var msg []string
	for _, field := range err.(validator.ValidationErrors) {
		namespace := field.Namespace()
		fieldName := namespace[strings.IndexByte(namespace, '.')+1:] // trim top level namespace
		switch field.Tag() {
		case "required":
			msg = append(msg, fmt.Sprintf("%s is required", fieldName))
		case "oneof":
			msg = append(msg, fmt.Sprintf("%s must be one of (%s)", fieldName, field.Param()))
		default:
			msg = append(msg, fmt.Sprintf("%s is invalid", fieldName))
		}
	}
	if len(msg) > 0 {
		return fmt.Errorf("failed to validate config: \n%s", strings.Join(msg, "\n"))
	}
	return nil
}
