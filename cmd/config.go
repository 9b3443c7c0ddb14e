package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"tms/internal/core/application/usecases/commands"
	"tms/internal/core/domain/model/order"
	"tms/internal/pkg/errs"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override, TMS_HTTP_PORT -> http.port.
const EnvPrefix = "TMS_"

const defaultConfig = `
http:
  port: 8080
db:
  host: localhost
  port: 5432
  user: tms
  password: tms
  name: tms
  sslmode: disable
kafka:
  brokers: localhost:9092
  consumer_group: tms
  command_topic: tms.commands
  event_topic: tms.events
  dead_letter_topic: tms.commands.dlq
nats:
  url: nats://localhost:4222
  start_request_subject: tms.start.request
  start_response_subject: tms.start.response
  dead_letter_subject: tms.start.response.dlq
redis:
  addr: localhost:6379
  password: ""
  db: 0
  lease_ttl: 30s
inventory:
  base_url: http://localhost:8081/api/v1
  timeout: 5s
orders:
  start_mode: local
  removal_blocked_states: ""
  negotiation_timeout: 1m
  negotiation_max_attempts: 3
  sweep_schedule: "*/10 * * * * *"
log:
  level: info
  format: json
`

type Config struct {
	HTTP      HTTPConfig      `koanf:"http"`
	DB        DBConfig        `koanf:"db"`
	Kafka     KafkaConfig     `koanf:"kafka"`
	NATS      NATSConfig      `koanf:"nats"`
	Redis     RedisConfig     `koanf:"redis"`
	Inventory InventoryConfig `koanf:"inventory"`
	Orders    OrdersConfig    `koanf:"orders"`
	Log       LogConfig       `koanf:"log"`
}

type HTTPConfig struct {
	Port int `koanf:"port"`
}

type DBConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Name     string `koanf:"name"`
	SslMode  string `koanf:"sslmode"`
}

// DSN returns the libpq keyword/value connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SslMode)
}

type KafkaConfig struct {
	Brokers         []string `koanf:"brokers"`
	ConsumerGroup   string   `koanf:"consumer_group"`
	CommandTopic    string   `koanf:"command_topic"`
	EventTopic      string   `koanf:"event_topic"`
	DeadLetterTopic string   `koanf:"dead_letter_topic"`
}

type NATSConfig struct {
	URL                  string `koanf:"url"`
	StartRequestSubject  string `koanf:"start_request_subject"`
	StartResponseSubject string `koanf:"start_response_subject"`
	DeadLetterSubject    string `koanf:"dead_letter_subject"`
}

type RedisConfig struct {
	Addr     string        `koanf:"addr"`
	Password string        `koanf:"password"`
	DB       int           `koanf:"db"`
	LeaseTTL time.Duration `koanf:"lease_ttl"`
}

type InventoryConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

type OrdersConfig struct {
	StartMode              string        `koanf:"start_mode"`
	RemovalBlockedStates   []string      `koanf:"removal_blocked_states"`
	NegotiationTimeout     time.Duration `koanf:"negotiation_timeout"`
	NegotiationMaxAttempts int           `koanf:"negotiation_max_attempts"`
	SweepSchedule          string        `koanf:"sweep_schedule"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// LoadConfig layers defaults, the optional YAML file at path and TMS_
// environment variables, in that order. A .env file in the working directory
// is loaded into the environment first when present.
func LoadConfig(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(rawbytes.Provider([]byte(defaultConfig)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err = k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// TMS_ORDERS_START_MODE -> orders.start_mode: the first segment names the
	// section, the rest is the field.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		parts := strings.SplitN(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", 2)
		if len(parts) == 1 {
			return parts[0]
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)
	cfg.Orders.RemovalBlockedStates = splitList(cfg.Orders.RemovalBlockedStates)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// splitList flattens comma separated entries and drops blanks.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

func (c Config) Validate() error {
	var problems []error

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("http.port", c.HTTP.Port, 1, 65535))
	}
	if c.DB.Host == "" || c.DB.Name == "" {
		problems = append(problems, errs.NewValueIsRequiredError("db.host and db.name"))
	}
	if len(c.Kafka.Brokers) == 0 {
		problems = append(problems, errs.NewValueIsRequiredError("kafka.brokers"))
	}
	if c.Kafka.CommandTopic == "" || c.Kafka.EventTopic == "" || c.Kafka.DeadLetterTopic == "" {
		problems = append(problems, errs.NewValueIsRequiredError("kafka topics"))
	}
	if c.NATS.URL == "" || c.NATS.StartRequestSubject == "" || c.NATS.StartResponseSubject == "" || c.NATS.DeadLetterSubject == "" {
		problems = append(problems, errs.NewValueIsRequiredError("nats url and subjects"))
	}
	if c.Redis.LeaseTTL <= 0 {
		problems = append(problems, errs.NewValueIsInvalidError("redis.lease_ttl"))
	}
	if _, err := commands.ParseStartMode(c.Orders.StartMode); err != nil {
		problems = append(problems, err)
	}
	if _, err := c.Orders.BlockedStates(); err != nil {
		problems = append(problems, err)
	}
	if c.Orders.NegotiationTimeout <= 0 {
		problems = append(problems, errs.NewValueIsInvalidError("orders.negotiation_timeout"))
	}
	if c.Orders.NegotiationMaxAttempts < 1 {
		problems = append(problems, errs.NewValueIsOutOfRangeError("orders.negotiation_max_attempts", c.Orders.NegotiationMaxAttempts, 1, nil))
	}

	return errors.Join(problems...)
}

// BlockedStates parses the lifecycle names that block a transport unit
// removal.
func (c OrdersConfig) BlockedStates() ([]order.State, error) {
	states := make([]order.State, 0, len(c.RemovalBlockedStates))
	var problems []error
	for _, name := range c.RemovalBlockedStates {
		s, err := order.ParseState(name)
		if err != nil {
			problems = append(problems, err)
			continue
		}
		states = append(states, s)
	}
	return states, errors.Join(problems...)
}
