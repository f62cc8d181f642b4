package config

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"ticketdesk/entity"
	"ticketdesk/lib/phone"
	"ticketdesk/lib/validate"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StoreMongo  = "mongo"
	StoreMySql  = "mysql"
	StoreMemory = "memory"
)

type Listen struct {
	BindIp         string        `yaml:"bind_ip" env-default:"0.0.0.0"`
	Port           string        `yaml:"port" env:"PORT" env-default:"3000"`
	StaticDir      string        `yaml:"static_dir" env-default:""`
	RequestTimeout time.Duration `yaml:"request_timeout" env-default:"15s"`
}

type MongoConfig struct {
	Uri      string `yaml:"uri" env:"MONGO_URI" env-default:""`
	Host     string `yaml:"host" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env-default:"27017"`
	User     string `yaml:"user" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"ticketdesk"`
}

type MySqlConfig struct {
	HostName string `yaml:"hostname" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env-default:"3306"`
	UserName string `yaml:"username" env-default:""`
	Password string `yaml:"password" env-default:""`
	Database string `yaml:"database" env-default:"ticketdesk"`
	Prefix   string `yaml:"prefix" env-default:""`
}

type TicketsConfig struct {
	CounterKey string `yaml:"counter_key" env-default:"ticket"`
	Total      int    `yaml:"total" env:"TOTAL_TICKETS" env-default:"300"`
}

type PhoneConfig struct {
	Country     string `yaml:"country" env-default:"GH"`
	CountryCode string `yaml:"country_code" env-default:""`
	// RedundantPrefixes defaults to the variants derived from the resolved calling code.
	RedundantPrefixes []string `yaml:"redundant_prefixes"`
}

type RegistrationConfig struct {
	RequireEmail bool `yaml:"require_email"`
}

type EventConfig struct {
	Name      string `yaml:"name" env-default:"Roses of Sharon"`
	Organizer string `yaml:"organizer" env-default:"The Church Team"`
	Date      string `yaml:"date" env-default:""`
	Time      string `yaml:"time" env-default:""`
	Location  string `yaml:"location" env-default:""`
	MapUrl    string `yaml:"map_url" env-default:""`
}

type EmailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host" env-default:"smtp-relay.brevo.com"`
	Port     int    `yaml:"port" env-default:"587"`
	Username string `yaml:"username" env:"BREVO_SMTP_USER" env-default:""`
	Password string `yaml:"password" env:"BREVO_SMTP_PASS" env-default:""`
	From     string `yaml:"from" env-default:""`
	FromName string `yaml:"from_name" env-default:"Roses of Sharon Team"`
}

type BrevoConfig struct {
	ApiKey  string `yaml:"api_key" env:"BREVO_API_KEY" env-default:""`
	BaseUrl string `yaml:"base_url" env-default:"https://api.brevo.com/v3"`
}

type SmsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Sender  string `yaml:"sender" env:"BREVO_SMS_SENDER" env-default:""`
}

type WhatsAppConfig struct {
	Enabled      bool   `yaml:"enabled"`
	SenderNumber string `yaml:"sender_number" env:"BREVO_WHATSAPP_SENDER" env-default:""`
	TemplateId   int    `yaml:"template_id" env-default:"0"`
}

type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold" env-default:"3"`
	Cooldown         time.Duration `yaml:"cooldown" env-default:"30s"`
}

type NotifyConfig struct {
	Workers   int            `yaml:"workers" env-default:"4"`
	QueueSize int            `yaml:"queue_size" env-default:"256"`
	Timeout   time.Duration  `yaml:"timeout" env-default:"10s"`
	Breaker   BreakerConfig  `yaml:"breaker"`
	Email     EmailConfig    `yaml:"email"`
	Brevo     BrevoConfig    `yaml:"brevo"`
	Sms       SmsConfig      `yaml:"sms"`
	WhatsApp  WhatsAppConfig `yaml:"whatsapp"`
}

type TelegramConfig struct {
	Enabled  bool    `yaml:"enabled"`
	ApiKey   string  `yaml:"api_key" env:"TELEGRAM_API_KEY" env-default:""`
	AdminIds []int64 `yaml:"admin_ids"`
	LogLevel string  `yaml:"log_level" env-default:"error"`
	Notify   bool    `yaml:"notify_registrations"`
	// DigestInterval batches registration notices; zero sends each one immediately.
	DigestInterval time.Duration `yaml:"digest_interval" env-default:"0s"`
}

type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-default:"127.0.0.1:9092"`
	Topic   string   `yaml:"topic" env-default:"ticketdesk.registrations"`
}

type RateLimitConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr" env:"REDIS_ADDR" env-default:"127.0.0.1:6379"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB       int           `yaml:"db" env-default:"0"`
	Limit    int           `yaml:"limit" env-default:"10"`
	Window   time.Duration `yaml:"window" env-default:"1m"`
}

type Config struct {
	Env          string             `yaml:"env" env:"ENV" env-default:"local"`
	Store        string             `yaml:"store" env:"STORE" env-default:"mongo"`
	Listen       Listen             `yaml:"listen"`
	Mongo        MongoConfig        `yaml:"mongo"`
	MySql        MySqlConfig        `yaml:"mysql"`
	Tickets      TicketsConfig      `yaml:"tickets"`
	Phone        PhoneConfig        `yaml:"phone"`
	Registration RegistrationConfig `yaml:"registration"`
	Event        EventConfig        `yaml:"event"`
	Notify       NotifyConfig       `yaml:"notify"`
	Telegram     TelegramConfig     `yaml:"telegram"`
	Kafka        KafkaConfig        `yaml:"kafka"`
	RateLimit    RateLimitConfig    `yaml:"rate_limit"`
	Operators    []entity.Operator  `yaml:"operators"`
}

var instance *Config
var once sync.Once

func MustLoad(path string) *Config {
	once.Do(func() {
		conf, err := Load(path)
		if err != nil {
			log.Fatal(err)
		}
		instance = conf
	})
	return instance
}

// Load reads the yaml file at path, or only the environment when path is empty.
func Load(path string) (*Config, error) {
	conf := &Config{}
	var err error
	if path == "" {
		err = cleanenv.ReadEnv(conf)
	} else {
		err = cleanenv.ReadConfig(path, conf)
	}
	if err != nil {
		desc, _ := cleanenv.GetDescription(conf, nil)
		return nil, fmt.Errorf("config: %s; %s", err, desc)
	}
	if err = conf.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return conf, nil
}

func (c *Config) Validate() error {
	switch c.Store {
	case StoreMongo, StoreMySql, StoreMemory:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.Tickets.Total <= 0 {
		return errors.New("tickets.total must be positive")
	}
	if c.Tickets.CounterKey == "" {
		return errors.New("tickets.counter_key is empty")
	}
	if c.Notify.Workers <= 0 || c.Notify.QueueSize <= 0 {
		return errors.New("notify.workers and notify.queue_size must be positive")
	}
	if c.RateLimit.Enabled && (c.RateLimit.Limit <= 0 || c.RateLimit.Window <= 0) {
		return errors.New("rate_limit.limit and rate_limit.window must be positive")
	}
	if c.Telegram.Enabled && c.Telegram.ApiKey == "" {
		return errors.New("telegram.api_key is required when telegram is enabled")
	}
	for i := range c.Operators {
		if err := validate.Struct(&c.Operators[i]); err != nil {
			return fmt.Errorf("operators[%d]: %w", i, err)
		}
	}
	return nil
}

// PhoneNormalizer uses phone.country_code when set, otherwise the calling code of phone.country.
func (c *Config) PhoneNormalizer() (*phone.Normalizer, error) {
	cc := c.Phone.CountryCode
	if cc == "" {
		var err error
		if cc, err = phone.CallingCode(c.Phone.Country); err != nil {
			return nil, err
		}
	}
	return phone.New(cc, c.Phone.RedundantPrefixes)
}

func (c *Config) EventDetails() entity.Event {
	return entity.Event{
		Name:      c.Event.Name,
		Organizer: c.Event.Organizer,
		Date:      c.Event.Date,
		Time:      c.Event.Time,
		Location:  c.Event.Location,
		MapUrl:    c.Event.MapUrl,
	}
}
