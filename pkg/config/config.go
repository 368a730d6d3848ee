package config

import (
	"time"
)

type DB struct {
	Url             string        `envconfig:"URL"`
	Driver          string        `envconfig:"DRIVER" default:"postgres"` // postgres, mysql or memory
	MaxOpenConns    int           `envconfig:"MAX_OPEN_CONNS" default:"25"`
	MaxIdleConns    int           `envconfig:"MAX_IDLE_CONNS" default:"25"`
	ConnMaxLifetime time.Duration `envconfig:"CONN_MAX_LIFETIME" default:"1h"`
	AutoMigrate     bool          `envconfig:"AUTO_MIGRATE" default:"true"`
}

type Redis struct {
	URL          string        `envconfig:"URL" default:"redis://localhost:6379/0"`
	KeyPrefix    string        `envconfig:"KEY_PREFIX" default:"escrow:"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

// Lock selects how lifecycle operations on one transaction code are
// serialized. The memory backend is only correct for a single instance.
type Lock struct {
	Backend string        `envconfig:"BACKEND" default:"memory"` // memory or redis
	TTL     time.Duration `envconfig:"TTL" default:"30s"`
	Wait    time.Duration `envconfig:"WAIT" default:"10s"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

//revive:disable
type Stripe struct {
	ApiKey        string `envconfig:"API_KEY"`
	SigningSecret string `envconfig:"SIGNING_SECRET"`
	SuccessPath   string `envconfig:"SUCCESS_PATH" default:"http://localhost:3000/transactions/payment/success"`
	CancelPath    string `envconfig:"CANCEL_PATH" default:"http://localhost:3000/transactions/payment/cancel"`
	Country       string `envconfig:"COUNTRY" default:"US"`
}

//revive:enable
type PaymentProviders struct {
	Driver string  `envconfig:"DRIVER" default:"stripe"` // stripe or mock
	Stripe *Stripe `envconfig:"STRIPE"`
}

// Escrow holds the business settings of the escrow flow.
type Escrow struct {
	Currency        string        `envconfig:"CURRENCY" default:"hnl"`
	ProviderTimeout time.Duration `envconfig:"PROVIDER_TIMEOUT" default:"15s"`
	SecretLength    int           `envconfig:"SECRET_LENGTH" default:"32"`
}

type EventBus struct {
	Driver       string `envconfig:"DRIVER" default:"memory"` // memory or kafka
	KafkaBrokers string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	KafkaTopic   string `envconfig:"KAFKA_TOPIC" default:"escrow.events"`
	KafkaGroupID string `envconfig:"KAFKA_GROUP_ID" default:"escrow"`
}

// Notify selects the buyer-directed channel for unlock codes. The kafka
// driver reuses EVENT_BUS_KAFKA_BROKERS with its own topic.
type Notify struct {
	Driver     string `envconfig:"DRIVER" default:"memory"` // memory or kafka
	KafkaTopic string `envconfig:"KAFKA_TOPIC" default:"escrow.buyer-notifications"`
}

type Metrics struct {
	Enabled bool   `envconfig:"ENABLED" default:"true"`
	Path    string `envconfig:"ENDPOINT" default:"/metrics"` // METRICS_ENDPOINT; a PATH tag would fall back to $PATH
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"json"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[escrow]"`
}

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

type App struct {
	Env              string            `envconfig:"APP_ENV" default:"development"`
	Server           *Server           `envconfig:"SERVER"`
	Log              *Log              `envconfig:"LOG"`
	DB               *DB               `envconfig:"DATABASE"`
	Redis            *Redis            `envconfig:"REDIS"`
	Lock             *Lock             `envconfig:"LOCK"`
	RateLimit        *RateLimit        `envconfig:"RATE_LIMIT"`
	PaymentProviders *PaymentProviders `envconfig:"PAYMENT_PROVIDER"`
	Escrow           *Escrow           `envconfig:"ESCROW"`
	EventBus         *EventBus         `envconfig:"EVENT_BUS"`
	Notify           *Notify           `envconfig:"NOTIFY"`
	Metrics          *Metrics          `envconfig:"METRICS"`
}
