package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ServicePort      string
	MetricsPort      string
	BaseDomain       string
	PostgreSQLConfig PostgreSQLConfig
	MidtransConfig   MidtransConfig
	KafkaConfig      KafkaConfig
	SMTPConfig       SMTPConfig
	TracingConfig    TracingConfig
	ExchangeRates    string
	ExchangeRatesURL string
	DisplayCurrency  string
	MigrationsPath   string
}

type PostgreSQLConfig struct {
	DBHost     string
	DBName     string
	DBPort     string
	DBUsername string
	DBPassword string
}

type MidtransConfig struct {
	ServerKey string
}

type KafkaConfig struct {
	BrokerAddress   string
	BrokerTopic     string
	BrokerPartition int
}

type SMTPConfig struct {
	Host     string
	Port     int
	Sender   string
	Password string
}

type TracingConfig struct {
	CollectorHost string
}

func CreateNewConfig() *Config {
	godotenv.Load(".env")

	smtpPort, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))
	brokerPartition, _ := strconv.Atoi(os.Getenv("BROKER_PARTITION"))

	conf := Config{
		ServicePort: os.Getenv("SERVICE_PORT"),
		MetricsPort: os.Getenv("METRICS_PORT"),
		BaseDomain:  os.Getenv("BASE_DOMAIN"),
		PostgreSQLConfig: PostgreSQLConfig{
			DBHost:     os.Getenv("DB_HOST"),
			DBName:     os.Getenv("DB_NAME"),
			DBPort:     os.Getenv("DB_PORT"),
			DBUsername: os.Getenv("DB_USERNAME"),
			DBPassword: os.Getenv("DB_PASSWORD"),
		},
		KafkaConfig: KafkaConfig{
			BrokerAddress:   os.Getenv("BROKER_ADDRESS"),
			BrokerTopic:     os.Getenv("BROKER_TOPIC"),
			BrokerPartition: brokerPartition,
		},
		MidtransConfig: MidtransConfig{
			ServerKey: os.Getenv("MIDTRANS_SERVER_KEY"),
		},
		SMTPConfig: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     smtpPort,
			Sender:   os.Getenv("SMTP_SENDER"),
			Password: os.Getenv("SMTP_PASSWORD"),
		},
		TracingConfig: TracingConfig{
			CollectorHost: os.Getenv("COLLECTOR_HOST"),
		},
		ExchangeRates:    os.Getenv("EXCHANGE_RATES"),
		ExchangeRatesURL: os.Getenv("EXCHANGE_RATES_URL"),
		DisplayCurrency:  os.Getenv("DISPLAY_CURRENCY"),
		MigrationsPath:   os.Getenv("MIGRATIONS_PATH"),
	}

	return &conf
}
