package buildCFG

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/config"
	"github.com/wb-go/wbf/dbpg"

	"eventure/internal/mailer"
)

type ServerConfig struct {
	Port string
}

type RabbitConfig struct {
	Url      string
	Exchange string
	Queue    string
}

func BuildServerConfig(cfg *config.Config, log *zerolog.Logger) ServerConfig {
	port := cfg.GetString("server.port")
	if port == "" {
		port = "8080"
	}
	log.Info().Str("port", port).Msg("server config loaded")
	return ServerConfig{Port: port}
}

// BuildDBConfig resolves the master DSN and pool options. DATABASE_DSN in the
// environment overrides config.yaml so credentials stay out of checked-in
// files.
func BuildDBConfig(cfg *config.Config, log *zerolog.Logger) (string, []string, *dbpg.Options, error) {
	masterDSN := os.Getenv("DATABASE_DSN")
	if masterDSN == "" {
		masterDSN = cfg.GetString("database.master_dsn")
	}
	if masterDSN == "" {
		return "", nil, nil, fmt.Errorf("database DSN is not configured")
	}

	slaveDSNs := cfg.GetStringSlice("database.slave_dsns")

	opts := &dbpg.Options{
		MaxOpenConns:    cfg.GetInt("database.max_open_conns"),
		MaxIdleConns:    cfg.GetInt("database.max_idle_conns"),
		ConnMaxLifetime: time.Duration(cfg.GetInt("database.conn_max_lifetime_seconds")) * time.Second,
	}

	log.Info().Int("slaves", len(slaveDSNs)).Msg("database config loaded")
	return masterDSN, slaveDSNs, opts, nil
}

func BuildRabbitConfig(cfg *config.Config, log *zerolog.Logger) (RabbitConfig, error) {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		url = cfg.GetString("rabbitmq.url")
	}
	if url == "" {
		return RabbitConfig{}, fmt.Errorf("rabbitmq URL is not configured")
	}

	rc := RabbitConfig{
		Url:      url,
		Exchange: cfg.GetString("rabbitmq.exchange"),
		Queue:    cfg.GetString("rabbitmq.queue"),
	}
	if rc.Exchange == "" {
		rc.Exchange = "eventure.notifications"
	}
	if rc.Queue == "" {
		rc.Queue = "eventure.dispatch"
	}

	log.Info().Str("exchange", rc.Exchange).Str("queue", rc.Queue).Msg("rabbitmq config loaded")
	return rc, nil
}

func BuildMailerConfig(cfg *config.Config) mailer.Config {
	password := os.Getenv("SMTP_PASSWORD")
	if password == "" {
		password = cfg.GetString("smtp.password")
	}
	return mailer.Config{
		Host:     cfg.GetString("smtp.host"),
		Port:     cfg.GetString("smtp.port"),
		From:     cfg.GetString("smtp.from"),
		Password: password,
		Enabled:  cfg.GetBool("smtp.enabled"),
	}
}
