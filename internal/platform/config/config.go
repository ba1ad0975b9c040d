package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration. All values come from the
// environment so main stays lean; zero values mean the corresponding backend
// is not wired (memory stores, no relay, no reasoner).
type Server struct {
	Addr          string
	PostgresURL   string
	RedisURL      string
	KafkaBrokers  []string
	AuditTopic    string
	ReasonerURL   string
	JWTSigningKey string
}

// ReferenceCacheTTL bounds how long cached reference lookups are served before
// hitting the backing table again.
var ReferenceCacheTTL = 5 * time.Minute

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("VETRA_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	topic := os.Getenv("VETRA_AUDIT_TOPIC")
	if topic == "" {
		topic = "vetra.audit"
	}

	var brokers []string
	if raw := os.Getenv("VETRA_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Server{
		Addr:          addr,
		PostgresURL:   os.Getenv("VETRA_POSTGRES_URL"),
		RedisURL:      os.Getenv("VETRA_REDIS_URL"),
		KafkaBrokers:  brokers,
		AuditTopic:    topic,
		ReasonerURL:   os.Getenv("VETRA_REASONER_URL"),
		JWTSigningKey: os.Getenv("VETRA_JWT_SIGNING_KEY"),
	}
}
