package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"
)

// PostgresConfig contains PostgreSQL connection parameters.
//
// The deployment may either point reads and writes at distinct endpoints
// (HostReader/HostWriter, e.g. a replica and a primary) or supply a
// single Host used for both. One-shot tools (migrate, ingest) always use
// the writer endpoint.
type PostgresConfig struct {
	User       string `koanf:"user" validate:"required"`
	Pass       string `koanf:"pass" validate:"required"`
	Dbname     string `koanf:"dbname" validate:"required"`
	Host       string `koanf:"host"`
	HostReader string `koanf:"host_reader"`
	HostWriter string `koanf:"host_writer"`
	Port       int    `koanf:"port" validate:"required"`
	SSLMode    string `koanf:"ssl_mode" validate:"required"`
	MaxConns   int    `koanf:"max_conns" validate:"min=1"`
	MinConns   int    `koanf:"min_conns" validate:"min=0"`

	// WaitTimeout bounds the startup readiness probe. The probe retries
	// with backoff until the database accepts connections or this much
	// time has passed.
	WaitTimeout time.Duration `koanf:"wait_timeout" validate:"min=1s"`
}

// ReaderHost resolves the endpoint used for read traffic.
func (p PostgresConfig) ReaderHost() string {
	if p.HostReader != "" {
		return p.HostReader
	}
	return p.Host
}

// WriterHost resolves the endpoint used for write traffic.
func (p PostgresConfig) WriterHost() string {
	if p.HostWriter != "" {
		return p.HostWriter
	}
	return p.Host
}

// ReaderDSN is the connection string for the read endpoint.
func (p PostgresConfig) ReaderDSN() string {
	return p.dsn(p.ReaderHost())
}

// WriterDSN is the connection string for the write endpoint.
func (p PostgresConfig) WriterDSN() string {
	return p.dsn(p.WriterHost())
}

func (p PostgresConfig) dsn(host string) string {
	// JoinHostPort handles IPv6 literals; the password is URL-escaped so
	// punctuation in it cannot break the DSN.
	hostPort := net.JoinHostPort(host, strconv.Itoa(p.Port))
	return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
		p.User,
		url.QueryEscape(p.Pass),
		hostPort,
		p.Dbname,
		p.SSLMode,
	)
}

func (p PostgresConfig) validateHosts() error {
	if p.ReaderHost() == "" || p.WriterHost() == "" {
		return errors.New("config: POSTGRES_HOST or both POSTGRES_HOST_READER and POSTGRES_HOST_WRITER must be set")
	}
	return nil
}
