package engine

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

const CONFIGFILE = "mqguard.config"

type Config struct {
	Host        string        `json:"host"`
	Port        string        `json:"port"`
	TlsHost     string        `json:"tlsHost"`
	TlsPort     string        `json:"tlsPort"`
	TlsInfo     TLSInfo       `json:"tlsInfo"`
	HTTPPort    string        `json:"httpPort"`
	OpTimeoutMs int           `json:"opTimeoutMs"`
	HeartbeatMs int           `json:"heartbeatMs"`
	Directory   DirectoryInfo `json:"directory"`
	Audit       AuditInfo     `json:"audit"`
}

type TLSInfo struct {
	Verify   bool   `json:"verify"`
	CaFile   string `json:"caFile"`
	CertFile string `json:"certFile"`
	KeyFile  string `json:"keyFile"`
}

type DirectoryInfo struct {
	Backend string `json:"backend"` // memory | postgres | http
	DSN     string `json:"dsn"`
	URL     string `json:"url"`
}

type AuditInfo struct {
	Kafka bool     `json:"kafka"`
	Addr  []string `json:"addr"`
	Topic string   `json:"topic"`
}

var DefaultConfig = &Config{
	Host:        "0.0.0.0",
	Port:        "1883",
	OpTimeoutMs: 5000,
	HeartbeatMs: 60000,
	Directory:   DirectoryInfo{Backend: "memory"},
}

func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = CONFIGFILE
	}
	content, err := os.ReadFile(path)
	if err != nil {
		log.Error("Read config file error: ", zap.Error(err))
		return nil, err
	}

	var config Config
	err = json.Unmarshal(content, &config)
	if err != nil {
		log.Error("Unmarshal config file error: ", zap.Error(err))
		return nil, err
	}

	if config.Port != "" && config.Host == "" {
		config.Host = "0.0.0.0"
	}
	if config.OpTimeoutMs <= 0 {
		config.OpTimeoutMs = DefaultConfig.OpTimeoutMs
	}
	if config.HeartbeatMs <= 0 {
		config.HeartbeatMs = DefaultConfig.HeartbeatMs
	}
	if config.Directory.Backend == "" {
		config.Directory.Backend = "memory"
	}

	return &config, nil
}

// OpTimeout is the ceiling for one directory or rule store call.
func (c *Config) OpTimeout() time.Duration {
	return time.Duration(c.OpTimeoutMs) * time.Millisecond
}

// Heartbeat is the interval for periodic stats logging in the host.
func (c *Config) Heartbeat() time.Duration {
	return time.Duration(c.HeartbeatMs) * time.Millisecond
}

func NewTLSConfig(tlsInfo TLSInfo) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(tlsInfo.CertFile, tlsInfo.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("error parsing X509 certificate/key pair: %v", err)
	}

	config := tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	}

	if tlsInfo.Verify {
		config.ClientAuth = tls.RequireAndVerifyClientCert
	}
	if tlsInfo.CaFile != "" {
		rootPEM, err := os.ReadFile(tlsInfo.CaFile)
		if err != nil || rootPEM == nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		ok := pool.AppendCertsFromPEM(rootPEM)
		if !ok {
			return nil, fmt.Errorf("failed to parse root ca certificate")
		}
		config.ClientCAs = pool
	}

	return &config, nil
}
