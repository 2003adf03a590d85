package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/listeners"
	"go.uber.org/zap"

	"github.com/mqguard/mqguard/audit"
	"github.com/mqguard/mqguard/credentials"
	"github.com/mqguard/mqguard/directory"
	"github.com/mqguard/mqguard/directory/httpdir"
	"github.com/mqguard/mqguard/directory/postgres"
	"github.com/mqguard/mqguard/engine"
	"github.com/mqguard/mqguard/hooks/mochi"
	"github.com/mqguard/mqguard/logger"
	"github.com/mqguard/mqguard/monitor"
)

var log = logger.Get().Named("main")

func main() {
	path := ""
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	config, err := engine.LoadConfig(path)
	if err != nil {
		log.Error("Load config file error: ", zap.Error(err))
		return
	}

	dir, rules, err := openDirectory(config)
	if err != nil {
		log.Error("open directory backend error: ", zap.Error(err))
		return
	}

	eng := engine.New(config, dir, rules, credentials.NewBcryptVerifier())

	var sink audit.Sink
	if config.Audit.Kafka {
		sink, err = audit.NewKafkaSink(audit.KafkaConfig{
			Addr:  config.Audit.Addr,
			Topic: config.Audit.Topic,
		})
		if err != nil {
			log.Error("init kafka audit sink error: ", zap.Error(err))
			return
		}
	} else {
		sink = audit.NewLogSink()
	}
	eng.SetRecorder(audit.NewRecorder(sink))

	if config.HTTPPort != "" {
		go func() {
			if err := monitor.InitHTTPMonitor(eng, config.HTTPPort); err != nil {
				log.Error("http monitor error: ", zap.Error(err))
			}
		}()
	}

	server := mqtt.New(&mqtt.Options{})
	if err := server.AddHook(mochi.New(eng), nil); err != nil {
		log.Error("add hook error: ", zap.Error(err))
		return
	}

	if config.Port != "" {
		tcp := listeners.NewTCP(listeners.Config{
			ID:      "tcp",
			Address: config.Host + ":" + config.Port,
		})
		if err := server.AddListener(tcp); err != nil {
			log.Error("add tcp listener error: ", zap.Error(err))
			return
		}
	}
	if config.TlsPort != "" {
		tlsConfig, err := engine.NewTLSConfig(config.TlsInfo)
		if err != nil {
			log.Error("tls config error: ", zap.Error(err))
			return
		}
		tcps := listeners.NewTCP(listeners.Config{
			ID:        "tls",
			Address:   config.TlsHost + ":" + config.TlsPort,
			TLSConfig: tlsConfig,
		})
		if err := server.AddListener(tcps); err != nil {
			log.Error("add tls listener error: ", zap.Error(err))
			return
		}
	}

	go func() {
		if err := server.Serve(); err != nil {
			log.Error("broker serve error: ", zap.Error(err))
		}
	}()

	go heartbeat(eng, config.Heartbeat())

	s := waitForSignal()
	log.Info("signal got, broker closed.", zap.Any("signal", s))
	server.Close()
	eng.Close()
}

func openDirectory(config *engine.Config) (directory.UserDirectory, directory.RuleStore, error) {
	switch config.Directory.Backend {
	case "postgres":
		store, err := postgres.Open(config.Directory.DSN)
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	case "http":
		client := httpdir.New(httpdir.Config{
			UserURL:   config.Directory.URL + "/user",
			PrefixURL: config.Directory.URL + "/prefixes",
			RuleURL:   config.Directory.URL + "/rules",
		})
		return client, client, nil
	default:
		mem := directory.NewMemory()
		return mem, mem, nil
	}
}

func heartbeat(eng *engine.Engine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		stats := eng.Stats()
		log.Info("heartbeat",
			zap.Int("connections", stats.Connections),
			zap.Int("sessions", stats.Sessions))
	}
}

func waitForSignal() os.Signal {
	signalChan := make(chan os.Signal, 1)
	defer close(signalChan)
	signal.Notify(signalChan, syscall.SIGTERM, os.Interrupt)
	s := <-signalChan
	signal.Stop(signalChan)
	return s
}
