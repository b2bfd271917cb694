// Package publish pushes completed forecast results to an MQTT broker so
// downstream dashboards pick them up without polling.
package publish

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/parity/core/forecast"
	"github.com/kilianp07/parity/infra/logger"
)

// Config defines the connection parameters for the result publisher.
type Config struct {
	Enabled     bool   `json:"enabled"`
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id" default:"parity-publisher"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix" default:"parity/forecast"`
	QoS         byte   `json:"qos"`
	Retain      bool   `json:"retain"`
	UseTLS      bool   `json:"use_tls"`
	ClientCert  string `json:"client_cert"`
	ClientKey   string `json:"client_key"`
	CABundle    string `json:"ca_bundle"`
	TimeoutMS   int    `json:"timeout_ms" default:"5000"`

	TLSConfig *tls.Config `json:"-"`
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Publisher sends one retained message per region under the topic prefix.
type Publisher struct {
	cli     pahoClient
	cfg     Config
	timeout time.Duration
	log     logger.Logger
}

// New connects to the broker. A disabled config yields a nil Publisher and no
// error, so callers can treat publishing as optional.
func New(cfg Config) (*Publisher, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("publisher")
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Broker, token.Error())
	}
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Publisher{cli: c, cfg: cfg, timeout: timeout, log: log}, nil
}

func clientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.loadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

func (c Config) loadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

// PublishResult sends one region's forecast as JSON to <prefix>/<region>.
// A nil Publisher drops the result silently.
func (p *Publisher) PublishResult(res forecast.Result) error {
	if p == nil {
		return nil
	}
	payload, err := json.Marshal(res)
	if err != nil {
		return err
	}
	topic := p.cfg.TopicPrefix + "/" + res.Region
	token := p.cli.Publish(topic, p.cfg.QoS, p.cfg.Retain, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publish %s: timeout after %s", topic, p.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	p.log.Debugf("published %s (%d bytes)", topic, len(payload))
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p == nil {
		return
	}
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
