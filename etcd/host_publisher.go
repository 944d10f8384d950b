package etcd

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/impulsebot-io/solana-rpc-validator/config"
)

// HostPublisher pushes the validated host list to an etcd key so downstream
// consumers can watch it instead of polling the output file.
type HostPublisher struct {
	client         *clientv3.Client
	key            string
	requestTimeout time.Duration
}

func NewHostPublisher(cfg *config.Config) (*HostPublisher, error) {
	timeout := time.Duration(cfg.Etcd.DialTimeout) * time.Millisecond

	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Etcd.Endpoints,
		DialTimeout: timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	return &HostPublisher{
		client:         client,
		key:            cfg.Etcd.Key,
		requestTimeout: timeout,
	}, nil
}

// PublishHosts writes the host list as compact JSON under the configured key.
func (p *HostPublisher) PublishHosts(ctx context.Context, hosts []string) error {
	data, err := json.Marshal(hosts)
	if err != nil {
		return fmt.Errorf("failed to marshal host list: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.requestTimeout)
	defer cancel()

	if _, err := p.client.Put(ctx, p.key, string(data)); err != nil {
		return fmt.Errorf("failed to publish host list: %w", err)
	}

	log.Infof("Published %d validated hosts to etcd key %s", len(hosts), p.key)
	return nil
}

func (p *HostPublisher) Close() {
	if p.client != nil {
		p.client.Close()
	}
}
