package gossip

import (
	"bytes"
	"encoding/json"
	"errors"
	"os/exec"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/impulsebot-io/solana-rpc-validator/config"
)

const solanaBinary = "solana"

// ErrOutputTooLarge is returned when the gossip snapshot exceeds the
// configured stdout byte cap.
var ErrOutputTooLarge = errors.New("gossip output exceeded buffer limit")

// ClusterNode mirrors one entry of `solana gossip --output json`. Every field
// is optional in the snapshot; only RPCHost matters downstream.
type ClusterNode struct {
	IdentityPubkey string `json:"identityPubkey,omitempty"` // Node identity public key
	Gossip         string `json:"gossip,omitempty"`         // Gossip protocol address
	TPU            string `json:"tpu,omitempty"`            // Transaction processing unit address
	RPCHost        string `json:"rpcHost,omitempty"`        // JSON-RPC service address, host:port
	Version        string `json:"version,omitempty"`        // Node software version
	ShredVersion   int    `json:"shredVersion,omitempty"`   // Cluster shred version tag
}

// boundedBuffer caps how many bytes of the child's stdout are kept. A write
// past the cap aborts the capture, which makes cmd.Run fail with
// ErrOutputTooLarge.
type boundedBuffer struct {
	buf bytes.Buffer
	max int
}

func (b *boundedBuffer) Write(p []byte) (int, error) {
	if b.buf.Len()+len(p) > b.max {
		return 0, ErrOutputTooLarge
	}
	return b.buf.Write(p)
}

func (b *boundedBuffer) Bytes() []byte {
	return b.buf.Bytes()
}

// execGossip runs the snapshot command and returns its stdout and stderr.
// Package-level so tests can substitute a stub runner.
var execGossip = func(entrypoint string, maxBuffer int) ([]byte, []byte, error) {
	cmd := exec.Command(solanaBinary, "gossip", "--url", entrypoint, "--output", "json")

	stdout := &boundedBuffer{max: maxBuffer}
	var stderr bytes.Buffer
	cmd.Stdout = stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// SnapshotFetcher pulls the current cluster view from the gossip network via
// the solana CLI.
type SnapshotFetcher struct {
	entrypoint string
	maxBuffer  int
}

func NewSnapshotFetcher(cfg *config.Config) *SnapshotFetcher {
	return &SnapshotFetcher{
		entrypoint: cfg.EntrypointURL,
		maxBuffer:  cfg.GossipMaxBuffer,
	}
}

// Fetch returns the gossip snapshot as a list of cluster nodes. Discovery
// failures of any kind are logged and absorbed into an empty list — the
// pipeline treats "discovery failed" and "no candidates" identically.
func (f *SnapshotFetcher) Fetch() []ClusterNode {
	log.Infof("Fetching gossip snapshot from %s", f.entrypoint)

	stdout, stderr, err := execGossip(f.entrypoint, f.maxBuffer)
	if err != nil {
		log.Errorf("gossip snapshot failed: %v, stderr: %s", err, strings.TrimSpace(string(stderr)))
		return nil
	}

	// The CLI writes warnings to stderr while still producing a usable
	// snapshot on stdout; stdout takes precedence.
	if len(stderr) > 0 {
		log.Warnf("solana gossip wrote to stderr: %s", strings.TrimSpace(string(stderr)))
	}

	var nodes []ClusterNode
	if err := json.Unmarshal(stdout, &nodes); err != nil {
		log.Errorf("failed to decode gossip snapshot: %v", err)
		return nil
	}

	log.Infof("Gossip snapshot contains %d nodes", len(nodes))
	return nodes
}

// RPCHosts extracts the probeable RPC addresses from a snapshot in snapshot
// order, dropping nodes that do not advertise an RPC port.
func RPCHosts(nodes []ClusterNode) []string {
	hosts := make([]string, 0, len(nodes))
	for _, node := range nodes {
		if node.RPCHost == "" {
			continue
		}
		hosts = append(hosts, node.RPCHost)
	}
	return hosts
}
