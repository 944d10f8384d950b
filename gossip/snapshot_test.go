package gossip

import (
	"errors"
	"reflect"
	"testing"

	"github.com/impulsebot-io/solana-rpc-validator/config"
)

const snapshotJSON = `[
  {
    "identityPubkey": "5D1fNXzvv5NjV1ysLjirC4WY92RNsVH18vjmcszZd8on",
    "gossip": "34.83.130.52:8001",
    "tpu": "34.83.130.52:8004",
    "rpcHost": "34.83.130.52:8899",
    "version": "1.18.23",
    "shredVersion": 50093
  },
  {
    "identityPubkey": "7v5DXDvYzkgTdFYXYB12ZLKD6z8QfzR53N9hg6XgEQJE",
    "gossip": "145.40.93.84:8001",
    "version": "1.18.22",
    "shredVersion": 50093
  }
]`

func newTestFetcher() *SnapshotFetcher {
	return NewSnapshotFetcher(&config.Config{
		EntrypointURL:   "https://api.testnet.solana.com",
		GossipMaxBuffer: 1024,
	})
}

func swapExecGossip(t *testing.T, stub func(string, int) ([]byte, []byte, error)) {
	original := execGossip
	execGossip = stub
	t.Cleanup(func() {
		execGossip = original
	})
}

func TestFetchParsesSnapshot(t *testing.T) {
	swapExecGossip(t, func(entrypoint string, maxBuffer int) ([]byte, []byte, error) {
		return []byte(snapshotJSON), nil, nil
	})

	nodes := newTestFetcher().Fetch()

	if len(nodes) != 2 {
		t.Fatalf("Expected 2 nodes, got %d", len(nodes))
	}

	want := ClusterNode{
		IdentityPubkey: "5D1fNXzvv5NjV1ysLjirC4WY92RNsVH18vjmcszZd8on",
		Gossip:         "34.83.130.52:8001",
		TPU:            "34.83.130.52:8004",
		RPCHost:        "34.83.130.52:8899",
		Version:        "1.18.23",
		ShredVersion:   50093,
	}
	if nodes[0] != want {
		t.Errorf("First node = %+v, want %+v", nodes[0], want)
	}
	if nodes[1].RPCHost != "" {
		t.Errorf("Expected empty rpcHost for second node, got %q", nodes[1].RPCHost)
	}
}

func TestFetchPassesConfig(t *testing.T) {
	var gotEntrypoint string
	var gotMaxBuffer int
	swapExecGossip(t, func(entrypoint string, maxBuffer int) ([]byte, []byte, error) {
		gotEntrypoint = entrypoint
		gotMaxBuffer = maxBuffer
		return []byte("[]"), nil, nil
	})

	newTestFetcher().Fetch()

	if gotEntrypoint != "https://api.testnet.solana.com" {
		t.Errorf("Expected entrypoint to be passed through, got %q", gotEntrypoint)
	}
	if gotMaxBuffer != 1024 {
		t.Errorf("Expected max buffer 1024, got %d", gotMaxBuffer)
	}
}

func TestFetchAbsorbsFailures(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
		stderr string
		err    error
	}{
		{"command failed", "", "error: unable to connect", errors.New("exit status 1")},
		{"oversized output", "", "", ErrOutputTooLarge},
		{"malformed json", "not a snapshot", "", nil},
		{"stderr only", "", "error: no entrypoint", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			swapExecGossip(t, func(entrypoint string, maxBuffer int) ([]byte, []byte, error) {
				return []byte(tt.stdout), []byte(tt.stderr), tt.err
			})

			nodes := newTestFetcher().Fetch()
			if len(nodes) != 0 {
				t.Errorf("Expected empty snapshot, got %d nodes", len(nodes))
			}
		})
	}
}

func TestFetchStdoutWinsOverStderr(t *testing.T) {
	// A zero exit with warnings on stderr still carries a usable snapshot.
	swapExecGossip(t, func(entrypoint string, maxBuffer int) ([]byte, []byte, error) {
		return []byte(snapshotJSON), []byte("warning: rpc node is behind"), nil
	})

	nodes := newTestFetcher().Fetch()
	if len(nodes) != 2 {
		t.Errorf("Expected stdout to take precedence, got %d nodes", len(nodes))
	}
}

func TestRPCHosts(t *testing.T) {
	nodes := []ClusterNode{
		{RPCHost: "a:8899"},
		{RPCHost: "b:8899"},
		{IdentityPubkey: "x"},
	}

	hosts := RPCHosts(nodes)

	want := []string{"a:8899", "b:8899"}
	if !reflect.DeepEqual(hosts, want) {
		t.Errorf("RPCHosts() = %v, want %v", hosts, want)
	}
}

func TestRPCHostsKeepsDuplicates(t *testing.T) {
	nodes := []ClusterNode{
		{RPCHost: "a:8899"},
		{RPCHost: "a:8899"},
	}

	hosts := RPCHosts(nodes)
	if len(hosts) != 2 {
		t.Errorf("Expected input duplicates to survive extraction, got %v", hosts)
	}
}

func TestBoundedBuffer(t *testing.T) {
	buf := &boundedBuffer{max: 10}

	if _, err := buf.Write([]byte("12345")); err != nil {
		t.Fatalf("Write under cap failed: %v", err)
	}
	if _, err := buf.Write([]byte("67890")); err != nil {
		t.Fatalf("Write at cap failed: %v", err)
	}
	if _, err := buf.Write([]byte("x")); err != ErrOutputTooLarge {
		t.Errorf("Expected ErrOutputTooLarge, got %v", err)
	}
	if string(buf.Bytes()) != "1234567890" {
		t.Errorf("Buffer content = %q, want %q", buf.Bytes(), "1234567890")
	}
}
