package probing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/impulsebot-io/solana-rpc-validator/config"
)

// rpcRequest is a JSON-RPC 2.0 request envelope.
type rpcRequest struct {
	Jsonrpc string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// rpcResponse is the subset of the JSON-RPC 2.0 response we inspect. The
// balance itself is never read; a non-null result is all a probe needs.
type rpcResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// RPCProber checks whether a candidate host answers a Solana JSON-RPC query
// within the configured timeout.
type RPCProber struct {
	testAccount string
	timeout     time.Duration
	httpClient  *http.Client
}

func NewRPCProber(cfg *config.Config) *RPCProber {
	timeout := time.Duration(cfg.ProbeTimeout) * time.Millisecond
	return &RPCProber{
		testAccount: cfg.TestAccount,
		timeout:     timeout,
		// The client carries the same timeout as the race below, so a call
		// abandoned by the timer dies out on its own.
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Probe performs a single liveness check against address (host:port). The RPC
// call races a timer; if the timer fires first the probe fails and the
// in-flight call is abandoned. All failure paths resolve to false — Probe
// never panics or returns an error.
func (p *RPCProber) Probe(address string) bool {
	startTime := time.Now()

	done := make(chan error, 1)
	go func() {
		done <- p.queryTokenBalance(address)
	}()

	select {
	case err := <-done:
		if err != nil {
			log.Warnf("Probe failed for %s: %v", address, err)
			return false
		}
		delay := float64(time.Since(startTime).Microseconds()) / 1000.0
		log.Infof("Probe succeeded for %s: %.2fms", address, delay)
		return true
	case <-time.After(p.timeout):
		log.Warnf("Probe timed out for %s after %v", address, p.timeout)
		return false
	}
}

// queryTokenBalance issues getTokenAccountBalance for the configured test
// account against http://<address>. Success criterion is "call returns a
// well-formed, error-free response"; the balance value is not validated.
func (p *RPCProber) queryTokenBalance(address string) error {
	url := fmt.Sprintf("http://%s", address)

	payload := rpcRequest{
		Jsonrpc: "2.0",
		ID:      1,
		Method:  "getTokenAccountBalance",
		Params: []interface{}{
			p.testAccount,
			map[string]string{"commitment": "confirmed"},
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	resp, err := p.httpClient.Post(url, "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var rpcResp rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if rpcResp.Error != nil {
		return fmt.Errorf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if len(rpcResp.Result) == 0 || string(rpcResp.Result) == "null" {
		return fmt.Errorf("rpc response has no result")
	}

	return nil
}
