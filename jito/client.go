package jito

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/google/uuid"
	"github.com/spf13/viper"

	"bundler/config"
	"bundler/logger"
	"bundler/utils"
)

// Client talks to one block engine's bundle API over JSON-RPC.
type Client struct {
	host string
	url  string
}

// NewClient normalizes the endpoint and composes the bundle API URL.
// Plain-http endpoints keep their scheme so tests can point the client at
// a local server; everything else is https.
func NewClient(endpoint string) (*Client, error) {
	host, err := NormalizeEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	scheme := "https"
	if strings.HasPrefix(strings.TrimSpace(endpoint), "http://") {
		scheme = "http"
	}
	return &Client{
		host: host,
		url:  fmt.Sprintf("%s://%s/api/v1/bundles", scheme, host),
	}, nil
}

// NewClientForLocation builds a client for one of the enumerated regions.
func NewClientForLocation(location string) (*Client, error) {
	host, err := ResolveLocation(location)
	if err != nil {
		return nil, err
	}
	return NewClient(host)
}

func (c *Client) Host() string {
	return c.host
}

type rpcRequest struct {
	Jsonrpc string `json:"jsonrpc"`
	ID      string `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type rpcResponse struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Client) call(method string, params any, result any) error {
	req := rpcRequest{
		Jsonrpc: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	}

	var resp rpcResponse
	if err := utils.PostUrlResponse(c.url, req, &resp, logger.JitoLogger); err != nil {
		return fmt.Errorf("%w: %s %v", utils.ErrRelayUnavailable, method, err)
	}
	if resp.Error != nil {
		return fmt.Errorf("%w: %s returned error %d: %s",
			utils.ErrBundleSubmissionFailed, method, resp.Error.Code, resp.Error.Message)
	}
	if len(resp.Result) == 0 {
		return fmt.Errorf("%w: %s response carried no result", utils.ErrBundleSubmissionFailed, method)
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return fmt.Errorf("%w: %s result unmarshal: %v", utils.ErrBundleSubmissionFailed, method, err)
	}
	return nil
}

// SendBundleOptions are relay-side simulation knobs attached to every
// submission.
type SendBundleOptions struct {
	MaxSimulationSlippage float64 `json:"maxSimulationSlippage"`
	SkipPreflight         bool    `json:"skipPreflight"`
}

type sendBundleParams struct {
	Transactions []string          `json:"transactions"`
	Options      SendBundleOptions `json:"options"`
	Tip          uint64            `json:"tip"`
}

// SendBundle submits base58-encoded signed transactions as one atomic
// unit and returns the relay-assigned bundle id. Failures are surfaced
// with the relay's raw error text and never retried here.
func (c *Client) SendBundle(encodedTxs []string, tipLamports uint64) (string, error) {
	if len(encodedTxs) == 0 {
		return "", fmt.Errorf("no transactions to submit: %w", utils.ErrInvalidInput)
	}

	params := sendBundleParams{
		Transactions: encodedTxs,
		Options: SendBundleOptions{
			MaxSimulationSlippage: config.MAX_SIMULATION_SLIPPAGE,
			SkipPreflight:         config.SKIP_PREFLIGHT,
		},
		Tip: tipLamports,
	}

	var bundleId string
	if err := c.call("sendBundle", params, &bundleId); err != nil {
		return "", err
	}
	if bundleId == "" {
		return "", fmt.Errorf("%w: relay returned empty bundle id", utils.ErrBundleSubmissionFailed)
	}

	logger.JitoLogger.Info("Bundle submitted", "bundleId", bundleId, "host", c.host, "txs", len(encodedTxs), "tip", tipLamports)
	return bundleId, nil
}

// TipAccounts returns the relay's current tip accounts, or the published
// static list when discovery is disabled in config.
func (c *Client) TipAccounts() ([]solana.PublicKey, error) {
	if viper.GetBool("jito.static-tip-accounts") {
		return staticTipAccounts, nil
	}

	var encoded []string
	if err := c.call("getTipAccounts", []any{}, &encoded); err != nil {
		return nil, err
	}
	if len(encoded) == 0 {
		return nil, fmt.Errorf("%w: relay returned no tip accounts", utils.ErrRelayUnavailable)
	}

	accounts := make([]solana.PublicKey, 0, len(encoded))
	for _, s := range encoded {
		pk, err := solana.PublicKeyFromBase58(s)
		if err != nil {
			return nil, fmt.Errorf("%w: malformed tip account %q: %v", utils.ErrRelayUnavailable, s, err)
		}
		accounts = append(accounts, pk)
	}
	return accounts, nil
}

// Relay-side bundle processing states.
const (
	StatusPending = "Pending"
	StatusLanded  = "Landed"
	StatusFailed  = "Failed"
)

type BundleStatus struct {
	BundleId   string `json:"bundle_id"`
	Status     string `json:"status"`
	LandedSlot uint64 `json:"landed_slot"`
	Error      string `json:"error,omitempty"`
}

type bundleStatusesResult struct {
	Value []BundleStatus `json:"value"`
}

// BundleStatuses polls the relay for the current processing state of the
// given bundle ids.
func (c *Client) BundleStatuses(bundleIds []string) ([]BundleStatus, error) {
	var result bundleStatusesResult
	if err := c.call("getBundleStatuses", [][]string{bundleIds}, &result); err != nil {
		return nil, err
	}
	return result.Value, nil
}
