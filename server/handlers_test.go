package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/mr-tron/base58"

	"bundler/logger"
	"bundler/sol"
	"bundler/utils"
)

func init() {
	logger.InitLogs("server_test")
}

// fakeBlockEngine speaks just enough of the bundle JSON-RPC API for the
// handlers under test.
type fakeBlockEngine struct {
	mu        sync.Mutex
	sent      [][]string
	sendError string
}

func (f *fakeBlockEngine) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     string          `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		switch req.Method {
		case "sendBundle":
			f.mu.Lock()
			if f.sendError != "" {
				resp["error"] = map[string]any{"code": -32602, "message": f.sendError}
			} else {
				var params struct {
					Transactions []string `json:"transactions"`
				}
				_ = json.Unmarshal(req.Params, &params)
				f.sent = append(f.sent, params.Transactions)
				resp["result"] = "abc123"
			}
			f.mu.Unlock()
		case "getTipAccounts":
			resp["result"] = []string{"96gYZGLnJYVFmbjzopPSU6QiEV5fGqZNyN9nmNhvrZU5"}
		case "getBundleStatuses":
			var ids [][]string
			_ = json.Unmarshal(req.Params, &ids)
			statuses := make([]map[string]any, 0)
			for _, id := range ids[0] {
				statuses = append(statuses, map[string]any{
					"bundle_id": id, "status": "Landed", "landed_slot": 360000042,
				})
			}
			resp["result"] = map[string]any{"value": statuses}
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
}

// stubChain satisfies sol.ChainReader without an RPC node.
type stubChain struct {
	lamports uint64
}

func (c *stubChain) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	return solana.Hash{9}, nil
}

func (c *stubChain) LamportBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	return c.lamports, nil
}

func (c *stubChain) TokenBalance(ctx context.Context, owner, mint solana.PublicKey) (uint64, uint8, error) {
	return 0, 0, nil
}

func (c *stubChain) MintInfo(ctx context.Context, mint solana.PublicKey) (*token.Mint, error) {
	return &token.Mint{}, nil
}

func newTestServer(chain sol.ChainReader) *Server {
	s := New(utils.NewResultCache(100), nil)
	s.timeout = 5 * time.Second
	if chain != nil {
		s.newChain = func(endpoint string) sol.ChainReader { return chain }
	}
	return s
}

func signedTransferBase58(t *testing.T, blockhash solana.Hash) string {
	t.Helper()
	from := solana.NewWallet()
	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(1, from.PublicKey(), solana.NewWallet().PublicKey()).Build(),
		},
		blockhash,
		solana.TransactionPayer(from.PublicKey()),
	)
	if err != nil {
		t.Fatalf("building transaction: %v", err)
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(from.PublicKey()) {
			return &from.PrivateKey
		}
		return nil
	}); err != nil {
		t.Fatalf("signing transaction: %v", err)
	}
	raw, err := tx.MarshalBinary()
	if err != nil {
		t.Fatalf("serializing transaction: %v", err)
	}
	return base58.Encode(raw)
}

func postJSON(t *testing.T, s *Server, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestJitoBundleEndToEnd(t *testing.T) {
	engine := &fakeBlockEngine{}
	ts := httptest.NewServer(engine.handler())
	defer ts.Close()

	s := newTestServer(nil)
	blockhash := solana.Hash{7}

	w := postJSON(t, s, "/api/jito-bundle", map[string]any{
		"blockEngineUrl":   ts.URL,
		"tipKeyPairBase58": solana.NewWallet().PrivateKey.String(),
		"rpcEndpoint":      "https://rpc.example.com",
		"transactions": []string{
			signedTransferBase58(t, blockhash),
			signedTransferBase58(t, blockhash),
		},
		"tipAmount": 10000,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Success      bool   `json:"success"`
		BundleId     string `json:"bundleId"`
		BundleResult struct {
			Status   string `json:"status"`
			Accepted int    `json:"accepted"`
			Slot     uint64 `json:"slot"`
		} `json:"bundleResult"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !resp.Success || resp.BundleId != "abc123" {
		t.Errorf("unexpected response: %+v", resp)
	}
	if resp.BundleResult.Status != "accepted" || resp.BundleResult.Accepted != 1 {
		t.Errorf("unexpected bundle result: %+v", resp.BundleResult)
	}

	engine.mu.Lock()
	sent := engine.sent
	engine.mu.Unlock()
	if len(sent) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(sent))
	}
	// Two payload transactions plus the appended tip.
	if len(sent[0]) != 3 {
		t.Errorf("submission carried %d transactions, want 3", len(sent[0]))
	}
	tipRaw, err := base58.Decode(sent[0][2])
	if err != nil {
		t.Fatalf("tip transaction is not base58: %v", err)
	}
	if _, err := solana.TransactionFromDecoder(bin.NewBinDecoder(tipRaw)); err != nil {
		t.Errorf("tip transaction did not decode: %v", err)
	}

	// The resolved outcome is immediately retrievable.
	req := httptest.NewRequest(http.MethodGet, "/api/bundle-result/abc123", nil)
	lookup := httptest.NewRecorder()
	s.Handler().ServeHTTP(lookup, req)
	if lookup.Code != http.StatusOK {
		t.Errorf("expected cached result, got %d", lookup.Code)
	}
}

func TestJitoBundleMissingParams(t *testing.T) {
	s := newTestServer(nil)

	w := postJSON(t, s, "/api/jito-bundle", map[string]any{
		"blockEngineUrl": "ny.mainnet.block-engine.jito.wtf",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "tipKeyPairBase58") {
		t.Errorf("error should name the missing parameters: %s", w.Body.String())
	}
}

func TestJitoBundleTooManyTransactions(t *testing.T) {
	s := newTestServer(nil)
	blockhash := solana.Hash{7}

	txs := make([]string, 5)
	for i := range txs {
		txs[i] = signedTransferBase58(t, blockhash)
	}

	w := postJSON(t, s, "/api/jito-bundle", map[string]any{
		"blockEngineUrl":   "ny.mainnet.block-engine.jito.wtf",
		"tipKeyPairBase58": solana.NewWallet().PrivateKey.String(),
		"rpcEndpoint":      "https://rpc.example.com",
		"transactions":     txs,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an oversized bundle, got %d: %s", w.Code, w.Body.String())
	}
}

func TestJitoBundleRelayError(t *testing.T) {
	engine := &fakeBlockEngine{sendError: "bundle contains an expired blockhash"}
	ts := httptest.NewServer(engine.handler())
	defer ts.Close()

	s := newTestServer(nil)
	w := postJSON(t, s, "/api/jito-bundle", map[string]any{
		"blockEngineUrl":   ts.URL,
		"tipKeyPairBase58": solana.NewWallet().PrivateKey.String(),
		"rpcEndpoint":      "https://rpc.example.com",
		"transactions":     []string{signedTransferBase58(t, solana.Hash{7})},
	})
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "expired blockhash") {
		t.Errorf("relay error text lost: %s", w.Body.String())
	}
}

func TestBundleResultNotFound(t *testing.T) {
	s := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/bundle-result/unknown", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp["error"] != "Bundle result not found" {
		t.Errorf("unexpected error message: %q", resp["error"])
	}
}

func TestBundleResultMissingId(t *testing.T) {
	s := newTestServer(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/bundle-result", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestDistributeSol(t *testing.T) {
	engine := &fakeBlockEngine{}
	ts := httptest.NewServer(engine.handler())
	defer ts.Close()

	s := newTestServer(&stubChain{lamports: 1_000_000_000_000})
	payer := solana.NewWallet()

	w := postJSON(t, s, "/api/distribute-sol", map[string]any{
		"blockEngineUrl":     ts.URL,
		"payerKeyPairBase58": payer.PrivateKey.String(),
		"rpcEndpoint":        "https://rpc.example.com",
		"receivers": []map[string]any{
			{"wallet": solana.NewWallet().PublicKey().String(), "amount": 1_000_000},
			{"wallet": solana.NewWallet().PublicKey().String(), "amount": 2_000_000},
		},
		"tipAmount": 10000,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	engine.mu.Lock()
	sent := engine.sent
	engine.mu.Unlock()
	if len(sent) != 1 {
		t.Fatalf("expected 1 submission, got %d", len(sent))
	}
	// Both transfers fit one transaction, plus the tip.
	if len(sent[0]) != 2 {
		t.Errorf("submission carried %d transactions, want 2", len(sent[0]))
	}
}
