package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/mr-tron/base58"

	"bundler/bundler"
	"bundler/jito"
	"bundler/logger"
	"bundler/types"
	"bundler/utils"
)

type jitoBundleRequest struct {
	BlockEngineUrl   string   `json:"blockEngineUrl"`
	TipKeyPairBase58 string   `json:"tipKeyPairBase58"`
	RpcEndpoint      string   `json:"rpcEndpoint"`
	Transactions     []string `json:"transactions"`
	TipAmount        uint64   `json:"tipAmount"`
}

func (r *jitoBundleRequest) missingParams() []string {
	var missing []string
	if r.BlockEngineUrl == "" {
		missing = append(missing, "blockEngineUrl")
	}
	if r.TipKeyPairBase58 == "" {
		missing = append(missing, "tipKeyPairBase58")
	}
	if r.RpcEndpoint == "" {
		missing = append(missing, "rpcEndpoint")
	}
	if len(r.Transactions) == 0 {
		missing = append(missing, "transactions")
	}
	return missing
}

// statusForError maps pipeline failures to HTTP statuses: caller mistakes
// are 400, everything downstream is 500.
func statusForError(err error) int {
	switch {
	case errors.Is(err, utils.ErrInvalidInput),
		errors.Is(err, utils.ErrInvalidEndpoint),
		errors.Is(err, utils.ErrBundleTooLarge):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	logger.ServerLogger.Error("Request failed", "path", c.Request.URL.Path, "err", err)
	processedBundlesCounter.WithLabelValues("error").Inc()
	c.JSON(statusForError(err), gin.H{"error": err.Error()})
}

// handleJitoBundle accepts pre-signed transactions, appends the tip, and
// submits the bundle, blocking until its outcome resolves.
func (s *Server) handleJitoBundle(c *gin.Context) {
	var req jitoBundleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	if missing := req.missingParams(); len(missing) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters: " + strings.Join(missing, ", ")})
		return
	}

	tipKey, err := solana.PrivateKeyFromBase58(req.TipKeyPairBase58)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed tip keypair: " + err.Error()})
		return
	}

	txs := make([]*solana.Transaction, 0, len(req.Transactions))
	for i, enc := range req.Transactions {
		raw, err := base58.Decode(enc)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Transaction %d is not base58: %v", i, err)})
			return
		}
		tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Transaction %d did not decode: %v", i, err)})
			return
		}
		txs = append(txs, tx)
	}

	relay, err := s.newRelay(req.BlockEngineUrl)
	if err != nil {
		s.fail(c, err)
		return
	}

	// All transactions of one build share a blockhash; the tip reuses it.
	blockhash := txs[0].Message.RecentBlockhash

	bundle, err := bundler.NewAssembler(relay).Assemble(txs, blockhash, tipKey, req.TipAmount)
	if err != nil {
		s.fail(c, err)
		return
	}
	encoded, err := bundle.Encode()
	if err != nil {
		s.fail(c, err)
		return
	}

	bundleId, err := relay.SendBundle(encoded, bundle.TipLamports)
	if err != nil {
		s.fail(c, err)
		return
	}

	outcome := jito.WatchOutcome(c.Request.Context(), relay, bundleId, s.timeout)
	s.cache.Put(bundleId, outcome)
	s.recordSubmission(outcome, req.BlockEngineUrl, bundle.Len(), bundle.TipLamports)

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"bundleId":     bundleId,
		"bundleResult": outcome,
		"timestamp":    outcome.Timestamp,
	})
}

func (s *Server) handleBundleResult(c *gin.Context) {
	bundleId := strings.TrimSpace(c.Param("bundleId"))
	if bundleId == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing bundleId"})
		return
	}

	outcome, ok := s.cache.Get(bundleId)
	if !ok {
		resultLookupsCounter.WithLabelValues("miss").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": "Bundle result not found"})
		return
	}

	resultLookupsCounter.WithLabelValues("hit").Inc()
	c.JSON(http.StatusOK, outcome)
}

func (s *Server) handleBundleResultMissingId(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "Missing bundleId"})
}

type receiverEntry struct {
	Wallet string `json:"wallet"`
	Amount uint64 `json:"amount"`
}

type distributeSolRequest struct {
	BlockEngineUrl     string          `json:"blockEngineUrl"`
	PayerKeyPairBase58 string          `json:"payerKeyPairBase58"`
	RpcEndpoint        string          `json:"rpcEndpoint"`
	Receivers          []receiverEntry `json:"receivers"`
	TipAmount          uint64          `json:"tipAmount"`
}

// handleDistributeSol fans lamports out from one payer, submitting the
// transfer bundles serially and reporting every outcome.
func (s *Server) handleDistributeSol(c *gin.Context) {
	var req distributeSolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	if req.BlockEngineUrl == "" || req.PayerKeyPairBase58 == "" || req.RpcEndpoint == "" || len(req.Receivers) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters: blockEngineUrl, payerKeyPairBase58, rpcEndpoint, receivers"})
		return
	}

	payer, err := solana.PrivateKeyFromBase58(req.PayerKeyPairBase58)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed payer keypair: " + err.Error()})
		return
	}

	receivers := make([]types.WalletEntry, 0, len(req.Receivers))
	for i, r := range req.Receivers {
		wallet, err := solana.PublicKeyFromBase58(r.Wallet)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Receiver %d has a malformed wallet: %v", i, err)})
			return
		}
		receivers = append(receivers, types.WalletEntry{Wallet: wallet, Amount: r.Amount})
	}

	runner, err := s.newRunner(req.BlockEngineUrl, req.RpcEndpoint, req.TipAmount, false)
	if err != nil {
		s.fail(c, err)
		return
	}

	outcomes, err := runner.DistributeSol(c.Request.Context(), payer, receivers, req.TipAmount)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"outcomes":  outcomes,
		"timestamp": time.Now(),
	})
}

type pumpSellerRequest struct {
	BlockEngineUrl      string   `json:"blockEngineUrl"`
	WalletKeyPairBase58 []string `json:"walletKeyPairsBase58"`
	RpcEndpoint         string   `json:"rpcEndpoint"`
	Mint                string   `json:"mint"`
	Percent             uint64   `json:"percent"`
	TipAmount           uint64   `json:"tipAmount"`
}

// handlePumpSeller sells a percentage of every wallet's holding, one
// bundle per holding wallet, submitted serially.
func (s *Server) handlePumpSeller(c *gin.Context) {
	var req pumpSellerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload: " + err.Error()})
		return
	}
	if req.BlockEngineUrl == "" || req.RpcEndpoint == "" || req.Mint == "" || len(req.WalletKeyPairBase58) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing required parameters: blockEngineUrl, rpcEndpoint, mint, walletKeyPairsBase58"})
		return
	}

	mint, err := solana.PublicKeyFromBase58(req.Mint)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed mint: " + err.Error()})
		return
	}

	wallets := make([]solana.PrivateKey, 0, len(req.WalletKeyPairBase58))
	for i, enc := range req.WalletKeyPairBase58 {
		key, err := solana.PrivateKeyFromBase58(enc)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Wallet keypair %d is malformed: %v", i, err)})
			return
		}
		wallets = append(wallets, key)
	}

	runner, err := s.newRunner(req.BlockEngineUrl, req.RpcEndpoint, req.TipAmount, true)
	if err != nil {
		s.fail(c, err)
		return
	}

	outcomes, err := runner.SellAcrossWallets(c.Request.Context(), wallets, mint, req.Percent, req.TipAmount)
	if err != nil {
		s.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"outcomes":  outcomes,
		"timestamp": time.Now(),
	})
}

// newRunner wires a relay, chain reader, and optional DEX instruction
// source into a runner whose outcomes land in the cache and database.
func (s *Server) newRunner(blockEngineUrl, rpcEndpoint string, tipLamports uint64, needsDex bool) (*bundler.Runner, error) {
	relay, err := s.newRelay(blockEngineUrl)
	if err != nil {
		return nil, err
	}

	var dex bundler.InstructionSource
	if needsDex {
		dex, err = s.newDex()
		if err != nil {
			return nil, err
		}
	}

	runner := bundler.NewRunner(s.newChain(rpcEndpoint), dex, relay)
	runner.SetOutcomeTimeout(s.timeout)
	runner.Observer = func(outcome *types.BundleOutcome, txCount int) {
		s.cache.Put(outcome.BundleId, outcome)
		s.recordSubmission(outcome, blockEngineUrl, txCount, tipLamports)
	}
	return runner, nil
}
