package config

import "time"

// Path config
const (
	LogPath    = "./logs/"
	ConfigPath = "./"
)

// Network config
const (
	DefaultRetryTimes    = 3
	DefaultRetryInterval = 50 * time.Millisecond
	DefaultTimeout       = 20 * time.Second
)

// Bundle config
const (
	// Jito block engines reject bundles with more than 5 transactions.
	MAX_BUNDLE_TRANSACTIONS = 5

	DEFAULT_TIP_LAMPORTS = 10_000

	// Relay-side simulation options sent with every sendBundle call.
	MAX_SIMULATION_SLIPPAGE = 0.1
	SKIP_PREFLIGHT          = true
)

// Outcome watcher config
const (
	// Wall-clock bound on waiting for an acceptance after submission.
	// A rejection does not end the wait: the relay retries the bundle
	// across leaders, so an early rejection can still land later.
	BUNDLE_OUTCOME_TIMEOUT = 30 * time.Second

	BUNDLE_STATUS_POLL_INTERVAL = 1 * time.Second
)

// Builder config
const (
	// Lamports left untouched on each wallet to cover transaction fees.
	FEE_BUFFER_LAMPORTS = 3_000_000 // 0.003 SOL

	// System transfers packed into one distribution transaction.
	DISTRIBUTE_TRANSFERS_PER_TX = 21

	// Payload transactions per bundle; the remaining slot is reserved for
	// the tip transaction.
	PAYLOAD_TXS_PER_BUNDLE = MAX_BUNDLE_TRANSACTIONS - 1
)

// Result cache config
const (
	RESULT_CACHE_CAPACITY   = 100_000
	RESULT_CACHE_WARM_LIMIT = 1_000
)

// Server config
const (
	DEFAULT_HTTP_PORT = 8080
)
