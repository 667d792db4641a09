package node

import "time"

// Snapshot is one point-in-time summary of node status. It is replaced
// wholesale on every successful poll and never mutated.
type Snapshot struct {
	Height      int64
	Connections int
	Network     string

	// Progress is the verification progress as a fraction in [0, 1].
	Progress float64

	// Headers and BestBlockHash are reported by some status commands; zero when absent.
	Headers       int64
	BestBlockHash string

	FetchedAt time.Time
}

// Synced reports whether verification has effectively caught up.
func (s Snapshot) Synced() bool {
	return s.Progress >= 0.9999
}

// WalletSnapshot summarises getwalletinfo.
type WalletSnapshot struct {
	Name        string
	Balance     float64
	TxCount     int64
	KeypoolSize int64
	FetchedAt   time.Time
}
