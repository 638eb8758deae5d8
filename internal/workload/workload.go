// Package workload generates reproducible transaction batches for
// benchmarking the grouper.
package workload

import (
	"fmt"
	"math/rand"

	apperrors "github.com/tx-grouper/pkg/errors"
	"github.com/tx-grouper/pkg/model"
)

// Config describes the shape of a generated batch.
type Config struct {
	ChainID  string
	Seed     int64
	Txs      int
	Accounts int

	// Skew > 1 draws senders and recipients from a Zipf distribution so a
	// few hot accounts create large conflict groups. Skew <= 1 is uniform.
	Skew float64

	// CallRatio and SystemRatio are the fractions of contract calls and
	// system actions; the rest are transfers.
	CallRatio   float64
	SystemRatio float64
	Contracts   []string
}

// DefaultConfig returns a mostly independent batch of transfers.
func DefaultConfig() Config {
	return Config{
		ChainID:  "bench",
		Seed:     1,
		Txs:      1000,
		Accounts: 5000,
		Skew:     1.2,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case c.Txs < 0:
		return apperrors.Newf(apperrors.CodeInvalidParameter, "tx count must not be negative, got %d", c.Txs)
	case c.Accounts < 2:
		return apperrors.Newf(apperrors.CodeInvalidParameter, "at least 2 accounts are required, got %d", c.Accounts)
	case c.CallRatio < 0 || c.SystemRatio < 0 || c.CallRatio+c.SystemRatio > 1:
		return apperrors.New(apperrors.CodeInvalidParameter, "call and system ratios must be within [0, 1]")
	case c.CallRatio > 0 && len(c.Contracts) == 0:
		return apperrors.New(apperrors.CodeInvalidParameter, "contract calls need at least one contract address")
	}
	return nil
}

// Generator produces batches from a seeded source. It is not safe for
// concurrent use.
type Generator struct {
	cfg  Config
	rng  *rand.Rand
	zipf *rand.Zipf
	next uint64
}

// New creates a Generator.
func New(cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &Generator{cfg: cfg, rng: rand.New(rand.NewSource(cfg.Seed))}
	if cfg.Skew > 1 {
		g.zipf = rand.NewZipf(g.rng, cfg.Skew, 1, uint64(cfg.Accounts-1))
	}
	return g, nil
}

// Batch generates the next batch. Successive batches differ; two generators
// with the same config produce the same sequence.
func (g *Generator) Batch() *model.Batch {
	txs := make([]*model.Transaction, g.cfg.Txs)
	for i := range txs {
		txs[i] = g.tx()
	}
	return model.NewBatch(g.cfg.ChainID, txs)
}

func (g *Generator) tx() *model.Transaction {
	from := g.account()
	tx := &model.Transaction{From: from, Nonce: g.next, Value: uint64(1 + g.rng.Intn(1000))}
	g.next++

	r := g.rng.Float64()
	switch {
	case r < g.cfg.SystemRatio:
		tx.Kind = model.TxKindSystem
	case r < g.cfg.SystemRatio+g.cfg.CallRatio:
		tx.Kind = model.TxKindCall
		tx.To = g.cfg.Contracts[g.rng.Intn(len(g.cfg.Contracts))]
	default:
		tx.Kind = model.TxKindTransfer
		to := g.account()
		for to == from {
			to = g.account()
		}
		tx.To = to
	}
	return tx
}

func (g *Generator) account() string {
	var n uint64
	if g.zipf != nil {
		n = g.zipf.Uint64()
	} else {
		n = uint64(g.rng.Intn(g.cfg.Accounts))
	}
	return fmt.Sprintf("0x%040x", n)
}
