package model

import "time"

// Plan is the serializable report of one grouping run.
type Plan struct {
	BatchID    string        `json:"batch_id,omitempty"`
	ChainID    string        `json:"chain_id"`
	Strategy   string        `json:"strategy"`
	CoreCount  int           `json:"core_count"`
	TotalTxs   int           `json:"total_txs"`
	GroupCount int           `json:"group_count"`
	Groups     []PlanGroup   `json:"groups"`
	Failures   []PlanFailure `json:"failures,omitempty"`
	ElapsedMs  float64       `json:"elapsed_ms"`
	CreatedAt  time.Time     `json:"created_at"`
}

// PlanGroup describes one execution group.
type PlanGroup struct {
	Index int      `json:"index"`
	Size  int      `json:"size"`
	TxIDs []TxID   `json:"tx_ids"`
	Txs   []string `json:"tx_hashes,omitempty"`
}

// PlanFailure describes a transaction excluded from grouping.
type PlanFailure struct {
	TxID  TxID   `json:"tx_id"`
	Hash  string `json:"hash,omitempty"`
	Error string `json:"error"`
}

// NewPlan builds a plan from grouping output.
func NewPlan(batch *Batch, strategy string, coreCount int, groups []Group, failures FailureMap, elapsed time.Duration) *Plan {
	p := &Plan{
		Strategy:   strategy,
		CoreCount:  coreCount,
		GroupCount: len(groups),
		Groups:     make([]PlanGroup, 0, len(groups)),
		ElapsedMs:  float64(elapsed.Microseconds()) / 1000,
		CreatedAt:  time.Now(),
	}
	if batch != nil {
		p.BatchID = batch.ID
		p.ChainID = batch.ChainID
		p.TotalTxs = batch.Len()
	}

	for i, g := range groups {
		pg := PlanGroup{
			Index: i,
			Size:  len(g),
			TxIDs: g.IDs(),
			Txs:   make([]string, len(g)),
		}
		for j, tx := range g {
			pg.Txs[j] = tx.Hash
		}
		p.Groups = append(p.Groups, pg)
	}

	for _, id := range failures.IDs() {
		f := failures[id]
		p.Failures = append(p.Failures, PlanFailure{
			TxID:  id,
			Hash:  f.Tx.Hash,
			Error: f.Err.Error(),
		})
	}

	return p
}

// Sizes returns the group sizes in plan order.
func (p *Plan) Sizes() []int {
	sizes := make([]int, len(p.Groups))
	for i, g := range p.Groups {
		sizes[i] = g.Size
	}
	return sizes
}
