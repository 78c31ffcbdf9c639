package blotter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"

	"exec-engine/internal/types"
)

// csvHeader is the fixed export column order.
var csvHeader = []string{"id", "time", "symbol", "side", "confidence", "price", "amount", "status", "pnl"}

const timeLayout = "2006-01-02 15:04:05"

// Blotter stores recorded trades newest-first, capped at a fixed capacity.
// Oldest trades are evicted on overflow and never recomputed again.
//
// The blotter is not internally synchronized; the engine controller
// serializes all access behind its own mutex.
type Blotter struct {
	capacity int
	trades   []types.Trade // newest first

	sortKey string
	sortAsc bool
}

func New(capacity int) *Blotter {
	if capacity <= 0 {
		capacity = 15
	}
	return &Blotter{capacity: capacity}
}

// Record prepends the trade and evicts beyond capacity.
func (b *Blotter) Record(tr types.Trade) {
	b.trades = append([]types.Trade{tr}, b.trades...)
	if len(b.trades) > b.capacity {
		b.trades = b.trades[:b.capacity]
	}
}

// Len returns the number of stored trades.
func (b *Blotter) Len() int { return len(b.trades) }

// Tick recomputes P&L for every filled trade against the snapshot. The
// update is atomic per tick: a malformed snapshot returns ErrInvalidSnapshot
// before anything is touched, leaving all prior P&L values intact.
func (b *Blotter) Tick(snap types.MarketSnapshot) error {
	if !snap.Valid() {
		return fmt.Errorf("%w: price %.4f", types.ErrInvalidSnapshot, snap.Price)
	}
	for i := range b.trades {
		if b.trades[i].Status != types.StatusFilled {
			continue
		}
		tr := &b.trades[i]
		tr.PnL = (snap.Price - tr.EntryPrice) * tr.Amount * tr.Side.Sign()
	}
	return nil
}

// SortBy selects the view sort key. Selecting the same key again toggles
// the direction; a new key starts ascending. Sorting never mutates the
// stored (insertion) order.
func (b *Blotter) SortBy(key string) {
	if key == b.sortKey {
		b.sortAsc = !b.sortAsc
		return
	}
	b.sortKey = key
	b.sortAsc = true
}

// Visible returns the current view: a copy of the stored trades, stably
// sorted by the selected key. With no key selected the insertion order
// (newest first) is returned.
func (b *Blotter) Visible() []types.Trade {
	out := make([]types.Trade, len(b.trades))
	copy(out, b.trades)
	if b.sortKey == "" {
		return out
	}

	key, asc := b.sortKey, b.sortAsc
	sort.SliceStable(out, func(i, j int) bool {
		less := lessByKey(out[i], out[j], key)
		if asc {
			return less
		}
		return lessByKey(out[j], out[i], key)
	})
	return out
}

func lessByKey(a, c types.Trade, key string) bool {
	switch key {
	case "id":
		return a.ID < c.ID
	case "time":
		return a.CreatedAt.Before(c.CreatedAt)
	case "symbol":
		return a.Symbol < c.Symbol
	case "side":
		return a.Side.String() < c.Side.String()
	case "confidence":
		return a.ConfidencePct < c.ConfidencePct
	case "price":
		return a.EntryPrice < c.EntryPrice
	case "amount":
		return a.Amount < c.Amount
	case "status":
		return a.Status < c.Status
	case "leverage":
		return a.Leverage < c.Leverage
	case "pnl":
		return a.PnL < c.PnL
	default:
		return false
	}
}

// ExportCSV serializes the visible (post-sort) view. Zero trades yields a
// header-only file, not an error.
func (b *Blotter) ExportCSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, tr := range b.Visible() {
		rec := []string{
			tr.ID,
			tr.CreatedAt.Format(timeLayout),
			tr.Symbol,
			tr.Side.String(),
			strconv.FormatFloat(tr.ConfidencePct, 'f', 0, 64),
			fmt.Sprintf("%.2f", tr.EntryPrice),
			strconv.FormatFloat(tr.Amount, 'f', 6, 64),
			string(tr.Status),
			fmt.Sprintf("%.2f", tr.PnL),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
