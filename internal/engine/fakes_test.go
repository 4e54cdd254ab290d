package engine_test

import (
	"context"
	"sync"
	"time"

	"github.com/rgonzalo/straddlebot/internal/domain"
	"github.com/rgonzalo/straddlebot/internal/ports"
)

// fakeFeed serves a scripted sequence of snapshots, repeating the last
// one when the script runs out.
type fakeFeed struct {
	mu    sync.Mutex
	snaps []domain.Snapshot
	idx   int
	err   error
}

func (f *fakeFeed) GetSnapshot(_ context.Context, _ string) (domain.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.Snapshot{}, f.err
	}
	if len(f.snaps) == 0 {
		return domain.Snapshot{}, ports.ErrNoPrice
	}
	snap := f.snaps[f.idx]
	if f.idx < len(f.snaps)-1 {
		f.idx++
	}
	return snap, nil
}

type closeCall struct {
	Ticket int64
	Side   domain.Side
	CtxErr error // ctx.Err() at the moment of the call
}

// fakeGateway records every call and answers via overridable funcs.
type fakeGateway struct {
	mu      sync.Mutex
	opens   []domain.OrderRequest
	closes  []closeCall
	openFn  func(n int, req domain.OrderRequest) (domain.Fill, error)
	closeFn func(n int, ticket int64, side domain.Side) (domain.Fill, error)
}

func (g *fakeGateway) OpenMarketOrder(_ context.Context, req domain.OrderRequest) (domain.Fill, error) {
	g.mu.Lock()
	g.opens = append(g.opens, req)
	n := len(g.opens)
	g.mu.Unlock()
	if g.openFn != nil {
		return g.openFn(n, req)
	}
	return domain.Fill{Ticket: int64(n), FillPrice: 100}, nil
}

func (g *fakeGateway) ClosePosition(ctx context.Context, ticket int64, _ float64, side domain.Side) (domain.Fill, error) {
	g.mu.Lock()
	g.closes = append(g.closes, closeCall{Ticket: ticket, Side: side, CtxErr: ctx.Err()})
	n := len(g.closes)
	g.mu.Unlock()
	if g.closeFn != nil {
		return g.closeFn(n, ticket, side)
	}
	return domain.Fill{Ticket: ticket, FillPrice: 100}, nil
}

func (g *fakeGateway) Ping(context.Context) error { return nil }

func (g *fakeGateway) openCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.opens)
}

func (g *fakeGateway) closeCalls() []closeCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]closeCall, len(g.closes))
	copy(out, g.closes)
	return out
}

// fakeLedgerStore keeps the last saved ledger in memory.
type fakeLedgerStore struct {
	mu      sync.Mutex
	ledger  domain.Ledger
	saves   int
	saveErr error
}

func newFakeLedgerStore() *fakeLedgerStore {
	return &fakeLedgerStore{ledger: domain.NewLedger(time.Now())}
}

func (s *fakeLedgerStore) Load(context.Context) (domain.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Clone(), nil
}

func (s *fakeLedgerStore) Save(_ context.Context, l domain.Ledger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.ledger = l.Clone()
	s.saves++
	return nil
}

func (s *fakeLedgerStore) saved() domain.Ledger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Clone()
}

// fakeCycleStore collects saved cycle records.
type fakeCycleStore struct {
	mu   sync.Mutex
	recs []domain.CycleRecord
}

func (s *fakeCycleStore) SaveCycle(_ context.Context, rec domain.CycleRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return nil
}

func (s *fakeCycleStore) GetStats(context.Context) (domain.Stats, error) {
	return domain.Stats{}, nil
}

func (s *fakeCycleStore) Close() error { return nil }

func (s *fakeCycleStore) records() []domain.CycleRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.CycleRecord, len(s.recs))
	copy(out, s.recs)
	return out
}

// fakeNotifier counts notifications.
type fakeNotifier struct {
	mu     sync.Mutex
	cycles []domain.CycleRecord
	skips  []string
}

func (n *fakeNotifier) NotifyCycle(_ context.Context, rec domain.CycleRecord, _ domain.Ledger) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cycles = append(n.cycles, rec)
	return nil
}

func (n *fakeNotifier) NotifySkip(_ context.Context, reason string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.skips = append(n.skips, reason)
	return nil
}

func snap(bid, ask float64) domain.Snapshot {
	return domain.Snapshot{Bid: bid, Ask: ask, Time: time.Now().UTC()}
}
