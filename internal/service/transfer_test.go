package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ledger/config"
	"ledger/internal/model"
	"ledger/internal/repo"
)

type capturedEvents struct {
	mu   sync.Mutex
	keys []string
}

func (c *capturedEvents) Publish(ctx context.Context, key string, value []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = append(c.keys, key)
	return nil
}

func (c *capturedEvents) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.keys)
}

func newTestEngine(t *testing.T, timeout time.Duration) (*repo.MemoryAccountStore, *capturedEvents, TransferService) {
	t.Helper()
	store := repo.NewMemoryAccountStore()
	events := &capturedEvents{}
	cfg := &config.Config{Transfer: config.TransferConfig{Timeout: timeout}}
	svc := NewTransferService(store, events, cfg, zap.NewNop())
	return store, events, svc
}

func balance(t *testing.T, store *repo.MemoryAccountStore, userID int64) int64 {
	t.Helper()
	acct, err := store.Get(context.Background(), userID)
	require.NoError(t, err)
	return acct.Balance
}

func TestTransfer_Success(t *testing.T) {
	store, events, svc := newTestEngine(t, 5*time.Second)
	store.CreateAccount(1, 100)
	store.CreateAccount(2, 50)

	receipt, err := svc.Transfer(context.Background(), 1, 2, 40)
	require.NoError(t, err)
	require.NotZero(t, receipt.TransactionID)
	require.Equal(t, int64(40), receipt.Amount)

	require.Equal(t, int64(60), balance(t, store, 1))
	require.Equal(t, int64(90), balance(t, store, 2))
	require.Len(t, store.Transactions(), 1)
	require.Equal(t, 1, events.count())
}

func TestTransfer_InvalidAmount(t *testing.T) {
	store, events, svc := newTestEngine(t, 5*time.Second)
	store.CreateAccount(1, 100)
	store.CreateAccount(2, 50)

	for _, amount := range []int64{0, -1, -100} {
		_, err := svc.Transfer(context.Background(), 1, 2, amount)
		require.ErrorIs(t, err, model.ErrInvalidAmount)
	}

	require.Equal(t, int64(100), balance(t, store, 1))
	require.Equal(t, int64(50), balance(t, store, 2))
	require.Empty(t, store.Transactions())
	require.Zero(t, events.count())
}

func TestTransfer_InsufficientBalance(t *testing.T) {
	store, _, svc := newTestEngine(t, 5*time.Second)
	store.CreateAccount(1, 10)
	store.CreateAccount(2, 0)

	_, err := svc.Transfer(context.Background(), 1, 2, 50)
	require.ErrorIs(t, err, model.ErrInsufficientBalance)

	require.Equal(t, int64(10), balance(t, store, 1))
	require.Equal(t, int64(0), balance(t, store, 2))
	require.Empty(t, store.Transactions())
}

func TestTransfer_SenderNotFound(t *testing.T) {
	store, _, svc := newTestEngine(t, 5*time.Second)
	store.CreateAccount(2, 50)

	_, err := svc.Transfer(context.Background(), 99, 2, 5)
	require.ErrorIs(t, err, model.ErrSenderNotFound)
	require.Equal(t, int64(50), balance(t, store, 2))
}

func TestTransfer_ReceiverNotFound(t *testing.T) {
	store, _, svc := newTestEngine(t, 5*time.Second)
	store.CreateAccount(1, 100)

	_, err := svc.Transfer(context.Background(), 1, 99, 5)
	require.ErrorIs(t, err, model.ErrReceiverNotFound)
	require.Equal(t, int64(100), balance(t, store, 1))
	require.Empty(t, store.Transactions())
}

// A sender with too little for the amount fails on funds before the
// receiver existence check runs.
func TestTransfer_ValidationOrder(t *testing.T) {
	store, _, svc := newTestEngine(t, 5*time.Second)
	store.CreateAccount(1, 10)

	_, err := svc.Transfer(context.Background(), 1, 99, 50)
	require.ErrorIs(t, err, model.ErrInsufficientBalance)
}

func TestTransfer_SelfTransfer(t *testing.T) {
	store, _, svc := newTestEngine(t, 5*time.Second)
	store.CreateAccount(1, 100)

	_, err := svc.Transfer(context.Background(), 1, 1, 30)
	require.NoError(t, err)
	require.Equal(t, int64(100), balance(t, store, 1))

	_, err = svc.Transfer(context.Background(), 1, 1, 200)
	require.ErrorIs(t, err, model.ErrInsufficientBalance)
	require.Equal(t, int64(100), balance(t, store, 1))
}

// N concurrent drains where N*amount exceeds the balance: exactly
// floor(B/a) succeed, the rest fail on funds, and the sender never goes
// negative.
func TestTransfer_ConcurrentDrain(t *testing.T) {
	store, _, svc := newTestEngine(t, 10*time.Second)

	const (
		sender    = int64(1)
		initial   = int64(10)
		amount    = int64(3)
		attempts  = 10
		wantOK    = 3 // floor(10/3)
		wantFails = attempts - wantOK
	)

	store.CreateAccount(sender, initial)
	receivers := make([]int64, attempts)
	for i := range receivers {
		receivers[i] = int64(100 + i)
		store.CreateAccount(receivers[i], 0)
	}

	var wg sync.WaitGroup
	errs := make(chan error, attempts)
	startLine := make(chan struct{})

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(to int64) {
			defer wg.Done()
			<-startLine
			_, err := svc.Transfer(context.Background(), sender, to, amount)
			errs <- err
		}(receivers[i])
	}

	close(startLine)
	wg.Wait()
	close(errs)

	var ok, insufficient int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		default:
			require.ErrorIs(t, err, model.ErrInsufficientBalance)
			insufficient++
		}
	}
	require.Equal(t, wantOK, ok)
	require.Equal(t, wantFails, insufficient)

	final := balance(t, store, sender)
	require.Equal(t, initial-int64(wantOK)*amount, final)
	require.GreaterOrEqual(t, final, int64(0))

	var received int64
	for _, to := range receivers {
		received += balance(t, store, to)
	}
	require.Equal(t, initial, final+received, "total money must be conserved")
}

// Opposing concurrent transfers of equal amounts must both commit and net
// to zero; ascending lock order means neither side deadlocks.
func TestTransfer_ConcurrentOpposing(t *testing.T) {
	store, _, svc := newTestEngine(t, 10*time.Second)
	store.CreateAccount(1, 100)
	store.CreateAccount(2, 100)

	const amount = int64(25)

	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := svc.Transfer(context.Background(), 1, 2, amount)
		errs <- err
	}()
	go func() {
		defer wg.Done()
		_, err := svc.Transfer(context.Background(), 2, 1, amount)
		errs <- err
	}()

	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, int64(100), balance(t, store, 1))
	require.Equal(t, int64(100), balance(t, store, 2))
	require.Len(t, store.Transactions(), 2)
}

// A scope that cannot acquire its locks within the engine timeout aborts
// as store-unavailable with no side effects.
func TestTransfer_LockTimeout(t *testing.T) {
	store, events, svc := newTestEngine(t, 100*time.Millisecond)
	store.CreateAccount(1, 100)
	store.CreateAccount(2, 50)

	blocker, err := store.Begin(context.Background(), 1, 2)
	require.NoError(t, err)

	_, err = svc.Transfer(context.Background(), 1, 2, 10)
	require.ErrorIs(t, err, model.ErrStoreUnavailable)

	require.NoError(t, blocker.Rollback())

	require.Equal(t, int64(100), balance(t, store, 1))
	require.Equal(t, int64(50), balance(t, store, 2))
	require.Empty(t, store.Transactions())
	require.Zero(t, events.count())

	// Locks were released on abort; the same transfer now goes through.
	_, err = svc.Transfer(context.Background(), 1, 2, 10)
	require.NoError(t, err)
	require.Equal(t, int64(90), balance(t, store, 1))
}

// The history endpoint surfaces the sender's committed transfers, newest
// first, each stamped with its commit time.
func TestListTransactions(t *testing.T) {
	store, _, svc := newTestEngine(t, 5*time.Second)
	store.CreateAccount(1, 100)
	store.CreateAccount(2, 0)
	store.CreateAccount(3, 0)

	before := time.Now().UTC()
	_, err := svc.Transfer(context.Background(), 1, 2, 10)
	require.NoError(t, err)
	_, err = svc.Transfer(context.Background(), 1, 3, 20)
	require.NoError(t, err)
	_, err = svc.Transfer(context.Background(), 2, 1, 5)
	require.NoError(t, err)

	txns, err := svc.ListTransactions(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, txns, 2)

	require.Equal(t, int64(3), txns[0].To)
	require.Equal(t, int64(20), txns[0].Amount)
	require.Equal(t, int64(2), txns[1].To)
	require.Equal(t, int64(10), txns[1].Amount)

	for _, txn := range txns {
		require.Equal(t, int64(1), txn.From)
		require.False(t, txn.CreatedAt.IsZero())
		require.False(t, txn.CreatedAt.Before(before))
	}

	txns, err = svc.ListTransactions(context.Background(), 3)
	require.NoError(t, err)
	require.Empty(t, txns)
}

func TestGetBalance(t *testing.T) {
	store, _, svc := newTestEngine(t, 5*time.Second)
	store.CreateAccount(1, 77)

	got, err := svc.GetBalance(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, int64(77), got)

	_, err = svc.GetBalance(context.Background(), 99)
	require.ErrorIs(t, err, model.ErrAccountNotFound)
}
