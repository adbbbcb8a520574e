package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ledger/config"
	"ledger/internal/model"
	"ledger/internal/repo"
	"ledger/internal/utils"
)

// TransferService is the transfer engine. Transfer validates in a fixed
// order (amount, sender, funds, receiver) and applies the two coupled
// updates inside one scope from the account store; the first failure aborts
// the scope with zero side effects.
type TransferService interface {
	Transfer(ctx context.Context, from, to, amount int64) (model.Receipt, error)
	GetBalance(ctx context.Context, userID int64) (int64, error)
	ListTransactions(ctx context.Context, userID int64) ([]model.Transaction, error)
}

type transferService struct {
	accounts repo.AccountStore
	events   repo.EventWriter
	timeout  time.Duration
	logger   *zap.SugaredLogger
}

func NewTransferService(accounts repo.AccountStore, events repo.EventWriter, cfg *config.Config, logger *zap.Logger) TransferService {
	return &transferService{
		accounts: accounts,
		events:   events,
		timeout:  cfg.Transfer.Timeout,
		logger:   logger.Sugar(),
	}
}

func (s *transferService) Transfer(ctx context.Context, from, to, amount int64) (model.Receipt, error) {
	if err := utils.ValidateAmount(amount); err != nil {
		return model.Receipt{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	scope, err := s.accounts.Begin(ctx, from, to)
	if err != nil {
		return model.Receipt{}, err
	}
	defer scope.Rollback()

	sender, err := scope.Account(from)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return model.Receipt{}, model.ErrSenderNotFound
		}
		return model.Receipt{}, err
	}

	if sender.Balance < amount {
		return model.Receipt{}, model.ErrInsufficientBalance
	}

	if _, err := scope.Account(to); err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return model.Receipt{}, model.ErrReceiverNotFound
		}
		return model.Receipt{}, err
	}

	if err := scope.Debit(from, amount); err != nil {
		return model.Receipt{}, err
	}
	if err := scope.Credit(to, amount); err != nil {
		return model.Receipt{}, err
	}

	txn := model.Transaction{
		ID:        utils.NewTransactionID(),
		From:      from,
		To:        to,
		Amount:    amount,
		CreatedAt: time.Now().UTC(),
	}
	if err := scope.Record(txn); err != nil {
		return model.Receipt{}, err
	}

	if err := scope.Commit(); err != nil {
		return model.Receipt{}, err
	}

	s.publishEvent(ctx, txn)

	return model.Receipt{
		TransactionID: txn.ID,
		From:          from,
		To:            to,
		Amount:        amount,
	}, nil
}

// publishEvent runs after commit. A publish failure is logged, never
// surfaced: the ledger state is already final.
func (s *transferService) publishEvent(ctx context.Context, txn model.Transaction) {
	if s.events == nil {
		return
	}
	evt := model.TransferEvent{
		TransactionID: txn.ID,
		From:          txn.From,
		To:            txn.To,
		Amount:        txn.Amount,
		CompletedAt:   txn.CreatedAt,
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		s.logger.Errorw("marshal transfer event", "error", err)
		return
	}
	if err := s.events.Publish(ctx, fmt.Sprint(txn.From), payload); err != nil {
		s.logger.Errorw("publish transfer event",
			"transaction_id", txn.ID, "error", err)
	}
}

func (s *transferService) GetBalance(ctx context.Context, userID int64) (int64, error) {
	acct, err := s.accounts.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return acct.Balance, nil
}

func (s *transferService) ListTransactions(ctx context.Context, userID int64) ([]model.Transaction, error) {
	return s.accounts.ListTransactions(ctx, userID)
}
