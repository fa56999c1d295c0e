package deployment

import (
	"context"
	"fmt"
	"time"

	"github.com/iov-one/cellkit"
	"github.com/iov-one/cellkit/errors"
	"github.com/iov-one/cellkit/migration"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	defaultPollInterval   = 3 * time.Second
	defaultConfirmTimeout = 10 * time.Minute
)

// Executor carries out a deployment.
type Executor struct {
	Planner *Planner
	Chain   Chain
	Signer  Signer
	// Logger defaults to a no-op logger.
	Logger log.Logger
	// Retry defaults to DefaultRetryConfig.
	Retry *RetryConfig
	// PollInterval is the time between two confirmation checks.
	PollInterval time.Duration
	// ConfirmTimeout is how long a transaction may take to be committed
	// once broadcast.
	ConfirmTimeout time.Duration
}

// RunContext holds everything a single run depends on.
type RunContext struct {
	Spec    *Spec
	Options Options
	Store   *migration.Store
}

// Report is the outcome of a successful run.
type Report struct {
	Plan *Plan
	// Confirmed lists the hashes of committed transactions, in order.
	Confirmed []cellkit.Hash
	// State is the recorded state after the run.
	State *migration.State
}

// RunError is returned when a run fails. Transactions listed in Confirmed
// were committed and recorded before the failure, so running again with
// migration enabled resumes the deployment.
type RunError struct {
	Confirmed []cellkit.Hash
	// Pending is the hash of a transaction that was broadcast but not seen
	// committed. It is zero if no such transaction exists. Check its status
	// before running again, it may still spend the deployment cells.
	Pending cellkit.Hash
	Err     error
}

func (e *RunError) Error() string {
	msg := e.Err.Error()
	if len(e.Confirmed) > 0 {
		msg = fmt.Sprintf("%s (%d transactions confirmed)", msg, len(e.Confirmed))
	}
	if !e.Pending.IsZero() {
		msg = fmt.Sprintf("%s (transaction %s pending)", msg, e.Pending)
	}
	return msg
}

// Cause allows Error.Is to inspect the reason of the failure.
func (e *RunError) Cause() error {
	return e.Err
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Run plans the deployment and then signs, broadcasts and confirms every
// planned transaction in order. The records of a transaction are stored as
// soon as it is committed. The store is locked for the whole run.
func (e *Executor) Run(ctx context.Context, rc RunContext) (*Report, error) {
	logger := e.logger()
	if err := rc.Store.Lock(); err != nil {
		return nil, &RunError{Err: err}
	}
	defer func() {
		if err := rc.Store.Unlock(); err != nil {
			logger.Error("cannot release migration lock", "dir", rc.Store.Dir(), "err", err)
		}
	}()

	state, err := rc.Store.Load()
	if err != nil {
		return nil, &RunError{Err: err}
	}
	plan, err := e.Planner.Plan(ctx, rc.Spec, state, rc.Options)
	if err != nil {
		return nil, &RunError{Err: err}
	}
	logger.Info("deployment planned",
		"transactions", len(plan.Transactions),
		"references", len(plan.References),
		"migration", state.Sequence+1)

	report := &Report{Plan: plan, State: state}
	pending := plan.References
	for i, ptx := range plan.Transactions {
		txLogger := logger.With("tx", ptx.Tx.Hash(), "index", i)
		hash, err := e.broadcast(ctx, txLogger, ptx.Tx)
		if err != nil {
			return nil, &RunError{Confirmed: report.Confirmed, Err: err}
		}
		// A broadcast transaction can still be committed, so it is awaited
		// and recorded even after cancellation.
		if ctx.Err() != nil {
			txLogger.Info("canceled, waiting for the broadcast transaction before stopping")
		}
		if err := e.waitCommitted(context.WithoutCancel(ctx), txLogger, hash); err != nil {
			if ctx.Err() != nil {
				err = errors.Wrapf(errors.ErrCanceled, "%s: %s", ctx.Err(), err)
			}
			return nil, &RunError{Confirmed: report.Confirmed, Pending: hash, Err: err}
		}
		txLogger.Info("transaction committed")
		records := append(append([]migration.Record(nil), pending...), ptx.Records...)
		pending = nil
		state, err := rc.Store.Append(records)
		if err != nil {
			txLogger.Error("transaction committed but not recorded", "err", err)
			return nil, &RunError{Confirmed: report.Confirmed, Err: err}
		}
		report.State = state
		report.Confirmed = append(report.Confirmed, hash)
		txLogger.Info("transaction recorded", "records", len(records), "migration", state.Sequence)
	}
	if len(pending) > 0 {
		state, err := rc.Store.Append(pending)
		if err != nil {
			return nil, &RunError{Err: err}
		}
		report.State = state
		logger.Info("references recorded", "records", len(pending), "migration", state.Sequence)
	}
	return report, nil
}

// broadcast signs the transaction and sends it to the node.
func (e *Executor) broadcast(ctx context.Context, logger log.Logger, tx *cellkit.Transaction) (cellkit.Hash, error) {
	want := tx.Hash()
	if err := ctx.Err(); err != nil {
		return want, errors.Wrap(errors.ErrCanceled, err.Error())
	}

	signed, err := e.Signer.SignTransaction(ctx, tx)
	if err != nil {
		if errors.ErrCanceled.Is(err) {
			return want, err
		}
		return want, errors.Wrapf(ErrSigner, "sign %s: %s", want, err)
	}
	if got := signed.Hash(); got != want {
		return want, errors.Wrapf(ErrSigner, "signer changed transaction %s into %s", want, got)
	}

	if err := ctx.Err(); err != nil {
		return want, errors.Wrap(errors.ErrCanceled, err.Error())
	}
	err = withRetry(ctx, e.retry(), logger, "send transaction", func() error {
		got, err := e.Chain.SendTransaction(ctx, signed)
		if err != nil {
			return err
		}
		if got != want {
			return errors.Wrapf(errors.ErrState, "node returned hash %s", got)
		}
		return nil
	})
	if err != nil {
		return want, err
	}
	logger.Info("transaction broadcast")
	return want, nil
}

// waitCommitted polls the chain until the transaction is committed.
func (e *Executor) waitCommitted(ctx context.Context, logger log.Logger, hash cellkit.Hash) error {
	interval := e.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	timeout := e.ConfirmTimeout
	if timeout <= 0 {
		timeout = defaultConfirmTimeout
	}
	pollCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	done := func() error {
		if ctx.Err() != nil {
			return errors.Wrap(errors.ErrCanceled, ctx.Err().Error())
		}
		return errors.Wrapf(ErrConfirmationTimeout, "%s not committed after %s", hash, timeout)
	}

	for {
		var status cellkit.TxStatus
		err := withRetry(pollCtx, e.retry(), logger, "transaction status", func() error {
			var err error
			status, err = e.Chain.TransactionStatus(pollCtx, hash)
			return err
		})
		if err != nil {
			if pollCtx.Err() != nil {
				return done()
			}
			return err
		}
		switch status {
		case cellkit.TxCommitted:
			return nil
		case cellkit.TxRejected:
			return errors.Wrapf(ErrChainRPC, "transaction %s rejected", hash)
		}
		logger.Debug("waiting for confirmation", "status", status)

		select {
		case <-pollCtx.Done():
			return done()
		case <-ticker.C:
		}
	}
}

func (e *Executor) logger() log.Logger {
	if e.Logger == nil {
		return log.NewNopLogger()
	}
	return e.Logger
}

func (e *Executor) retry() RetryConfig {
	if e.Retry == nil {
		return DefaultRetryConfig()
	}
	return *e.Retry
}
