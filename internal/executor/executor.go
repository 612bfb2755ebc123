// SPDX-License-Identifier: Apache-2.0

// Package executor drives the two-phase contract call protocol: a read-only
// dry run for gas estimation and failure detection, then a signed
// submission with a bounded gas limit and a single finality wait.
//
// The executor is stateless and reentrant. It performs no retries and no
// client-side serialization: concurrent calls race at the ledger's own
// concurrency control, and every failure is terminal for that call.
package executor

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/elewad/chainpass/internal/ledger"
	"github.com/elewad/chainpass/internal/logger"
)

// ErrFinalityLost is returned when the transaction status stream closes
// before a terminal status was observed (node dropped the link, or the
// transaction was dropped/invalidated). Only one finality wait is ever
// attempted; the caller decides whether to retry the whole operation.
var ErrFinalityLost = errors.New("transaction status stream closed before finality")

// ContractRejectedError reports a contract-level revert during the dry run.
// No transaction was submitted and no gas was spent.
type ContractRejectedError struct {
	Method string
	Reason string
}

func (e *ContractRejectedError) Error() string {
	return fmt.Sprintf("contract rejected %s: %s", e.Method, e.Reason)
}

// TransactionError reports a dispatch-level failure of a transaction that
// did reach finality. Reason is the decoded module error when metadata
// could resolve it, or the raw dispatch error text otherwise.
type TransactionError struct {
	Method string
	Reason string
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction %s failed: %s", e.Method, e.Reason)
}

// call phases, used for logging the per-operation state machine
const (
	phaseSimulating    = "simulating"
	phaseSubmitting    = "submitting"
	phaseAwaitingFinal = "awaiting_finality"
	phaseSucceeded     = "succeeded"
	phaseFailed        = "failed"
)

// defaultGasMargin is the fixed overhead added to the dry run's consumed
// gas to absorb estimation drift between simulation and real execution:
// 100 milli-units of the balance-gas conversion, not a percentage.
var defaultGasMargin = ledger.Amount(100, ledger.Milli)

// Executor runs logical contract operations against one bound contract
// client.
type Executor struct {
	client    ledger.ContractClient
	log       *logger.Logger
	gasMargin *big.Int
	waitFlags []ledger.StatusFlag
}

// Option customizes an Executor.
type Option func(*Executor)

// WithGasMargin overrides the fixed gas overhead added on top of the dry
// run estimate.
func WithGasMargin(margin *big.Int) Option {
	return func(e *Executor) { e.gasMargin = margin }
}

// WithWaitFlags replaces the default finality predicate (in-block OR
// finalized) with a custom set of status flags that must ALL be set on a
// single status update before the wait is considered terminal.
func WithWaitFlags(flags ...ledger.StatusFlag) Option {
	return func(e *Executor) { e.waitFlags = flags }
}

// NewExecutor constructs an Executor over the given contract client.
func NewExecutor(client ledger.ContractClient, log *logger.Logger, opts ...Option) *Executor {
	e := &Executor{
		client:    client,
		log:       log,
		gasMargin: defaultGasMargin,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Exec performs one logical mutating operation. On success it returns the
// contract's dry-run output: finality of the transaction is trusted as
// sufficient proof of durability, ledger state is never re-read to confirm.
func (e *Executor) Exec(ctx context.Context, method string, args []string) ([]byte, error) {
	log := e.log.With().Str("method", method).Logger()

	log.Debug().Str("phase", phaseSimulating).Msg("dry running contract call")
	dry, err := e.client.DryRun(ctx, method, args)
	if err != nil {
		log.Error().Err(err).Str("phase", phaseFailed).Msg("dry run failed")
		return nil, fmt.Errorf("dry run %s: %w", method, err)
	}

	if dry.Revert != "" {
		log.Warn().Str("phase", phaseFailed).Str("revert", dry.Revert).Msg("contract rejected call")
		return nil, &ContractRejectedError{Method: method, Reason: dry.Revert}
	}

	gasLimit := new(big.Int).Add(dry.GasConsumed, e.gasMargin)

	log.Debug().
		Str("phase", phaseSubmitting).
		Str("gas_consumed", dry.GasConsumed.String()).
		Str("gas_limit", gasLimit.String()).
		Msg("submitting transaction")

	stream, err := e.client.SignAndSubmit(ctx, method, args, gasLimit)
	if err != nil {
		log.Error().Err(err).Str("phase", phaseFailed).Msg("submit failed")
		return nil, fmt.Errorf("submit %s: %w", method, err)
	}

	log.Debug().Str("phase", phaseAwaitingFinal).Msg("awaiting finality")
	status, err := e.awaitFinality(ctx, stream)
	if err != nil {
		log.Error().Err(err).Str("phase", phaseFailed).Msg("finality wait failed")
		return nil, err
	}

	if status.DispatchError != nil {
		reason := e.decodeDispatchError(status.DispatchError)
		log.Warn().Str("phase", phaseFailed).Str("reason", reason).Msg("transaction dispatch failed")
		return nil, &TransactionError{Method: method, Reason: reason}
	}

	log.Debug().Str("phase", phaseSucceeded).Str("block", status.BlockHash).Msg("transaction included")
	return dry.Output, nil
}

// awaitFinality consumes the status stream until a terminal update arrives
// or the stream closes. A closed stream without a terminal update is a
// transport failure, never retried here.
func (e *Executor) awaitFinality(ctx context.Context, stream <-chan ledger.TxStatus) (ledger.TxStatus, error) {
	for {
		select {
		case <-ctx.Done():
			return ledger.TxStatus{}, ctx.Err()
		case status, ok := <-stream:
			if !ok {
				return ledger.TxStatus{}, ErrFinalityLost
			}
			if e.terminal(status) {
				return status, nil
			}
		}
	}
}

func (e *Executor) terminal(status ledger.TxStatus) bool {
	if len(e.waitFlags) == 0 {
		return status.InBlock || status.Finalized
	}
	for _, flag := range e.waitFlags {
		if !status.Is(flag) {
			return false
		}
	}
	return true
}

func (e *Executor) decodeDispatchError(dispatch *ledger.DispatchError) string {
	if dispatch.Module == nil {
		return dispatch.Other
	}

	meta, err := e.client.DecodeDispatchError(*dispatch.Module)
	if err != nil {
		// Metadata could not resolve the module error; fall back to the
		// raw index pair so the failure is still reported.
		return fmt.Sprintf("module error %d.%d", dispatch.Module.Index, dispatch.Module.Error)
	}

	return meta.String()
}
