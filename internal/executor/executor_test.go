// SPDX-License-Identifier: Apache-2.0

package executor

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elewad/chainpass/internal/ledger"
	"github.com/elewad/chainpass/internal/logger"
)

// stubContractClient scripts the ledger side of a call and counts how often
// each phase was reached.
type stubContractClient struct {
	dryRunResult ledger.DryRunResult
	dryRunErr    error

	submitErr error
	statuses  []ledger.TxStatus
	leaveOpen bool // do not close the stream after the scripted statuses
	decoded   map[ledger.ModuleError]ledger.ErrorMeta

	dryRunCalls  int
	submitCalls  int
	lastGasLimit *big.Int
}

func (s *stubContractClient) DryRun(_ context.Context, _ string, _ []string) (ledger.DryRunResult, error) {
	s.dryRunCalls++
	return s.dryRunResult, s.dryRunErr
}

func (s *stubContractClient) SignAndSubmit(_ context.Context, _ string, _ []string, gasLimit *big.Int) (<-chan ledger.TxStatus, error) {
	s.submitCalls++
	s.lastGasLimit = gasLimit
	if s.submitErr != nil {
		return nil, s.submitErr
	}

	stream := make(chan ledger.TxStatus, len(s.statuses)+1)
	for _, st := range s.statuses {
		stream <- st
	}
	if !s.leaveOpen {
		close(stream)
	}
	return stream, nil
}

func (s *stubContractClient) DecodeDispatchError(mod ledger.ModuleError) (ledger.ErrorMeta, error) {
	meta, ok := s.decoded[mod]
	if !ok {
		return ledger.ErrorMeta{}, errors.New("unknown module error")
	}
	return meta, nil
}

func okDryRun(gas int64, output string) ledger.DryRunResult {
	return ledger.DryRunResult{GasConsumed: big.NewInt(gas), Output: []byte(output)}
}

func TestExec_Success(t *testing.T) {
	client := &stubContractClient{
		dryRunResult: okDryRun(5_000, `"cred-id"`),
		statuses:     []ledger.TxStatus{{Ready: true}, {InBlock: true, BlockHash: "0xabc"}},
	}
	exec := NewExecutor(client, logger.Nop())

	out, err := exec.Exec(context.Background(), "addCredential", []string{"payload", "group", "id"})
	require.NoError(t, err)
	assert.Equal(t, `"cred-id"`, string(out))
	assert.Equal(t, 1, client.dryRunCalls)
	assert.Equal(t, 1, client.submitCalls)
}

// A contract-level revert during the dry run fails the whole operation with
// zero transactions broadcast.
func TestExec_SimulateRevert_NothingSubmitted(t *testing.T) {
	client := &stubContractClient{
		dryRunResult: ledger.DryRunResult{GasConsumed: big.NewInt(1), Revert: "NotFound"},
	}
	exec := NewExecutor(client, logger.Nop())

	_, err := exec.Exec(context.Background(), "deleteCredential", []string{"id"})

	var rejected *ContractRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "NotFound", rejected.Reason)
	assert.Equal(t, 0, client.submitCalls, "no transaction may be broadcast after a revert")
}

func TestExec_DryRunTransportError(t *testing.T) {
	client := &stubContractClient{dryRunErr: errors.New("node unreachable")}
	exec := NewExecutor(client, logger.Nop())

	_, err := exec.Exec(context.Background(), "addNote", []string{"x"})
	require.Error(t, err)
	assert.Equal(t, 0, client.submitCalls)
}

// The submitted gas limit is the dry run's consumed gas plus the fixed
// margin, a constant overhead rather than a percentage.
func TestExec_GasBudget(t *testing.T) {
	client := &stubContractClient{
		dryRunResult: okDryRun(7_777, `null`),
		statuses:     []ledger.TxStatus{{InBlock: true}},
	}
	exec := NewExecutor(client, logger.Nop())

	_, err := exec.Exec(context.Background(), "updateNote", []string{"id", "payload"})
	require.NoError(t, err)

	want := new(big.Int).Add(big.NewInt(7_777), ledger.Amount(100, ledger.Milli))
	assert.Zero(t, want.Cmp(client.lastGasLimit))
}

func TestExec_CustomGasMargin(t *testing.T) {
	client := &stubContractClient{
		dryRunResult: okDryRun(100, `null`),
		statuses:     []ledger.TxStatus{{InBlock: true}},
	}
	exec := NewExecutor(client, logger.Nop(), WithGasMargin(big.NewInt(9)))

	_, err := exec.Exec(context.Background(), "updateNote", nil)
	require.NoError(t, err)
	assert.Zero(t, big.NewInt(109).Cmp(client.lastGasLimit))
}

// With custom wait flags every named flag must be set on one status update;
// in-block alone no longer terminates the wait.
func TestExec_CustomWaitFlags(t *testing.T) {
	client := &stubContractClient{
		dryRunResult: okDryRun(1, `null`),
		statuses: []ledger.TxStatus{
			{InBlock: true},
			{InBlock: true, Finalized: true},
		},
	}
	exec := NewExecutor(client, logger.Nop(), WithWaitFlags(ledger.StatusFinalized))

	_, err := exec.Exec(context.Background(), "addNote", nil)
	require.NoError(t, err)
}

func TestExec_ModuleDispatchError(t *testing.T) {
	mod := ledger.ModuleError{Index: 7, Error: 2}
	client := &stubContractClient{
		dryRunResult: okDryRun(1, `null`),
		statuses: []ledger.TxStatus{
			{InBlock: true, DispatchError: &ledger.DispatchError{Module: &mod}},
		},
		decoded: map[ledger.ModuleError]ledger.ErrorMeta{
			mod: {Section: "contracts", Name: "OutOfGas", Docs: []string{"The executed contract", "exhausted its gas limit."}},
		},
	}
	exec := NewExecutor(client, logger.Nop())

	_, err := exec.Exec(context.Background(), "addCredential", nil)

	var txErr *TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, "contracts.OutOfGas: The executed contract exhausted its gas limit.", txErr.Reason)
}

func TestExec_UnknownModuleError_FallsBackToIndices(t *testing.T) {
	mod := ledger.ModuleError{Index: 9, Error: 9}
	client := &stubContractClient{
		dryRunResult: okDryRun(1, `null`),
		statuses: []ledger.TxStatus{
			{Finalized: true, DispatchError: &ledger.DispatchError{Module: &mod}},
		},
	}
	exec := NewExecutor(client, logger.Nop())

	_, err := exec.Exec(context.Background(), "addCredential", nil)

	var txErr *TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, "module error 9.9", txErr.Reason)
}

func TestExec_NonModuleDispatchError(t *testing.T) {
	client := &stubContractClient{
		dryRunResult: okDryRun(1, `null`),
		statuses: []ledger.TxStatus{
			{InBlock: true, DispatchError: &ledger.DispatchError{Other: "BadOrigin"}},
		},
	}
	exec := NewExecutor(client, logger.Nop())

	_, err := exec.Exec(context.Background(), "deleteNote", nil)

	var txErr *TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, "BadOrigin", txErr.Reason)
}

// A stream that closes before any terminal status is a transport failure;
// there is no second subscription attempt.
func TestExec_StreamClosedBeforeFinality(t *testing.T) {
	client := &stubContractClient{
		dryRunResult: okDryRun(1, `null`),
		statuses:     []ledger.TxStatus{{Ready: true}, {Broadcast: true}},
	}
	exec := NewExecutor(client, logger.Nop())

	_, err := exec.Exec(context.Background(), "addNote", nil)
	assert.ErrorIs(t, err, ErrFinalityLost)
	assert.Equal(t, 1, client.submitCalls)
}

func TestExec_ContextCancelledDuringWait(t *testing.T) {
	client := &stubContractClient{
		dryRunResult: okDryRun(1, `null`),
		statuses:     []ledger.TxStatus{{Ready: true}},
		leaveOpen:    true,
	}
	exec := NewExecutor(client, logger.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := exec.Exec(ctx, "addNote", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
