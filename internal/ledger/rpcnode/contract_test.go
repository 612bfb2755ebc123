// SPDX-License-Identifier: Apache-2.0

package rpcnode

import (
	"context"
	"encoding/json"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elewad/chainpass/internal/ledger"
	"github.com/elewad/chainpass/internal/ledger/scale"
)

func testSigner(t *testing.T) ledger.Signer {
	t.Helper()
	signer, err := ledger.NewDevSigner(strings.Repeat("ab", 32))
	require.NoError(t, err)
	return signer
}

// encodeResultOk wraps SCALE output bytes in the Ok arm of the ink! Result
// envelope, hex-encoded the way contracts_call reports return data.
func encodeResultOk(output []byte) string {
	return toHex(append([]byte{resultOkTag}, output...))
}

// encodeCredentialList is the test-side inverse of the getCredentials
// output decoder.
func encodeCredentialList(list []abiCredential) []byte {
	out := scale.AppendCompact(nil, uint64(len(list)))
	for _, rec := range list {
		out = scale.AppendString(out, rec.ID)
		out = scale.AppendString(out, rec.Payload)
		out = scale.AppendString(out, rec.Group)
	}
	return out
}

// ─────────────────────────────────────────────
// ABI
// ─────────────────────────────────────────────

func TestEncodeCallInput(t *testing.T) {
	input, err := encodeCallInput("addCredential", []string{"payload", "grp", "id-1"})
	require.NoError(t, err)

	sel := scale.Selector("addCredential")
	assert.Equal(t, sel[:], input[:4])

	want := scale.AppendString(nil, "payload")
	want = scale.AppendString(want, "grp")
	want = scale.AppendString(want, "id-1")
	assert.Equal(t, want, input[4:])
}

func TestEncodeCallInput_UnknownMessage(t *testing.T) {
	_, err := encodeCallInput("selfDestruct", nil)
	assert.ErrorContains(t, err, "unknown contract message")
}

func TestDecodeRevert(t *testing.T) {
	assert.Equal(t, "NotFound", decodeRevert([]byte{0}))
	assert.Equal(t, "AlreadyExists", decodeRevert([]byte{1}))
	assert.Equal(t, "UnknownError(9)", decodeRevert([]byte{9}))
	assert.Equal(t, "UnknownError", decodeRevert(nil))
}

func TestDecodeOutput_NoteList(t *testing.T) {
	raw := scale.AppendCompact(nil, 2)
	raw = scale.AppendString(raw, "n1")
	raw = scale.AppendString(raw, "cipher1")
	raw = scale.AppendString(raw, "n2")
	raw = scale.AppendString(raw, "cipher2")

	out, err := decodeOutput("getNotes", raw)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"n1","payload":"cipher1"},{"id":"n2","payload":"cipher2"}]`, string(out))
}

func TestDecodeOutput_Truncated(t *testing.T) {
	raw := scale.AppendCompact(nil, 3)
	raw = scale.AppendString(raw, "only-one")

	_, err := decodeOutput("getNotes", raw)
	assert.Error(t, err)
}

// ─────────────────────────────────────────────
// Dry run
// ─────────────────────────────────────────────

func TestDryRun_DecodesCredentialList(t *testing.T) {
	node, client := newTestNode(t)
	contract := client.Contract(testAccount(0x0c), testSigner(t))

	stored := []abiCredential{
		{ID: "a", Payload: "cipher-a", Group: "Default"},
		{ID: "b", Payload: "cipher-b", Group: "Work"},
	}

	node.handle("contracts_call", func(params []json.RawMessage) any {
		req := decodeParam[map[string]any](t, params, 0)

		sel := scale.Selector("getCredentials")
		assert.Equal(t, toHex(sel[:]), req["inputData"])
		assert.Equal(t, testAccount(0x0c).SS58(ledger.SS58Prefix), req["dest"])

		return map[string]any{
			"gasConsumed": 31_415,
			"result": map[string]any{
				"Ok": map[string]any{"flags": 0, "data": encodeResultOk(encodeCredentialList(stored))},
			},
		}
	})

	res, err := contract.DryRun(context.Background(), "getCredentials", nil)
	require.NoError(t, err)

	assert.Equal(t, int64(31_415), res.GasConsumed.Int64())
	assert.Empty(t, res.Revert)

	var got []abiCredential
	require.NoError(t, json.Unmarshal(res.Output, &got))
	assert.Equal(t, stored, got)
}

func TestDryRun_GasReportedAsWeightObject(t *testing.T) {
	node, client := newTestNode(t)
	contract := client.Contract(testAccount(0x0c), testSigner(t))

	node.handle("contracts_call", func([]json.RawMessage) any {
		return map[string]any{
			"gasConsumed": map[string]any{"refTime": "271828", "proofSize": "1024"},
			"result": map[string]any{
				"Ok": map[string]any{"flags": 0, "data": encodeResultOk(scale.AppendCompact(nil, 0))},
			},
		}
	})

	res, err := contract.DryRun(context.Background(), "getNotes", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(271_828), res.GasConsumed.Int64())
}

func TestDryRun_ContractRevert(t *testing.T) {
	node, client := newTestNode(t)
	contract := client.Contract(testAccount(0x0c), testSigner(t))

	node.handle("contracts_call", func([]json.RawMessage) any {
		return map[string]any{
			"gasConsumed": 100,
			"result": map[string]any{
				"Ok": map[string]any{"flags": revertFlag, "data": toHex([]byte{resultErrTag, 0x00})},
			},
		}
	})

	res, err := contract.DryRun(context.Background(), "deleteCredential", []string{"missing"})
	require.NoError(t, err)
	assert.Equal(t, "NotFound", res.Revert)
	assert.Nil(t, res.Output)
}

func TestDryRun_NodeRejected(t *testing.T) {
	node, client := newTestNode(t)
	contract := client.Contract(testAccount(0x0c), testSigner(t))

	node.handle("contracts_call", func([]json.RawMessage) any {
		return map[string]any{
			"gasConsumed": 0,
			"result":      map[string]any{"Err": map[string]any{"Module": map[string]any{"index": 8, "error": 7}}},
		}
	})

	_, err := contract.DryRun(context.Background(), "addNote", []string{"p", "id"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected by node")
}

// ─────────────────────────────────────────────
// Submit and inclusion watch
// ─────────────────────────────────────────────

// submitFixture wires the stub node for a full submit: nonce lookup,
// broadcast capture, and a finalized chain that advances one block which
// includes the captured extrinsic alongside the given event log.
type submitFixture struct {
	mu        sync.Mutex
	head      uint64
	submitted string
	events    string
}

func (f *submitFixture) install(t *testing.T, node *testNode) {
	const includedAt = uint64(17)
	blockHash := "0x" + strings.Repeat("22", 32)

	node.handle("system_accountNextIndex", func([]json.RawMessage) any { return 7 })
	node.handle("chain_getFinalizedHead", func([]json.RawMessage) any { return blockHash })
	node.handle("chain_getHeader", func([]json.RawMessage) any {
		f.mu.Lock()
		defer f.mu.Unlock()
		return map[string]any{"number": "0x" + hexUint(f.head)}
	})
	node.handle("author_submitExtrinsic", func(params []json.RawMessage) any {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.submitted = decodeParam[string](t, params, 0)
		f.head = includedAt
		return "0x" + strings.Repeat("33", 32)
	})
	node.handle("chain_getBlockHash", func([]json.RawMessage) any { return blockHash })
	node.handle("chain_getBlock", func([]json.RawMessage) any {
		f.mu.Lock()
		defer f.mu.Unlock()
		return map[string]any{"block": map[string]any{"extrinsics": []string{f.submitted}}}
	})
	node.handle("state_getStorage", func([]json.RawMessage) any {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.events
	})
}

func hexUint(v uint64) string {
	return big.NewInt(int64(v)).Text(16)
}

// successEventLog is one ExtrinsicSuccess record for extrinsic 0.
func successEventLog() string {
	rec := []byte{phaseApplyExtrinsic}
	rec = append(rec, 0, 0, 0, 0) // extrinsic index 0, u32 LE
	rec = append(rec, systemPalletIndex, eventExtrinsicSuccess)
	rec = append(rec, dispatchInfoBytes()...)
	rec = scale.AppendCompact(rec, 0) // no topics
	return toHex(append(scale.AppendCompact(nil, 1), rec...))
}

// failedEventLog is one ExtrinsicFailed record carrying a module error.
func failedEventLog(palletIndex, errIndex byte) string {
	rec := []byte{phaseApplyExtrinsic}
	rec = append(rec, 0, 0, 0, 0)
	rec = append(rec, systemPalletIndex, eventExtrinsicFailed)
	rec = append(rec, 3, palletIndex, errIndex, 0, 0, 0) // DispatchError::Module
	rec = append(rec, dispatchInfoBytes()...)
	rec = scale.AppendCompact(rec, 0)
	return toHex(append(scale.AppendCompact(nil, 1), rec...))
}

func dispatchInfoBytes() []byte {
	info := scale.AppendCompact(nil, 1000) // weight ref_time
	info = scale.AppendCompact(info, 0)    // weight proof_size
	return append(info, 0, 0)              // class, pays_fee
}

func TestSignAndSubmit_SuccessStream(t *testing.T) {
	node, client := newTestNode(t)
	contract := client.Contract(testAccount(0x0c), testSigner(t))

	fx := &submitFixture{head: 16, events: successEventLog()}
	fx.install(t, node)

	ch, err := contract.SignAndSubmit(context.Background(), "addCredential",
		[]string{"cipher", "Default", "id-1"}, big.NewInt(1_000_000))
	require.NoError(t, err)

	first := <-ch
	assert.True(t, first.Is(ledger.StatusReady))

	var terminal ledger.TxStatus
	select {
	case terminal = <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("no terminal status")
	}
	assert.True(t, terminal.Is(ledger.StatusInBlock))
	assert.True(t, terminal.Is(ledger.StatusFinalized))
	assert.NotEmpty(t, terminal.BlockHash)
	assert.Nil(t, terminal.DispatchError)

	_, open := <-ch
	assert.False(t, open, "stream closes after the terminal status")

	fx.mu.Lock()
	defer fx.mu.Unlock()
	assert.NotEmpty(t, fx.submitted, "extrinsic reached the node")
}

func TestSignAndSubmit_DispatchErrorSurfaced(t *testing.T) {
	node, client := newTestNode(t)
	contract := client.Contract(testAccount(0x0c), testSigner(t))

	fx := &submitFixture{head: 16, events: failedEventLog(contractsPalletIndex, 2)}
	fx.install(t, node)

	ch, err := contract.SignAndSubmit(context.Background(), "updateNote",
		[]string{"id", "cipher"}, big.NewInt(1_000_000))
	require.NoError(t, err)

	<-ch // ready
	terminal := <-ch
	require.NotNil(t, terminal.DispatchError)
	require.NotNil(t, terminal.DispatchError.Module)

	meta, err := contract.DecodeDispatchError(*terminal.DispatchError.Module)
	require.NoError(t, err)
	assert.Equal(t, "contracts", meta.Section)
	assert.Equal(t, "OutOfGas", meta.Name)
}

func TestSignAndSubmit_NonceFetchFails(t *testing.T) {
	node, client := newTestNode(t)
	contract := client.Contract(testAccount(0x0c), testSigner(t))

	node.handle("system_accountNextIndex", func([]json.RawMessage) any {
		return rpcFault{code: -32000, message: "pool unavailable"}
	})

	_, err := contract.SignAndSubmit(context.Background(), "deleteNote", []string{"id"}, big.NewInt(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch account nonce")
}

// ─────────────────────────────────────────────
// Event log decoding
// ─────────────────────────────────────────────

func TestDecodeDispatchErrorValue(t *testing.T) {
	for _, tc := range []struct {
		name string
		in   []byte
		want string
	}{
		{"bad origin", []byte{2}, "bad origin"},
		{"token", []byte{7, 3}, "token error 3"},
		{"arithmetic", []byte{8, 1}, "arithmetic error 1"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, _, err := decodeDispatchErrorValue(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Other)
		})
	}
}

func TestDecodeDispatchErrorValue_Module(t *testing.T) {
	got, read, err := decodeDispatchErrorValue([]byte{3, 5, 2, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, 6, read)
	require.NotNil(t, got.Module)
	assert.Equal(t, ledger.ModuleError{Index: 5, Error: 2}, *got.Module)
}

func TestDecodeDispatchErrorValue_UnknownVariant(t *testing.T) {
	_, _, err := decodeDispatchErrorValue([]byte{42})
	assert.ErrorContains(t, err, "no known layout")
}

// ─────────────────────────────────────────────
// Module error registry
// ─────────────────────────────────────────────

func TestLookupModuleError(t *testing.T) {
	meta, err := lookupModuleError(ledger.ModuleError{Index: 5, Error: 2})
	require.NoError(t, err)
	assert.Equal(t, "balances", meta.Section)
	assert.Equal(t, "InsufficientBalance", meta.Name)
	assert.Contains(t, meta.String(), "balances.InsufficientBalance")
}

func TestLookupModuleError_Unknown(t *testing.T) {
	_, err := lookupModuleError(ledger.ModuleError{Index: 200, Error: 0})
	assert.ErrorContains(t, err, "unknown pallet")

	_, err = lookupModuleError(ledger.ModuleError{Index: 5, Error: 250})
	assert.ErrorContains(t, err, "unknown error")
}
