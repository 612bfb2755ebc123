// SPDX-License-Identifier: Apache-2.0

package rpcnode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/elewad/chainpass/internal/ledger"
)

// resultOkTag and resultErrTag are the SCALE variant tags of the
// Result<T, E> every ink! message returns.
const (
	resultOkTag  = 0x00
	resultErrTag = 0x01
)

// revertFlag is the execution-return flag the contracts pallet sets when
// the call reverted instead of committing.
const revertFlag = 0x01

// contractHandle binds one deployed vault instance to a signer. It
// implements ledger.ContractClient.
type contractHandle struct {
	client  *Client
	address ledger.AccountID
	signer  ledger.Signer
}

// gasValue tolerates the shapes nodes have reported gas in over time: a
// bare number, a decimal string, or a Weight object with a refTime field.
type gasValue struct {
	value *big.Int
}

func (g *gasValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '{' {
		var weight struct {
			RefTime json.RawMessage `json:"refTime"`
		}
		if err := json.Unmarshal(b, &weight); err != nil {
			return err
		}
		b = weight.RefTime
	}
	return g.set(strings.Trim(string(b), `"`))
}

func (g *gasValue) set(s string) error {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return fmt.Errorf("invalid gas value %q", s)
	}
	g.value = v
	return nil
}

type contractCallReply struct {
	GasConsumed gasValue `json:"gasConsumed"`
	Result      struct {
		Ok *struct {
			Flags uint32    `json:"flags"`
			Data  hexString `json:"data"`
		} `json:"Ok"`
		Err json.RawMessage `json:"Err"`
	} `json:"result"`
}

// DryRun implements ledger.ContractClient via the contracts_call runtime
// API: the call executes against current state with an unbounded gas
// allowance and nothing is committed.
func (h *contractHandle) DryRun(ctx context.Context, method string, args []string) (ledger.DryRunResult, error) {
	var res ledger.DryRunResult

	input, err := encodeCallInput(method, args)
	if err != nil {
		return res, err
	}

	request := map[string]any{
		"origin":    h.signer.Address().SS58(ledger.SS58Prefix),
		"dest":      h.address.SS58(ledger.SS58Prefix),
		"value":     0,
		"gasLimit":  nil,
		"inputData": toHex(input),
	}

	var reply contractCallReply
	if err := h.client.call(ctx, "contracts_call", []any{request}, &reply); err != nil {
		return res, err
	}

	if reply.Result.Err != nil {
		return res, fmt.Errorf("dry run of %s rejected by node: %s", method, compactJSON(reply.Result.Err))
	}
	if reply.Result.Ok == nil {
		return res, fmt.Errorf("dry run of %s: malformed node reply", method)
	}

	data, err := reply.Result.Ok.Data.bytes()
	if err != nil {
		return res, fmt.Errorf("dry run of %s: %w", method, err)
	}
	if len(data) == 0 {
		return res, fmt.Errorf("dry run of %s: empty return data", method)
	}

	res.GasConsumed = reply.GasConsumed.value
	if res.GasConsumed == nil {
		res.GasConsumed = new(big.Int)
	}

	if reply.Result.Ok.Flags&revertFlag != 0 || data[0] == resultErrTag {
		res.Revert = decodeRevert(data[1:])
		return res, nil
	}

	res.Output, err = decodeOutput(method, data[1:])
	if err != nil {
		return res, err
	}
	return res, nil
}

// SignAndSubmit implements ledger.ContractClient: fetch the account nonce,
// assemble and sign the Contracts.call extrinsic, broadcast it, and watch
// finalized blocks for inclusion. Status updates arrive on the returned
// channel until a terminal state or until the watch gives up.
func (h *contractHandle) SignAndSubmit(ctx context.Context, method string, args []string, gasLimit *big.Int) (<-chan ledger.TxStatus, error) {
	input, err := encodeCallInput(method, args)
	if err != nil {
		return nil, err
	}
	call := encodeContractsCall(h.address, gasLimit, input)

	origin := h.signer.Address().SS58(ledger.SS58Prefix)
	var nonce uint64
	if err := h.client.call(ctx, "system_accountNextIndex", []any{origin}, &nonce); err != nil {
		return nil, fmt.Errorf("fetch account nonce: %w", err)
	}

	ext, err := h.client.buildExtrinsic(h.signer, call, nonce)
	if err != nil {
		return nil, err
	}

	// Remember where the finalized chain stood before broadcasting so the
	// watcher scans every block that could contain the extrinsic.
	from, err := h.client.finalizedNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch finalized head: %w", err)
	}

	var txHash hexString
	if err := h.client.call(ctx, "author_submitExtrinsic", []any{toHex(ext)}, &txHash); err != nil {
		return nil, fmt.Errorf("submit extrinsic: %w", err)
	}
	h.client.log.Info().
		Str("method", method).
		Str("tx", string(txHash)).
		Msg("extrinsic submitted")

	ch := make(chan ledger.TxStatus, 4)
	go h.client.watchInclusion(ctx, toHex(ext), from, ch)
	return ch, nil
}

// DecodeDispatchError implements ledger.ContractClient against the static
// pallet registry compiled into this client.
func (h *contractHandle) DecodeDispatchError(mod ledger.ModuleError) (ledger.ErrorMeta, error) {
	return lookupModuleError(mod)
}

// compactJSON flattens a raw JSON value to a single line for error text.
func compactJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
