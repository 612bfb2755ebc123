// SPDX-License-Identifier: Apache-2.0

package rpcnode

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/elewad/chainpass/internal/ledger"
)

// watchBlockBudget bounds how many finalized blocks past the submission
// point are scanned before the watcher gives up on ever seeing the
// extrinsic. The stream then closes without a terminal status and the
// executor reports the finality wait as lost.
const watchBlockBudget = 64

// finalizedNumber returns the block number of the current finalized head.
func (c *Client) finalizedNumber(ctx context.Context) (uint64, error) {
	var head hexString
	if err := c.call(ctx, "chain_getFinalizedHead", nil, &head); err != nil {
		return 0, err
	}
	return c.headerNumber(ctx, head)
}

func (c *Client) headerNumber(ctx context.Context, hash hexString) (uint64, error) {
	var header struct {
		Number string `json:"number"`
	}
	if err := c.call(ctx, "chain_getHeader", []any{hash}, &header); err != nil {
		return 0, err
	}
	return strconv.ParseUint(strings.TrimPrefix(header.Number, "0x"), 16, 64)
}

// blockExtrinsics fetches a finalized block by number and returns its hash
// together with the hex form of every extrinsic in it.
func (c *Client) blockExtrinsics(ctx context.Context, number uint64) (hexString, []string, error) {
	var hash hexString
	if err := c.call(ctx, "chain_getBlockHash", []any{number}, &hash); err != nil {
		return "", nil, err
	}
	var block struct {
		Block struct {
			Extrinsics []string `json:"extrinsics"`
		} `json:"block"`
	}
	if err := c.call(ctx, "chain_getBlock", []any{hash}, &block); err != nil {
		return "", nil, err
	}
	return hash, block.Block.Extrinsics, nil
}

// watchInclusion polls finalized blocks after the submission point until it
// finds the extrinsic, then emits one terminal status and closes the
// stream. Any transport failure or an exhausted block budget also closes
// the stream, which the executor treats as a lost finality wait.
//
// Polling the finalized chain means the first terminal status is already
// final; the InBlock and Finalized flags therefore arrive together.
func (c *Client) watchInclusion(ctx context.Context, extHex string, from uint64, ch chan<- ledger.TxStatus) {
	defer close(ch)

	select {
	case ch <- ledger.TxStatus{Ready: true, Broadcast: true}:
	case <-ctx.Done():
		return
	}

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	next := from + 1
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		tip, err := c.finalizedNumber(ctx)
		if err != nil {
			c.log.Warn().Err(err).Msg("inclusion watch lost the node")
			return
		}

		for ; next <= tip; next++ {
			hash, extrinsics, err := c.blockExtrinsics(ctx, next)
			if err != nil {
				c.log.Warn().Err(err).Uint64("block", next).Msg("inclusion watch lost the node")
				return
			}

			idx := -1
			for i, e := range extrinsics {
				if e == extHex {
					idx = i
					break
				}
			}
			if idx < 0 {
				if next-from >= watchBlockBudget {
					c.log.Warn().
						Uint64("from", from).
						Uint64("scanned_to", next).
						Msg("extrinsic not found within block budget")
					return
				}
				continue
			}

			status := ledger.TxStatus{
				InBlock:   true,
				Finalized: true,
				BlockHash: string(hash),
			}
			dispatchErr, err := c.extrinsicDispatchError(ctx, hash, uint32(idx))
			if err != nil {
				// Best effort only: the event record layout of foreign
				// pallets is unknown without metadata, so an unreadable
				// event log leaves the dispatch outcome unreported.
				c.log.Warn().Err(err).Str("block", string(hash)).Msg("event scan incomplete")
			} else {
				status.DispatchError = dispatchErr
			}

			select {
			case ch <- status:
			case <-ctx.Done():
			}
			return
		}
	}
}
