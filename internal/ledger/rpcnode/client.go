// SPDX-License-Identifier: Apache-2.0

// Package rpcnode implements the ledger client capability over a chain
// node's JSON-RPC endpoint. It is the boundary adapter of the core: the
// executor and session manager only ever see the interfaces in the ledger
// package, so everything chain-specific (storage hashing, the extrinsic
// envelope, the contract ABI) stays inside this package.
//
// The transport is plain HTTP POST per call; transaction inclusion is
// observed by polling finalized blocks, which stands in for the push
// subscription a websocket link would provide. Either way the executor
// consumes a status channel and attempts exactly one finality wait.
package rpcnode

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-resty/resty/v2"
	"golang.org/x/crypto/blake2b"

	"github.com/elewad/chainpass/internal/ledger"
	"github.com/elewad/chainpass/internal/ledger/scale"
	"github.com/elewad/chainpass/internal/logger"
)

const (
	defaultCallTimeout  = 15 * time.Second
	defaultPollInterval = time.Second
)

// Client is one live JSON-RPC link to a chain node. It implements
// ledger.NodeClient.
type Client struct {
	http *resty.Client
	log  *logger.Logger
	url  string

	pollInterval time.Duration

	genesisHash []byte
	specVersion uint32
	txVersion   uint32

	nextID atomic.Uint64
	closed atomic.Bool
}

// Option customizes a Client.
type Option func(*Client)

// WithPollInterval overrides the block-poll interval of the inclusion
// watcher; tests use this to keep polling fast.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) { c.pollInterval = d }
}

// Dial opens a link to nodeURL and fetches the chain constants every
// signed extrinsic embeds (genesis hash, runtime versions). A websocket
// URL is accepted and mapped onto the node's HTTP endpoint, which shares
// the port.
func Dial(ctx context.Context, nodeURL string, log *logger.Logger, opts ...Option) (*Client, error) {
	httpURL := strings.Replace(nodeURL, "wss://", "https://", 1)
	httpURL = strings.Replace(httpURL, "ws://", "http://", 1)

	c := &Client{
		http:         resty.New().SetBaseURL(httpURL).SetTimeout(defaultCallTimeout),
		log:          log,
		url:          nodeURL,
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}

	var genesis hexString
	if err := c.call(ctx, "chain_getBlockHash", []any{0}, &genesis); err != nil {
		return nil, fmt.Errorf("fetch genesis hash: %w", err)
	}
	raw, err := genesis.bytes()
	if err != nil {
		return nil, fmt.Errorf("fetch genesis hash: %w", err)
	}
	c.genesisHash = raw

	var version struct {
		SpecVersion        uint32 `json:"specVersion"`
		TransactionVersion uint32 `json:"transactionVersion"`
	}
	if err := c.call(ctx, "state_getRuntimeVersion", nil, &version); err != nil {
		return nil, fmt.Errorf("fetch runtime version: %w", err)
	}
	c.specVersion = version.SpecVersion
	c.txVersion = version.TransactionVersion

	return c, nil
}

// Dialer adapts Dial to the ledger.Dialer shape the session manager
// consumes.
func Dialer(log *logger.Logger, opts ...Option) ledger.Dialer {
	return func(ctx context.Context, nodeURL string) (ledger.NodeClient, error) {
		return Dial(ctx, nodeURL, log, opts...)
	}
}

// Ready implements ledger.NodeClient with a single system_health probe.
func (c *Client) Ready(ctx context.Context) error {
	var health struct {
		Peers     int  `json:"peers"`
		IsSyncing bool `json:"isSyncing"`
	}
	if err := c.call(ctx, "system_health", nil, &health); err != nil {
		return err
	}
	return nil
}

// SystemInfo implements ledger.NodeClient.
func (c *Client) SystemInfo(ctx context.Context) (ledger.SystemInfo, error) {
	var info ledger.SystemInfo
	if err := c.call(ctx, "system_chain", nil, &info.Chain); err != nil {
		return info, err
	}
	if err := c.call(ctx, "system_name", nil, &info.Name); err != nil {
		return info, err
	}
	if err := c.call(ctx, "system_version", nil, &info.Version); err != nil {
		return info, err
	}
	return info, nil
}

// Balance implements ledger.NodeClient: a System.Account storage read,
// decoding the free field of the SCALE AccountInfo record. A missing
// storage entry means the account was never endowed and reads as zero.
func (c *Client) Balance(ctx context.Context, account ledger.AccountID) (*big.Int, error) {
	key := systemAccountKey(account)

	var value *hexString
	if err := c.call(ctx, "state_getStorage", []any{toHex(key)}, &value); err != nil {
		return nil, fmt.Errorf("account storage read: %w", err)
	}
	if value == nil {
		return new(big.Int), nil
	}

	raw, err := value.bytes()
	if err != nil {
		return nil, fmt.Errorf("account storage read: %w", err)
	}

	// AccountInfo: nonce u32, consumers u32, providers u32, sufficients
	// u32, then AccountData whose first field is free: u128.
	const freeOffset = 16
	if len(raw) < freeOffset+16 {
		return nil, fmt.Errorf("account storage read: record too short (%d bytes)", len(raw))
	}
	free, _, err := scale.DecodeU128(raw[freeOffset:])
	if err != nil {
		return nil, fmt.Errorf("account storage read: %w", err)
	}
	return free, nil
}

// Contract implements ledger.NodeClient.
func (c *Client) Contract(address ledger.AccountID, signer ledger.Signer) ledger.ContractClient {
	return &contractHandle{client: c, address: address, signer: signer}
}

// Close implements ledger.NodeClient. Safe to call more than once.
func (c *Client) Close() error {
	c.closed.Store(true)
	return nil
}

// ─────────────────────────────────────────────
// JSON-RPC plumbing
// ─────────────────────────────────────────────

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call performs one JSON-RPC round trip. result may be nil when the caller
// only cares about success.
func (c *Client) call(ctx context.Context, method string, params any, result any) error {
	if c.closed.Load() {
		return fmt.Errorf("rpc %s: client closed", method)
	}
	if params == nil {
		params = []any{}
	}

	req := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post("")
	if err != nil {
		return fmt.Errorf("rpc %s: %w", method, err)
	}
	if resp.IsError() {
		return fmt.Errorf("rpc %s: http %d", method, resp.StatusCode())
	}

	var parsed rpcResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return fmt.Errorf("rpc %s: decode response: %w", method, err)
	}
	if parsed.Error != nil {
		return fmt.Errorf("rpc %s: %s (code %d)", method, parsed.Error.Message, parsed.Error.Code)
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(parsed.Result, result); err != nil {
		return fmt.Errorf("rpc %s: decode result: %w", method, err)
	}
	return nil
}

// hexString is a JSON "0x…" value.
type hexString string

func (h hexString) bytes() ([]byte, error) {
	return hex.DecodeString(strings.TrimPrefix(string(h), "0x"))
}

func toHex(b []byte) string {
	return "0x" + hex.EncodeToString(b)
}

// ─────────────────────────────────────────────
// Storage keys
// ─────────────────────────────────────────────

// twox128 is the 128-bit xxhash variant substrate uses for pallet and
// storage-item name hashing: two 64-bit digests with seeds 0 and 1,
// little-endian concatenated.
func twox128(data []byte) []byte {
	out := make([]byte, 16)
	for seed := uint64(0); seed < 2; seed++ {
		d := xxhash.NewWithSeed(seed)
		_, _ = d.Write(data)
		sum := d.Sum64()
		for i := 0; i < 8; i++ {
			out[int(seed)*8+i] = byte(sum >> (8 * i))
		}
	}
	return out
}

// blake2_128Concat is the map-key hasher of System.Account: the 16-byte
// blake2b digest of the key followed by the key itself.
func blake2_128Concat(data []byte) []byte {
	h, _ := blake2b.New(16, nil)
	h.Write(data)
	return append(h.Sum(nil), data...)
}

// systemAccountKey builds the System.Account storage key for an account.
func systemAccountKey(account ledger.AccountID) []byte {
	key := twox128([]byte("System"))
	key = append(key, twox128([]byte("Account"))...)
	return append(key, blake2_128Concat(account.Bytes())...)
}

// systemEventsKey is the System.Events storage key, shared by every block.
func systemEventsKey() []byte {
	key := twox128([]byte("System"))
	return append(key, twox128([]byte("Events"))...)
}
