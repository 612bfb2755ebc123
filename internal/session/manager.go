// SPDX-License-Identifier: Apache-2.0

// Package session owns the privileged connection state of the background
// context: the live node link, the signing key, and the bound contract
// handle. It composes the payload cipher and the contract call executor
// into the domain operations the RPC bridge exposes.
//
// A Manager is an explicitly owned object: embeddings and tests create as
// many as they need and pass them by reference, there is no process-global
// session.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/elewad/chainpass/internal/crypto"
	"github.com/elewad/chainpass/internal/domain"
	"github.com/elewad/chainpass/internal/executor"
	"github.com/elewad/chainpass/internal/ledger"
	"github.com/elewad/chainpass/internal/logger"
	"github.com/elewad/chainpass/models"
)

// defaultSettleDelay is how long a freshly dialed link is left alone before
// its single readiness check. There is no retry loop: one delay, one check.
const defaultSettleDelay = 100 * time.Millisecond

// defaultGroup is the credential group assigned by the autofill-capture
// path, which has no UI to pick one.
const defaultGroup = "Default"

// handles is the immutable snapshot of the session fields one operation
// works with. Operations snapshot under the mutex and then run unlocked, so
// concurrent mutations race at the ledger only, never in client memory.
type handles struct {
	node     ledger.NodeClient
	contract ledger.ContractClient
	exec     *executor.Executor
	signer   ledger.Signer
	account  ledger.AccountID // contract account, nonce source for the cipher
	key      string           // raw signing key hex, cipher key
}

// Manager holds one session. The zero value is not usable; construct with
// NewManager.
type Manager struct {
	dialer      ledger.Dialer
	signerFunc  ledger.SignerFactory
	cipher      crypto.PayloadCipher
	log         *logger.Logger
	settleDelay time.Duration
	execOpts    []executor.Option
	newID       func() string

	mu      sync.Mutex
	nodeURL string
	h       handles
}

// Option customizes a Manager.
type Option func(*Manager)

// WithSignerFactory replaces the default dev signer with a real signing
// capability (production embeddings must use this).
func WithSignerFactory(f ledger.SignerFactory) Option {
	return func(m *Manager) { m.signerFunc = f }
}

// WithSettleDelay overrides the post-dial settle delay before the readiness
// check. Tests use this to avoid real sleeps.
func WithSettleDelay(d time.Duration) Option {
	return func(m *Manager) { m.settleDelay = d }
}

// WithExecutorOptions forwards options to the contract call executor bound
// at connect time (custom gas margin, custom finality flags).
func WithExecutorOptions(opts ...executor.Option) Option {
	return func(m *Manager) { m.execOpts = opts }
}

// withIDGenerator fixes the credential/note id source; tests only.
func withIDGenerator(f func() string) Option {
	return func(m *Manager) { m.newID = f }
}

// NewManager constructs a Manager that dials nodes through dialer. The
// session starts disconnected.
func NewManager(dialer ledger.Dialer, log *logger.Logger, opts ...Option) *Manager {
	m := &Manager{
		dialer:      dialer,
		signerFunc:  ledger.NewDevSigner,
		cipher:      crypto.NewPayloadCipher(),
		log:         log,
		settleDelay: defaultSettleDelay,
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect opens a node link, replacing any previous one, and — only when
// both a contract address and a private key are supplied — binds the
// contract handle and installs the signer. Connecting never loads any
// credentials; callers orchestrate a subsequent list fetch themselves.
func (m *Manager) Connect(ctx context.Context, opts models.ConnectOptions) error {
	m.mu.Lock()
	url := opts.NodeURL
	if url == "" {
		url = m.nodeURL
	}
	m.mu.Unlock()

	if url == "" {
		return ErrNodeURLRequired
	}

	node, err := m.dial(ctx, url)
	if err != nil {
		return err
	}

	info, err := node.SystemInfo(ctx)
	if err != nil {
		_ = node.Close()
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	m.log.Info().
		Str("chain", info.Chain).
		Str("node", info.Name).
		Str("version", info.Version).
		Msg("connected to chain")

	next := handles{node: node}
	// Contract handle and signer are either installed together or not at
	// all; an operation needing one of them must fail its guard check
	// rather than find half a session.
	if opts.Contract != "" && opts.PrivateKey != "" {
		account, err := ledger.DecodeSS58(opts.Contract)
		if err != nil {
			_ = node.Close()
			return fmt.Errorf("contract address: %w", err)
		}

		signer, err := m.signerFunc(opts.PrivateKey)
		if err != nil {
			_ = node.Close()
			return fmt.Errorf("signer key: %w", err)
		}

		contract := node.Contract(account, signer)
		next.contract = contract
		next.exec = executor.NewExecutor(contract, m.log, m.execOpts...)
		next.signer = signer
		next.account = account
		next.key = opts.PrivateKey
	}

	m.mu.Lock()
	prev := m.h.node
	m.h = next
	m.nodeURL = url
	m.mu.Unlock()

	// The old link is torn down only after the new one is live, matching
	// the connect-then-replace order of the extension.
	if prev != nil {
		_ = prev.Close()
	}

	return nil
}

// dial opens the link, waits the settle delay, and performs the single
// readiness check. Any failure is ErrConnectionFailed.
func (m *Manager) dial(ctx context.Context, url string) (ledger.NodeClient, error) {
	node, err := m.dialer(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("%w: connect to %q failed, try again later", ErrConnectionFailed, url)
	}

	select {
	case <-ctx.Done():
		_ = node.Close()
		return nil, ctx.Err()
	case <-time.After(m.settleDelay):
	}

	if err := node.Ready(ctx); err != nil {
		_ = node.Close()
		return nil, fmt.Errorf("%w: connect to %q failed, try again later", ErrConnectionFailed, url)
	}

	return node, nil
}

// Disconnect closes the node link and clears every session field back to
// the unset state. It is idempotent.
func (m *Manager) Disconnect(_ context.Context) error {
	m.mu.Lock()
	node := m.h.node
	m.h = handles{}
	m.nodeURL = ""
	m.mu.Unlock()

	if node != nil {
		_ = node.Close()
	}
	return nil
}

// IsUnlocked reports whether node link, signer, and contract handle are all
// simultaneously present. It never returns an error.
func (m *Manager) IsUnlocked(_ context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.h.node != nil && m.h.signer != nil && m.h.contract != nil
}

// CheckConnect fails with the NOT_CONNECTED token while no node link is
// held.
func (m *Manager) CheckConnect() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.h.node == nil {
		return ErrNotConnected
	}
	return nil
}

// CheckUser fails with the SIGNER_NOT_FOUND token while no signer is
// installed.
func (m *Manager) CheckUser() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.h.signer == nil || m.h.key == "" {
		return ErrSignerNotFound
	}
	return nil
}

// CheckContract fails with the CONTRACT_NOT_FOUND token while no contract
// handle is bound.
func (m *Manager) CheckContract() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.h.contract == nil {
		return ErrContractNotFound
	}
	return nil
}

// snapshot returns the current handles after running the full guard chain.
func (m *Manager) snapshot() (handles, error) {
	if err := m.CheckConnect(); err != nil {
		return handles{}, err
	}
	if err := m.CheckUser(); err != nil {
		return handles{}, err
	}
	if err := m.CheckContract(); err != nil {
		return handles{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.h, nil
}

// storedCredential is the on-ledger wire form of one credential entry:
// payload is the encrypted hex, not the secret itself.
type storedCredential struct {
	ID      string `json:"id"`
	Group   string `json:"group"`
	Payload string `json:"payload"`
}

// storedNote is the on-ledger wire form of one note entry.
type storedNote struct {
	ID      string `json:"id"`
	Payload string `json:"payload"`
}

// GetCredentials reads the full credential collection (no pagination) and
// decrypts each entry. There is deliberately no per-item error isolation: a
// single entry that fails to decrypt aborts the whole batch.
func (m *Manager) GetCredentials(ctx context.Context) ([]models.Credential, error) {
	h, err := m.snapshot()
	if err != nil {
		return nil, err
	}

	dry, err := h.contract.DryRun(ctx, "getCredentials", nil)
	if err != nil {
		return nil, m.ledgerFailure(ctx, "getCredentials", err)
	}
	if dry.Revert != "" {
		return nil, m.ledgerFailure(ctx, "getCredentials", fmt.Errorf("contract: %s", dry.Revert))
	}

	var stored []storedCredential
	if err := json.Unmarshal(dry.Output, &stored); err != nil {
		return nil, m.ledgerFailure(ctx, "getCredentials", err)
	}

	list := make([]models.Credential, 0, len(stored))
	for _, s := range stored {
		var payload models.CredentialPayload
		if err := m.cipher.DecryptPayload(h.account, h.key, s.Payload, &payload); err != nil {
			return nil, err
		}
		list = append(list, models.Credential{
			ID:        s.ID,
			Group:     s.Group,
			Payload:   payload,
			Encrypted: s.Payload,
		})
	}

	return list, nil
}

// AddCredential encrypts the payload, assigns a fresh id, submits the add
// transaction and returns the denormalized entity.
func (m *Manager) AddCredential(ctx context.Context, p models.AddCredentialPayload) (models.Credential, error) {
	h, err := m.snapshot()
	if err != nil {
		return models.Credential{}, err
	}

	encrypted, err := m.cipher.EncryptPayload(h.account, h.key, p.Payload)
	if err != nil {
		return models.Credential{}, err
	}
	id := m.newID()

	if _, err := h.exec.Exec(ctx, "addCredential", []string{encrypted, p.Group, id}); err != nil {
		return models.Credential{}, m.ledgerFailure(ctx, "addCredential", err)
	}

	return models.Credential{ID: id, Group: p.Group, Payload: p.Payload, Encrypted: encrypted}, nil
}

// UpdateCredential re-encrypts the payload and resubmits under the same id.
func (m *Manager) UpdateCredential(ctx context.Context, p models.UpdateCredentialPayload) (models.Credential, error) {
	h, err := m.snapshot()
	if err != nil {
		return models.Credential{}, err
	}

	encrypted, err := m.cipher.EncryptPayload(h.account, h.key, p.Payload)
	if err != nil {
		return models.Credential{}, err
	}

	if _, err := h.exec.Exec(ctx, "updateCredential", []string{p.ID, encrypted, p.Group}); err != nil {
		return models.Credential{}, m.ledgerFailure(ctx, "updateCredential", err)
	}

	return models.Credential{ID: p.ID, Group: p.Group, Payload: p.Payload, Encrypted: encrypted}, nil
}

// DeleteCredential submits the removal transaction. No tombstone is kept
// client-side; the in-memory entity is simply dropped by the caller.
func (m *Manager) DeleteCredential(ctx context.Context, p models.DeleteCredentialPayload) (string, error) {
	h, err := m.snapshot()
	if err != nil {
		return "", err
	}

	if _, err := h.exec.Exec(ctx, "deleteCredential", []string{p.ID}); err != nil {
		return "", m.ledgerFailure(ctx, "deleteCredential", err)
	}
	return p.ID, nil
}

// SaveCredential is the autofill-capture path. It resolves the registrable
// domain of the submitted form's host and creates a new credential only if
// no stored credential already has the same (host, login) pair; otherwise
// it is a silent no-op — a saved password is never silently overwritten.
// The returned pointer is nil when nothing was created.
func (m *Manager) SaveCredential(ctx context.Context, opts models.SaveCredentialOptions) (*models.Credential, error) {
	host, err := domain.Registrable(opts.Host)
	if err != nil {
		// Hosts without a registrable domain are not capturable; the page
		// agent fires on every submitted form, so this is a no-op rather
		// than an error.
		return nil, nil
	}

	credentials, err := m.GetCredentials(ctx)
	if err != nil {
		return nil, err
	}

	for _, c := range credentials {
		if c.Payload.Host == host && c.Payload.Login == opts.Login {
			return nil, nil
		}
	}

	created, err := m.AddCredential(ctx, models.AddCredentialPayload{
		Group: defaultGroup,
		Payload: models.CredentialPayload{
			Host:     host,
			Login:    opts.Login,
			Password: opts.Password,
		},
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// SelectPassword returns the login/password pairs of credentials whose
// registrable domain equals the query URL's. Stored credentials whose own
// host fails to parse are skipped, not errors. The caller's selectors are
// passed through untouched.
func (m *Manager) SelectPassword(ctx context.Context, opts models.SelectPasswordOptions) (models.SelectPasswordResult, error) {
	queryDomain, err := domain.Registrable(opts.URL)
	if err != nil {
		return models.SelectPasswordResult{}, err
	}

	credentials, err := m.GetCredentials(ctx)
	if err != nil {
		return models.SelectPasswordResult{}, err
	}

	matched := make([]models.MatchedCredential, 0, len(credentials))
	for _, c := range credentials {
		if domain.Match(queryDomain, c.Payload.Host) {
			matched = append(matched, models.MatchedCredential{
				Login:    c.Payload.Login,
				Password: c.Payload.Password,
			})
		}
	}

	return models.SelectPasswordResult{Selectors: opts.Selectors, Matched: matched}, nil
}

// GetNotes reads the full note collection. Same batch semantics as
// GetCredentials: one bad entry aborts the fetch.
func (m *Manager) GetNotes(ctx context.Context) ([]models.Note, error) {
	h, err := m.snapshot()
	if err != nil {
		return nil, err
	}

	dry, err := h.contract.DryRun(ctx, "getNotes", nil)
	if err != nil {
		return nil, m.ledgerFailure(ctx, "getNotes", err)
	}
	if dry.Revert != "" {
		return nil, m.ledgerFailure(ctx, "getNotes", fmt.Errorf("contract: %s", dry.Revert))
	}

	var stored []storedNote
	if err := json.Unmarshal(dry.Output, &stored); err != nil {
		return nil, m.ledgerFailure(ctx, "getNotes", err)
	}

	list := make([]models.Note, 0, len(stored))
	for _, s := range stored {
		var payload models.NotePayload
		if err := m.cipher.DecryptPayload(h.account, h.key, s.Payload, &payload); err != nil {
			return nil, err
		}
		list = append(list, models.Note{ID: s.ID, Payload: payload, Encrypted: s.Payload})
	}

	return list, nil
}

// AddNote encrypts the payload, assigns a fresh id, and submits.
func (m *Manager) AddNote(ctx context.Context, p models.AddNotePayload) (models.Note, error) {
	h, err := m.snapshot()
	if err != nil {
		return models.Note{}, err
	}

	encrypted, err := m.cipher.EncryptPayload(h.account, h.key, p.Payload)
	if err != nil {
		return models.Note{}, err
	}
	id := m.newID()

	if _, err := h.exec.Exec(ctx, "addNote", []string{encrypted, id}); err != nil {
		return models.Note{}, m.ledgerFailure(ctx, "addNote", err)
	}

	return models.Note{ID: id, Payload: p.Payload, Encrypted: encrypted}, nil
}

// UpdateNote re-encrypts and resubmits under the same id.
func (m *Manager) UpdateNote(ctx context.Context, p models.UpdateNotePayload) (models.Note, error) {
	h, err := m.snapshot()
	if err != nil {
		return models.Note{}, err
	}

	encrypted, err := m.cipher.EncryptPayload(h.account, h.key, p.Payload)
	if err != nil {
		return models.Note{}, err
	}

	if _, err := h.exec.Exec(ctx, "updateNote", []string{p.ID, encrypted}); err != nil {
		return models.Note{}, m.ledgerFailure(ctx, "updateNote", err)
	}

	return models.Note{ID: p.ID, Payload: p.Payload, Encrypted: encrypted}, nil
}

// DeleteNote submits the removal transaction.
func (m *Manager) DeleteNote(ctx context.Context, p models.DeleteNotePayload) (string, error) {
	h, err := m.snapshot()
	if err != nil {
		return "", err
	}

	if _, err := h.exec.Exec(ctx, "deleteNote", []string{p.ID}); err != nil {
		return "", m.ledgerFailure(ctx, "deleteNote", err)
	}
	return p.ID, nil
}

// Balance returns the free balance of the signer account in pico-units as
// a decimal string (the UI owns formatting into grades).
func (m *Manager) Balance(ctx context.Context) (string, error) {
	if err := m.CheckConnect(); err != nil {
		return "", err
	}
	if err := m.CheckUser(); err != nil {
		return "", err
	}

	m.mu.Lock()
	node, signer := m.h.node, m.h.signer
	m.mu.Unlock()

	free, err := node.Balance(ctx, signer.Address())
	if err != nil {
		return "", m.ledgerFailure(ctx, "balance", err)
	}
	if free == nil {
		free = new(big.Int)
	}
	return free.String(), nil
}

// ledgerFailure logs a ledger-level failure and converts it to the
// human-readable string the UI shows. Guard failures never pass through
// here; they propagate unmodified.
func (m *Manager) ledgerFailure(_ context.Context, op string, err error) error {
	m.log.Error().Err(err).Str("op", op).Msg("ledger operation failed")
	return fmt.Errorf("%s: %s", op, err.Error())
}
