package custody

import (
	"context"
	"fmt"
	"sync"

	"github.com/Klingon-tech/klingnet-stakeledger/internal/storage"
	"github.com/Klingon-tech/klingnet-stakeledger/internal/token"
	"github.com/Klingon-tech/klingnet-stakeledger/pkg/types"
)

var metadataNamespace = []byte("M/")

// Registry resolves token IDs to Token implementations. Registered tokens
// get a BookToken following their metadata convention; Attach installs an
// external implementation instead.
type Registry struct {
	root storage.DB

	mu       sync.RWMutex
	attached map[types.TokenID]Token
}

// NewRegistry creates a token registry over root.
func NewRegistry(root storage.DB) *Registry {
	return &Registry{root: root, attached: make(map[types.TokenID]Token)}
}

// Store returns the metadata store, scoped to ctx.
func (r *Registry) Store(ctx context.Context) *token.Store {
	return token.NewStore(storage.NewPrefixDB(storage.Scope(ctx, r.root), metadataNamespace))
}

// Register records metadata for id. Registering twice is an error.
func (r *Registry) Register(ctx context.Context, id types.TokenID, meta *token.Metadata) error {
	store := r.Store(ctx)
	exists, err := store.Has(id)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("token %s already registered", id)
	}
	return store.Put(id, meta)
}

// Attach installs tok as the implementation for its ID.
func (r *Registry) Attach(tok Token) {
	r.mu.Lock()
	r.attached[tok.ID()] = tok
	r.mu.Unlock()
}

// Token returns the implementation for id.
func (r *Registry) Token(ctx context.Context, id types.TokenID) (Token, error) {
	r.mu.RLock()
	tok, ok := r.attached[id]
	r.mu.RUnlock()
	if ok {
		return tok, nil
	}
	return r.Book(ctx, id)
}

// Book returns the storage-backed book of a registered token.
func (r *Registry) Book(ctx context.Context, id types.TokenID) (*BookToken, error) {
	meta, err := r.Store(ctx).Get(id)
	if storage.IsNotFound(err) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, id)
	}
	if err != nil {
		return nil, err
	}
	return NewBookToken(r.root, id, meta.Convention), nil
}

// Metadata returns the metadata of a registered token.
func (r *Registry) Metadata(ctx context.Context, id types.TokenID) (*token.Metadata, error) {
	meta, err := r.Store(ctx).Get(id)
	if storage.IsNotFound(err) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, id)
	}
	return meta, err
}

// List returns all registered token metadata.
func (r *Registry) List(ctx context.Context) ([]token.MetadataEntry, error) {
	return r.Store(ctx).List()
}
