/**
 * @description
 * This file defines the durable key-value contract the ledger repository reads
 * and writes through. The store is a generic mapping from string key to a JSON
 * document; the repository keeps two logical collections (the account
 * population and the transfer log) plus a lightweight session pointer in it.
 *
 * Implementations: FileKV (atomic file-per-key snapshots) and PostgresKV
 * (a single jsonb documents table).
 */

package store

import "context"

// Keys of the logical collections held in the durable store.
const (
	KeyAccounts  = "atlas_coins_accounts"
	KeyTransfers = "atlas_coins_transfers"
	KeySession   = "atlas_current_email"
)

// KV is a generic durable mapping from string key to a JSON-serializable
// document. Get returns ErrKeyNotFound when the key has never been written.
// No schema migration support is assumed.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, doc []byte) error
	Delete(ctx context.Context, key string) error
}
