// Package storage provides the key-value backends the account trie is
// built on, plus the go-ethereum triedb.Database each backend exposes so
// storage/trie can open a state trie directly against it.
package storage

import (
	"github.com/ethereum/go-ethereum/core/rawdb"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/triedb"
)

// Database is a generic key-value store with a go-ethereum trie database
// view, so any backend (in-memory or persistent) can back the account
// trie.
type Database interface {
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	Close() // A way to gracefully shut down the database connection.
	// TrieDB returns the go-ethereum trie database view of this backend.
	TrieDB() *triedb.Database
}

// --- In-Memory DB (for testing) ---

// MemDB is an in-memory backend built on go-ethereum's memory ethdb, so it
// can serve both direct key lookups and a trie database.
type MemDB struct {
	disk   ethdb.Database
	trieDB *triedb.Database
}

// NewMemDB constructs an in-memory database.
func NewMemDB() *MemDB {
	disk := rawdb.NewMemoryDatabase()
	return &MemDB{disk: disk, trieDB: triedb.NewDatabase(disk, nil)}
}

func (db *MemDB) Put(key []byte, value []byte) error {
	return db.disk.Put(key, value)
}

func (db *MemDB) Get(key []byte) ([]byte, error) {
	return db.disk.Get(key)
}

// TrieDB returns the trie database view of this backend.
func (db *MemDB) TrieDB() *triedb.Database {
	return db.trieDB
}

// Close satisfies the Database interface for MemDB.
func (db *MemDB) Close() {
	db.disk.Close()
}

// --- Persistent DB (for mainnet) ---

// LevelDB is a persistent key-value store using LevelDB.
type LevelDB struct {
	disk   ethdb.Database
	trieDB *triedb.Database
}

// NewLevelDB creates or opens a LevelDB database at the specified path.
func NewLevelDB(path string) (*LevelDB, error) {
	disk, err := rawdb.NewLevelDBDatabase(path, 256, 16, "ouroc/", false)
	if err != nil {
		return nil, err
	}
	return &LevelDB{disk: disk, trieDB: triedb.NewDatabase(disk, nil)}, nil
}

// Put inserts or updates a key-value pair.
func (ldb *LevelDB) Put(key []byte, value []byte) error {
	return ldb.disk.Put(key, value)
}

// Get retrieves a value for a given key.
func (ldb *LevelDB) Get(key []byte) ([]byte, error) {
	return ldb.disk.Get(key)
}

// TrieDB returns the trie database view of this backend.
func (ldb *LevelDB) TrieDB() *triedb.Database {
	return ldb.trieDB
}

// Close closes the database connection.
func (ldb *LevelDB) Close() {
	ldb.disk.Close()
}
