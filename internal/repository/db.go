package repository

import (
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

type DBRepository interface {
	View(fn func(txn *badger.Txn) error) error
	Update(fn func(txn *badger.Txn) error) error
	Close() error
}

type BadgerDBRepository struct {
	db *badger.DB
}

func NewBadgerDBRepository(db *badger.DB) DBRepository {
	return &BadgerDBRepository{db: db}
}

// OpenBadger opens (or creates) a badger database at path with badger's own
// logging silenced.
func OpenBadger(path string) (DBRepository, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return NewBadgerDBRepository(db), nil
}

// OpenInMemory opens a throwaway badger database.
func OpenInMemory() (DBRepository, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	return NewBadgerDBRepository(db), nil
}

func (r *BadgerDBRepository) View(fn func(txn *badger.Txn) error) error {
	return r.db.View(fn)
}

func (r *BadgerDBRepository) Update(fn func(txn *badger.Txn) error) error {
	return r.db.Update(fn)
}

func (r *BadgerDBRepository) Close() error {
	return r.db.Close()
}
