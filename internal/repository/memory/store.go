// Package memory implements repository interfaces on top of go-memdb.
// State lives for the lifetime of the process.
package memory

import (
	"sync/atomic"

	"github.com/hashicorp/go-memdb"

	"github.com/and161185/ayurtrace/internal/model"
)

const (
	tableUsers   = "users"
	tableBatches = "batches"
	tableCodes   = "codes"

	indexID    = "id"
	indexPhone = "phone"
	indexOwner = "owner"
)

type userRow struct {
	ID    string
	Phone string
	User  model.User
	Hash  []byte
	Salt  []byte
}

type batchRow struct {
	ID    string
	Owner string
	Seq   int64
	Batch model.Batch
}

type codeRow struct {
	ID   string // contact
	Code model.LoginCode
}

func schema() *memdb.DBSchema {
	return &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableUsers: {
				Name: tableUsers,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					indexPhone: {
						Name:         indexPhone,
						Unique:       true,
						AllowMissing: true,
						Indexer:      &memdb.StringFieldIndex{Field: "Phone"},
					},
				},
			},
			tableBatches: {
				Name: tableBatches,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
					indexOwner: {
						Name:    indexOwner,
						Indexer: &memdb.StringFieldIndex{Field: "Owner"},
					},
				},
			},
			tableCodes: {
				Name: tableCodes,
				Indexes: map[string]*memdb.IndexSchema{
					indexID: {
						Name:    indexID,
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "ID"},
					},
				},
			},
		},
	}
}

// Store owns the in-memory database shared by the repositories.
type Store struct {
	db  *memdb.MemDB
	seq atomic.Int64 // last issued batch sequence number
}

// New creates an empty store.
func New() (*Store, error) {
	db, err := memdb.NewMemDB(schema())
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}
