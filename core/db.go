package core

import (
	"github.com/fox-one/pkg/store/db"
)

// Transactor runs fn inside one database transaction; *db.DB satisfies it.
// Engines take this instead of the concrete handle so tests can run the
// closure directly.
type Transactor interface {
	Tx(fn func(tx *db.DB) error) error
}
