// Package romdb implements the import pipeline, reconstruction, dump
// and verification over the relational store.
package romdb

import (
	"github.com/romdb/romdb/internal/database"
)

// Service executes the romdb operations against one open store.
type Service struct {
	store *database.Store
	log   Logger
}

// New creates a Service over the given store. logger must not be nil;
// use NewNopLogger to discard output.
func New(store *database.Store, logger Logger) *Service {
	return &Service{store: store, log: logger}
}
