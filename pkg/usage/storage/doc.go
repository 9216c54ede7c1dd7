// Package storage provides ledger backends for usage records.
//
// Two implementations of usage.Storage exist: MemoryStorage keeps
// records in process memory and is meant for development and tests;
// SQLiteStorage persists records to a SQLite database so the ledger
// survives restarts.
package storage
