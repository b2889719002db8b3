// Package sqlite provides persistent storage backed by SQLite.
// One database file holds connections, document trees, sync job records
// and the authoritative subscription ledger; schema changes ship as
// embedded migrations.
package sqlite
