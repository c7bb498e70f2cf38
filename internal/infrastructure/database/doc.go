// Package database manages the SQLite connection backing the
// persisted device-configuration store. Schema ownership lives with
// the repositories that use the connection (see
// device.SQLiteOverrideRepository); this package only handles
// connection lifecycle, pragmas and health checks.
package database
