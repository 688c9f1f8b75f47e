//go:build !cgo

package sqlite

// CGOEnabled is false when the binary is built without cgo. go-sqlite3 cannot
// open a database then, so the sqlite tests are skipped.
const CGOEnabled = false
