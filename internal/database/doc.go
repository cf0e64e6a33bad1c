// Package database provides PostgreSQL connectivity, schema migrations, and
// the durable notification repository.
package database
