// Package db provides the embedded database schema and seed catalog.
package db

import _ "embed"

// Schema contains the DDL statements for all application tables.
//
//go:embed migrations/001_schema.sql
var Schema string

// Catalog is the default seed catalog used by seed-db when no file is given.
//
//go:embed seed/catalog.json
var Catalog []byte
