// Package testutil builds in-memory databases for package tests.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	dbSeq   atomic.Int64
	nodeSeq atomic.Int64
)

// Schema mirrors the postgres migrations using SQLite types.
const Schema = `
CREATE TABLE users (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	phone TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'ACTIVE',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE professional_profiles (
	user_id INTEGER PRIMARY KEY,
	credits INTEGER NOT NULL DEFAULT 0 CHECK (credits >= 0),
	trust_score INTEGER NOT NULL DEFAULT 50,
	bio TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE categories (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	is_active BOOLEAN NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE services (
	id INTEGER PRIMARY KEY,
	category_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	slug TEXT NOT NULL UNIQUE,
	credit_cost INTEGER NOT NULL DEFAULT 0,
	is_active BOOLEAN NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE credit_bundles (
	id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	price INTEGER NOT NULL,
	currency TEXT NOT NULL,
	credits INTEGER NOT NULL CHECK (credits > 0),
	is_active BOOLEAN NOT NULL DEFAULT 1,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE leads (
	id INTEGER PRIMARY KEY,
	customer_id INTEGER NOT NULL,
	service_id INTEGER NOT NULL,
	title TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	location TEXT NOT NULL DEFAULT '',
	contact_name TEXT NOT NULL,
	contact_email TEXT NOT NULL DEFAULT '',
	contact_phone TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT 'OPEN',
	credit_cost INTEGER NOT NULL,
	issue_note TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE assignments (
	id INTEGER PRIMARY KEY,
	lead_id INTEGER NOT NULL,
	professional_id INTEGER NOT NULL,
	status TEXT NOT NULL DEFAULT 'PENDING',
	responded_at DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE (lead_id, professional_id)
);
CREATE TABLE credit_entries (
	id INTEGER PRIMARY KEY,
	user_id INTEGER NOT NULL,
	entry_type TEXT NOT NULL,
	amount INTEGER NOT NULL,
	balance_after INTEGER NOT NULL,
	reference_type TEXT NOT NULL,
	reference_id INTEGER NOT NULL,
	created_at DATETIME NOT NULL,
	UNIQUE (reference_type, reference_id, entry_type)
);
CREATE TABLE notifications (
	id INTEGER PRIMARY KEY,
	user_id INTEGER NOT NULL,
	type TEXT NOT NULL,
	message TEXT NOT NULL,
	data TEXT NOT NULL DEFAULT '{}',
	read BOOLEAN NOT NULL DEFAULT 0,
	read_at DATETIME,
	created_at DATETIME NOT NULL
);
CREATE TABLE transactions (
	id INTEGER PRIMARY KEY,
	user_id INTEGER NOT NULL,
	bundle_id INTEGER NOT NULL,
	merchant_transaction_id TEXT NOT NULL UNIQUE,
	amount INTEGER NOT NULL,
	currency TEXT NOT NULL,
	credits INTEGER NOT NULL,
	status TEXT NOT NULL DEFAULT 'PENDING',
	gateway_transaction_id TEXT NOT NULL DEFAULT '',
	gateway_code TEXT NOT NULL DEFAULT '',
	settled_at DATETIME,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
CREATE TABLE audit_logs (
	id INTEGER PRIMARY KEY,
	actor_id INTEGER,
	actor_role TEXT NOT NULL DEFAULT '',
	action TEXT NOT NULL,
	target_type TEXT NOT NULL,
	target_id TEXT NOT NULL DEFAULT '',
	metadata TEXT NOT NULL DEFAULT '{}',
	request_id TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
`

// NewDB opens a private shared-cache in-memory database with the full schema.
// The pool is pinned to one connection so concurrent callers serialize the way
// row locks would serialize them on postgres.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:leadhub_test_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range strings.Split(Schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

// NewNode hands out a fresh node number per call so ids from separate nodes
// never collide inside one test.
func NewNode(t *testing.T) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(nodeSeq.Add(1) % 1024)
	require.NoError(t, err)
	return node
}
