package testutil

import (
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var seedTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// SeedUser inserts an active user with the given role and returns its id.
func SeedUser(t *testing.T, db *gorm.DB, node *snowflake.Node, role string) snowflake.ID {
	t.Helper()
	id := node.Generate()
	require.NoError(t, db.Exec(
		`INSERT INTO users (id, name, email, phone, password_hash, role, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, 'ACTIVE', ?, ?)`,
		id, "User "+id.String(), fmt.Sprintf("u%s@example.com", id), "+15550000", "x", role, seedTime, seedTime,
	).Error)
	return id
}

// SeedProfessional inserts an active professional holding credits.
func SeedProfessional(t *testing.T, db *gorm.DB, node *snowflake.Node, credits int64) snowflake.ID {
	t.Helper()
	id := SeedUser(t, db, node, "PROFESSIONAL")
	require.NoError(t, db.Exec(
		`INSERT INTO professional_profiles (user_id, credits, trust_score, bio, created_at, updated_at)
		VALUES (?, ?, 50, '', ?, ?)`,
		id, credits, seedTime, seedTime,
	).Error)
	return id
}

// Credits reads the authoritative balance column.
func Credits(t *testing.T, db *gorm.DB, userID snowflake.ID) int64 {
	t.Helper()
	var credits int64
	require.NoError(t, db.Raw(`SELECT credits FROM professional_profiles WHERE user_id = ?`, userID).Scan(&credits).Error)
	return credits
}

// SeedOffering inserts an active category and a service with the given cost.
func SeedOffering(t *testing.T, db *gorm.DB, node *snowflake.Node, creditCost int64) snowflake.ID {
	t.Helper()
	categoryID := node.Generate()
	require.NoError(t, db.Exec(
		`INSERT INTO categories (id, name, slug, is_active, created_at, updated_at) VALUES (?, ?, ?, 1, ?, ?)`,
		categoryID, "Category", "category-"+categoryID.String(), seedTime, seedTime,
	).Error)
	offeringID := node.Generate()
	require.NoError(t, db.Exec(
		`INSERT INTO services (id, category_id, name, slug, credit_cost, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
		offeringID, categoryID, "Service", "service-"+offeringID.String(), creditCost, seedTime, seedTime,
	).Error)
	return offeringID
}
