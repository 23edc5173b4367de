package main

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/leadhub/internal/assignment"
	"github.com/smallbiznis/leadhub/internal/audit"
	"github.com/smallbiznis/leadhub/internal/auth"
	"github.com/smallbiznis/leadhub/internal/auth/session"
	"github.com/smallbiznis/leadhub/internal/authorization"
	"github.com/smallbiznis/leadhub/internal/bundle"
	"github.com/smallbiznis/leadhub/internal/catalog"
	"github.com/smallbiznis/leadhub/internal/clock"
	"github.com/smallbiznis/leadhub/internal/config"
	"github.com/smallbiznis/leadhub/internal/lead"
	"github.com/smallbiznis/leadhub/internal/ledger"
	"github.com/smallbiznis/leadhub/internal/migration"
	"github.com/smallbiznis/leadhub/internal/notification"
	"github.com/smallbiznis/leadhub/internal/observability"
	"github.com/smallbiznis/leadhub/internal/payment"
	"github.com/smallbiznis/leadhub/internal/providers"
	"github.com/smallbiznis/leadhub/internal/ratelimit"
	"github.com/smallbiznis/leadhub/internal/server"
	"github.com/smallbiznis/leadhub/internal/user"
	"github.com/smallbiznis/leadhub/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		auth.Module,
		session.Module,
		authorization.Module,
		ratelimit.Module,
		providers.Module,

		// Domains
		audit.Module,
		user.Module,
		catalog.Module,
		bundle.Module,
		lead.Module,
		ledger.Module,
		notification.Module,
		assignment.Module,
		payment.Module,

		server.Module,
	)
	app.Run()
}

// RegisterSnowflake reads the node id from SNOWFLAKE_NODE so replicas do not
// hand out colliding ids.
func RegisterSnowflake() (*snowflake.Node, error) {
	nodeID := int64(1)
	if raw := os.Getenv("SNOWFLAKE_NODE"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, err
		}
		nodeID = parsed
	}
	return snowflake.NewNode(nodeID)
}
