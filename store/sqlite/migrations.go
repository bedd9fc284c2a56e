package sqlite

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the splitledger store (SQLite).
var Migrations = migrate.NewGroup("splitledger")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_splitledger_participants",
			Version: "20240601000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS splitledger_participants (
    id           TEXT PRIMARY KEY,
    external_id  INTEGER NOT NULL,
    username     TEXT NOT NULL DEFAULT '',
    first_name   TEXT NOT NULL DEFAULT '',
    last_name    TEXT NOT NULL DEFAULT '',
    payment_link TEXT NOT NULL DEFAULT '',
    timezone     TEXT NOT NULL DEFAULT '',
    created_at   TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at   TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_splitledger_participants_external ON splitledger_participants (external_id) WHERE external_id <> 0;
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS splitledger_participants`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_splitledger_groups",
			Version: "20240601000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS splitledger_groups (
    id          TEXT PRIMARY KEY,
    name        TEXT NOT NULL,
    invite_code TEXT NOT NULL,
    currency    TEXT NOT NULL DEFAULT 'rub',
    created_at  TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_splitledger_groups_invite ON splitledger_groups (invite_code);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS splitledger_groups`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_splitledger_memberships",
			Version: "20240601000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS splitledger_memberships (
    group_id       TEXT NOT NULL REFERENCES splitledger_groups (id) ON DELETE CASCADE,
    participant_id TEXT NOT NULL REFERENCES splitledger_participants (id) ON DELETE CASCADE,
    agree_to_close INTEGER NOT NULL DEFAULT 0,
    joined_at      TEXT NOT NULL DEFAULT (datetime('now')),
    PRIMARY KEY (group_id, participant_id)
);

CREATE INDEX IF NOT EXISTS idx_splitledger_memberships_participant ON splitledger_memberships (participant_id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS splitledger_memberships`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_splitledger_transactions",
			Version: "20240601000004",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS splitledger_transactions (
    id         TEXT PRIMARY KEY,
    group_id   TEXT NOT NULL REFERENCES splitledger_groups (id) ON DELETE CASCADE,
    name       TEXT NOT NULL,
    amount     INTEGER NOT NULL CHECK (amount >= 0),
    currency   TEXT NOT NULL DEFAULT 'rub',
    is_income  INTEGER NOT NULL DEFAULT 0,
    creator_id TEXT NOT NULL DEFAULT '',
    shares     TEXT NOT NULL CHECK (json_array_length(shares) > 0),
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_splitledger_transactions_group ON splitledger_transactions (group_id, created_at);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS splitledger_transactions`)
				return err
			},
		},
	)
}
