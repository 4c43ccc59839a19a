package store

// Amounts are stored as exact decimal text, never floats. Optional string
// columns default to '' so the import-guard unique index can include them
// directly; expanded_at stays NULL-able because "never expanded" and
// "expanded at zero time" must not collide.
const schema = `
CREATE TABLE IF NOT EXISTS transactions (
	id                     TEXT PRIMARY KEY,
	owner_type             TEXT NOT NULL,
	owner_id               TEXT NOT NULL,
	date                   TEXT NOT NULL,
	description            TEXT NOT NULL,
	amount                 TEXT NOT NULL,
	category_id            TEXT NOT NULL DEFAULT '',
	billing_cycle          TEXT NOT NULL DEFAULT '',
	parent_bill_payment_id TEXT NOT NULL DEFAULT '',
	is_bill_payment        INTEGER NOT NULL DEFAULT 0,
	expanded_at            TEXT,
	is_hidden              INTEGER NOT NULL DEFAULT 0,
	installment_current    INTEGER NOT NULL DEFAULT 0,
	installment_total      INTEGER NOT NULL DEFAULT 0,
	line_fingerprint       TEXT NOT NULL DEFAULT '',
	created_at             TEXT NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_import_guard
	ON transactions (owner_type, owner_id, billing_cycle, parent_bill_payment_id, line_fingerprint)
	WHERE line_fingerprint != '';

CREATE INDEX IF NOT EXISTS idx_transactions_owner_date
	ON transactions (owner_type, owner_id, date);

CREATE INDEX IF NOT EXISTS idx_transactions_parent
	ON transactions (parent_bill_payment_id)
	WHERE parent_bill_payment_id != '';

CREATE TABLE IF NOT EXISTS category_rules (
	id          TEXT PRIMARY KEY,
	owner_type  TEXT NOT NULL,
	owner_id    TEXT NOT NULL,
	pattern     TEXT NOT NULL,
	category_id TEXT NOT NULL,
	priority    INTEGER NOT NULL,
	is_active   INTEGER NOT NULL DEFAULT 1,
	created_at  TEXT NOT NULL,
	UNIQUE (owner_type, owner_id, pattern)
);

CREATE INDEX IF NOT EXISTS idx_category_rules_owner
	ON category_rules (owner_type, owner_id, is_active);
`
