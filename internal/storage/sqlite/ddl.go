package sqlite

// schemaDDL mirrors the Postgres schema. SQLite has no array type, so array
// columns are JSON-encoded TEXT; timestamps are stored as RFC3339 TEXT and
// booleans as integers. Foreign keys are enforced via PRAGMA foreign_keys.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS image_metadata (
    image_id        TEXT PRIMARY KEY,
    file_path       TEXT NOT NULL,
    description     TEXT,
    dominant_colors TEXT,
    style_tags      TEXT,
    garment_type    TEXT,
    accessories     TEXT,
    gender          TEXT,
    season          TEXT,
    created_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE TABLE IF NOT EXISTS image_navigation_paths (
    source_image_id      TEXT PRIMARY KEY REFERENCES image_metadata(image_id),
    next_possible_images TEXT,
    path_scores          TEXT,
    reason               TEXT,
    created_at           TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE TABLE IF NOT EXISTS user_interactions (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id   TEXT NOT NULL,
    image_id  TEXT NOT NULL REFERENCES image_metadata(image_id),
    clicked   INTEGER NOT NULL,
    timestamp TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE TABLE IF NOT EXISTS recommendations (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id            TEXT NOT NULL,
    source_image_id    TEXT NOT NULL REFERENCES image_metadata(image_id),
    recommended_images TEXT,
    reasoning          TEXT,
    generated_at       TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
);

CREATE INDEX IF NOT EXISTS idx_user_interactions_user_ts
    ON user_interactions (user_id, timestamp DESC);

CREATE INDEX IF NOT EXISTS idx_recommendations_user
    ON recommendations (user_id);
`
