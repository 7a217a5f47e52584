package postgres

// schemaDDL creates the four pipeline tables plus supporting indexes on the
// two append-only logs. Every statement is idempotent so the whole block can
// run on each invocation.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS image_metadata (
    image_id        TEXT PRIMARY KEY,
    file_path       TEXT NOT NULL,
    description     TEXT,
    dominant_colors TEXT[],
    style_tags      TEXT[],
    garment_type    TEXT,
    accessories     TEXT[],
    gender          TEXT,
    season          TEXT,
    created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS image_navigation_paths (
    source_image_id      TEXT PRIMARY KEY REFERENCES image_metadata(image_id),
    next_possible_images TEXT[],
    path_scores          REAL[],
    reason               TEXT,
    created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS user_interactions (
    id        BIGSERIAL PRIMARY KEY,
    user_id   TEXT NOT NULL,
    image_id  TEXT NOT NULL REFERENCES image_metadata(image_id),
    clicked   BOOLEAN NOT NULL,
    timestamp TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS recommendations (
    id                 BIGSERIAL PRIMARY KEY,
    user_id            TEXT NOT NULL,
    source_image_id    TEXT NOT NULL REFERENCES image_metadata(image_id),
    recommended_images TEXT[],
    reasoning          TEXT[],
    generated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_user_interactions_user_ts
    ON user_interactions (user_id, timestamp DESC);

CREATE INDEX IF NOT EXISTS idx_recommendations_user
    ON recommendations (user_id);
`
