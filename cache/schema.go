package cache

const Schema = `
CREATE TABLE IF NOT EXISTS cache (
	key TEXT PRIMARY KEY,
	token INTEGER NOT NULL,
	stored_at INTEGER NOT NULL,
	data BLOB NOT NULL
);
`
