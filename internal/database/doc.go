// Package database stores research runs in SQLite.
//
// Each saved run keeps its full report as JSON next to a few queryable
// columns (topic, tier, source count), one row per admitted page, and the
// per-category source counts. This lets `deepcrawl history` list runs and
// compare category counts across runs without decoding every report.
//
// The driver is modernc.org/sqlite, a CGO-free SQLite, so the binary stays
// cross-compilable. The database is a single file in the XDG data directory.
package database
