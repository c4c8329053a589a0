package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stationsDDL returns the CREATE TABLE statement for the stations table.
func stationsDDL(t *testing.T) string {
	t.Helper()
	for _, stmt := range statements {
		if strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS stations ") ||
			strings.Contains(stmt, "CREATE TABLE IF NOT EXISTS stations (") {
			return stmt
		}
	}
	t.Fatal("stations DDL not found")
	return ""
}

func TestSchemaCoversAllTables(t *testing.T) {
	tables := []string{
		"companies", "stations", "station_keys",
		"fuels", "station_fuels", "station_events", "admins",
	}

	joined := strings.Join(statements, "\n")
	for _, table := range tables {
		assert.Contains(t, joined, "CREATE TABLE IF NOT EXISTS "+table,
			"missing table %s", table)
	}
}

// The option toggles scan into Go bools; a numeric column here fails
// every station row scan at runtime, which in-memory tests never see.
func TestStationOptionColumnsAreBoolean(t *testing.T) {
	ddl := stationsDDL(t)

	toggles := []string{
		"shift_notify", "calibration_notify", "season_notify",
		"receipt_coefficient", "fix_shift", "allow_discount",
	}
	for _, column := range toggles {
		assert.Regexp(t, column+`\s+BOOLEAN`, ddl, "column %s must be boolean", column)
	}

	counts := []string{"pistol_count", "processor_count", "season_count"}
	for _, column := range counts {
		assert.Regexp(t, column+`\s+INTEGER`, ddl, "column %s must be integer", column)
	}

	assert.Regexp(t, `currency_value\s+DOUBLE PRECISION`, ddl)
	assert.Regexp(t, `currency_type\s+TEXT`, ddl)
}

func TestSchemaIsIdempotent(t *testing.T) {
	for _, stmt := range statements {
		trimmed := strings.TrimSpace(stmt)
		ok := strings.HasPrefix(trimmed, "CREATE TABLE IF NOT EXISTS") ||
			strings.HasPrefix(trimmed, "CREATE INDEX IF NOT EXISTS")
		require.True(t, ok, "statement must be re-runnable: %s", trimmed[:40])
	}
}
