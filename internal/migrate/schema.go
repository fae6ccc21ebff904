package migrate

import (
	"context"
	"database/sql"
	"ng-locations/internal/logger"
)

// 背景：首次导入前自动创建四级行政区表与索引
// 约束：使用 IF NOT EXISTS，可重复执行；外键保证 LGA/选区/投票站引用存在的上级
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS loc_states (
            value TEXT PRIMARY KEY,
            id TEXT NOT NULL,
            name TEXT NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS loc_lgas (
            state TEXT NOT NULL REFERENCES loc_states(value) ON DELETE CASCADE,
            value TEXT NOT NULL,
            id TEXT NOT NULL,
            name TEXT NOT NULL,
            PRIMARY KEY (state, value)
        )`,
		`CREATE TABLE IF NOT EXISTS loc_wards (
            state TEXT NOT NULL,
            lga TEXT NOT NULL,
            value TEXT NOT NULL,
            id TEXT NOT NULL,
            name TEXT NOT NULL,
            PRIMARY KEY (state, lga, value),
            FOREIGN KEY (state, lga) REFERENCES loc_lgas(state, value) ON DELETE CASCADE
        )`,
		`CREATE TABLE IF NOT EXISTS loc_polling_units (
            id TEXT PRIMARY KEY,
            state TEXT NOT NULL,
            lga TEXT NOT NULL,
            ward TEXT NOT NULL,
            value TEXT NOT NULL,
            name TEXT NOT NULL,
            FOREIGN KEY (state, lga, ward) REFERENCES loc_wards(state, lga, value) ON DELETE CASCADE
        )`,
		`CREATE INDEX IF NOT EXISTS idx_loc_polling_state ON loc_polling_units(state)`,
	}
	for i, s := range stmts {
		logger.L().Debug("schema_exec", "idx", i)
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	logger.L().Debug("schema_done")
	return nil
}
