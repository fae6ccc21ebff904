// 包 store: Postgres 数据访问层；既是分区加载器，也负责把离线分区导入数据库
package store

import (
	"context"
	"database/sql"
	"fmt"

	"ng-locations/internal/location"
	"ng-locations/internal/logger"
	"ng-locations/internal/partition"

	_ "github.com/lib/pq"
)

// Store: 数据库访问入口，持有连接池
type Store struct {
	db *sql.DB
}

func AttachDB(db *sql.DB) *Store { return &Store{db: db} }

func (s *Store) DB() *sql.DB { return s.db }

// 排序与离线分区一致：按字节序比较名称，再比较 value
const byName = `ORDER BY name COLLATE "C", value COLLATE "C"`

// LoadStates：州表为空视为数据集未导入
func (s *Store) LoadStates(ctx context.Context) ([]location.State, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, value FROM loc_states `+byName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []location.State
	for rows.Next() {
		var v location.State
		if err := rows.Scan(&v.ID, &v.Name, &v.Value); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: loc_states is empty", location.ErrPartitionNotFound)
	}
	logger.L().Debug("db_states_loaded", "count", len(out))
	return out, nil
}

func (s *Store) LoadLGAPartition(ctx context.Context) (location.LGAPartition, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, value, state FROM loc_lgas `+byName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := location.LGAPartition{}
	n := 0
	for rows.Next() {
		var v location.LGA
		if err := rows.Scan(&v.ID, &v.Name, &v.Value, &v.State); err != nil {
			return nil, err
		}
		out[v.State] = append(out[v.State], v)
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.L().Debug("db_lgas_loaded", "count", n, "states", len(out))
	return out, nil
}

func (s *Store) LoadWardPartition(ctx context.Context) (location.WardPartition, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, value, lga, state FROM loc_wards `+byName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := location.WardPartition{}
	n := 0
	for rows.Next() {
		var v location.Ward
		if err := rows.Scan(&v.ID, &v.Name, &v.Value, &v.LGA, &v.State); err != nil {
			return nil, err
		}
		k := location.WardKey(v.State, v.LGA)
		out[k] = append(out[k], v)
		n++
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.L().Debug("db_wards_loaded", "count", n, "lgas", len(out))
	return out, nil
}

// LoadPollingPartition：仅读取单个州的投票站
func (s *Store) LoadPollingPartition(ctx context.Context, state string) (location.PollingPartition, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, value, ward, lga, state FROM loc_polling_units WHERE state=$1 `+byName, state)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := location.PollingPartition{}
	for rows.Next() {
		var v location.PollingUnit
		if err := rows.Scan(&v.ID, &v.Name, &v.Value, &v.Ward, &v.LGA, &v.State); err != nil {
			return nil, err
		}
		k := location.PollingKey(v.State, v.LGA, v.Ward)
		out[k] = append(out[k], v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no polling units for %q", location.ErrPartitionNotFound, state)
	}
	return out, nil
}

// 文档注释：导入分区数据集
// 背景：单事务内清空并重写四张表，失败整体回滚，读方不会看到半成品。
// 约束：调用方需先执行 migrate.EnsureSchema。
func (s *Store) ImportDataset(ctx context.Context, ds *partition.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM loc_states`); err != nil {
		return err
	}
	stState, err := tx.PrepareContext(ctx, `INSERT INTO loc_states(value, id, name) VALUES($1,$2,$3)`)
	if err != nil {
		return err
	}
	defer stState.Close()
	stLGA, err := tx.PrepareContext(ctx, `INSERT INTO loc_lgas(state, value, id, name) VALUES($1,$2,$3,$4)`)
	if err != nil {
		return err
	}
	defer stLGA.Close()
	stWard, err := tx.PrepareContext(ctx, `INSERT INTO loc_wards(state, lga, value, id, name) VALUES($1,$2,$3,$4,$5)`)
	if err != nil {
		return err
	}
	defer stWard.Close()
	stPU, err := tx.PrepareContext(ctx, `INSERT INTO loc_polling_units(id, state, lga, ward, value, name) VALUES($1,$2,$3,$4,$5,$6)`)
	if err != nil {
		return err
	}
	defer stPU.Close()

	var nLGA, nWard, nPU int
	for _, v := range ds.States {
		if _, err := stState.ExecContext(ctx, v.Value, v.ID, v.Name); err != nil {
			return fmt.Errorf("insert state %q: %w", v.Value, err)
		}
	}
	for _, list := range ds.LGAs {
		for _, v := range list {
			if _, err := stLGA.ExecContext(ctx, v.State, v.Value, v.ID, v.Name); err != nil {
				return fmt.Errorf("insert lga %q: %w", v.ID, err)
			}
			nLGA++
		}
	}
	for _, list := range ds.Wards {
		for _, v := range list {
			if _, err := stWard.ExecContext(ctx, v.State, v.LGA, v.Value, v.ID, v.Name); err != nil {
				return fmt.Errorf("insert ward %q: %w", v.ID, err)
			}
			nWard++
		}
	}
	for _, part := range ds.PollingUnits {
		for _, list := range part {
			for _, v := range list {
				if _, err := stPU.ExecContext(ctx, v.ID, v.State, v.LGA, v.Ward, v.Value, v.Name); err != nil {
					return fmt.Errorf("insert polling unit %q: %w", v.ID, err)
				}
				nPU++
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	logger.L().Info("db_import_done", "states", len(ds.States), "lgas", nLGA, "wards", nWard, "polling_units", nPU)
	return nil
}
