package utils

import (
	"database/sql"
	"net/url"

	_ "github.com/lib/pq"
)

// 文档注释：Postgres 连接参数
// 背景：统一从 PG_* 环境变量读取；DSN 由 net/url 组装，密码中的特殊字符自动转义。
type PGConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
	SSLMode  string
	MaxOpen  int
	MaxIdle  int
}

func PGConfigFromEnv() PGConfig {
	return PGConfig{
		Host:     EnvOr("PG_HOST", "localhost"),
		Port:     EnvOr("PG_PORT", "5432"),
		User:     EnvOr("PG_USER", "postgres"),
		Password: EnvOr("PG_PASSWORD", ""),
		DB:       EnvOr("PG_DB", "locations"),
		SSLMode:  EnvOr("PG_SSLMODE", "disable"),
		MaxOpen:  EnvInt("PG_MAX_OPEN_CONNS", 20),
		MaxIdle:  EnvInt("PG_MAX_IDLE_CONNS", 10),
	}
}

func (c PGConfig) DSN() string {
	u := url.URL{Scheme: "postgres", Host: c.Host + ":" + c.Port, Path: "/" + c.DB}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

func OpenPostgres(c PGConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", c.DSN())
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(c.MaxOpen)
	db.SetMaxIdleConns(c.MaxIdle)
	return db, nil
}

func OpenPostgresFromEnv() (*sql.DB, error) { return OpenPostgres(PGConfigFromEnv()) }
