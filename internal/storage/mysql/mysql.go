package mysql

import (
	"database/sql"
	"fmt"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"github.com/DEFRA/fc-apply-for-a-tree-felling-licence-sub026/internal/config"
)

type Storage struct {
	db *sql.DB
}

func New(cfg config.Config) (*Storage, error) {
	const op = "storage.mysql.New"

	dsn := mysql.NewConfig()
	dsn.User = cfg.DB.User
	dsn.Passwd = cfg.DB.Password
	dsn.Net = "tcp"
	dsn.Addr = net.JoinHostPort(cfg.DB.Host, strconv.Itoa(cfg.DB.Port))
	dsn.DBName = cfg.DB.Name
	dsn.ParseTime = cfg.DB.ParseTime

	db, err := sql.Open("mysql", dsn.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

// NewWithDB wraps an already opened connection pool.
func NewWithDB(db *sql.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) DB() *sql.DB {
	return s.db
}

func (s *Storage) Close() error {
	return s.db.Close()
}
