package db

import (
	"bundler/types"
)

type Database interface {
	Close() error
	EnsureDatabaseExists() error
	CreateTables() error
	DropTables() error

	Exec(query string, args ...any) error
	InsertSubmissions(submissions types.BundleSubmissions) error

	QueryRecentSubmissions(limit uint) (types.BundleSubmissions, error)
	QueryLatestBundleIds(limit uint) ([]string, error)
}
