package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
)

type DB struct {
	*sql.DB
}

// NewConnection opens the bulletins database. When the target database does
// not exist yet it is created through the maintenance database first, so a
// fresh deployment needs no manual provisioning step.
func NewConnection(host, port, user, password, dbname string) (*DB, error) {
	db, err := open(host, port, user, password, dbname)
	if err == nil {
		return &DB{db}, nil
	}

	if !isUnknownDatabase(err) {
		return nil, err
	}

	if err := provisionDatabase(host, port, user, password, dbname); err != nil {
		return nil, fmt.Errorf("failed to provision database %s: %w", dbname, err)
	}

	db, err = open(host, port, user, password, dbname)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

func open(host, port, user, password, dbname string) (*sql.DB, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

func provisionDatabase(host, port, user, password, dbname string) error {
	admin, err := open(host, port, user, password, "postgres")
	if err != nil {
		return fmt.Errorf("failed to connect to maintenance database: %w", err)
	}
	defer admin.Close()

	_, err = admin.Exec("CREATE DATABASE " + pq.QuoteIdentifier(dbname))
	if err != nil && !isDuplicateDatabase(err) {
		return fmt.Errorf("failed to create database: %w", err)
	}

	return nil
}

// 3D000: invalid_catalog_name, the target database does not exist.
func isUnknownDatabase(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "3D000"
}

// 42P04: duplicate_database, another process created it between our attempts.
func isDuplicateDatabase(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "42P04"
}
