package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"quizquest/internal/logger"

	_ "github.com/sijms/go-ora/v2" // Ensure go-ora driver is registered
	"go.uber.org/zap"
)

// RunMigrations applies every *.up.sql file in migrationsDir in
// lexical order. Files are plain DDL; there is no down path and no
// version table, so re-running against an existing schema will fail on
// the first CREATE.
func RunMigrations(db *sql.DB, migrationsDir string) error {
	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("could not read migrations directory: %w", err)
	}

	for _, file := range files {
		if !strings.HasSuffix(file.Name(), ".up.sql") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(migrationsDir, file.Name()))
		if err != nil {
			return fmt.Errorf("could not read migration file %s: %w", file.Name(), err)
		}

		// go-ora executes one statement at a time, so each file is
		// split on the statement separator line.
		for _, stmt := range splitStatements(string(content)) {
			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("could not execute migration %s: %w", file.Name(), err)
			}
		}

		logger.Get().Info("Executed migration", zap.String("file", file.Name()))
	}

	logger.Get().Info("Migrations completed successfully")
	return nil
}

// splitStatements breaks a migration file into individual statements.
// A line containing only "/" separates statements, matching the
// SQL*Plus convention for scripts that mix DDL and PL/SQL.
func splitStatements(content string) []string {
	var stmts []string
	for _, chunk := range strings.Split(content, "\n/\n") {
		chunk = strings.TrimSpace(chunk)
		if chunk != "" {
			stmts = append(stmts, chunk)
		}
	}
	return stmts
}

// NewMigrateOracleDB opens a plain database/sql connection for the
// migration runner.
func NewMigrateOracleDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("oracle", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not ping database: %w", err)
	}

	return db, nil
}
