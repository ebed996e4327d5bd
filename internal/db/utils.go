package db

import (
	"fmt"
	"path/filepath"

	dbpkg "github.com/dtnitsch/litchar/pkg/db"
	"github.com/urfave/cli/v2"
)

// OpenFromFlags opens --db, or <save-path>/litchar.db when it is unset.
func OpenFromFlags(c *cli.Context) (*dbpkg.DB, error) {
	path := c.String("db")
	if path == "" {
		path = filepath.Join(c.String("save-path"), dbpkg.DefaultDBName)
	}
	database, err := dbpkg.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return database, nil
}

// GetRunIDOrLatest returns the run ID from args, or the latest run if not provided
func GetRunIDOrLatest(c *cli.Context, database *dbpkg.DB) (int64, error) {
	if c.NArg() == 0 {
		runs, err := database.ListRuns(1)
		if err != nil {
			return 0, fmt.Errorf("failed to get latest run: %w", err)
		}
		if len(runs) == 0 {
			return 0, fmt.Errorf("no runs found. Run 'litchar collect --data-file ...' first")
		}
		return runs[0].RunID, nil
	}

	var runID int64
	_, err := fmt.Sscanf(c.Args().First(), "%d", &runID)
	if err != nil {
		return 0, fmt.Errorf("invalid run ID: %s", c.Args().First())
	}
	return runID, nil
}
