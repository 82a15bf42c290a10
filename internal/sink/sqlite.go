package sink

import (
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/gnolang/tgrep/internal/match"
)

const schema = "CREATE TABLE IF NOT EXISTS matches (`id` INTEGER PRIMARY KEY, " +
	"`run_id` TEXT NOT NULL, `source` TEXT, `page` INTEGER, `offset` INTEGER, " +
	"`word` TEXT, `context_before` TEXT, `context_after` TEXT);\n" +
	"CREATE INDEX IF NOT EXISTS matches_run_id ON matches (`run_id`);"

// SQLite appends records to the matches table, tagged with the run id.
type SQLite struct {
	conn   *sqlite.Conn
	insert *sqlite.Stmt
	runID  string
}

func OpenSQLite(path, runID string) (*SQLite, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite|sqlite.OpenCreate)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	insert, err := conn.Prepare("INSERT INTO matches (`run_id`, `source`, `page`, `offset`, " +
		"`word`, `context_before`, `context_after`) VALUES " +
		"($run_id, $source, $page, $offset, $word, $context_before, $context_after);")
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to prepare insert: %w", err)
	}
	return &SQLite{conn: conn, insert: insert, runID: runID}, nil
}

// Write inserts the batch inside one savepoint; a failed batch leaves no
// rows behind.
func (s *SQLite) Write(records []match.Record) (err error) {
	defer sqlitex.Save(s.conn)(&err)

	for _, r := range records {
		s.insert.SetText("$run_id", s.runID)
		s.insert.SetText("$source", r.Source)
		s.insert.SetInt64("$page", int64(r.Position.Page))
		s.insert.SetInt64("$offset", int64(r.Position.Offset))
		s.insert.SetText("$word", r.MatchedToken)
		s.insert.SetText("$context_before", r.ContextBefore)
		s.insert.SetText("$context_after", r.ContextAfter)
		_, err = s.insert.Step()
		s.insert.Reset()
		if err != nil {
			return fmt.Errorf("failed to insert match: %w", err)
		}
	}
	return nil
}

// Records reads back the rows written under runID, in insertion order.
func (s *SQLite) Records(runID string) ([]match.Record, error) {
	var records []match.Record
	err := sqlitex.Execute(s.conn,
		"SELECT `source`, `page`, `offset`, `word`, `context_before`, `context_after` "+
			"FROM matches WHERE `run_id` = ? ORDER BY `id`;",
		&sqlitex.ExecOptions{
			Args: []any{runID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				records = append(records, match.Record{
					Source: stmt.ColumnText(0),
					Position: match.Position{
						Page:   stmt.ColumnInt(1),
						Offset: stmt.ColumnInt(2),
					},
					MatchedToken:  stmt.ColumnText(3),
					ContextBefore: stmt.ColumnText(4),
					ContextAfter:  stmt.ColumnText(5),
				})
				return nil
			},
		})
	return records, err
}

func (s *SQLite) Close() error {
	return s.conn.Close()
}
