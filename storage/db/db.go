// Copyright 2016 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package db persists parsed datasets in a SQL database so that
// later runs can compare against them without the original artifacts.
package db

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/google/uuid"
	"github.com/hcache/cachestat/record"
)

// DB is a high-level interface to a database of datasets. It's safe
// for concurrent use by multiple goroutines.
type DB struct {
	sql *sql.DB // underlying database connection
	// prepared statements
	insertDataset *sql.Stmt
	insertRecord  *sql.Stmt
}

// OpenSQL creates a DB backed by a SQL database. The parameters are
// the same as the parameters for sql.Open. Only mysql and sqlite3 are
// explicitly supported; other database engines will receive MySQL
// query syntax which may or may not be compatible.
func OpenSQL(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}
	if hook := openHooks[driverName]; hook != nil {
		if err := hook(db); err != nil {
			return nil, err
		}
	}
	d := &DB{sql: db}
	if err := d.createTables(driverName); err != nil {
		return nil, err
	}
	if err := d.prepareStatements(); err != nil {
		return nil, err
	}
	return d, nil
}

var openHooks = make(map[string]func(*sql.DB) error)

// RegisterOpenHook registers a hook to be called after opening a connection to driverName.
// This is used by the sqlite3 package to register a ConnectHook.
// It must be called from an init function.
func RegisterOpenHook(driverName string, hook func(*sql.DB) error) {
	openHooks[driverName] = hook
}

// createTmpl is the template used to prepare the CREATE statements
// for the database. It is evaluated with . as a map containing one
// entry whose key is the driver name.
var createTmpl = template.Must(template.New("create").Parse(`
CREATE TABLE IF NOT EXISTS Datasets (
	DatasetID {{if .sqlite3}}INTEGER PRIMARY KEY AUTOINCREMENT{{else}}SERIAL PRIMARY KEY AUTO_INCREMENT{{end}},
	UUID VARCHAR(36) NOT NULL,
	Dir VARCHAR(1024),
	Created BIGINT,
	Files INT,
	Parsed INT,
	Mismatched INT,
	Unreadable INT,
	Skipped INT,
	PartialErrors INT
);
CREATE TABLE IF NOT EXISTS Records (
	DatasetID BIGINT UNSIGNED,
	RecordID BIGINT UNSIGNED,
	Kind VARCHAR(32),
	GroupKey VARCHAR(1024),
	File VARCHAR(1024),
	Line INT,
	Time BIGINT,
	PRIMARY KEY (DatasetID, RecordID),
	FOREIGN KEY (DatasetID) REFERENCES Datasets(DatasetID) ON UPDATE CASCADE ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS RecordParams (
	DatasetID BIGINT UNSIGNED,
	RecordID BIGINT UNSIGNED,
	Name VARCHAR(255),
	Value VARCHAR(8192),
	IsDefault BOOLEAN,
{{if not .sqlite3}}
	Index (Name(100), Value(100)),
{{end}}
	FOREIGN KEY (DatasetID, RecordID) REFERENCES Records(DatasetID, RecordID) ON UPDATE CASCADE ON DELETE CASCADE
);
CREATE TABLE IF NOT EXISTS RecordMetrics (
	DatasetID BIGINT UNSIGNED,
	RecordID BIGINT UNSIGNED,
	Name VARCHAR(255),
	Value DOUBLE,
	FOREIGN KEY (DatasetID, RecordID) REFERENCES Records(DatasetID, RecordID) ON UPDATE CASCADE ON DELETE CASCADE
);
{{if .sqlite3}}
CREATE UNIQUE INDEX IF NOT EXISTS DatasetsUUID ON Datasets(UUID);
CREATE INDEX IF NOT EXISTS RecordParamsNameValue ON RecordParams(Name, Value);
{{end}}
`))

// createTables creates any missing tables on the connection in
// db.sql. driverName is the same driver name passed to sql.Open and
// is used to select the correct syntax.
func (db *DB) createTables(driverName string) error {
	var buf bytes.Buffer
	if err := createTmpl.Execute(&buf, map[string]bool{driverName: true}); err != nil {
		return err
	}
	for _, q := range strings.Split(buf.String(), ";") {
		if strings.TrimSpace(q) == "" {
			continue
		}
		if _, err := db.sql.Exec(q); err != nil {
			return fmt.Errorf("create table: %v", err)
		}
	}
	return nil
}

// prepareStatements calls db.sql.Prepare on reusable SQL statements.
func (db *DB) prepareStatements() error {
	var err error
	db.insertDataset, err = db.sql.Prepare("INSERT INTO Datasets(UUID, Dir, Created, Files, Parsed, Mismatched, Unreadable, Skipped, PartialErrors) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	db.insertRecord, err = db.sql.Prepare("INSERT INTO Records(DatasetID, RecordID, Kind, GroupKey, File, Line, Time) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	return nil
}

// now is a hook for testing
var now = time.Now

// An Upload describes a dataset stored in the database.
type Upload struct {
	// ID is the public identifier of the dataset.
	ID string

	// id is the numeric value used as the primary key.
	id int64
}

// InsertDataset stores ds in a single transaction and returns its
// identifier.
func (db *DB) InsertDataset(ctx context.Context, ds *record.Dataset) (u *Upload, err error) {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	st := ds.Stats()
	u = &Upload{ID: uuid.NewString()}
	res, err := tx.StmtContext(ctx, db.insertDataset).ExecContext(ctx,
		u.ID, ds.Dir(), now().Unix(),
		st.Files, st.Parsed, st.Mismatched, st.Unreadable, st.Skipped, st.Partial)
	if err != nil {
		return nil, err
	}
	if u.id, err = res.LastInsertId(); err != nil {
		return nil, err
	}

	insertRecord := tx.StmtContext(ctx, db.insertRecord)
	for i, r := range ds.Records() {
		if _, err := insertRecord.ExecContext(ctx, u.id, i, r.Kind.String(), r.Group, r.File, r.Line, r.Time.UnixNano()); err != nil {
			return nil, err
		}
		var args []interface{}
		for _, k := range r.Params.Keys() {
			p := r.Params[k]
			args = append(args, u.id, i, k, p.Value, p.IsDefault())
		}
		if err := insertRows(ctx, tx, "RecordParams", 5, args); err != nil {
			return nil, err
		}
		args = args[:0]
		for _, k := range r.Metrics.Keys() {
			args = append(args, u.id, i, k, r.Metrics[k])
		}
		if err := insertRows(ctx, tx, "RecordMetrics", 4, args); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// insertRows inserts rows of width columns, flattened into args, into
// table.
func insertRows(ctx context.Context, tx *sql.Tx, table string, width int, args []interface{}) error {
	if len(args) == 0 {
		return nil
	}
	row := "(" + strings.TrimSuffix(strings.Repeat("?, ", width), ", ") + "), "
	query := "INSERT INTO " + table + " VALUES " + strings.Repeat(row, len(args)/width)
	query = strings.TrimSuffix(query, ", ")
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// A DatasetInfo summarizes a stored dataset.
type DatasetInfo struct {
	ID      string
	Dir     string
	Created time.Time
	Records int
}

// ListDatasets returns the stored datasets, most recent first.
func (db *DB) ListDatasets(ctx context.Context) ([]DatasetInfo, error) {
	rows, err := db.sql.QueryContext(ctx, `
SELECT d.UUID, d.Dir, d.Created, COUNT(r.RecordID)
FROM Datasets d LEFT JOIN Records r ON d.DatasetID = r.DatasetID
GROUP BY d.DatasetID, d.UUID, d.Dir, d.Created
ORDER BY d.Created DESC, d.DatasetID DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var infos []DatasetInfo
	for rows.Next() {
		var info DatasetInfo
		var created int64
		if err := rows.Scan(&info.ID, &info.Dir, &created, &info.Records); err != nil {
			return nil, err
		}
		info.Created = time.Unix(created, 0).UTC()
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// ErrNotFound is returned by LoadDataset for unknown identifiers.
var ErrNotFound = fmt.Errorf("dataset not found")

// LoadDataset returns the dataset stored under id.
func (db *DB) LoadDataset(ctx context.Context, id string) (*record.Dataset, error) {
	var (
		datasetID int64
		dir       string
		st        record.LoadStats
	)
	err := db.sql.QueryRowContext(ctx, "SELECT DatasetID, Dir, Files, Parsed, Mismatched, Unreadable, Skipped, PartialErrors FROM Datasets WHERE UUID = ?", id).
		Scan(&datasetID, &dir, &st.Files, &st.Parsed, &st.Mismatched, &st.Unreadable, &st.Skipped, &st.Partial)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	} else if err != nil {
		return nil, err
	}

	var records []*record.Record
	rows, err := db.sql.QueryContext(ctx, "SELECT Kind, GroupKey, File, Line, Time FROM Records WHERE DatasetID = ? ORDER BY RecordID", datasetID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		r := &record.Record{Params: record.Params{}, Metrics: record.Metrics{}}
		var kind string
		var t int64
		if err := rows.Scan(&kind, &r.Group, &r.File, &r.Line, &t); err != nil {
			return nil, err
		}
		r.Kind, _ = record.ParseKind(kind)
		r.Time = time.Unix(0, t).UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	err = db.scan(ctx, "SELECT RecordID, Name, Value, IsDefault FROM RecordParams WHERE DatasetID = ?", datasetID, func(rows *sql.Rows) error {
		var (
			i           int
			name, value string
			isDefault   bool
		)
		if err := rows.Scan(&i, &name, &value, &isDefault); err != nil {
			return err
		}
		if i < 0 || i >= len(records) {
			return fmt.Errorf("parameter %s of unknown record %d", name, i)
		}
		p := record.Parse(value)
		if isDefault {
			p = p.AsDefault()
		}
		records[i].Params[name] = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	err = db.scan(ctx, "SELECT RecordID, Name, Value FROM RecordMetrics WHERE DatasetID = ?", datasetID, func(rows *sql.Rows) error {
		var (
			i     int
			name  string
			value float64
		)
		if err := rows.Scan(&i, &name, &value); err != nil {
			return err
		}
		if i < 0 || i >= len(records) {
			return fmt.Errorf("metric %s of unknown record %d", name, i)
		}
		records[i].Metrics[name] = value
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record.NewDataset(dir, records, st), nil
}

func (db *DB) scan(ctx context.Context, query string, arg interface{}, f func(*sql.Rows) error) error {
	rows, err := db.sql.QueryContext(ctx, query, arg)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := f(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// CountDatasets returns the number of stored datasets.
func (db *DB) CountDatasets() (int, error) {
	var n int
	err := db.sql.QueryRow("SELECT COUNT(*) FROM Datasets").Scan(&n)
	return n, err
}

// DeleteDataset removes the dataset stored under id.
func (db *DB) DeleteDataset(ctx context.Context, id string) (err error) {
	tx, err := db.sql.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()
	var datasetID int64
	if err := tx.QueryRowContext(ctx, "SELECT DatasetID FROM Datasets WHERE UUID = ?", id).Scan(&datasetID); err == sql.ErrNoRows {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	} else if err != nil {
		return err
	}
	for _, q := range []string{
		"DELETE FROM RecordParams WHERE DatasetID = ?",
		"DELETE FROM RecordMetrics WHERE DatasetID = ?",
		"DELETE FROM Records WHERE DatasetID = ?",
		"DELETE FROM Datasets WHERE DatasetID = ?",
	} {
		if _, err := tx.ExecContext(ctx, q, datasetID); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connections, releasing any open resources.
func (db *DB) Close() error {
	if err := db.insertDataset.Close(); err != nil {
		return err
	}
	if err := db.insertRecord.Close(); err != nil {
		return err
	}
	return db.sql.Close()
}
