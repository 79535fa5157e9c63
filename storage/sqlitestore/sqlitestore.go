// Package sqlitestore provides a SQLite implementation of the storage.Store
// interface. Records are stored as JSON in a single shared table, keyed by
// (id, entity_type).
//
// Examples:
//
//	store := sqlitestore.New("file:bookstore.db")
//	store := sqlitestore.New(":memory:", sqlitestore.WithTableName("test_store"))
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/dpup/bookstore/storage"

	"github.com/mattn/go-sqlite3"
)

// Option is a functional option for configuring the store.
type Option func(*store)

// WithTableName overrides the default table name of "bookstore_store".
func WithTableName(tableName string) Option {
	return func(s *store) {
		s.tableName = tableName
	}
}

// New returns a store that provides sqlite backed storage, the table will be
// created optimistically on initialization. Any errors are considered
// non-recoverable and will panic.
func New(conn string, opts ...Option) storage.Store {
	db, err := sql.Open("sqlite3", conn)
	if err != nil {
		panic("failed to open sqlite connection: " + err.Error())
	}
	s := &store{
		db:        db,
		tableName: "bookstore_store",
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ensureTable()
	return s
}

type store struct {
	db *sql.DB

	tableName string
}

func (s *store) Create(ctx context.Context, models ...storage.Model) error {
	return s.insert(ctx, false, models...)
}

func (s *store) Read(ctx context.Context, id string, model storage.Model) error {
	if err := storage.ValidateReceiver(model); err != nil {
		return err
	}

	query := "SELECT value FROM " + s.tableName + " WHERE id = ? AND entity_type = ?"
	row := s.db.QueryRowContext(ctx, query, id, storage.Name(model))

	var value []byte
	if err := row.Scan(&value); err != nil {
		return translateError(err)
	}

	return json.Unmarshal(value, model)
}

func (s *store) Update(ctx context.Context, models ...storage.Model) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return translateError(err)
	}

	stmt, err := tx.PrepareContext(ctx, "UPDATE "+s.tableName+" SET value = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND entity_type = ?")
	if err != nil {
		tx.Rollback()
		return translateError(err)
	}
	defer stmt.Close()

	for _, model := range models {
		value, err := json.Marshal(model)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("%w: %s", storage.ErrInvalidModel, err)
		}
		res, err := stmt.ExecContext(ctx, value, model.PK(), storage.Name(model))
		if err != nil {
			tx.Rollback()
			return translateError(err)
		}
		if i, err := res.RowsAffected(); i == 0 || err != nil {
			tx.Rollback()
			return storage.ErrNotFound
		}
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return translateError(err)
	}

	return nil
}

func (s *store) Upsert(ctx context.Context, models ...storage.Model) error {
	return s.insert(ctx, true, models...)
}

func (s *store) Delete(ctx context.Context, model storage.Model) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM "+s.tableName+" WHERE id = ? AND entity_type = ?",
		model.PK(), storage.Name(model))
	if err != nil {
		return translateError(err)
	}
	if i, err := res.RowsAffected(); i == 0 || err != nil {
		return storage.ErrNotFound
	}
	return nil
}

func (s *store) List(ctx context.Context, models any, filter storage.Model) error {
	modelsVal := reflect.ValueOf(models)
	if modelsVal.Kind() != reflect.Ptr || modelsVal.Elem().Kind() != reflect.Slice {
		return storage.ErrSliceRequired
	}
	sliceVal := modelsVal.Elem()
	elemType := sliceVal.Type().Elem()
	// Pointer elements and pointer filters are normalized to the underlying
	// struct type so both []T and []*T destinations work.
	baseType := elemType
	ptrElems := baseType.Kind() == reflect.Ptr
	if ptrElems {
		baseType = baseType.Elem()
	}
	filterType := reflect.TypeOf(filter)
	if filterType.Kind() == reflect.Ptr {
		filterType = filterType.Elem()
	}
	if baseType != filterType || baseType.Kind() != reflect.Struct {
		return storage.ErrTypeMismatch
	}

	query, args := s.buildListQuery(filter)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return translateError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return translateError(err)
		}

		newElemPtr := reflect.New(baseType)
		if err := json.Unmarshal([]byte(value), newElemPtr.Interface()); err != nil {
			return fmt.Errorf("%w: %s", storage.ErrInvalidModel, err)
		}

		if ptrElems {
			sliceVal.Set(reflect.Append(sliceVal, newElemPtr))
		} else {
			sliceVal.Set(reflect.Append(sliceVal, newElemPtr.Elem()))
		}
	}

	return translateError(rows.Err())
}

func (s *store) Exists(ctx context.Context, id string, model storage.Model) (bool, error) {
	query := "SELECT COUNT(*) FROM " + s.tableName + " WHERE id = ? AND entity_type = ?"
	var value int
	if err := s.db.QueryRowContext(ctx, query, id, storage.Name(model)).Scan(&value); err != nil {
		return false, translateError(err)
	}
	return value > 0, nil
}

func (s *store) insert(ctx context.Context, upsert bool, models ...storage.Model) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return translateError(err)
	}

	query := "INSERT INTO " + s.tableName + " (id, entity_type, value) VALUES (?, ?, ?)"
	if upsert {
		query += ` ON CONFLICT(id, entity_type) DO UPDATE SET
			value = excluded.value, updated_at = CURRENT_TIMESTAMP`
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		tx.Rollback()
		return translateError(err)
	}
	defer stmt.Close()

	for _, model := range models {
		value, err := json.Marshal(model)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("%w: %s", storage.ErrInvalidModel, err)
		}
		if _, err = stmt.ExecContext(ctx, model.PK(), storage.Name(model), value); err != nil {
			tx.Rollback()
			return translateError(err)
		}
	}

	if err := tx.Commit(); err != nil {
		tx.Rollback()
		return translateError(err)
	}

	return nil
}

func (s *store) ensureTable() {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS ` + s.tableName + ` (
		id TEXT,
		entity_type TEXT,
		value BLOB,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id, entity_type)
	);`)
	if err != nil {
		panic("failed to create table: " + err.Error())
	}
}

func (s *store) buildListQuery(model storage.Model) (string, []any) {
	filterValue := reflect.Indirect(reflect.ValueOf(model))

	whereClauses := []string{"entity_type = ?"}
	params := []any{storage.Name(model)}

	if !filterValue.IsValid() {
		// Nil pointer filter matches every record of the type.
		return fmt.Sprintf("SELECT value FROM %s WHERE %s", s.tableName, whereClauses[0]), params
	}

	for i := 0; i < filterValue.NumField(); i++ {
		field := filterValue.Field(i)
		typeField := filterValue.Type().Field(i)

		// Only include fields that are non-nil pointers or are non-zero values.
		if (field.Kind() == reflect.Ptr && !field.IsNil()) || (!field.IsZero() && field.Kind() != reflect.Ptr) {
			w := fmt.Sprintf("json_extract(value, '$.%s') = ?", fieldName(typeField))
			whereClauses = append(whereClauses, w)
			if field.Kind() == reflect.Ptr {
				params = append(params, reflect.Indirect(field).Interface())
			} else {
				params = append(params, field.Interface())
			}
		}
	}

	return fmt.Sprintf("SELECT value FROM %s WHERE %s", s.tableName, strings.Join(whereClauses, " AND ")), params
}

// fieldName honors json struct tags when building filter clauses, since
// records are stored using their JSON encoding.
func fieldName(f reflect.StructField) string {
	tag := f.Tag.Get("json")
	if tag == "" || tag == "-" {
		return f.Name
	}
	if idx := strings.Index(tag, ","); idx >= 0 {
		tag = tag[:idx]
	}
	if tag == "" {
		return f.Name
	}
	return tag
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if err == sql.ErrNoRows {
		return storage.ErrNotFound
	}
	if sqlErr, ok := err.(sqlite3.Error); ok {
		switch sqlErr.Code {
		case sqlite3.ErrNotFound:
			return storage.ErrNotFound
		case sqlite3.ErrConstraint:
			return storage.ErrAlreadyExists
		}
	}
	return err
}
