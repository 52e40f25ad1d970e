package repository

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
)

type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintForeignKey ConstraintKind = "foreign_key"
)

// ConstraintViolation reports a unique or foreign key breach raised by the store.
// Field holds the offending column(s), comma separated, when the driver reports them.
// sqlite never names the column of a foreign key failure, so Field is empty there.
type ConstraintViolation struct {
	Entity string
	Field  string
	Kind   ConstraintKind
	Err    error
}

func (e *ConstraintViolation) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s constraint violated", e.Entity, e.Kind)
	}
	return fmt.Sprintf("%s: %s constraint violated on %s", e.Entity, e.Kind, e.Field)
}

func (e *ConstraintViolation) Unwrap() error {
	return e.Err
}

// IsConstraintViolation returns the violation carried by err, if any.
func IsConstraintViolation(err error) (*ConstraintViolation, bool) {
	var cv *ConstraintViolation
	if errors.As(err, &cv) {
		return cv, true
	}
	return nil, false
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

var pgKeyDetail = regexp.MustCompile(`Key \(([^)]+)\)`)

// translate maps driver and gorm errors onto the repository error kinds.
func translate(entity string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return &ConstraintViolation{Entity: entity, Field: pgField(pgErr), Kind: ConstraintUnique, Err: err}
		case "23503":
			return &ConstraintViolation{Entity: entity, Field: pgField(pgErr), Kind: ConstraintForeignKey, Err: err}
		}
		return err
	}

	var sqErr sqlite3.Error
	if errors.As(err, &sqErr) && sqErr.Code == sqlite3.ErrConstraint {
		switch sqErr.ExtendedCode {
		case sqlite3.ErrConstraintUnique, sqlite3.ErrConstraintPrimaryKey:
			return &ConstraintViolation{Entity: entity, Field: sqliteField(sqErr.Error()), Kind: ConstraintUnique, Err: err}
		case sqlite3.ErrConstraintForeignKey:
			return &ConstraintViolation{Entity: entity, Kind: ConstraintForeignKey, Err: err}
		}
		return err
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &ConstraintViolation{Entity: entity, Kind: ConstraintUnique, Err: err}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &ConstraintViolation{Entity: entity, Kind: ConstraintForeignKey, Err: err}
	}

	return err
}

func pgField(pgErr *pgconn.PgError) string {
	if pgErr.ColumnName != "" {
		return pgErr.ColumnName
	}
	if m := pgKeyDetail.FindStringSubmatch(pgErr.Detail); len(m) == 2 {
		return strings.ReplaceAll(m[1], " ", "")
	}
	return pgErr.ConstraintName
}

// sqliteField extracts columns from "UNIQUE constraint failed: user_roles.user_id, user_roles.role_id".
func sqliteField(msg string) string {
	_, cols, ok := strings.Cut(msg, "failed: ")
	if !ok {
		return ""
	}
	parts := strings.Split(cols, ",")
	fields := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if _, col, found := strings.Cut(part, "."); found {
			part = col
		}
		fields = append(fields, part)
	}
	return strings.Join(fields, ",")
}
