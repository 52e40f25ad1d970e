package repository

import (
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DeleteAction int

const (
	// Cascade deletes referencing rows together with the parent.
	Cascade DeleteAction = iota
	// SetNull clears the referencing column and keeps the row.
	SetNull
)

func (a DeleteAction) String() string {
	if a == SetNull {
		return "set_null"
	}
	return "cascade"
}

// DeleteRule describes what happens to rows of Model whose ForeignKey column
// references a deleted parent row.
type DeleteRule struct {
	Model      any
	ForeignKey string
	Action     DeleteAction
}

// apply runs the rule against the parents identified by ids. A nil ids slice
// targets every referencing row (used when the whole parent table is cleared).
func (rule DeleteRule) apply(tx *gorm.DB, ids []int64) error {
	model := reflect.New(reflect.TypeOf(rule.Model).Elem()).Interface()
	column := clause.Column{Name: rule.ForeignKey}

	var cond clause.Expression
	if ids == nil {
		cond = clause.Expr{SQL: "? IS NOT NULL", Vars: []any{column}}
	} else {
		values := make([]any, len(ids))
		for i, id := range ids {
			values[i] = id
		}
		cond = clause.IN{Column: column, Values: values}
	}

	q := tx.Model(model).Clauses(clause.Where{Exprs: []clause.Expression{cond}})
	if rule.Action == SetNull {
		return q.Update(rule.ForeignKey, nil).Error
	}
	return q.Delete(model).Error
}
