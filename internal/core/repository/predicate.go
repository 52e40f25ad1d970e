package repository

import (
	"fmt"
	"strings"

	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

type operator string

const (
	opNone    operator = ""
	opEq      operator = "eq"
	opNe      operator = "ne"
	opGt      operator = "gt"
	opGte     operator = "gte"
	opLt      operator = "lt"
	opLte     operator = "lte"
	opIn      operator = "in"
	opLike    operator = "like"
	opIsNull  operator = "is_null"
	opNotNull operator = "not_null"
	opAnd     operator = "and"
	opOr      operator = "or"
	opNot     operator = "not"
)

// Predicate is a boolean expression over the fields of an entity. The zero
// value matches every row. Fields are named either by their Go struct field
// name or by their column name.
type Predicate struct {
	op       operator
	field    string
	values   []any
	children []Predicate
}

func Eq(field string, value any) Predicate {
	return Predicate{op: opEq, field: field, values: []any{value}}
}

func Ne(field string, value any) Predicate {
	return Predicate{op: opNe, field: field, values: []any{value}}
}

func Gt(field string, value any) Predicate {
	return Predicate{op: opGt, field: field, values: []any{value}}
}

func Gte(field string, value any) Predicate {
	return Predicate{op: opGte, field: field, values: []any{value}}
}

func Lt(field string, value any) Predicate {
	return Predicate{op: opLt, field: field, values: []any{value}}
}

func Lte(field string, value any) Predicate {
	return Predicate{op: opLte, field: field, values: []any{value}}
}

// In matches rows whose field equals any of values. An empty list matches nothing.
func In(field string, values ...any) Predicate {
	return Predicate{op: opIn, field: field, values: values}
}

func Like(field, pattern string) Predicate {
	return Predicate{op: opLike, field: field, values: []any{pattern}}
}

func IsNull(field string) Predicate {
	return Predicate{op: opIsNull, field: field}
}

func NotNull(field string) Predicate {
	return Predicate{op: opNotNull, field: field}
}

func And(predicates ...Predicate) Predicate {
	return Predicate{op: opAnd, children: predicates}
}

func Or(predicates ...Predicate) Predicate {
	return Predicate{op: opOr, children: predicates}
}

func Not(predicate Predicate) Predicate {
	return Predicate{op: opNot, children: []Predicate{predicate}}
}

// And combines p with others.
func (p Predicate) And(others ...Predicate) Predicate {
	return And(append([]Predicate{p}, others...)...)
}

// Or combines p with others.
func (p Predicate) Or(others ...Predicate) Predicate {
	return Or(append([]Predicate{p}, others...)...)
}

// IsZero reports whether p places no restriction on the result.
func (p Predicate) IsZero() bool {
	return p.op == opNone
}

func (p Predicate) String() string {
	switch p.op {
	case opNone:
		return "true"
	case opAnd, opOr:
		parts := make([]string, len(p.children))
		for i, c := range p.children {
			parts[i] = c.String()
		}
		return "(" + strings.Join(parts, " "+string(p.op)+" ") + ")"
	case opNot:
		return "not " + p.children[0].String()
	case opIsNull, opNotNull:
		return fmt.Sprintf("%s %s", p.field, p.op)
	default:
		return fmt.Sprintf("%s %s %v", p.field, p.op, p.values)
	}
}

// expression translates p into a gorm clause expression. A nil expression
// means "no restriction".
func (p Predicate) expression(s *schema.Schema) (clause.Expression, error) {
	switch p.op {
	case opNone:
		return nil, nil
	case opAnd, opOr:
		exprs := make([]clause.Expression, 0, len(p.children))
		for _, child := range p.children {
			expr, err := child.expression(s)
			if err != nil {
				return nil, err
			}
			if expr != nil {
				exprs = append(exprs, expr)
			}
		}
		if len(exprs) == 0 {
			return nil, nil
		}
		if p.op == opAnd {
			return clause.And(exprs...), nil
		}
		return clause.Or(exprs...), nil
	case opNot:
		expr, err := p.children[0].expression(s)
		if err != nil {
			return nil, err
		}
		if expr == nil {
			// not(true) matches nothing
			return clause.Expr{SQL: "1 = 0"}, nil
		}
		return clause.Not(expr), nil
	}

	column, err := resolveColumn(s, p.field)
	if err != nil {
		return nil, err
	}

	switch p.op {
	case opEq:
		if p.values[0] == nil {
			return clause.Expr{SQL: "? IS NULL", Vars: []any{column}}, nil
		}
		return clause.Eq{Column: column, Value: p.values[0]}, nil
	case opNe:
		if p.values[0] == nil {
			return clause.Expr{SQL: "? IS NOT NULL", Vars: []any{column}}, nil
		}
		return clause.Neq{Column: column, Value: p.values[0]}, nil
	case opGt:
		return clause.Gt{Column: column, Value: p.values[0]}, nil
	case opGte:
		return clause.Gte{Column: column, Value: p.values[0]}, nil
	case opLt:
		return clause.Lt{Column: column, Value: p.values[0]}, nil
	case opLte:
		return clause.Lte{Column: column, Value: p.values[0]}, nil
	case opIn:
		if len(p.values) == 0 {
			return clause.Expr{SQL: "1 = 0"}, nil
		}
		return clause.IN{Column: column, Values: p.values}, nil
	case opLike:
		return clause.Like{Column: column, Value: p.values[0]}, nil
	case opIsNull:
		return clause.Expr{SQL: "? IS NULL", Vars: []any{column}}, nil
	case opNotNull:
		return clause.Expr{SQL: "? IS NOT NULL", Vars: []any{column}}, nil
	}

	return nil, fmt.Errorf("%w: unsupported operator %q", ErrInvalidArgument, p.op)
}

func resolveColumn(s *schema.Schema, name string) (clause.Column, error) {
	field := s.LookUpField(name)
	if field == nil || field.DBName == "" {
		return clause.Column{}, fmt.Errorf("%w: unknown field %q on %s", ErrInvalidArgument, name, s.Table)
	}
	return clause.Column{Table: clause.CurrentTable, Name: field.DBName}, nil
}
