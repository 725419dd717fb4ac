package repository

import (
	stdsql "database/sql"
	"encoding/json"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

func nullStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullFloat(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return p.UTC()
}

// nullJSON marshals v, storing SQL NULL for nil values.
func nullJSON(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		return nil, nil
	}
	return string(b), nil
}

func strOf(ns stdsql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func floatOf(nf stdsql.NullFloat64) *float64 {
	if !nf.Valid {
		return nil
	}
	f := nf.Float64
	return &f
}

func timeOf(nt stdsql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time.UTC()
	return &t
}

// sharedOr scopes column to orgID plus shared (NULL) rows; a nil orgID keeps shared rows only.
func sharedOr(column string, orgID *string) *entsql.Predicate {
	if orgID == nil {
		return entsql.IsNull(column)
	}
	return entsql.Or(entsql.EQ(column, *orgID), entsql.IsNull(column))
}
