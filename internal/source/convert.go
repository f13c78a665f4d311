package source

// convert.go maps PostgreSQL values to table values and back.
//
// Loads go through rows.Values(), so incoming values are whatever pgx decodes
// for the column OID: Go scalars, time.Time, pgtype.Numeric, [16]byte UUIDs.
// Write-back sends pgtype values so NULLs and numerics round-trip exactly.

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/datatable/internal/core"
)

// FromPg converts a value decoded by pgx into a core.Value.
// Unknown non-nil types are rendered with fmt and kept as strings.
func FromPg(v any) core.Value {
	switch val := v.(type) {
	case nil:
		return core.Null
	case pgtype.Numeric:
		if !val.Valid || val.NaN {
			return core.Null
		}
		f, err := val.Float64Value()
		if err != nil || !f.Valid {
			return core.Null
		}
		return core.Number(f.Float64)
	case pgtype.Text:
		if !val.Valid {
			return core.Null
		}
		return core.String(val.String)
	case pgtype.Bool:
		if !val.Valid {
			return core.Null
		}
		return core.Bool(val.Bool)
	case pgtype.Int8:
		if !val.Valid {
			return core.Null
		}
		return core.Number(float64(val.Int64))
	case pgtype.Int4:
		if !val.Valid {
			return core.Null
		}
		return core.Number(float64(val.Int32))
	case pgtype.Float8:
		if !val.Valid {
			return core.Null
		}
		return core.Number(val.Float64)
	case pgtype.Date:
		if !val.Valid {
			return core.Null
		}
		return core.Date(val.Time)
	case pgtype.Timestamptz:
		if !val.Valid {
			return core.Null
		}
		return core.Date(val.Time)
	case pgtype.Timestamp:
		if !val.Valid {
			return core.Null
		}
		return core.Date(val.Time)
	case pgtype.UUID:
		if !val.Valid {
			return core.Null
		}
		return core.String(uuid.UUID(val.Bytes).String())
	case [16]byte:
		return core.String(uuid.UUID(val).String())
	case []byte:
		return core.String(string(val))
	}

	if cv := core.FromAny(v); !cv.IsNull() {
		return cv
	}
	return core.String(fmt.Sprint(v))
}

// ColumnTypeForOID picks the display type for a PostgreSQL column type.
func ColumnTypeForOID(oid uint32) core.ColumnType {
	switch oid {
	case pgtype.BoolOID:
		return core.TypeBoolean
	case pgtype.Int2OID, pgtype.Int4OID, pgtype.Int8OID,
		pgtype.Float4OID, pgtype.Float8OID, pgtype.NumericOID:
		return core.TypeNumber
	case pgtype.DateOID, pgtype.TimestampOID, pgtype.TimestamptzOID:
		return core.TypeDate
	default:
		return core.TypeString
	}
}

// ToPg converts a core.Value into a query argument for a column of type typ.
// String values destined for typed columns are parsed first; text that
// cannot be parsed is sent as NULL.
func ToPg(v core.Value, typ core.ColumnType) any {
	if s, ok := v.Str(); ok && typ != core.TypeString && typ != core.TypeLink {
		v = core.ParseValue(s, typ)
		if _, still := v.Str(); still {
			v = core.Null
		}
	}

	switch v.Kind() {
	case core.KindString:
		s, _ := v.Str()
		return pgtype.Text{String: s, Valid: true}
	case core.KindNumber:
		var n pgtype.Numeric
		if err := n.Scan(v.String()); err != nil {
			return pgtype.Numeric{}
		}
		return n
	case core.KindBool:
		b, _ := v.Boolean()
		return pgtype.Bool{Bool: b, Valid: true}
	case core.KindDate:
		t, _ := v.Time()
		if typ == core.TypeDate && isMidnight(t) {
			return pgtype.Date{Time: t, Valid: true}
		}
		return pgtype.Timestamptz{Time: t, Valid: true}
	default:
		return nil
	}
}

func isMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}

// quoteIdentifier quotes a SQL identifier. Dotted names are quoted per part,
// so "public.people" becomes "public"."people".
func quoteIdentifier(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}

// columnTitle converts a database column name to a header title.
// "first_name" -> "First Name"
func columnTitle(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool { return r == '_' || r == ' ' })
	for i, w := range words {
		if strings.EqualFold(w, "id") {
			words[i] = "ID"
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
