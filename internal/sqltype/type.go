package sqltype

// TypeID identifies a logical SQL type.
type TypeID uint8

const (
	// InvalidID is the zero TypeID and never names a registered type.
	InvalidID TypeID = iota
	BooleanID
	TinyIntID
	SmallIntID
	IntegerID
	BigIntID
	DecimalID
	VarcharID

	numTypeIDs
)

var typeNames = map[TypeID]string{
	BooleanID:  "BOOLEAN",
	TinyIntID:  "TINYINT",
	SmallIntID: "SMALLINT",
	IntegerID:  "INTEGER",
	BigIntID:   "BIGINT",
	DecimalID:  "DECIMAL",
	VarcharID:  "VARCHAR",
}

// String returns the SQL name of the type id.
func (id TypeID) String() string {
	if s, ok := typeNames[id]; ok {
		return s
	}
	return "INVALID"
}

// TypeIDFromName resolves a SQL type name (as printed by String) back to
// its id. Returns InvalidID for unknown names.
func TypeIDFromName(name string) TypeID {
	for id, s := range typeNames {
		if s == name {
			return id
		}
	}
	return InvalidID
}

// Type is a logical type annotation on a Value: the SQL type plus whether
// the value may be NULL. The nullable flag decides whether a Value of this
// Type carries a null-indicator handle.
type Type struct {
	ID       TypeID
	Nullable bool
}

// NonNullable returns the non-nullable Type for id.
func NonNullable(id TypeID) Type { return Type{ID: id} }

// Nullable returns the nullable Type for id.
func Nullable(id TypeID) Type { return Type{ID: id, Nullable: true} }

// AsNullable returns the same logical type with the nullable flag set.
func (t Type) AsNullable() Type {
	t.Nullable = true
	return t
}

// SqlType returns the singleton descriptor owning this type's constants
// and operator tables.
func (t Type) SqlType() SqlType {
	return FromID(t.ID)
}

// String renders the type for diagnostics, e.g. "INTEGER" or "INTEGER?".
func (t Type) String() string {
	if t.Nullable {
		return t.ID.String() + "?"
	}
	return t.ID.String()
}
