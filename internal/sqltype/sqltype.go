package sqltype

import "github.com/quarrydb/quarry/internal/codegen"

// Layout is the materialization descriptor consumed by the storage layer:
// the fixed in-memory width of the stored form, and whether a separate
// length accompanies it.
type Layout struct {
	// ValWidth is the fixed byte width of the stored value. Zero for
	// variable-length types, whose width is the accompanying length.
	ValWidth int

	// HasLength is true for variable-length types.
	HasLength bool
}

// SqlType is the singleton descriptor for one logical SQL type. Exactly one
// instance exists per TypeID; instances are immutable after process start.
type SqlType interface {
	// ID returns the logical type id.
	ID() TypeID

	// Name returns the SQL name, e.g. "INTEGER".
	Name() string

	// TypeSystem returns the type's read-only operator registry.
	TypeSystem() *TypeSystem

	// MinValue and MaxValue emit the smallest and largest non-null values
	// of the type. Undefined for types without an ordering domain.
	MinValue(e codegen.Emitter) Value
	MaxValue(e codegen.Emitter) Value

	// NullValue emits the type's null value: the null sentinel as primary
	// handle and a set null indicator.
	NullValue(e codegen.Emitter) Value

	// Layout describes the stored form.
	Layout() Layout

	// EncodeStored serializes a runtime result into the stored byte form,
	// folding NULL into the type's sentinel encoding. DecodeStored is its
	// inverse. These are the input/output pair the storage layer drives.
	EncodeStored(s codegen.Scalar) ([]byte, error)
	DecodeStored(buf []byte) (codegen.Scalar, error)
}

// Singletons, one per logical type. Constructed once at package
// initialization; their operator tables are never mutated afterwards.
var (
	Boolean  SqlType = newBooleanType()
	TinyInt  SqlType = newIntType(TinyIntID, codegen.W8)
	SmallInt SqlType = newIntType(SmallIntID, codegen.W16)
	Integer  SqlType = newIntType(IntegerID, codegen.W32)
	BigInt   SqlType = newIntType(BigIntID, codegen.W64)
	Decimal  SqlType = newDecimalType()
	Varchar  SqlType = newVarcharType()
)

var byID = [numTypeIDs]SqlType{
	BooleanID:  Boolean,
	TinyIntID:  TinyInt,
	SmallIntID: SmallInt,
	IntegerID:  Integer,
	BigIntID:   BigInt,
	DecimalID:  Decimal,
	VarcharID:  Varchar,
}

// FromID returns the singleton for a type id. Panics on an unregistered
// id: callers hold Types that can only have been built from valid ids.
func FromID(id TypeID) SqlType {
	if int(id) >= len(byID) || byID[id] == nil {
		panic("sqltype: no SqlType registered for id " + id.String())
	}
	return byID[id]
}

// All returns the registered singletons in id order.
func All() []SqlType {
	out := make([]SqlType, 0, len(byID))
	for _, st := range byID {
		if st != nil {
			out = append(out, st)
		}
	}
	return out
}
