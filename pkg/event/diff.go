package event

import (
	"reflect"
	"time"

	"github.com/scheduleshare/event-manager/pkg/model"
)

// FieldDiff holds the two values a snapshot field took in the compared versions.
type FieldDiff struct {
	VersionA any `json:"version1"`
	VersionB any `json:"version2"`
}

// Diff is a field-level comparison of two snapshots, keyed by serialized field name.
// Fields with equal values are omitted; comparing identical snapshots yields an empty
// map, not nil.
type Diff map[string]FieldDiff

// diffSnapshots compares the union of both snapshots' fields, excluding identity and
// timestamp metadata (which [model.EventSnapshot.Fields] already strips). Values are
// compared strictly, without normalization.
func diffSnapshots(a, b model.EventSnapshot) Diff {
	fieldsA := a.Fields()
	fieldsB := b.Fields()

	diff := Diff{}
	for name, valueA := range fieldsA {
		valueB := fieldsB[name]
		if !valuesEqual(valueA, valueB) {
			diff[name] = FieldDiff{VersionA: valueA, VersionB: valueB}
		}
	}

	return diff
}

func valuesEqual(a, b any) bool {
	// time.Time carries wall-clock representation details (location, monotonic reading)
	// that must not influence equality
	if timeA, ok := a.(time.Time); ok {
		timeB, ok := b.(time.Time)
		return ok && timeA.Equal(timeB)
	}

	return reflect.DeepEqual(a, b)
}
