package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/quarrydb/quarry/internal/compiler"
)

// AssertGolden compares data against testdata/golden/{name}.golden,
// relative to the calling test's package directory.
//
// To regenerate golden files, run:
//
//	go test <package> -update
func AssertGolden(t *testing.T, name string, data []byte) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}

// AssertUnitGolden snapshots a compiled unit with its cases and compares
// the report against testdata/golden/{name}.golden.
func AssertUnitGolden(t *testing.T, name string, u *compiler.Unit, cases ...Case) {
	t.Helper()
	AssertGolden(t, name, Snapshot(u, cases))
}
