package testutil

import "testing"

// Scenario steps run as nested subtests, so a failing rule shows up in the
// test output as "Given .../When .../Then ...".

func Given(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	step(t, "Given", desc, fn)
}

func When(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	step(t, "When", desc, fn)
}

func Then(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	step(t, "Then", desc, fn)
}

// And continues the previous step without nesting another keyword.
func And(t *testing.T, desc string, fn func(t *testing.T)) {
	t.Helper()
	step(t, "And", desc, fn)
}

// step stops sibling steps once one fails: later steps assume the state an
// earlier step established.
func step(t *testing.T, keyword, desc string, fn func(t *testing.T)) {
	t.Helper()
	if t.Failed() {
		t.Logf("not running %q: an earlier step failed", keyword+" "+desc)
		return
	}
	t.Run(keyword+" "+desc, fn)
}
