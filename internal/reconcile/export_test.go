package reconcile

import "testing"

func SetUnmatchedPageSize(t *testing.T, n int) {
	old := unmatchedPageSize
	unmatchedPageSize = n
	t.Cleanup(func() { unmatchedPageSize = old })
}
