// Package shared holds helpers used by the tests of several packages.
//
// The testutil subpackage provides:
//
//   - a slog handler capturing records so tests can assert on logs
//   - writers for raw extract fixtures, gzipped or not
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    dir := t.TempDir()
//	    testutil.WriteExtract(t, dir, "balag.csv.gz", content)
//
//	    // run code logging to logger
//	    testutil.AssertLogContains(t, logs, slog.LevelInfo, "operation_complete")
//	}
package shared
