package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/regrest/internal/logger"
	"github.com/roach88/regrest/internal/record"
	"github.com/roach88/regrest/internal/store"
)

// seedRecords fills a file store at dir with a known set of records and
// returns their ids keyed by subject string.
func seedRecords(t *testing.T, dir string) map[string]string {
	t.Helper()

	st, err := store.NewFileStore(dir)
	require.NoError(t, err)
	defer st.Close()

	asm := record.NewAssembler(nil)
	asm.Clock = record.FixedClock{T: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}

	ids := make(map[string]string)
	seeds := []struct {
		subject record.Subject
		args    []any
		kwargs  map[string]any
		result  any
	}{
		{record.Subject{Module: "calc", Function: "add"}, []any{2, 3}, nil, 5},
		{record.Subject{Module: "calc", Function: "mul"}, []any{4, 4}, nil, 16},
		{record.Subject{Module: "text", Function: "greet"}, []any{"world"}, map[string]any{"upper": true}, "HELLO"},
	}
	for _, s := range seeds {
		rec, err := asm.Capture(s.subject, s.args, s.kwargs, s.result)
		require.NoError(t, err)
		data, err := rec.Marshal()
		require.NoError(t, err)
		require.NoError(t, st.Put(rec.Key(), data))
		ids[s.subject.String()] = rec.RecordID
	}
	return ids
}

// execute runs the CLI with args and returns combined output and the error.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	root := NewRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	if stdin != "" {
		root.SetIn(strings.NewReader(stdin))
	}
	root.SetArgs(args)

	err := root.Execute()
	return buf.String(), err
}

func TestVerboseFromEnvironment(t *testing.T) {
	t.Cleanup(func() { logger.SetVerbose(false) })

	t.Setenv("REGREST_VERBOSE", "")
	_, err := execute(t, "", "list", "--storage-dir", t.TempDir())
	require.NoError(t, err)
	assert.False(t, logger.IsVerbose())

	t.Setenv("REGREST_VERBOSE", "1")
	_, err = execute(t, "", "list", "--storage-dir", t.TempDir())
	require.NoError(t, err)
	assert.True(t, logger.IsVerbose())
}

func TestListEmptyStore(t *testing.T) {
	out, err := execute(t, "", "list", "--storage-dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No test records found.")
}

func TestListGroupsBySubject(t *testing.T) {
	dir := t.TempDir()
	seedRecords(t, dir)

	out, err := execute(t, "", "list", "--storage-dir", dir)
	require.NoError(t, err)

	assert.Contains(t, out, "Found 3 test record(s)")
	assert.Contains(t, out, "calc:")
	assert.Contains(t, out, "  add()")
	assert.Contains(t, out, "  mul()")
	assert.Contains(t, out, "text:")
	assert.Contains(t, out, "Arguments: [2,3]")
	assert.Contains(t, out, "Result: 16")
}

func TestListKeywordFilter(t *testing.T) {
	dir := t.TempDir()
	seedRecords(t, dir)

	out, err := execute(t, "", "list", "--storage-dir", dir, "-k", "greet")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 test record(s)")
	assert.Contains(t, out, "greet()")
	assert.NotContains(t, out, "add()")
}

func TestListJSON(t *testing.T) {
	dir := t.TempDir()
	ids := seedRecords(t, dir)

	out, err := execute(t, "", "list", "--storage-dir", dir, "--format", "json")
	require.NoError(t, err)

	var payload struct {
		Records []recordSummary `json:"records"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	require.Len(t, payload.Records, 3)
	assert.Equal(t, ids["calc.add"], payload.Records[0].RecordID)
	assert.Equal(t, "calc", payload.Records[0].Module)
}

func TestShowByPrefix(t *testing.T) {
	dir := t.TempDir()
	ids := seedRecords(t, dir)

	out, err := execute(t, "", "show", ids["calc.add"][:8], "--storage-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Subject:   calc.add")
	assert.Contains(t, out, "Record ID: "+ids["calc.add"])
	assert.Contains(t, out, "Result:    5")
}

func TestShowNotFound(t *testing.T) {
	dir := t.TempDir()
	seedRecords(t, dir)

	_, err := execute(t, "", "show", "ffffffffffffffff", "--storage-dir", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestShowRejectsShortPrefix(t *testing.T) {
	dir := t.TempDir()
	ids := seedRecords(t, dir)

	_, err := execute(t, "", "show", ids["calc.add"][:3], "--storage-dir", dir)
	require.Error(t, err)
}

func TestDeleteByID(t *testing.T) {
	dir := t.TempDir()
	ids := seedRecords(t, dir)

	out, err := execute(t, "", "delete", ids["calc.mul"], "--storage-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted record")

	out, err = execute(t, "", "list", "--storage-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Found 2 test record(s)")
	assert.NotContains(t, out, "mul()")
}

func TestDeleteAllSkipConfirmation(t *testing.T) {
	dir := t.TempDir()
	seedRecords(t, dir)

	out, err := execute(t, "", "delete", "--all", "-y", "--storage-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 3 record(s).")
}

func TestDeleteAllCancelled(t *testing.T) {
	dir := t.TempDir()
	seedRecords(t, dir)

	out, err := execute(t, "n\n", "delete", "--all", "--storage-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Cancelled.")

	out, err = execute(t, "", "list", "--storage-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Found 3 test record(s)")
}

func TestDeleteByPattern(t *testing.T) {
	dir := t.TempDir()
	seedRecords(t, dir)

	out, err := execute(t, "", "delete", "--pattern", "calc", "-y", "--storage-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 2 record(s).")
}

func TestDeleteRequiresSelector(t *testing.T) {
	_, err := execute(t, "", "delete", "--storage-dir", t.TempDir())
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVerifyHealthyStore(t *testing.T) {
	dir := t.TempDir()
	seedRecords(t, dir)

	out, err := execute(t, "", "verify", "--storage-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Total: 3 | Healthy: 3 | Broken: 0")
}

func TestVerifyBrokenRecordFailsExitCode(t *testing.T) {
	dir := t.TempDir()
	seedRecords(t, dir)

	// Damage one record file in place.
	st, err := store.NewFileStore(dir)
	require.NoError(t, err)
	keys, err := st.List("calc.add/")
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.NoError(t, st.Put(keys[0], []byte("{torn")))
	st.Close()

	out, err := execute(t, "", "verify", "--storage-dir", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "BROKEN")
}

func TestValidateCleanStore(t *testing.T) {
	dir := t.TempDir()
	seedRecords(t, dir)

	out, err := execute(t, "", "validate", "--storage-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "All 3 record(s) valid.")
}

func TestValidateDetectsViolations(t *testing.T) {
	dir := t.TempDir()
	seedRecords(t, dir)

	st, err := store.NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, st.Put("calc.add/ffffffffffffffff",
		[]byte(`{"module":"calc","function":"add","record_id":"NOT-HEX"}`)))
	st.Close()

	_, err = execute(t, "", "validate", "--storage-dir", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
}

func TestInvalidFormatRejected(t *testing.T) {
	_, err := execute(t, "", "list", "--storage-dir", t.TempDir(), "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestFindByID(t *testing.T) {
	records := []record.Record{
		{Module: "m", Function: "f", RecordID: "aaaa111122223333"},
		{Module: "m", Function: "g", RecordID: "aaaa999988887777"},
	}

	_, okFound := findByID(records, "aaaa")
	assert.False(t, okFound, "ambiguous prefix must not match")

	rec, okFound := findByID(records, "aaaa1111")
	require.True(t, okFound)
	assert.Equal(t, "aaaa111122223333", rec.RecordID)

	_, okFound = findByID(records, "aa")
	assert.False(t, okFound, "prefixes shorter than 4 are rejected")
}
