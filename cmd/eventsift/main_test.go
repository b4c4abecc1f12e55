package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthside/eventsift/internal/model"
)

const refFlag = "2024-01-01 10:00:00"

// isolate blanks every variable the config resolver reads.
func isolate(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"EVENTSIFT_TIMEZONE", "EVENTSIFT_LLM", "EVENTSIFT_LOG_LEVEL", "EVENTSIFT_LOG_FORMAT",
		"EVENTSIFT_DEFAULT_CURRENCY", "EVENTSIFT_CATEGORY_DURATIONS", "EVENTSIFT_LLM_API_KEY",
		"OPENROUTER_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY",
	} {
		t.Setenv(k, "")
	}
}

// execute runs the CLI against a missing config file in UTC and returns
// stdout and stderr.
func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	base := []string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "--tz", "UTC"}

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetArgs(append(args, base...))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	isolate(t)
	return execute(t, stdin, args...)
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "eventsift dev\n", out)
}

func TestParseStdin(t *testing.T) {
	reply := "Here you go:\n```json\n{\"events\": [{\"title\": \"Dentist\", \"date\": \"2024-01-03\", \"time\": \"14:30\"}]}\n```"
	out, _, err := run(t, reply, "parse", "--ref", refFlag)
	require.NoError(t, err)

	var env model.Envelope[model.NormalizedEvent]
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	require.Len(t, env.Records, 1)
	ev := env.Records[0]
	assert.Equal(t, "Dentist", ev.Title)
	assert.True(t, ev.StartTime.Equal(time.Date(2024, 1, 3, 14, 30, 0, 0, time.UTC)), ev.StartTime)
	assert.Equal(t, time.Hour, ev.Duration())
	assert.Equal(t, model.StageDone, env.Stage)
}

func TestParseFileICS(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reply.txt")
	reply := `{"events": [{"title": "Standup", "startTime": "2024-01-02 09:30:00", "recurrenceRule": "FREQ=WEEKLY;BYDAY=MO,WE"}]}`
	require.NoError(t, os.WriteFile(path, []byte(reply), 0o600))

	out, _, err := run(t, "", "parse", path, "--ref", refFlag, "--format", "ics")
	require.NoError(t, err)
	assert.Contains(t, out, "BEGIN:VEVENT")
	assert.Contains(t, out, "SUMMARY:Standup")
	assert.Contains(t, out, "RRULE:FREQ=WEEKLY")
}

func TestParseFromICS(t *testing.T) {
	reply := `{"events": [{"title": "Standup", "startTime": "2024-01-02 09:30:00", "recurrenceRule": "FREQ=WEEKLY;BYDAY=TU"}]}`
	calendar, _, err := run(t, reply, "parse", "--ref", refFlag, "--format", "ics")
	require.NoError(t, err)

	out, stderr, err := run(t, calendar, "parse", "--from-ics", "--ref", refFlag, "--preview", "2")
	require.NoError(t, err)

	var env model.Envelope[model.NormalizedEvent]
	require.NoError(t, json.Unmarshal([]byte(out), &env), out)
	require.Len(t, env.Records, 1)
	ev := env.Records[0]
	assert.Equal(t, "Standup", ev.Title)
	assert.True(t, ev.StartTime.Equal(time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)), ev.StartTime)
	require.NotNil(t, ev.RecurrenceRule)
	assert.Equal(t, []string{"TU"}, ev.RecurrenceRule.ByDay)
	assert.Equal(t, model.StageDone, env.Stage)
	assert.Contains(t, stderr, "2024-01-09 09:30:00  Tue")
}

func TestParseFromICSRejectsOtherKinds(t *testing.T) {
	_, _, err := run(t, "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n", "parse", "--from-ics", "--kind", "todos")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "events only")
}

func TestParseICSUnsupportedKind(t *testing.T) {
	_, _, err := run(t, `{"amount": 5, "category": "food"}`, "parse", "--kind", "expenses", "--format", "ics", "--ref", refFlag)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "events and todos only")
}

func TestParseUnknownKind(t *testing.T) {
	_, _, err := run(t, "{}", "parse", "--kind", "recipes")
	require.Error(t, err)
}

func TestParsePreview(t *testing.T) {
	reply := `{"events": [{"title": "Gym", "startTime": "2024-01-01 18:00:00", "recurrenceRule": {"frequency": "daily"}}]}`
	_, stderr, err := run(t, reply, "parse", "--ref", refFlag, "--preview", "3")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Gym (FREQ=DAILY")
	assert.Contains(t, stderr, "2024-01-01 18:00:00  Mon")
	assert.Contains(t, stderr, "2024-01-03 18:00:00  Wed")
}

func TestParseFallback(t *testing.T) {
	out, _, err := run(t, "Sorry, I can't help with that.", "parse", "--ref", refFlag, "--input", "call the bank tomorrow at 4pm")
	require.NoError(t, err)

	var env model.Envelope[model.NormalizedEvent]
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.Equal(t, model.StageFallback, env.Stage)
	require.Len(t, env.Records, 1)
	assert.True(t, env.Records[0].StartTime.Equal(time.Date(2024, 1, 2, 16, 0, 0, 0, time.UTC)), env.Records[0].StartTime)
}

func TestResolveDate(t *testing.T) {
	out, _, err := run(t, "", "resolve-date", "明天下午3點", "--ref", refFlag)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-02 15:00:00\trelative\n", out)
}

func TestResolveDateRejects(t *testing.T) {
	_, _, err := run(t, "", "resolve-date", "2024-02-30 10:00:00", "--ref", refFlag)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "day_out_of_range")
}

func TestBadReference(t *testing.T) {
	_, _, err := run(t, "", "resolve-date", "tomorrow", "--ref", "soonish")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid --ref")
}

func TestConfigMasksKeys(t *testing.T) {
	isolate(t)
	t.Setenv("GEMINI_API_KEY", "abcdefghijkl1234")

	out, _, err := execute(t, "", "config")
	require.NoError(t, err)
	assert.NotContains(t, out, "abcdefghijkl1234")
	assert.Contains(t, out, "************1234")
	assert.Contains(t, out, `"source": "env"`)
	assert.Contains(t, out, `"from": "--tz"`)
}

func TestExtractRequiresKey(t *testing.T) {
	_, _, err := run(t, "", "extract", "lunch with Ana friday", "--llm", "google/gemini-2.5-flash")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestExtractUnknownProvider(t *testing.T) {
	_, _, err := run(t, "", "extract", "lunch", "--llm", "acme/model-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider")
}
