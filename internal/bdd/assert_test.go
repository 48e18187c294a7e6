package bdd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpectEqual(t *testing.T) {
	require.NoError(t, expectEqual("impact", "LOW", "LOW"))

	err := expectEqual("impact", "LOW", "MODERATE")
	var ae *AssertionError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, `impact should be "LOW", got "MODERATE"`, err.Error())
	assert.Empty(t, ae.Diff, "short values carry no diff")

	err = expectEqual("count", 3, 4)
	assert.Equal(t, "count should be 3, got 4", err.Error())
}

func TestExpectEqualDiffsLongStrings(t *testing.T) {
	SetColor(false)
	want := "A flaw in the foo parser allows remote code execution"
	got := "A flaw in the bar parser allows remote code execution"

	err := expectEqual("description", want, got)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "diff: A flaw in the [-foo-]{+bar+} parser")
}

func TestExpectContains(t *testing.T) {
	require.NoError(t, expectContains("title", "test1 security flaw bug", "flaw"))
	err := expectContains("title", "test1", "flaw")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `text containing "flaw"`)
}

func TestExpectTrue(t *testing.T) {
	require.NoError(t, expectTrue("sorted", true))
	assert.EqualError(t, expectTrue("sorted", false), "sorted should be true, got false")
}

func TestStepLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewStepLogger(&buf)
	l.Scenario("Update the CWE ID")
	l.Step("I go to a flaw detail page")
	l.Step("I update the CWE ID")
	l.Result("%s", "passed")
	l.Expected("CWE ID", "CWE-79", "CWE-79", true)
	l.Expected("impact", "LOW", "HIGH", false)
	l.Elapsed()

	out := buf.String()
	assert.Contains(t, out, "SCENARIO: Update the CWE ID")
	assert.Contains(t, out, "STEP 1: I go to a flaw detail page")
	assert.Contains(t, out, "STEP 2: I update the CWE ID")
	assert.Contains(t, out, "  -> Result: passed")
	assert.Contains(t, out, `  -> Expected CWE ID: "CWE-79", got "CWE-79" [OK]`)
	assert.Contains(t, out, `  -> Expected impact: "LOW", got "HIGH" [X]`)
	assert.True(t, strings.Contains(out, "Elapsed: "))

	l.Scenario("next")
	l.Step("first again")
	assert.Contains(t, buf.String(), "STEP 1: first again")
}

func TestStepLoggerNilDiscards(t *testing.T) {
	l := NewStepLogger(nil)
	l.Info("nothing %d", 1)
}
