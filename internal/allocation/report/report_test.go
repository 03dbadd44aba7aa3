package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"

	"github.com/armadaproject/fairshare/internal/allocation/solver"
	"github.com/armadaproject/fairshare/internal/allocation/testfixtures"
)

func workedExampleReport() Report {
	problem := testfixtures.WithConsumers(testfixtures.WorkedExampleProblem(), testfixtures.Consumer("C", 0, 0))
	return New("worked-example", testfixtures.SolveOrPanic(solver.ExactStrategy, problem))
}

func TestNew(t *testing.T) {
	r := workedExampleReport()
	assert.Equal(t, "worked-example", r.Problem)
	assert.Equal(t, "exact", r.Strategy)
	assert.Equal(t, 0.1, r.Tolerance)
	assert.Equal(t, map[string]string{"cpu": "9", "memory": "18"}, r.Capacity)
	assert.Equal(t, map[string]string{"cpu": "9", "memory": "14"}, r.Usage)
	assert.InDelta(t, 1.0, r.Utilisation["cpu"], 1e-9)
	assert.Equal(t, int64(5), r.TotalTasks)
	require.Len(t, r.Consumers, 3)

	a := r.Consumers[0]
	assert.Equal(t, "A", a.Name)
	assert.Equal(t, int64(3), a.Tasks)
	assert.Equal(t, "memory", a.DominantResource)
	assert.Equal(t, map[string]string{"cpu": "3", "memory": "12"}, a.Usage)
	assert.False(t, a.Excluded)

	c := r.Consumers[2]
	assert.Equal(t, "C", c.Name)
	assert.True(t, c.Excluded)
	assert.Contains(t, c.Reason, "C")
}

func TestWrite_Text(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Write(&out, FormatText, workedExampleReport()))

	lines := strings.Split(out.String(), "\n")
	assertLine(t, lines, "Problem:", "worked-example")
	assertLine(t, lines, "Strategy:", "exact")
	assertLine(t, lines, "Capacity:", "cpu=9", "memory=18")
	assertLine(t, lines, "Usage:", "cpu=9", "memory=14")
	assertLine(t, lines, "Utilisation:", "cpu=100.0%", "memory=77.8%")
	assertLine(t, lines, "Total", "tasks:", "5")
	assertLine(t, lines, "A", "1", "3", "memory", "0.2222", "0.6667", "cpu=3", "memory=12", "ok")
	assertLine(t, lines, "B", "1", "2", "cpu", "0.3333", "0.6667", "cpu=6", "memory=2", "ok")
	assert.Contains(t, out.String(), "excluded: ")
}

func TestWrite_TextRunId(t *testing.T) {
	r := workedExampleReport()
	assert.Empty(t, r.RunId)
	var out bytes.Buffer
	require.NoError(t, Write(&out, FormatText, r))
	assert.NotContains(t, out.String(), "Run id:")

	r.RunId = "7c1b2a"
	out.Reset()
	require.NoError(t, Write(&out, FormatText, r))
	assertLine(t, strings.Split(out.String(), "\n"), "Run", "id:", "7c1b2a")
}

func TestWrite_TextTruncated(t *testing.T) {
	r := workedExampleReport()
	var out bytes.Buffer
	require.NoError(t, Write(&out, FormatText, r))
	assert.NotContains(t, out.String(), "Search:")

	r.Truncated = true
	out.Reset()
	require.NoError(t, Write(&out, FormatText, r))
	assertLine(t, strings.Split(out.String(), "\n"), "Search:", "truncated;", "allocation", "may", "not", "be", "optimal")

	out.Reset()
	require.NoError(t, Write(&out, FormatJson, r))
	assert.Contains(t, out.String(), `"truncated": true`)
}

func TestWrite_TextMultipleReports(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Write(&out, FormatText, workedExampleReport(), workedExampleReport()))
	assert.Equal(t, 2, strings.Count(out.String(), "Problem:"))
}

// assertLine asserts that some line consists of exactly the given whitespace-separated fields.
func assertLine(t *testing.T, lines []string, fields ...string) {
	t.Helper()
	for _, line := range lines {
		if assert.ObjectsAreEqual(fields, strings.Fields(line)) {
			return
		}
	}
	t.Errorf("no line with fields %v in\n%s", fields, strings.Join(lines, "\n"))
}

func TestWrite_Json(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Write(&out, FormatJson, workedExampleReport()))

	var decoded []Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, int64(5), decoded[0].TotalTasks)
	assert.Equal(t, int64(3), decoded[0].Consumers[0].Tasks)
	assert.Contains(t, out.String(), `"totalTasks": 5`)
}

func TestWrite_Yaml(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, Write(&out, FormatYaml, workedExampleReport()))

	var decoded []Report
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "worked-example", decoded[0].Problem)
	assert.Contains(t, out.String(), "totalTasks: 5")
}

func TestParseFormat(t *testing.T) {
	tests := map[string]struct {
		input    string
		expected Format
		err      bool
	}{
		"text":    {input: "text", expected: FormatText},
		"json":    {input: "JSON", expected: FormatJson},
		"yaml":    {input: "yaml", expected: FormatYaml},
		"empty":   {input: "", expected: FormatText},
		"unknown": {input: "xml", err: true},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			format, err := ParseFormat(tc.input)
			if tc.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, format)
		})
	}
}

func TestWrite_UnknownFormat(t *testing.T) {
	assert.Error(t, Write(&bytes.Buffer{}, Format("xml"), workedExampleReport()))
}

func TestWrite_TextFromDecodedReport(t *testing.T) {
	var encoded bytes.Buffer
	require.NoError(t, Write(&encoded, FormatJson, workedExampleReport()))
	var decoded []Report
	require.NoError(t, json.Unmarshal(encoded.Bytes(), &decoded))

	var out bytes.Buffer
	require.NoError(t, Write(&out, FormatText, decoded...))
	assertLine(t, strings.Split(out.String(), "\n"), "Capacity:", "cpu=9", "memory=18")
}
