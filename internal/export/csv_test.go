package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dm/spm-go/internal/model"
)

func TestWriteCSV(t *testing.T) {
	r := model.Report{Rows: []model.Row{
		{Category: model.CategoryServer, Name: "Roles", Health: model.HealthNA, Value: "indexer, search_head"},
		{Category: model.CategoryResources, Name: "CPU Usage", Health: model.HealthWarning, Value: "95%"},
		{Category: model.CategoryResources, Name: "Disk Usage", Health: model.HealthOK, Value: "'/': 40%, '/opt': 12%"},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, r, "spm report", "instance: idx1:8089"))

	assert.Equal(t, strings.Join([]string{
		"# spm report",
		"# instance: idx1:8089",
		"Category,Name,Health,Value",
		"Server,Roles,N/A,indexer; search_head",
		"Resources,CPU Usage,Warning,95%",
		"Resources,Disk Usage,OK,'/': 40%; '/opt': 12%",
		"",
	}, "\n"), buf.String())
}

func TestWriteCSV_EveryLineHasFourColumns(t *testing.T) {
	r := model.Report{Rows: []model.Row{
		{Category: "A,B", Name: "x,y,z", Health: model.HealthUnknown, Value: "?"},
		{Category: "C", Name: "empty", Health: model.HealthNA, Value: ""},
	}}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, r))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		assert.Equal(t, 3, strings.Count(line, ","), line)
	}
}

func TestWriteCSV_MultilineComment(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, model.Report{}, "a\nb"))
	assert.Equal(t, "# a\n# b\nCategory,Name,Health,Value\n", buf.String())
}

func TestWriteCSV_FieldsStayUnquoted(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"quote and comma", `Search peer "idx1" is down, retrying`, `Search peer "idx1" is down; retrying`},
		{"leading space", " Linux 5.4", " Linux 5.4"},
		{"newline", "line one\nline two", "line one line two"},
		{"crlf", "a\r\nb\rc", "a b c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := model.Report{Rows: []model.Row{
				{Category: model.CategoryServer, Name: "msg", Health: model.HealthWarning, Value: tt.value},
			}}
			var buf bytes.Buffer
			require.NoError(t, WriteCSV(&buf, r))

			lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
			require.Len(t, lines, 2)
			assert.Equal(t, "Server,msg,Warning,"+tt.want, lines[1])
		})
	}
}

func TestWriteTable(t *testing.T) {
	tbl := model.Table{
		Name:    "messages",
		Columns: []string{"Time", "Severity", "Title", "Description"},
		Rows: [][]string{
			{"2024-03-01 12:00:00", "warn", "peer_down", `Search peer "idx1" is down, retrying`},
			{"2024-03-01 12:05:00", "info", "restart", "Restart\nrequired"},
		},
		Known: true,
	}
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, tbl, "Instance: sh1:8089"))

	assert.Equal(t, strings.Join([]string{
		"# Instance: sh1:8089",
		"Time,Severity,Title,Description",
		`2024-03-01 12:00:00,warn,peer_down,Search peer "idx1" is down; retrying`,
		"2024-03-01 12:05:00,info,restart,Restart required",
		"",
	}, "\n"), buf.String())
}
