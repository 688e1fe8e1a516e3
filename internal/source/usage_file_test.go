package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naka-gawa/copilot-velocity/internal/domain"
)

func writeUsageFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "usage.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadUsageFile(t *testing.T) {
	path := writeUsageFile(t, `[
		{"developer": "Sarah Chen", "date": "2024-03-01", "suggestions_count": 200, "acceptances_count": 90, "lines_accepted": 150, "chat_turns": 4},
		{"developer": "David Kim", "date": "2024-03-01", "suggestions_count": 0, "acceptances_count": 0}
	]`)

	records, err := LoadUsageFile(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Sarah Chen", records[0].Developer)
	assert.Equal(t, domain.MustDate("2024-03-01"), records[0].Date)
	assert.Equal(t, 45.0, records[0].AcceptanceRate)
	assert.Equal(t, 150, records[0].LinesAccepted)
	assert.Equal(t, 4, records[0].ChatTurns)
	assert.Equal(t, 0.0, records[1].AcceptanceRate)
}

func TestLoadUsageFile_Errors(t *testing.T) {
	testCases := []struct {
		name          string
		content       string
		expectedError string
	}{
		{name: "malformed json", content: `{`, expectedError: "parsing usage file"},
		{name: "missing developer", content: `[{"date": "2024-03-01"}]`, expectedError: "missing developer"},
		{name: "bad date", content: `[{"developer": "A", "date": "03/01/2024"}]`, expectedError: "invalid date"},
		{name: "negative counts", content: `[{"developer": "A", "date": "2024-03-01", "suggestions_count": -1}]`, expectedError: "negative counts"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadUsageFile(writeUsageFile(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedError)
		})
	}
}

func TestLoadUsageFile_EmptyArray(t *testing.T) {
	records, err := LoadUsageFile(writeUsageFile(t, `[]`))
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}
