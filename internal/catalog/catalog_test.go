package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/promptarena-go-api/internal/evaluation"
	"github.com/noah-isme/promptarena-go-api/internal/harness"
)

func TestLoadEmbeddedCatalog(t *testing.T) {
	entries, err := Load()
	require.NoError(t, err)
	require.Len(t, entries, 14)

	counts := map[string]int{}
	for i, entry := range entries {
		require.Equal(t, uint(i+1), entry.ID)
		require.NotEmpty(t, entry.ExpectedOutput)
		counts[entry.ModuleType]++
	}
	require.Equal(t, map[string]int{"image": 6, "script": 5, "code": 3}, counts)

	fib, ok := Find(entries, 13)
	require.True(t, ok)
	require.Equal(t, "fibonacci", fib.Entrypoint)
	require.Equal(t, map[string]any{"n": 5}, fib.TestCases[0].Input)
	require.Equal(t, "[0,1,1,2,3]", fib.TestCases[0].Expected)
	require.True(t, harness.Matches("[0, 1, 1, 2, 3]", fib.TestCases[0].Expected))

	_, ok = Find(entries, 99)
	require.False(t, ok)
}

func TestEntryConversions(t *testing.T) {
	entries, err := Load()
	require.NoError(t, err)

	palindrome, ok := Find(entries, 12)
	require.True(t, ok)

	row, err := palindrome.Model()
	require.NoError(t, err)
	require.Equal(t, uint(12), row.ID)

	cases, err := row.DecodeTestCases()
	require.NoError(t, err)
	require.Len(t, cases, len(palindrome.TestCases))
	require.Equal(t, "A man, a plan, a canal: Panama", cases[0].Input)

	challenge := palindrome.Evaluation()
	require.Equal(t, evaluation.ModuleCode, challenge.ModuleType)
	require.Equal(t, "is_palindrome", challenge.Entrypoint)

	sunset, _ := Find(entries, 1)
	row, err = sunset.Model()
	require.NoError(t, err)
	require.JSONEq(t, "[]", string(row.TestCases))
}

func TestParseRejectsInvalidCatalogs(t *testing.T) {
	cases := map[string]string{
		"duplicate id": `
challenges:
  - {id: 1, title: A, level: beginner, module_type: image}
  - {id: 1, title: B, level: beginner, module_type: image}`,
		"unknown module": `
challenges:
  - {id: 1, title: A, level: beginner, module_type: video}`,
		"unknown level": `
challenges:
  - {id: 1, title: A, level: expert, module_type: image}`,
		"test cases outside code": `
challenges:
  - id: 1
    title: A
    level: beginner
    module_type: script
    test_cases:
      - {input: 1, expected: "1"}`,
		"malformed": "challenges: [",
	}

	for name, doc := range cases {
		_, err := Parse([]byte(doc))
		require.ErrorIs(t, err, ErrInvalidCatalog, name)
	}
}

func TestLoadFileNormalisesAndSorts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := `
challenges:
  - {id: 3, title: Third, level: Advanced, module_type: CODE}
  - {id: 2, title: Second, level: beginner, module_type: script}
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	entries, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, uint(2), entries[0].ID)
	require.Equal(t, "advanced", entries[1].Level)
	require.Equal(t, "code", entries[1].ModuleType)
}
