package questions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"strengths-service/internal/domain"
)

func TestDefaultCoversEveryDomain(t *testing.T) {
	pool := Default()
	assert.Equal(t, DefaultPoolID, pool.ID)
	assert.Len(t, pool.Questions, 32)

	perDomain := map[string]int{}
	for _, q := range pool.Questions {
		perDomain[q.Domain]++
	}
	for _, d := range domain.Domains {
		assert.Equal(t, 4, perDomain[d], "domain %s", d)
	}
}

func TestLoadFileAcceptsBareArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"q1","text":"x","domain":"creativity"}]`), 0o600))

	pool, err := LoadFile(path, "custom")
	require.NoError(t, err)
	assert.Equal(t, "custom", pool.ID)
	require.Len(t, pool.Questions, 1)
	assert.Equal(t, "creativity", pool.Questions[0].Domain)
}

func TestParseRejectsBadPools(t *testing.T) {
	cases := map[string]string{
		"duplicate ids": `{"id":"p","questions":[{"id":"a","text":"x","domain":"d"},{"id":"a","text":"y","domain":"d"}]}`,
		"missing text":  `{"id":"p","questions":[{"id":"a","domain":"d"}]}`,
		"missing id":    `{"id":"p","questions":[{"text":"x","domain":"d"}]}`,
		"not json":      `nope`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(raw), "p")
			assert.Error(t, err)
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.json"), "p")
	assert.Error(t, err)
}
