package scheme

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestEmbeddedCatalog(t *testing.T) {
	schemes, err := Embedded(zap.NewNop()).Fetch(context.Background())
	require.NoError(t, err)

	require.Equal(t, 9, schemes.Len())
	assert.Equal(t, "Pradhan Mantri Shram Yogi Maan-dhan (PM-SYM)", schemes.Items[0].Name)

	sym := schemes.Items[0]
	assert.Equal(t, "pm-sym", sym.ID)
	assert.Equal(t, "all", sym.Criteria["state"])
	assert.Len(t, sym.Criteria["occupations"], 4)

	nfsa := schemes.FindByName("National Food Security Act (NFSA)")
	require.NotNil(t, nfsa)
	assert.Equal(t, true, nfsa.Criteria["bpl_required"])
}

func TestParseAcceptsCriteriaAsJSONString(t *testing.T) {
	doc := `[
  {"id": 7, "name": "NFSA", "eligibility_criteria": "{\"bpl_required\": true, \"max_income\": 10000}"},
  {"id": 8, "name": "NFSA object", "eligibility_criteria": {"bpl_required": true, "max_income": 10000}},
  {"id": 9, "name": "No criteria", "eligibility_criteria": ""}
]`

	schemes, err := Parse([]byte(doc), zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, 3, schemes.Len())

	assert.Equal(t, "7", schemes.Items[0].ID)
	assert.Equal(t, true, schemes.Items[0].Criteria["bpl_required"])
	assert.EqualValues(t, 10000, schemes.Items[0].Criteria["max_income"])
	assert.EqualValues(t, 10000, schemes.Items[1].Criteria["max_income"])
	assert.Empty(t, schemes.Items[2].Criteria)
}

func TestParseSkipsBadRecords(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	doc := `
- name: Good
- name: Broken criteria
  eligibility_criteria: "{not json"
- description: nameless
- name: Also good
`

	schemes, err := Parse([]byte(doc), zap.New(core))
	require.NoError(t, err)

	assert.Equal(t, []string{"Good", "Also good"}, schemes.Names())
	assert.Equal(t, 2, observed.FilterMessage("skipping undecodable catalog record").Len())
}

func TestParseRejectsUnknownDocuments(t *testing.T) {
	_, err := Parse([]byte(`name: lonely`), nil)
	assert.ErrorContains(t, err, "schemes list")

	_, err = Parse([]byte(`"just a string"`), nil)
	assert.ErrorContains(t, err, "unsupported catalog document")

	schemes, err := Parse([]byte(``), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, schemes.Len())
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"schemes": [{"name": "APY"}]}`), 0o644))

	schemes, err := NewFileSource(path, nil).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"APY"}, schemes.Names())

	_, err = NewFileSource(filepath.Join(t.TempDir(), "missing.yaml"), nil).Fetch(context.Background())
	assert.ErrorContains(t, err, "read catalog file")
}

type countingSource struct {
	calls   int
	err     error
	schemes *Schemes
}

func (c *countingSource) Fetch(context.Context) (*Schemes, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.schemes, nil
}

func TestCachedSourceFetchesOnce(t *testing.T) {
	src := &countingSource{schemes: names("A", "B")}
	cached := NewCachedSource(src)

	first, err := cached.Fetch(context.Background())
	require.NoError(t, err)
	first.ExcludeNames([]string{"A"})

	second, err := cached.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, src.calls)
	assert.Equal(t, []string{"A", "B"}, second.Names())

	cached.Reset()
	_, err = cached.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestCachedSourceDoesNotCacheErrors(t *testing.T) {
	src := &countingSource{err: errors.New("offline")}
	cached := NewCachedSource(src)

	_, err := cached.Fetch(context.Background())
	require.Error(t, err)

	src.err = nil
	src.schemes = names("A")
	schemes, err := cached.Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, schemes.Len())
	assert.Equal(t, 2, src.calls)
}
