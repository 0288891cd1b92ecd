package pathfinder

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warmpath/internal/graph"
)

func TestReadProspects(t *testing.T) {
	input := strings.Join([]string{
		"Name,Email,Company",
		"Jane Doe,JANE@Acme.com,acme.com",
		"No Email,,Acme",
		"Bob,bob@startup.io,",
	}, "\n")

	prospects, skipped, err := ReadProspects(strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, 1, skipped)
	require.Len(t, prospects, 2)
	assert.Equal(t, Prospect{Email: "jane@acme.com", Name: "Jane Doe", Company: "acme.com"}, prospects[0])
	assert.Equal(t, Prospect{Email: "bob@startup.io", Name: "Bob"}, prospects[1])
}

func TestReadProspects_MissingEmailColumn(t *testing.T) {
	input := "name,company\nJane,Acme\n"

	_, _, err := ReadProspects(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email column")
}

func TestReadProspects_EmailOnlyHeader(t *testing.T) {
	input := "email\nsolo@acme.com\n"

	prospects, skipped, err := ReadProspects(strings.NewReader(input))
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, prospects, 1)
	assert.Equal(t, "solo@acme.com", prospects[0].Email)
}

func TestWriteEntryPaths(t *testing.T) {
	last := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	paths := []IntroPath{
		{
			TargetEmail:       "jane@acme.com",
			TargetName:        "Jane Doe",
			Type:              PathOneHop,
			Strength:          54,
			ConnectorEmail:    "ann@here.com",
			ConnectorName:     "Ann",
			ConnectorStrength: 9,
			LastContact:       last,
			EmailCount:        40,
		},
		{TargetEmail: "stranger@x.com", Type: PathCold},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteEntryPaths(&buf, paths))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(entryPathHeader, ","), lines[0])
	assert.Equal(t, "jane@acme.com,Jane Doe,one_hop,54,ann@here.com,Ann,9,2026-03-14T09:00:00Z,40,0", lines[1])
	assert.Equal(t, "stranger@x.com,,cold,0,,,0,,0,0", lines[2])
}

func TestRunBatch(t *testing.T) {
	store := newFakeGraph()
	store.oneHop["jane@acme.com"] = []graph.ConnectorRow{
		{Email: "ann@here.com", EmailCount: 40, LastContact: time.Now()},
	}

	prospects := []Prospect{
		{Email: "jane@acme.com", Name: "Jane Doe"},
		{Email: "stranger@nowhere.com"},
	}

	paths := New(store).RunBatch(context.Background(), me, prospects)

	require.Len(t, paths, 2)
	assert.Equal(t, PathOneHop, paths[0].Type)
	assert.Equal(t, "Jane Doe", paths[0].TargetName)
	assert.Equal(t, PathCold, paths[1].Type)
}

func TestRunBatch_CompanyDomainHint(t *testing.T) {
	store := newFakeGraph()
	store.domains["acme.io"] = []graph.ConnectorRow{
		{Email: "eng@acme.io", EmailCount: 10, LastContact: time.Now()},
	}

	// Prospect on a personal address, company column carries the domain
	paths := New(store).RunBatch(context.Background(), me, []Prospect{
		{Email: "jane@gmail.com", Company: "acme.io"},
	})

	require.Len(t, paths, 1)
	assert.Equal(t, PathCompanyConnection, paths[0].Type)

	// A display name in the company column is not treated as a domain
	paths = New(store).RunBatch(context.Background(), me, []Prospect{
		{Email: "jane@gmail.com", Company: "Acme Inc"},
	})
	require.Len(t, paths, 1)
	assert.Equal(t, PathCold, paths[0].Type)
}
