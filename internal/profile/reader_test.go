package profile

import (
	"errors"
	"testing"

	"github.com/lehigh-university-libraries/fieldprofile/internal/clustering"
	"github.com/lehigh-university-libraries/fieldprofile/internal/fieldindex"
	"github.com/lehigh-university-libraries/fieldprofile/internal/fingerprint"
	"github.com/lehigh-university-libraries/fieldprofile/internal/pattern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioIndex(t *testing.T) fieldindex.Index {
	t.Helper()
	index, err := fieldindex.ParseHeader(`count,"title=10,description=8,rights=5"`)
	require.NoError(t, err)
	return index
}

func TestEndToEndScenario(t *testing.T) {
	index := scenarioIndex(t)
	lines := []string{
		"title;description,2,6,50",
		"title;description,2,4,30",
		"rights,1,2,20",
	}

	reader := NewReader(index, lines)
	assert.Equal(t, []fingerprint.Fingerprint{"110", "110", "001"}, reader.Fingerprints())

	report, err := reader.Cluster(clustering.DefaultThreshold)
	require.NoError(t, err)
	require.Len(t, report.Clusters, 2)

	first := report.Clusters[0]
	assert.Equal(t, 0, first.Rank)
	require.Len(t, first.Members, 1)
	assert.Equal(t, fingerprint.Fingerprint("110"), first.Members[0].Fingerprint)
	// later row wins the lookup for a repeated fingerprint
	assert.InDelta(t, 30.0, first.Weight, 1e-9)
	assert.Equal(t, 4, first.Count)
	assert.Equal(t, []string{"title", "description"}, first.Present)
	assert.Equal(t, []string{"rights"}, first.Missing)

	second := report.Clusters[1]
	assert.Equal(t, 1, second.Rank)
	require.Len(t, second.Members, 1)
	assert.Equal(t, fingerprint.Fingerprint("001"), second.Members[0].Fingerprint)
	assert.InDelta(t, 20.0, second.Weight, 1e-9)

	assert.Equal(t, 1, report.Superseded)
	assert.Empty(t, report.Rejected)
	assert.Equal(t, 2, report.Patterns())
	assert.InDelta(t, 50.0, report.TotalWeight(), 1e-9)
}

func TestClusterAggregatesAndSortsMembers(t *testing.T) {
	index := fieldindex.Index{"a", "b", "c", "d"}
	lines := []string{
		"a;b;c;d,4,1,5",
		"a;b;c,3,2,15",
		"a;b,2,3,10",
		"d,1,9,40",
	}

	report, err := NewReader(index, lines).Cluster(0.75)
	require.NoError(t, err)
	require.Len(t, report.Clusters, 2)

	// {d} alone weighs 40, the chained a/b/c cluster weighs 30
	assert.Equal(t, []fingerprint.Fingerprint{"0001"}, memberFingerprints(report.Clusters[0]))
	assert.Equal(t, []fingerprint.Fingerprint{"1110", "1100", "1111"}, memberFingerprints(report.Clusters[1]))

	for _, c := range report.Clusters {
		sum := 0.0
		for _, m := range c.Members {
			sum += m.Weight
		}
		assert.InDelta(t, sum, c.Weight, 1e-9)
	}
	assert.Equal(t, 6, report.Clusters[1].Count)
	assert.Equal(t, []string{"a", "b"}, report.Clusters[1].Present)
	assert.Equal(t, []string{}, report.Clusters[1].Missing)
}

func TestClusterSortIsStable(t *testing.T) {
	index := fieldindex.Index{"title", "description", "rights"}

	t.Run("clusters with equal weight keep encounter order", func(t *testing.T) {
		lines := []string{
			"rights,1,5,10",
			"title,1,5,10",
			"description,1,5,10",
		}
		report, err := NewReader(index, lines).Cluster(1.0)
		require.NoError(t, err)
		require.Len(t, report.Clusters, 3)
		assert.Equal(t, fingerprint.Fingerprint("001"), report.Clusters[0].Members[0].Fingerprint)
		assert.Equal(t, fingerprint.Fingerprint("100"), report.Clusters[1].Members[0].Fingerprint)
		assert.Equal(t, fingerprint.Fingerprint("010"), report.Clusters[2].Members[0].Fingerprint)
	})

	t.Run("members with equal weight keep encounter order", func(t *testing.T) {
		lines := []string{
			"title,1,1,5",
			"rights,1,1,5",
			"title;rights,2,1,7",
			"description,1,1,5",
		}
		report, err := NewReader(index, lines).Cluster(0.01)
		require.NoError(t, err)
		require.Len(t, report.Clusters, 1)
		assert.Equal(t,
			[]fingerprint.Fingerprint{"101", "100", "001", "010"},
			memberFingerprints(report.Clusters[0]))
	})
}

func TestRejectedRowsAreReported(t *testing.T) {
	index := scenarioIndex(t)
	lines := []string{
		"title,1,3,30",
		`"title;rights,2,1,10`,
		"",
		"rights,1,not-a-number,5",
		"description,1,2,20",
	}

	reader := NewReader(index, lines)
	assert.Len(t, reader.Records(), 2)
	require.Len(t, reader.Rejected(), 2)
	assert.Equal(t, 2, reader.Rejected()[0].LineNumber)
	assert.Equal(t, 4, reader.Rejected()[1].LineNumber)
	assert.NotEmpty(t, reader.Rejected()[1].Message())

	var shapeErr *pattern.RowShapeError
	assert.True(t, errors.As(reader.Rejected()[0].Err, &shapeErr))

	assert.Equal(t, []fingerprint.Fingerprint{"100", "010"}, reader.Fingerprints())

	report, err := reader.Cluster(clustering.DefaultThreshold)
	require.NoError(t, err)
	assert.Len(t, report.Clusters, 2)
	assert.Len(t, report.Rejected, 2)
}

func TestNonFiniteWeightsAreRejected(t *testing.T) {
	reader := NewReader(scenarioIndex(t), []string{
		"title,1,5,NaN",
		"rights,1,3,Inf",
		"description,1,2,20",
	})
	require.Len(t, reader.Rejected(), 2)
	assert.Equal(t, 1, reader.Rejected()[0].LineNumber)
	assert.Equal(t, 2, reader.Rejected()[1].LineNumber)

	report, err := reader.Cluster(clustering.DefaultThreshold)
	require.NoError(t, err)
	require.Len(t, report.Clusters, 1)
	assert.InDelta(t, 20.0, report.Clusters[0].Weight, 1e-9)
	assert.InDelta(t, 20.0, report.TotalWeight(), 1e-9)
}

func TestArchetypeAcrossMembers(t *testing.T) {
	index := fieldindex.Index{"a", "b", "c", "d"}
	members := []*pattern.Record{
		{Fingerprint: "1100", Weight: 2},
		{Fingerprint: "1110", Weight: 1},
	}

	present, missing := archetype(members, index)
	assert.Equal(t, []string{"a", "b"}, present)
	assert.Equal(t, []string{"d"}, missing)

	present, missing = archetype(nil, index)
	assert.Empty(t, present)
	assert.Empty(t, missing)
}

func TestClusterRejectsBadThreshold(t *testing.T) {
	reader := NewReader(scenarioIndex(t), []string{"title,1,1,1"})
	for _, threshold := range []float64{0, 1.5, -1} {
		report, err := reader.Cluster(threshold)
		assert.Nil(t, report)
		var rangeErr *clustering.ThresholdOutOfRangeError
		assert.True(t, errors.As(err, &rangeErr))
	}
}

func TestClusterEmptyInput(t *testing.T) {
	report, err := NewReader(scenarioIndex(t), nil).Cluster(clustering.DefaultThreshold)
	require.NoError(t, err)
	assert.Empty(t, report.Clusters)
	assert.Empty(t, report.Top(5))
	assert.Equal(t, 0.0, report.TotalWeight())
}

func TestTop(t *testing.T) {
	report := &Report{Clusters: []Cluster{{Rank: 0}, {Rank: 1}, {Rank: 2}}}
	assert.Len(t, report.Top(2), 2)
	assert.Len(t, report.Top(10), 3)
	assert.Len(t, report.Top(-1), 3)
}

func memberFingerprints(c Cluster) []fingerprint.Fingerprint {
	fps := make([]fingerprint.Fingerprint, 0, len(c.Members))
	for _, m := range c.Members {
		fps = append(fps, m.Fingerprint)
	}
	return fps
}
