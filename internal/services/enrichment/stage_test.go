package enrichment_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/smaltravel/findajob/internal/models"
	"github.com/smaltravel/findajob/internal/services/enrichment"
	"github.com/smaltravel/findajob/internal/services/llm"
	"github.com/smaltravel/findajob/internal/services/mcp"
)

// scriptedProvider replays a fixed sequence of responses, one per call,
// mirroring llm_test's helper of the same name for exercising the stage
// without a network-backed provider.
type scriptedProvider struct {
	responses []llm.ContentResponse
	calls     int
}

func (p *scriptedProvider) GenerateContent(_ context.Context, _ *llm.ContentRequest) (*llm.ContentResponse, error) {
	if p.calls >= len(p.responses) {
		panic("scriptedProvider: ran out of scripted responses")
	}
	resp := p.responses[p.calls]
	p.calls++
	return &resp, nil
}

func (p *scriptedProvider) SupportsNativeToolCalling() bool { return true }
func (p *scriptedProvider) Type() llm.ProviderType          { return llm.ProviderGoogle }

func marshal(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func testProfile() models.CandidateProfile {
	return models.CandidateProfile{
		Name:   "Jordan Rivera",
		Skills: []string{"go", "distributed systems"},
	}
}

func testJob() models.RawJob {
	return models.RawJob{
		JobID:          "job-1",
		JobTitle:       "Backend Engineer",
		Employer:       "Acme Corp",
		JobLocation:    "Remote",
		JobDescription: "<p>Build and operate backend services.</p>",
	}
}

func TestEnrichMergesSummaryAndCoverLetter(t *testing.T) {
	summary := models.JobSummary{
		Responsibilities:    []string{"Build services", "Operate systems", "Mentor engineers"},
		Requirements:        []string{"Go experience", "Distributed systems"},
		OpportunityInterest: "This role lines up with your background.",
		BackgroundAligns: models.AlignmentScore{
			Total: 80, Skills: 90, Education: 70, Experience: 85, Location: 100, Industries: 60, Languages: 100,
		},
		Summary: "A strong match for your backend experience.",
	}
	letter := models.CoverLetter{Subject: "Application for Backend Engineer", LetterContent: "Dear hiring manager..."}

	provider := &scriptedProvider{responses: []llm.ContentResponse{
		{Text: marshal(t, summary), Provider: llm.ProviderGoogle},
		{Text: marshal(t, letter), Provider: llm.ProviderGoogle},
	}}
	client := llm.NewClient(provider, mcp.NewRegistry(arbor.NewLogger()), "", arbor.NewLogger())
	stage := enrichment.NewStage(client, arbor.NewLogger())

	enriched, err := stage.Enrich(context.Background(), testJob(), testProfile())
	require.NoError(t, err)
	require.NotNil(t, enriched)
	assert.Equal(t, "job-1", enriched.JobID)
	assert.Equal(t, summary, enriched.JobSummary)
	assert.Equal(t, letter, enriched.CoverLetter)
}

func TestEnrichReturnsErrorWhenSummarySchemaNeverValidates(t *testing.T) {
	provider := &scriptedProvider{responses: []llm.ContentResponse{
		{Text: "not json at all", Provider: llm.ProviderGoogle},
		{Text: "still not json", Provider: llm.ProviderGoogle},
	}}
	client := llm.NewClient(provider, mcp.NewRegistry(arbor.NewLogger()), "", arbor.NewLogger())
	stage := enrichment.NewStage(client, arbor.NewLogger())

	enriched, err := stage.Enrich(context.Background(), testJob(), testProfile())
	require.Error(t, err)
	assert.Nil(t, enriched)

	var enrichErr *enrichment.EnrichmentError
	require.ErrorAs(t, err, &enrichErr)
	assert.Equal(t, "job-1", enrichErr.JobID)
}

func TestEnrichReturnsErrorWhenCoverLetterSchemaNeverValidates(t *testing.T) {
	summary := models.JobSummary{
		Responsibilities:    []string{"Build services"},
		Requirements:        []string{"Go experience"},
		OpportunityInterest: "Good fit.",
		BackgroundAligns:    models.AlignmentScore{Total: 50},
		Summary:             "Reasonable match.",
	}

	provider := &scriptedProvider{responses: []llm.ContentResponse{
		{Text: marshal(t, summary), Provider: llm.ProviderGoogle},
		{Text: "not a cover letter", Provider: llm.ProviderGoogle},
	}}
	client := llm.NewClient(provider, mcp.NewRegistry(arbor.NewLogger()), "", arbor.NewLogger())
	stage := enrichment.NewStage(client, arbor.NewLogger())

	enriched, err := stage.Enrich(context.Background(), testJob(), testProfile())
	require.Error(t, err)
	assert.Nil(t, enriched)
}
