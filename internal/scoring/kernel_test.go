package scoring_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smaltravel/findajob/internal/models"
	"github.com/smaltravel/findajob/internal/scoring"
)

func TestSkillsScore(t *testing.T) {
	t.Run("empty job skills is vacuous match", func(t *testing.T) {
		assert.Equal(t, 100, scoring.SkillsScore(nil, nil))
	})

	t.Run("empty candidate skills with job skills scores zero", func(t *testing.T) {
		assert.Equal(t, 0, scoring.SkillsScore(nil, []string{"go", "sql"}))
	})

	t.Run("case-insensitive partial match", func(t *testing.T) {
		got := scoring.SkillsScore([]string{"Python", "SQL"}, []string{"python", "sql", "kubernetes"})
		assert.Equal(t, 67, got)
	})

	t.Run("full match", func(t *testing.T) {
		assert.Equal(t, 100, scoring.SkillsScore([]string{"go", "python"}, []string{"go", "python"}))
	})
}

func TestExperienceScore(t *testing.T) {
	assert.Equal(t, 100, scoring.ExperienceScore(0, 0))
	assert.Equal(t, 50, scoring.ExperienceScore(12, 24))
	assert.Equal(t, 100, scoring.ExperienceScore(36, 24))
}

func TestLanguagesScore(t *testing.T) {
	t.Run("empty job languages is vacuous match", func(t *testing.T) {
		assert.Equal(t, 100, scoring.LanguagesScore(nil, nil))
	})

	t.Run("mean is over job key set, missing candidate language is zero", func(t *testing.T) {
		job := map[string]models.ProficiencyLevel{"english": models.ProficiencyC1, "german": models.ProficiencyB1}
		cand := map[string]models.ProficiencyLevel{"english": models.ProficiencyC1}
		// english: |75-75|=0 -> 100; german: absent -> 0; mean = 50
		assert.Equal(t, 50, scoring.LanguagesScore(cand, job))
	})

	t.Run("partial proficiency gap", func(t *testing.T) {
		job := map[string]models.ProficiencyLevel{"english": models.ProficiencyC2}
		cand := map[string]models.ProficiencyLevel{"english": models.ProficiencyB1}
		// |45-90| = 45 -> 55
		assert.Equal(t, 55, scoring.LanguagesScore(cand, job))
	})
}

func TestOverallScore(t *testing.T) {
	score, err := scoring.OverallScore(scoring.Components{
		Skills: 100, Education: 100, Experience: 100,
		Location: 100, Industries: 100, Languages: 100,
	})
	require.NoError(t, err)
	assert.Equal(t, 100, score)

	score, err = scoring.OverallScore(scoring.Components{
		Skills: 50, Education: 0, Experience: 50, Location: 0, Industries: 0, Languages: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, 30, score) // 0.3*50 + 0.3*50 = 30

	_, err = scoring.OverallScore(scoring.Components{Skills: 150})
	assert.Error(t, err)
}

func TestIndustriesScoreDelegates(t *testing.T) {
	assert.Equal(t, scoring.SkillsScore([]string{"fintech"}, []string{"fintech", "retail"}),
		scoring.IndustriesScore([]string{"fintech"}, []string{"fintech", "retail"}))
}
