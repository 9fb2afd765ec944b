package enrichment

import (
	"encoding/json"
	"fmt"
	"html"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/smaltravel/findajob/internal/models"
)

// systemPromptTemplate embeds the full normalized candidate profile as JSON
// plus task-framing instructions, per spec.md §4.5 step 2.
func systemPromptTemplate(profile models.CandidateProfile) string {
	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		profileJSON = []byte("{}")
	}

	return fmt.Sprintf(`You are a job-search assistant helping a candidate evaluate job postings
against their own background. The candidate's normalized profile is:

%s

Use the tools available to you to compute any numeric score; never estimate a
score yourself. Always respond with strict JSON matching the schema you are
given, and nothing else.`, string(profileJSON))
}

// jobSummaryPrompt builds the agent-mode prompt of spec.md §4.5 step 3.
func jobSummaryPrompt(job models.RawJob) string {
	return fmt.Sprintf(`Evaluate this job posting against the candidate profile in your system
instructions.

Job title: %s
Employer: %s
Location: %s
Seniority level: %s
Employment type: %s
Industries: %s

Job description:
%s

Produce a JSON object with:
- responsibilities: 3 to 5 items drawn from the description
- requirements: 3 to 5 items drawn from the description
- opportunity_interest: 2 to 3 sentences on why this role may interest the candidate
- background_aligns: call the scoring tools to compute each component, then the
  overall-score tool to combine them; languages the job does not require must
  be excluded from the languages call
- summary: 3 to 4 sentences summarizing the fit

Respond with only the JSON object.`,
		job.JobTitle, job.Employer, job.JobLocation, job.SeniorityLevel,
		job.EmploymentType, strings.Join(job.Industries, ", "),
		descriptionToMarkdown(job.JobDescription, job.JobURL))
}

// coverLetterPrompt builds the generate-mode prompt of spec.md §4.5 step 4.
func coverLetterPrompt(job models.RawJob, summary models.JobSummary) string {
	return fmt.Sprintf(`Using the job summary below and the candidate profile in your system
instructions, draft a cover letter for this role.

Job title: %s
Employer: %s
Summary: %s
Key responsibilities: %s
Key requirements: %s

Write a cover letter between 200 and 350 words (400 words hard cap). Respond
with a JSON object containing "subject" and "letter_content" only.`,
		job.JobTitle, job.Employer, summary.Summary,
		strings.Join(summary.Responsibilities, "; "),
		strings.Join(summary.Requirements, "; "))
}

// descriptionToMarkdown converts a RawJob's HTML job description to markdown
// for prompt embedding, grounded on the teacher's convertHTMLToMarkdown
// (internal/services/atlassian/helpers.go): fall back to stripped text if
// conversion fails, since a malformed fragment must never abort enrichment.
func descriptionToMarkdown(jobDescription, baseURL string) string {
	converter := md.NewConverter(baseURL, true, nil)
	converted, err := converter.ConvertString(jobDescription)
	if err != nil {
		return stripHTMLTags(jobDescription)
	}
	return converted
}

func stripHTMLTags(htmlStr string) string {
	tagRe := regexp.MustCompile(`<[^>]*>`)
	stripped := tagRe.ReplaceAllString(htmlStr, "")

	spaceRe := regexp.MustCompile(`\s+`)
	cleaned := spaceRe.ReplaceAllString(stripped, " ")

	return strings.TrimSpace(html.UnescapeString(cleaned))
}
