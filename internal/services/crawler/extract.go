package crawler

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/smaltravel/findajob/internal/models"
)

// extractRawJob reads a RawJob out of a parsed detail page, grounded on
// ncecere-raito/internal/scraper/scraper.go's doc.Find/.../.Text() and
// AttrOr extraction pattern. Selectors left empty in DetailSelectors are
// skipped, leaving the field for FillDefaults to backfill.
func extractRawJob(doc *goquery.Document, sel DetailSelectors, jobID, detailURL string) models.RawJob {
	job := models.RawJob{
		JobID:  jobID,
		JobURL: detailURL,
		Source: detailURL,
	}

	job.JobTitle = textOf(doc, sel.JobTitle)
	job.Employer = textOf(doc, sel.Employer)
	job.JobLocation = textOf(doc, sel.JobLocation)
	job.SeniorityLevel = textOf(doc, sel.SeniorityLevel)
	job.EmploymentType = textOf(doc, sel.EmploymentType)
	job.JobFunction = textOf(doc, sel.JobFunction)

	if sel.JobDescription != "" {
		if html, err := doc.Find(sel.JobDescription).First().Html(); err == nil {
			job.JobDescription = strings.TrimSpace(html)
		}
	}

	if sel.EmployerURL != "" {
		job.EmployerURL = strings.TrimSpace(doc.Find(sel.EmployerURL).First().AttrOr("href", ""))
	}

	if sel.Industries != "" {
		doc.Find(sel.Industries).Each(func(_ int, s *goquery.Selection) {
			if text := strings.TrimSpace(s.Text()); text != "" {
				job.Industries = append(job.Industries, text)
			}
		})
	}

	if job.JobID == "" {
		job.JobID = detailURL
	}

	return job
}

func textOf(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(doc.Find(selector).First().Text())
}

func readAllString(r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
