package bot

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/xaenox/cvformat-bot/internal/action"
	"github.com/xaenox/cvformat-bot/internal/artifact"
	"github.com/xaenox/cvformat-bot/internal/classifier"
	"github.com/xaenox/cvformat-bot/internal/extractor"
	"github.com/xaenox/cvformat-bot/internal/models"
)

const errorPrefix = "⚠️ "

func menuReply(brand string) models.Reply {
	body := "Upload a CV (PDF or Word) to reformat it."
	if brand != "" {
		body = fmt.Sprintf("Upload a CV (PDF or Word) to reformat it with %s branding.", brand)
	}
	return models.Reply{
		Card: &models.Card{
			Title: "CV Reformat",
			Body:  body,
			Buttons: []models.Button{
				{Title: "Reformat CV", Value: models.ButtonReformat},
			},
		},
	}
}

func awaitReply() models.Reply {
	return models.Reply{
		Text: "Great! Send me the CV - you can paste the text or upload a PDF or Word file.",
	}
}

func resultReply(res *action.Result, art *artifact.Artifact, now time.Time) models.Reply {
	days := int(math.Round(art.ExpiresAt.Sub(now).Hours() / 24))

	text := fmt.Sprintf("Here's the reformatted CV for %s:\n%s\n\nLink expires in %d days",
		res.Candidate.DisplayName(), art.Filename, days)
	if res.SummaryErr != nil {
		text += "\n\nThe candidate summary couldn't be generated this time. The document itself is complete."
	} else if res.Summary != "" {
		text += "\n\nAlternative Candidate Profile:\n" + res.Summary
	}

	return models.Reply{
		Text: text,
		Link: &models.Link{
			URL:       art.URL,
			Label:     "Download " + art.Filename,
			ExpiresAt: art.ExpiresAt,
		},
		Card: &models.Card{
			Buttons: []models.Button{
				{Title: "Start New", Value: models.ButtonStartNew},
			},
		},
	}
}

// errorReply turns any turn failure into plain language.
func errorReply(err error) models.Reply {
	var (
		extractErr *extractor.ExtractionError
		aiErr      *classifier.AIError
		storageErr *artifact.StorageError
	)

	var text string
	switch {
	case errors.Is(err, extractor.ErrUnsupportedFormat):
		text = "Sorry, I can only read PDF and Word files (.pdf, .doc, .docx). Please send the CV in one of those formats or paste the text."
	case errors.Is(err, errDownload):
		text = "Sorry, I couldn't download that file. Please send it again."
	case errors.As(err, &extractErr):
		text = "Sorry, I couldn't read that file. It may be corrupt, password protected or a scanned image. Try another copy or paste the text."
	case errors.As(err, &aiErr):
		text = "Sorry, I couldn't process that CV right now. Please send it again."
	case errors.As(err, &storageErr):
		text = "Sorry, I couldn't upload the reformatted CV. Please try again."
	default:
		text = "Sorry, something went wrong while processing your CV. Please try again."
	}
	return models.Reply{Text: errorPrefix + text}
}
