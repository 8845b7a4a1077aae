package mail

import (
	"html"
	"strings"

	"github.com/mkondo/parasurvey/model"
)

// SubmissionCopy renders the copy-of-answers mail for a respondent:
// question labels with the submitted values, in question order.
func SubmissionCopy(survey model.Survey, sub model.Submission) (subject, body string) {
	subject = "Your answers: " + survey.Title

	var b strings.Builder
	b.WriteString("<h1>")
	b.WriteString(html.EscapeString(survey.Title))
	b.WriteString("</h1>\n<dl>\n")

	for _, q := range survey.Questions {
		value, ok := sub.Answers[q.ID]
		if !ok || value.Empty() {
			continue
		}

		b.WriteString("<dt>")
		b.WriteString(html.EscapeString(q.Label))
		b.WriteString("</dt>\n")

		if value.List() {
			for _, v := range value.Many {
				b.WriteString("<dd>")
				b.WriteString(html.EscapeString(v))
				b.WriteString("</dd>\n")
			}
		} else {
			b.WriteString("<dd>")
			b.WriteString(html.EscapeString(value.One))
			b.WriteString("</dd>\n")
		}
	}
	b.WriteString("</dl>\n")

	return subject, b.String()
}
