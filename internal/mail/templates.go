package mail

import (
	"bytes"
	"html/template"
	"net/url"
	"strings"
)

// DefaultPublicURL is the address of the hosted web client.
const DefaultPublicURL = "https://examtraining.online"

// ExamCodes describes the codes of an exam for the owner notification.
type ExamCodes struct {
	Title      string
	Slug       string
	Private    bool
	AccessCode string
	EditCode   string
}

var codesTemplate = template.Must(template.New("codes").Parse(
	`{{.Intro}}<br/>
<br/>
{{if .Private}}This exam is private. In order to view it you need an access code.<br/>
The access code is: <code>{{.AccessCode}}</code><br/>
{{end}}Access the exam by using this link: <a href="{{.ExamURL}}">{{.ExamURL}}</a><br/>
<br/>
In order to make changes to this exam, you need an edit code.<br/>
The edit code is: <code>{{.EditCode}}</code><br/>
Edit the exam by using this link: <a href="{{.EditURL}}">{{.EditURL}}</a>`))

type codesView struct {
	ExamCodes
	Intro   template.HTML
	ExamURL string
	EditURL string
}

// ExamCreated is sent to the owner of a new or copied exam.
func ExamCreated(publicURL, to string, c ExamCodes) (Message, error) {
	intro := `Your exam "` + template.HTMLEscapeString(c.Title) + `" has been created.`
	return render(publicURL, to, "Exam created", intro, c)
}

// ExamCodesReset is sent to the owner after the codes were regenerated.
func ExamCodesReset(publicURL, to string, c ExamCodes) (Message, error) {
	intro := `The codes for your exam "` + template.HTMLEscapeString(c.Title) + `" have been reset.`
	return render(publicURL, to, "Exam codes reset", intro, c)
}

// ExamURL is the training link for an exam.
func ExamURL(publicURL, slug, accessCode string) string {
	u := strings.TrimRight(publicURL, "/") + "/" + url.PathEscape(slug)
	if accessCode != "" {
		u += "?accessCode=" + url.QueryEscape(accessCode)
	}
	return u
}

// EditURL is the editor link for an exam.
func EditURL(publicURL, slug, editCode string) string {
	return strings.TrimRight(publicURL, "/") + "/" + url.PathEscape(slug) + "/edit?editCode=" + url.QueryEscape(editCode)
}

func render(publicURL, to, subject, intro string, c ExamCodes) (Message, error) {
	if publicURL == "" {
		publicURL = DefaultPublicURL
	}
	access := ""
	if c.Private {
		access = c.AccessCode
	}
	view := codesView{
		ExamCodes: c,
		Intro:     template.HTML(intro),
		ExamURL:   ExamURL(publicURL, c.Slug, access),
		EditURL:   EditURL(publicURL, c.Slug, c.EditCode),
	}

	var buf bytes.Buffer
	if err := codesTemplate.Execute(&buf, view); err != nil {
		return Message{}, err
	}
	return Message{To: to, Subject: subject, HTML: buf.String()}, nil
}
