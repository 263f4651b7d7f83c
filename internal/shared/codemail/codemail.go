// Package codemail renders the e-mail that delivers a verification code.
package codemail

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strconv"
	texttemplate "text/template"
	"time"
)

// Content is a rendered message.
type Content struct {
	Subject string
	Text    string
	HTML    string
}

var subjects = map[string]string{
	"signup":         "Confirm your storefront account",
	"password_reset": "Reset your storefront password",
}

const textBody = `Hello {{.Username}},

Your verification code is {{.Code}}.
It expires in {{.Minutes}} min.

If you did not ask for this code you can ignore this e-mail.
`

const htmlBody = `<p>Hello {{.Username}},</p>
<p>Your verification code is <strong>{{.Code}}</strong>.<br>It expires in {{.Minutes}} min.</p>
<p>If you did not ask for this code you can ignore this e-mail.</p>
`

var (
	textTpl = texttemplate.Must(texttemplate.New("text").Parse(textBody))
	htmlTpl = htmltemplate.Must(htmltemplate.New("html").Parse(htmlBody))
)

// Render builds the message for purpose. Minutes is rounded up so a code
// with 30s left never reads as expiring in 0 minutes.
func Render(username, purpose, code string, expiresAt, now time.Time) (Content, error) {
	subject, ok := subjects[purpose]
	if !ok {
		return Content{}, fmt.Errorf("codemail: unknown purpose %q", purpose)
	}

	left := expiresAt.Sub(now)
	minutes := int((left + time.Minute - 1) / time.Minute)
	data := map[string]string{
		"Username": username,
		"Code":     code,
		"Minutes":  strconv.Itoa(max(minutes, 1)),
	}

	var text, html bytes.Buffer
	if err := textTpl.Execute(&text, data); err != nil {
		return Content{}, err
	}
	if err := htmlTpl.Execute(&html, data); err != nil {
		return Content{}, err
	}

	return Content{Subject: subject, Text: text.String(), HTML: html.String()}, nil
}
