package service

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	htmlConfirmation = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/confirmation.html.tmpl"))
	textConfirmation = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/confirmation.txt.tmpl"))
)

const defaultOwnerName = "there"

type confirmationData struct {
	OwnerName string
	Email     string
}

func renderConfirmation(ownerName, email string) (htmlBody, textBody string, err error) {
	if ownerName == "" {
		ownerName = defaultOwnerName
	}
	data := confirmationData{OwnerName: ownerName, Email: email}

	var h, t bytes.Buffer
	if err := htmlConfirmation.Execute(&h, data); err != nil {
		return "", "", fmt.Errorf("render html confirmation: %w", err)
	}
	if err := textConfirmation.Execute(&t, data); err != nil {
		return "", "", fmt.Errorf("render text confirmation: %w", err)
	}
	return h.String(), t.String(), nil
}
