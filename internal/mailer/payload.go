package mailer

import "strings"

// ZipMIMEType is the attachment type used for backup archives.
const ZipMIMEType = "application/zip"

// Payload is the SendGrid v3 mail/send request body.
type Payload struct {
	Personalizations []Personalization `json:"personalizations"`
	From             Address           `json:"from"`
	Subject          string            `json:"subject"`
	Content          []Content         `json:"content"`
	Attachments      []Attachment      `json:"attachments,omitempty"`
}

type Personalization struct {
	To []Address `json:"to"`
}

type Address struct {
	Email string `json:"email"`
}

type Content struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Attachment carries base64 content without line breaks.
type Attachment struct {
	Content     string `json:"content"`
	Type        string `json:"type"`
	Filename    string `json:"filename"`
	Disposition string `json:"disposition,omitempty"`
}

// Message is what a caller wants delivered.
type Message struct {
	From    string
	To      string // one address or a comma separated list
	Subject string
	HTML    string

	Attachments []Attachment
}

// NewPayload builds the request body for msg.
func NewPayload(msg Message) Payload {
	var to []Address
	for _, addr := range strings.Split(msg.To, ",") {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, Address{Email: addr})
		}
	}

	return Payload{
		Personalizations: []Personalization{{To: to}},
		From:             Address{Email: strings.TrimSpace(msg.From)},
		Subject:          msg.Subject,
		Content:          []Content{{Type: "text/html", Value: msg.HTML}},
		Attachments:      msg.Attachments,
	}
}

// ArchiveAttachment wraps base64 zip content as an attachment.
func ArchiveAttachment(filename, base64Content string) Attachment {
	return Attachment{
		Content:     base64Content,
		Type:        ZipMIMEType,
		Filename:    filename,
		Disposition: "attachment",
	}
}
