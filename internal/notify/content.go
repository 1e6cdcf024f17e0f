package notify

import (
	"fmt"
	"html"

	"github.com/gatherly/app/internal/models"
)

// Message bodies are deliberately plain; a templating layer can replace
// these without touching dispatch logic.

func inAppContent(in Input) (title, body string) {
	title = fmt.Sprintf("New reservation for %s", in.EventTitle)
	body = fmt.Sprintf("%s reserved a spot.", attendeeLabel(in))
	return title, body
}

func emailContent(in Input, host *models.User) (subject, body string) {
	subject = fmt.Sprintf("New reservation: %s", in.EventTitle)
	body = fmt.Sprintf(
		"<p>Hi %s,</p><p>%s just reserved a spot at <strong>%s</strong> (%s event).</p><p>Reply to this email to reach them at %s.</p>",
		html.EscapeString(host.Name),
		html.EscapeString(attendeeLabel(in)),
		html.EscapeString(in.EventTitle),
		html.EscapeString(in.PricingType),
		html.EscapeString(in.AttendeeEmail),
	)
	return subject, body
}

func smsContent(in Input) string {
	return fmt.Sprintf("Gatherly: %s reserved a spot at %s.", attendeeLabel(in), in.EventTitle)
}

func attendeeLabel(in Input) string {
	name := in.AttendeeName
	if name == "" {
		name = "Someone"
	}
	if in.IsGuest {
		return name + " (guest)"
	}
	return name
}
