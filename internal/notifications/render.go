package notifications

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/itsriyaas/digitalcard-backend/pkg/db/models"
	"github.com/itsriyaas/digitalcard-backend/pkg/enums"
	"github.com/itsriyaas/digitalcard-backend/pkg/outbox"
)

// Email is a rendered message ready for the mailer.
type Email struct {
	To      string
	Subject string
	Body    string
}

// eventPayload is the superset of fields the notification templates read
// from outbox event payloads.
type eventPayload struct {
	OrderNumber   string `json:"order_number"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	TotalCents    int64  `json:"total_cents"`
	AmountCents   int64  `json:"amount_cents"`
	From          string `json:"from"`
	To            string `json:"to"`
	Reason        string `json:"reason"`
}

var templateFuncs = template.FuncMap{
	"money": func(cents int64) string {
		return fmt.Sprintf("%d.%02d", cents/100, cents%100)
	},
	"title": func(s string) string {
		if s == "" {
			return s
		}
		return strings.ToUpper(s[:1]) + s[1:]
	},
}

var emailTemplates = template.Must(template.New("emails").Funcs(templateFuncs).Parse(`
{{define "order_placed_subject"}}Order {{.OrderNumber}} received{{end}}
{{define "order_placed_body"}}Hi {{.CustomerName}},

Thanks for your order {{.OrderNumber}}.
Order total: {{money .TotalCents}}

We will email you again when the order ships.
{{end}}

{{define "order_status_changed_subject"}}Order {{.OrderNumber}} is {{.To}}{{end}}
{{define "order_status_changed_body"}}Hi {{.CustomerName}},

Your order {{.OrderNumber}} moved from {{title .From}} to {{title .To}}.
{{end}}

{{define "order_cancelled_subject"}}Order {{.OrderNumber}} cancelled{{end}}
{{define "order_cancelled_body"}}Hi {{.CustomerName}},

Your order {{.OrderNumber}} has been cancelled. Any reserved items were
released; if you already paid, the amount will be refunded.
{{end}}

{{define "payment_captured_subject"}}Payment received for order {{.OrderNumber}}{{end}}
{{define "payment_captured_body"}}Hi {{.CustomerName}},

We received your payment of {{money .AmountCents}} for order {{.OrderNumber}}.
{{end}}
`))

// BuildEmail renders the notification for an outbox event. A nil Email with
// a nil error means the event carries no customer-facing notification.
func BuildEmail(event models.OutboxEvent) (*Email, error) {
	var name string
	switch event.EventType {
	case enums.EventOrderPlaced:
		name = "order_placed"
	case enums.EventOrderStatusChanged:
		name = "order_status_changed"
	case enums.EventOrderCancelled:
		name = "order_cancelled"
	case enums.EventPaymentCaptured:
		name = "payment_captured"
	default:
		return nil, nil
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, fmt.Errorf("decoding event envelope: %w", err)
	}
	var payload eventPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		return nil, fmt.Errorf("decoding event payload: %w", err)
	}
	if payload.CustomerEmail == "" {
		return nil, nil
	}
	if payload.CustomerName == "" {
		payload.CustomerName = "there"
	}

	var subject, body strings.Builder
	if err := emailTemplates.ExecuteTemplate(&subject, name+"_subject", payload); err != nil {
		return nil, fmt.Errorf("rendering subject: %w", err)
	}
	if err := emailTemplates.ExecuteTemplate(&body, name+"_body", payload); err != nil {
		return nil, fmt.Errorf("rendering body: %w", err)
	}

	return &Email{
		To:      payload.CustomerEmail,
		Subject: strings.TrimSpace(subject.String()),
		Body:    strings.TrimLeft(body.String(), "\n"),
	}, nil
}
