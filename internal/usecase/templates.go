package usecase

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"adtopia/internal/domain"
	"adtopia/internal/domain/model"
)

type emailTemplate struct {
	subject string
	body    *htmltemplate.Template
}

const emailLayout = `<!DOCTYPE html>
<html><body style="font-family:Arial,sans-serif;color:#1f2937;max-width:560px;margin:0 auto;padding:24px">
{{template "content" .}}
<p style="color:#6b7280;font-size:12px;margin-top:32px">AdTopia &middot; marketing automation for growing brands</p>
</body></html>`

func mustEmail(name, subject, content string) emailTemplate {
	t := htmltemplate.Must(htmltemplate.New(name).Option("missingkey=zero").Parse(emailLayout))
	htmltemplate.Must(t.New("content").Parse(content))
	return emailTemplate{subject: subject, body: t}
}

var emailTemplates = map[string]emailTemplate{
	model.TemplatePurchaseReceipt: mustEmail(model.TemplatePurchaseReceipt, "Your AdTopia receipt", `
<h2>Thanks for your purchase!</h2>
<p>We received your payment of <strong>{{.amount}}</strong> for <strong>{{.product}}</strong>.</p>
<p>Reference: {{.purchase_id}}</p>`),

	model.TemplateAgencyApplication: mustEmail(model.TemplateAgencyApplication, "We received your partner application", `
<h2>Hi {{.name}},</h2>
<p>Thanks for applying to the AdTopia agency partner program. Our team reviews applications within two business days.</p>`),

	model.TemplateAgencyWelcome: mustEmail(model.TemplateAgencyWelcome, "Welcome to the AdTopia partner program", `
<h2>Welcome aboard, {{.name}}!</h2>
<p>Your partner account is active at the <strong>{{.tier}}</strong> tier with a {{.commission}} commission.</p>
<p>Your partner id is <code>{{.partner_id}}</code>. Add it to checkout links to get credit for referrals.</p>`),

	model.TemplatePlain: mustEmail(model.TemplatePlain, "", `<p>{{.body}}</p>`),
}

func mustSMS(name, body string) *texttemplate.Template {
	return texttemplate.Must(texttemplate.New(name).Option("missingkey=zero").Parse(body))
}

var smsTemplates = map[string]*texttemplate.Template{
	model.TemplatePurchaseSMS: mustSMS(model.TemplatePurchaseSMS, "AdTopia: payment of {{.amount}} for {{.product}} received. Thank you!"),
	model.TemplatePlain:       mustSMS(model.TemplatePlain, "{{.body}}"),
}

// renderEmail returns the subject and HTML body. An explicit subject wins over the template default.
func renderEmail(name, subject string, data map[string]string) (string, string, error) {
	tpl, ok := emailTemplates[name]
	if !ok {
		return "", "", fmt.Errorf("%w: unknown email template %q", domain.ErrInvalidArgument, name)
	}
	if subject == "" {
		subject = tpl.subject
	}
	if subject == "" {
		return "", "", fmt.Errorf("%w: email subject required", domain.ErrInvalidArgument)
	}
	var buf bytes.Buffer
	if err := tpl.body.Execute(&buf, data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", name, err)
	}
	return subject, buf.String(), nil
}

func renderSMS(name string, data map[string]string) (string, error) {
	tpl, ok := smsTemplates[name]
	if !ok {
		return "", fmt.Errorf("%w: unknown sms template %q", domain.ErrInvalidArgument, name)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// formatAmount renders cents as "12.34 USD".
func formatAmount(cents int64, currency string) string {
	sign := ""
	if cents < 0 {
		sign, cents = "-", -cents
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, cents/100, cents%100, strings.ToUpper(currency))
}
