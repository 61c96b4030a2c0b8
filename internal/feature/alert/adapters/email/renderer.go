// Package email は通知メールの組み立てと送信を担当します。
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"

	"psx_backend/internal/feature/alert/domain/entity"
	"psx_backend/internal/feature/alert/usecase"
	portfolioentity "psx_backend/internal/feature/portfolio/domain/entity"
)

// Currency is the ISO code used to render money amounts.
const Currency = money.PKR

// Renderer は html/template でポートフォリオ更新メールを組み立てます。
type Renderer struct {
	tmpl *template.Template
	now  func() time.Time
}

var _ usecase.Renderer = (*Renderer)(nil)

// NewRenderer は Renderer を生成します。
func NewRenderer() *Renderer {
	return &Renderer{
		tmpl: template.Must(template.New("update").Funcs(template.FuncMap{"pkr": PKR, "pct": pct}).Parse(updateHTML)),
		now:  time.Now,
	}
}

type view struct {
	Date    string
	Summary portfolioentity.PortfolioSummary
	Events  []entity.Event
	Notes   template.HTML
}

// Render は件名、HTML本文、プレーンテキスト本文を生成します。
func (r *Renderer) Render(to string, s portfolioentity.PortfolioSummary, events []entity.Event) (entity.Message, error) {
	date := r.now().In(pkt).Format("02 Jan 2006")

	notes, err := markdownHTML(notesMarkdown(s))
	if err != nil {
		return entity.Message{}, fmt.Errorf("render notes: %w", err)
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, view{Date: date, Summary: s, Events: events, Notes: notes}); err != nil {
		return entity.Message{}, fmt.Errorf("execute template: %w", err)
	}

	subject := fmt.Sprintf("PSX portfolio update %s: P&L %s", date, PKR(s.TotalPnL))
	if len(events) > 0 {
		subject = fmt.Sprintf("%s, %d alert(s)", subject, len(events))
	}
	return entity.Message{To: to, Subject: subject, HTML: buf.String(), Text: plainText(s, events)}, nil
}

var pkt = time.FixedZone("PKT", 5*60*60)

// PKR formats an amount in Pakistani rupees, e.g. "₨2,000.00".
func PKR(amount decimal.Decimal) string {
	cur := money.GetCurrency(Currency)
	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	return money.New(amount.Mul(factor).Round(0).IntPart(), Currency).Display()
}

func pct(d decimal.Decimal) string {
	return d.StringFixed(2) + "%"
}

func notesMarkdown(s portfolioentity.PortfolioSummary) string {
	var b strings.Builder
	if len(s.Recommendations) > 0 {
		b.WriteString("### Recommendations\n\n")
		for _, r := range s.Recommendations {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	if len(s.Unavailable) > 0 {
		b.WriteString("\n### No market data\n\n")
		for _, u := range s.Unavailable {
			fmt.Fprintf(&b, "- **%s**: %s\n", u.Symbol, u.Reason)
		}
	}
	return b.String()
}

// markdownHTML converts markdown to HTML. goldmark escapes raw HTML by default.
func markdownHTML(md string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func plainText(s portfolioentity.PortfolioSummary, events []entity.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total P&L: %s (%s)\n", PKR(s.TotalPnL), pct(s.TotalPnLPercent))
	fmt.Fprintf(&b, "Market value: %s\n\n", PKR(s.TotalMarketValue))
	for _, p := range s.Positions {
		fmt.Fprintf(&b, "%s: %s (%s) %s\n", p.Holding.Symbol, PKR(p.PnL), pct(p.PnLPercent), p.Recommendation)
	}
	if len(events) > 0 {
		b.WriteString("\nAlerts:\n")
		for _, e := range events {
			fmt.Fprintf(&b, "[%s] %s\n", e.Severity, e.Reason)
		}
	}
	return b.String()
}

const updateHTML = `<!DOCTYPE html>
<html><body style="font-family:sans-serif">
<h2>PSX portfolio update, {{.Date}}</h2>
<p>Total P&amp;L <strong>{{pkr .Summary.TotalPnL}}</strong> ({{pct .Summary.TotalPnLPercent}}) on a cost basis of {{pkr .Summary.TotalCostBasis}}.</p>
{{if .Events}}<h3>Alerts</h3>
<ul>{{range .Events}}<li><strong>{{.Severity}}</strong> {{.Reason}}</li>{{end}}</ul>{{end}}
{{if .Summary.Positions}}<table cellpadding="4" border="1" style="border-collapse:collapse">
<tr><th>Symbol</th><th>Qty</th><th>Buy</th><th>Price</th><th>P&amp;L</th><th>%</th><th>Action</th></tr>
{{range .Summary.Positions}}<tr><td>{{.Holding.Symbol}}</td><td>{{.Holding.Quantity}}</td><td>{{pkr .Holding.BuyPrice}}</td><td>{{.Quote.Price}}</td><td>{{pkr .PnL}}</td><td>{{pct .PnLPercent}}</td><td>{{.Recommendation}}</td></tr>
{{end}}</table>{{end}}
{{.Notes}}
</body></html>
`
