// Package digest arma y envía un resumen por e-mail de las colas de
// moderación (pendientes y reportados) para los admins del sitio.
// Se ejecuta una vez por invocación (cron del sitio → `coralbridge digest send`).
package digest

import (
	"bytes"
	"context"
	"fmt"
	htemplate "html/template"
	ttemplate "text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/dropDatabas3/coralbridge/internal/comments"
	"github.com/dropDatabas3/coralbridge/internal/coral"
	"github.com/dropDatabas3/coralbridge/internal/moderation"
	"github.com/dropDatabas3/coralbridge/internal/observability/logger"
	"github.com/dropDatabas3/coralbridge/internal/settings"
)

// QueueFetcher es lo que el digest necesita del coordinador.
type QueueFetcher interface {
	FetchQueues(ctx context.Context, s settings.Settings) (moderation.Queues, error)
}

// Options del envío.
type Options struct {
	Recipients    []string
	SubjectPrefix string
	// SendEmpty manda el resumen aunque las dos colas estén vacías.
	SendEmpty bool
}

// Digest compone y envía el resumen.
type Digest struct {
	queues QueueFetcher
	sender Sender
	opts   Options
	now    func() time.Time
}

func New(queues QueueFetcher, sender Sender, opts Options) *Digest {
	if opts.SubjectPrefix == "" {
		opts.SubjectPrefix = "[Coral]"
	}
	return &Digest{queues: queues, sender: sender, opts: opts, now: time.Now}
}

// Run trae las colas y envía el resumen. sent=false si no había nada que mandar.
func (d *Digest) Run(ctx context.Context, s settings.Settings) (sent bool, err error) {
	q, err := d.queues.FetchQueues(ctx, s)
	if err != nil {
		return false, fmt.Errorf("digest: fetch queues: %w", err)
	}
	if q.Unmoderated.Count == 0 && q.Reported.Count == 0 && !d.opts.SendEmpty {
		logger.From(ctx).Info("digest skipped, queues empty", logger.Component("digest"))
		return false, nil
	}
	msg, err := Compose(q, s.Domain, d.opts.SubjectPrefix, d.now())
	if err != nil {
		return false, err
	}
	msg.To = d.opts.Recipients
	if err := d.sender.Send(ctx, msg); err != nil {
		return false, fmt.Errorf("digest: %w", err)
	}
	return true, nil
}

type itemView struct {
	Username string
	Story    string
	StoryURL string
	Body     string
	Age      string
}

type queueView struct {
	Name  string
	Count string
	Items []itemView
	More  int
}

type view struct {
	Domain string
	Queues []queueView
	Total  string
}

// Compose arma el mensaje (sin destinatarios) a partir de las colas.
func Compose(q moderation.Queues, domain, subjectPrefix string, now time.Time) (Message, error) {
	v := view{
		Domain: domain,
		Queues: []queueView{
			queueOf("Pending", q.Unmoderated, now),
			queueOf("Reported", q.Reported, now),
		},
		Total: humanize.Comma(int64(q.Unmoderated.Count + q.Reported.Count)),
	}

	var txt, html bytes.Buffer
	if err := textTmpl.Execute(&txt, v); err != nil {
		return Message{}, fmt.Errorf("digest: render text: %w", err)
	}
	if err := htmlTmpl.Execute(&html, v); err != nil {
		return Message{}, fmt.Errorf("digest: render html: %w", err)
	}
	return Message{
		Subject: fmt.Sprintf("%s %s pending, %s reported comments",
			subjectPrefix, humanize.Comma(int64(q.Unmoderated.Count)), humanize.Comma(int64(q.Reported.Count))),
		Text: txt.String(),
		HTML: html.String(),
	}, nil
}

func queueOf(name string, q moderation.Queue, now time.Time) queueView {
	qv := queueView{Name: name, Count: humanize.Comma(int64(q.Count))}
	for _, c := range q.Items {
		qv.Items = append(qv.Items, itemOf(c, now))
	}
	if more := q.Count - len(q.Items); more > 0 {
		qv.More = more
	}
	return qv
}

func itemOf(c coral.Comment, now time.Time) itemView {
	user := c.Username()
	if user == "" {
		user = "(deleted user)"
	}
	age := ""
	if !c.CreatedAt.IsZero() {
		age = humanize.RelTime(c.CreatedAt, now, "ago", "from now")
	}
	return itemView{
		Username: user,
		Story:    c.StoryTitle(),
		StoryURL: c.StoryURL(),
		Body:     coral.Truncate(comments.StripHTML(c.Body), 280),
		Age:      age,
	}
}

var textTmpl = ttemplate.Must(ttemplate.New("digest_text").Parse(`Coral moderation digest ({{.Domain}})
{{.Total}} comments need attention.
{{range .Queues}}
== {{.Name}}: {{.Count}} ==
{{range .Items}}- {{.Username}}{{if .Age}}, {{.Age}}{{end}}{{if .Story}} on "{{.Story}}"{{end}}
  {{.Body}}
{{else}}(empty)
{{end}}{{if .More}}...and {{.More}} more
{{end}}{{end}}
Moderate: {{.Domain}}/admin/moderate
`))

var htmlTmpl = htemplate.Must(htemplate.New("digest_html").Parse(`<h2>Coral moderation digest</h2>
<p>{{.Total}} comments need attention.</p>
{{range .Queues}}<h3>{{.Name}} ({{.Count}})</h3>
<ul>{{range .Items}}<li><strong>{{.Username}}</strong>{{if .Age}} <em>{{.Age}}</em>{{end}}{{if .Story}} on <a href="{{.StoryURL}}">{{.Story}}</a>{{end}}<br>{{.Body}}</li>{{else}}<li>(empty)</li>{{end}}</ul>
{{if .More}}<p>…and {{.More}} more</p>{{end}}{{end}}
<p><a href="{{.Domain}}/admin/moderate">Open Coral moderation</a></p>
`))
