package notification

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/Luismorlan/newsportal/model"
	"github.com/pkg/errors"
)

// ErrNothingToCompose is returned when there is no meaningful message to
// build, e.g. a post without any category. Callers treat it as "skip", not as
// a failure.
var ErrNothingToCompose = errors.New("nothing to compose")

// Message is a fully rendered notification, ready for dispatch to a single
// recipient.
type Message struct {
	Subject   string
	PlainBody string
	HTMLBody  string
}

const articlePlainTemplate = `Hi {{.Recipient.Name}},

A new article was published in {{.CategoryNames}}:

{{.Post.Title}}

{{.Preview}}

Read the full article: {{.PostURL}}

---
News Portal
`

const articleHTMLTemplate = `<html><body>
<p>Hi {{.Recipient.Name}},</p>
<p>A new article was published in <b>{{.CategoryNames}}</b>:</p>
<h3><a href="{{.PostURL}}">{{.Post.Title}}</a></h3>
<p>{{.Preview}}</p>
<p>---<br>News Portal</p>
</body></html>
`

const digestPlainTemplate = `Hi {{.Recipient.Name}},

New articles from the categories you follow this week:
{{range .Posts}}
- {{.Title}} ({{$.SiteURL}}/posts/{{.Id}})
{{- end}}

Total new articles: {{len .Posts}}

---
News Portal
`

const digestHTMLTemplate = `<html><body>
<p>Hi {{.Recipient.Name}},</p>
<p>New articles from the categories you follow this week:</p>
<ul>
{{range .Posts}}<li><a href="{{$.SiteURL}}/posts/{{.Id}}">{{.Title}}</a></li>
{{end}}</ul>
<p>---<br>News Portal</p>
</body></html>
`

const welcomePlainTemplate = `Welcome to News Portal, {{.Recipient.Name}}!

You can now:
- read news and articles
- subscribe to the categories you care about
- get notified about new publications
- comment and rate

Enjoy!

---
The News Portal team
`

const welcomeHTMLTemplate = `<html><body>
<p>Welcome to News Portal, <b>{{.Recipient.Name}}</b>!</p>
<p>You can now:</p>
<ul>
<li>read news and articles</li>
<li>subscribe to the categories you care about</li>
<li>get notified about new publications</li>
<li>comment and rate</li>
</ul>
<p>Enjoy!</p>
<p>---<br>The News Portal team</p>
</body></html>
`

// Composer renders notification messages. Rendering is deterministic given
// the post, recipient and category state at call time, there is no hidden
// storage access.
type Composer struct {
	siteURL string

	articlePlain *texttemplate.Template
	articleHTML  *htmltemplate.Template
	digestPlain  *texttemplate.Template
	digestHTML   *htmltemplate.Template
	welcomePlain *texttemplate.Template
	welcomeHTML  *htmltemplate.Template
}

func NewComposer(siteURL string) *Composer {
	return &Composer{
		siteURL:      strings.TrimRight(siteURL, "/"),
		articlePlain: texttemplate.Must(texttemplate.New("article_plain").Parse(articlePlainTemplate)),
		articleHTML:  htmltemplate.Must(htmltemplate.New("article_html").Parse(articleHTMLTemplate)),
		digestPlain:  texttemplate.Must(texttemplate.New("digest_plain").Parse(digestPlainTemplate)),
		digestHTML:   htmltemplate.Must(htmltemplate.New("digest_html").Parse(digestHTMLTemplate)),
		welcomePlain: texttemplate.Must(texttemplate.New("welcome_plain").Parse(welcomePlainTemplate)),
		welcomeHTML:  htmltemplate.Must(htmltemplate.New("welcome_html").Parse(welcomeHTMLTemplate)),
	}
}

type articleContext struct {
	Recipient     *model.User
	Post          *model.Post
	CategoryNames string
	Preview       string
	PostURL       string
}

type digestContext struct {
	Recipient *model.User
	Posts     []*model.Post
	SiteURL   string
}

type welcomeContext struct {
	Recipient *model.User
}

// ComposeForPost renders the new-article notification for one recipient. A
// post without any category yields ErrNothingToCompose so the caller can skip
// dispatch instead of mailing an empty message.
func (c *Composer) ComposeForPost(post *model.Post, recipient *model.User) (*Message, error) {
	if len(post.Categories) == 0 {
		return nil, ErrNothingToCompose
	}

	names := make([]string, 0, len(post.Categories))
	for _, category := range post.Categories {
		names = append(names, category.Name)
	}

	ctx := articleContext{
		Recipient:     recipient,
		Post:          post,
		CategoryNames: strings.Join(names, ", "),
		Preview:       post.Preview(),
		PostURL:       fmt.Sprintf("%s/posts/%s", c.siteURL, post.Id),
	}

	var plain, html bytes.Buffer
	if err := c.articlePlain.Execute(&plain, &ctx); err != nil {
		return nil, errors.Wrap(err, "fail to render article plain body")
	}
	if err := c.articleHTML.Execute(&html, &ctx); err != nil {
		return nil, errors.Wrap(err, "fail to render article html body")
	}

	return &Message{
		Subject:   fmt.Sprintf("New article: %s", post.Title),
		PlainBody: plain.String(),
		HTMLBody:  html.String(),
	}, nil
}

// ComposeDigest renders the weekly digest for one recipient. The caller
// guarantees posts is non-empty, a subscriber with no matching posts never
// reaches composition.
func (c *Composer) ComposeDigest(recipient *model.User, posts []*model.Post) (*Message, error) {
	if len(posts) == 0 {
		return nil, ErrNothingToCompose
	}

	ctx := digestContext{
		Recipient: recipient,
		Posts:     posts,
		SiteURL:   c.siteURL,
	}

	var plain, html bytes.Buffer
	if err := c.digestPlain.Execute(&plain, &ctx); err != nil {
		return nil, errors.Wrap(err, "fail to render digest plain body")
	}
	if err := c.digestHTML.Execute(&html, &ctx); err != nil {
		return nil, errors.Wrap(err, "fail to render digest html body")
	}

	return &Message{
		Subject:   "Your weekly digest of new articles",
		PlainBody: plain.String(),
		HTMLBody:  html.String(),
	}, nil
}

// ComposeWelcome renders the welcome mail sent on user registration.
func (c *Composer) ComposeWelcome(recipient *model.User) (*Message, error) {
	ctx := welcomeContext{Recipient: recipient}

	var plain, html bytes.Buffer
	if err := c.welcomePlain.Execute(&plain, &ctx); err != nil {
		return nil, errors.Wrap(err, "fail to render welcome plain body")
	}
	if err := c.welcomeHTML.Execute(&html, &ctx); err != nil {
		return nil, errors.Wrap(err, "fail to render welcome html body")
	}

	return &Message{
		Subject:   "Welcome to News Portal!",
		PlainBody: plain.String(),
		HTMLBody:  html.String(),
	}, nil
}
