package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strings"

	"github.com/starford/koinecards/internal/session"
)

//go:embed assets/page.html assets/styles.css
var assets embed.FS

// AppTitle heads the root panel.
const AppTitle = "Koine Cards"

var pageTmpl = template.Must(template.New("page.html").Funcs(template.FuncMap{
	"domainHref": DomainHref,
	"cardHref":   CardHref,
}).ParseFS(assets, "assets/page.html"))

// Page is the data of one rendered panel. Exactly one of the domain, list
// and card panels is shown, selected by View.
type Page struct {
	View       string
	Heading    string
	Hint       string
	ErrorTitle string
	Err        string
	BackHref   string
	Domains    []DomainRow
	Domain     string
	Cards      []CardRow
	Detail     *Detail
}

// NewPage projects the active view of s into a Page.
func NewPage(s *session.State) Page {
	p := Page{
		View:       s.View().Name(),
		Heading:    AppTitle,
		Hint:       DomainHint,
		ErrorTitle: ErrorTitle,
	}
	if s.CanGoBack() {
		p.BackHref = ViewHref(s.BackTarget())
	}

	switch v := s.View().(type) {
	case session.DomainView:
		p.Domains = Domains(s.Deck())
	case session.ListView:
		p.Heading = v.Domain
		p.Domain = v.Domain
		p.Cards = Cards(s.Deck(), v.Domain)
	case session.CardView:
		d := CardDetail(v.Card)
		p.Heading = v.Domain
		p.Domain = v.Domain
		p.Detail = &d
	}
	return p
}

// ErrorPage replaces the domain listing with an inline error panel showing
// the raw error message.
func ErrorPage(err error) Page {
	return Page{
		View:       "domain",
		Heading:    AppTitle,
		ErrorTitle: ErrorTitle,
		Err:        err.Error(),
	}
}

// HTML writes p as a complete HTML document. Card text is escaped and never
// interpreted as markup.
func HTML(w io.Writer, p Page) error {
	if err := pageTmpl.Execute(w, p); err != nil {
		return fmt.Errorf("render: execute page: %w", err)
	}
	return nil
}

// Styles returns the stylesheet referenced by rendered pages.
func Styles() []byte {
	b, _ := assets.ReadFile("assets/styles.css")
	return b
}

// domainMark prefixes the URL segment of the empty domain and of domains
// that already start with it, so every domain has a distinct non-empty
// segment.
const domainMark = "~"

// DomainSegment encodes domain as a single URL path segment.
func DomainSegment(domain string) string {
	if domain == "" || strings.HasPrefix(domain, domainMark) {
		return domainMark + url.PathEscape(domain)
	}
	return url.PathEscape(domain)
}

// ParseDomainSegment reverses DomainSegment on an unescaped segment.
func ParseDomainSegment(seg string) string {
	return strings.TrimPrefix(seg, domainMark)
}

// DomainHref is the link that opens domain.
func DomainHref(domain string) string {
	return "/d/" + DomainSegment(domain)
}

// CardHref is the link that opens the card stored at filename in domain.
func CardHref(domain, filename string) string {
	segs := strings.Split(filename, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return DomainHref(domain) + "/" + strings.Join(segs, "/")
}

// ViewHref is the link that shows v.
func ViewHref(v session.View) string {
	switch v := v.(type) {
	case session.ListView:
		return DomainHref(v.Domain)
	case session.CardView:
		return CardHref(v.Domain, v.Card.Filename)
	default:
		return "/"
	}
}
