package sitegen

import (
	"slices"
	"strings"
)

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

// Esc escapes text for use as HTML element content.
func Esc(s string) string {
	return textEscaper.Replace(s)
}

// EscAttr escapes text for use inside a double-quoted attribute.
func EscAttr(s string) string {
	return attrEscaper.Replace(s)
}

// Attrs are HTML attributes; they are written sorted by name.
type Attrs map[string]string

func (a Attrs) with(k, v string) Attrs {
	r := make(Attrs, len(a)+1)
	for ak, av := range a {
		r[ak] = av
	}
	r[k] = v
	return r
}

func (a Attrs) text() string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(" " + k + `="` + EscAttr(a[k]) + `"`)
	}
	return b.String()
}

func firstAttrs(attrs []Attrs) Attrs {
	if len(attrs) == 0 {
		return nil
	}
	return attrs[0]
}

// Element renders <tag attrs>contents</tag>. Contents are HTML.
func Element(tag, contents string, attrs ...Attrs) string {
	return "<" + tag + firstAttrs(attrs).text() + ">" + contents + "</" + tag + ">"
}

// HTML renders the markup helpers whose output depends on configuration.
type HTML struct {
	UseXHTML  bool
	ScoresCSS string
	ListCSS   string
}

// Empty renders an element with no contents.
func (h HTML) Empty(tag string, attrs ...Attrs) string {
	if h.UseXHTML {
		return "<" + tag + firstAttrs(attrs).text() + " />"
	}
	return "<" + tag + firstAttrs(attrs).text() + ">"
}

// Img renders an img element.
func (h HTML) Img(attrs Attrs) string {
	return h.Empty("img", attrs)
}

// A renders a link.
func A(contents, href string) string {
	return Element("a", contents, Attrs{"href": href})
}

// AExternal renders a link opening in a new window.
func AExternal(contents, href string) string {
	return Element("a", contents, Attrs{"href": href, "target": "_blank"})
}

func Th(contents string, attrs ...Attrs) string { return Element("th", contents, attrs...) }
func Td(contents string, attrs ...Attrs) string { return Element("td", contents, attrs...) }

// ThScores is a th using the scores table class.
func (h HTML) ThScores(contents string, attrs ...Attrs) string {
	return Th(contents, firstAttrs(attrs).with("class", h.ScoresCSS))
}

// TdScores is a td using the scores table class.
func (h HTML) TdScores(contents string, attrs ...Attrs) string {
	return Td(contents, firstAttrs(attrs).with("class", h.ScoresCSS))
}

// Tr joins cells into a row.
func Tr(cells ...string) string {
	return Element("tr", strings.Join(cells, ""))
}

// TrTh renders a row of th cells.
func TrTh(cells []string) string {
	return trMap(cells, func(s string) string { return Th(s) })
}

// TrTd renders a row of td cells.
func TrTd(cells []string) string {
	return trMap(cells, func(s string) string { return Td(s) })
}

func (h HTML) TrThScores(cells []string) string {
	return trMap(cells, func(s string) string { return h.ThScores(s) })
}

func (h HTML) TrTdScores(cells []string) string {
	return trMap(cells, func(s string) string { return h.TdScores(s) })
}

func trMap(cells []string, f func(string) string) string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = f(c)
	}
	return Tr(out...)
}

// TrThTd renders a row with one heading cell and one data cell.
func TrThTd(th, td string) string {
	return Tr(Th(th), Td(td))
}

func lines(rows []string) string {
	return "\n" + strings.Join(rows, "\n") + "\n"
}

// Table renders a table element.
func Table(contents string, attrs ...Attrs) string {
	return Element("table", contents, attrs...)
}

// TableHeadBody renders a list table with header and body sections.
func (h HTML) TableHeadBody(head, body []string) string {
	return Table("\n"+Element("thead", lines(head))+"\n"+Element("tbody", lines(body))+"\n",
		Attrs{"class": h.ListCSS})
}

// TableList renders a list table from rows.
func (h HTML) TableList(rows []string) string {
	return Table(lines(rows), Attrs{"class": h.ListCSS})
}

// TableThTd renders a list table of heading and value pairs.
func (h HTML) TableThTd(pairs [][2]string) string {
	rows := make([]string, len(pairs))
	for i, p := range pairs {
		rows[i] = TrThTd(p[0], p[1])
	}
	return h.TableList(rows)
}
