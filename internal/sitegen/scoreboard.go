package sitegen

import (
	"fmt"
	"strconv"
	"strings"

	"matholymp/internal/fileutil"
	"matholymp/internal/olympiad"
)

// RowOptions selects the columns of a contestant scoreboard row.
type RowOptions struct {
	HideRank  bool
	HideCode  bool
	HideName  bool
	HideRange bool
	HideAward bool
	NoLinks   bool
}

func (g *Generator) personScoreboardHeader(e *olympiad.Event, o RowOptions) string {
	var row []string
	if !o.HideRank {
		row = append(row, g.h.ThScores("#", Attrs{"title": "Rank"}))
		if e.DistinguishOfficial {
			row = append(row, g.h.ThScores("#<sub>O</sub>", Attrs{"title": "Rank (" + g.cfg.OfficialDescLC + ")"}))
		}
	}
	if !o.HideCode {
		row = append(row, g.h.ThScores("Code"))
	}
	if !o.HideName {
		row = append(row, g.h.ThScores("Name"))
	}
	for i := 1; i <= e.NumProblemsOrZero(); i++ {
		row = append(row, g.h.ThScores(olympiad.ProblemColumn(i)))
	}
	row = append(row, g.h.ThScores("&Sigma;", Attrs{"title": "Total score"}))
	if !o.HideAward {
		row = append(row, g.h.ThScores("Award"))
	}
	return Tr(row...)
}

func optionalIntText(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func rangeText(have bool, t, tmax int) string {
	switch {
	case !have:
		return ""
	case t < tmax:
		return fmt.Sprintf("%d (max %d)", t, tmax)
	}
	return strconv.Itoa(t)
}

func (g *Generator) personScoreboardRow(p *olympiad.PersonEvent, o RowOptions) string {
	var row []string
	if !o.HideRank {
		row = append(row, strconv.Itoa(p.Rank))
		if p.Event.DistinguishOfficial {
			row = append(row, optionalIntText(p.RankOfficial))
		}
	}
	link := func(text string) string {
		if o.NoLinks {
			return text
		}
		return g.linkPerson(p.Person, text)
	}
	if !o.HideCode {
		row = append(row, link(Esc(p.ContestantCode)))
	}
	if !o.HideName {
		row = append(row, link(Esc(p.Name())))
	}
	for i := 0; i < p.Event.NumProblemsOrZero(); i++ {
		row = append(row, optionalIntText(p.Score(i)))
	}
	total := strconv.Itoa(p.TotalScore)
	switch {
	case !p.HaveAnyScores:
		total = ""
	case !o.HideRange && p.MaxTotalScore > p.TotalScore:
		total = fmt.Sprintf("%d (max %d)", p.TotalScore, p.MaxTotalScore)
	}
	row = append(row, total)
	if !o.HideAward {
		row = append(row, Esc(p.AwardsStr()))
	}
	return g.h.TrTdScores(row)
}

// countryScoreboardHeader renders the header for an event's country
// results, or for one country across events when e is nil.
func (g *Generator) countryScoreboardHeader(e *olympiad.Event, country *olympiad.Country) string {
	showYear := e == nil
	var showOfficial, showHM bool
	var numProblems int
	var topN *int
	if e != nil {
		showOfficial = e.DistinguishOfficial
		numProblems = e.NumProblemsOrZero()
		topN = e.RankTopNIfMatters()
		showHM = e.HonourableMentionsAvailable
	} else {
		showOfficial = g.data.DistinguishOfficial
		if country.MaxNumProblems != nil {
			numProblems = *country.MaxNumProblems
		}
		showHM = country.HonourableMentionsAvailable
	}
	var row []string
	if showYear {
		row = append(row, g.h.ThScores("Year"))
	}
	row = append(row, g.h.ThScores("#", Attrs{"title": "Rank"}))
	if showOfficial {
		row = append(row, g.h.ThScores("#<sub>O</sub>", Attrs{"title": "Rank (" + g.cfg.OfficialDescLC + ")"}))
	}
	if !showYear {
		row = append(row, g.h.ThScores("Country"))
	}
	row = append(row, g.h.ThScores("Size"))
	for i := 1; i <= numProblems; i++ {
		row = append(row, g.h.ThScores(olympiad.ProblemColumn(i)))
	}
	row = append(row, g.h.ThScores("&Sigma;", Attrs{"title": "Total score"}))
	if topN != nil {
		row = append(row, g.h.ThScores(fmt.Sprintf("&Sigma;<sub>%d</sub>", *topN),
			Attrs{"title": fmt.Sprintf("Total score (top %d)", *topN)}))
	}
	row = append(row,
		g.h.ThScores("G", Attrs{"title": "Gold"}),
		g.h.ThScores("S", Attrs{"title": "Silver"}),
		g.h.ThScores("B", Attrs{"title": "Bronze"}))
	if showHM {
		row = append(row, g.h.ThScores("HM", Attrs{"title": "Honourable Mention"}))
	}
	return Tr(row...)
}

// countryScoreboardRow renders c as a row of its event's country results,
// or as a row of its country's results by year when byYear is set.
func (g *Generator) countryScoreboardRow(c *olympiad.CountryEvent, byYear bool) string {
	e := c.Event
	var showOfficial, showHM, topN bool
	numProblems := e.NumProblemsOrZero()
	if !byYear {
		showOfficial = e.DistinguishOfficial
		topN = e.RankTopNMatters()
		showHM = e.HonourableMentionsAvailable
	} else {
		showOfficial = g.data.DistinguishOfficial
		if c.Country.MaxNumProblems != nil {
			numProblems = *c.Country.MaxNumProblems
		}
		showHM = c.Country.HonourableMentionsAvailable
	}
	var row []string
	if byYear {
		row = append(row, g.linkCountryAtEvent(c, Esc(e.Year)))
	}
	row = append(row, strconv.Itoa(c.Rank))
	if showOfficial {
		row = append(row, optionalIntText(c.RankOfficial))
	}
	if !byYear {
		row = append(row, g.linkCountryAtEvent(c, Esc(c.NameWithCode())))
	}
	row = append(row, strconv.Itoa(c.NumContestants()))
	for i := 0; i < e.NumProblemsOrZero(); i++ {
		row = append(row, rangeText(c.HaveAnyProblemScores[i], c.ProblemTotals[i], c.MaxProblemTotals[i]))
	}
	for i := e.NumProblemsOrZero(); i < numProblems; i++ {
		row = append(row, "")
	}
	row = append(row, rangeText(c.HaveAnyScores, c.TotalScore, c.MaxTotalScore))
	if topN {
		row = append(row, rangeText(c.HaveAnyScores, c.TotalScoreForRank, c.MaxTotalScoreForRank))
	}
	if c.NumAwards == nil {
		row = append(row, "", "", "")
	} else {
		row = append(row, strconv.Itoa(c.NumAwards.Gold), strconv.Itoa(c.NumAwards.Silver),
			strconv.Itoa(c.NumAwards.Bronze))
	}
	if showHM {
		hm := ""
		if e.HonourableMentionsAvailable && c.NumAwards != nil {
			hm = strconv.Itoa(c.NumAwards.HonourableMention)
		}
		row = append(row, hm)
	}
	return g.h.TrTdScores(row)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}

func numTextContestants(n int) string { return plural(n, "contestant", "contestants") }
func numTextGold(n int) string        { return plural(n, "gold medal", "gold medals") }
func numTextSilver(n int) string      { return plural(n, "silver medal", "silver medals") }
func numTextBronze(n int) string      { return plural(n, "bronze medal", "bronze medals") }
func numTextHM(n int) string          { return plural(n, "honourable mention", "honourable mentions") }

func cumStatText(nmin, nmax int) string {
	if nmin == nmax {
		return strconv.Itoa(nmin)
	}
	return fmt.Sprintf("%d (max %d)", nmin, nmax)
}

func corrText(corr *float64) string {
	switch {
	case corr == nil:
		return ""
	case *corr < 0:
		return fmt.Sprintf("&minus;%.3f", -*corr)
	}
	return fmt.Sprintf("%.3f", *corr)
}

func floatText(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.3f", *v)
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func (g *Generator) problemHeaderRow(np int) string {
	row := []string{""}
	row = append(row, olympiad.ProblemColumns(np)...)
	return g.h.TrThScores(row)
}

// ScoreboardText is the main text of the scoreboard for one event.
func (g *Generator) ScoreboardText(e *olympiad.Event) string {
	var b strings.Builder
	contestants := olympiad.SortedPersonEvents(e.Contestants, olympiad.ComparePersonEvent)
	np := e.NumProblemsOrZero()
	lc := Esc(g.cfg.OfficialDescLC)

	b.WriteString("<h2>Scores by contestant code</h2>\n")
	head := []string{g.personScoreboardHeader(e, RowOptions{})}
	var body []string
	for _, p := range contestants {
		body = append(body, g.personScoreboardRow(p, RowOptions{}))
	}
	b.WriteString(g.h.TableHeadBody(head, body) + "\n")

	b.WriteString("<h2>Ranked scores</h2>\n")
	body = body[:0]
	for _, p := range olympiad.ByRank(contestants) {
		body = append(body, g.personScoreboardRow(p, RowOptions{}))
	}
	b.WriteString(g.h.TableHeadBody(head, body) + "\n")

	b.WriteString("<h2>Statistics</h2>\n")
	if e.ScoresFinal() {
		a := awardsOrZero(e.NumAwards())
		hm := ""
		if e.HonourableMentionsAvailable {
			hm = ", " + numTextHM(a.HonourableMention)
		}
		fmt.Fprintf(&b, "<p>%s (scores &ge; %d), %s (scores &ge; %d), %s (scores &ge; %d)%s from %s total.</p>\n",
			numTextGold(a.Gold), intOrZero(e.GoldBoundary),
			numTextSilver(a.Silver), intOrZero(e.SilverBoundary),
			numTextBronze(a.Bronze), intOrZero(e.BronzeBoundary),
			hm, numTextContestants(e.NumContestants()))
		if e.DistinguishOfficial {
			ao := awardsOrZero(e.NumAwardsOfficial())
			hm = ""
			if e.HonourableMentionsAvailable {
				hm = ", " + numTextHM(ao.HonourableMention)
			}
			fmt.Fprintf(&b, "<p>From %s teams: %s, %s, %s%s from %s total.</p>\n",
				lc, numTextGold(ao.Gold), numTextSilver(ao.Silver), numTextBronze(ao.Bronze),
				hm, numTextContestants(e.NumContestantsOfficial()))
		}
	} else {
		off := ""
		if e.DistinguishOfficial {
			off = fmt.Sprintf(" (%d from %s teams)", e.NumContestantsOfficial(), lc)
		}
		fmt.Fprintf(&b, "<p>%s%s.</p>\n", numTextContestants(e.NumContestants()), off)
	}

	cumHead := []string{"Total score", "Candidates", "Cumulative"}
	if e.DistinguishOfficial {
		cumHead = append(cumHead, "Cumulative ("+lc+")")
	}
	body = body[:0]
	var ctot, ctotMax, ctotOff, ctotMaxOff int
	for i := e.MarksTotal(); i >= 0 && i < len(e.TotalStats); i-- {
		ctot += e.TotalStats[i]
		ctotMax += e.MaxTotalStats[i]
		row := []string{strconv.Itoa(i), strconv.Itoa(e.TotalStats[i]), cumStatText(ctot, ctotMax)}
		if e.DistinguishOfficial {
			ctotOff += e.TotalStatsOfficial[i]
			ctotMaxOff += e.MaxTotalStatsOfficial[i]
			row = append(row, cumStatText(ctotOff, ctotMaxOff))
		}
		body = append(body, g.h.TrTdScores(row))
	}
	b.WriteString(g.h.TableHeadBody([]string{g.h.TrThScores(cumHead)}, body) + "\n")
	if ms := e.TotalMeanStdDev; ms != nil {
		fmt.Fprintf(&b, "<p>Mean score = %.3f; standard deviation = %.3f.</p>\n", ms.Mean, ms.StdDev)
	}

	b.WriteString("<h2>Statistics by problem</h2>\n")
	rows := []string{g.problemHeaderRow(np)}
	for s := 0; s <= e.MaxMarksPerProblem(); s++ {
		row := []string{g.h.ThScores(fmt.Sprintf("Score = %d", s))}
		for j := 0; j < np; j++ {
			v := ""
			if s <= e.MarksPerProblem[j] {
				v = strconv.Itoa(e.ProblemStats[j][s])
			}
			row = append(row, g.h.TdScores(v))
		}
		rows = append(rows, Tr(row...))
	}
	statRow := func(label string, vals []string) string {
		row := []string{g.h.ThScores(label)}
		for _, v := range vals {
			row = append(row, g.h.TdScores(v))
		}
		return Tr(row...)
	}
	means, sds, corrs := make([]string, np), make([]string, np), make([]string, np)
	for j := 0; j < np; j++ {
		means[j] = floatText(e.ProblemMean[j])
		sds[j] = floatText(e.ProblemStdDev[j])
		corrs[j] = corrText(e.ProblemCorrWithTotal[j])
	}
	rows = append(rows, statRow("Mean(Score)", means), statRow("&sigma;(Score)", sds),
		statRow("Corr(Score, Total)", corrs))
	b.WriteString(g.h.TableList(rows) + "\n")

	b.WriteString("<h2>Correlation coefficients between problems</h2>\n")
	rows = []string{g.problemHeaderRow(np)}
	for i := 0; i < np; i++ {
		vals := make([]string, np)
		for j := 0; j < np; j++ {
			if i != j {
				vals[j] = corrText(e.ProblemCorr[i][j])
			}
		}
		rows = append(rows, statRow(olympiad.ProblemColumn(i+1), vals))
	}
	b.WriteString(g.h.TableList(rows) + "\n")

	b.WriteString("<h2>Country results</h2>\n")
	countries := olympiad.CountriesByRank(
		olympiad.SortedCountryEvents(e.CountriesWithContestants, olympiad.CompareCountryEvent))
	body = body[:0]
	for _, c := range countries {
		body = append(body, g.countryScoreboardRow(c, false))
	}
	b.WriteString(g.h.TableHeadBody([]string{g.countryScoreboardHeader(e, nil)}, body) + "\n")

	if e.RankTopNMatters() {
		fmt.Fprintf(&b, "<p>Country ranks are determined by the total score of the top %s from each country.</p>\n",
			numTextContestants(*e.RankTopN))
	}
	if !e.ScoresFinal() {
		b.WriteString("<p>The statistics by problem only include the scores shown on the scoreboard; " +
			"correlation coefficients between problems only include contestants with scores shown for both problems.  " +
			"Other statistics treat such blanks as 0.</p>\n")
	}
	return b.String()
}

func (g *Generator) generateScoreboard(e *olympiad.Event) error {
	rssNote := ""
	if g.outDir != "" && fileutil.Exists(g.outPath(g.pathEventScoresRSS(e))) {
		rssNote = "  An " + g.linkFile(g.pathEventScoresRSS(e), "RSS feed of the scores as they were published") +
			" is also available."
	}
	text := fmt.Sprintf("<p>The table of scores may also be %s in CSV format.%s</p>\n",
		g.linkFile(g.pathEventScoresCSV(e), "downloaded"), rssNote) + g.ScoreboardText(e)
	title := "Scoreboard for " + Esc(e.ShortNameWithYearAndCountry())
	header := "Scoreboard for " + g.linkEventAndHost(e)
	return g.writePage(text, title, header, g.pathEventScoreboard(e))
}

// DisplayScoreboardText renders one screen of the large-display
// scoreboard: a two by two grid of per-country tables. Screens cycle, so
// any start value is valid.
func (g *Generator) DisplayScoreboardText(e *olympiad.Event, outerCSS string, start int) string {
	const rows, cols = 2, 2
	perScreen := rows * cols
	countries := olympiad.SortedCountryEvents(e.CountriesWithContestants, olympiad.CompareCountryEvent)
	screens := max((len(countries)+perScreen-1)/perScreen, 1)
	start = ((start % screens) + screens) % screens
	opts := RowOptions{HideRank: true, HideName: true, HideAward: true}

	cells := make([]string, perScreen)
	for k := range cells {
		i := start*perScreen + k
		if i >= len(countries) {
			continue
		}
		var body []string
		for _, p := range olympiad.SortedPersonEvents(countries[i].Contestants, olympiad.ComparePersonEvent) {
			o := opts
			o.NoLinks = true
			body = append(body, g.personScoreboardRow(p, o))
		}
		cells[k] = g.h.TableHeadBody([]string{g.personScoreboardHeader(e, opts)}, body)
	}
	var trs []string
	for i := 0; i < rows; i++ {
		var tds []string
		for j := 0; j < cols; j++ {
			tds = append(tds, Td(cells[i*cols+j], Attrs{"class": outerCSS, "width": "50%"}))
		}
		trs = append(trs, Tr(tds...))
	}
	text := Table(strings.Join(trs, "\n"), Attrs{"width": "100%"})
	if e.ScoresFinal() {
		text += fmt.Sprintf("<p>Medal boundaries: Gold %d, Silver %d, Bronze %d.</p>\n",
			intOrZero(e.GoldBoundary), intOrZero(e.SilverBoundary), intOrZero(e.BronzeBoundary))
	}
	return text
}
