package sitegen

import (
	"slices"
	"strconv"

	"matholymp/internal/collate"
	"matholymp/internal/datetimeutil"
	"matholymp/internal/fileutil"
	"matholymp/internal/olympiad"
)

// CSVOptions selects the variant of a countries or people export.
type CSVOptions struct {
	// RegSystem omits results and adds generic numbers.
	RegSystem bool
	// Private adds contact and personal details.
	Private bool
}

func yesNoPtr(b *bool) string {
	if b == nil {
		return ""
	}
	return olympiad.YesNo(*b)
}

// EventsCSV returns the rows and columns of the file of all events.
func (g *Generator) EventsCSV() ([]fileutil.Row, []string) {
	d := g.data
	adj := g.cfg.OfficialAdj
	offCols := []string{adj + " Contestants", adj + " Gold Medals", adj + " Silver Medals",
		adj + " Bronze Medals", adj + " Honourable Mentions", "Number of " + adj + " Teams"}

	var rows []fileutil.Row
	for _, e := range d.Events {
		r := fileutil.Row{
			olympiad.ColNumber:         strconv.Itoa(e.ID),
			olympiad.ColYear:           e.Year,
			olympiad.ColCountryNumber:  optionalIntText(e.HostCountryID),
			olympiad.ColCountry:        e.HostCountryName,
			olympiad.ColCountryNameIn:  e.HostCountryNameIn,
			olympiad.ColCity:           e.HostCity,
			olympiad.ColStartDate:      datetimeutil.DateToYMDISO(e.StartDate),
			olympiad.ColEndDate:        datetimeutil.DateToYMDISO(e.EndDate),
			olympiad.ColHomePageURL:    e.HomePageURL,
			olympiad.ColContactName:    e.ContactName,
			olympiad.ColContactEmail:   e.ContactEmail,
			olympiad.ColNumExams:       optionalIntText(e.NumExams),
			olympiad.ColNumProblems:    optionalIntText(e.NumProblems),
			olympiad.ColGoldBoundary:   "",
			olympiad.ColSilverBoundary: "",
			olympiad.ColBronzeBoundary: "",
		}
		for i := 0; i < d.MaxNumProblems; i++ {
			v := ""
			if i < e.NumProblemsOrZero() {
				v = strconv.Itoa(e.MarksPerProblem[i])
			}
			r[olympiad.ProblemMaxColumn(i+1)] = v
		}
		n := e.NumContestants()
		if n > 0 {
			r[olympiad.ColGoldBoundary] = optionalIntText(e.GoldBoundary)
			r[olympiad.ColSilverBoundary] = optionalIntText(e.SilverBoundary)
			r[olympiad.ColBronzeBoundary] = optionalIntText(e.BronzeBoundary)
		}
		if d.HonourableMentionsAvailableVaries {
			r[olympiad.ColHMAvailable] = olympiad.YesNo(e.HonourableMentionsAvailable)
		}
		if d.DistinguishOfficialVaries {
			r[olympiad.ColDistinguishOff] = olympiad.YesNo(e.DistinguishOfficial)
		}
		if d.AgeDayDescVaries {
			r[olympiad.ColAgeDayDesc] = e.AgeDayDesc
		}
		if n > 0 {
			a := awardsOrZero(e.NumAwards())
			r[olympiad.ColContestants] = strconv.Itoa(n)
			r[olympiad.ColGoldMedals] = strconv.Itoa(a.Gold)
			r[olympiad.ColSilverMedals] = strconv.Itoa(a.Silver)
			r[olympiad.ColBronzeMedals] = strconv.Itoa(a.Bronze)
			if e.HonourableMentionsAvailable {
				r[olympiad.ColHonourableMents] = strconv.Itoa(a.HonourableMention)
			}
			r[olympiad.ColNumTeams] = strconv.Itoa(e.NumCountries())
			if e.DistinguishOfficial {
				ao := awardsOrZero(e.NumAwardsOfficial())
				vals := []int{e.NumContestantsOfficial(), ao.Gold, ao.Silver, ao.Bronze,
					ao.HonourableMention, e.NumCountriesOfficial()}
				for i, col := range offCols {
					r[col] = strconv.Itoa(vals[i])
				}
			}
		}
		rows = append(rows, r)
	}

	cols := []string{olympiad.ColNumber, olympiad.ColYear, olympiad.ColCountryNumber, olympiad.ColCountry,
		olympiad.ColCountryNameIn, olympiad.ColCity, olympiad.ColStartDate, olympiad.ColEndDate,
		olympiad.ColHomePageURL, olympiad.ColContactName, olympiad.ColContactEmail,
		olympiad.ColNumExams, olympiad.ColNumProblems}
	for i := 1; i <= d.MaxNumProblems; i++ {
		cols = append(cols, olympiad.ProblemMaxColumn(i))
	}
	cols = append(cols, olympiad.ColGoldBoundary, olympiad.ColSilverBoundary, olympiad.ColBronzeBoundary)
	if d.HonourableMentionsAvailableVaries {
		cols = append(cols, olympiad.ColHMAvailable)
	}
	if d.DistinguishOfficialVaries {
		cols = append(cols, olympiad.ColDistinguishOff)
	}
	if d.AgeDayDescVaries {
		cols = append(cols, olympiad.ColAgeDayDesc)
	}
	cols = append(cols, olympiad.ColContestants, olympiad.ColGoldMedals, olympiad.ColSilverMedals,
		olympiad.ColBronzeMedals)
	if d.AnyHonourableMentions {
		cols = append(cols, olympiad.ColHonourableMents)
	}
	cols = append(cols, olympiad.ColNumTeams)
	if d.DistinguishOfficial {
		cols = append(cols, offCols[:4]...)
		if d.AnyHonourableMentions {
			cols = append(cols, offCols[4])
		}
		cols = append(cols, offCols[5])
	}
	return rows, cols
}

type countryCSVScope struct {
	numProblems         int
	distinguishOfficial bool
	showHM              bool
}

func (g *Generator) groupCountryScope() countryCSVScope {
	return countryCSVScope{g.data.MaxNumProblems, g.data.DistinguishOfficial, g.data.AnyHonourableMentions}
}

func eventCountryScope(e *olympiad.Event) countryCSVScope {
	return countryCSVScope{e.NumProblemsOrZero(), e.DistinguishOfficial, e.HonourableMentionsAvailable}
}

func (g *Generator) officialRankCol() string {
	return g.cfg.OfficialAdj + " Rank"
}

func (g *Generator) countriesCSVColumns(s countryCSVScope, o CSVOptions) []string {
	cols := []string{g.cfg.NumKey, olympiad.ColCountryNumber, olympiad.ColAnnualURL,
		olympiad.ColCode, olympiad.ColName, olympiad.ColFlagURL}
	if o.RegSystem {
		cols = append(cols, olympiad.ColGenericNumber)
	}
	if s.distinguishOfficial {
		cols = append(cols, g.cfg.OfficialDesc)
	}
	cols = append(cols, olympiad.ColNormal)
	if o.Private {
		cols = append(cols, olympiad.ColContactEmails)
	}
	if !o.RegSystem {
		cols = append(cols, olympiad.ColContestants, olympiad.ColGoldMedals, olympiad.ColSilverMedals,
			olympiad.ColBronzeMedals)
		if s.showHM {
			cols = append(cols, olympiad.ColHonourableMents)
		}
		cols = append(cols, olympiad.ColTotalScore, olympiad.ColRank)
		if s.distinguishOfficial {
			cols = append(cols, g.officialRankCol())
		}
		cols = append(cols, olympiad.ProblemColumns(s.numProblems)...)
	}
	return cols
}

func (g *Generator) countryCSVRow(c *olympiad.CountryEvent, s countryCSVScope, o CSVOptions) fileutil.Row {
	r := fileutil.Row{
		g.cfg.NumKey:              strconv.Itoa(c.Event.ID),
		olympiad.ColCountryNumber: strconv.Itoa(c.Country.ID),
		olympiad.ColAnnualURL:     c.AnnualURL,
		olympiad.ColCode:          c.Code,
		olympiad.ColName:          c.Name,
		olympiad.ColFlagURL:       c.FlagURL,
		olympiad.ColNormal:        olympiad.YesNo(c.IsNormal),
	}
	if o.RegSystem {
		r[olympiad.ColGenericNumber] = optionalIntText(c.GenericID)
	}
	if s.distinguishOfficial {
		r[g.cfg.OfficialDesc] = ""
		if c.Event.DistinguishOfficial {
			r[g.cfg.OfficialDesc] = olympiad.YesNo(c.Official())
		}
	}
	if o.Private {
		r[olympiad.ColContactEmails] = fileutil.CommaJoin(c.ContactEmails)
	}
	if o.RegSystem || c.NumContestants() == 0 {
		return r
	}
	a := awardsOrZero(c.NumAwards)
	r[olympiad.ColContestants] = strconv.Itoa(c.NumContestants())
	r[olympiad.ColGoldMedals] = strconv.Itoa(a.Gold)
	r[olympiad.ColSilverMedals] = strconv.Itoa(a.Silver)
	r[olympiad.ColBronzeMedals] = strconv.Itoa(a.Bronze)
	if s.showHM && c.Event.HonourableMentionsAvailable {
		r[olympiad.ColHonourableMents] = strconv.Itoa(a.HonourableMention)
	}
	r[olympiad.ColTotalScore] = strconv.Itoa(c.TotalScore)
	r[olympiad.ColRank] = strconv.Itoa(c.Rank)
	if s.distinguishOfficial {
		r[g.officialRankCol()] = optionalIntText(c.RankOfficial)
	}
	for i := 0; i < s.numProblems && i < len(c.ProblemTotals); i++ {
		r[olympiad.ProblemColumn(i+1)] = strconv.Itoa(c.ProblemTotals[i])
	}
	return r
}

// CountriesCSV returns the file of all countries at all events.
func (g *Generator) CountriesCSV() ([]fileutil.Row, []string) {
	s := g.groupCountryScope()
	var rows []fileutil.Row
	for _, c := range olympiad.SortedCountryEvents(g.data.CountryEvents(), olympiad.CompareCountryEvent) {
		rows = append(rows, g.countryCSVRow(c, s, CSVOptions{}))
	}
	return rows, g.countriesCSVColumns(s, CSVOptions{})
}

// EventCountriesCSV returns the file of countries at one event.
func (g *Generator) EventCountriesCSV(e *olympiad.Event, o CSVOptions) ([]fileutil.Row, []string) {
	s := eventCountryScope(e)
	var rows []fileutil.Row
	for _, c := range olympiad.SortedCountryEvents(e.Countries, olympiad.CompareCountryEvent) {
		rows = append(rows, g.countryCSVRow(c, s, o))
	}
	return rows, g.countriesCSVColumns(s, o)
}

func (g *Generator) peopleCSVColumns(numProblems int, distinguishOfficial bool, o CSVOptions) []string {
	cols := []string{g.cfg.NumKey, olympiad.ColCountryNumber, olympiad.ColPersonNumber,
		olympiad.ColAnnualURL, olympiad.ColCountryName, olympiad.ColCountryCode,
		olympiad.ColPrimaryRole, olympiad.ColOtherRoles, olympiad.ColGuideFor,
		olympiad.ColContestantCode, olympiad.ColContestantAge, olympiad.ColGivenName, olympiad.ColFamilyName}
	cols = append(cols, olympiad.ProblemColumns(numProblems)...)
	cols = append(cols, olympiad.ColTotal, olympiad.ColAward, olympiad.ColExtraAwards, olympiad.ColPhotoURL)
	if o.RegSystem {
		cols = append(cols, olympiad.ColGenericNumber)
	} else {
		cols = append(cols, olympiad.ColRank)
		if distinguishOfficial {
			cols = append(cols, g.officialRankCol())
		}
	}
	if o.Private {
		cols = append(cols, olympiad.PrivatePersonColumns...)
	}
	return cols
}

func (g *Generator) scoresCSVColumns(numProblems int, distinguishOfficial bool, o CSVOptions) []string {
	cols := []string{olympiad.ColCountryName, olympiad.ColCountryCode, olympiad.ColContestantCode,
		olympiad.ColGivenName, olympiad.ColFamilyName}
	cols = append(cols, olympiad.ProblemColumns(numProblems)...)
	cols = append(cols, olympiad.ColTotal, olympiad.ColAward, olympiad.ColExtraAwards)
	if !o.RegSystem {
		cols = append(cols, olympiad.ColRank)
		if distinguishOfficial {
			cols = append(cols, g.officialRankCol())
		}
	}
	return cols
}

func timeText(t *datetimeutil.TimeOfDay) string {
	return datetimeutil.TimeToHHMM(t)
}

func (g *Generator) personCSVRow(p *olympiad.PersonEvent, numProblems int, distinguishOfficial, scoresOnly bool, o CSVOptions) fileutil.Row {
	r := fileutil.Row{
		olympiad.ColCountryName: p.Country.Name,
		olympiad.ColCountryCode: p.Country.Code,
		olympiad.ColGivenName:   p.GivenName,
		olympiad.ColFamilyName:  p.FamilyName,
	}
	if !scoresOnly {
		r[g.cfg.NumKey] = strconv.Itoa(p.Event.ID)
		r[olympiad.ColCountryNumber] = strconv.Itoa(p.Country.Country.ID)
		r[olympiad.ColPersonNumber] = strconv.Itoa(p.Person.ID)
		r[olympiad.ColAnnualURL] = p.AnnualURL
		r[olympiad.ColPrimaryRole] = p.PrimaryRole
		roles := slices.Clone(p.OtherRoles)
		slices.SortFunc(roles, collate.Compare)
		r[olympiad.ColOtherRoles] = fileutil.CommaJoin(roles)
		guided := olympiad.SortedCountryEvents(p.GuideFor, olympiad.CompareCountryEvent)
		names := make([]string, len(guided))
		for i, c := range guided {
			names[i] = c.Name
		}
		r[olympiad.ColGuideFor] = fileutil.CommaJoin(names)
		r[olympiad.ColPhotoURL] = p.PhotoURL
		r[olympiad.ColContestantAge] = ""
	}
	if p.IsContestant {
		r[olympiad.ColContestantCode] = p.ContestantCode
		if !scoresOnly {
			r[olympiad.ColContestantAge] = optionalIntText(p.ContestantAge)
		}
		for i := 0; i < numProblems; i++ {
			r[olympiad.ProblemColumn(i+1)] = optionalIntText(p.Score(i))
		}
		r[olympiad.ColTotal] = strconv.Itoa(p.TotalScore)
		r[olympiad.ColAward] = p.Award
		r[olympiad.ColExtraAwards] = fileutil.CommaJoin(p.ExtraAwards)
		if !o.RegSystem {
			r[olympiad.ColRank] = strconv.Itoa(p.Rank)
			if distinguishOfficial {
				r[g.officialRankCol()] = optionalIntText(p.RankOfficial)
			}
		}
	}
	if o.RegSystem && !scoresOnly {
		r[olympiad.ColGenericNumber] = optionalIntText(p.GenericID)
	}
	if o.Private {
		r[olympiad.ColGender] = p.Gender
		r[olympiad.ColDateOfBirth] = datetimeutil.DateToYMDISO(p.DateOfBirth)
		r[olympiad.ColLanguages] = fileutil.CommaJoin(p.Languages)
		r[olympiad.ColDiet] = p.Diet
		r[olympiad.ColTShirt] = p.TShirt
		r[olympiad.ColArrivalPlace] = p.ArrivalPlace
		r[olympiad.ColArrivalDate] = datetimeutil.DateToYMDISO(p.ArrivalDate)
		r[olympiad.ColArrivalTime] = timeText(p.ArrivalTime)
		r[olympiad.ColArrivalFlight] = p.ArrivalFlight
		r[olympiad.ColDeparturePlace] = p.DeparturePlace
		r[olympiad.ColDepartureDate] = datetimeutil.DateToYMDISO(p.DepartureDate)
		r[olympiad.ColDepartureTime] = timeText(p.DepartureTime)
		r[olympiad.ColDepartureFlight] = p.DepartureFlight
		r[olympiad.ColRoomNumber] = p.RoomNumber
		r[olympiad.ColPhoneNumber] = p.PhoneNumber
		r[olympiad.ColBadgePhotoURL] = p.BadgePhotoURL
		r[olympiad.ColConsentFormURL] = p.ConsentFormURL
		r[olympiad.ColPassportNumber] = p.PassportNumber
		r[olympiad.ColNationality] = p.Nationality
		r[olympiad.ColEventPhotosConsent] = yesNoPtr(p.EventPhotosConsent)
	}
	return r
}

// PeopleCSV returns the file of all people at all events.
func (g *Generator) PeopleCSV() ([]fileutil.Row, []string) {
	d := g.data
	var rows []fileutil.Row
	for _, p := range olympiad.SortedPersonEvents(d.PersonEvents(), olympiad.ComparePersonEvent) {
		rows = append(rows, g.personCSVRow(p, d.MaxNumProblems, d.DistinguishOfficial, false, CSVOptions{}))
	}
	return rows, g.peopleCSVColumns(d.MaxNumProblems, d.DistinguishOfficial, CSVOptions{})
}

// EventPeopleCSV returns the file of people at one event.
func (g *Generator) EventPeopleCSV(e *olympiad.Event, o CSVOptions) ([]fileutil.Row, []string) {
	np := e.NumProblemsOrZero()
	var rows []fileutil.Row
	for _, p := range olympiad.SortedPersonEvents(e.People, olympiad.ComparePersonEvent) {
		rows = append(rows, g.personCSVRow(p, np, e.DistinguishOfficial, false, o))
	}
	return rows, g.peopleCSVColumns(np, e.DistinguishOfficial, o)
}

// EventScoresCSV returns the file of contestant scores at one event.
// Only RegSystem is honoured in o.
func (g *Generator) EventScoresCSV(e *olympiad.Event, o CSVOptions) ([]fileutil.Row, []string) {
	np := e.NumProblemsOrZero()
	o.Private = false
	var rows []fileutil.Row
	for _, p := range olympiad.SortedPersonEvents(e.Contestants, olympiad.ComparePersonEvent) {
		rows = append(rows, g.personCSVRow(p, np, e.DistinguishOfficial, true, o))
	}
	return rows, g.scoresCSVColumns(np, e.DistinguishOfficial, o)
}

// CSVBytes encodes rows and columns as returned by the export methods.
func CSVBytes(rows []fileutil.Row, cols []string) ([]byte, error) {
	return fileutil.WriteUTF8CSVBytes(rows, cols)
}
