package olympiad

import (
	"cmp"
	"slices"

	"matholymp/internal/collate"
)

func sortStrings(s []string) {
	slices.SortFunc(s, collate.Compare)
}

// ComparePersonEvent orders by event, country code, primary role, family
// name, given name and person id.
func ComparePersonEvent(a, b *PersonEvent) int {
	return cmp.Or(
		cmp.Compare(a.Event.ID, b.Event.ID),
		collate.Compare(a.Country.Code, b.Country.Code),
		collate.Compare(a.PrimaryRole, b.PrimaryRole),
		collate.Compare(a.FamilyName, b.FamilyName),
		collate.Compare(a.GivenName, b.GivenName),
		cmp.Compare(a.Person.ID, b.Person.ID),
	)
}

// ComparePersonEventExams orders contestants by contestant number, then
// country, as for seating in exams.
func ComparePersonEventExams(a, b *PersonEvent) int {
	return cmp.Or(
		cmp.Compare(a.Event.ID, b.Event.ID),
		collate.Compare(a.PrimaryRole, b.PrimaryRole),
		collate.Compare(a.Country.Code, b.Country.Code),
		cmp.Compare(a.Person.ID, b.Person.ID),
	)
}

// CompareCountryEvent orders by event, code, name and country id.
func CompareCountryEvent(a, b *CountryEvent) int {
	return cmp.Or(
		cmp.Compare(a.Event.ID, b.Event.ID),
		collate.Compare(a.Code, b.Code),
		collate.Compare(a.Name, b.Name),
		cmp.Compare(a.Country.ID, b.Country.ID),
	)
}

// CompareCountry orders by code, name and id.
func CompareCountry(a, b *Country) int {
	return cmp.Or(
		collate.Compare(a.Code(), b.Code()),
		collate.Compare(a.Name(), b.Name()),
		cmp.Compare(a.ID, b.ID),
	)
}

// ComparePersonAlpha orders by family name, given name and id.
func ComparePersonAlpha(a, b *Person) int {
	return cmp.Or(
		collate.Compare(a.FamilyName(), b.FamilyName()),
		collate.Compare(a.GivenName(), b.GivenName()),
		cmp.Compare(a.ID, b.ID),
	)
}

// ComparePersonHallOfFame orders by medal counts, best first, then
// alphabetically.
func ComparePersonHallOfFame(a, b *Person) int {
	return cmp.Or(
		cmp.Compare(b.NumAwards.Gold, a.NumAwards.Gold),
		cmp.Compare(b.NumAwards.Silver, a.NumAwards.Silver),
		cmp.Compare(b.NumAwards.Bronze, a.NumAwards.Bronze),
		cmp.Compare(b.NumAwards.HonourableMention, a.NumAwards.HonourableMention),
		ComparePersonAlpha(a, b),
	)
}

// SortedPersonEvents returns a sorted copy of people.
func SortedPersonEvents(people []*PersonEvent, compare func(a, b *PersonEvent) int) []*PersonEvent {
	r := slices.Clone(people)
	slices.SortStableFunc(r, compare)
	return r
}

// SortedCountryEvents returns a sorted copy of countries.
func SortedCountryEvents(countries []*CountryEvent, compare func(a, b *CountryEvent) int) []*CountryEvent {
	r := slices.Clone(countries)
	slices.SortStableFunc(r, compare)
	return r
}

// SortedCountries returns countries ordered by CompareCountry.
func SortedCountries(countries []*Country) []*Country {
	r := slices.Clone(countries)
	slices.SortStableFunc(r, CompareCountry)
	return r
}

// SortedPeople returns a sorted copy of people.
func SortedPeople(people []*Person, compare func(a, b *Person) int) []*Person {
	r := slices.Clone(people)
	slices.SortStableFunc(r, compare)
	return r
}

// ByRank orders contestants by rank, keeping the order of ties.
func ByRank(people []*PersonEvent) []*PersonEvent {
	return SortedPersonEvents(people, func(a, b *PersonEvent) int {
		return cmp.Compare(a.Rank, b.Rank)
	})
}

// CountriesByRank orders countries by rank, keeping the order of ties.
func CountriesByRank(countries []*CountryEvent) []*CountryEvent {
	return SortedCountryEvents(countries, func(a, b *CountryEvent) int {
		return cmp.Compare(a.Rank, b.Rank)
	})
}

// competitionRanks assigns 1,2,2,4 style ranks by descending score.
func competitionRanks(n int, score func(i int) int, set func(i, rank int)) {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(score(b), score(a))
	})
	rank := 0
	for pos, i := range idx {
		if pos == 0 || score(i) != score(idx[pos-1]) {
			rank = pos + 1
		}
		set(i, rank)
	}
}
