package olympiad

import "strconv"

// Column headers shared by the CSV files of the static site and the
// registration system.
const (
	ColNumber          = "Number"
	ColYear            = "Year"
	ColCountryNumber   = "Country Number"
	ColCountry         = "Country"
	ColCountryNameIn   = "Country Name In"
	ColCity            = "City"
	ColStartDate       = "Start Date"
	ColEndDate         = "End Date"
	ColHomePageURL     = "Home Page URL"
	ColContactName     = "Contact Name"
	ColContactEmail    = "Contact Email"
	ColNumExams        = "Number of Exams"
	ColNumProblems     = "Number of Problems"
	ColGoldBoundary    = "Gold Boundary"
	ColSilverBoundary  = "Silver Boundary"
	ColBronzeBoundary  = "Bronze Boundary"
	ColHMAvailable     = "Honourable Mentions Available"
	ColDistinguishOff  = "Distinguish Official Countries"
	ColAgeDayDesc      = "Age Day Description"
	ColContestants     = "Contestants"
	ColGoldMedals      = "Gold Medals"
	ColSilverMedals    = "Silver Medals"
	ColBronzeMedals    = "Bronze Medals"
	ColHonourableMents = "Honourable Mentions"
	ColNumTeams        = "Number of Teams"

	ColDay         = "Day"
	ColLanguage    = "Language"
	ColDescription = "Description"
	ColURL         = "URL"

	ColAnnualURL     = "Annual URL"
	ColCode          = "Code"
	ColName          = "Name"
	ColFlagURL       = "Flag URL"
	ColGenericNumber = "Generic Number"
	ColNormal        = "Normal"
	ColContactEmails = "Contact Emails"
	ColTotalScore    = "Total Score"
	ColRank          = "Rank"

	ColPersonNumber   = "Person Number"
	ColCountryName    = "Country Name"
	ColCountryCode    = "Country Code"
	ColPrimaryRole    = "Primary Role"
	ColOtherRoles     = "Other Roles"
	ColGuideFor       = "Guide For"
	ColContestantCode = "Contestant Code"
	ColContestantAge  = "Contestant Age"
	ColGivenName      = "Given Name"
	ColFamilyName     = "Family Name"
	ColTotal          = "Total"
	ColAward          = "Award"
	ColExtraAwards    = "Extra Awards"
	ColPhotoURL       = "Photo URL"

	ColGender             = "Gender"
	ColDateOfBirth        = "Date of Birth"
	ColLanguages          = "Languages"
	ColDiet               = "Allergies and Dietary Requirements"
	ColTShirt             = "T-Shirt Size"
	ColArrivalPlace       = "Arrival Place"
	ColArrivalDate        = "Arrival Date"
	ColArrivalTime        = "Arrival Time"
	ColArrivalFlight      = "Arrival Flight"
	ColDeparturePlace     = "Departure Place"
	ColDepartureDate      = "Departure Date"
	ColDepartureTime      = "Departure Time"
	ColDepartureFlight    = "Departure Flight"
	ColRoomNumber         = "Room Number"
	ColPhoneNumber        = "Phone Number"
	ColBadgePhotoURL      = "Badge Photo URL"
	ColConsentFormURL     = "Consent Form URL"
	ColPassportNumber     = "Passport or Identity Card Number"
	ColNationality        = "Nationality"
	ColEventPhotosConsent = "Event Photos Consent"
)

// PrivatePersonColumns are the people columns only shown to organisers.
var PrivatePersonColumns = []string{
	ColGender, ColDateOfBirth, ColLanguages, ColDiet, ColTShirt,
	ColArrivalPlace, ColArrivalDate, ColArrivalTime, ColArrivalFlight,
	ColDeparturePlace, ColDepartureDate, ColDepartureTime, ColDepartureFlight,
	ColRoomNumber, ColPhoneNumber, ColBadgePhotoURL, ColConsentFormURL,
	ColPassportNumber, ColNationality, ColEventPhotosConsent,
}

// ProblemColumn returns the header "P<n>" for 1-based problem n.
func ProblemColumn(n int) string {
	return "P" + strconv.Itoa(n)
}

// ProblemMaxColumn returns the header "P<n> Max" for 1-based problem n.
func ProblemMaxColumn(n int) string {
	return ProblemColumn(n) + " Max"
}

// ProblemColumns returns the headers P1 to Pn.
func ProblemColumns(n int) []string {
	r := make([]string, n)
	for i := range r {
		r[i] = ProblemColumn(i + 1)
	}
	return r
}

// YesNo renders a boolean as "Yes" or "No".
func YesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
