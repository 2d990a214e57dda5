package service

import (
	"strconv"
	"testing"
	"time"

	"matholymp/internal/datetimeutil"
	pkgerrors "matholymp/pkg/errors"
)

func date(y int, m time.Month, d int) *time.Time {
	t := datetimeutil.Date(y, m, d)
	return &t
}

func contestantInput(countryID int64, n int) PersonInput {
	return PersonInput{
		CountryID:   countryID,
		GivenName:   "Ann",
		FamilyName:  "Smith",
		Gender:      "Female",
		PrimaryRole: "Contestant " + strconv.Itoa(n),
		Languages:   []string{"English"},
		DateOfBirth: date(2009, time.May, 1),
		TShirt:      "M",
	}
}

func TestPersonValidation(t *testing.T) {
	env := newTestEnv(t)
	abc := env.createCountry(t, "ABC", "Alphabetia")
	def := env.createCountry(t, "DEF", "Defland")
	ctx := registrar(abc)

	cases := []struct {
		name   string
		mutate func(in *PersonInput)
		want   string
	}{
		{"no country", func(in *PersonInput) { in.CountryID = 0 }, "No country specified"},
		{"other country", func(in *PersonInput) { in.CountryID = def }, "Person must be from your country"},
		{"no given name", func(in *PersonInput) { in.GivenName = " " }, "No given name specified"},
		{"no family name", func(in *PersonInput) { in.FamilyName = "" }, "No family name specified"},
		{"no gender", func(in *PersonInput) { in.Gender = "" }, "No gender specified"},
		{"no role", func(in *PersonInput) { in.PrimaryRole = "" }, "No primary role specified"},
		{"no language", func(in *PersonInput) { in.Languages = nil }, "No first language specified"},
		{"no tshirt", func(in *PersonInput) { in.TShirt = "" }, "No T-shirt size specified"},
		{"bad gender", func(in *PersonInput) { in.Gender = "Robot" }, "Invalid gender"},
		{"too many languages", func(in *PersonInput) { in.Languages = []string{"English", "French", "English"} }, "Too many languages specified"},
		{"no dob", func(in *PersonInput) { in.DateOfBirth = nil }, "No date of birth specified"},
		{"too old", func(in *PersonInput) { in.DateOfBirth = date(2006, time.April, 1) }, "Contestant too old"},
		{"too young", func(in *PersonInput) { in.DateOfBirth = date(2016, time.January, 1) }, "Contestant implausibly young"},
		{"early arrival", func(in *PersonInput) { in.ArrivalDate = date(2026, time.March, 31) }, "Arrival date too early"},
		{"late arrival", func(in *PersonInput) { in.ArrivalDate = date(2026, time.April, 6) }, "Arrival date too late"},
		{"early departure", func(in *PersonInput) { in.DepartureDate = date(2026, time.April, 5) }, "Departure date too early"},
		{"late departure", func(in *PersonInput) { in.DepartureDate = date(2026, time.April, 11) }, "Departure date too late"},
		{"bad generic url", func(in *PersonInput) { in.GenericURL = "https://www.example.org/people/personX/" }, "Invalid previous participation URL"},
		{"staff role", func(in *PersonInput) { in.PrimaryRole = "Guide" }, "Invalid role for participant"},
		{"unknown role", func(in *PersonInput) { in.PrimaryRole = "Emperor" }, "Invalid role"},
		{"secondary role", func(in *PersonInput) { in.OtherRoles = []string{"Coordinator"} }, "Non-staff may not have secondary roles"},
		{"guide for", func(in *PersonInput) { in.GuideFor = []int64{def} }, "People with this role may not guide a country"},
		{"phone", func(in *PersonInput) { in.PhoneNumber = "+1 555" }, "Phone numbers may only be entered for Guides"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := contestantInput(abc, 1)
			tc.mutate(&in)
			_, err := env.svc.CreatePerson(ctx, in)
			expectMessage(t, err, tc.want)
		})
	}

	leader := contestantInput(abc, 1)
	leader.PrimaryRole, leader.DateOfBirth = "Leader", date(1850, time.January, 1)
	_, err := env.svc.CreatePerson(ctx, leader)
	expectMessage(t, err, "Participant implausibly old")
	leader.DateOfBirth = date(2027, time.January, 1)
	_, err = env.svc.CreatePerson(ctx, leader)
	expectMessage(t, err, "Participant implausibly young")
}

func TestPersonRolesAndGuides(t *testing.T) {
	env := newTestEnv(t)
	abc := env.createCountry(t, "ABC", "Alphabetia")
	ctx := registrar(abc)

	first, err := env.svc.CreatePerson(ctx, contestantInput(abc, 1))
	if err != nil {
		t.Fatalf("create contestant: %v", err)
	}
	if first.ContestantCode != "ABC1" || first.Private == nil || len(first.Private.Scores) != 2 {
		t.Fatalf("unexpected view %+v", first)
	}
	_, err = env.svc.CreatePerson(ctx, contestantInput(abc, 1))
	expectMessage(t, err, "A person with this role already exists")

	// Updating the same person keeps its role.
	in := contestantInput(abc, 1)
	in.GivenName = "Anne"
	if _, err := env.svc.UpdatePerson(ctx, first.ID, in); err != nil {
		t.Fatalf("update: %v", err)
	}

	observer := contestantInput(abc, 1)
	observer.PrimaryRole, observer.DateOfBirth = "Observer with Contestants", nil
	for i := 0; i < 2; i++ {
		if _, err := env.svc.CreatePerson(ctx, observer); err != nil {
			t.Fatalf("create observer %d: %v", i, err)
		}
	}

	admin := env.admin()
	guide := PersonInput{
		CountryID: env.staffID, GivenName: "Gus", FamilyName: "Guide", Gender: "Male",
		PrimaryRole: "Guide", Languages: []string{"French"}, TShirt: "L",
		GuideFor: []int64{abc}, PhoneNumber: "+1 555",
	}
	if _, err := env.svc.CreatePerson(admin, guide); err != nil {
		t.Fatalf("create guide: %v", err)
	}
	bad := guide
	bad.GuideFor = []int64{env.staffID}
	_, err = env.svc.CreatePerson(admin, bad)
	expectMessage(t, err, "May only guide normal countries")

	staff := guide
	staff.PrimaryRole, staff.GuideFor, staff.PhoneNumber = "Leader", nil, ""
	_, err = env.svc.CreatePerson(admin, staff)
	expectMessage(t, err, "Staff must have administrative roles")
}

func TestRegistrationDisabled(t *testing.T) {
	env := newTestEnv(t)
	abc := env.createCountry(t, "ABC", "Alphabetia")
	person, err := env.svc.CreatePerson(registrar(abc), contestantInput(abc, 1))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := env.svc.SetRegistrationEnabled(env.admin(), false); err != nil {
		t.Fatalf("disable: %v", err)
	}
	msg := "Registration is now disabled, please contact the event organisers to change details of registered participants"
	_, err = env.svc.CreatePerson(registrar(abc), contestantInput(abc, 2))
	expectMessage(t, err, msg)
	expectMessage(t, env.svc.RetirePerson(registrar(abc), person.ID), msg)

	// Staff may still make changes.
	if _, err := env.svc.CreatePerson(env.admin(), contestantInput(abc, 2)); err != nil {
		t.Fatalf("admin create while disabled: %v", err)
	}
	if err := env.svc.RetirePerson(env.admin(), person.ID); err != nil {
		t.Fatalf("admin retire: %v", err)
	}
	if _, err := env.svc.GetPerson(env.admin(), person.ID); !pkgerrors.Is(err, pkgerrors.PersonNotFound) {
		t.Fatalf("expected retired person to be gone, got %v", err)
	}
}

func TestRoleLockHeld(t *testing.T) {
	env := newTestEnv(t)
	abc := env.createCountry(t, "ABC", "Alphabetia")
	if err := env.redis.Set("lock:role:"+strconv.FormatInt(abc, 10)+":Contestant 1", "1"); err != nil {
		t.Fatalf("seed lock: %v", err)
	}
	_, err := env.svc.CreatePerson(registrar(abc), contestantInput(abc, 1))
	if !pkgerrors.Is(err, pkgerrors.LockFailed) {
		t.Fatalf("expected lock failure, got %v", err)
	}
}

func TestPersonPrivacy(t *testing.T) {
	env := newTestEnv(t)
	abc := env.createCountry(t, "ABC", "Alphabetia")
	def := env.createCountry(t, "DEF", "Defland")
	person, err := env.svc.CreatePerson(registrar(abc), contestantInput(abc, 1))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	own, err := env.svc.GetPerson(registrar(abc), person.ID)
	if err != nil || own.Private == nil || own.Private.DateOfBirth != "2009-05-01" {
		t.Fatalf("expected private details for own country, got %+v, %v", own, err)
	}
	other, err := env.svc.GetPerson(registrar(def), person.ID)
	if err != nil || other.Private != nil {
		t.Fatalf("expected no private details for other country, got %+v, %v", other, err)
	}
	list, err := env.svc.ListPeople(registrar(def), abc)
	if err != nil || len(list) != 1 {
		t.Fatalf("expected one person, got %d, %v", len(list), err)
	}
}
