package ingest

import (
	"strings"
	"testing"
)

const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<people>
  <person id="adb-100">
    <name>Ada Example</name>
    <birth>
      <date>1815-12-10</date>
      <time>11:45</time>
      <tz>-05:30</tz>
      <place>
        <name>London</name>
        <lat>51.5074</lat>
        <lon>-0.1278</lon>
      </place>
      <rodden_rating>AA</rodden_rating>
    </birth>
    <bio>
      Pioneering analyst and writer.
    </bio>
  </person>
  <person>
    <id>adb-101</id>
    <fullname>Brendan Sample</fullname>
    <birth>
      <date>1900-01-01</date>
      <rating>C</rating>
    </birth>
  </person>
  <person id="adb-102">
    <!-- no name, skipped -->
    <bio>orphan bio</bio>
  </person>
</people>`

func TestParsePeople(t *testing.T) {
	var people []Person
	err := Parse(strings.NewReader(sampleXML), func(p Person) error {
		people = append(people, p)
		return nil
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if len(people) != 2 {
		t.Fatalf("parsed %d people, want 2 (nameless record skipped)", len(people))
	}

	ada := people[0]
	if ada.ADBID != "adb-100" || ada.FullName != "Ada Example" {
		t.Errorf("identity = %s / %s", ada.ADBID, ada.FullName)
	}
	if ada.BirthDate != "1815-12-10" || ada.BirthTime != "11:45" {
		t.Errorf("birth = %s %s", ada.BirthDate, ada.BirthTime)
	}
	if ada.TZOffset == nil || *ada.TZOffset != -330 {
		t.Errorf("tz offset = %v, want -330", ada.TZOffset)
	}
	if ada.Place != "London" {
		t.Errorf("place = %s", ada.Place)
	}
	if ada.Lat == nil || *ada.Lat != 51.5074 {
		t.Errorf("lat = %v", ada.Lat)
	}
	if ada.Lon == nil || *ada.Lon != -0.1278 {
		t.Errorf("lon = %v", ada.Lon)
	}
	if ada.Rating != "AA" {
		t.Errorf("rating = %s, want AA", ada.Rating)
	}
	if ada.BioText != "Pioneering analyst and writer." {
		t.Errorf("bio = %q, want trimmed text", ada.BioText)
	}

	brendan := people[1]
	if brendan.ADBID != "adb-101" || brendan.FullName != "Brendan Sample" {
		t.Errorf("identity = %s / %s (id element and fullname fallback)", brendan.ADBID, brendan.FullName)
	}
	if brendan.Rating != "C" {
		t.Errorf("rating = %s, want C from the rating fallback", brendan.Rating)
	}
	if brendan.TZOffset != nil || brendan.Lat != nil {
		t.Error("absent birth details must stay nil")
	}
	if brendan.BioText != "" {
		t.Errorf("bio = %q, want empty", brendan.BioText)
	}
}

func TestParseCallbackErrorAborts(t *testing.T) {
	calls := 0
	err := Parse(strings.NewReader(sampleXML), func(Person) error {
		calls++
		return ingestErrors.New(ErrUpsertFailed)
	})
	if err == nil {
		t.Fatal("Parse swallowed the callback error")
	}
	if calls != 1 {
		t.Errorf("callback ran %d times after erroring, want 1", calls)
	}
}

func TestTZToMinutes(t *testing.T) {
	cases := []struct {
		in   string
		want *int
	}{
		{"+05:30", ptr(330)},
		{"-05:30", ptr(-330)},
		{"−02:00", ptr(-120)}, // unicode minus
		{"3", ptr(180)},
		{"", nil},
		{"garbage", nil},
	}
	for _, tc := range cases {
		got := tzToMinutes(tc.in)
		switch {
		case tc.want == nil && got != nil:
			t.Errorf("tzToMinutes(%q) = %d, want nil", tc.in, *got)
		case tc.want != nil && (got == nil || *got != *tc.want):
			t.Errorf("tzToMinutes(%q) = %v, want %d", tc.in, got, *tc.want)
		}
	}
}

func ptr(n int) *int { return &n }
