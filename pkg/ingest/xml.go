// Package ingest parses uploaded research-dataset XML archives into the
// relational store and fans out follow-up scoring and embedding jobs.
package ingest

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"
)

// Person is one parsed dataset record.
type Person struct {
	ADBID    string
	FullName string

	BirthDate string
	BirthTime string
	TZOffset  *int
	Place     string
	Lat       *float64
	Lon       *float64
	Rating    string

	BioText string
}

type personXML struct {
	IDAttr string `xml:"id,attr"`
	IDElem string `xml:"id"`

	Name     string `xml:"name"`
	FullName string `xml:"fullname"`

	Birth struct {
		Date  string `xml:"date"`
		Time  string `xml:"time"`
		TZ    string `xml:"tz"`
		Place struct {
			Name string `xml:"name"`
			Lat  string `xml:"lat"`
			Lon  string `xml:"lon"`
		} `xml:"place"`
		RoddenRating string `xml:"rodden_rating"`
		Rating       string `xml:"rating"`
	} `xml:"birth"`

	Bio       string `xml:"bio"`
	Biography string `xml:"biography"`
}

// Parse streams person elements out of r, invoking fn for each record that
// carries both an id and a name. Records missing either are skipped, not
// fatal. A non-nil error from fn aborts the parse.
func Parse(r io.Reader, fn func(Person) error) error {
	dec := xml.NewDecoder(r)
	// External entity expansion stays disabled; Strict off tolerates the
	// encoding quirks seen in real dataset exports.
	dec.Strict = false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "person" {
			continue
		}

		var raw personXML
		if err := dec.DecodeElement(&raw, &start); err != nil {
			return err
		}

		person, ok := toPerson(raw)
		if !ok {
			continue
		}
		if err := fn(person); err != nil {
			return err
		}
	}
}

func toPerson(raw personXML) (Person, bool) {
	id := firstNonEmpty(raw.IDAttr, raw.IDElem)
	name := firstNonEmpty(raw.Name, raw.FullName)
	if id == "" || name == "" {
		return Person{}, false
	}

	p := Person{
		ADBID:     id,
		FullName:  name,
		BirthDate: raw.Birth.Date,
		BirthTime: raw.Birth.Time,
		TZOffset:  tzToMinutes(raw.Birth.TZ),
		Place:     raw.Birth.Place.Name,
		Lat:       parseFloat(raw.Birth.Place.Lat),
		Lon:       parseFloat(raw.Birth.Place.Lon),
		Rating:    firstNonEmpty(raw.Birth.RoddenRating, raw.Birth.Rating),
		BioText:   strings.TrimSpace(firstNonEmpty(raw.Bio, raw.Biography)),
	}
	return p, true
}

// tzToMinutes converts offsets like "+05:30", "-3" or "−02:00" to minutes.
func tzToMinutes(tz string) *int {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return nil
	}

	sign := 1
	if strings.ContainsAny(tz, "-−") {
		sign = -1
	}
	z := strings.NewReplacer("+", "", "-", "", "−", "").Replace(tz)

	hPart, mPart, found := strings.Cut(z, ":")
	if !found {
		mPart = "0"
	}
	h, err := strconv.Atoi(strings.TrimSpace(hPart))
	if err != nil {
		return nil
	}
	m, err := strconv.Atoi(strings.TrimSpace(mPart))
	if err != nil {
		return nil
	}

	mins := sign * (h*60 + m)
	return &mins
}

func parseFloat(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
