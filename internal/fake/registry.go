package fake

import (
	"sort"
	"time"

	"github.com/brianvoe/gofakeit/v6"
)

// Kind names a generator. Kinds are written the way templates reference them,
// without the "faker." prefix.
type Kind string

const (
	KindUUID Kind = "string.uuid"

	KindFullName  Kind = "person.fullName"
	KindFirstName Kind = "person.firstName"
	KindLastName  Kind = "person.lastName"
	KindJobTitle  Kind = "person.jobTitle"
	KindGender    Kind = "person.sex"

	KindEmail    Kind = "internet.email"
	KindUsername Kind = "internet.userName"
	KindURL      Kind = "internet.url"
	KindIPv4     Kind = "internet.ipv4"
	KindDomain   Kind = "internet.domainName"
	KindPhone    Kind = "phone.number"

	KindLoremWord      Kind = "lorem.word"
	KindLoremSentence  Kind = "lorem.sentence"
	KindLoremParagraph Kind = "lorem.paragraph"

	KindDatePast   Kind = "date.past"
	KindDateFuture Kind = "date.future"
	KindDateRecent Kind = "date.recent"

	KindInt     Kind = "number.int"
	KindFloat   Kind = "number.float"
	KindBoolean Kind = "datatype.boolean"

	KindCity    Kind = "location.city"
	KindCountry Kind = "location.country"
	KindStreet  Kind = "location.streetAddress"
	KindZip     Kind = "location.zipCode"

	KindCompany     Kind = "company.name"
	KindBuzzword    Kind = "company.buzzNoun"
	KindProductName Kind = "commerce.productName"
	KindPrice       Kind = "commerce.price"
	KindColor       Kind = "color.human"
)

// Generator produces one value from the faker source.
type Generator func(f *gofakeit.Faker, now time.Time) any

var builtins = map[Kind]Generator{
	KindUUID: func(f *gofakeit.Faker, _ time.Time) any { return f.UUID() },

	KindFullName:  func(f *gofakeit.Faker, _ time.Time) any { return f.Name() },
	KindFirstName: func(f *gofakeit.Faker, _ time.Time) any { return f.FirstName() },
	KindLastName:  func(f *gofakeit.Faker, _ time.Time) any { return f.LastName() },
	KindJobTitle:  func(f *gofakeit.Faker, _ time.Time) any { return f.JobTitle() },
	KindGender:    func(f *gofakeit.Faker, _ time.Time) any { return f.Gender() },

	KindEmail:    func(f *gofakeit.Faker, _ time.Time) any { return f.Email() },
	KindUsername: func(f *gofakeit.Faker, _ time.Time) any { return f.Username() },
	KindURL:      func(f *gofakeit.Faker, _ time.Time) any { return f.URL() },
	KindIPv4:     func(f *gofakeit.Faker, _ time.Time) any { return f.IPv4Address() },
	KindDomain:   func(f *gofakeit.Faker, _ time.Time) any { return f.DomainName() },
	KindPhone:    func(f *gofakeit.Faker, _ time.Time) any { return f.Phone() },

	KindLoremWord:      func(f *gofakeit.Faker, _ time.Time) any { return f.Word() },
	KindLoremSentence:  func(f *gofakeit.Faker, _ time.Time) any { return f.Sentence(8) },
	KindLoremParagraph: func(f *gofakeit.Faker, _ time.Time) any { return f.Paragraph(1, 4, 10, " ") },

	KindDatePast: func(f *gofakeit.Faker, now time.Time) any {
		return Timestamp(f.DateRange(now.AddDate(-1, 0, 0), now))
	},
	KindDateFuture: func(f *gofakeit.Faker, now time.Time) any {
		return Timestamp(f.DateRange(now, now.AddDate(1, 0, 0)))
	},
	KindDateRecent: func(f *gofakeit.Faker, now time.Time) any {
		return Timestamp(f.DateRange(now.Add(-24*time.Hour), now))
	},

	KindInt:     func(f *gofakeit.Faker, _ time.Time) any { return f.Number(0, 99999) },
	KindFloat:   func(f *gofakeit.Faker, _ time.Time) any { return f.Float64Range(0, 1000) },
	KindBoolean: func(f *gofakeit.Faker, _ time.Time) any { return f.Bool() },

	KindCity:    func(f *gofakeit.Faker, _ time.Time) any { return f.City() },
	KindCountry: func(f *gofakeit.Faker, _ time.Time) any { return f.Country() },
	KindStreet:  func(f *gofakeit.Faker, _ time.Time) any { return f.Street() },
	KindZip:     func(f *gofakeit.Faker, _ time.Time) any { return f.Zip() },

	KindCompany:     func(f *gofakeit.Faker, _ time.Time) any { return f.Company() },
	KindBuzzword:    func(f *gofakeit.Faker, _ time.Time) any { return f.BuzzWord() },
	KindProductName: func(f *gofakeit.Faker, _ time.Time) any { return f.ProductName() },
	KindPrice:       func(f *gofakeit.Faker, _ time.Time) any { return f.Price(1, 1000) },
	KindColor:       func(f *gofakeit.Faker, _ time.Time) any { return f.Color() },
}

// Kinds lists every built-in generator kind, sorted.
func Kinds() []Kind {
	out := make([]Kind, 0, len(builtins))
	for k := range builtins {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Timestamp renders t the way generated records carry dates.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
