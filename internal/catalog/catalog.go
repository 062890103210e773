package catalog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/wolfman30/healthconnect/internal/appointments"
)

var (
	ErrDoctorNotFound    = errors.New("catalog: doctor not found")
	ErrTreatmentNotFound = errors.New("catalog: treatment not found")
	ErrInvalidGender     = errors.New("catalog: invalid gender filter")
)

// Specialization is a bookable medical discipline.
type Specialization struct {
	Slug        string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	DoctorCount int    `json:"doctorCount"`
}

// Doctor is a provider that accepts appointments.
type Doctor struct {
	ID              int                 `json:"id"`
	Name            string              `json:"name"`
	Specialization  string              `json:"specialization"`
	ExperienceYears int                 `json:"experience"`
	Location        string              `json:"location"`
	Contact         string              `json:"contact"`
	Availability    string              `json:"availability"`
	Gender          appointments.Gender `json:"gender"`
}

// SpecializationSlug is the route form of the doctor's specialization.
func (d Doctor) SpecializationSlug() string {
	return Slugify(d.Specialization)
}

// TreatmentCategory groups hospital procedures.
type TreatmentCategory struct {
	Slug        string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Treatment is a hospital procedure bookable on a treatment date.
type Treatment struct {
	ID              int                 `json:"id"`
	Name            string              `json:"name"`
	Category        string              `json:"category"`
	Hospital        string              `json:"hospital"`
	Location        string              `json:"location"`
	CostRupees      int                 `json:"costRupees"`
	DoctorName      string              `json:"doctorName"`
	DoctorGender    appointments.Gender `json:"doctorGender"`
	ExperienceYears int                 `json:"experience"`
	Achievements    []string            `json:"achievements"`
}

// CostLabel renders the cost the way it is shown to patients, e.g. "Rs. 14,999".
func (t Treatment) CostLabel() string {
	return "Rs. " + groupThousands(t.CostRupees)
}

// GenderFilter is "all" or a specific provider gender.
type GenderFilter string

const FilterAll GenderFilter = "all"

// ParseGenderFilter treats blank as all.
func ParseGenderFilter(value string) (GenderFilter, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" || value == string(FilterAll) {
		return FilterAll, nil
	}
	g, err := appointments.ParseGender(value)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidGender, value)
	}
	return GenderFilter(g), nil
}

func (f GenderFilter) matches(g appointments.Gender) bool {
	return f == "" || f == FilterAll || appointments.Gender(f) == g
}

// Catalog is an immutable, in-memory directory of providers and procedures.
type Catalog struct {
	specializations []Specialization
	doctors         []Doctor
	categories      []TreatmentCategory
	treatments      []Treatment
}

// New builds a catalog from explicit data.
func New(specializations []Specialization, doctors []Doctor, categories []TreatmentCategory, treatments []Treatment) *Catalog {
	return &Catalog{
		specializations: specializations,
		doctors:         doctors,
		categories:      categories,
		treatments:      treatments,
	}
}

// Default returns the built-in directory.
func Default() *Catalog {
	return New(defaultSpecializations, defaultDoctors, defaultCategories, defaultTreatments)
}

func (c *Catalog) Specializations() []Specialization {
	return append([]Specialization(nil), c.specializations...)
}

func (c *Catalog) Specialization(slug string) (Specialization, bool) {
	for _, s := range c.specializations {
		if s.Slug == slug {
			return s, true
		}
	}
	return Specialization{}, false
}

// DoctorsBySpecialization lists doctors for a specialization slug filtered by
// gender. An unknown slug lists every doctor.
func (c *Catalog) DoctorsBySpecialization(slug string, filter GenderFilter) []Doctor {
	slug = strings.ToLower(strings.TrimSpace(slug))
	_, known := c.Specialization(slug)
	out := make([]Doctor, 0, len(c.doctors))
	for _, d := range c.doctors {
		if known && d.SpecializationSlug() != slug {
			continue
		}
		if !filter.matches(d.Gender) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func (c *Catalog) Doctor(id int) (Doctor, error) {
	for _, d := range c.doctors {
		if d.ID == id {
			return d, nil
		}
	}
	return Doctor{}, fmt.Errorf("%w: %d", ErrDoctorNotFound, id)
}

func (c *Catalog) TreatmentCategories() []TreatmentCategory {
	return append([]TreatmentCategory(nil), c.categories...)
}

func (c *Catalog) TreatmentCategory(slug string) (TreatmentCategory, bool) {
	for _, tc := range c.categories {
		if tc.Slug == slug {
			return tc, true
		}
	}
	return TreatmentCategory{}, false
}

// TreatmentsByCategory mirrors DoctorsBySpecialization for procedures.
func (c *Catalog) TreatmentsByCategory(slug string, filter GenderFilter) []Treatment {
	slug = strings.ToLower(strings.TrimSpace(slug))
	_, known := c.TreatmentCategory(slug)
	out := make([]Treatment, 0, len(c.treatments))
	for _, t := range c.treatments {
		if known && t.Category != slug {
			continue
		}
		if !filter.matches(t.DoctorGender) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (c *Catalog) Treatment(id int) (Treatment, error) {
	for _, t := range c.treatments {
		if t.ID == id {
			return t, nil
		}
	}
	return Treatment{}, fmt.Errorf("%w: %d", ErrTreatmentNotFound, id)
}

// Slugify lower-cases a display name and joins its words with dashes.
func Slugify(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

func groupThousands(n int) string {
	digits := strconv.Itoa(n)
	if n < 0 {
		return "-" + groupThousands(-n)
	}
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}
