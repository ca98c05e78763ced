package domain

import "time"

// CourseYear represents the study year a student is enrolled in.
type CourseYear string

const (
	// CourseYearFirst is the first study year.
	CourseYearFirst CourseYear = "first"
	// CourseYearSecond is the second study year.
	CourseYearSecond CourseYear = "second"
	// CourseYearThird is the third study year.
	CourseYearThird CourseYear = "third"
	// CourseYearFourth is the fourth study year.
	CourseYearFourth CourseYear = "fourth"
)

// CourseYears lists all valid course years in ascending order.
func CourseYears() []CourseYear {
	return []CourseYear{CourseYearFirst, CourseYearSecond, CourseYearThird, CourseYearFourth}
}

// Order returns the ordinal position of the course year, starting at 1.
// Unknown values sort last.
func (c CourseYear) Order() int {
	switch c {
	case CourseYearFirst:
		return 1
	case CourseYearSecond:
		return 2
	case CourseYearThird:
		return 3
	case CourseYearFourth:
		return 4
	default:
		return 5
	}
}

// Valid reports whether the value is one of the known course years.
func (c CourseYear) Valid() bool {
	switch c {
	case CourseYearFirst, CourseYearSecond, CourseYearThird, CourseYearFourth:
		return true
	default:
		return false
	}
}

// Label returns a human-readable form for reports ("Year 2").
func (c CourseYear) Label() string {
	switch c {
	case CourseYearFirst:
		return "Year 1"
	case CourseYearSecond:
		return "Year 2"
	case CourseYearThird:
		return "Year 3"
	case CourseYearFourth:
		return "Year 4"
	default:
		return string(c)
	}
}

// RatingMax is the upper bound of the rating scale. Ratings run 0 to 5.
const RatingMax = 5.0

// Student is one owned record in the roster.
//
// The id is assigned by the store on creation and is immutable afterwards.
// Owner identifies the principal that may mutate or delete the record; it is
// set at creation and never changed implicitly by an update.
type Student struct {
	ID    string `json:"id"`
	Owner string `json:"owner" validate:"required"`

	FullName    string     `json:"full_name" validate:"required,max=200"`
	StudyGroup  string     `json:"study_group" validate:"max=50"`
	Email       string     `json:"email" validate:"omitempty,email"`
	Rating      float64    `json:"rating" validate:"gte=0,lte=5"`
	EnrolledOn  time.Time  `json:"enrolled_on"`
	EnrolledAt  TimeOfDay  `json:"enrolled_at"`
	Scholarship bool       `json:"scholarship"`
	CourseYear  CourseYear `json:"course_year" validate:"required,oneof=first second third fourth"`

	// PhotoBase64 is an optional binary payload encoded as text.
	// PhotoBlurHash is a compact placeholder derived from it for previews.
	PhotoBase64   string `json:"photo_base64,omitempty"`
	PhotoBlurHash string `json:"photo_blurhash,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns an independent copy of the student.
//
// Every field is a value type, so a struct copy is a full copy. The explicit
// method keeps the copying contract visible at call sites: stores hand out
// clones, never references into their table.
func (s *Student) Clone() *Student {
	c := *s
	return &c
}

// OwnedBy reports whether the record belongs to the given owner,
// compared case-insensitively.
func (s *Student) OwnedBy(owner string) bool {
	return FoldEqual(s.Owner, owner)
}

// Touch updates the UpdatedAt timestamp to the current time.
func (s *Student) Touch() {
	s.UpdatedAt = time.Now()
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
// Call this when creating a new record.
func (s *Student) InitTimestamps() {
	now := time.Now()
	s.CreatedAt = now
	s.UpdatedAt = now
}

// CloneAll returns independent copies of all students in the slice.
func CloneAll(students []Student) []Student {
	out := make([]Student, len(students))
	copy(out, students)
	return out
}
