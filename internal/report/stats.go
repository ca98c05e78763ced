package report

import (
	"sort"

	"github.com/rosterapp/roster/internal/domain"
)

// Summary holds the headline numbers for a set of records.
type Summary struct {
	Count              int
	MeanRating         float64
	MinRating          float64
	MaxRating          float64
	ScholarshipCount   int
	ScholarshipPercent float64
}

// CourseBreakdown is one course-year row: how many records and their mean rating.
type CourseBreakdown struct {
	Year       domain.CourseYear
	Label      string
	Count      int
	MeanRating float64
}

// GroupBreakdown is one study-group row.
type GroupBreakdown struct {
	Group string
	Count int
}

// RatingBucket is one fixed histogram bucket.
type RatingBucket struct {
	Label   string
	Count   int
	Percent float64
}

// noGroupLabel stands in for records without a study group.
const noGroupLabel = "(no group)"

// topGroupLimit caps the group breakdown to the largest groups.
const topGroupLimit = 10

// summarize computes the headline numbers. The caller guarantees a non-empty
// list; every divisor below is len(list).
func summarize(list []domain.Student) Summary {
	s := Summary{
		Count:     len(list),
		MinRating: list[0].Rating,
		MaxRating: list[0].Rating,
	}

	var total float64
	for i := range list {
		r := list[i].Rating
		total += r
		if r < s.MinRating {
			s.MinRating = r
		}
		if r > s.MaxRating {
			s.MaxRating = r
		}
		if list[i].Scholarship {
			s.ScholarshipCount++
		}
	}

	s.MeanRating = total / float64(len(list))
	s.ScholarshipPercent = float64(s.ScholarshipCount) / float64(len(list)) * 100
	return s
}

// byCourseYear groups records by course year, ascending, with each year's
// mean rating. Years with no records are omitted.
func byCourseYear(list []domain.Student) []CourseBreakdown {
	counts := map[domain.CourseYear]int{}
	totals := map[domain.CourseYear]float64{}
	for i := range list {
		counts[list[i].CourseYear]++
		totals[list[i].CourseYear] += list[i].Rating
	}

	out := make([]CourseBreakdown, 0, len(counts))
	for year, count := range counts {
		out = append(out, CourseBreakdown{
			Year:       year,
			Label:      year.Label(),
			Count:      count,
			MeanRating: totals[year] / float64(count),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Year.Order() < out[j].Year.Order()
	})
	return out
}

// topGroups returns up to topGroupLimit study groups by descending record
// count, ties broken by group name for a stable document.
func topGroups(list []domain.Student) []GroupBreakdown {
	counts := map[string]int{}
	for i := range list {
		group := list[i].StudyGroup
		if group == "" {
			group = noGroupLabel
		}
		counts[group]++
	}

	out := make([]GroupBreakdown, 0, len(counts))
	for group, count := range counts {
		out = append(out, GroupBreakdown{Group: group, Count: count})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Group < out[j].Group
	})

	if len(out) > topGroupLimit {
		out = out[:topGroupLimit]
	}
	return out
}

// ratingBuckets sorts every record into a fixed four-bucket histogram.
// Buckets cover the whole 0 to 5 scale, so the counts always sum to len(list).
func ratingBuckets(list []domain.Student) []RatingBucket {
	buckets := []RatingBucket{
		{Label: "4.5 - 5.0"},
		{Label: "3.5 - 4.49"},
		{Label: "2.5 - 3.49"},
		{Label: "0 - 2.49"},
	}

	for i := range list {
		switch r := list[i].Rating; {
		case r >= 4.5:
			buckets[0].Count++
		case r >= 3.5:
			buckets[1].Count++
		case r >= 2.5:
			buckets[2].Count++
		default:
			buckets[3].Count++
		}
	}

	for i := range buckets {
		buckets[i].Percent = float64(buckets[i].Count) / float64(len(list)) * 100
	}
	return buckets
}
