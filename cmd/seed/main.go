// Package main seeds a data directory with demo users and student records.
//
// Usage:
//
//	go run ./cmd/seed --data-dir ~/Roster/data
//	go run ./cmd/seed --count 50 --with-users --photo ./portrait.png
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"

	"github.com/samber/do/v2"

	"github.com/rosterapp/roster/internal/di"
	"github.com/rosterapp/roster/internal/domain"
	"github.com/rosterapp/roster/internal/logger"
	"github.com/rosterapp/roster/internal/media/images"
	"github.com/rosterapp/roster/internal/service"
)

var (
	count     = flag.Int("count", 25, "Number of student records to create")
	withUsers = flag.Bool("with-users", false, "Also register demo user accounts")
	photoPath = flag.String("photo", "", "Image file to attach to some records")
)

var firstNames = []string{
	"Ivan", "Maria", "Alexei", "Olga", "Dmitri", "Anna", "Sergei", "Elena",
	"Nikolai", "Tatiana", "Pavel", "Irina", "Viktor", "Natalia", "Boris",
}

var lastNames = []string{
	"Petrov", "Ivanova", "Sidorov", "Kuznetsova", "Smirnov", "Popova",
	"Volkov", "Fedorova", "Morozov", "Orlova",
}

var groups = []string{"CS-101", "CS-102", "MATH-201", "PHYS-110", "BIO-150", ""}

var demoUsers = []struct{ username, password string }{
	{"alice", "alice-demo-1"},
	{"bob", "bob-demo-1"},
}

func main() {
	container := di.NewContainer()
	log := do.MustInvoke[*logger.Logger](container)
	students := do.MustInvoke[*service.StudentService](container)

	owners := []string{"admin"}
	if *withUsers {
		auth := do.MustInvoke[*service.AuthService](container)
		for _, u := range demoUsers {
			err := auth.Register(service.RegisterRequest{Username: u.username, Password: u.password})
			if err != nil {
				// Re-running the seeder against an existing directory is fine.
				log.Warn("skipping demo user", "username", u.username, "error", err)
				continue
			}
			log.Info("demo user registered", "username", u.username, "password", u.password)
		}
		owners = append(owners, "alice", "bob")
	}

	var photo string
	if *photoPath != "" {
		payload, err := images.EncodeFile(*photoPath)
		if err != nil {
			log.Fatal("failed to load photo", "path", *photoPath, "error", err)
		}
		photo = payload
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	years := domain.CourseYears()

	// Rating granularity of 0.01 across the whole scale.
	ratingSteps := int(domain.RatingMax*100) + 1

	created := 0
	for i := 0; i < *count; i++ {
		first := firstNames[rng.Intn(len(firstNames))]
		last := lastNames[rng.Intn(len(lastNames))]

		st := &domain.Student{
			Owner:       owners[rng.Intn(len(owners))],
			FullName:    first + " " + last,
			StudyGroup:  groups[rng.Intn(len(groups))],
			Email:       fmt.Sprintf("%s.%s%d@example.edu", first, last, i),
			Rating:      float64(rng.Intn(ratingSteps)) / 100,
			EnrolledOn:  time.Now().AddDate(0, -rng.Intn(36), -rng.Intn(28)),
			EnrolledAt:  domain.TimeOfDay(time.Duration(8+rng.Intn(9)) * time.Hour),
			Scholarship: rng.Intn(4) == 0,
			CourseYear:  years[rng.Intn(len(years))],
		}
		if photo != "" && rng.Intn(3) == 0 {
			st.PhotoBase64 = photo
		}

		if err := students.Create(st); err != nil {
			log.Fatal("failed to create record", "error", err)
		}
		created++
	}

	log.Info("seeding complete", "records", created, "owners", owners)
}
