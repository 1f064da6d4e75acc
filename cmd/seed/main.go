// Command seed fills the database with demo accounts and events.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/gdg-garage/event-registration-api/internal/auth"
	"github.com/gdg-garage/event-registration-api/internal/catalog"
	"github.com/gdg-garage/event-registration-api/internal/config"
	"github.com/gdg-garage/event-registration-api/internal/database"
	"github.com/gdg-garage/event-registration-api/internal/models"
	"github.com/gdg-garage/event-registration-api/internal/session"
	"gorm.io/gorm"
)

type demoUser struct {
	Username string
	Password string
	Role     string
}

var demoUsers = []demoUser{
	{"admin", "admin123", models.RoleAdmin},
	{"student", "student123", models.RoleStudent},
	{"john_doe", "password123", models.RoleStudent},
	{"jane_smith", "password123", models.RoleStudent},
}

var demoEvents = []catalog.EventInput{
	{
		Name:        "Node.js Workshop",
		MaxCapacity: 30,
		Description: "Learn the fundamentals of Node.js development including Express.js, databases, and RESTful APIs.",
		StartTime:   time.Date(2024, 7, 15, 9, 0, 0, 0, time.UTC),
		Location:    "Room B201, Building B",
	},
	{
		Name:        "Web Development Bootcamp",
		MaxCapacity: 25,
		Description: "Intensive 3-day bootcamp covering HTML, CSS, JavaScript, and modern web development tools.",
		StartTime:   time.Date(2024, 7, 20, 10, 0, 0, 0, time.UTC),
		Location:    "Computer Lab A, Building A",
	},
	{
		Name:        "Database Design Workshop",
		MaxCapacity: 20,
		Description: "Learn database design principles, SQL, and NoSQL databases with hands-on projects.",
		StartTime:   time.Date(2024, 7, 25, 14, 0, 0, 0, time.UTC),
		Location:    "Room C305, Building C",
	},
	{
		Name:        "Mobile App Development",
		MaxCapacity: 35,
		Description: "Introduction to React Native and mobile app development for iOS and Android.",
		StartTime:   time.Date(2024, 8, 1, 13, 0, 0, 0, time.UTC),
		Location:    "Innovation Lab, Building D",
	},
	{
		Name:        "Cybersecurity Seminar",
		MaxCapacity: 40,
		Description: "Learn about cybersecurity threats, prevention methods, and ethical hacking basics.",
		StartTime:   time.Date(2024, 8, 5, 15, 0, 0, 0, time.UTC),
		Location:    "Auditorium, Main Building",
	},
	{
		Name:        "AI and Machine Learning",
		MaxCapacity: 30,
		Description: "Introduction to artificial intelligence, machine learning algorithms, and practical applications.",
		StartTime:   time.Date(2024, 8, 10, 11, 0, 0, 0, time.UTC),
		Location:    "AI Lab, Building E",
	},
}

func main() {
	reset := flag.Bool("reset", false, "delete existing users, events and registrations first")
	flag.Parse()

	cfg := config.LoadConfig()
	db := database.Connect(cfg)

	s := newSeeder(cfg, db, color.Output)
	if err := s.run(context.Background(), *reset); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "seeding failed: %v\n", err)
		os.Exit(1)
	}
}

type seeder struct {
	db      *gorm.DB
	auth    *auth.AuthHandler
	catalog *catalog.Catalog
	out     io.Writer
}

// newSeeder creates accounts through the auth service with admin signup
// enabled, so the demo admin can be created without a token.
func newSeeder(cfg *config.Config, db *gorm.DB, out io.Writer) *seeder {
	seedCfg := *cfg
	seedCfg.AllowAdminSignup = true
	return &seeder{
		db:      db,
		auth:    auth.NewAuthHandler(&seedCfg, db, session.NewMemoryStore()),
		catalog: catalog.New(db),
		out:     out,
	}
}

func (s *seeder) run(ctx context.Context, reset bool) error {
	cyan := color.New(color.FgCyan)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	cyan.Fprintln(s.out, "Seeding database")

	if reset {
		if err := s.clear(ctx); err != nil {
			return err
		}
		yellow.Fprintln(s.out, "    cleared existing data")
	}

	for _, u := range demoUsers {
		created, err := s.ensureUser(ctx, u)
		if err != nil {
			return fmt.Errorf("seed user %s: %w", u.Username, err)
		}
		if created {
			green.Fprint(s.out, "    + ")
		} else {
			yellow.Fprint(s.out, "    = ")
		}
		fmt.Fprintf(s.out, "user  %s (%s)\n", u.Username, u.Role)
	}

	for _, e := range demoEvents {
		created, err := s.ensureEvent(ctx, e)
		if err != nil {
			return fmt.Errorf("seed event %s: %w", e.Name, err)
		}
		if created {
			green.Fprint(s.out, "    + ")
		} else {
			yellow.Fprint(s.out, "    = ")
		}
		fmt.Fprintf(s.out, "event %s\n", e.Name)
	}

	fmt.Fprintln(s.out)
	cyan.Fprintln(s.out, "Demo accounts")
	for _, u := range demoUsers {
		fmt.Fprintf(s.out, "    %-8s %s / %s\n", u.Role, u.Username, u.Password)
	}
	return nil
}

func (s *seeder) clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.Registration{}, &models.Session{}, &models.Event{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(model).Error; err != nil {
				return fmt.Errorf("clear %T: %w", model, err)
			}
		}
		return nil
	})
}

func (s *seeder) ensureUser(ctx context.Context, u demoUser) (bool, error) {
	_, err := s.auth.Register(ctx, u.Username, u.Password, u.Role, nil)
	if errors.Is(err, auth.ErrUsernameTaken) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *seeder) ensureEvent(ctx context.Context, e catalog.EventInput) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Event{}).Where("name = ?", e.Name).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if _, err := s.catalog.Create(ctx, e); err != nil {
		return false, err
	}
	return true, nil
}
