package seed

import (
	"fmt"
	"log"

	"yatube/internal/models"

	"gorm.io/gorm"
)

// Options configure the seeder.
type Options struct {
	NumUsers        int
	NumPosts        int
	CommentsPerPost int
	FollowsPerUser  int
	// UngroupedShare is the fraction of posts created without a group.
	UngroupedShare float64
	ShouldClean    bool
	SkipBcrypt     bool
	DryRun         bool
	MaxDays        int
	BatchSize      int
	RandomSeed     int64
}

// Summary counts what a seed run created.
type Summary struct {
	Groups   int
	Users    int
	Posts    int
	Comments int
	Follows  int
}

// Seeder populates a database with built-in groups and fake content.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
}

// NewSeeder returns a seeder writing through db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.UngroupedShare <= 0 || opts.UngroupedShare > 1 {
		opts.UngroupedShare = 0.3
	}
	return &Seeder{db: db, opts: opts, factory: NewFactory(db, opts)}
}

// ClearAll deletes every row the seeder can create, children first.
func (s *Seeder) ClearAll() error {
	log.Println("🗑️  Clearing existing data...")
	tx := s.db.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{&models.Follow{}, &models.Comment{}, &models.Post{}, &models.Group{}, &models.User{}} {
		if err := tx.Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

// Run seeds built-in groups, then users, posts, comments and follows.
func (s *Seeder) Run() (*Summary, error) {
	if s.opts.ShouldClean && !s.opts.DryRun {
		if err := s.ClearAll(); err != nil {
			return nil, err
		}
	}

	summary := &Summary{}

	groups, err := s.groups()
	if err != nil {
		return nil, err
	}
	summary.Groups = len(groups)

	users := make([]*models.User, 0, s.opts.NumUsers)
	for i := 0; i < s.opts.NumUsers; i++ {
		u, err := s.factory.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	summary.Users = len(users)
	log.Printf("✓ %d users created", len(users))
	if len(users) == 0 {
		return summary, nil
	}

	rnd := s.factory.rnd
	posts := make([]*models.Post, 0, s.opts.NumPosts)
	for i := 0; i < s.opts.NumPosts; i++ {
		author := users[rnd.Intn(len(users))]
		var group *models.Group
		if len(groups) > 0 && rnd.Float64() >= s.opts.UngroupedShare {
			group = groups[rnd.Intn(len(groups))]
		}
		posts = append(posts, s.factory.BuildPost(author, group))
	}
	if err := s.factory.CreatePostsBatch(posts); err != nil {
		return nil, fmt.Errorf("create posts: %w", err)
	}
	summary.Posts = len(posts)
	log.Printf("✓ %d posts created", len(posts))

	for _, post := range posts {
		for i := 0; i < s.opts.CommentsPerPost; i++ {
			if _, err := s.factory.CreateComment(users[rnd.Intn(len(users))], post); err != nil {
				return nil, fmt.Errorf("create comment: %w", err)
			}
			summary.Comments++
		}
	}

	for _, user := range users {
		for i := 0; i < s.opts.FollowsPerUser; i++ {
			created, err := s.factory.CreateFollow(user, users[rnd.Intn(len(users))])
			if err != nil {
				return nil, fmt.Errorf("create follow: %w", err)
			}
			if created {
				summary.Follows++
			}
		}
	}
	log.Printf("✓ %d comments, %d follows created", summary.Comments, summary.Follows)

	return summary, nil
}

func (s *Seeder) groups() ([]*models.Group, error) {
	if s.opts.DryRun {
		items, err := BuiltInGroups()
		if err != nil {
			return nil, err
		}
		groups := make([]*models.Group, 0, len(items))
		for i, item := range items {
			groups = append(groups, &models.Group{ID: uint(i + 1), Title: item.Title, Slug: item.Slug})
		}
		return groups, nil
	}

	if err := Groups(s.db); err != nil {
		return nil, err
	}
	var groups []*models.Group
	if err := s.db.Order("id").Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}
