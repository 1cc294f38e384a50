package main

import (
	"context"
	"flag"
	"fmt"
	"regexp"
	"strings"

	"feedfinder/pkg/config"
	"feedfinder/pkg/database"
	"feedfinder/pkg/logger"
	"feedfinder/services/api/internal/entity"
	"feedfinder/services/api/internal/repo/persistent"

	"github.com/brianvoe/gofakeit/v7"
	"golang.org/x/crypto/bcrypt"
)

const seedPassword = "password123"

var notUsername = regexp.MustCompile(`[^A-Za-z0-9_]`)

type repos struct {
	users   persistent.UserRepository
	posts   persistent.PostRepository
	follows persistent.FollowRepository
	ratings persistent.RatingRepository
}

func main() {
	var users, postsPerUser int
	flag.IntVar(&users, "users", 8, "number of random users to create")
	flag.IntVar(&postsPerUser, "posts", 4, "posts per user")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log := logger.New()
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	r := repos{
		users:   persistent.NewUserRepository(db),
		posts:   persistent.NewPostRepository(db),
		follows: persistent.NewFollowRepository(db),
		ratings: persistent.NewRatingRepository(db),
	}

	if err := seedDatabase(context.Background(), r, users, postsPerUser, log); err != nil {
		log.Error("Failed to seed database: %v", err)
		panic(err)
	}

	log.Info("Database seeded successfully!")
}

func seedDatabase(ctx context.Context, r repos, count, postsPerUser int, log *logger.Logger) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	// Fixed accounts first so the demo logins are predictable.
	fixed := []*entity.User{
		{Username: "admin", Email: "admin@feedfinder.test", Role: entity.RoleAdmin, IsPremium: true},
		{Username: "premium_pat", Email: "pat@feedfinder.test", Role: entity.RoleUser, IsPremium: true},
		{Username: "plain_sam", Email: "sam@feedfinder.test", Role: entity.RoleUser},
	}
	for i := 0; i < count; i++ {
		fixed = append(fixed, &entity.User{
			Username:  fakeUsername(),
			Email:     strings.ToLower(gofakeit.Email()),
			Role:      entity.RoleUser,
			IsPremium: gofakeit.Number(0, 3) == 0,
		})
	}

	created := make([]*entity.User, 0, len(fixed))
	for _, u := range fixed {
		u.Password = string(hash)
		u.Bio = gofakeit.Sentence(8)

		exists, err := r.users.ExistsByUsernameOrEmail(ctx, u.Username, u.Email)
		if err != nil {
			return fmt.Errorf("failed to check user %s: %w", u.Username, err)
		}
		if exists {
			log.Info("User %s already exists, skipping", u.Username)
			continue
		}

		if err := r.users.Create(ctx, u); err != nil {
			log.Error("Failed to create user %s: %v", u.Username, err)
			continue
		}
		log.Info("Created user: %s (%s)", u.Username, u.Email)
		created = append(created, u)

		for i := 0; i < postsPerUser; i++ {
			if err := r.posts.Create(ctx, fakePost(u, i)); err != nil {
				log.Error("Failed to create post %d for user %s: %v", i+1, u.Username, err)
			}
		}
	}

	for i, u := range created {
		for j, other := range created {
			if i == j {
				continue
			}
			if gofakeit.Number(0, 2) == 0 {
				if err := r.follows.Follow(ctx, u.ID, other.ID); err != nil {
					log.Error("Failed to follow %s -> %s: %v", u.Username, other.Username, err)
				}
			}
			if gofakeit.Number(0, 2) == 0 {
				rating := &entity.Rating{RaterID: u.ID, TargetEmail: other.Email, Value: gofakeit.Number(1, 5)}
				if err := r.ratings.Upsert(ctx, rating); err != nil {
					log.Error("Failed to rate %s: %v", other.Email, err)
				}
			}
		}
	}

	log.Info("Created %d users (password %q)", len(created), seedPassword)
	return nil
}

func fakeUsername() string {
	name := notUsername.ReplaceAllString(gofakeit.Username(), "_")
	if len(name) < 3 {
		name += "_user"
	}
	if len(name) > 20 {
		name = name[:20]
	}
	return name
}

func fakePost(u *entity.User, index int) *entity.Post {
	post := &entity.Post{
		UserID:      u.ID,
		MediaType:   entity.MediaImage,
		MediaURL:    fmt.Sprintf("https://picsum.photos/seed/%s-%d/800/800.jpg", u.Username, index),
		ContentText: gofakeit.Sentence(10),
		Privacy:     entity.PrivacyPublic,
	}
	switch {
	case index%4 == 3:
		post.MediaType = entity.MediaText
		post.MediaURL = ""
	case index%3 == 2:
		post.Privacy = entity.PrivacyExclusive
	}
	return post
}
