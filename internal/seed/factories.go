package seed

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"paddock/internal/models"
	"paddock/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	postTemplates = map[models.Category][]string{
		models.CategoryRaceUpdate: {
			"{driver} pits from P{n}, out on the hards. Undercut looks {adj}.",
			"Safety car! {driver} stays out, {team} double stack.",
			"{driver} sets the fastest lap, purple in all three sectors.",
			"Yellow flag in sector two, {driver} had to back out of a {adj} lap.",
		},
		models.CategoryNews: {
			"{team} confirm a new floor for this weekend. Looks {adj}.",
			"Reports say {driver} has signed an extension with {team}.",
			"{team} bring an upgrade package worth a tenth, according to the paddock.",
		},
		models.CategoryOpinion: {
			"{driver} is the most {adj} driver on the grid right now. Fight me.",
			"{team} strategy wall needs a reset before the next race.",
			"Hot take: {driver} would win the title in a {adj} car.",
		},
		models.CategoryMeme: {
			"{driver} on the radio: \"leave me alone, I know what I'm doing\"",
			"{team} pit crew speedrunning a {n} second stop",
			"Me explaining DRS trains to my {adj} family at dinner",
		},
		models.CategoryPoll: {
			"Who takes pole this weekend?",
			"Driver of the day?",
			"Which team nails the strategy on Sunday?",
		},
	}

	categoryWeights = []models.Category{
		models.CategoryRaceUpdate, models.CategoryRaceUpdate,
		models.CategoryNews,
		models.CategoryOpinion, models.CategoryOpinion, models.CategoryOpinion,
		models.CategoryMeme, models.CategoryMeme,
		models.CategoryPoll,
	}
)

// Factory builds demo entities and persists them.
type Factory struct {
	db     *gorm.DB
	faker  *gofakeit.Faker
	posts  repository.PostRepository
	opts   Options
	teams  []models.Team
	hashed string
	serial int
}

// NewFactory creates a Factory bound to db. A zero RandSeed seeds from the clock.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{
		db:    db,
		faker: gofakeit.New(seed),
		posts: repository.NewPostRepository(db),
		opts:  opts.withDefaults(),
	}
}

// LoadTeams reads the grid the demo posts are tagged with.
func (f *Factory) LoadTeams(ctx context.Context) error {
	var teams []models.Team
	if err := f.db.WithContext(ctx).Preload("Drivers").Order("id ASC").Find(&teams).Error; err != nil {
		return fmt.Errorf("load teams: %w", err)
	}
	f.teams = teams
	return nil
}

func (f *Factory) passwordHash() (string, error) {
	if f.hashed != "" {
		return f.hashed, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(f.opts.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash demo password: %w", err)
	}
	f.hashed = string(hash)
	return f.hashed, nil
}

// BuildUser returns an unsaved user with a unique username.
func (f *Factory) BuildUser() (*models.User, error) {
	hash, err := f.passwordHash()
	if err != nil {
		return nil, err
	}
	f.serial++
	username := fmt.Sprintf("%s_%d", strings.ToLower(f.faker.Username()), f.serial)
	return &models.User{
		Username:  username,
		Email:     fmt.Sprintf("%s@%s", username, f.faker.DomainName()),
		Password:  hash,
		CreatedAt: f.pastTime(),
	}, nil
}

// CreateUsers persists n demo users.
func (f *Factory) CreateUsers(ctx context.Context, n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		user, err := f.BuildUser()
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if len(users) == 0 {
		return users, nil
	}
	if err := f.db.WithContext(ctx).CreateInBatches(users, 100).Error; err != nil {
		return nil, fmt.Errorf("create users: %w", err)
	}
	return users, nil
}

// BuildPost returns an unsaved post by author plus the poll options to
// create with it. Team and driver tags always agree.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) (*models.Post, []string) {
	category := categoryWeights[f.faker.Number(0, len(categoryWeights)-1)]
	post := &models.Post{
		UserID:    author.ID,
		Category:  category,
		CreatedAt: f.pastTime(),
	}

	driverName, teamName := "the leader", "the midfield"
	if len(f.teams) > 0 && f.faker.Number(1, 10) <= 7 {
		team := f.teams[f.faker.Number(0, len(f.teams)-1)]
		post.TeamID = &team.ID
		teamName = team.Name
		if len(team.Drivers) > 0 && f.faker.Bool() {
			driver := team.Drivers[f.faker.Number(0, len(team.Drivers)-1)]
			post.DriverID = &driver.ID
			driverName = driver.Name
		}
	}

	templates := postTemplates[category]
	text := strings.NewReplacer(
		"{driver}", driverName,
		"{team}", teamName,
		"{adj}", strings.ToLower(f.faker.Adjective()),
		"{n}", strconv.Itoa(f.faker.Number(2, 18)),
	).Replace(templates[f.faker.Number(0, len(templates)-1)])
	post.Text = truncate(text, models.MaxPostTextLength)
	post.UpdatedAt = post.CreatedAt

	for _, override := range overrides {
		override(post)
	}

	var options []string
	if post.Category == models.CategoryPoll {
		options = f.pollOptions()
	}
	return post, options
}

// CreatePost persists a built post, with its poll when it is a poll post.
func (f *Factory) CreatePost(ctx context.Context, author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post, options := f.BuildPost(author, overrides...)
	if err := f.posts.CreateWithPoll(ctx, post, options); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// pollOptions draws 2 to 4 distinct driver names, or generic answers when
// the grid is empty.
func (f *Factory) pollOptions() []string {
	var pool []string
	for _, team := range f.teams {
		for _, d := range team.Drivers {
			pool = append(pool, d.Name)
		}
	}
	if len(pool) < 2 {
		pool = []string{"Yes", "No", "Too early to say", "Only if it rains"}
	}

	n := f.faker.Number(2, models.MaxPollOptions)
	if n > len(pool) {
		n = len(pool)
	}
	f.faker.ShuffleStrings(pool)
	return append([]string(nil), pool[:n]...)
}

// React gives a random subset of users a reaction on post.
func (f *Factory) React(ctx context.Context, post *models.Post, users []*models.User) (int, error) {
	types := models.ReactionTypes()
	now := time.Now()
	var rows []models.Reaction
	for _, u := range users {
		if f.faker.Number(1, 100) > f.opts.ReactionPercent {
			continue
		}
		at := post.CreatedAt.Add(time.Duration(f.faker.Number(1, 600)) * time.Minute)
		if at.After(now) {
			at = now
		}
		rows = append(rows, models.Reaction{
			UserID:    u.ID,
			PostID:    post.ID,
			Type:      types[f.faker.Number(0, len(types)-1)],
			CreatedAt: at,
		})
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := f.db.WithContext(ctx).CreateInBatches(rows, 200).Error; err != nil {
		return 0, fmt.Errorf("create reactions: %w", err)
	}
	return len(rows), nil
}

// Vote casts at most one vote per user in the post's poll.
func (f *Factory) Vote(ctx context.Context, post *models.Post, users []*models.User) (int, error) {
	if post.Poll == nil || len(post.Poll.Options) == 0 {
		return 0, nil
	}
	var rows []models.PollVote
	for _, u := range users {
		if f.faker.Number(1, 100) > f.opts.VotePercent {
			continue
		}
		option := post.Poll.Options[f.faker.Number(0, len(post.Poll.Options)-1)]
		rows = append(rows, models.PollVote{UserID: u.ID, OptionID: option.ID, PollID: post.Poll.ID})
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := f.db.WithContext(ctx).Omit("Option").CreateInBatches(rows, 200).Error; err != nil {
		return 0, fmt.Errorf("create votes: %w", err)
	}
	return len(rows), nil
}

func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.faker.Number(0, f.opts.MaxDays*24*60)) * time.Minute
	return time.Now().Add(-back).Truncate(time.Second)
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
