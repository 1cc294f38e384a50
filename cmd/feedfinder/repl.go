package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"feedfinder/pkg/client"
	"feedfinder/pkg/feed"
	"feedfinder/pkg/media"
	"feedfinder/pkg/models"
	"feedfinder/pkg/payment"
	"feedfinder/pkg/shell"
)

const (
	searchLimit = 20
	adminLimit  = 100
)

var errQuit = errors.New("quit")

type command struct {
	usage string
	help  string
	run   func(ctx context.Context, args []string) error
}

type repl struct {
	api      *client.Client
	shell    *shell.Shell
	in       *bufio.Scanner
	out      io.Writer
	now      func() time.Time
	commands map[string]command
	order    []string
}

func newREPL(api *client.Client, sh *shell.Shell, in *bufio.Scanner, out io.Writer) *repl {
	r := &repl{api: api, shell: sh, in: in, out: out, now: time.Now}
	r.register("login", "login <username>", "log in (asks for the password)", r.login)
	r.register("register", "register <username> <email>", "create an account", r.registerAccount)
	r.register("logout", "logout", "end the session", r.logout)
	r.register("whoami", "whoami", "re-check the session and show the account", r.whoami)
	r.register("feed", "feed [following]", "show the public feed or posts from people you follow", r.feed)
	r.register("search", "search <text>", "search captions and authors", r.search)
	r.register("profile", "profile [user-id]", "show a profile; yours by default", r.profile)
	r.register("follow", "follow <user-id>", "follow a user", r.follow)
	r.register("rate", "rate <email> <1-5>", "rate a creator", r.rate)
	r.register("post", "post [-media url] [-exclusive] <caption>", "publish a post", r.post)
	r.register("upload", "upload [-exclusive] <file> [caption]", "upload media and publish it", r.upload)
	r.register("settings", "settings [-bio text] [-picture url] [-private bool]", "update your profile", r.settings)
	r.register("upgrade", "upgrade", "buy premium (simulated checkout)", r.upgrade)
	r.register("admin", "admin [delete <post-id>]", "moderation panel", r.admin)
	r.register("tab", "tab <name>", "switch tabs", r.tab)
	r.register("help", "help", "list commands", r.help)
	r.register("quit", "quit", "exit", func(context.Context, []string) error { return errQuit })
	return r
}

func (r *repl) register(name, usage, help string, run func(context.Context, []string) error) {
	if r.commands == nil {
		r.commands = make(map[string]command)
	}
	r.commands[name] = command{usage: usage, help: help, run: run}
	r.order = append(r.order, name)
}

func (r *repl) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *repl) prompt() string {
	snap := r.shell.Snapshot()
	if snap.State == shell.StateLoggedIn && snap.User != nil {
		return fmt.Sprintf("%s@%s> ", snap.User.Username, snap.Tab)
	}
	return fmt.Sprintf("%s> ", snap.Tab)
}

func (r *repl) run(ctx context.Context) {
	snap := r.shell.Start(ctx)
	if snap.State == shell.StateLoggedIn {
		r.printf("Welcome back, %s!\n", snap.User.Username)
	} else {
		r.printf("Not logged in. Type \"help\" for commands.\n")
	}

	for {
		r.printf("%s", r.prompt())
		if !r.in.Scan() {
			r.printf("\n")
			return
		}
		if err := r.exec(ctx, r.in.Text()); err != nil {
			if errors.Is(err, errQuit) {
				return
			}
			r.printf("! %v\n", err)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (r *repl) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, ok := r.commands[strings.ToLower(fields[0])]
	if !ok {
		return fmt.Errorf("unknown command %q (try \"help\")", fields[0])
	}
	return cmd.run(ctx, fields[1:])
}

// ask reads one line after showing label. An empty string means the input
// ended.
func (r *repl) ask(label string) string {
	r.printf("%s: ", label)
	if !r.in.Scan() {
		return ""
	}
	return strings.TrimSpace(r.in.Text())
}

func (r *repl) help(context.Context, []string) error {
	for _, name := range r.order {
		c := r.commands[name]
		r.printf("  %-52s %s\n", c.usage, c.help)
	}
	return nil
}

func (r *repl) login(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return errors.New("usage: login <username>")
	}
	password := r.ask("Password")
	res := r.shell.Login(ctx, args[0], password)
	r.printf("%s\n", res.Data.Message)
	return nil
}

func (r *repl) registerAccount(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: register <username> <email>")
	}
	req := models.RegisterRequest{
		Username:        args[0],
		Email:           args[1],
		Password:        r.ask("Password"),
		ConfirmPassword: r.ask("Confirm password"),
		Bio:             r.ask("Bio (optional)"),
	}
	req.Private = strings.EqualFold(r.ask("Private profile? (y/N)"), "y")

	res := r.shell.Register(ctx, req)
	r.printf("%s\n", res.Data.Message)
	return nil
}

func (r *repl) logout(ctx context.Context, _ []string) error {
	if !r.shell.Logout(ctx) {
		r.printf("Logged out locally (server did not confirm).\n")
		return nil
	}
	r.printf("Logged out.\n")
	return nil
}

func (r *repl) whoami(ctx context.Context, _ []string) error {
	snap := r.shell.OpenAccountMenu(ctx)
	if snap.State != shell.StateLoggedIn || snap.User == nil {
		return shell.ErrNotLoggedIn
	}
	u := snap.User
	r.printf("%s <%s>  id=%s  role=%s", u.Username, u.Email, u.ID, u.EffectiveRole())
	if snap.Premium {
		r.printf("  premium")
	}
	r.printf("\n")
	return nil
}

func (r *repl) viewer() feed.Viewer {
	return r.shell.Snapshot().Viewer()
}

func (r *repl) printCards(posts []feed.Post) {
	if len(posts) == 0 {
		r.printf("No posts.\n")
		return
	}
	for _, card := range feed.RenderAll(posts, r.viewer()) {
		p := card.Post
		header := fmt.Sprintf("%s %s · %s", p.Author.Name, p.Author.Username, p.Timestamp)
		if p.IsExclusive {
			header += " · exclusive"
		}
		r.printf("[%s] %s  (%d likes)\n", p.ID, header, p.Likes)

		switch card.Body {
		case feed.BodyLocked:
			r.printf("    locked: %s\n", card.Upsell)
		case feed.BodyImage, feed.BodyVideo:
			r.printf("    %s: %s\n", card.Body, card.MediaURL)
		case feed.BodyImageUnavailable, feed.BodyVideoUnavailable:
			r.printf("    (%s)\n", card.Body)
		}
		if p.Caption != "" && card.Body != feed.BodyLocked {
			r.printf("    %s\n", p.Caption)
		}
		if card.RatePrompt != "" {
			r.printf("    %s\n", card.RatePrompt)
		}
	}
}

func (r *repl) feed(ctx context.Context, args []string) error {
	var (
		rows []models.PostRow
		err  error
	)
	switch {
	case len(args) == 0:
		rows, err = r.api.PublicPosts(ctx)
	case len(args) == 1 && args[0] == "following":
		if r.shell.Snapshot().State != shell.StateLoggedIn {
			return errors.New("log in to see posts from people you follow")
		}
		rows, err = r.api.FollowingPosts(ctx, 0)
	default:
		return errors.New("usage: feed [following]")
	}
	if err != nil {
		return err
	}
	r.printCards(feed.FromRows(rows, r.now()))
	return nil
}

func (r *repl) search(ctx context.Context, args []string) error {
	q := strings.Join(args, " ")
	if err := r.shell.Search(q); err != nil {
		return err
	}
	rows, err := r.api.SearchPosts(ctx, q, searchLimit)
	if err != nil {
		return err
	}
	r.printCards(feed.FromRows(rows, r.now()))
	return nil
}

func (r *repl) profile(ctx context.Context, args []string) error {
	var id string
	if len(args) > 0 {
		id = args[0]
	}
	if err := r.shell.OpenProfile(id); err != nil {
		return err
	}

	page, err := r.api.LoadProfilePage(ctx, r.shell.Snapshot().ProfileID)
	if err != nil {
		return err
	}

	p := page.Profile
	r.printf("%s <%s>", p.UserName, p.UserEmail)
	if p.IsPremium {
		r.printf("  premium")
	}
	r.printf("\n")
	if p.Bio != "" {
		r.printf("%s\n", p.Bio)
	}

	s := page.Stats
	r.printf("posts %d · likes %d · rating %.1f (%d) · followers %d · following %d\n",
		s.TotalPosts, s.TotalLikes, s.AverageRating, s.TotalRatings, s.Followers, s.Following)
	if page.StatsTimedOut || page.PostsTimedOut {
		r.printf("(some sections timed out)\n")
	}

	if friends, err := r.api.FetchFriends(ctx, p.UserID); err == nil && len(friends) > 0 {
		names := make([]string, len(friends))
		for i, f := range friends {
			names[i] = f.UserName
		}
		r.printf("follows: %s\n", strings.Join(names, ", "))
	}

	r.printCards(page.Posts)
	return nil
}

func (r *repl) follow(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: follow <user-id>")
	}
	if err := r.shell.Navigate(shell.TabProfile); err != nil {
		return err
	}
	if err := r.api.Follow(ctx, args[0]); err != nil {
		return err
	}
	r.printf("Following.\n")
	return nil
}

func (r *repl) rate(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errors.New("usage: rate <email> <1-5>")
	}
	snap := r.shell.Snapshot()
	if snap.State != shell.StateLoggedIn {
		return errors.New(feed.LoginToRate)
	}
	value, err := strconv.Atoi(args[1])
	if err != nil {
		return payment.ErrRatingRange
	}
	if err := payment.ValidateRating(value); err != nil {
		return err
	}

	req := models.RateRequest{UserID: snap.User.ID, TargetEmail: args[0], RatingValue: value}
	if err := r.api.Rate(ctx, req); err != nil {
		return err
	}
	r.printf("Rated %s %d/5: %s\n", args[0], value, payment.RatingLabel(value))
	return nil
}

func privacy(exclusive bool) models.Privacy {
	if exclusive {
		return models.PrivacyExclusive
	}
	return models.PrivacyPublic
}

func (r *repl) publish(ctx context.Context, mediaURL, caption string, exclusive bool) error {
	req := models.CreatePostRequest{
		MediaURL:    mediaURL,
		MediaType:   models.MediaText,
		ContentText: caption,
		Privacy:     privacy(exclusive),
	}
	if mediaURL != "" {
		req.MediaType = media.InferMediaType(mediaURL)
	}

	post, err := r.api.CreatePost(ctx, req)
	if err != nil {
		return err
	}
	r.printf("Posted %s.\n", post.PostID)
	return nil
}

func (r *repl) post(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("post", flag.ContinueOnError)
	fs.SetOutput(r.out)
	mediaURL := fs.String("media", "", "image or video URL")
	exclusive := fs.Bool("exclusive", false, "premium viewers only")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := r.shell.Navigate(shell.TabUpload); err != nil {
		return err
	}
	return r.publish(ctx, *mediaURL, strings.Join(fs.Args(), " "), *exclusive)
}

func (r *repl) upload(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("upload", flag.ContinueOnError)
	fs.SetOutput(r.out)
	exclusive := fs.Bool("exclusive", false, "premium viewers only")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: upload [-exclusive] <file> [caption]")
	}
	if err := r.shell.Navigate(shell.TabUpload); err != nil {
		return err
	}

	path := fs.Arg(0)
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	url, err := r.api.UploadMedia(ctx, filepath.Base(path), f)
	if err != nil {
		return err
	}
	r.printf("Uploaded %s\n", url)
	return r.publish(ctx, url, strings.Join(fs.Args()[1:], " "), *exclusive)
}

func (r *repl) settings(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("settings", flag.ContinueOnError)
	fs.SetOutput(r.out)
	bio := fs.String("bio", "", "new bio")
	picture := fs.String("picture", "", "profile picture URL")
	private := fs.Bool("private", false, "hide the profile")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := r.shell.Navigate(shell.TabSettings); err != nil {
		return err
	}

	// Only flags that were given are sent.
	var update models.ProfileUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "bio":
			update.Bio = bio
		case "picture":
			update.ProfilePicture = picture
		case "private":
			update.IsPrivate = private
		}
	})
	if update.ProfilePicture != nil && *update.ProfilePicture != "" && !media.IsSafeImageURL(*update.ProfilePicture) {
		return errors.New("profile picture must be an http(s) image URL")
	}

	res := r.api.UpdateProfile(ctx, update)
	if !res.Success {
		return errors.New(res.Error)
	}
	r.printf("Profile updated.\n")
	return nil
}

func (r *repl) upgrade(ctx context.Context, _ []string) error {
	if err := r.shell.Navigate(shell.TabPremium); err != nil {
		return err
	}
	if r.shell.Snapshot().Premium {
		r.printf("You already have Premium.\n")
		return nil
	}

	card := payment.Card{
		Number: payment.FormatCardNumber(r.ask("Card number")),
		Name:   r.ask("Name on card"),
		Expiry: payment.FormatExpiry(r.ask("Expiry (MM/YY)")),
		CVV:    payment.SanitizeCVV(r.ask("CVV")),
	}
	if err := card.Validate(r.now()); err != nil {
		return err
	}

	if _, err := r.api.UpgradePremium(ctx, card); err != nil {
		return err
	}
	r.shell.MarkPremium()
	r.printf("Welcome to Premium! Card ending %s was not charged.\n", card.Last4())
	return nil
}

func (r *repl) admin(ctx context.Context, args []string) error {
	if err := r.shell.Navigate(shell.TabAdmin); err != nil {
		return err
	}

	if len(args) == 2 && args[0] == "delete" {
		if err := r.api.DeleteAdminPost(ctx, args[1]); err != nil {
			return err
		}
		r.printf("Deleted %s.\n", args[1])
		return nil
	}
	if len(args) != 0 {
		return errors.New("usage: admin [delete <post-id>]")
	}

	rows, err := r.api.AdminPosts(ctx, adminLimit)
	if err != nil {
		return err
	}
	for _, row := range rows {
		r.printf("%s  %-20s %-9s %-6s %s\n", row.PostID, row.UserName, row.Privacy, row.MediaType,
			feed.FormatTimestamp(row.CreatedAt, r.now()))
	}
	r.printf("%d posts\n", len(rows))
	return nil
}

func (r *repl) tab(_ context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: tab <name>")
	}
	if err := r.shell.Navigate(shell.Tab(strings.ToLower(args[0]))); err != nil {
		return err
	}
	r.printf("Now on %s.\n", r.shell.Snapshot().Tab)
	return nil
}
