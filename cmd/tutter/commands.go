package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"

	"Tutter/internal/core/accounts"
	"Tutter/internal/core/changes"
	"Tutter/internal/core/docstore"
	"Tutter/internal/core/posts"
	"Tutter/internal/core/profiles"
	"Tutter/internal/core/session"
	"Tutter/internal/remote"
)

func (a *app) signUp(ctx context.Context, args []string) error {
	if a.local {
		return errors.New("signup is not needed with -local")
	}
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password (at least 6 characters)")
	username := fs.String("username", "", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resp, err := a.client.SignUp(ctx, accounts.SignUpRequest{Email: *email, Password: *password, Username: *username})
	if err != nil {
		return err
	}
	if err := saveCredentials(a.credsPath, a.client.BaseURL(), resp); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed up as %s (%s)\n", resp.Username, resp.Email)
	return nil
}

func (a *app) signIn(ctx context.Context, args []string) error {
	if a.local {
		return errors.New("signin is not needed with -local")
	}
	fs := flag.NewFlagSet("signin", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resp, err := a.client.SignIn(ctx, accounts.SignInRequest{Email: *email, Password: *password})
	if err != nil {
		return err
	}
	if err := saveCredentials(a.credsPath, a.client.BaseURL(), resp); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", resp.Username, resp.Email)
	return nil
}

func (a *app) signOut() error {
	if err := removeCredentials(a.credsPath); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

// openSession opens the signed-in session against the configured store
func (a *app) openSession(ctx context.Context) (*session.Session, error) {
	store := a.store
	principal := a.principal
	if !a.local {
		creds, err := loadCredentials(a.credsPath)
		if err != nil {
			return nil, err
		}
		if creds.Server != "" && creds.Server != a.client.BaseURL() {
			a.client = remote.NewClient(creds.Server)
		}
		a.client.SetToken(creds.AccessJwt)
		store = a.client
		principal = creds.PrincipalID
	}

	return session.Open(ctx, store, principal, session.Options{
		Logger:       a.logger,
		StoreTimeout: a.cfg.StoreTimeout,
	})
}

// withSession runs fn in a fresh session and reports any notices it produced
func (a *app) withSession(ctx context.Context, fn func(*session.Session) error) error {
	s, err := a.openSession(ctx)
	if err != nil {
		return err
	}
	defer s.SignOut()

	err = fn(s)
	for _, n := range s.Notices().List() {
		fmt.Fprintf(a.errOut, "notice: %s\n", n.Message)
	}
	if remote.IsAuthError(err) {
		return fmt.Errorf("%w (session may have expired, sign in again)", err)
	}
	return err
}

func (a *app) feed(ctx context.Context) error {
	return a.withSession(ctx, func(s *session.Session) error {
		snapshot := s.Feed().Snapshot()
		if snapshot.Len() == 0 {
			fmt.Fprintln(a.out, "No posts yet")
			return nil
		}
		for _, p := range snapshot.Posts {
			a.printPost(p)
		}
		return nil
	})
}

func (a *app) post(ctx context.Context, args []string) error {
	content := strings.Join(args, " ")
	return a.withSession(ctx, func(s *session.Session) error {
		p, err := s.Posts().Create(ctx, content)
		if err != nil {
			return err
		}
		a.printPost(*p)
		return nil
	})
}

func (a *app) like(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: tutter like <post-id>")
	}
	return a.withSession(ctx, func(s *session.Session) error {
		p, err := s.Posts().ToggleLike(ctx, args[0])
		if err != nil {
			return err
		}
		a.printPost(*p)
		return nil
	})
}

func (a *app) comment(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: tutter comment <post-id> <text>")
	}
	return a.withSession(ctx, func(s *session.Session) error {
		p, err := s.Posts().AddComment(ctx, args[0], strings.Join(args[1:], " "))
		if err != nil {
			return err
		}
		a.printPost(*p)
		return nil
	})
}

func (a *app) delete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: tutter delete <post-id>")
	}
	return a.withSession(ctx, func(s *session.Session) error {
		if err := s.Posts().DeleteByID(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Deleted %s\n", args[0])
		return nil
	})
}

func (a *app) profile(ctx context.Context, args []string) error {
	action := "show"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		action, args = args[0], args[1:]
	}

	switch action {
	case "show":
		return a.withSession(ctx, func(s *session.Session) error {
			a.printProfile(s.Profile().Profile())
			return nil
		})
	case "edit":
		return a.editProfile(ctx, args)
	default:
		return fmt.Errorf("unknown profile action %q (want show or edit)", action)
	}
}

func (a *app) editProfile(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("profile edit", flag.ContinueOnError)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email")
	location := fs.String("location", "", "location")
	age := fs.Int("age", 0, "age")
	clearAge := fs.Bool("clear-age", false, "remove the age")
	avatar := fs.String("avatar", "", "avatar, one of "+strings.Join(profiles.Avatars(), " "))
	if err := fs.Parse(args); err != nil {
		return err
	}

	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	if len(set) == 0 {
		return errors.New("nothing to change: pass at least one of -name -email -location -age -clear-age -avatar")
	}

	return a.withSession(ctx, func(s *session.Session) error {
		editor := s.Profile()
		if err := editor.Edit(); err != nil {
			return err
		}

		var err error
		if set["name"] {
			err = errors.Join(err, editor.SetName(*name))
		}
		if set["email"] {
			err = errors.Join(err, editor.SetEmail(*email))
		}
		if set["location"] {
			err = errors.Join(err, editor.SetLocation(*location))
		}
		if set["age"] {
			err = errors.Join(err, editor.SetAge(*age))
		}
		if *clearAge {
			err = errors.Join(err, editor.ClearAge())
		}
		if set["avatar"] {
			err = errors.Join(err, editor.SetAvatar(*avatar))
		}
		if err != nil {
			return err
		}

		if err := editor.Save(ctx); err != nil {
			return err
		}
		a.printProfile(editor.Profile())
		return nil
	})
}

func (a *app) watch(ctx context.Context) error {
	if a.local {
		return errors.New("watch needs a server")
	}
	return a.withSession(ctx, func(s *session.Session) error {
		for _, p := range s.Feed().Snapshot().Posts {
			a.printPost(p)
		}
		fmt.Fprintln(a.out, "Watching for changes, Ctrl-C to stop")

		sub := remote.NewSubscriber(a.client, "", func(ctx context.Context, ev changes.Event) error {
			if err := s.ApplyChange(ctx, ev); err != nil {
				return err
			}
			a.printChange(s, ev)
			return nil
		}, a.logger).OnConnect(func(ctx context.Context) error {
			// Changes made while disconnected are not replayed
			_, err := s.Refresh(ctx)
			return err
		})
		s.Watch(ctx, sub.Start)

		<-ctx.Done()
		return nil
	})
}

func (a *app) printChange(s *session.Session, ev changes.Event) {
	switch {
	case ev.Collection == docstore.CollectionPosts && ev.Type == changes.EventDelete:
		fmt.Fprintf(a.out, "- deleted %s\n", ev.ID)
	case ev.Collection == docstore.CollectionPosts:
		if p, ok := s.Feed().Get(ev.ID); ok {
			fmt.Fprintf(a.out, "%s ", ev.Type)
			a.printPost(p)
		}
	case ev.Collection == docstore.CollectionUsers && ev.ID == s.PrincipalID():
		fmt.Fprintln(a.out, "profile changed")
	}
}

func (a *app) printPost(p posts.Post) {
	heart := "♡"
	if p.Liked {
		heart = "♥"
	}
	fmt.Fprintf(a.out, "[%s] %s %d  %s\n", p.ID, heart, p.LikeCount, p.Content)
	for _, c := range p.Comments {
		fmt.Fprintf(a.out, "    > %s\n", c)
	}
}

func (a *app) printProfile(p profiles.Profile) {
	age := "-"
	if p.Age != nil {
		age = fmt.Sprint(*p.Age)
	}
	fmt.Fprintf(a.out, "%s %s\n", p.Avatar, p.Name)
	fmt.Fprintf(a.out, "  email:    %s\n", p.Email)
	fmt.Fprintf(a.out, "  location: %s\n", p.Location)
	fmt.Fprintf(a.out, "  age:      %s\n", age)
}
