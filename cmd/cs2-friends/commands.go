package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/leighmacdonald/cs2-friends/internal/cache"
	"github.com/leighmacdonald/cs2-friends/internal/config"
	"github.com/leighmacdonald/cs2-friends/internal/httpapi"
	"github.com/leighmacdonald/cs2-friends/internal/poller"
	"github.com/leighmacdonald/cs2-friends/internal/state"
	"github.com/leighmacdonald/cs2-friends/internal/steamweb"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	errHintPrivate = errors.New("your friends list is private, make it visible to use a web api key")
	errHintEmpty   = errors.New("no friends were found for this account")
	errHintVanity  = errors.New("no profile uses that custom url")
)

// runFriends performs a single pass and prints the result.
func runFriends(cmd *cobra.Command, _ []string) error {
	application, errApplication := newApp(cmd, nil)
	if errApplication != nil {
		return errApplication
	}
	defer application.Close()

	if err := application.requireCredential(); err != nil {
		return err
	}

	self, errSelf := application.self(cmd.Context())
	if errSelf != nil {
		return errors.Join(errSelf, errApp)
	}

	pollr := poller.New(poller.Opts{
		Credential: application.credential,
		Self:       self,
		Aggregator: application.aggregator,
		Settings:   application.settings,
		Logger:     application.logger,
	})

	result, errPoll := pollr.Poll(cmd.Context())
	if errPoll != nil {
		return userError(errPoll)
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	if asJSON {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")

		return encoder.Encode(result.Friends)
	}

	fmt.Fprintln(cmd.OutOrStdout(), renderFriends(result.Friends)) //nolint:forbidigo

	return nil
}

// runWatch is the main mode: poll on an interval and serve the latest results until interrupted.
func runWatch(cmd *cobra.Command, _ []string) error {
	configUpdates := make(chan config.Config)
	application, errApplication := newApp(cmd, configUpdates)
	if errApplication != nil {
		return errApplication
	}
	defer application.Close()

	if err := application.requireCredential(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	self, errSelf := application.self(ctx)
	if errSelf != nil {
		return errors.Join(errSelf, errApp)
	}

	tracker := state.NewTracker(application.logger)
	pollr := poller.New(poller.Opts{
		Credential: application.credential,
		Self:       self,
		Interval:   application.conf.UpdateInterval(),
		Aggregator: application.aggregator,
		Avatars:    cache.NewAvatars(0),
		Sink:       tracker,
		Settings:   application.settings,
		Logger:     application.logger,
	})

	slog.Info("Starting cs2-friends", slog.String("version", BuildVersion),
		slog.String("commit", BuildCommit), slog.String("mode", steamweb.Classify(application.credential).String()))

	application.loader.Watch()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		if err := pollr.Start(groupCtx); err != nil {
			return userError(err)
		}

		return nil
	})
	group.Go(func() error {
		return httpapi.New(tracker, application.logger).Start(groupCtx, application.conf.HTTPListenAddress)
	})
	group.Go(func() error {
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-configUpdates:
				slog.Warn("Config file changed, restart to apply changes")
			}
		}
	})

	return group.Wait()
}

// runToken describes the configured (or supplied) credential without making any requests.
func runToken(cmd *cobra.Command, args []string) error {
	var credential string
	if len(args) > 0 {
		credential = steamweb.UnwrapEnvelope(args[0])
	} else {
		application, errApplication := newApp(cmd, nil)
		if errApplication != nil {
			return errApplication
		}
		defer application.Close()

		if err := application.requireCredential(); err != nil {
			return err
		}
		credential = application.credential
	}

	out := cmd.OutOrStdout()
	mode := steamweb.Classify(credential)
	fmt.Fprintf(out, "Mode:    %s\n", mode) //nolint:forbidigo

	if mode != steamweb.ModeToken {
		return nil
	}

	claims, ok := steamweb.DecodeTokenClaims(credential)
	if !ok {
		fmt.Fprintln(out, "Claims:  could not be decoded") //nolint:forbidigo

		return nil
	}

	if claims.SubjectID.Valid() {
		fmt.Fprintf(out, "Steam ID: %s\n", claims.SubjectID.String()) //nolint:forbidigo
	}

	if claims.ExpiresAt > 0 {
		expires := time.Unix(claims.ExpiresAt, 0)
		label := "expires"
		if time.Now().After(expires) {
			label = "expired"
		}
		fmt.Fprintf(out, "Expiry:  %s %s (%s)\n", label, humanize.Time(expires), expires.Format(time.RFC3339)) //nolint:forbidigo
	}

	return nil
}

func runResolve(cmd *cobra.Command, args []string) error {
	application, errApplication := newApp(cmd, nil)
	if errApplication != nil {
		return errApplication
	}
	defer application.Close()

	if err := application.requireCredential(); err != nil {
		return err
	}

	sid, errResolve := application.client.ResolveVanityURL(cmd.Context(), application.credential, args[0])
	if errResolve != nil {
		return userError(errResolve)
	}

	fmt.Fprintln(cmd.OutOrStdout(), sid.String()) //nolint:forbidigo

	return nil
}

// userError adds a readable explanation to the errors a user can act on.
func userError(err error) error {
	switch {
	case errors.Is(err, steamweb.ErrPrivateFriendsList):
		return errors.Join(err, errHintPrivate)
	case errors.Is(err, steamweb.ErrEmptyFriendsList):
		return errors.Join(err, errHintEmpty)
	case errors.Is(err, steamweb.ErrVanityNotFound):
		return errors.Join(err, errHintVanity)
	default:
		return err
	}
}
