package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"interview-voice-grader/internal/dashboard"
	"interview-voice-grader/internal/storage"
)

func newResultsCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Review graded interview results",
	}
	cmd.AddCommand(newResultsListCommand(ctx))
	cmd.AddCommand(newResultsWatchCommand(ctx))
	return cmd
}

func newResultsListCommand(ctx *commandContext) *cobra.Command {
	var recruiter string
	cmd := &cobra.Command{
		Use:   "list [interview-id...]",
		Short: "List results for a recruiter or specific interviews",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(recruiter) == "" && len(args) == 0 {
				return errors.New("pass --recruiter or one or more interview ids")
			}
			return ctx.withStore(cmd.Context(), func(store *storage.Store) error {
				snap, err := loadResults(cmd.Context(), store, recruiter, args)
				if err != nil {
					return err
				}
				printResults(cmd.OutOrStdout(), snap)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&recruiter, "recruiter", "", "Recruiter email")
	return cmd
}

func newResultsWatchCommand(ctx *commandContext) *cobra.Command {
	var recruiter string
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh a recruiter's results periodically",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(recruiter) == "" {
				return errors.New("--recruiter is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = cfg.Server.PollInterval
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			return ctx.withStore(signalCtx, func(store *storage.Store) error {
				out := cmd.OutOrStdout()
				poller := dashboard.NewPoller(func(ctx context.Context) (*dashboard.Snapshot, error) {
					return dashboard.Load(ctx, store, recruiter)
				}, interval, logger, func(snap *dashboard.Snapshot) {
					fmt.Fprintf(out, "\n%s (refresh #%d)\n", snap.FetchedAt.Local().Format(time.TimeOnly), snap.Generation)
					printResults(out, snap)
				})
				poller.Start(signalCtx)
				<-signalCtx.Done()
				poller.Stop()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&recruiter, "recruiter", "", "Recruiter email")
	cmd.Flags().DurationVar(&interval, "interval", 0, "Refresh interval (default DASHBOARD_POLL_INTERVAL)")
	return cmd
}

func loadResults(ctx context.Context, store *storage.Store, recruiter string, ids []string) (*dashboard.Snapshot, error) {
	if strings.TrimSpace(recruiter) != "" {
		return dashboard.Load(ctx, store, recruiter)
	}
	src := idSource{store: store}
	for _, id := range ids {
		interview, err := store.GetInterview(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("interview %s: %w", id, err)
		}
		src.interviews = append(src.interviews, interview)
	}
	return dashboard.Load(ctx, src, "")
}

// idSource serves a fixed interview set so explicit ids reuse dashboard.Load.
type idSource struct {
	store      *storage.Store
	interviews []*storage.Interview
}

func (s idSource) ListInterviews(context.Context, string) ([]*storage.Interview, error) {
	return s.interviews, nil
}

func (s idSource) ListResults(ctx context.Context, ids ...string) ([]*storage.FeedbackRecord, error) {
	return s.store.ListResults(ctx, ids...)
}

func printResults(out io.Writer, snap *dashboard.Snapshot) {
	rows := make([][]string, 0)
	for _, iv := range snap.Interviews {
		for _, c := range iv.Candidates {
			rows = append(rows, []string{
				c.Record.FullName,
				c.Record.Email,
				iv.Interview.JobPosition,
				c.Record.CompletedAt.Local().Format("2006-01-02 15:04"),
				strconv.Itoa(c.Overall),
				c.Record.Recommendations,
			})
		}
	}
	if len(rows) == 0 {
		fmt.Fprintln(out, "No results yet")
		return
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Candidate", "Email", "Position", "Completed", "Overall", "Recommendation"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	))
}
