package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"interview-voice-grader/internal/prompts"
	"interview-voice-grader/internal/questions"
	"interview-voice-grader/internal/storage"
)

func newInterviewCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interview",
		Short: "Manage interviews",
	}
	cmd.AddCommand(newInterviewCreateCommand(ctx))
	cmd.AddCommand(newInterviewShowCommand(ctx))
	cmd.AddCommand(newInterviewListCommand(ctx))
	return cmd
}

func newInterviewCreateCommand(ctx *commandContext) *cobra.Command {
	var recruiter string
	var req prompts.QuestionRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an interview with a generated question list",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(recruiter) == "" {
				return errors.New("--recruiter is required")
			}
			if strings.TrimSpace(req.JobPosition) == "" {
				return errors.New("--position is required")
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			completer, err := ctx.completer(cmd.Context())
			if err != nil {
				return err
			}
			return ctx.withStore(cmd.Context(), func(store *storage.Store) error {
				gen := questions.New(completer, store, nil, logger)
				genCtx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
				defer cancel()
				list, err := gen.Generate(genCtx, req)
				if err != nil {
					return err
				}
				interview := &storage.Interview{
					UserEmail:      recruiter,
					JobPosition:    req.JobPosition,
					JobDescription: req.JobDescription,
					Duration:       req.Duration,
					Type:           req.Type,
					QuestionList:   list,
				}
				if err := store.CreateInterview(cmd.Context(), interview); err != nil {
					return err
				}
				printInterview(cmd.OutOrStdout(), interview)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&recruiter, "recruiter", "", "Recruiter email that owns the interview")
	cmd.Flags().StringVar(&req.JobPosition, "position", "", "Job position")
	cmd.Flags().StringVar(&req.JobDescription, "description", "", "Job description")
	cmd.Flags().StringVar(&req.Duration, "duration", "15 Min", "Interview duration")
	cmd.Flags().StringVar(&req.Type, "type", "Technical", "Interview type")
	return cmd
}

func newInterviewShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <interview-id>",
		Short: "Show an interview and its current questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(cmd.Context(), func(store *storage.Store) error {
				interview, err := store.GetInterview(cmd.Context(), args[0])
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("interview %s not found", args[0])
				}
				if err != nil {
					return err
				}
				printInterview(cmd.OutOrStdout(), interview)
				return nil
			})
		},
	}
}

func newInterviewListCommand(ctx *commandContext) *cobra.Command {
	var recruiter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a recruiter's interviews",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(recruiter) == "" {
				return errors.New("--recruiter is required")
			}
			return ctx.withStore(cmd.Context(), func(store *storage.Store) error {
				interviews, err := store.ListInterviews(cmd.Context(), recruiter)
				if err != nil {
					return err
				}
				if len(interviews) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No interviews")
					return nil
				}
				rows := make([][]string, 0, len(interviews))
				for _, iv := range interviews {
					rows = append(rows, []string{
						iv.InterviewID,
						iv.JobPosition,
						iv.Type,
						iv.Duration,
						strconv.Itoa(len(iv.QuestionList.Texts())),
						iv.CreatedAt.Local().Format("2006-01-02 15:04"),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Position", "Type", "Duration", "Questions", "Created"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&recruiter, "recruiter", "", "Recruiter email")
	return cmd
}

func printInterview(out io.Writer, interview *storage.Interview) {
	fmt.Fprintf(out, "Interview: %s\n", interview.InterviewID)
	fmt.Fprintf(out, "Position:  %s\n", interview.JobPosition)
	if interview.Duration != "" || interview.Type != "" {
		fmt.Fprintf(out, "Format:    %s, %s\n", interview.Type, interview.Duration)
	}
	rows := make([][]string, 0, len(interview.QuestionList.InterviewQuestions))
	for i, q := range interview.QuestionList.InterviewQuestions {
		rows = append(rows, []string{strconv.Itoa(i + 1), q.Question, q.Type})
	}
	fmt.Fprintln(out, renderTable([]string{"#", "Question", "Type"}, rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft}))
}
