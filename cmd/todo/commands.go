package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"todoapp/internal/client"
	"todoapp/internal/config"
	"todoapp/internal/models"
	"todoapp/internal/telemetry"
	"todoapp/internal/tui"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	doneStyle    = lipgloss.NewStyle().Faint(true).Strikethrough(true)
)

type rootOptions struct {
	baseURL string
	logFile string
}

func (o *rootOptions) client() *client.Client {
	return client.New(o.baseURL)
}

func newRootCmd(cfg *config.Client) *cobra.Command {
	opts := &rootOptions{}

	tuiCmd := tuiCmd(opts)
	rootCmd := &cobra.Command{
		Use:           "todo",
		Short:         "Manage todos on a todo service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          tuiCmd.RunE,
	}

	rootCmd.PersistentFlags().StringVar(&opts.baseURL, "base-url", cfg.BaseURL, "Todo service base URL")
	rootCmd.PersistentFlags().StringVar(&opts.logFile, "log-file", cfg.LogFile, "File receiving client logs")

	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(lsCmd(opts))
	rootCmd.AddCommand(addCmd(opts))
	rootCmd.AddCommand(doneCmd(opts))
	rootCmd.AddCommand(editCmd(opts))
	rootCmd.AddCommand(rmCmd(opts))

	return rootCmd
}

func tuiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := telemetry.NewFileLogger(opts.logFile, "info")
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer logger.Sync()

			return tui.Run(cmd.Context(), opts.client(), logger)
		},
	}
}

func lsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List todos, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			todos, err := opts.client().List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(todos) == 0 {
				fmt.Fprintln(out, mutedStyle.Render("Nothing to do."))
				return nil
			}
			for _, t := range todos {
				printTodo(out, t)
			}
			return nil
		},
	}
}

func addCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := opts.client().Create(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✔ added"))
			printTodo(cmd.OutOrStdout(), *t)
			return nil
		},
	}
}

func doneCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a todo's completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := opts.client()
			current, err := findTodo(cmd.Context(), c, args[0])
			if err != nil {
				return err
			}

			t, err := c.Update(cmd.Context(), current.ID, models.CompletedPatch(!current.Completed))
			if err != nil {
				return err
			}
			printTodo(cmd.OutOrStdout(), *t)
			return nil
		},
	}
}

func editCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <title...>",
		Short: "Rename a todo",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := strings.TrimSpace(strings.Join(args[1:], " "))
			if title == "" {
				return fmt.Errorf("title must not be blank")
			}

			t, err := opts.client().Update(cmd.Context(), args[0], models.TitlePatch(title))
			if err != nil {
				return err
			}
			printTodo(cmd.OutOrStdout(), *t)
			return nil
		},
	}
}

func rmCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), successStyle.Render("✔ deleted "+args[0]))
			return nil
		},
	}
}

func findTodo(ctx context.Context, c *client.Client, id string) (*models.Todo, error) {
	todos, err := c.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range todos {
		if todos[i].ID == id {
			return &todos[i], nil
		}
	}
	return nil, fmt.Errorf("todo %s not found", id)
}

func printTodo(w io.Writer, t models.Todo) {
	box, title := "☐", t.Title
	if t.Completed {
		box, title = successStyle.Render("☑"), doneStyle.Render(t.Title)
	}
	fmt.Fprintf(w, "%s %s  %s\n", box, mutedStyle.Render(t.ID), title)
}
