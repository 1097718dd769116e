package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/mcp-memory/internal/model"
	"github.com/rcliao/mcp-memory/internal/store"
)

func (a *app) newTaskCmd() *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Track tasks stored as memories",
	}

	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, _ := cmd.Flags().GetString("ns")
			return a.withStore(func(s *store.SQLiteStore) error {
				id, err := s.CreateTask(cmd.Context(), strings.Join(args, " "), ns)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]string{"id": id})
			})
		},
	}
	add.Flags().StringP("ns", "n", model.DefaultNamespace, "Namespace")

	list := &cobra.Command{
		Use:   "list",
		Short: "List tasks as id | status | title",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return a.withStore(func(s *store.SQLiteStore) error {
				tasks, err := s.ListTasks(cmd.Context(), limit)
				if err != nil {
					return err
				}
				for _, t := range tasks {
					fmt.Fprintf(cmd.OutOrStdout(), "%s | %s | %s\n", shortID(t.ID), t.Status, t.Title)
				}
				return nil
			})
		},
	}
	list.Flags().IntP("limit", "l", 50, "Max tasks")

	status := &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Set a task's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			note, _ := cmd.Flags().GetString("note")
			return a.withStore(func(s *store.SQLiteStore) error {
				ok, err := s.UpdateTaskStatus(cmd.Context(), args[0], args[1], note)
				if err != nil {
					return err
				}
				return printJSON(cmd, map[string]bool{"ok": ok})
			})
		},
	}
	status.Flags().String("note", "", "Record a note alongside the change")

	taskCmd.AddCommand(add, list, status)
	return taskCmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
