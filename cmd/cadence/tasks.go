package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/urfave/cli/v3"

	"github.com/jgcallah/cadence/internal/apperr"
	"github.com/jgcallah/cadence/internal/index"
	"github.com/jgcallah/cadence/internal/taskservice"
	"github.com/jgcallah/cadence/internal/tasks"
	"github.com/jgcallah/cadence/internal/vault"
)

func tasksCommand() *cli.Command {
	return &cli.Command{
		Name:  "tasks",
		Usage: "List, add and edit tasks",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Show open tasks from recent periodic notes",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "days", Aliases: []string{"d"}, Usage: "Days back to scan (default from vault config)"},
					&cli.BoolFlag{Name: "completed", Usage: "Include completed tasks"},
					&cli.StringSliceFlag{Name: "type", Aliases: []string{"t"}, Usage: "Note types to scan (default daily)"},
				},
				Action: withService(listTasks),
			},
			{
				Name:      "add",
				Usage:     "Add a task (to today's daily note unless --note is given)",
				ArgsUsage: "TEXT",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "note", Usage: "Vault-relative note path"},
					&cli.StringFlag{Name: "type", Usage: "Periodic note type when --note is empty"},
					&cli.StringFlag{Name: "date", Usage: "Date of the periodic note (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "section", Usage: "Heading to add under"},
					&cli.StringFlag{Name: "due", Usage: "Due date (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "scheduled", Usage: "Scheduled date (YYYY-MM-DD)"},
					&cli.StringFlag{Name: "priority", Aliases: []string{"p"}, Usage: "high, medium or low"},
					&cli.IntFlag{Name: "age", Usage: "Days the task has already been carried"},
					&cli.StringSliceFlag{Name: "tag", Usage: "Tag without #"},
				},
				Action: withService(addTask),
			},
			{
				Name:      "toggle",
				Usage:     "Flip a task between open and completed",
				ArgsUsage: "PATH LINE",
				Action:    withService(toggleTask),
			},
			{
				Name:      "update",
				Usage:     "Set or remove task metadata",
				ArgsUsage: "PATH LINE",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "set", Usage: "field=value (due, scheduled, created, priority, age, tags)"},
					&cli.StringSliceFlag{Name: "unset", Usage: "field to remove"},
				},
				Action: withService(updateTask),
			},
			{
				Name:  "rollover",
				Usage: "Carry open tasks from previous daily notes into today's",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "days", Aliases: []string{"d"}, Usage: "Previous days to collect from"},
					&cli.StringFlag{Name: "date", Usage: "Target daily note date (YYYY-MM-DD)"},
				},
				Action: withService(rolloverTasks),
			},
			{
				Name:      "search",
				Usage:     "Search every task in the vault",
				ArgsUsage: "[QUERY]",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tag", Usage: "Only tasks with this tag"},
					&cli.StringFlag{Name: "priority", Aliases: []string{"p"}, Usage: "high, medium, low or none"},
					&cli.StringFlag{Name: "due-before", Usage: "Only tasks due before this date"},
					&cli.BoolFlag{Name: "completed", Usage: "Include completed tasks"},
					&cli.IntFlag{Name: "limit", Usage: "Max results"},
				},
				Action: withService(searchTasks),
			},
		},
	}
}

type serviceAction func(ctx context.Context, cmd *cli.Command, svc *taskservice.Service) error

func withService(fn serviceAction) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		svc, closeFn, err := openService(cmd)
		if err != nil {
			return err
		}
		defer closeFn()
		return fn(ctx, cmd, svc)
	}
}

func listTasks(ctx context.Context, cmd *cli.Command, svc *taskservice.Service) error {
	req := taskservice.AgendaRequest{
		DaysBack:         optionalInt(cmd, "days"),
		IncludeCompleted: cmd.Bool("completed"),
	}
	for _, name := range cmd.StringSlice("type") {
		nt, err := vault.ParseNoteType(name)
		if err != nil {
			return err
		}
		req.NoteTypes = append(req.NoteTypes, nt)
	}
	agenda, err := svc.Agenda(ctx, req)
	if err != nil {
		return err
	}
	w := cmd.Root().Writer
	if jsonOutput(cmd) {
		return printJSON(w, agenda)
	}
	rel := relTo(svc.VaultPath())
	printGroup(w, "Overdue", agenda.Overdue, rel)
	printGroup(w, "Open", agenda.Open, rel)
	printGroup(w, "Stale", agenda.Stale, rel)
	if req.IncludeCompleted {
		printGroup(w, "Completed", agenda.Completed, rel)
	}
	return nil
}

func addTask(ctx context.Context, cmd *cli.Command, svc *taskservice.Service) error {
	text := strings.Join(cmd.Args().Slice(), " ")
	req := taskservice.AddRequest{
		Path:    cmd.String("note"),
		Section: cmd.String("section"),
		Text:    text,
	}
	var err error
	if name := cmd.String("type"); name != "" {
		if req.NoteType, err = vault.ParseNoteType(name); err != nil {
			return err
		}
	}
	if req.Date, err = dateFlag(cmd, "date"); err != nil {
		return err
	}
	m := &req.Metadata
	if m.Due, err = dateFlag(cmd, "due"); err != nil {
		return err
	}
	if m.Scheduled, err = dateFlag(cmd, "scheduled"); err != nil {
		return err
	}
	m.Priority = tasks.Priority(cmd.String("priority"))
	m.Age = optionalInt(cmd, "age")
	m.Tags = cmd.StringSlice("tag")

	res, err := svc.AddTask(ctx, req)
	if err != nil {
		return err
	}
	return printResult(cmd, res)
}

func toggleTask(ctx context.Context, cmd *cli.Command, svc *taskservice.Service) error {
	path, line, err := locatorArgs(cmd)
	if err != nil {
		return err
	}
	res, err := svc.Toggle(ctx, path, line)
	if err != nil {
		return err
	}
	return printResult(cmd, res)
}

func updateTask(ctx context.Context, cmd *cli.Command, svc *taskservice.Service) error {
	path, line, err := locatorArgs(cmd)
	if err != nil {
		return err
	}
	fields := map[string]any{}
	for _, kv := range cmd.StringSlice("set") {
		key, value, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("%w: --set expects field=value, got %q", apperr.ErrInvalidInput, kv)
		}
		key = strings.TrimSpace(key)
		if key == "age" {
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("%w: age must be an integer", apperr.ErrInvalidInput)
			}
			fields[key] = n
			continue
		}
		fields[key] = value
	}
	for _, key := range cmd.StringSlice("unset") {
		fields[strings.TrimSpace(key)] = nil
	}
	u, err := tasks.ParseMetadataUpdate(fields)
	if err != nil {
		return err
	}
	res, err := svc.UpdateMetadata(ctx, path, line, u)
	if err != nil {
		return err
	}
	return printResult(cmd, res)
}

func rolloverTasks(ctx context.Context, cmd *cli.Command, svc *taskservice.Service) error {
	target, err := dateFlag(cmd, "date")
	if err != nil {
		return err
	}
	res, err := svc.Rollover(ctx, taskservice.RolloverRequest{
		SourceDaysBack: optionalInt(cmd, "days"),
		TargetDate:     target,
	})
	if err != nil {
		return err
	}
	w := cmd.Root().Writer
	if jsonOutput(cmd) {
		return printJSON(w, res)
	}
	rel := relTo(svc.VaultPath())
	if len(res.RolledOver) == 0 && len(res.Skipped) == 0 {
		fmt.Fprintln(w, "nothing to roll over")
		return nil
	}
	fmt.Fprintf(w, "Rolled %d task(s) into %s\n", len(res.RolledOver), rel(res.TargetNotePath))
	for _, t := range res.RolledOver {
		fmt.Fprintf(w, "  %s  (from %s)\n", t.Text, rel(t.SourcePath))
	}
	for _, s := range res.Skipped {
		fmt.Fprintf(w, "  skipped %q: %s\n", s.Task.Text, s.Reason)
	}
	return nil
}

func searchTasks(ctx context.Context, cmd *cli.Command, svc *taskservice.Service) error {
	q := index.TaskQuery{
		Text:             strings.Join(cmd.Args().Slice(), " "),
		Tag:              cmd.String("tag"),
		IncludeCompleted: cmd.Bool("completed"),
		Limit:            int(cmd.Int("limit")),
	}
	if p := cmd.String("priority"); p != "" {
		if strings.EqualFold(p, string(tasks.PriorityNone)) {
			q.Priority = tasks.PriorityNone
		} else if parsed, ok := tasks.ParsePriority(p); ok {
			q.Priority = parsed
		} else {
			return fmt.Errorf("%w: unknown priority %q", apperr.ErrInvalidInput, p)
		}
	}
	due, err := dateFlag(cmd, "due-before")
	if err != nil {
		return err
	}
	q.DueBefore = due

	rows, err := svc.Search(ctx, q)
	if err != nil {
		return err
	}
	w := cmd.Root().Writer
	if jsonOutput(cmd) {
		return printJSON(w, rows)
	}
	for _, r := range rows {
		fmt.Fprintf(w, "%s:%d  %s\n", r.Path, r.Line, r.Raw)
	}
	return nil
}

func optionalInt(cmd *cli.Command, name string) *int {
	if !cmd.IsSet(name) {
		return nil
	}
	n := int(cmd.Int(name))
	return &n
}

func dateFlag(cmd *cli.Command, name string) (*civil.Date, error) {
	s := cmd.String(name)
	if s == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return nil, fmt.Errorf("%w: --%s must be YYYY-MM-DD", apperr.ErrInvalidInput, name)
	}
	return &d, nil
}

func locatorArgs(cmd *cli.Command) (string, int, error) {
	if cmd.Args().Len() != 2 {
		return "", 0, fmt.Errorf("%w: expected PATH LINE", apperr.ErrInvalidInput)
	}
	line, err := strconv.Atoi(cmd.Args().Get(1))
	if err != nil {
		return "", 0, fmt.Errorf("%w: line must be a number", apperr.ErrInvalidInput)
	}
	return cmd.Args().Get(0), line, nil
}

func printResult(cmd *cli.Command, res *taskservice.TaskResult) error {
	w := cmd.Root().Writer
	if jsonOutput(cmd) {
		return printJSON(w, res)
	}
	_, err := fmt.Fprintf(w, "%s:%d  %s\n", res.Path, res.Line, res.Raw)
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printGroup(w io.Writer, title string, list []tasks.TaskWithSource, rel func(string) string) {
	if len(list) == 0 {
		return
	}
	fmt.Fprintf(w, "%s (%d)\n", title, len(list))
	for _, t := range list {
		fmt.Fprintf(w, "  %s:%d  %s\n", rel(t.SourcePath), t.Line, t.Raw)
	}
}
