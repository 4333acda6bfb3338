package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/oklog/ulid/v2"

	"github.com/tray3forse/tasknag/internal/config"
	"github.com/tray3forse/tasknag/internal/eventbus"
	"github.com/tray3forse/tasknag/internal/linebot"
	"github.com/tray3forse/tasknag/internal/reminder"
	"github.com/tray3forse/tasknag/internal/sweep"
	"github.com/tray3forse/tasknag/internal/task"
	taskrepo "github.com/tray3forse/tasknag/internal/task/repositoryimpl"
	"github.com/tray3forse/tasknag/pkg/storage"
)

var (
	app     = kingpin.New("tasknag", "Admin CLI for the tasknag reminder bot")
	dataDir = app.Flag("data-dir", "Local storage directory").Default(".tasknag/data").String()

	addCmd   = app.Command("add", "Add a task for an owner")
	addOwner = addCmd.Arg("owner", "Owner ID").Required().String()
	addDesc  = addCmd.Arg("description", "Task description").Required().String()
	addDate  = addCmd.Flag("date", "Due date (2006-01-02)").String()
	addTime  = addCmd.Flag("time", "Due time (15:04)").String()

	listCmd   = app.Command("list", "List tasks for an owner")
	listOwner = listCmd.Arg("owner", "Owner ID").Required().String()

	doneCmd   = app.Command("done", "Complete tasks matching a description")
	doneOwner = doneCmd.Arg("owner", "Owner ID").Required().String()
	doneDesc  = doneCmd.Arg("description", "Task description").Required().String()

	sweepCmd = app.Command("sweep", "Run one reminder sweep against the live LINE channel")
)

func main() {
	cmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case addCmd.FullCommand():
		err = handleAdd(ctx, *addOwner, *addDesc, *addDate, *addTime)
	case listCmd.FullCommand():
		err = handleList(ctx, *listOwner)
	case doneCmd.FullCommand():
		err = handleDone(ctx, *doneOwner, *doneDesc)
	case sweepCmd.FullCommand():
		err = handleSweep(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func localTaskRepo() (task.Repository, error) {
	store, err := storage.NewLocalStorage(*dataDir)
	if err != nil {
		return nil, err
	}
	return taskrepo.NewYAMLRepository(store), nil
}

func handleAdd(ctx context.Context, ownerID, description, dueDate, dueTime string) error {
	if err := task.ValidateDescription(description); err != nil {
		return err
	}
	if err := task.ValidateDue(dueDate, dueTime); err != nil {
		return err
	}
	repo, err := localTaskRepo()
	if err != nil {
		return err
	}
	now := time.Now()
	t := &task.Task{
		ID:          ulid.Make().String(),
		OwnerID:     ownerID,
		Description: description,
		DueDate:     dueDate,
		DueTime:     dueTime,
		Status:      task.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := repo.Create(ctx, t); err != nil {
		return err
	}
	fmt.Printf("Added %s: %s\n", t.ID, t.Description)
	return nil
}

func handleList(ctx context.Context, ownerID string) error {
	repo, err := localTaskRepo()
	if err != nil {
		return err
	}
	tasks, err := repo.ListByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		fmt.Println("No tasks.")
		return nil
	}
	task.SortByDue(tasks)
	done := color.New(color.FgGreen)
	pending := color.New(color.FgYellow)
	for _, t := range tasks {
		due := "-"
		if t.DueDate != "" {
			due = t.DueDate
			if t.DueTime != "" {
				due += " " + t.DueTime
			}
		}
		c := pending
		if t.Status == task.StatusDone {
			c = done
		}
		c.Printf("%-26s  %-10s  %-16s  %s\n", t.ID, t.Status, due, t.Description)
	}
	return nil
}

func handleDone(ctx context.Context, ownerID, description string) error {
	repo, err := localTaskRepo()
	if err != nil {
		return err
	}
	affected, err := repo.Complete(ctx, ownerID, description)
	if err != nil {
		return err
	}
	if affected == 0 {
		fmt.Println("No matching pending task.")
		return nil
	}
	fmt.Printf("Completed %d task(s).\n", affected)
	return nil
}

// handleSweep builds the same reminder pipeline as the server and runs a
// single pass, so operators can trigger a sweep out of schedule.
func handleSweep(ctx context.Context) error {
	env, err := config.LoadEnv()
	if err != nil {
		return err
	}
	var store storage.Storage
	switch env.StorageEnv.Type {
	case "s3":
		store, err = storage.NewS3Storage(ctx, env.StorageEnv.S3Bucket, env.StorageEnv.S3Prefix, env.StorageEnv.S3Region)
	default:
		store, err = storage.NewLocalStorage(env.StorageEnv.BaseDir)
	}
	if err != nil {
		return err
	}
	loc, err := env.ReminderEnv.Location()
	if err != nil {
		return err
	}
	lineClient, err := linebot.NewClient(config.LINEEnvFromEnv(env))
	if err != nil {
		return err
	}

	repo := taskrepo.NewYAMLRepository(store)
	bus := eventbus.New()
	classifier := reminder.NewClassifier(loc, env.ReminderEnv.NearWindow)
	selector := reminder.NewSelector(rand.New(rand.NewSource(time.Now().UnixNano())))
	evaluator := reminder.NewEvaluator(classifier, selector, lineClient, repo, bus)

	sweep.NewDriver(repo, evaluator).RunOnce(ctx)
	fmt.Println("Sweep complete.")
	return nil
}
