// Package cli implements the todo command, which edits the same persisted
// list the web server serves.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"todo-web/internal/database"
	"todo-web/internal/logging"
	"todo-web/internal/models"
	"todo-web/internal/persistence"
	"todo-web/internal/storage"
	"todo-web/internal/store"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var (
	ErrBlankContent = errors.New("content must not be blank")
	ErrNotFound     = errors.New("no such todo")
)

type flags struct {
	backend    string
	dataDir    string
	key        string
	sqlitePath string
	logLevel   string
}

// app holds one CLI invocation's state
type app struct {
	flags   flags
	store   *store.TodoStore
	adapter *persistence.Adapter
	db      *gorm.DB
}

// Execute runs the todo CLI with args and returns the process exit code
func Execute(args []string, stdout, stderr io.Writer) int {
	a := &app{}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if closeErr := a.close(); err == nil {
		err = closeErr
	}
	if err != nil {
		fail(stderr, err.Error())
		return 1
	}
	return 0
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "todo",
		Short:         "Manage the todo list shared with the web server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			logging.InitLogger(&logging.LogConfig{Level: a.flags.logLevel, Console: cmd.ErrOrStderr()})
			return a.open()
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.backend, "backend", envOr("STORAGE_BACKEND", storage.BackendFile), "blob store: file or sql")
	pf.StringVar(&a.flags.dataDir, "data-dir", envOr("DATA_DIR", "./data"), "directory of the file backend")
	pf.StringVar(&a.flags.key, "key", envOr("STORE_KEY", persistence.DefaultKey), "blob key the list is stored under")
	pf.StringVar(&a.flags.sqlitePath, "sqlite-path", "", "SQLite file of the sql backend (default $SQLITE_PATH)")
	pf.StringVar(&a.flags.logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "log level")

	root.AddCommand(a.lsCmd(), a.addCmd(), a.doneCmd(), a.rmCmd(), a.editCmd())
	return root
}

func (a *app) lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List todos in creation order",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printList(cmd.OutOrStdout(), a.store.SortedTodoItems())
			return nil
		},
	}
}

func (a *app) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <content>...",
		Short: "Add a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := joinContent(args)
			if err != nil {
				return err
			}
			a.store.AddItem(content)
			ok(cmd.OutOrStdout(), fmt.Sprintf("Added %q", content))
			return nil
		},
	}
}

func (a *app) doneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a todo between done and not done",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := a.find(args[0])
			if err != nil {
				return err
			}
			a.store.ToggleState(item)

			state := "done"
			if item.Done {
				state = "not done"
			}
			ok(cmd.OutOrStdout(), fmt.Sprintf("Marked %q %s", item.Content, state))
			return nil
		},
	}
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"remove"},
		Short:   "Remove a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			item, found := a.store.Find(id)
			a.store.RemoveItem(models.TodoItem{ID: id})
			if !found {
				note(cmd.OutOrStdout(), fmt.Sprintf("Nothing to remove for id %d", id))
				return nil
			}
			ok(cmd.OutOrStdout(), fmt.Sprintf("Removed %q", item.Content))
			return nil
		},
	}
}

func (a *app) editCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <id> <content>...",
		Short: "Replace the content of a todo",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := a.find(args[0])
			if err != nil {
				return err
			}
			content, err := joinContent(args[1:])
			if err != nil {
				return err
			}

			a.store.SetEditItem(item)
			a.store.AddItem(content)
			ok(cmd.OutOrStdout(), fmt.Sprintf("Changed %q to %q", item.Content, content))
			return nil
		},
	}
}

// open binds a fresh store to the configured blob store
func (a *app) open() error {
	var blobs storage.BlobStore
	switch a.flags.backend {
	case storage.BackendFile:
		fs, err := storage.NewFileStorage(a.flags.dataDir)
		if err != nil {
			return err
		}
		blobs = fs
	case storage.BackendSQL:
		cfg := database.NewConfigFromEnv()
		if a.flags.sqlitePath != "" {
			cfg.Driver = database.DriverSQLite
			cfg.SQLitePath = a.flags.sqlitePath
		}
		cfg.LogLevel = "silent"

		db, err := database.Connect(cfg)
		if err != nil {
			return err
		}
		a.db = db
		if err := database.AutoMigrate(db); err != nil {
			return err
		}
		blobs = storage.NewSQLStorage(db)
	default:
		return fmt.Errorf("unsupported backend %q: want file or sql", a.flags.backend)
	}

	a.store = store.New()
	a.adapter = persistence.Bind(a.store, blobs, persistence.Options{Key: a.flags.key})
	return nil
}

// close stops persisting and reports a save that failed along the way
func (a *app) close() error {
	var errs []error
	if a.adapter != nil {
		a.adapter.Close()
		if err := a.adapter.Err(); err != nil {
			errs = append(errs, fmt.Errorf("changes were not saved: %w", err))
		}
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (a *app) find(arg string) (models.TodoItem, error) {
	id, err := parseID(arg)
	if err != nil {
		return models.TodoItem{}, err
	}
	item, found := a.store.Find(id)
	if !found {
		return models.TodoItem{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	return item, nil
}

func printList(w io.Writer, items []models.TodoItem) {
	if len(items) == 0 {
		note(w, "Please add some todos")
		return
	}

	done := 0
	lines := make([]string, 0, len(items)+1)
	lines = append(lines, "")
	for _, item := range items {
		box, content := boxUnchecked, item.Content
		if item.Done {
			done++
			box, content = boxChecked, doneStyle.Render(item.Content)
		}
		lines = append(lines, fmt.Sprintf("%s %s  %s", box, idStyle.Render(strconv.FormatInt(item.ID, 10)), content))
	}
	lines[0] = titleStyle.Render(fmt.Sprintf("Todos (%d/%d done)", done, len(items)))

	panel(w, lines)
}

func joinContent(args []string) (string, error) {
	content := strings.Join(args, " ")
	if strings.TrimSpace(content) == "" {
		return "", ErrBlankContent
	}
	return content, nil
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid todo id %q", arg)
	}
	return id, nil
}

func envOr(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
