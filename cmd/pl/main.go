package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"planline/internal/app"
	"planline/internal/config"
	"planline/internal/db"
	"planline/internal/domain"
	"planline/internal/engine"
	"planline/internal/repo"
	"planline/internal/schedule"
	"planline/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "pl",
	Short: "Planline CLI",
	Long: `Planline lays out a personal calendar: items, lanes, and business hours.
Core concepts (kid-friendly):
- Workspace: your .planline toy box holding the database; planline.yml tunes the rules.
- Items: everything on the calendar (meetings, focus blocks, travel, tasks, ...); each has a kind and an optional schedule.
- Tray: tasks and activities without a start/end wait in the tray until you drop them onto a day.
- Business hours: the open/close window (08:00-17:00 by default); explicit schedules must fit, dropped items are nudged to fit.
- Slots: drops snap to the half-hour grid (:07 becomes :00, :20 becomes :30).
- Lanes: overlapping items share a day side by side; each gets the lowest free lane.
- Agenda: a laid-out window (day/week/month/quarter/list) ready to render, view with 'pl agenda'.
- Event log: diary of changes, view with 'pl log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("PLANLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(itemCmd())
	rootCmd.AddCommand(quickCmd())
	rootCmd.AddCommand(dropCmd())
	rootCmd.AddCommand(agendaCmd())
	rootCmd.AddCommand(rangeCmd())
	rootCmd.AddCommand(prefsCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(apikeyCmd())
	rootCmd.AddCommand(serveCmd())
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Workspace config",
		Long:  "Config is the rulebook (planline.yml): business hours, slot size, default durations, key areas, and webhooks. Without a file the built-in defaults apply.",
	}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configValidateCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default planline.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func configShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.ResolveConfig(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSONOrTable(cfg)
		},
	}
	return cmd
}

func configValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate planline.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOptional(viper.GetString("workspace"))
			if err == nil && cfg == nil {
				err = fmt.Errorf("no config file at %s", config.Path(viper.GetString("workspace")))
			}
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
	return cmd
}

func itemCmd() *cobra.Command {
	item := &cobra.Command{
		Use:   "item",
		Short: "Manage calendar items",
		Long:  "Items are everything on the calendar. Scheduled items carry a start and end inside business hours; tasks and activities may stay unscheduled in the tray until dropped.",
	}
	item.AddCommand(itemCreateCmd())
	item.AddCommand(itemListCmd())
	item.AddCommand(itemShowCmd())
	item.AddCommand(itemUpdateCmd())
	item.AddCommand(itemDeleteCmd())
	item.AddCommand(itemTrayCmd())
	return item
}

func itemCreateCmd() *cobra.Command {
	var opts engine.ItemCreateOptions
	var start, end string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an item",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			var err error
			if opts.Start, err = parseTimeFlag(start); err != nil {
				return err
			}
			if opts.End, err = parseTimeFlag(end); err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				it, err := e.CreateItem(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(it)
			})
		},
	}
	cmd.Flags().StringVar(&opts.ID, "id", "", "item id (optional)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "title")
	cmd.Flags().StringVar(&opts.Kind, "kind", "custom", "item kind (focus, meeting, travel, task, activity, ...)")
	cmd.Flags().StringVar(&start, "start", "", "start time (RFC3339)")
	cmd.Flags().StringVar(&end, "end", "", "end time (RFC3339)")
	cmd.Flags().StringVar(&opts.KeyAreaID, "key-area", "", "key area id")
	cmd.Flags().StringVar(&opts.Notes, "notes", "", "notes")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func itemListCmd() *cobra.Command {
	var f repo.ItemFilters
	var from, to string
	var done, undone bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List items",
		RunE: func(cmd *cobra.Command, args []string) error {
			if from != "" {
				f.From = from + "T00:00:00Z"
			}
			if to != "" {
				f.To = to + "T23:59:59Z"
			}
			if done && undone {
				return fmt.Errorf("--done and --undone are mutually exclusive")
			}
			if done {
				v := true
				f.Done = &v
			}
			if undone {
				v := false
				f.Done = &v
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				items, err := e.ListItems(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				renderItemTable(items)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "window start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", "", "window end date (YYYY-MM-DD)")
	cmd.Flags().StringArrayVar(&f.Kinds, "kind", []string{}, "kind filter (repeatable)")
	cmd.Flags().StringVar(&f.KeyAreaID, "key-area", "", "key area filter")
	cmd.Flags().BoolVar(&done, "done", false, "only done items")
	cmd.Flags().BoolVar(&undone, "undone", false, "only open items")
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "max items")
	return cmd
}

func itemShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				it, err := e.GetItem(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(it)
			})
		},
	}
	return cmd
}

func itemUpdateCmd() *cobra.Command {
	var title, kind, keyArea, notes, start, end string
	var done, clear bool
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := engine.ItemUpdateOptions{ID: args[0], ActorID: viper.GetString("actor-id")}
			if cmd.Flags().Changed("title") {
				opts.Title = &title
			}
			if cmd.Flags().Changed("kind") {
				opts.Kind = &kind
			}
			if cmd.Flags().Changed("key-area") {
				opts.KeyAreaID = &keyArea
			}
			if cmd.Flags().Changed("notes") {
				opts.Notes = &notes
			}
			if cmd.Flags().Changed("done") {
				opts.Done = &done
			}
			opts.ClearSchedule = clear
			var err error
			if opts.Start, err = parseTimeFlag(start); err != nil {
				return err
			}
			if opts.End, err = parseTimeFlag(end); err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				it, err := e.UpdateItem(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(it)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&kind, "kind", "", "item kind")
	cmd.Flags().StringVar(&start, "start", "", "start time (RFC3339)")
	cmd.Flags().StringVar(&end, "end", "", "end time (RFC3339)")
	cmd.Flags().BoolVar(&clear, "clear-schedule", false, "move the item back to the tray")
	cmd.Flags().StringVar(&keyArea, "key-area", "", "key area id")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	cmd.Flags().BoolVar(&done, "done", false, "done flag")
	return cmd
}

func itemDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				if err := e.DeleteItem(ctx, args[0], viper.GetString("actor-id")); err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"deleted": args[0]})
				}
				fmt.Println("deleted", args[0])
				return nil
			})
		},
	}
	return cmd
}

func itemTrayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tray",
		Short: "List unscheduled tray items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListUnattached(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				renderItemTable(items)
				return nil
			})
		},
	}
	return cmd
}

func quickCmd() *cobra.Command {
	var opts engine.QuickCreateOptions
	var at string
	cmd := &cobra.Command{
		Use:   "quick",
		Short: "Quick-create an item at a point in time",
		Long:  "Quick create snaps the clicked time onto the slot grid and gives the item its kind's default duration, nudged into business hours.",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.ActorID = viper.GetString("actor-id")
			t, err := time.Parse(time.RFC3339, at)
			if err != nil {
				return fmt.Errorf("invalid --at %q: want RFC3339", at)
			}
			opts.At = t
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				it, err := e.QuickCreate(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(it)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Title, "title", "", "title")
	cmd.Flags().StringVar(&opts.Kind, "kind", "custom", "item kind")
	cmd.Flags().StringVar(&at, "at", "", "clicked time (RFC3339)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func dropCmd() *cobra.Command {
	var day, slot string
	cmd := &cobra.Command{
		Use:   "drop <item-id>",
		Short: "Drop an item onto a day and slot",
		Long:  "Drop moves a scheduled item (keeping its duration) or schedules a tray task/activity with its default duration. The slot snaps to the half-hour grid and the result is nudged into business hours.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := time.Parse("2006-01-02", day)
			if err != nil {
				return fmt.Errorf("invalid --day %q: want YYYY-MM-DD", day)
			}
			minute, err := schedule.ParseClock(slot)
			if err != nil {
				return fmt.Errorf("invalid --slot %q: %w", slot, err)
			}
			opts := engine.DropOptions{
				ItemID:     args[0],
				Day:        d,
				SlotMinute: minute,
				ActorID:    viper.GetString("actor-id"),
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				it, err := e.Drop(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(it)
			})
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "target day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&slot, "slot", "", "target slot (HH:MM)")
	_ = cmd.MarkFlagRequired("day")
	_ = cmd.MarkFlagRequired("slot")
	return cmd
}

func agendaCmd() *cobra.Command {
	var anchor, view string
	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "Show the laid-out agenda",
		Long:  "The agenda is the calendar ready to render: the window for the anchor and view, every day's all-day strip and hour grid with lane numbers, plus the tray.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				ref, err := anchorTime(anchor, e)
				if err != nil {
					return err
				}
				a, err := e.ComputeAgenda(ctx, ref, schedule.ViewMode(view))
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(a)
				}
				renderAgenda(a)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&anchor, "anchor", "", "anchor date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&view, "view", "week", "view mode (day, week, month, quarter, list)")
	return cmd
}

func rangeCmd() *cobra.Command {
	var anchor, view string
	cmd := &cobra.Command{
		Use:   "range",
		Short: "Show the date window for an anchor and view",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				ref, err := anchorTime(anchor, e)
				if err != nil {
					return err
				}
				mode := schedule.ViewMode(view)
				w := schedule.ComputeRange(ref, mode)
				out := map[string]any{
					"view": view,
					"from": w.From.Format("2006-01-02"),
					"to":   w.To.Format("2006-01-02"),
				}
				if mode == schedule.ViewQuarter {
					out["label"] = schedule.QuarterLabel(ref)
				}
				if viper.GetBool("json") {
					return printJSON(out)
				}
				if label, ok := out["label"]; ok {
					fmt.Printf("%s: %s .. %s (%s)\n", view, out["from"], out["to"], label)
				} else {
					fmt.Printf("%s: %s .. %s\n", view, out["from"], out["to"])
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&anchor, "anchor", "", "anchor date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&view, "view", "week", "view mode (day, week, month, quarter, list)")
	return cmd
}

func prefsCmd() *cobra.Command {
	prefs := &cobra.Command{
		Use:   "prefs",
		Short: "Per-actor view preferences",
	}
	prefs.AddCommand(prefsShowCmd())
	prefs.AddCommand(prefsSetCmd())
	return prefs
}

func prefsShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.GetPrefs(ctx, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	}
	return cmd
}

func prefsSetCmd() *cobra.Command {
	var view, anchor string
	var dayStart, dayEnd, maxAllDay int
	var showWeekends bool
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e engine.Engine) error {
				p, err := e.GetPrefs(ctx, viper.GetString("actor-id"))
				if err != nil {
					return err
				}
				if cmd.Flags().Changed("view") {
					p.ViewMode = view
				}
				if cmd.Flags().Changed("anchor") {
					p.AnchorDate = anchor
				}
				if cmd.Flags().Changed("day-start") {
					p.DayStartHour = dayStart
				}
				if cmd.Flags().Changed("day-end") {
					p.DayEndHour = dayEnd
				}
				if cmd.Flags().Changed("max-all-day") {
					p.AllDayMaxVisible = maxAllDay
				}
				if cmd.Flags().Changed("show-weekends") {
					p.ShowWeekends = showWeekends
				}
				saved, err := e.SavePrefs(ctx, p)
				if err != nil {
					return err
				}
				return printJSONOrTable(saved)
			})
		},
	}
	cmd.Flags().StringVar(&view, "view", "", "default view mode")
	cmd.Flags().StringVar(&anchor, "anchor", "", "anchor date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&dayStart, "day-start", 0, "first visible hour")
	cmd.Flags().IntVar(&dayEnd, "day-end", 0, "last visible hour")
	cmd.Flags().IntVar(&maxAllDay, "max-all-day", 0, "all-day rows before collapsing to +N more")
	cmd.Flags().BoolVar(&showWeekends, "show-weekends", false, "show weekends")
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Event log",
		Long:  "The diary of everything that happened: item creates, moves, drops, deletes, and preference changes.",
	}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				events, err := r.LatestEvents(ctx, n, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				return printJSONOrTable(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

func apikeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API keys",
	}
	cmd.AddCommand(apikeyCreateCmd())
	cmd.AddCommand(apikeyListCmd())
	cmd.AddCommand(apikeyDeleteCmd())
	return cmd
}

func apikeyCreateCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				// raw key is printed once and only its hash is stored
				raw := uuid.NewString() + uuid.NewString()
				key := domain.APIKey{
					ID:      uuid.NewString(),
					ActorID: viper.GetString("actor-id"),
					Name:    name,
					KeyHash: repo.HashAPIKey(raw),
				}
				if err := r.InsertAPIKey(ctx, nil, key); err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"id": key.ID, "actor_id": key.ActorID, "name": key.Name, "key": raw})
				}
				fmt.Printf("id:  %s\nkey: %s\n", key.ID, raw)
				fmt.Println("store the key now; it is not shown again")
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "key label")
	return cmd
}

func apikeyListCmd() *cobra.Command {
	var actor string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				keys, err := r.ListAPIKeys(ctx, actor)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(keys)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Actor", "Name", "Created"})
				for _, k := range keys {
					tw.AppendRow(table.Row{k.ID, k.ActorID, k.Name, k.CreatedAt})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&actor, "actor", "", "filter by actor id")
	return cmd
}

func apikeyDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				if err := r.DeleteAPIKey(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("deleted", args[0])
				return nil
			})
		},
	}
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	var allowLegacy bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			e, conn, err := app.OpenEngine(workspace)
			if err != nil {
				return err
			}
			defer conn.Close()
			authCfg := server.AuthConfig{
				JWTSecret:              os.Getenv("PLANLINE_JWT_SECRET"),
				AllowLegacyActorHeader: allowLegacy,
			}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("PLANLINE_JWT_SECRET is required for bearer auth")
			}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Planline API on http://%s%s (OpenAPI at /openapi.json, Swagger UI at /docs)\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	cmd.Flags().BoolVar(&allowLegacy, "allow-legacy-actor", false, "accept unauthenticated X-Actor-Id requests")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, engine.Engine) error) error {
	e, conn, err := app.OpenEngine(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(ctx, e)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	e, conn, err := app.OpenEngine(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(ctx, e.Repo)
}

func anchorTime(anchor string, e engine.Engine) (time.Time, error) {
	if anchor == "" {
		return e.Now().UTC(), nil
	}
	t, err := time.Parse("2006-01-02", anchor)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --anchor %q: want YYYY-MM-DD", anchor)
	}
	return t, nil
}

func parseTimeFlag(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q: want RFC3339", s)
	}
	return &t, nil
}

func renderItemTable(items []domain.CalendarItem) {
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "Title", "Kind", "Start", "End", "Done"})
	for _, it := range items {
		start, end := "", ""
		if it.Start != nil {
			start = *it.Start
		}
		if it.End != nil {
			end = *it.End
		}
		tw.AppendRow(table.Row{it.ID, it.Title, it.Kind, start, end, it.Done})
	}
	tw.Render()
}

func renderAgenda(a engine.Agenda) {
	if a.Label != "" {
		fmt.Printf("%s  %s .. %s  (%s)\n", a.Mode, a.From, a.To, a.Label)
	} else {
		fmt.Printf("%s  %s .. %s\n", a.Mode, a.From, a.To)
	}
	for _, d := range a.Days {
		if len(d.AllDay) == 0 && d.AllDayMore == 0 && len(d.Timed) == 0 {
			continue
		}
		fmt.Println(d.Date)
		for _, e := range d.AllDay {
			fmt.Printf("  all-day lane %d: %s\n", e.Lane, e.Item.Title)
		}
		if d.AllDayMore > 0 {
			fmt.Printf("  +%d more\n", d.AllDayMore)
		}
		for _, e := range d.Timed {
			start, end := "", ""
			if e.Item.Start != nil {
				start = *e.Item.Start
			}
			if e.Item.End != nil {
				end = *e.Item.End
			}
			fmt.Printf("  lane %d: %s  %s .. %s\n", e.Lane, e.Item.Title, start, end)
		}
	}
	if len(a.Unattached) > 0 {
		fmt.Println("tray:")
		for _, it := range a.Unattached {
			fmt.Printf("  %s (%s)\n", it.Title, it.Kind)
		}
	}
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
