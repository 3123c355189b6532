package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/boonlang/boon-runtime/eventbus"
	"github.com/boonlang/boon-runtime/interp"
	"github.com/boonlang/boon-runtime/list"
	"github.com/boonlang/boon-runtime/scope"
	"github.com/boonlang/boon-runtime/storage"
	"github.com/boonlang/boon-runtime/value"
	"github.com/boonlang/boon-runtime/vfs"
)

func main() {
	manifestPath := flag.String("manifest", "", "path to a boonrun.toml manifest")
	presses := flag.Int("presses", 3, "number of LinkPress events to simulate on the increment event")
	debug := flag.Bool("debug", false, "enable human-readable dependency-graph debug logging")
	flag.Parse()

	manifest := DefaultManifest()
	if *manifestPath != "" {
		m, err := LoadManifest(*manifestPath)
		if err != nil {
			exitErr(err)
		}
		manifest = m
	}

	var handler slog.Handler
	if *debug {
		handler = scope.NewHumanHandler(os.Stderr, slog.LevelDebug)
	} else {
		handler = scope.NewSilentHandler()
	}
	logger := slog.New(handler)

	if err := run(manifest, *presses, handler, logger); err != nil {
		exitErr(err)
	}
}

func run(manifest Manifest, presses int, handler slog.Handler, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := scope.NewScope(scope.WithExtension(scope.NewGraphDebugExtension(handler)))
	defer s.Dispose()

	var backend storage.Backend
	if manifest.StoragePath == ":memory:" {
		backend = storage.NewMemoryBackend()
	} else {
		sb, err := storage.OpenSQLiteBackend(manifest.StoragePath)
		if err != nil {
			return err
		}
		defer sb.Close()
		backend = sb
	}
	store := storage.New(ctx, backend)
	defer store.Stop()

	osVFS, err := vfs.NewOSBackend(manifest.VFSRoot)
	if err != nil {
		return err
	}
	fs := vfs.New(ctx, osVFS)
	defer fs.Stop()

	bus := eventbus.New(ctx)
	defer bus.Stop()

	eventPath := eventbus.BuildPath(manifest.Name, "increment", eventbus.LinkPress, "")
	sub, err := bus.Subscribe(ctx, eventPath)
	if err != nil {
		return err
	}

	events := make(chan value.Value)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub.Chan():
				if !ok {
					return
				}
				events <- ev.Value
			}
		}
	}()

	hold := interp.NewHold(ctx, manifest.Name, value.NewNumber(float64(manifest.InitialHold)), events,
		func(_ context.Context, state, _ value.Value) (value.Value, error) {
			return value.NewNumber(state.(value.Number).V + 1), nil
		})
	defer hold.Stop()

	for i := 0; i < presses; i++ {
		bus.Publish(ctx, eventbus.Event{Path: eventPath, Value: value.NewTag("LinkPress")})
		time.Sleep(5 * time.Millisecond)
	}

	final, err := hold.Actor().CurrentValue(ctx)
	if err != nil {
		return err
	}

	raw, err := value.ToJSON(final, nil)
	if err != nil {
		return err
	}
	if err := store.Save(ctx, manifest.Name, raw); err != nil {
		return err
	}

	logger.Info("boonrun finished", "name", manifest.Name, "counter", final.(value.Number).V)
	fmt.Printf("%s counter = %v\n", manifest.Name, final.(value.Number).V)

	done, err := runTodoListDemo(ctx, s)
	if err != nil {
		return err
	}
	logger.Info("boonrun todo demo finished", "done_count", done)
	fmt.Printf("%s done count = %d\n", manifest.Name, done)

	return nil
}

// runTodoListDemo drives spec.md §8's Todo-toggle/filtered-count scenarios
// end to end: a BindList of todo items, a BindRetain keeping the ones
// currently done, then a single toggle applied through
// list.ChangeUpdateAt; it returns the retained count.
func runTodoListDemo(ctx context.Context, s *scope.Scope) (int, error) {
	c := interp.NewContext(s)

	todoItems := []list.Item{
		{ID: list.NewItemId(), Value: value.NewTaggedObject("Todo", []value.Field{{Name: "done", Handle: value.BoolTag(false)}})},
		{ID: list.NewItemId(), Value: value.NewTaggedObject("Todo", []value.Field{{Name: "done", Handle: value.BoolTag(true)}})},
		{ID: list.NewItemId(), Value: value.NewTaggedObject("Todo", []value.Field{{Name: "done", Handle: value.BoolTag(false)}})},
	}
	todos := interp.BindList(ctx, c, "todos", scope.Span{File: "boonrun.boon", Line: 1}, todoItems)
	defer todos.Stop()

	doneOnly, err := interp.BindRetain(ctx, c, "done_todos", scope.Span{File: "boonrun.boon", Line: 2}, todos,
		func(_ context.Context, it list.Item) (bool, error) {
			field, ok := it.Value.(value.TaggedObject).Get("done")
			if !ok {
				return false, nil
			}
			return field.(value.Tag).Symbol == "True", nil
		})
	if err != nil {
		return 0, err
	}
	defer doneOnly.Stop()

	// toggle the first pending item to done, mirroring a LinkClick on a
	// checkbox's event path.
	toggled := todoItems[0]
	toggled.Value = value.NewTaggedObject("Todo", []value.Field{{Name: "done", Handle: value.BoolTag(true)}})
	if err := todos.List.Apply(ctx, list.ListChange{Kind: list.ChangeUpdateAt, Index: 0, Value: toggled.Value}); err != nil {
		return 0, err
	}
	time.Sleep(20 * time.Millisecond)

	snap, err := doneOnly.List.Snapshot(ctx)
	if err != nil {
		return 0, err
	}
	return len(snap), nil
}
