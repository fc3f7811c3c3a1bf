// Command forgerun loads a JSON-encoded ForgeTree and walks it to
// completion, wiring together the SQLite state backend, the default
// expr-lang expression executor, the built-in external executors, and a
// text log emitter.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"reflect"

	"github.com/google/uuid"

	"github.com/forgetree/forge"
	"github.com/forgetree/forge/actions"
	"github.com/forgetree/forge/emit"
	"github.com/forgetree/forge/expr"
	"github.com/forgetree/forge/externalexec"
	"github.com/forgetree/forge/state"
)

func main() {
	treePath := flag.String("tree", "", "path to a JSON-encoded ForgeTree")
	startNode := flag.String("start", "", "node key to start the walk from")
	dbPath := flag.String("db", "forge.db", "SQLite database path for session state")
	jsonLogs := flag.Bool("json-logs", false, "emit structured JSON logs instead of text")
	flag.Parse()

	if *treePath == "" || *startNode == "" {
		fmt.Fprintln(os.Stderr, "usage: forgerun -tree <path> -start <nodeKey> [-db <path>] [-json-logs]")
		os.Exit(2)
	}

	if err := run(*treePath, *startNode, *dbPath, *jsonLogs); err != nil {
		log.Fatal(err)
	}
}

func run(treePath, startNode, dbPath string, jsonLogs bool) error {
	raw, err := os.ReadFile(treePath)
	if err != nil {
		return fmt.Errorf("forgerun: read tree: %w", err)
	}

	tree, err := parseTree(raw)
	if err != nil {
		return err
	}

	store, err := state.NewSQLite(dbPath)
	if err != nil {
		return fmt.Errorf("forgerun: open state store: %w", err)
	}
	defer store.Close()

	sessionID := uuid.NewString()
	sessionState := store.Session(sessionID)

	exprExecutor := expr.NewExecutor(nil)
	registry := buildRegistry()

	emitter := emit.NewLogEmitter(os.Stdout, jsonLogs)

	sess, err := forge.NewSession(
		sessionID, tree, sessionState, exprExecutor, registry,
		forge.WithEmitter(emitter),
		forge.WithExternalExecutors(map[string]forge.ExternalExecutor{
			"JSONPath|": externalexec.JSONPath,
			"JSONSet|":  externalexec.JSONSet,
			"Env|":      externalexec.Env,
		}),
	)
	if err != nil {
		return fmt.Errorf("forgerun: create session: %w", err)
	}

	ctx := context.Background()
	status, err := sess.WalkTree(ctx, startNode)
	if err != nil && !forge.IsNoChildMatched(err) {
		emitter.Emit(emit.Event{
			SessionID: sessionID,
			Msg:       "walk_failed",
			Meta:      map[string]interface{}{"error": err.Error(), "status": status.String()},
		})
		return fmt.Errorf("forgerun: walk failed with status %s: %w", status, err)
	}

	fmt.Printf("session %s finished with status %s\n", sessionID, status)
	return nil
}

// buildRegistry registers the example action implementations shipped with
// the module. LLM actions are only registered when their API key env var is
// set, so a bare-bones tree that only needs Noop/Sleep/HTTP works offline.
func buildRegistry() *forge.Registry {
	reg := forge.NewRegistry()

	forge.Register[actions.NoopAction](reg, "Noop", func() actions.NoopAction { return actions.NoopAction{} }, nil)
	forge.Register[actions.SleepAction](reg, "Sleep", func() actions.SleepAction { return actions.SleepAction{} }, reflectTypeOf(actions.SleepInput{}))
	forge.Register[*actions.HTTPAction](reg, "HTTP", func() *actions.HTTPAction { return actions.NewHTTPAction() }, reflectTypeOf(actions.HTTPInput{}))

	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		forge.Register[*actions.AnthropicAction](reg, "Anthropic", func() *actions.AnthropicAction {
			return actions.NewAnthropicAction(key, os.Getenv("ANTHROPIC_MODEL"))
		}, reflectTypeOf(actions.ChatInput{}))
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		forge.Register[*actions.OpenAIAction](reg, "OpenAI", func() *actions.OpenAIAction {
			return actions.NewOpenAIAction(key, os.Getenv("OPENAI_MODEL"))
		}, reflectTypeOf(actions.ChatInput{}))
	}
	if key := os.Getenv("GOOGLE_API_KEY"); key != "" {
		forge.Register[*actions.GeminiAction](reg, "Gemini", func() *actions.GeminiAction {
			return actions.NewGeminiAction(key, os.Getenv("GOOGLE_MODEL"))
		}, reflectTypeOf(actions.ChatInput{}))
	}

	return reg
}

func reflectTypeOf(v any) reflect.Type {
	return reflect.TypeOf(v)
}
