package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"

	lamina "github.com/laminadb/lamina"
	"github.com/laminadb/lamina/internal/domain/path"
)

const shellHelp = `Commands:
  put <path> <json> [version-us]   ingest a remote document
  remove <path>                    drop a remote document from the cache
  get <path>                       read the local view of a document
  query <collection> [since-us]    read the local view of a collection
  group <collection-id>            read a collection group across all parents
  write-set <path> <json>          enqueue a set mutation
  write-patch <path> <json>        enqueue a patch mutation
  write-delete <path>              enqueue a delete mutation
  batches                          list pending batches
  ack <id>                         acknowledge the oldest batch
  reject <id>                      reject the oldest batch
  parents <collection-id>          list known parents of a collection id
  help                             show this help
  quit                             exit`

// runShell drives the interactive prompt until quit or EOF.
func runShell(ctx context.Context, client *lamina.Client) {
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	historyPath := filepath.Join(os.TempDir(), ".lamina_history")
	if f, err := os.Open(historyPath); err == nil {
		_, _ = line.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(historyPath); err == nil {
			_, _ = line.WriteHistory(f)
			_ = f.Close()
		}
	}()

	fmt.Println("lamina shell, type 'help' for commands")
	for {
		input, err := line.Prompt("lamina> ")
		if err != nil {
			// Ctrl-C or Ctrl-D ends the session.
			fmt.Println()
			return
		}
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		if input == "quit" || input == "exit" {
			return
		}
		if err := runCommand(ctx, client, input); err != nil {
			fmt.Println("error:", err)
		}
	}
}

func runCommand(ctx context.Context, client *lamina.Client, input string) error {
	cmd, rest, _ := strings.Cut(input, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "help":
		fmt.Println(shellHelp)
		return nil
	case "put":
		return cmdPut(ctx, client, rest)
	case "remove":
		key, err := lamina.ParseKey(rest)
		if err != nil {
			return err
		}
		return client.RemoveRemoteDocument(ctx, key)
	case "get":
		doc, err := client.Document(ctx, rest)
		if err != nil {
			return err
		}
		printDocument(doc)
		return nil
	case "query":
		return cmdQuery(ctx, client, rest)
	case "group":
		docs, err := client.Query(ctx, lamina.NewCollectionGroupQuery(rest))
		if err != nil {
			return err
		}
		printDocuments(docs)
		return nil
	case "write-set":
		return cmdWrite(ctx, client, rest, lamina.NewSet)
	case "write-patch":
		return cmdWrite(ctx, client, rest, func(p string, data map[string]any, _ ...lamina.FieldTransform) (lamina.Mutation, error) {
			return lamina.NewPatch(p, data)
		})
	case "write-delete":
		m, err := lamina.NewDelete(rest)
		if err != nil {
			return err
		}
		batch, err := client.Write(ctx, m)
		if err != nil {
			return err
		}
		fmt.Printf("batch %d enqueued\n", batch.ID())
		return nil
	case "batches":
		batches, err := client.Batches(ctx)
		if err != nil {
			return err
		}
		if len(batches) == 0 {
			fmt.Println("no pending batches")
			return nil
		}
		for _, b := range batches {
			fmt.Printf("batch %d: %d mutations, written %s\n",
				b.ID(), len(b.Mutations()), b.LocalWriteTime().Format(time.RFC3339))
		}
		return nil
	case "ack":
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return fmt.Errorf("ack wants a batch id: %w", err)
		}
		if err := client.AcknowledgeBatch(ctx, id); err != nil {
			return err
		}
		fmt.Printf("batch %d acknowledged\n", id)
		return nil
	case "reject":
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return fmt.Errorf("reject wants a batch id: %w", err)
		}
		if err := client.RejectBatch(ctx, id); err != nil {
			return err
		}
		fmt.Printf("batch %d rejected\n", id)
		return nil
	case "parents":
		parents, err := client.CollectionParents(ctx, rest)
		if err != nil {
			return err
		}
		if len(parents) == 0 {
			fmt.Println("no known parents")
			return nil
		}
		for _, p := range parents {
			if p.IsEmpty() {
				fmt.Println("(root)")
				continue
			}
			fmt.Println(p.String())
		}
		return nil
	default:
		return fmt.Errorf("unknown command %q, type 'help'", cmd)
	}
}

func cmdPut(ctx context.Context, client *lamina.Client, rest string) error {
	docPath, rest, ok := strings.Cut(rest, " ")
	if !ok {
		return fmt.Errorf("usage: put <path> <json> [version-us]")
	}

	// An optional trailing integer sets the version; default is now.
	versionMicros := time.Now().UnixMicro()
	jsonArg := strings.TrimSpace(rest)
	if i := strings.LastIndex(jsonArg, " "); i >= 0 {
		if us, err := strconv.ParseInt(jsonArg[i+1:], 10, 64); err == nil {
			versionMicros = us
			jsonArg = strings.TrimSpace(jsonArg[:i])
		}
	}

	data, err := parseJSONObject(jsonArg)
	if err != nil {
		return err
	}
	doc, err := lamina.NewFoundDocument(docPath, versionMicros, data)
	if err != nil {
		return err
	}
	if err := client.ApplyRemoteDocument(ctx, doc, lamina.VersionFromMicros(versionMicros)); err != nil {
		return err
	}
	fmt.Printf("%s ingested at v%d\n", docPath, versionMicros)
	return nil
}

func cmdQuery(ctx context.Context, client *lamina.Client, rest string) error {
	collection, sinceArg, hasSince := strings.Cut(rest, " ")
	q, err := lamina.NewQuery(collection)
	if err != nil {
		return err
	}

	var opts []lamina.QueryOption
	if hasSince {
		us, err := strconv.ParseInt(strings.TrimSpace(sinceArg), 10, 64)
		if err != nil {
			return fmt.Errorf("since wants epoch microseconds: %w", err)
		}
		opts = append(opts, lamina.Since(lamina.VersionFromMicros(us)))
	}

	docs, err := client.Query(ctx, q, opts...)
	if err != nil {
		return err
	}
	printDocuments(docs)
	return nil
}

func cmdWrite(
	ctx context.Context,
	client *lamina.Client,
	rest string,
	build func(string, map[string]any, ...lamina.FieldTransform) (lamina.Mutation, error),
) error {
	docPath, jsonArg, ok := strings.Cut(rest, " ")
	if !ok {
		return fmt.Errorf("usage: write-<kind> <path> <json>")
	}
	data, err := parseJSONObject(jsonArg)
	if err != nil {
		return err
	}
	m, err := build(docPath, data)
	if err != nil {
		return err
	}
	batch, err := client.Write(ctx, m)
	if err != nil {
		return err
	}
	fmt.Printf("batch %d enqueued\n", batch.ID())
	return nil
}

func parseJSONObject(s string) (map[string]any, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &data); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return data, nil
}

func printDocument(doc *lamina.Document) {
	switch {
	case doc.IsFound():
		raw, err := json.Marshal(doc.Data().Value())
		if err != nil {
			raw = []byte("<unprintable>")
		}
		fmt.Printf("%s v%d %s\n", doc.Key(), doc.Version().Micros(), raw)
	case doc.IsDeleted():
		fmt.Printf("%s deleted at v%d\n", doc.Key(), doc.Version().Micros())
	case doc.IsUnknown():
		fmt.Printf("%s unknown at v%d\n", doc.Key(), doc.Version().Micros())
	default:
		fmt.Printf("%s not found\n", doc.Key())
	}
}

func printDocuments(docs map[lamina.DocumentKey]*lamina.Document) {
	if len(docs) == 0 {
		fmt.Println("no documents")
		return
	}
	keys := make([]lamina.DocumentKey, 0, len(docs))
	for k := range docs {
		keys = append(keys, k)
	}
	for _, k := range path.SortKeys(keys) {
		printDocument(docs[k])
	}
}
