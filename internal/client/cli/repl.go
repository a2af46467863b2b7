package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

const defaultLimit = 5

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Menu(ctx context.Context, force bool) error
	Attrs(ctx context.Context, entity string) error
	List(ctx context.Context, entity string, limit, offset int) error
	Next(ctx context.Context, entity string, limit int) error
	Show(ctx context.Context, entity string) error
	Add(ctx context.Context, entity string, fields map[string]any) error
	Update(ctx context.Context, entity, id string, fields map[string]any) error
	Delete(ctx context.Context, entity, id string) error
	FilterAdd(ctx context.Context, entity, field, value string) error
	FilterRemove(ctx context.Context, entity, field, value string) error
	FilterClear(ctx context.Context, entity string) error
	Filters(ctx context.Context) error
	Types(ctx context.Context) error
	Keys(ctx context.Context) error
	Reset(ctx context.Context) error
	RecordActivity()
}

const helpText = `Available commands:
  menu [force]                       show the navigation menu
  attrs <type>                       fetch the attributes of an entity type
  list <type> [limit] [offset]       fetch a page of entities
  next <type> [limit]                fetch the next page of the current listing
  show <type>                        print the current page
  add <type> [name=value...]         create an entity
  update <type> <id> name=value...   update an entity
  delete <type> <id>                 delete an entity
  filter add|rm <type> <field> <v>   select or deselect a filter value
  filter clear [type]                clear filters of one type or all
  filters                            print the filter selections
  types                              list the entity types used so far
  keys                               list the locally stored keys
  reset                              wipe the local cache and filters
  exit | quit                        leave the program`

// runREPL starts a simple read–eval–print loop for the webappsync shell.
//
// Every line read counts as user activity. It reads a line from the
// provided scanner, parses the first token as the
// command and the rest as its arguments, and dispatches to methods on 'a'.
// Malformed arguments print the command usage. The loop exits on scanner
// EOF or when the user types "exit" or "quit".
//
// Errors returned by command handlers are printed and otherwise ignored so
// the loop keeps running.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("webappsync %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		a.RecordActivity()
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			printlnFn(helpText)

		case "menu":
			err = a.Menu(ctx, len(args) > 0 && args[0] == "force")

		case "attrs":
			if len(args) != 1 {
				printlnFn("Usage: attrs <type>")
				continue
			}
			err = a.Attrs(ctx, args[0])

		case "l", "list":
			limit, offset, ok := parseInts(args[min(1, len(args)):], defaultLimit, 0)
			if len(args) < 1 || !ok {
				printlnFn("Usage: list <type> [limit] [offset]")
				continue
			}
			err = a.List(ctx, args[0], limit, offset)

		case "next":
			limit, _, ok := parseInts(args[min(1, len(args)):], defaultLimit, 0)
			if len(args) < 1 || !ok {
				printlnFn("Usage: next <type> [limit]")
				continue
			}
			err = a.Next(ctx, args[0], limit)

		case "show":
			if len(args) != 1 {
				printlnFn("Usage: show <type>")
				continue
			}
			err = a.Show(ctx, args[0])

		case "add":
			if len(args) < 1 {
				printlnFn("Usage: add <type> [name=value...]")
				continue
			}
			pairs := args[1:]
			if len(pairs) == 0 {
				pairs = readFields(scanner, os.Stdout)
			}
			fields, perr := ParseFields(pairs)
			if perr != nil {
				printlnFn(perr.Error())
				continue
			}
			err = a.Add(ctx, args[0], fields)

		case "update":
			if len(args) < 3 {
				printlnFn("Usage: update <type> <id> name=value...")
				continue
			}
			fields, perr := ParseFields(args[2:])
			if perr != nil {
				printlnFn(perr.Error())
				continue
			}
			err = a.Update(ctx, args[0], args[1], fields)

		case "delete":
			if len(args) != 2 {
				printlnFn("Usage: delete <type> <id>")
				continue
			}
			err = a.Delete(ctx, args[0], args[1])

		case "filter":
			err = runFilter(ctx, a, args)

		case "filters":
			err = a.Filters(ctx)

		case "types":
			err = a.Types(ctx)

		case "keys":
			err = a.Keys(ctx)

		case "reset":
			err = a.Reset(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}

func runFilter(ctx context.Context, a execIface, args []string) error {
	const usage = "Usage: filter add|rm <type> <field> <value> | filter clear [type]"
	if len(args) == 0 {
		printlnFn(usage)
		return nil
	}

	switch args[0] {
	case "add", "rm":
		if len(args) != 4 {
			printlnFn(usage)
			return nil
		}
		if args[0] == "add" {
			return a.FilterAdd(ctx, args[1], args[2], args[3])
		}
		return a.FilterRemove(ctx, args[1], args[2], args[3])
	case "clear":
		entity := ""
		if len(args) > 1 {
			entity = args[1]
		}
		return a.FilterClear(ctx, entity)
	default:
		printlnFn(usage)
		return nil
	}
}

// parseInts reads up to two optional non-negative integers.
func parseInts(args []string, first, second int) (int, int, bool) {
	out := []int{first, second}
	if len(args) > len(out) {
		return 0, 0, false
	}
	for i, s := range args {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return 0, 0, false
		}
		out[i] = n
	}
	return out[0], out[1], true
}
