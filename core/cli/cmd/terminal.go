package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/tunestat/tunestat/core/accounts"
	"github.com/tunestat/tunestat/core/catalog"
	"github.com/tunestat/tunestat/core/connectors"
	"github.com/tunestat/tunestat/core/session"
)

// consoleTerminal implements session.Terminal over stdin/stdout. It
// renders numbered menus and prompts query parameters in the order the
// catalog declares them.
type consoleTerminal struct {
	defs   []catalog.Definition
	reader *bufio.Reader
}

func newConsoleTerminal(defs []catalog.Definition) *consoleTerminal {
	return &consoleTerminal{
		defs:   defs,
		reader: bufio.NewReader(os.Stdin),
	}
}

func (t *consoleTerminal) Credentials() (string, string, error) {
	username, err := t.prompt("Username: ")
	if err != nil {
		return "", "", err
	}
	password, err := t.promptPassword("Password: ")
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

func (t *consoleTerminal) Select(sess *session.Session, ops []session.Operation) (string, map[string]any, error) {
	fmt.Printf("\n[%s] Available operations:\n", sess.Account.Username)
	for i, op := range ops {
		fmt.Printf("  %d. %s\n", i+1, op.Title)
	}
	fmt.Println("  0. Exit")

	choice, err := t.promptInt("Select: ", 0, len(ops))
	if err != nil {
		return "", nil, err
	}
	if choice == 0 {
		return session.OpExit, nil, nil
	}

	op := ops[choice-1]
	args, err := t.promptArgs(op)
	if err != nil {
		return "", nil, err
	}
	return op.ID, args, nil
}

func (t *consoleTerminal) promptArgs(op session.Operation) (map[string]any, error) {
	switch op.ID {
	case session.OpAccountsCreate:
		return t.promptFields("username", "password", "role")
	case session.OpAccountsUpdate:
		args, err := t.promptFields("username")
		if err != nil {
			return nil, err
		}
		// Blank answers leave the field unchanged
		if pw, err := t.promptPassword("New password (blank to keep): "); err != nil {
			return nil, err
		} else if pw != "" {
			args["new_password"] = pw
		}
		if role, err := t.prompt("New role (blank to keep): "); err != nil {
			return nil, err
		} else if role != "" {
			args["new_role"] = role
		}
		return args, nil
	case session.OpAccountsDelete:
		return t.promptFields("username")
	case session.OpQueryRun:
		return t.promptQuery()
	default:
		return nil, nil
	}
}

func (t *consoleTerminal) promptQuery() (map[string]any, error) {
	fmt.Println("\nCatalog queries:")
	for _, def := range t.defs {
		fmt.Printf("  %d. %s - %s\n", def.ID, def.Name, def.Description)
	}

	maxID := 0
	for _, def := range t.defs {
		if def.ID > maxID {
			maxID = def.ID
		}
	}
	queryID, err := t.promptInt("Query: ", 1, maxID)
	if err != nil {
		return nil, err
	}

	params := map[string]any{}
	for _, def := range t.defs {
		if def.ID != queryID {
			continue
		}
		for _, p := range def.Params {
			value, err := t.prompt(fmt.Sprintf("%s (%s): ", p.Name, p.Type))
			if err != nil {
				return nil, err
			}
			params[p.Name] = value
		}
	}
	return map[string]any{"query_id": queryID, "params": params}, nil
}

func (t *consoleTerminal) ShowResult(operationID string, result any) {
	switch v := result.(type) {
	case nil:
		fmt.Println("OK")
	case *accounts.Account:
		fmt.Printf("%s (%s)\n", v.Username, v.Role)
	case []accounts.Account:
		fmt.Printf("%-24s %s\n", "USERNAME", "ROLE")
		for _, acct := range v {
			fmt.Printf("%-24s %s\n", acct.Username, acct.Role)
		}
		fmt.Printf("%d account(s)\n", len(v))
	case *connectors.Result:
		printResultTable(v)
	default:
		fmt.Printf("%v\n", v)
	}
}

func (t *consoleTerminal) ShowError(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
}

func (t *consoleTerminal) prompt(label string) (string, error) {
	fmt.Print(label)
	line, err := t.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptPassword reads without echo when stdin is a terminal
func (t *consoleTerminal) promptPassword(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return t.prompt(label)
	}
	fmt.Print(label)
	raw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (t *consoleTerminal) promptInt(label string, min, max int) (int, error) {
	for {
		raw, err := t.prompt(label)
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < min || n > max {
			fmt.Printf("enter a number between %d and %d\n", min, max)
			continue
		}
		return n, nil
	}
}

var fieldLabels = map[string]string{
	"username": "Username: ",
	"role":     "Role (admin|user): ",
}

func (t *consoleTerminal) promptFields(names ...string) (map[string]any, error) {
	args := make(map[string]any, len(names))
	for _, name := range names {
		var value string
		var err error
		if name == "password" {
			value, err = t.promptPassword("Password: ")
		} else {
			value, err = t.prompt(fieldLabels[name])
		}
		if err != nil {
			return nil, err
		}
		args[name] = value
	}
	return args, nil
}

// printResultTable renders rows with columns in driver order
func printResultTable(result *connectors.Result) {
	if len(result.Rows) == 0 {
		fmt.Println("no rows")
		return
	}

	widths := make([]int, len(result.Columns))
	cells := make([][]string, len(result.Rows))
	for i, col := range result.Columns {
		widths[i] = len(col)
	}
	for r, row := range result.Rows {
		cells[r] = make([]string, len(result.Columns))
		for i, col := range result.Columns {
			cell := fmt.Sprintf("%v", row[col])
			cells[r][i] = cell
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	for i, col := range result.Columns {
		fmt.Printf("%-*s  ", widths[i], strings.ToUpper(col))
	}
	fmt.Println()
	for _, row := range cells {
		for i, cell := range row {
			fmt.Printf("%-*s  ", widths[i], cell)
		}
		fmt.Println()
	}
	fmt.Printf("%d row(s)\n", len(cells))
}
