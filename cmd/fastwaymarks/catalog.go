package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rs/zerolog"

	"github.com/fastwaymarks/overlay/internal/dispatcher"
	"github.com/fastwaymarks/overlay/internal/storage"
	"github.com/fastwaymarks/overlay/internal/storage/memory"
)

// catalogBufferSize bounds pending console imports and exports.
const catalogBufferSize = 4

type dumper interface {
	Dump(path string) error
}

func runCatalog(catalog storage.Catalog, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("catalog: expected list, import, export or dump")
	}
	switch args[0] {
	case "list":
		return listCatalog(catalog, out)
	case "import", "export", "dump":
		if len(args) != 2 {
			return fmt.Errorf("catalog %s: expected one file argument", args[0])
		}
	default:
		return fmt.Errorf("catalog: unknown subcommand %q", args[0])
	}

	path := args[1]
	switch args[0] {
	case "import":
		n, err := importFile(catalog, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "imported %d territories\n", n)
	case "export":
		n, err := exportFile(catalog, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "exported %d territories\n", n)
	case "dump":
		d, ok := catalog.(dumper)
		if !ok {
			return fmt.Errorf("catalog dump needs the sqlite backend")
		}
		if err := d.Dump(path); err != nil {
			return fmt.Errorf("dumping catalog: %w", err)
		}
		fmt.Fprintf(out, "dumped catalog to %s\n", path)
	}
	return nil
}

// importFile merges a JSON territory file into catalog.
func importFile(catalog storage.Catalog, path string) (int, error) {
	seed := memory.New(memory.Config{})
	if err := seed.LoadFile(path); err != nil {
		return 0, fmt.Errorf("reading %s: %w", path, err)
	}
	territories := seed.Territories()
	for _, t := range territories {
		if err := catalog.PutTerritory(t); err != nil {
			return 0, fmt.Errorf("importing territory %d: %w", t.ID, err)
		}
	}
	return len(territories), nil
}

// exportFile writes every territory of catalog to a JSON file.
func exportFile(catalog storage.Catalog, path string) (int, error) {
	snapshot := memory.New(memory.Config{})
	territories := catalog.Territories()
	for _, t := range territories {
		if err := snapshot.PutTerritory(t); err != nil {
			return 0, err
		}
	}
	if err := snapshot.WriteFile(path); err != nil {
		return 0, fmt.Errorf("exporting catalog: %w", err)
	}
	return len(territories), nil
}

// registerCatalogCommands adds console import and export. Both run on their
// own worker so file I/O stays off the console goroutine; results are logged.
// Imports wait for room in the buffer, exports are dropped when it is full.
func registerCatalogCommands(d *dispatcher.Dispatcher, catalog storage.Catalog, log zerolog.Logger) {
	d.Register("import", func(e dispatcher.Event) (any, error) {
		if len(e.Args) != 1 {
			return nil, errors.New("import: expected one file argument")
		}
		n, err := importFile(catalog, e.Args[0])
		if err != nil {
			return nil, err
		}
		log.Info().Str("file", e.Args[0]).Int("territories", n).Msg("Zone catalog imported")
		return n, nil
	}, dispatcher.Buffered(catalogBufferSize), dispatcher.Blocking(), dispatcher.Logged())

	d.Register("export", func(e dispatcher.Event) (any, error) {
		if len(e.Args) != 1 {
			return nil, errors.New("export: expected one file argument")
		}
		n, err := exportFile(catalog, e.Args[0])
		if err != nil {
			return nil, err
		}
		log.Info().Str("file", e.Args[0]).Int("territories", n).Msg("Zone catalog exported")
		return n, nil
	}, dispatcher.Buffered(catalogBufferSize), dispatcher.Logged())
}

func listCatalog(catalog storage.Catalog, out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TERRITORY\tCONTENT\tMAPS\tNAME")
	for _, t := range catalog.Territories() {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%s\n", t.ID, t.ContentID, len(t.Maps), t.Name)
	}
	return tw.Flush()
}
