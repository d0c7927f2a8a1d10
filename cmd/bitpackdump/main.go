// Command bitpackdump packs a JSON layout document and prints the resulting
// buffer together with the position of every field.
//
//	bitpackdump -layout frame.json -format table
//	cat frame.json | bitpackdump -format hex
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/quickwritereader/BitPackOS/access"
	"github.com/quickwritereader/BitPackOS/schema"
	"github.com/quickwritereader/BitPackOS/utils"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("bitpackdump", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		layoutPath = fs.String("layout", "-", "Layout JSON path, - for stdin")
		format     = fs.String("format", "table", "Output format: table, json, hex, layout")
		sortNames  = fs.Bool("sort", false, "Order table rows by field name instead of bit offset")
		targets    = fs.Bool("targets", false, "List decode targets and exit")
	)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *targets {
		for _, name := range schema.Targets() {
			if name == "" {
				name = "(auto)"
			}
			fmt.Fprintln(stdout, name)
		}
		return 0
	}

	data, err := readLayout(*layoutPath, stdin)
	if err != nil {
		return fail(stderr, err)
	}
	lj, err := schema.ParseLayout(data)
	if err != nil {
		return fail(stderr, err)
	}
	p, err := schema.Build(lj)
	if err != nil {
		return fail(stderr, err)
	}

	switch *format {
	case "table":
		err = writeTable(stdout, p, lj, *sortNames)
	case "json":
		err = writeJSON(stdout, p)
	case "hex":
		_, err = fmt.Fprintf(stdout, "% x\n", p.Bytes())
	case "layout":
		err = writeLayout(stdout, p)
	default:
		err = fmt.Errorf("unknown format %q", *format)
	}
	if err != nil {
		return fail(stderr, err)
	}
	return 0
}

func readLayout(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func writeTable(w io.Writer, p *access.Packer, lj *schema.LayoutJSON, sortNames bool) error {
	ds, err := schema.Describe(p)
	if err != nil {
		return err
	}
	if sortNames {
		byName := make(map[string][]schema.DescriptorJSON, len(ds))
		for _, d := range ds {
			byName[d.Name] = append(byName[d.Name], d)
		}
		ds = ds[:0]
		for _, name := range utils.SortedCopy(p.Names()) {
			ds = append(ds, byName[name]...)
		}
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Name", "Width", "Bit", "Bytes", "Start Mask", "End Mask", "Value"})
	table.SetAutoFormatHeaders(false)
	for _, d := range ds {
		name := d.Name
		if d.Shadowed {
			name += " (shadowed)"
		}
		table.Append([]string{
			strconv.Itoa(d.Index),
			name,
			strconv.Itoa(d.Width),
			strconv.Itoa(d.BitOffset),
			fmt.Sprintf("[%d,%d)", d.Start, d.End),
			d.StartMask,
			d.EndMask,
			d.Value,
		})
	}
	table.Render()

	title := lj.Name
	if title == "" {
		title = "layout"
	}
	_, err = fmt.Fprintf(w, "%s: %d fields, %s bits used, %d free, %s, fingerprint %016x\n",
		title, p.FieldCount(), humanize.Comma(int64(p.BitLen())), p.FreeBits(),
		humanize.Bytes(uint64(p.ByteLen())), lj.Fingerprint())
	return err
}

func writeJSON(w io.Writer, p *access.Packer) error {
	out, err := schema.MarshalDescriptors(p)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func writeLayout(w io.Writer, p *access.Packer) error {
	lj, err := schema.ExtractLayout(p)
	if err != nil {
		return err
	}
	out, err := schema.MarshalLayout(lj)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func fail(stderr io.Writer, err error) int {
	msg := err.Error()
	if errors.Is(err, access.ErrInvalidWidth) || errors.Is(err, access.ErrValueOverflow) {
		msg = strings.TrimSpace(msg) + " (widths are 1.." + strconv.Itoa(access.MaxWidth) + " bits)"
	}
	fmt.Fprintln(stderr, "bitpackdump:", msg)
	return 1
}
