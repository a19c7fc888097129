package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	cli "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"pagefiber-be/internal/pkg/logger"
	"pagefiber-be/pkg/blocks"
	"pagefiber-be/pkg/render/html"
	"pagefiber-be/pkg/render/markdown"
	"pagefiber-be/pkg/render/terminal"
)

const (
	formatTerminal = "terminal"
	formatHTML     = "html"
	formatMarkdown = "markdown"
	formatJSON     = "json"
)

func run(ctx context.Context, cmd *cli.Command) (err error) {
	if cmd.NArg() != 1 {
		return fmt.Errorf("expected exactly one input file, got %d", cmd.NArg())
	}
	name := cmd.Args().First()

	raw, err := readInput(name)
	if err != nil {
		return err
	}
	content, err := toJSON(name, raw)
	if err != nil {
		return err
	}

	out := io.Writer(os.Stdout)
	if path := cmd.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("unable to create output file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		out = f
		color.NoColor = true
	}
	if cmd.Bool("no-color") {
		color.NoColor = true
	}

	doc := blocks.NewRenderer(logger.NewNopLogger()).RenderJSON(content)
	if err := write(out, doc, cmd.String("format"), cmd.String("title")); err != nil {
		return err
	}

	if cmd.Bool("strict") {
		if doc.Failed {
			return fmt.Errorf("render failed: %w", doc.Err())
		}
		if errs := doc.Errors(); len(errs) > 0 {
			return fmt.Errorf("%d blocks failed to render: %w", len(errs), doc.Err())
		}
	}
	return nil
}

func readInput(name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("unable to read input: %w", err)
	}
	return data, nil
}

// toJSON converts YAML input to JSON so both go through the same lenient
// block decoder. Stdin is sniffed: anything not starting like JSON is YAML.
func toJSON(name string, raw []byte) ([]byte, error) {
	ext := strings.ToLower(filepath.Ext(name))
	isYAML := ext == ".yaml" || ext == ".yml"
	if name == "-" {
		trimmed := bytes.TrimSpace(raw)
		isYAML = len(trimmed) > 0 && !bytes.ContainsAny(trimmed[:1], `[{"`)
	}
	if !isYAML {
		return raw, nil
	}

	var tree interface{}
	if err := yaml.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("unable to parse YAML: %w", err)
	}
	data, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("unable to convert YAML: %w", err)
	}
	return data, nil
}

func write(out io.Writer, doc *blocks.Document, format, title string) error {
	switch format {
	case formatTerminal:
		return terminal.NewPrinter(out).Print(doc)
	case formatHTML:
		r := html.NewRenderer()
		if title != "" {
			_, err := io.WriteString(out, r.Page(title, doc))
			return err
		}
		_, err := io.WriteString(out, r.Render(doc))
		return err
	case formatMarkdown:
		_, err := io.WriteString(out, markdown.Render(doc))
		return err
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	return fmt.Errorf("unknown format %q", format)
}
