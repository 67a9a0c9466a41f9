package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/dshills/synpane/internal/document"
	"github.com/dshills/synpane/internal/search"
	"github.com/dshills/synpane/internal/token"
	"github.com/dshills/synpane/internal/watcher"
)

func newTokensCmd(e *env) *cobra.Command {
	var from, to int
	cmd := &cobra.Command{
		Use:   "tokens <file>",
		Short: "List the tokens of a file",
		Long: `List the tokens of a file, one per line:

  start  end  kind  text

Use --from and --to to restrict the listing to tokens overlapping a byte range.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := e.open(args[0])
			if err != nil {
				return err
			}
			defer doc.Close()

			end := to
			if end < 0 {
				end = doc.Len()
			}
			text := doc.Text()
			for tok := range doc.Tokens(from, end) {
				printToken(cmd.OutOrStdout(), tok, text)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&from, "from", 0, "start of the byte range")
	cmd.Flags().IntVar(&to, "to", -1, "end of the byte range (default: end of file)")
	return cmd
}

func newAtCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "at <file> <offset>",
		Short: "Show the token at a byte offset and its pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			offset, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid offset %q", args[1])
			}
			doc, err := e.open(args[0])
			if err != nil {
				return err
			}
			defer doc.Close()

			out := cmd.OutOrStdout()
			pos, err := doc.Position(offset)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "position\t%d:%d\n", pos.Line+1, pos.Column+1)

			tok, ok := doc.TokenAt(offset)
			if !ok {
				fmt.Fprintln(out, "no token")
				return nil
			}
			text := doc.Text()
			printToken(out, tok, text)
			if pair, ok := doc.PairOf(tok); ok {
				fmt.Fprint(out, "pair\t")
				printToken(out, pair, text)
			}
			if marks := doc.MarkTokens(tok); len(marks) > 1 {
				fmt.Fprintf(out, "occurrences\t%d\n", len(marks))
			}
			return nil
		},
	}
}

func newPairsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "pairs <file>",
		Short: "List matching bracket pairs",
		Long:  "List every opening token with its matching closing token. Unbalanced openers are reported as unmatched.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := e.open(args[0])
			if err != nil {
				return err
			}
			defer doc.Close()

			out := cmd.OutOrStdout()
			text := doc.Text()
			for tok := range doc.Index().All() {
				if !tok.Opens() {
					continue
				}
				pair, ok := doc.PairOf(tok)
				if !ok {
					fmt.Fprintf(out, "%d\t%s\tunmatched\n", tok.Start, tok.Text(text))
					continue
				}
				fmt.Fprintf(out, "%d\t%d\t%s%s\n", tok.Start, pair.Start, tok.Text(text), pair.Text(text))
			}
			return nil
		},
	}
}

func newFindCmd(e *env) *cobra.Command {
	var (
		from       int
		all        bool
		literal    bool
		ignoreCase bool
	)
	cmd := &cobra.Command{
		Use:   "find <file> <pattern>",
		Short: "Search a file with a regular expression",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := e.open(args[0], document.WithSearcher(e.searcher(search.WithIgnoreCase(ignoreCase || e.cfg.Search.IgnoreCase))))
			if err != nil {
				return err
			}
			defer doc.Close()

			pattern := args[1]
			if literal {
				pattern = search.Quote(pattern)
			}

			out := cmd.OutOrStdout()
			if all {
				matches, err := doc.FindAll(pattern)
				if err != nil {
					return err
				}
				for _, m := range matches {
					printMatch(out, doc, m)
				}
				return nil
			}

			m, ok, err := doc.Find(pattern, from)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no match for %q", args[1])
			}
			printMatch(out, doc, m)
			return nil
		},
	}
	cmd.Flags().IntVar(&from, "from", 0, "byte offset to start searching at")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "list every match")
	cmd.Flags().BoolVarP(&literal, "literal", "F", false, "treat the pattern as literal text")
	cmd.Flags().BoolVarP(&ignoreCase, "ignore-case", "i", false, "ignore case")
	return cmd
}

func newReplaceCmd(e *env) *cobra.Command {
	var (
		showDiff bool
		write    bool
	)
	cmd := &cobra.Command{
		Use:   "replace <file> <pattern> <replacement>",
		Short: "Replace every match of a pattern",
		Long: `Replace every match of a pattern and print the result.

The replacement may refer to groups as $1 or ${name}. With --diff a patch
is printed instead of the new text; with --write the file is updated.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			doc, err := e.open(path)
			if err != nil {
				return err
			}
			defer doc.Close()

			before := doc.Text()
			n, err := doc.ReplaceAll(args[1], args[2])
			if err != nil {
				return err
			}
			after := doc.Text()
			e.log.Info("%s: %d replacements", path, n)

			out := cmd.OutOrStdout()
			switch {
			case showDiff:
				fmt.Fprint(out, unifiedPatch(before, after))
			case !write:
				fmt.Fprint(out, after)
			}
			if write && n > 0 {
				info, err := os.Stat(path)
				if err != nil {
					return err
				}
				return os.WriteFile(path, []byte(after), info.Mode().Perm())
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&showDiff, "diff", "d", false, "print a patch instead of the new text")
	cmd.Flags().BoolVarP(&write, "write", "w", false, "write the result back to the file")
	return cmd
}

func newLangsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "langs",
		Short: "List registered languages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range e.registry.Languages() {
				fmt.Fprintf(out, "%s\t%s\n", name, strings.Join(e.registry.Extensions(name), " "))
			}
			return nil
		},
	}
}

func newWatchCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <file>",
		Short: "Re-lex a file whenever it changes",
		Long:  "Keep a file open and re-lex it on every change, printing a summary line each time. Stops on interrupt.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			doc, err := e.open(path)
			if err != nil {
				return err
			}
			defer doc.Close()

			w, err := watcher.New(watcher.Config{Path: path})
			if err != nil {
				return err
			}
			defer w.Close()
			changes, err := w.Start()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printSummary(out, doc)
			ctx := cmd.Context()
			for {
				select {
				case <-ctx.Done():
					return nil
				case err := <-w.Errors():
					e.log.Warn("watch %s: %v", path, err)
				case <-changes:
					data, err := os.ReadFile(path)
					if err != nil {
						e.log.Warn("reading %s: %v", path, err)
						continue
					}
					if err := doc.SetText(string(data)); err != nil {
						e.log.Error("updating %s: %v", path, err)
						continue
					}
					printSummary(out, doc)
				}
			}
		},
	}
}

func printToken(w io.Writer, tok token.Token, text string) {
	fmt.Fprintf(w, "%d\t%d\t%s\t%q\n", tok.Start, tok.End(), tok.Kind, tok.Text(text))
}

func printMatch(w io.Writer, doc *document.Document, m search.Match) {
	pos, err := doc.Position(m.Start)
	if err != nil {
		fmt.Fprintf(w, "%d\t%d\t%q\n", m.Start, m.End, m.Text)
		return
	}
	fmt.Fprintf(w, "%d:%d\t%d\t%d\t%q\n", pos.Line+1, pos.Column+1, m.Start, m.End, m.Text)
}

func printSummary(w io.Writer, doc *document.Document) {
	fmt.Fprintf(w, "rev %d\t%d bytes\t%d tokens\n", doc.Revision(), doc.Len(), doc.Index().Len())
}

// unifiedPatch returns a patch turning before into after.
func unifiedPatch(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	return dmp.PatchToText(dmp.PatchMake(before, diffs))
}
