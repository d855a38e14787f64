package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jwulff/pdfchat/internal/api"
	"github.com/jwulff/pdfchat/internal/app"
	"github.com/jwulff/pdfchat/internal/markdown"
	"github.com/jwulff/pdfchat/internal/session"
)

var errNoDocuments = errors.New("no PDFs uploaded")

// renderWidth is the wrap width for rendered replies outside the TUI.
const renderWidth = 80

func (c *cli) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List uploaded PDFs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runList(cmd.Context(), cmd.OutOrStdout())
		},
	}
}

func (c *cli) runList(ctx context.Context, out io.Writer) error {
	list, err := c.client.ListPDFs(ctx)
	if err != nil {
		return fmt.Errorf("list PDFs: %w", err)
	}
	if len(list.PDFNames) == 0 {
		fmt.Fprintln(out, "No PDF uploaded.")
		return nil
	}
	for _, name := range list.PDFNames {
		if sum, ok := list.Summaries[name]; ok {
			fmt.Fprintf(out, "%s\t%d pages, %g KB\n", name, sum.Pages, sum.Size)
			continue
		}
		fmt.Fprintln(out, name)
	}
	return nil
}

func (c *cli) uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload <path>...",
		Short: "Upload PDFs (paths, globs or directories)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runUpload(cmd.Context(), cmd.OutOrStdout(), args)
		},
	}
}

func (c *cli) runUpload(ctx context.Context, out io.Writer, args []string) error {
	paths := app.ExpandPaths(args)
	if len(paths) == 0 {
		return api.ErrNoFiles
	}
	files, err := app.ReadFiles(paths)
	if err != nil {
		return err
	}
	list, err := c.client.Upload(ctx, files)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	c.log.Info("uploaded", zap.Int("files", len(files)), zap.Int("documents", len(list.PDFNames)))
	fmt.Fprintf(out, "Uploaded %d PDF(s); %d on the server.\n", len(files), len(list.PDFNames))
	return nil
}

func (c *cli) askCmd() *cobra.Command {
	var pdf string
	var raw bool
	cmd := &cobra.Command{
		Use:   "ask <question>...",
		Short: "Ask one question and print the reply",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runAsk(cmd.Context(), cmd.OutOrStdout(), pdf, strings.Join(args, " "), raw)
		},
	}
	cmd.Flags().StringVar(&pdf, "pdf", "", "document to ask about (default: the sole PDF, or all of them)")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the reply without markdown rendering")
	return cmd
}

func (c *cli) runAsk(ctx context.Context, out io.Writer, pdf, question string, raw bool) error {
	question = strings.TrimSpace(question)
	if question == "" {
		return errors.New("empty question")
	}
	target, err := c.resolveTarget(ctx, pdf)
	if err != nil {
		return err
	}
	reply, err := c.client.Chat(ctx, question, target)
	if err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	if !raw {
		reply = c.renderer().Render(reply)
	}
	fmt.Fprintln(out, reply)
	return nil
}

func (c *cli) historyCmd() *cobra.Command {
	var pdf string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the chat history for a PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runHistory(cmd.Context(), cmd.OutOrStdout(), pdf)
		},
	}
	cmd.Flags().StringVar(&pdf, "pdf", "", "document whose history to print (default: the sole PDF, or all of them)")
	return cmd
}

func (c *cli) runHistory(ctx context.Context, out io.Writer, pdf string) error {
	target, err := c.resolveTarget(ctx, pdf)
	if err != nil {
		return err
	}
	turns, err := c.client.History(ctx, target)
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}
	if len(turns) == 0 {
		fmt.Fprintln(out, session.NoticeStartChatting)
		return nil
	}
	for _, t := range turns {
		who := "assistant"
		if t.Role == "user" {
			who = "you"
		}
		fmt.Fprintf(out, "%s: %s\n", who, t.Content)
	}
	return nil
}

func (c *cli) removeCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove one uploaded PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("Remove %q?", name)) {
				return nil
			}
			return c.runRemove(cmd.Context(), cmd.OutOrStdout(), name)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (c *cli) runRemove(ctx context.Context, out io.Writer, name string) error {
	remaining, err := c.client.RemovePDF(ctx, name)
	if err != nil {
		return fmt.Errorf("remove %s: %w", name, err)
	}
	fmt.Fprintf(out, "Removed %s; %d left.\n", name, len(remaining))
	return nil
}

func (c *cli) removeAllCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "remove-all",
		Short: "Remove every uploaded PDF",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes && !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Remove ALL PDFs?") {
				return nil
			}
			return c.runRemoveAll(cmd.Context(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func (c *cli) runRemoveAll(ctx context.Context, out io.Writer) error {
	if _, err := c.client.RemoveAllPDFs(ctx); err != nil {
		return fmt.Errorf("remove all: %w", err)
	}
	fmt.Fprintln(out, "Removed all PDFs.")
	return nil
}

func (c *cli) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the server session: documents and histories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.client.Reset(cmd.Context()); err != nil {
				return fmt.Errorf("reset: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session reset.")
			return nil
		},
	}
}

// resolveTarget returns pdf when given, otherwise the default selection for
// the server's current document set.
func (c *cli) resolveTarget(ctx context.Context, pdf string) (string, error) {
	if pdf != "" {
		if pdf == "all" {
			return api.AllDocuments, nil
		}
		return pdf, nil
	}
	list, err := c.client.ListPDFs(ctx)
	if err != nil {
		return "", fmt.Errorf("list PDFs: %w", err)
	}
	target := session.DefaultSelection(list.PDFNames)
	if target == "" {
		return "", errNoDocuments
	}
	return target, nil
}

func (c *cli) renderer() *markdown.Renderer {
	dark, err := c.store.DarkMode()
	if err != nil {
		c.log.Debug("read dark mode", zap.Error(err))
	}
	return markdown.New(renderWidth, dark)
}

// confirm asks a yes/no question; anything but y or yes declines.
func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}
