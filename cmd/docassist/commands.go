package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/document-assistant/internal/app"
	"github.com/joseph-ayodele/document-assistant/internal/common"
	"github.com/joseph-ayodele/document-assistant/internal/ingest"
	"github.com/joseph-ayodele/document-assistant/internal/repository"
	"github.com/joseph-ayodele/document-assistant/internal/repository/migrations"
	"github.com/joseph-ayodele/document-assistant/internal/server"
)

var processCmd = &cobra.Command{
	Use:   "process <file>",
	Short: "Process a single document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		out, err := a.Processor.ProcessFile(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		id, _ := out.DocumentID()
		label := ""
		if c := out.Classification(); c != nil {
			label = string(c.Label)
		}
		fmt.Printf("document_id=%d outcome=%s label=%s\n", id, out.Outcome(), label)
		return nil
	},
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Process every supported file under a directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, _ := cmd.Flags().GetString("dir")
		workers, _ := cmd.Flags().GetInt("workers")
		hidden, _ := cmd.Flags().GetBool("include-hidden")

		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()
		if dir == "" {
			dir = a.Config.Paths.InboxDir
		}

		results, stats, err := ingest.NewIngester(a.Processor, a.Logger).IngestDirectory(cmd.Context(), dir, ingest.Options{
			SkipHidden: !hidden,
			Workers:    workers,
		})
		if err != nil {
			return err
		}
		for _, r := range results {
			if r.Err != nil {
				fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", r.Path, r.Err)
			}
		}
		fmt.Printf("scanned=%d matched=%d succeeded=%d deduplicated=%d failed=%d\n",
			stats.Scanned, stats.Matched, stats.Succeeded, stats.Deduplicated, stats.Failed)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored documents",
	RunE: func(cmd *cobra.Command, args []string) error {
		label, _ := cmd.Flags().GetString("label")
		limit, _ := cmd.Flags().GetInt("limit")
		offset, _ := cmd.Flags().GetInt("offset")

		a, err := newApp(cmd.Context(), app.ReadOnly())
		if err != nil {
			return err
		}
		defer a.Close()

		page, err := a.Documents.List(cmd.Context(), repository.ListFilter{
			Label: label,
			Page:  repository.PageQuery{Limit: limit, Offset: offset},
		})
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tLABEL\tCONFIDENCE\tPROCESSED\tPATH")
		for _, d := range page.Items {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", d.ID, d.ClassificationLabel, d.ConfidenceLevel,
				d.ProcessedAt.Format(time.RFC3339), d.CurrentPath())
		}
		if err := w.Flush(); err != nil {
			return err
		}
		fmt.Printf("%d of %d\n", len(page.Items), page.Total)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a document with its extraction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), app.ReadOnly())
		if err != nil {
			return err
		}
		defer a.Close()

		detail, err := a.Extractions.Detail(cmd.Context(), id)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(detail)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a document and its extraction",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context(), app.ReadOnly())
		if err != nil {
			return err
		}
		defer a.Close()

		deleted, err := a.Documents.Delete(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !deleted {
			return common.NewNotFoundError(fmt.Sprintf("document %d", id))
		}
		fmt.Printf("deleted document %d\n", id)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored documents to an XLSX workbook",
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")
		label, _ := cmd.Flags().GetString("label")

		a, err := newApp(cmd.Context(), app.ReadOnly())
		if err != nil {
			return err
		}
		defer a.Close()

		data, err := a.Export.DocumentsXLSX(cmd.Context(), label)
		if err != nil {
			return err
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return common.NewFileWriteError(out, err)
		}
		fmt.Printf("wrote %s (%d bytes)\n", out, len(data))
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := common.LoadConfig()
		logger := app.NewLogger(cfg.LogLevel)

		db, err := server.ConnectDB(cmd.Context(), cfg.Database, logger)
		if err != nil {
			return err
		}
		defer server.CloseDB(db, logger)

		if err := migrations.MigrateUp(db.SQL(), db.Dialect()); err != nil {
			return common.NewDatabaseError("apply migrations", err)
		}
		latest, err := migrations.LatestVersion(db.Dialect())
		if err != nil {
			return err
		}
		fmt.Printf("database at version %d\n", latest)
		return nil
	},
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, common.NewAppError(common.CodeValidation, fmt.Sprintf("invalid document id %q", s), common.ErrValidation)
	}
	return id, nil
}

func init() {
	batchCmd.Flags().String("dir", "", "directory to ingest (default INBOX_DIR)")
	batchCmd.Flags().Int("workers", 1, "files processed concurrently")
	batchCmd.Flags().Bool("include-hidden", false, "also process hidden files")

	listCmd.Flags().String("label", "", "only documents with this label")
	listCmd.Flags().Int("limit", 50, "page size")
	listCmd.Flags().Int("offset", 0, "rows to skip")

	exportCmd.Flags().String("out", "documents.xlsx", "output workbook path")
	exportCmd.Flags().String("label", "", "only documents with this label")
}
