package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/portfolio-generator/internal/db"
	"github.com/jonathan/portfolio-generator/internal/types"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Connect a source to a user",
	Long: `Parses a resume or LinkedIn export and stores the normalized facts as the user's connected source, replacing any previous upload of the same kind. A file that fails to parse is rejected and nothing is stored.

With --kind github, connects the GitHub account named by --github-user instead.`,
	RunE: runIngest,
}

var (
	ingestFlags configFlags
	ingestKind  string
	ingestFile  string
)

func init() {
	ingestFlags.bind(ingestCmd, flagsIdentity|flagsBackends)
	ingestCmd.Flags().StringVarP(&ingestKind, "kind", "k", "", "Source kind: resume, linkedin or github (required)")
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "Document to parse (resume and linkedin)")
	ingestCmd.Flags().StringVar(&ingestFlags.values.GitHubUser, "github-user", "", "GitHub login (github)")
	ingestCmd.Flags().StringVar(&ingestFlags.values.GitHubToken, "github-token", "", "GitHub token (github, optional)")

	_ = ingestCmd.MarkFlagRequired("kind")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := ingestFlags.resolve(cmd)
	if err != nil {
		return err
	}
	if cfg.UserID == "" {
		return fmt.Errorf("--user-id is required (via flag or config)")
	}
	userID := uuid.MustParse(cfg.UserID)

	// Parse before connecting so a bad file never touches the database
	var doc *types.DocumentSource
	switch kind := types.SourceKind(ingestKind); kind {
	case types.SourceKindResume, types.SourceKindLinkedIn:
		if ingestFile == "" {
			return fmt.Errorf("--file is required for --kind %s", kind)
		}
		if doc, err = parseDocument(kind, ingestFile); err != nil {
			return err
		}
		doc.UploadedAt = time.Now()
	case types.SourceKindGitHub:
		if cfg.GitHubUser == "" {
			return fmt.Errorf("--github-user is required for --kind github")
		}
	default:
		return fmt.Errorf("unknown --kind %q (want resume, linkedin or github)", ingestKind)
	}

	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if doc != nil {
		err = database.SaveDocumentSource(ctx, userID, doc)
	} else {
		err = database.SaveGitHubSource(ctx, userID, &types.GitHubSource{
			Username:    cfg.GitHubUser,
			AccessToken: cfg.GitHubToken,
			ConnectedAt: time.Now(),
		})
	}
	if err != nil {
		return fmt.Errorf("failed to store %s source: %w", ingestKind, err)
	}

	fmt.Fprintf(os.Stdout, "Connected %s source for user %s\n", ingestKind, userID)
	return nil
}
