package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/confusedbuffalo/phone-report/internal/model"
	"github.com/confusedbuffalo/phone-report/internal/safeedit"
	"github.com/confusedbuffalo/phone-report/internal/store"
	"github.com/confusedbuffalo/phone-report/internal/upload"
	"github.com/confusedbuffalo/phone-report/pkg/osm"
)

var (
	uploadSubdivision string
	uploadReportsDir  string
	uploadConcurrency int
	uploadDryRun      bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload",
	Short: "Extract safe edits from reports and upload changesets",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if uploadReportsDir != "" {
			cfg.Reports.Dir = uploadReportsDir
		}

		validator, err := buildValidator()
		if err != nil {
			return err
		}
		classifier := safeedit.NewClassifier(validator)

		bundles, err := collectBundles(classifier)
		if err != nil {
			return err
		}
		if len(bundles) == 0 {
			fmt.Println("no safe edits to upload")
			return nil
		}

		client := osm.NewClient(
			osm.WithBaseURL(cfg.OSM.APIURL),
			osm.WithToken(cfg.OSM.Token),
			osm.WithRateLimit(cfg.OSM.RateLimit),
		)
		concurrency := cfg.Upload.Concurrency
		if uploadConcurrency > 0 {
			concurrency = uploadConcurrency
		}
		uploader := upload.New(client, cfg.Reports.BaseURL, concurrency, uploadDryRun || cfg.Upload.DryRun)

		results := uploader.UploadAll(ctx, bundles)

		failed := 0
		for _, res := range results {
			if res.Err != nil {
				failed++
				fmt.Printf("%s: FAILED: %v\n", res.Subdivision, res.Err)
				continue
			}
			fmt.Printf("%s: %d features uploaded, %d stale skipped", res.Subdivision, res.Uploaded, res.Skipped)
			if res.ChangesetID != 0 {
				fmt.Printf(" (changeset %d)", res.ChangesetID)
				recordChangeset(ctx, res.Subdivision, res.ChangesetID)
			}
			fmt.Println()
		}
		if failed > 0 {
			return eris.Errorf("upload: %d of %d subdivisions failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	uploadCmd.Flags().StringVar(&uploadSubdivision, "subdivision", "", "only upload this subdivision's report")
	uploadCmd.Flags().StringVar(&uploadReportsDir, "reports", "", "reports directory (default: config)")
	uploadCmd.Flags().IntVar(&uploadConcurrency, "concurrency", 0, "concurrent subdivision uploads (default: config)")
	uploadCmd.Flags().BoolVar(&uploadDryRun, "dry-run", false, "resolve edits but submit nothing")
	rootCmd.AddCommand(uploadCmd)
}

// collectBundles builds one SafeEditBundle per report file and writes it
// alongside the report for review.
func collectBundles(classifier *safeedit.Classifier) ([]model.SafeEditBundle, error) {
	entries, err := os.ReadDir(cfg.Reports.Dir)
	if err != nil {
		return nil, eris.Wrap(err, "upload: read reports dir")
	}

	var bundles []model.SafeEditBundle
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".safe.json") {
			continue
		}
		subdivision := strings.TrimSuffix(name, ".json")
		if uploadSubdivision != "" && subdivision != uploadSubdivision {
			continue
		}
		country := countryFromSubdivision(subdivision)
		if country == "" {
			zap.L().Warn("skipping report with unrecognized name", zap.String("file", name))
			continue
		}

		records, err := safeedit.ReadRecords(filepath.Join(cfg.Reports.Dir, name))
		if err != nil {
			return nil, err
		}
		bundle := classifier.ExtractBundle(records, country, subdivision, country)
		if err := writeBundle(bundle, subdivision); err != nil {
			return nil, err
		}
		if bundle.TotalSafeEdits > 0 {
			bundles = append(bundles, *bundle)
		}
	}
	return bundles, nil
}

func writeBundle(bundle *model.SafeEditBundle, subdivision string) error {
	data, err := json.MarshalIndent(bundle, "", "  ")
	if err != nil {
		return eris.Wrap(err, "upload: marshal bundle")
	}
	path := filepath.Join(cfg.Reports.Dir, subdivision+".safe.json")
	return eris.Wrap(os.WriteFile(path, data, 0o644), "upload: write bundle")
}

func recordChangeset(ctx context.Context, subdivision string, changesetID int64) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		zap.L().Warn("run history unavailable", zap.Error(err))
		return
	}
	defer st.Close() //nolint:errcheck
	if err := st.Migrate(ctx); err != nil {
		zap.L().Warn("run history migrate failed", zap.Error(err))
		return
	}
	if err := st.SetChangeset(ctx, subdivision, changesetID); err != nil {
		zap.L().Warn("run history update failed", zap.Error(err))
	}
}
