package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/confusedbuffalo/phone-report/internal/model"
	"github.com/confusedbuffalo/phone-report/internal/phone"
	"github.com/confusedbuffalo/phone-report/internal/reconcile"
	"github.com/confusedbuffalo/phone-report/internal/safeedit"
	"github.com/confusedbuffalo/phone-report/internal/store"
	"github.com/confusedbuffalo/phone-report/internal/stream"
	"github.com/confusedbuffalo/phone-report/pkg/overpass"
)

var (
	validateSubdivision string
	validateCountry     string
	validateInput       string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate one subdivision's phone tags and write a report",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		country := validateCountry
		if country == "" {
			country = countryFromSubdivision(validateSubdivision)
		}
		if country == "" {
			return eris.New("validate: cannot derive country, pass --country")
		}

		validator, err := buildValidator()
		if err != nil {
			return err
		}
		classifier := safeedit.NewClassifier(validator)
		processor := stream.NewProcessor(reconcile.New(validator), classifier)

		if err := os.MkdirAll(cfg.Reports.Dir, 0o755); err != nil {
			return eris.Wrap(err, "validate: create reports dir")
		}
		reportPath := filepath.Join(cfg.Reports.Dir, validateSubdivision+".json")
		out, err := os.Create(reportPath)
		if err != nil {
			return eris.Wrap(err, "validate: create report")
		}
		defer out.Close() //nolint:errcheck

		features, errc := featureSource(ctx, validator.Rules())

		started := time.Now().UTC()
		writer := stream.NewArrayWriter(out)
		stats, runErr := processor.Run(ctx, features, country, writer)
		if runErr == nil {
			runErr = writer.Close()
		}
		if runErr == nil {
			runErr = <-errc
		}
		if runErr != nil {
			return eris.Wrap(runErr, "validate: "+validateSubdivision)
		}

		saveRun(ctx, store.Run{
			Subdivision: validateSubdivision,
			Country:     country,
			StartedAt:   started,
			FinishedAt:  time.Now().UTC(),
			Stats:       *stats,
			BBox:        processor.BBox(),
		})

		fmt.Printf("%s: %d numbers checked, %d invalid features (%d auto-fixable, %d safe edits)\n",
			validateSubdivision, stats.TotalNumbers, stats.InvalidCount,
			stats.AutoFixableCount, stats.SafeEditCount)
		fmt.Printf("report written to %s\n", reportPath)
		return nil
	},
}

func init() {
	validateCmd.Flags().StringVar(&validateSubdivision, "subdivision", "", "ISO 3166-2 subdivision code (e.g. GB-ENG)")
	validateCmd.Flags().StringVar(&validateCountry, "country", "", "ISO country code (default: subdivision prefix)")
	validateCmd.Flags().StringVar(&validateInput, "input", "", "read features from a newline-delimited JSON file instead of Overpass")
	_ = validateCmd.MarkFlagRequired("subdivision")
	rootCmd.AddCommand(validateCmd)
}

// buildValidator wires the validator from the configured rule tables.
func buildValidator() (*phone.Validator, error) {
	rules := phone.DefaultRules()
	if cfg.Validator.RulesFile != "" {
		loaded, err := phone.LoadRules(cfg.Validator.RulesFile)
		if err != nil {
			return nil, eris.Wrap(err, "load rules")
		}
		rules = loaded
	}
	return phone.NewValidator(phone.NewParser(), rules), nil
}

// featureSource streams features from the configured source: an NDJSON file
// when --input is set, the Overpass endpoint otherwise.
func featureSource(ctx context.Context, rules *phone.Rules) (<-chan model.Feature, <-chan error) {
	if validateInput != "" {
		return fileSource(ctx, validateInput)
	}

	client := overpass.NewClient(overpass.WithBaseURL(cfg.Overpass.URL))
	elements, errc := client.Stream(ctx, validateSubdivision, rules.KnownFields())

	features := make(chan model.Feature)
	go func() {
		defer close(features)
		for e := range elements {
			f := model.Feature{
				Type: model.FeatureType(e.Type),
				ID:   e.ID,
				Lat:  e.Lat,
				Lon:  e.Lon,
				Tags: e.Tags,
			}
			if e.Center != nil {
				f.Lat, f.Lon = e.Center.Lat, e.Center.Lon
			}
			select {
			case features <- f:
			case <-ctx.Done():
				return
			}
		}
	}()
	return features, errc
}

// fileSource reads one feature per line, mainly for tests and reruns.
func fileSource(ctx context.Context, path string) (<-chan model.Feature, <-chan error) {
	features := make(chan model.Feature)
	errc := make(chan error, 1)

	go func() {
		defer close(features)
		defer close(errc)

		f, err := os.Open(path)
		if err != nil {
			errc <- eris.Wrap(err, "open input")
			return
		}
		defer f.Close() //nolint:errcheck

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 1024*1024), 1024*1024)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			var feature model.Feature
			if err := json.Unmarshal([]byte(line), &feature); err != nil {
				errc <- eris.Wrap(err, "decode feature")
				return
			}
			select {
			case features <- feature:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errc <- eris.Wrap(err, "read input")
		}
	}()
	return features, errc
}

// countryFromSubdivision derives "GB" from "GB-ENG".
func countryFromSubdivision(sub string) string {
	if i := strings.Index(sub, "-"); i > 0 {
		return sub[:i]
	}
	return ""
}

// saveRun records the pass in the run history. Store failures are logged,
// never fatal: the JSON report is the source of truth.
func saveRun(ctx context.Context, run store.Run) {
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
	if err := st.SaveRun(ctx, run); err != nil {
		zap.L().Warn("run history save failed", zap.Error(err))
	}
}
