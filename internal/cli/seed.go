package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	coupletstore "github.com/dalemusser/intikhab/internal/app/store/couplets"
	ghazalstore "github.com/dalemusser/intikhab/internal/app/store/ghazals"
	poetstore "github.com/dalemusser/intikhab/internal/app/store/poets"
	"github.com/dalemusser/intikhab/internal/domain/models"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Dataset is the seed file format.
type Dataset struct {
	Poets    []PoetRecord    `yaml:"poets"`
	Ghazals  []GhazalRecord  `yaml:"ghazals"`
	Couplets []CoupletRecord `yaml:"couplets"`
}

type PoetRecord struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Bio      string `yaml:"bio"`
	Verified bool   `yaml:"verified"`
}

type GhazalRecord struct {
	ID      string `yaml:"id"`
	Title   string `yaml:"title"`
	Poet    string `yaml:"poet"`
	Content string `yaml:"content"`
}

type CoupletRecord struct {
	ID       string `yaml:"id"`
	Content  string `yaml:"content"`
	Poet     string `yaml:"poet"`
	GhazalID string `yaml:"ghazal_id"`
}

// SeedResult counts inserted and updated documents per collection.
type SeedResult struct {
	Inserted map[string]int
	Updated  map[string]int
}

func (r SeedResult) add(coll string, inserted bool) {
	if inserted {
		r.Inserted[coll]++
	} else {
		r.Updated[coll]++
	}
}

// LoadDataset reads and validates a seed file.
func LoadDataset(path string) (Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, err
	}
	var ds Dataset
	if err := yaml.Unmarshal(raw, &ds); err != nil {
		return Dataset{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := ds.Validate(); err != nil {
		return Dataset{}, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Validate checks required fields and that ghazal references resolve within
// the file.
func (ds Dataset) Validate() error {
	var problems []string
	blank := func(s string) bool { return strings.TrimSpace(s) == "" }

	for i, p := range ds.Poets {
		if blank(p.ID) {
			problems = append(problems, fmt.Sprintf("poets[%d]: id is required", i))
		}
	}
	ghazals := make(map[string]bool, len(ds.Ghazals))
	for i, g := range ds.Ghazals {
		if blank(g.ID) || blank(g.Title) || blank(g.Poet) {
			problems = append(problems, fmt.Sprintf("ghazals[%d]: id, title and poet are required", i))
		}
		ghazals[g.ID] = true
	}
	for i, c := range ds.Couplets {
		if blank(c.ID) || blank(c.Content) || blank(c.Poet) {
			problems = append(problems, fmt.Sprintf("couplets[%d]: id, content and poet are required", i))
		}
		if c.GhazalID != "" && !ghazals[c.GhazalID] {
			problems = append(problems, fmt.Sprintf("couplets[%d]: unknown ghazal_id %q", i, c.GhazalID))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid dataset: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Seed upserts every record. Counters and follower sets are only
// initialised on insert, so reseeding never resets user activity.
func Seed(ctx context.Context, db *mongo.Database, ds Dataset, logger *zap.Logger) (SeedResult, error) {
	res := SeedResult{Inserted: map[string]int{}, Updated: map[string]int{}}
	poets := poetstore.New(db)
	ghazals := ghazalstore.New(db)
	couplets := coupletstore.New(db)

	for _, p := range ds.Poets {
		inserted, err := poets.Upsert(ctx, models.Poet{ID: p.ID, Name: p.Name, Bio: p.Bio, Verified: p.Verified})
		if err != nil {
			return res, fmt.Errorf("poet %s: %w", p.ID, err)
		}
		res.add("poets", inserted)
	}
	for _, g := range ds.Ghazals {
		inserted, err := ghazals.Upsert(ctx, models.Ghazal{ID: g.ID, Title: g.Title, Poet: g.Poet, Content: g.Content})
		if err != nil {
			return res, fmt.Errorf("ghazal %s: %w", g.ID, err)
		}
		res.add("ghazals", inserted)
	}
	for _, c := range ds.Couplets {
		inserted, err := couplets.Upsert(ctx, models.Couplet{ID: c.ID, Content: c.Content, Poet: c.Poet, GhazalID: c.GhazalID})
		if err != nil {
			return res, fmt.Errorf("couplet %s: %w", c.ID, err)
		}
		res.add("couplets", inserted)
	}

	logger.Info("seed complete",
		zap.Any("inserted", res.Inserted),
		zap.Any("updated", res.Updated))
	return res, nil
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed --file data.yaml",
		Short: "Upsert poets, ghazals and couplets from a YAML file",
		Long: `Upsert poets, ghazals and couplets from a YAML file.

Existing documents keep their counters, savers and followers; only the
seeded text fields are overwritten.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := LoadDataset(file)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			logger := rootOpts.logger()
			defer func() { _ = logger.Sync() }()

			db, closeDB, err := rootOpts.connect(ctx)
			if err != nil {
				return err
			}
			defer closeDB()

			res, err := Seed(ctx, db, ds, logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, coll := range []string{"poets", "ghazals", "couplets"} {
				fmt.Fprintf(out, "%-9s inserted=%d updated=%d\n", coll, res.Inserted[coll], res.Updated[coll])
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "seed file (YAML)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
