// Package pipeline orchestrates one end-to-end run: fetch raw
// listings, normalize, enrich, filter, segment, persist the datasets,
// train the candidate models and export the winning artifact pair.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"especulai/internal/artifacts"
	"especulai/internal/config"
	"especulai/internal/encoder"
	"especulai/internal/enrichment"
	"especulai/internal/logger"
	"especulai/internal/models"
	"especulai/internal/normalizer"
	"especulai/internal/quality"
	"especulai/internal/report"
	"especulai/internal/segmenter"
	"especulai/internal/storage"
	"especulai/internal/trainer"
)

// ErrPrimarySegmentTooSmall means the preferred training segment fell
// below the minimum row threshold. No artifact is exported; the
// previously published model keeps serving.
var ErrPrimarySegmentTooSmall = errors.New("pipeline: primary segment below minimum row threshold")

// Summary reports what one run did at each stage boundary.
type Summary struct {
	RunID           string
	RunDir          string
	Fetched         int
	Normalized      int
	Rejected        map[normalizer.Reason]int
	Kept            int
	Dropped         map[quality.DropReason]int
	Segments        []string
	Trained         []models.MetricsRecord
	PrimarySegment  string
	ArtifactVersion string
}

// Pipeline runs the batch estimation flow described by one config.
type Pipeline struct {
	cfg *config.Config
	log *logger.Logger
}

// New creates a pipeline.
func New(cfg *config.Config, log *logger.Logger) *Pipeline {
	return &Pipeline{cfg: cfg, log: log}
}

// Run executes every stage in order. Stage boundaries are strict: a
// stage only sees the completed output of the previous one.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{RunID: uuid.NewString()}
	log := p.log.With("run_id", summary.RunID)

	source, err := p.openSource()
	if err != nil {
		return nil, err
	}
	defer source.Close()

	raws, err := source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("pipeline: fetch raw listings: %w", err)
	}

	summary.Fetched = len(raws)
	log.Info("raw listings fetched", "count", len(raws))

	normalized := normalizer.NewProcessor(p.cfg.Training.PropertyTypes).Process(raws)
	summary.Normalized = len(normalized.Listings)
	summary.Rejected = normalized.Rejected
	log.Info("normalization finished",
		"accepted", len(normalized.Listings),
		"rejected", normalized.RejectedTotal())

	index, err := enrichment.LoadEconomicIndex(p.cfg.Enrichment.IndexPath)
	if err != nil {
		return nil, fmt.Errorf("pipeline: load economic index: %w", err)
	}

	joiner := enrichment.NewJoiner(index, p.cfg.Enrichment.GeoBuckets)
	enriched := joiner.Enrich(normalized.Listings)
	log.Info("enrichment finished", "rows", len(enriched), "index_cities", index.Cities())

	filtered, err := quality.NewFilter(p.cfg.Quality.IQRMultiplier).Apply(enriched)
	if err != nil {
		return nil, fmt.Errorf("pipeline: quality filter: %w", err)
	}

	summary.Kept = len(filtered.Rows)
	summary.Dropped = filtered.Dropped
	log.Info("quality filter finished",
		"kept", len(filtered.Rows),
		"dropped", filtered.DroppedTotal())

	segmentation, err := segmenter.New(p.cfg.Training.PreferredSource).Split(filtered.Rows)
	if err != nil {
		return nil, fmt.Errorf("pipeline: segment: %w", err)
	}

	summary.PrimarySegment = segmentation.PrimaryName
	summary.Segments = segmentation.Names()

	runDir, err := storage.NewRunDir(p.cfg.Output.DataDir)
	if err != nil {
		return nil, err
	}

	summary.RunDir = runDir

	for _, name := range segmentation.Names() {
		if _, err := storage.WriteDataset(runDir, segmentation.Datasets[name]); err != nil {
			return nil, err
		}
	}

	log.Info("datasets persisted", "dir", runDir, "segments", len(summary.Segments))

	if err := p.train(segmentation, index, summary, log); err != nil {
		return nil, err
	}

	if len(summary.Trained) > 0 && p.cfg.Output.MetricsLog != "" {
		if err := report.NewLog(p.cfg.Output.MetricsLog).Append(summary.Trained); err != nil {
			return nil, err
		}
	}

	return summary, nil
}

func (p *Pipeline) openSource() (storage.RawSource, error) {
	switch p.cfg.Input.Kind {
	case "postgres":
		src, err := storage.NewPostgresSource(p.cfg.Input.PostgresDSN, p.cfg.Input.PostgresTable)
		if err != nil {
			return nil, err
		}

		return src, nil
	default:
		src, err := storage.NewCSVSource(p.cfg.Input.CSVPath)
		if err != nil {
			return nil, err
		}

		return src, nil
	}
}

// train fits every segment that clears the row threshold, records its
// winner's metrics, and exports an artifact pair for the primary
// segment only.
func (p *Pipeline) train(segmentation *segmenter.Segmentation, index *enrichment.EconomicIndex, summary *Summary, log *logger.Logger) error {
	primary := segmentation.Primary()
	if primary.Len() < p.cfg.Training.MinSegmentRows {
		return fmt.Errorf("%w: %s has %d rows, need %d",
			ErrPrimarySegmentTooSmall, primary.Name(), primary.Len(), p.cfg.Training.MinSegmentRows)
	}

	// The latest sale reference per city is frozen into the
	// preprocessor so the serving side reproduces enrichment without
	// the index file.
	indexReference := index.LatestByCity(models.BusinessSale)
	tr := trainer.New(p.cfg.Training.HoldoutRatio, p.cfg.Training.Seed, p.cfg.Training.Candidates)

	for _, name := range segmentation.Names() {
		ds := segmentation.Datasets[name]

		if ds.Len() < p.cfg.Training.MinSegmentRows {
			log.Debug("segment skipped for training", "segment", name, "rows", ds.Len())

			continue
		}

		prep, matrix, target, err := encoder.Fit(ds, indexReference, p.cfg.Enrichment.GeoBuckets)
		if err != nil {
			return fmt.Errorf("pipeline: encode %s: %w", name, err)
		}

		result, err := tr.Train(matrix, target)
		if err != nil {
			return fmt.Errorf("pipeline: train %s: %w", name, err)
		}

		winner := result.Winner()
		summary.Trained = append(summary.Trained, models.MetricsRecord{
			Segment:   name,
			Model:     winner.Config.Name,
			MAE:       winner.TestMetrics.MAE,
			RMSE:      winner.TestMetrics.RMSE,
			R2:        winner.TestMetrics.R2,
			RowCount:  ds.Len(),
			Timestamp: time.Now().UTC(),
		})

		log.Info("segment trained",
			"segment", name,
			"model", winner.Config.Name,
			"mae", winner.TestMetrics.MAE,
			"rmse", winner.TestMetrics.RMSE)

		if name != segmentation.PrimaryName {
			continue
		}

		artifact := trainer.Export(result, prep, p.cfg.ConfidenceThresholds())

		version, err := artifacts.NewStore(p.cfg.Output.ArtifactDir).Export(prep, artifact)
		if err != nil {
			return fmt.Errorf("pipeline: export artifacts: %w", err)
		}

		summary.ArtifactVersion = version
		log.Info("artifact pair published", "version", version, "segment", name)

		if err := writeDataDictionary(summary.RunDir, prep); err != nil {
			return err
		}
	}

	return nil
}

// writeDataDictionary describes the encoded columns of the primary
// training dataset for whoever audits a run.
func writeDataDictionary(runDir string, prep *encoder.Preprocessor) error {
	names := prep.FeatureNames()
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	var b []byte
	b = append(b, "dicionario de dados do dataset de treino\n"...)
	b = append(b, fmt.Sprintf("segmento: %s\n", prep.FittedOn)...)
	b = append(b, fmt.Sprintf("linhas: %d\n", prep.RowCount)...)
	b = append(b, "alvo: valor_anuncio (preco de venda anunciado, R$)\n\n"...)
	b = append(b, "colunas codificadas:\n"...)

	for _, name := range sorted {
		b = append(b, "  - "+name+"\n"...)
	}

	path := filepath.Join(runDir, "dicionario_dados.txt")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("pipeline: write data dictionary: %w", err)
	}

	return nil
}
