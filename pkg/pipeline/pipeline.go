package pipeline

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"landcover/pkg/classify"
	"landcover/pkg/config"
	"landcover/pkg/core"
	"landcover/pkg/data"
	"landcover/pkg/dataprep"
	"landcover/pkg/export"
	"landcover/pkg/extract"
	"landcover/pkg/ledger"
	"landcover/pkg/model"
	"landcover/pkg/raster"
	"landcover/pkg/stats"
	"landcover/pkg/vector"
)

// Summary reports what a training run produced.
type Summary struct {
	RunID    int64
	Samples  int
	Rows     int
	Skipped  []extract.Skipped
	Results  []model.Result
	Best     *model.Result
	Artifact *model.Artifact
	Outputs  []string
}

// Train runs the whole chain: load raster and samples, extract features,
// fit the scaler, train over the grid, keep the best model, save it and
// classify the training raster (and the optional second raster).
func Train(cfg *config.Config) (*Summary, error) {
	labels, err := cfg.LabelSet()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Resolve(cfg.OutputDir), 0o755); err != nil {
		return nil, err
	}

	r, err := openRaster(cfg.Resolve(cfg.RasterPath))
	if err != nil {
		return nil, err
	}

	vectorPath := cfg.Resolve(cfg.VectorPath)
	log.Printf("Loading samples %s", vectorPath)
	coll, err := vector.Load(vectorPath, cfg.ClassColumn, r)
	if err != nil {
		return nil, err
	}
	for name, n := range coll.Classes() {
		log.Printf("  %-18s %d samples", name, n)
	}
	samples := coll.Sample(cfg.SampleCount, cfg.Seed)
	log.Printf("Using %d of %d samples", len(samples), len(coll.Samples))

	ext, err := extract.Extract(r, samples, labels)
	if err != nil {
		return nil, err
	}
	for _, s := range ext.Skipped {
		log.Printf("Skipped %s", s)
	}
	if ext.Len() == 0 {
		return nil, extract.ErrEmpty
	}
	log.Printf("Extracted %d feature rows (%d samples skipped)", ext.Len(), len(ext.Skipped))

	sum := &Summary{Samples: len(samples), Rows: ext.Len(), Skipped: ext.Skipped}

	tablePath := cfg.Resolve(cfg.FeatureTablePath)
	if err := data.WriteCSV(tablePath, ext.X, ext.Codes, labels); err != nil {
		return nil, err
	}
	sum.Outputs = append(sum.Outputs, tablePath)

	if err := fit(cfg, labels, r, ext.X, ext.Codes, vectorPath, sum); err != nil {
		return nil, err
	}
	return sum, nil
}

// TrainFromTable retrains from the feature table a previous Train wrote,
// skipping polygon extraction. Useful for trying other grids or policies
// on the same samples.
func TrainFromTable(cfg *config.Config) (*Summary, error) {
	labels, err := cfg.LabelSet()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Resolve(cfg.OutputDir), 0o755); err != nil {
		return nil, err
	}

	tablePath := cfg.Resolve(cfg.FeatureTablePath)
	log.Printf("Loading feature table %s", tablePath)
	X, codes, err := data.ReadCSV(tablePath)
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return nil, extract.ErrEmpty
	}
	r, err := openRaster(cfg.Resolve(cfg.RasterPath))
	if err != nil {
		return nil, err
	}
	if X.C != r.Bands {
		return nil, fmt.Errorf("feature table has %d bands, raster has %d", X.C, r.Bands)
	}
	log.Printf("Loaded %d feature rows", len(codes))

	sum := &Summary{Rows: len(codes)}
	if err := fit(cfg, labels, r, X, codes, tablePath, sum); err != nil {
		return nil, err
	}
	return sum, nil
}

func openRaster(path string) (*raster.Raster, error) {
	log.Printf("Loading raster %s", path)
	r, err := raster.Open(path)
	if err != nil {
		return nil, err
	}
	log.Printf("Raster: %d rows x %d cols x %d bands", r.Height, r.Width, r.Bands)
	return r, nil
}

// fit standardizes the raw features, trains over the grid, records every
// result in the ledger, saves the best model and classifies r with it.
func fit(cfg *config.Config, labels *dataprep.LabelSet, r *raster.Raster, raw *core.Matrix, codes []int, source string, sum *Summary) error {
	policy, err := model.PolicyByName(cfg.Selection)
	if err != nil {
		return err
	}

	sigPath := cfg.Resolve(cfg.SignatureChartPath)
	if err := export.SignatureChart(sigPath, stats.ClassSignatures(raw, codes), labels); err != nil {
		return err
	}
	sum.Outputs = append(sum.Outputs, sigPath)

	scaler := stats.NewStandardScaler()
	X, err := scaler.FitTransform(raw)
	if err != nil {
		return err
	}
	// label-set positions; the loss treats them as one-hot rows
	y, err := labels.Indices(codes)
	if err != nil {
		return err
	}
	ds := model.Dataset{X: X, Y: y}

	led, err := ledger.Open(cfg.Resolve(cfg.LedgerPath))
	if err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	defer led.Close()
	sum.RunID, err = led.StartRun(ledger.Run{
		RasterPath: cfg.Resolve(cfg.RasterPath),
		VectorPath: source,
		Mode:       cfg.Mode,
		Policy:     policy.Name(),
		Samples:    sum.Samples,
		Rows:       sum.Rows,
		Skipped:    len(sum.Skipped),
		StartedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("ledger: %w", err)
	}

	var ledgerErr error
	hook := func(res model.Result) {
		log.Printf("kernel=%d lr=%g fold=%d val_acc=%.4f val_loss=%.4f",
			res.Kernel, res.LearningRate, res.Fold, res.Score.ValAccuracy, res.Score.ValLoss)
		if _, err := led.RecordFold(sum.RunID, res); err != nil && ledgerErr == nil {
			ledgerErr = err
		}
	}

	base := model.TrainConfig{
		Epochs:    cfg.Epochs,
		BatchSize: cfg.BatchSize,
		Optimizer: cfg.Optimizer,
		Dropout:   cfg.Dropout,
		Seed:      cfg.Seed,
	}
	grid := model.GridConfig{Kernels: cfg.KernelSizes, LearningRates: cfg.LearningRates, Folds: cfg.Folds}
	if cfg.Mode == "kfold" {
		sum.Best, sum.Results, err = model.Grid(ds, labels.Len(), base, grid, policy, hook)
	} else {
		sum.Best, sum.Results, err = splitGrid(ds, labels.Len(), base, grid, cfg, policy, hook)
	}
	if err != nil {
		return err
	}
	if ledgerErr != nil {
		return fmt.Errorf("ledger: %w", ledgerErr)
	}
	if err := led.MarkSelected(sum.RunID, *sum.Best); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	log.Printf("Selected kernel=%d lr=%g fold=%d by %s (val_acc=%.4f val_loss=%.4f)",
		sum.Best.Kernel, sum.Best.LearningRate, sum.Best.Fold, policy.Name(),
		sum.Best.Score.ValAccuracy, sum.Best.Score.ValLoss)
	log.Printf("Validation report:\n%s", model.Report(sum.Best.Confusion, labels.Names()))

	histPath := cfg.Resolve(cfg.HistoryChartPath)
	title := fmt.Sprintf("kernel %d, lr %g, fold %d", sum.Best.Kernel, sum.Best.LearningRate, sum.Best.Fold)
	if err := export.HistoryChart(histPath, title, sum.Best.History); err != nil {
		return err
	}
	sum.Outputs = append(sum.Outputs, histPath)

	sum.Artifact, err = model.NewArtifact(sum.Best, scaler, labels)
	if err != nil {
		return err
	}
	modelPath := cfg.Resolve(cfg.ModelPath)
	if err := sum.Artifact.Save(modelPath); err != nil {
		return err
	}
	log.Printf("Saved model to %s", modelPath)
	sum.Outputs = append(sum.Outputs, modelPath)

	outs, err := classifyAndExport(cfg, sum.Artifact, r, cfg.Resolve(cfg.LabelRasterPath), cfg.Resolve(cfg.LegendImagePath))
	if err != nil {
		return err
	}
	sum.Outputs = append(sum.Outputs, outs...)

	if cfg.ClassifyRasterPath != "" {
		outs, err := Classify(cfg, modelPath, cfg.Resolve(cfg.ClassifyRasterPath))
		if err != nil {
			return err
		}
		sum.Outputs = append(sum.Outputs, outs...)
	}
	return nil
}

// splitGrid trains one hold-out model per grid point and keeps the best.
func splitGrid(ds model.Dataset, classes int, base model.TrainConfig, grid model.GridConfig, cfg *config.Config, policy model.Policy, hook model.FoldHook) (*model.Result, []model.Result, error) {
	var best *model.Result
	var all []model.Result
	for _, k := range grid.Kernels {
		for _, lr := range grid.LearningRates {
			tc := base
			tc.Kernel, tc.LearningRate = k, lr
			res, err := model.TrainSplit(ds, classes, tc, cfg.ValidationFraction, cfg.Stratified)
			if err != nil {
				return nil, nil, fmt.Errorf("kernel %d, lr %g: %w", k, lr, err)
			}
			hook(*res)
			if best == nil || policy.Better(res.Score, best.Score) {
				best = res
			}
			kept := *res
			kept.Network = nil
			all = append(all, kept)
		}
	}
	return best, all, nil
}

// Classify applies a saved model, with its stored scaler, to another raster
// and writes the label raster and legend image next to the configured
// outputs, suffixed with the raster's base name.
func Classify(cfg *config.Config, modelPath, rasterPath string) ([]string, error) {
	art, err := model.LoadArtifact(modelPath)
	if err != nil {
		return nil, err
	}
	log.Printf("Loading raster %s", rasterPath)
	r, err := raster.Open(rasterPath)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(rasterPath), filepath.Ext(rasterPath))
	return classifyAndExport(cfg, art, r,
		suffixed(cfg.Resolve(cfg.LabelRasterPath), name),
		suffixed(cfg.Resolve(cfg.LegendImagePath), name))
}

func classifyAndExport(cfg *config.Config, art *model.Artifact, r *raster.Raster, labelPath, legendPath string) ([]string, error) {
	if r.Bands != art.Bands {
		return nil, fmt.Errorf("raster has %d bands, model was trained on %d", r.Bands, art.Bands)
	}
	net, err := art.Restore()
	if err != nil {
		return nil, err
	}
	nodata := cfg.NoDataByte()
	if nodata != nil {
		if _, err := art.Labels.IndexOfCode(int(*nodata)); err == nil {
			return nil, errors.New("nodata collides with a class code of the model")
		}
	}

	log.Printf("Classifying %d pixels in batches of %d", r.Height*r.Width, cfg.PredictBatchSize)
	grid, err := classify.Raster(r, net, &art.Scaler, &art.Labels, classify.Options{
		BatchSize: cfg.PredictBatchSize,
		NoData:    nodata,
	})
	if err != nil {
		return nil, err
	}
	logHistogram(grid, &art.Labels)

	if err := os.MkdirAll(filepath.Dir(labelPath), 0o755); err != nil {
		return nil, err
	}
	if err := raster.WriteLabels(labelPath, grid, r, nodata); err != nil {
		return nil, err
	}
	if err := export.LegendImage(legendPath, "Classified "+filepath.Base(labelPath), grid, &art.Labels); err != nil {
		return nil, err
	}
	log.Printf("Wrote %s and %s", labelPath, legendPath)
	return []string{labelPath, legendPath}, nil
}

func logHistogram(grid *raster.LabelGrid, labels *dataprep.LabelSet) {
	counts := classify.Histogram(grid)
	total := float64(len(grid.Codes))
	for _, c := range labels.Classes {
		n := counts[uint8(c.Code)]
		log.Printf("  %-18s %9d px (%5.1f%%)", c.Name, n, 100*float64(n)/total)
	}
}

func suffixed(path, name string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + name + ext
}
