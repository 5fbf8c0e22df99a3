package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"landcover/pkg/config"
	"landcover/pkg/ledger"
	"landcover/pkg/pipeline"
)

func usage() {
	fmt.Fprintf(os.Stderr, `usage:
  landcover train    -config cfg.yaml
  landcover retrain  -config cfg.yaml
  landcover classify -config cfg.yaml -model model.json -raster image.tif
  landcover runs     -config cfg.yaml
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "train":
		runTrain("train", pipeline.Train, os.Args[2:])
	case "retrain":
		runTrain("retrain", pipeline.TrainFromTable, os.Args[2:])
	case "runs":
		runRuns(os.Args[2:])
	case "classify":
		runClassify(os.Args[2:])
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
}

func runTrain(name string, train func(*config.Config) (*pipeline.Summary, error), args []string) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (falls back to CONFIG_PATH)")
	_ = fs.Parse(args)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	sum, err := train(cfg)
	if err != nil {
		log.Fatalf("Training failed: %v", err)
	}

	fmt.Printf("Run %d: %d samples, %d feature rows, %d skipped, %d models trained\n",
		sum.RunID, sum.Samples, sum.Rows, len(sum.Skipped), len(sum.Results))
	fmt.Printf("Best: kernel=%d lr=%g val_acc=%.4f\n",
		sum.Best.Kernel, sum.Best.LearningRate, sum.Best.Score.ValAccuracy)
	for _, p := range sum.Outputs {
		fmt.Println("  wrote", p)
	}
}

func runClassify(args []string) {
	fs := flag.NewFlagSet("classify", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (falls back to CONFIG_PATH)")
	modelPath := fs.String("model", "", "Saved model artifact (defaults to model_path from config)")
	rasterPath := fs.String("raster", "", "Raster to classify (defaults to classify_raster_path from config)")
	_ = fs.Parse(args)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	if *modelPath == "" {
		*modelPath = cfg.Resolve(cfg.ModelPath)
	}
	if *rasterPath == "" {
		if cfg.ClassifyRasterPath == "" {
			log.Fatalf("No raster given: pass -raster or set classify_raster_path")
		}
		*rasterPath = cfg.Resolve(cfg.ClassifyRasterPath)
	}

	outs, err := pipeline.Classify(cfg, *modelPath, *rasterPath)
	if err != nil {
		log.Fatalf("Classification failed: %v", err)
	}
	for _, p := range outs {
		fmt.Println("  wrote", p)
	}
}

func runRuns(args []string) {
	fs := flag.NewFlagSet("runs", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to YAML config (falls back to CONFIG_PATH)")
	_ = fs.Parse(args)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}
	led, err := ledger.Open(cfg.Resolve(cfg.LedgerPath))
	if err != nil {
		log.Fatalf("Error opening ledger: %v", err)
	}
	defer led.Close()

	runs, err := led.Runs()
	if err != nil {
		log.Fatalf("Error reading runs: %v", err)
	}
	for _, r := range runs {
		fmt.Printf("%4d  %s  %-5s %-8s rows=%-7d skipped=%-4d %s\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04"), r.Mode, r.Policy, r.Rows, r.Skipped, r.VectorPath)
		folds, err := led.Folds(r.ID)
		if err != nil {
			log.Fatalf("Error reading folds of run %d: %v", r.ID, err)
		}
		for _, f := range folds {
			mark := " "
			if f.Selected {
				mark = "*"
			}
			fmt.Printf("      %s kernel=%d lr=%g fold=%d val_acc=%.4f val_loss=%.4f\n",
				mark, f.Kernel, f.LearningRate, f.Fold, f.ValAccuracy, f.ValLoss)
		}
	}
}
