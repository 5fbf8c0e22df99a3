package model

import "fmt"

// Score is the validation outcome used to rank trained models.
type Score struct {
	ValAccuracy float64
	ValLoss     float64
}

// Policy decides whether a candidate beats the current best. One policy is
// used for a whole run so every comparison uses the same metric.
type Policy interface {
	Name() string
	Better(candidate, best Score) bool
}

// BestAccuracy prefers higher validation accuracy, breaking ties on lower loss.
type BestAccuracy struct{}

func (BestAccuracy) Name() string { return "accuracy" }

func (BestAccuracy) Better(c, b Score) bool {
	if c.ValAccuracy != b.ValAccuracy {
		return c.ValAccuracy > b.ValAccuracy
	}
	return c.ValLoss < b.ValLoss
}

// LowestLoss prefers lower validation loss, breaking ties on higher accuracy.
type LowestLoss struct{}

func (LowestLoss) Name() string { return "loss" }

func (LowestLoss) Better(c, b Score) bool {
	if c.ValLoss != b.ValLoss {
		return c.ValLoss < b.ValLoss
	}
	return c.ValAccuracy > b.ValAccuracy
}

func PolicyByName(name string) (Policy, error) {
	switch name {
	case "accuracy", "":
		return BestAccuracy{}, nil
	case "loss":
		return LowestLoss{}, nil
	}
	return nil, fmt.Errorf("model: unknown selection policy %q", name)
}
