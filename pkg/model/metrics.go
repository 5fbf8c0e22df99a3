package model

import (
	"fmt"
	"strings"
)

func Accuracy(yTrue, yPred []int) float64 {
	if len(yTrue) == 0 {
		return 0
	}
	c := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			c++
		}
	}
	return float64(c) / float64(len(yTrue))
}

// ConfusionMatrix counts [true][predicted] over k classes.
func ConfusionMatrix(yTrue, yPred []int, k int) [][]int {
	cm := make([][]int, k)
	for i := range cm {
		cm[i] = make([]int, k)
	}
	for i := range yTrue {
		cm[yTrue[i]][yPred[i]]++
	}
	return cm
}

// ClassMetrics holds one row of a classification report.
type ClassMetrics struct {
	Precision, Recall, F1 float64
	Support               int
}

// PerClass derives precision, recall and F1 per class from a confusion matrix.
func PerClass(cm [][]int) []ClassMetrics {
	out := make([]ClassMetrics, len(cm))
	for c := range cm {
		tp := cm[c][c]
		fp, fn := 0, 0
		for o := range cm {
			if o == c {
				continue
			}
			fp += cm[o][c]
			fn += cm[c][o]
		}
		m := ClassMetrics{Support: tp + fn}
		if tp+fp > 0 {
			m.Precision = float64(tp) / float64(tp+fp)
		}
		if tp+fn > 0 {
			m.Recall = float64(tp) / float64(tp+fn)
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		out[c] = m
	}
	return out
}

// Report formats a classification report with one line per class.
func Report(cm [][]int, names []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-20s %9s %9s %9s %9s\n", "class", "precision", "recall", "f1", "support")
	for i, m := range PerClass(cm) {
		fmt.Fprintf(&b, "%-20s %9.3f %9.3f %9.3f %9d\n", names[i], m.Precision, m.Recall, m.F1, m.Support)
	}
	return b.String()
}
