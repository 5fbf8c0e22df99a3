package data

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"landcover/pkg/core"
	"landcover/pkg/dataprep"
)

// Sample is one row of a feature table: the band values of a pixel and
// the class code it was labelled with.
type Sample struct {
	X    []float64
	Code int
}

// WriteCSV dumps extracted training rows as class,code,b1..bn.
func WriteCSV(path string, X *core.Matrix, codes []int, labels *dataprep.LabelSet) error {
	if X.R != len(codes) {
		return fmt.Errorf("data: %d rows but %d codes", X.R, len(codes))
	}
	names := make(map[int]string, labels.Len())
	for _, c := range labels.Classes {
		names[c.Code] = c.Name
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(bufio.NewWriter(file))

	header := []string{"class", "code"}
	for b := 1; b <= X.C; b++ {
		header = append(header, "b"+strconv.Itoa(b))
	}
	if err := w.Write(header); err != nil {
		file.Close()
		return err
	}
	rec := make([]string, len(header))
	for i := 0; i < X.R; i++ {
		rec[0] = names[codes[i]]
		rec[1] = strconv.Itoa(codes[i])
		for j, v := range X.Row(i) {
			rec[2+j] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(rec); err != nil {
			file.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// StreamCSV streams the rows of a table written by WriteCSV through out.
// Malformed rows are logged and skipped; any other read error ends the
// stream. Close the returned done chan to stop early; out is closed when
// streaming ends.
func StreamCSV(path string, out chan<- Sample) (done chan struct{}, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	done, err = stream(file, out)
	if err != nil {
		return nil, fmt.Errorf("data: %s: %w", path, err)
	}
	return done, nil
}

func stream(src io.ReadCloser, out chan<- Sample) (chan struct{}, error) {
	reader := csv.NewReader(bufio.NewReader(src))
	reader.ReuseRecord = true
	header, err := reader.Read()
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 3 || header[1] != "code" {
		src.Close()
		return nil, errors.New("not a feature table")
	}
	bands := len(header) - 2
	done := make(chan struct{})

	go func() {
		defer src.Close()
		defer close(out)
		for {
			rec, err := reader.Read()
			if err == io.EOF {
				return
			}
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				log.Printf("data: skipping line %d: %v", perr.Line, err)
				continue
			}
			if err != nil {
				log.Printf("data: stopped reading: %v", err)
				return
			}
			s, err := parseRow(rec, bands)
			if err != nil {
				line, _ := reader.FieldPos(0)
				log.Printf("data: skipping line %d: %v", line, err)
				continue
			}
			select {
			case <-done:
				return
			case out <- s:
			}
		}
	}()
	return done, nil
}

func parseRow(rec []string, bands int) (Sample, error) {
	if len(rec) != bands+2 {
		return Sample{}, fmt.Errorf("expected %d fields, got %d", bands+2, len(rec))
	}
	code, err := strconv.Atoi(rec[1])
	if err != nil {
		return Sample{}, err
	}
	x := make([]float64, bands)
	for j := range x {
		if x[j], err = strconv.ParseFloat(rec[2+j], 64); err != nil {
			return Sample{}, err
		}
	}
	return Sample{X: x, Code: code}, nil
}

// ReadCSV loads a whole feature table, dropping rows with missing values.
func ReadCSV(path string) (*core.Matrix, []int, error) {
	ch := make(chan Sample, 256)
	if _, err := StreamCSV(path, ch); err != nil {
		return nil, nil, err
	}
	var rows [][]float64
	var codes []int
	for s := range ch {
		rows = append(rows, s.X)
		codes = append(codes, s.Code)
	}
	rows, codes = dataprep.DropMissingRows(rows, codes)
	if len(rows) == 0 {
		return core.NewMatrix(0, 0), nil, nil
	}
	return core.FromSlice(rows), codes, nil
}
