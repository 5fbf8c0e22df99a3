package dataprep

import (
	"errors"
	"fmt"
	"image/color"
	"strings"
)

var (
	ErrUnknownLabel = errors.New("dataprep: label not in label set")
	ErrUnknownCode  = errors.New("dataprep: code not in label set")
)

// Class is one entry of the fixed label set.
type Class struct {
	Name  string     `json:"name"`
	Code  int        `json:"code"`
	Color color.RGBA `json:"color"`
}

// LabelSet is the ordered, fixed set of classes. Position in the set is the
// one-hot index and the network output index; Code is what gets written to
// rasters.
type LabelSet struct {
	Classes []Class `json:"classes"`
}

// NewLabelSet validates names and codes: both unique, codes in [0, 255].
func NewLabelSet(classes []Class) (*LabelSet, error) {
	if len(classes) == 0 {
		return nil, errors.New("dataprep: empty label set")
	}
	names := map[string]bool{}
	codes := map[int]bool{}
	for _, c := range classes {
		key := strings.ToLower(c.Name)
		if c.Name == "" {
			return nil, errors.New("dataprep: class with empty name")
		}
		if names[key] {
			return nil, fmt.Errorf("dataprep: duplicate class %q", c.Name)
		}
		if codes[c.Code] {
			return nil, fmt.Errorf("dataprep: duplicate code %d", c.Code)
		}
		if c.Code < 0 || c.Code > 255 {
			return nil, fmt.Errorf("dataprep: code %d for %q does not fit in a byte", c.Code, c.Name)
		}
		names[key] = true
		codes[c.Code] = true
	}
	return &LabelSet{Classes: append([]Class(nil), classes...)}, nil
}

func (s *LabelSet) Len() int { return len(s.Classes) }

// Code maps a class name (case-insensitive, surrounding spaces ignored) to its code.
func (s *LabelSet) Code(name string) (int, error) {
	i, err := s.Index(name)
	if err != nil {
		return 0, err
	}
	return s.Classes[i].Code, nil
}

// Index returns the position of a class name in the set.
func (s *LabelSet) Index(name string) (int, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for i, c := range s.Classes {
		if strings.ToLower(c.Name) == key {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLabel, name)
}

// IndexOfCode returns the position of a code in the set.
func (s *LabelSet) IndexOfCode(code int) (int, error) {
	for i, c := range s.Classes {
		if c.Code == code {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownCode, code)
}

// Indices converts codes to set positions: the sparse form of OneHot that
// the training loss consumes.
func (s *LabelSet) Indices(codes []int) ([]int, error) {
	out := make([]int, len(codes))
	for i, c := range codes {
		idx, err := s.IndexOfCode(c)
		if err != nil {
			return nil, err
		}
		out[i] = idx
	}
	return out, nil
}

// OneHot encodes label codes as one-hot rows over the whole label set, so the
// width is stable even when a class is absent from the sample.
func (s *LabelSet) OneHot(codes []int) ([][]float64, error) {
	idx, err := s.Indices(codes)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(idx))
	for i, k := range idx {
		vec := make([]float64, s.Len())
		vec[k] = 1
		out[i] = vec
	}
	return out, nil
}

// Names lists class names in set order.
func (s *LabelSet) Names() []string {
	out := make([]string, len(s.Classes))
	for i, c := range s.Classes {
		out[i] = c.Name
	}
	return out
}
