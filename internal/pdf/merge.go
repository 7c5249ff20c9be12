package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

var ErrNothingToMerge = errors.New("no documents to merge")

// Merger concatenates PDF documents in order.
type Merger struct {
	conf *model.Configuration
}

func NewMerger() *Merger {
	return &Merger{conf: model.NewDefaultConfiguration()}
}

func (m *Merger) Merge(docs ...[]byte) ([]byte, error) {
	switch len(docs) {
	case 0:
		return nil, ErrNothingToMerge
	case 1:
		return docs[0], nil
	}

	readers := make([]io.ReadSeeker, 0, len(docs))
	for _, d := range docs {
		readers = append(readers, bytes.NewReader(d))
	}

	var out bytes.Buffer
	if err := api.MergeRaw(readers, &out, false, m.conf); err != nil {
		return nil, fmt.Errorf("merge %d documents: %w", len(docs), err)
	}
	return out.Bytes(), nil
}
